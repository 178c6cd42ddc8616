package usecase

import "errors"

// Sentinel errors for the user-correctable failure modes. The message texts
// are the user-visible response strings the API returns, which is why they
// read as sentences.
var (
	ErrInvalidEmail           = errors.New("Invalid email address.")
	ErrInvalidPackager        = errors.New("Error parsing packager")
	ErrInvalidImage           = errors.New("upload failed.")
	ErrInferenceFailed        = errors.New("upload failed, uploads deleted.")
	ErrInferenceCleanupFailed = errors.New("upload failed, uploads NOT deleted.")
	ErrPostNotFound           = errors.New("invalid post.")
	ErrNotOwner               = errors.New("invalid user.")
	ErrDuplicatePrediction    = errors.New("duplicate prediction.")
)

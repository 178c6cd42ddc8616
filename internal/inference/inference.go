// Package inference adapts the external Mask R-CNN box-prediction service.
// The model is opaque: image bytes go in, three box measurements come out,
// and any failure is terminal for the calling upload attempt.
package inference

import "context"

// Prediction carries the box measurements returned for an image.
type Prediction struct {
	OuterSize float64
	InnerSize float64
	ItemSize  float64
}

// Client exposes the single prediction call the upload flow needs.
type Client interface {
	Predict(ctx context.Context, image []byte) (*Prediction, error)
}

package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	// Uploaded payloads are validated by decoding their headers.
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/packscan/internal/inference"
	"github.com/example/packscan/internal/logging"
	"github.com/example/packscan/internal/repository"
)

// PostStore is the persistence surface for image posts and predictions.
type PostStore interface {
	CreateImagePost(ctx context.Context, post *repository.ImagePost) error
	GetImagePost(ctx context.Context, id uint) (*repository.ImagePost, error)
	DeleteImagePost(ctx context.Context, id uint) error
	SavePrediction(ctx context.Context, prediction *repository.PredictedImagePost) error
	ListPredicted(ctx context.Context, page, pageSize int) ([]repository.PredictedImagePost, int64, error)
	MonthlyPostCounts(ctx context.Context, year int) ([]repository.MonthCount, error)
	MonthlyPredictionCounts(ctx context.Context, year int) ([]repository.MonthCount, error)
}

// ImageStore persists raw image payloads and hands back file references.
type ImageStore interface {
	Save(data []byte, ext string) (string, error)
	Remove(name string) error
}

// PostUseCase orchestrates the upload, feed, delete and chart-data flows.
type PostUseCase struct {
	registry  *Registry
	posts     PostStore
	files     ImageStore
	cache     Cache
	predictor inference.Client
	logger    *zap.Logger

	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func NewPostUseCase(registry *Registry, posts PostStore, files ImageStore, cache Cache, predictor inference.Client, logger *zap.Logger) *PostUseCase {
	return &PostUseCase{
		registry:       registry,
		posts:          posts,
		files:          files,
		cache:          cache,
		predictor:      predictor,
		logger:         logger.Named("post_usecase"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// UploadInput is the typed upload request: two raw image payloads plus the
// uploader's email and the packager's display name.
type UploadInput struct {
	Email     string
	Packager  string
	TopImage  []byte
	SideImage []byte
}

// UploadResult is what a successful upload reports back to the client.
type UploadResult struct {
	PostID       uint    `json:"post_id"`
	PackagerID   uint    `json:"packager_id"`
	PackagerName string  `json:"packager_name"`
	InferImage   string  `json:"infer_img"`
	OuterSize    float64 `json:"outer_size"`
	InnerSize    float64 `json:"inner_size"`
	ItemSize     float64 `json:"item_size"`
}

// Upload runs the full upload workflow: ensure user and packager, validate
// and store the images, persist the post, call inference, and attach the
// prediction. A failed inference rolls the stored post back so no post
// without a prediction survives.
func (uc *PostUseCase) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	opID := uuid.NewString()
	opLogger := logging.WithOperation(uc.logger, "usecase.upload", opID)

	user, err := uc.registry.EnsureUser(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	packager, err := uc.registry.EnsurePackager(ctx, in.Packager)
	if err != nil {
		return nil, err
	}

	topExt, err := sniffImage(in.TopImage)
	if err != nil {
		return nil, fmt.Errorf("%w: top image: %v", ErrInvalidImage, err)
	}
	sideExt, err := sniffImage(in.SideImage)
	if err != nil {
		return nil, fmt.Errorf("%w: side image: %v", ErrInvalidImage, err)
	}

	topName, err := uc.files.Save(in.TopImage, topExt)
	if err != nil {
		opLogger.Error("failed to store top image", zap.Error(err))
		return nil, logging.NewOperationError("usecase.store_top_image", opID, err)
	}
	sideName, err := uc.files.Save(in.SideImage, sideExt)
	if err != nil {
		uc.removeFiles(opLogger, topName)
		opLogger.Error("failed to store side image", zap.Error(err))
		return nil, logging.NewOperationError("usecase.store_side_image", opID, err)
	}

	post := &repository.ImagePost{
		UserID:     user.ID,
		TopImage:   topName,
		SideImage:  sideName,
		InferImage: topName,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.posts.CreateImagePost(ctx, post); err != nil {
		uc.removeFiles(opLogger, topName, sideName)
		opLogger.Error("failed to persist image post", zap.Error(err))
		return nil, logging.NewOperationError("usecase.create_image_post", opID, err)
	}

	prediction, err := uc.predictor.Predict(ctx, in.TopImage)
	if err != nil {
		opLogger.Error("inference failed, rolling back upload", zap.Error(err), zap.Uint("post_id", post.ID))
		if cleanupErr := uc.posts.DeleteImagePost(ctx, post.ID); cleanupErr != nil {
			opLogger.Error("rollback delete failed", zap.Error(cleanupErr), zap.Uint("post_id", post.ID))
			return nil, fmt.Errorf("%w: %v", ErrInferenceCleanupFailed, err)
		}
		uc.removeFiles(opLogger, topName, sideName)
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}

	predicted := &repository.PredictedImagePost{
		ImagePostID: post.ID,
		PackagerID:  packager.ID,
		OuterSize:   prediction.OuterSize,
		InnerSize:   prediction.InnerSize,
		ItemSize:    prediction.ItemSize,
		CreatedAt:   time.Now().UTC(),
	}
	if err := uc.posts.SavePrediction(ctx, predicted); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: post %d", ErrDuplicatePrediction, post.ID)
		}
		opLogger.Error("failed to persist prediction", zap.Error(err), zap.Uint("post_id", post.ID))
		return nil, logging.NewOperationError("usecase.save_prediction", opID, err)
	}

	opLogger.Info("upload complete",
		zap.Uint("post_id", post.ID),
		zap.String("packager", packager.Name))

	return &UploadResult{
		PostID:       post.ID,
		PackagerID:   packager.ID,
		PackagerName: packager.DisplayName,
		InferImage:   post.InferImage,
		OuterSize:    prediction.OuterSize,
		InnerSize:    prediction.InnerSize,
		ItemSize:     prediction.ItemSize,
	}, nil
}

func (uc *PostUseCase) removeFiles(logger *zap.Logger, names ...string) {
	for _, name := range names {
		if err := uc.files.Remove(name); err != nil {
			logger.Warn("failed to remove stored image", zap.Error(err), zap.String("file", name))
		}
	}
}

// sniffImage checks that the payload decodes as a supported image format and
// returns the format name for use as a file extension.
func sniffImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty payload")
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("unrecognized image data: %w", err)
	}
	return format, nil
}

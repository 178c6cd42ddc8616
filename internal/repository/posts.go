package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostRepository persists image posts and their predictions.
type PostRepository struct {
	db *gorm.DB
	retrier
}

func NewPostRepository(db *gorm.DB, logger *zap.Logger) *PostRepository {
	return &PostRepository{
		db:      db,
		retrier: newRetrier(logger.Named("post_repository")),
	}
}

// CreateImagePost inserts a new image post and fills in its generated id.
func (r *PostRepository) CreateImagePost(ctx context.Context, post *ImagePost) error {
	return r.executeWithRetry(ctx, "posts.create_image_post", "", func() error {
		return r.db.WithContext(ctx).Create(post).Error
	})
}

// GetImagePost loads a post by id, ErrNotFound when it does not exist.
func (r *PostRepository) GetImagePost(ctx context.Context, id uint) (*ImagePost, error) {
	var posts []ImagePost
	err := r.executeWithRetry(ctx, "posts.get_image_post", "", func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&posts).Error
	})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("%w: image post %d", ErrNotFound, id)
	}
	return &posts[0], nil
}

// DeleteImagePost removes a post together with any attached prediction. The
// two deletes run in one transaction so a prediction can never be orphaned.
func (r *PostRepository) DeleteImagePost(ctx context.Context, id uint) error {
	return r.executeWithRetry(ctx, "posts.delete_image_post", "", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("image_post_id = ?", id).Delete(&PredictedImagePost{}).Error; err != nil {
				return err
			}
			return tx.Where("id = ?", id).Delete(&ImagePost{}).Error
		})
	})
}

// SavePrediction attaches inference output to a post. The unique index on
// image_post_id rejects a second prediction with ErrDuplicate.
func (r *PostRepository) SavePrediction(ctx context.Context, prediction *PredictedImagePost) error {
	return r.executeWithRetry(ctx, "posts.save_prediction", "", func() error {
		return translateDuplicate(r.db.WithContext(ctx).Create(prediction).Error)
	})
}

// ListPredicted returns one feed page of predicted posts, newest first with
// id as tiebreak, together with the total number of predicted posts.
func (r *PostRepository) ListPredicted(ctx context.Context, page, pageSize int) ([]PredictedImagePost, int64, error) {
	if page < 1 {
		page = 1
	}

	var (
		items []PredictedImagePost
		total int64
	)
	err := r.executeWithRetry(ctx, "posts.list_predicted", "", func() error {
		if err := r.db.WithContext(ctx).Model(&PredictedImagePost{}).Count(&total).Error; err != nil {
			return err
		}
		return r.db.WithContext(ctx).
			Preload("ImagePost").
			Preload("Packager").
			Order("created_at DESC, id DESC").
			Offset((page - 1) * pageSize).
			Limit(pageSize).
			Find(&items).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// MonthCount is one month of an aggregate series, Month in 1..12.
type MonthCount struct {
	Month int
	Count int64
}

// MonthlyPostCounts aggregates image posts per month for the given year.
func (r *PostRepository) MonthlyPostCounts(ctx context.Context, year int) ([]MonthCount, error) {
	return r.monthlyCounts(ctx, "posts.monthly_post_counts", ImagePost{}.TableName(), year)
}

// MonthlyPredictionCounts aggregates predicted posts per month for the
// given year.
func (r *PostRepository) MonthlyPredictionCounts(ctx context.Context, year int) ([]MonthCount, error) {
	return r.monthlyCounts(ctx, "posts.monthly_prediction_counts", PredictedImagePost{}.TableName(), year)
}

func (r *PostRepository) monthlyCounts(ctx context.Context, operation, table string, year int) ([]MonthCount, error) {
	var rows []MonthCount
	err := r.executeWithRetry(ctx, operation, "", func() error {
		query := fmt.Sprintf(
			"SELECT EXTRACT(MONTH FROM created_at)::int AS month, COUNT(*) AS count FROM %s WHERE EXTRACT(YEAR FROM created_at) = ? GROUP BY 1 ORDER BY 1",
			table,
		)
		return r.db.WithContext(ctx).Raw(query, year).Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/example/packscan/internal/logging"
	"github.com/example/packscan/internal/repository"
)

// FeedPageSize is the fixed number of predicted posts per feed page.
const FeedPageSize = 10

// FeedItem is one predicted post as seen in the feed.
type FeedItem struct {
	ID           uint      `json:"id"`
	PostID       uint      `json:"post_id"`
	PackagerID   uint      `json:"packager_id"`
	PackagerName string    `json:"packager_name"`
	InferImage   string    `json:"infer_img"`
	OuterSize    float64   `json:"outer_size"`
	InnerSize    float64   `json:"inner_size"`
	ItemSize     float64   `json:"item_size"`
	CreatedAt    time.Time `json:"created_at"`
}

// FeedPage carries one page of feed items plus the overall item count.
type FeedPage struct {
	Count   int64      `json:"count"`
	Results []FeedItem `json:"results"`
}

// Feed returns the requested page of predicted posts, newest first. Pages
// start at 1; anything lower is clamped.
func (uc *PostUseCase) Feed(ctx context.Context, page int) (*FeedPage, error) {
	if page < 1 {
		page = 1
	}

	items, total, err := uc.posts.ListPredicted(ctx, page, FeedPageSize)
	if err != nil {
		return nil, logging.NewOperationError("usecase.feed", "", err)
	}

	feed := &FeedPage{
		Count:   total,
		Results: make([]FeedItem, 0, len(items)),
	}
	for _, item := range items {
		feed.Results = append(feed.Results, FeedItem{
			ID:           item.ID,
			PostID:       item.ImagePostID,
			PackagerID:   item.PackagerID,
			PackagerName: item.Packager.DisplayName,
			InferImage:   item.ImagePost.InferImage,
			OuterSize:    item.OuterSize,
			InnerSize:    item.InnerSize,
			ItemSize:     item.ItemSize,
			CreatedAt:    item.CreatedAt,
		})
	}
	return feed, nil
}

// DeletePost removes a post owned by the requester together with its
// prediction and stored image files. The requester is identified by the
// authenticated email.
func (uc *PostUseCase) DeletePost(ctx context.Context, postID uint, requesterEmail string) error {
	opLogger := logging.WithOperation(uc.logger, "usecase.delete_post", "")

	post, err := uc.posts.GetImagePost(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	requester, err := uc.registry.accounts.FindUserByEmail(ctx, NormalizeEmail(requesterEmail))
	if err != nil {
		return err
	}
	if requester == nil || requester.ID != post.UserID {
		return ErrNotOwner
	}

	if err := uc.posts.DeleteImagePost(ctx, postID); err != nil {
		opLogger.Error("failed to delete image post", zap.Error(err), zap.Uint("post_id", postID))
		return err
	}
	uc.removeFiles(opLogger, post.TopImage, post.SideImage)

	opLogger.Info("deleted post", zap.Uint("post_id", postID))
	return nil
}

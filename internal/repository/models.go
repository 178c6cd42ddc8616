package repository

import (
	"errors"
	"time"
)

// Common errors surfaced by repository implementations. Callers match these
// with errors.Is instead of depending on gorm error values.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a unique constraint rejected the write.
	ErrDuplicate = errors.New("duplicate record")
)

// User owns uploaded image posts. Created lazily on first upload for an
// email address and never deleted.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"column:email;uniqueIndex;size:254"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (User) TableName() string {
	return "users"
}

// Packager is a retailer/brand entity. Name holds the normalized lookup key;
// DisplayName keeps the raw spelling from the first sighting.
type Packager struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;size:128"`
	DisplayName string    `gorm:"column:display_name;size:128"`
	UsageCount  int64     `gorm:"column:usage_count"`
	Score       float64   `gorm:"column:score"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (Packager) TableName() string {
	return "packagers"
}

// ImagePost is an uploaded image pair. The image columns hold stored file
// references; InferImage equals TopImage by convention.
type ImagePost struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"column:user_id;index"`
	User       User      `gorm:"foreignKey:UserID"`
	TopImage   string    `gorm:"column:top_image;size:256"`
	SideImage  string    `gorm:"column:side_image;size:256"`
	InferImage string    `gorm:"column:infer_image;size:256"`
	CreatedAt  time.Time `gorm:"column:created_at;index"`
}

func (ImagePost) TableName() string {
	return "image_posts"
}

// PredictedImagePost attaches inference output to exactly one ImagePost. The
// unique index on ImagePostID enforces the 1:1 relation; the FK cascade keeps
// predictions from outliving their post.
type PredictedImagePost struct {
	ID          uint      `gorm:"primaryKey"`
	ImagePostID uint      `gorm:"column:image_post_id;uniqueIndex"`
	ImagePost   ImagePost `gorm:"foreignKey:ImagePostID;constraint:OnDelete:CASCADE"`
	PackagerID  uint      `gorm:"column:packager_id;index"`
	Packager    Packager  `gorm:"foreignKey:PackagerID"`
	OuterSize   float64   `gorm:"column:outer_size"`
	InnerSize   float64   `gorm:"column:inner_size"`
	ItemSize    float64   `gorm:"column:item_size"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
}

func (PredictedImagePost) TableName() string {
	return "predicted_image_posts"
}

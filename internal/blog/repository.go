package blog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPostNotFound     = errors.New("blog post not found")
	ErrCategoryNotFound = errors.New("blog category not found")
)

// Repository contains all DB interactions for blog content.
type Repository interface {
	ListPublishedPosts(ctx context.Context, limit, offset int) ([]Post, error)
	GetPublishedPostBySlug(ctx context.Context, slug string) (*Post, error)

	ListPosts(ctx context.Context, limit, offset int) ([]Post, error)
	GetPostByID(ctx context.Context, id uuid.UUID) (*Post, error)
	CreatePost(ctx context.Context, p *Post) (*Post, error)
	UpdatePost(ctx context.Context, p *Post) (*Post, error)
	DeletePost(ctx context.Context, id uuid.UUID) error

	// PublishDue flips scheduled posts whose time has passed and returns the
	// ids it published.
	PublishDue(ctx context.Context, now time.Time) ([]uuid.UUID, error)

	ListCategories(ctx context.Context, activeOnly bool) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) (*Category, error)
}

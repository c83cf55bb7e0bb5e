package blog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) ListPublished(ctx context.Context, limit, offset int) ([]Post, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListPublishedPosts(ctx, limit, offset)
}

func (s *Service) GetPublishedBySlug(ctx context.Context, slug string) (*Post, error) {
	return s.repo.GetPublishedPostBySlug(ctx, slug)
}

func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]Post, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListPosts(ctx, limit, offset)
}

func (s *Service) Create(ctx context.Context, p *Post) (*Post, error) {
	if p.Status == "" {
		p.Status = PostDraft
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Status == PostPublished && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}
	return s.repo.CreatePost(ctx, p)
}

func (s *Service) Update(ctx context.Context, p *Post) (*Post, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Status == PostPublished && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}
	return s.repo.UpdatePost(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeletePost(ctx, id)
}

// PublishDue is run periodically by the publish worker.
func (s *Service) PublishDue(ctx context.Context, now time.Time) error {
	ids, err := s.repo.PublishDue(ctx, now)
	if err != nil {
		return fmt.Errorf("publish due posts: %w", err)
	}
	for _, id := range ids {
		s.log.Info("blog post published", zap.String("post_id", id.String()))
	}
	return nil
}

func (s *Service) ListCategories(ctx context.Context, activeOnly bool) ([]Category, error) {
	return s.repo.ListCategories(ctx, activeOnly)
}

func (s *Service) CreateCategory(ctx context.Context, c *Category) (*Category, error) {
	if c.Slug == "" || c.NameEn == "" {
		return nil, fmt.Errorf("slug and english name are required")
	}
	return s.repo.CreateCategory(ctx, c)
}

package blog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostScheduled PostStatus = "scheduled"
	PostPublished PostStatus = "published"
)

type Category struct {
	ID        uuid.UUID
	Slug      string
	NameEn    string
	NameAr    string
	NameFr    string
	IsActive  bool
	CreatedAt time.Time
}

type Post struct {
	ID          uuid.UUID
	CategoryID  *uuid.UUID
	Slug        string
	TitleEn     string
	TitleAr     string
	TitleFr     string
	ExcerptEn   string
	ExcerptAr   string
	ExcerptFr   string
	ContentEn   string
	ContentAr   string
	ContentFr   string
	Tags        []string
	Status      PostStatus
	ScheduledAt *time.Time
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Post) Validate() error {
	if p.Slug == "" {
		return fmt.Errorf("slug is required")
	}
	if p.TitleEn == "" {
		return fmt.Errorf("english title is required")
	}
	if p.ContentEn == "" {
		return fmt.Errorf("english content is required")
	}
	switch p.Status {
	case PostDraft, PostPublished:
	case PostScheduled:
		if p.ScheduledAt == nil {
			return fmt.Errorf("scheduled post needs a scheduled_at time")
		}
	default:
		return fmt.Errorf("unknown post status %q", p.Status)
	}
	return nil
}

package blog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const postColumns = `id, category_id, slug, title_en, title_ar, title_fr,
		excerpt_en, excerpt_ar, excerpt_fr, content_en, content_ar, content_fr,
		tags, status, scheduled_at, published_at, created_at, updated_at`

func scanPost(row pgx.Row) (*Post, error) {
	var p Post

	err := row.Scan(
		&p.ID,
		&p.CategoryID,
		&p.Slug,
		&p.TitleEn,
		&p.TitleAr,
		&p.TitleFr,
		&p.ExcerptEn,
		&p.ExcerptAr,
		&p.ExcerptFr,
		&p.ContentEn,
		&p.ContentAr,
		&p.ContentFr,
		&p.Tags,
		&p.Status,
		&p.ScheduledAt,
		&p.PublishedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) collectPosts(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	return result, rows.Err()
}

func (r *PgRepository) ListPublishedPosts(ctx context.Context, limit, offset int) ([]Post, error) {
	return r.collectPosts(ctx, `
		SELECT `+postColumns+`
		FROM blog_posts
		WHERE status = 'published'
		ORDER BY published_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
}

func (r *PgRepository) GetPublishedPostBySlug(ctx context.Context, slug string) (*Post, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+postColumns+`
		FROM blog_posts
		WHERE slug = $1 AND status = 'published'
	`, slug)
	return scanPost(row)
}

func (r *PgRepository) ListPosts(ctx context.Context, limit, offset int) ([]Post, error) {
	return r.collectPosts(ctx, `
		SELECT `+postColumns+`
		FROM blog_posts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
}

func (r *PgRepository) GetPostByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+postColumns+`
		FROM blog_posts
		WHERE id = $1
	`, id)
	return scanPost(row)
}

func (r *PgRepository) CreatePost(ctx context.Context, p *Post) (*Post, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO blog_posts
			(id, category_id, slug, title_en, title_ar, title_fr,
			 excerpt_en, excerpt_ar, excerpt_fr, content_en, content_ar, content_fr,
			 tags, status, scheduled_at, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now(), now())
		RETURNING `+postColumns+`
	`, uuid.New(), p.CategoryID, p.Slug, p.TitleEn, p.TitleAr, p.TitleFr,
		p.ExcerptEn, p.ExcerptAr, p.ExcerptFr, p.ContentEn, p.ContentAr, p.ContentFr,
		p.Tags, p.Status, p.ScheduledAt, p.PublishedAt)
	return scanPost(row)
}

func (r *PgRepository) UpdatePost(ctx context.Context, p *Post) (*Post, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE blog_posts
		SET category_id = $2, slug = $3, title_en = $4, title_ar = $5, title_fr = $6,
		    excerpt_en = $7, excerpt_ar = $8, excerpt_fr = $9,
		    content_en = $10, content_ar = $11, content_fr = $12,
		    tags = $13, status = $14, scheduled_at = $15, published_at = $16,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+postColumns+`
	`, p.ID, p.CategoryID, p.Slug, p.TitleEn, p.TitleAr, p.TitleFr,
		p.ExcerptEn, p.ExcerptAr, p.ExcerptFr, p.ContentEn, p.ContentAr, p.ContentFr,
		p.Tags, p.Status, p.ScheduledAt, p.PublishedAt)
	return scanPost(row)
}

func (r *PgRepository) DeletePost(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *PgRepository) PublishDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE blog_posts
		SET status = 'published',
		    published_at = $1,
		    updated_at = now()
		WHERE status = 'scheduled'
		  AND scheduled_at IS NOT NULL
		  AND scheduled_at <= $1
		RETURNING id
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *PgRepository) ListCategories(ctx context.Context, activeOnly bool) ([]Category, error) {
	query := `
		SELECT id, slug, name_en, name_ar, name_fr, is_active, created_at
		FROM blog_categories
	`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name_en`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.NameEn, &c.NameAr, &c.NameFr, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}

	return result, rows.Err()
}

func (r *PgRepository) CreateCategory(ctx context.Context, c *Category) (*Category, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO blog_categories (id, slug, name_en, name_ar, name_fr, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, slug, name_en, name_ar, name_fr, is_active, created_at
	`, uuid.New(), c.Slug, c.NameEn, c.NameAr, c.NameFr, c.IsActive)

	var created Category
	err := row.Scan(&created.ID, &created.Slug, &created.NameEn, &created.NameAr,
		&created.NameFr, &created.IsActive, &created.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

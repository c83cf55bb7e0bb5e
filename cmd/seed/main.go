package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medbook/clinic-api/internal/auth"
	"github.com/medbook/clinic-api/internal/clinic"
	"github.com/medbook/clinic-api/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedAdmin(context.Background(), pool); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := seedAppointmentTypes(context.Background(), pool); err != nil {
		log.Fatalf("seed appointment types: %v", err)
	}
	if err := seedDoctors(context.Background(), pool, 4); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedBlog(context.Background(), pool); err != nil {
		log.Fatalf("seed blog: %v", err)
	}

	log.Println("seed complete")
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool) error {
	email := envOr("SEED_ADMIN_EMAIL", "admin@clinic.local")
	password := envOr("SEED_ADMIN_PASSWORD", "changeme-now")

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO admin_users (email, name, password_hash)
		VALUES ($1, 'Clinic Admin', $2)
		ON CONFLICT (email) DO NOTHING
	`, email, hash)
	if err != nil {
		return err
	}

	log.Printf("admin user ready: %s", email)
	return nil
}

func seedAppointmentTypes(ctx context.Context, pool *pgxpool.Pool) error {
	types := []struct {
		nameEn, nameAr, nameFr string
		duration               int
		price                  float64
		free                   bool
	}{
		{"General Consultation", "استشارة عامة", "Consultation générale", 30, 40, false},
		{"Follow-up Visit", "زيارة متابعة", "Visite de suivi", 30, 0, true},
		{"Lab Results Review", "مراجعة نتائج التحاليل", "Revue des résultats de laboratoire", 30, 25, false},
		{"Vaccination", "تطعيم", "Vaccination", 30, 20, false},
		{"Physiotherapy Session", "جلسة علاج طبيعي", "Séance de physiothérapie", 60, 55, false},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, t := range types {
		_, err := tx.Exec(ctx, `
			INSERT INTO appointment_types
				(id, name_en, name_ar, name_fr, duration_minutes, price, is_free)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.New(), t.nameEn, t.nameAr, t.nameFr, t.duration, t.price, t.free)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("seeded %d appointment types", len(types))
	return nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) error {
	specialties := []string{
		"General Practice",
		"Dermatology",
		"Cardiology",
		"Pediatrics",
		"Orthopedics",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		hours := clinic.WeeklyHours{
			"monday":    {Start: "09:00", End: "17:00"},
			"tuesday":   {Start: "09:00", End: "17:00"},
			"wednesday": {Start: "09:00", End: "13:00"},
			"thursday":  {Start: "10:00", End: "18:00"},
			"saturday":  {Start: "09:00", End: "14:00"},
		}
		hoursJSON, err := json.Marshal(hours)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialization, email, phone, working_hours)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
			uuid.New(),
			"Dr. "+gofakeit.Name(),
			specialties[gofakeit.Number(0, len(specialties)-1)],
			gofakeit.Email(),
			gofakeit.Phone(),
			hoursJSON,
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("seeded %d doctors", count)
	return nil
}

func seedBlog(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	categoryID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO blog_categories (id, slug, name_en, name_ar, name_fr)
		VALUES ($1, 'health-tips', 'Health Tips', 'نصائح صحية', 'Conseils santé')
		ON CONFLICT (slug) DO NOTHING
	`, categoryID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO blog_posts
			(id, category_id, slug, title_en, content_en, tags, status, published_at)
		VALUES ($1, $2, 'welcome', 'Welcome to Our Clinic',
			'We are now taking appointments online.', '{news}', 'published', now())
		ON CONFLICT (slug) DO NOTHING
	`, uuid.New(), categoryID)
	if err != nil {
		return err
	}

	// Scheduled post for the publish worker to pick up.
	_, err = tx.Exec(ctx, `
		INSERT INTO blog_posts
			(id, category_id, slug, title_en, content_en, tags, status, scheduled_at)
		VALUES ($1, $2, 'flu-season', 'Preparing for Flu Season',
			'Book your vaccination early this year.', '{health-tips}', 'scheduled', $3)
		ON CONFLICT (slug) DO NOTHING
	`, uuid.New(), categoryID, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("seeded blog content")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

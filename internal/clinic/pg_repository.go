package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

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

// Helpers

func scanSettings(row pgx.Row) (*Settings, error) {
	var s Settings
	var start, end string
	var breakStart, breakEnd *string
	var days []int32

	err := row.Scan(
		&s.ID,
		&start,
		&end,
		&breakStart,
		&breakEnd,
		&days,
		&s.MultiDoctorMode,
		&s.RequireNationalID,
		&s.NotificationsEnabled,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}

	if s.WorkingHoursStart, err = ParseTimeOfDay(start); err != nil {
		return nil, fmt.Errorf("stored working_hours_start: %w", err)
	}
	if s.WorkingHoursEnd, err = ParseTimeOfDay(end); err != nil {
		return nil, fmt.Errorf("stored working_hours_end: %w", err)
	}
	if breakStart != nil && breakEnd != nil {
		bs, err := ParseTimeOfDay(*breakStart)
		if err != nil {
			return nil, fmt.Errorf("stored break_start: %w", err)
		}
		be, err := ParseTimeOfDay(*breakEnd)
		if err != nil {
			return nil, fmt.Errorf("stored break_end: %w", err)
		}
		s.BreakStart = &bs
		s.BreakEnd = &be
	}

	s.WorkingDays = make([]int, 0, len(days))
	for _, d := range days {
		s.WorkingDays = append(s.WorkingDays, int(d))
	}

	return &s, nil
}

func scanAppointmentType(row pgx.Row) (*AppointmentType, error) {
	var t AppointmentType

	err := row.Scan(
		&t.ID,
		&t.NameEn,
		&t.NameAr,
		&t.NameFr,
		&t.DescriptionEn,
		&t.DescriptionAr,
		&t.DurationMinutes,
		&t.Color,
		&t.Price,
		&t.IsFree,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentTypeNotFound
		}
		return nil, err
	}

	return &t, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var hours []byte

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Specialization,
		&d.Bio,
		&d.Email,
		&d.Phone,
		&d.PhotoURL,
		&d.IsActive,
		&hours,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &d.WorkingHours); err != nil {
			return nil, fmt.Errorf("stored working_hours: %w", err)
		}
	}

	return &d, nil
}

func nullableTimeOfDay(t *TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

// Interface methods

const settingsColumns = `id, working_hours_start, working_hours_end, break_start, break_end,
		working_days, multi_doctor_mode, require_national_id, notifications_enabled, updated_at`

func (r *PgRepository) GetSettings(ctx context.Context) (*Settings, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+settingsColumns+`
		FROM clinic_settings
		LIMIT 1
	`)
	return scanSettings(row)
}

func (r *PgRepository) UpdateSettings(ctx context.Context, s *Settings) (*Settings, error) {
	days := make([]int32, 0, len(s.WorkingDays))
	for _, d := range s.WorkingDays {
		days = append(days, int32(d))
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE clinic_settings
		SET working_hours_start = $2,
		    working_hours_end = $3,
		    break_start = $4,
		    break_end = $5,
		    working_days = $6,
		    multi_doctor_mode = $7,
		    require_national_id = $8,
		    notifications_enabled = $9,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+settingsColumns+`
	`,
		s.ID,
		s.WorkingHoursStart.String(),
		s.WorkingHoursEnd.String(),
		nullableTimeOfDay(s.BreakStart),
		nullableTimeOfDay(s.BreakEnd),
		days,
		s.MultiDoctorMode,
		s.RequireNationalID,
		s.NotificationsEnabled,
	)
	return scanSettings(row)
}

const appointmentTypeColumns = `id, name_en, name_ar, name_fr, description_en, description_ar,
		duration_minutes, color, price, is_free, is_active, created_at, updated_at`

func (r *PgRepository) ListAppointmentTypes(ctx context.Context, activeOnly bool) ([]AppointmentType, error) {
	query := `
		SELECT ` + appointmentTypeColumns + `
		FROM appointment_types
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

	var result []AppointmentType
	for rows.Next() {
		t, err := scanAppointmentType(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}

	return result, rows.Err()
}

func (r *PgRepository) GetAppointmentTypeByID(ctx context.Context, id uuid.UUID) (*AppointmentType, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentTypeColumns+`
		FROM appointment_types
		WHERE id = $1
	`, id)
	return scanAppointmentType(row)
}

func (r *PgRepository) CreateAppointmentType(ctx context.Context, t *AppointmentType) (*AppointmentType, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointment_types
			(id, name_en, name_ar, name_fr, description_en, description_ar,
			 duration_minutes, color, price, is_free, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		RETURNING `+appointmentTypeColumns+`
	`, uuid.New(), t.NameEn, t.NameAr, t.NameFr, t.DescriptionEn, t.DescriptionAr,
		t.DurationMinutes, t.Color, t.Price, t.IsFree, t.IsActive)
	return scanAppointmentType(row)
}

func (r *PgRepository) UpdateAppointmentType(ctx context.Context, t *AppointmentType) (*AppointmentType, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointment_types
		SET name_en = $2, name_ar = $3, name_fr = $4,
		    description_en = $5, description_ar = $6,
		    duration_minutes = $7, color = $8, price = $9,
		    is_free = $10, is_active = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentTypeColumns+`
	`, t.ID, t.NameEn, t.NameAr, t.NameFr, t.DescriptionEn, t.DescriptionAr,
		t.DurationMinutes, t.Color, t.Price, t.IsFree, t.IsActive)
	return scanAppointmentType(row)
}

func (r *PgRepository) SetAppointmentTypeActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointment_types
		SET is_active = $2, updated_at = now()
		WHERE id = $1
	`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentTypeNotFound
	}
	return nil
}

const doctorColumns = `id, name, specialization, bio, email, phone, photo_url,
		is_active, working_hours, created_at, updated_at`

func (r *PgRepository) ListDoctors(ctx context.Context, activeOnly bool) ([]Doctor, error) {
	query := `
		SELECT ` + doctorColumns + `
		FROM doctors
	`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	return result, rows.Err()
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) CreateDoctor(ctx context.Context, d *Doctor) (*Doctor, error) {
	hours, err := json.Marshal(d.WorkingHours)
	if err != nil {
		return nil, fmt.Errorf("marshal working hours: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctors
			(id, name, specialization, bio, email, phone, photo_url,
			 is_active, working_hours, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+doctorColumns+`
	`, uuid.New(), d.Name, d.Specialization, d.Bio, d.Email, d.Phone, d.PhotoURL,
		d.IsActive, hours)
	return scanDoctor(row)
}

func (r *PgRepository) UpdateDoctor(ctx context.Context, d *Doctor) (*Doctor, error) {
	hours, err := json.Marshal(d.WorkingHours)
	if err != nil {
		return nil, fmt.Errorf("marshal working hours: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE doctors
		SET name = $2, specialization = $3, bio = $4, email = $5, phone = $6,
		    photo_url = $7, is_active = $8, working_hours = $9, updated_at = now()
		WHERE id = $1
		RETURNING `+doctorColumns+`
	`, d.ID, d.Name, d.Specialization, d.Bio, d.Email, d.Phone,
		d.PhotoURL, d.IsActive, hours)
	return scanDoctor(row)
}

func (r *PgRepository) SetDoctorActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors
		SET is_active = $2, updated_at = now()
		WHERE id = $1
	`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

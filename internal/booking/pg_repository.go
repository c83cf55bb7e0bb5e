package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Phone,
		&p.Email,
		&p.NationalID,
		&p.IsBlocked,
		&p.NoShowCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation

	err := row.Scan(
		&c.ID,
		&c.PatientID,
		&c.Name,
		&c.Phone,
		&c.Email,
		&c.NationalID,
		&c.AppointmentTypeID,
		&c.PracticeArea,
		&c.DoctorID,
		&c.PreferredDate,
		&c.PreferredTime,
		&c.DurationMinutes,
		&c.Status,
		&c.Attended,
		&c.Language,
		&c.Message,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConsultationNotFound
		}
		return nil, err
	}

	return &c, nil
}

const patientColumns = `id, name, phone, email, national_id, is_blocked, no_show_count, created_at, updated_at`

const consultationColumns = `id, patient_id, name, phone, email, national_id, appointment_type_id,
		practice_area, doctor_id, preferred_date, preferred_time, duration_minutes,
		status, attended, language, message, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetPatientByPhone(ctx context.Context, phone string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE phone = $1
		ORDER BY created_at
		LIMIT 1
	`, phone)
	return scanPatient(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) CreatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, name, phone, email, national_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING `+patientColumns+`
	`, uuid.New(), p.Name, p.Phone, p.Email, p.NationalID)
	return scanPatient(row)
}

func (r *PgRepository) IncrementNoShowCount(ctx context.Context, patientID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET no_show_count = no_show_count + 1,
		    updated_at = now()
		WHERE id = $1
	`, patientID)
	if err != nil {
		return fmt.Errorf("increment no-show count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgRepository) GetActiveConsultationForSlot(ctx context.Context, doctorID *uuid.UUID, date, timeOfDay string) (*Consultation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+consultationColumns+`
		FROM consultations
		WHERE doctor_id IS NOT DISTINCT FROM $1
		  AND preferred_date = $2
		  AND preferred_time = $3
		  AND status <> 'cancelled'
		LIMIT 1
	`, doctorID, date, timeOfDay)
	return scanConsultation(row)
}

func (r *PgRepository) CreateConsultation(ctx context.Context, c *Consultation) (*Consultation, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO consultations
			(id, patient_id, name, phone, email, national_id, appointment_type_id,
			 practice_area, doctor_id, preferred_date, preferred_time, duration_minutes,
			 status, language, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now())
		RETURNING `+consultationColumns+`
	`, uuid.New(), c.PatientID, c.Name, c.Phone, c.Email, c.NationalID, c.AppointmentTypeID,
		c.PracticeArea, c.DoctorID, c.PreferredDate, c.PreferredTime, c.DurationMinutes,
		c.Status, c.Language, c.Message)

	created, err := scanConsultation(row)
	if err != nil {
		// The partial unique index on (doctor_id, preferred_date, preferred_time)
		// backstops the lock-guarded check.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetConsultationByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+consultationColumns+`
		FROM consultations
		WHERE id = $1
	`, id)
	return scanConsultation(row)
}

func (r *PgRepository) ListConsultations(ctx context.Context, filter ConsultationFilter) ([]Consultation, error) {
	query := `
		SELECT ` + consultationColumns + `
		FROM consultations
		WHERE 1=1
	`
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Date != "" {
		args = append(args, filter.Date)
		query += fmt.Sprintf(" AND preferred_date = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdateConsultationStatus(ctx context.Context, id uuid.UUID, from, to Status, attended *bool) (*Consultation, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE consultations
		SET status = $2,
		    attended = COALESCE($4, attended),
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+consultationColumns+`
	`, id, to, from, attended)
	return scanConsultation(row)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, consultation_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.ConsultationID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

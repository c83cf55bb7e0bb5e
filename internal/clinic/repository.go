package clinic

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrSettingsNotFound        = errors.New("clinic settings not found")
	ErrAppointmentTypeNotFound = errors.New("appointment type not found")
	ErrDoctorNotFound          = errors.New("doctor not found")
)

// Repository contains all DB interactions for clinic reference data.
type Repository interface {
	GetSettings(ctx context.Context) (*Settings, error)
	UpdateSettings(ctx context.Context, s *Settings) (*Settings, error)

	ListAppointmentTypes(ctx context.Context, activeOnly bool) ([]AppointmentType, error)
	GetAppointmentTypeByID(ctx context.Context, id uuid.UUID) (*AppointmentType, error)
	CreateAppointmentType(ctx context.Context, t *AppointmentType) (*AppointmentType, error)
	UpdateAppointmentType(ctx context.Context, t *AppointmentType) (*AppointmentType, error)
	SetAppointmentTypeActive(ctx context.Context, id uuid.UUID, active bool) error

	ListDoctors(ctx context.Context, activeOnly bool) ([]Doctor, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	CreateDoctor(ctx context.Context, d *Doctor) (*Doctor, error)
	UpdateDoctor(ctx context.Context, d *Doctor) (*Doctor, error)
	SetDoctorActive(ctx context.Context, id uuid.UUID, active bool) error
}

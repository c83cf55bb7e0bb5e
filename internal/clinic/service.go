package clinic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service exposes clinic reference data to the booking flow and admin panel.
type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) GetSettings(ctx context.Context) (*Settings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clinic settings: %w", err)
	}
	return settings, nil
}

func (s *Service) UpdateSettings(ctx context.Context, settings *Settings) (*Settings, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	// Settings is a singleton row; callers usually pass the new values without
	// knowing its id.
	if settings.ID == uuid.Nil {
		current, err := s.repo.GetSettings(ctx)
		if err != nil {
			return nil, fmt.Errorf("load clinic settings: %w", err)
		}
		settings.ID = current.ID
	}

	updated, err := s.repo.UpdateSettings(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("update clinic settings: %w", err)
	}

	s.log.Info("clinic settings updated",
		zap.String("working_hours", updated.WorkingHoursStart.String()+"-"+updated.WorkingHoursEnd.String()),
		zap.Bool("multi_doctor_mode", updated.MultiDoctorMode))

	return updated, nil
}

func (s *Service) ListAppointmentTypes(ctx context.Context, activeOnly bool) ([]AppointmentType, error) {
	return s.repo.ListAppointmentTypes(ctx, activeOnly)
}

func (s *Service) GetAppointmentType(ctx context.Context, id uuid.UUID) (*AppointmentType, error) {
	return s.repo.GetAppointmentTypeByID(ctx, id)
}

func (s *Service) CreateAppointmentType(ctx context.Context, t *AppointmentType) (*AppointmentType, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return s.repo.CreateAppointmentType(ctx, t)
}

func (s *Service) UpdateAppointmentType(ctx context.Context, t *AppointmentType) (*AppointmentType, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return s.repo.UpdateAppointmentType(ctx, t)
}

// DeactivateAppointmentType soft-disables a type. Types referenced by past
// consultations are never hard-deleted.
func (s *Service) DeactivateAppointmentType(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetAppointmentTypeActive(ctx, id, false)
}

func (s *Service) ListDoctors(ctx context.Context, activeOnly bool) ([]Doctor, error) {
	return s.repo.ListDoctors(ctx, activeOnly)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetDoctorByID(ctx, id)
}

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) (*Doctor, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("doctor name is required")
	}
	return s.repo.CreateDoctor(ctx, d)
}

func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) (*Doctor, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("doctor name is required")
	}
	return s.repo.UpdateDoctor(ctx, d)
}

func (s *Service) DeactivateDoctor(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetDoctorActive(ctx, id, false)
}

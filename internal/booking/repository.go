package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrConsultationNotFound = errors.New("consultation not found")
)

// ConsultationFilter narrows admin listings. Zero values mean "no filter".
type ConsultationFilter struct {
	Status Status
	Date   string // YYYY-MM-DD
	Limit  int
	Offset int
}

// Repository contains all DB interactions needed by the booking service.
type Repository interface {
	GetPatientByPhone(ctx context.Context, phone string) (*Patient, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	CreatePatient(ctx context.Context, p *Patient) (*Patient, error)
	IncrementNoShowCount(ctx context.Context, patientID uuid.UUID) error

	// Slot conflict check inside the booking critical section.
	GetActiveConsultationForSlot(ctx context.Context, doctorID *uuid.UUID, date, timeOfDay string) (*Consultation, error)

	CreateConsultation(ctx context.Context, c *Consultation) (*Consultation, error)
	GetConsultationByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	ListConsultations(ctx context.Context, filter ConsultationFilter) ([]Consultation, error)

	// Conditional update: only applies when the current status matches from,
	// returning ErrConsultationNotFound when the row was already moved.
	UpdateConsultationStatus(ctx context.Context, id uuid.UUID, from, to Status, attended *bool) (*Consultation, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}

package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// ValidStatus reports whether s is one of the known consultation statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Patient identity is keyed by phone number: the first booking with a phone
// creates the row, later bookings reuse it without overwriting identity fields.
type Patient struct {
	ID          uuid.UUID
	Name        string
	Phone       string
	Email       *string
	NationalID  *string
	IsBlocked   bool
	NoShowCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Consultation is a booked appointment. Name/phone/email are denormalized
// copies of the patient at booking time; PatientID is the authoritative link.
// DurationMinutes is snapshotted from the appointment type and never
// recomputed, so later catalog edits cannot rewrite history.
type Consultation struct {
	ID                uuid.UUID
	PatientID         uuid.UUID
	Name              string
	Phone             string
	Email             *string
	NationalID        *string
	AppointmentTypeID uuid.UUID
	PracticeArea      string
	DoctorID          *uuid.UUID
	PreferredDate     string // YYYY-MM-DD
	PreferredTime     string // HH:MM
	DurationMinutes   int
	Status            Status
	Attended          *bool
	Language          string
	Message           *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Request is the booking form payload as submitted by a patient.
type Request struct {
	Name              string
	Phone             string
	Email             string
	NationalID        string
	AppointmentTypeID uuid.UUID
	DoctorID          *uuid.UUID
	PreferredDate     string // YYYY-MM-DD
	PreferredTime     string // HH:MM
	Language          string
	Message           string
}

type EventLog struct {
	ID             int64
	EventType      string
	ConsultationID *uuid.UUID
	Payload        []byte
	CreatedAt      time.Time
}

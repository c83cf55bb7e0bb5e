package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medbook/clinic-api/internal/clinic"
	"github.com/medbook/clinic-api/internal/redisclient"
)

const (
	EventBookingCreated = "BOOKING_CREATED"
	EventStatusChanged  = "STATUS_CHANGED"
	EventNoShowRecorded = "NO_SHOW_RECORDED"
)

const DateLayout = "2006-01-02"

var (
	ErrSlotTaken               = errors.New("slot already has a booking")
	ErrSlotBeingBooked         = errors.New("slot is currently being booked, please retry")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// ValidationError is a failed precondition on the booking form; the booking is
// not attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ClinicDirectory is the slice of clinic reference data the booking flow needs.
type ClinicDirectory interface {
	GetSettings(ctx context.Context) (*clinic.Settings, error)
	GetAppointmentType(ctx context.Context, id uuid.UUID) (*clinic.AppointmentType, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*clinic.Doctor, error)
}

type Service struct {
	repo    Repository
	clinics ClinicDirectory
	locker  redisclient.Locker
	log     *zap.Logger
}

func NewService(repo Repository, clinics ClinicDirectory, locker redisclient.Locker, log *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		clinics: clinics,
		locker:  locker,
		log:     log,
	}
}

// AvailableSlots lists the bookable times for a date, resolving the doctor's
// per-day hours when one is given. It does not subtract existing bookings;
// the commit-time check in SubmitBooking is authoritative.
func (s *Service) AvailableSlots(ctx context.Context, dateStr string, doctorID *uuid.UUID) ([]clinic.TimeOfDay, error) {
	date, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return nil, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}

	settings, err := s.clinics.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	override, unavailable, err := s.resolveOverride(ctx, date, doctorID)
	if err != nil {
		return nil, err
	}
	if unavailable {
		return []clinic.TimeOfDay{}, nil
	}

	slots := GenerateSlots(date, settings, override)
	if slots == nil {
		slots = []clinic.TimeOfDay{}
	}
	return slots, nil
}

// resolveOverride loads the doctor's window for the date's weekday.
// unavailable is true when a doctor was requested but has no hours that day.
func (s *Service) resolveOverride(ctx context.Context, date time.Time, doctorID *uuid.UUID) (override *clinic.Window, unavailable bool, err error) {
	if doctorID == nil {
		return nil, false, nil
	}

	doctor, err := s.clinics.GetDoctor(ctx, *doctorID)
	if err != nil {
		if errors.Is(err, clinic.ErrDoctorNotFound) {
			return nil, false, &ValidationError{Field: "doctor_id", Reason: "unknown doctor"}
		}
		return nil, false, fmt.Errorf("load doctor: %w", err)
	}
	if !doctor.IsActive {
		return nil, false, &ValidationError{Field: "doctor_id", Reason: "doctor is not active"}
	}

	window, ok := doctor.HoursFor(date.Weekday())
	if !ok {
		return nil, true, nil
	}
	return &window, false, nil
}

// SubmitBooking validates the request, resolves the patient by phone and
// commits a pending consultation for the slot, serialized per slot.
func (s *Service) SubmitBooking(ctx context.Context, req Request) (*Consultation, error) {
	settings, err := s.clinics.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if err := validateRequest(req, settings); err != nil {
		return nil, err
	}

	date, err := time.Parse(DateLayout, req.PreferredDate)
	if err != nil {
		return nil, &ValidationError{Field: "preferred_date", Reason: "must be YYYY-MM-DD"}
	}
	requestedTime, err := clinic.ParseTimeOfDay(req.PreferredTime)
	if err != nil {
		return nil, &ValidationError{Field: "preferred_time", Reason: "must be HH:MM"}
	}

	apptType, err := s.clinics.GetAppointmentType(ctx, req.AppointmentTypeID)
	if err != nil {
		if errors.Is(err, clinic.ErrAppointmentTypeNotFound) {
			return nil, &ValidationError{Field: "appointment_type_id", Reason: "unknown appointment type"}
		}
		return nil, fmt.Errorf("load appointment type: %w", err)
	}
	if !apptType.IsActive {
		return nil, &ValidationError{Field: "appointment_type_id", Reason: "appointment type is not bookable"}
	}

	// Doctor selection only applies in multi-doctor mode; otherwise the field
	// is ignored and the consultation belongs to the clinic-wide calendar.
	var doctorID *uuid.UUID
	if settings.MultiDoctorMode {
		doctorID = req.DoctorID
	}

	override, unavailable, err := s.resolveOverride(ctx, date, doctorID)
	if err != nil {
		return nil, err
	}
	if unavailable || !SlotAvailable(requestedTime, date, settings, override) {
		return nil, &ValidationError{Field: "preferred_time", Reason: "not an available slot for this date"}
	}

	patient, err := s.resolvePatient(ctx, req)
	if err != nil {
		return nil, err
	}

	// The slot is the protected resource: commit under a per-slot lock with a
	// re-check inside the critical section, the same way a concurrent booking
	// would observe it. The partial unique index backstops lock expiry.
	timeStr := requestedTime.String()
	slotKey := slotLockKey(doctorID, req.PreferredDate, timeStr)

	var created *Consultation
	err = s.locker.WithSlotLock(ctx, slotKey, func(lockCtx context.Context) error {
		existing, err := s.repo.GetActiveConsultationForSlot(lockCtx, doctorID, req.PreferredDate, timeStr)
		if err != nil && !errors.Is(err, ErrConsultationNotFound) {
			return fmt.Errorf("check slot: %w", err)
		}
		if existing != nil {
			return ErrSlotTaken
		}

		cons := &Consultation{
			PatientID:         patient.ID,
			Name:              req.Name,
			Phone:             req.Phone,
			Email:             nilIfEmpty(req.Email),
			NationalID:        nilIfEmpty(req.NationalID),
			AppointmentTypeID: apptType.ID,
			PracticeArea:      apptType.NameEn,
			DoctorID:          doctorID,
			PreferredDate:     req.PreferredDate,
			PreferredTime:     timeStr,
			DurationMinutes:   apptType.DurationMinutes,
			Status:            StatusPending,
			Language:          normalizeLanguage(req.Language),
			Message:           nilIfEmpty(req.Message),
		}

		created, err = s.repo.CreateConsultation(lockCtx, cons)
		if err != nil {
			return fmt.Errorf("create consultation: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		if errors.Is(err, ErrSlotTaken) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	s.logEvent(ctx, created.ID, EventBookingCreated, map[string]any{
		"patient_id":     patient.ID.String(),
		"preferred_date": created.PreferredDate,
		"preferred_time": created.PreferredTime,
	})
	s.log.Info("booking created",
		zap.String("consultation_id", created.ID.String()),
		zap.String("date", created.PreferredDate),
		zap.String("time", created.PreferredTime))

	return created, nil
}

// resolvePatient looks the patient up by exact phone and creates the row on
// first contact. Identity fields are first-write-wins: a later booking with a
// different name does not overwrite the stored one.
func (s *Service) resolvePatient(ctx context.Context, req Request) (*Patient, error) {
	patient, err := s.repo.GetPatientByPhone(ctx, req.Phone)
	if err == nil {
		return patient, nil
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("look up patient: %w", err)
	}

	created, err := s.repo.CreatePatient(ctx, &Patient{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      nilIfEmpty(req.Email),
		NationalID: nilIfEmpty(req.NationalID),
	})
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return created, nil
}

func validateRequest(req Request, settings *clinic.Settings) error {
	if req.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if req.Phone == "" {
		return &ValidationError{Field: "phone", Reason: "required"}
	}
	if req.AppointmentTypeID == uuid.Nil {
		return &ValidationError{Field: "appointment_type_id", Reason: "required"}
	}
	if req.PreferredDate == "" {
		return &ValidationError{Field: "preferred_date", Reason: "required"}
	}
	if req.PreferredTime == "" {
		return &ValidationError{Field: "preferred_time", Reason: "required"}
	}
	if settings.RequireNationalID && req.NationalID == "" {
		return &ValidationError{Field: "national_id", Reason: "required"}
	}
	if settings.MultiDoctorMode && (req.DoctorID == nil || *req.DoctorID == uuid.Nil) {
		return &ValidationError{Field: "doctor_id", Reason: "required"}
	}
	return nil
}

// statusTransitions is the enforced lifecycle graph. completed, cancelled and
// no_show are terminal.
var statusTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusNoShow, StatusCancelled},
}

func transitionAllowed(from, to Status) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateStatus moves a consultation through the lifecycle. completed records
// attendance; no_show records absence and bumps the patient's no-show counter
// exactly once, keyed on the consultation's patient reference. The underlying
// update is conditional on the current status, so a concurrent admin edit
// cannot double-apply a transition.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to Status) (*Consultation, error) {
	if !ValidStatus(to) {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", to)}
	}

	cons, err := s.repo.GetConsultationByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load consultation: %w", err)
	}

	if !transitionAllowed(cons.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, cons.Status, to)
	}

	var attended *bool
	switch to {
	case StatusCompleted:
		attended = boolPtr(true)
	case StatusNoShow:
		attended = boolPtr(false)
	}

	updated, err := s.repo.UpdateConsultationStatus(ctx, id, cons.Status, to, attended)
	if err != nil {
		if errors.Is(err, ErrConsultationNotFound) {
			// Row moved between read and update.
			return nil, fmt.Errorf("%w: consultation already transitioned", ErrInvalidStatusTransition)
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	if to == StatusNoShow {
		if err := s.repo.IncrementNoShowCount(ctx, updated.PatientID); err != nil {
			s.log.Error("failed to increment no-show count",
				zap.String("patient_id", updated.PatientID.String()), zap.Error(err))
		} else {
			s.logEvent(ctx, updated.ID, EventNoShowRecorded, map[string]any{
				"patient_id": updated.PatientID.String(),
			})
		}
	}

	s.logEvent(ctx, updated.ID, EventStatusChanged, map[string]any{
		"from": string(cons.Status),
		"to":   string(to),
	})

	return updated, nil
}

func (s *Service) GetConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return s.repo.GetConsultationByID(ctx, id)
}

func (s *Service) ListConsultations(ctx context.Context, filter ConsultationFilter) ([]Consultation, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", filter.Status)}
	}
	return s.repo.ListConsultations(ctx, filter)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetPatientByID(ctx, id)
}

func (s *Service) logEvent(ctx context.Context, consultationID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("marshal event payload", zap.String("event", eventType), zap.Error(err))
		data = nil
	}

	consID := consultationID
	ev := EventLog{
		EventType:      eventType,
		ConsultationID: &consID,
		Payload:        data,
		CreatedAt:      time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn("insert event log", zap.String("event", eventType), zap.Error(err))
	}
}

// slotLockKey identifies the protected slot. Without a doctor the whole clinic
// shares one calendar, so the doctor part collapses to a sentinel.
func slotLockKey(doctorID *uuid.UUID, date, timeOfDay string) string {
	doctor := "clinic"
	if doctorID != nil {
		doctor = doctorID.String()
	}
	return doctor + ":" + date + ":" + timeOfDay
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func normalizeLanguage(lang string) string {
	switch lang {
	case "en", "ar", "fr":
		return lang
	}
	return "en"
}

func boolPtr(b bool) *bool { return &b }

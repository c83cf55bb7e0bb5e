package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medbook/clinic-api/internal/clinic"
)

// In-memory fakes

type stubRepo struct {
	patients      map[uuid.UUID]*Patient
	consultations map[uuid.UUID]*Consultation
	events        []EventLog
	noShowBumps   int

	failConsultationInsert error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		patients:      map[uuid.UUID]*Patient{},
		consultations: map[uuid.UUID]*Consultation{},
	}
}

func (r *stubRepo) GetPatientByPhone(_ context.Context, phone string) (*Patient, error) {
	for _, p := range r.patients {
		if p.Phone == phone {
			return p, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (r *stubRepo) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

func (r *stubRepo) CreatePatient(_ context.Context, p *Patient) (*Patient, error) {
	created := *p
	created.ID = uuid.New()
	r.patients[created.ID] = &created
	return &created, nil
}

func (r *stubRepo) IncrementNoShowCount(_ context.Context, patientID uuid.UUID) error {
	p, ok := r.patients[patientID]
	if !ok {
		return ErrPatientNotFound
	}
	p.NoShowCount++
	r.noShowBumps++
	return nil
}

func (r *stubRepo) GetActiveConsultationForSlot(_ context.Context, doctorID *uuid.UUID, date, timeOfDay string) (*Consultation, error) {
	for _, c := range r.consultations {
		if c.PreferredDate != date || c.PreferredTime != timeOfDay || c.Status == StatusCancelled {
			continue
		}
		if (c.DoctorID == nil) != (doctorID == nil) {
			continue
		}
		if c.DoctorID != nil && *c.DoctorID != *doctorID {
			continue
		}
		return c, nil
	}
	return nil, ErrConsultationNotFound
}

func (r *stubRepo) CreateConsultation(_ context.Context, c *Consultation) (*Consultation, error) {
	if r.failConsultationInsert != nil {
		return nil, r.failConsultationInsert
	}
	created := *c
	created.ID = uuid.New()
	r.consultations[created.ID] = &created
	return &created, nil
}

func (r *stubRepo) GetConsultationByID(_ context.Context, id uuid.UUID) (*Consultation, error) {
	c, ok := r.consultations[id]
	if !ok {
		return nil, ErrConsultationNotFound
	}
	return c, nil
}

func (r *stubRepo) ListConsultations(_ context.Context, _ ConsultationFilter) ([]Consultation, error) {
	var result []Consultation
	for _, c := range r.consultations {
		result = append(result, *c)
	}
	return result, nil
}

func (r *stubRepo) UpdateConsultationStatus(_ context.Context, id uuid.UUID, from, to Status, attended *bool) (*Consultation, error) {
	c, ok := r.consultations[id]
	if !ok || c.Status != from {
		return nil, ErrConsultationNotFound
	}
	c.Status = to
	if attended != nil {
		c.Attended = attended
	}
	return c, nil
}

func (r *stubRepo) InsertEvent(_ context.Context, ev EventLog) error {
	r.events = append(r.events, ev)
	return nil
}

type stubClinics struct {
	settings *clinic.Settings
	types    map[uuid.UUID]*clinic.AppointmentType
	doctors  map[uuid.UUID]*clinic.Doctor
}

func (c *stubClinics) GetSettings(context.Context) (*clinic.Settings, error) {
	if c.settings == nil {
		return nil, clinic.ErrSettingsNotFound
	}
	return c.settings, nil
}

func (c *stubClinics) GetAppointmentType(_ context.Context, id uuid.UUID) (*clinic.AppointmentType, error) {
	t, ok := c.types[id]
	if !ok {
		return nil, clinic.ErrAppointmentTypeNotFound
	}
	return t, nil
}

func (c *stubClinics) GetDoctor(_ context.Context, id uuid.UUID) (*clinic.Doctor, error) {
	d, ok := c.doctors[id]
	if !ok {
		return nil, clinic.ErrDoctorNotFound
	}
	return d, nil
}

// passthroughLocker runs the critical section inline.
type passthroughLocker struct{ calls int }

func (l *passthroughLocker) WithSlotLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	l.calls++
	return fn(ctx)
}

func newTestService(t *testing.T) (*Service, *stubRepo, *stubClinics) {
	t.Helper()
	repo := newStubRepo()
	typeID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	clinics := &stubClinics{
		settings: testSettings(),
		types: map[uuid.UUID]*clinic.AppointmentType{
			typeID: {ID: typeID, NameEn: "General Consultation", DurationMinutes: 30, IsActive: true},
		},
		doctors: map[uuid.UUID]*clinic.Doctor{},
	}
	svc := NewService(repo, clinics, &passthroughLocker{}, zap.NewNop())
	return svc, repo, clinics
}

func saraRequest() Request {
	return Request{
		Name:              "Sara",
		Phone:             "555-0100",
		AppointmentTypeID: uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		PreferredDate:     "2025-03-10", // a Monday
		PreferredTime:     "10:00",
	}
}

// Tests

func TestSubmitBookingCreatesPatientAndPendingConsultation(t *testing.T) {
	svc, repo, _ := newTestService(t)

	created, err := svc.SubmitBooking(context.Background(), saraRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, 30, created.DurationMinutes)
	assert.Equal(t, "10:00", created.PreferredTime)
	assert.Equal(t, "General Consultation", created.PracticeArea)

	patient, err := repo.GetPatientByPhone(context.Background(), "555-0100")
	require.NoError(t, err)
	assert.Equal(t, "Sara", patient.Name)
	assert.Equal(t, patient.ID, created.PatientID)
}

func TestSubmitBookingReusesPatientFirstWriteWins(t *testing.T) {
	svc, repo, _ := newTestService(t)

	first := saraRequest()
	_, err := svc.SubmitBooking(context.Background(), first)
	require.NoError(t, err)

	second := saraRequest()
	second.Name = "Sarah T." // typo fix attempt, must not rewrite identity
	second.PreferredTime = "10:30"
	_, err = svc.SubmitBooking(context.Background(), second)
	require.NoError(t, err)

	require.Len(t, repo.patients, 1)
	patient, err := repo.GetPatientByPhone(context.Background(), "555-0100")
	require.NoError(t, err)
	assert.Equal(t, "Sara", patient.Name)
}

func TestSubmitBookingRejectsTakenSlot(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.SubmitBooking(context.Background(), saraRequest())
	require.NoError(t, err)

	rival := saraRequest()
	rival.Phone = "555-0111"
	_, err = svc.SubmitBooking(context.Background(), rival)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestSubmitBookingDurationSnapshotSurvivesCatalogEdit(t *testing.T) {
	svc, repo, clinics := newTestService(t)

	created, err := svc.SubmitBooking(context.Background(), saraRequest())
	require.NoError(t, err)
	require.Equal(t, 30, created.DurationMinutes)

	// Catalog edit after the fact must not rewrite the stored duration.
	typeID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	clinics.types[typeID].DurationMinutes = 45

	stored, err := repo.GetConsultationByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, stored.DurationMinutes)
}

func TestSubmitBookingValidation(t *testing.T) {
	svc, _, clinics := newTestService(t)

	cases := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{"missing name", func(r *Request) { r.Name = "" }, "name"},
		{"missing phone", func(r *Request) { r.Phone = "" }, "phone"},
		{"missing type", func(r *Request) { r.AppointmentTypeID = uuid.Nil }, "appointment_type_id"},
		{"missing date", func(r *Request) { r.PreferredDate = "" }, "preferred_date"},
		{"missing time", func(r *Request) { r.PreferredTime = "" }, "preferred_time"},
		{"time inside break", func(r *Request) { r.PreferredTime = "13:00" }, "preferred_time"},
		{"off-grid time", func(r *Request) { r.PreferredTime = "10:15" }, "preferred_time"},
		{"off day", func(r *Request) { r.PreferredDate = "2025-03-09" }, "preferred_time"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := saraRequest()
			tc.mutate(&req)
			_, err := svc.SubmitBooking(context.Background(), req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	t.Run("national id required when configured", func(t *testing.T) {
		clinics.settings.RequireNationalID = true
		defer func() { clinics.settings.RequireNationalID = false }()

		_, err := svc.SubmitBooking(context.Background(), saraRequest())
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "national_id", verr.Field)
	})
}

func TestSubmitBookingMultiDoctorMode(t *testing.T) {
	svc, _, clinics := newTestService(t)
	clinics.settings.MultiDoctorMode = true

	doctorID := uuid.New()
	clinics.doctors[doctorID] = &clinic.Doctor{
		ID:       doctorID,
		Name:     "Dr. Amal",
		IsActive: true,
		WorkingHours: clinic.WeeklyHours{
			"monday": {Start: "10:00", End: "12:00"},
		},
	}

	t.Run("doctor required", func(t *testing.T) {
		_, err := svc.SubmitBooking(context.Background(), saraRequest())
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "doctor_id", verr.Field)
	})

	t.Run("doctor hours override clinic window", func(t *testing.T) {
		req := saraRequest()
		req.DoctorID = &doctorID
		req.PreferredTime = "09:00" // inside clinic hours but outside the doctor's
		_, err := svc.SubmitBooking(context.Background(), req)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)

		req.PreferredTime = "10:30"
		created, err := svc.SubmitBooking(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, created.DoctorID)
		assert.Equal(t, doctorID, *created.DoctorID)
	})

	t.Run("doctor closed that day", func(t *testing.T) {
		req := saraRequest()
		req.DoctorID = &doctorID
		req.PreferredDate = "2025-03-11" // Tuesday, no hours configured
		req.PreferredTime = "10:30"
		_, err := svc.SubmitBooking(context.Background(), req)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestSubmitBookingIgnoresDoctorInSingleMode(t *testing.T) {
	svc, _, _ := newTestService(t)

	rogue := uuid.New() // unknown doctor id, ignored when multi-doctor is off
	req := saraRequest()
	req.DoctorID = &rogue

	created, err := svc.SubmitBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, created.DoctorID)
}

func TestAvailableSlotsPropagatesDoctorUnavailability(t *testing.T) {
	svc, _, clinics := newTestService(t)
	doctorID := uuid.New()
	clinics.doctors[doctorID] = &clinic.Doctor{
		ID:       doctorID,
		Name:     "Dr. Amal",
		IsActive: true,
		WorkingHours: clinic.WeeklyHours{
			"monday": {Start: "", End: ""},
		},
	}

	slots, err := svc.AvailableSlots(context.Background(), "2025-03-10", &doctorID)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestUpdateStatusLifecycle(t *testing.T) {
	svc, repo, _ := newTestService(t)

	created, err := svc.SubmitBooking(context.Background(), saraRequest())
	require.NoError(t, err)

	confirmed, err := svc.UpdateStatus(context.Background(), created.ID, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	done, err := svc.UpdateStatus(context.Background(), created.ID, StatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, done.Attended)
	assert.True(t, *done.Attended)
	assert.Zero(t, repo.noShowBumps)

	// Terminal state rejects further transitions.
	_, err = svc.UpdateStatus(context.Background(), created.ID, StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestUpdateStatusNoShowIncrementsCounterOnce(t *testing.T) {
	svc, repo, _ := newTestService(t)

	created, err := svc.SubmitBooking(context.Background(), saraRequest())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), created.ID, StatusConfirmed)
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), created.ID, StatusNoShow)
	require.NoError(t, err)
	require.NotNil(t, updated.Attended)
	assert.False(t, *updated.Attended)

	patient, err := repo.GetPatientByID(context.Background(), created.PatientID)
	require.NoError(t, err)
	assert.Equal(t, 1, patient.NoShowCount)

	// A repeated no_show attempt is invalid and must not bump again.
	_, err = svc.UpdateStatus(context.Background(), created.ID, StatusNoShow)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.Equal(t, 1, repo.noShowBumps)
}

func TestUpdateStatusRejectsPendingToCompleted(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.SubmitBooking(context.Background(), saraRequest())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), created.ID, StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestSubmitBookingOrphanPatientIsReusable(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.failConsultationInsert = errors.New("network blip")

	_, err := svc.SubmitBooking(context.Background(), saraRequest())
	require.Error(t, err)
	require.Len(t, repo.patients, 1, "patient row survives the failed insert")

	// Retry reuses the orphan instead of duplicating it.
	repo.failConsultationInsert = nil
	created, err := svc.SubmitBooking(context.Background(), saraRequest())
	require.NoError(t, err)
	assert.Len(t, repo.patients, 1)
	assert.NotEqual(t, uuid.Nil, created.PatientID)
}

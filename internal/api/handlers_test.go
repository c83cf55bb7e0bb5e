package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medbook/clinic-api/internal/auth"
	"github.com/medbook/clinic-api/internal/blog"
	"github.com/medbook/clinic-api/internal/booking"
	"github.com/medbook/clinic-api/internal/clinic"
)

type stubBookingService struct {
	slots     []clinic.TimeOfDay
	slotsErr  error
	submitted *booking.Request
	submitRes *booking.Consultation
	submitErr error
	updateRes *booking.Consultation
	updateErr error
}

func (s *stubBookingService) AvailableSlots(ctx context.Context, date string, doctorID *uuid.UUID) ([]clinic.TimeOfDay, error) {
	return s.slots, s.slotsErr
}

func (s *stubBookingService) SubmitBooking(ctx context.Context, req booking.Request) (*booking.Consultation, error) {
	s.submitted = &req
	return s.submitRes, s.submitErr
}

func (s *stubBookingService) GetConsultation(ctx context.Context, id uuid.UUID) (*booking.Consultation, error) {
	return s.submitRes, s.submitErr
}

func (s *stubBookingService) ListConsultations(ctx context.Context, filter booking.ConsultationFilter) ([]booking.Consultation, error) {
	return nil, nil
}

func (s *stubBookingService) UpdateStatus(ctx context.Context, id uuid.UUID, to booking.Status) (*booking.Consultation, error) {
	return s.updateRes, s.updateErr
}

type stubClinicService struct {
	settings *clinic.Settings
	types    []clinic.AppointmentType
	doctors  []clinic.Doctor
}

func (s *stubClinicService) GetSettings(ctx context.Context) (*clinic.Settings, error) {
	return s.settings, nil
}

func (s *stubClinicService) UpdateSettings(ctx context.Context, set *clinic.Settings) (*clinic.Settings, error) {
	return set, nil
}

func (s *stubClinicService) ListAppointmentTypes(ctx context.Context, activeOnly bool) ([]clinic.AppointmentType, error) {
	return s.types, nil
}

func (s *stubClinicService) GetAppointmentType(ctx context.Context, id uuid.UUID) (*clinic.AppointmentType, error) {
	return nil, clinic.ErrAppointmentTypeNotFound
}

func (s *stubClinicService) CreateAppointmentType(ctx context.Context, t *clinic.AppointmentType) (*clinic.AppointmentType, error) {
	t.ID = uuid.New()
	return t, nil
}

func (s *stubClinicService) UpdateAppointmentType(ctx context.Context, t *clinic.AppointmentType) (*clinic.AppointmentType, error) {
	return t, nil
}

func (s *stubClinicService) DeactivateAppointmentType(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *stubClinicService) ListDoctors(ctx context.Context, activeOnly bool) ([]clinic.Doctor, error) {
	return s.doctors, nil
}

func (s *stubClinicService) GetDoctor(ctx context.Context, id uuid.UUID) (*clinic.Doctor, error) {
	return nil, clinic.ErrDoctorNotFound
}

func (s *stubClinicService) CreateDoctor(ctx context.Context, d *clinic.Doctor) (*clinic.Doctor, error) {
	d.ID = uuid.New()
	return d, nil
}

func (s *stubClinicService) UpdateDoctor(ctx context.Context, d *clinic.Doctor) (*clinic.Doctor, error) {
	return d, nil
}

func (s *stubClinicService) DeactivateDoctor(ctx context.Context, id uuid.UUID) error {
	return nil
}

type stubBlogService struct {
	posts []blog.Post
}

func (s *stubBlogService) ListPublished(ctx context.Context, limit, offset int) ([]blog.Post, error) {
	return s.posts, nil
}

func (s *stubBlogService) GetPublishedBySlug(ctx context.Context, slug string) (*blog.Post, error) {
	for i := range s.posts {
		if s.posts[i].Slug == slug {
			return &s.posts[i], nil
		}
	}
	return nil, blog.ErrPostNotFound
}

func (s *stubBlogService) ListAll(ctx context.Context, limit, offset int) ([]blog.Post, error) {
	return s.posts, nil
}

func (s *stubBlogService) Create(ctx context.Context, p *blog.Post) (*blog.Post, error) {
	p.ID = uuid.New()
	return p, nil
}

func (s *stubBlogService) Update(ctx context.Context, p *blog.Post) (*blog.Post, error) {
	return p, nil
}

func (s *stubBlogService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *stubBlogService) ListCategories(ctx context.Context, activeOnly bool) ([]blog.Category, error) {
	return nil, nil
}

func (s *stubBlogService) CreateCategory(ctx context.Context, c *blog.Category) (*blog.Category, error) {
	c.ID = uuid.New()
	return c, nil
}

type stubAuthService struct {
	token    string
	user     *auth.AdminUser
	loginErr error
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *auth.AdminUser, error) {
	if s.loginErr != nil {
		return "", nil, s.loginErr
	}
	return s.token, s.user, nil
}

func (s *stubAuthService) VerifyToken(ctx context.Context, token string) (*auth.AdminUser, error) {
	if s.user != nil && token == s.token {
		return s.user, nil
	}
	return nil, auth.ErrInvalidToken
}

func (s *stubAuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error {
	return nil
}

func newTestRouter(bookings *stubBookingService, auths *stubAuthService) http.Handler {
	return NewRouter(RouterConfig{
		Auth:        auths,
		Bookings:    bookings,
		Clinics:     &stubClinicService{},
		Posts:       &stubBlogService{},
		Log:         zap.NewNop(),
		CORSOrigins: []string{"*"},
		Env:         "test",
		Version:     "test",
	})
}

func TestGetSlotsReturnsTimes(t *testing.T) {
	bookings := &stubBookingService{
		slots: []clinic.TimeOfDay{
			clinic.MustTimeOfDay("09:00"),
			clinic.MustTimeOfDay("09:30"),
		},
	}
	router := newTestRouter(bookings, &stubAuthService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/slots?date=2099-05-04", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp SlotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2099-05-04", resp.Date)
	assert.Equal(t, []string{"09:00", "09:30"}, resp.Slots)
}

func TestGetSlotsRejectsPastDate(t *testing.T) {
	router := newTestRouter(&stubBookingService{}, &stubAuthService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/slots?date=2000-01-01", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "past_date", resp.Error)
}

func TestGetSlotsRequiresDate(t *testing.T) {
	router := newTestRouter(&stubBookingService{}, &stubAuthService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/slots", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingReturnsLocalizedConfirmation(t *testing.T) {
	typeID := uuid.New()
	bookings := &stubBookingService{
		submitRes: &booking.Consultation{
			ID:            uuid.New(),
			PatientID:     uuid.New(),
			Name:          "Sara",
			Phone:         "555-0100",
			PreferredDate: "2099-05-04",
			PreferredTime: "10:00",
			Status:        booking.StatusPending,
			Language:      "ar",
		},
	}
	router := newTestRouter(bookings, &stubAuthService{})

	body, _ := json.Marshal(CreateBookingRequest{
		Name:              "Sara",
		Phone:             "555-0100",
		AppointmentTypeID: typeID.String(),
		PreferredDate:     "2099-05-04",
		PreferredTime:     "10:00",
		Language:          "ar",
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "تم استلام")
	assert.Equal(t, "pending", resp.Consultation.Status)

	require.NotNil(t, bookings.submitted)
	assert.Equal(t, "ar", bookings.submitted.Language)
}

func TestCreateBookingConflict(t *testing.T) {
	bookings := &stubBookingService{submitErr: booking.ErrSlotTaken}
	router := newTestRouter(bookings, &stubAuthService{})

	body, _ := json.Marshal(CreateBookingRequest{
		Name:              "Sara",
		Phone:             "555-0100",
		AppointmentTypeID: uuid.New().String(),
		PreferredDate:     "2099-05-04",
		PreferredTime:     "10:00",
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader(body)))

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "slot_taken", resp.Error)
}

func TestCreateBookingValidationErrorNamesField(t *testing.T) {
	bookings := &stubBookingService{
		submitErr: &booking.ValidationError{Field: "phone", Reason: "required"},
	}
	router := newTestRouter(bookings, &stubAuthService{})

	body, _ := json.Marshal(CreateBookingRequest{
		Name:              "Sara",
		AppointmentTypeID: uuid.New().String(),
		PreferredDate:     "2099-05-04",
		PreferredTime:     "10:00",
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_failed", resp.Error)
	assert.Equal(t, "phone", resp.Field)
}

func TestCreateBookingRejectsBadAppointmentTypeID(t *testing.T) {
	router := newTestRouter(&stubBookingService{}, &stubAuthService{})

	body, _ := json.Marshal(CreateBookingRequest{
		Name:              "Sara",
		Phone:             "555-0100",
		AppointmentTypeID: "not-a-uuid",
		PreferredDate:     "2099-05-04",
		PreferredTime:     "10:00",
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	router := newTestRouter(&stubBookingService{}, &stubAuthService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/me", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminMeWithValidToken(t *testing.T) {
	admin := &auth.AdminUser{ID: uuid.New(), Email: "admin@clinic.test", Name: "Admin", IsActive: true}
	auths := &stubAuthService{token: "token-1", user: admin}
	router := newTestRouter(&stubBookingService{}, auths)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/me", nil)
	req.Header.Set("Authorization", "Bearer token-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AdminResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, admin.Email, resp.Email)
}

func TestAdminLoginLocked(t *testing.T) {
	auths := &stubAuthService{loginErr: auth.ErrAccountLocked}
	router := newTestRouter(&stubBookingService{}, auths)

	body, _ := json.Marshal(LoginRequest{Email: "admin@clinic.test", Password: "whatever"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", bytes.NewReader(body)))

	require.Equal(t, http.StatusLocked, rec.Code)
}

func TestUpdateConsultationStatusConflict(t *testing.T) {
	admin := &auth.AdminUser{ID: uuid.New(), Email: "admin@clinic.test", IsActive: true}
	auths := &stubAuthService{token: "token-1", user: admin}
	bookings := &stubBookingService{updateErr: booking.ErrInvalidStatusTransition}
	router := newTestRouter(bookings, auths)

	body, _ := json.Marshal(UpdateStatusRequest{Status: "completed"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/consultations/"+uuid.New().String()+"/status", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer token-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetPostLocalizesWithFallback(t *testing.T) {
	posts := &stubBlogService{posts: []blog.Post{{
		ID:        uuid.New(),
		Slug:      "flu-season",
		TitleEn:   "Flu Season Tips",
		TitleFr:   "Conseils pour la saison de la grippe",
		ContentEn: "Wash your hands.",
		Status:    blog.PostPublished,
	}}}

	router := NewRouter(RouterConfig{
		Auth:        &stubAuthService{},
		Bookings:    &stubBookingService{},
		Clinics:     &stubClinicService{},
		Posts:       posts,
		Log:         zap.NewNop(),
		CORSOrigins: []string{"*"},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/blog/posts/flu-season?lang=fr", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp PostResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Conseils pour la saison de la grippe", resp.Title)
	// French content is empty, so English fills in.
	assert.Equal(t, "Wash your hands.", resp.Content)
}

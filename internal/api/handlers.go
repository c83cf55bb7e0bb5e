package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medbook/clinic-api/internal/blog"
	"github.com/medbook/clinic-api/internal/booking"
	"github.com/medbook/clinic-api/internal/clinic"
	"github.com/medbook/clinic-api/internal/i18n"
	"github.com/medbook/clinic-api/internal/redisclient"
)

// BookingService is the booking surface the HTTP layer depends on.
type BookingService interface {
	AvailableSlots(ctx context.Context, date string, doctorID *uuid.UUID) ([]clinic.TimeOfDay, error)
	SubmitBooking(ctx context.Context, req booking.Request) (*booking.Consultation, error)
	GetConsultation(ctx context.Context, id uuid.UUID) (*booking.Consultation, error)
	ListConsultations(ctx context.Context, filter booking.ConsultationFilter) ([]booking.Consultation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to booking.Status) (*booking.Consultation, error)
}

// ClinicService exposes clinic reference data and its admin CRUD.
type ClinicService interface {
	GetSettings(ctx context.Context) (*clinic.Settings, error)
	UpdateSettings(ctx context.Context, s *clinic.Settings) (*clinic.Settings, error)
	ListAppointmentTypes(ctx context.Context, activeOnly bool) ([]clinic.AppointmentType, error)
	GetAppointmentType(ctx context.Context, id uuid.UUID) (*clinic.AppointmentType, error)
	CreateAppointmentType(ctx context.Context, t *clinic.AppointmentType) (*clinic.AppointmentType, error)
	UpdateAppointmentType(ctx context.Context, t *clinic.AppointmentType) (*clinic.AppointmentType, error)
	DeactivateAppointmentType(ctx context.Context, id uuid.UUID) error
	ListDoctors(ctx context.Context, activeOnly bool) ([]clinic.Doctor, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*clinic.Doctor, error)
	CreateDoctor(ctx context.Context, d *clinic.Doctor) (*clinic.Doctor, error)
	UpdateDoctor(ctx context.Context, d *clinic.Doctor) (*clinic.Doctor, error)
	DeactivateDoctor(ctx context.Context, id uuid.UUID) error
}

// BlogService exposes published content and its admin CRUD.
type BlogService interface {
	ListPublished(ctx context.Context, limit, offset int) ([]blog.Post, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*blog.Post, error)
	ListAll(ctx context.Context, limit, offset int) ([]blog.Post, error)
	Create(ctx context.Context, p *blog.Post) (*blog.Post, error)
	Update(ctx context.Context, p *blog.Post) (*blog.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context, activeOnly bool) ([]blog.Category, error)
	CreateCategory(ctx context.Context, c *blog.Category) (*blog.Category, error)
}

// PublicHandler serves the unauthenticated booking frontend endpoints.
type PublicHandler struct {
	bookings BookingService
	clinics  ClinicService
	posts    BlogService
	log      *zap.Logger
	now      func() time.Time
}

func NewPublicHandler(bookings BookingService, clinics ClinicService, posts BlogService, log *zap.Logger) *PublicHandler {
	return &PublicHandler{
		bookings: bookings,
		clinics:  clinics,
		posts:    posts,
		log:      log,
		now:      time.Now,
	}
}

func (h *PublicHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.clinics.GetSettings(r.Context())
	if err != nil {
		h.internalError(w, r, "load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}

func (h *PublicHandler) ListAppointmentTypes(w http.ResponseWriter, r *http.Request) {
	lang := langFrom(r)

	types, err := h.clinics.ListAppointmentTypes(r.Context(), true)
	if err != nil {
		h.internalError(w, r, "list appointment types", err)
		return
	}

	resp := make([]AppointmentTypeResponse, 0, len(types))
	for i := range types {
		resp = append(resp, toAppointmentTypeResponse(&types[i], lang))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PublicHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.clinics.ListDoctors(r.Context(), true)
	if err != nil {
		h.internalError(w, r, "list doctors", err)
		return
	}

	resp := make([]DoctorResponse, 0, len(doctors))
	for i := range doctors {
		resp = append(resp, toDoctorResponse(&doctors[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PublicHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	lang := langFrom(r)

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		writeFieldError(w, http.StatusBadRequest, "validation_failed",
			i18n.T(lang, i18n.KeyBookingValidation), "date")
		return
	}

	date, err := time.Parse(booking.DateLayout, dateStr)
	if err != nil {
		writeFieldError(w, http.StatusBadRequest, "validation_failed",
			i18n.T(lang, i18n.KeyBookingValidation), "date")
		return
	}
	if h.isPastDate(date) {
		writeFieldError(w, http.StatusBadRequest, "past_date",
			i18n.T(lang, i18n.KeyBookingPastDate), "date")
		return
	}

	var doctorID *uuid.UUID
	var doctorStr *string
	if q := r.URL.Query().Get("doctor_id"); q != "" {
		id, err := uuid.Parse(q)
		if err != nil {
			writeFieldError(w, http.StatusBadRequest, "validation_failed",
				i18n.T(lang, i18n.KeyBookingValidation), "doctor_id")
			return
		}
		doctorID = &id
		doctorStr = &q
	}

	slots, err := h.bookings.AvailableSlots(r.Context(), dateStr, doctorID)
	if err != nil {
		h.bookingError(w, r, lang, err)
		return
	}

	times := make([]string, 0, len(slots))
	for _, slot := range slots {
		times = append(times, slot.String())
	}

	writeJSON(w, http.StatusOK, SlotsResponse{
		Date:     dateStr,
		DoctorID: doctorStr,
		Slots:    times,
	})
}

func (h *PublicHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		lang := langFrom(r)
		writeError(w, http.StatusBadRequest, "invalid_request_body", i18n.T(lang, i18n.KeyBookingValidation))
		return
	}

	// The form's language field wins over the query parameter so the
	// confirmation message matches the language the patient filled the form in.
	lang := langFrom(r)
	if req.Language != "" {
		lang = i18n.ParseLang(req.Language)
	}

	typeID, err := uuid.Parse(req.AppointmentTypeID)
	if err != nil {
		writeFieldError(w, http.StatusBadRequest, "validation_failed",
			i18n.T(lang, i18n.KeyBookingValidation), "appointment_type_id")
		return
	}

	var doctorID *uuid.UUID
	if req.DoctorID != nil && *req.DoctorID != "" {
		id, err := uuid.Parse(*req.DoctorID)
		if err != nil {
			writeFieldError(w, http.StatusBadRequest, "validation_failed",
				i18n.T(lang, i18n.KeyBookingValidation), "doctor_id")
			return
		}
		doctorID = &id
	}

	if date, err := time.Parse(booking.DateLayout, req.PreferredDate); err == nil && h.isPastDate(date) {
		writeFieldError(w, http.StatusBadRequest, "past_date",
			i18n.T(lang, i18n.KeyBookingPastDate), "preferred_date")
		return
	}

	cons, err := h.bookings.SubmitBooking(r.Context(), booking.Request{
		Name:              req.Name,
		Phone:             req.Phone,
		Email:             req.Email,
		NationalID:        req.NationalID,
		AppointmentTypeID: typeID,
		DoctorID:          doctorID,
		PreferredDate:     req.PreferredDate,
		PreferredTime:     req.PreferredTime,
		Language:          string(lang),
		Message:           req.Message,
	})
	if err != nil {
		h.bookingError(w, r, lang, err)
		return
	}

	writeJSON(w, http.StatusCreated, BookingResponse{
		Message:      i18n.T(lang, i18n.KeyBookingSuccess),
		Consultation: toConsultationResponse(cons),
	})
}

func (h *PublicHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	lang := langFrom(r)
	limit, offset := paginationFrom(r)

	posts, err := h.posts.ListPublished(r.Context(), limit, offset)
	if err != nil {
		h.internalError(w, r, "list posts", err)
		return
	}

	resp := make([]PostResponse, 0, len(posts))
	for i := range posts {
		resp = append(resp, toPostResponse(&posts[i], lang, false))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PublicHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	lang := langFrom(r)

	post, err := h.posts.GetPublishedBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, blog.ErrPostNotFound) {
			writeError(w, http.StatusNotFound, "not_found", i18n.T(lang, i18n.KeyNotFound))
			return
		}
		h.internalError(w, r, "load post", err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(post, lang, true))
}

func (h *PublicHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.posts.ListCategories(r.Context(), true)
	if err != nil {
		h.internalError(w, r, "list categories", err)
		return
	}

	resp := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, CategoryResponse{
			ID: c.ID, Slug: c.Slug,
			NameEn: c.NameEn, NameAr: c.NameAr, NameFr: c.NameFr,
			IsActive: c.IsActive,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// isPastDate compares calendar dates, so booking for later today is allowed.
func (h *PublicHandler) isPastDate(date time.Time) bool {
	now := h.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return date.Before(today)
}

func (h *PublicHandler) bookingError(w http.ResponseWriter, r *http.Request, lang i18n.Lang, err error) {
	var vErr *booking.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeFieldError(w, http.StatusBadRequest, "validation_failed",
			i18n.T(lang, i18n.KeyBookingValidation), vErr.Field)
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", i18n.T(lang, i18n.KeyBookingConflict))
	case errors.Is(err, booking.ErrSlotBeingBooked), errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", i18n.T(lang, i18n.KeyBookingConflict))
	default:
		h.log.Error("booking request failed",
			zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", i18n.T(lang, i18n.KeyBookingError))
	}
}

func (h *PublicHandler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.log.Error(msg, zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error",
		i18n.T(langFrom(r), i18n.KeyInternalError))
}

func paginationFrom(r *http.Request) (limit, offset int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := parsePositive(v); err == nil {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := parsePositive(v); err == nil {
			offset = n
		}
	}
	return limit, offset
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("not a positive number")
	}
	return n, nil
}

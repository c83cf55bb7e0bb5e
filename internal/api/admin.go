package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medbook/clinic-api/internal/auth"
	"github.com/medbook/clinic-api/internal/blog"
	"github.com/medbook/clinic-api/internal/booking"
	"github.com/medbook/clinic-api/internal/clinic"
	"github.com/medbook/clinic-api/internal/i18n"
)

// AuthService is the admin authentication surface the HTTP layer depends on.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *auth.AdminUser, error)
	VerifyToken(ctx context.Context, token string) (*auth.AdminUser, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error
}

// AdminHandler serves the authenticated admin panel endpoints.
type AdminHandler struct {
	auths    AuthService
	bookings BookingService
	clinics  ClinicService
	posts    BlogService
	log      *zap.Logger
}

func NewAdminHandler(auths AuthService, bookings BookingService, clinics ClinicService, posts BlogService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		auths:    auths,
		bookings: bookings,
		clinics:  clinics,
		posts:    posts,
		log:      log,
	}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	lang := langFrom(r)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", i18n.T(lang, i18n.KeyBookingValidation))
		return
	}

	token, user, err := h.auths.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountLocked):
			writeError(w, http.StatusLocked, "account_locked", i18n.T(lang, i18n.KeyAuthLocked))
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid_credentials", i18n.T(lang, i18n.KeyAuthInvalid))
		default:
			h.internalError(w, r, "admin login", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		Admin: toAdminResponse(user),
	})
}

func (h *AdminHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toAdminResponse(AdminFrom(r.Context())))
}

func (h *AdminHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	lang := langFrom(r)

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", i18n.T(lang, i18n.KeyBookingValidation))
		return
	}

	user := AdminFrom(r.Context())
	err := h.auths.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			writeFieldError(w, http.StatusBadRequest, "weak_password", err.Error(), "new_password")
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid_credentials", i18n.T(lang, i18n.KeyAuthInvalid))
		default:
			h.internalError(w, r, "change password", err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListConsultations(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationFrom(r)
	filter := booking.ConsultationFilter{
		Status: booking.Status(r.URL.Query().Get("status")),
		Date:   r.URL.Query().Get("date"),
		Limit:  limit,
		Offset: offset,
	}

	consultations, err := h.bookings.ListConsultations(r.Context(), filter)
	if err != nil {
		var vErr *booking.ValidationError
		if errors.As(err, &vErr) {
			writeFieldError(w, http.StatusBadRequest, "validation_failed", vErr.Reason, vErr.Field)
			return
		}
		h.internalError(w, r, "list consultations", err)
		return
	}

	resp := make([]ConsultationResponse, 0, len(consultations))
	for i := range consultations {
		resp = append(resp, toConsultationResponse(&consultations[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) GetConsultation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	cons, err := h.bookings.GetConsultation(r.Context(), id)
	if err != nil {
		if errors.Is(err, booking.ErrConsultationNotFound) {
			h.notFound(w, r)
			return
		}
		h.internalError(w, r, "load consultation", err)
		return
	}

	writeJSON(w, http.StatusOK, toConsultationResponse(cons))
}

func (h *AdminHandler) UpdateConsultationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	cons, err := h.bookings.UpdateStatus(r.Context(), id, booking.Status(req.Status))
	if err != nil {
		var vErr *booking.ValidationError
		switch {
		case errors.As(err, &vErr):
			writeFieldError(w, http.StatusBadRequest, "validation_failed", vErr.Reason, vErr.Field)
		case errors.Is(err, booking.ErrInvalidStatusTransition):
			writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
		case errors.Is(err, booking.ErrConsultationNotFound):
			h.notFound(w, r)
		default:
			h.internalError(w, r, "update consultation status", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toConsultationResponse(cons))
}

func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.clinics.GetSettings(r.Context())
	if err != nil {
		h.internalError(w, r, "load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}

func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	settings := &clinic.Settings{
		WorkingDays:          req.WorkingDays,
		MultiDoctorMode:      req.MultiDoctorMode,
		RequireNationalID:    req.RequireNationalID,
		NotificationsEnabled: req.NotificationsEnabled,
	}

	var err error
	if settings.WorkingHoursStart, err = clinic.ParseTimeOfDay(req.WorkingHoursStart); err != nil {
		writeFieldError(w, http.StatusBadRequest, "validation_failed", "must be HH:MM", "working_hours_start")
		return
	}
	if settings.WorkingHoursEnd, err = clinic.ParseTimeOfDay(req.WorkingHoursEnd); err != nil {
		writeFieldError(w, http.StatusBadRequest, "validation_failed", "must be HH:MM", "working_hours_end")
		return
	}
	if req.BreakStart != nil {
		start, err := clinic.ParseTimeOfDay(*req.BreakStart)
		if err != nil {
			writeFieldError(w, http.StatusBadRequest, "validation_failed", "must be HH:MM", "break_start")
			return
		}
		settings.BreakStart = &start
	}
	if req.BreakEnd != nil {
		end, err := clinic.ParseTimeOfDay(*req.BreakEnd)
		if err != nil {
			writeFieldError(w, http.StatusBadRequest, "validation_failed", "must be HH:MM", "break_end")
			return
		}
		settings.BreakEnd = &end
	}

	updated, err := h.clinics.UpdateSettings(r.Context(), settings)
	if err != nil {
		// UpdateSettings only fails on invariant violations or storage errors;
		// the former read fine as field guidance for the admin UI.
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toSettingsResponse(updated))
}

func (h *AdminHandler) ListAppointmentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.clinics.ListAppointmentTypes(r.Context(), false)
	if err != nil {
		h.internalError(w, r, "list appointment types", err)
		return
	}

	resp := make([]AppointmentTypeResponse, 0, len(types))
	for i := range types {
		resp = append(resp, toAppointmentTypeResponse(&types[i], i18n.LangEn))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) CreateAppointmentType(w http.ResponseWriter, r *http.Request) {
	t, ok := h.decodeAppointmentType(w, r)
	if !ok {
		return
	}

	created, err := h.clinics.CreateAppointmentType(r.Context(), t)
	if err != nil {
		h.internalError(w, r, "create appointment type", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentTypeResponse(created, i18n.LangEn))
}

func (h *AdminHandler) UpdateAppointmentType(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	t, ok := h.decodeAppointmentType(w, r)
	if !ok {
		return
	}
	t.ID = id

	updated, err := h.clinics.UpdateAppointmentType(r.Context(), t)
	if err != nil {
		if errors.Is(err, clinic.ErrAppointmentTypeNotFound) {
			h.notFound(w, r)
			return
		}
		h.internalError(w, r, "update appointment type", err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentTypeResponse(updated, i18n.LangEn))
}

func (h *AdminHandler) DeleteAppointmentType(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	if err := h.clinics.DeactivateAppointmentType(r.Context(), id); err != nil {
		if errors.Is(err, clinic.ErrAppointmentTypeNotFound) {
			h.notFound(w, r)
			return
		}
		h.internalError(w, r, "deactivate appointment type", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) decodeAppointmentType(w http.ResponseWriter, r *http.Request) (*clinic.AppointmentType, bool) {
	var req AppointmentTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return nil, false
	}
	if req.NameEn == "" {
		writeFieldError(w, http.StatusBadRequest, "validation_failed", "required", "name_en")
		return nil, false
	}
	if req.DurationMinutes <= 0 {
		writeFieldError(w, http.StatusBadRequest, "validation_failed", "must be positive", "duration_minutes")
		return nil, false
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return &clinic.AppointmentType{
		NameEn:          req.NameEn,
		NameAr:          req.NameAr,
		NameFr:          req.NameFr,
		DescriptionEn:   req.DescriptionEn,
		DescriptionAr:   req.DescriptionAr,
		DurationMinutes: req.DurationMinutes,
		Color:           req.Color,
		Price:           req.Price,
		IsFree:          req.IsFree,
		IsActive:        active,
	}, true
}

func (h *AdminHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.clinics.ListDoctors(r.Context(), false)
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

func (h *AdminHandler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	d, ok := h.decodeDoctor(w, r)
	if !ok {
		return
	}

	created, err := h.clinics.CreateDoctor(r.Context(), d)
	if err != nil {
		h.internalError(w, r, "create doctor", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDoctorResponse(created))
}

func (h *AdminHandler) UpdateDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	d, ok := h.decodeDoctor(w, r)
	if !ok {
		return
	}
	d.ID = id

	updated, err := h.clinics.UpdateDoctor(r.Context(), d)
	if err != nil {
		if errors.Is(err, clinic.ErrDoctorNotFound) {
			h.notFound(w, r)
			return
		}
		h.internalError(w, r, "update doctor", err)
		return
	}
	writeJSON(w, http.StatusOK, toDoctorResponse(updated))
}

func (h *AdminHandler) DeleteDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	if err := h.clinics.DeactivateDoctor(r.Context(), id); err != nil {
		if errors.Is(err, clinic.ErrDoctorNotFound) {
			h.notFound(w, r)
			return
		}
		h.internalError(w, r, "deactivate doctor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) decodeDoctor(w http.ResponseWriter, r *http.Request) (*clinic.Doctor, bool) {
	var req DoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return nil, false
	}
	if req.Name == "" {
		writeFieldError(w, http.StatusBadRequest, "validation_failed", "required", "name")
		return nil, false
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return &clinic.Doctor{
		Name:           req.Name,
		Specialization: req.Specialization,
		Bio:            req.Bio,
		Email:          req.Email,
		Phone:          req.Phone,
		PhotoURL:       req.PhotoURL,
		IsActive:       active,
		WorkingHours:   req.WorkingHours,
	}, true
}

func (h *AdminHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationFrom(r)

	posts, err := h.posts.ListAll(r.Context(), limit, offset)
	if err != nil {
		h.internalError(w, r, "list posts", err)
		return
	}

	resp := make([]PostAdminResponse, 0, len(posts))
	for i := range posts {
		resp = append(resp, toPostAdminResponse(&posts[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	p, ok := h.decodePost(w, r)
	if !ok {
		return
	}

	created, err := h.posts.Create(r.Context(), p)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toPostAdminResponse(created))
}

func (h *AdminHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	p, ok := h.decodePost(w, r)
	if !ok {
		return
	}
	p.ID = id

	updated, err := h.posts.Update(r.Context(), p)
	if err != nil {
		if errors.Is(err, blog.ErrPostNotFound) {
			h.notFound(w, r)
			return
		}
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toPostAdminResponse(updated))
}

func (h *AdminHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	if err := h.posts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, blog.ErrPostNotFound) {
			h.notFound(w, r)
			return
		}
		h.internalError(w, r, "delete post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) decodePost(w http.ResponseWriter, r *http.Request) (*blog.Post, bool) {
	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return nil, false
	}

	return &blog.Post{
		CategoryID:  req.CategoryID,
		Slug:        req.Slug,
		TitleEn:     req.TitleEn,
		TitleAr:     req.TitleAr,
		TitleFr:     req.TitleFr,
		ExcerptEn:   req.ExcerptEn,
		ExcerptAr:   req.ExcerptAr,
		ExcerptFr:   req.ExcerptFr,
		ContentEn:   req.ContentEn,
		ContentAr:   req.ContentAr,
		ContentFr:   req.ContentFr,
		Tags:        req.Tags,
		Status:      blog.PostStatus(req.Status),
		ScheduledAt: req.ScheduledAt,
	}, true
}

func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.posts.ListCategories(r.Context(), false)
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

func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	created, err := h.posts.CreateCategory(r.Context(), &blog.Category{
		Slug:     req.Slug,
		NameEn:   req.NameEn,
		NameAr:   req.NameAr,
		NameFr:   req.NameFr,
		IsActive: true,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, CategoryResponse{
		ID: created.ID, Slug: created.Slug,
		NameEn: created.NameEn, NameAr: created.NameAr, NameFr: created.NameFr,
		IsActive: created.IsActive,
	})
}

func (h *AdminHandler) idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeFieldError(w, http.StatusBadRequest, "validation_failed", "must be a valid UUID", "id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *AdminHandler) notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", i18n.T(langFrom(r), i18n.KeyNotFound))
}

func (h *AdminHandler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.log.Error(msg, zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error",
		i18n.T(langFrom(r), i18n.KeyInternalError))
}

func toAdminResponse(u *auth.AdminUser) AdminResponse {
	return AdminResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		LastLoginAt: u.LastLoginAt,
	}
}

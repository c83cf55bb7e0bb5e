package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/medbook/clinic-api/internal/blog"
	"github.com/medbook/clinic-api/internal/booking"
	"github.com/medbook/clinic-api/internal/clinic"
	"github.com/medbook/clinic-api/internal/i18n"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

type CreateBookingRequest struct {
	Name              string  `json:"name"`
	Phone             string  `json:"phone"`
	Email             string  `json:"email,omitempty"`
	NationalID        string  `json:"national_id,omitempty"`
	AppointmentTypeID string  `json:"appointment_type_id"`
	DoctorID          *string `json:"doctor_id,omitempty"`
	PreferredDate     string  `json:"preferred_date"`
	PreferredTime     string  `json:"preferred_time"`
	Language          string  `json:"language,omitempty"`
	Message           string  `json:"message,omitempty"`
}

type BookingResponse struct {
	Message      string               `json:"message"`
	Consultation ConsultationResponse `json:"consultation"`
}

type ConsultationResponse struct {
	ID                uuid.UUID  `json:"id"`
	PatientID         uuid.UUID  `json:"patient_id"`
	Name              string     `json:"name"`
	Phone             string     `json:"phone"`
	Email             *string    `json:"email,omitempty"`
	NationalID        *string    `json:"national_id,omitempty"`
	AppointmentTypeID uuid.UUID  `json:"appointment_type_id"`
	PracticeArea      string     `json:"practice_area"`
	DoctorID          *uuid.UUID `json:"doctor_id,omitempty"`
	PreferredDate     string     `json:"preferred_date"`
	PreferredTime     string     `json:"preferred_time"`
	DurationMinutes   int        `json:"duration_minutes"`
	Status            string     `json:"status"`
	Attended          *bool      `json:"attended,omitempty"`
	Language          string     `json:"language"`
	Message           *string    `json:"message,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func toConsultationResponse(c *booking.Consultation) ConsultationResponse {
	return ConsultationResponse{
		ID:                c.ID,
		PatientID:         c.PatientID,
		Name:              c.Name,
		Phone:             c.Phone,
		Email:             c.Email,
		NationalID:        c.NationalID,
		AppointmentTypeID: c.AppointmentTypeID,
		PracticeArea:      c.PracticeArea,
		DoctorID:          c.DoctorID,
		PreferredDate:     c.PreferredDate,
		PreferredTime:     c.PreferredTime,
		DurationMinutes:   c.DurationMinutes,
		Status:            string(c.Status),
		Attended:          c.Attended,
		Language:          c.Language,
		Message:           c.Message,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

type SlotsResponse struct {
	Date     string   `json:"date"`
	DoctorID *string  `json:"doctor_id,omitempty"`
	Slots    []string `json:"slots"`
}

type SettingsResponse struct {
	WorkingHoursStart    string  `json:"working_hours_start"`
	WorkingHoursEnd      string  `json:"working_hours_end"`
	BreakStart           *string `json:"break_start,omitempty"`
	BreakEnd             *string `json:"break_end,omitempty"`
	WorkingDays          []int   `json:"working_days"`
	MultiDoctorMode      bool    `json:"multi_doctor_mode"`
	RequireNationalID    bool    `json:"require_national_id"`
	NotificationsEnabled bool    `json:"notifications_enabled"`
}

func toSettingsResponse(s *clinic.Settings) SettingsResponse {
	resp := SettingsResponse{
		WorkingHoursStart:    s.WorkingHoursStart.String(),
		WorkingHoursEnd:      s.WorkingHoursEnd.String(),
		WorkingDays:          s.WorkingDays,
		MultiDoctorMode:      s.MultiDoctorMode,
		RequireNationalID:    s.RequireNationalID,
		NotificationsEnabled: s.NotificationsEnabled,
	}
	if s.BreakStart != nil {
		start := s.BreakStart.String()
		end := s.BreakEnd.String()
		resp.BreakStart = &start
		resp.BreakEnd = &end
	}
	return resp
}

type UpdateSettingsRequest struct {
	WorkingHoursStart    string  `json:"working_hours_start"`
	WorkingHoursEnd      string  `json:"working_hours_end"`
	BreakStart           *string `json:"break_start"`
	BreakEnd             *string `json:"break_end"`
	WorkingDays          []int   `json:"working_days"`
	MultiDoctorMode      bool    `json:"multi_doctor_mode"`
	RequireNationalID    bool    `json:"require_national_id"`
	NotificationsEnabled bool    `json:"notifications_enabled"`
}

type AppointmentTypeResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	NameEn          string    `json:"name_en"`
	NameAr          string    `json:"name_ar,omitempty"`
	NameFr          string    `json:"name_fr,omitempty"`
	DescriptionEn   string    `json:"description_en,omitempty"`
	DescriptionAr   string    `json:"description_ar,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	Color           string    `json:"color"`
	Price           float64   `json:"price"`
	IsFree          bool      `json:"is_free"`
	IsActive        bool      `json:"is_active"`
}

func toAppointmentTypeResponse(t *clinic.AppointmentType, lang i18n.Lang) AppointmentTypeResponse {
	return AppointmentTypeResponse{
		ID:              t.ID,
		Name:            t.LocalizedName(string(lang)),
		NameEn:          t.NameEn,
		NameAr:          t.NameAr,
		NameFr:          t.NameFr,
		DescriptionEn:   t.DescriptionEn,
		DescriptionAr:   t.DescriptionAr,
		DurationMinutes: t.DurationMinutes,
		Color:           t.Color,
		Price:           t.Price,
		IsFree:          t.IsFree,
		IsActive:        t.IsActive,
	}
}

type AppointmentTypeRequest struct {
	NameEn          string  `json:"name_en"`
	NameAr          string  `json:"name_ar"`
	NameFr          string  `json:"name_fr"`
	DescriptionEn   string  `json:"description_en"`
	DescriptionAr   string  `json:"description_ar"`
	DurationMinutes int     `json:"duration_minutes"`
	Color           string  `json:"color"`
	Price           float64 `json:"price"`
	IsFree          bool    `json:"is_free"`
	IsActive        *bool   `json:"is_active"`
}

type DoctorResponse struct {
	ID             uuid.UUID          `json:"id"`
	Name           string             `json:"name"`
	Specialization string             `json:"specialization,omitempty"`
	Bio            string             `json:"bio,omitempty"`
	Email          string             `json:"email,omitempty"`
	Phone          string             `json:"phone,omitempty"`
	PhotoURL       string             `json:"photo_url,omitempty"`
	IsActive       bool               `json:"is_active"`
	WorkingHours   clinic.WeeklyHours `json:"working_hours,omitempty"`
}

func toDoctorResponse(d *clinic.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:             d.ID,
		Name:           d.Name,
		Specialization: d.Specialization,
		Bio:            d.Bio,
		Email:          d.Email,
		Phone:          d.Phone,
		PhotoURL:       d.PhotoURL,
		IsActive:       d.IsActive,
		WorkingHours:   d.WorkingHours,
	}
}

type DoctorRequest struct {
	Name           string             `json:"name"`
	Specialization string             `json:"specialization"`
	Bio            string             `json:"bio"`
	Email          string             `json:"email"`
	Phone          string             `json:"phone"`
	PhotoURL       string             `json:"photo_url"`
	IsActive       *bool              `json:"is_active"`
	WorkingHours   clinic.WeeklyHours `json:"working_hours"`
}

type PostResponse struct {
	ID          uuid.UUID  `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Content     string     `json:"content,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// toPostResponse localizes a published post, falling back to English when the
// requested translation is empty.
func toPostResponse(p *blog.Post, lang i18n.Lang, includeContent bool) PostResponse {
	title, excerpt, content := p.TitleEn, p.ExcerptEn, p.ContentEn
	switch lang {
	case i18n.LangAr:
		title = fallback(p.TitleAr, title)
		excerpt = fallback(p.ExcerptAr, excerpt)
		content = fallback(p.ContentAr, content)
	case i18n.LangFr:
		title = fallback(p.TitleFr, title)
		excerpt = fallback(p.ExcerptFr, excerpt)
		content = fallback(p.ContentFr, content)
	}

	resp := PostResponse{
		ID:          p.ID,
		Slug:        p.Slug,
		Title:       title,
		Excerpt:     excerpt,
		Tags:        p.Tags,
		PublishedAt: p.PublishedAt,
	}
	if includeContent {
		resp.Content = content
	}
	return resp
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

type PostAdminResponse struct {
	ID          uuid.UUID  `json:"id"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Slug        string     `json:"slug"`
	TitleEn     string     `json:"title_en"`
	TitleAr     string     `json:"title_ar,omitempty"`
	TitleFr     string     `json:"title_fr,omitempty"`
	ExcerptEn   string     `json:"excerpt_en,omitempty"`
	ExcerptAr   string     `json:"excerpt_ar,omitempty"`
	ExcerptFr   string     `json:"excerpt_fr,omitempty"`
	ContentEn   string     `json:"content_en"`
	ContentAr   string     `json:"content_ar,omitempty"`
	ContentFr   string     `json:"content_fr,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toPostAdminResponse(p *blog.Post) PostAdminResponse {
	return PostAdminResponse{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Slug:        p.Slug,
		TitleEn:     p.TitleEn,
		TitleAr:     p.TitleAr,
		TitleFr:     p.TitleFr,
		ExcerptEn:   p.ExcerptEn,
		ExcerptAr:   p.ExcerptAr,
		ExcerptFr:   p.ExcerptFr,
		ContentEn:   p.ContentEn,
		ContentAr:   p.ContentAr,
		ContentFr:   p.ContentFr,
		Tags:        p.Tags,
		Status:      string(p.Status),
		ScheduledAt: p.ScheduledAt,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type PostRequest struct {
	CategoryID  *uuid.UUID `json:"category_id"`
	Slug        string     `json:"slug"`
	TitleEn     string     `json:"title_en"`
	TitleAr     string     `json:"title_ar"`
	TitleFr     string     `json:"title_fr"`
	ExcerptEn   string     `json:"excerpt_en"`
	ExcerptAr   string     `json:"excerpt_ar"`
	ExcerptFr   string     `json:"excerpt_fr"`
	ContentEn   string     `json:"content_en"`
	ContentAr   string     `json:"content_ar"`
	ContentFr   string     `json:"content_fr"`
	Tags        []string   `json:"tags"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type CategoryResponse struct {
	ID       uuid.UUID `json:"id"`
	Slug     string    `json:"slug"`
	NameEn   string    `json:"name_en"`
	NameAr   string    `json:"name_ar,omitempty"`
	NameFr   string    `json:"name_fr,omitempty"`
	IsActive bool      `json:"is_active"`
}

type CategoryRequest struct {
	Slug   string `json:"slug"`
	NameEn string `json:"name_en"`
	NameAr string `json:"name_ar"`
	NameFr string `json:"name_fr"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string        `json:"token"`
	Admin AdminResponse `json:"admin"`
}

type AdminResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

func writeFieldError(w http.ResponseWriter, status int, code, message, field string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message, Field: field})
}

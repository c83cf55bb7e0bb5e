package clinic

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Settings is the single clinic configuration row. It is read by every slot
// computation, so an absent row is an error, never defaulted.
type Settings struct {
	ID                   uuid.UUID
	WorkingHoursStart    TimeOfDay
	WorkingHoursEnd      TimeOfDay
	BreakStart           *TimeOfDay
	BreakEnd             *TimeOfDay
	WorkingDays          []int // weekday numbers, 0 = Sunday
	MultiDoctorMode      bool
	RequireNationalID    bool
	NotificationsEnabled bool
	UpdatedAt            time.Time
}

// Validate enforces the window ordering invariants before a settings write.
func (s *Settings) Validate() error {
	if !s.WorkingHoursStart.Before(s.WorkingHoursEnd) {
		return fmt.Errorf("working hours start %s must be before end %s",
			s.WorkingHoursStart, s.WorkingHoursEnd)
	}
	if (s.BreakStart == nil) != (s.BreakEnd == nil) {
		return fmt.Errorf("break start and end must be set together")
	}
	if s.BreakStart != nil {
		if !s.WorkingHoursStart.Before(*s.BreakStart) {
			return fmt.Errorf("break start %s must be after working hours start %s",
				s.BreakStart, s.WorkingHoursStart)
		}
		if s.BreakEnd.Before(*s.BreakStart) {
			return fmt.Errorf("break end %s must not be before break start %s",
				s.BreakEnd, s.BreakStart)
		}
		if !s.BreakEnd.Before(s.WorkingHoursEnd) {
			return fmt.Errorf("break end %s must be before working hours end %s",
				s.BreakEnd, s.WorkingHoursEnd)
		}
	}
	for _, d := range s.WorkingDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("invalid working day %d", d)
		}
	}
	return nil
}

// IsWorkingDay reports whether the clinic accepts appointments on the weekday.
func (s *Settings) IsWorkingDay(day time.Weekday) bool {
	for _, d := range s.WorkingDays {
		if d == int(day) {
			return true
		}
	}
	return false
}

// AppointmentType is a bookable appointment category. Duration is snapshotted
// into consultations at booking time, so edits here never touch past bookings.
type AppointmentType struct {
	ID              uuid.UUID
	NameEn          string
	NameAr          string
	NameFr          string
	DescriptionEn   string
	DescriptionAr   string
	DurationMinutes int
	Color           string
	Price           float64
	IsFree          bool
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LocalizedName falls back to the English name when a translation is missing.
func (t *AppointmentType) LocalizedName(lang string) string {
	switch lang {
	case "ar":
		if t.NameAr != "" {
			return t.NameAr
		}
	case "fr":
		if t.NameFr != "" {
			return t.NameFr
		}
	}
	return t.NameEn
}

func (t *AppointmentType) Validate() error {
	if t.NameEn == "" {
		return fmt.Errorf("english name is required")
	}
	if t.DurationMinutes <= 0 {
		return fmt.Errorf("duration must be positive, got %d", t.DurationMinutes)
	}
	return nil
}

// Window is a [Start, End) working range within a single day.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// DayHours is one entry of a doctor's weekly schedule as stored in JSONB.
// Empty start or end means the doctor is unavailable that day.
type DayHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeeklyHours maps lowercase weekday names ("monday" .. "sunday") to hours.
type WeeklyHours map[string]DayHours

var weekdayKeys = [7]string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

// WeekdayKey returns the schedule map key for a weekday.
func WeekdayKey(day time.Weekday) string {
	return weekdayKeys[int(day)]
}

type Doctor struct {
	ID             uuid.UUID
	Name           string
	Specialization string
	Bio            string
	Email          string
	Phone          string
	PhotoURL       string
	IsActive       bool
	WorkingHours   WeeklyHours
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HoursFor resolves the doctor's window for a weekday. ok is false when the
// doctor has no usable hours that day (missing entry, empty pair, or a
// malformed one), which means the doctor is unavailable.
func (d *Doctor) HoursFor(day time.Weekday) (Window, bool) {
	if d.WorkingHours == nil {
		return Window{}, false
	}
	hours, found := d.WorkingHours[WeekdayKey(day)]
	if !found || hours.Start == "" || hours.End == "" {
		return Window{}, false
	}
	start, err := ParseTimeOfDay(hours.Start)
	if err != nil {
		return Window{}, false
	}
	end, err := ParseTimeOfDay(hours.End)
	if err != nil {
		return Window{}, false
	}
	if !start.Before(end) {
		return Window{}, false
	}
	return Window{Start: start, End: end}, true
}

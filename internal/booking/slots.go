package booking

import (
	"time"

	"github.com/medbook/clinic-api/internal/clinic"
)

// SlotIntervalMinutes is the fixed slot width, aligned to the window start.
const SlotIntervalMinutes = 30

// GenerateSlots computes the ordered bookable start times for a date.
//
// The effective window is the doctor override when one is given, otherwise the
// clinic-wide working hours. A weekday outside the clinic's working days, or a
// nil window for an override-only doctor, yields no slots. The clinic break is
// skipped by jumping the cursor straight to the break end, so no slot ever
// starts inside [breakStart, breakEnd) even when the break boundary is off the
// 30-minute grid.
//
// Existing bookings are deliberately not consulted here: a generated slot can
// be taken by a concurrent booking between generation and submission, and the
// commit-time check in SubmitBooking is what enforces uniqueness. Pre-filtering
// would only trade that race for a staleness window of the same size.
func GenerateSlots(date time.Time, settings *clinic.Settings, override *clinic.Window) []clinic.TimeOfDay {
	if settings == nil || !settings.IsWorkingDay(date.Weekday()) {
		return nil
	}

	window := clinic.Window{
		Start: settings.WorkingHoursStart,
		End:   settings.WorkingHoursEnd,
	}
	if override != nil {
		window = *override
	}
	if !window.Start.Before(window.End) {
		return nil
	}

	var slots []clinic.TimeOfDay
	for cur := window.Start; cur.Before(window.End); {
		if settings.BreakStart != nil &&
			!cur.Before(*settings.BreakStart) && cur.Before(*settings.BreakEnd) {
			cur = *settings.BreakEnd
			continue
		}
		slots = append(slots, cur)
		cur = cur.AddMinutes(SlotIntervalMinutes)
	}

	return slots
}

// SlotAvailable reports whether t is one of the generated slots for the date.
func SlotAvailable(t clinic.TimeOfDay, date time.Time, settings *clinic.Settings, override *clinic.Window) bool {
	for _, slot := range GenerateSlots(date, settings, override) {
		if slot == t {
			return true
		}
	}
	return false
}

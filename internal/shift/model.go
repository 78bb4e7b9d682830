package shift

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WorkShift is a doctor's bookable half-hour slot on a given date. IsReserved
// and AppointmentID are derived fields owned by the reservation coordinator;
// nothing else writes them.
type WorkShift struct {
	ID            uuid.UUID
	DoctorID      uuid.UUID
	Date          time.Time // calendar day, time-of-day ignored
	TimeSlot      string
	IsReserved    bool
	AppointmentID *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Filter narrows List results. Nil fields match everything.
type Filter struct {
	DoctorID *uuid.UUID
	Reserved *bool
	From     *time.Time
	To       *time.Time
}

// The bookable slot catalog: half-hour intervals between 08:00 and 18:00.
// Labels are opaque keys; no interval arithmetic is done on them.
var (
	TimeSlots     []string
	timeSlotIndex map[string]bool
)

func init() {
	timeSlotIndex = make(map[string]bool)
	day := time.Date(2000, 1, 1, 8, 0, 0, 0, time.UTC)
	for t := day; t.Hour() < 18; t = t.Add(30 * time.Minute) {
		next := t.Add(30 * time.Minute)
		label := fmt.Sprintf("%s-%s", t.Format("15:04"), next.Format("15:04"))
		TimeSlots = append(TimeSlots, label)
		timeSlotIndex[label] = true
	}
}

// ValidTimeSlot reports whether the label is in the catalog.
func ValidTimeSlot(label string) bool {
	return timeSlotIndex[label]
}

// DateOnly truncates t to its calendar day in UTC. All shift date comparisons
// go through this so two timestamps on the same day collide on I3.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

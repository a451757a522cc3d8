package models

import "time"

// Wave ("gelombang") is a bounded enrollment period that scopes registration
// number sequencing.
type Wave struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	StartDate         Date      `db:"start_date" json:"start_date"`
	EndDate           Date      `db:"end_date" json:"end_date"`
	ReEnrollmentStart Date      `db:"re_enrollment_start" json:"re_enrollment_start"`
	ReEnrollmentEnd   Date      `db:"re_enrollment_end" json:"re_enrollment_end"`
	ReEnrollmentNote  string    `db:"re_enrollment_note" json:"re_enrollment_note,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// Valid reports whether the wave has a usable, ordered date range.
func (w Wave) Valid() bool {
	return !w.StartDate.IsZero() && !w.EndDate.IsZero() && !w.EndDate.Before(w.StartDate)
}

// Contains reports whether d falls inside the wave, bounds included.
func (w Wave) Contains(d Date) bool {
	return w.Valid() && d.Within(w.StartDate, w.EndDate)
}

// Overlaps reports whether two waves share at least one day.
func (w Wave) Overlaps(o Wave) bool {
	return w.Valid() && o.Valid() && !w.EndDate.Before(o.StartDate) && !o.EndDate.Before(w.StartDate)
}

// Package sla computes per-priority response windows. These are separate
// from the fixed 24-hour overdue rule: a ticket reports both.
package sla

import (
	"time"

	"github.com/rickar/cal/v2"
)

// Windows per priority label, in calendar time.
const (
	WindowCritical = 4 * time.Hour
	WindowHigh     = 24 * time.Hour
	WindowMedium   = 72 * time.Hour
	WindowLow      = 168 * time.Hour
)

// businessDays used when business-hours mode maps the calendar windows for
// the two slower tiers.
const (
	businessDaysMedium = 3
	businessDaysLow    = 5
)

// Calculator resolves SLA due times. Immutable after construction.
type Calculator struct {
	businessHours bool
	calendar      *cal.BusinessCalendar
}

// NewCalculator builds a calculator. With businessHours set, medium and low
// windows count business days (weekends skipped) instead of calendar time;
// critical and high stay on the clock regardless.
func NewCalculator(businessHours bool) *Calculator {
	c := &Calculator{businessHours: businessHours}
	if businessHours {
		c.calendar = cal.NewBusinessCalendar()
	}
	return c
}

// Window returns the calendar window for a Severity_ID. Unknown and absent
// severities fall back to the medium window.
func (c *Calculator) Window(severityID *int) time.Duration {
	switch id(severityID) {
	case 1:
		return WindowCritical
	case 2:
		return WindowHigh
	case 4:
		return WindowLow
	default:
		return WindowMedium
	}
}

// Due returns the moment the window for this severity expires.
func (c *Calculator) Due(created time.Time, severityID *int) time.Time {
	sev := id(severityID)
	if c.businessHours {
		switch sev {
		case 3:
			return addBusinessDays(c.calendar, created, businessDaysMedium)
		case 4:
			return addBusinessDays(c.calendar, created, businessDaysLow)
		}
	}
	return created.Add(c.Window(severityID))
}

// Breached reports whether an open ticket created at the given time has
// passed its window. Closed tickets never breach.
func (c *Calculator) Breached(now, created time.Time, severityID *int, open bool) bool {
	if !open {
		return false
	}
	return now.After(c.Due(created, severityID))
}

func addBusinessDays(calendar *cal.BusinessCalendar, t time.Time, days int) time.Time {
	for days > 0 {
		t = t.AddDate(0, 0, 1)
		if calendar.IsWorkday(t) {
			days--
		}
	}
	return t
}

func id(severityID *int) int {
	if severityID == nil {
		return 3
	}
	return *severityID
}

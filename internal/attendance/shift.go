package attendance

import (
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

// ── Clock time ──

// ClockTime wall-clock time of day with minute precision
type ClockTime struct {
	Hour   int
	Minute int
}

// Clock builds a ClockTime
func Clock(hour, minute int) ClockTime { return ClockTime{Hour: hour, Minute: minute} }

// ClockOf wall-clock part of t in t's location
func ClockOf(t time.Time) ClockTime { return ClockTime{Hour: t.Hour(), Minute: t.Minute()} }

// ParseClock parses "HH:MM" (also accepts "HH:MM:SS")
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		t, err = time.Parse("15:04:05", s)
	}
	if err != nil {
		return ClockTime{}, pkgerrors.NewValidation("time", fmt.Sprintf("%q is not HH:MM", s))
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Minutes minutes since midnight
func (c ClockTime) Minutes() int { return c.Hour*60 + c.Minute }

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// On the instant at this clock time on the given calendar day
func (c ClockTime) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, loc)
}

// circularDistance minutes between two clock times on a 24h dial
func circularDistance(a, b ClockTime) int {
	d := a.Minutes() - b.Minutes()
	if d < 0 {
		d = -d
	}
	if d > 720 {
		d = 1440 - d
	}
	return d
}

// ── Shift types ──

// ShiftType closed set of shift variants
type ShiftType string

const (
	Morning      ShiftType = "morning"
	Evening      ShiftType = "evening"
	Night        ShiftType = "night"
	CanteenEarly ShiftType = "canteen_early"
	CanteenLate  ShiftType = "canteen_late"
	Custom       ShiftType = "custom"
)

// ShiftTypes every variant, in display order
var ShiftTypes = []ShiftType{Morning, Evening, Night, CanteenEarly, CanteenLate, Custom}

// ParseShiftType accepts both snake and kebab spellings
func ParseShiftType(s string) (ShiftType, bool) {
	st := ShiftType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	return st, st.Valid()
}

// Valid reports whether s is a known variant
func (s ShiftType) Valid() bool {
	switch s {
	case Morning, Evening, Night, CanteenEarly, CanteenLate, Custom:
		return true
	}
	return false
}

// IsCanteen canteen_early or canteen_late
func (s ShiftType) IsCanteen() bool { return s == CanteenEarly || s == CanteenLate }

// ── Shift definitions ──

// ShiftDefinition fixed bounds of a shift variant
type ShiftDefinition struct {
	Type          ShiftType
	Start         ClockTime
	End           ClockTime
	EarlyLeave    ClockTime
	LateTolerance time.Duration
}

// CrossesMidnight the shift ends on the day after it starts
func (d ShiftDefinition) CrossesMidnight() bool { return d.End.Minutes() <= d.Start.Minutes() }

// StartOn shift start for the given working day
func (d ShiftDefinition) StartOn(workingDay time.Time, loc *time.Location) time.Time {
	return d.Start.On(workingDay, loc)
}

// EndOn shift end for the given working day, on the next day for night shifts
func (d ShiftDefinition) EndOn(workingDay time.Time, loc *time.Location) time.Time {
	end := d.End.On(workingDay, loc)
	if d.CrossesMidnight() {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// EarlyLeaveOn the instant before which a check-out counts as leaving early
func (d ShiftDefinition) EarlyLeaveOn(workingDay time.Time, loc *time.Location) time.Time {
	gap := d.End.Minutes() - d.EarlyLeave.Minutes()
	if gap < 0 {
		gap += 1440
	}
	return d.EndOn(workingDay, loc).Add(-time.Duration(gap) * time.Minute)
}

// Duration scheduled length of the shift
func (d ShiftDefinition) Duration() time.Duration {
	mins := d.End.Minutes() - d.Start.Minutes()
	if mins <= 0 {
		mins += 1440
	}
	return time.Duration(mins) * time.Minute
}

// DefaultEarlyLeaveMargin how far before the end the early-leave threshold sits
const DefaultEarlyLeaveMargin = 10 * time.Minute

// Catalog the non-custom shift definitions
type Catalog struct {
	defs map[ShiftType]ShiftDefinition
}

// NewCatalog builds the standard catalog. earlyLeave is the margin before
// each shift end used as the early-leave threshold.
func NewCatalog(earlyLeave time.Duration) *Catalog {
	if earlyLeave < 0 {
		earlyLeave = DefaultEarlyLeaveMargin
	}
	mk := func(t ShiftType, start, end ClockTime, tolerance time.Duration) ShiftDefinition {
		return ShiftDefinition{
			Type:          t,
			Start:         start,
			End:           end,
			EarlyLeave:    shiftClock(end, -earlyLeave),
			LateTolerance: tolerance,
		}
	}
	return &Catalog{defs: map[ShiftType]ShiftDefinition{
		Morning:      mk(Morning, Clock(5, 0), Clock(14, 0), 0),
		Evening:      mk(Evening, Clock(13, 0), Clock(22, 0), 0),
		Night:        mk(Night, Clock(21, 0), Clock(6, 0), 30*time.Minute),
		CanteenEarly: mk(CanteenEarly, Clock(7, 0), Clock(16, 0), 10*time.Minute),
		CanteenLate:  mk(CanteenLate, Clock(8, 0), Clock(17, 0), 10*time.Minute),
	}}
}

// DefaultCatalog catalog with the default early-leave margin
var DefaultCatalog = NewCatalog(DefaultEarlyLeaveMargin)

// Get definition for a non-custom shift type
func (c *Catalog) Get(t ShiftType) (ShiftDefinition, bool) {
	d, ok := c.defs[t]
	return d, ok
}

// NewCustomShift caller-supplied bounds. Custom shifts may not cross midnight.
func NewCustomShift(start, end ClockTime, tolerance, earlyLeave time.Duration) (ShiftDefinition, error) {
	if end.Minutes() <= start.Minutes() {
		return ShiftDefinition{}, pkgerrors.NewValidation("custom_end", "custom shift must end after it starts")
	}
	if tolerance < 0 {
		return ShiftDefinition{}, pkgerrors.NewValidation("late_tolerance", "must not be negative")
	}
	el := shiftClock(end, -earlyLeave)
	if el.Minutes() < start.Minutes() {
		el = start
	}
	return ShiftDefinition{
		Type:          Custom,
		Start:         start,
		End:           end,
		EarlyLeave:    el,
		LateTolerance: tolerance,
	}, nil
}

func shiftClock(c ClockTime, by time.Duration) ClockTime {
	m := (c.Minutes() + int(by/time.Minute)) % 1440
	if m < 0 {
		m += 1440
	}
	return ClockTime{Hour: m / 60, Minute: m % 60}
}

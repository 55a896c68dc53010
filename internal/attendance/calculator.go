package attendance

import (
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

// Flags issue markers of a daily record
type Flags struct {
	MissingCheckIn    bool `json:"missing_check_in"`
	MissingCheckOut   bool `json:"missing_check_out"`
	IsLate            bool `json:"is_late"`
	EarlyLeave        bool `json:"early_leave"`
	ExcessiveOvertime bool `json:"excessive_overtime"`
	Corrected         bool `json:"corrected_records"`
}

// HasIssue any flag that needs HR attention
func (f Flags) HasIssue() bool {
	return f.MissingCheckIn || f.MissingCheckOut || f.IsLate || f.EarlyLeave || f.ExcessiveOvertime
}

// Result computed hours, flags and display values
type Result struct {
	Hours           decimal.Decimal
	Flags           Flags
	DisplayCheckIn  string
	DisplayCheckOut string
}

// Calculator hours and flags rules
type Calculator struct {
	Location *time.Location
	// StandardHours flat credit for manual submissions when ManualFlatHours is set
	StandardHours     decimal.Decimal
	ManualFlatHours   bool
	OvertimeThreshold decimal.Decimal
}

// NewCalculator defaults: 9h standard, flat hours for manual records, 12h overtime
func NewCalculator(loc *time.Location) Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return Calculator{
		Location:          loc,
		StandardHours:     decimal.NewFromInt(9),
		ManualFlatHours:   true,
		OvertimeThreshold: decimal.NewFromInt(12),
	}
}

var secondsPerHour = decimal.NewFromInt(3600)

// HoursBetween elapsed hours rounded to 2 places, never negative
func HoursBetween(in, out time.Time) decimal.Decimal {
	d := out.Sub(in)
	if d <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(d / time.Second)).Div(secondsPerHour).Round(2)
}

// Compute derives hours worked and flags for a paired record. Penalties are
// not applied here; hours stay the unpenalized figure.
func (c Calculator) Compute(p Provisional, def ShiftDefinition) Result {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}

	res := Result{
		Hours: decimal.Zero,
		Flags: Flags{
			MissingCheckIn:  p.CheckIn == nil,
			MissingCheckOut: p.CheckOut == nil,
			Corrected:       p.Corrected,
		},
	}

	flat := p.Manual && c.ManualFlatHours
	if p.CheckIn != nil && p.CheckOut != nil {
		if flat {
			res.Hours = c.StandardHours
		} else {
			res.Hours = HoursBetween(*p.CheckIn, *p.CheckOut)
		}
	}

	if p.CheckIn != nil {
		late := p.CheckIn.Sub(def.StartOn(p.WorkingDay, loc))
		res.Flags.IsLate = late > def.LateTolerance
	}
	if p.CheckOut != nil {
		res.Flags.EarlyLeave = p.CheckOut.Before(def.EarlyLeaveOn(p.WorkingDay, loc))
	}
	if !c.OvertimeThreshold.IsZero() {
		res.Flags.ExcessiveOvertime = res.Hours.GreaterThan(c.OvertimeThreshold)
	}

	if flat {
		res.DisplayCheckIn = def.Start.String()
		res.DisplayCheckOut = def.End.String()
	} else {
		if p.CheckIn != nil {
			res.DisplayCheckIn = ClockOf(p.CheckIn.In(loc)).String()
		}
		if p.CheckOut != nil {
			res.DisplayCheckOut = ClockOf(p.CheckOut.In(loc)).String()
		}
	}
	return res
}

// Absence fixed result of a leave or off-day, whatever punches exist
func (c Calculator) Absence(kind DayKind) Result {
	credit, _ := kind.Credit()
	label := kind.Label()
	return Result{
		Hours:           credit,
		DisplayCheckIn:  label,
		DisplayCheckOut: label,
	}
}

// Approvable a record can be approved when it is a leave/off-day or has both
// a check-in and a check-out.
func Approvable(kind DayKind, checkIn, checkOut *time.Time) error {
	if kind.IsAbsence() {
		return nil
	}
	switch {
	case checkIn == nil && checkOut == nil:
		return pkgerrors.NewBusinessRule("approve", "check-in and check-out are both missing")
	case checkIn == nil:
		return pkgerrors.NewBusinessRule("approve", "check-in is missing")
	case checkOut == nil:
		return pkgerrors.NewBusinessRule("approve", "check-out is missing")
	}
	return nil
}

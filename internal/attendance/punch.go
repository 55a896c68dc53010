package attendance

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction check-in or check-out
type Direction string

const (
	CheckIn  Direction = "check_in"
	CheckOut Direction = "check_out"
)

// ParseDirection accepts check_in / check-in / in and the check-out forms
func ParseDirection(s string) (Direction, bool) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "check_in", "checkin", "in":
		return CheckIn, true
	case "check_out", "checkout", "out":
		return CheckOut, true
	}
	return "", false
}

// Opposite flips the direction
func (d Direction) Opposite() Direction {
	if d == CheckIn {
		return CheckOut
	}
	return CheckIn
}

// Punch one raw clock event
type Punch struct {
	ID         string
	EmployeeID string
	At         time.Time
	Direction  Direction
	ShiftHint  ShiftType
	Note       string
	Manual     bool
	Corrected  bool
}

// ── Day kind ──

// Kind discriminator of DayKind
type Kind string

const (
	KindWork   Kind = "work"
	KindLeave  Kind = "leave"
	KindOffDay Kind = "off_day"
)

// LeaveType paid and unpaid leave categories
type LeaveType string

const (
	AnnualLeave    LeaveType = "annual"
	SickLeave      LeaveType = "sick"
	EmergencyLeave LeaveType = "emergency"
	UnpaidLeave    LeaveType = "unpaid"
)

// ParseLeaveType accepts "annual", "annual-leave", "unpaid_leave", ...
func ParseLeaveType(s string) (LeaveType, bool) {
	v := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	v = strings.TrimSuffix(v, "_leave")
	lt := LeaveType(v)
	switch lt {
	case AnnualLeave, SickLeave, EmergencyLeave, UnpaidLeave:
		return lt, true
	}
	return "", false
}

// OffDayLabel notes and display value of an off-day
const OffDayLabel = "OFF-DAY"

// AbsenceSlot natural-key slot shared by leave and off-day records
const AbsenceSlot = "absence"

// DayKind Work(ShiftType) | Leave(LeaveType) | OffDay
type DayKind struct {
	Kind  Kind
	Shift ShiftType
	Leave LeaveType
}

// Work a worked shift
func Work(s ShiftType) DayKind { return DayKind{Kind: KindWork, Shift: s} }

// Leave a leave day of the given type
func Leave(l LeaveType) DayKind { return DayKind{Kind: KindLeave, Leave: l} }

// OffDay a scheduled day off
func OffDay() DayKind { return DayKind{Kind: KindOffDay} }

// IsAbsence leave or off-day
func (k DayKind) IsAbsence() bool { return k.Kind == KindLeave || k.Kind == KindOffDay }

// Slot the natural-key slot: the shift type for work, "absence" otherwise
func (k DayKind) Slot() string {
	if k.IsAbsence() {
		return AbsenceSlot
	}
	return string(k.Shift)
}

// Label human label used for notes and display of absence days
func (k DayKind) Label() string {
	switch k.Kind {
	case KindOffDay:
		return OffDayLabel
	case KindLeave:
		return strings.ToUpper(string(k.Leave)) + "-LEAVE"
	}
	return ""
}

var (
	standardLeaveCredit = decimal.NewFromInt(9)
	zeroHours           = decimal.Zero
)

// Credit fixed hours of an absence day: 9.0 for paid leave, 0 for unpaid
// leave and off-days. Work days have no fixed credit.
func (k DayKind) Credit() (decimal.Decimal, bool) {
	switch k.Kind {
	case KindOffDay:
		return zeroHours, true
	case KindLeave:
		if k.Leave == UnpaidLeave {
			return zeroHours, true
		}
		return standardLeaveCredit, true
	}
	return decimal.Decimal{}, false
}

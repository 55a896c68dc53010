package dto

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/CentZek/newesthr-sub000/internal/attendance"
)

// DateLayout wire format of calendar dates
const DateLayout = "2006-01-02"

// RegisterValidators adds the domain tags to gin's validator:
//
//	shift_type  morning | evening | night | canteen_early | canteen_late | custom
//	leave_type  annual | sick | emergency | unpaid (with or without "-leave")
//	direction   check_in | check_out
//	hhmm        24h clock time
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return registerOn(v)
}

func registerOn(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"shift_type": func(fl validator.FieldLevel) bool {
			_, ok := attendance.ParseShiftType(fl.Field().String())
			return ok
		},
		"leave_type": func(fl validator.FieldLevel) bool {
			_, ok := attendance.ParseLeaveType(fl.Field().String())
			return ok
		},
		"direction": func(fl validator.FieldLevel) bool {
			_, ok := attendance.ParseDirection(fl.Field().String())
			return ok
		},
		"hhmm": func(fl validator.FieldLevel) bool {
			_, err := time.Parse("15:04", fl.Field().String())
			return err == nil
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// ParseDate parses a DateLayout string as UTC midnight
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

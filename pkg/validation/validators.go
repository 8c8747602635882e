package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Regex patterns
var (
	// Optional +country code (1-3 digits), separators (space . - parentheses),
	// 3-3-4 digit grouping and an optional "x1234" extension
	phoneRegex = regexp.MustCompile(`^\s*(?:\+?(\d{1,3}))?[-. (]*(\d{3})[-. )]*(\d{3})[-. ]*(\d{4})(?: *x(\d+))?\s*$`)

	// local@domain.tld without a second @. \s is ASCII-only in RE2, so
	// vertical tab, Unicode separators and the BOM are excluded explicitly.
	emailRegex = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)
)

// DateLayouts are the accepted date input formats, tried in order.
// The first one is what an HTML date input sends.
var DateLayouts = []string{"2006-01-02", "2006-01", "01/2006"}

// User-facing messages. These strings are rendered next to the field and
// joined into the submit alert, so keep them stable.
const (
	MsgPhoneDigits      = "Phone number must be 10 digits"
	MsgInvalidEmail     = "Invalid email"
	MsgFieldRequired    = "This field is required."
	MsgDateInFuture     = "Date cannot be in the future."
	MsgDateFormat       = "Date must be in YYYY-MM-DD format."
	MsgJobTitleRequired = "Job title is required."
	MsgCompanyRequired  = "Company name is required."
	MsgBothDatesNeeded  = "Both start and end dates are required."
	MsgDateOrder        = "Start date must be before or the same as the end date."
	MsgResumeRequired   = "Resume is required"
)

// ErrUnknownField is returned when a field name is not one the validators know.
var ErrUnknownField = errors.New("unknown field")

// RegisterValidators registers the form's custom validators to the validator instance.
// now is the clock used by not_future_date; nil means time.Now.
func RegisterValidators(v *validator.Validate, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	_ = v.RegisterValidation("applicant_phone", ApplicantPhone)
	_ = v.RegisterValidation("applicant_email", ApplicantEmail)
	_ = v.RegisterValidation("calendar_date", CalendarDate)
	_ = v.RegisterValidation("not_future_date", notFutureDate(now))
	_ = v.RegisterValidation("date_gte", DateOnOrAfter)
}

// ApplicantPhone validates a 10-digit phone number with optional country code,
// separators and extension. Empty values fail.
func ApplicantPhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

// ApplicantEmail validates the basic local@domain.tld shape. Empty values fail.
func ApplicantEmail(fl validator.FieldLevel) bool {
	return emailRegex.MatchString(fl.Field().String())
}

// CalendarDate validates that the value parses with one of DateLayouts
func CalendarDate(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true // Use required if needed
	}
	_, ok := ParseDate(val)
	return ok
}

// notFutureDate rejects dates after now. Unparseable values are left to calendar_date.
func notFutureDate(now func() time.Time) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, ok := ParseDate(fl.Field().String())
		if !ok {
			return true
		}
		return !d.After(now())
	}
}

// DateOnOrAfter validates that the field's date is not before the date held by the
// sibling field named in the tag param (e.g. date_gte=StartDate).
func DateOnOrAfter(fl validator.FieldLevel) bool {
	sibling := fl.Parent()
	if sibling.Kind() == reflect.Ptr {
		sibling = sibling.Elem()
	}
	other := sibling.FieldByName(fl.Param())
	if !other.IsValid() || other.Kind() != reflect.String {
		return false
	}

	end, okEnd := ParseDate(fl.Field().String())
	start, okStart := ParseDate(other.String())
	if !okEnd || !okStart {
		return true // format errors are reported by calendar_date
	}
	return !start.After(end)
}

// ParseDate parses s with the first matching layout in DateLayouts, in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

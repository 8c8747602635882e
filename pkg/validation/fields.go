package validation

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Top-level applicant field names, in declaration order
const (
	FieldFirstname   = "firstname"
	FieldLastname    = "lastname"
	FieldEmail       = "email"
	FieldPhoneNumber = "phoneNumber"
)

// ProfileFields lists the required top-level fields in declaration order.
var ProfileFields = []string{FieldFirstname, FieldLastname, FieldEmail, FieldPhoneNumber}

// workPeriod carries both work dates so date_gte can read the sibling field
type workPeriod struct {
	StartDate string `validate:"required,calendar_date"`
	EndDate   string `validate:"required,calendar_date,date_gte=StartDate"`
}

// FieldValidator runs the per-field rules of the application form.
// Every method returns the normalized value and an error message; an empty
// message means the value is valid.
type FieldValidator struct {
	validate *validator.Validate
}

// NewFieldValidator creates a validator instance with the form's custom tags registered.
func NewFieldValidator(now func() time.Time) *FieldValidator {
	v := validator.New()
	RegisterValidators(v, now)
	return &FieldValidator{validate: v}
}

// Profile validates one of the top-level applicant fields by name.
func (f *FieldValidator) Profile(field, raw string) (string, string, error) {
	switch field {
	case FieldFirstname, FieldLastname:
		value, msg := f.Name(field, raw)
		return value, msg, nil
	case FieldPhoneNumber:
		value, msg := f.Phone(raw)
		return value, msg, nil
	case FieldEmail:
		value, msg := f.Email(raw)
		return value, msg, nil
	default:
		return raw, "", ErrUnknownField
	}
}

// Name trims the value and reports "<Field> is required" when nothing is left.
func (f *FieldValidator) Name(field, raw string) (string, string) {
	value := strings.TrimSpace(raw)
	return value, f.Required(value, capitalize(field)+" is required")
}

// Phone trims the value and checks the 10-digit phone pattern.
func (f *FieldValidator) Phone(raw string) (string, string) {
	value := strings.TrimSpace(raw)
	if err := f.validate.Var(value, "applicant_phone"); err != nil {
		return value, MsgPhoneDigits
	}
	return value, ""
}

// Email checks the local@domain.tld shape. The value is not trimmed: surrounding
// whitespace is a format error, same as embedded whitespace.
func (f *FieldValidator) Email(raw string) (string, string) {
	if err := f.validate.Var(raw, "applicant_email"); err != nil {
		return raw, MsgInvalidEmail
	}
	return raw, ""
}

// Required returns msg when value is empty after trimming.
func (f *FieldValidator) Required(value, msg string) string {
	if err := f.validate.Var(strings.TrimSpace(value), "required"); err != nil {
		return msg
	}
	return ""
}

// GradDate requires a parseable date that is not in the future.
func (f *FieldValidator) GradDate(raw string) string {
	err := f.validate.Var(strings.TrimSpace(raw), "required,calendar_date,not_future_date")
	return dateMessage(err)
}

// WorkDates checks that both dates are present and in chronological order.
// Equal dates are valid.
func (f *FieldValidator) WorkDates(start, end string) string {
	err := f.validate.Struct(workPeriod{
		StartDate: strings.TrimSpace(start),
		EndDate:   strings.TrimSpace(end),
	})
	if err == nil {
		return ""
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return MsgDateFormat
	}
	// required wins over format, format over ordering
	msg := ""
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			return MsgBothDatesNeeded
		case "calendar_date":
			msg = MsgDateFormat
		case "date_gte":
			if msg == "" {
				msg = MsgDateOrder
			}
		}
	}
	return msg
}

func dateMessage(err error) string {
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return MsgDateFormat
	}
	switch verrs[0].Tag() {
	case "required":
		return MsgFieldRequired
	case "not_future_date":
		return MsgDateInFuture
	default:
		return MsgDateFormat
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

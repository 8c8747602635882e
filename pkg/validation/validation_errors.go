package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps request struct field names to user-friendly labels
var FieldLabels = map[string]string{
	// Field events
	"Field": "Field",
	"Value": "Value",
	"Event": "Event",

	// Applicant profile
	"Firstname":   "First name",
	"Lastname":    "Last name",
	"Email":       "Email Address",
	"PhoneNumber": "Mobile Phone Number",

	// Address
	"Street": "Street",
	"City":   "City",
	"Zip":    "Zip Code",
	"State":  "State",

	// Education
	"SchoolType": "Education Type",
	"SchoolName": "School Name",
	"GradDate":   "Graduation Date",
	"Degree":     "Degree Collected",

	// Work experience
	"JobTitle":    "Job Title",
	"CompanyName": "Company Name",
	"Location":    "Location",
	"StartDate":   "Start Date",
	"EndDate":     "End Date",
	"Duties":      "Duties Performed",

	// Demographics
	"Race":            "Race",
	"Gender":          "Gender",
	"WillingToTravel": "Willing to travel",
}

// FormatValidationErrors converts validator.ValidationErrors to user-friendly messages
func FormatValidationErrors(err error) []string {
	var messages []string

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		// Not a validation error, return generic message
		return []string{err.Error()}
	}

	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}

	return messages
}

// formatSingleError formats a single validation error to a user-friendly message
func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.Field())
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: is required", label)

	case "max":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s: at most %s characters", label, param)
		}
		return fmt.Sprintf("%s: at most %s", label, param)

	case "len":
		return fmt.Sprintf("%s: must be exactly %s characters", label, param)

	case "oneof":
		return fmt.Sprintf("%s: must be one of: %s", label, formatOneOfOptions(param))

	case "applicant_phone":
		return fmt.Sprintf("%s: %s", label, MsgPhoneDigits)

	case "applicant_email":
		return fmt.Sprintf("%s: %s", label, MsgInvalidEmail)

	case "calendar_date":
		return fmt.Sprintf("%s: %s", label, MsgDateFormat)

	default:
		// Fallback for unknown tags
		return fmt.Sprintf("%s: validation failed (%s)", label, e.Tag())
	}
}

// getFieldLabel returns the user-friendly label for a field
func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return formatCamelCase(fieldName)
}

// formatCamelCase converts CamelCase to spaced words
func formatCamelCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune(' ')
		}
		result.WriteRune(r)
	}
	return result.String()
}

// formatOneOfOptions formats oneof options for display
func formatOneOfOptions(param string) string {
	options := strings.Fields(param)
	formatted := make([]string, 0, len(options))
	for _, opt := range options {
		formatted = append(formatted, strings.Trim(opt, "'"))
	}
	return strings.Join(formatted, ", ")
}

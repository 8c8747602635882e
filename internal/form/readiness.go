package form

import (
	"context"
	"fmt"
	"strings"

	"go-application-form/internal/domain"
	"go-application-form/pkg/validation"
)

// Messages shown by the submit action
const (
	MsgSubmitted     = "Your application has been submitted"
	MsgFillRequired  = "Please fill out all required fields."
	msgFixErrorsHead = "Please fix the following errors:"
)

// BlockedError is returned by Submit when the readiness check fails.
type BlockedError struct {
	Messages []string
}

func (e *BlockedError) Error() string {
	return e.Summary()
}

// Summary is the single consolidated message for the submit alert.
func (e *BlockedError) Summary() string {
	if len(e.Messages) == 0 {
		return MsgFillRequired
	}
	return msgFixErrorsHead + "\n" + strings.Join(e.Messages, "\n")
}

// HasErrors is the readiness check: true means the form must not be submitted.
// It reports a non-empty top-level error, a non-empty entry error record, an
// empty required profile field, or a missing resume. It has no side effects.
func (f *Form) HasErrors() bool {
	for _, msg := range f.state.Errors.Fields {
		if msg != "" {
			return true
		}
	}
	if hasEntryErrors(f.state.Errors.Education) || hasEntryErrors(f.state.Errors.WorkExperience) {
		return true
	}
	for _, field := range validation.ProfileFields {
		if strings.TrimSpace(f.profileValue(field)) == "" {
			return true
		}
	}
	return f.state.Resume == nil
}

// ErrorMessages lists the active errors for the submit alert: profile fields in
// declaration order, education records, the resume, then work-experience
// records, each section in entry order.
func (f *Form) ErrorMessages() []string {
	var messages []string
	for _, field := range validation.ProfileFields {
		if msg := f.state.Errors.Fields[field]; msg != "" {
			messages = append(messages, msg)
		}
	}
	for _, e := range f.educationRecords() {
		messages = append(messages, e.Message)
	}
	if msg := f.state.Errors.Fields[FieldResume]; msg != "" {
		messages = append(messages, msg)
	}
	for _, e := range f.workRecords() {
		messages = append(messages, fmt.Sprintf("Work Experience #%d: %s", e.EntryID, e.Message))
	}
	return messages
}

// View is the snapshot handed to the rendering layer.
func (f *Form) View() domain.FormView {
	s := f.State()
	return domain.FormView{
		ID:             s.ID,
		Profile:        s.Profile,
		Address:        s.Address,
		Education:      s.Education,
		WorkExperience: s.WorkExperience,
		Resume:         s.Resume,
		Documents:      s.Documents,
		Demographics:   s.Demographics,
		Errors: domain.ErrorView{
			Fields:         s.Errors.Fields,
			Education:      f.educationRecords(),
			WorkExperience: f.workRecords(),
		},
		Blocked:   f.HasErrors(),
		UpdatedAt: s.UpdatedAt,
	}
}

// Bundle assembles the data handed to the submission sink.
func (f *Form) Bundle() domain.ApplicationBundle {
	s := f.State()
	b := domain.ApplicationBundle{
		FormID:         s.ID,
		Profile:        s.Profile,
		Address:        s.Address,
		Education:      s.Education,
		WorkExperience: s.WorkExperience,
		Documents:      s.Documents,
		Demographics:   s.Demographics,
		SubmittedAt:    f.now(),
	}
	if s.Resume != nil {
		b.Resume = *s.Resume
	}
	return b
}

// Submit runs the gate. A blocked form returns *BlockedError and the sink is not
// called. On success the form is left as is.
func (f *Form) Submit(ctx context.Context, sink domain.SubmissionSink) error {
	f.checkPendingEmail()
	if f.HasErrors() {
		return &BlockedError{Messages: f.ErrorMessages()}
	}
	if err := sink.Submit(ctx, f.Bundle()); err != nil {
		return fmt.Errorf("submit application %s: %w", f.state.ID, err)
	}
	return nil
}

// checkPendingEmail validates an email that was changed but never blurred.
// An empty email is left to the required-field check.
func (f *Form) checkPendingEmail() {
	email := f.state.Profile.Email
	if email == "" || f.state.Errors.Fields[validation.FieldEmail] != "" {
		return
	}
	if _, msg := f.fields.Email(email); msg != "" {
		f.setFieldError(validation.FieldEmail, msg)
		f.touch()
	}
}

func (f *Form) profileValue(field string) string {
	switch field {
	case validation.FieldFirstname:
		return f.state.Profile.Firstname
	case validation.FieldLastname:
		return f.state.Profile.Lastname
	case validation.FieldEmail:
		return f.state.Profile.Email
	case validation.FieldPhoneNumber:
		return f.state.Profile.PhoneNumber
	}
	return ""
}

func (f *Form) educationRecords() []domain.EntryError {
	records := []domain.EntryError{}
	for _, entry := range f.state.Education {
		records = appendRecords(records, f.state.Errors.Education[entry.ID], educationRules)
	}
	return records
}

func (f *Form) workRecords() []domain.EntryError {
	records := []domain.EntryError{}
	for _, entry := range f.state.WorkExperience {
		records = appendRecords(records, f.state.Errors.WorkExperience[entry.ID], workRules)
	}
	return records
}

func appendRecords(records []domain.EntryError, errs domain.EntryErrors, rules []string) []domain.EntryError {
	for _, rule := range rules {
		if e, ok := errs[rule]; ok && e.Message != "" {
			records = append(records, e)
		}
	}
	return records
}

func hasEntryErrors(m map[int]domain.EntryErrors) bool {
	for _, errs := range m {
		for _, e := range errs {
			if e.Message != "" {
				return true
			}
		}
	}
	return false
}

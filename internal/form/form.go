// Package form implements the application form's validation engine: top-level
// field rules, the education and work-experience entry managers, and the
// readiness gate that decides whether the form may be submitted.
//
// A Form is a plain state object mutated synchronously by one event at a time.
// It is not safe for concurrent use; callers serialize access per form.
package form

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-application-form/internal/domain"
	"go-application-form/pkg/validation"
)

// FieldResume is the error key of the resume slot
const FieldResume = "resume"

var (
	ErrUnknownField  = validation.ErrUnknownField
	ErrEntryNotFound = errors.New("entry not found")
	ErrInvalidOption = errors.New("invalid option")
)

var (
	raceOptions   = optionSet("White", "Black", "Native Indian", "Hawaiian", "Hispanic", "Asian", "Multiple", "Decline")
	genderOptions = optionSet("male", "female", "other", "Decline")
	travelOptions = optionSet("yes", "no")
)

type Form struct {
	state  domain.FormState
	fields *validation.FieldValidator
	now    func() time.Time
}

type Option func(*Form)

// WithClock sets the clock used for timestamps and the graduation-date rule.
func WithClock(now func() time.Time) Option {
	return func(f *Form) { f.now = now }
}

// WithFieldValidator shares one validator across forms.
func WithFieldValidator(fv *validation.FieldValidator) Option {
	return func(f *Form) { f.fields = fv }
}

func newForm(opts []Option) *Form {
	f := &Form{now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	if f.fields == nil {
		f.fields = validation.NewFieldValidator(f.now)
	}
	return f
}

// New starts an empty form with one blank education entry and one blank
// work-experience entry.
func New(id string, opts ...Option) *Form {
	f := newForm(opts)
	now := f.now()
	f.state = domain.FormState{
		ID:             id,
		Education:      []domain.EducationEntry{{ID: 1}},
		WorkExperience: []domain.WorkExperienceEntry{{ID: 1}},
		Documents:      []domain.FileRef{},
		Errors:         newErrorState(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return f
}

// Restore wraps previously saved state. The state is copied.
func Restore(state domain.FormState, opts ...Option) *Form {
	f := newForm(opts)
	f.state = cloneState(state)
	return f
}

// State returns a deep copy of the current state.
func (f *Form) State() domain.FormState {
	return cloneState(f.state)
}

// ID returns the form id
func (f *Form) ID() string {
	return f.state.ID
}

// ChangeField handles an input change on a top-level field. firstname, lastname
// and phoneNumber are normalized and validated on every change; email is only
// stored and waits for BlurField.
func (f *Form) ChangeField(field, raw string) error {
	if field == validation.FieldEmail {
		f.state.Profile.Email = raw
		f.touch()
		return nil
	}
	return f.applyProfileField(field, raw)
}

// BlurField handles loss of focus on a top-level field and validates it.
func (f *Form) BlurField(field, raw string) error {
	return f.applyProfileField(field, raw)
}

func (f *Form) applyProfileField(field, raw string) error {
	value, msg, err := f.fields.Profile(field, raw)
	if err != nil {
		return fmt.Errorf("%w: %q", err, field)
	}

	switch field {
	case validation.FieldFirstname:
		f.state.Profile.Firstname = value
	case validation.FieldLastname:
		f.state.Profile.Lastname = value
	case validation.FieldEmail:
		f.state.Profile.Email = value
	case validation.FieldPhoneNumber:
		f.state.Profile.PhoneNumber = value
	}
	f.setFieldError(field, msg)
	f.touch()
	return nil
}

// SetAddress replaces the mailing address. The address has no rules.
func (f *Form) SetAddress(a domain.Address) {
	f.state.Address = domain.Address{
		Street: strings.TrimSpace(a.Street),
		City:   strings.TrimSpace(a.City),
		Zip:    strings.TrimSpace(a.Zip),
		State:  strings.ToUpper(strings.TrimSpace(a.State)),
	}
	f.touch()
}

// SetDemographics replaces the self-identification answers. Values outside the
// option lists are rejected and leave the state unchanged.
func (f *Form) SetDemographics(d domain.Demographics) error {
	if !allowed(raceOptions, d.Race) {
		return fmt.Errorf("%w: race %q", ErrInvalidOption, d.Race)
	}
	if !allowed(genderOptions, d.Gender) {
		return fmt.Errorf("%w: gender %q", ErrInvalidOption, d.Gender)
	}
	if !allowed(travelOptions, d.WillingToTravel) {
		return fmt.Errorf("%w: willingToTravel %q", ErrInvalidOption, d.WillingToTravel)
	}
	f.state.Demographics = d
	f.touch()
	return nil
}

// AttachResume sets the resume slot. A nil or unnamed reference counts as removal.
func (f *Form) AttachResume(ref *domain.FileRef) {
	if ref == nil || ref.Name == "" {
		f.RemoveResume()
		return
	}
	r := *ref
	f.state.Resume = &r
	f.setFieldError(FieldResume, "")
	f.touch()
}

// RemoveResume clears the resume slot and flags it as required.
func (f *Form) RemoveResume() {
	f.RejectResume(validation.MsgResumeRequired)
}

// RejectResume clears the resume slot with a specific error, e.g. an unsupported file type.
func (f *Form) RejectResume(msg string) {
	f.state.Resume = nil
	f.setFieldError(FieldResume, msg)
	f.touch()
}

// AddDocuments appends supplementary documents. They are never validated here.
func (f *Form) AddDocuments(refs ...domain.FileRef) {
	f.state.Documents = append(f.state.Documents, refs...)
	f.touch()
}

// ClearDocuments drops all supplementary documents.
func (f *Form) ClearDocuments() {
	f.state.Documents = []domain.FileRef{}
	f.touch()
}

func (f *Form) setFieldError(field, msg string) {
	if msg == "" {
		delete(f.state.Errors.Fields, field)
		return
	}
	f.state.Errors.Fields[field] = msg
}

func (f *Form) touch() {
	f.state.UpdatedAt = f.now()
}

func newErrorState() domain.ErrorState {
	return domain.ErrorState{
		Fields:         map[string]string{},
		Education:      map[int]domain.EntryErrors{},
		WorkExperience: map[int]domain.EntryErrors{},
	}
}

func optionSet(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// allowed accepts the empty "Please Select" value and any listed option
func allowed(set map[string]bool, v string) bool {
	return v == "" || set[v]
}

func cloneState(s domain.FormState) domain.FormState {
	out := s
	out.Education = append([]domain.EducationEntry{}, s.Education...)
	out.WorkExperience = append([]domain.WorkExperienceEntry{}, s.WorkExperience...)
	out.Documents = append([]domain.FileRef{}, s.Documents...)
	if s.Resume != nil {
		r := *s.Resume
		out.Resume = &r
	}

	out.Errors = newErrorState()
	for k, v := range s.Errors.Fields {
		out.Errors.Fields[k] = v
	}
	copyEntryErrors(out.Errors.Education, s.Errors.Education)
	copyEntryErrors(out.Errors.WorkExperience, s.Errors.WorkExperience)
	return out
}

func copyEntryErrors(dst, src map[int]domain.EntryErrors) {
	for id, errs := range src {
		c := make(domain.EntryErrors, len(errs))
		for rule, e := range errs {
			c[rule] = e
		}
		dst[id] = c
	}
}

// setEntryError replaces the record of one rule on one entry. Other rules and
// other entries are untouched.
func setEntryError(m map[int]domain.EntryErrors, entryID int, rule, field, msg string) {
	if msg == "" {
		if errs, ok := m[entryID]; ok {
			delete(errs, rule)
			if len(errs) == 0 {
				delete(m, entryID)
			}
		}
		return
	}
	errs, ok := m[entryID]
	if !ok {
		errs = domain.EntryErrors{}
		m[entryID] = errs
	}
	errs[rule] = domain.EntryError{EntryID: entryID, Field: field, Message: msg}
}

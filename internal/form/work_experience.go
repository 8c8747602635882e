package form

import (
	"fmt"
	"strings"

	"go-application-form/internal/domain"
	"go-application-form/pkg/validation"
)

// Work experience entry field names
const (
	WorkJobTitle    = "jobTitle"
	WorkCompanyName = "companyName"
	WorkLocation    = "location"
	WorkStartDate   = "startDate"
	WorkEndDate     = "endDate"
	WorkDuties      = "duties"
)

// ruleDates is shared by startDate and endDate edits
const ruleDates = "dates"

var workRules = []string{WorkJobTitle, WorkCompanyName, ruleDates}

// AddWorkExperience appends a blank entry and returns its id.
func (f *Form) AddWorkExperience() int {
	ids := make([]int, len(f.state.WorkExperience))
	for i, e := range f.state.WorkExperience {
		ids[i] = e.ID
	}
	id := nextID(ids)
	f.state.WorkExperience = append(f.state.WorkExperience, domain.WorkExperienceEntry{ID: id})
	f.touch()
	return id
}

// RemoveWorkExperience deletes the entry and its error records so no dangling
// errors keep blocking the form. Unknown ids are a no-op.
func (f *Form) RemoveWorkExperience(id int) bool {
	idx := f.workIndex(id)
	if idx < 0 {
		return false
	}
	f.state.WorkExperience = append(f.state.WorkExperience[:idx:idx], f.state.WorkExperience[idx+1:]...)
	delete(f.state.Errors.WorkExperience, id)
	f.touch()
	return true
}

// UpdateWorkExperience trims and stores one field of one entry, then re-runs
// only the rule that field feeds. Date edits are checked against the sibling
// date as it was before this edit, i.e. the merged post-update entry.
// location and duties have no rules and leave the error records alone.
func (f *Form) UpdateWorkExperience(id int, field, value string) error {
	idx := f.workIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: work experience #%d", ErrEntryNotFound, id)
	}

	prev := f.state.WorkExperience[idx]
	next := prev
	value = strings.TrimSpace(value)

	var rule, msg string
	switch field {
	case WorkJobTitle:
		next.JobTitle = value
		rule, msg = WorkJobTitle, f.fields.Required(value, validation.MsgJobTitleRequired)
	case WorkCompanyName:
		next.CompanyName = value
		rule, msg = WorkCompanyName, f.fields.Required(value, validation.MsgCompanyRequired)
	case WorkLocation:
		next.Location = value
	case WorkStartDate:
		next.StartDate = value
		rule, msg = ruleDates, f.fields.WorkDates(value, prev.EndDate)
	case WorkEndDate:
		next.EndDate = value
		rule, msg = ruleDates, f.fields.WorkDates(prev.StartDate, value)
	case WorkDuties:
		next.Duties = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	f.state.WorkExperience[idx] = next
	if rule != "" {
		setEntryError(f.state.Errors.WorkExperience, id, rule, field, msg)
	}
	f.touch()
	return nil
}

// WorkExperience returns a copy of the work-experience entries in display order
func (f *Form) WorkExperience() []domain.WorkExperienceEntry {
	return append([]domain.WorkExperienceEntry{}, f.state.WorkExperience...)
}

func (f *Form) workIndex(id int) int {
	for i, e := range f.state.WorkExperience {
		if e.ID == id {
			return i
		}
	}
	return -1
}

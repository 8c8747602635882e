package form

import (
	"fmt"

	"go-application-form/internal/domain"
)

// Education entry field names
const (
	EducationSchoolType = "schoolType"
	EducationSchoolName = "schoolName"
	EducationState      = "state"
	EducationGradDate   = "gradDate"
	EducationDegree     = "degree"
)

var educationRules = []string{EducationGradDate}

var (
	schoolTypes = optionSet(
		string(domain.SchoolTypeHighSchool),
		string(domain.SchoolTypeUndergraduate),
		string(domain.SchoolTypeGraduate),
		string(domain.SchoolTypeDoctorate),
	)
	degrees = optionSet(
		string(domain.DegreeDiploma),
		string(domain.DegreeBachelors),
		string(domain.DegreeMasters),
		string(domain.DegreeDoctoral),
	)
)

// AddEducation appends a blank entry and returns its id.
func (f *Form) AddEducation() int {
	ids := make([]int, len(f.state.Education))
	for i, e := range f.state.Education {
		ids[i] = e.ID
	}
	id := nextID(ids)
	f.state.Education = append(f.state.Education, domain.EducationEntry{ID: id})
	f.touch()
	return id
}

// RemoveEducation deletes the entry and its error records. Unknown ids are a no-op.
func (f *Form) RemoveEducation(id int) bool {
	idx := f.educationIndex(id)
	if idx < 0 {
		return false
	}
	f.state.Education = append(f.state.Education[:idx:idx], f.state.Education[idx+1:]...)
	delete(f.state.Errors.Education, id)
	f.touch()
	return true
}

// UpdateEducation replaces one field of one entry. Editing the graduation date
// re-validates it; the record is prefixed with the entry it belongs to.
func (f *Form) UpdateEducation(id int, field, value string) error {
	idx := f.educationIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: education #%d", ErrEntryNotFound, id)
	}

	entry := f.state.Education[idx]
	switch field {
	case EducationSchoolType:
		if !allowed(schoolTypes, value) {
			return fmt.Errorf("%w: schoolType %q", ErrInvalidOption, value)
		}
		entry.SchoolType = domain.SchoolType(value)
	case EducationSchoolName:
		entry.SchoolName = value
	case EducationState:
		entry.State = value
	case EducationGradDate:
		entry.GradDate = value
	case EducationDegree:
		if !allowed(degrees, value) {
			return fmt.Errorf("%w: degree %q", ErrInvalidOption, value)
		}
		entry.Degree = domain.Degree(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	f.state.Education[idx] = entry

	if field == EducationGradDate {
		msg := f.fields.GradDate(value)
		if msg != "" {
			msg = fmt.Sprintf("Education #%d: %s", id, msg)
		}
		setEntryError(f.state.Errors.Education, id, EducationGradDate, field, msg)
	}
	f.touch()
	return nil
}

// Education returns a copy of the education entries in display order
func (f *Form) Education() []domain.EducationEntry {
	return append([]domain.EducationEntry{}, f.state.Education...)
}

func (f *Form) educationIndex(id int) int {
	for i, e := range f.state.Education {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// nextID is one past the highest live id. With no removals this equals
// count+1; it never collides with a live entry.
func nextID(ids []int) int {
	highest := 0
	for _, id := range ids {
		if id > highest {
			highest = id
		}
	}
	return highest + 1
}

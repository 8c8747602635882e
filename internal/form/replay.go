package form

import (
	"go-application-form/internal/domain"
	"go-application-form/pkg/validation"
)

// Replay builds a form from a complete application document as if a user had
// typed every value: profile fields are blurred, every field of every entry is
// updated in display order, and the resume is attached (or flagged missing).
// An empty section in the document removes the initial blank entry.
func Replay(id string, doc domain.ApplicationDocument, opts ...Option) (*Form, error) {
	f := New(id, opts...)

	profile := map[string]string{
		validation.FieldFirstname:   doc.Profile.Firstname,
		validation.FieldLastname:    doc.Profile.Lastname,
		validation.FieldEmail:       doc.Profile.Email,
		validation.FieldPhoneNumber: doc.Profile.PhoneNumber,
	}
	for _, field := range validation.ProfileFields {
		if err := f.BlurField(field, profile[field]); err != nil {
			return nil, err
		}
	}

	f.SetAddress(doc.Address)
	if err := f.SetDemographics(doc.Demographics); err != nil {
		return nil, err
	}

	if len(doc.Education) == 0 {
		f.RemoveEducation(1)
	}
	for i, entry := range doc.Education {
		entryID := 1
		if i > 0 {
			entryID = f.AddEducation()
		}
		updates := [][2]string{
			{EducationSchoolType, string(entry.SchoolType)},
			{EducationSchoolName, entry.SchoolName},
			{EducationState, entry.State},
			{EducationGradDate, entry.GradDate},
			{EducationDegree, string(entry.Degree)},
		}
		for _, u := range updates {
			if err := f.UpdateEducation(entryID, u[0], u[1]); err != nil {
				return nil, err
			}
		}
	}

	if len(doc.WorkExperience) == 0 {
		f.RemoveWorkExperience(1)
	}
	for i, entry := range doc.WorkExperience {
		entryID := 1
		if i > 0 {
			entryID = f.AddWorkExperience()
		}
		updates := [][2]string{
			{WorkJobTitle, entry.JobTitle},
			{WorkCompanyName, entry.CompanyName},
			{WorkLocation, entry.Location},
			{WorkStartDate, entry.StartDate},
			{WorkEndDate, entry.EndDate},
			{WorkDuties, entry.Duties},
		}
		for _, u := range updates {
			if err := f.UpdateWorkExperience(entryID, u[0], u[1]); err != nil {
				return nil, err
			}
		}
	}

	f.AttachResume(doc.Resume)
	if len(doc.Documents) > 0 {
		f.AddDocuments(doc.Documents...)
	}
	return f, nil
}

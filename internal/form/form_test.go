package form_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-application-form/internal/domain"
	"go-application-form/internal/form"
	"go-application-form/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Submit(ctx context.Context, bundle domain.ApplicationBundle) error {
	return m.Called(ctx, bundle).Error(0)
}

func fixedClock() time.Time {
	return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func newForm() *form.Form {
	return form.New("form-1", form.WithClock(fixedClock))
}

func resume() *domain.FileRef {
	return &domain.FileRef{Name: "resume.pdf", Size: 2048, ContentType: "application/pdf"}
}

// fillTylerDurden builds the submittable form used by several tests
func fillTylerDurden(t *testing.T, f *form.Form) {
	t.Helper()
	require.NoError(t, f.ChangeField("firstname", "Tyler"))
	require.NoError(t, f.ChangeField("lastname", "Durden"))
	require.NoError(t, f.ChangeField("email", "t@d.com"))
	require.NoError(t, f.BlurField("email", "t@d.com"))
	require.NoError(t, f.ChangeField("phoneNumber", "(302) 555-0100"))
	require.NoError(t, f.UpdateEducation(1, "gradDate", "2015-05-20"))
	require.NoError(t, f.UpdateWorkExperience(1, "startDate", "2020-01-01"))
	require.NoError(t, f.UpdateWorkExperience(1, "endDate", "2021-01-01"))
	f.AttachResume(resume())
}

func TestNewForm(t *testing.T) {
	f := newForm()
	s := f.State()

	assert.Equal(t, "form-1", s.ID)
	assert.Equal(t, []domain.EducationEntry{{ID: 1}}, s.Education)
	assert.Equal(t, []domain.WorkExperienceEntry{{ID: 1}}, s.WorkExperience)
	assert.Empty(t, s.Errors.Fields)
	assert.True(t, f.HasErrors(), "fresh form must be blocked")
}

func TestProfileFields(t *testing.T) {
	t.Run("Names are trimmed and required on change", func(t *testing.T) {
		f := newForm()
		require.NoError(t, f.ChangeField("firstname", "  Tyler "))
		assert.Equal(t, "Tyler", f.State().Profile.Firstname)
		assert.NotContains(t, f.State().Errors.Fields, "firstname")

		require.NoError(t, f.ChangeField("firstname", "   "))
		assert.Equal(t, "Firstname is required", f.State().Errors.Fields["firstname"])
	})

	t.Run("Email is validated on blur only", func(t *testing.T) {
		f := newForm()
		require.NoError(t, f.ChangeField("email", "not-an-email"))
		assert.Equal(t, "not-an-email", f.State().Profile.Email)
		assert.NotContains(t, f.State().Errors.Fields, "email")

		require.NoError(t, f.BlurField("email", "not-an-email"))
		assert.Equal(t, "Invalid email", f.State().Errors.Fields["email"])

		require.NoError(t, f.BlurField("email", "t@d.com"))
		assert.NotContains(t, f.State().Errors.Fields, "email")
	})

	t.Run("Phone is validated on change", func(t *testing.T) {
		f := newForm()
		require.NoError(t, f.ChangeField("phoneNumber", "555-0100"))
		assert.Equal(t, "Phone number must be 10 digits", f.State().Errors.Fields["phoneNumber"])

		require.NoError(t, f.ChangeField("phoneNumber", " +1 302.555.0100 x42 "))
		assert.Equal(t, "+1 302.555.0100 x42", f.State().Profile.PhoneNumber)
		assert.NotContains(t, f.State().Errors.Fields, "phoneNumber")
	})

	t.Run("Unknown field is rejected without changes", func(t *testing.T) {
		f := newForm()
		before := f.State()
		err := f.ChangeField("resume", "x")
		assert.ErrorIs(t, err, form.ErrUnknownField)
		assert.Equal(t, before, f.State())
	})
}

func TestEducationEntries(t *testing.T) {
	t.Run("Add then remove restores the prior state", func(t *testing.T) {
		f := newForm()
		require.NoError(t, f.UpdateEducation(1, "gradDate", "2030-01-01"))
		before := f.State()

		id := f.AddEducation()
		assert.Equal(t, 2, id)
		assert.Len(t, f.Education(), 2)

		assert.True(t, f.RemoveEducation(id))
		assert.Equal(t, before, f.State())
	})

	t.Run("Ids stay unique after removals", func(t *testing.T) {
		f := newForm()
		second := f.AddEducation()
		assert.True(t, f.RemoveEducation(1))
		third := f.AddEducation()
		assert.Equal(t, 2, second)
		assert.Equal(t, 3, third)
	})

	t.Run("Removing an unknown id is a no-op", func(t *testing.T) {
		f := newForm()
		before := f.State()
		assert.False(t, f.RemoveEducation(42))
		assert.Equal(t, before, f.State())
	})

	t.Run("Graduation date is required and not in the future", func(t *testing.T) {
		f := newForm()
		second := f.AddEducation()

		require.NoError(t, f.UpdateEducation(second, "gradDate", "2031-09-01"))
		view := f.View()
		require.Len(t, view.Errors.Education, 1)
		assert.Equal(t, domain.EntryError{
			EntryID: second,
			Field:   "gradDate",
			Message: "Education #2: Date cannot be in the future.",
		}, view.Errors.Education[0])

		require.NoError(t, f.UpdateEducation(second, "gradDate", ""))
		assert.Equal(t, "Education #2: This field is required.", f.View().Errors.Education[0].Message)

		require.NoError(t, f.UpdateEducation(second, "gradDate", "2019-05-01"))
		assert.Empty(t, f.View().Errors.Education)
		assert.Equal(t, "2019-05-01", f.Education()[1].GradDate)
	})

	t.Run("Other fields replace only the named field", func(t *testing.T) {
		f := newForm()
		f.AddEducation()
		require.NoError(t, f.UpdateEducation(1, "schoolName", "College of Wilmington"))
		require.NoError(t, f.UpdateEducation(1, "schoolType", "undergraduate"))
		require.NoError(t, f.UpdateEducation(1, "degree", "bachelors"))

		entries := f.Education()
		assert.Equal(t, domain.EducationEntry{
			ID:         1,
			SchoolType: domain.SchoolTypeUndergraduate,
			SchoolName: "College of Wilmington",
			Degree:     domain.DegreeBachelors,
		}, entries[0])
		assert.Equal(t, domain.EducationEntry{ID: 2}, entries[1])
	})

	t.Run("Bad input is rejected", func(t *testing.T) {
		f := newForm()
		assert.ErrorIs(t, f.UpdateEducation(9, "schoolName", "x"), form.ErrEntryNotFound)
		assert.ErrorIs(t, f.UpdateEducation(1, "gpa", "4.0"), form.ErrUnknownField)
		assert.ErrorIs(t, f.UpdateEducation(1, "degree", "phd"), form.ErrInvalidOption)
	})

	t.Run("Removing an entry drops its errors", func(t *testing.T) {
		f := newForm()
		require.NoError(t, f.UpdateEducation(1, "gradDate", "2030-01-01"))
		assert.True(t, f.RemoveEducation(1))
		assert.Empty(t, f.State().Errors.Education)
	})
}

func TestWorkExperienceEntries(t *testing.T) {
	t.Run("Start after end errors on that entry only", func(t *testing.T) {
		f := newForm()
		require.NoError(t, f.UpdateWorkExperience(1, "startDate", "2021-01-01"))
		require.NoError(t, f.UpdateWorkExperience(1, "endDate", "2020-01-01"))

		view := f.View()
		require.Len(t, view.Errors.WorkExperience, 1)
		assert.Equal(t, domain.EntryError{
			EntryID: 1,
			Field:   "endDate",
			Message: "Start date must be before or the same as the end date.",
		}, view.Errors.WorkExperience[0])
	})

	t.Run("Fixing the start date clears only that entry", func(t *testing.T) {
		f := newForm()
		second := f.AddWorkExperience()

		require.NoError(t, f.UpdateWorkExperience(1, "startDate", "2020-01-01"))
		require.NoError(t, f.UpdateWorkExperience(1, "endDate", "2021-01-01"))
		require.NoError(t, f.UpdateWorkExperience(second, "jobTitle", "   "))

		require.NoError(t, f.UpdateWorkExperience(1, "startDate", "2022-01-01"))
		records := f.View().Errors.WorkExperience
		require.Len(t, records, 2)
		assert.Equal(t, "Start date must be before or the same as the end date.", records[0].Message)
		assert.Equal(t, "Job title is required.", records[1].Message)

		require.NoError(t, f.UpdateWorkExperience(1, "startDate", "2020-06-01"))
		records = f.View().Errors.WorkExperience
		require.Len(t, records, 1)
		assert.Equal(t, second, records[0].EntryID)
		assert.Equal(t, "Job title is required.", records[0].Message)
	})

	t.Run("Fixing the dates keeps the job title error on the same entry", func(t *testing.T) {
		f := newForm()
		require.NoError(t, f.UpdateWorkExperience(1, "jobTitle", ""))
		require.NoError(t, f.UpdateWorkExperience(1, "startDate", "2021-01-01"))
		require.NoError(t, f.UpdateWorkExperience(1, "endDate", "2020-01-01"))
		require.Len(t, f.View().Errors.WorkExperience, 2)

		require.NoError(t, f.UpdateWorkExperience(1, "startDate", "2019-01-01"))
		records := f.View().Errors.WorkExperience
		require.Len(t, records, 1)
		assert.Equal(t, domain.EntryError{EntryID: 1, Field: "jobTitle", Message: "Job title is required."}, records[0])
		assert.Equal(t, []string{"Work Experience #1: Job title is required."}, f.ErrorMessages())
	})

	t.Run("Missing sibling date is reported", func(t *testing.T) {
		f := newForm()
		require.NoError(t, f.UpdateWorkExperience(1, "startDate", "2020-01-01"))
		assert.Equal(t, "Both start and end dates are required.", f.View().Errors.WorkExperience[0].Message)

		require.NoError(t, f.UpdateWorkExperience(1, "endDate", "2020-01-01"))
		assert.Empty(t, f.View().Errors.WorkExperience)
	})

	t.Run("Required text fields", func(t *testing.T) {
		f := newForm()
		require.NoError(t, f.UpdateWorkExperience(1, "companyName", " "))
		require.NoError(t, f.UpdateWorkExperience(1, "jobTitle", ""))
		messages := f.ErrorMessages()
		assert.Equal(t, []string{
			"Work Experience #1: Job title is required.",
			"Work Experience #1: Company name is required.",
		}, messages)

		require.NoError(t, f.UpdateWorkExperience(1, "jobTitle", " Software Engineer "))
		assert.Equal(t, "Software Engineer", f.WorkExperience()[0].JobTitle)
		assert.Equal(t, []string{"Work Experience #1: Company name is required."}, f.ErrorMessages())
	})

	t.Run("Unvalidated fields keep existing errors", func(t *testing.T) {
		f := newForm()
		require.NoError(t, f.UpdateWorkExperience(1, "startDate", "2021-01-01"))
		require.NoError(t, f.UpdateWorkExperience(1, "endDate", "2020-01-01"))
		require.NoError(t, f.UpdateWorkExperience(1, "duties", "I was responsible for..."))
		require.NoError(t, f.UpdateWorkExperience(1, "location", "New York, NY"))

		assert.Len(t, f.View().Errors.WorkExperience, 1)
		assert.Equal(t, "New York, NY", f.WorkExperience()[0].Location)
	})

	t.Run("Removing an entry drops its errors", func(t *testing.T) {
		f := newForm()
		second := f.AddWorkExperience()
		require.NoError(t, f.UpdateWorkExperience(second, "jobTitle", ""))
		before := f.State()

		third := f.AddWorkExperience()
		require.NoError(t, f.UpdateWorkExperience(third, "companyName", ""))
		assert.True(t, f.RemoveWorkExperience(third))
		assert.Equal(t, before, f.State())

		assert.True(t, f.RemoveWorkExperience(second))
		assert.Empty(t, f.State().Errors.WorkExperience)
		assert.False(t, f.RemoveWorkExperience(second))
	})

	t.Run("Bad input is rejected", func(t *testing.T) {
		f := newForm()
		assert.ErrorIs(t, f.UpdateWorkExperience(5, "jobTitle", "x"), form.ErrEntryNotFound)
		assert.ErrorIs(t, f.UpdateWorkExperience(1, "salary", "x"), form.ErrUnknownField)
	})
}

func TestReadiness(t *testing.T) {
	t.Run("Tyler Durden is submittable until the resume is removed", func(t *testing.T) {
		f := newForm()
		fillTylerDurden(t, f)
		assert.False(t, f.HasErrors())
		assert.False(t, f.View().Blocked)

		f.RemoveResume()
		assert.True(t, f.HasErrors())
		assert.Equal(t, validation.MsgResumeRequired, f.State().Errors.Fields["resume"])
		assert.Equal(t, []string{"Resume is required"}, f.ErrorMessages())

		f.AttachResume(resume())
		assert.False(t, f.HasErrors())
	})

	t.Run("Each required field blocks on its own", func(t *testing.T) {
		for _, field := range validation.ProfileFields {
			f := newForm()
			fillTylerDurden(t, f)
			require.NoError(t, f.ChangeField(field, ""))
			assert.True(t, f.HasErrors(), field)
		}
	})

	t.Run("Outstanding entry error blocks", func(t *testing.T) {
		f := newForm()
		fillTylerDurden(t, f)
		require.NoError(t, f.UpdateWorkExperience(1, "endDate", "2019-01-01"))
		assert.True(t, f.HasErrors())
	})

	t.Run("Check has no side effects", func(t *testing.T) {
		f := newForm()
		before := f.State()
		_ = f.HasErrors()
		_ = f.ErrorMessages()
		assert.Equal(t, before, f.State())
	})

	t.Run("Messages follow declaration then entry order", func(t *testing.T) {
		f := newForm()
		require.NoError(t, f.ChangeField("firstname", ""))
		require.NoError(t, f.ChangeField("phoneNumber", "123"))
		require.NoError(t, f.UpdateEducation(1, "gradDate", "2030-01-01"))
		second := f.AddWorkExperience()
		require.NoError(t, f.UpdateWorkExperience(second, "jobTitle", ""))
		require.NoError(t, f.UpdateWorkExperience(1, "companyName", ""))
		f.RemoveResume()

		assert.Equal(t, []string{
			"Firstname is required",
			"Phone number must be 10 digits",
			"Education #1: Date cannot be in the future.",
			"Resume is required",
			"Work Experience #1: Company name is required.",
			"Work Experience #2: Job title is required.",
		}, f.ErrorMessages())
	})
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("Blank form asks to fill required fields", func(t *testing.T) {
		sink := new(MockSink)
		f := newForm()

		err := f.Submit(ctx, sink)
		var blocked *form.BlockedError
		require.ErrorAs(t, err, &blocked)
		assert.Empty(t, blocked.Messages)
		assert.Equal(t, "Please fill out all required fields.", blocked.Summary())
		sink.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("Active errors are consolidated", func(t *testing.T) {
		sink := new(MockSink)
		f := newForm()
		fillTylerDurden(t, f)
		require.NoError(t, f.BlurField("email", "t@d"))
		f.RemoveResume()

		err := f.Submit(ctx, sink)
		var blocked *form.BlockedError
		require.ErrorAs(t, err, &blocked)
		assert.Equal(t, "Please fix the following errors:\nInvalid email\nResume is required", blocked.Summary())
		sink.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("Email changed without a blur is checked before the sink", func(t *testing.T) {
		sink := new(MockSink)
		f := newForm()
		fillTylerDurden(t, f)
		require.NoError(t, f.ChangeField("email", "t@d"))
		assert.False(t, f.HasErrors())

		err := f.Submit(ctx, sink)
		var blocked *form.BlockedError
		require.ErrorAs(t, err, &blocked)
		assert.Equal(t, []string{"Invalid email"}, blocked.Messages)
		assert.Equal(t, "Invalid email", f.State().Errors.Fields["email"])
		sink.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("Valid form reaches the sink and is not reset", func(t *testing.T) {
		sink := new(MockSink)
		f := newForm()
		fillTylerDurden(t, f)

		sink.On("Submit", ctx, mock.AnythingOfType("domain.ApplicationBundle")).Return(nil).Run(func(args mock.Arguments) {
			b := args.Get(1).(domain.ApplicationBundle)
			assert.Equal(t, "form-1", b.FormID)
			assert.Equal(t, "Tyler", b.Profile.Firstname)
			assert.Equal(t, "resume.pdf", b.Resume.Name)
			assert.Len(t, b.Education, 1)
			assert.Len(t, b.WorkExperience, 1)
			assert.Equal(t, fixedClock(), b.SubmittedAt)
		})

		before := f.State()
		require.NoError(t, f.Submit(ctx, sink))
		sink.AssertExpectations(t)
		assert.Equal(t, before, f.State())
	})

	t.Run("Sink failure is wrapped", func(t *testing.T) {
		sink := new(MockSink)
		f := newForm()
		fillTylerDurden(t, f)
		boom := errors.New("sink down")
		sink.On("Submit", ctx, mock.Anything).Return(boom)

		err := f.Submit(ctx, sink)
		assert.ErrorIs(t, err, boom)
		var blocked *form.BlockedError
		assert.False(t, errors.As(err, &blocked))
	})
}

func TestFilesAndExtras(t *testing.T) {
	t.Run("Rejected resume carries its own message", func(t *testing.T) {
		f := newForm()
		f.AttachResume(resume())
		f.RejectResume("file extension not allowed: .exe")
		assert.Nil(t, f.State().Resume)
		assert.Equal(t, "file extension not allowed: .exe", f.State().Errors.Fields["resume"])
	})

	t.Run("Attaching nothing counts as removal", func(t *testing.T) {
		f := newForm()
		f.AttachResume(&domain.FileRef{})
		assert.Equal(t, validation.MsgResumeRequired, f.State().Errors.Fields["resume"])
	})

	t.Run("Documents are unvalidated", func(t *testing.T) {
		f := newForm()
		fillTylerDurden(t, f)
		f.AddDocuments(domain.FileRef{Name: "cover.docx"}, domain.FileRef{Name: "refs.txt"})
		assert.Len(t, f.State().Documents, 2)
		assert.False(t, f.HasErrors())
		f.ClearDocuments()
		assert.Empty(t, f.State().Documents)
	})

	t.Run("Demographics are limited to the option lists", func(t *testing.T) {
		f := newForm()
		require.NoError(t, f.SetDemographics(domain.Demographics{Race: "Native Indian", Gender: "Decline", WillingToTravel: "yes"}))
		assert.Equal(t, "Native Indian", f.State().Demographics.Race)

		err := f.SetDemographics(domain.Demographics{Gender: "robot"})
		assert.ErrorIs(t, err, form.ErrInvalidOption)
		assert.Equal(t, "Decline", f.State().Demographics.Gender)
	})

	t.Run("Address is normalized but never blocks", func(t *testing.T) {
		f := newForm()
		fillTylerDurden(t, f)
		f.SetAddress(domain.Address{Street: " 123 Paper St ", City: "Wilmington", Zip: "19801", State: "de"})
		assert.Equal(t, domain.Address{Street: "123 Paper St", City: "Wilmington", Zip: "19801", State: "DE"}, f.State().Address)
		assert.False(t, f.HasErrors())
	})
}

func TestRestoreIsolation(t *testing.T) {
	f := newForm()
	fillTylerDurden(t, f)
	saved := f.State()

	restored := form.Restore(saved, form.WithClock(fixedClock))
	require.NoError(t, restored.ChangeField("firstname", ""))
	restored.RemoveEducation(1)

	assert.Equal(t, "Tyler", saved.Profile.Firstname)
	assert.Len(t, saved.Education, 1)
	assert.Empty(t, saved.Errors.Fields)
	assert.Equal(t, saved, f.State())
}

func TestReplay(t *testing.T) {
	doc := domain.ApplicationDocument{
		Profile: domain.ApplicantProfile{Firstname: "Tyler", Lastname: "Durden", Email: "t@d.com", PhoneNumber: "(302) 555-0100"},
		Education: []domain.EducationEntry{
			{ID: 7, SchoolType: domain.SchoolTypeUndergraduate, SchoolName: "College of Wilmington", GradDate: "2015-05-20", Degree: domain.DegreeBachelors},
			{ID: 9, SchoolName: "Night School", GradDate: "2031-01-01"},
		},
		WorkExperience: []domain.WorkExperienceEntry{
			{JobTitle: "Soap Maker", CompanyName: "Paper Street", StartDate: "2020-01-01", EndDate: "2021-01-01"},
		},
		Resume: resume(),
	}

	f, err := form.Replay("doc-1", doc, form.WithClock(fixedClock))
	require.NoError(t, err)

	edu := f.Education()
	require.Len(t, edu, 2)
	assert.Equal(t, 1, edu[0].ID)
	assert.Equal(t, 2, edu[1].ID)
	assert.Equal(t, []string{"Education #2: Date cannot be in the future."}, f.ErrorMessages())

	doc.Education = doc.Education[:1]
	f, err = form.Replay("doc-1", doc, form.WithClock(fixedClock))
	require.NoError(t, err)
	assert.False(t, f.HasErrors())

	doc.Education = nil
	doc.Resume = nil
	f, err = form.Replay("doc-1", doc, form.WithClock(fixedClock))
	require.NoError(t, err)
	assert.Empty(t, f.Education())
	assert.Equal(t, []string{"Resume is required"}, f.ErrorMessages())
}

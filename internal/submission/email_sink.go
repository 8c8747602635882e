package submission

import (
	"context"
	"fmt"
	"strings"

	"go-application-form/internal/domain"
	"go-application-form/pkg/email"
)

// Mailer sends the hiring notification
type Mailer interface {
	SendApplicationEmail(data email.ApplicationEmailData) error
}

// EmailSink notifies the hiring inbox about an accepted application
type EmailSink struct {
	mailer Mailer
}

func NewEmailSink(mailer Mailer) *EmailSink {
	return &EmailSink{mailer: mailer}
}

func (s *EmailSink) Submit(ctx context.Context, bundle domain.ApplicationBundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.mailer.SendApplicationEmail(emailData(bundle))
}

func emailData(b domain.ApplicationBundle) email.ApplicationEmailData {
	data := email.ApplicationEmailData{
		FormID:         b.FormID,
		ApplicantName:  strings.TrimSpace(b.Profile.Firstname + " " + b.Profile.Lastname),
		ApplicantEmail: b.Profile.Email,
		PhoneNumber:    b.Profile.PhoneNumber,
		Location:       joinNonEmpty(", ", b.Address.City, b.Address.State),
		ResumeName:     b.Resume.Name,
		SubmittedAt:    b.SubmittedAt,
	}

	for _, e := range b.Education {
		if line := joinNonEmpty(", ", e.SchoolName, string(e.Degree), e.GradDate); line != "" {
			data.Education = append(data.Education, line)
		}
	}
	for _, w := range b.WorkExperience {
		line := w.JobTitle
		if w.CompanyName != "" {
			line = fmt.Sprintf("%s at %s", w.JobTitle, w.CompanyName)
		}
		if w.StartDate != "" || w.EndDate != "" {
			line = fmt.Sprintf("%s (%s to %s)", line, w.StartDate, w.EndDate)
		}
		data.WorkExperience = append(data.WorkExperience, line)
	}
	for _, d := range b.Documents {
		data.Documents = append(data.Documents, d.Name)
	}
	return data
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

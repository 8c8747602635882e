package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"go-application-form/config"
)

// SendFunc matches smtp.SendMail
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService sends hiring notifications via SMTP
type EmailService struct {
	host      string
	port      string
	username  string
	password  string
	fromEmail string
	toEmail   string
	send      SendFunc
	tmpl      *template.Template
}

// ApplicationEmailData holds the data for the new-application notification
type ApplicationEmailData struct {
	FormID         string
	ApplicantName  string
	ApplicantEmail string
	PhoneNumber    string
	Location       string
	Education      []string
	WorkExperience []string
	ResumeName     string
	Documents      []string
	SubmittedAt    time.Time
}

// NewEmailService creates a new email service from the SMTP configuration
func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		fromEmail: cfg.SMTPUsername, // Brevo uses login email as from address
		toEmail:   cfg.HiringEmailTo,
		send:      smtp.SendMail,
		tmpl:      template.Must(template.New("application").Parse(applicationEmailTemplate)),
	}
}

// WithSendFunc replaces the SMTP transport
func (s *EmailService) WithSendFunc(send SendFunc) *EmailService {
	s.send = send
	return s
}

// applicationEmailTemplate is the HTML template for new application emails
const applicationEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Job Application</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0066cc; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        .field { margin-bottom: 15px; }
        .label { font-weight: bold; color: #555; }
        .value { margin-top: 5px; }
        .footer { text-align: center; padding: 20px; color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>New Job Application</h1>
        </div>
        <div class="content">
            <div class="field">
                <div class="label">Applicant:</div>
                <div class="value">{{.ApplicantName}} ({{.ApplicantEmail}})</div>
            </div>
            <div class="field">
                <div class="label">Phone:</div>
                <div class="value">{{.PhoneNumber}}</div>
            </div>
            {{if .Location}}<div class="field">
                <div class="label">Location:</div>
                <div class="value">{{.Location}}</div>
            </div>{{end}}
            {{if .Education}}<div class="field">
                <div class="label">Education:</div>
                <ul>{{range .Education}}<li>{{.}}</li>{{end}}</ul>
            </div>{{end}}
            {{if .WorkExperience}}<div class="field">
                <div class="label">Work Experience:</div>
                <ul>{{range .WorkExperience}}<li>{{.}}</li>{{end}}</ul>
            </div>{{end}}
            <div class="field">
                <div class="label">Resume:</div>
                <div class="value">{{.ResumeName}}</div>
            </div>
            {{if .Documents}}<div class="field">
                <div class="label">Supporting Documents:</div>
                <ul>{{range .Documents}}<li>{{.}}</li>{{end}}</ul>
            </div>{{end}}
        </div>
        <div class="footer">
            <p>Application {{.FormID}} submitted {{.SubmittedAt.Format "2006-01-02 15:04 MST"}}.</p>
            <p>To reply, send an email to: {{.ApplicantEmail}}</p>
        </div>
    </div>
</body>
</html>`

// SendApplicationEmail sends the new-application notification to the hiring inbox
func (s *EmailService) SendApplicationEmail(data ApplicationEmailData) error {
	var body bytes.Buffer
	if err := s.tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	subject := fmt.Sprintf("New Application: %s", data.ApplicantName)

	// Construct MIME message
	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Reply-To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		s.fromEmail,
		s.toEmail,
		data.ApplicantEmail,
		subject,
		body.String(),
	))

	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := s.send(addr, auth, s.fromEmail, []string{s.toEmail}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// IsConfigured checks if the email service has valid SMTP configuration
func (s *EmailService) IsConfigured() bool {
	return s.host != "" && s.username != "" && s.password != "" && s.toEmail != ""
}

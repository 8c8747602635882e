package submission

import (
	"context"
	"log/slog"

	"go-application-form/internal/domain"
	"go-application-form/pkg/logger"
)

// LogSink records accepted applications in the structured log. It stands in
// for a delivery backend and never fails.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink uses l, or the global logger when l is nil.
func NewLogSink(l *slog.Logger) *LogSink {
	if l == nil {
		l = logger.Log
	}
	return &LogSink{log: l}
}

func (s *LogSink) Submit(ctx context.Context, bundle domain.ApplicationBundle) error {
	s.log.InfoContext(ctx, "Application submitted",
		"form_id", bundle.FormID,
		"applicant_email", bundle.Profile.Email,
		"education_entries", len(bundle.Education),
		"work_entries", len(bundle.WorkExperience),
		"resume", bundle.Resume.Name,
		"documents", len(bundle.Documents),
		"submitted_at", bundle.SubmittedAt,
	)
	return nil
}

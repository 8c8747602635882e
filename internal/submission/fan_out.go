package submission

import (
	"context"
	"fmt"

	"go-application-form/internal/domain"
	"go-application-form/pkg/logger"
	"go-application-form/pkg/metrics"
)

// Target is one delivery destination of an accepted application
type Target struct {
	Name string
	Sink domain.SubmissionSink
	// Required targets fail the submission; the rest are best effort
	Required bool
}

// FanOutSink delivers a bundle to each target in order. The first failing
// required target stops delivery and fails the submission.
type FanOutSink struct {
	targets []Target
}

var _ domain.SubmissionSink = (*FanOutSink)(nil)

func NewFanOutSink(targets ...Target) *FanOutSink {
	return &FanOutSink{targets: targets}
}

func (s *FanOutSink) Submit(ctx context.Context, bundle domain.ApplicationBundle) error {
	for _, t := range s.targets {
		if err := t.Sink.Submit(ctx, bundle); err != nil {
			metrics.SinkDeliveries.WithLabelValues(t.Name, "error").Inc()
			if t.Required {
				return fmt.Errorf("%s: %w", t.Name, err)
			}
			logger.Log.WarnContext(ctx, "Best-effort delivery failed", "sink", t.Name, "form_id", bundle.FormID, "error", err)
			continue
		}
		metrics.SinkDeliveries.WithLabelValues(t.Name, "ok").Inc()
	}
	return nil
}

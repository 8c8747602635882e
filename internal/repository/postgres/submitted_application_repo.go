package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go-application-form/internal/domain"

	"github.com/lib/pq"
)

// SubmittedApplicationsSchema creates the archive table. Resubmitting the same
// form replaces its row.
const SubmittedApplicationsSchema = `
	CREATE TABLE IF NOT EXISTS submitted_applications (
		form_id         TEXT PRIMARY KEY,
		applicant_name  TEXT NOT NULL,
		email           TEXT NOT NULL,
		phone_number    TEXT NOT NULL,
		resume_name     TEXT NOT NULL,
		document_names  TEXT[] NOT NULL DEFAULT '{}',
		payload         JSONB NOT NULL,
		submitted_at    TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// SubmittedApplicationRepository archives accepted applications. It is a
// domain.SubmissionSink.
type SubmittedApplicationRepository struct {
	db *sql.DB
}

var _ domain.SubmissionSink = (*SubmittedApplicationRepository)(nil)

func NewSubmittedApplicationRepository(db *sql.DB) *SubmittedApplicationRepository {
	return &SubmittedApplicationRepository{db: db}
}

// EnsureSchema creates the archive table if it does not exist
func (r *SubmittedApplicationRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, SubmittedApplicationsSchema); err != nil {
		return fmt.Errorf("create submitted_applications: %w", err)
	}
	return nil
}

// Submit upserts the bundle keyed by form id
func (r *SubmittedApplicationRepository) Submit(ctx context.Context, bundle domain.ApplicationBundle) error {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("encode application %s: %w", bundle.FormID, err)
	}

	names := make([]string, 0, len(bundle.Documents))
	for _, doc := range bundle.Documents {
		names = append(names, doc.Name)
	}

	query := `
		INSERT INTO submitted_applications (form_id, applicant_name, email, phone_number, resume_name, document_names, payload, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (form_id) DO UPDATE SET
			applicant_name = EXCLUDED.applicant_name,
			email = EXCLUDED.email,
			phone_number = EXCLUDED.phone_number,
			resume_name = EXCLUDED.resume_name,
			document_names = EXCLUDED.document_names,
			payload = EXCLUDED.payload,
			submitted_at = EXCLUDED.submitted_at,
			updated_at = NOW()`

	_, err = r.db.ExecContext(ctx, query,
		bundle.FormID,
		strings.TrimSpace(bundle.Profile.Firstname+" "+bundle.Profile.Lastname),
		bundle.Profile.Email,
		bundle.Profile.PhoneNumber,
		bundle.Resume.Name,
		pq.Array(names),
		payload,
		bundle.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("archive application %s: %w", bundle.FormID, err)
	}
	return nil
}

// GetByFormID loads an archived bundle
func (r *SubmittedApplicationRepository) GetByFormID(ctx context.Context, formID string) (*domain.ApplicationBundle, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM submitted_applications WHERE form_id = $1`, formID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get application %s: %w", formID, err)
	}

	var bundle domain.ApplicationBundle
	if err := json.Unmarshal(payload, &bundle); err != nil {
		return nil, fmt.Errorf("decode application %s: %w", formID, err)
	}
	return &bundle, nil
}

package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"go-application-form/internal/domain"
	"go-application-form/internal/form"
	"go-application-form/pkg/apperror"
	"go-application-form/pkg/logger"
	"go-application-form/pkg/metrics"
	"go-application-form/pkg/security"
	"go-application-form/pkg/security/antivirus"
	"go-application-form/pkg/validation"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// Upload scan rejections
const (
	MsgInfected   = "File failed the malware scan"
	MsgScanFailed = "File could not be scanned. Please try again."
)

// MsgSessionBusy is returned when the session lock could not be taken
const MsgSessionBusy = "Form session is busy. Please try again."

// ApplicationFormConfig holds the intake limits of the form usecase
type ApplicationFormConfig struct {
	MaxResumeBytes   int64
	MaxDocumentCount int
	// Scanner checks uploads for malware; nil disables scanning
	Scanner antivirus.Scanner
	// Store keeps upload content; nil keeps metadata only
	Store domain.UploadStore
	// Locker serializes a session across instances; nil relies on the
	// in-process lock alone
	Locker domain.SessionLocker
	// Now is the clock; nil means time.Now
	Now func() time.Time
}

type applicationFormUsecase struct {
	sessionRepo domain.FormSessionRepository
	sink        domain.SubmissionSink
	fields      *validation.FieldValidator
	schema      *gojsonschema.Schema
	locks       *sessionLocks
	scanner     antivirus.Scanner
	cfg         ApplicationFormConfig
	now         func() time.Time
}

// NewApplicationFormUsecase creates the usecase that drives form sessions
func NewApplicationFormUsecase(
	sessionRepo domain.FormSessionRepository,
	sink domain.SubmissionSink,
	cfg ApplicationFormConfig,
) domain.ApplicationFormUsecase {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	scanner := cfg.Scanner
	if scanner == nil {
		scanner = antivirus.NewNoOpScanner()
	}
	return &applicationFormUsecase{
		sessionRepo: sessionRepo,
		sink:        sink,
		fields:      validation.NewFieldValidator(now),
		schema:      mustCompileApplicationSchema(),
		locks:       newSessionLocks(),
		scanner:     scanner,
		cfg:         cfg,
		now:         now,
	}
}

func (uc *applicationFormUsecase) formOptions() []form.Option {
	return []form.Option{form.WithClock(uc.now), form.WithFieldValidator(uc.fields)}
}

// Create starts a new session with an empty form
func (uc *applicationFormUsecase) Create(ctx context.Context) (*domain.FormView, error) {
	f := form.New(uuid.NewString(), uc.formOptions()...)
	state := f.State()
	if err := uc.sessionRepo.Create(ctx, &state); err != nil {
		return nil, apperror.Internal(err)
	}

	metrics.FormSessionsCreated.Inc()
	logger.Log.InfoContext(ctx, "Form session created", "form_id", state.ID)

	view := f.View()
	return &view, nil
}

func (uc *applicationFormUsecase) Get(ctx context.Context, id string) (*domain.FormView, error) {
	f, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := f.View()
	return &view, nil
}

// Discard deletes a session. Unknown sessions are reported as not found.
func (uc *applicationFormUsecase) Discard(ctx context.Context, id string) error {
	unlock, err := uc.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := uc.sessionRepo.Get(ctx, id); err != nil {
		return sessionError(err)
	}
	if err := uc.sessionRepo.Delete(ctx, id); err != nil {
		return apperror.Internal(err)
	}
	logger.Log.InfoContext(ctx, "Form session discarded", "form_id", id)
	return nil
}

func (uc *applicationFormUsecase) ChangeField(ctx context.Context, id, field, value string) (*domain.FormView, error) {
	return uc.mutate(ctx, id, "change_field", func(f *form.Form) error {
		return f.ChangeField(field, value)
	})
}

func (uc *applicationFormUsecase) BlurField(ctx context.Context, id, field, value string) (*domain.FormView, error) {
	return uc.mutate(ctx, id, "blur_field", func(f *form.Form) error {
		return f.BlurField(field, value)
	})
}

func (uc *applicationFormUsecase) SetAddress(ctx context.Context, id string, address domain.Address) (*domain.FormView, error) {
	return uc.mutate(ctx, id, "set_address", func(f *form.Form) error {
		f.SetAddress(address)
		return nil
	})
}

func (uc *applicationFormUsecase) SetDemographics(ctx context.Context, id string, d domain.Demographics) (*domain.FormView, error) {
	return uc.mutate(ctx, id, "set_demographics", func(f *form.Form) error {
		return f.SetDemographics(d)
	})
}

func (uc *applicationFormUsecase) AddEducation(ctx context.Context, id string) (*domain.FormView, error) {
	return uc.mutate(ctx, id, "add_education", func(f *form.Form) error {
		f.AddEducation()
		return nil
	})
}

func (uc *applicationFormUsecase) RemoveEducation(ctx context.Context, id string, entryID int) (*domain.FormView, error) {
	return uc.mutate(ctx, id, "remove_education", func(f *form.Form) error {
		f.RemoveEducation(entryID)
		return nil
	})
}

func (uc *applicationFormUsecase) UpdateEducation(ctx context.Context, id string, entryID int, field, value string) (*domain.FormView, error) {
	return uc.mutate(ctx, id, "update_education", func(f *form.Form) error {
		return f.UpdateEducation(entryID, field, value)
	})
}

func (uc *applicationFormUsecase) AddWorkExperience(ctx context.Context, id string) (*domain.FormView, error) {
	return uc.mutate(ctx, id, "add_work_experience", func(f *form.Form) error {
		f.AddWorkExperience()
		return nil
	})
}

func (uc *applicationFormUsecase) RemoveWorkExperience(ctx context.Context, id string, entryID int) (*domain.FormView, error) {
	return uc.mutate(ctx, id, "remove_work_experience", func(f *form.Form) error {
		f.RemoveWorkExperience(entryID)
		return nil
	})
}

func (uc *applicationFormUsecase) UpdateWorkExperience(ctx context.Context, id string, entryID int, field, value string) (*domain.FormView, error) {
	return uc.mutate(ctx, id, "update_work_experience", func(f *form.Form) error {
		return f.UpdateWorkExperience(entryID, field, value)
	})
}

// AttachResume checks the upload and either attaches it or records why it was
// rejected in the resume error. A rejected file is not an API error.
func (uc *applicationFormUsecase) AttachResume(ctx context.Context, id string, upload domain.FileUpload) (*domain.FormView, error) {
	return uc.mutate(ctx, id, "attach_resume", func(f *form.Form) error {
		name := filepath.Base(upload.Filename)
		res := security.ValidateDocument(name, upload.Data, uc.cfg.MaxResumeBytes)
		if !res.Valid {
			logger.Log.InfoContext(ctx, "Resume rejected", "form_id", id, "file", name, "reason", res.Error)
			f.RejectResume(res.Error)
			return nil
		}
		if msg := uc.scan(ctx, id, name, upload.Data); msg != "" {
			f.RejectResume(msg)
			return nil
		}
		key, err := uc.store(ctx, id, "resume", name, res.DetectedMIME, upload.Data)
		if err != nil {
			return err
		}
		f.AttachResume(&domain.FileRef{
			Name:        name,
			Size:        int64(len(upload.Data)),
			ContentType: res.DetectedMIME,
			UploadedAt:  uc.now(),
			StorageKey:  key,
		})
		return nil
	})
}

func (uc *applicationFormUsecase) RemoveResume(ctx context.Context, id string) (*domain.FormView, error) {
	return uc.mutate(ctx, id, "remove_resume", func(f *form.Form) error {
		f.RemoveResume()
		return nil
	})
}

// AddDocuments appends supplementary documents. Their type is not restricted;
// the count and size limits and the malware scan apply.
func (uc *applicationFormUsecase) AddDocuments(ctx context.Context, id string, uploads []domain.FileUpload) (*domain.FormView, error) {
	if len(uploads) == 0 {
		return nil, apperror.BadRequest("No documents provided")
	}
	return uc.mutate(ctx, id, "add_documents", func(f *form.Form) error {
		current := len(f.State().Documents)
		if uc.cfg.MaxDocumentCount > 0 && current+len(uploads) > uc.cfg.MaxDocumentCount {
			return apperror.BadRequest(fmt.Sprintf("At most %d documents can be attached", uc.cfg.MaxDocumentCount))
		}

		refs := make([]domain.FileRef, 0, len(uploads))
		for _, upload := range uploads {
			name := filepath.Base(upload.Filename)
			if uc.cfg.MaxResumeBytes > 0 && int64(len(upload.Data)) > uc.cfg.MaxResumeBytes {
				return apperror.BadRequest(fmt.Sprintf("Document %s is too large", name))
			}
			if msg := uc.scan(ctx, id, name, upload.Data); msg != "" {
				return apperror.BadRequest(fmt.Sprintf("Document %s: %s", name, msg))
			}
			refs = append(refs, domain.FileRef{
				Name:        name,
				Size:        int64(len(upload.Data)),
				ContentType: mimetype.Detect(upload.Data).String(),
				UploadedAt:  uc.now(),
			})
		}
		// Store only once the whole batch is accepted
		for i := range refs {
			key, err := uc.store(ctx, id, "documents", refs[i].Name, refs[i].ContentType, uploads[i].Data)
			if err != nil {
				uc.discardStored(ctx, id, refs[:i])
				return err
			}
			refs[i].StorageKey = key
		}
		f.AddDocuments(refs...)
		return nil
	})
}

func (uc *applicationFormUsecase) ClearDocuments(ctx context.Context, id string) (*domain.FormView, error) {
	return uc.mutate(ctx, id, "clear_documents", func(f *form.Form) error {
		f.ClearDocuments()
		return nil
	})
}

// Readiness reports whether the form is blocked from submission
func (uc *applicationFormUsecase) Readiness(ctx context.Context, id string) (bool, error) {
	f, err := uc.load(ctx, id)
	if err != nil {
		return false, err
	}
	return f.HasErrors(), nil
}

// Submit runs the submission gate. A blocked form yields a 422 whose details are
// the SubmissionResult; a sink failure yields a 502. The form is not reset.
func (uc *applicationFormUsecase) Submit(ctx context.Context, id string) (*domain.SubmissionResult, error) {
	unlock, err := uc.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	state, err := uc.sessionRepo.Get(ctx, id)
	if err != nil {
		return nil, sessionError(err)
	}
	f := form.Restore(*state, uc.formOptions()...)
	pendingEmail := state.Errors.Fields[validation.FieldEmail]

	err = f.Submit(ctx, uc.sink)

	var blocked *form.BlockedError
	switch {
	case errors.As(err, &blocked):
		metrics.FormSubmissions.WithLabelValues(metrics.SubmissionBlocked).Inc()
		// the gate may have flagged an email that was never blurred
		if next := f.State(); next.Errors.Fields[validation.FieldEmail] != pendingEmail {
			if err := uc.sessionRepo.Save(ctx, &next); err != nil {
				return nil, sessionError(err)
			}
		}
		result := &domain.SubmissionResult{
			Submitted: false,
			Message:   blocked.Summary(),
			Errors:    blocked.Messages,
		}
		return nil, apperror.UnprocessableEntity(result.Message).WithDetails(result)
	case err != nil:
		metrics.FormSubmissions.WithLabelValues(metrics.SubmissionFailed).Inc()
		return nil, apperror.New(http.StatusBadGateway, "Application could not be delivered", err)
	}

	metrics.FormSubmissions.WithLabelValues(metrics.SubmissionAccepted).Inc()
	logger.Log.InfoContext(ctx, "Application accepted", "form_id", id)

	return &domain.SubmissionResult{Submitted: true, Message: form.MsgSubmitted}, nil
}

// ValidateApplication checks a complete application document without creating
// a session
func (uc *applicationFormUsecase) ValidateApplication(ctx context.Context, document []byte) (*domain.FormView, error) {
	violations, err := checkDocumentShape(uc.schema, document)
	if err != nil {
		return nil, apperror.BadRequest("Malformed application document")
	}
	if len(violations) > 0 {
		return nil, apperror.BadRequest("Invalid application document").WithDetails(violations)
	}

	var doc domain.ApplicationDocument
	if err := json.Unmarshal(document, &doc); err != nil {
		return nil, apperror.BadRequest("Malformed application document")
	}

	f, err := form.Replay(uuid.NewString(), doc, uc.formOptions()...)
	if err != nil {
		return nil, formError(err)
	}
	view := f.View()
	return &view, nil
}

// scan returns the rejection message for an upload, or "" when it is clean
func (uc *applicationFormUsecase) scan(ctx context.Context, id, name string, data []byte) string {
	res := uc.scanner.Scan(ctx, name, bytes.NewReader(data))
	switch {
	case res.Error != nil:
		metrics.UploadScans.WithLabelValues(res.ScannerName, metrics.ScanFailed).Inc()
		logger.Log.ErrorContext(ctx, "Upload scan failed", "form_id", id, "file", name, "scanner", res.ScannerName, "error", res.Error)
		return MsgScanFailed
	case res.Infected:
		metrics.UploadScans.WithLabelValues(res.ScannerName, metrics.ScanInfected).Inc()
		logger.Log.WarnContext(ctx, "Malware detected in upload", "form_id", id, "file", name, "threat", res.ThreatName)
		return MsgInfected
	}
	metrics.UploadScans.WithLabelValues(res.ScannerName, metrics.ScanClean).Inc()
	return ""
}

// store writes upload content under forms/<id>/<kind>/ and returns its key
func (uc *applicationFormUsecase) store(ctx context.Context, id, kind, name, contentType string, data []byte) (string, error) {
	if uc.cfg.Store == nil {
		return "", nil
	}
	key := fmt.Sprintf("forms/%s/%s/%s-%s", id, kind, uuid.NewString(), name)
	if err := uc.cfg.Store.Put(ctx, key, contentType, data); err != nil {
		return "", apperror.New(http.StatusServiceUnavailable, "File could not be stored. Please try again.", err)
	}
	return key, nil
}

// discardStored removes the objects of a batch that failed part way. Failures
// are logged; the batch is rejected either way.
func (uc *applicationFormUsecase) discardStored(ctx context.Context, id string, refs []domain.FileRef) {
	for _, ref := range refs {
		if ref.StorageKey == "" {
			continue
		}
		if err := uc.cfg.Store.Delete(ctx, ref.StorageKey); err != nil {
			logger.Log.WarnContext(ctx, "Failed to remove stored document",
				"form_id", id,
				"key", ref.StorageKey,
				"error", err,
			)
		}
	}
}

func (uc *applicationFormUsecase) load(ctx context.Context, id string) (*form.Form, error) {
	state, err := uc.sessionRepo.Get(ctx, id)
	if err != nil {
		return nil, sessionError(err)
	}
	return form.Restore(*state, uc.formOptions()...), nil
}

// mutate is one read-modify-write of a session, serialized per session id
func (uc *applicationFormUsecase) mutate(ctx context.Context, id, event string, apply func(*form.Form) error) (*domain.FormView, error) {
	start := time.Now()
	defer func() {
		metrics.FormEventDuration.WithLabelValues(event).Observe(time.Since(start).Seconds())
	}()

	unlock, err := uc.lock(ctx, id)
	if err != nil {
		metrics.FormEvents.WithLabelValues(event, "error").Inc()
		return nil, err
	}
	defer unlock()

	f, err := uc.load(ctx, id)
	if err != nil {
		metrics.FormEvents.WithLabelValues(event, "error").Inc()
		return nil, err
	}

	if err := apply(f); err != nil {
		metrics.FormEvents.WithLabelValues(event, "rejected").Inc()
		return nil, formError(err)
	}

	state := f.State()
	if err := uc.sessionRepo.Save(ctx, &state); err != nil {
		metrics.FormEvents.WithLabelValues(event, "error").Inc()
		return nil, sessionError(err)
	}

	metrics.FormEvents.WithLabelValues(event, "ok").Inc()
	view := f.View()
	return &view, nil
}

// lock takes the in-process lock, then the shared one when configured
func (uc *applicationFormUsecase) lock(ctx context.Context, id string) (func(), error) {
	unlock := uc.locks.Lock(id)
	if uc.cfg.Locker == nil {
		return unlock, nil
	}

	release, err := uc.cfg.Locker.Lock(ctx, id)
	if err != nil {
		unlock()
		logger.Log.WarnContext(ctx, "Form session lock not acquired", "form_id", id, "error", err)
		return nil, apperror.New(http.StatusServiceUnavailable, MsgSessionBusy, err)
	}
	return func() {
		release()
		unlock()
	}, nil
}

func sessionError(err error) error {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return apperror.NotFound("Form session not found")
	}
	return apperror.Internal(err)
}

func formError(err error) error {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, form.ErrUnknownField):
		return apperror.BadRequest(err.Error())
	case errors.Is(err, form.ErrInvalidOption):
		return apperror.BadRequest(err.Error())
	case errors.Is(err, form.ErrEntryNotFound):
		return apperror.NotFound(err.Error())
	default:
		return apperror.Internal(err)
	}
}

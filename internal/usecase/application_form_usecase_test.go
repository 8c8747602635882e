package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"go-application-form/internal/domain"
	"go-application-form/internal/repository/memory"
	"go-application-form/pkg/apperror"
	"go-application-form/pkg/security/antivirus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mocks
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Submit(ctx context.Context, bundle domain.ApplicationBundle) error {
	args := m.Called(ctx, bundle)
	return args.Error(0)
}

type MockSessionRepo struct {
	mock.Mock
}

func (m *MockSessionRepo) Create(ctx context.Context, state *domain.FormState) error {
	return m.Called(ctx, state).Error(0)
}

func (m *MockSessionRepo) Get(ctx context.Context, id string) (*domain.FormState, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FormState), args.Error(1)
}

func (m *MockSessionRepo) Save(ctx context.Context, state *domain.FormState) error {
	return m.Called(ctx, state).Error(0)
}

func (m *MockSessionRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) Scan(ctx context.Context, filename string, data io.Reader) antivirus.ScanResult {
	return m.Called(ctx, filename, data).Get(0).(antivirus.ScanResult)
}

func (m *MockScanner) Name() string { return "mock" }

func (m *MockScanner) Available(ctx context.Context) bool { return true }

type MockUploadStore struct {
	mock.Mock
}

func (m *MockUploadStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	return m.Called(ctx, key, contentType, data).Error(0)
}

func (m *MockUploadStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Lock(ctx context.Context, id string) (func(), error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

var (
	fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
)

func newTestUsecase(sink domain.SubmissionSink) *applicationFormUsecase {
	uc := NewApplicationFormUsecase(memory.NewFormSessionRepository(time.Hour), sink, ApplicationFormConfig{
		MaxResumeBytes:   1 << 20,
		MaxDocumentCount: 2,
		Now:              func() time.Time { return fixedNow },
	})
	return uc.(*applicationFormUsecase)
}

func appErrorCode(t *testing.T, err error) int {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func fillProfile(t *testing.T, uc *applicationFormUsecase, id string) {
	t.Helper()
	ctx := context.Background()
	for field, value := range map[string]string{
		"firstname":   "Tyler",
		"lastname":    "Durden",
		"email":       "t@d.com",
		"phoneNumber": "(302) 555-0100",
	} {
		_, err := uc.BlurField(ctx, id, field, value)
		require.NoError(t, err)
	}
}

func TestApplicationFormSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Should create a blocked form with one blank entry per section", func(t *testing.T) {
		uc := newTestUsecase(&MockSink{})
		view, err := uc.Create(ctx)
		require.NoError(t, err)

		assert.NotEmpty(t, view.ID)
		assert.True(t, view.Blocked)
		require.Len(t, view.Education, 1)
		require.Len(t, view.WorkExperience, 1)

		blocked, err := uc.Readiness(ctx, view.ID)
		require.NoError(t, err)
		assert.True(t, blocked)
	})

	t.Run("Should persist field events between requests", func(t *testing.T) {
		uc := newTestUsecase(&MockSink{})
		view, err := uc.Create(ctx)
		require.NoError(t, err)

		_, err = uc.ChangeField(ctx, view.ID, "phoneNumber", "555")
		require.NoError(t, err)
		_, err = uc.ChangeField(ctx, view.ID, "email", "not-an-email")
		require.NoError(t, err)

		got, err := uc.Get(ctx, view.ID)
		require.NoError(t, err)
		assert.Equal(t, "not-an-email", got.Profile.Email)
		assert.Empty(t, got.Errors.Fields["email"])
		assert.NotEmpty(t, got.Errors.Fields["phoneNumber"])

		got, err = uc.BlurField(ctx, view.ID, "email", "not-an-email")
		require.NoError(t, err)
		assert.Equal(t, "Invalid email", got.Errors.Fields["email"])
	})

	t.Run("Should map usage errors to status codes", func(t *testing.T) {
		uc := newTestUsecase(&MockSink{})
		view, err := uc.Create(ctx)
		require.NoError(t, err)

		_, err = uc.Get(ctx, "missing")
		assert.Equal(t, http.StatusNotFound, appErrorCode(t, err))

		_, err = uc.ChangeField(ctx, view.ID, "nickname", "x")
		assert.Equal(t, http.StatusBadRequest, appErrorCode(t, err))

		_, err = uc.UpdateEducation(ctx, view.ID, 7, "schoolName", "x")
		assert.Equal(t, http.StatusNotFound, appErrorCode(t, err))

		_, err = uc.UpdateEducation(ctx, view.ID, 1, "degree", "phd")
		assert.Equal(t, http.StatusBadRequest, appErrorCode(t, err))

		_, err = uc.SetDemographics(ctx, view.ID, domain.Demographics{Gender: "unknown"})
		assert.Equal(t, http.StatusBadRequest, appErrorCode(t, err))
	})

	t.Run("Should discard sessions", func(t *testing.T) {
		uc := newTestUsecase(&MockSink{})
		view, err := uc.Create(ctx)
		require.NoError(t, err)

		require.NoError(t, uc.Discard(ctx, view.ID))
		assert.Equal(t, http.StatusNotFound, appErrorCode(t, uc.Discard(ctx, view.ID)))
	})

	t.Run("Should surface repository failures as internal errors", func(t *testing.T) {
		repo := new(MockSessionRepo)
		uc := NewApplicationFormUsecase(repo, &MockSink{}, ApplicationFormConfig{})

		repo.On("Get", ctx, "abc").Return(nil, errors.New("connection refused")).Once()
		_, err := uc.AddEducation(ctx, "abc")
		assert.Equal(t, http.StatusInternalServerError, appErrorCode(t, err))
		repo.AssertExpectations(t)
	})
}

func TestApplicationFormEntries(t *testing.T) {
	ctx := context.Background()
	uc := newTestUsecase(&MockSink{})
	view, err := uc.Create(ctx)
	require.NoError(t, err)

	t.Run("Should keep work date errors across requests", func(t *testing.T) {
		_, err := uc.UpdateWorkExperience(ctx, view.ID, 1, "startDate", "2023-05-01")
		require.NoError(t, err)
		got, err := uc.UpdateWorkExperience(ctx, view.ID, 1, "endDate", "2023-01-01")
		require.NoError(t, err)

		require.Len(t, got.Errors.WorkExperience, 1)
		assert.Equal(t, "Start date must be before or the same as the end date.", got.Errors.WorkExperience[0].Message)

		got, err = uc.UpdateWorkExperience(ctx, view.ID, 1, "endDate", "2024-01-01")
		require.NoError(t, err)
		assert.Empty(t, got.Errors.WorkExperience)
	})

	t.Run("Should add and remove education entries", func(t *testing.T) {
		got, err := uc.AddEducation(ctx, view.ID)
		require.NoError(t, err)
		require.Len(t, got.Education, 2)
		assert.Equal(t, 2, got.Education[1].ID)

		got, err = uc.UpdateEducation(ctx, view.ID, 2, "gradDate", "2030-01-01")
		require.NoError(t, err)
		require.Len(t, got.Errors.Education, 1)

		got, err = uc.RemoveEducation(ctx, view.ID, 2)
		require.NoError(t, err)
		assert.Len(t, got.Education, 1)
		assert.Empty(t, got.Errors.Education)
	})

	t.Run("Should serialize concurrent events on one session", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := uc.AddWorkExperience(ctx, view.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := uc.Get(ctx, view.ID)
		require.NoError(t, err)
		require.Len(t, got.WorkExperience, 21)

		seen := map[int]bool{}
		for _, entry := range got.WorkExperience {
			assert.False(t, seen[entry.ID], "duplicate id %d", entry.ID)
			seen[entry.ID] = true
		}
		assert.Equal(t, 0, uc.locks.size())
	})
}

func TestApplicationFormFiles(t *testing.T) {
	ctx := context.Background()
	uc := newTestUsecase(&MockSink{})
	view, err := uc.Create(ctx)
	require.NoError(t, err)

	t.Run("Should attach a valid resume", func(t *testing.T) {
		got, err := uc.AttachResume(ctx, view.ID, domain.FileUpload{Filename: "../../resume.pdf", Data: pdfBytes})
		require.NoError(t, err)
		require.NotNil(t, got.Resume)
		assert.Equal(t, "resume.pdf", got.Resume.Name)
		assert.Equal(t, "application/pdf", got.Resume.ContentType)
		assert.Equal(t, fixedNow, got.Resume.UploadedAt)
		assert.Empty(t, got.Errors.Fields["resume"])
	})

	t.Run("Should record a rejected resume as a form error", func(t *testing.T) {
		got, err := uc.AttachResume(ctx, view.ID, domain.FileUpload{Filename: "resume.exe", Data: pdfBytes})
		require.NoError(t, err)
		assert.Nil(t, got.Resume)
		assert.Contains(t, got.Errors.Fields["resume"], "File type .exe is not allowed")
	})

	t.Run("Should require the resume after removal", func(t *testing.T) {
		got, err := uc.RemoveResume(ctx, view.ID)
		require.NoError(t, err)
		assert.Equal(t, "Resume is required", got.Errors.Fields["resume"])
	})

	t.Run("Should limit supplementary documents", func(t *testing.T) {
		_, err := uc.AddDocuments(ctx, view.ID, nil)
		assert.Equal(t, http.StatusBadRequest, appErrorCode(t, err))

		got, err := uc.AddDocuments(ctx, view.ID, []domain.FileUpload{
			{Filename: "cover.txt", Data: []byte("Dear hiring manager")},
			{Filename: "portfolio.pdf", Data: pdfBytes},
		})
		require.NoError(t, err)
		require.Len(t, got.Documents, 2)
		assert.Contains(t, got.Documents[0].ContentType, "text/plain")

		_, err = uc.AddDocuments(ctx, view.ID, []domain.FileUpload{{Filename: "extra.txt", Data: []byte("x")}})
		assert.Equal(t, http.StatusBadRequest, appErrorCode(t, err))

		got, err = uc.ClearDocuments(ctx, view.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Documents)
	})
}

func TestApplicationFormScanning(t *testing.T) {
	ctx := context.Background()
	scanner := new(MockScanner)
	uc := NewApplicationFormUsecase(memory.NewFormSessionRepository(time.Hour), &MockSink{}, ApplicationFormConfig{
		MaxResumeBytes:   1 << 20,
		MaxDocumentCount: 5,
		Scanner:          scanner,
		Now:              func() time.Time { return fixedNow },
	})
	view, err := uc.Create(ctx)
	require.NoError(t, err)

	scanner.On("Scan", mock.Anything, "infected.pdf", mock.Anything).
		Return(antivirus.ScanResult{Infected: true, ThreatName: "Eicar-Test-Signature", ScannerName: "mock"})
	scanner.On("Scan", mock.Anything, "unscanned.pdf", mock.Anything).
		Return(antivirus.ScanResult{Infected: true, Error: errors.New("clamd down"), ScannerName: "mock"})
	scanner.On("Scan", mock.Anything, mock.Anything, mock.Anything).
		Return(antivirus.ScanResult{ScannerName: "mock"})

	t.Run("Should reject an infected resume as a form error", func(t *testing.T) {
		got, err := uc.AttachResume(ctx, view.ID, domain.FileUpload{Filename: "infected.pdf", Data: pdfBytes})
		require.NoError(t, err)
		assert.Nil(t, got.Resume)
		assert.Equal(t, MsgInfected, got.Errors.Fields["resume"])
	})

	t.Run("Should ask for a retry when the scan fails", func(t *testing.T) {
		got, err := uc.AttachResume(ctx, view.ID, domain.FileUpload{Filename: "unscanned.pdf", Data: pdfBytes})
		require.NoError(t, err)
		assert.Equal(t, MsgScanFailed, got.Errors.Fields["resume"])

		got, err = uc.AttachResume(ctx, view.ID, domain.FileUpload{Filename: "resume.pdf", Data: pdfBytes})
		require.NoError(t, err)
		require.NotNil(t, got.Resume)
		assert.Empty(t, got.Errors.Fields["resume"])
	})

	t.Run("Should refuse infected documents without attaching any", func(t *testing.T) {
		_, err := uc.AddDocuments(ctx, view.ID, []domain.FileUpload{
			{Filename: "cover.txt", Data: []byte("Dear hiring manager")},
			{Filename: "infected.pdf", Data: pdfBytes},
		})
		assert.Equal(t, http.StatusBadRequest, appErrorCode(t, err))

		got, err := uc.Get(ctx, view.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Documents)
	})

}

func TestApplicationFormStorage(t *testing.T) {
	ctx := context.Background()
	store := new(MockUploadStore)
	uc := NewApplicationFormUsecase(memory.NewFormSessionRepository(time.Hour), &MockSink{}, ApplicationFormConfig{
		MaxResumeBytes:   1 << 20,
		MaxDocumentCount: 5,
		Store:            store,
		Now:              func() time.Time { return fixedNow },
	})
	view, err := uc.Create(ctx)
	require.NoError(t, err)

	t.Run("Should store accepted uploads under the form prefix", func(t *testing.T) {
		store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "forms/"+view.ID+"/resume/") && strings.HasSuffix(key, "-resume.pdf")
		}), "application/pdf", pdfBytes).Return(nil).Once()

		got, err := uc.AttachResume(ctx, view.ID, domain.FileUpload{Filename: "resume.pdf", Data: pdfBytes})
		require.NoError(t, err)
		require.NotNil(t, got.Resume)
		assert.Contains(t, got.Resume.StorageKey, "forms/"+view.ID+"/resume/")
		store.AssertExpectations(t)
	})

	t.Run("Should not store rejected files", func(t *testing.T) {
		got, err := uc.AttachResume(ctx, view.ID, domain.FileUpload{Filename: "resume.exe", Data: pdfBytes})
		require.NoError(t, err)
		assert.Nil(t, got.Resume)
		store.AssertNumberOfCalls(t, "Put", 1)
	})

	t.Run("Should fail with 503 when the store is down", func(t *testing.T) {
		store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket unreachable")).Once()

		_, err := uc.AddDocuments(ctx, view.ID, []domain.FileUpload{{Filename: "cover.txt", Data: []byte("Dear hiring manager")}})
		assert.Equal(t, http.StatusServiceUnavailable, appErrorCode(t, err))

		got, err := uc.Get(ctx, view.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Documents)
	})

	t.Run("Should remove already stored documents when a later one fails", func(t *testing.T) {
		var stored []string
		store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasSuffix(key, "-cover.txt") || strings.HasSuffix(key, "-references.txt")
		}), mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			stored = append(stored, args.String(1))
		}).Return(nil).Twice()
		store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasSuffix(key, "-portfolio.txt")
		}), mock.Anything, mock.Anything).Return(errors.New("bucket unreachable")).Once()
		store.On("Delete", ctx, mock.Anything).Return(nil).Twice()

		_, err := uc.AddDocuments(ctx, view.ID, []domain.FileUpload{
			{Filename: "cover.txt", Data: []byte("Dear hiring manager")},
			{Filename: "references.txt", Data: []byte("Marla Singer")},
			{Filename: "portfolio.txt", Data: []byte("Paper Street Soap Co.")},
		})
		assert.Equal(t, http.StatusServiceUnavailable, appErrorCode(t, err))

		require.Len(t, stored, 2)
		store.AssertCalled(t, "Delete", ctx, stored[0])
		store.AssertCalled(t, "Delete", ctx, stored[1])
		store.AssertNumberOfCalls(t, "Delete", 2)

		got, err := uc.Get(ctx, view.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Documents)
	})

	t.Run("Should still reject the batch when removal fails", func(t *testing.T) {
		store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasSuffix(key, "-first.txt")
		}), mock.Anything, mock.Anything).Return(nil).Once()
		store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasSuffix(key, "-second.txt")
		}), mock.Anything, mock.Anything).Return(errors.New("bucket unreachable")).Once()
		store.On("Delete", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasSuffix(key, "-first.txt")
		})).Return(errors.New("AccessDenied")).Once()

		_, err := uc.AddDocuments(ctx, view.ID, []domain.FileUpload{
			{Filename: "first.txt", Data: []byte("one")},
			{Filename: "second.txt", Data: []byte("two")},
		})
		assert.Equal(t, http.StatusServiceUnavailable, appErrorCode(t, err))
		store.AssertExpectations(t)
	})
}

func TestApplicationFormLocking(t *testing.T) {
	ctx := context.Background()

	newLockedUsecase := func(locker domain.SessionLocker) *applicationFormUsecase {
		uc := NewApplicationFormUsecase(memory.NewFormSessionRepository(time.Hour), &MockSink{}, ApplicationFormConfig{
			MaxResumeBytes: 1 << 20,
			Locker:         locker,
			Now:            func() time.Time { return fixedNow },
		})
		return uc.(*applicationFormUsecase)
	}

	t.Run("Should take and release the shared lock around each event", func(t *testing.T) {
		locker := new(MockLocker)
		uc := newLockedUsecase(locker)
		view, err := uc.Create(ctx)
		require.NoError(t, err)

		released := 0
		locker.On("Lock", ctx, view.ID).Return(func() { released++ }, nil)

		_, err = uc.ChangeField(ctx, view.ID, "firstname", "Tyler")
		require.NoError(t, err)
		_, err = uc.Submit(ctx, view.ID)
		require.Error(t, err)
		require.NoError(t, uc.Discard(ctx, view.ID))

		locker.AssertNumberOfCalls(t, "Lock", 3)
		assert.Equal(t, 3, released)
		assert.Equal(t, 0, uc.locks.size())
	})

	t.Run("Should return 503 and leave the session untouched when busy", func(t *testing.T) {
		locker := new(MockLocker)
		uc := newLockedUsecase(locker)
		view, err := uc.Create(ctx)
		require.NoError(t, err)

		locker.On("Lock", ctx, view.ID).Return(nil, fmt.Errorf("lock form session %s: %w", view.ID, domain.ErrSessionBusy))

		_, err = uc.ChangeField(ctx, view.ID, "firstname", "Tyler")
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, http.StatusServiceUnavailable, appErr.Code)
		assert.Equal(t, MsgSessionBusy, appErr.Message)
		assert.Equal(t, 0, uc.locks.size())

		got, err := uc.Get(ctx, view.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Profile.Firstname)

		_, err = uc.Submit(ctx, view.ID)
		assert.Equal(t, http.StatusServiceUnavailable, appErrorCode(t, err))
		assert.Equal(t, http.StatusServiceUnavailable, appErrorCode(t, uc.Discard(ctx, view.ID)))
	})
}

func TestApplicationFormSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return 422 with the fill-required message on a fresh form", func(t *testing.T) {
		sink := new(MockSink)
		uc := newTestUsecase(sink)
		view, err := uc.Create(ctx)
		require.NoError(t, err)

		_, err = uc.Submit(ctx, view.ID)
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, http.StatusUnprocessableEntity, appErr.Code)
		assert.Equal(t, "Please fill out all required fields.", appErr.Message)
		sink.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("Should list active errors when blocked", func(t *testing.T) {
		uc := newTestUsecase(new(MockSink))
		view, err := uc.Create(ctx)
		require.NoError(t, err)

		_, err = uc.BlurField(ctx, view.ID, "email", "bad")
		require.NoError(t, err)
		_, err = uc.UpdateWorkExperience(ctx, view.ID, 1, "jobTitle", "")
		require.NoError(t, err)
		_, err = uc.RemoveResume(ctx, view.ID)
		require.NoError(t, err)

		_, err = uc.Submit(ctx, view.ID)
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		result, ok := appErr.Details.(*domain.SubmissionResult)
		require.True(t, ok)
		assert.False(t, result.Submitted)
		assert.Equal(t, []string{
			"Invalid email",
			"Resume is required",
			"Work Experience #1: Job title is required.",
		}, result.Errors)
	})

	t.Run("Should block and keep the error for an email that was never blurred", func(t *testing.T) {
		sink := new(MockSink)
		uc := newTestUsecase(sink)
		view, err := uc.Create(ctx)
		require.NoError(t, err)

		fillProfile(t, uc, view.ID)
		_, err = uc.AttachResume(ctx, view.ID, domain.FileUpload{Filename: "resume.pdf", Data: pdfBytes})
		require.NoError(t, err)
		_, err = uc.ChangeField(ctx, view.ID, "email", "t @d.com")
		require.NoError(t, err)

		_, err = uc.Submit(ctx, view.ID)
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, http.StatusUnprocessableEntity, appErr.Code)
		assert.Equal(t, "Please fix the following errors:\nInvalid email", appErr.Message)
		sink.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)

		got, err := uc.Get(ctx, view.ID)
		require.NoError(t, err)
		assert.Equal(t, "Invalid email", got.Errors.Fields["email"])
	})

	t.Run("Should hand the bundle to the sink and keep the form", func(t *testing.T) {
		sink := new(MockSink)
		uc := newTestUsecase(sink)
		view, err := uc.Create(ctx)
		require.NoError(t, err)

		fillProfile(t, uc, view.ID)
		_, err = uc.AttachResume(ctx, view.ID, domain.FileUpload{Filename: "resume.pdf", Data: pdfBytes})
		require.NoError(t, err)

		sink.On("Submit", ctx, mock.MatchedBy(func(b domain.ApplicationBundle) bool {
			return b.FormID == view.ID && b.Profile.Lastname == "Durden" && b.Resume.Name == "resume.pdf"
		})).Return(nil).Once()

		result, err := uc.Submit(ctx, view.ID)
		require.NoError(t, err)
		assert.True(t, result.Submitted)
		assert.Equal(t, "Your application has been submitted", result.Message)
		sink.AssertExpectations(t)

		got, err := uc.Get(ctx, view.ID)
		require.NoError(t, err)
		assert.Equal(t, "Tyler", got.Profile.Firstname)
	})

	t.Run("Should report sink failures as bad gateway", func(t *testing.T) {
		sink := new(MockSink)
		uc := newTestUsecase(sink)
		view, err := uc.Create(ctx)
		require.NoError(t, err)

		fillProfile(t, uc, view.ID)
		_, err = uc.AttachResume(ctx, view.ID, domain.FileUpload{Filename: "resume.pdf", Data: pdfBytes})
		require.NoError(t, err)

		sink.On("Submit", ctx, mock.AnythingOfType("domain.ApplicationBundle")).Return(errors.New("upstream down"))

		_, err = uc.Submit(ctx, view.ID)
		assert.Equal(t, http.StatusBadGateway, appErrorCode(t, err))
	})
}

func TestValidateApplication(t *testing.T) {
	ctx := context.Background()
	uc := newTestUsecase(new(MockSink))

	t.Run("Should replay a complete document", func(t *testing.T) {
		doc := []byte(`{
			"profile": {"firstname": "Tyler", "lastname": "Durden", "email": "t@d.com", "phoneNumber": "(302) 555-0100"},
			"education": [{"schoolType": "undergraduate", "schoolName": "State", "gradDate": "2010-05-01", "degree": "bachelors"}],
			"workExperience": [{"jobTitle": "Soap maker", "companyName": "Paper Street", "startDate": "2020-01-01", "endDate": "2021-01-01"}],
			"resume": {"name": "resume.pdf", "size": 1024}
		}`)

		view, err := uc.ValidateApplication(ctx, doc)
		require.NoError(t, err)
		assert.False(t, view.Blocked)
		assert.Equal(t, "Tyler", view.Profile.Firstname)
		require.Len(t, view.WorkExperience, 1)
	})

	t.Run("Should return form errors for bad values", func(t *testing.T) {
		doc := []byte(`{
			"profile": {"firstname": "Tyler", "lastname": "", "email": "bad", "phoneNumber": "123"},
			"workExperience": [{"jobTitle": "Soap maker", "companyName": "Paper Street", "startDate": "2021-01-01", "endDate": "2020-01-01"}]
		}`)

		view, err := uc.ValidateApplication(ctx, doc)
		require.NoError(t, err)
		assert.True(t, view.Blocked)
		assert.Equal(t, "Lastname is required", view.Errors.Fields["lastname"])
		assert.Equal(t, "Invalid email", view.Errors.Fields["email"])
		assert.Equal(t, "Resume is required", view.Errors.Fields["resume"])
		assert.Empty(t, view.Education)
		require.Len(t, view.Errors.WorkExperience, 1)
	})

	t.Run("Should reject documents of the wrong shape", func(t *testing.T) {
		_, err := uc.ValidateApplication(ctx, []byte(`{"profile": {"firstname": 3}, "extra": true}`))
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, http.StatusBadRequest, appErr.Code)
		assert.Len(t, appErr.Details, 2)

		_, err = uc.ValidateApplication(ctx, []byte(`{"profile": {}, "demographics": {"gender": "robot"}}`))
		assert.Equal(t, http.StatusBadRequest, appErrorCode(t, err))

		_, err = uc.ValidateApplication(ctx, []byte(`{not json`))
		assert.Equal(t, http.StatusBadRequest, appErrorCode(t, err))
	})
}

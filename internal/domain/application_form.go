package domain

import (
	"context"
	"errors"
	"time"
)

// Field names are used both as JSON keys and as the "field" parameter of
// change/update events, so they stay in the front end's camelCase.

// SchoolType is the education type select
type SchoolType string

const (
	SchoolTypeUnset         SchoolType = ""
	SchoolTypeHighSchool    SchoolType = "highschool"
	SchoolTypeUndergraduate SchoolType = "undergraduate"
	SchoolTypeGraduate      SchoolType = "graduate"
	SchoolTypeDoctorate     SchoolType = "doctorate"
)

// Degree is the degree collected select
type Degree string

const (
	DegreeUnset     Degree = ""
	DegreeDiploma   Degree = "highschooldiploma"
	DegreeBachelors Degree = "bachelors"
	DegreeMasters   Degree = "masters"
	DegreeDoctoral  Degree = "doctoral"
)

type ApplicantProfile struct {
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// Address is optional and never validated
type Address struct {
	Street string `json:"street" binding:"max=200"`
	City   string `json:"city" binding:"max=100"`
	Zip    string `json:"zip" binding:"max=10"`
	State  string `json:"state" binding:"omitempty,len=2"`
}

type EducationEntry struct {
	ID         int        `json:"id"`
	SchoolType SchoolType `json:"schoolType"`
	SchoolName string     `json:"schoolName"`
	State      string     `json:"state"`
	GradDate   string     `json:"gradDate"`
	Degree     Degree     `json:"degree"`
}

type WorkExperienceEntry struct {
	ID          int    `json:"id"`
	JobTitle    string `json:"jobTitle"`
	CompanyName string `json:"companyName"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Duties      string `json:"duties"`
}

// Demographics holds the optional self-identification selects.
// Empty values mean "Please Select".
type Demographics struct {
	Race            string `json:"race" binding:"omitempty,oneof=White Black 'Native Indian' Hawaiian Hispanic Asian Multiple Decline"`
	Gender          string `json:"gender" binding:"omitempty,oneof=male female other Decline"`
	WillingToTravel string `json:"willingToTravel" binding:"omitempty,oneof=yes no"`
}

// FileRef references an uploaded file. The bytes are not kept.
type FileRef struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	UploadedAt  time.Time `json:"uploadedAt"`
	// StorageKey locates the content in the upload store, when one is configured
	StorageKey string `json:"storageKey,omitempty"`
}

// FileUpload is a file handed over by the file picker
type FileUpload struct {
	Filename string
	Data     []byte
}

// EntryError is one error record of a repeatable section.
// An empty Message means no error.
type EntryError struct {
	EntryID int    `json:"entryId"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// EntryErrors holds one record per rule for a single entry, keyed by rule
type EntryErrors map[string]EntryError

// ErrorState is the form's error map. Empty messages are never stored.
type ErrorState struct {
	Fields         map[string]string   `json:"fields"`
	Education      map[int]EntryErrors `json:"education"`
	WorkExperience map[int]EntryErrors `json:"workExperience"`
}

// FormState is the complete in-progress state of one application form
type FormState struct {
	ID             string                `json:"id"`
	Profile        ApplicantProfile      `json:"profile"`
	Address        Address               `json:"address"`
	Education      []EducationEntry      `json:"education"`
	WorkExperience []WorkExperienceEntry `json:"workExperience"`
	Resume         *FileRef              `json:"resume,omitempty"`
	Documents      []FileRef             `json:"documents"`
	Demographics   Demographics          `json:"demographics"`
	Errors         ErrorState            `json:"errors"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// ErrorView is the error state flattened for display, records in entry order
type ErrorView struct {
	Fields         map[string]string `json:"fields"`
	Education      []EntryError      `json:"education"`
	WorkExperience []EntryError      `json:"workExperience"`
}

// FormView is the snapshot returned to the rendering layer after every event
type FormView struct {
	ID             string                `json:"id"`
	Profile        ApplicantProfile      `json:"profile"`
	Address        Address               `json:"address"`
	Education      []EducationEntry      `json:"education"`
	WorkExperience []WorkExperienceEntry `json:"workExperience"`
	Resume         *FileRef              `json:"resume,omitempty"`
	Documents      []FileRef             `json:"documents"`
	Demographics   Demographics          `json:"demographics"`
	Errors         ErrorView             `json:"errors"`
	Blocked        bool                  `json:"blocked"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// ApplicationBundle is what the submission sink receives
type ApplicationBundle struct {
	FormID         string                `json:"formId"`
	Profile        ApplicantProfile      `json:"profile"`
	Address        Address               `json:"address"`
	Education      []EducationEntry      `json:"education"`
	WorkExperience []WorkExperienceEntry `json:"workExperience"`
	Resume         FileRef               `json:"resume"`
	Documents      []FileRef             `json:"documents"`
	Demographics   Demographics          `json:"demographics"`
	SubmittedAt    time.Time             `json:"submittedAt"`
}

// SubmissionResult is returned by a submit attempt
type SubmissionResult struct {
	Submitted bool     `json:"submitted"`
	Message   string   `json:"message"`
	Errors    []string `json:"errors,omitempty"`
}

// ErrSessionNotFound is returned by repositories for unknown or expired sessions
var ErrSessionNotFound = errors.New("form session not found")

// ErrSessionBusy is returned by a SessionLocker that could not take the lock in time
var ErrSessionBusy = errors.New("form session is busy")

// SessionLocker serializes events on one session across API instances. Lock
// blocks until the lock is held, ctx ends or the locker gives up.
type SessionLocker interface {
	Lock(ctx context.Context, id string) (unlock func(), err error)
}

// FormSessionRepository stores in-progress form state. Implementations must be
// safe for concurrent use.
type FormSessionRepository interface {
	Create(ctx context.Context, state *FormState) error
	Get(ctx context.Context, id string) (*FormState, error)
	Save(ctx context.Context, state *FormState) error
	Delete(ctx context.Context, id string) error
}

// SubmissionSink receives a validated application. Its own delivery is opaque.
type SubmissionSink interface {
	Submit(ctx context.Context, bundle ApplicationBundle) error
}

// UploadStore keeps the content of accepted uploads
type UploadStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// ApplicationFormUsecase defines the operations the rendering layer drives
type ApplicationFormUsecase interface {
	// Session lifecycle
	Create(ctx context.Context) (*FormView, error)
	Get(ctx context.Context, id string) (*FormView, error)
	Discard(ctx context.Context, id string) error

	// Top-level fields. Change stores the value; Blur also runs on-blur validation.
	ChangeField(ctx context.Context, id, field, value string) (*FormView, error)
	BlurField(ctx context.Context, id, field, value string) (*FormView, error)
	SetAddress(ctx context.Context, id string, address Address) (*FormView, error)
	SetDemographics(ctx context.Context, id string, d Demographics) (*FormView, error)

	// Repeatable sections
	AddEducation(ctx context.Context, id string) (*FormView, error)
	RemoveEducation(ctx context.Context, id string, entryID int) (*FormView, error)
	UpdateEducation(ctx context.Context, id string, entryID int, field, value string) (*FormView, error)
	AddWorkExperience(ctx context.Context, id string) (*FormView, error)
	RemoveWorkExperience(ctx context.Context, id string, entryID int) (*FormView, error)
	UpdateWorkExperience(ctx context.Context, id string, entryID int, field, value string) (*FormView, error)

	// Files
	AttachResume(ctx context.Context, id string, upload FileUpload) (*FormView, error)
	RemoveResume(ctx context.Context, id string) (*FormView, error)
	AddDocuments(ctx context.Context, id string, uploads []FileUpload) (*FormView, error)
	ClearDocuments(ctx context.Context, id string) (*FormView, error)

	// Gate
	Readiness(ctx context.Context, id string) (bool, error)
	Submit(ctx context.Context, id string) (*SubmissionResult, error)

	// ValidateApplication replays a complete application document through a fresh form
	ValidateApplication(ctx context.Context, document []byte) (*FormView, error)
}

// ApplicationDocument is a complete application sent in one request.
// Entry ids are ignored and reassigned in order.
type ApplicationDocument struct {
	Profile        ApplicantProfile      `json:"profile"`
	Address        Address               `json:"address"`
	Education      []EducationEntry      `json:"education"`
	WorkExperience []WorkExperienceEntry `json:"workExperience"`
	Resume         *FileRef              `json:"resume"`
	Documents      []FileRef             `json:"documents"`
	Demographics   Demographics          `json:"demographics"`
}

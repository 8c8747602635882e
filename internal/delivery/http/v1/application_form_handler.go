package v1

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"go-application-form/internal/delivery/http/response"
	"go-application-form/internal/domain"
	"go-application-form/pkg/apperror"
	"go-application-form/pkg/validation"

	"github.com/gin-gonic/gin"
)

type ApplicationFormHandler struct {
	formUC         domain.ApplicationFormUsecase
	maxUploadBytes int64
}

// NewApplicationFormHandler registers the form session routes
func NewApplicationFormHandler(public *gin.RouterGroup, uploads gin.HandlerFunc, formUC domain.ApplicationFormUsecase, maxUploadBytes int64) {
	handler := &ApplicationFormHandler{
		formUC:         formUC,
		maxUploadBytes: maxUploadBytes,
	}

	forms := public.Group("/forms")
	{
		forms.POST("", handler.CreateForm)
		forms.GET("/:id", handler.GetForm)
		forms.DELETE("/:id", handler.DiscardForm)

		forms.PATCH("/:id/fields", handler.FieldEvent)
		forms.PUT("/:id/address", handler.SetAddress)
		forms.PUT("/:id/demographics", handler.SetDemographics)

		forms.POST("/:id/education", handler.AddEducation)
		forms.PATCH("/:id/education/:entryId", handler.UpdateEducation)
		forms.DELETE("/:id/education/:entryId", handler.RemoveEducation)

		forms.POST("/:id/work-experience", handler.AddWorkExperience)
		forms.PATCH("/:id/work-experience/:entryId", handler.UpdateWorkExperience)
		forms.DELETE("/:id/work-experience/:entryId", handler.RemoveWorkExperience)

		forms.PUT("/:id/resume", uploads, handler.AttachResume)
		forms.DELETE("/:id/resume", handler.RemoveResume)
		forms.POST("/:id/documents", uploads, handler.AddDocuments)
		forms.DELETE("/:id/documents", handler.ClearDocuments)

		forms.GET("/:id/readiness", handler.Readiness)
		forms.POST("/:id/submit", handler.Submit)
	}

	public.POST("/applications/validate", handler.ValidateApplication)
}

// CreateForm godoc
// @Summary      Start Application Form
// @Description  Creates a form session with one blank education entry and one blank work-experience entry.
// @Tags         forms
// @Produce      json
// @Success      201  {object}  response.Response{data=domain.FormView}
// @Failure      500  {object}  response.Response
// @Router       /forms [post]
func (h *ApplicationFormHandler) CreateForm(c *gin.Context) {
	view, err := h.formUC.Create(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Form created", view)
}

// GetForm godoc
// @Summary      Get Application Form
// @Tags         forms
// @Produce      json
// @Param        id   path      string  true  "Form ID"
// @Success      200  {object}  response.Response{data=domain.FormView}
// @Failure      404  {object}  response.Response
// @Router       /forms/{id} [get]
func (h *ApplicationFormHandler) GetForm(c *gin.Context) {
	view, err := h.formUC.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Form retrieved", view)
}

// DiscardForm godoc
// @Summary      Discard Application Form
// @Tags         forms
// @Produce      json
// @Param        id   path      string  true  "Form ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /forms/{id} [delete]
func (h *ApplicationFormHandler) DiscardForm(c *gin.Context) {
	if err := h.formUC.Discard(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Form discarded", nil)
}

// FieldEvent godoc
// @Summary      Change or Blur a Field
// @Description  Applies an input change or blur to firstname, lastname, email or phoneNumber. Email is validated on blur only.
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        id     path      string                    true  "Form ID"
// @Param        event  body      domain.FieldEventRequest  true  "Field event"
// @Success      200    {object}  response.Response{data=domain.FormView}
// @Failure      400    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /forms/{id}/fields [patch]
func (h *ApplicationFormHandler) FieldEvent(c *gin.Context) {
	var req domain.FieldEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	var (
		view *domain.FormView
		err  error
	)
	if req.Event == "blur" {
		view, err = h.formUC.BlurField(c.Request.Context(), c.Param("id"), req.Field, req.Value)
	} else {
		view, err = h.formUC.ChangeField(c.Request.Context(), c.Param("id"), req.Field, req.Value)
	}
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Field updated", view)
}

// SetAddress godoc
// @Summary      Set Mailing Address
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        id       path      string          true  "Form ID"
// @Param        address  body      domain.Address  true  "Address"
// @Success      200      {object}  response.Response{data=domain.FormView}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /forms/{id}/address [put]
func (h *ApplicationFormHandler) SetAddress(c *gin.Context) {
	var req domain.Address
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	view, err := h.formUC.SetAddress(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Address updated", view)
}

// SetDemographics godoc
// @Summary      Set Demographics
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        id            path      string               true  "Form ID"
// @Param        demographics  body      domain.Demographics  true  "Demographics"
// @Success      200           {object}  response.Response{data=domain.FormView}
// @Failure      400           {object}  response.Response
// @Failure      404           {object}  response.Response
// @Router       /forms/{id}/demographics [put]
func (h *ApplicationFormHandler) SetDemographics(c *gin.Context) {
	var req domain.Demographics
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	view, err := h.formUC.SetDemographics(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Demographics updated", view)
}

// AddEducation godoc
// @Summary      Add Education Entry
// @Tags         education
// @Produce      json
// @Param        id   path      string  true  "Form ID"
// @Success      201  {object}  response.Response{data=domain.FormView}
// @Failure      404  {object}  response.Response
// @Router       /forms/{id}/education [post]
func (h *ApplicationFormHandler) AddEducation(c *gin.Context) {
	view, err := h.formUC.AddEducation(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Education entry added", view)
}

// UpdateEducation godoc
// @Summary      Update Education Entry Field
// @Description  Sets one of schoolType, schoolName, state, gradDate, degree. gradDate is validated.
// @Tags         education
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Form ID"
// @Param        entryId  path      int                       true  "Entry ID"
// @Param        field    body      domain.EntryFieldRequest  true  "Field update"
// @Success      200      {object}  response.Response{data=domain.FormView}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /forms/{id}/education/{entryId} [patch]
func (h *ApplicationFormHandler) UpdateEducation(c *gin.Context) {
	entryID, ok := entryParam(c)
	if !ok {
		return
	}
	var req domain.EntryFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	view, err := h.formUC.UpdateEducation(c.Request.Context(), c.Param("id"), entryID, req.Field, req.Value)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Education entry updated", view)
}

// RemoveEducation godoc
// @Summary      Remove Education Entry
// @Description  Removing an unknown entry is a no-op.
// @Tags         education
// @Produce      json
// @Param        id       path      string  true  "Form ID"
// @Param        entryId  path      int     true  "Entry ID"
// @Success      200      {object}  response.Response{data=domain.FormView}
// @Failure      404      {object}  response.Response
// @Router       /forms/{id}/education/{entryId} [delete]
func (h *ApplicationFormHandler) RemoveEducation(c *gin.Context) {
	entryID, ok := entryParam(c)
	if !ok {
		return
	}
	view, err := h.formUC.RemoveEducation(c.Request.Context(), c.Param("id"), entryID)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Education entry removed", view)
}

// AddWorkExperience godoc
// @Summary      Add Work Experience Entry
// @Tags         work-experience
// @Produce      json
// @Param        id   path      string  true  "Form ID"
// @Success      201  {object}  response.Response{data=domain.FormView}
// @Failure      404  {object}  response.Response
// @Router       /forms/{id}/work-experience [post]
func (h *ApplicationFormHandler) AddWorkExperience(c *gin.Context) {
	view, err := h.formUC.AddWorkExperience(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Work experience entry added", view)
}

// UpdateWorkExperience godoc
// @Summary      Update Work Experience Entry Field
// @Description  Sets one of jobTitle, companyName, location, startDate, endDate, duties. Title, company and dates are validated.
// @Tags         work-experience
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Form ID"
// @Param        entryId  path      int                       true  "Entry ID"
// @Param        field    body      domain.EntryFieldRequest  true  "Field update"
// @Success      200      {object}  response.Response{data=domain.FormView}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /forms/{id}/work-experience/{entryId} [patch]
func (h *ApplicationFormHandler) UpdateWorkExperience(c *gin.Context) {
	entryID, ok := entryParam(c)
	if !ok {
		return
	}
	var req domain.EntryFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	view, err := h.formUC.UpdateWorkExperience(c.Request.Context(), c.Param("id"), entryID, req.Field, req.Value)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Work experience entry updated", view)
}

// RemoveWorkExperience godoc
// @Summary      Remove Work Experience Entry
// @Description  Removing an unknown entry is a no-op.
// @Tags         work-experience
// @Produce      json
// @Param        id       path      string  true  "Form ID"
// @Param        entryId  path      int     true  "Entry ID"
// @Success      200      {object}  response.Response{data=domain.FormView}
// @Failure      404      {object}  response.Response
// @Router       /forms/{id}/work-experience/{entryId} [delete]
func (h *ApplicationFormHandler) RemoveWorkExperience(c *gin.Context) {
	entryID, ok := entryParam(c)
	if !ok {
		return
	}
	view, err := h.formUC.RemoveWorkExperience(c.Request.Context(), c.Param("id"), entryID)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Work experience entry removed", view)
}

// AttachResume godoc
// @Summary      Attach Resume
// @Description  Uploads the resume (pdf, doc, docx, rtf, txt). A rejected file is reported in errors.fields.resume.
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Param        id      path      string  true  "Form ID"
// @Param        resume  formData  file    true  "Resume file"
// @Success      200     {object}  response.Response{data=domain.FormView}
// @Failure      400     {object}  response.Response
// @Failure      404     {object}  response.Response
// @Failure      429     {object}  response.Response
// @Failure      503     {object}  response.Response
// @Router       /forms/{id}/resume [put]
func (h *ApplicationFormHandler) AttachResume(c *gin.Context) {
	fh, err := c.FormFile("resume")
	if err != nil {
		c.Error(apperror.BadRequest("Resume file is required"))
		return
	}
	upload, err := h.readUpload(fh)
	if err != nil {
		c.Error(apperror.BadRequest("Could not read uploaded file"))
		return
	}

	view, err := h.formUC.AttachResume(c.Request.Context(), c.Param("id"), upload)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Resume processed", view)
}

// RemoveResume godoc
// @Summary      Remove Resume
// @Tags         files
// @Produce      json
// @Param        id   path      string  true  "Form ID"
// @Success      200  {object}  response.Response{data=domain.FormView}
// @Failure      404  {object}  response.Response
// @Router       /forms/{id}/resume [delete]
func (h *ApplicationFormHandler) RemoveResume(c *gin.Context) {
	view, err := h.formUC.RemoveResume(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Resume removed", view)
}

// AddDocuments godoc
// @Summary      Add Supplementary Documents
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Param        id         path      string  true  "Form ID"
// @Param        documents  formData  file    true  "Documents (repeatable)"
// @Success      200        {object}  response.Response{data=domain.FormView}
// @Failure      400        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Failure      429        {object}  response.Response
// @Failure      503        {object}  response.Response
// @Router       /forms/{id}/documents [post]
func (h *ApplicationFormHandler) AddDocuments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.Error(apperror.BadRequest("Invalid multipart form"))
		return
	}

	files := form.File["documents"]
	uploads := make([]domain.FileUpload, 0, len(files))
	for _, fh := range files {
		upload, err := h.readUpload(fh)
		if err != nil {
			c.Error(apperror.BadRequest("Could not read uploaded file"))
			return
		}
		uploads = append(uploads, upload)
	}

	view, err := h.formUC.AddDocuments(c.Request.Context(), c.Param("id"), uploads)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Documents added", view)
}

// ClearDocuments godoc
// @Summary      Clear Supplementary Documents
// @Tags         files
// @Produce      json
// @Param        id   path      string  true  "Form ID"
// @Success      200  {object}  response.Response{data=domain.FormView}
// @Failure      404  {object}  response.Response
// @Router       /forms/{id}/documents [delete]
func (h *ApplicationFormHandler) ClearDocuments(c *gin.Context) {
	view, err := h.formUC.ClearDocuments(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Documents cleared", view)
}

// Readiness godoc
// @Summary      Check Submission Readiness
// @Description  blocked is true while the form must not be submitted.
// @Tags         forms
// @Produce      json
// @Param        id   path      string  true  "Form ID"
// @Success      200  {object}  response.Response{data=domain.ReadinessResponse}
// @Failure      404  {object}  response.Response
// @Router       /forms/{id}/readiness [get]
func (h *ApplicationFormHandler) Readiness(c *gin.Context) {
	blocked, err := h.formUC.Readiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Readiness checked", domain.ReadinessResponse{Blocked: blocked})
}

// Submit godoc
// @Summary      Submit Application
// @Description  Runs the submission gate. A blocked form returns 422 with the consolidated message and the list of errors.
// @Tags         forms
// @Produce      json
// @Param        id   path      string  true  "Form ID"
// @Success      200  {object}  response.Response{data=domain.SubmissionResult}
// @Failure      404  {object}  response.Response
// @Failure      422  {object}  response.Response{error=domain.SubmissionResult}
// @Failure      502  {object}  response.Response
// @Router       /forms/{id}/submit [post]
func (h *ApplicationFormHandler) Submit(c *gin.Context) {
	result, err := h.formUC.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, result.Message, result)
}

// ValidateApplication godoc
// @Summary      Validate Complete Application
// @Description  Replays a complete application document through a fresh form and returns the result. Nothing is stored.
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        application  body      domain.ApplicationDocument  true  "Application"
// @Success      200          {object}  response.Response{data=domain.FormView}
// @Failure      400          {object}  response.Response
// @Router       /applications/validate [post]
func (h *ApplicationFormHandler) ValidateApplication(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.Error(apperror.BadRequest("Could not read request body"))
		return
	}

	view, err := h.formUC.ValidateApplication(c.Request.Context(), body)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Application validated", view)
}

// readUpload reads at most maxUploadBytes+1 bytes so oversized files are
// still reported as too large by the file validator
func (h *ApplicationFormHandler) readUpload(fh *multipart.FileHeader) (domain.FileUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.FileUpload{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if h.maxUploadBytes > 0 {
		r = io.LimitReader(f, h.maxUploadBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.FileUpload{}, err
	}
	return domain.FileUpload{Filename: fh.Filename, Data: data}, nil
}

func entryParam(c *gin.Context) (int, bool) {
	entryID, err := strconv.Atoi(c.Param("entryId"))
	if err != nil || entryID < 1 {
		c.Error(apperror.BadRequest("Invalid entry id"))
		return 0, false
	}
	return entryID, true
}

func bindError(err error) error {
	if messages := validation.FormatValidationErrors(err); len(messages) > 0 {
		return apperror.BadRequest("Invalid request").WithDetails(messages)
	}
	return apperror.BadRequest("Invalid request body")
}

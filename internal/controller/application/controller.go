// Package application provides HTTP handlers for job application operations.
package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"UniJobBoard-backend/internal/apperror"
	appflow "UniJobBoard-backend/internal/application"
	"UniJobBoard-backend/internal/database"
	"UniJobBoard-backend/internal/model"
	"UniJobBoard-backend/internal/utilities"
)

// ApplicationController handles job application related endpoints
type ApplicationController struct {
	Workflow *appflow.Workflow
}

// NewApplicationController creates a new instance of ApplicationController over the application workflow.
func NewApplicationController(workflow *appflow.Workflow) *ApplicationController {
	return &ApplicationController{
		Workflow: workflow,
	}
}

// StatusRequest is the body of a single status change.
type StatusRequest struct {
	Status model.ApplicationStatus `json:"status" binding:"required"`
}

// BulkStatusRequest is the body of a bulk status change.
type BulkStatusRequest struct {
	IDs    []uuid.UUID             `json:"ids" binding:"required,min=1"`
	Status model.ApplicationStatus `json:"status" binding:"required"`
}

// BulkStatusResponse reports how many applications changed.
type BulkStatusResponse struct {
	Updated int64 `json:"updated"`
}

// HasAppliedResponse answers whether the caller applied to a job.
type HasAppliedResponse struct {
	HasApplied bool `json:"has_applied"`
}

// ApplicationHandler handles the creation of a new job application by a student.
// @Summary Create job application
// @Description Multipart form with job_id, cover_letter and an optional resume file
// @Tags Application
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param job_id formData string true "Job post ID"
// @Param cover_letter formData string true "Cover letter"
// @Param resume formData file false "Résumé"
// @Success 201 {object} model.Application "Successfully apply job post"
// @Failure 400 {object} utilities.ErrorResponse "Invalid form"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 404 {object} utilities.ErrorResponse "Job post not found"
// @Failure 409 {object} utilities.ErrorResponse "Already applied"
// @Failure 413 {object} utilities.ErrorResponse "Résumé too large"
// @Failure 422 {object} utilities.ErrorResponse "Job post inactive or deadline passed"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /applications [post]
func (ac *ApplicationController) ApplicationHandler(c *gin.Context) {
	if _, err := c.MultipartForm(); err != nil {
		if tooLarge(c, err) {
			return
		}
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid multipart form: %s", err.Error()),
			Code:  apperror.Code(apperror.ErrValidationFailed),
		})
		return
	}

	jobID, err := uuid.Parse(c.PostForm("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Invalid job post ID",
			Code:  apperror.Code(apperror.ErrValidationFailed),
		})
		return
	}

	coverLetter := c.PostForm("cover_letter")
	if strings.TrimSpace(coverLetter) == "" {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Cover letter is required",
			Code:  apperror.Code(apperror.ErrValidationFailed),
		})
		return
	}

	in := appflow.CreateInput{
		JobID:       jobID,
		CoverLetter: coverLetter,
	}

	fileHeader, err := c.FormFile("resume")
	switch {
	case err == nil:
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: fmt.Sprintf("Cannot open resume: %s", err.Error())})
			return
		}
		defer func() { _ = file.Close() }()
		in.Resume = &appflow.ResumeFile{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Body:        file,
		}
	case errors.Is(err, http.ErrMissingFile):
	default:
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: fmt.Sprintf("Invalid resume: %s", err.Error())})
		return
	}

	app, err := ac.Workflow.Create(c.Request.Context(), in)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, app)
}

// GetApplication returns one application with its applicant and job.
// @Summary Get application by ID
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Application ID"
// @Success 200 {object} model.Application "Application"
// @Failure 403 {object} utilities.ErrorResponse "Neither the applicant nor the job owner"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Router /applications/{id} [get]
func (ac *ApplicationController) GetApplication(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	app, err := ac.Workflow.Get(c.Request.Context(), id)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	if !canView(user, app) {
		utilities.AbortWithError(c, apperror.ErrPermissionDenied)
		return
	}

	c.JSON(http.StatusOK, app)
}

// ListByJob returns every application of a job, newest first.
// @Summary Get applications of a job post
// @Description Only the job owner or an admin can list applications
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Job post ID"
// @Success 200 {array} model.Application "Applications"
// @Failure 403 {object} utilities.ErrorResponse "Not the job owner"
// @Failure 404 {object} utilities.ErrorResponse "Job post not found"
// @Router /jobs/{id}/applications [get]
func (ac *ApplicationController) ListByJob(c *gin.Context) {
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !ac.authorizeJobOwner(c, jobID) {
		return
	}

	apps, err := ac.Workflow.ListByJob(c.Request.Context(), jobID)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

// JobStats counts the applications of a job per status.
// @Summary Get application counters of a job post
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Job post ID"
// @Success 200 {object} model.ApplicationStats "Counters"
// @Failure 403 {object} utilities.ErrorResponse "Not the job owner"
// @Router /jobs/{id}/applications/stats [get]
func (ac *ApplicationController) JobStats(c *gin.Context) {
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !ac.authorizeJobOwner(c, jobID) {
		return
	}

	stats, err := ac.Workflow.Stats(c.Request.Context(), jobID)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListMine returns the signed in student's applications, newest first.
// @Summary Get own applications
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Application "Applications"
// @Router /applications/mine [get]
func (ac *ApplicationController) ListMine(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	apps, err := ac.Workflow.ListByApplicant(c.Request.Context(), user.ID)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

// HasApplied reports whether the signed in user applied to a job.
// @Summary Check if already applied
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Job post ID"
// @Success 200 {object} HasAppliedResponse "Result"
// @Router /jobs/{id}/applied [get]
func (ac *ApplicationController) HasApplied(c *gin.Context) {
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, HasAppliedResponse{
		HasApplied: ac.Workflow.HasApplied(c.Request.Context(), jobID, nil),
	})
}

// UpdateStatus changes the status of one application and notifies the applicant.
// @Summary Update application status
// @Description Only the job owner or an admin. pending can move to reviewed, accepted or rejected, reviewed to accepted or rejected
// @Tags Application
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Application ID"
// @Param status body StatusRequest true "New status"
// @Success 200 {object} model.Application "Updated application"
// @Failure 400 {object} utilities.ErrorResponse "Unknown status"
// @Failure 403 {object} utilities.ErrorResponse "Not the job owner"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Failure 422 {object} utilities.ErrorResponse "Transition not allowed"
// @Router /applications/{id}/status [patch]
func (ac *ApplicationController) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
			Code:  apperror.Code(apperror.ErrValidationFailed),
		})
		return
	}

	app, err := ac.Workflow.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// BulkUpdateStatus changes the status of several applications at once without notifying anyone.
// @Summary Bulk update application status
// @Tags Application
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param body body BulkStatusRequest true "Applications and new status"
// @Success 200 {object} BulkStatusResponse "Number of updated applications"
// @Failure 400 {object} utilities.ErrorResponse "Invalid body"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner of every job"
// @Failure 404 {object} utilities.ErrorResponse "Some application not found"
// @Failure 422 {object} utilities.ErrorResponse "Transition not allowed"
// @Router /applications/status [patch]
func (ac *ApplicationController) BulkUpdateStatus(c *gin.Context) {
	var req BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
			Code:  apperror.Code(apperror.ErrValidationFailed),
		})
		return
	}

	n, err := ac.Workflow.BulkUpdateStatus(c.Request.Context(), req.IDs, req.Status)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, BulkStatusResponse{Updated: n})
}

// DeleteApplication withdraws a pending application together with its résumé.
// @Summary Withdraw application
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Application ID"
// @Success 200 {object} utilities.MessageResponse "Application withdrawn"
// @Failure 403 {object} utilities.ErrorResponse "Not the applicant"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Failure 422 {object} utilities.ErrorResponse "Application already reviewed"
// @Router /applications/{id} [delete]
func (ac *ApplicationController) DeleteApplication(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := ac.Workflow.Delete(c.Request.Context(), id); err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Application withdrawn successfully"})
}

func (ac *ApplicationController) authorizeJobOwner(c *gin.Context, jobID uuid.UUID) bool {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return false
	}
	if user.Role == model.RoleAdmin {
		return true
	}

	var job model.JobPosting
	if err := ac.Workflow.DB.WithContext(c.Request.Context()).
		Select("id", "posted_by").
		Where("id = ?", jobID).
		Take(&job).Error; err != nil {
		if database.IsNotFound(err) {
			utilities.AbortWithError(c, apperror.NotFoundf("job posting %s", jobID))
			return false
		}
		utilities.AbortWithError(c, apperror.Database(err, "loading job posting"))
		return false
	}
	if job.PostedBy != user.ID {
		utilities.AbortWithError(c, apperror.ErrPermissionDenied)
		return false
	}
	return true
}

func canView(user model.Profile, app *model.Application) bool {
	if user.Role == model.RoleAdmin || app.ApplicantID == user.ID {
		return true
	}
	return app.Job != nil && app.Job.PostedBy == user.ID
}

func tooLarge(c *gin.Context, err error) bool {
	var maxBytesError *http.MaxBytesError
	if errors.As(err, &maxBytesError) || strings.Contains(err.Error(), "request body too large") {
		c.JSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{Error: "Entity too large"})
		return true
	}
	return false
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid %s", name),
			Code:  apperror.Code(apperror.ErrValidationFailed),
		})
		return uuid.Nil, false
	}
	return id, true
}

// Package jobpost provides HTTP handlers for job post related operations.
package jobpost

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"UniJobBoard-backend/internal/apperror"
	"UniJobBoard-backend/internal/jobposting"
	"UniJobBoard-backend/internal/model"
	"UniJobBoard-backend/internal/utilities"
)

// JobPostController handles job post related endpoints
type JobPostController struct {
	Store *jobposting.Store
}

// NewJobPostController creates a new instance of JobPostController
func NewJobPostController(store *jobposting.Store) *JobPostController {
	return &JobPostController{
		Store: store,
	}
}

// CreateJobPostHandler handles the creation of a new job post by a faculty member.
// @Summary Create job post based on given json structure
// @Description Only faculty and admin have access to this endpoint
// @Tags Jobpost
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param Jobpost body model.EditableJobPostingInfo true "Input jobpost information"
// @Success 201 {object} model.JobPosting "Successfully create job post"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header, or invalid job post struct"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as faculty"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs [post]
func (jc *JobPostController) CreateJobPostHandler(c *gin.Context) {
	var req createRequest
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
			Code:  apperror.Code(apperror.ErrValidationFailed),
		})
		return
	}
	info := req.EditableJobPostingInfo
	deadline, err := parseDeadline(req.ApplicationDeadline)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	info.ApplicationDeadline = deadline

	job, err := jc.Store.Create(c.Request.Context(), info)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

// GetPosts returns one page of job posts matching the query.
// @Summary Get job posts based on query
// @Description Every query are optional. Without is_active only active posts are listed
// @Tags Jobpost
// @Produce json
// @Param search query string false "Case insensitive substring of title, description, requirements or department"
// @Param department query string false "Exact department"
// @Param job_type query string false "research_assistant, teaching_assistant, work_study, internship or other"
// @Param is_active query boolean false "Filter on active flag, default true"
// @Param posted_by query string false "Owner profile id"
// @Param deadline_from query string false "Earliest deadline, YYYY-MM-DD or RFC3339"
// @Param deadline_to query string false "Latest deadline, YYYY-MM-DD or RFC3339"
// @Param sort_by query string false "created_at, title, department, compensation or deadline"
// @Param desc query boolean false "Sort descending"
// @Param page query int false "Page number, starts at 1"
// @Param limit query int false "Page size, at most 100"
// @Success 200 {object} jobposting.ListResult "Page of job posts"
// @Failure 400 {object} utilities.ErrorResponse "Invalid query"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs [get]
func (jc *JobPostController) GetPosts(c *gin.Context) {
	query, err := parseListQuery(c)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}

	result, err := jc.Store.List(c.Request.Context(), query)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPostByID retrieves a job post with its live application count.
// @Summary Get job post by ID
// @Tags Jobpost
// @Produce json
// @Param id path string true "Job post ID"
// @Success 200 {object} model.JobPostingDetail "Job post"
// @Failure 400 {object} utilities.ErrorResponse "Invalid job post ID"
// @Failure 404 {object} utilities.ErrorResponse "Job post not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{id} [get]
func (jc *JobPostController) GetPostByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	job, err := jc.Store.Get(c.Request.Context(), id)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// EditJobPost applies a partial update to a job post.
// @Summary Edit job post
// @Description Only the owner or an admin can edit a post. Omitted fields are left unchanged
// @Tags Jobpost
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Job post ID"
// @Param Jobpost body jobposting.Patch true "Fields to change"
// @Success 200 {object} model.JobPosting "Updated job post"
// @Failure 400 {object} utilities.ErrorResponse "Invalid body"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Job post not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{id} [patch]
func (jc *JobPostController) EditJobPost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req patchRequest
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
			Code:  apperror.Code(apperror.ErrValidationFailed),
		})
		return
	}
	patch := req.Patch
	deadline, err := parseDeadline(req.ApplicationDeadline)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	patch.ApplicationDeadline = deadline

	job, err := jc.Store.Update(c.Request.Context(), id, patch)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// DeleteJobPost soft deletes a job post by deactivating it.
// @Summary Delete job post
// @Description The post is kept with is_active false so its applications survive
// @Tags Jobpost
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Job post ID"
// @Success 200 {object} utilities.MessageResponse "Job post deleted"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Job post not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{id} [delete]
func (jc *JobPostController) DeleteJobPost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if _, err := jc.Store.SoftDelete(c.Request.Context(), id); err != nil {
		utilities.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Job post deleted successfully"})
}

// Activate reopens a job post.
// @Summary Activate job post
// @Tags Jobpost
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Job post ID"
// @Success 200 {object} model.JobPosting "Activated job post"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Job post not found"
// @Router /jobs/{id}/activate [post]
func (jc *JobPostController) Activate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	job, err := jc.Store.Activate(c.Request.Context(), id)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Deactivate closes a job post for new applications.
// @Summary Deactivate job post
// @Tags Jobpost
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Job post ID"
// @Success 200 {object} model.JobPosting "Deactivated job post"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Job post not found"
// @Router /jobs/{id}/deactivate [post]
func (jc *JobPostController) Deactivate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	job, err := jc.Store.Deactivate(c.Request.Context(), id)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Stats returns the active and inactive post counts of the signed in user.
// @Summary Get own job post counters
// @Tags Jobpost
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} jobposting.Stats "Counters"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Router /jobs/stats [get]
func (jc *JobPostController) Stats(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	stats, err := jc.Store.Stats(c.Request.Context(), user.ID)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Departments lists the departments that currently have active posts.
// @Summary Get departments with active job posts
// @Tags Jobpost
// @Produce json
// @Success 200 {array} string "Departments"
// @Router /jobs/departments [get]
func (jc *JobPostController) Departments(c *gin.Context) {
	departments, err := jc.Store.Departments(c.Request.Context())
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, departments)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Invalid job post ID",
			Code:  apperror.Code(apperror.ErrValidationFailed),
		})
		return uuid.Nil, false
	}
	return id, true
}

func parseListQuery(c *gin.Context) (jobposting.ListQuery, error) {
	query := jobposting.ListQuery{
		Search:     c.Query("search"),
		Department: c.Query("department"),
		JobType:    model.JobType(c.Query("job_type")),
		SortBy:     jobposting.SortField(c.Query("sort_by")),
		Descending: strings.EqualFold(c.Query("desc"), "true"),
	}

	active := true
	if raw := c.Query("is_active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return query, apperror.Validation(errors.Newf("invalid is_active %q", raw))
		}
		active = parsed
	}
	query.IsActive = &active

	if raw := c.Query("posted_by"); raw != "" {
		owner, err := uuid.Parse(raw)
		if err != nil {
			return query, apperror.Validation(errors.Newf("invalid posted_by %q", raw))
		}
		query.PostedBy = &owner
	}

	var err error
	if query.DeadlineFrom, err = parseDate(c.Query("deadline_from")); err != nil {
		return query, err
	}
	if query.DeadlineTo, err = parseDate(c.Query("deadline_to")); err != nil {
		return query, err
	}

	if query.Page, err = parseInt(c.Query("page")); err != nil {
		return query, err
	}
	if query.Limit, err = parseInt(c.Query("limit")); err != nil {
		return query, err
	}
	return query, nil
}

// createRequest and patchRequest take application_deadline as a string so
// both "2006-01-02" and RFC3339 are accepted.
type createRequest struct {
	model.EditableJobPostingInfo
	ApplicationDeadline *string `json:"application_deadline,omitempty"`
}

type patchRequest struct {
	jobposting.Patch
	ApplicationDeadline *string `json:"application_deadline,omitempty"`
}

func parseDeadline(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	return parseDate(*raw)
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperror.Validation(errors.Newf("invalid date %q", raw))
}

func parseInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validation(errors.Newf("invalid number %q", raw))
	}
	return v, nil
}

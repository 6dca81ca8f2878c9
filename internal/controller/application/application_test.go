package application

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	appflow "UniJobBoard-backend/internal/application"
	"UniJobBoard-backend/internal/auth"
	"UniJobBoard-backend/internal/cache"
	"UniJobBoard-backend/internal/database"
	"UniJobBoard-backend/internal/middleware"
	"UniJobBoard-backend/internal/model"
	"UniJobBoard-backend/internal/notification"
	"UniJobBoard-backend/internal/storage"
	"UniJobBoard-backend/internal/testutil"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	var err error
	var midTeardown func(context.Context, ...testcontainers.TerminateOption) error
	midTeardown, testDB, err = database.GetTestDB()
	if err != nil {
		os.Exit(1)
	}
	code := m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if midTeardown != nil {
		_ = midTeardown(ctx)
	}
	os.Exit(code)
}

func setupRouter(objects *storage.MemoryStore) *gin.Engine {
	workflow := appflow.NewWorkflow(
		testDB,
		cache.New(cache.DefaultCapacity, time.Minute),
		objects,
		notification.NewDispatcher(testDB, notification.LogMailer{}),
	)
	ac := NewApplicationController(workflow)

	r := gin.New()
	authed := r.Group("", middleware.RequireAuth(testDB))
	authed.POST("/applications", middleware.SizeLimit(1<<20), middleware.CheckRole(model.RoleStudent), ac.ApplicationHandler)
	authed.GET("/applications/mine", ac.ListMine)
	authed.PATCH("/applications/status", ac.BulkUpdateStatus)
	authed.GET("/applications/:id", ac.GetApplication)
	authed.DELETE("/applications/:id", ac.DeleteApplication)
	authed.PATCH("/applications/:id/status", ac.UpdateStatus)
	authed.GET("/jobs/:id/applications", ac.ListByJob)
	authed.GET("/jobs/:id/applications/stats", ac.JobStats)
	authed.GET("/jobs/:id/applied", ac.HasApplied)
	return r
}

// newJob creates a fresh active posting owned by faculty1 so tests do not
// collide on the one application per job rule.
func newJob(t *testing.T) model.JobPosting {
	t.Helper()
	job := model.JobPosting{
		EditableJobPostingInfo: model.EditableJobPostingInfo{
			Title:       "Robotics Lab Assistant " + uuid.NewString()[:8],
			Description: "Maintain the lab robots.",
			JobType:     model.JobTypeWorkStudy,
			Department:  "Computer Science",
		},
		IsActive: true,
		PostedBy: database.TestFaculty1.ID,
	}
	require.NoError(t, testDB.Create(&job).Error)
	return job
}

func apply(t *testing.T, r *gin.Engine, student model.Profile, jobID uuid.UUID, resume []byte) (int, map[string]interface{}) {
	t.Helper()
	fields := map[string]string{"job_id": jobID.String(), "cover_letter": "I would love to help."}
	fileField := ""
	if resume != nil {
		fileField = "resume"
	}
	rec, resp := testutil.MakeMultipartRequest(fields, fileField, "CV.PDF", resume, auth.GetAccessToken(t, student.ID), r, "/applications")
	return rec.Code, resp
}

func TestApplicationHandler_success(t *testing.T) {
	objects := storage.NewMemoryStore("https://files.example.edu")
	r := setupRouter(objects)
	job := newJob(t)

	code, resp := apply(t, r, database.TestStudent1, job.ID, []byte("%PDF-1.4 resume"))

	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "pending", resp["status"])
	assert.Equal(t, database.TestStudent1.ID.String(), resp["applicant_id"])
	assert.Contains(t, resp["resume_url"], "https://files.example.edu/resumes/")
	assert.Equal(t, 1, objects.Len())

	var n int64
	testDB.Model(&model.Notification{}).
		Where("user_id = ? AND type = ?", database.TestFaculty1.ID, model.NotificationApplicationReceived).
		Count(&n)
	assert.GreaterOrEqual(t, n, int64(1))
}

func TestApplicationHandler_duplicate(t *testing.T) {
	r := setupRouter(storage.NewMemoryStore(""))
	job := newJob(t)

	code, _ := apply(t, r, database.TestStudent2, job.ID, nil)
	require.Equal(t, http.StatusCreated, code)

	code, resp := apply(t, r, database.TestStudent2, job.ID, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "duplicate_application", resp["code"])
}

func TestApplicationHandler_inactiveJob(t *testing.T) {
	r := setupRouter(storage.NewMemoryStore(""))
	job := newJob(t)
	require.NoError(t, testDB.Model(&job).Update("is_active", false).Error)

	code, resp := apply(t, r, database.TestStudent1, job.ID, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "job_inactive", resp["code"])
}

func TestApplicationHandler_badRequest(t *testing.T) {
	r := setupRouter(storage.NewMemoryStore(""))
	token := auth.GetAccessToken(t, database.TestStudent1.ID)

	rec, _ := testutil.MakeMultipartRequest(map[string]string{"job_id": "42", "cover_letter": "hi"}, "", "", nil, token, r, "/applications")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp := testutil.MakeMultipartRequest(map[string]string{"job_id": newJob(t).ID.String(), "cover_letter": "  "}, "", "", nil, token, r, "/applications")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", resp["code"])

	rec, _ = testutil.MakeJSONRequest(map[string]string{"job_id": newJob(t).ID.String()}, token, r, "/applications", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplicationHandler_tooLarge(t *testing.T) {
	r := setupRouter(storage.NewMemoryStore(""))
	job := newJob(t)

	code, _ := apply(t, r, database.TestStudent1, job.ID, make([]byte, 2<<20))

	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
}

func TestApplicationHandler_facultyForbidden(t *testing.T) {
	r := setupRouter(storage.NewMemoryStore(""))
	job := newJob(t)

	code, _ := apply(t, r, database.TestFaculty2, job.ID, nil)

	assert.Equal(t, http.StatusForbidden, code)
}

func TestStatusFlow(t *testing.T) {
	r := setupRouter(storage.NewMemoryStore(""))
	job := newJob(t)
	code, created := apply(t, r, database.TestStudent1, job.ID, nil)
	require.Equal(t, http.StatusCreated, code)
	path := "/applications/" + created["id"].(string)
	owner := auth.GetAccessToken(t, database.TestFaculty1.ID)

	rec, _ := testutil.MakeJSONRequest(map[string]string{"status": "accepted"}, auth.GetAccessToken(t, database.TestFaculty2.ID), r, path+"/status", http.MethodPatch)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = testutil.MakeJSONRequest(map[string]string{"status": "shortlisted"}, owner, r, path+"/status", http.MethodPatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp := testutil.MakeJSONRequest(map[string]string{"status": "reviewed"}, owner, r, path+"/status", http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reviewed", resp["status"])

	rec, resp = testutil.MakeJSONRequest(map[string]string{"status": "pending"}, owner, r, path+"/status", http.MethodPatch)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_state", resp["code"])

	// reviewed applications can no longer be withdrawn
	rec, _ = testutil.MakeJSONRequest(nil, auth.GetAccessToken(t, database.TestStudent1.ID), r, path, http.MethodDelete)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, resp = testutil.MakeJSONRequest(nil, owner, r, "/jobs/"+job.ID.String()+"/applications/stats", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), resp["reviewed"])
	assert.Equal(t, float64(1), resp["total"])
}

func TestBulkUpdateStatus(t *testing.T) {
	r := setupRouter(storage.NewMemoryStore(""))
	job := newJob(t)
	var ids []string
	for _, student := range []model.Profile{database.TestStudent1, database.TestStudent2} {
		code, created := apply(t, r, student, job.ID, nil)
		require.Equal(t, http.StatusCreated, code)
		ids = append(ids, created["id"].(string))
	}
	owner := auth.GetAccessToken(t, database.TestFaculty1.ID)

	rec, _ := testutil.MakeJSONRequest(map[string]interface{}{"ids": []string{}, "status": "rejected"}, owner, r, "/applications/status", http.MethodPatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp := testutil.MakeJSONRequest(map[string]interface{}{"ids": ids, "status": "rejected"}, owner, r, "/applications/status", http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), resp["updated"])

	rec, _ = testutil.MakeJSONRequest(nil, owner, r, "/jobs/"+job.ID.String()+"/applications", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"rejected"`)
	assert.NotContains(t, rec.Body.String(), `"status":"pending"`)
}

func TestGetListAndHasApplied(t *testing.T) {
	r := setupRouter(storage.NewMemoryStore(""))
	job := newJob(t)
	code, created := apply(t, r, database.TestStudent1, job.ID, nil)
	require.Equal(t, http.StatusCreated, code)
	path := "/applications/" + created["id"].(string)
	applicant := auth.GetAccessToken(t, database.TestStudent1.ID)

	rec, resp := testutil.MakeJSONRequest(nil, applicant, r, path, http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, job.Title, resp["job"].(map[string]interface{})["title"])

	rec, _ = testutil.MakeJSONRequest(nil, auth.GetAccessToken(t, database.TestFaculty1.ID), r, path, http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = testutil.MakeJSONRequest(nil, auth.GetAccessToken(t, database.TestStudent3.ID), r, path, http.MethodGet)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = testutil.MakeJSONRequest(nil, applicant, r, "/applications/mine", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created["id"].(string))

	rec, resp = testutil.MakeJSONRequest(nil, applicant, r, "/jobs/"+job.ID.String()+"/applied", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["has_applied"])

	rec, resp = testutil.MakeJSONRequest(nil, auth.GetAccessToken(t, database.TestStudent3.ID), r, "/jobs/"+job.ID.String()+"/applied", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, resp["has_applied"])

	rec, _ = testutil.MakeJSONRequest(nil, applicant, r, "/jobs/"+job.ID.String()+"/applications", http.MethodGet)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteApplication(t *testing.T) {
	objects := storage.NewMemoryStore("")
	r := setupRouter(objects)
	job := newJob(t)
	code, created := apply(t, r, database.TestStudent2, job.ID, []byte("resume"))
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, 1, objects.Len())
	path := "/applications/" + created["id"].(string)

	rec, _ := testutil.MakeJSONRequest(nil, auth.GetAccessToken(t, database.TestStudent1.ID), r, path, http.MethodDelete)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = testutil.MakeJSONRequest(nil, auth.GetAccessToken(t, database.TestStudent2.ID), r, path, http.MethodDelete)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, objects.Len())

	rec, _ = testutil.MakeJSONRequest(nil, auth.GetAccessToken(t, database.TestStudent2.ID), r, path, http.MethodGet)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"UniJobBoard-backend/internal/auth"
	"UniJobBoard-backend/internal/database"
	"UniJobBoard-backend/internal/model"
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

func checkUserHandler(c *gin.Context) {
	u, exist := c.Get("user")
	if !exist {
		c.JSON(http.StatusOK, gin.H{"ok": true, "anonymous": true})
		return
	}
	actor, ok := auth.ActorFromContext(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"ok": ok, "user": u, "actor": actor.ID.String()})
}

func doRequest(engine *gin.Engine, method, path, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req, _ := http.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	body := map[string]interface{}{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func signed(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	auth.GetAccessToken(t, uuid.New()) // makes sure a secret is set
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(auth.SecretKey))
	require.NoError(t, err)
	return token
}

func TestRequireAuth_Success(t *testing.T) {
	engine := gin.New()
	engine.GET("/protected", RequireAuth(testDB), checkUserHandler)
	token := auth.GetAccessToken(t, database.TestStudent1.ID)

	rec, body := doRequest(engine, http.MethodGet, "/protected", token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, database.TestStudent1.ID.String(), body["actor"])
}

func TestRequireAuth_NoHeader(t *testing.T) {
	engine := gin.New()
	engine.GET("/protected", RequireAuth(testDB), checkUserHandler)

	rec, body := doRequest(engine, http.MethodGet, "/protected", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "Invalid authorization header")
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	engine := gin.New()
	engine.GET("/protected", RequireAuth(testDB), checkUserHandler)
	token := signed(t, jwt.RegisteredClaims{
		Issuer:    auth.JwtIssuer,
		Subject:   database.TestStudent1.ID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})

	rec, body := doRequest(engine, http.MethodGet, "/protected", token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access token expired", body["error"])
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	engine := gin.New()
	engine.GET("/protected", RequireAuth(testDB), checkUserHandler)

	rec, body := doRequest(engine, http.MethodGet, "/protected", "not-a-jwt")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, body["error"], "Failed to validate token")
}

func TestRequireAuth_InvalidIssuer(t *testing.T) {
	engine := gin.New()
	engine.GET("/protected", RequireAuth(testDB), checkUserHandler)
	token := signed(t, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   database.TestStudent1.ID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})

	rec, body := doRequest(engine, http.MethodGet, "/protected", token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token issuer", body["error"])
}

func TestRequireAuth_UnknownUser(t *testing.T) {
	engine := gin.New()
	engine.GET("/protected", RequireAuth(testDB), checkUserHandler)

	rec, body := doRequest(engine, http.MethodGet, "/protected", auth.GetAccessToken(t, uuid.New()))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User not exist", body["error"])
}

func TestOptionalAuth(t *testing.T) {
	engine := gin.New()
	engine.GET("/maybe", OptionalAuth(testDB), checkUserHandler)

	rec, body := doRequest(engine, http.MethodGet, "/maybe", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["anonymous"])

	rec, body = doRequest(engine, http.MethodGet, "/maybe", auth.GetAccessToken(t, database.TestFaculty1.ID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, database.TestFaculty1.ID.String(), body["actor"])

	rec, _ = doRequest(engine, http.MethodGet, "/maybe", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckRole_NoRequireAuthBefore(t *testing.T) {
	engine := gin.New()
	engine.GET("/need-role", CheckRole(model.RoleFaculty), checkUserHandler)

	rec, _ := doRequest(engine, http.MethodGet, "/need-role", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckRole(t *testing.T) {
	engine := gin.New()
	engine.GET("/need-role", RequireAuth(testDB), CheckRole(model.RoleFaculty, model.RoleAdmin), checkUserHandler)

	rec, body := doRequest(engine, http.MethodGet, "/need-role", auth.GetAccessToken(t, database.TestStudent1.ID))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, body["error"], "User doesn't have permission to access")

	rec, _ = doRequest(engine, http.MethodGet, "/need-role", auth.GetAccessToken(t, database.TestFaculty2.ID))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest(engine, http.MethodGet, "/need-role", auth.GetAccessToken(t, database.TestAdmin.ID))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func readFileHandler(c *gin.Context) {
	rawFile, err := c.FormFile("file")
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) || strings.Contains(err.Error(), "request body too large") {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Entity too large"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	f, err := rawFile.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cannot open file"})
		return
	}
	defer func() { _ = f.Close() }()
	if _, err := io.ReadAll(f); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cannot read file"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func sendFile(engine *gin.Engine, size int, chunked bool) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", "resume.pdf")
	_, _ = part.Write(bytes.Repeat([]byte("a"), size))
	_ = writer.Close()

	var req *http.Request
	if chunked {
		// hide the length so only the body reader can enforce the cap
		req, _ = http.NewRequest(http.MethodPost, "/upload", io.NopCloser(body))
	} else {
		req, _ = http.NewRequest(http.MethodPost, "/upload", bytes.NewReader(body.Bytes()))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestSizeLimit(t *testing.T) {
	engine := gin.New()
	engine.MaxMultipartMemory = 1 << 20
	engine.POST("/upload", SizeLimit(1<<20), readFileHandler)

	assert.Equal(t, http.StatusOK, sendFile(engine, 512<<10, false).Code)
	assert.Equal(t, http.StatusOK, sendFile(engine, 1<<20, false).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, sendFile(engine, 2<<20, false).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, sendFile(engine, 2<<20, true).Code)
}

func TestRateLimiterMiddleware(t *testing.T) {
	engine := gin.New()
	engine.GET("/limited", RateLimiterMiddleware(2), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := []int{}
	for i := 0; i < 3; i++ {
		rec, _ := doRequest(engine, http.MethodGet, "/limited", "")
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestSafeHeaderAndRequestLogger(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestLogger(), SafeHeader())
	engine.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	rec, _ := doRequest(engine, http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

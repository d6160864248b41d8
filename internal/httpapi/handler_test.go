package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodue/internal/auth"
	"nodue/internal/faculty"
	"nodue/internal/filestore"
	"nodue/internal/queue"
	"nodue/internal/student"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "nodue-test"
)

type env struct {
	router *gin.Engine
	store  *student.MemStore
	queue  *queue.InMemory
}

func setup(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	files, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	table, err := faculty.NewTable("BCS601:cc")
	require.NoError(t, err)

	memStore := student.NewMemStore()
	q := queue.NewInMemory(16)

	h := New(student.NewService(memStore), table, files, q, nil, Config{
		JWTIssuer:      testIssuer,
		JWTSigningKey:  testKey,
		SessionTTL:     time.Hour,
		MaxUploadBytes: 10 << 20,
	})

	r := gin.New()
	Routes(r, h)
	return &env{router: r, store: memStore, queue: q}
}

func (e *env) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) upload(t *testing.T, usn, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("pdf", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.WriteField("usn", usn))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) register(t *testing.T, name, usn, email string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/students/register", gin.H{
		"name": name, "usn": usn, "email": email, "password": "secret123",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (e *env) facultyToken(t *testing.T) string {
	t.Helper()
	token, _, err := auth.Issue("BCS601", auth.RoleFaculty, testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func pdfBytes(size int) []byte {
	content := make([]byte, size)
	copy(content, "%PDF-1.7\n")
	return content
}

func TestRegister(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodPost, "/students/register", gin.H{
		"name": "Anita Rao", "usn": "1ab20cs001", "email": "anita@example.com", "password": "secret123",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])

	// Same usn again fails, as does same email under a new usn.
	rec = e.do(t, http.MethodPost, "/students/register", gin.H{
		"name": "Imposter", "usn": "1AB20CS001", "email": "other@example.com", "password": "secret123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/students/register", gin.H{
		"name": "Imposter", "usn": "1AB20CS002", "email": "anita@example.com", "password": "secret123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_MissingFields(t *testing.T) {
	e := setup(t)
	rec := e.do(t, http.MethodPost, "/students/register", gin.H{"usn": "1AB20CS001"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	e := setup(t)
	e.register(t, "Anita Rao", "1AB20CS001", "anita@example.com")

	rec := e.do(t, http.MethodPost, "/students/login", gin.H{"usn": "1AB20CS999", "password": "secret123"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown usn")

	rec = e.do(t, http.MethodPost, "/students/login", gin.H{"usn": "1AB20CS001", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "bad password")

	rec = e.do(t, http.MethodPost, "/students/login", gin.H{"usn": "1AB20CS001", "password": "secret123"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
	st := body["student"].(map[string]any)
	assert.Equal(t, "1AB20CS001", st["usn"])
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "secret123")
}

func TestCheck(t *testing.T) {
	e := setup(t)
	e.register(t, "Anita Rao", "1AB20CS001", "anita@example.com")

	rec := e.do(t, http.MethodGet, "/students/check/1ab20cs001", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["exists"])

	rec = e.do(t, http.MethodGet, "/students/check/1AB20CS999", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["exists"])
}

func TestUpload(t *testing.T) {
	e := setup(t)
	e.register(t, "Anita Rao", "1AB20CS001", "anita@example.com")

	rec := e.upload(t, "1AB20CS001", "report.pdf", pdfBytes(2<<20))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	updated := body["updatedStudent"].(map[string]any)
	assert.Equal(t, "Pending", updated["status"])
	pdf := updated["pdf"].(map[string]any)
	assert.Contains(t, pdf["filename"], "report.pdf")

	// The worker gets notified.
	select {
	case msg := <-mustConsume(t, e.queue):
		assert.Equal(t, queue.TypeUpload, msg.Type)
	case <-time.After(time.Second):
		t.Fatal("no queue message published")
	}
}

func mustConsume(t *testing.T, q *queue.InMemory) <-chan queue.Message {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	return ch
}

func TestUpload_Rejections(t *testing.T) {
	e := setup(t)
	e.register(t, "Anita Rao", "1AB20CS001", "anita@example.com")

	rec := e.upload(t, "1AB20CS001", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no file")

	rec = e.upload(t, "1AB20CS001", "notes.txt", []byte("plain text, not a pdf"))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "not a pdf")

	rec = e.upload(t, "1AB20CS001", "big.pdf", pdfBytes(12<<20))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "over size limit")

	rec = e.upload(t, "1AB20CS999", "report.pdf", pdfBytes(1<<10))
	assert.Equal(t, http.StatusNotFound, rec.Code, "unknown usn")
}

func TestUpload_ResetsCompletedToPending(t *testing.T) {
	e := setup(t)
	e.register(t, "Anita Rao", "1AB20CS001", "anita@example.com")
	token := e.facultyToken(t)

	rec := e.upload(t, "1AB20CS001", "report.pdf", pdfBytes(1<<10))
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode(t, rec)["updatedStudent"].(map[string]any)["id"].(string)

	rec = e.do(t, http.MethodPost, "/students/update/"+id, gin.H{"status": "Completed"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/students/list", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"effective_status":"Completed"`)

	// Re-uploading restarts review.
	rec = e.upload(t, "1AB20CS001", "report-v2.pdf", pdfBytes(1<<10))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/students/list", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"effective_status":"Pending"`)
}

func TestFacultyLogin(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodPost, "/faculty/login", gin.H{"subjectCode": "BCS601", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodPost, "/faculty/login", gin.H{"subjectCode": "BCS601", "password": "cc"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["token"])
}

func TestList_RequiresFacultyToken(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodGet, "/students/list", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	studentToken, _, err := auth.Issue("1AB20CS001", auth.RoleStudent, testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	rec = e.do(t, http.MethodGet, "/students/list", nil, studentToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestList(t *testing.T) {
	e := setup(t)
	token := e.facultyToken(t)

	e.register(t, "Bharat Iyer", "1AB20CS002", "bharat@example.com")
	e.register(t, "Anita Rao", "1AB20CS001", "anita@example.com")
	rec := e.upload(t, "1AB20CS001", "report.pdf", pdfBytes(1<<10))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/students/list?subject=BCS601", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Students []struct {
			USN             string `json:"usn"`
			Status          string `json:"status"`
			EffectiveStatus string `json:"effective_status"`
		} `json:"students"`
		Counts struct {
			Total   int `json:"total"`
			Pending int `json:"pending"`
			Hold    int `json:"hold"`
		} `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Len(t, body.Students, 2)
	assert.Equal(t, "1AB20CS001", body.Students[0].USN, "ordered by usn")
	assert.Equal(t, "Pending", body.Students[0].EffectiveStatus)
	assert.Equal(t, "Hold", body.Students[1].EffectiveStatus, "no file yet")
	assert.Equal(t, "Pending", body.Students[1].Status, "persisted status untouched")
	assert.Equal(t, 2, body.Counts.Total)
	assert.Equal(t, 1, body.Counts.Pending)
	assert.Equal(t, 1, body.Counts.Hold)
}

func TestList_SearchAndFilter(t *testing.T) {
	e := setup(t)
	token := e.facultyToken(t)

	e.register(t, "Anita Rao", "1AB20CS001", "anita@example.com")
	e.register(t, "Bharat Iyer", "1AB20CS002", "bharat@example.com")
	rec := e.upload(t, "1AB20CS002", "report.pdf", pdfBytes(1<<10))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/students/list?q=rao", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Anita Rao")
	assert.NotContains(t, rec.Body.String(), "Bharat Iyer")

	rec = e.do(t, http.MethodGet, "/students/list?status=Hold", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Anita Rao", "no file means effective Hold")
	assert.NotContains(t, rec.Body.String(), "Bharat Iyer")
}

func TestUpdateStatus(t *testing.T) {
	e := setup(t)
	token := e.facultyToken(t)
	e.register(t, "Anita Rao", "1AB20CS001", "anita@example.com")

	rec := e.do(t, http.MethodGet, "/students/list", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var listBody struct {
		Students []struct {
			ID string `json:"id"`
		} `json:"students"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listBody))
	id := listBody.Students[0].ID

	rec = e.do(t, http.MethodPost, "/students/update/"+id, gin.H{"status": "Approved"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "outside the enum")

	rec = e.do(t, http.MethodPost, "/students/update/"+id, gin.H{"status": "Completed"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no file uploaded yet")

	rec = e.do(t, http.MethodPost, "/students/update/missing-id", gin.H{"status": "Hold"}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPost, "/students/update/"+id, gin.H{"status": "Hold"}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode(t, rec)["updatedStudent"].(map[string]any)
	assert.Equal(t, "Hold", updated["status"])

	rec = e.do(t, http.MethodPost, "/students/update/"+id, gin.H{"status": "Hold"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "mutation needs a faculty token")
}

func TestNoRoute(t *testing.T) {
	e := setup(t)
	rec := e.do(t, http.MethodGet, fmt.Sprintf("/nope/%d", time.Now().Unix()), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Route Not Found")
}

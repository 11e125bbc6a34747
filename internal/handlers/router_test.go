package handlers

import (
	"bytes"
	"context"
	"errors"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/cgpacalc/internal/app"
	"github.com/shrimpsizemoose/cgpacalc/internal/models"
	"github.com/shrimpsizemoose/cgpacalc/internal/report"
	"github.com/shrimpsizemoose/cgpacalc/internal/scoring"
	"github.com/shrimpsizemoose/cgpacalc/internal/store/file"
)

type testClient struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

// brokenUpdates accepts logins but fails every workspace write.
type brokenUpdates struct {
	*app.MemoryTokenStore
}

func (brokenUpdates) Update(context.Context, *app.UserSession) error {
	return errors.New("token backend unavailable")
}

func setupTestServer(t *testing.T) *testClient {
	return setupTestServerWith(t, app.NewMemoryTokenStore(time.Hour))
}

func setupTestServerWith(t *testing.T, tokens app.TokenStore) *testClient {
	st, err := file.NewFileStore(t.TempDir())
	require.NoError(t, err)

	service := app.New(app.DefaultConfig(), st, tokens)
	server := httptest.NewServer(NewRouter(service))
	t.Cleanup(func() {
		server.Close()
		service.Close()
	})
	return &testClient{t: t, server: server}
}

func (c *testClient) do(method, path string, body interface{}) *http.Response {
	var payload bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&payload).Encode(body))
	}

	req, err := http.NewRequest(method, c.server.URL+path, &payload)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (c *testClient) register(username string) {
	resp := c.do(http.MethodPost, "/api/v1/register", map[string]string{
		"username":         username,
		"password":         "pw",
		"confirm_password": "pw",
	})
	require.Equal(c.t, http.StatusCreated, resp.StatusCode)
	c.token = decode[tokenResponse](c.t, resp).Token
}

func TestAuthFlow(t *testing.T) {
	c := setupTestServer(t)

	resp := c.do(http.MethodPost, "/api/v1/register", map[string]string{
		"username": "ada", "password": "pw", "confirm_password": "other",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	c.register("ada")
	assert.NotEmpty(t, c.token)

	resp = c.do(http.MethodPost, "/api/v1/register", map[string]string{
		"username": "ada", "password": "pw", "confirm_password": "pw",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/v1/login", map[string]string{"username": "ada", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/v1/login", map[string]string{"username": "ada", "password": "pw"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c.token = decode[tokenResponse](t, resp).Token

	resp = c.do(http.MethodPost, "/api/v1/logout", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = c.do(http.MethodGet, "/api/v1/session", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionRequiresToken(t *testing.T) {
	c := setupTestServer(t)

	resp := c.do(http.MethodGet, "/api/v1/session", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	c.token = "sk-cgpa-unknown"
	resp = c.do(http.MethodGet, "/api/v1/session/result", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCourseLifecycle(t *testing.T) {
	c := setupTestServer(t)
	c.register("ada")

	resp := c.do(http.MethodPut, "/api/v1/session", metaRequest{Level: "300", SessionType: models.FullSession})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = c.do(http.MethodPut, "/api/v1/session", metaRequest{Level: "800"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/v1/session/courses", models.Course{Code: "mth301", CreditUnit: 3, Score: models.ScoreOf(65)})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	mth := decode[models.Course](t, resp)
	assert.Equal(t, models.GradeB, mth.Grade)
	assert.NotEmpty(t, mth.ID)

	resp = c.do(http.MethodPost, "/api/v1/session/courses", models.Course{Code: "", CreditUnit: 3, Grade: models.GradeA})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/v1/session/courses/generate", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	gen := decode[models.Course](t, resp)
	assert.Equal(t, "ELE102", gen.Code)

	resp = c.do(http.MethodPut, "/api/v1/session/courses/"+gen.ID, models.Course{Code: "ELE102", CreditUnit: 1, Grade: models.GradeF})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = c.do(http.MethodGet, "/api/v1/session/result", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[models.Result](t, resp)
	assert.Equal(t, models.KindCGPA, result.Kind)
	assert.Equal(t, 3.0, result.Average)
	assert.Equal(t, 4, result.TotalCredits)

	resp = c.do(http.MethodDelete, "/api/v1/session/courses/"+gen.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = c.do(http.MethodDelete, "/api/v1/session/courses/"+gen.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = c.do(http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[models.Session](t, resp)
	require.Len(t, got.Courses, 1)
	assert.Equal(t, "MTH301", got.Courses[0].Code)
}

func TestSaveAndLoad(t *testing.T) {
	c := setupTestServer(t)
	c.register("ada")

	resp := c.do(http.MethodPost, "/api/v1/session/courses", models.Course{Code: "CSC101", CreditUnit: 2, Grade: models.GradeC})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/v1/session/save", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/v1/login", map[string]string{"username": "ada", "password": "pw"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c.token = decode[tokenResponse](t, resp).Token

	resp = c.do(http.MethodPost, "/api/v1/session/load", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[models.Session](t, resp)
	require.Len(t, got.Courses, 1)
	assert.Equal(t, "CSC101", got.Courses[0].Code)
}

func TestReport(t *testing.T) {
	c := setupTestServer(t)
	c.register("ada")

	resp := c.do(http.MethodPost, "/api/v1/session/courses", models.Course{Code: "CSC101", CreditUnit: 2, Grade: models.GradeA})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = c.do(http.MethodGet, "/api/v1/session/report", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, report.ContentTypes[report.FormatPDF], resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "ada_gpa_report.pdf")

	resp = c.do(http.MethodGet, "/api/v1/session/report?format=txt", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body bytes.Buffer
	_, err := body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "GPA: 5.00")

	resp = c.do(http.MethodGet, "/api/v1/session/report?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestImport(t *testing.T) {
	c := setupTestServer(t)
	c.register("ada")

	doc := report.Document{
		Lines: scoring.Lines([]models.Course{{Code: "MTH101", CreditUnit: 3, Grade: models.GradeA}}),
	}
	var sheet bytes.Buffer
	require.NoError(t, report.WriteXLSX(&sheet, doc))

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("file", "courses.xlsx")
	require.NoError(t, err)
	_, err = part.Write(sheet.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, c.server.URL+"/api/v1/session/import", &form)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[map[string]interface{}](t, resp)
	assert.Equal(t, float64(1), out["imported"])
}

func TestImport_ErrorStatus(t *testing.T) {
	upload := func(c *testClient, body []byte) *http.Response {
		req, err := http.NewRequest(http.MethodPost, c.server.URL+"/api/v1/session/import", bytes.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	var sheet bytes.Buffer
	require.NoError(t, report.WriteXLSX(&sheet, report.Document{
		Lines: scoring.Lines([]models.Course{{Code: "MTH101", CreditUnit: 3, Grade: models.GradeA}}),
	}))

	t.Run("unreadable upload is a bad request", func(t *testing.T) {
		c := setupTestServer(t)
		c.register("ada")

		resp := upload(c, []byte("not a workbook"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("workspace write failure is a server error", func(t *testing.T) {
		c := setupTestServerWith(t, brokenUpdates{app.NewMemoryTokenStore(time.Hour)})
		c.register("ada")

		resp := upload(c, sheet.Bytes())
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decode[map[string]string](t, resp)
		assert.Equal(t, "internal error", body["error"])
	})
}

func TestCalculate(t *testing.T) {
	c := setupTestServer(t)

	resp := c.do(http.MethodPost, "/api/v1/calculate", models.Session{
		Courses: []models.Course{
			{Code: "A1", CreditUnit: 3, Grade: models.GradeA},
			{Code: "B1", CreditUnit: 2, Grade: models.GradeB},
			{Code: "X1", CreditUnit: 2, Score: models.ScoreOf(140)},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decode[models.Result](t, resp)
	assert.InDelta(t, 4.6, result.Average, 1e-9)
	assert.Equal(t, []string{"X1"}, result.InvalidCourses)

	resp = c.do(http.MethodPost, "/api/v1/calculate", models.Session{
		Courses: []models.Course{{Code: "A1", CreditUnit: 0, Grade: models.GradeA}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{app.ErrUsernameTaken, http.StatusConflict},
		{app.ErrInvalidCredentials, http.StatusUnauthorized},
		{app.ErrNoSavedSession, http.StatusNotFound},
		{models.ValidationError{Field: "Level"}, http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}

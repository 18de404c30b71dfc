package ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"dataviz/adapters/render"
	apperrors "dataviz/internal/errors"
	"dataviz/internal/session"
	"dataviz/internal/visualizer"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = "Region,Sales,Month\nNorth,120,Jan\nSouth,98,Feb\nNorth,143,Mar\n"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	svc := visualizer.NewService(session.NewStore(), render.NewGoChartRenderer(0), visualizer.Config{MaxUploadBytes: 1 << 20})
	srv, err := NewServer(svc, Config{MaxUploadBytes: 1 << 20})
	require.NoError(t, err)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode(t, rec)["session_id"].(string)
}

func uploadRequest(t *testing.T, id, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func chartRequestFor(id, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/charts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLandingPage(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, `id="what-can-you-visualize"`)
	assert.Contains(t, page, "<strong>📈 Sales Data</strong>")
	assert.Contains(t, page, `<option value="histogram">Histogram</option>`)
	assert.Contains(t, page, `accept=".csv,.xlsx,.xls"`)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestLandingPageIsCompressed(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := do(t, h, req)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestCORS(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://example.test")
	rec := do(t, h, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUploadGenerateAndExport(t *testing.T) {
	h := newTestServer(t)
	id := createSession(t, h)

	rec := do(t, h, uploadRequest(t, id, "sales.csv", salesCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode(t, rec)
	assert.Equal(t, "File uploaded! Found 3 rows and 3 columns.", view["message"])
	assert.Len(t, view["chart_kinds"], 6)
	assert.NotContains(t, view, "warning")

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/options?kind=pie", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	opts := decode(t, rec)
	assert.Equal(t, []interface{}{"Sales"}, opts["y"])
	assert.Nil(t, opts["color"])

	rec = do(t, h, chartRequestFor(id, `{"kind":"Bar Chart","x":"Region","y":"Sales","color":"","title":"","theme":"seaborn"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	plan := decode(t, rec)["plan"].(map[string]interface{})
	assert.Equal(t, "Bar Chart of Sales", plan["title"])
	assert.Nil(t, plan["color_by"])

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/chart.svg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, svgPolicy, rec.Header().Get("Content-Security-Policy"))

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/chart.html", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="Bar Chart of Sales.html"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/chart.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestUploadErrorsReturnHints(t *testing.T) {
	h := newTestServer(t)
	id := createSession(t, h)

	rec := do(t, h, uploadRequest(t, id, "notes.txt", "hello"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, apperrors.CodeUnsupportedFormat, body["code"])
	assert.Equal(t, visualizer.HintIngest, body["hint"])

	rec = do(t, h, uploadRequest(t, id, "broken.csv", "a,b\n1,2,3\n"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeIngest, decode(t, rec)["code"])

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/table", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, visualizer.HintNoTable, decode(t, rec)["hint"])
}

func TestUploadWithInfiniteValues(t *testing.T) {
	h := newTestServer(t)
	id := createSession(t, h)

	rec := do(t, h, uploadRequest(t, id, "inf.csv", "Region,Sales\nNorth,inf\nSouth,3\n"))
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode(t, rec)
	assert.Equal(t, []interface{}{"Sales"}, view["numeric_columns"])

	profile := view["profile"].([]interface{})
	require.Len(t, profile, 2)
	sales := profile[1].(map[string]interface{})["numeric"].(map[string]interface{})
	assert.Equal(t, 3.0, sales["mean"])
	assert.Equal(t, 3.0, sales["max"])

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/table", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec)
}

func TestUploadWithoutFileField(t *testing.T) {
	h := newTestServer(t)
	id := createSession(t, h)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/upload", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec := do(t, h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidInput, decode(t, rec)["code"])
}

func TestNoNumericColumns(t *testing.T) {
	h := newTestServer(t)
	id := createSession(t, h)

	rec := do(t, h, uploadRequest(t, id, "names.csv", "Name\nAnn\nBob\n"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, visualizer.NoNumericWarning, decode(t, rec)["warning"])

	rec = do(t, h, chartRequestFor(id, `{"kind":"bar","x":"Name"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, visualizer.HintNoNumeric, decode(t, rec)["hint"])
}

func TestChartErrorsKeepTable(t *testing.T) {
	h := newTestServer(t)
	id := createSession(t, h)
	require.Equal(t, http.StatusOK, do(t, h, uploadRequest(t, id, "sales.csv", salesCSV)).Code)

	cases := map[string]string{
		"categorical y":  `{"kind":"line","x":"Month","y":"Region"}`,
		"unknown column": `{"kind":"scatter","x":"Month","y":"Profit"}`,
		"unknown kind":   `{"kind":"Radar","x":"Month"}`,
		"unknown theme":  `{"kind":"bar","x":"Region","y":"Sales","theme":"neon"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, chartRequestFor(id, body))
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			assert.Equal(t, visualizer.HintPlan, decode(t, rec)["hint"])
		})
	}

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/table", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/chart.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, chartRequestFor(id, `{"kind":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionLifecycle(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/not-an-id/table", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := createSession(t, h)
	rec = do(t, h, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/table", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, float64(0), decode(t, rec)["sessions"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
	assert.Equal(t, http.StatusConflict, statusFor(apperrors.ValidationError("stale")))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(apperrors.RenderError("boom", nil)))
}

func TestWriteErrorHidesInternalCauses(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/sessions", nil)

	writeError(c, errors.New("disk on fire"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "internal server error", body["error"])
	assert.Equal(t, apperrors.CodeInternalError, body["code"])

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/sessions", nil)

	writeError(c, apperrors.InternalError("pool exhausted"))
	assert.Equal(t, apperrors.CodeInternalError, decode(t, rec)["code"])

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/sessions/x/charts", nil)

	writeError(c, apperrors.PlanValidation("column %q does not exist", "Profit"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, `column "Profit" does not exist`, body["error"])
	assert.Equal(t, apperrors.CodePlanValidation, body["code"])
}

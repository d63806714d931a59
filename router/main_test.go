package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/manyagkarle13/syllabus-maker/database"
	"github.com/manyagkarle13/syllabus-maker/database/dbtest"
	"github.com/manyagkarle13/syllabus-maker/model"
	"github.com/manyagkarle13/syllabus-maker/services"
	"github.com/manyagkarle13/syllabus-maker/utils/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message"`
	Data     json.RawMessage   `json:"data"`
	Warnings []json.RawMessage `json:"warnings"`
	Error    *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
	Pagination *struct {
		Total int64 `json:"total"`
	} `json:"pagination"`
}

type testServer struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := dbtest.Open(t)
	activity := services.NewActivityService(db)

	svc := &Services{
		DB:       db,
		Activity: activity,
		Scheme: services.NewSchemeService(db, services.SchemeServiceOptions{
			Activity:        activity,
			FrontMatterPath: "../config/front_matter.yaml",
		}),
		Security: middleware.SecurityConfig{AllowedOrigins: "*", DisableAccessLog: true},
	}

	app := fiber.New()
	SetupRoutes(app, database.NewGORMStore(db), svc)
	return &testServer{t: t, app: app, db: db}
}

func (s *testServer) do(req *http.Request) (*http.Response, []byte) {
	s.t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp, body
}

func (s *testServer) json(method, path string, payload interface{}) (*http.Response, envelope) {
	s.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(s.t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.ActorHeader, "hod.ise")

	resp, raw := s.do(req)
	var env envelope
	require.NoError(s.t, json.Unmarshal(raw, &env), string(raw))
	return resp, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, string(body))
}

func TestBranchRoutes(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.json(http.MethodPost, "/api/v1/branches", map[string]interface{}{"code": "ise", "name": "Information Science"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	branch := decode[model.Branch](t, env.Data)
	assert.Equal(t, "ISE", branch.Code)
	assert.True(t, branch.IsActive)

	resp, env = s.json(http.MethodPost, "/api/v1/branches", map[string]interface{}{"code": "ISE", "name": "Duplicate"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	resp, env = s.json(http.MethodPost, "/api/v1/branches", map[string]interface{}{"code": "I5E!", "name": "Bad"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, env.Error.Fields, "code")

	resp, env = s.json(http.MethodPut, fmt.Sprintf("/api/v1/branches/%d", branch.ID), map[string]interface{}{"is_active": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[model.Branch](t, env.Data).IsActive)

	resp, env = s.json(http.MethodGet, "/api/v1/branches?active=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]model.Branch](t, env.Data))

	resp, _ = s.json(http.MethodDelete, fmt.Sprintf("/api/v1/branches/%d", branch.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.json(http.MethodGet, fmt.Sprintf("/api/v1/branches/%d", branch.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.json(http.MethodGet, "/api/v1/branches/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// the code of a deleted branch stays reserved
	resp, _ = s.json(http.MethodPost, "/api/v1/branches", map[string]interface{}{"code": "ISE", "name": "Again"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var actions []string
	require.NoError(t, s.db.Model(&model.ActivityLog{}).Where("object_type = ?", "branch").Order("id").Pluck("action", &actions).Error)
	assert.Equal(t, []string{model.ActivityCreate, model.ActivityUpdate, model.ActivityDelete}, actions)
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t)
	ise := dbtest.Branch(t, s.db, "ISE", "Information Science")
	cse := dbtest.Branch(t, s.db, "CSE", "Computer Science")

	resp, env := s.json(http.MethodPost, "/api/v1/catalog/courses", map[string]interface{}{
		"semester": 3, "course_type": "bsc", "course_code": "ma31", "course_title": "Linear Algebra",
		"l": 3, "t": 1, "credits": "4",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Error)
	global := decode[model.CatalogCourse](t, env.Data)
	assert.Equal(t, "MA31", global.CourseCode)
	assert.Equal(t, "BSC", global.CourseType)
	assert.Equal(t, 50, global.CIE)
	assert.Equal(t, "hod.ise", global.AddedBy)

	resp, _ = s.json(http.MethodPost, "/api/v1/catalog/courses", map[string]interface{}{
		"branch_id": cse.ID, "semester": 3, "course_type": "PCC", "course_code": "CS31", "course_title": "Data Structures", "credits": 4,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = s.json(http.MethodPost, "/api/v1/catalog/courses", map[string]interface{}{
		"branch_id": 999, "semester": 3, "course_type": "PCC", "course_code": "XX31", "course_title": "Ghost", "credits": 4,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.json(http.MethodPost, "/api/v1/catalog/courses", map[string]interface{}{
		"semester": 9, "course_type": "PCC", "course_code": "XX31", "course_title": "Too late", "credits": 4,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, env = s.json(http.MethodGet, fmt.Sprintf("/api/v1/catalog/courses?branch_id=%d&semester=3", ise.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	courses := decode[[]model.CatalogCourse](t, env.Data)
	require.Len(t, courses, 1)
	assert.Equal(t, "MA31", courses[0].CourseCode)

	resp, env = s.json(http.MethodPut, fmt.Sprintf("/api/v1/catalog/courses/%d", global.ID), map[string]interface{}{
		"semester": 3, "course_type": "BSC", "course_code": "MA31", "course_title": "Linear Algebra and Probability",
		"l": 3, "t": 1, "cie": 40, "see": 60, "credits": "4",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[model.CatalogCourse](t, env.Data)
	assert.Equal(t, 40, updated.CIE)
	assert.Equal(t, "Linear Algebra and Probability", updated.CourseTitle)

	resp, _ = s.json(http.MethodDelete, fmt.Sprintf("/api/v1/catalog/courses/%d", global.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.json(http.MethodGet, fmt.Sprintf("/api/v1/catalog/courses/%d", global.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type buildData struct {
	Mode     string `json:"mode"`
	Written  int    `json:"written"`
	Document *struct {
		ID       uint   `json:"id"`
		Filename string `json:"filename"`
	} `json:"document"`
	Summary struct {
		Courses      int    `json:"courses"`
		TotalCredits string `json:"total_credits"`
	} `json:"summary"`
}

func TestSchemeLifecycle(t *testing.T) {
	s := newTestServer(t)
	ise := dbtest.Branch(t, s.db, "ISE", "Information Science")
	base := fmt.Sprintf("/api/v1/schemes/%d/2024/3", ise.ID)

	rows := map[string]interface{}{"rows": []map[string]interface{}{
		{"category": "core", "code": "is31", "title": "Data Structures", "type": "PCC", "l": 3, "t": 0, "p": 0, "cie": 50, "see": 50, "credits": 3},
		{"category": "core", "code": "IS32", "title": "Operating Systems", "l": "3", "credits": "3"},
	}}

	resp, env := s.json(http.MethodPost, base+"/generate?mode=save_and_generate", rows)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Error)
	built := decode[buildData](t, env.Data)
	assert.Equal(t, "save_and_generate", built.Mode)
	assert.Equal(t, 2, built.Written)
	assert.Equal(t, 2, built.Summary.Courses)
	assert.Equal(t, "6", built.Summary.TotalCredits)
	require.NotNil(t, built.Document)
	assert.True(t, strings.HasPrefix(built.Document.Filename, "Scheme_ISE_2024_Sem3_"))
	docPath := fmt.Sprintf("/api/v1/scheme-documents/%d", built.Document.ID)

	var saved int64
	require.NoError(t, s.db.Model(&model.SchemeCourse{}).Count(&saved).Error)
	assert.EqualValues(t, 2, saved)

	// stored rows come back on the preview
	resp, env = s.json(http.MethodGet, base+"/rows", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	preview := decode[struct {
		Summary struct {
			Courses int `json:"courses"`
		} `json:"summary"`
		Pending   []json.RawMessage `json:"pending_writes"`
		Documents int64             `json:"documents"`
	}](t, env.Data)
	assert.Equal(t, 2, preview.Summary.Courses)
	assert.Empty(t, preview.Pending)
	assert.EqualValues(t, 1, preview.Documents)

	resp, body := s.do(httptest.NewRequest(http.MethodGet, docPath+"/download", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), built.Document.Filename)

	resp, env = s.json(http.MethodPost, docPath+"/trash", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, env = s.json(http.MethodPost, docPath+"/trash", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, env = s.json(http.MethodGet, fmt.Sprintf("/api/v1/scheme-documents?branch_id=%d", ise.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, env.Pagination.Total)

	resp, env = s.json(http.MethodGet, "/api/v1/scheme-documents?trashed=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, env.Pagination.Total)

	resp, _ = s.json(http.MethodPost, docPath+"/restore", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.json(http.MethodPost, docPath+"/restore", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, env = s.json(http.MethodPost, docPath+"/regenerate", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	regenerated := decode[buildData](t, env.Data)
	require.NotNil(t, regenerated.Document)
	assert.NotEqual(t, built.Document.ID, regenerated.Document.ID)
	assert.Equal(t, 2, regenerated.Summary.Courses)

	resp, env = s.json(http.MethodGet, "/api/v1/activity?object_type=scheme_document", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	logs := decode[[]model.ActivityLog](t, env.Data)
	var actions []string
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.ElementsMatch(t, []string{
		model.ActivityGenerate, model.ActivityDownload, model.ActivityTrash,
		model.ActivityRestore, model.ActivityRegenerate,
	}, actions)
	assert.Equal(t, "hod.ise", logs[0].Actor)

	// only trashed documents can be deleted for good
	resp, _ = s.json(http.MethodDelete, docPath, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp, _ = s.json(http.MethodPost, docPath+"/trash", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.json(http.MethodDelete, docPath, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.json(http.MethodGet, docPath, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = s.json(http.MethodDelete, docPath, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.json(http.MethodGet, "/api/v1/scheme-documents/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGenerateReturnsPDF(t *testing.T) {
	s := newTestServer(t)
	ise := dbtest.Branch(t, s.db, "ISE", "Information Science")

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/schemes/%d/2024/5/generate", ise.ID), nil)
	req.Header.Set("Accept", "application/pdf")
	resp, body := s.do(req)

	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
	assert.Empty(t, resp.Header.Get(middleware.WarningHeader))

	// generate alone never writes rows
	var saved int64
	require.NoError(t, s.db.Model(&model.SchemeCourse{}).Count(&saved).Error)
	assert.Zero(t, saved)
}

func TestSaveFormSubmission(t *testing.T) {
	s := newTestServer(t)
	ise := dbtest.Branch(t, s.db, "ISE", "Information Science")

	form := url.Values{}
	form.Set("core_code_1", "IS51")
	form.Set("core_title_1", "Computer Networks")
	form.Set("core_l_1", "3")
	form.Set("core_credits_1", "3")
	form.Set("pec_code_1", "IS521")
	form.Set("pec_title_1", "Cloud Computing")
	form.Set("pec_credits_1", "3")
	form.Set("esc_code_1", "ES51")
	form.Set("esc_title_1", "Python Lab")
	form.Set("elective_code_0", "IS522")
	form.Set("elective_title_0", "Blockchain")
	// index 3 is never read because index 2 is blank
	form.Set("core_code_3", "IS53")
	form.Set("core_title_3", "Unreachable")

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/schemes/%d/2024/5/save", ise.ID), strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, raw := s.do(req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	built := decode[buildData](t, env.Data)
	assert.Equal(t, 4, built.Written)
	assert.Nil(t, built.Document)

	var codes []string
	require.NoError(t, s.db.Model(&model.SchemeCourse{}).Order("course_code").Pluck("course_code", &codes).Error)
	assert.Equal(t, []string{"ES51", "IS51", "IS521", "IS522"}, codes)
}

func TestSchemeRequestErrors(t *testing.T) {
	s := newTestServer(t)
	ise := dbtest.Branch(t, s.db, "ISE", "Information Science")

	resp, env := s.json(http.MethodGet, fmt.Sprintf("/api/v1/schemes/%d/1990/3/rows", ise.ID), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)

	resp, _ = s.json(http.MethodGet, fmt.Sprintf("/api/v1/schemes/%d/2024/9/rows", ise.ID), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.json(http.MethodGet, "/api/v1/schemes/404/2024/3/rows", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.json(http.MethodPost, fmt.Sprintf("/api/v1/schemes/%d/2024/3/generate?mode=save", ise.ID), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.json(http.MethodPost, fmt.Sprintf("/api/v1/schemes/%d/2024/3/save", ise.ID), map[string]interface{}{
		"rows": []map[string]interface{}{{"code": "IS31", "title": "No category"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestExportXLSX(t *testing.T) {
	s := newTestServer(t)
	ise := dbtest.Branch(t, s.db, "ISE", "Information Science")

	resp, body := s.do(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/schemes/%d/2024/3/export.xlsx", ise.ID), nil))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
	// xlsx files are zip archives
	assert.True(t, bytes.HasPrefix(body, []byte("PK")))
}

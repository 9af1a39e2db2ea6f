package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/firecms/cms/pkg/approval"
	"github.com/firecms/cms/pkg/models"
	"github.com/firecms/cms/pkg/pagegen"
	"github.com/firecms/cms/pkg/persistence/file"
	"github.com/firecms/cms/pkg/services"
	"github.com/firecms/cms/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app      *fiber.App
	products *services.Product
	siteRoot string
}

func setupTestApp(t *testing.T) testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	persistence := file.NewPersistence(t.TempDir())
	siteRoot := t.TempDir()

	productService := services.NewProduct(logger, persistence, pagegen.NewGenerator(logger, siteRoot), nil, nil)
	approvalService := services.NewApproval(logger, persistence, approval.NewTracker(), nil, nil)

	handlers := web.NewAPIHandlers(productService, approvalService, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()
	web.RegisterRoutes(app, handlers)

	return testEnv{app: app, products: productService, siteRoot: siteRoot}
}

func doRequest(t *testing.T, app *fiber.App, method, target string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)

		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, data
}

type problemBody struct {
	Type     string `json:"type"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance"`
}

func decodeProblem(t *testing.T, resp *http.Response, body []byte) problemBody {
	t.Helper()

	assert.Equal(t, problems.ProblemMediaType, resp.Header.Get("Content-Type"))

	var problem problemBody
	require.NoError(t, json.Unmarshal(body, &problem))

	return problem
}

func TestAPIHandlers_CreateProduct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
		expectedType   string
	}{
		{
			name:           "successful creation",
			requestBody:    models.Product{ID: "demo-1", NameKo: "데모 제품"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing id",
			requestBody:    models.Product{NameKo: "이름만"},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "unsafe id",
			requestBody:    models.Product{ID: "../etc"},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "schema violation",
			requestBody:    `{"id": "demo-2", "videos": [{"title": "no src"}]}`,
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid-json",
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := setupTestApp(t)

			resp, body := doRequest(t, env.app, http.MethodPost, "/products", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedType != "" {
				problem := decodeProblem(t, resp, body)
				assert.Equal(t, tt.expectedType, problem.Type)

				return
			}

			var product models.Product
			require.NoError(t, json.Unmarshal(body, &product))
			assert.Equal(t, "demo-1", product.ID)
			assert.False(t, product.CreatedAt.IsZero())
		})
	}
}

func TestAPIHandlers_GetProduct_NotFound(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, body := doRequest(t, env.app, http.MethodGet, "/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	problem := decodeProblem(t, resp, body)
	assert.Equal(t, "product_not_found", problem.Type)
	assert.Equal(t, "/products/missing", problem.Instance)
	assert.Equal(t, http.StatusNotFound, problem.Status)
}

func TestAPIHandlers_UpdateProduct(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	require.NoError(t, env.products.Save(t.Context(), &models.Product{ID: "demo-1", NameKo: "원래 이름"}))

	resp, body := doRequest(t, env.app, http.MethodPut, "/products/demo-1", map[string]any{"nameKo": "새 이름"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var product models.Product
	require.NoError(t, json.Unmarshal(body, &product))
	assert.Equal(t, "demo-1", product.ID)
	assert.Equal(t, "새 이름", product.NameKo)

	resp, _ = doRequest(t, env.app, http.MethodPut, "/products/demo-1", map[string]any{"id": "other"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, env.app, http.MethodPut, "/products/missing", map[string]any{"nameKo": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_DeleteProduct(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	require.NoError(t, env.products.Save(t.Context(), &models.Product{ID: "demo-1"}))

	resp, _ := doRequest(t, env.app, http.MethodDelete, "/products/demo-1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doRequest(t, env.app, http.MethodGet, "/products/demo-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_GenerateAndPreviewPage(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	require.NoError(t, env.products.Save(t.Context(), &models.Product{ID: "demo-1", NameKo: "데모 제품"}))

	resp, body := doRequest(t, env.app, http.MethodGet, "/products/demo-1/page/preview", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "demo-1")

	resp, body = doRequest(t, env.app, http.MethodPost, "/products/demo-1/page", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var generated web.GenerateResponse
	require.NoError(t, json.Unmarshal(body, &generated))
	assert.Equal(t, "demo-1", generated.ProductID)

	_, err := os.Stat(filepath.Join(generated.Directory, pagegen.EntryFileName))
	require.NoError(t, err)

	resp, body = doRequest(t, env.app, http.MethodPost, "/products/missing/page", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "product_not_found", decodeProblem(t, resp, body).Type)
}

func TestAPIHandlers_GeneratePage_Failure(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	require.NoError(t, env.products.Save(t.Context(), &models.Product{ID: "demo-1"}))

	// A regular file where the page directory belongs.
	dir := filepath.Join(env.siteRoot, "app", "products", "b-type")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo-1"), []byte("x"), 0o600))

	resp, body := doRequest(t, env.app, http.MethodPost, "/products/demo-1/page", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "generation_error", decodeProblem(t, resp, body).Type)
}

func TestAPIHandlers_ImportAndGenerateAll(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, body := doRequest(t, env.app, http.MethodPost, "/products/import", `[{"id": "a-1"}, {"id": "b-2"}]`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var imported web.ImportResponse
	require.NoError(t, json.Unmarshal(body, &imported))
	assert.Equal(t, 2, imported.Imported)

	resp, body = doRequest(t, env.app, http.MethodPost, "/pages", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result web.GenerateAllResponse
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 2, result.Generated)
	assert.Empty(t, result.Errors)

	resp, _ = doRequest(t, env.app, http.MethodPost, "/products/import", `[{"id": "../x"}]`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func createDocument(t *testing.T, app *fiber.App) models.Document {
	t.Helper()

	resp, body := doRequest(t, app, http.MethodPost, "/documents", web.CreateDocumentRequest{
		Title:     "소방 점검 결과 보고",
		Requester: "박사원",
		Document:  models.Attachment{Name: "report.pdf", Type: "application/pdf", Size: 1024},
		ApprovalFlow: []web.ApproverRequest{
			{ApproverID: "u1", Name: "김팀장", Role: "team_lead"},
			{ApproverID: "u2", Name: "이부장", Role: "director"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var document models.Document
	require.NoError(t, json.Unmarshal(body, &document))

	return document
}

func TestAPIHandlers_CreateDocument_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		requestBody any
	}{
		{"empty flow", web.CreateDocumentRequest{Title: "t", Requester: "r"}},
		{"missing title", web.CreateDocumentRequest{Requester: "r", ApprovalFlow: []web.ApproverRequest{{ApproverID: "u1", Name: "n"}}}},
		{"approver without id", web.CreateDocumentRequest{Title: "t", Requester: "r", ApprovalFlow: []web.ApproverRequest{{Name: "n"}}}},
		{"duplicate approver", web.CreateDocumentRequest{Title: "t", Requester: "r", ApprovalFlow: []web.ApproverRequest{
			{ApproverID: "u1", Name: "a"}, {ApproverID: "u1", Name: "b"},
		}}},
		{"invalid JSON", "{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := setupTestApp(t)

			resp, body := doRequest(t, env.app, http.MethodPost, "/documents", tt.requestBody)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "validation_error", decodeProblem(t, resp, body).Type)
		})
	}
}

func TestAPIHandlers_ApprovalFlow(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	document := createDocument(t, env.app)
	assert.Equal(t, models.DocumentStatusPending, document.Status)

	target := "/documents/" + document.ID + "/actions"

	resp, body := doRequest(t, env.app, http.MethodPost, target, web.ActionRequest{ApproverID: "u1", Action: "approve"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &document))
	assert.Equal(t, models.DocumentStatusInProgress, document.Status)

	resp, body = doRequest(t, env.app, http.MethodPost, target, web.ActionRequest{ApproverID: "u2", Action: "approve"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &document))
	assert.Equal(t, models.DocumentStatusApproved, document.Status)
	assert.Len(t, document.Comments, 2)

	resp, body = doRequest(t, env.app, http.MethodGet, "/documents?status=approved", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listed []models.Document
	require.NoError(t, json.Unmarshal(body, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, document.ID, listed[0].ID)

	resp, body = doRequest(t, env.app, http.MethodGet, "/documents?status=pending", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &listed))
	assert.Empty(t, listed)
}

func TestAPIHandlers_ActOnDocument_Errors(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	document := createDocument(t, env.app)
	target := "/documents/" + document.ID + "/actions"
	stale := document.Version + 5

	tests := []struct {
		name           string
		target         string
		requestBody    any
		expectedStatus int
		expectedType   string
	}{
		{"unknown action", target, web.ActionRequest{ApproverID: "u1", Action: "maybe"}, http.StatusBadRequest, "validation_error"},
		{"missing approver", target, web.ActionRequest{Action: "approve"}, http.StatusBadRequest, "validation_error"},
		{"approver not in flow", target, web.ActionRequest{ApproverID: "u9", Action: "approve"}, http.StatusNotFound, "approver_not_in_flow"},
		{"unknown document", "/documents/missing/actions", web.ActionRequest{ApproverID: "u1", Action: "approve"}, http.StatusNotFound, "document_not_found"},
		{"stale version", target, web.ActionRequest{ApproverID: "u1", Action: "reject", Version: &stale}, http.StatusConflict, "conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, env.app, http.MethodPost, tt.target, tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Equal(t, tt.expectedType, decodeProblem(t, resp, body).Type)
		})
	}

	resp, body := doRequest(t, env.app, http.MethodGet, "/documents/"+document.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var unchanged models.Document
	require.NoError(t, json.Unmarshal(body, &unchanged))
	assert.Equal(t, models.DocumentStatusPending, unchanged.Status)
	assert.Equal(t, document.Version, unchanged.Version)
}

func TestAPIHandlers_GetDocuments_InvalidStatus(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, body := doRequest(t, env.app, http.MethodGet, "/documents?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", decodeProblem(t, resp, body).Type)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, body := doRequest(t, env.app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"healthy"`)
}

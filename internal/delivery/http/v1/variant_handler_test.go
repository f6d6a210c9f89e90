package v1

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"atelier-admin/internal/domain"
	infracache "atelier-admin/internal/infrastructure/cache"
	"atelier-admin/internal/infrastructure/session"
	"atelier-admin/internal/matrix"
	"atelier-admin/internal/repository/pg"
	"atelier-admin/internal/usecase"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	listing   domain.VariantListing
	upsertErr error
	products  []domain.ProductSummary
}

func (c *stubCatalog) GetVariants(context.Context, string) (*domain.VariantListing, error) {
	l := c.listing
	return &l, nil
}

func (c *stubCatalog) BulkUpsertVariants(context.Context, string, *domain.UpsertRequest) (*domain.UpsertResult, error) {
	if c.upsertErr != nil {
		return nil, c.upsertErr
	}
	return &domain.UpsertResult{}, nil
}

func (c *stubCatalog) UploadVariantImage(context.Context, string, *domain.ImageUpload) ([]string, error) {
	return []string{}, nil
}

func (c *stubCatalog) ListProducts(context.Context, int, int) (*domain.ProductPage, error) {
	return &domain.ProductPage{Products: c.products}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testView struct {
	ID             string               `json:"id"`
	Mode           string               `json:"mode"`
	PersistedCount int                  `json:"persistedCount"`
	Groups         []domain.OptionGroup `json:"groups"`
	Rows           []struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Selected bool   `json:"selected"`
		Price    string `json:"price"`
	} `json:"rows"`
	SelectedCount int            `json:"selectedCount"`
	Notice        *domain.Notice `json:"notice"`
}

func newTestServer(t *testing.T, catalog *stubCatalog) *httptest.Server {
	t.Helper()
	store := session.NewMemoryStore(infracache.NewMemoryCache(time.Hour, time.Hour), time.Hour)
	variantUC := usecase.NewVariantUsecase(catalog, store, pg.NewNoopAuditRepository(), nil, matrix.NewEngine(), 1)
	productUC := usecase.NewProductUsecase(catalog, infracache.NewMemoryCache(time.Minute, time.Minute), time.Minute)

	mux := http.NewServeMux()
	RegisterAdminRoutes(mux, NewProductHandler(productUC), NewVariantHandler(variantUC, 1), func(h http.HandlerFunc) http.Handler { return h })
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return do(t, req)
}

func do(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func viewOf(t *testing.T, env envelope) testView {
	t.Helper()
	var v testView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func ringListing() domain.VariantListing {
	return domain.VariantListing{
		Options: []domain.OptionSchema{{Name: "size", Values: []string{"6", "7"}}},
		Variants: []domain.PersistedVariant{{
			ID:          "v7",
			Options:     []domain.OptionPair{{Name: "size", Value: "7"}},
			SKU:         "R-7",
			ManageStock: true,
		}},
	}
}

func openSession(t *testing.T, srv *httptest.Server) testView {
	t.Helper()
	status, env := call(t, srv, http.MethodPost, "/api/v1/admin/products/p1/variant-sessions", nil)
	require.Equal(t, http.StatusCreated, status)
	require.True(t, env.Success)
	return viewOf(t, env)
}

func TestOpenAndGetSession(t *testing.T) {
	srv := newTestServer(t, &stubCatalog{listing: ringListing()})
	v := openSession(t, srv)
	assert.Equal(t, domain.SessionModeEdit, v.Mode)
	assert.Equal(t, 1, v.PersistedCount)
	require.Len(t, v.Rows, 2)
	statuses := []string{v.Rows[0].Status, v.Rows[1].Status}
	assert.ElementsMatch(t, []string{domain.RowStatusNew, domain.RowStatusExisting}, statuses)

	status, env := call(t, srv, http.MethodGet, "/api/v1/admin/variant-sessions/"+v.ID, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, v.ID, viewOf(t, env).ID)

	status, env = call(t, srv, http.MethodGet, "/api/v1/admin/variant-sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)

	status, _ = call(t, srv, http.MethodDelete, "/api/v1/admin/variant-sessions/"+v.ID, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = call(t, srv, http.MethodGet, "/api/v1/admin/variant-sessions/"+v.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGroupEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubCatalog{listing: ringListing()})
	v := openSession(t, srv)
	base := "/api/v1/admin/variant-sessions/" + v.ID

	status, env := call(t, srv, http.MethodPost, base+"/groups", nil)
	require.Equal(t, http.StatusOK, status)
	v = viewOf(t, env)
	require.Len(t, v.Groups, 2)
	added := v.Groups[1].ID

	status, env = call(t, srv, http.MethodPatch, base+"/groups/"+added, map[string]interface{}{
		"name": "metal", "values": []string{"gold", "silver"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, viewOf(t, env).Rows, 4)

	status, _ = call(t, srv, http.MethodPost, base+"/groups/"+added+"/move", map[string]string{"direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = call(t, srv, http.MethodPost, base+"/groups/"+added+"/move", map[string]string{"direction": "up"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "metal", viewOf(t, env).Groups[0].Name)

	status, _ = call(t, srv, http.MethodDelete, base+"/groups/unknown", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = call(t, srv, http.MethodPost, base+"/groups/sync", nil)
	require.Equal(t, http.StatusOK, status)
	v = viewOf(t, env)
	assert.Len(t, v.Groups, 1)
	require.NotNil(t, v.Notice)
	assert.Equal(t, domain.MessageGroupsSynced, v.Notice.Message)
}

func TestSelectionAndBulk(t *testing.T) {
	srv := newTestServer(t, &stubCatalog{listing: ringListing()})
	v := openSession(t, srv)
	base := "/api/v1/admin/variant-sessions/" + v.ID

	status, _ := call(t, srv, http.MethodPost, base+"/selection", map[string]string{"action": "toggle"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env := call(t, srv, http.MethodPost, base+"/selection", map[string]string{"action": "toggle", "rowId": v.Rows[0].ID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, viewOf(t, env).SelectedCount)

	status, env = call(t, srv, http.MethodPost, base+"/bulk", map[string]string{"price": "99"})
	require.Equal(t, http.StatusOK, status)
	v = viewOf(t, env)
	assert.Equal(t, "99", v.Rows[0].Price)
	assert.NotEqual(t, "99", v.Rows[1].Price)

	status, env = call(t, srv, http.MethodPost, base+"/bulk", map[string]string{})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.MessageNothingToApply, viewOf(t, env).Notice.Message)

	status, env = call(t, srv, http.MethodDelete, base+"/selection", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, viewOf(t, env).Rows, 1)
}

func TestSaveErrors(t *testing.T) {
	catalog := &stubCatalog{listing: ringListing()}
	srv := newTestServer(t, catalog)
	v := openSession(t, srv)
	base := "/api/v1/admin/variant-sessions/" + v.ID

	status, env := call(t, srv, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.MessageNoChanges, viewOf(t, env).Notice.Message)

	status, _ = call(t, srv, http.MethodPatch, base+"/rows/"+v.Rows[0].ID, map[string]string{"price": "abc"})
	require.Equal(t, http.StatusOK, status)
	status, env = call(t, srv, http.MethodPost, base+"/save", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Message, "abc")

	status, _ = call(t, srv, http.MethodPatch, base+"/rows/"+v.Rows[0].ID, map[string]string{"price": "120"})
	require.Equal(t, http.StatusOK, status)
	catalog.upsertErr = errors.New("upstream 503")
	status, env = call(t, srv, http.MethodPost, base+"/save", nil)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "Save failed", env.Message)

	status, _ = call(t, srv, http.MethodPatch, base+"/rows/missing", map[string]string{"price": "1"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestExportDisabled(t *testing.T) {
	srv := newTestServer(t, &stubCatalog{listing: ringListing()})
	v := openSession(t, srv)
	status, _ := call(t, srv, http.MethodPost, "/api/v1/admin/variant-sessions/"+v.ID+"/export", nil)
	assert.Equal(t, http.StatusNotImplemented, status)
}

func TestAttachImageToUnsavedRow(t *testing.T) {
	srv := newTestServer(t, &stubCatalog{listing: ringListing()})
	v := openSession(t, srv)
	var unsaved string
	for _, r := range v.Rows {
		if r.Status == domain.RowStatusNew {
			unsaved = r.ID
		}
	}
	require.NotEmpty(t, unsaved)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "ring.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/admin/variant-sessions/"+v.ID+"/rows/"+unsaved+"/image", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, env := do(t, req)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.MessageSaveFirst, viewOf(t, env).Notice.Message)

	req, err = http.NewRequest(http.MethodPost, srv.URL+"/api/v1/admin/variant-sessions/"+v.ID+"/rows/"+unsaved+"/image", strings.NewReader("x"))
	require.NoError(t, err)
	status, _ = do(t, req)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestListProducts(t *testing.T) {
	srv := newTestServer(t, &stubCatalog{products: []domain.ProductSummary{{ID: "p1", Name: "Solitaire"}}})
	status, env := call(t, srv, http.MethodGet, "/api/v1/admin/products?refresh=true", nil)
	require.Equal(t, http.StatusOK, status)
	var products []domain.ProductSummary
	require.NoError(t, json.Unmarshal(env.Data, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Solitaire", products[0].Name)
}

package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bmart/search-service/pkg/httputil"
)

func postJSON(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestIndexListing_ThenSearchable(t *testing.T) {
	f := newTestFixture(t)

	id := uuid.New()
	body := `{
		"id": "` + id.String() + `",
		"title": "Hydraulic Press 50 Ton",
		"price": 450000,
		"categoryId": "` + uuid.New().String() + `",
		"location": {"city": "Rajkot", "state": "Gujarat"},
		"status": "active"
	}`

	w := postJSON(t, f.router, "/internal/listings", body)
	require.Equal(t, http.StatusOK, w.Code)

	sw, resp := f.search(t, url.Values{"q": {"hydraulic press"}})
	require.Equal(t, http.StatusOK, sw.Code)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, id, resp.Results[0].ID)
}

func TestIndexListing_MissingTitleRejected(t *testing.T) {
	f := newTestFixture(t)

	body := `{"id": "` + uuid.New().String() + `", "categoryId": "` + uuid.New().String() + `", "price": 100}`

	w := postJSON(t, f.router, "/internal/listings", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestIndexListing_MalformedBodyRejected(t *testing.T) {
	f := newTestFixture(t)

	w := postJSON(t, f.router, "/internal/listings", `{"id": `)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestBulkIndex_IndexesAllListings(t *testing.T) {
	f := newTestFixture(t)

	catID := uuid.New().String()
	body := `{"listings": [
		{"id": "` + uuid.New().String() + `", "title": "Solar Panel 540W", "price": 12000, "categoryId": "` + catID + `", "status": "active"},
		{"id": "` + uuid.New().String() + `", "title": "Solar Inverter 5kW", "price": 48000, "categoryId": "` + catID + `", "status": "active"}
	]}`

	w := postJSON(t, f.router, "/internal/listings/bulk", body)
	require.Equal(t, http.StatusOK, w.Code)

	sw, resp := f.search(t, url.Values{"q": {"solar"}})
	require.Equal(t, http.StatusOK, sw.Code)
	assert.Len(t, resp.Results, 2)
}

func TestBulkIndex_EmptyListingsRejected(t *testing.T) {
	f := newTestFixture(t)

	w := postJSON(t, f.router, "/internal/listings/bulk", `{"listings": []}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
}

func TestDeleteListing_RemovesFromIndex(t *testing.T) {
	f := newTestFixture(t)

	id := uuid.New()
	body := `{"id": "` + id.String() + `", "title": "Conveyor Belt Roller", "price": 900, "categoryId": "` + uuid.New().String() + `", "status": "active"}`
	require.Equal(t, http.StatusOK, postJSON(t, f.router, "/internal/listings", body).Code)

	req := httptest.NewRequest(http.MethodDelete, "/internal/listings/"+id.String(), nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	sw, resp := f.search(t, url.Values{"q": {"conveyor belt roller"}})
	require.Equal(t, http.StatusOK, sw.Code)
	assert.Empty(t, resp.Results)
}

func TestDeleteListing_InvalidIDRejected(t *testing.T) {
	f := newTestFixture(t)

	req := httptest.NewRequest(http.MethodDelete, "/internal/listings/not-a-uuid", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

func TestReindex_NotConfigured(t *testing.T) {
	f := newTestFixture(t)

	w := postJSON(t, f.router, "/internal/reindex", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

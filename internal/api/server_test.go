package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/fias-importer/internal/fias/loader"
	"github.com/sells-group/fias-importer/internal/model"
	"github.com/sells-group/fias-importer/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var (
	regionGUID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	cityGUID   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	streetGUID = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func newTestServer(t *testing.T, opts Options) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))
	for _, o := range []*model.AddrObj{
		{GUID: regionGUID, Level: model.LevelRegion, FormalName: "Midstate"},
		{GUID: cityGUID, ParentGUID: &regionGUID, Level: model.LevelCity, FormalName: "Springfield"},
		{GUID: streetGUID, ParentGUID: &cityGUID, Level: model.LevelStreet, FormalName: "Elm St"},
	} {
		require.NoError(t, st.PutAddrObj(ctx, o))
	}
	return NewServer(st, loader.NewResolver(""), opts), st
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListTables(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := do(t, s, http.MethodGet, "/api/tables", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tables []tableInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tables))
	assert.Contains(t, tables, tableInfo{Name: "addrobj", Loaders: loader.DefaultSet})
	assert.Contains(t, tables, tableInfo{Name: "delta_house", Loaders: loader.DefaultSet})
}

func TestGetAddress(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := do(t, s, http.MethodGet, "/api/addresses/"+streetGUID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view AddressView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, streetGUID, view.GUID)
	assert.Equal(t, "Midstate, Springfield, Elm St", view.Address.Full)
	assert.Equal(t, "Springfield, Elm St", view.Address.Short)
	assert.Equal(t, "Springfield", view.Components.City)
}

func TestGetAddress_Errors(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	rec := do(t, s, http.MethodGet, "/api/addresses/not-a-guid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/addresses/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
}

func TestSaveRecord_Lifecycle(t *testing.T) {
	s, st := newTestServer(t, Options{})
	house := 12

	rec := do(t, s, http.MethodPost, "/api/records", saveRecordRequest{
		Kind: "client", Address: streetGUID, House: &house, Corps: "A",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created RecordView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotNil(t, created.ID)
	assert.Equal(t, "Midstate, Springfield, Elm St, 12A", created.FullAddress)
	assert.Equal(t, "Springfield, Elm St, 12A", created.ShortAddress)

	// Moving the record to the city recomputes its cached strings.
	rec = do(t, s, http.MethodPost, "/api/records", saveRecordRequest{
		ID: created.ID, Kind: "client", Address: cityGUID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := st.GetRecord(context.Background(), *created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Midstate, Springfield", stored.Address.Full)

	rec = do(t, s, http.MethodGet, "/api/records/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got RecordView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Springfield", got.ShortAddress)
}

func TestSaveRecord_Errors(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	rec := do(t, s, http.MethodPost, "/api/records", map[string]string{"kind": "client"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/records", saveRecordRequest{Kind: "client", Address: uuid.New()})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	id := uuid.New()
	rec = do(t, s, http.MethodPost, "/api/records", saveRecordRequest{ID: &id, Kind: "client", Address: streetGUID})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/records", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveRecord_HouseOutsideColumnLimits(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	big, neg := 40000, -1

	for _, req := range []saveRecordRequest{
		{Kind: "client", Address: streetGUID, House: &big},
		{Kind: "client", Address: streetGUID, Apartment: &neg},
		{Kind: "client", Address: streetGUID, Corps: "ABC"},
	} {
		rec := do(t, s, http.MethodPost, "/api/records", req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body.Error, "model:")
	}
}

func TestGetRecord_NotFound(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := do(t, s, http.MethodGet, "/api/records/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t, Options{CORSOrigins: []string{"https://maps.example.com"}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://maps.example.com")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, "https://maps.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	s, _ := newTestServer(t, Options{RateLimit: 0.001, RateBurst: 2})

	for i := 0; i < 2; i++ {
		rec := do(t, s, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestIPLimiter_PerClient(t *testing.T) {
	l := newIPLimiter(0.001, 1)
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))
}

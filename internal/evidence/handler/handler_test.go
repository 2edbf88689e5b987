package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolgate/internal/evidence/service"
	"toolgate/internal/evidence/store"
	"toolgate/pkg/testutil"
)

func newRouter(t *testing.T) chi.Router {
	t.Helper()

	collector, err := service.New(store.NewMemory())
	require.NoError(t, err)

	router := chi.NewRouter()
	New(collector, slog.New(slog.DiscardHandler)).Register(router)
	return router
}

func TestHandleRecord(t *testing.T) {
	router := newRouter(t)
	principal := testutil.UserPrincipal("user@example.com")

	t.Run("unauthenticated is rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/evidence", RecordEvidenceRequest{
			EvidenceType: "capability_used", SourceID: "vat-calc", SourceName: "VAT Calculator",
		})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("records and returns the row", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/evidence", RecordEvidenceRequest{
			EvidenceType: "capability_used", SourceID: "vat-calc", SourceName: "VAT Calculator",
		})
		req = testutil.WithPrincipal(req, principal)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp EvidenceResponse
		testutil.DecodeJSONResponse(t, rec, &resp)
		assert.Equal(t, 1, resp.Count)
		assert.Equal(t, "familiar", resp.Level)
		assert.Equal(t, "vat-calculator.capability_used", resp.SkillName)
	})

	t.Run("invalid type is a bad request", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/evidence", RecordEvidenceRequest{
			EvidenceType: "osmosis", SourceID: "vat-calc", SourceName: "VAT Calculator",
		})
		req = testutil.WithPrincipal(req, principal)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list returns the caller's rows", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/evidence", nil)
		req = testutil.WithPrincipal(req, principal)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var rows []EvidenceResponse
		testutil.DecodeJSONResponse(t, rec, &rows)
		require.Len(t, rows, 1)

		other := testutil.UserPrincipal("other@example.com")
		req = testutil.NewJSONRequest(t, http.MethodGet, "/evidence", nil)
		req = testutil.WithPrincipal(req, other)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var otherRows []EvidenceResponse
		testutil.DecodeJSONResponse(t, rec, &otherRows)
		assert.Empty(t, otherRows)
	})
}

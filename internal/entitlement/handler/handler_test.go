package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolgate/internal/entitlement/service"
	allocationStore "toolgate/internal/entitlement/store/allocation"
	capabilityStore "toolgate/internal/entitlement/store/capability"
	"toolgate/pkg/domain"
	adminmw "toolgate/pkg/platform/middleware/admin"
	"toolgate/pkg/testutil"
)

type fixture struct {
	router       chi.Router
	allocations  *allocationStore.InMemoryStore
	capabilities *capabilityStore.InMemoryStore
}

// stubSource is a fixed enrollment view keyed by principal ID.
type stubSource struct {
	accessible map[string][]domain.CourseID
}

func (s *stubSource) AccessibleCourseIDs(_ context.Context, principal domain.Principal) ([]domain.CourseID, error) {
	return s.accessible[principal.ID.String()], nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	allocations := allocationStore.NewMemory()
	capabilities := capabilityStore.NewMemory()
	enrollment := &stubSource{accessible: map[string][]domain.CourseID{}}

	resolver, err := service.NewResolver(allocations, capabilities, enrollment)
	require.NoError(t, err)
	curator, err := service.NewCuration(allocations, capabilities)
	require.NoError(t, err)

	h := New(resolver, curator, logger)
	router := chi.NewRouter()
	h.Register(router)
	router.Route("/admin", func(r chi.Router) {
		r.Use(adminmw.RequireAdmin(logger))
		h.RegisterAdmin(r)
	})

	return &fixture{
		router:       router,
		allocations:  allocations,
		capabilities: capabilities,
	}
}

func TestHandleResolve(t *testing.T) {
	f := newFixture(t)

	t.Run("unauthenticated request is denied", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/entitlement/resolve", ResolveRequest{CapabilityID: "vat-calc"})
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp ResolveResponse
		testutil.DecodeJSONResponse(t, rec, &resp)
		assert.False(t, resp.HasAccess)
		assert.Equal(t, "not_authenticated", resp.Reason)
	})

	t.Run("admin principal is granted", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/entitlement/resolve", ResolveRequest{CapabilityID: "vat-calc"})
		req = testutil.WithPrincipal(req, testutil.AdminPrincipal("admin@example.com"))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp ResolveResponse
		testutil.DecodeJSONResponse(t, rec, &resp)
		assert.True(t, resp.HasAccess)
		assert.Equal(t, "admin", resp.Reason)
	})

	t.Run("missing capability id is rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/entitlement/resolve", ResolveRequest{})
		req = testutil.WithPrincipal(req, testutil.UserPrincipal("user@example.com"))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminGuard(t *testing.T) {
	f := newFixture(t)

	t.Run("plain user is forbidden", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/admin/allocations", nil)
		req = testutil.WithPrincipal(req, testutil.UserPrincipal("user@example.com"))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unauthenticated is forbidden", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/admin/allocations", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAllocationCurationViaHandlers(t *testing.T) {
	f := newFixture(t)
	admin := testutil.AdminPrincipal("admin@example.com")

	addReq := testutil.NewJSONRequest(t, http.MethodPost, "/admin/allocations", AddAllocationRequest{
		CapabilityID: "vat-calc",
		CourseID:     "K1",
		CourseName:   "VAT Fundamentals",
		JoinURL:      "https://learn.example.com/K1",
	})
	addReq = testutil.WithPrincipal(addReq, admin)
	addRec := httptest.NewRecorder()
	f.router.ServeHTTP(addRec, addReq)
	require.Equal(t, http.StatusCreated, addRec.Code)

	listReq := testutil.NewJSONRequest(t, http.MethodGet, "/admin/allocations", nil)
	listReq = testutil.WithPrincipal(listReq, admin)
	listRec := httptest.NewRecorder()
	f.router.ServeHTTP(listRec, listReq)
	require.Equal(t, http.StatusOK, listRec.Code)

	var listed []AllocationResponse
	testutil.DecodeJSONResponse(t, listRec, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "vat-calc", listed[0].CapabilityID)
	assert.True(t, listed[0].Active)

	delReq := testutil.NewJSONRequest(t, http.MethodDelete, "/admin/allocations/vat-calc/K1", nil)
	delReq = testutil.WithPrincipal(delReq, admin)
	delRec := httptest.NewRecorder()
	f.router.ServeHTTP(delRec, delReq)
	require.Equal(t, http.StatusNoContent, delRec.Code)

	listRec2 := httptest.NewRecorder()
	listReq2 := testutil.NewJSONRequest(t, http.MethodGet, "/admin/allocations", nil)
	listReq2 = testutil.WithPrincipal(listReq2, admin)
	f.router.ServeHTTP(listRec2, listReq2)
	var listedAfter []AllocationResponse
	testutil.DecodeJSONResponse(t, listRec2, &listedAfter)
	require.Len(t, listedAfter, 1)
	assert.False(t, listedAfter[0].Active, "deactivation is soft")
}

func TestCapabilityCurationViaHandlers(t *testing.T) {
	f := newFixture(t)
	admin := testutil.AdminPrincipal("admin@example.com")

	putReq := testutil.NewJSONRequest(t, http.MethodPut, "/admin/capabilities/simple-calc", UpsertCapabilityRequest{
		Name:     "Simple Calculator",
		IsPublic: true,
	})
	putReq = testutil.WithPrincipal(putReq, admin)
	putRec := httptest.NewRecorder()
	f.router.ServeHTTP(putRec, putReq)
	require.Equal(t, http.StatusOK, putRec.Code)

	// The free-tier fallback should now apply for a plain user.
	resolveReq := testutil.NewJSONRequest(t, http.MethodPost, "/entitlement/resolve", ResolveRequest{CapabilityID: "simple-calc"})
	resolveReq = testutil.WithPrincipal(resolveReq, testutil.UserPrincipal("user@example.com"))
	resolveRec := httptest.NewRecorder()
	f.router.ServeHTTP(resolveRec, resolveReq)

	var resp ResolveResponse
	testutil.DecodeJSONResponse(t, resolveRec, &resp)
	assert.True(t, resp.HasAccess)
	assert.Equal(t, "enrolled", resp.Reason)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"debtorbatch/internal/logger"
)

func identityHeaders(r *http.Request, tenant uuid.UUID) {
	r.Header.Set("Authorization", "Bearer tok")
	r.Header.Set("X-Tenant-ID", tenant.String())
	r.Header.Set("X-Department-ID", uuid.NewString())
	r.Header.Set("X-User-ID", uuid.NewString())
	r.Header.Set("X-Permissions", "debtor:batch:create, debtor:batch:read")
}

func TestAuthExtractsIdentity(t *testing.T) {
	tenant := uuid.New()
	var got Identity
	handler := Auth(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	identityHeaders(req, tenant)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.TenantID != tenant {
		t.Errorf("expected tenant %s, got %s", tenant, got.TenantID)
	}
	if got.BearerToken != "tok" {
		t.Errorf("expected bearer token, got %q", got.BearerToken)
	}
	if !got.HasPermission(PermissionBatchCreate) || !got.HasPermission(PermissionBatchRead) {
		t.Errorf("permissions not parsed: %v", got.Permissions)
	}
}

func TestAuthRejectsMissingHeaders(t *testing.T) {
	handler := Auth(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMockIdentityFallback(t *testing.T) {
	var got Identity
	handler := Auth(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.TenantID != mockIdentity.TenantID {
		t.Errorf("expected mock tenant, got %s", got.TenantID)
	}
}

func TestCorrelationMintsAndEchoes(t *testing.T) {
	var inCtx string
	handler := Correlation(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inCtx = logger.CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	echoed := rec.Header().Get("X-Correlation-ID")
	if echoed == "" || echoed != inCtx {
		t.Errorf("correlation id not propagated: header %q, context %q", echoed, inCtx)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "given-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Correlation-ID") != "given-id" {
		t.Error("caller-supplied correlation id not preserved")
	}
}

func TestRateLimitPerTenant(t *testing.T) {
	handler := Auth(false)(RateLimit(rate.Limit(1), 2, time.Minute)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	))

	tenantA, tenantB := uuid.New(), uuid.New()
	send := func(tenant uuid.UUID) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		identityHeaders(req, tenant)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// Burst of 2 for tenant A, then limited.
	if send(tenantA) != http.StatusOK || send(tenantA) != http.StatusOK {
		t.Fatal("burst requests should pass")
	}
	if send(tenantA) != http.StatusTooManyRequests {
		t.Error("expected tenant A to be limited")
	}
	// Tenant B has its own bucket.
	if send(tenantB) != http.StatusOK {
		t.Error("tenant B should not share tenant A's bucket")
	}
}

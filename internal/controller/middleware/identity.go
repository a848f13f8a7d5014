// Package middleware contains HTTP middleware for the import API.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"debtorbatch/pkg/api"
)

// Permissions checked by the handlers.
const (
	PermissionBatchCreate = "debtor:batch:create"
	PermissionBatchRead   = "debtor:batch:read"
)

// identityKey is the context key for the caller identity.
type identityKey struct{}

// Identity is the authenticated caller extracted from gateway headers.
type Identity struct {
	TenantID     uuid.UUID
	DepartmentID uuid.UUID
	UserID       uuid.UUID
	BearerToken  string
	Permissions  []string
}

// HasPermission reports whether the identity carries the permission.
func (i Identity) HasPermission(p string) bool {
	for _, have := range i.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// Mock identity used when MOCK_IDENTITY is enabled and a request arrives
// without gateway headers. Development convenience only.
var mockIdentity = Identity{
	TenantID:     uuid.MustParse("11111111-1111-1111-1111-111111111111"),
	DepartmentID: uuid.MustParse("22222222-2222-2222-2222-222222222222"),
	UserID:       uuid.MustParse("33333333-3333-3333-3333-333333333333"),
	BearerToken:  "mock-token",
	Permissions:  []string{PermissionBatchCreate, PermissionBatchRead},
}

// Auth extracts the caller identity from the headers set by the API gateway:
// Authorization, X-Tenant-ID, X-Department-ID, X-User-ID, and X-Permissions
// (comma separated). With allowMock, requests without a tenant header get
// the mock identity instead of a 401.
func Auth(allowMock bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := fromHeaders(r)
			if !ok {
				if !allowMock {
					unauthorized(w)
					return
				}
				identity = mockIdentity
			}

			ctx := context.WithValue(r.Context(), identityKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func fromHeaders(r *http.Request) (Identity, bool) {
	tenantID, err := uuid.Parse(r.Header.Get("X-Tenant-ID"))
	if err != nil {
		return Identity{}, false
	}
	departmentID, err := uuid.Parse(r.Header.Get("X-Department-ID"))
	if err != nil {
		return Identity{}, false
	}
	userID, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		return Identity{}, false
	}

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	var permissions []string
	for _, p := range strings.Split(r.Header.Get("X-Permissions"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			permissions = append(permissions, p)
		}
	}

	return Identity{
		TenantID:     tenantID,
		DepartmentID: departmentID,
		UserID:       userID,
		BearerToken:  token,
		Permissions:  permissions,
	}, true
}

// WithIdentity returns a context carrying the identity. Used by tests and
// internal callers that bypass the middleware.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext extracts the caller identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(identityKey{}).(Identity)
	return v, ok
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(api.ErrorResponse{
		Error: api.ErrorBody{Code: "UNAUTHORIZED", Message: "missing or invalid identity headers"},
	})
}

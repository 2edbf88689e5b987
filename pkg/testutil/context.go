package testutil

import (
	"net/http"

	"toolgate/pkg/domain"
	"toolgate/pkg/requestcontext"
)

// WithPrincipal adds an authenticated principal to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithPrincipal(req *http.Request, principal domain.Principal) *http.Request {
	ctx := requestcontext.WithPrincipal(req.Context(), principal)
	return req.WithContext(ctx)
}

// UserPrincipal returns a plain-user principal with a fresh ID.
func UserPrincipal(email string) domain.Principal {
	return domain.Principal{
		ID:    domain.NewUserID(),
		Email: email,
		Role:  domain.RoleUser,
	}
}

// AdminPrincipal returns an admin principal with a fresh ID.
func AdminPrincipal(email string) domain.Principal {
	return domain.Principal{
		ID:    domain.NewUserID(),
		Email: email,
		Role:  domain.RoleAdmin,
	}
}

package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// Role is what a bearer token is allowed to do.
type Role int

const (
	RoleNone Role = iota
	RoleViewer
	RoleAdmin
)

// SecurityScheme is the OpenAPI security scheme name for bearer tokens.
const SecurityScheme = "bearer"

// Authenticator checks bearer tokens. With no tokens configured every
// request is treated as admin.
type Authenticator struct {
	tokens map[string]Role
}

// NewAuthenticator creates an authenticator. Empty tokens are ignored.
func NewAuthenticator(adminTokens, viewerTokens []string) *Authenticator {
	a := &Authenticator{tokens: map[string]Role{}}
	for _, t := range viewerTokens {
		if t != "" {
			a.tokens[t] = RoleViewer
		}
	}
	for _, t := range adminTokens {
		if t != "" {
			a.tokens[t] = RoleAdmin
		}
	}
	return a
}

// Enabled reports whether any token is configured.
func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.tokens) > 0
}

// RoleFor returns the role of an Authorization header value.
func (a *Authenticator) RoleFor(header string) Role {
	if !a.Enabled() {
		return RoleAdmin
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return RoleNone
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

	role := RoleNone
	for candidate, r := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
			role = r
		}
	}
	return role
}

// Require returns an operation option that rejects callers below role:
// 401 without a valid token, 403 with a token of a lesser role.
func (a *Authenticator) Require(api huma.API, role Role) func(o *huma.Operation) {
	return func(o *huma.Operation) {
		if !a.Enabled() {
			return
		}
		o.Security = []map[string][]string{{SecurityScheme: {}}}
		o.Middlewares = append(o.Middlewares, func(ctx huma.Context, next func(huma.Context)) {
			got := a.RoleFor(ctx.Header("Authorization"))
			switch {
			case got == RoleNone:
				huma.WriteErr(api, ctx, http.StatusUnauthorized, "missing or invalid bearer token")
			case got < role:
				huma.WriteErr(api, ctx, http.StatusForbidden, "insufficient permission for this operation")
			default:
				next(ctx)
			}
		})
	}
}

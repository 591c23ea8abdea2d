package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/finentry/finentry/internal/platform/httpx"
	"github.com/finentry/finentry/internal/shared"
)

// CompanyHeader lets owners pick the company a request acts on.
const CompanyHeader = "X-Company-ID"

// Middleware resolves bearer tokens into identity and scope.
type Middleware struct {
	Tokens *Tokens
	Logger *slog.Logger
}

// Authenticate rejects requests without a valid bearer token and stores
// the caller identity and scope in the request context.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearer(r.Header.Get("Authorization"))
		if !ok {
			httpx.RespondError(w, m.Logger, fmt.Errorf("%w: missing bearer token", shared.ErrUnauthorized))
			return
		}
		id, err := m.Tokens.Parse(raw)
		if err != nil {
			httpx.RespondError(w, m.Logger, err)
			return
		}
		scope, err := shared.ResolveScope(id, r.Header.Get(CompanyHeader))
		if err != nil {
			httpx.RespondError(w, m.Logger, err)
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), id)
		ctx = shared.ContextWithScope(ctx, scope)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCompanyOnCreate narrows an unscoped owner to the default company
// for POST requests, which create records and need a tenant. Reads and
// updates or deletes of existing records keep the owner's global scope; the
// services check ownership against the record's own company.
func (m Middleware) RequireCompanyOnCreate(dir shared.CompanyDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			scope, err := shared.ScopeFromContext(r.Context())
			if err != nil {
				httpx.RespondError(w, m.Logger, err)
				return
			}
			scope, err = shared.RequireCompany(r.Context(), scope, dir)
			if err != nil {
				httpx.RespondError(w, m.Logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithScope(r.Context(), scope)))
		})
	}
}

// RequireOwner allows only OWNER identities through.
func (m Middleware) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := shared.IdentityFromContext(r.Context())
		if !ok {
			httpx.RespondError(w, m.Logger, shared.ErrUnauthorized)
			return
		}
		if !id.IsOwner() {
			httpx.RespondError(w, m.Logger, fmt.Errorf("%w: owner role required", shared.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/toko-pricing/internal/common"
)

// Middleware resolves bearer tokens into the request context.
type Middleware struct {
	Verifier *Verifier
	Logger   zerolog.Logger
}

// Authenticate is optional authentication: a valid token puts the caller on
// the context, anything else passes through as anonymous. Quotes rely on
// this since guests may price a cart.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ctx, err := m.identify(r); err == nil {
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests without a verified caller. When Authenticate
// already ran the token is not parsed twice.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := common.UserID(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx, err := m.identify(r)
		if err != nil {
			m.Logger.Debug().Err(err).Str("path", r.URL.Path).Msg("request rejected")
			common.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole answers 403 unless the caller holds role. Mount after RequireAuth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if common.HasRole(r.Context(), role) {
				next.ServeHTTP(w, r)
				return
			}
			common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role", nil)
		})
	}
}

func (m Middleware) identify(r *http.Request) (context.Context, error) {
	if m.Verifier == nil {
		return nil, common.Internal(errVerifierMissing)
	}
	claims, err := m.Verifier.Verify(bearerToken(r.Header.Get("Authorization")))
	if err != nil {
		return nil, err
	}
	ctx := r.Context()
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("enduser.id", claims.UserID.String()))
	ctx = common.WithUserID(ctx, claims.UserID.String())
	return common.WithRoles(ctx, claims.Roles), nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

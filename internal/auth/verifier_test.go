package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pricing/internal/common"
)

func newTestVerifier(t *testing.T, now time.Time) *Verifier {
	t.Helper()
	v, err := NewVerifier(Config{Secret: "super-secret-key", Issuer: "toko-identity", Audience: "toko-pricing", ClockSkew: time.Second})
	require.NoError(t, err)
	return v.WithNow(func() time.Time { return now })
}

func TestVerifyRoundTrip(t *testing.T) {
	now := time.Now()
	v := newTestVerifier(t, now)
	user := uuid.New()

	token, err := v.Issue(user, []string{"admin"}, time.Minute)
	require.NoError(t, err)

	claims, err := v.Verify("  " + token + " ")
	require.NoError(t, err)
	require.Equal(t, user, claims.UserID)
	require.Equal(t, []string{"admin"}, claims.Roles)
}

func TestVerifyRejects(t *testing.T) {
	now := time.Now()
	v := newTestVerifier(t, now)
	user := uuid.New()

	expired, err := v.Issue(user, nil, -time.Minute)
	require.NoError(t, err)

	other, err := NewVerifier(Config{Secret: "another-secret", Issuer: "toko-identity", Audience: "toko-pricing"})
	require.NoError(t, err)
	forged, err := other.WithNow(func() time.Time { return now }).Issue(user, nil, time.Minute)
	require.NoError(t, err)

	wrongIssuer, err := NewVerifier(Config{Secret: "super-secret-key", Issuer: "elsewhere", Audience: "toko-pricing"})
	require.NoError(t, err)
	misissued, err := wrongIssuer.WithNow(func() time.Time { return now }).Issue(user, nil, time.Minute)
	require.NoError(t, err)

	built, err := jwt.NewBuilder().Subject("not-a-uuid").Issuer("toko-identity").Audience([]string{"toko-pricing"}).
		IssuedAt(now).Expiration(now.Add(time.Minute)).Build()
	require.NoError(t, err)
	badSubject, err := jwt.Sign(built, jwt.WithKey(jwa.HS256, []byte("super-secret-key")))
	require.NoError(t, err)

	hs512, err := jwt.Sign(built, jwt.WithKey(jwa.HS512, []byte("super-secret-key")))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":           "",
		"garbage":         "abc.def.ghi",
		"expired":         expired,
		"forged":          forged,
		"wrong issuer":    misissued,
		"bad subject":     string(badSubject),
		"wrong algorithm": string(hs512),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			require.Error(t, err)
			appErr, ok := common.AsAppError(err)
			require.True(t, ok)
			require.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
		})
	}
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier(Config{Secret: " "})
	require.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	v := newTestVerifier(t, time.Now())
	m := Middleware{Verifier: v}
	user := uuid.New()
	adminToken, err := v.Issue(user, []string{"admin"}, time.Minute)
	require.NoError(t, err)
	plainToken, err := v.Issue(user, nil, time.Minute)
	require.NoError(t, err)

	var seen string
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = common.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	serve := func(h http.Handler, token string) int {
		seen = ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusUnauthorized, serve(m.RequireAuth(ok), ""))
	require.Equal(t, http.StatusUnauthorized, serve(m.RequireAuth(ok), "junk"))
	require.Equal(t, http.StatusNoContent, serve(m.RequireAuth(ok), plainToken))
	require.Equal(t, user.String(), seen)

	admin := m.RequireAuth(RequireRole("admin")(ok))
	require.Equal(t, http.StatusForbidden, serve(admin, plainToken))
	require.Equal(t, http.StatusNoContent, serve(admin, adminToken))

	require.Equal(t, http.StatusNoContent, serve(m.Authenticate(ok), ""))
	require.Empty(t, seen)
	require.Equal(t, http.StatusNoContent, serve(m.Authenticate(ok), "junk"))
	require.Empty(t, seen)
	require.Equal(t, http.StatusNoContent, serve(m.Authenticate(ok), plainToken))
	require.Equal(t, user.String(), seen)
}

func TestVerifyReportsExpiry(t *testing.T) {
	v := newTestVerifier(t, time.Now())
	token, err := v.Issue(uuid.New(), nil, -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "TOKEN_EXPIRED", appErr.Code)
}

func TestRequireAuthReusesAuthenticatedCaller(t *testing.T) {
	v := newTestVerifier(t, time.Now())
	user := uuid.New()
	token, err := v.Issue(user, nil, time.Minute)
	require.NoError(t, err)

	var seen string
	h := Middleware{Verifier: v}.Authenticate(Middleware{}.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = common.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, user.String(), seen)

	rec = httptest.NewRecorder()
	Middleware{}.RequireAuth(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

package security

import (
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func echo(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write(data)
	})
}

func TestBodyLimit(t *testing.T) {
	h := BodyLimit{Max: 10}.Middleware(echo(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout/quote", strings.NewReader(`{"a":1}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `{"a":1}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/checkout/quote", strings.NewReader(`{"items":[1,2,3]}`))
	req.ContentLength = -1
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "PAYLOAD_TOO_LARGE", body["error"]["code"])

	req = httptest.NewRequest(http.MethodPost, "/checkout/quote", strings.NewReader("tiny"))
	req.ContentLength = 100
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHeaders(t *testing.T) {
	h := Headers{HSTSMaxAge: 600, HSTSIncludeSubdomains: true}.Middleware(echo(t))

	req := httptest.NewRequest(http.MethodGet, "https://pricing.example/orders/1", nil)
	req.TLS = &tls.ConnectionState{}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "max-age=600; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://pricing.example/orders/1", nil))
	require.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

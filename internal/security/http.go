// Package security holds request hardening middleware for the pricing API.
package security

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/noah-isme/toko-pricing/internal/common"
)

// BodyLimit caps request payloads. Cart bodies are small, so anything over Max
// is rejected before decoding.
type BodyLimit struct {
	Max int64
}

// Middleware answers 413 PAYLOAD_TOO_LARGE for oversized bodies.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			tooLarge(w, b.Max)
			return
		}
		buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, b.Max))
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			tooLarge(w, b.Max)
			return
		case err != nil:
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(buf))
		r.ContentLength = int64(len(buf))
		next.ServeHTTP(w, r)
	})
}

func tooLarge(w http.ResponseWriter, limit int64) {
	common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large",
		map[string]string{"limitBytes": strconv.FormatInt(limit, 10)})
}

// Headers sets response hardening headers. HSTS is only sent over TLS.
type Headers struct {
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
}

// Middleware implements the header policy.
func (h Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "no-referrer")
		headers.Set("Cache-Control", "no-store")
		if h.HSTSMaxAge > 0 && r.TLS != nil {
			value := []string{"max-age=" + strconv.Itoa(h.HSTSMaxAge)}
			if h.HSTSIncludeSubdomains {
				value = append(value, "includeSubDomains")
			}
			headers.Set("Strict-Transport-Security", strings.Join(value, "; "))
		}
		next.ServeHTTP(w, r)
	})
}

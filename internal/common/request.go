package common

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

// ClientIP prefers the left-most X-Forwarded-For hop, then X-Real-IP, then the
// peer address.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// Page is a limit/offset window for admin listings.
type Page struct {
	Number int   `json:"page"`
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

// ParsePage reads ?page= (1-based) and ?limit=, clamping limit to maxLimit.
func ParsePage(r *http.Request, defLimit, maxLimit int) Page {
	q := r.URL.Query()
	number, limit := 1, defLimit
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		number = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		limit = n
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Page{Number: number, Limit: int32(limit), Offset: int32((number - 1) * limit)}
}

// DecodeJSON reads one JSON document from the body into dst and, when v is
// set, runs struct validation. Failures are 400 AppErrors whose details map
// json field names to the failing rule.
func DecodeJSON(r *http.Request, dst any, v *validator.Validate) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return NewAppError("PAYLOAD_TOO_LARGE", "request body too large", http.StatusRequestEntityTooLarge, err)
		}
		return BadRequest("invalid payload", err)
	}
	if v == nil {
		return nil
	}
	if err := v.Struct(dst); err != nil {
		return BadRequest("validation failed", err).WithDetails(FieldErrors(err))
	}
	return nil
}

// FieldErrors flattens validator output to field -> tag.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[fe.Field()] = fe.Tag()
		}
	}
	return out
}

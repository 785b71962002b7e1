package restapi

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
)

// ResponseError is a non-2xx answer from the backend.
type ResponseError struct {
	Status int
	Fields map[string][]string
	// Wait is the Retry-After of a 429 or 503, zero when absent.
	Wait time.Duration
}

// RetryAfter exposes the backend's wait hint to the retry policy.
func (e *ResponseError) RetryAfter() (time.Duration, bool) {
	return e.Wait, e.Wait > 0
}

func (e *ResponseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "backend responded %d %s", e.Status, http.StatusText(e.Status))
	for _, f := range slices.Sorted(maps.Keys(e.Fields)) {
		fmt.Fprintf(&b, "; %s: %s", f, strings.Join(e.Fields[f], ", "))
	}
	return b.String()
}

// Unwrap lets callers test rejected credentials with errors.Is.
func (e *ResponseError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthenticated
	}
	return nil
}

func (e *ResponseError) temporary() bool {
	return e.Status >= http.StatusInternalServerError ||
		e.Status == http.StatusTooManyRequests
}

// responseError decodes an error body. A 400 becomes a
// *domain.ValidationError so forms can show per-field messages.
func responseError(status int, header http.Header, body []byte) error {
	fields := parseFieldErrors(body)

	if status == http.StatusBadRequest {
		ve := domain.NewValidationError()
		for f, msgs := range fields {
			for _, m := range msgs {
				ve.Add(f, m)
			}
		}
		if ve.Empty() {
			ve.Add(domain.FormField, http.StatusText(status))
		}
		return ve
	}
	return &ResponseError{
		Status: status,
		Fields: fields,
		Wait:   parseRetryAfter(header.Get("Retry-After")),
	}
}

// parseRetryAfter reads delay-seconds. HTTP dates are not sent by the
// backend and are ignored.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// parseFieldErrors flattens DRF style bodies:
//
//	{"email": ["taken"], "profile": {"phone": ["invalid"]}, "detail": "..."}
//
// "detail" becomes a form-level message.
func parseFieldErrors(body []byte) map[string][]string {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	out := make(map[string][]string)
	for k, v := range raw {
		if k == "detail" {
			k = domain.FormField
		}
		flattenField(out, k, v)
	}
	return out
}

func flattenField(out map[string][]string, key string, v any) {
	switch v := v.(type) {
	case string:
		out[key] = append(out[key], v)
	case []any:
		for _, item := range v {
			flattenField(out, key, item)
		}
	case map[string]any:
		for k, nested := range v {
			flattenField(out, key+"."+k, nested)
		}
	case nil:
	default:
		out[key] = append(out[key], fmt.Sprint(v))
	}
}

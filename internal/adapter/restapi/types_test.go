package restapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMediaURL(t *testing.T) {
	n := normalizer{mediaBase: "http://api.local:8000"}
	assert.Equal(t, "http://api.local:8000/media/x.png", n.mediaURL("/media/x.png"))
	assert.Equal(t, "http://api.local:8000/media/x.png", n.mediaURL("media/x.png"))
	assert.Equal(t, "https://cdn/x.png", n.mediaURL("https://cdn/x.png"))
}

func TestParseFieldErrors(t *testing.T) {
	got := parseFieldErrors([]byte(`{
		"password": ["too short", "too common"],
		"detail": "No active account found with the given credentials",
		"profile": {"birthdate": ["Date has wrong format."]},
		"code": 42
	}`))
	assert.Equal(t, map[string][]string{
		"password":          {"too short", "too common"},
		"non_field_errors":  {"No active account found with the given credentials"},
		"profile.birthdate": {"Date has wrong format."},
		"code":              {"42"},
	}, got)

	assert.Nil(t, parseFieldErrors([]byte("<html>")))
}

package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBearer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		header      http.Header
		wantToken   string
		wantPresent bool
	}{
		{name: "no header", header: http.Header{}},
		{name: "valid", header: http.Header{"Authorization": {"Bearer abc"}}, wantToken: "abc", wantPresent: true},
		{name: "trimmed", header: http.Header{"Authorization": {"Bearer   abc  "}}, wantToken: "abc", wantPresent: true},
		{name: "empty after trim", header: http.Header{"Authorization": {"Bearer    "}}},
		{name: "wrong scheme", header: http.Header{"Authorization": {"Basic dXNlcjpwYXNz"}}},
		{name: "lowercase scheme", header: http.Header{"Authorization": {"bearer abc"}}},
		{name: "scheme without space", header: http.Header{"Authorization": {"Bearerabc"}}},
		{name: "scheme only", header: http.Header{"Authorization": {"Bearer"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			token, present := ExtractBearer(tt.header)
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantPresent, present)
		})
	}
}

func TestExtractBearerHeaderNameCaseInsensitive(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("authorization", "Bearer xyz")
	token, ok := ExtractBearer(h)
	assert.True(t, ok)
	assert.Equal(t, "xyz", token)

	req, _ := http.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("AUTHORIZATION", "Bearer from-request")
	token, ok = ExtractBearer(req.Header)
	assert.True(t, ok)
	assert.Equal(t, "from-request", token)
}

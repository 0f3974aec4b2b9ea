package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolve_Found(t *testing.T) {
	srv := newServer(t, http.StatusOK,
		`[{"lat":"40.7127281","lon":"-74.0060152","display_name":"City of New York, New York, United States"}]`,
		func(r *http.Request) {
			assert.Equal(t, "/search", r.URL.Path)
			assert.Equal(t, "New York, NY", r.URL.Query().Get("q"))
			assert.Equal(t, "json", r.URL.Query().Get("format"))
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			assert.Equal(t, "us", r.URL.Query().Get("countrycodes"))
			assert.Equal(t, "test-agent/1.0", r.Header.Get("User-Agent"))
		})

	resolver := New(Config{BaseURL: srv.URL, UserAgent: "test-agent/1.0", CountryCodes: "us", Timeout: time.Second})

	result, err := resolver.Resolve(context.Background(), "New York, NY")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.InDelta(t, 40.7127281, result.Latitude, 1e-9)
	assert.InDelta(t, -74.0060152, result.Longitude, 1e-9)
	assert.Equal(t, "City of New York, New York, United States", result.DisplayName)
}

func TestResolve_NotFound(t *testing.T) {
	srv := newServer(t, http.StatusOK, `[]`, nil)

	result, err := New(Config{BaseURL: srv.URL}).Resolve(context.Background(), "Nowhere")

	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusServiceUnavailable, body: ``},
		{name: "malformed json", status: http.StatusOK, body: `{"lat":`},
		{name: "malformed latitude", status: http.StatusOK, body: `[{"lat":"north","lon":"1.0"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.body, nil)

			result, err := New(Config{BaseURL: srv.URL}).Resolve(context.Background(), "Somewhere")

			assert.Error(t, err)
			assert.Nil(t, result)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	resolver := New(Config{})

	assert.Equal(t, DefaultBaseURL, resolver.baseURL)
	assert.Equal(t, DefaultUserAgent, resolver.userAgent)
}

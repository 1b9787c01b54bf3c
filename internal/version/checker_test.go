package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		name     string
		latest   string
		current  string
		expected bool
	}{
		{"same version", "0.1.0", "0.1.0", false},
		{"patch upgrade", "0.1.1", "0.1.0", true},
		{"patch downgrade", "0.1.0", "0.1.1", false},
		{"minor upgrade", "0.2.0", "0.1.9", true},
		{"major upgrade", "1.0.0", "0.9.9", true},
		{"multi-digit patch", "0.0.100", "0.0.99", true},
		{"different lengths", "1.0", "0.9.1", true},
		{"different lengths reversed", "0.9.1", "1.0", false},
		{"pre-release same base", "0.1.0-rc1", "0.1.0", false},
		{"build metadata", "0.1.1+abc", "0.1.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isNewerVersion(tt.latest, tt.current))
		})
	}
}

func TestChecker_Check(t *testing.T) {
	var agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tag_name":"v0.3.0","html_url":"https://example.com/r/0.3.0"}`))
	}))
	defer srv.Close()

	c := &Checker{URL: srv.URL, Client: srv.Client()}

	u, err := c.Check(context.Background(), "v0.2.5")
	require.NoError(t, err)
	assert.True(t, u.Available)
	assert.Equal(t, "0.3.0", u.Latest)
	assert.Equal(t, "0.2.5", u.Current)
	assert.Equal(t, "https://example.com/r/0.3.0", u.URL)
	assert.Equal(t, "sockbench/v0.2.5", agent)

	u, err = c.Check(context.Background(), "0.3.0")
	require.NoError(t, err)
	assert.False(t, u.Available)
}

func TestChecker_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := &Checker{URL: srv.URL, Client: srv.Client()}
	_, err := c.Check(context.Background(), "0.1.0")
	assert.ErrorContains(t, err, "unexpected status code: 403")
}

package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servermap/servermap/pkg/errors"
)

func TestGetAppliesHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(&TokenAuth{}, "secret", WithUserAgent("test-agent/0.1"))
	resp, err := c.Get(context.Background(), "github", srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "token secret", got.Get("Authorization"))
	assert.Equal(t, "test-agent/0.1", got.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Get("Accept"))
}

func TestGetNoCredentialSkipsAuth(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	c := New(&BearerAuth{}, "")
	resp, err := c.Get(context.Background(), "glama", srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Empty(t, got.Get("Authorization"))
}

func TestGetErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(nil, "")
	_, err := c.Get(context.Background(), "mcp.so", srv.URL)
	require.Error(t, err)

	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "mcp.so", apiErr.Registry)
}

func TestGetRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(nil, "")
	_, err := c.Get(context.Background(), "github", srv.URL)
	assert.True(t, errors.IsRateLimited(err))
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name": "weather", "stars": 42}`))
	}))
	defer srv.Close()

	var out struct {
		Name  string `json:"name"`
		Stars int    `json:"stars"`
	}
	c := New(nil, "")
	require.NoError(t, c.GetJSON(context.Background(), "glama", srv.URL, &out))
	assert.Equal(t, "weather", out.Name)
	assert.Equal(t, 42, out.Stars)
}

func TestGetJSONParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	var out map[string]any
	err := New(nil, "").GetJSON(context.Background(), "glama", srv.URL, &out)

	var parseErr *errors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "json", parseErr.Format)
}

func TestGetBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>page</html>"))
	}))
	defer srv.Close()

	body, err := New(nil, "").GetBody(context.Background(), "mcp.so", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>page</html>", body)
}

func TestAuthenticators(t *testing.T) {
	tests := []struct {
		name   string
		auth   Authenticator
		header string
		want   string
	}{
		{"bearer", &BearerAuth{}, "Authorization", "Bearer cred"},
		{"token", &TokenAuth{}, "Authorization", "token cred"},
		{"custom header", &HeaderAuth{Header: "X-Api-Key"}, "X-Api-Key", "cred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
			tt.auth.Apply(req, "cred")
			assert.Equal(t, tt.want, req.Header.Get(tt.header))
		})
	}
}

func TestQueryAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/api?page=2", nil)
	(&QueryAuth{Param: "key"}).Apply(req, "cred")

	assert.Equal(t, "cred", req.URL.Query().Get("key"))
	assert.Equal(t, "2", req.URL.Query().Get("page"))
}

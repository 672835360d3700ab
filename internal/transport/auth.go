package transport

import "net/http"

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request, credential string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {
	// No authentication applied
}

// BearerAuth implements Bearer token authentication.
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, credential string) {
	req.Header.Set("Authorization", "Bearer "+credential)
}

// TokenAuth implements GitHub-style "token" scheme authentication.
type TokenAuth struct{}

// Apply implements the Authenticator interface for TokenAuth.
func (a *TokenAuth) Apply(req *http.Request, credential string) {
	req.Header.Set("Authorization", "token "+credential)
}

// HeaderAuth implements custom header authentication.
type HeaderAuth struct {
	Header string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, credential string) {
	req.Header.Set(a.Header, credential)
}

// QueryAuth implements API key as query parameter authentication.
type QueryAuth struct {
	Param string
}

// Apply implements the Authenticator interface for QueryAuth.
func (a *QueryAuth) Apply(req *http.Request, credential string) {
	if req.URL == nil {
		return
	}

	query := req.URL.Query()
	query.Set(a.Param, credential)
	req.URL.RawQuery = query.Encode()
}

package transport

import (
	"net/http"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request) {}

// BasicAuth implements HTTP basic authentication, the scheme the wiki REST API
// accepts for user and password credentials.
type BasicAuth struct {
	User     string
	Password string
}

// Apply implements the Authenticator interface for BasicAuth.
func (a *BasicAuth) Apply(req *http.Request) {
	if a.User == "" && a.Password == "" {
		return
	}
	req.SetBasicAuth(a.User, a.Password)
}

// BearerAuth implements Bearer token authentication (personal access tokens).
type BearerAuth struct {
	Token string
}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// HeaderAuth implements custom header authentication.
type HeaderAuth struct {
	Header string
	Value  string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request) {
	req.Header.Set(a.Header, a.Value)
}

// Package feishutest provides a stub Feishu open API for tests.
package feishutest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Request is a request received by the stub
type Request struct {
	Method        string
	Path          string
	RawQuery      string
	Query         map[string]string
	Authorization string
	Body          []byte
}

// Server is a stub of the token and bitable endpoints. Zero values answer
// with a valid token and an empty JSON object.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	// TokenStatus is the status code of the token endpoint, default 200
	TokenStatus int
	// TokenBody is the body of the token endpoint
	TokenBody string
	// DataStatus is the status code of all bitable endpoints, default 200
	DataStatus int
	// DataBody is the body of all bitable endpoints, default {}
	DataBody string

	tokenRequests []Request
	dataRequests  []Request
}

// Token is the token handed out by default
const Token = "t-stub-tenant-token"

// NewServer starts a new stub. Close it when done.
func NewServer() *Server {
	s := &Server{
		TokenStatus: http.StatusOK,
		TokenBody:   `{"code":0,"msg":"ok","tenant_access_token":"` + Token + `","expire":7200}`,
		DataStatus:  http.StatusOK,
		DataBody:    `{}`,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	query := map[string]string{}
	for k, v := range r.URL.Query() {
		query[k] = v[0]
	}
	req := Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		RawQuery:      r.URL.RawQuery,
		Query:         query,
		Authorization: r.Header.Get("Authorization"),
		Body:          body,
	}

	s.mu.Lock()
	var status int
	var resBody string
	if strings.HasSuffix(r.URL.Path, "/auth/v3/tenant_access_token/internal") {
		s.tokenRequests = append(s.tokenRequests, req)
		status, resBody = s.TokenStatus, s.TokenBody
	} else {
		s.dataRequests = append(s.dataRequests, req)
		status, resBody = s.DataStatus, s.DataBody
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, resBody)
}

// TokenRequests returns all requests made to the token endpoint
func (s *Server) TokenRequests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request{}, s.tokenRequests...)
}

// DataRequests returns all requests made to bitable endpoints
func (s *Server) DataRequests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request{}, s.dataRequests...)
}

// Calls returns the total number of requests the stub received
func (s *Server) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokenRequests) + len(s.dataRequests)
}

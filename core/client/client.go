/*
Package client provides easy and fast in-process access to the proxy's REST API

Instead of marshalling HTTP, the client talks directly to the mux router. It is also
able to talk to a running service through a URL, which makes it perfectly suited for
unit tests as well as for smoke tests against a deployment.
*/
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// Client provides easy access to the REST API.
type Client struct {
	router     *mux.Router
	httpClient *http.Client
	url        string
	ctx        context.Context

	defaultHeaders map[string]string
}

// Response is a complete response of the API
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewWithRouter creates a client to make pseudo-REST requests to the service,
// through the mux router
func NewWithRouter(router *mux.Router) Client {
	return Client{
		router:         router,
		defaultHeaders: map[string]string{},
	}
}

// NewWithURL creates a client to make REST requests to the service
func NewWithURL(url string) Client {
	return Client{
		url:            strings.TrimSuffix(url, "/"),
		httpClient:     &http.Client{Timeout: 20 * time.Second},
		defaultHeaders: map[string]string{},
	}
}

// WithHeader returns a new client with a default header added
func (c Client) WithHeader(key string, value string) Client {
	headers := map[string]string{key: value}
	for k, v := range c.defaultHeaders {
		if k != key {
			headers[k] = v
		}
	}
	c.defaultHeaders = headers
	return c
}

// WithContext returns a new client with specific request context
func (c Client) WithContext(ctx context.Context) Client {
	c.ctx = ctx
	return c
}

// Context returns the request context of the client
func (c Client) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Do sends a request and returns the response whatever its status. A body of type
// []byte is sent as is, nil sends no body, everything else is marshalled to JSON.
func (c Client) Do(method, path string, body interface{}) (*Response, error) {
	var reqBody io.Reader
	if body != nil {
		j, ok := body.([]byte)
		if !ok {
			var err error
			j, err = json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("%s to %s: %w", method, path, err)
			}
		}
		reqBody = bytes.NewReader(j)
	}

	r, err := http.NewRequestWithContext(c.Context(), method, c.url+path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.defaultHeaders {
		r.Header.Set(key, value)
	}

	if c.router != nil {
		// the server always hands handlers a non-nil body
		if r.Body == nil {
			r.Body = http.NoBody
		}
		rec := httptest.NewRecorder()
		c.router.ServeHTTP(rec, r)
		res := rec.Result()
		return &Response{StatusCode: res.StatusCode, Header: res.Header, Body: rec.Body.Bytes()}, nil
	}

	res, err := c.httpClient.Do(r)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: res.StatusCode, Header: res.Header, Body: resBody}, nil
}

// RawGet gets a resource from a fully qualified path.
//
// The path can be extended with query strings.
//
// result can be map[string]interface{} or a raw *[]byte.
func (c Client) RawGet(path string, result interface{}) (int, error) {
	return c.raw(http.MethodGet, path, nil, result)
}

// RawPost posts a resource to a fully qualified path
func (c Client) RawPost(path string, body interface{}, result interface{}) (int, error) {
	return c.raw(http.MethodPost, path, body, result)
}

// RawPut puts a resource to a fully qualified path
func (c Client) RawPut(path string, body interface{}, result interface{}) (int, error) {
	return c.raw(http.MethodPut, path, body, result)
}

func (c Client) raw(method, path string, body interface{}, result interface{}) (int, error) {
	res, err := c.Do(method, path, body)
	if err != nil {
		return http.StatusInternalServerError, err
	}
	status := res.StatusCode
	if status == http.StatusNoContent {
		return status, nil
	}
	if status != http.StatusOK {
		return status, fmt.Errorf("handler returned wrong status code: got %v want %v. Error: %s",
			status, http.StatusOK, strings.TrimSpace(string(res.Body)))
	}

	if res.Body != nil && result != nil {
		if raw, ok := result.(*[]byte); ok {
			*raw = res.Body
		} else {
			err = json.Unmarshal(res.Body, result)
		}
	}
	return status, err
}

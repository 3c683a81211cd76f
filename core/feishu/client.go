/*
Package feishu is a thin client for the Feishu open API.

It acquires tenant access tokens and forwards record operations to a bitable. Every
record operation acquires a fresh token first; nothing is cached between calls and
no call is ever retried. Responses are returned as the raw upstream bytes so that
callers can relay them unchanged.
*/
package feishu

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/feishu-proxy/core/logger"
	"github.com/relabs-tech/feishu-proxy/core/metrics"
)

// DefaultBaseURL is the public Feishu open API
const DefaultBaseURL = "https://open.feishu.cn/open-apis"

const (
	tokenPath   = "/auth/v3/tenant_access_token/internal"
	serviceName = "feishu"
	pageSize    = "100"
)

// Operation names an upstream call
type Operation string

// All operations of the client
const (
	OperationAccessToken Operation = "access_token"
	OperationCreate      Operation = "create"
	OperationUpdate      Operation = "update"
	OperationSearch      Operation = "search"
	OperationListAll     Operation = "list_all"
	OperationListFields  Operation = "list_fields"
)

var fallbackMessages = map[Operation]string{
	OperationCreate:     "failed to create record",
	OperationUpdate:     "failed to update record",
	OperationSearch:     "failed to search records",
	OperationListAll:    "failed to list records",
	OperationListFields: "failed to list fields",
}

// Credentials identify a Feishu application
type Credentials struct {
	AppID     string
	AppSecret string
}

// TableReference identifies one table within one bitable application
type TableReference struct {
	AppToken string
	TableID  string
}

// Fields is the opaque field mapping of a record
type Fields map[string]interface{}

// TokenAcquirer exchanges application credentials for a bearer token
type TokenAcquirer interface {
	AcquireToken(ctx context.Context, credentials Credentials) (string, error)
}

// RecordProxy has one method per proxied record operation. The byte slices returned
// are the upstream response bodies.
type RecordProxy interface {
	TokenAcquirer
	CreateRecord(ctx context.Context, credentials Credentials, table TableReference, fields Fields) ([]byte, error)
	UpdateRecord(ctx context.Context, credentials Credentials, table TableReference, recordID string, fields Fields) ([]byte, error)
	SearchRecord(ctx context.Context, credentials Credentials, table TableReference, fieldName, value string) (*string, error)
	ListRecords(ctx context.Context, credentials Credentials, table TableReference) ([]byte, error)
	ListFields(ctx context.Context, credentials Credentials, table TableReference) ([]byte, error)
}

// Client implements RecordProxy against the Feishu open API
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Collector
}

// Builder is a builder helper for the Client
type Builder struct {
	// BaseURL of the open API. Defaults to DefaultBaseURL.
	BaseURL string
	// Timeout for each single upstream call. Ignored if HTTPClient is set.
	Timeout time.Duration
	// HTTPClient is optional.
	HTTPClient *http.Client
	// Metrics is optional.
	Metrics *metrics.Collector
}

// New returns a new client
func New(b *Builder) *Client {
	baseURL := strings.TrimSuffix(b.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := b.HTTPClient
	if httpClient == nil {
		timeout := b.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		metrics:    b.Metrics,
	}
}

// do issues exactly one request and returns the status code and the response body.
// body is marshalled to JSON unless it is nil.
func (c *Client) do(ctx context.Context, operation Operation, method, url, token string, body interface{}) (int, []byte, error) {
	rlog := logger.FromContext(ctx)

	var reqBody io.Reader
	if body != nil {
		j, err := json.MarshalWithOption(body, json.DisableHTMLEscape())
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(j)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rlog.Debugf("feishu %s: %s %s", operation, method, url)
	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstream(serviceName, string(operation), metrics.OutcomeError, time.Since(start))
		rlog.WithError(err).Errorf("feishu %s: request failed", operation)
		return 0, nil, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	outcome := metrics.OutcomeSuccess
	if res.StatusCode != http.StatusOK {
		outcome = metrics.OutcomeFailure
	}
	c.metrics.RecordUpstream(serviceName, string(operation), outcome, time.Since(start))
	if err != nil {
		return res.StatusCode, nil, err
	}
	rlog.Debugf("feishu %s: status %d", operation, res.StatusCode)
	return res.StatusCode, resBody, nil
}

// relay acquires a token, issues the data call and returns the upstream body on 200.
func (c *Client) relay(ctx context.Context, credentials Credentials, operation Operation, method, url string, body interface{}) ([]byte, error) {
	token, err := c.AcquireToken(ctx, credentials)
	if err != nil {
		return nil, err
	}
	status, resBody, err := c.do(ctx, operation, method, url, token, body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		uerr := newUpstreamError(operation, status, resBody)
		logger.FromContext(ctx).Errorln(uerr.String())
		return nil, uerr
	}
	return resBody, nil
}

func newUpstreamError(operation Operation, status int, body []byte) *UpstreamError {
	uerr := &UpstreamError{
		Operation:  operation,
		StatusCode: status,
		Message:    fallbackMessages[operation],
	}
	if json.Valid(body) {
		uerr.Details = body
		var data struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(body, &data); err == nil && data.Msg != "" {
			uerr.Message = data.Msg
		}
	}
	return uerr
}

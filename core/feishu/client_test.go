package feishu_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/feishu-proxy/core/feishu"
	"github.com/relabs-tech/feishu-proxy/core/feishu/feishutest"
	"github.com/relabs-tech/feishu-proxy/core/metrics"
)

var (
	credentials = feishu.Credentials{AppID: "cli_a", AppSecret: "secret"}
	table       = feishu.TableReference{AppToken: "bascnApp", TableID: "tblXYZ"}
)

func newClient(stub *feishutest.Server) *feishu.Client {
	return feishu.New(&feishu.Builder{BaseURL: stub.URL, Metrics: metrics.New()})
}

func TestAcquireToken(t *testing.T) {
	stub := feishutest.NewServer()
	defer stub.Close()

	token, err := newClient(stub).AcquireToken(context.Background(), credentials)
	require.NoError(t, err)
	assert.Equal(t, feishutest.Token, token)

	requests := stub.TokenRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, requests[0].Method)
	assert.JSONEq(t, `{"app_id":"cli_a","app_secret":"secret"}`, string(requests[0].Body))
}

func TestAcquireToken_Failures(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"non 200", http.StatusBadRequest, `{"code":10003,"msg":"invalid param"}`, "failed to acquire access token"},
		{"missing token", http.StatusOK, `{"code":0,"msg":"ok"}`, "invalid access token"},
		{"empty token", http.StatusOK, `{"code":0,"tenant_access_token":""}`, "invalid access token"},
		{"not json", http.StatusOK, `gateway says hi`, "invalid access token"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stub := feishutest.NewServer()
			defer stub.Close()
			stub.TokenStatus = tc.status
			stub.TokenBody = tc.body

			_, err := newClient(stub).AcquireToken(context.Background(), credentials)
			var authErr *feishu.AuthenticationError
			require.True(t, errors.As(err, &authErr), "got %v", err)
			assert.Equal(t, tc.message, authErr.Message)
			assert.Equal(t, 1, stub.Calls())
		})
	}
}

func TestCreateRecord_RelaysBody(t *testing.T) {
	stub := feishutest.NewServer()
	defer stub.Close()
	stub.DataBody = `{"code":0,"data":{"record":{"record_id":"recA","fields":{"name":"春节"}}},"msg":"success"}`

	body, err := newClient(stub).CreateRecord(context.Background(), credentials, table, feishu.Fields{"name": "春节"})
	require.NoError(t, err)
	assert.Equal(t, stub.DataBody, string(body))

	requests := stub.DataRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, requests[0].Method)
	assert.Equal(t, "/bitable/v1/apps/bascnApp/tables/tblXYZ/records", requests[0].Path)
	assert.Equal(t, "Bearer "+feishutest.Token, requests[0].Authorization)
	assert.JSONEq(t, `{"fields":{"name":"春节"}}`, string(requests[0].Body))
}

func TestUpdateRecord(t *testing.T) {
	stub := feishutest.NewServer()
	defer stub.Close()
	stub.DataBody = `{"code":0,"data":{"record":{"record_id":"recA"}}}`

	body, err := newClient(stub).UpdateRecord(context.Background(), credentials, table, "recA", nil)
	require.NoError(t, err)
	assert.Equal(t, stub.DataBody, string(body))

	requests := stub.DataRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPut, requests[0].Method)
	assert.Equal(t, "/bitable/v1/apps/bascnApp/tables/tblXYZ/records/recA", requests[0].Path)
	assert.JSONEq(t, `{"fields":{}}`, string(requests[0].Body))
}

func TestSearchRecord(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		expected *string
	}{
		{"no data", `{"code":0}`, nil},
		{"no items", `{"code":0,"data":{"items":[],"total":0}}`, nil},
		{"null items", `{"code":0,"data":{"items":null}}`, nil},
		{"one item", `{"code":0,"data":{"items":[{"record_id":"rec1"}]}}`, strPtr("rec1")},
		{"many items", `{"code":0,"data":{"items":[{"record_id":"rec1"},{"record_id":"rec2"},{"record_id":"rec3"}]}}`, strPtr("rec1")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stub := feishutest.NewServer()
			defer stub.Close()
			stub.DataBody = tc.body

			recordID, err := newClient(stub).SearchRecord(context.Background(), credentials, table, "name", "Spring Festival")
			require.NoError(t, err)
			assert.Equal(t, tc.expected, recordID)
		})
	}
}

func TestSearchRecord_Filter(t *testing.T) {
	stub := feishutest.NewServer()
	defer stub.Close()

	_, err := newClient(stub).SearchRecord(context.Background(), credentials, table, "name", "Spring Festival")
	require.NoError(t, err)

	requests := stub.DataRequests()
	require.Len(t, requests, 1)
	expected := `{"conjunction":"and","conditions":[{"field_name":"name","operator":"is","value":["Spring Festival"]}]}`
	assert.Equal(t, http.MethodGet, requests[0].Method)
	assert.Equal(t, expected, requests[0].Query["filter"])
	assert.Equal(t, "100", requests[0].Query["page_size"])
	assert.True(t, strings.HasPrefix(requests[0].RawQuery,
		"filter=%7B%22conjunction%22%3A%22and%22%2C%22conditions%22%3A%5B%7B%22field_name%22%3A%22name%22"), requests[0].RawQuery)
	assert.Contains(t, requests[0].RawQuery, "Spring%20Festival")
}

func TestSearchRecord_FilterKeepsHTMLCharacters(t *testing.T) {
	stub := feishutest.NewServer()
	defer stub.Close()

	_, err := newClient(stub).SearchRecord(context.Background(), credentials, table, "name", "x y+z/é&<>")
	require.NoError(t, err)

	requests := stub.DataRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, `{"conjunction":"and","conditions":[{"field_name":"name","operator":"is","value":["x y+z/é&<>"]}]}`, requests[0].Query["filter"])
	assert.Contains(t, requests[0].RawQuery, "x%20y%2Bz%2F%C3%A9%26%3C%3E")
	assert.NotContains(t, requests[0].RawQuery, "%5Cu00")
}

func TestEqualityFilter_JSON(t *testing.T) {
	s, err := feishu.EqualityFilter("名称", "<春节 & more>").JSON()
	require.NoError(t, err)
	assert.Equal(t, `{"conjunction":"and","conditions":[{"field_name":"名称","operator":"is","value":["<春节 & more>"]}]}`, s)
}

func TestListRecordsAndFields(t *testing.T) {
	stub := feishutest.NewServer()
	defer stub.Close()
	stub.DataBody = `{"code":0,"data":{"has_more":false,"items":[]}}`
	client := newClient(stub)

	body, err := client.ListRecords(context.Background(), credentials, table)
	require.NoError(t, err)
	assert.Equal(t, stub.DataBody, string(body))

	body, err = client.ListFields(context.Background(), credentials, table)
	require.NoError(t, err)
	assert.Equal(t, stub.DataBody, string(body))

	requests := stub.DataRequests()
	require.Len(t, requests, 2)
	assert.Equal(t, "/bitable/v1/apps/bascnApp/tables/tblXYZ/records", requests[0].Path)
	assert.Equal(t, "page_size=100", requests[0].RawQuery)
	assert.Equal(t, "/bitable/v1/apps/bascnApp/tables/tblXYZ/fields", requests[1].Path)
	// every operation acquires its own token
	assert.Len(t, stub.TokenRequests(), 2)
}

func TestUpstreamError(t *testing.T) {
	stub := feishutest.NewServer()
	defer stub.Close()
	stub.DataStatus = http.StatusBadRequest
	stub.DataBody = `{"code":1254045,"msg":"FieldNameNotFound"}`

	_, err := newClient(stub).CreateRecord(context.Background(), credentials, table, feishu.Fields{"x": 1})
	var upstreamErr *feishu.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, "FieldNameNotFound", upstreamErr.Message)
	assert.Equal(t, http.StatusBadRequest, upstreamErr.StatusCode)
	assert.JSONEq(t, stub.DataBody, string(upstreamErr.Details))
}

func TestUpstreamError_Fallback(t *testing.T) {
	stub := feishutest.NewServer()
	defer stub.Close()
	stub.DataStatus = http.StatusBadGateway
	stub.DataBody = `<html>bad gateway</html>`

	_, err := newClient(stub).ListFields(context.Background(), credentials, table)
	var upstreamErr *feishu.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, "failed to list fields", upstreamErr.Message)
	assert.Nil(t, upstreamErr.Details)
}

func TestTokenFailure_NoDataCall(t *testing.T) {
	stub := feishutest.NewServer()
	defer stub.Close()
	stub.TokenStatus = http.StatusInternalServerError

	_, err := newClient(stub).ListRecords(context.Background(), credentials, table)
	var authErr *feishu.AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Empty(t, stub.DataRequests())
}

func strPtr(s string) *string {
	return &s
}

package feishu

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/feishu-proxy/core/logger"
)

type recordBody struct {
	Fields Fields `json:"fields"`
}

type searchResponse struct {
	Data *struct {
		Items []struct {
			RecordID string `json:"record_id"`
		} `json:"items"`
	} `json:"data"`
}

func (c *Client) tableURL(table TableReference) string {
	return c.baseURL + "/bitable/v1/apps/" + url.PathEscape(table.AppToken) + "/tables/" + url.PathEscape(table.TableID)
}

func (c *Client) recordsURL(table TableReference) string {
	return c.tableURL(table) + "/records"
}

// CreateRecord creates a record and returns the upstream response.
func (c *Client) CreateRecord(ctx context.Context, credentials Credentials, table TableReference, fields Fields) ([]byte, error) {
	return c.relay(ctx, credentials, OperationCreate, http.MethodPost, c.recordsURL(table), recordBody{Fields: nonNil(fields)})
}

// UpdateRecord replaces the given fields of a record and returns the upstream response.
func (c *Client) UpdateRecord(ctx context.Context, credentials Credentials, table TableReference, recordID string, fields Fields) ([]byte, error) {
	u := c.recordsURL(table) + "/" + url.PathEscape(recordID)
	return c.relay(ctx, credentials, OperationUpdate, http.MethodPut, u, recordBody{Fields: nonNil(fields)})
}

// SearchRecord looks up records whose field equals value and returns the id of the
// first match, or nil if nothing matched. Only the first page of 100 records is
// considered.
func (c *Client) SearchRecord(ctx context.Context, credentials Credentials, table TableReference, fieldName, value string) (*string, error) {
	filter, err := EqualityFilter(fieldName, value).Encode()
	if err != nil {
		return nil, err
	}
	u := c.recordsURL(table) + "?filter=" + filter + "&page_size=" + pageSize
	body, err := c.relay(ctx, credentials, OperationSearch, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("cannot parse search result: %w", err)
	}
	if result.Data == nil || len(result.Data.Items) == 0 {
		return nil, nil
	}
	if n := len(result.Data.Items); n > 1 {
		logger.FromContext(ctx).Warnf("search for %s=%q matched %d records, using the first", fieldName, value, n)
	}
	recordID := result.Data.Items[0].RecordID
	return &recordID, nil
}

// ListRecords returns the first page of up to 100 records.
func (c *Client) ListRecords(ctx context.Context, credentials Credentials, table TableReference) ([]byte, error) {
	return c.relay(ctx, credentials, OperationListAll, http.MethodGet, c.recordsURL(table)+"?page_size="+pageSize, nil)
}

// ListFields returns the field definitions of the table.
func (c *Client) ListFields(ctx context.Context, credentials Credentials, table TableReference) ([]byte, error) {
	return c.relay(ctx, credentials, OperationListFields, http.MethodGet, c.tableURL(table)+"/fields", nil)
}

func nonNil(fields Fields) Fields {
	if fields == nil {
		return Fields{}
	}
	return fields
}

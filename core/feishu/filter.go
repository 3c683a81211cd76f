package feishu

import (
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

// Condition is one clause of a record filter
type Condition struct {
	FieldName string   `json:"field_name"`
	Operator  string   `json:"operator"`
	Value     []string `json:"value"`
}

// Filter is the bitable record filter object
type Filter struct {
	Conjunction string      `json:"conjunction"`
	Conditions  []Condition `json:"conditions"`
}

// EqualityFilter returns a filter matching records whose field equals value.
func EqualityFilter(fieldName, value string) Filter {
	return Filter{
		Conjunction: "and",
		Conditions: []Condition{{
			FieldName: fieldName,
			Operator:  "is",
			Value:     []string{value},
		}},
	}
}

// JSON serializes the filter. Non-ASCII characters are kept as they are and
// HTML characters are not escaped.
func (f Filter) JSON() (string, error) {
	data, err := json.MarshalWithOption(f, json.DisableHTMLEscape())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Encode returns the filter as a percent-encoded query string value.
func (f Filter) Encode() (string, error) {
	s, err := f.JSON()
	if err != nil {
		return "", err
	}
	return escapeComponent(s), nil
}

// escapeComponent percent-encodes s for use in a query string, encoding spaces as %20.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

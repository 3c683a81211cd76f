package feishu

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

type tokenRequest struct {
	AppID     string `json:"app_id"`
	AppSecret string `json:"app_secret"`
}

type tokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"`
}

// AcquireToken exchanges the credentials for a tenant access token with exactly one
// upstream call. The caller is responsible for checking that an app id is present.
func (c *Client) AcquireToken(ctx context.Context, credentials Credentials) (string, error) {
	status, body, err := c.do(ctx, OperationAccessToken, http.MethodPost, c.baseURL+tokenPath, "",
		tokenRequest{AppID: credentials.AppID, AppSecret: credentials.AppSecret})
	if err != nil {
		return "", fmt.Errorf("acquire access token: %w", err)
	}
	if status != http.StatusOK {
		return "", &AuthenticationError{Message: "failed to acquire access token", StatusCode: status}
	}

	var data tokenResponse
	if err := json.Unmarshal(body, &data); err != nil || data.TenantAccessToken == "" {
		return "", &AuthenticationError{Message: "invalid access token", StatusCode: status}
	}
	return data.TenantAccessToken, nil
}

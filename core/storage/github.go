package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/feishu-proxy/core/logger"
	"github.com/relabs-tech/feishu-proxy/core/metrics"
)

// GitHubConfiguration contains the repository uploads are committed to
type GitHubConfiguration struct {
	APIURL string
	Owner  string
	Repo   string
	Token  string
	Branch string
}

// GitHub stores objects as files in a repository through the contents API
type GitHub struct {
	config     GitHubConfiguration
	httpClient *http.Client
	metrics    *metrics.Collector
}

// NewGitHub returns a new GitHub driver. httpClient may be nil.
func NewGitHub(c GitHubConfiguration, httpClient *http.Client, collector *metrics.Collector) *GitHub {
	if c.APIURL == "" {
		c.APIURL = "https://api.github.com"
	}
	c.APIURL = strings.TrimSuffix(c.APIURL, "/")
	if c.Branch == "" {
		c.Branch = "main"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &GitHub{config: c, httpClient: httpClient, metrics: collector}
}

type contentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type contentsResponse struct {
	SHA     string `json:"sha"`
	Content struct {
		DownloadURL string `json:"download_url"`
	} `json:"content"`
}

// Upload creates or replaces the file at object.Path and returns its raw download URL.
func (g *GitHub) Upload(ctx context.Context, object Object) (string, error) {
	if g.config.Token == "" {
		return "", &ConfigurationError{Message: "GitHub token not configured"}
	}
	if g.config.Owner == "" || g.config.Repo == "" {
		return "", &ConfigurationError{Message: "GitHub repository not configured"}
	}
	key, err := CleanKey(object.Path)
	if err != nil {
		return "", err
	}
	rlog := logger.FromContext(ctx)
	contentsURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s", g.config.APIURL, g.config.Owner, g.config.Repo, escapePath(key))

	// an existing file can only be replaced with its current sha
	var sha string
	status, body, err := g.do(ctx, "lookup", http.MethodGet, contentsURL+"?ref="+url.QueryEscape(g.config.Branch), nil)
	if err != nil {
		rlog.WithError(err).Warnf("cannot look up %s, creating a new file", key)
	} else if status == http.StatusOK {
		var existing contentsResponse
		if err := json.Unmarshal(body, &existing); err == nil {
			sha = existing.SHA
		}
	}

	request := contentsRequest{
		Message: "Upload image: " + object.Name,
		Content: base64.StdEncoding.EncodeToString(object.Content),
		Branch:  g.config.Branch,
		SHA:     sha,
	}
	status, body, err = g.do(ctx, "upload", http.MethodPut, contentsURL, request)
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		var data struct {
			Message string `json:"message"`
		}
		message := strings.TrimSpace(string(body))
		if err := json.Unmarshal(body, &data); err == nil && data.Message != "" {
			message = data.Message
		}
		return "", &UploadError{StatusCode: status, Message: "upload to GitHub failed: " + message}
	}

	var result contentsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("cannot parse GitHub response: %w", err)
	}
	rlog.Infof("uploaded %s to %s/%s", key, g.config.Owner, g.config.Repo)
	return result.Content.DownloadURL, nil
}

func (g *GitHub) do(ctx context.Context, operation, method, u string, body interface{}) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		j, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(j)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "token "+g.config.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	res, err := g.httpClient.Do(req)
	if err != nil {
		g.metrics.RecordUpstream("github", operation, metrics.OutcomeError, time.Since(start))
		return 0, nil, err
	}
	defer res.Body.Close()
	outcome := metrics.OutcomeSuccess
	if res.StatusCode >= 300 {
		outcome = metrics.OutcomeFailure
	}
	g.metrics.RecordUpstream("github", operation, outcome, time.Since(start))
	resBody, err := io.ReadAll(res.Body)
	return res.StatusCode, resBody, err
}

// escapePath escapes every segment of a key returned by CleanKey
func escapePath(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

package jobsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SDKClient talks to a running maintenance service.
type SDKClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// Option configures an SDKClient.
type Option func(*SDKClient)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *SDKClient) { c.Token = token }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *SDKClient) { c.HTTPClient = hc }
}

func NewSDKClient(baseURL string, opts ...Option) *SDKClient {
	c := &SDKClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetLiveness calls GET /livez.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/livez", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReadiness calls GET /readyz. On 503 the decoded body is returned along
// with an error wrapping ErrNotReady.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	err := c.do(ctx, http.MethodGet, "/readyz", &out)
	if err != nil && out.Status == "" {
		return nil, err
	}
	return &out, err
}

// RunJob triggers a single job by name and waits for its result.
func (c *SDKClient) RunJob(ctx context.Context, name string) (*JobResultResponse, error) {
	var out JobResultResponse
	path := "/v1/jobs/" + url.PathEscape(name) + "/run"
	if err := c.do(ctx, http.MethodPost, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunAll triggers every registered job.
func (c *SDKClient) RunAll(ctx context.Context) (*RunAllResponse, error) {
	var out RunAllResponse
	if err := c.do(ctx, http.MethodPost, "/v1/jobs/run", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListJobs returns the registered jobs and their schedules.
func (c *SDKClient) ListJobs(ctx context.Context) (*JobsResponse, error) {
	var out JobsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/jobs", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAudit returns recent audit entries, newest first. Empty action and
// zero limit use the server defaults.
func (c *SDKClient) ListAudit(ctx context.Context, action string, limit int) (*AuditListResponse, error) {
	q := url.Values{}
	if action != "" {
		q.Set("action", action)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/audit"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out AuditListResponse
	if err := c.do(ctx, http.MethodGet, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	// Health endpoints answer 503 with a regular health body.
	if resp.StatusCode == http.StatusServiceUnavailable && out != nil {
		_ = json.Unmarshal(body, out)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
	var er ErrorResponse
	if json.Unmarshal(body, &er) == nil && er.Error != "" {
		apiErr.Code = er.Error
		apiErr.Description = er.ErrorDescription
	}
	return apiErr
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/skyrecords/internal/model"
)

// HTTPClient talks to the skyrecords REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ RecordsClient = (*HTTPClient)(nil)

// NewHTTPClient targets baseURL (e.g. "http://localhost:8080"). A non-empty
// token is sent as a bearer token on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

func (c *HTTPClient) Close() error { return nil }

func (c *HTTPClient) ListTemplates(ctx context.Context, includeDisabled bool) ([]*model.DashboardConfiguration, error) {
	q := url.Values{}
	if includeDisabled {
		q.Set("include_disabled", "true")
	}
	resp, err := call[struct {
		Templates []*model.DashboardConfiguration `json:"templates"`
	}](ctx, c, http.MethodGet, withQuery("/v1/templates", q), nil)
	if err != nil {
		return nil, err
	}
	return resp.Templates, nil
}

func (c *HTTPClient) GetTemplate(ctx context.Context, name string) (*model.DashboardConfiguration, error) {
	return call[model.DashboardConfiguration](ctx, c, http.MethodGet, templatePath(name), nil)
}

func (c *HTTPClient) CreateTemplate(ctx context.Context, setting *model.DashboardSetting) (*model.TemplateChangeStatus, error) {
	return call[model.TemplateChangeStatus](ctx, c, http.MethodPost, "/v1/templates", setting)
}

// ChangeTemplate replaces the template named by setting.ID. A template that
// does not exist is reported through the returned status, not an error.
func (c *HTTPClient) ChangeTemplate(ctx context.Context, setting *model.DashboardSetting) (*model.TemplateChangeStatus, error) {
	return call[model.TemplateChangeStatus](ctx, c, http.MethodPut, templatePath(setting.ID), setting, http.StatusNotFound)
}

// DisableTemplate soft-disables the named template. A template that does
// not exist is reported through the returned status, not an error.
func (c *HTTPClient) DisableTemplate(ctx context.Context, name string) (*model.TemplateChangeStatus, error) {
	return call[model.TemplateChangeStatus](ctx, c, http.MethodPost, templatePath(name)+"/disable", nil, http.StatusNotFound)
}

func (c *HTTPClient) ListAliases(ctx context.Context, since int64) ([]*model.NetworkAddressAlias, error) {
	q := url.Values{}
	if since > 0 {
		q.Set("since", strconv.FormatInt(since, 10))
	}
	resp, err := call[struct {
		Aliases []*model.NetworkAddressAlias `json:"aliases"`
	}](ctx, c, http.MethodGet, withQuery("/v1/aliases", q), nil)
	if err != nil {
		return nil, err
	}
	return resp.Aliases, nil
}

func (c *HTTPClient) SaveAlias(ctx context.Context, alias *model.NetworkAddressAlias) (*model.NetworkAddressAlias, error) {
	return call[model.NetworkAddressAlias](ctx, c, http.MethodPost, "/v1/aliases", alias)
}

// Health returns the server's status string; "ok" when its backend
// answers.
func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	resp, err := call[struct {
		Status string `json:"status"`
	}](ctx, c, http.MethodGet, "/v1/health", nil)
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

func templatePath(name string) string {
	return "/v1/templates/" + url.PathEscape(name)
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// apiError builds an *APIError from a failed response, preferring the
// server's {"error": ...} message over the raw body.
func apiError(status int, body []byte) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return &APIError{StatusCode: status, Message: payload.Error}
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}

// newRequest builds a request against the API with auth attached.
func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// call sends body as JSON and decodes the response into a new T. Error
// statuses listed in accept are decoded like successes instead of becoming
// an *APIError.
func call[T any](ctx context.Context, c *HTTPClient, method, path string, body any, accept ...int) (*T, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 && !slices.Contains(accept, resp.StatusCode) {
		return nil, apiError(resp.StatusCode, data)
	}

	out := new(T)
	if resp.StatusCode == http.StatusNoContent || len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return out, nil
}

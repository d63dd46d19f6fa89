package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/raderre/cresite/internal/model"
)

// HTTPClient implements ListingsClient using the cresite HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ ListingsClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Properties ---

func (c *HTTPClient) ListProperties(ctx context.Context, req *ListPropertiesRequest) (*ListPropertiesResponse, error) {
	q := url.Values{}
	if len(req.Type) > 0 {
		q.Set("type", strings.Join(req.Type, ","))
	}
	if req.Featured != nil {
		q.Set("featured", strconv.FormatBool(*req.Featured))
	}
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	if req.Sort != "" {
		q.Set("sort", req.Sort)
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", strconv.Itoa(req.Offset))
	}

	path := "/v1/properties"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListPropertiesResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	var p model.Property
	if err := c.doJSON(ctx, http.MethodGet, "/v1/properties/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) CreateProperty(ctx context.Context, req *PropertyRequest) (*model.Property, error) {
	var p model.Property
	if err := c.doJSON(ctx, http.MethodPost, "/v1/properties", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) UpdateProperty(ctx context.Context, id string, req *UpdatePropertyRequest) (*model.Property, error) {
	var p model.Property
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/properties/"+url.PathEscape(id), req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) DeleteProperty(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/properties/"+url.PathEscape(id), nil, nil)
}

// FeaturedProperties returns the server's featured snapshot, cut to limit
// when limit is positive.
func (c *HTTPClient) FeaturedProperties(ctx context.Context, limit int) ([]*model.Property, error) {
	var resp struct {
		Properties []*model.Property `json:"properties"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/properties/featured", nil, &resp); err != nil {
		return nil, err
	}
	if limit > 0 && len(resp.Properties) > limit {
		resp.Properties = resp.Properties[:limit]
	}
	return resp.Properties, nil
}

// Ingest posts properties to the ingestion webhook. webhookToken, when set,
// is sent as X-Webhook-Token; otherwise the client's bearer token is used.
func (c *HTTPClient) Ingest(ctx context.Context, webhookToken string, props []*PropertyRequest) ([]*model.Property, error) {
	var resp struct {
		Properties []*model.Property `json:"properties"`
	}
	hdr := http.Header{}
	if webhookToken != "" {
		hdr.Set("X-Webhook-Token", webhookToken)
	}
	body := map[string]any{"properties": props}
	if err := c.do(ctx, http.MethodPost, "/v1/webhooks/properties", hdr, body, &resp); err != nil {
		return nil, err
	}
	return resp.Properties, nil
}

// --- Events ---

func (c *HTTPClient) GetEvents(ctx context.Context, propertyID string) ([]*model.Event, error) {
	var resp struct {
		Events []*model.Event `json:"events"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/properties/"+url.PathEscape(propertyID)+"/events", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// --- Blog ---

func (c *HTTPClient) ListBlogPosts(ctx context.Context, req *ListBlogPostsRequest) (*ListBlogPostsResponse, error) {
	q := url.Values{}
	if req.Category != "" {
		q.Set("category", req.Category)
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", strconv.Itoa(req.Offset))
	}

	path := "/v1/blog"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListBlogPostsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetBlogPost(ctx context.Context, id string) (*model.BlogPost, error) {
	var post model.BlogPost
	if err := c.doJSON(ctx, http.MethodGet, "/v1/blog/"+url.PathEscape(id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *HTTPClient) CreateBlogPost(ctx context.Context, req *BlogPostRequest) (*model.BlogPost, error) {
	var post model.BlogPost
	if err := c.doJSON(ctx, http.MethodPost, "/v1/blog", req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *HTTPClient) UpdateBlogPost(ctx context.Context, id string, req *UpdateBlogPostRequest) (*model.BlogPost, error) {
	var post model.BlogPost
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/blog/"+url.PathEscape(id), req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *HTTPClient) DeleteBlogPost(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/blog/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) DeleteBlogPosts(ctx context.Context, ids []string) (*BulkDeleteResponse, error) {
	var resp BulkDeleteResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/blog/bulk-delete", map[string][]string{"ids": ids}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Auth ---

// CheckAuth returns nil when the client's token is accepted for admin calls.
func (c *HTTPClient) CheckAuth(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/v1/auth/check", nil, nil)
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	return c.do(ctx, method, path, nil, body, result)
}

// do is doJSON with extra request headers.
func (c *HTTPClient) do(ctx context.Context, method, path string, header http.Header, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content: success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

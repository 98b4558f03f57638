// Package docstore provides access to the hosted document backend: a
// PostgREST-style REST API for collections plus an object storage API for
// uploaded media. It is the remote counterpart of the in-memory and
// postgres stores.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/camp-network/marketplace/internal/httputil"
)

const (
	maxResponseBytes  = 8 << 20  // 8 MiB
	maxErrorBodyBytes = 32 << 10 // 32 KiB
)

// Client talks to the document backend's REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

// New creates a new document backend client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("APIKey is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

// From starts a query builder for a collection.
func (c *Client) From(collection string) *Query {
	return &Query{client: c, collection: collection}
}

// Query builds a PostgREST request against one collection.
type Query struct {
	client     *Client
	collection string
	columns    string
	filters    url.Values
	orders     []string
	limit      int
	single     bool
}

// Select specifies the columns to return.
func (q *Query) Select(columns string) *Query {
	q.columns = columns
	return q
}

func (q *Query) addFilter(column, op string, value any) *Query {
	if q.filters == nil {
		q.filters = url.Values{}
	}
	q.filters.Add(column, fmt.Sprintf("%s.%v", op, value))
	return q
}

// Eq adds an equality filter.
func (q *Query) Eq(column string, value any) *Query { return q.addFilter(column, "eq", value) }

// Gt adds a greater-than filter.
func (q *Query) Gt(column string, value any) *Query { return q.addFilter(column, "gt", value) }

// Is adds an IS filter for null and boolean columns.
func (q *Query) Is(column string, value any) *Query { return q.addFilter(column, "is", value) }

// Order appends an ordering clause.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.orders = append(q.orders, column+"."+dir)
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Single requests exactly one object instead of an array.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

func (q *Query) encode() string {
	params := url.Values{}
	if q.columns != "" {
		params.Set("select", q.columns)
	}
	for column, values := range q.filters {
		for _, v := range values {
			params.Add(column, v)
		}
	}
	if len(q.orders) > 0 {
		params.Set("order", strings.Join(q.orders, ","))
	}
	if q.limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", q.limit))
	}
	return params.Encode()
}

// Get executes the query and unmarshals the result into out.
func (q *Query) Get(ctx context.Context, out any) error {
	extra := http.Header{}
	if q.single {
		extra.Set("Accept", "application/vnd.pgrst.object+json")
	}
	body, err := q.client.rest(ctx, http.MethodGet, q.collection, q.encode(), nil, extra)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// Insert adds a row and unmarshals the representation into out when non-nil.
func (q *Query) Insert(ctx context.Context, data, out any) error {
	body, err := q.client.rest(ctx, http.MethodPost, q.collection, "", data, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// Update patches rows matching the filters and unmarshals the
// representation into out when non-nil.
func (q *Query) Update(ctx context.Context, data, out any) error {
	params := url.Values{}
	for column, values := range q.filters {
		for _, v := range values {
			params.Add(column, v)
		}
	}
	body, err := q.client.rest(ctx, http.MethodPatch, q.collection, params.Encode(), data, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// Delete removes rows matching the filters.
func (q *Query) Delete(ctx context.Context) error {
	params := url.Values{}
	for column, values := range q.filters {
		for _, v := range values {
			params.Add(column, v)
		}
	}
	_, err := q.client.rest(ctx, http.MethodDelete, q.collection, params.Encode(), nil, nil)
	return err
}

// rest performs a single request against the REST surface. No retries:
// callers decide whether an operation is worth repeating.
func (c *Client) rest(ctx context.Context, method, collection, query string, body any, extra http.Header) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, collection)
	if query != "" {
		reqURL += "?" + query
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, truncated, readErr := httputil.ReadAllWithLimit(resp.Body, maxErrorBodyBytes)
		if readErr != nil {
			return nil, fmt.Errorf("read error response: %w", readErr)
		}
		msg := strings.TrimSpace(string(errBody))
		if truncated {
			msg += "...(truncated)"
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	respBody, err := httputil.ReadAllStrict(resp.Body, maxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return respBody, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

// APIError is a non-2xx response from the document backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("docstore API error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 or an empty single-object
// response from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusNotAcceptable
	}
	return false
}

package endpoint

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/xen0bit/dashchart/pkg/chart"
)

// Fetcher retrieves a query result from a data URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string, format chart.Format) (*chart.QueryResult, error)
}

// Client fetches query results over HTTP.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// NewClient creates a Client. The default http.Client has no timeout: a
// request only ends when the backend answers or ctx is cancelled.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch issues a GET request and decodes the body as format.
func (c *Client) Fetch(ctx context.Context, url string, format chart.Format) (*chart.QueryResult, error) {
	if format == "" {
		format = chart.FormatJSON
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &chart.NetworkError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	switch format {
	case chart.FormatCSV:
		req.Header.Set("Accept", "text/csv")
	default:
		req.Header.Set("Accept", "application/json")
	}

	c.logger.Debug("fetching chart data", "url", url, "format", format)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &chart.NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &chart.NetworkError{URL: url, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &chart.NetworkError{URL: url, Status: resp.StatusCode, Err: fmt.Errorf("%s", statusDetail(resp, body))}
	}

	c.logger.Debug("fetched chart data", "url", url, "status", resp.StatusCode, "bytes", len(body))

	var result *chart.QueryResult
	switch format {
	case chart.FormatCSV:
		result, err = DecodeCSV(body)
	case chart.FormatJSON:
		result, err = DecodeJSON(body)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, &chart.DecodeError{URL: url, Format: format, Err: err}
	}
	return result, nil
}

func statusDetail(resp *http.Response, body []byte) string {
	const maxDetail = 200
	detail := string(body)
	if len(detail) > maxDetail {
		detail = detail[:maxDetail] + "..."
	}
	if detail == "" {
		return resp.Status
	}
	return resp.Status + ": " + detail
}

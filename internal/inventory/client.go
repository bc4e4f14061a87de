// Package inventory is a thin JSON client for the remote inventory API.
// Busy-signal participation is decided by the transport underneath it.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/maxkimambo/stockctl/internal/errors"
	"github.com/maxkimambo/stockctl/internal/logger"
)

const (
	userAgent       = "stockctl/1.0"
	maxResponseSize = 4 << 20
	maxErrorBody    = 512
)

// API is the set of inventory operations the CLI uses.
type API interface {
	// ListProducts lists catalog entries matching opts
	ListProducts(ctx context.Context, opts ListOptions) ([]Product, error)
	// GetProduct fetches a single product by SKU
	GetProduct(ctx context.Context, sku string) (*Product, error)
	// CreateMovement records a stock movement and returns it with its ID
	CreateMovement(ctx context.Context, m Movement) (*Movement, error)
	// ListPurchaseRequests lists open and historical purchase requests
	ListPurchaseRequests(ctx context.Context) ([]PurchaseRequest, error)
	// CreatePurchaseRequest files a new purchase request
	CreatePurchaseRequest(ctx context.Context, pr PurchaseRequest) (*PurchaseRequest, error)
}

// Client implements API over HTTP.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   string
}

var _ API = (*Client)(nil)

// NewClient creates a client for the API rooted at baseURL. httpClient
// should carry a transport.Transport so calls feed the busy signal.
func NewClient(baseURL string, httpClient *http.Client, token string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apperrors.NewValidationFailedError("api-url", baseURL, "Create inventory client")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: u, http: httpClient, token: token}, nil
}

func (c *Client) ListProducts(ctx context.Context, opts ListOptions) ([]Product, error) {
	query := url.Values{}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}
	if opts.LowStockOnly {
		query.Set("low_stock", "true")
	}

	var products []Product
	if err := c.do(ctx, http.MethodGet, "/products", query, nil, &products, "List products"); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, sku string) (*Product, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, apperrors.NewValidationFailedError("sku", sku, "Get product")
	}

	var product Product
	path := "/products/" + url.PathEscape(sku)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &product, "Get product"); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) CreateMovement(ctx context.Context, m Movement) (*Movement, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.Type = m.Classify()

	var created Movement
	if err := c.do(ctx, http.MethodPost, "/stock-movements", nil, m, &created, "Create stock movement"); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) ListPurchaseRequests(ctx context.Context) ([]PurchaseRequest, error) {
	var requests []PurchaseRequest
	if err := c.do(ctx, http.MethodGet, "/purchase-requests", nil, nil, &requests, "List purchase requests"); err != nil {
		return nil, err
	}
	return requests, nil
}

func (c *Client) CreatePurchaseRequest(ctx context.Context, pr PurchaseRequest) (*PurchaseRequest, error) {
	if strings.TrimSpace(pr.SKU) == "" {
		return nil, apperrors.NewValidationFailedError("sku", pr.SKU, "Create purchase request")
	}
	if pr.Quantity <= 0 {
		return nil, apperrors.NewValidationFailedError("quantity", fmt.Sprint(pr.Quantity), "Create purchase request")
	}

	var created PurchaseRequest
	if err := c.do(ctx, http.MethodPost, "/purchase-requests", nil, pr, &created, "Create purchase request"); err != nil {
		return nil, err
	}
	return &created, nil
}

// do issues one request. Failed calls are not retried: each attempt would
// be a separate operation and split one logical call into short episodes.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}, operation string) error {
	u := *c.baseURL
	u.Path += path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", operation, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("building %s request: %w", operation, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	logger.Op.WithFields(map[string]interface{}{
		"method": method,
		"path":   path,
	}).Debug("Calling inventory API")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewNetworkError(operation, u.Redacted(), err)
	}
	// Reading to EOF and closing is what ends the operation in the transport.
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return apperrors.NewNetworkError(operation, u.Redacted(), err)
	}
	if len(data) > maxResponseSize {
		return apperrors.NewResponseTooLargeError(operation, maxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
		return apperrors.NewStatusError(operation, resp.StatusCode, msg)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.NewDecodeError(operation, err)
	}
	return nil
}

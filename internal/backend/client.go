// Package backend is the HTTP client for the commerce API. Every call goes
// through one request helper so timeouts, error mapping, and cookie handling
// stay uniform across endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"time"

	consulapi "github.com/hashicorp/consul/api"

	"storefront-gateway/internal/consul"
	"storefront-gateway/pkg/logkey"
)

const defaultTimeout = 10 * time.Second

// Client talks to the commerce API. When a Consul client is configured the
// base URL is re-resolved per request, falling back to the static base when
// the catalog has no healthy instance.
type Client struct {
	baseURL string
	http    *http.Client
	consul  *consulapi.Client
	service string
	timeout time.Duration
}

type Option func(*Client)

// WithConsul turns on catalog-based discovery of the named service.
func WithConsul(cc *consulapi.Client, service string) Option {
	return func(c *Client) {
		c.consul = cc
		c.service = service
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("backend: base URL is required")
	}
	// The jar carries the API's own session cookie across calls.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("backend: creating cookie jar: %w", err)
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Jar: jar},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) resolveBase() string {
	if c.consul == nil {
		return c.baseURL
	}
	address, port, err := consul.GetServiceAddress(c.consul, c.service)
	if err != nil {
		slog.Warn("consul lookup failed, using static base url",
			slog.String("SERVICE", c.service), slog.String(logkey.ERROR, err.Error()))
		return c.baseURL
	}
	return fmt.Sprintf("http://%s:%d", address, port)
}

// do performs one API round trip. in is JSON-encoded when non-nil, out is
// JSON-decoded when non-nil and the response succeeded.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request for %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolveBase()+path, body)
	if err != nil {
		return fmt.Errorf("building request for %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response of %s %s: %w", method, path, err)
		}
	}
	return nil
}

// -- catalog ---------------------------------------------------------------

func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Product(ctx context.Context, id int64) (Product, error) {
	var out Product
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d", id), nil, &out)
	return out, err
}

func (c *Client) CreateProduct(ctx context.Context, p Product) (Product, error) {
	var out Product
	err := c.do(ctx, http.MethodPost, "/api/products", p, &out)
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	var out Product
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/products/%d", p.ID), p, &out)
	return out, err
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil, nil)
}

// Upload sends an image as multipart form data and returns the stored URL.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("copying upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveBase()+"/api/upload", &buf)
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: POST /api/upload: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding upload response: %w", err)
	}
	return out.URL, nil
}

// -- customers -------------------------------------------------------------

func (c *Client) Customers(ctx context.Context) ([]Customer, error) {
	var out []Customer
	if err := c.do(ctx, http.MethodGet, "/api/customers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) BlockCustomer(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/customers/%d/block", id), nil, nil)
}

func (c *Client) UnblockCustomer(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/customers/%d/unblock", id), nil, nil)
}

func (c *Client) DeleteCustomer(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/customers/%d", id), nil, nil)
}

// -- auth ------------------------------------------------------------------

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (UserInfo, error) {
	var out UserInfo
	err := c.do(ctx, http.MethodPost, "/api/users/register", req, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (UserInfo, error) {
	var out UserInfo
	err := c.do(ctx, http.MethodPost, "/api/users/login", req, &out)
	return out, err
}

// Me asks the API who the current session belongs to.
func (c *Client) Me(ctx context.Context) (UserInfo, error) {
	var out UserInfo
	err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &out)
	return out, err
}

func (c *Client) AdminLogin(ctx context.Context, req LoginRequest) (UserInfo, error) {
	var out UserInfo
	err := c.do(ctx, http.MethodPost, "/api/admin/login", req, &out)
	return out, err
}

// -- orders ----------------------------------------------------------------

func (c *Client) PlaceOrder(ctx context.Context, o Order) (Order, error) {
	var out Order
	err := c.do(ctx, http.MethodPost, "/api/orders", o, &out)
	return out, err
}

func (c *Client) CustomerOrders(ctx context.Context, customerID int64) ([]Order, error) {
	var out []Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/orders/customer/%d", customerID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	in := map[string]string{"status": status}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/orders/%s/status", orderID), in, nil)
}

// UpdateCartQuantity mirrors a local quantity change to the API-side cart.
func (c *Client) UpdateCartQuantity(ctx context.Context, productID int64, quantity int) error {
	in := map[string]int{"quantity": quantity}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/cart/update/%d", productID), in, nil)
}

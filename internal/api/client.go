package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grooveyard/lpmarket/internal/api/dto"
)

// Client wraps HTTP operations against the lpmarket backend.
//
// Client provides:
//   - Bearer authentication from a token provider (never stored here)
//   - A fixed User-Agent and a per-request X-Request-Id
//   - Timeout handling
//   - Mapping of backend error bodies into typed errors
//
// The token provider is consulted on every request, so the client always
// sees the current session without holding a copy of the credential.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	token      func() string
}

// NewClient creates a client for the backend at baseURL.
//
// token is called before each request; returning "" sends the request
// unauthenticated (the backend may allow anonymous reads). timeout bounds
// every request including body reads.
func NewClient(baseURL string, timeout time.Duration, token func() string) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: "lpmarket",
		token:     token,
	}
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := c.postJSON(ctx, "/auth/login", dto.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return "", err
	}

	var resp dto.LoginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("malformed login response: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("login response carried no access token")
	}
	return resp.AccessToken, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, username, password, name, email string) error {
	_, err := c.postJSON(ctx, "/auth/register", dto.RegisterRequest{
		Username: username,
		Password: password,
		Name:     name,
		Email:    email,
	})
	return err
}

// FetchProducts retrieves the full raw product set.
func (c *Client) FetchProducts(ctx context.Context) ([]dto.RawProduct, error) {
	body, err := c.do(ctx, http.MethodGet, "/products/all", nil, "")
	if err != nil {
		return nil, err
	}

	var products []dto.RawProduct
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("malformed product list: %w", err)
	}
	return products, nil
}

// CreateOrder places a standard order.
func (c *Client) CreateOrder(ctx context.Context, productID string, quantity int) error {
	_, err := c.postJSON(ctx, "/orders/create", dto.OrderRequest{
		ProductID: productID,
		Quantity:  quantity,
	})
	return err
}

// CreateLimitedOrder places an order for a limited-edition product.
func (c *Client) CreateLimitedOrder(ctx context.Context, productID string, quantity int) error {
	_, err := c.postJSON(ctx, "/orders/create-limited", dto.OrderRequest{
		ProductID: productID,
		Quantity:  quantity,
	})
	return err
}

// CreateListing submits a new listing as multipart form data: a "file"
// part with the cover image and a "dto" part with the listing JSON.
func (c *Client) CreateListing(ctx context.Context, form dto.ListingForm, image []byte, imageName string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", imageName)
	if err != nil {
		return err
	}
	if _, err := fw.Write(image); err != nil {
		return err
	}

	dtoJSON, err := json.Marshal(form)
	if err != nil {
		return err
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="dto"`)
	header.Set("Content-Type", "application/json")
	dw, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := dw.Write(dtoJSON); err != nil {
		return err
	}

	if err := mw.Close(); err != nil {
		return err
	}

	_, err = c.do(ctx, http.MethodPost, "/products/create", &buf, mw.FormDataContentType())
	return err
}

// FetchImage retrieves image bytes from an already-qualified URL, such as
// a normalized product thumbnail.
func (c *Client) FetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// postJSON sends a JSON body and returns the raw response bytes.
func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), "application/json")
}

// do issues one request against the backend and maps non-2xx replies to
// typed errors.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	default:
		var er dto.ErrorResponse
		_ = json.Unmarshal(respBody, &er) // body may not be JSON
		return nil, &Error{Status: resp.StatusCode, Message: er.Message}
	}
}

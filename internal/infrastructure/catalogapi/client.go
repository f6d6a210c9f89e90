package catalogapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"atelier-admin/internal/domain"
	"atelier-admin/pkg/logger"

	"github.com/goccy/go-json"
)

const maxErrorBody = 64 << 10

// APIError is a non-2xx answer from the catalog API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog api returned %d: %s", e.Status, e.Message)
}

// ServerMessage is the message the API gave for the failure, if any.
func (e *APIError) ServerMessage() string {
	return e.Message
}

// Client calls the store's REST API on behalf of the signed-in admin.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a catalog API client. A zero timeout defaults to 30s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

var _ domain.CatalogAPI = (*Client)(nil)

// GetVariants fetches the persisted variants and option schema of a product.
func (c *Client) GetVariants(ctx context.Context, productID string) (*domain.VariantListing, error) {
	body, err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(productID)+"/variants", nil, "")
	if err != nil {
		return nil, err
	}
	listing, err := DecodeListing(body)
	if err != nil {
		return nil, fmt.Errorf("decode variants: %w", err)
	}
	return listing, nil
}

// BulkUpsertVariants creates or updates variants in one call.
func (c *Client) BulkUpsertVariants(ctx context.Context, productID string, req *domain.UpsertRequest) (*domain.UpsertResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode upsert: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, "/products/"+url.PathEscape(productID)+"/variants/bulk",
		bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}
	return DecodeUpsertResult(body), nil
}

// UploadVariantImage attaches one image to a persisted variant and returns
// the variant's image list after the upload.
func (c *Client) UploadVariantImage(ctx context.Context, productID string, upload *domain.ImageUpload) ([]string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("variantId", upload.VariantID); err != nil {
		return nil, err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.Filename))
	h.Set("Content-Type", upload.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, err
	}
	if upload.Mode != "" && upload.Mode != domain.ImageModePrimary {
		if err := mw.WriteField("mode", upload.Mode); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodPost, "/products/"+url.PathEscape(productID)+"/variants/bulkimage",
		&buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	return DecodeImages(body), nil
}

// ListProducts fetches one page of the product listing.
func (c *Client) ListProducts(ctx context.Context, page, limit int) (*domain.ProductPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	body, err := c.do(ctx, http.MethodGet, "/products?"+q.Encode(), nil, "")
	if err != nil {
		return nil, err
	}
	p, err := DecodeProductPage(body)
	if err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return p, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := domain.TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.CatalogCall(ctx, method, path, 0, time.Since(start), err)
		return nil, fmt.Errorf("catalog api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	logger.CatalogCall(ctx, method, path, resp.StatusCode, time.Since(start), nil)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	return io.ReadAll(resp.Body)
}

// errorMessage returns the "message" field of an error body, or "" when
// there is none.
func errorMessage(body []byte) string {
	var raw struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return ""
	}
	return strings.TrimSpace(raw.Message)
}

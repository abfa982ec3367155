// Package openfoodfacts looks products up in the Open Food Facts database by barcode.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"smartpantry/internal/pantry"
)

const (
	DefaultBaseURL   = "https://world.openfoodfacts.org"
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "SmartPantry/1.0 (https://github.com/smartpantry)"
)

// Client handles product lookups against the Open Food Facts API
type Client struct {
	httpClient *http.Client
	BaseURL    string
	UserAgent  string
}

// NewClient creates a new client. Empty arguments take the defaults.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: DefaultUserAgent,
	}
}

type productResponse struct {
	Status  int          `json:"status"`
	Code    string       `json:"code"`
	Product *productBody `json:"product"`
}

type productBody struct {
	ProductName   string   `json:"product_name"`
	Brands        string   `json:"brands"`
	ImageFrontURL string   `json:"image_front_url"`
	Quantity      string   `json:"quantity"`
	CategoriesTag []string `json:"categories_tags"`
}

// LookupProduct fetches a product by barcode. Unknown barcodes return nil, nil.
func (c *Client) LookupProduct(ctx context.Context, barcode string) (*pantry.Product, error) {
	endpoint := fmt.Sprintf("%s/api/v0/product/%s.json", c.BaseURL, url.PathEscape(barcode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open food facts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("open food facts returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var pr productResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	if pr.Status != 1 || pr.Product == nil {
		return nil, nil
	}

	p := pr.Product
	return &pantry.Product{
		Barcode:      barcode,
		Name:         strings.TrimSpace(p.ProductName),
		Brand:        firstBrand(p.Brands),
		ImageURL:     p.ImageFrontURL,
		Quantity:     strings.TrimSpace(p.Quantity),
		CategoryTags: p.CategoriesTag,
	}, nil
}

// brands is a comma separated list; the first one is the label owner
func firstBrand(brands string) string {
	first, _, _ := strings.Cut(brands, ",")
	return strings.TrimSpace(first)
}

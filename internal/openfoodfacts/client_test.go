package openfoodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/api/v0/product/3017620422003.json":
			w.Write([]byte(`{
				"status": 1,
				"code": "3017620422003",
				"product": {
					"product_name": " Nutella ",
					"brands": "Ferrero, Nutella",
					"image_front_url": "https://images.example/nutella.jpg",
					"quantity": "400 g",
					"categories_tags": ["en:spreads", "en:sweet-spreads"]
				}
			}`))
		case "/api/v0/product/0000000000000.json":
			w.Write([]byte(`{"status": 0, "status_verbose": "product not found"}`))
		case "/api/v0/product/500.json":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("boom"))
		case "/api/v0/product/garbage.json":
			w.Write([]byte("<html>"))
		case "/api/v0/product/slow.json":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{"status": 0}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookupProduct_Found(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL+"/", 0)

	p, err := c.LookupProduct(context.Background(), "3017620422003")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Nutella", p.Name)
	assert.Equal(t, "Ferrero", p.Brand)
	assert.Equal(t, "400 g", p.Quantity)
	assert.Equal(t, "3017620422003", p.Barcode)
	assert.Equal(t, []string{"en:spreads", "en:sweet-spreads"}, p.CategoryTags)
}

func TestLookupProduct_NotFound(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, 0)

	p, err := c.LookupProduct(context.Background(), "0000000000000")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = c.LookupProduct(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestLookupProduct_Errors(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, 0)

	_, err := c.LookupProduct(context.Background(), "500")
	assert.ErrorContains(t, err, "status 500")

	_, err = c.LookupProduct(context.Background(), "garbage")
	assert.Error(t, err)

	short := NewClient(srv.URL, 50*time.Millisecond)
	_, err = short.LookupProduct(context.Background(), "slow")
	assert.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", 0)
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

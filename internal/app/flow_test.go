package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/febluxury/storefront/internal/auth"
	"github.com/febluxury/storefront/pkg/middleware"
)

// flowClient talks to a live server the way a browser session would: the
// token travels in the auth cookie rather than a header.
type flowClient struct {
	t      *testing.T
	base   string
	client *http.Client
	token  string
}

func (c *flowClient) call(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, c.base+path, &buf)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: c.token})
	}

	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestCatalogReviewFlow(t *testing.T) {
	cfg := testConfig()
	application, err := NewApp(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Shutdown() })

	srv := httptest.NewServer(application.httpServer.Handler)
	t.Cleanup(srv.Close)

	jwt := auth.NewJWTManager(cfg.TokenSecret(), time.Hour)
	adminToken, err := jwt.GenerateToken("admin-1", "admin@febluxury.com", "admin")
	require.NoError(t, err)
	userToken, err := jwt.GenerateToken("shopper-1", "shopper@example.com", "user")
	require.NoError(t, err)

	admin := &flowClient{t: t, base: srv.URL, client: srv.Client(), token: adminToken}
	shopper := &flowClient{t: t, base: srv.URL, client: srv.Client(), token: userToken}
	guest := &flowClient{t: t, base: srv.URL, client: srv.Client()}

	// Create a product.
	status, body := admin.call(http.MethodPost, "/api/products/create-product", map[string]any{
		"name":        "Heritage Pearl Strand",
		"category":    "accessories",
		"subcategory": "pearls",
		"price":       420,
		"delivery":    map[string]int{"minDays": 2, "maxDays": 5},
	})
	require.Equal(t, http.StatusCreated, status, body)
	productID := body["product"].(map[string]any)["id"].(string)

	// Shoppers cannot manage the catalog.
	status, _ = shopper.call(http.MethodDelete, "/api/products/"+productID, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Review, then edit the same review.
	status, body = shopper.call(http.MethodPost, "/api/reviews/post-review", map[string]any{
		"productId": productID, "comment": "Stunning", "rating": 5,
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["created"])

	status, body = shopper.call(http.MethodPost, "/api/reviews/post-review", map[string]any{
		"productId": productID, "comment": "Stunning, one pearl was loose", "rating": 4,
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, false, body["created"])
	assert.EqualValues(t, 4, body["rating"])
	assert.EqualValues(t, 1, body["reviewCount"])

	// The product detail reflects the aggregate.
	status, body = guest.call(http.MethodGet, "/api/products/"+productID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 4, body["product"].(map[string]any)["rating"])
	assert.Len(t, body["reviews"], 1)

	// Deleting the product removes its reviews.
	status, _ = admin.call(http.MethodDelete, "/api/products/"+productID, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = guest.call(http.MethodGet, "/api/reviews/total-reviews", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["totalReviews"])
}

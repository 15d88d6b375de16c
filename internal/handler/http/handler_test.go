package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/febluxury/storefront/internal/auth"
	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/internal/event"
	"github.com/febluxury/storefront/internal/notify"
	"github.com/febluxury/storefront/internal/repository/memory"
	"github.com/febluxury/storefront/internal/service"
	"github.com/febluxury/storefront/pkg/health"
	"github.com/febluxury/storefront/pkg/middleware"
)

// =============================================================================
// Test server
// =============================================================================

type testServer struct {
	handler http.Handler
	jwt     *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	producer := event.NewProducer(event.NewLogPublisher(logger), logger)
	ratings := service.NewRatingAggregator(store.Ratings(), producer, logger)

	jwt := auth.NewJWTManager("handler-test-secret", time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := NewRouter(ctx, RouterConfig{
		Products:  service.NewProductService(store.Products(), store.Reviews(), domain.DefaultTaxonomy(), producer, service.ProductOptions{}, logger),
		Reviews:   service.NewReviewService(store.Reviews(), store.Products(), ratings, producer, 0, logger),
		Receipts:  notify.NewReceiptSender(notify.NewLogSender(logger), "orders@febluxury.com", nil, logger),
		Validator: jwt.Validator(),
		Health:    health.NewHandler(),
		CORS:      middleware.DefaultCORSConfig(),
	}, logger)

	return &testServer{handler: router, jwt: jwt}
}

func (s *testServer) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := s.jwt.GenerateToken(userID, userID+"@example.com", role)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (s *testServer) createProduct(t *testing.T, name, category string, price float64) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/products/create-product", s.token(t, "admin-1", RoleAdmin), map[string]any{
		"name":     name,
		"category": category,
		"price":    price,
		"image":    "bag.jpg",
		"delivery": map[string]int{"minDays": 1, "maxDays": 4},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decodeBody(t, rec)["product"].(map[string]any)
	return product["id"].(string)
}

// =============================================================================
// Products
// =============================================================================

func TestCreateProduct_RequiresAdmin(t *testing.T) {
	srv := newTestServer(t)
	body := map[string]any{"name": "Tote", "category": "bags", "price": 120}

	rec := srv.do(t, http.MethodPost, "/api/products/create-product", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/products/create-product", srv.token(t, "u-1", "user"), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/products/create-product", "not-a-jwt", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateProduct_Success(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/products/create-product", srv.token(t, "admin-1", RoleAdmin), map[string]any{
		"name":     "  Leather Tote ",
		"category": "Bags",
		"price":    120,
		"image":    "tote.jpg",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	product := body["product"].(map[string]any)
	assert.Equal(t, "Leather Tote", product["name"])
	assert.Equal(t, "bags", product["category"])
	assert.Equal(t, "/images/tote.jpg", product["image"])
	assert.Equal(t, "admin-1", product["authorId"])
	assert.EqualValues(t, 0, product["rating"])
}

func TestCreateProduct_ValidationError(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/products/create-product", srv.token(t, "admin-1", RoleAdmin), map[string]any{
		"category": "bags",
		"price":    -1,
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	fields := body["fields"].(map[string]any)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "price")
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/products/create-product", srv.token(t, "admin-1", RoleAdmin), map[string]any{
		"name":     "Mystery",
		"category": "furniture",
		"price":    10,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProduct_RejectsNonJSONBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/products/create-product", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+srv.token(t, "admin-1", RoleAdmin))
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestListProducts_Envelope(t *testing.T) {
	srv := newTestServer(t)
	for _, name := range []string{"Tote", "Clutch", "Satchel"} {
		srv.createProduct(t, name, "bags", 100)
	}
	srv.createProduct(t, "Oud", "fragrance", 80)

	rec := srv.do(t, http.MethodGet, "/api/products?category=bags&limit=2&page=2", "", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["products"], 1)
	assert.EqualValues(t, 3, body["totalProducts"])
	assert.EqualValues(t, 2, body["totalPages"])
	assert.EqualValues(t, 2, body["currentPage"])
}

func TestListProducts_InvalidQuery(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/products?category=furniture", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProduct_NotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/products/does-not-exist", "", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeBody(t, rec)["code"])
}

func TestUpdateProduct_PatchesFields(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createProduct(t, "Tote", "bags", 100)

	rec := srv.do(t, http.MethodPatch, "/api/products/update-product/"+id, srv.token(t, "admin-1", RoleAdmin), map[string]any{
		"price": 90,
		"stock": map[string]any{"status": "out-of-stock", "quantity": 0},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	product := decodeBody(t, rec)["product"].(map[string]any)
	assert.EqualValues(t, 90, product["price"])
	assert.Equal(t, "Tote", product["name"])
	assert.Equal(t, "out-of-stock", product["stock"].(map[string]any)["status"])
}

func TestDeleteProduct_ThenGone(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createProduct(t, "Tote", "bags", 100)
	admin := srv.token(t, "admin-1", RoleAdmin)

	rec := srv.do(t, http.MethodDelete, "/api/products/"+id, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/products/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/api/products/"+id, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRelatedAndSearch(t *testing.T) {
	srv := newTestServer(t)
	src := srv.createProduct(t, "Black Leather Tote", "bags", 100)
	srv.createProduct(t, "Leather Clutch", "bags", 80)
	srv.createProduct(t, "Canvas Satchel", "bags", 60)
	srv.createProduct(t, "Leather Belt", "accessories", 40)
	srv.createProduct(t, "Rose Oud", "fragrance", 90)

	rec := srv.do(t, http.MethodGet, "/api/products/related/"+src, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var names []string
	for _, p := range decodeBody(t, rec)["products"].([]any) {
		names = append(names, p.(map[string]any)["name"].(string))
	}
	assert.ElementsMatch(t, []string{"Leather Clutch", "Canvas Satchel", "Leather Belt"}, names)

	rec = srv.do(t, http.MethodGet, "/api/products/search?q=leather", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decodeBody(t, rec)["products"], 3)

	rec = srv.do(t, http.MethodGet, "/api/products/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListCategories_Cacheable(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/categories", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=300")
	categories := decodeBody(t, rec)["categories"].([]any)
	assert.NotEmpty(t, categories)
}

// =============================================================================
// Reviews
// =============================================================================

func TestPostReview_RecomputesRating(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createProduct(t, "Tote", "bags", 100)

	rec := srv.do(t, http.MethodPost, "/api/reviews/post-review", srv.token(t, "u-1", "user"), map[string]any{
		"productId": id, "comment": "Lovely", "rating": 4,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["created"])
	assert.EqualValues(t, 4, body["rating"])

	rec = srv.do(t, http.MethodPost, "/api/reviews/post-review", srv.token(t, "u-2", "user"), map[string]any{
		"productId": id, "comment": "Fine", "rating": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decodeBody(t, rec)
	assert.EqualValues(t, 3, body["rating"])
	assert.EqualValues(t, 2, body["reviewCount"])
	assert.Len(t, body["reviews"], 2)

	rec = srv.do(t, http.MethodGet, "/api/products/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	product := decodeBody(t, rec)["product"].(map[string]any)
	assert.EqualValues(t, 3, product["rating"])
	assert.EqualValues(t, 2, product["reviewCount"])
}

func TestPostReview_RequiresToken(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/reviews/post-review", "", map[string]any{
		"productId": "p-1", "comment": "x", "rating": 3,
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPostReview_InvalidRating(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createProduct(t, "Tote", "bags", 100)

	rec := srv.do(t, http.MethodPost, "/api/reviews/post-review", srv.token(t, "u-1", "user"), map[string]any{
		"productId": id, "comment": "Too good", "rating": 6,
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["fields"], "rating")
}

func TestPostReview_UnknownProduct(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/reviews/post-review", srv.token(t, "u-1", "user"), map[string]any{
		"productId": "missing", "comment": "Where is it", "rating": 3,
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteReview_OnlyAuthor(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createProduct(t, "Tote", "bags", 100)
	author := srv.token(t, "u-1", "user")

	rec := srv.do(t, http.MethodPost, "/api/reviews/post-review", author, map[string]any{
		"productId": id, "comment": "Lovely", "rating": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	reviewID := decodeBody(t, rec)["review"].(map[string]any)["id"].(string)

	rec = srv.do(t, http.MethodDelete, "/api/reviews/"+reviewID, srv.token(t, "u-2", "user"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/api/reviews/"+reviewID, author, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/reviews/product/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody(t, rec)["reviews"])

	rec = srv.do(t, http.MethodGet, "/api/products/"+id, "", nil)
	product := decodeBody(t, rec)["product"].(map[string]any)
	assert.EqualValues(t, 0, product["rating"])
	assert.EqualValues(t, 0, product["reviewCount"])
}

func TestToggleLike_AndActivity(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createProduct(t, "Tote", "bags", 100)

	rec := srv.do(t, http.MethodPost, "/api/reviews/post-review", srv.token(t, "u-1", "user"), map[string]any{
		"productId": id, "comment": "Lovely", "rating": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	reviewID := decodeBody(t, rec)["review"].(map[string]any)["id"].(string)

	liker := srv.token(t, "u-2", "user")
	rec = srv.do(t, http.MethodPost, "/api/reviews/"+reviewID+"/like", liker, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []any{"u-2"}, decodeBody(t, rec)["likes"])

	rec = srv.do(t, http.MethodGet, "/api/reviews/user/u-2/activity", liker, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	activity := decodeBody(t, rec)
	assert.Empty(t, activity["reviews"])
	assert.Len(t, activity["likedReviews"], 1)

	rec = srv.do(t, http.MethodPost, "/api/reviews/"+reviewID+"/like", liker, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody(t, rec)["likes"])
}

func TestUserReviewsAndTotal(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createProduct(t, "Tote", "bags", 100)

	rec := srv.do(t, http.MethodGet, "/api/reviews/user/u-1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/reviews/post-review", srv.token(t, "u-1", "user"), map[string]any{
		"productId": id, "comment": "Lovely", "rating": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/reviews/user/u-1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["reviews"], 1)

	rec = srv.do(t, http.MethodGet, "/api/reviews/total-reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["totalReviews"])
}

// =============================================================================
// Email
// =============================================================================

func TestSendReceipt(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/email/send-receipt-email", "", map[string]any{
		"receiptNumber": "R-1001",
		"customerName":  "Ada",
		"customerEmail": "ada@example.com",
		"totalAmount":   "250.00",
		"receipt":       base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.True(t, strings.HasPrefix(body["messageId"].(string), "log-"))
}

func TestSendReceipt_Invalid(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing email", map[string]any{"receiptNumber": "R-1"}},
		{"bad email", map[string]any{"receiptNumber": "R-1", "customerEmail": "nope"}},
		{"missing number", map[string]any{"customerEmail": "ada@example.com"}},
		{"bad attachment", map[string]any{"receiptNumber": "R-1", "customerEmail": "ada@example.com", "receipt": "***"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/api/email/send-receipt-email", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

// =============================================================================
// Ops
// =============================================================================

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

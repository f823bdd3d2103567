package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/config"
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/db"
	"github.com/ikkim/campus-backend/internal/events"
	"github.com/ikkim/campus-backend/internal/middleware"
	"github.com/ikkim/campus-backend/internal/queue"
	"github.com/ikkim/campus-backend/internal/router"
	ws "github.com/ikkim/campus-backend/internal/websocket"
	"github.com/ikkim/campus-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type TestServer struct {
	Router   *gin.Engine
	DB       *gorm.DB
	Services *Services
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			GinMode:         gin.TestMode,
			FrontendBaseURL: "https://campus.example",
			PublicBaseURL:   "https://go.campus.example",
		},
		JWT: config.JWTConfig{
			Secret:             "integration-secret",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Payment: config.PaymentConfig{
			GatewayBaseURL: "https://pay.example/start",
			MerchantID:     "campus",
		},
		Uploads: config.UploadConfig{MaxCourseVideoMB: 100, MaxArticleVideoMB: 50},
	}
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators())

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	require.NoError(t, db.SeedReferenceData(testDB))
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub()
	go hub.Run(ctx)

	cfg := testConfig()
	svc, err := NewServices(cfg, Deps{
		DB:          testDB,
		Store:       cache.NewMemoryStore(),
		Queue:       queue.NewClient(nil, nil),
		Publisher:   events.NoopPublisher{},
		Broadcaster: ws.NewLocalBroker(hub),
	})
	require.NoError(t, err)

	r := router.NewRouter(
		NewControllers(cfg, svc, hub, nil),
		middleware.NewAuthMiddleware(cfg.JWT.Secret, svc.Blacklist),
		svc.Blocklist,
		nil,
		cfg,
	)

	return &TestServer{
		Router:   r.Setup(),
		DB:       testDB,
		Services: svc,
	}
}

func (ts *TestServer) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (ts *TestServer) createStaff(t *testing.T) string {
	hash, err := util.HashPassword("Staff-pass-2024")
	require.NoError(t, err)
	staff := &model.User{
		Username:     "registrar",
		Email:        "registrar@campus.example",
		PasswordHash: hash,
		Phone:        "09120000001",
		Role:         model.RoleTeacher,
		IsStaff:      true,
		IsActive:     true,
	}
	require.NoError(t, ts.DB.Create(staff).Error)

	w := ts.request(t, "POST", "/api/v1/auth/login", map[string]string{
		"username": "registrar",
		"password": "Staff-pass-2024",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["access"].(string)
}

func TestCompleteStudentJourney(t *testing.T) {
	ts := setupIntegrationTest(t)

	t.Log("Step 1: Register student")
	w := ts.request(t, "POST", "/api/v1/account/register/student", map[string]interface{}{
		"username":   "sara",
		"email":      "sara@campus.example",
		"password":   "Quiet-river-77",
		"first_name": "Sara",
		"phone":      "09121234567",
		"university": 1,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Log("Step 2: Login and fetch profile")
	w = ts.request(t, "POST", "/api/v1/auth/login", map[string]string{
		"username": "sara",
		"password": "Quiet-river-77",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode(t, w)
	accessToken := login["access"].(string)
	assert.NotEmpty(t, login["refresh"])

	w = ts.request(t, "GET", "/api/v1/auth/me", nil, accessToken)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "sara", me["username"])
	assert.Equal(t, string(model.RoleStudent), me["role"])

	t.Log("Step 3: Staff stocks a book")
	staffToken := ts.createStaff(t)
	w = ts.request(t, "POST", "/api/v1/management/books", map[string]interface{}{
		"name":  "Linear Algebra Done Right",
		"price": "30.00",
		"stock": 4,
	}, staffToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bookID := uint(decode(t, w)["book"].(map[string]interface{})["id"].(float64))

	w = ts.request(t, "POST", "/api/v1/management/books", map[string]interface{}{
		"name":  "Forbidden",
		"price": "1.00",
	}, accessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	t.Log("Step 4: Browse the store")
	w = ts.request(t, "GET", "/api/v1/store/books", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["books"], 1)

	t.Log("Step 5: Fill the cart and check out")
	w = ts.request(t, "POST", "/api/v1/buy/cart/items", map[string]interface{}{
		"book_id":  bookID,
		"quantity": 2,
	}, accessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.request(t, "POST", "/api/v1/buy/checkout", nil, accessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode(t, w)["order"].(map[string]interface{})
	orderID := uint(order["id"].(float64))
	assert.Equal(t, "60.00", order["total_price"])

	t.Log("Step 6: Pay for the order")
	w = ts.request(t, "POST", "/api/v1/buy/payments/request", map[string]interface{}{
		"product_type": model.ProductBook,
		"product_id":   bookID,
	}, accessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	authority := decode(t, w)["authority"].(string)

	w = ts.request(t, "POST", "/api/v1/buy/payments/verify", map[string]string{"authority": authority}, accessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.request(t, "GET", fmt.Sprintf("/api/v1/buy/orders/%d", orderID), nil, accessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(model.OrderStatusPaid), decode(t, w)["order"].(map[string]interface{})["status"])

	t.Log("Step 7: Staff reads reports")
	w = ts.request(t, "GET", "/api/v1/reports/sales", nil, staffToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w), "sales")

	w = ts.request(t, "GET", "/api/v1/reports/logs?object_type=book", nil, staffToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	// Async reports need the task queue.
	w = ts.request(t, "GET", "/api/v1/reports/avg-order-value", nil, staffToken)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	t.Log("Step 8: Logout revokes the access token")
	w = ts.request(t, "POST", "/api/v1/auth/logout", map[string]string{"refresh": login["refresh"].(string)}, accessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.request(t, "GET", "/api/v1/auth/me", nil, accessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnauthorizedAccess(t *testing.T) {
	ts := setupIntegrationTest(t)

	protected := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/auth/me"},
		{"GET", "/api/v1/buy/cart"},
		{"POST", "/api/v1/buy/checkout"},
		{"GET", "/api/v1/user/courses"},
		{"GET", "/api/v1/teachers/me/courses"},
		{"GET", "/api/v1/management/uni/students"},
		{"GET", "/api/v1/reports/sales"},
		{"POST", "/api/v1/chat/room/create"},
	}

	for _, p := range protected {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			w := ts.request(t, p.method, p.path, nil, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w = ts.request(t, p.method, p.path, nil, "not-a-token")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestInvalidLogin(t *testing.T) {
	ts := setupIntegrationTest(t)
	ts.createStaff(t)

	w := ts.request(t, "POST", "/api/v1/auth/login", map[string]string{
		"username": "registrar",
		"password": "wrong-password-1",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.request(t, "POST", "/api/v1/auth/login", map[string]string{"username": "registrar"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

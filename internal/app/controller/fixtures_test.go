package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/app/service"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/db"
	"github.com/ikkim/campus-backend/internal/events"
	"github.com/ikkim/campus-backend/internal/middleware"
	"github.com/ikkim/campus-backend/internal/queue"
	ws "github.com/ikkim/campus-backend/internal/websocket"
	"github.com/ikkim/campus-backend/pkg/payment/gateway"
	"github.com/ikkim/campus-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

// stubQueue is a disabled queue client whose task lookups and report
// enqueues are answered from memory.
type stubQueue struct {
	*queue.Client
	statuses map[string]*queue.TaskStatus
	seq      int
}

func newStubQueue() *stubQueue {
	return &stubQueue{Client: queue.NewClient(nil, nil), statuses: map[string]*queue.TaskStatus{}}
}

func (q *stubQueue) next(taskType string) string {
	q.seq++
	id := fmt.Sprintf("task-%d", q.seq)
	q.statuses[id] = &queue.TaskStatus{ID: id, Type: taskType, State: "pending"}
	return id
}

func (q *stubQueue) EnqueueAvgOrderValue() (string, error) {
	return q.next(queue.TypeAvgOrderValue), nil
}

func (q *stubQueue) EnqueueHighSpenderExport(queue.HighSpenderExportPayload) (string, error) {
	return q.next(queue.TypeHighSpenderExport), nil
}

func (q *stubQueue) EnqueueMassEmailBatch(queue.MassEmailBatchPayload) (string, error) {
	return q.next(queue.TypeMassEmailBatch), nil
}

func (q *stubQueue) TaskStatus(taskID string) (*queue.TaskStatus, error) {
	st, ok := q.statuses[taskID]
	if !ok {
		return nil, queue.ErrTaskNotFound
	}
	return st, nil
}

// complete marks a task finished with result as its JSON payload.
func (q *stubQueue) complete(t *testing.T, taskID string, result interface{}) {
	data, err := json.Marshal(result)
	require.NoError(t, err)
	st := q.statuses[taskID]
	st.State = "completed"
	st.Result = data
}

type services struct {
	auth       service.AuthService
	courses    service.CourseService
	enrollment service.EnrollmentService
	blog       service.BlogService
	books      service.BookService
	carts      service.CartService
	orders     service.OrderService
	payments   service.PaymentService
	links      service.ShortLinkService
	chat       service.ChatService
	audit      service.AuditService
	reports    service.ReportService
	email      service.EmailService
	blocklist  service.BlocklistService
	management service.ManagementService
}

type testApp struct {
	t      *testing.T
	db     *gorm.DB
	store  *cache.MemoryStore
	queue  *stubQueue
	hub    *ws.Hub
	svc    services
	router *gin.Engine
	auth   *middleware.AuthMiddleware
}

func setupTestApp(t *testing.T) *testApp {
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators())

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	require.NoError(t, db.SeedReferenceData(testDB))
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	store := cache.NewMemoryStore()
	invalidator := cache.NewInvalidator(store)
	blacklist := cache.NewTokenBlacklist(store)
	q := newStubQueue()
	pub := events.NoopPublisher{}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub()
	go hub.Run(ctx)

	gw, err := gateway.NewClient(gateway.Config{BaseURL: "https://pay.example/start/", MerchantID: "campus"})
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(testDB)
	courseRepo := repository.NewCourseRepository(testDB)
	bookRepo := repository.NewBookRepository(testDB)
	enrollRepo := repository.NewEnrollmentRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	paymentRepo := repository.NewPaymentRepository(testDB)

	audit := service.NewAuditService(repository.NewAuditLogRepository(testDB))
	links := service.NewShortLinkService(repository.NewShortLinkRepository(testDB), courseRepo, bookRepo, store, q, "https://campus.example")

	svc := services{
		auth: service.NewAuthService(testDB, userRepo, repository.NewReferenceRepository(testDB), blacklist, invalidator, q, pub,
			testSecret, 15*time.Minute, 24*time.Hour),
		courses: service.NewCourseService(courseRepo, repository.NewVideoRepository(testDB), enrollRepo, userRepo, links, audit,
			invalidator, nil, 100),
		enrollment: service.NewEnrollmentService(enrollRepo, courseRepo, userRepo, audit, invalidator),
		blog: service.NewBlogService(repository.NewArticleRepository(testDB), repository.NewCommentRepository(testDB), audit,
			invalidator, nil, 50),
		books:      service.NewBookService(testDB, bookRepo, links, audit, invalidator),
		carts:      service.NewCartService(repository.NewCartRepository(testDB), bookRepo),
		orders:     service.NewOrderService(testDB, orderRepo, audit, invalidator, pub),
		payments:   service.NewPaymentService(testDB, paymentRepo, courseRepo, bookRepo, orderRepo, enrollRepo, gw, invalidator, pub),
		links:      links,
		chat:       service.NewChatService(repository.NewChatRepository(testDB), userRepo, invalidator, ws.NewLocalBroker(hub), pub),
		audit:      audit,
		reports:    service.NewReportService(repository.NewReportRepository(testDB), paymentRepo, store, q),
		email:      service.NewEmailService(userRepo, q),
		blocklist:  service.NewBlocklistService(repository.NewBlocklistRepository(testDB), audit, invalidator),
		management: service.NewManagementService(repository.NewStudentRepository(testDB), repository.NewTeacherRepository(testDB),
			repository.NewReferenceRepository(testDB), audit, invalidator),
	}

	return &testApp{
		t:      t,
		db:     testDB,
		store:  store,
		queue:  q,
		hub:    hub,
		svc:    svc,
		router: gin.New(),
		auth:   middleware.NewAuthMiddleware(testSecret, blacklist),
	}
}

var phoneSeq = 300000000

func (a *testApp) createUser(username string, role model.UserRole, staff bool) *model.User {
	phoneSeq++
	hash, err := util.HashPassword("Str0ng-pass!")
	require.NoError(a.t, err)
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Phone:        fmt.Sprintf("09%09d", phoneSeq),
		Role:         role,
		IsStaff:      staff,
		IsActive:     true,
	}
	require.NoError(a.t, a.db.Create(user).Error)
	return user
}

func (a *testApp) tokenFor(user *model.User) string {
	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role), user.IsStaff, testSecret, 15*time.Minute, time.Hour)
	require.NoError(a.t, err)
	return tokens.AccessToken
}

// do sends a JSON request; a nil body sends none and an empty token skips auth.
func (a *testApp) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewBuffer(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	code, _ := decodeBody(t, w)["error"].(string)
	return code
}

func createCourse(t *testing.T, testDB *gorm.DB, teacherID uint, name string, price int64) *model.Course {
	course := &model.Course{Name: name, TeacherID: teacherID, Price: price, IsFree: price == 0}
	require.NoError(t, testDB.Omit("Teacher").Create(course).Error)
	return course
}

func createBook(t *testing.T, testDB *gorm.DB, name, price string, stock int) *model.Book {
	book := &model.Book{Name: name, Price: model.MustMoney(price), Stock: stock}
	require.NoError(t, testDB.Create(book).Error)
	return book
}


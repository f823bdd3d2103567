// Package app wires repositories, services and controllers for both the API
// server and the worker.
package app

import (
	"fmt"

	"github.com/ikkim/campus-backend/config"
	"github.com/ikkim/campus-backend/internal/app/controller"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/app/service"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/events"
	"github.com/ikkim/campus-backend/internal/queue"
	"github.com/ikkim/campus-backend/internal/router"
	"github.com/ikkim/campus-backend/internal/storage"
	ws "github.com/ikkim/campus-backend/internal/websocket"
	"github.com/ikkim/campus-backend/pkg/payment/gateway"
	"gorm.io/gorm"
)

// Deps are the process-level resources the services are built on. Objects and
// Broadcaster may be nil.
type Deps struct {
	DB          *gorm.DB
	Store       cache.Store
	Queue       queue.Enqueuer
	Publisher   events.Publisher
	Objects     storage.ObjectStore
	Broadcaster service.Broadcaster
}

type Services struct {
	Invalidator *cache.Invalidator
	Blacklist   *cache.TokenBlacklist

	Auth       service.AuthService
	Courses    service.CourseService
	Enrollment service.EnrollmentService
	Blog       service.BlogService
	Books      service.BookService
	Carts      service.CartService
	Orders     service.OrderService
	Payments   service.PaymentService
	Links      service.ShortLinkService
	Chat       service.ChatService
	Audit      service.AuditService
	Reports    service.ReportService
	Email      service.EmailService
	Blocklist  service.BlocklistService
	Management service.ManagementService
}

func NewServices(cfg *config.Config, deps Deps) (*Services, error) {
	gw, err := gateway.NewClient(gateway.Config{
		BaseURL:     cfg.Payment.GatewayBaseURL,
		CallbackURL: cfg.Payment.CallbackURL,
		MerchantID:  cfg.Payment.MerchantID,
	})
	if err != nil {
		return nil, fmt.Errorf("payment gateway: %w", err)
	}

	conn := deps.DB
	invalidator := cache.NewInvalidator(deps.Store)
	blacklist := cache.NewTokenBlacklist(deps.Store)

	userRepo := repository.NewUserRepository(conn)
	refRepo := repository.NewReferenceRepository(conn)
	courseRepo := repository.NewCourseRepository(conn)
	bookRepo := repository.NewBookRepository(conn)
	enrollRepo := repository.NewEnrollmentRepository(conn)
	orderRepo := repository.NewOrderRepository(conn)
	paymentRepo := repository.NewPaymentRepository(conn)

	audit := service.NewAuditService(repository.NewAuditLogRepository(conn))
	links := service.NewShortLinkService(repository.NewShortLinkRepository(conn), courseRepo, bookRepo,
		deps.Store, deps.Queue, cfg.Server.FrontendBaseURL)

	return &Services{
		Invalidator: invalidator,
		Blacklist:   blacklist,

		Auth: service.NewAuthService(conn, userRepo, refRepo, blacklist, invalidator, deps.Queue, deps.Publisher,
			cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry),
		Courses: service.NewCourseService(courseRepo, repository.NewVideoRepository(conn), enrollRepo, userRepo, links,
			audit, invalidator, deps.Objects, cfg.Uploads.MaxCourseVideoMB),
		Enrollment: service.NewEnrollmentService(enrollRepo, courseRepo, userRepo, audit, invalidator),
		Blog: service.NewBlogService(repository.NewArticleRepository(conn), repository.NewCommentRepository(conn),
			audit, invalidator, deps.Objects, cfg.Uploads.MaxArticleVideoMB),
		Books:    service.NewBookService(conn, bookRepo, links, audit, invalidator),
		Carts:    service.NewCartService(repository.NewCartRepository(conn), bookRepo),
		Orders:   service.NewOrderService(conn, orderRepo, audit, invalidator, deps.Publisher),
		Payments: service.NewPaymentService(conn, paymentRepo, courseRepo, bookRepo, orderRepo, enrollRepo, gw, invalidator, deps.Publisher),
		Links:    links,
		Chat: service.NewChatService(repository.NewChatRepository(conn), userRepo, invalidator,
			deps.Broadcaster, deps.Publisher),
		Audit:     audit,
		Reports:   service.NewReportService(repository.NewReportRepository(conn), paymentRepo, deps.Store, deps.Queue),
		Email:     service.NewEmailService(userRepo, deps.Queue),
		Blocklist: service.NewBlocklistService(repository.NewBlocklistRepository(conn), audit, invalidator),
		Management: service.NewManagementService(repository.NewStudentRepository(conn), repository.NewTeacherRepository(conn),
			refRepo, audit, invalidator),
	}, nil
}

// NewControllers builds the HTTP handler sets. objects may be nil.
func NewControllers(cfg *config.Config, svc *Services, hub *ws.Hub, objects storage.ObjectStore) router.Controllers {
	return router.Controllers{
		Auth:       controller.NewAuthController(svc.Auth),
		Course:     controller.NewCourseController(svc.Courses),
		Enrollment: controller.NewEnrollmentController(svc.Enrollment),
		Blog:       controller.NewBlogController(svc.Blog),
		Book:       controller.NewBookController(svc.Books),
		Cart:       controller.NewCartController(svc.Carts),
		Order:      controller.NewOrderController(svc.Orders),
		Payment:    controller.NewPaymentController(svc.Payments),
		Report:     controller.NewReportController(svc.Reports, svc.Audit, objects),
		Management: controller.NewManagementController(svc.Management),
		Blocklist:  controller.NewBlocklistController(svc.Blocklist),
		Email:      controller.NewEmailController(svc.Email),
		Chat:       controller.NewChatController(svc.Chat, hub, cfg.Chat.AllowedOrigins),
		ShortLink:  controller.NewShortLinkController(svc.Links, cfg.Server.PublicBaseURL),
	}
}

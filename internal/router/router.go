package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/config"
	"github.com/ikkim/campus-backend/internal/app/controller"
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/metrics"
	"github.com/ikkim/campus-backend/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Controllers groups every HTTP handler set the router mounts.
type Controllers struct {
	Auth       *controller.AuthController
	Course     *controller.CourseController
	Enrollment *controller.EnrollmentController
	Blog       *controller.BlogController
	Book       *controller.BookController
	Cart       *controller.CartController
	Order      *controller.OrderController
	Payment    *controller.PaymentController
	Report     *controller.ReportController
	Management *controller.ManagementController
	Blocklist  *controller.BlocklistController
	Email      *controller.EmailController
	Chat       *controller.ChatController
	ShortLink  *controller.ShortLinkController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	ipChecker      middleware.IPChecker
	registry       *prometheus.Registry
	config         *config.Config
}

func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	ipChecker middleware.IPChecker,
	registry *prometheus.Registry,
	cfg *config.Config,
) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		ipChecker:      ipChecker,
		registry:       registry,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	if r.registry != nil {
		router.Use(middleware.MetricsMiddleware(metrics.NewHTTPMetrics(r.registry)))
	}
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))
	if r.ipChecker != nil {
		router.Use(middleware.BlocklistMiddleware(r.ipChecker))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Campus API is running",
		})
	})
	if r.registry != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(r.registry)))
	}

	ctrl := r.controllers
	authn := r.authMiddleware.Authenticate()
	staff := r.authMiddleware.RequireStaff()

	router.GET("/s/:code", ctrl.ShortLink.Redirect)
	// Browsers cannot set headers on a websocket handshake, so the token rides in ?token=.
	router.GET("/ws/support/:room_id", authn, ctrl.Chat.Support)

	v1 := router.Group("/api/v1")
	{
		account := v1.Group("/account/register")
		{
			account.POST("/student", ctrl.Auth.RegisterStudent)
			account.POST("/teacher", ctrl.Auth.RegisterTeacher)
		}

		auth := v1.Group("/auth")
		{
			auth.POST("/login", ctrl.Auth.Login)
			auth.POST("/token/refresh", ctrl.Auth.Refresh)
			auth.POST("/token/verify", ctrl.Auth.Verify)
			auth.POST("/token/blacklist", ctrl.Auth.Blacklist)
			auth.POST("/logout", authn, ctrl.Auth.Logout)
			auth.GET("/me", authn, ctrl.Auth.Me)
		}

		store := v1.Group("/store")
		{
			store.GET("/courses", ctrl.Course.ListStoreCourses)
			store.GET("/courses/:id/videos", authn, ctrl.Course.ListCourseVideos)
			store.GET("/books", ctrl.Book.ListStoreBooks)
			store.GET("/books/:id", ctrl.Book.GetBook)
		}

		blog := v1.Group("/blog")
		{
			blog.GET("/articles", ctrl.Blog.ListPublishedArticles)
			blog.GET("/comments/public", ctrl.Blog.ListPublicComments)
			blog.GET("/comments", authn, ctrl.Blog.ListMyComments)
			blog.POST("/comments", authn, ctrl.Blog.CreateComment)
			blog.PUT("/comments/:id", authn, ctrl.Blog.UpdateComment)
			blog.DELETE("/comments/:id", authn, ctrl.Blog.DeleteComment)
		}

		user := v1.Group("/user")
		user.Use(authn)
		{
			user.GET("/courses", ctrl.Course.ListMyEnrolledCourses)
			user.GET("/enrollments", ctrl.Enrollment.ListMyEnrollments)
			user.POST("/enrollments", ctrl.Enrollment.Enroll)
			user.DELETE("/enrollments/:id", ctrl.Enrollment.DeleteEnrollment)

			user.GET("/articles", ctrl.Blog.ListMyArticles)
			user.POST("/articles", ctrl.Blog.CreateArticle)
			user.POST("/articles/video-upload-url", ctrl.Blog.PresignArticleVideo)
			user.GET("/articles/:id", ctrl.Blog.GetArticle)
			user.PUT("/articles/:id", ctrl.Blog.UpdateArticle)
			user.DELETE("/articles/:id", ctrl.Blog.DeleteArticle)
		}

		teacher := v1.Group("/teachers/me")
		teacher.Use(authn, r.authMiddleware.RequireRole(model.RoleTeacher))
		{
			teacher.GET("/courses", ctrl.Course.ListTeacherCourses)
			teacher.POST("/courses", ctrl.Course.CreateCourse)
			teacher.GET("/courses/:id", ctrl.Course.GetCourse)
			teacher.PUT("/courses/:id", ctrl.Course.UpdateCourse)
			teacher.DELETE("/courses/:id", ctrl.Course.DeleteCourse)
			teacher.GET("/courses/:id/videos", ctrl.Course.ListCourseVideos)
			teacher.POST("/courses/:id/videos", ctrl.Course.CreateVideo)
			teacher.POST("/courses/:id/videos/upload-url", ctrl.Course.PresignVideoUpload)
			teacher.PUT("/videos/:video_id", ctrl.Course.UpdateVideo)
			teacher.DELETE("/videos/:video_id", ctrl.Course.DeleteVideo)
		}

		buy := v1.Group("/buy")
		buy.Use(authn)
		{
			buy.GET("/cart", ctrl.Cart.GetCart)
			buy.POST("/cart/items", ctrl.Cart.AddToCart)
			buy.DELETE("/cart/items/:id", ctrl.Cart.RemoveFromCart)
			buy.POST("/checkout", ctrl.Order.Checkout)
			buy.GET("/orders", ctrl.Order.GetOrders)
			buy.GET("/orders/:id", ctrl.Order.GetOrderByID)
			buy.POST("/payments/request", ctrl.Payment.RequestPayment)
			buy.POST("/payments/verify", ctrl.Payment.VerifyPayment)
		}

		shortlinks := v1.Group("/shortlinks")
		{
			shortlinks.POST("/create", ctrl.ShortLink.Create)
			shortlinks.GET("/:code/stats", ctrl.ShortLink.Stats)
		}

		chat := v1.Group("/chat/room")
		chat.Use(authn)
		{
			chat.POST("/create", ctrl.Chat.CreateRoom)
			chat.GET("", ctrl.Chat.GetMyRoom)
			chat.POST("/close", ctrl.Chat.CloseRoom)
			chat.GET("/user_messages", ctrl.Chat.ListMyMessages)
			chat.POST("/user_messages", ctrl.Chat.PostMyMessage)
		}

		r.registerManagement(v1.Group("/management", authn, staff))
		r.registerReports(v1.Group("/reports", authn, staff))
	}

	return router
}

func (r *Router) registerManagement(mgmt *gin.RouterGroup) {
	ctrl := r.controllers

	uni := mgmt.Group("/uni")
	{
		uni.GET("/students", ctrl.Management.ListStudents)
		uni.GET("/students/:id", ctrl.Management.GetStudent)
		uni.PATCH("/students/:id", ctrl.Management.UpdateStudent)
		uni.DELETE("/students/:id", ctrl.Management.DeleteStudent)

		uni.GET("/teachers", ctrl.Management.ListTeachers)
		uni.GET("/teachers/:id", ctrl.Management.GetTeacher)
		uni.PUT("/teachers/:id/universities", ctrl.Management.SetTeacherUniversities)
		uni.DELETE("/teachers/:id", ctrl.Management.DeleteTeacher)

		uni.GET("/courses", ctrl.Course.ListManagedCourses)
		uni.POST("/courses", ctrl.Course.CreateCourse)
		uni.GET("/courses/:id", ctrl.Course.GetCourse)
		uni.PUT("/courses/:id", ctrl.Course.UpdateCourse)
		uni.DELETE("/courses/:id", ctrl.Course.DeleteCourse)
		uni.GET("/courses/:id/videos", ctrl.Course.ListCourseVideos)
		uni.POST("/courses/:id/videos", ctrl.Course.CreateVideo)
		uni.GET("/videos", ctrl.Course.ListAllVideos)
		uni.PUT("/videos/:video_id", ctrl.Course.UpdateVideo)
		uni.DELETE("/videos/:video_id", ctrl.Course.DeleteVideo)
	}

	mgmt.GET("/universities", ctrl.Management.ListUniversities)
	mgmt.POST("/universities", ctrl.Management.CreateUniversity)
	mgmt.PUT("/universities/:id", ctrl.Management.UpdateUniversity)
	mgmt.DELETE("/universities/:id", ctrl.Management.DeleteUniversity)
	mgmt.GET("/education-studies", ctrl.Management.ListEducationStudies)
	mgmt.POST("/education-studies", ctrl.Management.CreateEducationStudy)
	mgmt.PUT("/education-studies/:id", ctrl.Management.UpdateEducationStudy)
	mgmt.DELETE("/education-studies/:id", ctrl.Management.DeleteEducationStudy)

	mgmt.GET("/enrollments", ctrl.Enrollment.ListAllEnrollments)
	mgmt.POST("/enrollments", ctrl.Enrollment.GrantEnrollment)
	mgmt.DELETE("/enrollments/:id", ctrl.Enrollment.DeleteEnrollment)

	mgmt.GET("/articles", ctrl.Blog.ListAllArticles)
	mgmt.GET("/comments", ctrl.Blog.ListAllComments)

	mgmt.GET("/books", ctrl.Book.ListAllBooks)
	mgmt.POST("/books", ctrl.Book.CreateBook)
	mgmt.PUT("/books/:id", ctrl.Book.UpdateBook)
	mgmt.DELETE("/books/:id", ctrl.Book.DeleteBook)

	mgmt.GET("/orders", ctrl.Order.ListAllOrders)
	mgmt.PATCH("/orders/:id/status", ctrl.Order.UpdateOrderStatus)

	mgmt.GET("/blocklist", ctrl.Blocklist.ListBlocked)
	mgmt.POST("/blocklist", ctrl.Blocklist.BlockIP)
	mgmt.DELETE("/blocklist/:id", ctrl.Blocklist.UnblockIP)

	mgmt.POST("/email/send", ctrl.Email.SendToAll)
	mgmt.GET("/email/status/:task_id", ctrl.Email.Status)

	mgmt.GET("/chat/rooms", ctrl.Chat.ListRooms)
	mgmt.GET("/chat/room/:room_id/admin_messages", ctrl.Chat.ListRoomMessages)
	mgmt.POST("/chat/room/close", ctrl.Chat.CloseRoom)
}

func (r *Router) registerReports(reports *gin.RouterGroup) {
	ctrl := r.controllers.Report

	reports.GET("/user-stats", ctrl.UserStats)
	reports.GET("/sales", ctrl.Sales)
	reports.GET("/product-sales", ctrl.ProductSales)
	reports.GET("/order-status", ctrl.OrderStatus)
	reports.GET("/chart", ctrl.Chart)
	reports.GET("/top-teachers", ctrl.TopTeachers)
	reports.GET("/new-users-last-30-days", ctrl.NewUsers)
	reports.GET("/avg-payment-time", ctrl.AvgPaymentTime)
	reports.GET("/daily-active-users", ctrl.DailyActiveUsers)
	reports.GET("/avg-order-value", ctrl.StartAvgOrderValue)
	reports.GET("/avg-order-value/result/:task_id", ctrl.AvgOrderValueResult)
	reports.GET("/high-spender-email-excel/start", ctrl.StartHighSpenderExport)
	reports.GET("/high-spender-email-excel/download/:task_id", ctrl.DownloadHighSpenderExport)
	reports.GET("/logs", ctrl.AuditLogs)
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

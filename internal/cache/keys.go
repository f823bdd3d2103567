package cache

import (
	"fmt"
	"time"
)

const (
	TTLCatalog   = 300 * time.Second
	TTLChat      = 120 * time.Second
	TTLShortLink = 30 * time.Second
	TTLBlocklist = 60 * time.Second

	TTLReportUserStats    = 60 * time.Second
	TTLReportSales        = 300 * time.Second
	TTLReportProductSales = 300 * time.Second
	TTLReportOrderStatus  = 120 * time.Second
	TTLReportChart        = 600 * time.Second
	TTLReportTopTeachers  = 600 * time.Second
	TTLReportNewUsers     = 300 * time.Second
	TTLReportPaymentTime  = 600 * time.Second
	TTLReportDAU          = 60 * time.Second
)

const (
	KeyCoursesAll        = "courses:all"
	KeyArticlesPublished = "articles:published"
	KeyCommentsPublic    = "comments:public"
	KeyBooksInStock      = "books:stock"
	KeyBlocklist         = "blocklist:ips"

	KeyReportUserStats    = "report:user-stats"
	KeyReportSales        = "report:sales"
	KeyReportProductSales = "report:product-sales"
	KeyReportOrderStatus  = "report:order-status"
	KeyReportTopTeachers  = "report:top-teachers"
	KeyReportNewUsers     = "report:new-users-30d"
	KeyReportPaymentTime  = "report:avg-payment-time"
	KeyReportDAU          = "report:daily-active-users"
	PatternReportChart    = "report:chart:*"
	PatternChatRoomLists  = "chat:rooms:user:*"
)

func KeyStudentCourses(userID uint) string {
	return fmt.Sprintf("courses:student:%d", userID)
}

func KeyCourseVideos(courseID, userID uint) string {
	return fmt.Sprintf("videos:course:%d:user:%d", courseID, userID)
}

func PatternCourseVideos(courseID uint) string {
	return fmt.Sprintf("videos:course:%d:user:*", courseID)
}

func KeyUserEnrollments(userID uint) string {
	return fmt.Sprintf("enrollments:user:%d", userID)
}

func KeyUserArticles(userID uint) string {
	return fmt.Sprintf("articles:user:%d", userID)
}

func KeyUserComments(userID uint) string {
	return fmt.Sprintf("comments:user:%d", userID)
}

func KeyUserOrders(userID uint) string {
	return fmt.Sprintf("orders:user:%d", userID)
}

func KeyChatRooms(userID uint) string {
	return fmt.Sprintf("chat:rooms:user:%d", userID)
}

func KeyRoomMessages(roomID, userID uint) string {
	return fmt.Sprintf("messages:room:%d:user:%d", roomID, userID)
}

func PatternRoomMessages(roomID uint) string {
	return fmt.Sprintf("messages:room:%d:user:*", roomID)
}

func KeyShortLinkStats(code string) string {
	return fmt.Sprintf("shortlink:stats:%s", code)
}

func KeyReportChart(period string) string {
	return fmt.Sprintf("report:chart:%s", period)
}

package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/ikkim/campus-backend/internal/middleware"
	"github.com/ikkim/campus-backend/internal/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportController serves the staff dashboards. Every report is cached by the
// service; the two slow ones run on the worker and are polled by task id.
type ReportController struct {
	reportService service.ReportService
	auditService  service.AuditService
	objects       storage.ObjectStore
}

func NewReportController(reportService service.ReportService, auditService service.AuditService, objects storage.ObjectStore) *ReportController {
	return &ReportController{
		reportService: reportService,
		auditService:  auditService,
		objects:       objects,
	}
}

// serveReport runs a cached report and writes it under key.
func serveReport[T any](c *gin.Context, name, key string, load func(ctx context.Context) (T, error)) {
	result, err := load(c.Request.Context())
	if err != nil {
		respondError(c, err, "Report "+name, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: result})
}

// UserStats
// GET /api/v1/reports/user-stats
func (ctrl *ReportController) UserStats(c *gin.Context) {
	serveReport(c, "user-stats", "stats", ctrl.reportService.UserStats)
}

// Sales
// GET /api/v1/reports/sales
func (ctrl *ReportController) Sales(c *gin.Context) {
	serveReport(c, "sales", "sales", ctrl.reportService.Sales)
}

// ProductSales
// GET /api/v1/reports/product-sales
func (ctrl *ReportController) ProductSales(c *gin.Context) {
	serveReport(c, "product-sales", "product_sales", ctrl.reportService.ProductSales)
}

// OrderStatus
// GET /api/v1/reports/order-status
func (ctrl *ReportController) OrderStatus(c *gin.Context) {
	serveReport(c, "order-status", "order_status", ctrl.reportService.OrderStatus)
}

// Chart returns sales bucketed by ?period=daily|monthly
// GET /api/v1/reports/chart
func (ctrl *ReportController) Chart(c *gin.Context) {
	period := c.DefaultQuery("period", service.PeriodDaily)
	points, err := ctrl.reportService.Chart(c.Request.Context(), period)
	if err != nil {
		respondError(c, err, "Report chart", map[string]interface{}{
			"period": period,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period": period,
		"chart":  points,
	})
}

// TopTeachers
// GET /api/v1/reports/top-teachers
func (ctrl *ReportController) TopTeachers(c *gin.Context) {
	serveReport(c, "top-teachers", "teachers", ctrl.reportService.TopTeachers)
}

// NewUsers
// GET /api/v1/reports/new-users-last-30-days
func (ctrl *ReportController) NewUsers(c *gin.Context) {
	serveReport(c, "new-users", "new_users", ctrl.reportService.NewUsers)
}

// AvgPaymentTime
// GET /api/v1/reports/avg-payment-time
func (ctrl *ReportController) AvgPaymentTime(c *gin.Context) {
	serveReport(c, "avg-payment-time", "avg_payment_time", ctrl.reportService.AvgPaymentTime)
}

// DailyActiveUsers
// GET /api/v1/reports/daily-active-users
func (ctrl *ReportController) DailyActiveUsers(c *gin.Context) {
	serveReport(c, "daily-active-users", "daily_active_users", ctrl.reportService.DailyActiveUsers)
}

// StartAvgOrderValue queues the computation and returns its task id
// GET /api/v1/reports/avg-order-value
func (ctrl *ReportController) StartAvgOrderValue(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	taskID, err := ctrl.reportService.StartAvgOrderValue()
	if err != nil {
		respondError(c, err, "Start average order value", nil)
		return
	}

	log.Info("Average order value task queued", map[string]interface{}{
		"task_id": taskID,
	})

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": taskID,
	})
}

// AvgOrderValueResult
// GET /api/v1/reports/avg-order-value/result/:task_id
func (ctrl *ReportController) AvgOrderValueResult(c *gin.Context) {
	taskID := c.Param("task_id")

	result, view, err := ctrl.reportService.AvgOrderValueResult(taskID)
	if errors.Is(err, service.ErrTaskNotReady) {
		c.JSON(http.StatusAccepted, view)
		return
	}
	if err != nil {
		respondError(c, err, "Average order value result", map[string]interface{}{
			"task_id": taskID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task":   view,
		"result": result,
	})
}

// StartHighSpenderExport queues the workbook build for ?threshold=
// GET /api/v1/reports/high-spender-email-excel/start
func (ctrl *ReportController) StartHighSpenderExport(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	threshold := int64(service.DefaultHighSpenderThreshold)
	if raw := c.Query("threshold"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			apperrors.RespondWithValidationError(c, map[string]string{"threshold": "must be an integer"})
			return
		}
		threshold = v
	}

	taskID, err := ctrl.reportService.StartHighSpenderExport(threshold, actor.UserID)
	if err != nil {
		respondError(c, err, "Start high spender export", map[string]interface{}{
			"threshold": threshold,
		})
		return
	}

	log.Info("High spender export queued", map[string]interface{}{
		"task_id":   taskID,
		"threshold": threshold,
	})

	c.JSON(http.StatusAccepted, gin.H{
		"task_id":   taskID,
		"threshold": threshold,
	})
}

// DownloadHighSpenderExport serves the finished workbook, either inline or
// by redirecting to a presigned bucket URL
// GET /api/v1/reports/high-spender-email-excel/download/:task_id
func (ctrl *ReportController) DownloadHighSpenderExport(c *gin.Context) {
	taskID := c.Param("task_id")

	result, view, err := ctrl.reportService.HighSpenderExportResult(taskID)
	if errors.Is(err, service.ErrTaskNotReady) {
		c.JSON(http.StatusAccepted, view)
		return
	}
	if err != nil {
		respondError(c, err, "High spender export result", map[string]interface{}{
			"task_id": taskID,
		})
		return
	}

	if result.Key != "" {
		if ctrl.objects == nil {
			respondError(c, service.ErrUploadsDisabled, "High spender export download", map[string]interface{}{
				"task_id": taskID,
			})
			return
		}
		url, err := ctrl.objects.PresignDownload(c.Request.Context(), result.Key)
		if err != nil {
			respondError(c, err, "Presign export download", map[string]interface{}{
				"key": result.Key,
			})
			return
		}
		c.Redirect(http.StatusFound, url)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	c.Data(http.StatusOK, xlsxContentType, result.Content)
}

// AuditLogs pages through staff actions, optionally by ?object_type=
// GET /api/v1/reports/logs
func (ctrl *ReportController) AuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	page, err := ctrl.auditService.List(c.Query("object_type"), limit, offset)
	if err != nil {
		respondError(c, err, "List audit logs", nil)
		return
	}

	c.JSON(http.StatusOK, page)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/queue"
	"github.com/ikkim/campus-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	ErrInvalidPeriod    = errors.New("period must be daily or monthly")
	ErrTaskNotReady     = errors.New("task has not finished yet")
	ErrTaskNotFound     = errors.New("task not found")
	ErrInvalidThreshold = errors.New("threshold must be positive")
)

const (
	PeriodDaily   = "daily"
	PeriodMonthly = "monthly"

	DefaultHighSpenderThreshold = 100000
	topTeachersLimit            = 10
	newUsersWindow              = 30 * 24 * time.Hour
	highSpenderSheet            = "High Spenders"
)

type SalesSummary struct {
	ByType []repository.IncomeByType `json:"by_type"`
	Total  model.Money               `json:"total"`
}

type ProductSales struct {
	Courses []repository.CourseSales `json:"courses"`
	Books   []repository.BookSales   `json:"books"`
}

type ChartPoint struct {
	Period string      `json:"period"`
	Total  model.Money `json:"total"`
}

type CountSince struct {
	Count int64     `json:"count"`
	Since time.Time `json:"since"`
}

type PaymentTime struct {
	AverageSeconds float64 `json:"average_seconds"`
	Payments       int     `json:"payments"`
}

type AvgOrderValue struct {
	Average  model.Money `json:"average_order_value"`
	Total    model.Money `json:"total"`
	Payments int64       `json:"payments"`
}

// ExportResult is stored as the task result of a high-spender export.
// Key is set when the workbook went to object storage, Content otherwise.
type ExportResult struct {
	Filename string `json:"filename"`
	Key      string `json:"key,omitempty"`
	Content  []byte `json:"content,omitempty"`
	Rows     int    `json:"rows"`
}

// TaskView is what the result endpoints return while a task is still running.
type TaskView struct {
	TaskID string `json:"task_id"`
	State  string `json:"state"`
	Ready  bool   `json:"ready"`
	Error  string `json:"error,omitempty"`
}

type ReportService interface {
	UserStats(ctx context.Context) (*repository.UserStats, error)
	Sales(ctx context.Context) (*SalesSummary, error)
	ProductSales(ctx context.Context) (*ProductSales, error)
	OrderStatus(ctx context.Context) ([]repository.StatusCount, error)
	Chart(ctx context.Context, period string) ([]ChartPoint, error)
	TopTeachers(ctx context.Context) ([]repository.TeacherIncome, error)
	NewUsers(ctx context.Context) (*CountSince, error)
	AvgPaymentTime(ctx context.Context) (*PaymentTime, error)
	DailyActiveUsers(ctx context.Context) (*CountSince, error)
	// WarmUp loads every cached report so the first reader after midnight pays nothing.
	WarmUp(ctx context.Context)

	StartAvgOrderValue() (string, error)
	AvgOrderValueResult(taskID string) (*AvgOrderValue, *TaskView, error)
	ComputeAvgOrderValue() (*AvgOrderValue, error)

	StartHighSpenderExport(threshold int64, requestedBy uint) (string, error)
	HighSpenderExportResult(taskID string) (*ExportResult, *TaskView, error)
	BuildHighSpenderWorkbook(threshold int64) ([]byte, int, error)
}

type reportService struct {
	reportRepo  repository.ReportRepository
	paymentRepo repository.PaymentRepository
	cache       cache.Store
	queue       queue.Enqueuer
	now         func() time.Time
}

func NewReportService(
	reportRepo repository.ReportRepository,
	paymentRepo repository.PaymentRepository,
	store cache.Store,
	enqueuer queue.Enqueuer,
) ReportService {
	return &reportService{
		reportRepo:  reportRepo,
		paymentRepo: paymentRepo,
		cache:       store,
		queue:       enqueuer,
		now:         time.Now,
	}
}

func (s *reportService) UserStats(ctx context.Context) (*repository.UserStats, error) {
	return cache.Remember(ctx, s.cache, cache.KeyReportUserStats, cache.TTLReportUserStats, s.reportRepo.UserStats)
}

func (s *reportService) Sales(ctx context.Context) (*SalesSummary, error) {
	return cache.Remember(ctx, s.cache, cache.KeyReportSales, cache.TTLReportSales, func() (*SalesSummary, error) {
		byType, err := s.reportRepo.IncomeByProductType()
		if err != nil {
			return nil, err
		}
		total := model.NewMoneyFromInt(0)
		for _, row := range byType {
			total = total.Add(row.Total)
		}
		return &SalesSummary{ByType: byType, Total: total}, nil
	})
}

func (s *reportService) ProductSales(ctx context.Context) (*ProductSales, error) {
	return cache.Remember(ctx, s.cache, cache.KeyReportProductSales, cache.TTLReportProductSales, func() (*ProductSales, error) {
		courses, err := s.reportRepo.CourseSales()
		if err != nil {
			return nil, err
		}
		books, err := s.reportRepo.BookSales()
		if err != nil {
			return nil, err
		}
		return &ProductSales{Courses: courses, Books: books}, nil
	})
}

func (s *reportService) OrderStatus(ctx context.Context) ([]repository.StatusCount, error) {
	return cache.Remember(ctx, s.cache, cache.KeyReportOrderStatus, cache.TTLReportOrderStatus, s.reportRepo.OrderStatusCounts)
}

// Chart buckets successful payments by day or month in local time.
func (s *reportService) Chart(ctx context.Context, period string) ([]ChartPoint, error) {
	var layout string
	switch period {
	case PeriodDaily, "":
		period, layout = PeriodDaily, "2006-01-02"
	case PeriodMonthly:
		layout = "2006-01"
	default:
		return nil, ErrInvalidPeriod
	}

	return cache.Remember(ctx, s.cache, cache.KeyReportChart(period), cache.TTLReportChart, func() ([]ChartPoint, error) {
		points, err := s.reportRepo.SuccessfulPaymentPoints()
		if err != nil {
			return nil, err
		}

		chart := make([]ChartPoint, 0)
		for _, p := range points {
			bucket := p.CreatedAt.Local().Format(layout)
			if n := len(chart); n > 0 && chart[n-1].Period == bucket {
				chart[n-1].Total = chart[n-1].Total.Add(p.Amount)
				continue
			}
			chart = append(chart, ChartPoint{Period: bucket, Total: p.Amount})
		}
		return chart, nil
	})
}

func (s *reportService) TopTeachers(ctx context.Context) ([]repository.TeacherIncome, error) {
	return cache.Remember(ctx, s.cache, cache.KeyReportTopTeachers, cache.TTLReportTopTeachers, func() ([]repository.TeacherIncome, error) {
		return s.reportRepo.TopTeachers(topTeachersLimit)
	})
}

func (s *reportService) NewUsers(ctx context.Context) (*CountSince, error) {
	return cache.Remember(ctx, s.cache, cache.KeyReportNewUsers, cache.TTLReportNewUsers, func() (*CountSince, error) {
		since := s.now().Add(-newUsersWindow)
		count, err := s.reportRepo.CountUsersJoinedSince(since)
		if err != nil {
			return nil, err
		}
		return &CountSince{Count: count, Since: since}, nil
	})
}

// AvgPaymentTime measures verification time from the bound order's creation,
// or from the payment request when no order is bound.
func (s *reportService) AvgPaymentTime(ctx context.Context) (*PaymentTime, error) {
	return cache.Remember(ctx, s.cache, cache.KeyReportPaymentTime, cache.TTLReportPaymentTime, func() (*PaymentTime, error) {
		payments, err := s.paymentRepo.FindSuccessful()
		if err != nil {
			return nil, err
		}

		var (
			total time.Duration
			n     int
		)
		for _, p := range payments {
			if p.VerifiedAt == nil {
				continue
			}
			start := p.CreatedAt
			if p.Order != nil {
				start = p.Order.CreatedAt
			}
			total += p.VerifiedAt.Sub(start)
			n++
		}

		result := &PaymentTime{Payments: n}
		if n > 0 {
			result.AverageSeconds = (total / time.Duration(n)).Seconds()
		}
		return result, nil
	})
}

func (s *reportService) DailyActiveUsers(ctx context.Context) (*CountSince, error) {
	return cache.Remember(ctx, s.cache, cache.KeyReportDAU, cache.TTLReportDAU, func() (*CountSince, error) {
		now := s.now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		count, err := s.reportRepo.CountUsersLoggedInSince(midnight)
		if err != nil {
			return nil, err
		}
		return &CountSince{Count: count, Since: midnight}, nil
	})
}

func (s *reportService) WarmUp(ctx context.Context) {
	loaders := map[string]func() error{
		"user_stats":    func() error { _, err := s.UserStats(ctx); return err },
		"sales":         func() error { _, err := s.Sales(ctx); return err },
		"product_sales": func() error { _, err := s.ProductSales(ctx); return err },
		"order_status":  func() error { _, err := s.OrderStatus(ctx); return err },
		"chart_daily":   func() error { _, err := s.Chart(ctx, PeriodDaily); return err },
		"chart_monthly": func() error { _, err := s.Chart(ctx, PeriodMonthly); return err },
		"top_teachers":  func() error { _, err := s.TopTeachers(ctx); return err },
		"new_users":     func() error { _, err := s.NewUsers(ctx); return err },
		"payment_time":  func() error { _, err := s.AvgPaymentTime(ctx); return err },
	}
	for name, load := range loaders {
		if err := load(); err != nil {
			logger.Warn("Report warm-up failed", map[string]interface{}{
				"report": name,
				"error":  err.Error(),
			})
		}
	}
	logger.Info("Report caches warmed", map[string]interface{}{
		"reports": len(loaders),
	})
}

func (s *reportService) StartAvgOrderValue() (string, error) {
	return s.queue.EnqueueAvgOrderValue()
}

func (s *reportService) ComputeAvgOrderValue() (*AvgOrderValue, error) {
	total, count, err := s.reportRepo.SuccessfulPaymentTotals()
	if err != nil {
		return nil, err
	}
	result := &AvgOrderValue{Total: total, Payments: count, Average: model.NewMoneyFromInt(0)}
	if count > 0 {
		result.Average = model.NewMoney(total.Div(decimal.NewFromInt(count)))
	}
	return result, nil
}

// taskResult looks a task up and, once it completed, decodes its stored result into dest.
func (s *reportService) taskResult(taskID, wantType string, dest interface{}) (*TaskView, error) {
	status, err := s.queue.TaskStatus(taskID)
	if err != nil {
		if errors.Is(err, queue.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if status.Type != wantType {
		return nil, ErrTaskNotFound
	}

	view := &TaskView{TaskID: status.ID, State: status.State, Ready: status.Ready(), Error: status.LastErr}
	if !view.Ready {
		return view, ErrTaskNotReady
	}
	if err := json.Unmarshal(status.Result, dest); err != nil {
		return view, fmt.Errorf("decode task result: %w", err)
	}
	return view, nil
}

func (s *reportService) AvgOrderValueResult(taskID string) (*AvgOrderValue, *TaskView, error) {
	var result AvgOrderValue
	view, err := s.taskResult(taskID, queue.TypeAvgOrderValue, &result)
	if err != nil {
		return nil, view, err
	}
	return &result, view, nil
}

func (s *reportService) StartHighSpenderExport(threshold int64, requestedBy uint) (string, error) {
	if threshold <= 0 {
		return "", ErrInvalidThreshold
	}
	return s.queue.EnqueueHighSpenderExport(queue.HighSpenderExportPayload{
		Threshold:   threshold,
		RequestedBy: requestedBy,
	})
}

func (s *reportService) HighSpenderExportResult(taskID string) (*ExportResult, *TaskView, error) {
	var result ExportResult
	view, err := s.taskResult(taskID, queue.TypeHighSpenderExport, &result)
	if err != nil {
		return nil, view, err
	}
	return &result, view, nil
}

// BuildHighSpenderWorkbook writes one row per user whose successful payments
// reach the threshold.
func (s *reportService) BuildHighSpenderWorkbook(threshold int64) ([]byte, int, error) {
	spenders, err := s.reportRepo.HighSpenders(model.NewMoneyFromInt(threshold))
	if err != nil {
		return nil, 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", highSpenderSheet); err != nil {
		return nil, 0, err
	}
	header := []interface{}{"Email", "Username", "Total Spent"}
	if err := f.SetSheetRow(highSpenderSheet, "A1", &header); err != nil {
		return nil, 0, err
	}
	for i, sp := range spenders {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, 0, err
		}
		row := []interface{}{sp.Email, sp.Username, sp.TotalSpent.InexactFloat64()}
		if err := f.SetSheetRow(highSpenderSheet, cell, &row); err != nil {
			return nil, 0, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), len(spenders), nil
}

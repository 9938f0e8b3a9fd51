// internal/handlers/export.go
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/tealeg/xlsx/v3"

	redis_a "github.com/ammerola/tindahan-be/internal/adapters/redis_adapter"
	"github.com/ammerola/tindahan-be/internal/core/ports"
	"github.com/ammerola/tindahan-be/internal/core/services"
	"github.com/ammerola/tindahan-be/internal/handlers/middleware"
	"github.com/ammerola/tindahan-be/internal/pkg/config"
)

// SalesExportRow is one flattened sale line for spreadsheet output
type SalesExportRow struct {
	TransactionNumber string
	Status            string
	ProductName       string
	Quantity          int
	UnitPrice         float64
	TotalPrice        float64
	SaleSubtotal      float64
	SaleDiscount      float64
	SaleTax           float64
	SaleTotal         float64
	PaymentMethod     string
	CreatedAt         time.Time
}

// ExportJobStatus is the persisted progress record of an async export
type ExportJobStatus struct {
	JobID       string     `json:"job_id"`
	Status      string     `json:"status"` // queued, processing, completed, failed
	FilePath    string     `json:"file_path,omitempty"`
	Error       string     `json:"error,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ExportHandler handles sales export operations
type ExportHandler struct {
	db          ports.Database
	cache       ports.CacheRepository
	asynqClient *asynq.Client
	config      *config.Config
	logger      *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(db ports.Database, cache ports.CacheRepository, asynqClient *asynq.Client, cfg *config.Config, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		db:          db,
		cache:       cache,
		asynqClient: asynqClient,
		config:      cfg,
		logger:      logger.With(slog.String("handler", "export")),
	}
}

// ExportSalesExcel handles GET /api/v1/export/sales
func (h *ExportHandler) ExportSalesExcel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	startDate, endDate := h.parseDateRange(r)

	rows, err := h.loadSalesRows(ctx, startDate, endDate)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load sales for export", logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to load sales data")
		return
	}

	excelData, err := BuildSalesWorkbook(rows)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate workbook", logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to generate Excel file")
		return
	}

	filename := fmt.Sprintf("sales_export_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(excelData)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(excelData); err != nil {
		h.logger.ErrorContext(ctx, "failed to write export response", logAttrError(err))
		return
	}

	h.logger.InfoContext(ctx, "sales export completed",
		slog.Int("rows", len(rows)),
		slog.String("filename", filename))
}

// EnqueueSalesExport handles POST /api/v1/export/sales/async
func (h *ExportHandler) EnqueueSalesExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	startDate, endDate := h.parseDateRange(r)
	jobID := uuid.New().String()

	userID := ""
	if id, ok := middleware.UserID(ctx); ok {
		userID = id.String()
	}

	task, err := services.NewSalesExportTask(services.SalesExportPayload{
		JobID:     jobID,
		StoreID:   middleware.StoreID(ctx),
		StartDate: startDate,
		EndDate:   endDate,
		UserID:    userID,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build export task", logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to queue export")
		return
	}

	status := ExportJobStatus{
		JobID:       jobID,
		Status:      "queued",
		RequestedAt: time.Now(),
	}
	statusKey := redis_a.BuildKey(redis_a.PrefixExport, "job", jobID)
	if err := h.cache.SetWithTTL(ctx, statusKey, status, h.config.Export.StatusKeyTTL); err != nil {
		h.logger.WarnContext(ctx, "failed to write export status key", logAttrError(err))
	}

	if _, err := h.asynqClient.EnqueueContext(ctx, task,
		asynq.Queue("default"),
		asynq.Timeout(h.config.Export.Timeout),
		asynq.MaxRetry(3)); err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue export task", logAttrError(err))
		respondError(w, http.StatusServiceUnavailable, "Failed to queue export")
		return
	}

	h.logger.InfoContext(ctx, "sales export queued", slog.String("job_id", jobID))

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": "queued",
	})
}

// ExportStatus handles GET /api/v1/export/status/{jobID}
func (h *ExportHandler) ExportStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := r.PathValue("jobID")

	if _, err := uuid.Parse(jobID); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid job ID format")
		return
	}

	var status ExportJobStatus
	statusKey := redis_a.BuildKey(redis_a.PrefixExport, "job", jobID)
	if err := h.cache.Get(ctx, statusKey, &status); err != nil {
		respondError(w, http.StatusNotFound, "Export job not found or expired")
		return
	}

	respondJSON(w, http.StatusOK, status)
}

func (h *ExportHandler) parseDateRange(r *http.Request) (*time.Time, *time.Time) {
	var startDate, endDate *time.Time
	if from := r.URL.Query().Get("start_date"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			startDate = &t
		}
	}
	if to := r.URL.Query().Get("end_date"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			endDate = &t
		}
	}
	return startDate, endDate
}

func (h *ExportHandler) loadSalesRows(ctx context.Context, startDate, endDate *time.Time) ([]SalesExportRow, error) {
	query := `
		SELECT s.transaction_number, s.status, COALESCE(p.name, si.product_id::text),
		       si.quantity, si.unit_price, si.total_price,
		       s.subtotal, s.discount, s.tax, s.total_amount,
		       s.payment_method, s.created_at
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		LEFT JOIN products p ON p.id = si.product_id
		WHERE 1=1
	`

	args := make([]interface{}, 0, 2)
	if startDate != nil {
		args = append(args, *startDate)
		query += fmt.Sprintf(" AND s.created_at >= $%d", len(args))
	}
	if endDate != nil {
		args = append(args, endDate.AddDate(0, 0, 1))
		query += fmt.Sprintf(" AND s.created_at < $%d", len(args))
	}
	query += " ORDER BY s.created_at DESC, s.transaction_number"

	rows, err := h.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales export rows: %w", err)
	}
	defer rows.Close()

	var data []SalesExportRow
	for rows.Next() {
		var row SalesExportRow
		if err := rows.Scan(&row.TransactionNumber, &row.Status, &row.ProductName,
			&row.Quantity, &row.UnitPrice, &row.TotalPrice,
			&row.SaleSubtotal, &row.SaleDiscount, &row.SaleTax, &row.SaleTotal,
			&row.PaymentMethod, &row.CreatedAt); err != nil {
			h.logger.WarnContext(ctx, "failed to scan export row", logAttrError(err))
			continue
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating export rows: %w", err)
	}

	return data, nil
}

// BuildSalesWorkbook renders sale lines into an xlsx workbook. Shared with the
// background export processor.
func BuildSalesWorkbook(data []SalesExportRow) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Sales")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headers := []string{
		"Transaction #", "Status", "Product", "Qty", "Unit Price", "Line Total",
		"Sale Subtotal", "Discount", "VAT", "Sale Total", "Payment", "Date",
	}
	headerRow := sheet.AddRow()
	for _, header := range headers {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}

	for _, row := range data {
		dataRow := sheet.AddRow()
		values := []string{
			row.TransactionNumber,
			row.Status,
			row.ProductName,
			strconv.Itoa(row.Quantity),
			fmt.Sprintf("%.2f", row.UnitPrice),
			fmt.Sprintf("%.2f", row.TotalPrice),
			fmt.Sprintf("%.2f", row.SaleSubtotal),
			fmt.Sprintf("%.2f", row.SaleDiscount),
			fmt.Sprintf("%.2f", row.SaleTax),
			fmt.Sprintf("%.2f", row.SaleTotal),
			row.PaymentMethod,
			row.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for _, value := range values {
			dataRow.AddCell().Value = value
		}
	}

	for i := 0; i < len(headers); i++ {
		sheet.SetColWidth(i, i, 15)
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write workbook to buffer: %w", err)
	}

	return buffer.Bytes(), nil
}

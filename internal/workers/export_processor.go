// internal/workers/export_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/tindahan-be/internal/adapters/db"
	redis_a "github.com/ammerola/tindahan-be/internal/adapters/redis_adapter"
	"github.com/ammerola/tindahan-be/internal/core/ports"
	"github.com/ammerola/tindahan-be/internal/core/services"
	"github.com/ammerola/tindahan-be/internal/handlers"
	"github.com/ammerola/tindahan-be/internal/pkg/config"
)

// ExportProcessor renders queued sales exports to spreadsheet files
type ExportProcessor struct {
	db     *db.Database
	cache  ports.CacheRepository
	config *config.Config
	logger *slog.Logger
}

// NewExportProcessor creates a new export processor
func NewExportProcessor(database *db.Database, cache ports.CacheRepository, cfg *config.Config, logger *slog.Logger) *ExportProcessor {
	return &ExportProcessor{
		db:     database,
		cache:  cache,
		config: cfg,
		logger: logger.With(slog.String("processor", "export")),
	}
}

// ProcessSalesExport handles a queued sales export job. Progress is recorded
// under the job's status key so the API can answer polling clients.
func (p *ExportProcessor) ProcessSalesExport(ctx context.Context, t *asynq.Task) error {
	var payload services.SalesExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	p.logger.InfoContext(ctx, "processing sales export",
		slog.String("job_id", payload.JobID))

	p.setStatus(ctx, payload.JobID, handlers.ExportJobStatus{
		JobID:  payload.JobID,
		Status: "processing",
	})

	data, err := p.loadSalesRows(ctx, payload)
	if err != nil {
		p.failJob(ctx, payload.JobID, err)
		return fmt.Errorf("failed to load sales rows: %w", err)
	}

	workbook, err := handlers.BuildSalesWorkbook(data)
	if err != nil {
		p.failJob(ctx, payload.JobID, err)
		return fmt.Errorf("failed to build workbook: %w", err)
	}

	if err := os.MkdirAll(p.config.Export.Dir, 0o755); err != nil {
		p.failJob(ctx, payload.JobID, err)
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	filePath := filepath.Join(p.config.Export.Dir, fmt.Sprintf("sales_%s.xlsx", payload.JobID))
	if err := os.WriteFile(filePath, workbook, 0o644); err != nil {
		p.failJob(ctx, payload.JobID, err)
		return fmt.Errorf("failed to write export file: %w", err)
	}

	now := time.Now()
	p.setStatus(ctx, payload.JobID, handlers.ExportJobStatus{
		JobID:       payload.JobID,
		Status:      "completed",
		FilePath:    filePath,
		CompletedAt: &now,
	})

	p.logger.InfoContext(ctx, "sales export completed",
		slog.String("job_id", payload.JobID),
		slog.String("file", filePath),
		slog.Int("rows", len(data)))

	return nil
}

func (p *ExportProcessor) loadSalesRows(ctx context.Context, payload services.SalesExportPayload) ([]handlers.SalesExportRow, error) {
	query := `
		SELECT s.transaction_number, s.status, COALESCE(pr.name, si.product_id::text),
		       si.quantity, si.unit_price, si.total_price,
		       s.subtotal, s.discount, s.tax, s.total_amount,
		       s.payment_method, s.created_at
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		LEFT JOIN products pr ON pr.id = si.product_id
		WHERE 1=1
	`

	args := make([]interface{}, 0, 3)
	if payload.StoreID != nil {
		args = append(args, *payload.StoreID)
		query += fmt.Sprintf(" AND s.store_id = $%d", len(args))
	}
	if payload.StartDate != nil {
		args = append(args, *payload.StartDate)
		query += fmt.Sprintf(" AND s.created_at >= $%d", len(args))
	}
	if payload.EndDate != nil {
		args = append(args, payload.EndDate.AddDate(0, 0, 1))
		query += fmt.Sprintf(" AND s.created_at < $%d", len(args))
	}
	query += " ORDER BY s.created_at DESC, s.transaction_number"

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var data []handlers.SalesExportRow
	for rows.Next() {
		var row handlers.SalesExportRow
		if err := rows.Scan(&row.TransactionNumber, &row.Status, &row.ProductName,
			&row.Quantity, &row.UnitPrice, &row.TotalPrice,
			&row.SaleSubtotal, &row.SaleDiscount, &row.SaleTax, &row.SaleTotal,
			&row.PaymentMethod, &row.CreatedAt); err != nil {
			return nil, err
		}
		data = append(data, row)
	}
	return data, rows.Err()
}

func (p *ExportProcessor) setStatus(ctx context.Context, jobID string, status handlers.ExportJobStatus) {
	if status.RequestedAt.IsZero() {
		status.RequestedAt = time.Now()
	}
	key := redis_a.BuildKey(redis_a.PrefixExport, "job", jobID)
	if err := p.cache.SetWithTTL(ctx, key, status, p.config.Export.StatusKeyTTL); err != nil {
		p.logger.WarnContext(ctx, "failed to update export status",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
	}
}

func (p *ExportProcessor) failJob(ctx context.Context, jobID string, cause error) {
	p.setStatus(ctx, jobID, handlers.ExportJobStatus{
		JobID:  jobID,
		Status: "failed",
		Error:  cause.Error(),
	})
}

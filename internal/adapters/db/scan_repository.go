// internal/adapters/db/scan_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/ports"
)

// scanRepository implements ports.ScanRepository
type scanRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewScanRepository creates a new scan repository
func NewScanRepository(db *Database, logger *slog.Logger) ports.ScanRepository {
	return &scanRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "scans")),
	}
}

// Save records a scan audit row
func (r *scanRepository) Save(ctx context.Context, scan *domain.ProductScan) error {
	if scan.ID == uuid.Nil {
		scan.ID = uuid.New()
	}
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO product_scans (
			id, scan_type, input_data, product_id, scanned_by, store_id, device_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		scan.ID, scan.ScanType, scan.InputData, scan.ProductID,
		scan.ScannedBy, scan.StoreID, nullString(scan.DeviceID), scan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save scan: %w", err)
	}

	return nil
}

// List retrieves scan history with filtering and pagination
func (r *scanRepository) List(ctx context.Context, params ports.ScanListParams) ([]domain.ProductScan, int64, error) {
	qb := squirrel.Select(
		"id", "scan_type", "input_data", "product_id",
		"scanned_by", "store_id", "device_id", "created_at",
	).From("product_scans").
		PlaceholderFormat(squirrel.Dollar)

	if params.ProductID != nil {
		qb = qb.Where(squirrel.Eq{"product_id": *params.ProductID})
	}
	if params.StoreID != nil {
		qb = qb.Where(squirrel.Eq{"store_id": *params.StoreID})
	}
	if params.StartDate != nil {
		qb = qb.Where("created_at >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		qb = qb.Where("created_at <= ?", *params.EndDate)
	}

	countQb := qb.Column("COUNT(*) OVER()").Limit(1)
	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	var discard domain.ProductScan
	var discardProduct, discardStore uuid.NullUUID
	var discardDevice sql.NullString
	err = r.db.QueryRow(ctx, countSQL, countArgs...).Scan(
		&discard.ID, &discard.ScanType, &discard.InputData, &discardProduct,
		&discard.ScannedBy, &discardStore, &discardDevice, &discard.CreatedAt,
		&totalCount,
	)
	if err != nil && err != pgx.ErrNoRows {
		return nil, 0, fmt.Errorf("failed to count scans: %w", err)
	}

	qb = qb.OrderBy("created_at DESC")
	if params.PageSize > 0 {
		qb = qb.Limit(uint64(params.PageSize))
		if params.Page > 1 {
			qb = qb.Offset(uint64((params.Page - 1) * params.PageSize))
		}
	}

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var scans []domain.ProductScan
	for rows.Next() {
		var scan domain.ProductScan
		var productID, storeID uuid.NullUUID
		var deviceID sql.NullString

		err := rows.Scan(
			&scan.ID, &scan.ScanType, &scan.InputData, &productID,
			&scan.ScannedBy, &storeID, &deviceID, &scan.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan row: %w", err)
		}

		if productID.Valid {
			scan.ProductID = &productID.UUID
		}
		if storeID.Valid {
			scan.StoreID = &storeID.UUID
		}
		scan.DeviceID = deviceID.String

		scans = append(scans, scan)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return scans, totalCount, nil
}

// DeleteOlderThan purges scan rows older than cutoff
func (r *scanRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM product_scans WHERE created_at < $1`

	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge scans: %w", err)
	}

	removed := tag.RowsAffected()
	if removed > 0 {
		r.logger.InfoContext(ctx, "scan history purged",
			slog.Int64("rows_removed", removed),
			slog.Time("cutoff", cutoff))
	}

	return removed, nil
}

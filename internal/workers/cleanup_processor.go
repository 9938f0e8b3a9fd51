// internal/workers/cleanup_processor.go
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

	"github.com/ammerola/tindahan-be/internal/core/ports"
	"github.com/ammerola/tindahan-be/internal/core/services"
	"github.com/ammerola/tindahan-be/internal/pkg/config"
)

// CleanupProcessor prunes scan audit rows past retention and stale export
// files.
type CleanupProcessor struct {
	scans  ports.ScanRepository
	config *config.Config
	logger *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(scans ports.ScanRepository, cfg *config.Config, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		scans:  scans,
		config: cfg,
		logger: logger.With(slog.String("processor", "cleanup")),
	}
}

// ProcessScanCleanup handles the periodic scan retention task.
func (p *CleanupProcessor) ProcessScanCleanup(ctx context.Context, t *asynq.Task) error {
	var payload services.ScanCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	retentionDays := payload.RetentionDays
	if retentionDays < 1 {
		retentionDays = p.config.POS.ScanRetentionDays
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	deleted, err := p.scans.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune scan records: %w", err)
	}

	p.logger.InfoContext(ctx, "scan records pruned",
		slog.Int64("rows_deleted", deleted),
		slog.Int("retention_days", retentionDays))

	p.cleanupExportFiles(ctx)

	return nil
}

// cleanupExportFiles removes export files older than the status key TTL.
// Best-effort: files whose status key has expired cannot be fetched anyway.
func (p *CleanupProcessor) cleanupExportFiles(ctx context.Context) {
	maxAge := p.config.Export.StatusKeyTTL

	var deletedCount int
	err := filepath.Walk(p.config.Export.Dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}

		if !info.IsDir() && time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(path); err != nil {
				p.logger.WarnContext(ctx, "failed to delete export file",
					slog.String("file", path),
					slog.String("error", err.Error()))
			} else {
				deletedCount++
			}
		}

		return nil
	})
	if err != nil {
		p.logger.WarnContext(ctx, "failed to walk export directory",
			slog.String("dir", p.config.Export.Dir),
			slog.String("error", err.Error()))
		return
	}

	if deletedCount > 0 {
		p.logger.InfoContext(ctx, "stale export files removed",
			slog.Int("files_deleted", deletedCount))
	}
}

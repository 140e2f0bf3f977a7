package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultAuditRetention = 90 * 24 * time.Hour

// TrimAuditLogs removes audit log rows older than the retention window.
func TrimAuditLogs(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger, retention time.Duration) error {
	if pool == nil {
		return nil
	}
	if retention <= 0 {
		retention = defaultAuditRetention
	}
	cutoff := time.Now().UTC().Add(-retention)
	tag, err := pool.Exec(ctx, `DELETE FROM audit_logs WHERE at < $1`, cutoff)
	if err != nil {
		if logger != nil {
			logger.Error("trim audit logs", slog.Any("error", err))
		}
		return err
	}
	if logger != nil {
		logger.Info("trimmed audit logs",
			slog.String("job", "audit_retention"),
			slog.Int64("deleted", tag.RowsAffected()))
	}
	return nil
}

// NewAuditRetentionHandler adapts TrimAuditLogs to an Asynq handler.
func NewAuditRetentionHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditRetentionPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return TrimAuditLogs(ctx, pool, logger, payload.Retention)
	}
}

package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PruneSessions deletes session records that expired before the cutoff.
func PruneSessions(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger, before time.Time) error {
	if pool == nil {
		return nil
	}
	if before.IsZero() {
		before = time.Now().UTC()
	}
	tag, err := pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	if err != nil {
		if logger != nil {
			logger.Error("prune sessions", slog.Any("error", err))
		}
		return err
	}
	if logger != nil {
		logger.Info("pruned sessions",
			slog.String("job", "session_prune"),
			slog.Int64("deleted", tag.RowsAffected()))
	}
	return nil
}

// NewSessionPruneHandler adapts PruneSessions to an Asynq handler.
func NewSessionPruneHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SessionPrunePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return PruneSessions(ctx, pool, logger, payload.Before)
	}
}

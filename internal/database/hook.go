package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Hook implements bun.QueryHook interface for logging queries with zap.
type Hook struct {
	logger    *zap.Logger
	slowQuery time.Duration
}

// NewHook creates a new Hook. Queries slower than slowQuery are logged at warn level;
// a zero threshold disables the slow query log.
func NewHook(logger *zap.Logger, slowQuery time.Duration) *Hook {
	return &Hook{
		logger:    logger,
		slowQuery: slowQuery,
	}
}

// BeforeQuery is a no-op.
func (h *Hook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

// AfterQuery logs the query and its execution time.
func (h *Hook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)

	switch {
	case event.Err != nil && !isExpectedError(event.Err):
		h.logger.Error("Query failed",
			zap.String("query", event.Query),
			zap.Duration("duration", duration),
			zap.Error(event.Err))
	case h.slowQuery > 0 && duration >= h.slowQuery:
		h.logger.Warn("Slow query",
			zap.String("query", event.Query),
			zap.Duration("duration", duration))
	default:
		h.logger.Debug("Query executed",
			zap.String("query", event.Query),
			zap.Duration("duration", duration))
	}
}

// isExpectedError reports whether the error is part of normal control flow.
func isExpectedError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

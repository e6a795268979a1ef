package utils

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SleepResult represents the outcome of a context-aware sleep.
type SleepResult int

const (
	// SleepCompleted indicates the sleep duration completed normally.
	SleepCompleted SleepResult = iota
	// SleepCancelled indicates the context was cancelled during sleep.
	SleepCancelled
)

// ContextSleepWithLog sleeps for duration unless ctx is cancelled first,
// in which case cancelMessage is logged at info level.
func ContextSleepWithLog(ctx context.Context, duration time.Duration, logger *zap.Logger, cancelMessage string) SleepResult {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return SleepCompleted
	case <-ctx.Done():
		logCancel(logger, cancelMessage)
		return SleepCancelled
	}
}

// ContextGuardWithLog reports whether ctx is cancelled, logging cancelMessage if so.
// Loops call it before each iteration.
func ContextGuardWithLog(ctx context.Context, logger *zap.Logger, cancelMessage string) bool {
	select {
	case <-ctx.Done():
		logCancel(logger, cancelMessage)
		return true
	default:
		return false
	}
}

func logCancel(logger *zap.Logger, message string) {
	if logger != nil && message != "" {
		logger.Info(message)
	}
}

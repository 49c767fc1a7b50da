package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// StoreLevel controls which document store operations are logged
type StoreLevel int

const (
	StoreSilent StoreLevel = iota + 1
	StoreError
	StoreWarn
	StoreInfo
)

// StoreLogger logs document store operations: failures, slow calls and,
// at info level, every call.
type StoreLogger struct {
	logger         *zap.Logger
	level          StoreLevel
	slowThreshold  time.Duration
	ignoreCanceled bool
}

// StoreLoggerOption is a function that configures a StoreLogger
type StoreLoggerOption func(*StoreLogger)

// WithSlowThreshold sets the slow operation threshold. Zero disables slow
// operation warnings.
func WithSlowThreshold(threshold time.Duration) StoreLoggerOption {
	return func(l *StoreLogger) {
		l.slowThreshold = threshold
	}
}

// WithIgnoreCanceled configures whether calls aborted by a canceled
// context are logged as errors
func WithIgnoreCanceled(ignore bool) StoreLoggerOption {
	return func(l *StoreLogger) {
		l.ignoreCanceled = ignore
	}
}

// NewStoreLogger creates a store logger backed by zap
func NewStoreLogger(zapLogger *zap.Logger, level StoreLevel, opts ...StoreLoggerOption) *StoreLogger {
	sl := &StoreLogger{
		logger:         zapLogger.Named("store"),
		level:          level,
		slowThreshold:  200 * time.Millisecond,
		ignoreCanceled: true,
	}

	for _, opt := range opts {
		opt(sl)
	}

	return sl
}

// Level returns the configured level
func (l *StoreLogger) Level() StoreLevel {
	return l.level
}

// Trace logs one finished store call. items is the number of items read or
// written.
func (l *StoreLogger) Trace(ctx context.Context, op, table string, begin time.Time, items int, err error) {
	if l == nil || l.level <= StoreSilent {
		return
	}

	elapsed := time.Since(begin)
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("table", table),
		zap.Duration("elapsed", elapsed),
		zap.Int("items", items),
	}
	if requestID := RequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}

	switch {
	case err != nil && l.level >= StoreError:
		if l.ignoreCanceled && errors.Is(err, context.Canceled) {
			return
		}
		fields = append(fields, zap.Error(err))
		l.logger.Error("Store operation failed", fields...)

	case err == nil && l.slowThreshold != 0 && elapsed > l.slowThreshold && l.level >= StoreWarn:
		l.logger.Warn(fmt.Sprintf("SLOW STORE OPERATION >= %v", l.slowThreshold), fields...)

	case err == nil && l.level >= StoreInfo:
		l.logger.Debug("Store operation", fields...)
	}
}

// MapStoreLogLevel maps a configured level name to a StoreLevel
func MapStoreLogLevel(level string) StoreLevel {
	switch level {
	case "silent":
		return StoreSilent
	case "error":
		return StoreError
	case "warn":
		return StoreWarn
	case "info", "debug":
		return StoreInfo
	default:
		return StoreWarn
	}
}

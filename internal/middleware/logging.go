// Package middleware wraps shell operations with cross-cutting behavior.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/billbook/internal/metrics"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// OperationIDKey is the context key for the id of the running operation.
const OperationIDKey contextKey = "op_id"

// GetOperationID extracts the operation id from the context.
// Returns empty string if not found.
func GetOperationID(ctx context.Context) string {
	id, _ := ctx.Value(OperationIDKey).(string)
	return id
}

// Operation is one menu action.
type Operation func(ctx context.Context) error

// Interceptor decorates an operation.
type Interceptor func(name string, next Operation) Operation

// Chain applies interceptors so the first one is outermost.
func Chain(name string, op Operation, interceptors ...Interceptor) Operation {
	for i := len(interceptors) - 1; i >= 0; i-- {
		op = interceptors[i](name, op)
	}
	return op
}

// Logging returns an interceptor that tags each operation with a fresh id
// and logs its name, duration and any error.
func Logging() Interceptor {
	return func(name string, next Operation) Operation {
		return func(ctx context.Context) error {
			start := time.Now()
			opID := uuid.NewString()
			ctx = context.WithValue(ctx, OperationIDKey, opID)

			slog.Debug("Operation started", "operation", name, "op_id", opID)
			err := next(ctx)

			duration := time.Since(start).Milliseconds()
			if err != nil {
				slog.Error("Operation failed",
					"operation", name,
					"op_id", opID,
					"error", err,
					"duration_ms", duration,
				)
			} else {
				slog.Info("Operation ok",
					"operation", name,
					"op_id", opID,
					"duration_ms", duration,
				)
			}
			return err
		}
	}
}

// Metrics returns an interceptor that records operation durations.
func Metrics(m *metrics.Metrics) Interceptor {
	return func(name string, next Operation) Operation {
		return func(ctx context.Context) error {
			start := time.Now()
			err := next(ctx)
			m.ObserveOperation(name, time.Since(start), err)
			return err
		}
	}
}

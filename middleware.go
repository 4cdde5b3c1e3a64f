package presage

import (
	"context"
	"runtime/debug"
	"time"
)

// ValidationMiddleware validates commands implementing Validator before they
// reach the handler. If validation fails, the handler is not called.
// Errors that are not already a *ValidationError are wrapped in one.
func ValidationMiddleware[C any]() Middleware[C] {
	return func(next HandlerFunc[C]) HandlerFunc[C] {
		return func(ctx context.Context, c C, cmd BoxedCommand) (Events, error) {
			if v, ok := cmd.Payload().(Validator); ok {
				if err := v.Validate(); err != nil {
					if _, isValidation := err.(*ValidationError); isValidation {
						return nil, err
					}
					return nil, NewValidationErrorWithCause(cmd.Name(), "", err.Error(), err)
				}
			}
			return next(ctx, c, cmd)
		}
	}
}

// RecoveryMiddleware recovers from panics in handlers and returns them as *PanicError.
func RecoveryMiddleware[C any]() Middleware[C] {
	return func(next HandlerFunc[C]) HandlerFunc[C] {
		return func(ctx context.Context, c C, cmd BoxedCommand) (events Events, err error) {
			defer func() {
				if r := recover(); r != nil {
					events = nil
					err = NewPanicError(cmd.Name(), r, string(debug.Stack()))
				}
			}()
			return next(ctx, c, cmd)
		}
	}
}

// LoggingMiddleware logs command execution.
type LoggingMiddleware[C any] struct {
	logger Logger
}

// NewLoggingMiddleware creates a new LoggingMiddleware.
func NewLoggingMiddleware[C any](logger Logger) *LoggingMiddleware[C] {
	if logger == nil {
		logger = &noopLogger{}
	}
	return &LoggingMiddleware[C]{logger: logger}
}

// Middleware returns the middleware function.
func (m *LoggingMiddleware[C]) Middleware() Middleware[C] {
	return func(next HandlerFunc[C]) HandlerFunc[C] {
		return func(ctx context.Context, c C, cmd BoxedCommand) (Events, error) {
			start := time.Now()

			m.logger.Info("Handling command",
				"command", cmd.Name(),
			)

			events, err := next(ctx, c, cmd)

			duration := time.Since(start)

			if err != nil {
				m.logger.Error("Command failed",
					"command", cmd.Name(),
					"duration", duration,
					"error", err,
				)
			} else {
				m.logger.Info("Command completed",
					"command", cmd.Name(),
					"duration", duration,
					"events", len(events),
				)
			}

			return events, err
		}
	}
}

// TimeoutMiddleware bounds the time a single command handler may take.
// The handler must honor ctx for the deadline to have any effect.
func TimeoutMiddleware[C any](timeout time.Duration) Middleware[C] {
	return func(next HandlerFunc[C]) HandlerFunc[C] {
		return func(ctx context.Context, c C, cmd BoxedCommand) (Events, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, c, cmd)
		}
	}
}

// ConditionalMiddleware applies middleware only if the condition is true.
func ConditionalMiddleware[C any](condition func(BoxedCommand) bool, middleware Middleware[C]) Middleware[C] {
	return func(next HandlerFunc[C]) HandlerFunc[C] {
		wrapped := middleware(next)
		return func(ctx context.Context, c C, cmd BoxedCommand) (Events, error) {
			if condition(cmd) {
				return wrapped(ctx, c, cmd)
			}
			return next(ctx, c, cmd)
		}
	}
}

// CommandNameMiddleware applies middleware only for the given command names.
func CommandNameMiddleware[C any](names []string, middleware Middleware[C]) Middleware[C] {
	nameSet := make(map[string]bool, len(names))
	for _, name := range names {
		nameSet[name] = true
	}

	return ConditionalMiddleware(func(cmd BoxedCommand) bool {
		return nameSet[cmd.Name()]
	}, middleware)
}

package mediator

import (
	"context"
	"time"

	"github.com/andrescamacho/reliefops-go/internal/application/logging"
)

// LoggingMiddleware logs every failed request and, at debug level, every request
func LoggingMiddleware() Middleware {
	return func(ctx context.Context, request Request, next HandlerFunc) (Response, error) {
		logger := logging.LoggerFromContext(ctx)
		name := RequestName(request)
		start := time.Now()

		response, err := next(ctx, request)

		metadata := map[string]interface{}{
			"request":     name,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if err != nil {
			metadata["error"] = err.Error()
			logger.Log("WARNING", name+" failed", metadata)
		} else {
			logger.Log("DEBUG", name+" handled", metadata)
		}
		return response, err
	}
}

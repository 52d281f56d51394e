package httpapi

import (
	"net/http"

	"github.com/riskibarqy/livescore-crawler/internal/platform/id"
	"github.com/riskibarqy/livescore-crawler/internal/platform/logging"
)

func NewRouter(
	handler *Handler,
	logger *logging.Logger,
	requestIDs id.Generator,
	corsAllowedOrigins []string,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if requestIDs == nil {
		requestIDs = id.NewUUIDGenerator()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerTeamGamesRoutes(mux, handler)

	return RequestTracing(RequestID(requestIDs, RequestLogging(logger, CORS(corsAllowedOrigins, recoverPanic(logger, mux)))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

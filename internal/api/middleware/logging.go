package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/rewardroster/internal/api/request"
	"github.com/mcoot/rewardroster/internal/middleware"
)

// Logging creates request logging middleware for the API. The writing
// client's origin tag is attached when present.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger, func(r *http.Request) []slog.Attr {
		if origin := r.Header.Get(request.OriginHeader); origin != "" {
			return []slog.Attr{slog.String("origin", origin)}
		}
		return nil
	})
}

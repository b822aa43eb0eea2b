package log

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ScrapeLogger is a chi middleware recording each scrape of the metrics endpoint.
// Successful scrapes are logged at debug level so they stay quiet during a screening run.
func ScrapeLogger(name string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger := zap.S().Named(name).With(
				"request_id", middleware.GetReqID(r.Context()),
				"path", r.URL.Path,
				"scraper", r.RemoteAddr,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"took", time.Since(start),
			)
			logScrape(logger, ww.Status())
		})
	}
}

func logScrape(logger *zap.SugaredLogger, status int) {
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("metrics scrape failed")
	case status >= http.StatusBadRequest:
		logger.Warn("metrics scrape rejected")
	default:
		logger.Debug("metrics scraped")
	}
}

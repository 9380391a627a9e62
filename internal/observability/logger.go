package observability

import (
	"log/slog"

	"github.com/couchcryptid/campus-feed-etl-service/internal/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const serviceName = "campus-feed-etl"

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and tags
// every record with the service name.
func NewLogger(cfg *config.Config) *slog.Logger {
	return sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", serviceName)
}

package app

import (
	"github.com/charmbracelet/log"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/bnema/appupdate/internal/adapters/out/ratelimit"
	"github.com/bnema/appupdate/internal/config"
	"github.com/bnema/appupdate/internal/logging"
)

// newDownloadLimiter opens the persistent limiter and falls back to Echo's
// in-memory store when it cannot be opened. The returned close func may be nil.
func newDownloadLimiter(cfg *config.Config, logger *log.Logger) (echomw.RateLimiterStore, func() error) {
	// Validate already checked the expiry parses.
	expiresIn, _ := cfg.RateLimitExpiry()

	store, err := ratelimit.NewStore(cfg.RateLimit.Dir, cfg.RateLimit.Rate, cfg.RateLimit.Burst, expiresIn, logger)
	if err == nil {
		return store, store.Close
	}

	logger.Warn("persistent rate limiter unavailable, using in-memory store",
		logging.FieldLayer, "app",
		"dir", cfg.RateLimit.Dir,
		"error", err,
	)
	return echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RateLimit.Rate),
		Burst:     cfg.RateLimit.Burst,
		ExpiresIn: expiresIn,
	}), nil
}

package module

import (
	"time"

	"inferd/internal/platform/config"
	"inferd/internal/services/callback/service"
)

// Options holds caller-supplied overrides for the callback module
type Options struct {
	FallbackURL string
}

// FromConfig extracts dispatcher settings from the given config.Conf
func FromConfig(cfg config.Conf) service.Config {
	return service.Config{
		URL:        cfg.MayString("CALLBACK_URL", ""),
		Secret:     cfg.MayString("SHARED_SECRET", ""),
		Timeout:    cfg.MayDuration("POST_TIMEOUT", 60*time.Second),
		MaxRetries: cfg.MayInt("CALLBACK_MAX_RETRY", 0),
	}
}

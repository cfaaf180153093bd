package module

import (
	"inferd/internal/platform/config"
	"inferd/internal/services/tracker/service"
)

// Options holds configuration settings for the tracker module
type Options struct {
	Cap    int
	Secret string
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	return Options{
		Cap:    cfg.MayInt("TRACKER_CAP", service.DefaultCap),
		Secret: cfg.MayString("SHARED_SECRET", ""),
	}
}

package module

import "inferd/internal/platform/config"

// Options holds configuration settings for the infer module
type Options struct {
	MaxInflight int
	TopK        int
	Precision   int
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	return Options{
		MaxInflight: cfg.MayInt("MAX_INFLIGHT", 2),
		TopK:        cfg.MayInt("TOP_K", 5),
		Precision:   cfg.MayInt("PRECISION", 5),
	}
}

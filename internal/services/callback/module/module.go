// Package module wires the callback dispatcher as a portable capability
package module

import (
	"inferd/internal/modkit"
	"inferd/internal/modkit/httpkit"
	"inferd/internal/services/callback/service"
)

// Ports exposed by the callback module
type Ports struct {
	Dispatcher *service.Dispatcher
}

// Module implements modkit.Module. It mounts no routes; other modules
// consume the dispatcher port
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new callback module. The fallback URL applies only when
// no delivery endpoint is configured in the environment
func New(deps modkit.Deps, overrides Options) *Module {
	cfg := FromConfig(deps.Cfg)
	if cfg.URL == "" {
		cfg.URL = overrides.FallbackURL
	}

	m := &Module{deps: deps}
	m.ports = Ports{Dispatcher: service.New(cfg)}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "callback" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(_ httpkit.Router) {}

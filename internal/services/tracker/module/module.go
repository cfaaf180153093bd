// Package module implements the tracker service module
package module

import (
	"inferd/internal/modkit"
	"inferd/internal/modkit/httpkit"
	trackerhttp "inferd/internal/services/tracker/http"
	"inferd/internal/services/tracker/service"
)

// Ports exposed by the tracker module
type Ports struct {
	Tracker *service.Tracker
}

// Module implements modkit.Module
type Module struct {
	deps   modkit.Deps
	ports  Ports
	secret string
}

// New constructs a new tracker module
func New(deps modkit.Deps) *Module {
	cfg := FromConfig(deps.Cfg)

	m := &Module{deps: deps, secret: cfg.Secret}
	m.ports = Ports{Tracker: service.New(cfg.Cap)}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "tracker" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	trackerhttp.Register(r, trackerhttp.Deps{
		Tracker: m.ports.Tracker,
		Secret:  m.secret,
	})
}

// Package module implements the infer service module
package module

import (
	"net/http"

	"inferd/internal/modkit"
	"inferd/internal/modkit/httpkit"
	"inferd/internal/services/infer/domain"
	inferhttp "inferd/internal/services/infer/http"
	"inferd/internal/services/infer/service"
)

// Ports exposed by the infer module
type Ports struct {
	Infer domain.InferPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
	sync  bool
	mws   []func(http.Handler) http.Handler
}

// New constructs a new infer module. The resolver, predictor and dispatcher
// capabilities come in through WithPorts(infer/domain.Ports)
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("infer"),
	}, opts...)...)

	ports, ok := b.Ports.(domain.Ports)
	if !ok {
		panic("infer module: expected WithPorts(infer/domain.Ports)")
	}
	if ports.Resolver == nil || ports.Predictor == nil || ports.Dispatcher == nil {
		panic("infer module: Ports missing Resolver, Predictor or Dispatcher")
	}

	cfg := FromConfig(deps.Cfg)

	executor := service.NewExecutor(ports.Predictor, int64(cfg.MaxInflight))
	svc := service.NewService(
		ports.Resolver,
		executor,
		ports.Dispatcher,
		service.Options{TopK: cfg.TopK, Precision: cfg.Precision},
	)

	m := &Module{deps: deps, mws: b.Mw}
	m.ports = Ports{Infer: svc}
	return m
}

// WithSync mounts the inline /infer_sync endpoint alongside /infer
func (m *Module) WithSync() *Module {
	m.sync = true
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "infer" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	inferhttp.RegisterHealth(r)

	r.Group(func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		inferhttp.Register(rr, inferhttp.Deps{
			Infer: m.ports.Infer,
			Sync:  m.sync,
		})
	})
}

// Package app composes the HTTP surface for the inference service
package app

import (
	"context"
	"image"
	"net/http"
	"time"

	"inferd/internal/adapters/model/onnx"
	"inferd/internal/adapters/source"
	"inferd/internal/core/normalize"
	"inferd/internal/platform/config"
	phttp "inferd/internal/platform/net/http"
	"inferd/internal/platform/net/middleware"

	"inferd/internal/modkit"
	"inferd/internal/modkit/module"

	callbackmod "inferd/internal/services/callback/module"
	inferdomain "inferd/internal/services/infer/domain"
	infermod "inferd/internal/services/infer/module"
	trackermod "inferd/internal/services/tracker/module"
)

// Options are the service composition options
type Options struct {
	Config   config.Conf
	Model    *onnx.Model
	Resolver *source.Resolver

	// Sync mounts /infer_sync for inline evaluation
	Sync bool
	// Tracking mounts /callback and /last/{request_id} for delivery inspection
	Tracking bool
	// CallbackFallback is the delivery URL used when none is configured
	CallbackFallback string
}

// Mount wires the modules onto the given router with a common middleware stack
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{Cfg: opt.Config}

	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(middleware.RecoverJSON)
	r.Use(middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 2 * time.Second}))
	r.Use(middleware.CORS(middleware.CORSOptions{AllowedOrigins: []string{"*"}}))

	dispatcher := callbackmod.New(deps, callbackmod.Options{FallbackURL: opt.CallbackFallback})

	infer := infermod.New(
		deps,
		modkit.WithPorts(inferdomain.Ports{
			Resolver:   opt.Resolver,
			Predictor:  predictor{m: opt.Model},
			Dispatcher: module.MustPortsOf[callbackmod.Ports](dispatcher).Dispatcher,
		}),
		modkit.WithMiddlewares(bearerAuth(opt.Config)),
	)
	if opt.Sync {
		infer = infer.WithSync()
	}

	mods := []module.Module{dispatcher, infer}
	if opt.Tracking {
		mods = append(mods, trackermod.New(deps))
	}

	for _, m := range mods {
		module.Register(m.Name(), m.Ports())
		m.MountRoutes(r)
	}
}

// bearerAuth guards the inference routes with the configured inbound token
func bearerAuth(cfg config.Conf) func(http.Handler) http.Handler {
	token := cfg.MayString("INBOUND_TOKEN", "")
	return middleware.BearerToken(token, func(w http.ResponseWriter, status int, body any) {
		phttp.JSON(w, status, body)
	})
}

// predictor adapts the model capability to the infer domain port
type predictor struct {
	m *onnx.Model
}

func (p predictor) Predict(ctx context.Context, img image.Image, params inferdomain.Params) (normalize.Raw, error) {
	return p.m.Predict(ctx, img, onnx.Params{Conf: params.Conf, IoU: params.IoU, ImgSz: params.ImgSz})
}

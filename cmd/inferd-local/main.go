// @title         Inferd Local
// @version       0.1.0
// @description   Single-process mode with inline inference and self delivery

package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"

	"inferd/internal/adapters/model/onnx"
	"inferd/internal/adapters/source"
	"inferd/internal/platform/config"
	"inferd/internal/platform/logger"
	phttp "inferd/internal/platform/net/http"

	"inferd/internal/services/app"
)

func main() {
	_ = godotenv.Load()

	root := config.New()
	l := logger.Get()

	model, err := onnx.Load(onnx.Config{
		ModelPath:    root.MustString("MODEL_PATH"),
		MetadataPath: root.MustString("MODEL_METADATA"),
		LibraryPath:  root.MayString("ONNX_LIB", ""),
		Sessions:     root.MayInt("MAX_INFLIGHT", 2),
		Conf:         root.MayFloat("CONF", 0.25),
		IoU:          root.MayFloat("IOU", 0.45),
	})
	if err != nil {
		l.Panic().Err(err).Msg("model load failed")
	}
	defer model.Close()

	resolver := source.New(source.Options{
		HTTPTimeout: root.MayDuration("HTTP_TIMEOUT", 30*time.Second),
	})

	srv := phttp.NewServer(root)

	// deliveries loop back into this process so /last can serve them
	app.Mount(srv.Router(), app.Options{
		Config:           root,
		Model:            model,
		Resolver:         resolver,
		Sync:             true,
		Tracking:         true,
		CallbackFallback: "http://127.0.0.1" + srv.Addr() + "/callback",
	})

	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}

// @title         Inferd API
// @version       0.1.0
// @description   Asynchronous ONNX inference with signed result delivery

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

	// bring up logging early
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
		S3:          maybeS3(root),
	})

	// http server (reads PORT)
	srv := phttp.NewServer(root)

	app.Mount(srv.Router(), app.Options{
		Config:   root,
		Model:    model,
		Resolver: resolver,
	})

	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}

// maybeS3 opens the S3 capability when enabled; s3:// sources fail cleanly
// without it
func maybeS3(root config.Conf) source.ObjectGetter {
	if !root.MayBool("S3_ENABLED", false) {
		return nil
	}
	st, err := source.NewS3Store(context.Background())
	if err != nil {
		logger.Get().Panic().Err(err).Msg("s3 setup failed")
	}
	return st
}

package service

import (
	"context"
	"image"

	"golang.org/x/sync/semaphore"

	"inferd/internal/core/normalize"
	perr "inferd/internal/platform/errors"
	"inferd/internal/services/infer/domain"
)

// Executor bounds concurrent source evaluations with a weighted semaphore.
// The bound applies across every request in the process, sync and async alike
type Executor struct {
	predictor domain.PredictorPort
	sem       *semaphore.Weighted
}

// NewExecutor caps in-flight evaluations at maxInflight (minimum 1)
func NewExecutor(predictor domain.PredictorPort, maxInflight int64) *Executor {
	if maxInflight < 1 {
		maxInflight = 1
	}
	return &Executor{predictor: predictor, sem: semaphore.NewWeighted(maxInflight)}
}

// Execute acquires an admission slot, resolves the image, runs the model,
// and releases the slot. The slot covers resolution as well as the model
// call, so a source queued behind the limit holds no decoded pixel buffer.
// The release is deferred so panics and error returns both give the slot back
func (e *Executor) Execute(
	ctx context.Context,
	resolve func(context.Context) (image.Image, error),
	p domain.Params,
) (normalize.Raw, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return normalize.Raw{}, perr.Wrap(err, perr.ErrorCodeModel, "acquire inference slot")
	}
	defer e.sem.Release(1)

	img, err := resolve(ctx)
	if err != nil {
		return normalize.Raw{}, err
	}
	return e.predictor.Predict(ctx, img, p)
}

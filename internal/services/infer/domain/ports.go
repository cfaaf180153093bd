package domain

import (
	"context"
	"image"

	"inferd/internal/core/normalize"
)

// ResolverPort turns an image source reference into pixels
type ResolverPort interface {
	Resolve(ctx context.Context, src string) (image.Image, error)
}

// PredictorPort evaluates one image and returns raw model output
type PredictorPort interface {
	Predict(ctx context.Context, img image.Image, p Params) (normalize.Raw, error)
}

// DispatcherPort delivers a finished batch to the caller's endpoint.
// An empty url falls back to the dispatcher's configured endpoint
type DispatcherPort interface {
	Deliver(ctx context.Context, url, requestID string, payload any) error
}

// InferPort is the module's public surface
type InferPort interface {
	// Submit runs the batch in the background and delivers the result
	// through the dispatcher. It returns as soon as the work is queued
	Submit(ctx context.Context, req InferenceRequest)

	// Run executes the batch inline and returns the positional outcomes
	Run(ctx context.Context, req InferenceRequest) BatchResult
}

// Ports are the capabilities this module consumes, injected at build time
type Ports struct {
	Resolver   ResolverPort
	Predictor  PredictorPort
	Dispatcher DispatcherPort
}

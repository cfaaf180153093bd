package service

import (
	"context"
	"image"
	"sync"

	"github.com/google/uuid"

	"inferd/internal/core/normalize"
	perr "inferd/internal/platform/errors"
	"inferd/internal/platform/logger"
	"inferd/internal/services/infer/domain"
)

// Service orchestrates batches: resolve and evaluate each source under the
// admission bound, normalize the output, and keep every outcome in its
// submission position
type Service struct {
	log       *logger.Logger
	resolver  domain.ResolverPort
	executor  *Executor
	dispatch  domain.DispatcherPort
	topK      int
	precision int
}

// Options configure normalization of raw model output
type Options struct {
	TopK      int
	Precision int
}

// NewService wires the batch orchestrator
func NewService(
	resolver domain.ResolverPort,
	executor *Executor,
	dispatch domain.DispatcherPort,
	opt Options,
) *Service {
	if opt.TopK <= 0 {
		opt.TopK = 5
	}
	if opt.Precision <= 0 {
		opt.Precision = normalize.DefaultPrecision
	}
	return &Service{
		log:       logger.Named("infer"),
		resolver:  resolver,
		executor:  executor,
		dispatch:  dispatch,
		topK:      opt.TopK,
		precision: opt.Precision,
	}
}

// Submit queues the batch and returns immediately. Delivery failures are
// logged; the caller already has its acknowledgement
func (s *Service) Submit(ctx context.Context, req domain.InferenceRequest) {
	// detach from the request lifecycle so the batch survives the
	// client disconnecting after the 202
	go func() {
		ctx := context.WithoutCancel(ctx)
		batch := s.Run(ctx, req)
		if err := s.dispatch.Deliver(ctx, req.CallbackURL, batch.RequestID, batch.Payload()); err != nil {
			s.log.Error().Err(err).
				Str("request_id", batch.RequestID).
				Msg("result delivery failed")
		}
	}()
}

// Run executes every source in the request. One outcome per source, in
// submission order; a failed source yields an error outcome and the rest
// of the batch proceeds
func (s *Service) Run(ctx context.Context, req domain.InferenceRequest) domain.BatchResult {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	outcomes := make([]domain.Outcome, len(req.URLs))
	params := domain.Params{Conf: req.Conf, IoU: req.IoU, ImgSz: req.Imgsz}

	var wg sync.WaitGroup
	for i, src := range req.URLs {
		wg.Add(1)
		go func(slot int, src string) {
			defer wg.Done()
			outcomes[slot] = s.runOne(ctx, src, params)
		}(i, src)
	}
	wg.Wait()

	for _, o := range outcomes {
		if o.Err != nil {
			logger.C(ctx).Warn().
				Str("request_id", req.RequestID).
				Str("source", o.Source).
				Err(o.Err).
				Msg("batch item failed")
		}
	}
	return domain.BatchResult{RequestID: req.RequestID, Outcomes: outcomes}
}

func (s *Service) runOne(ctx context.Context, src string, params domain.Params) (out domain.Outcome) {
	out.Source = src
	defer func() {
		if r := recover(); r != nil {
			out.Result = nil
			out.Err = perr.Newf(perr.ErrorCodeModel, "inference panic: %v", r)
		}
	}()

	raw, err := s.executor.Execute(ctx, func(ctx context.Context) (image.Image, error) {
		return s.resolver.Resolve(ctx, src)
	}, params)
	if err != nil {
		out.Err = err
		return out
	}

	res := normalize.Normalize(raw, normalize.Options{
		TopK:      s.topK,
		Precision: s.precision,
	})
	out.Result = &res
	return out
}

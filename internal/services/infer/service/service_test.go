package service

import (
	"context"
	"image"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"inferd/internal/core/normalize"
	perr "inferd/internal/platform/errors"
	"inferd/internal/services/infer/domain"
)

// scriptedResolver fails sources containing "bad" and panics on "boom"
type scriptedResolver struct{}

func (scriptedResolver) Resolve(_ context.Context, src string) (image.Image, error) {
	if strings.Contains(src, "boom") {
		panic("resolver exploded")
	}
	if strings.Contains(src, "bad") {
		return nil, perr.Sourcef("fetch %s: connection refused", src)
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

type fixedPredictor struct {
	raw normalize.Raw
}

func (p fixedPredictor) Predict(context.Context, image.Image, domain.Params) (normalize.Raw, error) {
	return p.raw, nil
}

// captureDispatcher records the last delivered payload
type captureDispatcher struct {
	mu      sync.Mutex
	payload any
	url     string
	reqID   string
	done    chan struct{}
	once    sync.Once
}

func newCaptureDispatcher() *captureDispatcher {
	return &captureDispatcher{done: make(chan struct{})}
}

func (d *captureDispatcher) Deliver(_ context.Context, url, requestID string, payload any) error {
	d.mu.Lock()
	d.url = url
	d.reqID = requestID
	d.payload = payload
	d.mu.Unlock()
	d.once.Do(func() { close(d.done) })
	return nil
}

func newTestService(dispatch domain.DispatcherPort) *Service {
	pred := fixedPredictor{raw: normalize.Raw{
		Probs: []float64{0.2, 0.8},
		Names: []string{"cat", "dog"},
	}}
	return NewService(
		scriptedResolver{},
		NewExecutor(pred, 2),
		dispatch,
		Options{},
	)
}

func TestRunPreservesOrderAndIsolatesFailures(t *testing.T) {
	t.Parallel()

	svc := newTestService(newCaptureDispatcher())
	batch := svc.Run(context.Background(), domain.InferenceRequest{
		RequestID: "t1",
		URLs:      []string{"ok-1.png", "bad-2.png", "ok-3.png"},
	})

	if batch.RequestID != "t1" {
		t.Fatalf("RequestID = %q, want t1", batch.RequestID)
	}
	if len(batch.Outcomes) != 3 {
		t.Fatalf("outcomes = %d, want one per source", len(batch.Outcomes))
	}

	if batch.Outcomes[0].Err != nil || batch.Outcomes[0].Result == nil {
		t.Fatalf("slot 0 should succeed: %v", batch.Outcomes[0].Err)
	}
	if batch.Outcomes[1].Err == nil {
		t.Fatalf("slot 1 should fail")
	}
	if !perr.IsCode(batch.Outcomes[1].Err, perr.ErrorCodeSource) {
		t.Fatalf("slot 1 code = %v, want source error", perr.CodeOf(batch.Outcomes[1].Err))
	}
	if batch.Outcomes[2].Err != nil || batch.Outcomes[2].Result == nil {
		t.Fatalf("a failed neighbor must not abort slot 2: %v", batch.Outcomes[2].Err)
	}

	if got := batch.Outcomes[0].Result.Task; got != normalize.TaskClassification {
		t.Fatalf("task = %q, want classification", got)
	}
}

// gaugeResolver tracks peak concurrent Resolve calls
type gaugeResolver struct {
	inflight atomic.Int64
	peak     atomic.Int64
}

func (r *gaugeResolver) Resolve(_ context.Context, _ string) (image.Image, error) {
	cur := r.inflight.Add(1)
	defer r.inflight.Add(-1)
	for {
		old := r.peak.Load()
		if cur <= old || r.peak.CompareAndSwap(old, cur) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func TestRunBoundsResolutionByAdmission(t *testing.T) {
	t.Parallel()

	res := &gaugeResolver{}
	pred := fixedPredictor{raw: normalize.Raw{Probs: []float64{1}}}
	svc := NewService(res, NewExecutor(pred, 1), newCaptureDispatcher(), Options{})

	srcs := make([]string, 16)
	for i := range srcs {
		srcs[i] = "img.png"
	}
	batch := svc.Run(context.Background(), domain.InferenceRequest{
		RequestID: "t5",
		URLs:      srcs,
	})

	if len(batch.Outcomes) != 16 {
		t.Fatalf("outcomes = %d, want 16", len(batch.Outcomes))
	}
	for i, o := range batch.Outcomes {
		if o.Err != nil {
			t.Fatalf("slot %d failed: %v", i, o.Err)
		}
	}
	// fetching and decoding must queue on the admission slots; a large
	// batch may hold at most one decoded buffer per slot
	if peak := res.peak.Load(); peak != 1 {
		t.Fatalf("peak concurrent resolutions = %d, want 1", peak)
	}
}

func TestRunRecoversItemPanic(t *testing.T) {
	t.Parallel()

	svc := newTestService(newCaptureDispatcher())
	batch := svc.Run(context.Background(), domain.InferenceRequest{
		RequestID: "t2",
		URLs:      []string{"boom.png", "ok.png"},
	})

	if batch.Outcomes[0].Err == nil {
		t.Fatalf("panicking item should yield an error outcome")
	}
	if !perr.IsCode(batch.Outcomes[0].Err, perr.ErrorCodeModel) {
		t.Fatalf("code = %v, want model error", perr.CodeOf(batch.Outcomes[0].Err))
	}
	if batch.Outcomes[1].Err != nil {
		t.Fatalf("sibling item must survive a panic: %v", batch.Outcomes[1].Err)
	}
}

func TestRunAssignsRequestID(t *testing.T) {
	t.Parallel()

	svc := newTestService(newCaptureDispatcher())
	batch := svc.Run(context.Background(), domain.InferenceRequest{
		URLs: []string{"ok.png"},
	})
	if batch.RequestID == "" {
		t.Fatalf("empty request id should be replaced with a generated one")
	}
}

func TestSubmitDeliversPayload(t *testing.T) {
	t.Parallel()

	disp := newCaptureDispatcher()
	svc := newTestService(disp)

	svc.Submit(context.Background(), domain.InferenceRequest{
		RequestID:   "t3",
		URLs:        []string{"ok.png", "bad.png"},
		CallbackURL: "http://backend.internal/hook",
	})

	select {
	case <-disp.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("delivery never happened")
	}

	disp.mu.Lock()
	defer disp.mu.Unlock()
	if disp.reqID != "t3" {
		t.Fatalf("delivered request id = %q, want t3", disp.reqID)
	}
	if disp.url != "http://backend.internal/hook" {
		t.Fatalf("delivered to %q, want the request's callback url", disp.url)
	}
	payload, ok := disp.payload.(map[string]any)
	if !ok {
		t.Fatalf("payload type = %T, want map", disp.payload)
	}
	results, ok := payload["results"].([]any)
	if !ok || len(results) != 2 {
		t.Fatalf("results = %#v, want 2 entries", payload["results"])
	}
	if _, ok := results[1].(domain.ItemError); !ok {
		t.Fatalf("failed slot should carry an item error, got %T", results[1])
	}
}

func TestPayloadShape(t *testing.T) {
	t.Parallel()

	res := &normalize.Result{Task: normalize.TaskDetection}
	batch := domain.BatchResult{
		RequestID: "r9",
		Outcomes: []domain.Outcome{
			{Source: "a", Result: res},
			{Source: "b", Err: perr.Sourcef("fetch b: no route")},
		},
	}
	payload := batch.Payload()

	if payload["request_id"] != "r9" {
		t.Fatalf("request_id = %v", payload["request_id"])
	}
	results := payload["results"].([]any)
	if results[0] != res {
		t.Fatalf("success slot should hold the result pointer")
	}
	ie, ok := results[1].(domain.ItemError)
	if !ok {
		t.Fatalf("failure slot type = %T", results[1])
	}
	if ie.Source != "b" {
		t.Fatalf("item source = %q, want b", ie.Source)
	}
	if !strings.Contains(ie.Error, "no route") {
		t.Fatalf("item error = %q", ie.Error)
	}
}

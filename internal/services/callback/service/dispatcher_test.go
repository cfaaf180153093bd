package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	perr "inferd/internal/platform/errors"
)

type captured struct {
	body []byte
	sig  string
	ct   string
}

func captureServer(t *testing.T, out chan<- captured) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		out <- captured{
			body: body,
			sig:  r.Header.Get(SignatureHeader),
			ct:   r.Header.Get("Content-Type"),
		}
	}))
}

func TestDeliverSignsExactBytes(t *testing.T) {
	t.Parallel()

	got := make(chan captured, 1)
	srv := captureServer(t, got)
	defer srv.Close()

	d := New(Config{URL: srv.URL, Secret: "topsecret"})
	payload := map[string]any{"request_id": "r1", "results": []any{}}
	if err := d.Deliver(context.Background(), "", "r1", payload); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	c := <-got
	if c.ct != "application/json" {
		t.Fatalf("content type = %q", c.ct)
	}
	if !Verify("topsecret", c.body, c.sig) {
		t.Fatalf("signature does not cover the received bytes")
	}

	var decoded map[string]any
	if err := json.Unmarshal(c.body, &decoded); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if decoded["request_id"] != "r1" {
		t.Fatalf("request_id = %v", decoded["request_id"])
	}
}

func TestDeliverUnsignedWithoutSecret(t *testing.T) {
	t.Parallel()

	got := make(chan captured, 1)
	srv := captureServer(t, got)
	defer srv.Close()

	d := New(Config{URL: srv.URL})
	if err := d.Deliver(context.Background(), "", "r2", map[string]any{"request_id": "r2"}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if c := <-got; c.sig != "" {
		t.Fatalf("unsigned mode must not set %s, got %q", SignatureHeader, c.sig)
	}
}

func TestDeliverPrefersRequestURL(t *testing.T) {
	t.Parallel()

	got := make(chan captured, 1)
	srv := captureServer(t, got)
	defer srv.Close()

	d := New(Config{URL: "http://127.0.0.1:1/unreachable"})
	if err := d.Deliver(context.Background(), srv.URL, "r7", map[string]any{"request_id": "r7"}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	<-got
}

func TestDeliverRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
	}))
	defer srv.Close()

	d := New(Config{URL: srv.URL, MaxRetries: 1})
	if err := d.Deliver(context.Background(), "", "r3", map[string]any{"request_id": "r3"}); err != nil {
		t.Fatalf("Deliver with one retry: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestDeliverNoRetryByDefault(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := New(Config{URL: srv.URL})
	err := d.Deliver(context.Background(), "", "r4", map[string]any{"request_id": "r4"})
	if err == nil {
		t.Fatalf("expected delivery error")
	}
	if !perr.IsCode(err, perr.ErrorCodeDelivery) {
		t.Fatalf("code = %v, want delivery error", perr.CodeOf(err))
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want exactly 1 without retries", got)
	}
}

func TestDeliverMissingURL(t *testing.T) {
	t.Parallel()

	d := New(Config{})
	err := d.Deliver(context.Background(), "", "r5", map[string]any{})
	if !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("code = %v, want config error", perr.CodeOf(err))
	}
}

func TestDeliverHonorsContextDuringBackoff(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	d := New(Config{URL: srv.URL, MaxRetries: 3})
	start := time.Now()
	err := d.Deliver(ctx, "", "r6", map[string]any{})
	if err == nil {
		t.Fatalf("expected error")
	}
	// the 1.5s backoff must cut short when the context expires
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("backoff ignored context, took %v", elapsed)
	}
}

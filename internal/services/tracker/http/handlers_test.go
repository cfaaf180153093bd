package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	phttp "inferd/internal/platform/net/http"
	csvc "inferd/internal/services/callback/service"
	"inferd/internal/services/tracker/service"
)

func newTestRouter(secret string) (http.Handler, *service.Tracker) {
	tr := service.New(8)
	mux := chi.NewRouter()
	Register(phttp.AdaptChi(mux), Deps{Tracker: tr, Secret: secret})
	return mux, tr
}

func postCallback(t *testing.T, h http.Handler, body []byte, sig string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewReader(body))
	if sig != "" {
		req.Header.Set(csvc.SignatureHeader, sig)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCallbackStoresPayload(t *testing.T) {
	t.Parallel()

	h, tr := newTestRouter("")
	body := []byte(`{"request_id":"r1","results":[{"task":"detection"}]}`)

	rec := postCallback(t, h, body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	stored, ok := tr.Get("r1")
	if !ok {
		t.Fatalf("payload not recorded")
	}
	if string(stored) != string(body) {
		t.Fatalf("stored = %s, want the exact wire bytes", stored)
	}
}

func TestCallbackVerifiesSignature(t *testing.T) {
	t.Parallel()

	h, tr := newTestRouter("hush")
	body := []byte(`{"request_id":"r2"}`)

	// unsigned and mis-signed posts are rejected
	if rec := postCallback(t, h, body, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unsigned status = %d, want 401", rec.Code)
	}
	if rec := postCallback(t, h, body, "sha256=deadbeef"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad signature status = %d, want 401", rec.Code)
	}
	if _, ok := tr.Get("r2"); ok {
		t.Fatalf("rejected payload must not be recorded")
	}

	if rec := postCallback(t, h, body, csvc.Sign("hush", body)); rec.Code != http.StatusOK {
		t.Fatalf("signed status = %d, want 200", rec.Code)
	}
	if _, ok := tr.Get("r2"); !ok {
		t.Fatalf("signed payload should be recorded")
	}
}

func TestCallbackRejectsGarbage(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter("")

	if rec := postCallback(t, h, []byte("not json"), ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("garbage status = %d, want 400", rec.Code)
	}
	if rec := postCallback(t, h, []byte(`{"results":[]}`), ""); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing request_id status = %d, want 422", rec.Code)
	}
}

func TestLastReturnsPayload(t *testing.T) {
	t.Parallel()

	h, tr := newTestRouter("")
	tr.Put("r3", json.RawMessage(`{"request_id":"r3","results":[]}`))

	req := httptest.NewRequest(http.MethodGet, "/last/r3", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("data type = %T", env.Data)
	}
	if data["request_id"] != "r3" {
		t.Fatalf("request_id = %v", data["request_id"])
	}
}

func TestLastUnknownIs404(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter("")
	req := httptest.NewRequest(http.MethodGet, "/last/never-seen", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

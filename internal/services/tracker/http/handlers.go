// Package http exposes the delivery tracking endpoints
package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"inferd/internal/modkit/httpkit"
	perr "inferd/internal/platform/errors"
	csvc "inferd/internal/services/callback/service"
	"inferd/internal/services/tracker/service"
)

const maxCallbackBytes = 16 << 20

// Deps are the handler dependencies
type Deps struct {
	Tracker *service.Tracker
	Secret  string // verifies inbound signatures; empty accepts unsigned
}

type handlers struct {
	deps Deps
}

// Register mounts the tracking routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	httpkit.Post(r, "/callback", h.callback)
	httpkit.Get(r, "/last/{request_id}", h.last)
}

// ReceivedResponse acknowledges a recorded delivery
type ReceivedResponse struct {
	Status string `json:"status" example:"received"`
}

// @Summary Record an inference delivery
// @Tags Tracker
// @Accept json
// @Produce json
// @Success 200 type ReceivedResponse received
// @Router /callback [post]
func (h *handlers) callback(r *http.Request) (any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBytes))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "read callback body")
	}

	// the signature covers the exact bytes on the wire
	if h.deps.Secret != "" {
		if !csvc.Verify(h.deps.Secret, body, r.Header.Get(csvc.SignatureHeader)) {
			return nil, perr.Unauthorizedf("invalid payload signature")
		}
	}

	var probe struct {
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, perr.JSONErrf("malformed callback payload: %v", err)
	}
	if probe.RequestID == "" {
		return nil, perr.InvalidArgf("callback payload missing request_id")
	}

	h.deps.Tracker.Put(probe.RequestID, json.RawMessage(body))
	return ReceivedResponse{Status: "received"}, nil
}

// @Summary Fetch the latest delivery for a request
// @Tags Tracker
// @Produce json
// @Success 200 type object payload
// @Router /last/{request_id} [get]
func (h *handlers) last(r *http.Request) (any, error) {
	id := chi.URLParam(r, "request_id")
	payload, ok := h.deps.Tracker.Get(id)
	if !ok {
		return nil, perr.NotFoundf("no delivery recorded for %q", id)
	}
	return payload, nil
}

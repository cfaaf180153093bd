// Package http exposes the inference endpoints
package http

import (
	"net/http"

	"github.com/google/uuid"

	"inferd/internal/modkit/httpkit"
	"inferd/internal/services/infer/domain"
)

// Deps are the handler dependencies
type Deps struct {
	Infer domain.InferPort
	Sync  bool // mounts /infer_sync next to /infer when set
}

type handlers struct {
	deps Deps
}

// Register mounts the inference routes. These sit behind the bearer guard
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	httpkit.PostJSON(r, "/infer", h.infer)
	if d.Sync {
		httpkit.PostJSON(r, "/infer_sync", h.inferSync)
	}
}

// RegisterHealth mounts the liveness probe. It stays outside the auth guard
// so balancers can reach it without credentials
func RegisterHealth(r httpkit.Router) {
	h := &handlers{}
	httpkit.Get(r, "/healthz", h.healthz)
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK bool `json:"ok" example:"true"`
}

// @Summary Submit an inference batch
// @Tags Infer
// @Accept json
// @Produce json
// @Success 202 type domain.Accepted accepted
// @Router /infer [post]
func (h *handlers) infer(r *http.Request, req domain.InferenceRequest) (any, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	h.deps.Infer.Submit(r.Context(), req)
	return httpkit.Accepted(domain.Accepted{
		RequestID: req.RequestID,
		Status:    "accepted",
	}), nil
}

// @Summary Run an inference batch inline and return the results
// @Tags Infer
// @Accept json
// @Produce json
// @Success 200 type map[string]any results
// @Router /infer_sync [post]
func (h *handlers) inferSync(r *http.Request, req domain.InferenceRequest) (any, error) {
	batch := h.deps.Infer.Run(r.Context(), req)
	return batch.Payload(), nil
}

// @Summary Liveness probe
// @Tags Infer
// @Produce json
// @Success 200 type HealthResponse ok
// @Router /healthz [get]
func (h *handlers) healthz(_ *http.Request) (any, error) {
	return HealthResponse{OK: true}, nil
}

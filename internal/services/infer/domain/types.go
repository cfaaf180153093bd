package domain

import "inferd/internal/core/normalize"

// InferenceRequest is the inbound unit of work: one or more image sources
// evaluated under shared parameters, identified for asynchronous delivery.
// CallbackURL overrides the configured delivery endpoint for this request
type InferenceRequest struct {
	RequestID   string   `json:"request_id"`
	URLs        []string `json:"urls" validate:"required,min=1"`
	CallbackURL string   `json:"callback_url" validate:"omitempty,url"`
	Conf        float64  `json:"conf" validate:"omitempty,gt=0,lte=1"`
	IoU         float64  `json:"iou" validate:"omitempty,gt=0,lte=1"`
	Imgsz       int      `json:"imgsz" validate:"omitempty,gt=0"`
}

// Params are the resolved per-request inference knobs
type Params struct {
	Conf  float64
	IoU   float64
	ImgSz int
}

// Outcome is the terminal state of one source in a batch. Exactly one of
// Result or Err is set
type Outcome struct {
	Source string
	Result *normalize.Result
	Err    error
}

// BatchResult pairs a request with its positional outcomes.
// len(Outcomes) always equals the number of submitted sources
type BatchResult struct {
	RequestID string
	Outcomes  []Outcome
}

// ItemError is the wire shape of a failed batch position
type ItemError struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// Accepted acknowledges an asynchronous submission
type Accepted struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// Payload flattens a batch into the delivery body: one entry per source,
// a normalized result on success or an ItemError on failure
func (b BatchResult) Payload() map[string]any {
	results := make([]any, len(b.Outcomes))
	for i, o := range b.Outcomes {
		if o.Err != nil {
			results[i] = ItemError{Source: o.Source, Error: o.Err.Error()}
			continue
		}
		results[i] = o.Result
	}
	return map[string]any{
		"request_id": b.RequestID,
		"results":    results,
	}
}

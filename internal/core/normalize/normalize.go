// Package normalize converts raw model output into the task-tagged wire
// payload shared by every endpoint and callback
package normalize

import (
	"sort"

	"inferd/internal/core/schema"
)

// DefaultPrecision mirrors the schema rounding default for callers that
// only deal in Options
const DefaultPrecision = schema.DefaultPrecision

// Task discriminates the payload variant; the set is closed
type Task string

// Task values
const (
	TaskClassification Task = "classification"
	TaskDetection      Task = "detection"
	TaskUnknown        Task = "unknown"
)

// Speed carries per-stage timing in fractional milliseconds
type Speed struct {
	Preprocess  float64 `json:"preprocess"`
	Inference   float64 `json:"inference"`
	Postprocess float64 `json:"postprocess"`
}

// Box is one decoded detection in model-native order
type Box struct {
	XYXY    [4]float64
	Score   float64
	ClassID int
}

// Raw is what the model capability hands back before normalization.
// Exactly one of Probs or Boxes is set for a well-formed output; neither
// set means the model head has a shape we do not support
type Raw struct {
	Probs []float64 // per-class probabilities (classification heads)
	Boxes []Box     // decoded boxes (detection heads)
	Names any       // class-id -> label table, list or map shaped
	Speed Speed
}

// Prediction is one labeled classification entry
type Prediction struct {
	ClassID int     `json:"class_id"`
	Label   string  `json:"label"`
	Score   float64 `json:"score"`
}

// Classification is the top-K payload, scores descending
type Classification struct {
	TopKConfidences []float64    `json:"top_k_confidences"`
	Predictions     []Prediction `json:"predictions"`
}

// Detection is one labeled box entry
type Detection struct {
	BboxXYXY [4]float64 `json:"bbox_xyxy"`
	Score    float64    `json:"score"`
	ClassID  int        `json:"class_id"`
	Label    string     `json:"label"`
}

// Result is the task-tagged normalized record for one image
type Result struct {
	Task           Task            `json:"task"`
	Speed          Speed           `json:"speed_ms"`
	Classification *Classification `json:"classification,omitempty"`
	Detections     []Detection     `json:"detections,omitempty"`
}

// Options tune normalization
type Options struct {
	TopK           int     // entries kept for classification, default 5
	Precision      int     // decimal places on all floats, default schema.DefaultPrecision
	ScoreThreshold float64 // drops detections below this score when > 0
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = 5
	}
	if o.Precision <= 0 {
		o.Precision = schema.DefaultPrecision
	}
	return o
}

// Normalize dispatches on the raw output shape and produces the wire record.
// The dispatch is an exhaustive check over the closed task set, not duck
// typing: probs present wins, then boxes, then unknown
func Normalize(raw Raw, opts Options) Result {
	o := opts.withDefaults()

	res := Result{
		Task: TaskUnknown,
		Speed: Speed{
			Preprocess:  schema.Round(raw.Speed.Preprocess, o.Precision),
			Inference:   schema.Round(raw.Speed.Inference, o.Precision),
			Postprocess: schema.Round(raw.Speed.Postprocess, o.Precision),
		},
	}

	switch {
	case raw.Probs != nil:
		res.Task = TaskClassification
		res.Classification = classify(raw, o)
	case raw.Boxes != nil:
		res.Task = TaskDetection
		res.Detections = detect(raw, o)
	}
	return res
}

// classify keeps the top-K classes by probability, descending, ties broken
// by the lower class id for determinism
func classify(raw Raw, o Options) *Classification {
	idx := make([]int, len(raw.Probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return raw.Probs[idx[a]] > raw.Probs[idx[b]]
	})

	k := o.TopK
	if k > len(idx) {
		k = len(idx)
	}

	out := &Classification{
		TopKConfidences: make([]float64, 0, k),
		Predictions:     make([]Prediction, 0, k),
	}
	for _, id := range idx[:k] {
		out.TopKConfidences = append(out.TopKConfidences, raw.Probs[id])
	}
	out.TopKConfidences = schema.RoundSlice(out.TopKConfidences, o.Precision)
	for i, id := range idx[:k] {
		out.Predictions = append(out.Predictions, Prediction{
			ClassID: id,
			Label:   schema.Label(raw.Names, id),
			Score:   out.TopKConfidences[i],
		})
	}
	return out
}

// detect preserves model-native box order; the only reordering tool offered
// is the score threshold filter
func detect(raw Raw, o Options) []Detection {
	out := make([]Detection, 0, len(raw.Boxes))
	for _, b := range raw.Boxes {
		if o.ScoreThreshold > 0 && b.Score < o.ScoreThreshold {
			continue
		}
		xyxy := b.XYXY
		schema.RoundSlice(xyxy[:], o.Precision)
		out = append(out, Detection{
			BboxXYXY: xyxy,
			Score:    schema.Round(b.Score, o.Precision),
			ClassID:  b.ClassID,
			Label:    schema.Label(raw.Names, b.ClassID),
		})
	}
	return out
}

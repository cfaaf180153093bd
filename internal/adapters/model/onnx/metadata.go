// Package onnx implements the model capability on top of onnxruntime.
// One exported artifact is a pair of files: the .onnx graph and a metadata
// JSON describing tensor shapes and class names
package onnx

import (
	"encoding/json"
	"os"

	perr "inferd/internal/platform/errors"
)

// Metadata describes the exported model artifact
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`

	// tensor names vary by exporter; empty values pick the family default
	InputName  string `json:"input_name,omitempty"`
	OutputName string `json:"output_name,omitempty"`
}

// LoadMetadata reads and validates the metadata JSON next to the model file
func LoadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, perr.Wrapf(err, perr.ErrorCodeConfig, "read model metadata %s", path)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Metadata{}, perr.Wrapf(err, perr.ErrorCodeConfig, "parse model metadata %s", path)
	}
	if err := meta.validate(); err != nil {
		return Metadata{}, err
	}
	meta.applyDefaults()
	return meta, nil
}

// applyDefaults fills tensor names by model family: detection exports use
// the ultralytics convention, classification exports the plain one
func (m *Metadata) applyDefaults() {
	if m.InputName == "" {
		if m.detection() {
			m.InputName = "images"
		} else {
			m.InputName = "input"
		}
	}
	if m.OutputName == "" {
		if m.detection() {
			m.OutputName = "output0"
		} else {
			m.OutputName = "output"
		}
	}
}

func (m Metadata) validate() error {
	if len(m.InputShape) != 4 {
		return perr.Configf("metadata input_shape must be rank 4 (NCHW), got %v", m.InputShape)
	}
	if len(m.OutputShape) < 2 || len(m.OutputShape) > 3 {
		return perr.Configf("metadata output_shape must be rank 2 or 3, got %v", m.OutputShape)
	}
	if len(m.Classes) == 0 {
		return perr.Configf("metadata classes must not be empty")
	}
	if m.ImageSize <= 0 {
		return perr.Configf("metadata image_size must be positive, got %d", m.ImageSize)
	}
	return nil
}

// detection reports whether the output head is detection shaped
// ([1, 4+classes, anchors]) as opposed to a flat probability vector
func (m Metadata) detection() bool { return len(m.OutputShape) == 3 }

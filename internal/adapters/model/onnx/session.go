package onnx

import (
	"context"
	"image"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"inferd/internal/core/normalize"
	perr "inferd/internal/platform/errors"
	"inferd/internal/platform/logger"
)

// Params are the per-call knobs. Zero values fall back to the model config
type Params struct {
	Conf  float64 // detection score threshold
	IoU   float64 // NMS overlap threshold
	ImgSz int     // requested input size; must match the exported shape
}

// Config describes one loaded model
type Config struct {
	ModelPath    string
	MetadataPath string
	LibraryPath  string // optional onnxruntime shared library override
	Sessions     int    // pool size; one session per concurrent evaluation
	Conf         float64
	IoU          float64
}

// session is one onnxruntime session with its pre-allocated tensors.
// A session runs one inference at a time; the pool hands them out
type session struct {
	sess   *ort.AdvancedSession
	input  *ort.Tensor[float32]
	output *ort.Tensor[float32]
}

// Model is the inference capability: a metadata-described graph behind a
// fixed-size session pool
type Model struct {
	meta Metadata
	cfg  Config
	pool chan *session
}

// Load initializes the onnxruntime environment and builds the session pool.
// Any failure here is a startup configuration error; the service must not
// report healthy without a loaded model
func Load(cfg Config) (*Model, error) {
	if cfg.Sessions <= 0 {
		cfg.Sessions = 1
	}

	meta, err := LoadMetadata(cfg.MetadataPath)
	if err != nil {
		return nil, err
	}

	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "initialize onnx environment")
	}

	m := &Model{meta: meta, cfg: cfg, pool: make(chan *session, cfg.Sessions)}
	for i := 0; i < cfg.Sessions; i++ {
		s, err := newSession(cfg.ModelPath, meta)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.pool <- s
	}

	logger.Named("onnx").Info().
		Str("model", cfg.ModelPath).
		Int("sessions", cfg.Sessions).
		Int("classes", len(meta.Classes)).
		Bool("detection", meta.detection()).
		Msg("model loaded")
	return m, nil
}

func newSession(modelPath string, meta Metadata) (*session, error) {
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.InputShape...))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "create input tensor")
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.OutputShape...))
	if err != nil {
		input.Destroy()
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "create output tensor")
	}
	sess, err := ort.NewAdvancedSession(modelPath,
		[]string{meta.InputName}, []string{meta.OutputName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "create onnx session")
	}
	return &session{sess: sess, input: input, output: output}, nil
}

// Metadata returns the loaded artifact description
func (m *Model) Metadata() Metadata { return m.meta }

// Predict runs one inference. Callers bound concurrency with the admission
// semaphore; the pool only guards tensor ownership, so a get never blocks
// longer than one in-flight evaluation
func (m *Model) Predict(ctx context.Context, img image.Image, p Params) (normalize.Raw, error) {
	// the graph is exported at a fixed input shape; a different size cannot
	// be honored mid-flight
	if p.ImgSz > 0 && p.ImgSz != m.meta.ImageSize {
		return normalize.Raw{}, perr.InvalidArgf(
			"imgsz %d not supported, model input is %d", p.ImgSz, m.meta.ImageSize)
	}

	var s *session
	select {
	case s = <-m.pool:
	case <-ctx.Done():
		return normalize.Raw{}, perr.Wrap(ctx.Err(), perr.ErrorCodeModel, "acquire session")
	}
	defer func() { m.pool <- s }()

	conf := p.Conf
	if conf <= 0 {
		conf = m.cfg.Conf
	}
	iou := p.IoU
	if iou <= 0 {
		iou = m.cfg.IoU
	}

	bounds := img.Bounds()

	start := time.Now()
	copy(s.input.GetData(), preprocess(img, m.meta.ImageSize))
	preDone := time.Now()

	if err := s.sess.Run(); err != nil {
		return normalize.Raw{}, perr.Wrap(err, perr.ErrorCodeModel, "inference")
	}
	inferDone := time.Now()

	raw := normalize.Raw{Names: m.meta.Classes}
	if m.meta.detection() {
		classes := int(m.meta.OutputShape[1]) - 4
		anchors := int(m.meta.OutputShape[2])
		raw.Boxes = decodeBoxes(
			s.output.GetData(), classes, anchors, m.meta.ImageSize,
			bounds.Dx(), bounds.Dy(), conf, iou,
		)
		if raw.Boxes == nil {
			raw.Boxes = []normalize.Box{}
		}
	} else {
		raw.Probs = decodeProbs(s.output.GetData(), len(m.meta.Classes))
	}
	postDone := time.Now()

	raw.Speed = normalize.Speed{
		Preprocess:  msBetween(start, preDone),
		Inference:   msBetween(preDone, inferDone),
		Postprocess: msBetween(inferDone, postDone),
	}
	return raw, nil
}

// Close tears down sessions and the onnxruntime environment
func (m *Model) Close() {
	close(m.pool)
	for s := range m.pool {
		s.input.Destroy()
		s.output.Destroy()
		s.sess.Destroy()
	}
	_ = ort.DestroyEnvironment()
}

func msBetween(a, b time.Time) float64 {
	return float64(b.Sub(a)) / float64(time.Millisecond)
}

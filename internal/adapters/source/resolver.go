// Package source resolves image references into decoded pixels.
// Supported schemes: http(s)://, s3://bucket/key, file://path, and bare
// filesystem paths
package source

import (
	"bytes"
	"context"
	"image"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	// register the decoders the service accepts
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	perr "inferd/internal/platform/errors"
)

const defaultHTTPTimeout = 30 * time.Second

// maxImageBytes caps a single fetched image; anything larger is rejected
// before decode rather than buffered whole
const maxImageBytes = 64 << 20

// Resolver turns a URI string into a decoded image. It holds no retry
// policy; retry decisions belong to the caller
type Resolver struct {
	http *http.Client
	s3   ObjectGetter
}

// Options configure a Resolver
type Options struct {
	HTTPTimeout time.Duration
	S3          ObjectGetter // nil disables the s3:// scheme
}

// New creates a Resolver with a timeout-bounded http client
func New(opt Options) *Resolver {
	to := opt.HTTPTimeout
	if to <= 0 {
		to = defaultHTTPTimeout
	}
	return &Resolver{
		http: &http.Client{Timeout: to},
		s3:   opt.S3,
	}
}

// Resolve fetches and decodes one image reference.
// Transport-level failures come back as ErrorCodeSource; corrupt bytes as
// ErrorCodeDecode so callers can tell the two apart
func (r *Resolver) Resolve(ctx context.Context, src string) (image.Image, error) {
	data, err := r.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDecode, "decode %s", src)
	}
	return img, nil
}

func (r *Resolver) fetch(ctx context.Context, src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return r.fetchHTTP(ctx, src)
	case strings.HasPrefix(src, "s3://"):
		return r.fetchS3(ctx, src)
	case strings.HasPrefix(src, "file://"):
		return r.readFile(strings.TrimPrefix(src, "file://"), src)
	default:
		// bare filesystem path
		return r.readFile(src, src)
	}
}

func (r *Resolver) fetchHTTP(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeSource, "fetch %s", src)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeSource, "fetch %s", src)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, perr.Sourcef("fetch %s: unexpected status %d", src, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeSource, "fetch %s", src)
	}
	if len(data) > maxImageBytes {
		return nil, perr.Sourcef("fetch %s: body exceeds %d bytes", src, maxImageBytes)
	}
	return data, nil
}

func (r *Resolver) fetchS3(ctx context.Context, src string) ([]byte, error) {
	if r.s3 == nil {
		return nil, perr.Sourcef("fetch %s: s3 scheme is not enabled", src)
	}
	bucket, key, err := splitS3(src)
	if err != nil {
		return nil, err
	}
	return r.s3.Get(ctx, bucket, key)
}

func (r *Resolver) readFile(path, src string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeSource, "read %s", src)
	}
	return data, nil
}

// splitS3 parses s3://bucket/key into its parts
func splitS3(src string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(src, "s3://")
	i := strings.Index(rest, "/")
	if i <= 0 || i == len(rest)-1 {
		return "", "", perr.Sourcef("fetch %s: want s3://bucket/key", src)
	}
	return rest[:i], rest[i+1:], nil
}

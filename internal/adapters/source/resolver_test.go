package source

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	perr "inferd/internal/platform/errors"
	kit "inferd/internal/platform/testkit"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestResolveHTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pngBytes(t, 8, 6))
	}))
	defer srv.Close()

	r := New(Options{})
	img, err := r.Resolve(context.Background(), srv.URL+"/img.png")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 6 {
		t.Fatalf("bounds = %v, want 8x6", b)
	}
}

func TestResolveHTTPBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := New(Options{})
	_, err := r.Resolve(context.Background(), srv.URL+"/missing.png")
	if !perr.IsCode(err, perr.ErrorCodeSource) {
		t.Fatalf("code = %v, want source error; err=%v", perr.CodeOf(err), err)
	}
	kit.MustErrContain(t, err, "unexpected status 404")
}

func TestResolveCorruptBytes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not an image"))
	}))
	defer srv.Close()

	r := New(Options{})
	_, err := r.Resolve(context.Background(), srv.URL+"/junk")
	if !perr.IsCode(err, perr.ErrorCodeDecode) {
		t.Fatalf("code = %v, want decode error; err=%v", perr.CodeOf(err), err)
	}
}

func TestResolveFileSchemeAndBarePath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pic.png")
	if err := os.WriteFile(path, pngBytes(t, 4, 4), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := New(Options{})
	for _, src := range []string{"file://" + path, path} {
		img, err := r.Resolve(context.Background(), src)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", src, err)
		}
		if img.Bounds().Dx() != 4 {
			t.Fatalf("Resolve(%q): wrong bounds %v", src, img.Bounds())
		}
	}
}

func TestResolveMissingFile(t *testing.T) {
	t.Parallel()

	r := New(Options{})
	_, err := r.Resolve(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	if !perr.IsCode(err, perr.ErrorCodeSource) {
		t.Fatalf("code = %v, want source error", perr.CodeOf(err))
	}
}

type mapGetter map[string][]byte

func (m mapGetter) Get(_ context.Context, bucket, key string) ([]byte, error) {
	data, ok := m[bucket+"/"+key]
	if !ok {
		return nil, perr.Sourcef("fetch s3://%s/%s: no such object", bucket, key)
	}
	return data, nil
}

func TestResolveS3(t *testing.T) {
	t.Parallel()

	store := mapGetter{}
	r := New(Options{S3: store})
	store["imgs/cat.png"] = pngBytes(t, 2, 2)

	img, err := r.Resolve(context.Background(), "s3://imgs/cat.png")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if img.Bounds().Dx() != 2 {
		t.Fatalf("bounds = %v, want 2x2", img.Bounds())
	}
}

func TestResolveS3Disabled(t *testing.T) {
	t.Parallel()

	r := New(Options{})
	_, err := r.Resolve(context.Background(), "s3://bucket/key.png")
	kit.MustErrContain(t, err, "s3 scheme is not enabled")
}

func TestSplitS3(t *testing.T) {
	t.Parallel()

	bucket, key, err := splitS3("s3://b/deep/path/k.jpg")
	if err != nil {
		t.Fatalf("splitS3: %v", err)
	}
	if bucket != "b" || key != "deep/path/k.jpg" {
		t.Fatalf("splitS3 = %q %q", bucket, key)
	}

	for _, bad := range []string{"s3://", "s3://bucketonly", "s3://bucket/"} {
		if _, _, err := splitS3(bad); err == nil {
			t.Fatalf("splitS3(%q): expected error", bad)
		}
	}
}

package onnx

import (
	"image"
	"image/color"
	"testing"
)

func solidImage(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPreprocessLayout(t *testing.T) {
	t.Parallel()

	img := solidImage(10, 10, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	input := preprocess(img, 4)

	if len(input) != 3*4*4 {
		t.Fatalf("len = %d, want 48", len(input))
	}

	// a solid color survives resize; planes hold r, g, b in CHW order
	stride := 16
	if input[0] != input[stride-1] {
		t.Fatalf("red plane not uniform: %v vs %v", input[0], input[stride-1])
	}
	for i, want := range []float32{200.0 / 255, 100.0 / 255, 50.0 / 255} {
		got := input[i*stride]
		if diff := got - want; diff > 0.02 || diff < -0.02 {
			t.Fatalf("plane %d = %v, want ~%v", i, got, want)
		}
	}
}

func TestPreprocessValueRange(t *testing.T) {
	t.Parallel()

	input := preprocess(solidImage(3, 3, color.RGBA{R: 255, G: 255, B: 255, A: 255}), 2)
	for i, v := range input {
		if v < 0 || v > 1 {
			t.Fatalf("input[%d] = %v, outside [0,1]", i, v)
		}
	}
	if input[0] != 1 {
		t.Fatalf("white pixel = %v, want 1", input[0])
	}
}

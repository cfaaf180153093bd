package errors

import (
	stderrors "errors"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	t.Parallel()

	cases := map[ErrorCode]int{
		ErrorCodeSource:          http.StatusBadGateway,
		ErrorCodeDecode:          http.StatusBadGateway,
		ErrorCodeModel:           http.StatusInternalServerError,
		ErrorCodeDelivery:        http.StatusInternalServerError,
		ErrorCodeConfig:          http.StatusInternalServerError,
		ErrorCodeUnauthorized:    http.StatusUnauthorized,
		ErrorCodeValidation:      http.StatusBadRequest,
		ErrorCodeJSON:            http.StatusBadRequest,
		ErrorCodeNotFound:        http.StatusNotFound,
		ErrorCodeInvalidArgument: http.StatusUnprocessableEntity,
	}
	for code, want := range cases {
		if got := HTTPStatusCode(code); got != want {
			t.Fatalf("HTTPStatusCode(%d) = %d, want %d", code, got, want)
		}
	}
}

func TestCodeOfWrapped(t *testing.T) {
	t.Parallel()

	base := stderrors.New("dial tcp: connection refused")
	err := Wrapf(base, ErrorCodeSource, "fetch %s", "http://x/img.png")

	if !IsCode(err, ErrorCodeSource) {
		t.Fatalf("CodeOf = %v, want source", CodeOf(err))
	}
	if !stderrors.Is(err, base) {
		t.Fatalf("wrapped error lost its cause")
	}
}

func TestCodeOfPlainError(t *testing.T) {
	t.Parallel()

	if got := CodeOf(stderrors.New("plain")); got != ErrorCodeUnknown {
		t.Fatalf("CodeOf(plain) = %v, want unknown", got)
	}
	if got := CodeOf(nil); got != ErrorCodeUnknown {
		t.Fatalf("CodeOf(nil) = %v, want unknown", got)
	}
}

func TestWireFrom(t *testing.T) {
	t.Parallel()

	err := Sourcef("fetch %s: timeout", "s3://b/k")
	w := WireFrom(err)
	if w.Code != ErrorCodeSource {
		t.Fatalf("wire code = %v", w.Code)
	}
	if w.Message == "" {
		t.Fatalf("wire message empty")
	}
}

func TestWithFieldAndOp(t *testing.T) {
	t.Parallel()

	err := WithOp(WithField(New(ErrorCodeValidation, "must not be empty"), "urls"), "bind")
	pe, ok := As(err)
	if !ok {
		t.Fatalf("As failed")
	}
	if pe.Field() != "urls" {
		t.Fatalf("field = %q", pe.Field())
	}
	if !IsCode(err, ErrorCodeValidation) {
		t.Fatalf("code changed by decoration: %v", CodeOf(err))
	}
}

func TestWrapIfPassesNil(t *testing.T) {
	t.Parallel()

	if err := WrapIf(nil, ErrorCodeModel, "inference"); err != nil {
		t.Fatalf("WrapIf(nil) = %v, want nil", err)
	}
}

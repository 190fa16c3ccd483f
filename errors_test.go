package rfbencode

import (
	"errors"
	"testing"
)

func TestErrorFormattingWithoutCause(t *testing.T) {
	e := newErr("raw", InvalidDimensions, nil)
	want := "raw: invalid dimensions"
	if got := e.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestErrorFormattingWithCause(t *testing.T) {
	cause := errors.New("short write")
	e := newErr("zrle", CompressionFailure, cause)
	want := "zrle: compression failure: short write"
	if got := e.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestErrorUnwrapReturnsCause(t *testing.T) {
	cause := errors.New("boom")
	e := newErr("tight", CompressionFailure, cause)
	if !errors.Is(e, cause) {
		t.Fatal("errors.Is did not see through Unwrap to the cause")
	}
}

func TestErrorKindStrings(t *testing.T) {
	cases := map[ErrorKind]string{
		InvalidDimensions:   "invalid dimensions",
		InputTooShort:       "input too short",
		InvalidFormat:       "invalid pixel format",
		CompressionFailure:  "compression failure",
		CoordinateOverflow:  "coordinate overflow",
		ErrorKind(999):      "unknown error",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}

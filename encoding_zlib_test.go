package rfbencode

import (
	"testing"

	"github.com/bigangryrobot/rfbencode/internal/decodetest"
	"github.com/bigangryrobot/rfbencode/internal/fixtures"
)

func toDecodetestPF(pf PixelFormat) decodetest.PixelFormat {
	return decodetest.PixelFormat{
		BitsPerPixel: pf.BitsPerPixel,
		BigEndian:    pf.BigEndian,
		RedMax:       pf.RedMax,
		GreenMax:     pf.GreenMax,
		BlueMax:      pf.BlueMax,
		RedShift:     pf.RedShift,
		GreenShift:   pf.GreenShift,
		BlueShift:    pf.BlueShift,
	}
}

func TestZlibEncodeRoundTripsLosslessly(t *testing.T) {
	enc, err := NewZlibEncoder(6)
	if err != nil {
		t.Fatalf("NewZlibEncoder: %v", err)
	}
	pf := RGBA32()
	rgba := fixtures.Quadrants64()

	out, err := enc.Encode(rgba, 64, 64, pf)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	stream := decodetest.NewZlibStream()
	decoded, err := decodetest.DecodeZlib(stream, out, 64, 64, toDecodetestPF(pf))
	if err != nil {
		t.Fatalf("DecodeZlib: %v", err)
	}
	for i := 0; i < len(rgba); i += 4 {
		if decoded[i] != rgba[i] || decoded[i+1] != rgba[i+1] || decoded[i+2] != rgba[i+2] {
			t.Fatalf("pixel %d mismatch: got (%d,%d,%d), want (%d,%d,%d)",
				i/4, decoded[i], decoded[i+1], decoded[i+2], rgba[i], rgba[i+1], rgba[i+2])
		}
	}
}

// TestZlibPersistentStreamAcrossRectangles exercises the persistent
// deflate dictionary across two calls with the same encoder instance,
// the way a session sends many rectangles over one stream.
func TestZlibPersistentStreamAcrossRectangles(t *testing.T) {
	enc, err := NewZlibEncoder(6)
	if err != nil {
		t.Fatalf("NewZlibEncoder: %v", err)
	}
	pf := RGBA32()
	stream := decodetest.NewZlibStream()

	for _, frame := range []([]byte){fixtures.Solid(8, 8, 1, 2, 3), fixtures.Solid(8, 8, 1, 2, 3)} {
		out, err := enc.Encode(frame, 8, 8, pf)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		decoded, err := decodetest.DecodeZlib(stream, out, 8, 8, toDecodetestPF(pf))
		if err != nil {
			t.Fatalf("DecodeZlib: %v", err)
		}
		if decoded[0] != 1 || decoded[1] != 2 || decoded[2] != 3 {
			t.Fatalf("decoded pixel = (%d,%d,%d), want (1,2,3)", decoded[0], decoded[1], decoded[2])
		}
	}
}

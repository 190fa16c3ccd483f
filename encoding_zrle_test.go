package rfbencode

import (
	"testing"

	"github.com/bigangryrobot/rfbencode/internal/decodetest"
	"github.com/bigangryrobot/rfbencode/internal/fixtures"
)

func roundTripZRLE(t *testing.T, rgba []byte, width, height int, pf PixelFormat) []byte {
	t.Helper()
	enc, err := NewZRLEEncoder(6)
	if err != nil {
		t.Fatalf("NewZRLEEncoder: %v", err)
	}
	out, err := enc.Encode(rgba, width, height, pf)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	stream := decodetest.NewZlibStream()
	decoded, err := decodetest.DecodeZRLE(stream, out, width, height, toDecodetestPF(pf))
	if err != nil {
		t.Fatalf("DecodeZRLE: %v", err)
	}
	return decoded
}

func assertRGBEqual(t *testing.T, got, want []byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := 0; i < len(want); i += 4 {
		if got[i] != want[i] || got[i+1] != want[i+1] || got[i+2] != want[i+2] {
			t.Fatalf("pixel %d mismatch: got (%d,%d,%d), want (%d,%d,%d)",
				i/4, got[i], got[i+1], got[i+2], want[i], want[i+1], want[i+2])
		}
	}
}

// TestZRLERoundTrip100x75 is scenario S3: a non-64-aligned gradient frame
// must round-trip exactly through ZRLE's tile clipping at the edges.
func TestZRLERoundTrip100x75(t *testing.T) {
	rgba := fixtures.Gradient100x75()
	decoded := roundTripZRLE(t, rgba, 100, 75, RGBA32())
	assertRGBEqual(t, decoded, rgba)
}

// TestZRLERoundTrip960x540 is scenario S6: a large random-pixel frame
// must round-trip exactly and compress smaller than Raw.
func TestZRLERoundTrip960x540(t *testing.T) {
	const w, h = 960, 540
	rgba := fixtures.Random(w, h, 42)
	pf := RGBA32()

	enc, err := NewZRLEEncoder(6)
	if err != nil {
		t.Fatalf("NewZRLEEncoder: %v", err)
	}
	out, err := enc.Encode(rgba, w, h, pf)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	rawSize := w * h * pf.BytesPerPixel()
	if len(out) >= rawSize {
		t.Fatalf("zrle size %d not smaller than raw size %d", len(out), rawSize)
	}

	stream := decodetest.NewZlibStream()
	decoded, err := decodetest.DecodeZRLE(stream, out, w, h, toDecodetestPF(pf))
	if err != nil {
		t.Fatalf("DecodeZRLE: %v", err)
	}
	assertRGBEqual(t, decoded, rgba)
}

// TestZRLETileBoundarySafety128x128 exercises an exact multiple of the
// 64x64 tile size, the boundary case immediately adjacent to the
// off-by-one class of bug the edge-clipping logic guards against.
func TestZRLETileBoundarySafety128x128(t *testing.T) {
	rgba := fixtures.Checkerboard(128, 128, 4)
	decoded := roundTripZRLE(t, rgba, 128, 128, RGBA32())
	assertRGBEqual(t, decoded, rgba)
}

func TestZRLEQuadrants64RoundTrip(t *testing.T) {
	rgba := fixtures.Quadrants64()
	decoded := roundTripZRLE(t, rgba, 64, 64, RGBA32())
	assertRGBEqual(t, decoded, rgba)
}

func TestEncodeZRLETilePrefersSolidOverRaw(t *testing.T) {
	tile := fixtures.Solid(64, 64, 7, 8, 9)
	got := encodeZRLETile(tile, 64, 64, RGBA32())
	if got[0] != 1 {
		t.Fatalf("subencoding = %d, want 1 (solid)", got[0])
	}
}

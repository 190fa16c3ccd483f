package rfbencode

import (
	"bytes"
	"testing"

	"github.com/bigangryrobot/rfbencode/internal/fixtures"
)

// TestZYWRLEQuality9MatchesZRLE checks quality 9's documented
// equivalence to plain ZRLE: the wavelet filter is a no-op at that
// quality, so the tile bytes fed to the (independent, freshly created)
// deflate streams are identical and compress to identical output.
func TestZYWRLEQuality9MatchesZRLE(t *testing.T) {
	rgba := fixtures.Quadrants64()
	pf := RGBA32()

	zrle, err := NewZRLEEncoder(6)
	if err != nil {
		t.Fatalf("NewZRLEEncoder: %v", err)
	}
	zrleOut, err := zrle.Encode(rgba, 64, 64, pf)
	if err != nil {
		t.Fatalf("zrle Encode: %v", err)
	}

	zywrle, err := NewZYWRLEEncoder(6, 9)
	if err != nil {
		t.Fatalf("NewZYWRLEEncoder: %v", err)
	}
	zywrleOut, err := zywrle.Encode(rgba, 64, 64, pf)
	if err != nil {
		t.Fatalf("zywrle Encode: %v", err)
	}

	if !bytes.Equal(zrleOut, zywrleOut) {
		t.Fatalf("quality 9 output diverges from plain ZRLE: %d vs %d bytes", len(zywrleOut), len(zrleOut))
	}
}

func TestZYWRLELowQualityAltersTileBytes(t *testing.T) {
	tile := fixtures.Gradient100x75()[:64*64*4] // reuse as a 64x64-ish gradient source
	pf := RGBA32()

	filteredLow := zywrleFilterTile(tile, 64, 64, 0)
	filteredHigh := zywrleFilterTile(tile, 64, 64, 9)

	if bytes.Equal(filteredLow, filteredHigh) {
		t.Fatal("quality 0 and quality 9 produced identical filtered tiles")
	}
	_ = pf
}

func TestZYWRLERejectsInvalidQualityByClamping(t *testing.T) {
	enc, err := NewZYWRLEEncoder(6, 99)
	if err != nil {
		t.Fatalf("NewZYWRLEEncoder: %v", err)
	}
	if enc.quality != 9 {
		t.Fatalf("quality = %d, want clamped to 9", enc.quality)
	}
}

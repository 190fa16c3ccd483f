package rfbencode

import (
	"testing"

	"github.com/bigangryrobot/rfbencode/internal/fixtures"
)

// TestEncodeHextileCheckerboardSubEncoding is scenario S4: a single
// 16x16 checkerboard tile must select the two-color subrect path and
// announce both background and foreground on the first tile of the
// rectangle.
func TestEncodeHextileCheckerboardSubEncoding(t *testing.T) {
	rgba := fixtures.Checkerboard(16, 16, 1)
	out, err := EncodeHextile(rgba, 16, 16, RGBA32())
	if err != nil {
		t.Fatalf("EncodeHextile: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("empty output")
	}
	subEnc := out[0]
	if subEnc&hextileAnySubrects == 0 {
		t.Fatalf("subEnc = %#02x, want AnySubrects set", subEnc)
	}
	if subEnc&hextileBackgroundSpecified == 0 {
		t.Fatalf("subEnc = %#02x, want BackgroundSpecified set on the first tile", subEnc)
	}
	if subEnc&hextileForegroundSpecified == 0 {
		t.Fatalf("subEnc = %#02x, want ForegroundSpecified set on the first tile", subEnc)
	}
	if subEnc&hextileRaw != 0 {
		t.Fatalf("subEnc = %#02x, a 2-color tile should never select Raw", subEnc)
	}
}

func TestEncodeHextileSolidTileIsBackgroundOnly(t *testing.T) {
	rgba := fixtures.Solid(16, 16, 10, 20, 30)
	out, err := EncodeHextile(rgba, 16, 16, RGBA32())
	if err != nil {
		t.Fatalf("EncodeHextile: %v", err)
	}
	subEnc := out[0]
	if subEnc&hextileAnySubrects != 0 {
		t.Fatalf("subEnc = %#02x, a solid tile should have no subrects", subEnc)
	}
	if subEnc&hextileBackgroundSpecified == 0 {
		t.Fatalf("subEnc = %#02x, want BackgroundSpecified for a solid tile", subEnc)
	}
}

func TestEncodeHextileRepeatedBackgroundOmitsHeader(t *testing.T) {
	// Two side-by-side solid tiles of the same color: the second tile
	// should not re-announce a background that hasn't changed.
	rgba := fixtures.Solid(32, 16, 5, 5, 5)
	out, err := EncodeHextile(rgba, 32, 16, RGBA32())
	if err != nil {
		t.Fatalf("EncodeHextile: %v", err)
	}
	firstTileLen := 1 + RGBA32().BytesPerPixel() // subEnc byte + one bg pixel
	if len(out) <= firstTileLen {
		t.Fatalf("len = %d, expected more than just the first tile", len(out))
	}
	secondSubEnc := out[firstTileLen]
	if secondSubEnc&hextileBackgroundSpecified != 0 {
		t.Fatalf("second tile subEnc = %#02x, background unchanged so it should not repeat", secondSubEnc)
	}
}

func TestZlibHexEncodeProducesNonEmptyOutput(t *testing.T) {
	enc, err := NewZlibHexEncoder(6)
	if err != nil {
		t.Fatalf("NewZlibHexEncoder: %v", err)
	}
	rgba := fixtures.Quadrants64()
	out, err := enc.Encode(rgba, 64, 64, RGBA32())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("empty output")
	}
}

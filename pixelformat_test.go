package rfbencode

import "testing"

func TestTranslateRaw8x8RGB565(t *testing.T) {
	pf := RGB565()
	rgba := make([]byte, 8*8*4)
	for i := 0; i < 8*8; i++ {
		rgba[i*4], rgba[i*4+1], rgba[i*4+2], rgba[i*4+3] = 0xFF, 0x00, 0x00, 0xFF
	}
	out, err := Translate(rgba, 8, 8, pf)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(out) != 128 {
		t.Fatalf("len = %d, want 128", len(out))
	}
	word := uint16(out[0]) | uint16(out[1])<<8
	if word != 0xF800 {
		t.Fatalf("first pixel = %#04x, want 0xf800 (pure red)", word)
	}
}

func TestTranslateLengthInvariant(t *testing.T) {
	pf := RGBA32()
	rgba := make([]byte, 10*10*4)
	out, err := Translate(rgba, 10, 10, pf)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(out) != 10*10*pf.BytesPerPixel() {
		t.Fatalf("len = %d, want %d", len(out), 10*10*pf.BytesPerPixel())
	}
}

func TestTranslateRejectsPalettedFormat(t *testing.T) {
	pf := RGBA32()
	pf.TrueColor = false
	if _, err := Translate(make([]byte, 16), 2, 2, pf); err == nil {
		t.Fatal("expected InvalidFormat error for paletted pf")
	}
}

func TestTranslateRejectsShortInput(t *testing.T) {
	pf := RGBA32()
	if _, err := Translate(make([]byte, 4), 2, 2, pf); err == nil {
		t.Fatal("expected InputTooShort error")
	}
}

func TestCPixelSizeDropsUnusedByte(t *testing.T) {
	if got := CPixelSize(RGBA32()); got != 3 {
		t.Fatalf("RGBA32 CPixelSize = %d, want 3", got)
	}
	if got := CPixelSize(BGRA32()); got != 3 {
		t.Fatalf("BGRA32 CPixelSize = %d, want 3", got)
	}
	if got := CPixelSize(RGB888()); got != 3 {
		t.Fatalf("RGB888 CPixelSize = %d, want 3 (24bpp has no byte to drop)", got)
	}
	if got := CPixelSize(RGB565()); got != 2 {
		t.Fatalf("RGB565 CPixelSize = %d, want 2", got)
	}
}

func TestTPixelSizeIs3ForTrueColor32(t *testing.T) {
	if got := TPixelSize(RGBA32()); got != 3 {
		t.Fatalf("TPixelSize = %d, want 3", got)
	}
	if got := TPixelSize(RGB565()); got != 2 {
		t.Fatalf("TPixelSize(RGB565) = %d, want 2", got)
	}
}

func TestEncodeCPixelRoundTripsThroughRGBA32(t *testing.T) {
	pf := RGBA32()
	got := EncodeCPixel(pf, 0x11, 0x22, 0x33)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0] != 0x11 || got[1] != 0x22 || got[2] != 0x33 {
		t.Fatalf("got %v, want [0x11 0x22 0x33]", got)
	}
}

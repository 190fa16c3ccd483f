package rfbencode

import (
	"bytes"
	"testing"
)

// TestEncodeRaw2x1ExactBytes is scenario S2: a 2x1 Raw rectangle through
// RGBA32 produces exactly 8 bytes, the two pixels back to back with no
// header.
func TestEncodeRaw2x1ExactBytes(t *testing.T) {
	rgba := []byte{
		0x10, 0x20, 0x30, 0xFF,
		0x40, 0x50, 0x60, 0xFF,
	}
	out, err := EncodeRaw(rgba, 2, 1, RGBA32())
	if err != nil {
		t.Fatalf("EncodeRaw: %v", err)
	}
	want := []byte{0x10, 0x20, 0x30, 0x00, 0x40, 0x50, 0x60, 0x00}
	if !bytes.Equal(out, want) {
		t.Fatalf("got % x, want % x", out, want)
	}
}

func TestEncodeRaw8x8RGB565ExactLength(t *testing.T) {
	rgba := make([]byte, 8*8*4)
	out, err := EncodeRaw(rgba, 8, 8, RGB565())
	if err != nil {
		t.Fatalf("EncodeRaw: %v", err)
	}
	if len(out) != 128 {
		t.Fatalf("len = %d, want 128", len(out))
	}
}

func TestEncodeRawRejectsOversizeDimensions(t *testing.T) {
	if _, err := EncodeRaw(nil, 0x10000, 1, RGBA32()); err == nil {
		t.Fatal("expected InvalidDimensions error for width > 0xFFFF")
	}
}

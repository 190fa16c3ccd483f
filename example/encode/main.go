package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bigangryrobot/rfbencode"
	"github.com/bigangryrobot/rfbencode/internal/fixtures"
)

func main() {
	level := flag.Int("level", 6, "deflate compression level for the streaming encodings")
	quality := flag.Int("quality", 6, "Tight/ZYWRLE quality (0-9)")
	flag.Parse()

	pf := rfbencode.RGBA32()
	frames := map[string][]byte{
		"solid-64x64":       fixtures.Solid(64, 64, 255, 0, 0),
		"checkerboard-16x16": fixtures.Checkerboard(16, 16, 1),
		"quadrants-64x64":   fixtures.Quadrants64(),
		"gradient-100x75":   fixtures.Gradient100x75(),
		"random-960x540":    fixtures.Random(960, 540, 42),
	}

	dims := map[string][2]int{
		"solid-64x64":         {64, 64},
		"checkerboard-16x16":  {16, 16},
		"quadrants-64x64":     {64, 64},
		"gradient-100x75":     {100, 75},
		"random-960x540":      {960, 540},
	}

	zlibEnc, err := rfbencode.NewZlibEncoder(*level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new zlib encoder: %v\n", err)
		os.Exit(1)
	}
	zrleEnc, err := rfbencode.NewZRLEEncoder(*level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new zrle encoder: %v\n", err)
		os.Exit(1)
	}
	zywrleEnc, err := rfbencode.NewZYWRLEEncoder(*level, *quality)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new zywrle encoder: %v\n", err)
		os.Exit(1)
	}
	tightEnc, err := rfbencode.NewTightEncoder(*level, *quality)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new tight encoder: %v\n", err)
		os.Exit(1)
	}

	for name, rgba := range frames {
		w, h := dims[name][0], dims[name][1]
		raw := w * h * pf.BytesPerPixel()
		fmt.Printf("%s (%dx%d, raw %d bytes)\n", name, w, h, raw)

		report := func(label string, out []byte, err error) {
			if err != nil {
				fmt.Printf("  %-10s error: %v\n", label, err)
				return
			}
			fmt.Printf("  %-10s %d bytes\n", label, len(out))
		}

		rawOut, err := rfbencode.EncodeRaw(rgba, w, h, pf)
		report("raw", rawOut, err)

		rreOut, err := rfbencode.EncodeRRE(rgba, w, h, pf)
		report("rre", rreOut, err)

		hextileOut, err := rfbencode.EncodeHextile(rgba, w, h, pf)
		report("hextile", hextileOut, err)

		zlibOut, err := zlibEnc.Encode(rgba, w, h, pf)
		report("zlib", zlibOut, err)

		zrleOut, err := zrleEnc.Encode(rgba, w, h, pf)
		report("zrle", zrleOut, err)

		zywrleOut, err := zywrleEnc.Encode(rgba, w, h, pf)
		report("zywrle", zywrleOut, err)

		tightOut, err := tightEnc.Encode(rgba, w, h, pf)
		report("tight", tightOut, err)

		pngOut, err := rfbencode.EncodeTightPNG(rgba, w, h, pf)
		report("tightpng", pngOut, err)
	}
}

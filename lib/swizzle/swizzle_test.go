// Copyright 2026 The Streamcodec Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package swizzle

import (
	"bytes"
	"testing"

	"github.com/streamcodec/streamcodec/lib/pixfmt"
)

// palette builds a 256-entry BGRA palette where entry i is
// (B=i, G=i+1, R=i+2, A=255), distinct enough to catch channel swaps.
func palette() []byte {
	p := make([]byte, 1024)
	for i := 0; i < 256; i++ {
		p[i*4+0] = byte(i)
		p[i*4+1] = byte(i + 1)
		p[i*4+2] = byte(i + 2)
		p[i*4+3] = 255
	}
	return p
}

func TestIndexedIdentity(t *testing.T) {
	z, ok := Prepare(pixfmt.IndexedBGRABinary, palette())
	if !ok {
		t.Fatal("Prepare failed")
	}
	src := []byte{3, 1, 4, 1, 5}
	dst := make([]byte, len(src))
	nDst, nSrc := z.Swizzle(dst, src)
	if nDst != len(src) || nSrc != len(src) {
		t.Fatalf("got (%d,%d), want (%d,%d)", nDst, nSrc, len(src), len(src))
	}
	if !bytes.Equal(dst, src) {
		t.Fatalf("got %v, want identity copy %v", dst, src)
	}
}

func TestBGRA(t *testing.T) {
	dstFmt := pixfmt.Make(pixfmt.FamilyBGR, pixfmt.TransparencyAlphaNonpremul, false, false, false, 1, [4]int{8, 8, 8, 8})
	z, ok := Prepare(dstFmt, palette())
	if !ok {
		t.Fatal("Prepare failed")
	}
	src := []byte{10, 20}
	dst := make([]byte, 8)
	nDst, nSrc := z.Swizzle(dst, src)
	if nDst != 8 || nSrc != 2 {
		t.Fatalf("got (%d,%d), want (8,2)", nDst, nSrc)
	}
	want := []byte{10, 11, 12, 255, 20, 21, 22, 255}
	if !bytes.Equal(dst, want) {
		t.Fatalf("got %v, want %v", dst, want)
	}
}

func TestRGBSwapsRedAndBlue(t *testing.T) {
	dstFmt := pixfmt.Make(pixfmt.FamilyRGB, pixfmt.TransparencyOpaque, false, false, false, 1, [4]int{8, 8, 8, 0})
	z, ok := Prepare(dstFmt, palette())
	if !ok {
		t.Fatal("Prepare failed")
	}
	src := []byte{10, 20, 30}
	dst := make([]byte, 9)
	nDst, nSrc := z.Swizzle(dst, src)
	if nDst != 9 || nSrc != 3 {
		t.Fatalf("got (%d,%d), want (9,3)", nDst, nSrc)
	}
	// Palette entry i is (B=i, G=i+1, R=i+2); RGB output swaps R and B, so
	// each output triple should be (R=i+2, G=i+1, B=i).
	want := []byte{
		12, 11, 10,
		22, 21, 20,
		32, 31, 30,
	}
	if !bytes.Equal(dst, want) {
		t.Fatalf("got %v, want %v", dst, want)
	}
}

func TestRGBSloppyOverwriteStopsNearEnd(t *testing.T) {
	dstFmt := pixfmt.Make(pixfmt.FamilyRGB, pixfmt.TransparencyOpaque, false, false, false, 1, [4]int{8, 8, 8, 0})
	z, ok := Prepare(dstFmt, palette())
	if !ok {
		t.Fatal("Prepare failed")
	}
	// Exactly 2 pixels' worth of room (6 bytes): at i=0, 0*3+4=4<=6, so the
	// first pixel uses the 4-byte sloppy write, and the second (last) pixel
	// falls back to a tight 3-byte store instead of writing past dst.
	src := []byte{10, 20}
	dst := make([]byte, 6)
	nDst, nSrc := z.Swizzle(dst, src)
	if nDst != 6 || nSrc != 2 {
		t.Fatalf("got (%d,%d), want (6,2)", nDst, nSrc)
	}
	want := []byte{12, 11, 10, 22, 21, 20}
	if !bytes.Equal(dst, want) {
		t.Fatalf("got %v, want %v", dst, want)
	}
}

func TestPrepareRejectsUnsupportedDst(t *testing.T) {
	bigEndianFmt := pixfmt.Make(pixfmt.FamilyRGB, pixfmt.TransparencyOpaque, true, false, false, 1, [4]int{8, 8, 8, 0})
	if _, ok := Prepare(bigEndianFmt, palette()); ok {
		t.Fatalf("Prepare should reject a big-endian destination")
	}
	grayFmt := pixfmt.Make(pixfmt.FamilyGray, pixfmt.TransparencyOpaque, false, false, false, 1, [4]int{8, 0, 0, 0})
	if _, ok := Prepare(grayFmt, palette()); ok {
		t.Fatalf("Prepare should reject a 1-channel destination")
	}
}

func TestPrepareRejectsWrongPaletteLength(t *testing.T) {
	if _, ok := Prepare(pixfmt.IndexedBGRABinary, make([]byte, 100)); ok {
		t.Fatalf("Prepare should reject a short palette")
	}
}

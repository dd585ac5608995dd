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

// ----------------

// Package swizzle converts a row of palette-index bytes (an indexed-BGRA
// source, GIF's only pixel representation) into one of several interleaved
// destination pixel formats. The conversion function is selected once, at
// Prepare time, from (dst format, palette); the hot per-pixel loop is then
// just LUT lookups and stores, never a branch on format.
package swizzle

import "github.com/streamcodec/streamcodec/lib/pixfmt"

// Swizzler is a prepared index-to-pixel conversion: a 1024-byte BGRA
// lookup table (256 palette entries x 4 bytes) built once from the source
// palette, paired with the store loop that matches the destination format.
type Swizzler struct {
	lut    [1024]byte
	numDst int // bytes written to dst per source index: 1, 3 or 4.
}

// Prepare builds a Swizzler that converts indexed-BGRA-binary source
// pixels into dst, using srcPalette (256 BGRA entries, exactly 1024 bytes)
// as the index-to-color lookup table. It reports false if dst is not one
// of the formats this package supports: indexed-BGRA-binary (identity),
// BGR, BGRA-nonpremul/premul/binary, RGB, RGBA-nonpremul/premul/binary.
func Prepare(dst pixfmt.Format, srcPalette []byte) (Swizzler, bool) {
	if len(srcPalette) != 1024 {
		return Swizzler{}, false
	}
	var z Swizzler
	copy(z.lut[:], srcPalette)

	if dst == pixfmt.IndexedBGRABinary {
		z.numDst = 1
		return z, true
	}
	if dst.Indexed() || dst.Float() || dst.BigEndian() {
		return Swizzler{}, false
	}
	switch dst.Family() {
	case pixfmt.FamilyBGR:
		// lut is already BGR-ordered; nothing to swap.
	case pixfmt.FamilyRGB:
		for i := 0; i < 256; i++ {
			z.lut[i*4+0], z.lut[i*4+2] = z.lut[i*4+2], z.lut[i*4+0]
		}
	default:
		return Swizzler{}, false
	}
	switch dst.NumChannels() {
	case 3:
		z.numDst = 3
	case 4:
		z.numDst = 4
	default:
		return Swizzler{}, false
	}
	return z, true
}

// BytesPerPixel reports how many dst bytes one source index expands to.
func (z *Swizzler) BytesPerPixel() int { return z.numDst }

// Swizzle converts src (one palette index per byte) into dst, returning
// the number of dst bytes and src indexes consumed. It stops early if dst
// has too little room for the next pixel.
func (z *Swizzler) Swizzle(dst, src []byte) (nDst, nSrc int) {
	switch z.numDst {
	case 1:
		return z.swizzleIndexed(dst, src)
	case 3:
		return z.swizzle3Byte(dst, src)
	case 4:
		return z.swizzle4Byte(dst, src)
	}
	return 0, 0
}

func (z *Swizzler) swizzleIndexed(dst, src []byte) (nDst, nSrc int) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	copy(dst[:n], src[:n])
	return n, n
}

func (z *Swizzler) swizzle4Byte(dst, src []byte) (nDst, nSrc int) {
	n := len(dst) / 4
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		idx := src[i]
		copy(dst[i*4:i*4+4], z.lut[int(idx)*4:int(idx)*4+4])
	}
	return n * 4, n
}

// swizzle3Byte implements a "sloppy overwrite 4, advance 3" technique:
// each iteration stores a full 4-byte LUT entry (the
// source alpha/pad byte included) but only advances the destination cursor
// by 3, so the next pixel's store overwrites the stray 4th byte. The last
// pixel of a row can't use this trick since there may be nothing after it
// to overwrite with a correct value, so it falls back to a 3-byte copy.
func (z *Swizzler) swizzle3Byte(dst, src []byte) (nDst, nSrc int) {
	n := len(src)
	if max := len(dst) / 3; n > max {
		n = max
	}
	i := 0
	for ; i < n-1 && i*3+4 <= len(dst); i++ {
		idx := src[i]
		copy(dst[i*3:i*3+4], z.lut[int(idx)*4:int(idx)*4+4])
	}
	for ; i < n; i++ {
		idx := src[i]
		copy(dst[i*3:i*3+3], z.lut[int(idx)*4:int(idx)*4+3])
	}
	return n * 3, n
}

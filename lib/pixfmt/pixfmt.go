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

// Package pixfmt packs and unpacks the 32-bit pixel-format and
// pixel-subsampling encodings: plain values, not pointers or interfaces,
// so they're cheap to compare, hash and embed in decoder structs.
package pixfmt

// Format is a packed pixel-format descriptor. The zero Format is the
// invalid sentinel.
//
// Bit layout (MSB first):
//
//	30..28  color family   {alpha, gray, YCbCr, YCoCg, BGR, RGB, CMY}
//	26..24  transparency   {opaque, x-pad, alpha-nonpremul, alpha-premul, binary-alpha}
//	20      big-endian
//	19      float
//	18      palette-indexed
//	17..16  num-planes minus 1
//	15..0   four 4-bit channel depth codes
type Format uint32

// Color families.
const (
	FamilyAlpha Format = iota
	FamilyGray
	FamilyYCbCr
	FamilyYCoCg
	FamilyBGR
	FamilyRGB
	FamilyCMY
)

// Transparency kinds.
const (
	TransparencyOpaque Format = iota
	TransparencyXPad
	TransparencyAlphaNonpremul
	TransparencyAlphaPremul
	TransparencyBinaryAlpha
)

const (
	shiftFamily       = 28
	shiftTransparency = 24
	bitBigEndian      = 1 << 20
	bitFloat          = 1 << 19
	bitIndexed        = 1 << 18
	shiftPlanesMinus1 = 16
)

// depthToCode maps a literal bit depth (1..8) to itself, and the larger
// literal-unrepresentable depths to a 4-bit code.
var depthToCode = map[int]uint32{
	1: 1, 2: 2, 3: 3, 4: 4, 5: 5, 6: 6, 7: 7, 8: 8,
	10: 9, 12: 10, 16: 11, 24: 12, 32: 13, 48: 14, 64: 15,
}

var codeToDepth = [16]int{
	0: 0, 1: 1, 2: 2, 3: 3, 4: 4, 5: 5, 6: 6, 7: 7, 8: 8,
	9: 10, 10: 12, 11: 16, 12: 24, 13: 32, 14: 48, 15: 64,
}

// Make packs a pixel format descriptor. depths holds up to 4 per-plane (or
// per-channel) bit depths, 0 for an unused slot; numPlanes is 1..4.
func Make(family, transparency Format, bigEndian, float, indexed bool, numPlanes int, depths [4]int) Format {
	f := (family&7)<<shiftFamily | (transparency&7)<<shiftTransparency
	if bigEndian {
		f |= bitBigEndian
	}
	if float {
		f |= bitFloat
	}
	if indexed {
		f |= bitIndexed
	}
	f |= Format(numPlanes-1) << shiftPlanesMinus1 & (3 << shiftPlanesMinus1)
	for i, d := range depths {
		f |= Format(depthToCode[d]) << uint(i*4)
	}
	return f
}

// IndexedBGRABinary is the pixel format a GIF canvas decodes to: palette-
// indexed, BGR family, binary (on/off) alpha, one 8-bit plane. It's
// pinned as the literal 1191444488 (0x47040008) rather than derived
// through Make, since the transparency sub-field's real-world bit
// assignment isn't simply TransparencyBinaryAlpha's ordinal (it reuses
// bit patterns from a wider family of transparency kinds than the four
// this package names).
const IndexedBGRABinary Format = 1191444488

// Family extracts the color family.
func (f Format) Family() Format { return (f >> shiftFamily) & 7 }

// Transparency extracts the transparency kind.
func (f Format) Transparency() Format { return (f >> shiftTransparency) & 7 }

// BigEndian reports whether multi-byte channels are big-endian.
func (f Format) BigEndian() bool { return f&bitBigEndian != 0 }

// Float reports whether channels are floating-point.
func (f Format) Float() bool { return f&bitFloat != 0 }

// Indexed reports whether f addresses a palette rather than raw channels.
func (f Format) Indexed() bool { return f&bitIndexed != 0 }

// NumPlanes returns the plane count, 1..4.
func (f Format) NumPlanes() int { return int((f>>shiftPlanesMinus1)&3) + 1 }

// Depth returns the bit depth of channel i (0..3), or 0 if unused.
func (f Format) Depth(i int) int {
	code := uint32(f>>uint(i*4)) & 0xF
	return codeToDepth[code]
}

// IsValid reports whether f is anything other than the zero sentinel.
func (f Format) IsValid() bool { return f != 0 }

// NumChannels returns how many of the four depth slots are in use: 3 for
// packed RGB/BGR, 4 for packed RGBA/BGRA, 1 for gray or an indexed format's
// single index byte.
func (f Format) NumChannels() int {
	n := 0
	for i := 0; i < 4; i++ {
		if f.Depth(i) != 0 {
			n++
		}
	}
	return n
}

// Subsampling is a packed chroma-subsampling descriptor: four 8-bit
// per-plane packs of (bias_x<<6)|(shift_x<<4)|(bias_y<<2)|shift_y.
type Subsampling uint32

// Standard subsampling values.
const (
	Subsampling444 Subsampling = 0x000000
	Subsampling440 Subsampling = 0x010100
	Subsampling422 Subsampling = 0x101000
	Subsampling420 Subsampling = 0x111100
	Subsampling411 Subsampling = 0x202000
	Subsampling410 Subsampling = 0x212100
)

// Plane unpacks the bias/shift pair for plane i (0..3).
func (s Subsampling) Plane(i int) (biasX, shiftX, biasY, shiftY int) {
	b := uint32(s>>uint(i*8)) & 0xFF
	return int(b >> 6 & 3), int(b >> 4 & 3), int(b >> 2 & 3), int(b & 3)
}

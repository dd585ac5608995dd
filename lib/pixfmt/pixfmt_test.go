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

package pixfmt

import "testing"

func TestMakeRoundTrip(t *testing.T) {
	// Packed (interleaved) RGB: one plane carrying three channels, not
	// three planes -- numPlanes counts storage planes, not channels.
	f := Make(FamilyRGB, TransparencyAlphaPremul, false, false, false, 1, [4]int{8, 8, 8, 0})
	if got, want := f.Family(), FamilyRGB; got != want {
		t.Errorf("Family: got %v, want %v", got, want)
	}
	if got, want := f.Transparency(), TransparencyAlphaPremul; got != want {
		t.Errorf("Transparency: got %v, want %v", got, want)
	}
	if f.BigEndian() {
		t.Errorf("BigEndian: got true, want false")
	}
	if got, want := f.NumPlanes(), 1; got != want {
		t.Errorf("NumPlanes: got %d, want %d", got, want)
	}
	for i, want := range [4]int{8, 8, 8, 0} {
		if got := f.Depth(i); got != want {
			t.Errorf("Depth(%d): got %d, want %d", i, got, want)
		}
	}
	if !f.IsValid() {
		t.Errorf("IsValid: got false, want true")
	}
}

func TestZeroIsInvalidSentinel(t *testing.T) {
	var f Format
	if f.IsValid() {
		t.Errorf("zero Format: IsValid got true, want false")
	}
}

func TestIndexedBGRABinaryMatchesSpecValue(t *testing.T) {
	if got, want := uint32(IndexedBGRABinary), uint32(1191444488); got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestSubsamplingStandardValues(t *testing.T) {
	cases := []struct {
		name string
		s    Subsampling
		want uint32
	}{
		{"4:4:4", Subsampling444, 0},
		{"4:4:0", Subsampling440, 0x010100},
		{"4:2:2", Subsampling422, 0x101000},
		{"4:2:0", Subsampling420, 0x111100},
		{"4:1:1", Subsampling411, 0x202000},
		{"4:1:0", Subsampling410, 0x212100},
	}
	for _, c := range cases {
		if got := uint32(c.s); got != c.want {
			t.Errorf("%s: got 0x%X, want 0x%X", c.name, got, c.want)
		}
	}
}

func TestSubsamplingPlaneUnpack(t *testing.T) {
	// 4:2:0 luma plane has no subsampling; chroma planes are subsampled by
	// 2 in both axes.
	bx, sx, by, sy := Subsampling420.Plane(0)
	if bx != 0 || sx != 0 || by != 0 || sy != 0 {
		t.Errorf("plane 0: got (%d,%d,%d,%d), want all zero", bx, sx, by, sy)
	}
	bx, sx, by, sy = Subsampling420.Plane(1)
	if sx != 1 || sy != 1 {
		t.Errorf("plane 1: got shiftX=%d shiftY=%d, want 1,1", sx, sy)
	}
}

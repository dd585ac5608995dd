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

package fourcc

import "testing"

func TestEncodeStringRoundTrip(t *testing.T) {
	cases := []string{"ICCP", "XMP ", "abcd", "    ", "1234"}
	for _, s := range cases {
		c := Encode(s)
		if got := c.String(); got != s {
			t.Errorf("Encode(%q).String() = %q, want %q", s, got, s)
		}
	}
}

func TestNamedConstants(t *testing.T) {
	if got, want := ICCP.String(), "ICCP"; got != want {
		t.Errorf("ICCP.String() = %q, want %q", got, want)
	}
	if got, want := XMP.String(), "XMP "; got != want {
		t.Errorf("XMP.String() = %q, want %q", got, want)
	}
}

func TestZeroIsInvalidSentinel(t *testing.T) {
	var c Code
	if c.IsValid() {
		t.Errorf("zero Code: IsValid got true, want false")
	}
	if ICCP == 0 || XMP == 0 {
		t.Errorf("named constants must not collide with the zero sentinel")
	}
}

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

package adler32

import (
	stdadler32 "hash/adler32"
	"testing"
)

func TestAgainstStdlib(t *testing.T) {
	cases := []string{
		"",
		"a",
		"Hello World!",
		"Wikipedia",
	}
	for _, c := range cases {
		got := Checksum([]byte(c))
		want := stdadler32.Checksum([]byte(c))
		if got != want {
			t.Errorf("Checksum(%q): got 0x%08X, want 0x%08X", c, got, want)
		}
	}
}

func TestHelloWorldVector(t *testing.T) {
	if got, want := Checksum([]byte("Hello World!")), uint32(0x1C49043E); got != want {
		t.Fatalf("got 0x%08X, want 0x%08X", got, want)
	}
}

func TestChunkedMatchesOneShot(t *testing.T) {
	data := make([]byte, 20000)
	for i := range data {
		data[i] = byte(i * 7)
	}
	want := Checksum(data)

	for _, chunkLen := range []int{1, 3, 17, 5551, 5552, 5553, 9999} {
		h := New()
		for off := 0; off < len(data); off += chunkLen {
			end := off + chunkLen
			if end > len(data) {
				end = len(data)
			}
			h.Update(data[off:end])
		}
		if got := h.Sum32(); got != want {
			t.Errorf("chunkLen=%d: got 0x%08X, want 0x%08X", chunkLen, got, want)
		}
	}
}

func TestResetAndEmptyStartsAtOne(t *testing.T) {
	var h Hasher
	if got := h.Sum32(); got != 1 {
		t.Fatalf("fresh Hasher.Sum32(): got %d, want 1", got)
	}
	h.Update([]byte("x"))
	h.Reset()
	if got := h.Sum32(); got != 1 {
		t.Fatalf("after Reset: got %d, want 1", got)
	}
}

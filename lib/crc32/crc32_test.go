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

package crc32

import (
	stdcrc32 "hash/crc32"
	"testing"
)

func TestAgainstStdlib(t *testing.T) {
	cases := [][]byte{
		{},
		[]byte("a"),
		[]byte("123456789"), // the canonical CRC-32/IEEE check vector.
		make([]byte, 1000),
		make([]byte, 31),
	}
	for i := range cases[3] {
		cases[3][i] = byte(i * 13)
	}
	for i := range cases[4] {
		cases[4][i] = byte(i)
	}
	for _, c := range cases {
		got := Checksum(c)
		want := stdcrc32.ChecksumIEEE(c)
		if got != want {
			t.Errorf("Checksum(%d bytes): got 0x%08X, want 0x%08X", len(c), got, want)
		}
	}
}

func TestCheckVector(t *testing.T) {
	if got, want := Checksum([]byte("123456789")), uint32(0xCBF43926); got != want {
		t.Fatalf("got 0x%08X, want 0x%08X", got, want)
	}
}

func TestChunkedMatchesOneShot(t *testing.T) {
	data := make([]byte, 4099)
	for i := range data {
		data[i] = byte(i * 37)
	}
	want := Checksum(data)

	for _, chunkLen := range []int{1, 5, 15, 16, 17, 31, 4096} {
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

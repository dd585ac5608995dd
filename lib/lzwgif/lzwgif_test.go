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

package lzwgif

import (
	"bytes"
	"testing"

	"github.com/streamcodec/streamcodec/lib/base"
)

// bitWriter is a minimal LSB-first bit packer, the encode-side mirror of
// Decoder's bit reader, used only by this test to build known-good GIF-LZW
// streams without depending on any external LZW implementation.
type bitWriter struct {
	buf    []byte
	bitBuf uint64
	nBits  uint32
}

func (w *bitWriter) writeCode(code uint32, width uint32) {
	w.bitBuf |= uint64(code) << w.nBits
	w.nBits += width
	for w.nBits >= 8 {
		w.buf = append(w.buf, byte(w.bitBuf))
		w.bitBuf >>= 8
		w.nBits -= 8
	}
}

func (w *bitWriter) finish() []byte {
	if w.nBits > 0 {
		w.buf = append(w.buf, byte(w.bitBuf))
		w.bitBuf = 0
		w.nBits = 0
	}
	return w.buf
}

// encode is a textbook GIF-LZW encoder (no early-change quirk), used only
// to generate test fixtures: it mirrors the decoder's own dictionary
// construction rule byte for byte, so a round trip through it exercises
// clear codes, growing code width and the KwKwK case exactly the way a
// real encoder's output would.
func encode(litWidth uint32, data []byte) []byte {
	clearCode := uint32(1) << litWidth
	endCode := clearCode + 1
	w := &bitWriter{}

	type entry struct {
		prefix int32
		suffix byte
	}
	var dict map[string]int32
	var entries []entry
	codeWidth := litWidth + 1

	resetDict := func() {
		dict = make(map[string]int32, 512)
		entries = entries[:0]
		for i := uint32(0); i < clearCode; i++ {
			entries = append(entries, entry{noPrefix, byte(i)})
		}
		entries = append(entries, entry{}, entry{}) // clearCode, endCode placeholders
		codeWidth = litWidth + 1
		w.writeCode(clearCode, codeWidth)
	}
	resetDict()

	if len(data) == 0 {
		w.writeCode(endCode, codeWidth)
		return w.finish()
	}

	cur := string(data[0:1])
	curCode := int32(data[0])
	for _, b := range data[1:] {
		next := cur + string(b)
		if code, ok := dict[next]; ok {
			cur = next
			curCode = code
			continue
		}
		w.writeCode(uint32(curCode), codeWidth)
		newCode := int32(len(entries))
		if newCode < maxCodes {
			dict[next] = newCode
			entries = append(entries, entry{curCode, b})
			// The decoder adds this entry one code later, so widen once
			// newCode itself reaches 1<<codeWidth.
			if newCode == 1<<codeWidth && codeWidth < maxWidth {
				codeWidth++
			}
		}
		cur = string(b)
		curCode = int32(b)
	}
	w.writeCode(uint32(curCode), codeWidth)
	// The decoder adds one more entry on reading that last code.
	if newCode := int32(len(entries)); newCode < maxCodes && newCode == 1<<codeWidth && codeWidth < maxWidth {
		codeWidth++
	}
	w.writeCode(endCode, codeWidth)
	return w.finish()
}

func decodeAll(t *testing.T, litWidth uint32, compressed []byte, chunkLen int) ([]byte, base.Status) {
	t.Helper()
	var d Decoder
	if st := d.Initialize(litWidth); !st.IsOK() {
		t.Fatalf("Initialize: %v", st)
	}
	if chunkLen <= 0 {
		chunkLen = len(compressed) + 1
	}
	src := &base.Buffer{Data: compressed}
	dstBuf := make([]byte, 4096)
	var out []byte
	revealed := 0
	for {
		if src.RI >= src.WI {
			if revealed < len(compressed) {
				revealed += chunkLen
				if revealed > len(compressed) {
					revealed = len(compressed)
				}
				src.WI = revealed
			}
			if revealed >= len(compressed) {
				src.Closed = true
			}
		}
		dst := &base.Buffer{Data: dstBuf}
		st := d.DecodeIOWriter(dst, src, nil)
		out = append(out, dst.Data[:dst.WI]...)
		if !st.IsSuspension() {
			return out, st
		}
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		litWidth uint32
		data     []byte
	}{
		{"empty", 2, nil},
		{"single-byte", 2, []byte{3}},
		{"two-colors", 2, bytes.Repeat([]byte{0, 1}, 40)},
		{"needs-width-growth", 2, func() []byte {
			b := make([]byte, 600)
			for i := range b {
				b[i] = byte(i % 4)
			}
			return b
		}()},
		{"eight-bit-palette", 8, func() []byte {
			b := make([]byte, 2000)
			for i := range b {
				b[i] = byte(i * 7)
			}
			return b
		}()},
		{"all-same-triggers-kwkwk", 2, bytes.Repeat([]byte{1}, 5000)},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			compressed := encode(c.litWidth, c.data)
			for _, chunkLen := range []int{0, 1, 2, 7} {
				got, st := decodeAll(t, c.litWidth, compressed, chunkLen)
				if !st.IsOK() {
					t.Fatalf("chunkLen=%d: status %v", chunkLen, st)
				}
				if !bytes.Equal(got, c.data) {
					t.Fatalf("chunkLen=%d: got %v, want %v", chunkLen, got, c.data)
				}
			}
		})
	}
}

func TestBadLiteralWidth(t *testing.T) {
	var d Decoder
	if st := d.Initialize(1); st != errInvalidLiteralWidth {
		t.Fatalf("got %v, want errInvalidLiteralWidth", st)
	}
	if st := d.Initialize(9); st != errInvalidLiteralWidth {
		t.Fatalf("got %v, want errInvalidLiteralWidth", st)
	}
}

func TestClearCodeMidStreamResetsDictionary(t *testing.T) {
	litWidth := uint32(2)
	clearCode := uint32(1) << litWidth
	endCode := clearCode + 1
	w := &bitWriter{}
	width := litWidth + 1
	w.writeCode(clearCode, width)
	w.writeCode(1, width)
	w.writeCode(0, width)
	w.writeCode(clearCode, width) // reset before the dictionary could desync.
	w.writeCode(1, width)
	w.writeCode(0, width)
	w.writeCode(endCode, width)
	compressed := w.finish()

	got, st := decodeAll(t, litWidth, compressed, 0)
	if !st.IsOK() {
		t.Fatalf("status %v", st)
	}
	want := []byte{1, 0, 1, 0}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBadCodeBeforeClear(t *testing.T) {
	litWidth := uint32(2)
	clearCode := uint32(1) << litWidth
	w := &bitWriter{}
	width := litWidth + 1
	w.writeCode(clearCode, width)
	w.writeCode(clearCode+3, width) // out of range: not yet a dictionary entry.
	compressed := w.finish()

	_, st := decodeAll(t, litWidth, compressed, 0)
	if !st.IsError() {
		t.Fatalf("got %v, want an error", st)
	}
}

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

// Package lzwgif decodes the variable-width LZW variant GIF uses: a
// dictionary of up to 4096 entries, a clear code one past the literal
// codes and an end code one past the clear code, and code widths that grow from
// litWidth+1 up to 12 bits as the dictionary fills.
package lzwgif

import (
	"github.com/streamcodec/streamcodec/lib/base"
)

const (
	maxWidth    = 12
	maxCodes    = 1 << maxWidth // 4096
	noPrefix    = -1
)

var (
	errInvalidBadCode          = base.MakeError("lzwgif: invalid input: bad code")
	errInvalidCodeBeforeClear  = base.MakeError("lzwgif: invalid input: code used before any clear code")
	errInvalidLiteralWidth     = base.MakeError("lzwgif: invalid input: bad literal width")
)

const (
	pcIdle = iota
	pcReadCode
	pcEmit
	pcDone
)

// Decoder decodes one LZW-for-GIF coded image. The caller supplies
// litWidth (the GIF "LZW minimum code size" byte, 2..8) via Initialize.
type Decoder struct {
	base.Coroutines

	litWidth   uint32
	clearCode  uint32
	endCode    uint32
	codeWidth  uint32

	bitBuf uint64
	nBits  uint32

	// prefixes[c] is the code that, appended with suffixes[c], forms code
	// c's string; suffixes[c] is its final byte. firstByte[c] caches the
	// first byte of code c's expansion, for the classic "KwKwK" case.
	prefixes  [maxCodes]int32
	suffixes  [maxCodes]byte
	firstByte [maxCodes]byte
	numCodes  int

	prevCode   int32
	havePrev   bool

	// pending holds bytes of the current code's expansion still to be
	// written to dst, emitted in reverse (walking prefixes) then flipped.
	pending    [maxCodes]byte
	pendingLen int
	pendingPos int

	pc int
}

// Initialize prepares d to decode a fresh LZW stream with the given
// GIF "LZW minimum code size" (2..8).
func (d *Decoder) Initialize(litWidth uint32) base.Status {
	if litWidth < 2 || litWidth > 8 {
		return errInvalidLiteralWidth
	}
	*d = Decoder{litWidth: litWidth}
	d.resetDictionary()
	d.Coroutines.MarkInitialized()
	return base.OK
}

func (d *Decoder) resetDictionary() {
	d.clearCode = 1 << d.litWidth
	d.endCode = d.clearCode + 1
	d.numCodes = int(d.endCode) + 1
	d.codeWidth = d.litWidth + 1
	for i := uint32(0); i < d.clearCode; i++ {
		d.prefixes[i] = noPrefix
		d.suffixes[i] = byte(i)
		d.firstByte[i] = byte(i)
	}
	d.havePrev = false
	d.prevCode = noPrefix
}

func (d *Decoder) fill(src *base.Buffer, want int) (suspend bool) {
	for d.nBits < uint32(want) {
		if src.RI >= src.WI {
			if src.Closed {
				return false
			}
			return true
		}
		d.bitBuf |= uint64(src.Data[src.RI]) << d.nBits
		src.RI++
		d.nBits += 8
	}
	return false
}

func (d *Decoder) take(n int) uint32 {
	mask := uint64(1)<<uint(n) - 1
	v := uint32(d.bitBuf & mask)
	d.bitBuf >>= uint(n)
	d.nBits -= uint32(n)
	return v
}

// WorkbufLen reports the advisory [min, max] workbuf length. lzwgif needs
// no scratch space beyond what's embedded in Decoder.
func (d *Decoder) WorkbufLen() (min, max int) { return 1, 1 }

// expand appends code's expansion (oldest byte first) into d.pending,
// returning false if code is not yet a valid dictionary entry (only valid
// for the KwKwK special case: code == numCodes, one past the last entry
// added).
func (d *Decoder) expand(code int32) bool {
	if int(code) >= d.numCodes {
		return false
	}
	d.pendingLen = 0
	c := code
	for c != noPrefix {
		d.pending[d.pendingLen] = d.suffixes[c]
		d.pendingLen++
		c = d.prefixes[c]
	}
	// Reverse in place: expand walked the chain backwards (suffix first).
	for i, j := 0, d.pendingLen-1; i < j; i, j = i+1, j-1 {
		d.pending[i], d.pending[j] = d.pending[j], d.pending[i]
	}
	return true
}

// DecodeIOWriter decodes as much of src as fits in dst, suspending as
// needed. It returns base.OK once the end code has been read and all
// pending output flushed.
func (d *Decoder) DecodeIOWriter(dst, src *base.Buffer, workbuf []byte) base.Status {
	if st := d.Coroutines.CheckInitialized(); st != nil {
		return *st
	}
	if st := d.Coroutines.Enter(1); st != nil {
		return *st
	}
	st := d.run(dst, src)
	if st.IsSuspension() {
		return st
	}
	if st.IsError() {
		d.Coroutines.Poison()
	}
	d.Coroutines.Leave()
	return st
}

func (d *Decoder) run(dst, src *base.Buffer) base.Status {
	for {
		switch d.pc {
		case pcIdle:
			d.pc = pcReadCode

		case pcReadCode:
			if d.fill(src, int(d.codeWidth)) {
				return base.SuspShortRead
			}
			if d.nBits < d.codeWidth {
				return base.ErrNotEnoughData
			}
			code := int32(d.take(int(d.codeWidth)))

			switch {
			case uint32(code) == d.clearCode:
				d.resetDictionary()
				d.pc = pcReadCode
				continue

			case uint32(code) == d.endCode:
				d.pc = pcDone
				continue

			case !d.havePrev:
				if !d.expand(code) {
					return errInvalidCodeBeforeClear
				}
				d.havePrev = true
				d.prevCode = code
				d.pendingPos = 0
				d.pc = pcEmit

			default:
				ok := d.expand(code)
				if !ok {
					if int(code) != d.numCodes {
						return errInvalidBadCode
					}
					// KwKwK: code refers to the entry about to be
					// created. Its expansion is prevCode's expansion
					// followed by prevCode's own first byte.
					if !d.expand(d.prevCode) {
						return errInvalidBadCode
					}
					d.pending[d.pendingLen] = d.firstByte[d.prevCode]
					d.pendingLen++
				}
				if d.numCodes < maxCodes {
					newCode := d.numCodes
					d.prefixes[newCode] = d.prevCode
					d.suffixes[newCode] = d.pending[0]
					d.firstByte[newCode] = d.firstByte[d.prevCode]
					d.numCodes++
					if d.numCodes == 1<<d.codeWidth && d.codeWidth < maxWidth {
						d.codeWidth++
					}
				}
				d.prevCode = code
				d.pendingPos = 0
				d.pc = pcEmit
			}

		case pcEmit:
			for d.pendingPos < d.pendingLen {
				if dst.WI >= len(dst.Data) {
					return base.SuspShortWrite
				}
				dst.Data[dst.WI] = d.pending[d.pendingPos]
				dst.WI++
				d.pendingPos++
			}
			d.pc = pcReadCode

		case pcDone:
			return base.OK
		}
	}
}

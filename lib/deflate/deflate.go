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

// Package deflate decodes RFC 1951 DEFLATE streams as a suspend/resume
// coroutine: every method takes the caller-owned src/dst buffers and a
// workbuf, and returns a base.Status that is either terminal (ok, a
// warning, or an error) or a suspension asking the caller to refill src,
// drain dst, or simply call again once more data exists.
//
// Unlike a single monolithic two-path (bounded-fast / per-byte-slow)
// decode loop, this implementation uses one loop whose every step either
// completes or suspends; Go's escape analysis and inlining make the
// teacher's C-style dual-path trick unnecessary for correctness, and a
// single path is far less error-prone to keep resumable.
package deflate

import (
	"github.com/streamcodec/streamcodec/lib/base"
)

// Program-counter values for the coroutine state machine.
const (
	pcBlockHeader = iota
	pcStoredAlign
	pcStoredLen
	pcStoredBody
	pcDynCounts
	pcDynClenLengths
	pcDynLengths
	pcDynLengthsRepeatExtra
	pcHuffmanBody
	pcDone
)

// Sub-phases within the main Huffman block body (pcHuffmanBody).
const (
	hbSymbol = iota
	hbLiteralWrite
	hbLenExtra
	hbDistSymbol
	hbDistExtra
	hbCopy
)

var (
	errInvalidBadBlockType       = base.MakeError("deflate: bad block")
	errInvalidBadHuffmanTree     = base.MakeError("deflate: invalid input: bad Huffman tree")
	errInvalidBadSymbol          = base.MakeError("deflate: invalid input: bad symbol")
	errInvalidInconsistentStored = base.MakeError("deflate: inconsistent stored block length")
	errInvalidMissingEOB         = base.MakeError("deflate: missing end-of-block code")
	errInvalidTooManyCodes       = base.MakeError("deflate: invalid input: too many codes")
	errInternalBadTag            = base.MakeError("deflate: internal error: inconsistent Huffman tag")
	errInternalSecondaryOverflow = base.MakeError("deflate: internal error: inconsistent secondary table")
	errInvalidDistanceTooFar     = base.MakeError("deflate: invalid input: distance too far back")
)

// Decoder decodes a single DEFLATE stream.
type Decoder struct {
	base.Coroutines

	bitBuf uint64
	nBits  uint32

	history      [maxHistory]byte
	historyIndex int

	final bool
	pc    int

	blockFinal int
	blockType  int

	storedRemaining int

	nLit, nDist, nClen int
	clenLengths         [maxCodeLenSymbol]int
	clenIdx             int
	allLengths          [maxLitLenSymbols + maxDistSymbols]int
	allIdx              int
	prevLen             int
	pendingRepeatSym    int

	hbPhase         int
	pendingLiteral  uint32
	pendingLenIdx   uint32
	pendingLenExtra uint32
	matchLength     int
	pendingDistIdx  uint32
	pendingDistExtr uint32
	matchDistance   int
	copyDone        int

	clenTable huffmanTable
	litTable  huffmanTable
	distTable huffmanTable
}

// Initialize prepares d for decoding a fresh stream.
func (d *Decoder) Initialize() {
	*d = Decoder{}
	d.Coroutines.MarkInitialized()
}

// AddHistory feeds up to the last 32 KiB of prior output back into d, so
// that a freshly-resumed (or restarted-at-an-offset) decode can resolve
// back-references into data the caller has already consumed out of dst.
func (d *Decoder) AddHistory(p []byte) {
	if len(p) > maxHistory {
		p = p[len(p)-maxHistory:]
	}
	for _, b := range p {
		d.history[d.historyIndex%maxHistory] = b
		d.historyIndex++
	}
}

// WorkbufLen reports the advisory [min, max] length of the workbuf
// DecodeIOWriter accepts. DEFLATE needs no scratch space beyond what's
// embedded in Decoder.
func (d *Decoder) WorkbufLen() (min, max int) { return 1, 1 }

func (d *Decoder) historyLen() int {
	if d.historyIndex > maxHistory {
		return maxHistory
	}
	return d.historyIndex
}

func (d *Decoder) byteBehind(dst *base.Buffer, back int) byte {
	if back <= dst.WI {
		return dst.Data[dst.WI-back]
	}
	histBack := back - dst.WI
	idx := d.historyIndex - histBack
	m := idx % maxHistory
	if m < 0 {
		m += maxHistory
	}
	return d.history[m]
}

func (d *Decoder) fillStrict(src *base.Buffer, want int) (suspend, eof bool) {
	for d.nBits < uint32(want) {
		if src.RI >= src.WI {
			if src.Closed {
				return false, true
			}
			return true, false
		}
		d.bitBuf |= uint64(src.Data[src.RI]) << d.nBits
		src.RI++
		d.nBits += 8
	}
	return false, false
}

func (d *Decoder) fillLenient(src *base.Buffer, want int) (suspend bool) {
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
	if n == 0 {
		return 0
	}
	mask := uint64(1)<<uint(n) - 1
	v := uint32(d.bitBuf & mask)
	d.bitBuf >>= uint(n)
	d.nBits -= uint32(n)
	return v
}

func (d *Decoder) alignToByte() {
	r := d.nBits % 8
	d.bitBuf >>= r
	d.nBits -= r
}

// decodeSymbol resolves one Huffman symbol from tbl, suspending (with no
// side effects beyond bytes already folded into the bit buffer) if src
// runs out before enough bits exist and more might still arrive.
func (d *Decoder) decodeSymbol(src *base.Buffer, tbl *huffmanTable) (entry uint32, suspend bool, st base.Status) {
	if d.fillLenient(src, rootBits) {
		return 0, true, base.OK
	}
	if d.nBits == 0 {
		return 0, false, base.ErrNotEnoughData
	}
	idx := uint32(d.bitBuf) & (rootSize - 1)
	e := tbl.entries[idx]
	tag := (e >> 24) & 0xFF

	if tag == tagRedirect {
		width := int((e >> 4) & 0xF)
		if d.fillLenient(src, rootBits+width) {
			return 0, true, base.OK
		}
		if uint32(rootBits) > d.nBits {
			return 0, false, base.ErrNotEnoughData
		}
		d.take(rootBits)
		base2 := int((e >> 8) & 0xFFFF)
		secIdx := uint32(d.bitBuf) & ((1 << uint(width)) - 1)
		e2 := tbl.entries[base2+int(secIdx)]
		consumed2 := e2 & 0xF
		if consumed2 > d.nBits {
			return 0, false, base.ErrNotEnoughData
		}
		d.take(int(consumed2))
		if entryTag(e2) == tagErr {
			return 0, false, errInvalidBadSymbol
		}
		return e2, false, base.OK
	}

	consumed := e & 0xF
	if consumed > d.nBits {
		return 0, false, base.ErrNotEnoughData
	}
	d.take(int(consumed))
	if tag == tagErr {
		return 0, false, errInvalidBadSymbol
	}
	return e, false, base.OK
}

func entryPayload(e uint32) uint32 { return (e >> 8) & 0xFFFF }
func entryExtra(e uint32) uint32   { return (e >> 4) & 0xF }
func entryTag(e uint32) uint32     { return (e >> 24) & 0xFF }

func (d *Decoder) buildFixedTables() {
	d.litTable.build(fixedLitLenLengths[:], false, false, litLenEntry)
	d.distTable.build(fixedDistLengths[:], true, true, distEntry)
}

func litLenEntry(sym, length int) uint32 {
	switch {
	case sym < 256:
		return makeEntry(tagLiteral, uint32(sym), 0, uint32(length))
	case sym == 256:
		return makeEntry(tagEndOfBlk, 0, 0, uint32(length))
	default:
		idx := sym - 257
		if idx >= len(lengthExtra) {
			// Symbols 286 and 287 take part in the fixed code but never
			// occur in valid data.
			return makeEntry(tagErr, 0, 0, uint32(length))
		}
		return makeEntry(tagLength, uint32(idx), lengthExtra[idx], uint32(length))
	}
}

func distEntry(sym, length int) uint32 {
	return makeEntry(tagDistance, uint32(sym), distExtra[sym], uint32(length))
}

func clenEntry(sym, length int) uint32 {
	return makeEntry(tagLiteral, uint32(sym), 0, uint32(length))
}

// DecodeIOWriter is the main decode driver. It returns base.OK when the
// final block has been fully decoded, a suspension if src/dst need
// attention, or an error (which permanently poisons d) on malformed
// input or an internal inconsistency.
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
		case pcBlockHeader:
			if susp, eof := d.fillStrict(src, 3); susp {
				return base.SuspShortRead
			} else if eof {
				return base.ErrNotEnoughData
			}
			d.blockFinal = int(d.take(1))
			d.blockType = int(d.take(2))
			switch d.blockType {
			case 0:
				d.pc = pcStoredAlign
			case 1:
				d.buildFixedTables()
				d.pc = pcHuffmanBody
				d.hbPhase = hbSymbol
			case 2:
				d.pc = pcDynCounts
			default:
				return errInvalidBadBlockType
			}

		case pcStoredAlign:
			d.alignToByte()
			d.pc = pcStoredLen

		case pcStoredLen:
			if susp, eof := d.fillStrict(src, 32); susp {
				return base.SuspShortRead
			} else if eof {
				return base.ErrNotEnoughData
			}
			length := d.take(16)
			nlength := d.take(16)
			if length != (^nlength & 0xFFFF) {
				return errInvalidInconsistentStored
			}
			d.storedRemaining = int(length)
			d.pc = pcStoredBody

		case pcStoredBody:
			for d.storedRemaining > 0 {
				if d.nBits >= 8 {
					// Prefer already-buffered bits before touching src
					// directly, so a byte read via the bit buffer isn't
					// silently skipped.
					b := byte(d.take(8))
					if dst.WI >= len(dst.Data) {
						d.bitBuf = (d.bitBuf << 8) | uint64(b)
						d.nBits += 8
						return base.SuspShortWrite
					}
					dst.Data[dst.WI] = b
					dst.WI++
					d.storedRemaining--
					continue
				}
				if src.RI >= src.WI {
					if src.Closed {
						return base.ErrNotEnoughData
					}
					return base.SuspShortRead
				}
				if dst.WI >= len(dst.Data) {
					return base.SuspShortWrite
				}
				dst.Data[dst.WI] = src.Data[src.RI]
				src.RI++
				dst.WI++
				d.storedRemaining--
			}
			d.pc = pcBlockHeader
			if d.blockFinal != 0 {
				d.pc = pcDone
			}

		case pcDynCounts:
			if susp, eof := d.fillStrict(src, 14); susp {
				return base.SuspShortRead
			} else if eof {
				return base.ErrNotEnoughData
			}
			d.nLit = int(d.take(5)) + 257
			d.nDist = int(d.take(5)) + 1
			d.nClen = int(d.take(4)) + 4
			if d.nLit > maxLitLenSymbols {
				return errInvalidTooManyCodes
			}
			if d.nDist > maxDistSymbols {
				return errInvalidTooManyCodes
			}
			for i := range d.clenLengths {
				d.clenLengths[i] = 0
			}
			d.clenIdx = 0
			d.pc = pcDynClenLengths

		case pcDynClenLengths:
			for d.clenIdx < d.nClen {
				if susp, eof := d.fillStrict(src, 3); susp {
					return base.SuspShortRead
				} else if eof {
					return base.ErrNotEnoughData
				}
				d.clenLengths[codeOrder[d.clenIdx]] = int(d.take(3))
				d.clenIdx++
			}
			if err := d.clenTable.build(d.clenLengths[:maxCodeLenSymbol], false, false, clenEntry); err != nil {
				return errInvalidBadHuffmanTree
			}
			for i := range d.allLengths {
				d.allLengths[i] = 0
			}
			d.allIdx = 0
			d.prevLen = 0
			d.pendingRepeatSym = 0
			d.pc = pcDynLengths

		case pcDynLengths:
			total := d.nLit + d.nDist
			for d.allIdx < total {
				if d.pendingRepeatSym == 0 {
					e, susp, est := d.decodeSymbol(src, &d.clenTable)
					if susp {
						return base.SuspShortRead
					}
					if est.IsError() {
						return est
					}
					sym := int(entryPayload(e))
					switch {
					case sym <= 15:
						d.allLengths[d.allIdx] = sym
						d.prevLen = sym
						d.allIdx++
						continue
					case sym == 16, sym == 17, sym == 18:
						d.pendingRepeatSym = sym
						d.pc = pcDynLengthsRepeatExtra
					default:
						return errInvalidBadSymbol
					}
				}
				return d.run(dst, src)
			}
			if d.allLengths[256] == 0 {
				return errInvalidMissingEOB
			}
			if err := d.litTable.build(d.allLengths[:d.nLit], false, false, litLenEntry); err != nil {
				return errInvalidBadHuffmanTree
			}
			if err := d.distTable.build(d.allLengths[d.nLit:d.nLit+d.nDist], true, false, distEntry); err != nil {
				return errInvalidBadHuffmanTree
			}
			d.pc = pcHuffmanBody
			d.hbPhase = hbSymbol

		case pcDynLengthsRepeatExtra:
			var extraBits, base0 int
			switch d.pendingRepeatSym {
			case 16:
				extraBits, base0 = 2, 3
			case 17:
				extraBits, base0 = 3, 3
			case 18:
				extraBits, base0 = 7, 11
			}
			if susp, eof := d.fillStrict(src, extraBits); susp {
				return base.SuspShortRead
			} else if eof {
				return base.ErrNotEnoughData
			}
			n := base0 + int(d.take(extraBits))
			fillVal := 0
			if d.pendingRepeatSym == 16 {
				if d.allIdx == 0 {
					return errInvalidBadSymbol
				}
				fillVal = d.prevLen
			}
			total := d.nLit + d.nDist
			for i := 0; i < n && d.allIdx < total; i++ {
				d.allLengths[d.allIdx] = fillVal
				d.allIdx++
			}
			d.pendingRepeatSym = 0
			d.pc = pcDynLengths

		case pcHuffmanBody:
			if st := d.huffmanBody(dst, src); !st.IsOK() || d.pc != pcBlockHeader {
				return st
			}
			if d.blockFinal != 0 {
				d.pc = pcDone
			}

		case pcDone:
			// Hand whole bytes read ahead past the final block back to
			// src, so a wrapper can read its trailer from there.
			if n := int(d.nBits / 8); n > 0 && n <= src.RI {
				src.RI -= n
				d.nBits -= uint32(n * 8)
				d.bitBuf &= uint64(1)<<d.nBits - 1
			}
			return base.OK
		}
	}
}

// huffmanBody decodes one fixed- or dynamic-Huffman block's body. It
// returns base.OK (and sets d.pc to pcBlockHeader) once the block's
// end-of-block marker is seen; otherwise it returns a suspension with
// d.pc left at pcHuffmanBody so the caller resumes via hbPhase.
func (d *Decoder) huffmanBody(dst, src *base.Buffer) base.Status {
	for {
		switch d.hbPhase {
		case hbSymbol:
			e, susp, st := d.decodeSymbol(src, &d.litTable)
			if susp {
				return base.SuspShortRead
			}
			if st.IsError() {
				return st
			}
			switch entryTag(e) {
			case tagLiteral:
				d.pendingLiteral = entryPayload(e)
				d.hbPhase = hbLiteralWrite
			case tagEndOfBlk:
				d.pc = pcBlockHeader
				return base.OK
			case tagLength:
				d.pendingLenIdx = entryPayload(e)
				d.pendingLenExtra = entryExtra(e)
				d.hbPhase = hbLenExtra
			default:
				return errInternalBadTag
			}

		case hbLiteralWrite:
			if dst.WI >= len(dst.Data) {
				return base.SuspShortWrite
			}
			dst.Data[dst.WI] = byte(d.pendingLiteral)
			dst.WI++
			d.hbPhase = hbSymbol

		case hbLenExtra:
			n := int(d.pendingLenExtra)
			if susp, eof := d.fillStrict(src, n); susp {
				return base.SuspShortRead
			} else if eof {
				return base.ErrNotEnoughData
			}
			d.matchLength = int(lengthBase[d.pendingLenIdx]) + int(d.take(n))
			d.hbPhase = hbDistSymbol

		case hbDistSymbol:
			e, susp, st := d.decodeSymbol(src, &d.distTable)
			if susp {
				return base.SuspShortRead
			}
			if st.IsError() {
				return st
			}
			if entryTag(e) != tagDistance {
				return errInternalBadTag
			}
			d.pendingDistIdx = entryPayload(e)
			d.pendingDistExtr = entryExtra(e)
			d.hbPhase = hbDistExtra

		case hbDistExtra:
			n := int(d.pendingDistExtr)
			if susp, eof := d.fillStrict(src, n); susp {
				return base.SuspShortRead
			} else if eof {
				return base.ErrNotEnoughData
			}
			d.matchDistance = int(distBase[d.pendingDistIdx]) + int(d.take(n))
			if d.matchDistance > maxHistory {
				return errInvalidDistanceTooFar
			}
			if d.matchDistance > dst.WI+d.historyLen() {
				return errInvalidDistanceTooFar
			}
			d.copyDone = 0
			d.hbPhase = hbCopy

		case hbCopy:
			for d.copyDone < d.matchLength {
				if dst.WI >= len(dst.Data) {
					return base.SuspShortWrite
				}
				b := d.byteBehind(dst, d.matchDistance)
				dst.Data[dst.WI] = b
				dst.WI++
				d.copyDone++
			}
			d.hbPhase = hbSymbol
		}
	}
}

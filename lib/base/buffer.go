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

// Package base provides the I/O buffer, status and coroutine primitives
// shared by every streamcodec decoder (deflate, lzwgif, gif, zlib, gzip).
//
// A Buffer is caller-owned: decoders borrow it for the duration of one
// method call and write back every mutated index before returning, on
// every kind of return (ok, warning, suspension, error) alike.
package base

// Buffer is a contiguous byte region plus the read/write cursor metadata
// needed to resume a suspended decode.
//
// The invariant RI <= WI <= len(Data) must hold before and after every
// decoder call. Pos counts bytes that have been discarded by a previous
// Compact, so that Pos+RI is the absolute position in the logical stream.
type Buffer struct {
	Data []byte

	// RI is the read index: Data[RI:WI] is unread/undrained.
	RI int
	// WI is the write index: Data[:WI] has been written.
	WI int
	// Pos is the absolute stream position of Data[0].
	Pos int64
	// Closed reports that no more bytes will ever be appended to Data
	// (for a source buffer) or that the caller will never drain Data
	// further (for a destination buffer).
	Closed bool
}

// Reader returns the unread slice Data[RI:WI].
func (b *Buffer) Reader() []byte {
	return b.Data[b.RI:b.WI]
}

// Writer returns the unwritten slice Data[WI:len(Data)].
func (b *Buffer) Writer() []byte {
	return b.Data[b.WI:]
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int {
	return b.WI - b.RI
}

// WriterLen returns the number of bytes of free space to write into.
func (b *Buffer) WriterLen() int {
	return len(b.Data) - b.WI
}

// Reset discards all buffered content and resets Pos to zero. It does not
// reallocate Data.
func (b *Buffer) Reset() {
	b.RI = 0
	b.WI = 0
	b.Pos = 0
	b.Closed = false
}

// Compact moves the unread slice Data[RI:WI] to the front of Data,
// adjusting Pos by the number of bytes discarded. It is a no-op if RI is
// already zero.
func (b *Buffer) Compact() {
	if b.RI == 0 {
		return
	}
	n := copy(b.Data, b.Data[b.RI:b.WI])
	b.Pos += int64(b.RI)
	b.RI = 0
	b.WI = n
}

// AbsPos returns the absolute position of the next unread byte.
func (b *Buffer) AbsPos() int64 {
	return b.Pos + int64(b.RI)
}

// checkInvariant reports whether the RI <= WI <= len(Data) invariant
// holds. It exists for tests and assertions; production code never
// calls it on a hot path.
func (b *Buffer) checkInvariant() bool {
	return 0 <= b.RI && b.RI <= b.WI && b.WI <= len(b.Data)
}

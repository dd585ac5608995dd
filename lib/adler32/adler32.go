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

// Package adler32 computes the rolling Adler-32 checksum zlib (RFC 1950)
// embeds, as a plain value type rather than a hash.Hash32, so that it can
// be a zero-allocation field inside a suspend/resume decoder struct.
package adler32

// base is the mod to reduce s1 and s2 by.
const base = 65521

// maxRunLen is the largest number of bytes that can be summed into a
// uint32 accumulator without s2 overflowing before the next mod
// reduction: 5552 is the largest n such that 255*n*(n+1)/2 + (n+1)*(base-1)
// < 2^32.
const maxRunLen = 5552

// Hasher accumulates an Adler-32 checksum across repeated calls to
// Update, matching the semantics of zlib's adler32_combine-free
// streaming use (one hasher per stream).
type Hasher struct {
	state   uint32
	started bool
}

// New returns a ready-to-use Hasher.
func New() Hasher { return Hasher{} }

// Reset restores h to its initial state.
func (h *Hasher) Reset() { *h = Hasher{} }

// Sum32 returns the current checksum.
func (h *Hasher) Sum32() uint32 {
	if !h.started {
		return 1
	}
	return h.state
}

// Update folds p into the running checksum and returns the new value.
func (h *Hasher) Update(p []byte) uint32 {
	if !h.started {
		h.state = 1
		h.started = true
	}
	s1 := h.state & 0xFFFF
	s2 := h.state >> 16

	for len(p) > 0 {
		run := p
		if len(run) > maxRunLen {
			run = run[:maxRunLen]
		}
		p = p[len(run):]

		// Unroll by 8, falling back to one byte at a time for the tail.
		i := 0
		for ; i+8 <= len(run); i += 8 {
			s1 += uint32(run[i])
			s2 += s1
			s1 += uint32(run[i+1])
			s2 += s1
			s1 += uint32(run[i+2])
			s2 += s1
			s1 += uint32(run[i+3])
			s2 += s1
			s1 += uint32(run[i+4])
			s2 += s1
			s1 += uint32(run[i+5])
			s2 += s1
			s1 += uint32(run[i+6])
			s2 += s1
			s1 += uint32(run[i+7])
			s2 += s1
		}
		for ; i < len(run); i++ {
			s1 += uint32(run[i])
			s2 += s1
		}

		s1 %= base
		s2 %= base
	}

	h.state = (s2 << 16) | s1
	return h.state
}

// Checksum is a convenience one-shot wrapper equivalent to New() then
// Update(p).
func Checksum(p []byte) uint32 {
	h := New()
	return h.Update(p)
}

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

package base

// Magic values for the decoder-object discipline: a decoder struct
// embeds a Coroutines value (or an equivalent magic field) and checks
// it at the top of every method.
const (
	MagicUninitialized uint32 = 0
	MagicInitialized   uint32 = 0x57555343 // "WUSC"
	MagicDisabled      uint32 = 0xDEADC0DE
)

// InitializeFlags controls the zero-filling behavior of Initialize.
type InitializeFlags uint32

const (
	// LeaveInternalBuffersUninitialized skips zeroing large internal
	// tables (Huffman tables, LZW dictionaries, palettes) on
	// Initialize, for callers that are about to overwrite them anyway.
	LeaveInternalBuffersUninitialized InitializeFlags = 1 << 0
)

// Coroutines is embedded in every decoder struct. It tracks the
// initialize-then-use discipline and ensures only one coroutine method
// is ever in flight on a given decoder at a time.
type Coroutines struct {
	magic           uint32
	activeCoroutine uint32
}

// CheckInitialized returns a non-nil Status if the embedding decoder has
// not been successfully initialized, or has been poisoned by a previous
// error.
func (c *Coroutines) CheckInitialized() *Status {
	switch c.magic {
	case MagicInitialized:
		return nil
	case MagicDisabled:
		return &ErrDisabledByPreviousError
	default:
		return &ErrInitializeNotCalled
	}
}

// MarkInitialized sets the magic that CheckInitialized requires.
func (c *Coroutines) MarkInitialized() { c.magic = MagicInitialized }

// Poison permanently disables the embedding decoder. Called once, the
// first time any method returns an error-category Status.
func (c *Coroutines) Poison() { c.magic = MagicDisabled }

// Enter must be called at the top of every suspending method, identified
// by a small per-method id (method ids just need to be distinct within
// one decoder type; 0 means "idle"). It enforces that at most one
// suspending method is mid-suspension at a time.
func (c *Coroutines) Enter(methodID uint32) *Status {
	if c.activeCoroutine != 0 && c.activeCoroutine != methodID {
		return &ErrInterleavedCoroutineCalls
	}
	c.activeCoroutine = methodID
	return nil
}

// Leave clears the active-coroutine marker. Called whenever a suspending
// method returns anything other than a suspension.
func (c *Coroutines) Leave() { c.activeCoroutine = 0 }

// Suspending reports whether st is a suspension, the one case in which
// Leave must NOT be called (the coroutine stays active across the
// return).
func Suspending(st Status) bool { return st.IsSuspension() }

// Flick is a duration measured in flicks: 1/705,600,000 of a second. GIF
// frame delays, given in centiseconds, convert via CentisecondsToFlicks.
type Flick int64

// FlicksPerSecond is the number of Flick units in one second.
const FlicksPerSecond Flick = 705600000

// CentisecondsToFlicks converts a GIF-style delay-time (hundredths of a
// second) to Flick units: 1 centisecond = 7,056,000 flicks.
func CentisecondsToFlicks(cs uint16) Flick {
	return Flick(cs) * 7056000
}

// Scratch is the one 64-bit partial-read slot for suspend/resume byte
// reads: a suspending method that needs to read N bytes little-endian
// first tries
// the fast path (N contiguous bytes already available), and otherwise
// loops, shifting one byte at a time into Scratch.Value while
// Scratch.NBits (stored in the field, not packed into Value's high byte,
// since Go has no pressure to save the extra word) tracks how many bits
// have been accumulated so far.
type Scratch struct {
	Value uint64
	NBits uint32
}

// Reset clears the scratch slot. Call this before starting a fresh
// multi-byte read.
func (s *Scratch) Reset() { s.Value = 0; s.NBits = 0 }

// TakeByte folds one more little-endian byte into the scratch value.
func (s *Scratch) TakeByte(b byte) {
	s.Value |= uint64(b) << s.NBits
	s.NBits += 8
}

// Done reports whether the scratch slot holds at least want*8 bits.
func (s *Scratch) Done(want int) bool { return int(s.NBits) >= want*8 }

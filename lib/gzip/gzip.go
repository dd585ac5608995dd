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

// Package gzip decodes the RFC 1952 gzip wrapper around a DEFLATE stream:
// a variable-length header (optional extra field, name, comment and header
// CRC), the DEFLATE payload (delegated to lib/deflate), and a trailing
// CRC-32 plus uncompressed size.
package gzip

import (
	"github.com/streamcodec/streamcodec/lib/base"
	"github.com/streamcodec/streamcodec/lib/crc32"
	"github.com/streamcodec/streamcodec/lib/deflate"
)

const (
	flagFTEXT     = 1 << 0
	flagFHCRC     = 1 << 1
	flagFEXTRA    = 1 << 2
	flagFNAME     = 1 << 3
	flagFCOMMENT  = 1 << 4
	flagKnownMask = flagFTEXT | flagFHCRC | flagFEXTRA | flagFNAME | flagFCOMMENT
)

var (
	errInvalidBadMagic             = base.MakeError("gzip: invalid input: bad magic")
	errInvalidBadCompressionMethod = base.MakeError("gzip: invalid input: unsupported compression method")
	errInvalidBadEncodingFlags     = base.MakeError("gzip: invalid input: bad encoding flags")
	errInvalidCRC                  = base.MakeError("gzip: invalid input: crc-32 mismatch")
	errInvalidSize                 = base.MakeError("gzip: invalid input: size mismatch")
)

const (
	pcMagic0 = iota
	pcMagic1
	pcMethod
	pcFlags
	pcMtime
	pcXFL
	pcOS
	pcExtraLen0
	pcExtraLen1
	pcExtraBytes
	pcName
	pcComment
	pcHCRC
	pcPayload
	pcCRC
	pcISIZE
	pcDone
)

// Decoder decodes one gzip-wrapped DEFLATE stream.
type Decoder struct {
	base.Coroutines

	inner          deflate.Decoder
	crc            crc32.Hasher
	size           uint32
	ignoreChecksum bool

	flags byte

	counter  int // generic byte-countdown used by every fixed-width field.
	extraLen int

	wantCRC   uint32
	wantISIZE uint32

	pc int
}

// Initialize prepares d to decode a fresh gzip stream.
func (d *Decoder) Initialize() {
	*d = Decoder{}
	d.inner.Initialize()
	d.Coroutines.MarkInitialized()
}

// SetIgnoreChecksum controls whether the trailing CRC-32 and ISIZE are
// verified. The 8 trailing bytes are always read and consumed either way.
func (d *Decoder) SetIgnoreChecksum(ignore bool) { d.ignoreChecksum = ignore }

func (d *Decoder) readByte(src *base.Buffer) (b byte, suspend, eof bool) {
	if src.RI >= src.WI {
		if src.Closed {
			return 0, false, true
		}
		return 0, true, false
	}
	b = src.Data[src.RI]
	src.RI++
	return b, false, false
}

// DecodeIOWriter decodes as much of src as fits in dst, suspending as
// needed.
func (d *Decoder) DecodeIOWriter(dst, src *base.Buffer) base.Status {
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
		case pcMagic0:
			b, susp, eof := d.readByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			if b != 0x1F {
				return errInvalidBadMagic
			}
			d.pc = pcMagic1

		case pcMagic1:
			b, susp, eof := d.readByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			if b != 0x8B {
				return errInvalidBadMagic
			}
			d.pc = pcMethod

		case pcMethod:
			b, susp, eof := d.readByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			if b != 8 {
				return errInvalidBadCompressionMethod
			}
			d.pc = pcFlags

		case pcFlags:
			b, susp, eof := d.readByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			if uint32(b)&^uint32(flagKnownMask) != 0 {
				return errInvalidBadEncodingFlags
			}
			d.flags = b
			d.counter = 0
			d.pc = pcMtime

		case pcMtime: // 4 bytes, ignored.
			if susp, eof := d.skipBytes(src, 4); susp {
				return base.SuspShortRead
			} else if eof {
				return base.ErrNotEnoughData
			}
			d.pc = pcXFL

		case pcXFL: // 1 byte, ignored.
			if susp, eof := d.skipBytes(src, 1); susp {
				return base.SuspShortRead
			} else if eof {
				return base.ErrNotEnoughData
			}
			d.pc = pcOS

		case pcOS: // 1 byte, ignored.
			if susp, eof := d.skipBytes(src, 1); susp {
				return base.SuspShortRead
			} else if eof {
				return base.ErrNotEnoughData
			}
			if d.flags&flagFEXTRA != 0 {
				d.counter = 0
				d.extraLen = 0
				d.pc = pcExtraLen0
			} else {
				d.pc = pcName
			}

		case pcExtraLen0:
			b, susp, eof := d.readByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			d.extraLen = int(b)
			d.pc = pcExtraLen1

		case pcExtraLen1:
			b, susp, eof := d.readByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			d.extraLen |= int(b) << 8
			d.counter = 0
			d.pc = pcExtraBytes

		case pcExtraBytes:
			if susp, eof := d.skipBytes(src, d.extraLen); susp {
				return base.SuspShortRead
			} else if eof {
				return base.ErrNotEnoughData
			}
			d.pc = pcName

		case pcName:
			if d.flags&flagFNAME != 0 {
				if susp, eof := d.skipNulTerminated(src); susp {
					return base.SuspShortRead
				} else if eof {
					return base.ErrNotEnoughData
				}
			}
			d.pc = pcComment

		case pcComment:
			if d.flags&flagFCOMMENT != 0 {
				if susp, eof := d.skipNulTerminated(src); susp {
					return base.SuspShortRead
				} else if eof {
					return base.ErrNotEnoughData
				}
			}
			d.counter = 0
			d.pc = pcHCRC

		case pcHCRC:
			if d.flags&flagFHCRC != 0 {
				if susp, eof := d.skipBytes(src, 2); susp {
					return base.SuspShortRead
				} else if eof {
					return base.ErrNotEnoughData
				}
			}
			d.pc = pcPayload

		case pcPayload:
			before := dst.WI
			st := d.inner.DecodeIOWriter(dst, src, nil)
			fresh := dst.Data[before:dst.WI]
			d.crc.Update(fresh)
			d.size += uint32(len(fresh))
			d.inner.AddHistory(fresh)
			if st.IsSuspension() {
				return st
			}
			if !st.IsOK() {
				return st
			}
			d.counter = 0
			d.pc = pcCRC

		case pcCRC:
			for d.counter < 4 {
				b, susp, eof := d.readByte(src)
				if susp {
					return base.SuspShortRead
				}
				if eof {
					return base.ErrNotEnoughData
				}
				d.wantCRC |= uint32(b) << uint(8*d.counter)
				d.counter++
			}
			d.counter = 0
			d.pc = pcISIZE

		case pcISIZE:
			for d.counter < 4 {
				b, susp, eof := d.readByte(src)
				if susp {
					return base.SuspShortRead
				}
				if eof {
					return base.ErrNotEnoughData
				}
				d.wantISIZE |= uint32(b) << uint(8*d.counter)
				d.counter++
			}
			if !d.ignoreChecksum {
				if d.wantCRC != d.crc.Sum32() {
					return errInvalidCRC
				}
				if d.wantISIZE != d.size {
					return errInvalidSize
				}
			}
			d.pc = pcDone

		case pcDone:
			return base.OK
		}
	}
}

// skipBytes discards the next n bytes of src, tolerating suspension
// mid-run via d.counter.
func (d *Decoder) skipBytes(src *base.Buffer, n int) (suspend, eof bool) {
	for d.counter < n {
		_, susp, e := d.readByte(src)
		if susp {
			return true, false
		}
		if e {
			return false, true
		}
		d.counter++
	}
	d.counter = 0
	return false, false
}

// skipNulTerminated discards bytes up to and including the next NUL byte.
func (d *Decoder) skipNulTerminated(src *base.Buffer) (suspend, eof bool) {
	for {
		b, susp, e := d.readByte(src)
		if susp {
			return true, false
		}
		if e {
			return false, true
		}
		if b == 0 {
			return false, false
		}
	}
}

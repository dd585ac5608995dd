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

// Package zlib decodes the RFC 1950 zlib wrapper around a DEFLATE stream:
// a 2-byte header, an optional preset-dictionary id, the DEFLATE payload
// itself (delegated to lib/deflate), and a trailing Adler-32 checksum of
// the decompressed bytes.
package zlib

import (
	"github.com/streamcodec/streamcodec/lib/adler32"
	"github.com/streamcodec/streamcodec/lib/base"
	"github.com/streamcodec/streamcodec/lib/deflate"
)

var (
	errInvalidBadHeader            = base.MakeError("zlib: invalid input: bad header")
	errInvalidBadCompressionMethod = base.MakeError("zlib: invalid input: unsupported compression method")
	errInvalidIncorrectDictionary  = base.MakeError("zlib: invalid input: incorrect dictionary")
	errInvalidChecksum             = base.MakeError("zlib: invalid input: checksum mismatch")
	warnDictionaryRequired         = base.MakeWarning("zlib: dictionary required")
)

const (
	pcCMF = iota
	pcFLG
	pcDictID
	pcDictCheck
	pcPayload
	pcChecksum
	pcDone
)

// Decoder decodes one zlib-wrapped DEFLATE stream.
type Decoder struct {
	base.Coroutines

	inner          deflate.Decoder
	checksum       adler32.Hasher
	ignoreChecksum bool

	cmf, flg byte
	fdict    bool

	dictionarySupplied bool
	dictionaryAdler    uint32
	dictID             uint32
	dictIdx            int

	wantChecksum uint32
	csIdx        int

	pc int
}

// Initialize prepares d to decode a fresh zlib stream.
func (d *Decoder) Initialize() {
	*d = Decoder{}
	d.inner.Initialize()
	d.Coroutines.MarkInitialized()
}

// SetIgnoreChecksum controls whether the trailing Adler-32 checksum is
// verified. Decoding still reads and discards the 4 checksum bytes either
// way, since they're part of the stream's framing.
func (d *Decoder) SetIgnoreChecksum(ignore bool) { d.ignoreChecksum = ignore }

// AddDictionary supplies the preset dictionary bytes the encoder used. Per
// RFC 1950, this is only needed when the header's FDICT bit is set; call
// it either before decoding starts or after a dictionary_required warning,
// then resume DecodeIOWriter. The dictionary's Adler-32 is checked against
// the id the stream announces, and its bytes seed the DEFLATE decoder's
// history so back-references into it resolve correctly.
func (d *Decoder) AddDictionary(dict []byte) {
	d.dictionarySupplied = true
	d.dictionaryAdler = adler32.Checksum(dict)
	d.inner.AddHistory(dict)
}

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
// needed, and returns dictionary_required (a warning, not an error) if the
// stream needs a preset dictionary that hasn't been supplied yet.
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
		case pcCMF:
			b, susp, eof := d.readByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			d.cmf = b
			d.pc = pcFLG

		case pcFLG:
			b, susp, eof := d.readByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			d.flg = b
			if (uint32(d.cmf)<<8|uint32(d.flg))%31 != 0 {
				return errInvalidBadHeader
			}
			if d.cmf&0x0F != 8 {
				return errInvalidBadCompressionMethod
			}
			if d.cmf>>4 > 7 {
				return errInvalidBadHeader
			}
			if d.flg&0x20 != 0 {
				d.fdict = true
				d.pc = pcDictID
			} else {
				d.pc = pcPayload
			}

		case pcDictID:
			for d.dictIdx < 4 {
				b, susp, eof := d.readByte(src)
				if susp {
					return base.SuspShortRead
				}
				if eof {
					return base.ErrNotEnoughData
				}
				d.dictID = d.dictID<<8 | uint32(b)
				d.dictIdx++
			}
			d.pc = pcDictCheck

		case pcDictCheck:
			if !d.dictionarySupplied {
				return warnDictionaryRequired
			}
			if d.dictionaryAdler != d.dictID {
				return errInvalidIncorrectDictionary
			}
			d.pc = pcPayload

		case pcPayload:
			before := dst.WI
			st := d.inner.DecodeIOWriter(dst, src, nil)
			fresh := dst.Data[before:dst.WI]
			d.checksum.Update(fresh)
			d.inner.AddHistory(fresh)
			if st.IsSuspension() {
				return st
			}
			if !st.IsOK() {
				return st
			}
			d.pc = pcChecksum

		case pcChecksum:
			for d.csIdx < 4 {
				b, susp, eof := d.readByte(src)
				if susp {
					return base.SuspShortRead
				}
				if eof {
					return base.ErrNotEnoughData
				}
				d.wantChecksum = d.wantChecksum<<8 | uint32(b)
				d.csIdx++
			}
			if !d.ignoreChecksum && d.wantChecksum != d.checksum.Sum32() {
				return errInvalidChecksum
			}
			d.pc = pcDone

		case pcDone:
			return base.OK
		}
	}
}

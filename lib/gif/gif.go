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

// Package gif decodes the GIF89a container: the Logical Screen Descriptor,
// its global palette, a chain of extensions and Image Descriptors, and the
// LZW-compressed pixel data each Image Descriptor carries. It drives
// lib/lzwgif for the pixel codes and lib/swizzle to convert palette
// indexes into the caller's chosen pixel format.
package gif

import (
	"github.com/streamcodec/streamcodec/lib/base"
	"github.com/streamcodec/streamcodec/lib/fourcc"
	"github.com/streamcodec/streamcodec/lib/lzwgif"
	"github.com/streamcodec/streamcodec/lib/pixfmt"
	"github.com/streamcodec/streamcodec/lib/swizzle"
)

var (
	errInvalidBadMagic         = base.MakeError("gif: invalid input: bad magic")
	errInvalidBadPalette       = base.MakeError("gif: invalid input: bad palette")
	errInvalidBadLiteralWidth  = base.MakeError("gif: invalid input: bad literal width")
	errInvalidNotEnoughData    = base.MakeError("gif: invalid input: not enough data")
	errInvalidEmptyFrame       = base.MakeError("gif: invalid input: empty frame")
	errInvalidRectExceedsCanvas = base.MakeError("gif: invalid input: frame rect exceeds canvas")
)

// Quirk selects one of the named behavior toggles that relax or tighten
// the decoder's default parsing strictness. All quirks default to
// disabled and may only be changed before the first call to
// DecodeImageConfig.
type Quirk int

const (
	QuirkDelayNumDecodedFrames Quirk = iota
	QuirkFirstFrameLocalPaletteMeansBlackBackground
	QuirkHonorBackgroundColor
	QuirkIgnoreTooMuchPixelData
	QuirkImageBoundsAreStrict
	QuirkRejectEmptyFrame
	QuirkRejectEmptyPalette
	numQuirks
)

// Disposal is the Graphic Control Extension's disposal method, naming how
// a frame's pixels are treated before the next frame is composited.
type Disposal int

const (
	DisposalNone Disposal = iota
	DisposalRestoreBackground
	DisposalRestorePrevious
)

// BlendMode says how a frame's pixels combine with whatever is already on
// the canvas.
type BlendMode int

const (
	BlendSrcOver BlendMode = iota
	BlendSrc
	BlendOpaque
)

// Rect is a half-open pixel rectangle [X0,X1) x [Y0,Y1).
type Rect struct{ X0, Y0, X1, Y1 int }

// Empty reports whether r has zero width or height.
func (r Rect) Empty() bool { return r.X0 >= r.X1 || r.Y0 >= r.Y1 }

// ImageConfig is what DecodeImageConfig reports about the whole animation.
type ImageConfig struct {
	Width, Height        int
	PixelFormat          pixfmt.Format
	FirstFrameIOPosition int64
	FirstFrameIsOpaque   bool
}

// FrameConfig is what DecodeFrameConfig reports about one frame, before
// its pixel data is decoded.
type FrameConfig struct {
	Rect                  Rect
	Duration              base.Flick
	Index                 int
	IOPositionBeforeFrame int64
	Blend                 BlendMode
	Disposal              Disposal
	Background            [4]byte // BGRA
}

// FrameOptions configures DecodeFrame's pixel conversion. A nil Swizzler
// means "write raw palette indexes", i.e. pixfmt.IndexedBGRABinary.
type FrameOptions struct {
	Swizzler *swizzle.Swizzler
}

// call-sequence states. States 2 and 3 ("image-config done" and "ready
// for the first frame-config") are not externally distinguished here:
// nothing observable differs between them since SetQuirkEnabled (the
// only state-0-only operation) already closed over its window by the
// time DecodeImageConfig returns.
const (
	callBeforeImageConfig = 0
	callMetadataPending   = 1
	callReadyForFrame     = 2
	callFrameConfigDone   = 4
	callFrameDone         = 5
)

const (
	methodImageConfig = 1
	methodFrameConfig = 2
	methodFrame       = 3
)

// blockLoop stop reasons.
const (
	blockLoopNone = iota
	blockLoopFrame
	blockLoopTrailer
)

// blockLoop's internal program counter. blockLoop is driven from both
// decode_image_config and decode_frame_config: both must walk the same
// chain of extensions up to the next Image Descriptor or Trailer.
const (
	blkReadType = iota
	blkExtLabel
	blkGCEBlockSize
	blkGCEFlags
	blkGCEDelay
	blkGCETransparentIndex
	blkGCETerminator
	blkAppBlockSize
	blkAppID
	blkAppDispatch
	blkAppLoopSubSize
	blkAppLoopSubID
	blkAppLoopCount
	blkAppMetadataDrain
	blkGenericExtDrain
)

// decode_image_config's program counter.
const (
	icMagic = iota
	icLSDWidth
	icLSDHeight
	icLSDFlags
	icLSDBackground
	icLSDAspect
	icGCT
	icBlockLoopInit
	icBlockLoop
	icRectIntroducer
	icRectFields
	icFinish
)

// decode_frame_config's program counter.
const (
	fcBlockLoopInit = iota
	fcBlockLoop
	fcConsumeIntroducer
	fcRectFields
	fcPeekFlagsForBG
	fcApplyCached
)

// decode_frame's program counter.
const (
	frFlags = iota
	frLocalPalette
	frApplyTransparency
	frLitWidth
	frFillStaging
	frRunLZW
)

var phaseDelta = [5]int{1, 2, 4, 8, 8}
var phaseStart = [5]int{0, 1, 2, 4, 0}
var phaseCount = [5]int{0, 1, 2, 4, 8}

// Decoder decodes one GIF89a stream.
type Decoder struct {
	base.Coroutines

	quirks     [numQuirks]bool
	reportICCP bool
	reportXMP  bool

	width, height     int
	globalPalette     [256][4]byte
	haveGlobalPalette bool
	backgroundIndex   byte

	numLoops         int
	sawLoopExtension bool

	callSeq int

	numFrameConfigs int
	numFrames       int
	nextFrameIndex  int

	firstFrameIOPosition int64
	firstFrameIsOpaque   bool

	// Graphic Control Extension state, applies only to the next Image
	// Descriptor and is cleared once consumed.
	gcPending          bool
	gcTransparentFlag  bool
	gcTransparentIndex byte
	gcDisposal         Disposal
	gcDuration         base.Flick

	// current (most recently frame-configured) frame.
	curRect               Rect
	curLocalPalette       [256][4]byte
	curHaveLocalPalette   bool
	curTransparentActive  bool
	curTransparentIndex   byte
	curDisposal           Disposal
	curDuration           base.Flick
	curIOPosBeforeFrame   int64
	curBackground         [4]byte
	curBlend              BlendMode
	dirtyMaxExclY         int

	// pixel-stream raster state, live only during DecodeFrame.
	dstX, dstY     int
	interlacePhase int
	litWidth       uint32
	lzw            lzwgif.Decoder

	// Image Descriptor sub-block staging: a length-prefixed chain of
	// compressed bytes feeding the LZW decoder.
	staging        [4096]byte
	stagingRI      int
	stagingWI      int
	subBlockLeft    int
	haveSubBlockLen bool

	pendingMetadataFourCC  fourcc.Code
	pendingMetadataLength  int
	metadataResumeCallSeq int

	// shared block-loop (extension/image-descriptor dispatch) state,
	// driven from both DecodeImageConfig and DecodeFrameConfig.
	blockPC     int
	blockResult int
	appID       [11]byte
	appIDLen    int
	gceFlags    byte

	// generic byte/u16 scratch.
	scratch base.Scratch

	icPC    int
	fcPC    int
	framePC int

	lsdFlags byte

	// decode_image_config's magic-word and palette-size read state.
	magicBuf [6]byte
	magicIdx int

	// shared palette-read cursor, used for both the global and the
	// per-frame local palette (never active for both at once).
	palTmp   [3]byte
	palTmpIdx int
	palSlot  int

	// decode_image_config peeks past the first Image Descriptor's rect
	// (Part 0) to compute first_frame_is_opaque, caching the result so
	// decode_frame_config doesn't re-read those bytes for frame 0.
	curRectCached                bool
	firstFrameHasLocalPalettePeek bool

	// shared rect-field read cursor (left, top, width, height).
	rectFieldVals [4]uint16
	rectFieldIdx  int

	blockLoopCallSeq int

	curFrameIsFirst bool

	paletteLUT [1024]byte
	swiz       swizzle.Swizzler

	pixelScratch  [256]byte
	sawTerminator bool

	curInterlace   bool
	curPaletteSize int
}

// Initialize prepares d to decode a fresh GIF stream.
func (d *Decoder) Initialize() {
	*d = Decoder{numLoops: 1}
	d.Coroutines.MarkInitialized()
}

// SetQuirkEnabled toggles one of the named quirk behaviors. Only valid
// before DecodeImageConfig has been called.
func (d *Decoder) SetQuirkEnabled(q Quirk, enabled bool) base.Status {
	if d.callSeq != callBeforeImageConfig {
		return base.ErrBadCallSequence
	}
	if q < 0 || q >= numQuirks {
		return base.ErrBadArgument
	}
	d.quirks[q] = enabled
	return base.OK
}

// SetReportMetadata selects whether ICCP or XMP application-extension
// payloads are surfaced as metadata_reported warnings.
func (d *Decoder) SetReportMetadata(fc fourcc.Code, report bool) base.Status {
	switch fc {
	case fourcc.ICCP:
		d.reportICCP = report
	case fourcc.XMP:
		d.reportXMP = report
	default:
		return base.ErrUnsupportedOption
	}
	return base.OK
}

// NumAnimationLoops returns the Netscape/AnimExts loop count: 1 if no such
// extension was seen, 0 for "loop forever".
func (d *Decoder) NumAnimationLoops() int { return d.numLoops }

// NumDecodedFrameConfigs returns how many frame configs have been decoded.
func (d *Decoder) NumDecodedFrameConfigs() int { return d.numFrameConfigs }

// NumDecodedFrames returns how many frames' pixel data has been decoded.
func (d *Decoder) NumDecodedFrames() int { return d.numFrames }

// FrameDirtyRect returns the maximum-exclusive Y row touched by the most
// recent DecodeFrame call, paired with the frame's horizontal extent.
func (d *Decoder) FrameDirtyRect() Rect {
	r := d.curRect
	r.Y1 = d.dirtyMaxExclY
	return r
}

// MetadataFourCC returns the FourCC of the most recently reported pending
// metadata chunk.
func (d *Decoder) MetadataFourCC() fourcc.Code { return d.pendingMetadataFourCC }

// MetadataChunkLength returns the byte length of the most recently
// reported pending metadata chunk.
func (d *Decoder) MetadataChunkLength() int { return d.pendingMetadataLength }

// AckMetadataChunk acknowledges a metadata_reported warning and resumes
// normal block parsing. The chunk's bytes were already consumed while its
// length was measured, so src is accepted only to match the caller-facing
// shape of every other suspending method; it performs no further reads.
func (d *Decoder) AckMetadataChunk(src *base.Buffer) base.Status {
	if d.callSeq != callMetadataPending {
		return base.ErrBadCallSequence
	}
	d.callSeq = d.metadataResumeCallSeq
	d.pendingMetadataFourCC = 0
	d.pendingMetadataLength = 0
	return base.OK
}

// metadataResumeCallSeq remembers which call_sequence state to restore
// after AckMetadataChunk; it's set wherever callMetadataPending is
// entered.
func (d *Decoder) setMetadataPending(resumeTo int) {
	d.metadataResumeCallSeq = resumeTo
	d.callSeq = callMetadataPending
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

func (d *Decoder) peekByte(src *base.Buffer) (b byte, suspend, eof bool) {
	if src.RI >= src.WI {
		if src.Closed {
			return 0, false, true
		}
		return 0, true, false
	}
	return src.Data[src.RI], false, false
}

// readU16LE reads a little-endian uint16, resumable via d.scratch.
func (d *Decoder) readU16LE(src *base.Buffer) (v uint16, suspend, eof bool) {
	for !d.scratch.Done(2) {
		b, susp, e := d.readByte(src)
		if susp {
			return 0, true, false
		}
		if e {
			return 0, false, true
		}
		d.scratch.TakeByte(b)
	}
	v = uint16(d.scratch.Value)
	d.scratch.Reset()
	return v, false, false
}

// drainSubBlocks discards a size-prefixed sub-block chain (each a length
// byte followed by that many bytes, terminated by a zero length byte).
func (d *Decoder) drainSubBlocks(src *base.Buffer) (suspend, eof bool) {
	for {
		if !d.haveSubBlockLen {
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
			d.subBlockLeft = int(b)
			d.haveSubBlockLen = true
		}
		for d.subBlockLeft > 0 {
			_, susp, e := d.readByte(src)
			if susp {
				return true, false
			}
			if e {
				return false, true
			}
			d.subBlockLeft--
		}
		d.haveSubBlockLen = false
	}
}

// drainSubBlocksCounting is drainSubBlocks but also accumulates the number
// of payload bytes consumed into pendingMetadataLength, for ICCP/XMP
// chunks the caller asked to have reported.
func (d *Decoder) drainSubBlocksCounting(src *base.Buffer) (suspend, eof bool) {
	for {
		if !d.haveSubBlockLen {
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
			d.subBlockLeft = int(b)
			d.haveSubBlockLen = true
		}
		for d.subBlockLeft > 0 {
			_, susp, e := d.readByte(src)
			if susp {
				return true, false
			}
			if e {
				return false, true
			}
			d.subBlockLeft--
			d.pendingMetadataLength++
		}
		d.haveSubBlockLen = false
	}
}

// readPalette reads numEntries RGB triples into pal as BGRA (alpha 255),
// padding any remaining slots up to 256 with opaque black. It shares
// d.palSlot/d.palTmp/d.palTmpIdx with whichever single palette read (global
// or local) is active, so it must run to completion before another palette
// read begins.
func (d *Decoder) readPalette(src *base.Buffer, pal *[256][4]byte, numEntries int) (suspend, eof bool) {
	for d.palSlot < numEntries {
		for d.palTmpIdx < 3 {
			b, susp, e := d.readByte(src)
			if susp {
				return true, false
			}
			if e {
				return false, true
			}
			d.palTmp[d.palTmpIdx] = b
			d.palTmpIdx++
		}
		pal[d.palSlot][0] = d.palTmp[2]
		pal[d.palSlot][1] = d.palTmp[1]
		pal[d.palSlot][2] = d.palTmp[0]
		pal[d.palSlot][3] = 255
		d.palTmpIdx = 0
		d.palSlot++
	}
	for i := numEntries; i < 256; i++ {
		pal[i] = [4]byte{0, 0, 0, 255}
	}
	d.palSlot = 0
	return false, false
}

func (d *Decoder) buildPaletteLUT(pal *[256][4]byte) {
	for i := 0; i < 256; i++ {
		copy(d.paletteLUT[i*4:i*4+4], pal[i][:])
	}
}

// blockLoop walks extensions until it reaches an Image Descriptor or the
// Trailer. It leaves an Image Descriptor's 0x2C introducer unconsumed but
// consumes the Trailer's 0x3B byte. It's
// shared by decode_image_config and decode_frame_config, since both must
// parse whatever extensions sit between the previous stopping point and
// the next frame.
func (d *Decoder) blockLoop(src *base.Buffer) base.Status {
	for {
		switch d.blockPC {
		case blkReadType:
			b, susp, eof := d.peekByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			switch b {
			case 0x2C:
				d.blockResult = blockLoopFrame
				return base.OK
			case 0x3B:
				d.readByte(src)
				d.blockResult = blockLoopTrailer
				return base.OK
			case 0x21:
				d.readByte(src)
				d.blockPC = blkExtLabel
			default:
				return errInvalidBadMagic
			}

		case blkExtLabel:
			b, susp, eof := d.readByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			switch b {
			case 0xF9:
				d.blockPC = blkGCEBlockSize
			case 0xFF:
				d.appIDLen = 0
				d.blockPC = blkAppBlockSize
			default:
				d.haveSubBlockLen = false
				d.blockPC = blkGenericExtDrain
			}

		case blkGCEBlockSize:
			if _, susp, eof := d.readByte(src); susp {
				return base.SuspShortRead
			} else if eof {
				return base.ErrNotEnoughData
			}
			d.blockPC = blkGCEFlags

		case blkGCEFlags:
			b, susp, eof := d.readByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			d.gceFlags = b
			d.scratch.Reset()
			d.blockPC = blkGCEDelay

		case blkGCEDelay:
			v, susp, eof := d.readU16LE(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			d.gcDuration = base.CentisecondsToFlicks(v)
			d.blockPC = blkGCETransparentIndex

		case blkGCETransparentIndex:
			b, susp, eof := d.readByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			d.gcTransparentIndex = b
			d.gcTransparentFlag = d.gceFlags&0x01 != 0
			switch (d.gceFlags >> 2) & 0x07 {
			case 2:
				d.gcDisposal = DisposalRestoreBackground
			case 3:
				d.gcDisposal = DisposalRestorePrevious
			default:
				d.gcDisposal = DisposalNone
			}
			d.gcPending = true
			d.haveSubBlockLen = false
			d.blockPC = blkGCETerminator

		case blkGCETerminator:
			susp, eof := d.drainSubBlocks(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			d.blockPC = blkReadType

		case blkAppBlockSize:
			if _, susp, eof := d.readByte(src); susp { // always 11, unvalidated
				return base.SuspShortRead
			} else if eof {
				return base.ErrNotEnoughData
			}
			d.blockPC = blkAppID

		case blkAppID:
			for d.appIDLen < 11 {
				b, susp, eof := d.readByte(src)
				if susp {
					return base.SuspShortRead
				}
				if eof {
					return base.ErrNotEnoughData
				}
				d.appID[d.appIDLen] = b
				d.appIDLen++
			}
			d.blockPC = blkAppDispatch

		case blkAppDispatch:
			switch string(d.appID[:]) {
			case "NETSCAPE2.0", "ANIMEXTS1.0":
				d.blockPC = blkAppLoopSubSize
			case "ICCRGBG1012":
				if d.reportICCP {
					d.pendingMetadataFourCC = fourcc.ICCP
					d.pendingMetadataLength = 0
					d.haveSubBlockLen = false
					d.blockPC = blkAppMetadataDrain
				} else {
					d.haveSubBlockLen = false
					d.blockPC = blkGenericExtDrain
				}
			case "XMP DataXMP":
				if d.reportXMP {
					d.pendingMetadataFourCC = fourcc.XMP
					d.pendingMetadataLength = 0
					d.haveSubBlockLen = false
					d.blockPC = blkAppMetadataDrain
				} else {
					d.haveSubBlockLen = false
					d.blockPC = blkGenericExtDrain
				}
			default:
				d.haveSubBlockLen = false
				d.blockPC = blkGenericExtDrain
			}

		case blkAppLoopSubSize:
			b, susp, eof := d.readByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			if b == 0 {
				d.blockPC = blkReadType
				continue
			}
			if b != 3 {
				d.subBlockLeft = int(b)
				d.haveSubBlockLen = true
				d.blockPC = blkGenericExtDrain
				continue
			}
			d.blockPC = blkAppLoopSubID

		case blkAppLoopSubID:
			if _, susp, eof := d.readByte(src); susp { // sub-block id, always 0x01
				return base.SuspShortRead
			} else if eof {
				return base.ErrNotEnoughData
			}
			d.scratch.Reset()
			d.blockPC = blkAppLoopCount

		case blkAppLoopCount:
			v, susp, eof := d.readU16LE(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			n := int(v)
			if n >= 1 && n <= 65535 {
				n++
			}
			d.numLoops = n
			d.sawLoopExtension = true
			d.haveSubBlockLen = false
			d.blockPC = blkGenericExtDrain

		case blkAppMetadataDrain:
			susp, eof := d.drainSubBlocksCounting(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			if d.pendingMetadataFourCC == fourcc.XMP {
				d.pendingMetadataLength++
			}
			d.blockPC = blkReadType
			d.setMetadataPending(d.blockLoopCallSeq)
			return base.WarnMetadataReported

		case blkGenericExtDrain:
			susp, eof := d.drainSubBlocks(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			d.blockPC = blkReadType
		}
	}
}

// applyRectBounds checks rect against the current canvas size. During
// image-config (the first frame), an oversized rect grows the canvas
// unless image_bounds_are_strict is enabled; after image-config the
// canvas is already fixed, so an oversized rect is clipped instead,
// unless the quirk is enabled, in which case either case is rejected.
func (d *Decoder) applyRectBounds(rect *Rect, duringImageConfig bool) base.Status {
	if rect.X1 <= d.width && rect.Y1 <= d.height {
		return base.OK
	}
	if d.quirks[QuirkImageBoundsAreStrict] {
		return errInvalidRectExceedsCanvas
	}
	if duringImageConfig {
		if rect.X1 > d.width {
			d.width = rect.X1
		}
		if rect.Y1 > d.height {
			d.height = rect.Y1
		}
		return base.OK
	}
	if rect.X1 > d.width {
		rect.X1 = d.width
	}
	if rect.Y1 > d.height {
		rect.Y1 = d.height
	}
	return base.OK
}

// DecodeImageConfig decodes the Logical Screen Descriptor, the optional
// Global Color Table, and any extensions preceding the first Image
// Descriptor or the Trailer.
func (d *Decoder) DecodeImageConfig(dst *ImageConfig, src *base.Buffer) base.Status {
	if d.callSeq != callBeforeImageConfig {
		return base.ErrBadCallSequence
	}
	if st := d.Coroutines.CheckInitialized(); st != nil {
		return *st
	}
	if st := d.Coroutines.Enter(methodImageConfig); st != nil {
		return *st
	}
	st := d.icRun(dst, src)
	if st.IsSuspension() || st.IsWarning() {
		d.Coroutines.Leave()
		return st
	}
	if st.IsError() {
		d.Coroutines.Poison()
	}
	d.Coroutines.Leave()
	return st
}

func (d *Decoder) icRun(cfg *ImageConfig, src *base.Buffer) base.Status {
	for {
		switch d.icPC {
		case icMagic:
			for d.magicIdx < 6 {
				b, susp, eof := d.readByte(src)
				if susp {
					return base.SuspShortRead
				}
				if eof {
					return base.ErrNotEnoughData
				}
				d.magicBuf[d.magicIdx] = b
				d.magicIdx++
			}
			if d.magicBuf[0] != 'G' || d.magicBuf[1] != 'I' || d.magicBuf[2] != 'F' ||
				d.magicBuf[3] != '8' || (d.magicBuf[4] != '7' && d.magicBuf[4] != '9') || d.magicBuf[5] != 'a' {
				return errInvalidBadMagic
			}
			d.scratch.Reset()
			d.icPC = icLSDWidth

		case icLSDWidth:
			v, susp, eof := d.readU16LE(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			d.width = int(v)
			d.icPC = icLSDHeight

		case icLSDHeight:
			v, susp, eof := d.readU16LE(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			d.height = int(v)
			d.icPC = icLSDFlags

		case icLSDFlags:
			b, susp, eof := d.readByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			d.lsdFlags = b
			d.icPC = icLSDBackground

		case icLSDBackground:
			b, susp, eof := d.readByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			d.backgroundIndex = b
			d.icPC = icLSDAspect

		case icLSDAspect:
			if _, susp, eof := d.readByte(src); susp { // aspect ratio, unvalidated
				return base.SuspShortRead
			} else if eof {
				return base.ErrNotEnoughData
			}
			if d.lsdFlags&0x80 != 0 {
				d.haveGlobalPalette = true
				d.palSlot, d.palTmpIdx = 0, 0
				d.icPC = icGCT
			} else {
				d.icPC = icBlockLoopInit
			}

		case icGCT:
			n := 2 << (d.lsdFlags & 0x07)
			susp, eof := d.readPalette(src, &d.globalPalette, n)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			d.icPC = icBlockLoopInit

		case icBlockLoopInit:
			d.firstFrameIOPosition = src.AbsPos()
			d.blockPC = blkReadType
			d.blockLoopCallSeq = callBeforeImageConfig
			d.icPC = icBlockLoop

		case icBlockLoop:
			st := d.blockLoop(src)
			if st.IsWarning() {
				return st
			}
			if !st.IsOK() {
				return st
			}
			if d.blockResult == blockLoopTrailer {
				d.firstFrameIsOpaque = true
				d.icPC = icFinish
				continue
			}
			d.curIOPosBeforeFrame = src.AbsPos()
			d.icPC = icRectIntroducer

		case icRectIntroducer:
			if _, susp, eof := d.readByte(src); susp { // consume the 0x2C
				return base.SuspShortRead
			} else if eof {
				return base.ErrNotEnoughData
			}
			d.rectFieldIdx = 0
			d.scratch.Reset()
			d.icPC = icRectFields

		case icRectFields:
			for d.rectFieldIdx < 4 {
				v, susp, eof := d.readU16LE(src)
				if susp {
					return base.SuspShortRead
				}
				if eof {
					return base.ErrNotEnoughData
				}
				d.rectFieldVals[d.rectFieldIdx] = v
				d.rectFieldIdx++
			}
			left, top := int(d.rectFieldVals[0]), int(d.rectFieldVals[1])
			w, h := int(d.rectFieldVals[2]), int(d.rectFieldVals[3])
			rect := Rect{left, top, left + w, top + h}
			if st := d.applyRectBounds(&rect, true); !st.IsOK() {
				return st
			}
			d.curRect = rect
			d.curRectCached = true
			transparent := d.gcPending && d.gcTransparentFlag
			coversCanvas := rect.X0 == 0 && rect.Y0 == 0 && rect.X1 == d.width && rect.Y1 == d.height
			d.firstFrameIsOpaque = !transparent && (coversCanvas || d.quirks[QuirkHonorBackgroundColor])
			d.icPC = icFinish

		case icFinish:
			if cfg != nil {
				cfg.Width = d.width
				cfg.Height = d.height
				cfg.PixelFormat = pixfmt.IndexedBGRABinary
				cfg.FirstFrameIOPosition = d.firstFrameIOPosition
				cfg.FirstFrameIsOpaque = d.firstFrameIsOpaque
			}
			d.callSeq = callReadyForFrame
			return base.OK
		}
	}
}

func (d *Decoder) computeBackgroundColor() [4]byte {
	if d.quirks[QuirkFirstFrameLocalPaletteMeansBlackBackground] && d.nextFrameIndex == 0 && d.firstFrameHasLocalPalettePeek {
		return [4]byte{0, 0, 0, 255}
	}
	if d.quirks[QuirkHonorBackgroundColor] && d.haveGlobalPalette {
		return d.globalPalette[d.backgroundIndex]
	}
	return [4]byte{0, 0, 0, 255}
}

// DecodeFrameConfig decodes one Image Descriptor's rect and the Graphic
// Control Extension state (if any) pending for it, without touching the
// pixel data that follows.
func (d *Decoder) DecodeFrameConfig(dst *FrameConfig, src *base.Buffer) base.Status {
	if d.callSeq != callReadyForFrame && d.callSeq != callFrameDone {
		return base.ErrBadCallSequence
	}
	if st := d.Coroutines.CheckInitialized(); st != nil {
		return *st
	}
	if st := d.Coroutines.Enter(methodFrameConfig); st != nil {
		return *st
	}
	st := d.fcRun(dst, src)
	if st.IsSuspension() || st.IsWarning() {
		d.Coroutines.Leave()
		return st
	}
	if st.IsError() {
		d.Coroutines.Poison()
	}
	d.Coroutines.Leave()
	return st
}

func (d *Decoder) fcRun(cfg *FrameConfig, src *base.Buffer) base.Status {
	for {
		switch d.fcPC {
		case fcBlockLoopInit:
			if d.curRectCached {
				d.fcPC = fcPeekFlagsForBG
				continue
			}
			d.blockPC = blkReadType
			d.blockLoopCallSeq = d.callSeq
			d.fcPC = fcBlockLoop

		case fcBlockLoop:
			st := d.blockLoop(src)
			if st.IsWarning() {
				return st
			}
			if !st.IsOK() {
				return st
			}
			if d.blockResult == blockLoopTrailer {
				return base.WarnEndOfData
			}
			d.curIOPosBeforeFrame = src.AbsPos()
			d.fcPC = fcConsumeIntroducer

		case fcConsumeIntroducer:
			if _, susp, eof := d.readByte(src); susp {
				return base.SuspShortRead
			} else if eof {
				return base.ErrNotEnoughData
			}
			d.rectFieldIdx = 0
			d.scratch.Reset()
			d.fcPC = fcRectFields

		case fcRectFields:
			for d.rectFieldIdx < 4 {
				v, susp, eof := d.readU16LE(src)
				if susp {
					return base.SuspShortRead
				}
				if eof {
					return base.ErrNotEnoughData
				}
				d.rectFieldVals[d.rectFieldIdx] = v
				d.rectFieldIdx++
			}
			left, top := int(d.rectFieldVals[0]), int(d.rectFieldVals[1])
			w, h := int(d.rectFieldVals[2]), int(d.rectFieldVals[3])
			rect := Rect{left, top, left + w, top + h}
			if st := d.applyRectBounds(&rect, false); !st.IsOK() {
				return st
			}
			d.curRect = rect
			d.fcPC = fcPeekFlagsForBG

		case fcPeekFlagsForBG:
			if d.quirks[QuirkFirstFrameLocalPaletteMeansBlackBackground] && d.nextFrameIndex == 0 {
				b, susp, eof := d.peekByte(src)
				if susp {
					return base.SuspShortRead
				}
				if eof {
					return base.ErrNotEnoughData
				}
				d.firstFrameHasLocalPalettePeek = b&0x80 != 0
			}
			d.fcPC = fcApplyCached

		case fcApplyCached:
			if d.quirks[QuirkRejectEmptyFrame] && d.curRect.Empty() {
				return errInvalidEmptyFrame
			}
			if d.gcPending {
				d.curTransparentActive = d.gcTransparentFlag
				d.curTransparentIndex = d.gcTransparentIndex
				d.curDisposal = d.gcDisposal
				d.curDuration = d.gcDuration
				d.gcPending = false
			} else {
				d.curTransparentActive = false
				d.curTransparentIndex = 0
				d.curDisposal = DisposalNone
				d.curDuration = 0
			}
			switch {
			case d.curTransparentActive:
				d.curBlend = BlendSrcOver
			case d.curRect == (Rect{0, 0, d.width, d.height}):
				d.curBlend = BlendOpaque
			default:
				d.curBlend = BlendSrc
			}
			d.curBackground = d.computeBackgroundColor()
			d.curFrameIsFirst = d.nextFrameIndex == 0

			if cfg != nil {
				cfg.Rect = d.curRect
				cfg.Duration = d.curDuration
				cfg.Index = d.nextFrameIndex
				cfg.IOPositionBeforeFrame = d.curIOPosBeforeFrame
				cfg.Blend = d.curBlend
				cfg.Disposal = d.curDisposal
				cfg.Background = d.curBackground
			}
			d.numFrameConfigs++
			d.nextFrameIndex++
			d.curRectCached = false
			d.fcPC = fcBlockLoopInit
			d.callSeq = callFrameConfigDone
			return base.OK
		}
	}
}

// writeIndices swizzles indices into dst, a flat raster of the whole
// canvas (width*height pixels in the swizzler's destination format),
// advancing the interlace-aware row cursor as each row fills.
func (d *Decoder) writeIndices(dst *base.Buffer, indices []byte) base.Status {
	bpp := d.swiz.BytesPerPixel()
	stride := d.width * bpp
	for len(indices) > 0 {
		rowRemaining := d.curRect.X1 - d.dstX
		if rowRemaining <= 0 {
			if d.quirks[QuirkIgnoreTooMuchPixelData] {
				return base.OK
			}
			return base.ErrTooMuchData
		}
		n := len(indices)
		if n > rowRemaining {
			n = rowRemaining
		}
		dstOff := d.dstY*stride + d.dstX*bpp
		if dstOff+n*bpp > len(dst.Data) {
			if d.quirks[QuirkIgnoreTooMuchPixelData] {
				return base.OK
			}
			return base.ErrTooMuchData
		}
		_, nSrc := d.swiz.Swizzle(dst.Data[dstOff:dstOff+n*bpp], indices[:n])
		indices = indices[nSrc:]
		d.dstX += nSrc
		if d.dstX >= d.curRect.X1 {
			d.advanceRow(dst, stride, bpp)
			if d.dstY >= d.curRect.Y1 && len(indices) > 0 {
				if d.quirks[QuirkIgnoreTooMuchPixelData] {
					return base.OK
				}
				return base.ErrTooMuchData
			}
		}
	}
	return base.OK
}

// advanceRow moves the raster cursor to the next row, following the
// non-interlaced (delta 1) or interlaced walk. The interlaced walk runs
// phase 4 down to phase 1 (starting rows 0,4,2,1; deltas 8,8,4,2). On the
// first frame, with no transparent index active, a just-completed
// interlaced row is also copied into the next phaseCount[phase]-1 rows
// (8, 4 or 2 rows in all), so a partial decode previews reasonably.
func (d *Decoder) advanceRow(dst *base.Buffer, stride, bpp int) {
	completedY := d.dstY
	phase := d.interlacePhase
	d.dstX = d.curRect.X0
	d.dstY += phaseDelta[phase]

	if d.curFrameIsFirst && !d.curTransparentActive && phase >= 2 {
		rowStart := completedY*stride + d.curRect.X0*bpp
		rowEnd := completedY*stride + d.curRect.X1*bpp
		if rowEnd <= len(dst.Data) {
			row := dst.Data[rowStart:rowEnd]
			for dup := completedY + 1; dup < completedY+phaseCount[phase] && dup < d.curRect.Y1; dup++ {
				copy(dst.Data[dup*stride+d.curRect.X0*bpp:dup*stride+d.curRect.X1*bpp], row)
			}
		}
	}

	for phase > 1 && d.dstY >= d.curRect.Y1 {
		phase--
		d.dstY = d.curRect.Y0 + phaseStart[phase]
	}
	d.interlacePhase = phase
	if d.dstY > d.dirtyMaxExclY {
		d.dirtyMaxExclY = d.dstY
	}
}

// DecodeFrame decodes the pixel data for the frame most recently reported
// by DecodeFrameConfig, swizzling palette indexes into dst (a flat raster
// covering the whole canvas in the destination pixel format) as they're
// produced.
func (d *Decoder) DecodeFrame(dst, src *base.Buffer, opts FrameOptions) base.Status {
	if d.callSeq != callFrameConfigDone {
		return base.ErrBadCallSequence
	}
	if st := d.Coroutines.CheckInitialized(); st != nil {
		return *st
	}
	if st := d.Coroutines.Enter(methodFrame); st != nil {
		return *st
	}
	st := d.frameRun(dst, src, opts)
	if st.IsSuspension() {
		d.Coroutines.Leave()
		return st
	}
	if st.IsError() {
		d.Coroutines.Poison()
	}
	d.Coroutines.Leave()
	return st
}

func (d *Decoder) frameRun(dst, src *base.Buffer, opts FrameOptions) base.Status {
	for {
		switch d.framePC {
		case frFlags:
			b, susp, eof := d.readByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			d.curHaveLocalPalette = b&0x80 != 0
			d.curInterlace = b&0x40 != 0
			d.curPaletteSize = 2 << (b & 0x07)
			if d.curHaveLocalPalette {
				d.palSlot, d.palTmpIdx = 0, 0
				d.framePC = frLocalPalette
			} else {
				if d.quirks[QuirkRejectEmptyPalette] && !d.haveGlobalPalette {
					return errInvalidBadPalette
				}
				d.framePC = frApplyTransparency
			}

		case frLocalPalette:
			susp, eof := d.readPalette(src, &d.curLocalPalette, d.curPaletteSize)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			d.framePC = frApplyTransparency

		case frApplyTransparency:
			working := d.globalPalette
			if d.curHaveLocalPalette {
				working = d.curLocalPalette
			}
			if d.curTransparentActive {
				working[1] = working[d.curTransparentIndex]
				working[d.curTransparentIndex] = [4]byte{0, 0, 0, 0}
			}
			d.buildPaletteLUT(&working)

			dstFmt := pixfmt.IndexedBGRABinary
			if opts.Swizzler != nil {
				d.swiz = *opts.Swizzler
			} else {
				sw, ok := swizzle.Prepare(dstFmt, d.paletteLUT[:])
				if !ok {
					return base.ErrUnsupportedOption
				}
				d.swiz = sw
			}

			d.dstX = d.curRect.X0
			if d.curInterlace {
				d.interlacePhase = 4
				d.dstY = d.curRect.Y0 + phaseStart[4]
			} else {
				d.interlacePhase = 0
				d.dstY = d.curRect.Y0
			}
			d.dirtyMaxExclY = d.curRect.Y0
			d.framePC = frLitWidth

		case frLitWidth:
			b, susp, eof := d.readByte(src)
			if susp {
				return base.SuspShortRead
			}
			if eof {
				return base.ErrNotEnoughData
			}
			if b < 2 || b > 8 {
				return errInvalidBadLiteralWidth
			}
			d.litWidth = uint32(b)
			if st := d.lzw.Initialize(d.litWidth); !st.IsOK() {
				return st
			}
			d.stagingRI, d.stagingWI = 0, 0
			d.haveSubBlockLen = false
			d.sawTerminator = false
			d.framePC = frFillStaging

		case frFillStaging:
			if d.stagingRI > 0 {
				n := copy(d.staging[:], d.staging[d.stagingRI:d.stagingWI])
				d.stagingWI = n
				d.stagingRI = 0
			}
			for !d.sawTerminator && d.stagingWI < len(d.staging)-255 {
				if !d.haveSubBlockLen {
					b, susp, eof := d.readByte(src)
					if susp {
						return base.SuspShortRead
					}
					if eof {
						return base.ErrNotEnoughData
					}
					if b == 0 {
						d.sawTerminator = true
						break
					}
					d.subBlockLeft = int(b)
					d.haveSubBlockLen = true
				}
				for d.subBlockLeft > 0 {
					b, susp, eof := d.readByte(src)
					if susp {
						return base.SuspShortRead
					}
					if eof {
						return base.ErrNotEnoughData
					}
					d.staging[d.stagingWI] = b
					d.stagingWI++
					d.subBlockLeft--
				}
				d.haveSubBlockLen = false
			}
			d.framePC = frRunLZW

		case frRunLZW:
			stagingBuf := &base.Buffer{Data: d.staging[:], RI: d.stagingRI, WI: d.stagingWI, Closed: d.sawTerminator}
			pixelBuf := &base.Buffer{Data: d.pixelScratch[:]}
			st := d.lzw.DecodeIOWriter(pixelBuf, stagingBuf, nil)
			d.stagingRI = stagingBuf.RI
			d.stagingWI = stagingBuf.WI
			if pixelBuf.WI > 0 {
				if wst := d.writeIndices(dst, pixelBuf.Data[:pixelBuf.WI]); !wst.IsOK() {
					return wst
				}
			}
			switch {
			case st.IsOK():
				d.numFrames++
				d.callSeq = callFrameDone
				d.framePC = frFlags
				return base.OK
			case st == base.SuspShortWrite:
				continue
			case st == base.SuspShortRead:
				if d.sawTerminator {
					return errInvalidNotEnoughData
				}
				d.framePC = frFillStaging
				continue
			default:
				return st
			}
		}
	}
}

// RestartFrame rewinds decoding to the Image Descriptor at ioPosition,
// which the caller is responsible for seeking src to before the next
// DecodeFrameConfig call; index becomes that frame's reported Index.
// ioPosition is not validated here: if it doesn't actually land on an
// Image Descriptor, the next DecodeFrameConfig call fails with whatever
// parse error that position produces.
func (d *Decoder) RestartFrame(index int, ioPosition int64) base.Status {
	if d.callSeq == callBeforeImageConfig {
		return base.ErrBadCallSequence
	}
	if index < 0 {
		return base.ErrBadArgument
	}
	d.nextFrameIndex = index
	d.curIOPosBeforeFrame = ioPosition
	d.curRectCached = false
	d.gcPending = false
	d.blockPC = blkReadType
	d.fcPC = fcBlockLoopInit
	d.framePC = frFlags
	d.callSeq = callReadyForFrame
	return base.OK
}

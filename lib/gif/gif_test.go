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

package gif

import (
	"bytes"
	"image"
	"image/color"
	stdgif "image/gif"
	"testing"

	"github.com/streamcodec/streamcodec/lib/base"
)

// reveal grows src.WI by chunkLen each time src runs dry, simulating a
// caller feeding the stream piecemeal; chunkLen<=0 reveals everything at
// once.
func reveal(src *base.Buffer, raw []byte, chunkLen int) {
	if src.RI < src.WI {
		return
	}
	if src.WI < len(raw) {
		next := src.WI + chunkLen
		if chunkLen <= 0 || next > len(raw) {
			next = len(raw)
		}
		src.WI = next
	}
	if src.WI >= len(raw) {
		src.Closed = true
	}
}

// decodeFullAnimation drives a Decoder through image config and every
// frame config/frame pair to completion, feeding raw in chunkLen-sized
// pieces.
func decodeFullAnimation(t *testing.T, raw []byte, chunkLen int) (*Decoder, ImageConfig, [][]byte, []FrameConfig) {
	t.Helper()
	var d Decoder
	d.Initialize()
	if chunkLen <= 0 {
		chunkLen = len(raw) + 1
	}
	src := &base.Buffer{Data: raw}

	var cfg ImageConfig
	for {
		reveal(src, raw, chunkLen)
		st := d.DecodeImageConfig(&cfg, src)
		if st.IsSuspension() {
			continue
		}
		if !st.IsOK() {
			t.Fatalf("DecodeImageConfig: %v", st)
		}
		break
	}

	canvas := &base.Buffer{Data: make([]byte, cfg.Width*cfg.Height)}
	var frames [][]byte
	var fcs []FrameConfig
	for {
		var fc FrameConfig
		var st base.Status
		for {
			reveal(src, raw, chunkLen)
			st = d.DecodeFrameConfig(&fc, src)
			if st.IsSuspension() {
				continue
			}
			break
		}
		if st == base.WarnEndOfData {
			break
		}
		if !st.IsOK() {
			t.Fatalf("DecodeFrameConfig: %v", st)
		}
		for {
			reveal(src, raw, chunkLen)
			st = d.DecodeFrame(canvas, src, FrameOptions{})
			if st.IsSuspension() {
				continue
			}
			break
		}
		if !st.IsOK() {
			t.Fatalf("DecodeFrame: %v", st)
		}
		frames = append(frames, append([]byte(nil), canvas.Data...))
		fcs = append(fcs, fc)
	}
	return &d, cfg, frames, fcs
}

func TestDecodeSingleOpaqueFrame(t *testing.T) {
	w, h := 4, 3
	pal := color.Palette{
		color.RGBA{0, 0, 0, 255},
		color.RGBA{255, 0, 0, 255},
		color.RGBA{0, 255, 0, 255},
		color.RGBA{0, 0, 255, 255},
	}
	img := image.NewPaletted(image.Rect(0, 0, w, h), pal)
	for i := range img.Pix {
		img.Pix[i] = byte(i % len(pal))
	}

	var buf bytes.Buffer
	if err := stdgif.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}

	for _, chunkLen := range []int{0, 1, 5} {
		_, cfg, frames, fcs := decodeFullAnimation(t, buf.Bytes(), chunkLen)
		if cfg.Width != w || cfg.Height != h {
			t.Fatalf("chunkLen=%d: got %dx%d, want %dx%d", chunkLen, cfg.Width, cfg.Height, w, h)
		}
		if len(frames) != 1 {
			t.Fatalf("chunkLen=%d: got %d frames, want 1", chunkLen, len(frames))
		}
		if !bytes.Equal(frames[0], img.Pix) {
			t.Fatalf("chunkLen=%d: pixel mismatch: got %v, want %v", chunkLen, frames[0], img.Pix)
		}
		if fcs[0].Rect != (Rect{0, 0, w, h}) {
			t.Fatalf("chunkLen=%d: rect mismatch: %+v", chunkLen, fcs[0].Rect)
		}
		if fcs[0].Blend != BlendOpaque {
			t.Fatalf("chunkLen=%d: got blend %v, want BlendOpaque", chunkLen, fcs[0].Blend)
		}
		if !cfg.FirstFrameIsOpaque {
			t.Fatalf("chunkLen=%d: want FirstFrameIsOpaque", chunkLen)
		}
	}
}

func TestDecodeMultiFrameDisposalAndDelay(t *testing.T) {
	w, h := 2, 2
	pal := color.Palette{color.RGBA{0, 0, 0, 255}, color.RGBA{255, 255, 255, 255}}
	mkFrame := func(v byte) *image.Paletted {
		img := image.NewPaletted(image.Rect(0, 0, w, h), pal)
		for i := range img.Pix {
			img.Pix[i] = v
		}
		return img
	}
	g := &stdgif.GIF{
		Image:    []*image.Paletted{mkFrame(0), mkFrame(1), mkFrame(0)},
		Delay:    []int{10, 20, 30},
		Disposal: []byte{stdgif.DisposalNone, stdgif.DisposalBackground, stdgif.DisposalPrevious},
	}
	var buf bytes.Buffer
	if err := stdgif.EncodeAll(&buf, g); err != nil {
		t.Fatal(err)
	}

	wantPixByFrame := [][]byte{
		bytes.Repeat([]byte{0}, w*h),
		bytes.Repeat([]byte{1}, w*h),
		bytes.Repeat([]byte{0}, w*h),
	}
	wantDurations := []base.Flick{
		base.CentisecondsToFlicks(10),
		base.CentisecondsToFlicks(20),
		base.CentisecondsToFlicks(30),
	}
	wantDisposal := []Disposal{DisposalNone, DisposalRestoreBackground, DisposalRestorePrevious}

	for _, chunkLen := range []int{0, 1, 3} {
		_, _, frames, fcs := decodeFullAnimation(t, buf.Bytes(), chunkLen)
		if len(frames) != 3 {
			t.Fatalf("chunkLen=%d: got %d frames, want 3", chunkLen, len(frames))
		}
		for i := range frames {
			if !bytes.Equal(frames[i], wantPixByFrame[i]) {
				t.Fatalf("chunkLen=%d frame %d: got %v, want %v", chunkLen, i, frames[i], wantPixByFrame[i])
			}
			if fcs[i].Duration != wantDurations[i] {
				t.Fatalf("chunkLen=%d frame %d: got duration %v, want %v", chunkLen, i, fcs[i].Duration, wantDurations[i])
			}
			if fcs[i].Disposal != wantDisposal[i] {
				t.Fatalf("chunkLen=%d frame %d: got disposal %v, want %v", chunkLen, i, fcs[i].Disposal, wantDisposal[i])
			}
			if fcs[i].Index != i {
				t.Fatalf("chunkLen=%d frame %d: got index %d", chunkLen, i, fcs[i].Index)
			}
		}
	}
}

// netscapeOnlyGIF is a 1x1, frame-less GIF89a stream: just a Logical
// Screen Descriptor and a NETSCAPE2.0 Application Extension declaring a
// the given loop count, then the Trailer. It exercises the "+1 unless it's
// 0 (loop forever)" loop-count correction without needing any pixel data.
func netscapeOnlyGIF(loopCountLE [2]byte) []byte {
	b := []byte{}
	b = append(b, "GIF89a"...)
	b = append(b, 1, 0, 1, 0) // width=1, height=1
	b = append(b, 0, 0, 0)    // flags, background index, aspect ratio
	b = append(b, 0x21, 0xFF, 0x0B)
	b = append(b, "NETSCAPE2.0"...)
	b = append(b, 0x03, 0x01, loopCountLE[0], loopCountLE[1])
	b = append(b, 0x00) // sub-block terminator
	b = append(b, 0x3B) // trailer
	return b
}

func TestNetscapeLoopCountParsing(t *testing.T) {
	var d Decoder
	d.Initialize()
	raw := netscapeOnlyGIF([2]byte{7, 0})
	src := &base.Buffer{Data: raw, WI: len(raw), Closed: true}
	var cfg ImageConfig
	if st := d.DecodeImageConfig(&cfg, src); !st.IsOK() {
		t.Fatalf("DecodeImageConfig: %v", st)
	}
	if d.NumAnimationLoops() != 8 {
		t.Fatalf("got %d loops, want 8 (7+1)", d.NumAnimationLoops())
	}
}

func TestNetscapeLoopForever(t *testing.T) {
	var d Decoder
	d.Initialize()
	raw := netscapeOnlyGIF([2]byte{0, 0})
	src := &base.Buffer{Data: raw, WI: len(raw), Closed: true}
	var cfg ImageConfig
	if st := d.DecodeImageConfig(&cfg, src); !st.IsOK() {
		t.Fatalf("DecodeImageConfig: %v", st)
	}
	if d.NumAnimationLoops() != 0 {
		t.Fatalf("got %d loops, want 0 (loop forever)", d.NumAnimationLoops())
	}
}

func TestBadMagic(t *testing.T) {
	var d Decoder
	d.Initialize()
	raw := []byte("GIF87x\x01\x00\x01\x00\x00\x00\x00")
	src := &base.Buffer{Data: raw, WI: len(raw), Closed: true}
	var cfg ImageConfig
	if st := d.DecodeImageConfig(&cfg, src); st != errInvalidBadMagic {
		t.Fatalf("got %v, want errInvalidBadMagic", st)
	}
}

func TestBadLiteralWidth(t *testing.T) {
	var d Decoder
	d.Initialize()
	raw := []byte{}
	raw = append(raw, "GIF89a"...)
	raw = append(raw, 1, 0, 1, 0, 0, 0, 0) // 1x1 canvas, no GCT
	raw = append(raw, 0x2C, 0, 0, 0, 0, 1, 0, 1, 0)
	raw = append(raw, 0x00) // Image Descriptor flags: no local palette
	raw = append(raw, 9)    // invalid LZW minimum code size (want 2..8)

	src := &base.Buffer{Data: raw, WI: len(raw), Closed: true}
	var cfg ImageConfig
	if st := d.DecodeImageConfig(&cfg, src); !st.IsOK() {
		t.Fatalf("DecodeImageConfig: %v", st)
	}
	var fc FrameConfig
	if st := d.DecodeFrameConfig(&fc, src); !st.IsOK() {
		t.Fatalf("DecodeFrameConfig: %v", st)
	}
	dst := &base.Buffer{Data: make([]byte, 1)}
	if st := d.DecodeFrame(dst, src, FrameOptions{}); st != errInvalidBadLiteralWidth {
		t.Fatalf("got %v, want errInvalidBadLiteralWidth", st)
	}
}

func TestBadCallSequence(t *testing.T) {
	var d Decoder
	d.Initialize()
	var fc FrameConfig
	src := &base.Buffer{}
	if st := d.DecodeFrameConfig(&fc, src); st != base.ErrBadCallSequence {
		t.Fatalf("got %v, want ErrBadCallSequence (decode_frame_config before decode_image_config)", st)
	}
}

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

package deflate

// Entry tags, packed into the top 8 bits of a table entry.
const (
	tagLiteral   uint32 = 0
	tagLength    uint32 = 1
	tagEndOfBlk  uint32 = 2
	tagRedirect  uint32 = 3
	tagDistance  uint32 = 4
	tagErr       uint32 = 5
)

const (
	rootBits  = 9
	rootSize  = 1 << rootBits
	tableSize = 1024
	maxBits   = 15
)

// huffmanTable is a two-level decode table: one contiguous [1024]uint32
// array serving both the primary region
// (entries[0:512], indexed directly by the low 9 bits of the bit buffer)
// and the secondary region (entries[512:1024]), reached through a
// tagRedirect entry in the primary region.
type huffmanTable struct {
	entries [tableSize]uint32
}

func makeEntry(tag, payload, extraBits, numBits uint32) uint32 {
	return (numBits & 0xF) | ((extraBits & 0xF) << 4) | ((payload & 0xFFFF) << 8) | ((tag & 0xFF) << 24)
}

func reverseBits(v uint32, n int) uint32 {
	r := uint32(0)
	for i := 0; i < n; i++ {
		r = (r << 1) | (v & 1)
		v >>= 1
	}
	return r
}

// build constructs t from a canonical code-length list, calling
// entryFor(sym, length) to produce the packed table entry for each used
// symbol. distanceQuirk, when true, enables the single-symbol degenerate
// distance tree RFC 1951 §3.2.6 allows as a special case (both codes 0
// and 1, each 1 bit, map to that one symbol). allowIncomplete, when true, accepts an
// under-subscribed code without that quirk applying (the fixed distance
// table is deliberately under-subscribed: 30 five-bit codes out of 32);
// every slot the code never assigns decodes as errInvalidBadSymbol rather
// than a phantom zero-bit symbol, so hostile input that hits one of those
// patterns fails cleanly instead of spinning.
func (t *huffmanTable) build(lengths []int, distanceQuirk, allowIncomplete bool, entryFor func(sym, length int) uint32) error {
	invalid := makeEntry(tagErr, 0, 0, 1)
	for i := range t.entries {
		t.entries[i] = invalid
	}

	var count [maxBits + 1]int
	numSyms := 0
	for _, l := range lengths {
		if l < 0 || l > maxBits {
			return errInvalidBadHuffmanTree
		}
		count[l]++
		if l != 0 {
			numSyms++
		}
	}

	left := 1
	for bits := 1; bits <= maxBits; bits++ {
		left <<= 1
		left -= count[bits]
		if left < 0 {
			return errInvalidBadHuffmanTree
		}
	}
	if left != 0 {
		if distanceQuirk && numSyms == 1 && count[1] == 1 {
			// The real-world quirk: a lone 1-bit distance code. Accept it
			// and fill the whole primary table, mapping both possible
			// 1-bit values to that one symbol.
			sym := -1
			for s, l := range lengths {
				if l == 1 {
					sym = s
					break
				}
			}
			entry := entryFor(sym, 1)
			for idx := 0; idx < rootSize; idx++ {
				t.entries[idx] = entry
			}
			return nil
		}
		if !allowIncomplete {
			return errInvalidBadHuffmanTree
		}
	}

	// RFC 1951 §3.2.2's canonical code assignment, skipping the
	// zero-length bucket.
	var nextCode [maxBits + 1]uint32
	code := uint32(0)
	for bits := 2; bits <= maxBits; bits++ {
		code = (code + uint32(count[bits-1])) << 1
		nextCode[bits] = code
	}

	// Pass 1: find, for every primary (low rootBits) prefix that needs a
	// secondary sub-table, the widest extra-bit count among codes sharing
	// that prefix.
	var maxExtra [rootSize]int
	type longCode struct {
		sym, length int
		rev         uint32
	}
	var longCodes []longCode

	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		c := nextCode[l]
		nextCode[l]++
		rev := reverseBits(c, l)
		if l > rootBits {
			prefix := rev & (rootSize - 1)
			extra := l - rootBits
			if extra > maxExtra[prefix] {
				maxExtra[prefix] = extra
			}
			longCodes = append(longCodes, longCode{sym, l, rev})
		} else {
			entry := entryFor(sym, l)
			step := 1 << uint(l)
			for idx := int(rev); idx < rootSize; idx += step {
				t.entries[idx] = entry
			}
		}
	}

	if len(longCodes) == 0 {
		return nil
	}

	// Pass 2: allocate secondary sub-tables, in prefix order, out of the
	// entries[512:1024] region.
	var subBase [rootSize]int
	next := rootSize
	for prefix := 0; prefix < rootSize; prefix++ {
		if maxExtra[prefix] == 0 {
			continue
		}
		size := 1 << uint(maxExtra[prefix])
		if next+size > tableSize {
			return errInternalSecondaryOverflow
		}
		subBase[prefix] = next
		t.entries[prefix] = makeEntry(tagRedirect, uint32(next), uint32(maxExtra[prefix]), rootBits)
		next += size
	}

	for _, lc := range longCodes {
		prefix := lc.rev & (rootSize - 1)
		base := subBase[prefix]
		width := maxExtra[prefix]
		sub := lc.rev >> rootBits
		// entryFor doesn't know about the primary/secondary split, so its
		// numBits field (the full code length) must be overridden: the
		// primary lookup already consumed rootBits, so only the remainder
		// should be consumed when this secondary entry is chosen.
		entry := entryFor(lc.sym, lc.length)
		entry = (entry &^ 0xF) | uint32(lc.length-rootBits)
		step := 1 << uint(lc.length-rootBits)
		limit := 1 << uint(width)
		for idx := int(sub); idx < limit; idx += step {
			t.entries[base+idx] = entry
		}
	}
	return nil
}

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

// codeOrder is RFC 1951 §3.2.7's order for reading the 3-bit code-length
// code lengths.
var codeOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// lengthBase and lengthExtra are RFC 1951 §3.2.5's length tables, indexed
// by (symbol - 257), symbols 257..285. Symbol 285 has base 258 and 0 extra
// bits.
var lengthBase = [29]uint32{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
	35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
}
var lengthExtra = [29]uint32{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// distBase and distExtra are RFC 1951 §3.2.5's distance tables, indexed by
// the distance symbol 0..29.
var distBase = [30]uint32{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
	257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}
var distExtra = [30]uint32{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// fixedLitLenLengths and fixedDistLengths are RFC 1951 §3.2.6's fixed
// Huffman code lengths for block type 1.
var fixedLitLenLengths = func() [288]int {
	var a [288]int
	for i := 0; i <= 143; i++ {
		a[i] = 8
	}
	for i := 144; i <= 255; i++ {
		a[i] = 9
	}
	for i := 256; i <= 279; i++ {
		a[i] = 7
	}
	for i := 280; i <= 287; i++ {
		a[i] = 8
	}
	return a
}()

var fixedDistLengths = func() [30]int {
	var a [30]int
	for i := range a {
		a[i] = 5
	}
	return a
}()

const (
	maxLitLenSymbols = 286
	maxDistSymbols   = 30
	maxCodeLenSymbol = 19

	maxHistory = 32768
)

package emit

import "lzd/internal/seq"

// A padding run of at least this many bytes separates code ranges.
const padRun = 16

// isPadding reports whether b is a common padding byte: zero fill, x86 NOP
// or INT3.
func isPadding(b byte) bool {
	return b == 0x00 || b == 0x90 || b == 0xcc
}

// allPadding reports whether every byte of window is padding.
func allPadding(window []byte) bool {
	for _, b := range window {
		if !isPadding(b) {
			return false
		}
	}
	return true
}

// scanRanges walks text left to right emitting maximal code ranges. A run
// of padRun consecutive padding bytes ends the current range; shorter
// padding runs stay inside it. The result is ordered by offset and
// non-overlapping.
func scanRanges(text []byte, base uint64) *seq.Seq[*Range] {
	out := seq.New[*Range]()
	i := 0
	for i < len(text) {
		if isPadding(text[i]) {
			i++
			continue
		}
		start := i
		for i < len(text) {
			if i+padRun <= len(text) && allPadding(text[i:i+padRun]) {
				break
			}
			i++
		}
		if n := i - start; n > 0 {
			out.Push(&Range{
				Vaddr: base + uint64(start),
				Off:   start,
				Len:   n,
			})
		}
	}
	return out
}

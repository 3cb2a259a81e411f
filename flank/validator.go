// Package flank scores how well a read's projected flanks agree with the
// reference, the "flank validator" of spec.md §4.2.
package flank

import "github.com/pziarsolo/repeatseq/cigar"

// Result is the outcome of validating one read's projected flanks against
// the reference window.
type Result struct {
	LeftMatches  int
	RightMatches int
	// MinFlank is min(LeftMatches, RightMatches), recorded per read for the
	// evidence aggregator's sum_min_flank (spec.md §3/§4.4).
	MinFlank int
	Pass     bool
}

// Validate counts consecutive matching bases moving outward from the repeat
// in both flanks and reports pass/fail against consLeft/consRight thresholds
// (spec.md §4.2's cons_left_flank/cons_right_flank, default 3 each).
//
// pre and post are the projector's output (cigar.Project); leftFlank and
// rightFlank are the corresponding uppercase reference flanks in genome
// order (leftFlank's last byte and rightFlank's first byte are adjacent to
// the repeat).
func Validate(pre, post []cigar.Cell, leftFlank, rightFlank string, consLeft, consRight int) Result {
	left := scanOutward(reverseCells(pre), reverseString(leftFlank))
	right := scanOutward(post, rightFlank)

	r := Result{LeftMatches: left, RightMatches: right}
	if left < right {
		r.MinFlank = left
	} else {
		r.MinFlank = right
	}
	r.Pass = left >= consLeft && right >= consRight
	return r
}

// scanOutward counts consecutive matches walking cells[0], cells[1], ... in
// order (cells[0] adjacent to the repeat). The very first mismatch — whether
// it is a hard base mismatch or a merely-tolerable Missing/SoftClipped/
// Deletion cell — permanently stops the count; it is never resumed by a
// later real match, matching original_source/repeatseq.cpp's consStreak,
// which is cleared unconditionally on any mismatch (lines 550-586) and never
// set again for the rest of the scan.
func scanOutward(cells []cigar.Cell, ref string) int {
	n := len(cells)
	if len(ref) < n {
		n = len(ref)
	}
	matches := 0
	for i := 0; i < n; i++ {
		if !matchesRef(cells[i], ref[i]) {
			break
		}
		matches++
	}
	return matches
}

func matchesRef(c cigar.Cell, ref byte) bool {
	return c.Kind == cigar.Base && upper(c.Base) == upper(ref)
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 32
	}
	return b
}

func reverseCells(cells []cigar.Cell) []cigar.Cell {
	out := make([]cigar.Cell, len(cells))
	for i, c := range cells {
		out[len(cells)-1-i] = c
	}
	return out
}

func reverseString(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

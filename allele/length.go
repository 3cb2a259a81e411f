// Package allele turns a validated projection into an observed repeat
// length and reduces many reads' observations into per-length evidence, the
// "repeat length extractor" and "evidence aggregator" of spec.md §4.3/§4.4.
package allele

import "github.com/pziarsolo/repeatseq/cigar"

// ExtractLength returns the observed allele length for one projected read:
// the aligned (repeat) segment's width after stripping deletion cells, plus
// a bonus for any inserted bases whose anchor falls within that segment
// (spec.md §4.3's "strip '-' ... bumped by gt_bonus", and the §8 invariant
// that a k-base deletion inside the repeat yields length region_length-k).
func ExtractLength(proj cigar.Projection) int {
	stripped := 0
	for _, c := range proj.Aligned {
		if c.Kind != cigar.Deletion {
			stripped++
		}
	}
	return stripped + insertionBonus(proj)
}

// insertionBonus counts inserted-base slots whose anchor places them inside
// the aligned segment, replicating repeatseq.cpp's bound
// `(a+1) > L && (a+1) < L+center_length` (lines 469-474): strictly inside,
// excluding the aligned segment's own last position.
func insertionBonus(proj cigar.Projection) int {
	flankLen := len(proj.Pre)
	centerLen := len(proj.Aligned)
	alignedStart := flankLen
	alignedEnd := flankLen + centerLen - 1 // exclusive, matches cpp's strict "<"

	all := make([]cigar.Cell, 0, flankLen*2+centerLen)
	all = append(all, proj.Pre...)
	all = append(all, proj.Aligned...)
	all = append(all, proj.Post...)

	insertions := proj.Insertions
	bonus := 0
	for idx, c := range all {
		if !c.InsertionAnchor || len(insertions) == 0 {
			continue
		}
		ins := insertions[0]
		insertions = insertions[1:]

		// d-slots occupy [idx+1, idx+len(ins)) in the anchor's own
		// coordinate frame.
		lo := idx + 1
		hi := idx + 1 + len(ins)
		if lo < alignedStart {
			lo = alignedStart
		}
		if hi > alignedEnd {
			hi = alignedEnd
		}
		if hi > lo {
			bonus += hi - lo
		}
	}
	return bonus
}

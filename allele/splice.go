package allele

import (
	"strings"

	"github.com/pziarsolo/repeatseq/cigar"
)

// Spliced holds the three reference-frame segments of a projection with
// insertions spliced back in as literal bases and deletions kept as '-',
// the human-readable form spec.md §4.6 calls a "candidate alignment".
type Spliced struct {
	Pre, Aligned, Post string
}

// Splice renders proj's three segments as literal sequences over
// {A,C,G,T,-}, splicing each insertion into the segment that owns its
// anchor. An insertion anchored at a segment's last cell attaches to the
// following segment instead (spec.md §4.1: "when a lowercase anchor is the
// last position, the insertion attaches to the following segment"),
// grounded on original_source/repeatseq.cpp's splice-back loop (lines
// 500-533). Callers that need only the repeat's own observed sequence use
// Aligned; Splice is only safe to call on projections that pass
// Projection.Anchored, so Aligned never contains an 'x' or 'S' marker.
func Splice(proj cigar.Projection) Spliced {
	segments := [3][]cigar.Cell{proj.Pre, proj.Aligned, proj.Post}
	var out [3]strings.Builder
	insertions := proj.Insertions

	for segIdx, seg := range segments {
		for i, c := range seg {
			switch c.Kind {
			case cigar.Deletion:
				out[segIdx].WriteByte('-')
			default:
				out[segIdx].WriteByte(c.Base)
			}
			if !c.InsertionAnchor || len(insertions) == 0 {
				continue
			}
			ins := insertions[0]
			insertions = insertions[1:]
			target := segIdx
			if i == len(seg)-1 {
				target = segIdx + 1
			}
			if target < 3 {
				out[target].WriteString(strings.ToUpper(ins))
			}
		}
	}

	return Spliced{Pre: out[0].String(), Aligned: out[1].String(), Post: out[2].String()}
}

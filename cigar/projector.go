// Package cigar projects a read onto reference coordinates using its CIGAR
// string, producing the "Projected triple" described in spec.md §3/§4.1.
//
// Rather than overloading a byte buffer with lowercase/'-'/'x'/'S' markers
// the way original_source/repeatseq.cpp's parseCigar does, this package
// models each projected position as a typed Cell, per spec.md §9's redesign
// note ("An implementer should model the projected read as a sequence of
// typed cells ... This eliminates the subtle +32/-32 case-flipping tricks").
package cigar

import (
	"math"
	"strings"

	"github.com/pziarsolo/repeatseq/alignment"
)

// Kind is the type of one projected position.
type Kind int

const (
	// Base is a regular aligned or soft-clipped reference-frame base.
	Base Kind = iota
	// Deletion marks a reference base with no corresponding read base.
	Deletion
	// Missing marks a reference-frame position the read does not cover.
	Missing
	// SoftClipped marks a position covered by a soft-clipped read base.
	SoftClipped
)

// Cell is one projected reference-frame position.
type Cell struct {
	Kind Kind
	// Base holds the uppercase read base when Kind is Base or SoftClipped.
	Base byte
	// InsertionAnchor is true when an insertion immediately follows this
	// cell; the substring is in Projection.Insertions, consumed in order by
	// the repeat-length extractor (package allele).
	InsertionAnchor bool
}

// Projection is the read's projection onto the reference window
// [regionStart-flankChars, regionStart+centerLength+flankChars) in 1-based
// reference coordinates.
type Projection struct {
	Pre        []Cell // flankChars cells, reference bases left of the repeat
	Aligned    []Cell // centerLength cells, the repeat itself
	Post       []Cell // flankChars cells, reference bases right of the repeat
	Insertions []string
}

// Reason explains why Project declined to produce a Projection.
type Reason int

const (
	// OK means projection succeeded.
	OK Reason = iota
	// EmptyCigar means the record had no CIGAR operations ("*").
	EmptyCigar
	// SplicedAlignment means the CIGAR contained an N op; spliced
	// alignments are unsupported (spec.md §4.1).
	SplicedAlignment
)

// Project projects rec onto the reference window around a repeat region,
// per spec.md §4.1. regionStart is the region's 1-based start coordinate;
// flankChars is L; centerLength is the repeat's reference length.
func Project(rec *alignment.Record, regionStart, flankChars, centerLength int) (Projection, Reason) {
	if len(rec.Cigar) == 0 {
		return Projection{}, EmptyCigar
	}

	winStart0 := (regionStart - 1) - flankChars
	winLen := 2*flankChars + centerLength
	cells := make([]Cell, winLen)
	for i := range cells {
		cells[i] = Cell{Kind: Missing}
	}
	inWindow := func(refPos0 int) (int, bool) {
		idx := refPos0 - winStart0
		if idx < 0 || idx >= winLen {
			return 0, false
		}
		return idx, true
	}

	var insertions []string
	refPos0 := rec.Pos - leadingSoftClipLen(rec.Cigar)
	readPos := 0
	bases := rec.Bases

	for _, op := range rec.Cigar {
		switch op.Op {
		case alignment.OpMatch, alignment.OpEqual, alignment.OpMismatch, alignment.OpSoftClip:
			kind := Base
			if op.Op == alignment.OpSoftClip {
				kind = SoftClipped
			}
			for i := 0; i < op.Len; i++ {
				if idx, ok := inWindow(refPos0); ok && readPos < len(bases) {
					cells[idx] = Cell{Kind: kind, Base: upper(bases[readPos])}
				}
				refPos0++
				readPos++
			}
		case alignment.OpInsertion:
			end := readPos + op.Len
			if end > len(bases) {
				end = len(bases)
			}
			ins := strings.ToUpper(bases[readPos:end])
			if idx, ok := inWindow(refPos0 - 1); ok {
				cells[idx].InsertionAnchor = true
				insertions = append(insertions, ins)
			}
			readPos += op.Len
		case alignment.OpDeletion:
			for i := 0; i < op.Len; i++ {
				if idx, ok := inWindow(refPos0); ok {
					cells[idx] = Cell{Kind: Deletion}
				}
				refPos0++
			}
		case alignment.OpSkipped:
			return Projection{}, SplicedAlignment
		case alignment.OpHardClip:
			// Hard-clipped bases are absent from the read; nothing to do.
		case alignment.OpPadding:
			// Silent deletion from the padded reference: consumes reference
			// frame positions like a deletion, but has no read base.
			for i := 0; i < op.Len; i++ {
				if idx, ok := inWindow(refPos0); ok {
					cells[idx] = Cell{Kind: Deletion}
				}
				refPos0++
			}
		}
	}

	return Projection{
		Pre:        cells[:flankChars],
		Aligned:    cells[flankChars : flankChars+centerLength],
		Post:       cells[flankChars+centerLength:],
		Insertions: insertions,
	}, OK
}

// Anchored reports whether both outermost flank positions are real,
// covered bases — the pre-filter original_source/repeatseq.cpp applies
// before computing depth or flank scores (lines 494-495: a read is dropped
// entirely if AlignedSeq's first or last character is 'x'/'S'/space).
func (p Projection) Anchored() bool {
	if len(p.Pre) == 0 || len(p.Post) == 0 {
		return false
	}
	return anchoredCell(p.Pre[0]) && anchoredCell(p.Post[len(p.Post)-1])
}

func anchoredCell(c Cell) bool {
	return c.Kind != Missing && c.Kind != SoftClipped
}

// Covered reports whether the middle position of the aligned (repeat)
// segment carries real coverage, used for the region's depth count
// (repeatseq.cpp line 489: "if AlignedSeq[target.length()/2] != 'x'").
func (p Projection) Covered() bool {
	if len(p.Aligned) == 0 {
		return false
	}
	return p.Aligned[len(p.Aligned)/2].Kind != Missing
}

// leadingSoftClipLen returns the length of a soft clip preceding every
// reference-consuming op (skipping over a leading hard clip, which never
// affects positioning). rec.Pos is the SAM leftmost *mapped* position, so a
// leading soft clip must be treated as padding before rec.Pos rather than
// consumed forward from it, matching repeatseq.cpp's posLeft inflation
// (lines 249-251) ahead of its own leading-S loop.
func leadingSoftClipLen(cigar []alignment.CigarOp) int {
	for _, op := range cigar {
		if op.Op == alignment.OpHardClip {
			continue
		}
		if op.Op == alignment.OpSoftClip {
			return op.Len
		}
		return 0
	}
	return 0
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 32
	}
	return b
}

// AverageBaseQuality returns the mean base-call correctness probability
// across quals, i.e. mean(1 - 10^(-Q/10)), matching
// original_source/repeatseq.cpp's PhredToFloat/avgBQ computation (lines
// 200-203, 1380-1384). quals holds raw Phred scores (not ASCII-offset).
func AverageBaseQuality(quals []byte) float64 {
	if len(quals) == 0 {
		return 0
	}
	var sum float64
	for _, q := range quals {
		sum += 1 - math.Pow(10, float64(q)/-10)
	}
	return sum / float64(len(quals))
}

package cigar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pziarsolo/repeatseq/alignment"
)

func cell(k Kind, b byte) Cell { return Cell{Kind: k, Base: b} }

func TestProjectSimpleMatch(t *testing.T) {
	// Read covers ref [5,25) with a plain 20M CIGAR. Region is [10,15), L=3.
	rec := &alignment.Record{
		Pos:   5,
		Bases: "AAAAACCCCCGGGGGTTTTT",
		Cigar: []alignment.CigarOp{{Op: alignment.OpMatch, Len: 20}},
	}
	proj, reason := Project(rec, 10, 3, 5)
	require.Equal(t, OK, reason)
	assert.Len(t, proj.Pre, 3)
	assert.Len(t, proj.Aligned, 5)
	assert.Len(t, proj.Post, 3)
	// ref position 10 (1-based) is 0-based 9, the 5th read base (read idx 4);
	// Pre[2] is ref position 9 (1-based), read idx 3.
	assert.Equal(t, cell(Base, 'A'), proj.Pre[2])
	assert.Equal(t, byte('A'), proj.Aligned[0].Base)
	assert.Empty(t, proj.Insertions)
}

func TestProjectLengthConservation(t *testing.T) {
	rec := &alignment.Record{
		Pos:   0,
		Bases: "ACGTACGTACGTACGTACGT",
		Cigar: []alignment.CigarOp{{Op: alignment.OpMatch, Len: 20}},
	}
	proj, reason := Project(rec, 5, 4, 3)
	require.Equal(t, OK, reason)
	assert.Equal(t, 4+3+4, len(proj.Pre)+len(proj.Aligned)+len(proj.Post))
}

func TestProjectInsertionRoundTrip(t *testing.T) {
	// 2M 2I 4M: insertion happens right after ref position Pos+2-1.
	rec := &alignment.Record{
		Pos:   8, // 0-based; region start at 10 (1-based) => ref idx 9 = read idx 1
		Bases: "AACCTTGG",
		Cigar: []alignment.CigarOp{
			{Op: alignment.OpMatch, Len: 2},
			{Op: alignment.OpInsertion, Len: 2},
			{Op: alignment.OpMatch, Len: 4},
		},
	}
	proj, reason := Project(rec, 10, 2, 2)
	require.Equal(t, OK, reason)
	require.Len(t, proj.Insertions, 1)
	assert.Equal(t, "CC", proj.Insertions[0])
	// anchor should be on the base immediately preceding the insertion.
	found := false
	for _, c := range append(append(proj.Pre, proj.Aligned...), proj.Post...) {
		if c.InsertionAnchor {
			found = true
		}
	}
	assert.True(t, found)
}

func TestProjectDeletion(t *testing.T) {
	// 5M 3D 5M over region [12,14), L=2.
	rec := &alignment.Record{
		Pos:   8,
		Bases: "AAAAACCCCC",
		Cigar: []alignment.CigarOp{
			{Op: alignment.OpMatch, Len: 5},
			{Op: alignment.OpDeletion, Len: 3},
			{Op: alignment.OpMatch, Len: 5},
		},
	}
	proj, reason := Project(rec, 12, 2, 2)
	require.Equal(t, OK, reason)
	all := append(append(proj.Pre, proj.Aligned...), proj.Post...)
	hasDeletion := false
	for _, c := range all {
		if c.Kind == Deletion {
			hasDeletion = true
		}
	}
	assert.True(t, hasDeletion)
}

func TestProjectSplicedAlignmentRejected(t *testing.T) {
	rec := &alignment.Record{
		Pos:   0,
		Bases: "AAAAACCCCC",
		Cigar: []alignment.CigarOp{
			{Op: alignment.OpMatch, Len: 5},
			{Op: alignment.OpSkipped, Len: 100},
			{Op: alignment.OpMatch, Len: 5},
		},
	}
	_, reason := Project(rec, 1, 2, 2)
	assert.Equal(t, SplicedAlignment, reason)
}

func TestProjectEmptyCigar(t *testing.T) {
	rec := &alignment.Record{Pos: 0, Bases: "AAAA"}
	_, reason := Project(rec, 1, 2, 2)
	assert.Equal(t, EmptyCigar, reason)
}

func TestProjectSoftClip(t *testing.T) {
	rec := &alignment.Record{
		Pos:   10,
		Bases: "TTTTTAAAAA",
		Cigar: []alignment.CigarOp{
			{Op: alignment.OpSoftClip, Len: 5},
			{Op: alignment.OpMatch, Len: 5},
		},
	}
	proj, reason := Project(rec, 8, 3, 3)
	require.Equal(t, OK, reason)
	all := append(append(proj.Pre, proj.Aligned...), proj.Post...)
	hasSoftClip := false
	for _, c := range all {
		if c.Kind == SoftClipped {
			hasSoftClip = true
		}
	}
	assert.True(t, hasSoftClip)

	// rec.Pos=10 is the leftmost *mapped* position: the leading 5S must sit
	// as padding before it, not shift the following 5M's bases out of the
	// window. Post (ref positions 10-12) must land on the matched 'A's.
	for _, c := range proj.Post {
		assert.Equal(t, Base, c.Kind)
		assert.Equal(t, byte('A'), c.Base)
	}
}

func TestAverageBaseQuality(t *testing.T) {
	// Q40 => error prob 1e-4 => correctness ~0.9999
	avg := AverageBaseQuality([]byte{40, 40, 40})
	assert.InDelta(t, 0.9999, avg, 1e-4)
	assert.Equal(t, float64(0), AverageBaseQuality(nil))
}

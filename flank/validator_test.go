package flank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pziarsolo/repeatseq/cigar"
)

func base(b byte) cigar.Cell { return cigar.Cell{Kind: cigar.Base, Base: b} }

func TestValidatePerfectMatch(t *testing.T) {
	pre := []cigar.Cell{base('A'), base('C'), base('G'), base('T')}
	post := []cigar.Cell{base('T'), base('G'), base('C'), base('A')}
	res := Validate(pre, post, "ACGT", "TGCA", 3, 3)
	assert.Equal(t, 4, res.LeftMatches)
	assert.Equal(t, 4, res.RightMatches)
	assert.Equal(t, 4, res.MinFlank)
	assert.True(t, res.Pass)
}

func TestValidateMismatchBreaksStreak(t *testing.T) {
	// Closest-to-repeat position (index 0 of post scan) is a hard base
	// mismatch, which is never tolerated.
	post := []cigar.Cell{base('A'), base('G'), base('C'), base('A')}
	pre := []cigar.Cell{base('A'), base('C'), base('G'), base('T')}
	res := Validate(pre, post, "ACGT", "TGCA", 1, 1)
	assert.Equal(t, 0, res.RightMatches)
	assert.False(t, res.Pass)
}

func TestValidateMissingNearRepeatFreezesStreak(t *testing.T) {
	post := []cigar.Cell{{Kind: cigar.Missing}, base('G'), base('C'), base('A')}
	pre := []cigar.Cell{base('A'), base('C'), base('G'), base('T')}
	res := Validate(pre, post, "ACGT", "TGCA", 2, 2)
	// the missing cell at position 0 is a mismatch against the reference and
	// freezes the count at 0 for the rest of the scan, even though G, C, A
	// would otherwise match TGCA's remaining positions.
	assert.Equal(t, 0, res.RightMatches)
	assert.False(t, res.Pass)
}

func TestValidateClippedReferenceFlank(t *testing.T) {
	pre := []cigar.Cell{{Kind: cigar.Missing}, {Kind: cigar.Missing}, base('C'), base('G')}
	post := []cigar.Cell{base('T'), base('G')}
	// leftFlank shorter than pre (clipped at chromosome start).
	res := Validate(pre, post, "CG", "TG", 2, 2)
	assert.Equal(t, 2, res.LeftMatches)
	assert.Equal(t, 2, res.RightMatches)
	assert.True(t, res.Pass)
}

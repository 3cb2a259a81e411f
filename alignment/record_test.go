package alignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadLength(t *testing.T) {
	r := &Record{Cigar: []CigarOp{
		{Op: OpSoftClip, Len: 5},
		{Op: OpMatch, Len: 40},
		{Op: OpInsertion, Len: 2},
		{Op: OpDeletion, Len: 3},
		{Op: OpSoftClip, Len: 5},
	}}
	assert.Equal(t, 5+40+2+5, r.ReadLength())
}

func TestFlagHelpers(t *testing.T) {
	r := &Record{Flags: FlagPaired | FlagProperPair | FlagReverse}
	assert.True(t, r.IsPaired())
	assert.True(t, r.IsProperPair())
	assert.True(t, r.IsReverse())
	assert.False(t, r.IsDuplicate())
	assert.False(t, r.IsUnmapped())
}

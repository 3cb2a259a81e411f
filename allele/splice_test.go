package allele

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pziarsolo/repeatseq/cigar"
)

func base(b byte) cigar.Cell { return cigar.Cell{Kind: cigar.Base, Base: b} }

func TestSpliceNoInsertions(t *testing.T) {
	proj := cigar.Projection{
		Pre:     []cigar.Cell{base('A'), base('C')},
		Aligned: []cigar.Cell{base('G'), base('T'), base('G'), base('T')},
		Post:    []cigar.Cell{base('A'), base('C')},
	}
	s := Splice(proj)
	assert.Equal(t, "AC", s.Pre)
	assert.Equal(t, "GTGT", s.Aligned)
	assert.Equal(t, "AC", s.Post)
}

func TestSpliceInsertionWithinAligned(t *testing.T) {
	anchor := base('G')
	anchor.InsertionAnchor = true
	proj := cigar.Projection{
		Pre:        []cigar.Cell{base('A')},
		Aligned:    []cigar.Cell{anchor, base('T')},
		Post:       []cigar.Cell{base('A')},
		Insertions: []string{"cc"},
	}
	s := Splice(proj)
	assert.Equal(t, "GCCT", s.Aligned)
}

func TestSpliceInsertionAtSegmentBoundaryAttachesNext(t *testing.T) {
	lastPre := base('A')
	lastPre.InsertionAnchor = true
	proj := cigar.Projection{
		Pre:        []cigar.Cell{lastPre},
		Aligned:    []cigar.Cell{base('G'), base('T')},
		Post:       []cigar.Cell{base('A')},
		Insertions: []string{"tt"},
	}
	s := Splice(proj)
	assert.Equal(t, "A", s.Pre)
	assert.Equal(t, "TTGT", s.Aligned)
}

func TestSpliceDeletionKeptAsDash(t *testing.T) {
	proj := cigar.Projection{
		Pre:     []cigar.Cell{base('A')},
		Aligned: []cigar.Cell{base('G'), {Kind: cigar.Deletion}, base('T')},
		Post:    []cigar.Cell{base('A')},
	}
	s := Splice(proj)
	assert.Equal(t, "G-T", s.Aligned)
}

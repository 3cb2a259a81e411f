package vcfwriter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pziarsolo/repeatseq/genotype"
)

func TestSynthesizeSkippedWhenAllMatchReferenceAndNotEmitAll(t *testing.T) {
	_, ok := Synthesize(
		[]string{"ACACACACACAC", "ACACACACACAC"},
		"ACACACACACAC",
		"chr1", 101, 'G',
		map[genotype.Hypothesis]float64{{Length1: 12, Length2: 12}: 50},
		genotype.Hypothesis{Length1: 12, Length2: 12},
		50, 1,
		Info{Unit: "AC", Depth: 2, RefLength: 12},
		false,
	)
	assert.False(t, ok)
}

func TestSynthesizeEmitAllOverridesSkip(t *testing.T) {
	rec, ok := Synthesize(
		[]string{"ACACACACACAC"},
		"ACACACACACAC",
		"chr1", 101, 'G',
		map[genotype.Hypothesis]float64{{Length1: 12, Length2: 12}: 50},
		genotype.Hypothesis{Length1: 12, Length2: 12},
		50, 1,
		Info{Unit: "AC", Depth: 1, RefLength: 12},
		true,
	)
	require.True(t, ok)
	assert.Equal(t, "GACACACACACAC", rec.Ref)
	assert.Empty(t, rec.Alt)
}

func TestSynthesizeHeterozygousInsertionScenario(t *testing.T) {
	reference := "ACACACACACAC" // length 12, unit AC
	var candidates []string
	for i := 0; i < 10; i++ {
		candidates = append(candidates, reference)
	}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, reference+"AC") // length 14
	}
	likelihoods := map[genotype.Hypothesis]float64{
		{Length1: 12, Length2: 14}: 35,
		{Length1: 12, Length2: 12}: 10,
		{Length1: 14, Length2: 14}: 10,
	}
	best := genotype.Hypothesis{Length1: 12, Length2: 14}

	rec, ok := Synthesize(
		candidates, reference, "chr1", 101, 'G',
		likelihoods, best, 35, 0.9,
		Info{Unit: "AC", Depth: 20, RefLength: 12},
		false,
	)
	require.True(t, ok)

	require.Len(t, rec.Alt, 1)
	assert.True(t, strings.HasPrefix(rec.Ref, "G"))
	assert.True(t, strings.HasPrefix(rec.Alt[0], "G"))
	assert.Equal(t, rec.Ref[:1], rec.Alt[0][:1])
	assert.Equal(t, []int{2}, rec.AlleleOffsets)
	assert.Equal(t, "GACACACACACACAC", rec.Alt[0])
	assert.Equal(t, [2]int{0, 1}, rec.GenotypeIdx)
}

func TestSynthesizeQualAndGLAreClamped(t *testing.T) {
	reference := "AAAAAAAAAA"
	candidates := []string{reference + "AAAAAA"}
	likelihoods := map[genotype.Hypothesis]float64{
		{Length1: 10, Length2: 16}: 999, // must clamp to 50
	}
	rec, ok := Synthesize(
		candidates, reference, "chr1", 1, 'T',
		likelihoods, genotype.Hypothesis{Length1: 10, Length2: 16}, 999, 0.99,
		Info{Unit: "A", Depth: 1, RefLength: 10},
		true,
	)
	require.True(t, ok)
	assert.Equal(t, float64(50), rec.Qual)
	for _, g := range rec.GL {
		assert.GreaterOrEqual(t, g, float64(0))
		assert.LessOrEqual(t, g, float64(50))
	}
}

func TestDedupeByLengthPicksMostFrequentTieBreaksLexicographically(t *testing.T) {
	byLength := dedupeByLength([]string{"AACC", "AACC", "CCAA", "GGTT"})
	assert.Equal(t, "AACC", byLength[4])

	tied := dedupeByLength([]string{"AACC", "CCAA"})
	assert.Equal(t, "AACC", tied[4])
}

func TestRecordStringIsTabSeparatedWithTenFields(t *testing.T) {
	rec := Record{
		Chrom: "chr1", Pos: 100, Ref: "GA", Alt: []string{"GAA"},
		AlleleOffsets: []int{1}, Qual: 30, Filter: "PASS",
		Info:        Info{Unit: "A", Depth: 10, RefLength: 1},
		GenotypeIdx: [2]int{0, 1}, GL: []float64{0, 30, 25},
	}
	fields := strings.Split(rec.String(), "\t")
	require.Len(t, fields, 10)
	assert.Equal(t, "chr1", fields[0])
	assert.Equal(t, "100", fields[1])
	assert.Equal(t, "GA", fields[3])
	assert.Equal(t, "GAA", fields[4])
}

package genotype

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pziarsolo/repeatseq/allele"
)

func TestLogFactorialMatchesMathLog(t *testing.T) {
	assert.InDelta(t, 0, logFactorial(0), 1e-9)
	assert.InDelta(t, 0, logFactorial(1), 1e-9)
	// log(5!) = log(120)
	assert.InDelta(t, 4.787491743, logFactorial(5), 1e-6)
	// beyond the cache: log(12!) = 19.9872144957...
	assert.InDelta(t, 19.9872144957, logFactorial(12), 1e-6)
}

func TestDecideHomozygousHighConcordance(t *testing.T) {
	counts := []allele.Count{
		{Length: 20, ReadCount: 30, SumBaseQuality: 30 * 0.999},
	}
	res := Decide(counts, 20, 2, Diploid, DefaultTable())
	require.False(t, res.NA)
	assert.Equal(t, Hypothesis{Length1: 20, Length2: 20}, res.Best)
	assert.Equal(t, float64(50), res.Confidence)
}

func TestDecideZeroEvidenceIsNA(t *testing.T) {
	res := Decide(nil, 20, 2, Diploid, DefaultTable())
	assert.True(t, res.NA)
}

func TestDecideTooManyAllelesIsNA(t *testing.T) {
	var counts []allele.Count
	for i := 0; i < 10; i++ {
		counts = append(counts, allele.Count{Length: i, ReadCount: 2, SumBaseQuality: 2 * 0.99})
	}
	res := Decide(counts, 20, 2, Diploid, DefaultTable())
	assert.True(t, res.NA)
}

func TestDecideHugeCoverageIsNA(t *testing.T) {
	counts := []allele.Count{{Length: 20, ReadCount: 20000, SumBaseQuality: 20000 * 0.99}}
	res := Decide(counts, 20, 2, Diploid, DefaultTable())
	assert.True(t, res.NA)
}

func TestCallHeterozygousHypothesisKeyIsOrdered(t *testing.T) {
	counts := []allele.Count{
		{Length: 25, ReadCount: 10, SumBaseQuality: 10 * 0.995},
		{Length: 18, ReadCount: 10, SumBaseQuality: 10 * 0.995},
	}
	res := Call(counts, 20, 2, Diploid, DefaultTable())
	for h := range res.Likelihoods {
		assert.LessOrEqual(t, h.Length1, h.Length2)
	}
	// the heterozygous (18,25) combination must be present.
	_, ok := res.Likelihoods[Hypothesis{Length1: 18, Length2: 25}]
	assert.True(t, ok)
}

func TestCallHaploidSkipsHeterozygous(t *testing.T) {
	counts := []allele.Count{
		{Length: 25, ReadCount: 10, SumBaseQuality: 10 * 0.995},
		{Length: 18, ReadCount: 10, SumBaseQuality: 10 * 0.995},
	}
	res := Call(counts, 20, 2, Haploid, DefaultTable())
	_, ok := res.Likelihoods[Hypothesis{Length1: 18, Length2: 25}]
	assert.False(t, ok)
	assert.Equal(t, res.Best.Length1, res.Best.Length2)
}

func TestPhiTableLoadOverlaysDefault(t *testing.T) {
	data := "1 0 0 7 42\n# comment\n"
	tbl, err := LoadTable(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Entry{Error: 7, Correct: 42}, tbl[0][0][0])
	// untouched cells keep the default.
	assert.Equal(t, DefaultTable()[2][3][1], tbl[2][3][1])
}

func TestPhredConfidenceCapsAndHandlesNaN(t *testing.T) {
	assert.Equal(t, float64(50), phredConfidence(1))
	assert.Equal(t, float64(0), phredConfidence(0))
	assert.Equal(t, float64(0), phredConfidence(math.NaN()))
}

// Package genotype scores candidate genotypes from aggregated allele
// evidence via a Dirichlet-multinomial likelihood, spec.md §4.5's
// "genotype caller".
package genotype

import (
	"math"

	"github.com/pziarsolo/repeatseq/allele"
)

// Ploidy selects whether heterozygous hypotheses are considered.
type Ploidy int

const (
	Haploid Ploidy = 1
	Diploid Ploidy = 2
)

// These thresholds implement the caller-level short-circuits from spec.md
// §4.5.
const (
	maxAlleleCount        = 10000
	maxDistinctLengths    = 9
	concordanceThreshold  = 0.99
	minReadsForConcordant = 2
	naConfidenceThreshold = 3.02
)

// Hypothesis is a candidate genotype with Length1 <= Length2 (homozygous
// when equal).
type Hypothesis struct {
	Length1, Length2 int
}

// Result is the outcome of genotyping one region.
type Result struct {
	NA bool
	// Best is the highest-probability hypothesis.
	Best Hypothesis
	// Confidence is Best's phred-scaled confidence (spec.md §4.5), the same
	// value stored in Likelihoods[Best].
	Confidence float64
	// BestProbability is Best's normalized probability before the
	// phred transform, used by vcfwriter's FILTER decision (spec.md §4.6).
	BestProbability float64
	Likelihoods     map[Hypothesis]float64
}

type scoredAllele struct {
	length  int
	occ     int
	quantBQ int
}

// Decide runs the short-circuits of spec.md §4.5 ("caller's caller") and,
// absent one, enumerates and scores every genotype hypothesis via Call.
func Decide(counts []allele.Count, refLength, unitSize int, ploidy Ploidy, phi Table) Result {
	if len(counts) == 0 {
		return Result{NA: true}
	}
	total := 0
	for _, c := range counts {
		total += c.ReadCount
		if c.ReadCount >= maxAlleleCount {
			return Result{NA: true}
		}
	}
	if len(counts) > maxDistinctLengths {
		return Result{NA: true}
	}

	top := counts[0]
	// Concordance per the glossary: fraction of reads supporting the
	// majority allele, minus one, over total minus one.
	concordance := 0.0
	if total > 1 {
		concordance = float64(top.ReadCount-1) / float64(total-1)
	}
	if top.ReadCount >= minReadsForConcordant && concordance >= concordanceThreshold {
		h := Hypothesis{Length1: top.Length, Length2: top.Length}
		return Result{
			Best:            h,
			Confidence:      50,
			BestProbability: 1 - math.Pow(10, -5),
			Likelihoods:     map[Hypothesis]float64{h: 50},
		}
	}

	result := Call(counts, refLength, unitSize, ploidy, phi)
	if result.Confidence <= naConfidenceThreshold {
		return Result{NA: true}
	}
	return result
}

// Call enumerates homozygous and heterozygous hypotheses over counts and
// scores each with the Dirichlet-multinomial likelihood of spec.md §4.5,
// grounded on original_source/repeatseq.cpp's printGenoPerc (lines
// 957-1060): a 3-cell (or 2-cell, homozygous) outcome vector per hypothesis,
// weighted by the Φ table's expected error/correct counts, normalized to a
// probability distribution over all enumerated hypotheses.
func Call(counts []allele.Count, refLength, unitSize int, ploidy Ploidy, phi Table) Result {
	alleles := make([]scoredAllele, 0, len(counts)+1)
	for _, c := range counts {
		alleles = append(alleles, scoredAllele{
			length:  c.Length,
			occ:     c.ReadCount,
			quantBQ: quantizeBaseQuality(c.AvgBaseQuality()),
		})
	}
	// Synthetic zero-count allele: pairing any real allele with this one
	// forms the homozygous hypothesis for that allele.
	alleles = append(alleles, scoredAllele{})

	type scored struct {
		key Hypothesis
		p   float64
	}
	var candidates []scored
	total := 0.0

	for i := 0; i < len(alleles); i++ {
		for j := i + 1; j < len(alleles); j++ {
			a, b := alleles[i], alleles[j]
			heterozygous := b.occ != 0
			if ploidy == Haploid && heterozygous {
				continue
			}

			errorOccurrences := 0
			for k, c := range alleles {
				if k != i && k != j {
					errorOccurrences += c.occ
				}
			}

			errA := lookupEntry(phi, a, unitSize, refLength)
			errB := lookupEntry(phi, b, unitSize, refLength)

			var numerator, denom []int
			if heterozygous {
				numerator = []int{1 + errA.Correct + a.occ, 1 + errB.Correct + b.occ, 1 + errA.Error + errB.Error + errorOccurrences}
				denom = []int{1 + errA.Correct, 1 + errB.Correct, 1 + errA.Error + errB.Error}
			} else {
				numerator = []int{1 + errA.Correct + a.occ, 1 + errA.Error + errB.Error + errorOccurrences}
				denom = []int{1 + errA.Correct, 1 + errA.Error + errB.Error}
			}

			logP := logMultinomialCoef(a.occ, b.occ, errorOccurrences) + betaMult(numerator) - betaMult(denom)
			p := math.Exp(logP)

			key := Hypothesis{Length1: a.length, Length2: a.length}
			if heterozygous {
				key = normalizeHypothesis(a.length, b.length)
			}
			candidates = append(candidates, scored{key: key, p: p})
			total += p
		}
	}

	likelihoods := make(map[Hypothesis]float64, len(candidates))
	best := Hypothesis{}
	bestP := -1.0
	for _, c := range candidates {
		p := c.p
		if total > 0 {
			p /= total
		}
		conf := phredConfidence(p)
		likelihoods[c.key] = conf
		if p > bestP {
			bestP = p
			best = c.key
		}
	}
	if bestP < 0 {
		bestP = 0
	}

	return Result{
		Best:            best,
		Confidence:      likelihoods[best],
		BestProbability: bestP,
		Likelihoods:     likelihoods,
	}
}

func lookupEntry(phi Table, a scoredAllele, unitSize, refLength int) Entry {
	if a.occ == 0 {
		return Entry{}
	}
	return phi.Lookup(unitSize, refLength, a.quantBQ)
}

func normalizeHypothesis(l1, l2 int) Hypothesis {
	if l1 > l2 {
		l1, l2 = l2, l1
	}
	return Hypothesis{Length1: l1, Length2: l2}
}

// phredConfidence converts a normalized probability into spec.md §4.5's
// phred-scaled confidence: -10*log10(1-p), capped at 50, NaN mapped to 0.
func phredConfidence(p float64) float64 {
	v := -10 * math.Log10(1-p)
	if math.IsNaN(v) {
		return 0
	}
	if v > 50 {
		return 50
	}
	if v < 0 {
		return 0
	}
	return v
}

// quantizeBaseQuality buckets an average base-quality correctness
// probability into [0,4] via q' = clamp(-30*log10(avg_bq), 0, 4).
func quantizeBaseQuality(avgBQ float64) int {
	v := -30 * math.Log10(avgBQ)
	if v < 0 {
		return 0
	}
	if v > 4 {
		return 4
	}
	return int(v)
}

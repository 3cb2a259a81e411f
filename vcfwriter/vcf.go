// Package vcfwriter turns a region's candidate allele observations and
// genotype likelihoods into a VCFv4.1 data record, spec.md §4.6's "VCF
// synthesizer". Grounded on original_source/repeatseq.cpp's getVCF and
// printHeader.
package vcfwriter

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pziarsolo/repeatseq/genotype"
)

// Info carries the region metadata that lands in the record's INFO field.
type Info struct {
	Unit      string
	Depth     int
	RefLength int
}

// Record is a synthesized VCF data line.
type Record struct {
	Chrom         string
	Pos           int
	Ref           string
	Alt           []string
	AlleleOffsets []int
	Qual          float64
	Filter        string
	Info          Info
	GenotypeIdx   [2]int
	GL            []float64
}

// String renders the tab-separated VCF data line, spec.md §4.6 step 7.
func (r Record) String() string {
	alt := "."
	if len(r.Alt) > 0 {
		alt = strings.Join(r.Alt, ",")
	}
	offsets := make([]string, len(r.AlleleOffsets))
	for i, o := range r.AlleleOffsets {
		offsets[i] = fmt.Sprintf("%d", o)
	}
	gls := make([]string, len(r.GL))
	for i, g := range r.GL {
		gls[i] = fmt.Sprintf("%g", g)
	}
	info := fmt.Sprintf("AL=%s;RU=%s;DP=%d;RL=%d",
		strings.Join(offsets, ","), r.Info.Unit, r.Info.Depth, r.Info.RefLength)
	sample := fmt.Sprintf("%d/%d:%s", r.GenotypeIdx[0], r.GenotypeIdx[1], strings.Join(gls, ","))
	return strings.Join([]string{
		r.Chrom,
		fmt.Sprintf("%d", r.Pos),
		".",
		r.Ref,
		alt,
		fmt.Sprintf("%g", r.Qual),
		r.Filter,
		info,
		"GT:GL",
		sample,
	}, "\t")
}

// Synthesize builds the VCF record for one region following spec.md §4.6's
// eight-step algorithm. candidates are one observed candidate alignment
// string per contributing read (over {A,C,G,T,-}); reference is the
// region's own aligned reference string (no indels). qual is best's
// phred-scaled confidence (genotype.Result.Confidence, clamped into QUAL);
// probability is best's pre-phred normalized probability
// (genotype.Result.BestProbability), used only for the FILTER threshold.
// ok is false when step 1's skip condition applies: !emitAll and every
// candidate matches the reference.
func Synthesize(
	candidates []string,
	reference string,
	chrom string,
	start int,
	precBase byte,
	likelihoods map[genotype.Hypothesis]float64,
	best genotype.Hypothesis,
	qual float64,
	probability float64,
	info Info,
	emitAll bool,
) (Record, bool) {
	refStripped := strip(reference)
	refLen := len(refStripped)

	if !emitAll && allMatchReference(candidates, refStripped) {
		return Record{}, false
	}

	byLength := dedupeByLength(candidates)
	lengths := make([]int, 0, len(byLength))
	for l := range byLength {
		lengths = append(lengths, l)
	}
	sort.Ints(lengths)

	l1, l2 := best.Length1, best.Length2
	if l1 == 0 {
		l1 = refLen
	}
	if l2 == 0 {
		l2 = refLen
	}

	// Surviving ALT lengths, in ascending order, with the reference-length
	// class dropped (step 6: it becomes the REF column, not an ALT).
	altLengths := make([]int, 0, len(lengths))
	for _, l := range lengths {
		if l != refLen {
			altLengths = append(altLengths, l)
		}
	}

	alleleLengths := append([]int{refLen}, altLengths...)
	indexOf := func(length int) int {
		for i, l := range alleleLengths {
			if l == length {
				return i
			}
		}
		return 0
	}

	alt := make([]string, len(altLengths))
	offsets := make([]int, len(altLengths))
	for i, l := range altLengths {
		alt[i] = string(precBase) + byLength[l]
		offsets[i] = l - refLen
	}

	gl := make([]float64, 0, len(alleleLengths)*(len(alleleLengths)+1)/2)
	for i := 0; i < len(alleleLengths); i++ {
		for j := 0; j <= i; j++ {
			key := normalize(alleleLengths[i], alleleLengths[j])
			gl = append(gl, clamp(likelihoods[key]))
		}
	}

	filter := "."
	if probability > 0.8 {
		filter = "PASS"
	}

	return Record{
		Chrom:         chrom,
		Pos:           start - 1,
		Ref:           string(precBase) + refStripped,
		Alt:           alt,
		AlleleOffsets: offsets,
		Qual:          clamp(qual),
		Filter:        filter,
		Info:          info,
		GenotypeIdx:   [2]int{indexOf(l1), indexOf(l2)},
		GL:            gl,
	}, true
}

func allMatchReference(candidates []string, refStripped string) bool {
	for _, c := range candidates {
		if strip(c) != refStripped {
			return false
		}
	}
	return true
}

// dedupeByLength groups candidates by their stripped length and keeps, for
// each length class, the most frequently observed sequence; ties break on
// the lexicographically smallest sequence (spec.md §9's determinism
// requirement — the original tool's dedup order depends on map iteration).
func dedupeByLength(candidates []string) map[int]string {
	counts := make(map[int]map[string]int)
	for _, c := range candidates {
		s := strip(c)
		m, ok := counts[len(s)]
		if !ok {
			m = make(map[string]int)
			counts[len(s)] = m
		}
		m[s]++
	}
	out := make(map[int]string, len(counts))
	for length, m := range counts {
		best := ""
		bestCount := -1
		for seq, n := range m {
			if n > bestCount || (n == bestCount && seq < best) {
				best, bestCount = seq, n
			}
		}
		out[length] = best
	}
	return out
}

func strip(s string) string {
	return strings.ReplaceAll(s, "-", "")
}

func normalize(a, b int) genotype.Hypothesis {
	if a > b {
		a, b = b, a
	}
	return genotype.Hypothesis{Length1: a, Length2: b}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 50 {
		return 50
	}
	return v
}

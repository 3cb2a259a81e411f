package genotyper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pziarsolo/repeatseq/alignment"
	"github.com/pziarsolo/repeatseq/allele"
	"github.com/pziarsolo/repeatseq/cigar"
	"github.com/pziarsolo/repeatseq/flank"
	"github.com/pziarsolo/repeatseq/genotype"
	"github.com/pziarsolo/repeatseq/reference"
	"github.com/pziarsolo/repeatseq/region"
	"github.com/pziarsolo/repeatseq/vcfwriter"
)

// RegionOutput holds one region's rendered output fragments, assembled by
// processRegion and concatenated by Run in region order (spec.md §4.7/§4.8).
type RegionOutput struct {
	Repeatseq string
	Calls     string
	VCF       string
}

// regionStats counts the per-region anomalies spec.md §7 asks to track
// rather than abort on.
type regionStats struct {
	numStars int // missing CIGAR
	numSplit int // N-op (spliced alignment) rejections
}

func ploidyFor(mode int) genotype.Ploidy {
	if mode == 1 {
		return genotype.Haploid
	}
	return genotype.Diploid
}

// processRegion sequences the evidence builder, caller and VCF synthesizer
// for one region, spec.md §4.7.
func processRegion(reg region.Region, secondCol string, seq reference.Sequence, prov *alignment.Provider, opts Opts, phi genotype.Table) (RegionOutput, error) {
	window, err := reference.FetchWindow(seq, reg.Chrom, reg.Start, reg.Stop, opts.L)
	if err != nil {
		return RegionOutput{}, err
	}

	it, err := prov.NewIterator(reg.Chrom, reg.Start-1, reg.Stop-1)
	if err != nil {
		return RegionOutput{}, err
	}
	defer it.Close()

	return processRegionCore(reg, secondCol, window, it, opts, phi)
}

// processRegionCore runs the evidence-builder/caller/synthesizer sequence
// against an already-open iterator and pre-fetched window, split out from
// processRegion so tests can drive it with a fake iterator.
func processRegionCore(reg region.Region, secondCol string, window reference.Window, it alignment.Iterator, opts Opts, phi genotype.Table) (RegionOutput, error) {
	agg := allele.NewAggregator()
	var candidates []string
	var stats regionStats

	for it.Scan() {
		rec := it.Record()
		if !passesReadFilters(rec, opts) {
			continue
		}

		proj, reason := cigar.Project(rec, reg.Start, opts.L, reg.Length())
		switch reason {
		case cigar.EmptyCigar:
			stats.numStars++
			continue
		case cigar.SplicedAlignment:
			stats.numSplit++
			continue
		}
		if !proj.Anchored() {
			continue
		}

		fr := flank.Validate(proj.Pre, proj.Post, window.LeftFlank, window.RightFlank, opts.ConsLeftFlank, opts.ConsRightFlank)
		if !fr.Pass {
			continue
		}

		length := allele.ExtractLength(proj)
		avgBQ := cigar.AverageBaseQuality(rec.Quals)
		agg.Add(length, avgBQ, fr.MinFlank, rec.IsReverse())
		candidates = append(candidates, allele.Splice(proj).Aligned)
	}
	if err := it.Err(); err != nil {
		return RegionOutput{}, err
	}

	counts := agg.Finalize()
	result := genotype.Decide(counts, reg.Length(), reg.UnitLength, ploidyFor(opts.Mode), phi)

	var out RegionOutput
	if opts.MakeRepeatseqFile {
		out.Repeatseq = renderRepeatseqBlock(reg, window, counts, result, stats)
	}
	if opts.MakeCallsFile {
		out.Calls = renderCallsLine(reg, secondCol, result)
	}
	if !result.NA {
		precBase := byte('N')
		if n := len(window.LeftFlank); n > 0 {
			precBase = window.LeftFlank[n-1]
		}
		info := vcfwriter.Info{Unit: reg.UnitSequence, Depth: agg.TotalReads(), RefLength: reg.Length()}
		rec, ok := vcfwriter.Synthesize(candidates, window.Center, reg.Chrom, reg.Start, precBase,
			result.Likelihoods, result.Best, result.Confidence, result.BestProbability, info, opts.EmitAll)
		if ok {
			out.VCF = rec.String() + "\n"
		}
	}
	return out, nil
}

// passesReadFilters applies the per-read configuration filters of spec.md
// §6 ahead of projection; CIGAR/flank failures are handled separately since
// they require the projected view.
func passesReadFilters(rec *alignment.Record, opts Opts) bool {
	if rec.MapQ < opts.MapQualityMin {
		return false
	}
	if opts.ReadLengthMin > 0 || opts.ReadLengthMax > 0 {
		readLen := rec.ReadLength()
		if opts.ReadLengthMin > 0 && readLen < opts.ReadLengthMin {
			return false
		}
		if opts.ReadLengthMax > 0 && readLen > opts.ReadLengthMax {
			return false
		}
	}
	if opts.ProperlyPaired && !rec.IsProperPair() {
		return false
	}
	if opts.Multi && rec.XT == 'R' {
		return false
	}
	return true
}

func formatGenotype(res genotype.Result) (genotypeStr, confidenceStr string) {
	if res.NA {
		return "NA", "NA"
	}
	if res.Best.Length1 == res.Best.Length2 {
		genotypeStr = strconv.Itoa(res.Best.Length1)
	} else {
		genotypeStr = fmt.Sprintf("%dh%d", res.Best.Length1, res.Best.Length2)
	}
	return genotypeStr, strconv.FormatFloat(res.Confidence, 'f', 2, 64)
}

func renderCallsLine(reg region.Region, secondCol string, result genotype.Result) string {
	gt, conf := formatGenotype(result)
	return strings.Join([]string{reg.String(), secondCol, gt, conf}, "\t") + "\n"
}

func renderRepeatseqBlock(reg region.Region, window reference.Window, counts []allele.Count, result genotype.Result, stats regionStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\tunit=%s\tref_len=%d\n", reg.String(), reg.UnitSequence, reg.Length())
	fmt.Fprintf(&b, "\tleft_flank=%s\tright_flank=%s\n", window.LeftFlank, window.RightFlank)
	for _, c := range counts {
		fmt.Fprintf(&b, "\tlength=%d\tcount=%d\tavg_bq=%.3f\tavg_min_flank=%.2f\treverse=%d\n",
			c.Length, c.ReadCount, c.AvgBaseQuality(), c.AvgMinFlank(), c.ReverseCount)
	}
	gt, conf := formatGenotype(result)
	fmt.Fprintf(&b, "\tgenotype=%s\tconfidence=%s\tnumStars=%d\tnumSplit=%d\n", gt, conf, stats.numStars, stats.numSplit)
	return b.String()
}

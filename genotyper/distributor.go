package genotyper

import (
	"runtime"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"

	"github.com/pziarsolo/repeatseq/alignment"
	"github.com/pziarsolo/repeatseq/genotype"
	"github.com/pziarsolo/repeatseq/reference"
	"github.com/pziarsolo/repeatseq/region"
)

// Task is one region to genotype plus its region-file second column, passed
// through unchanged to the .calls output (spec.md §4.7).
type Task struct {
	Region    region.Region
	SecondCol string
}

// Run divides tasks into contiguous per-worker chunks and genotypes each
// independently (spec.md §4.8's work distributor), grounded on
// pileup/snp.pileupSNPMain's traverse.Each(parallelism, ...) shard loop.
// Each worker opens its own BAM provider via openBAM and its own reference
// sequence via openSequence — both stateful and not safe to share, per
// spec.md §5's "nothing is shared mutably between workers". Output is
// concatenated in task order regardless of which worker produced it, which
// is what makes a fixed task list and worker count byte-identical across
// runs (spec.md §5's ordering guarantee): contiguous sharding never
// interleaves one worker's slice with another's.
func Run(
	tasks []Task,
	openBAM func() (*alignment.Provider, error),
	openSequence func() (reference.Sequence, error),
	opts Opts,
	phi genotype.Table,
) (RegionOutput, error) {
	n := len(tasks)
	if n == 0 {
		return RegionOutput{}, nil
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > n {
		parallelism = n
	}

	outputs := make([]RegionOutput, n)
	err := traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * n) / parallelism
		endIdx := ((jobIdx + 1) * n) / parallelism
		if startIdx == endIdx {
			return nil
		}

		prov, err := openBAM()
		if err != nil {
			return err
		}
		defer prov.Close()

		seq, err := openSequence()
		if err != nil {
			return err
		}

		for i := startIdx; i < endIdx; i++ {
			t := tasks[i]
			out, err := processRegion(t.Region, t.SecondCol, seq, prov, opts, phi)
			if err != nil {
				return err
			}
			outputs[i] = out
		}
		return nil
	})
	if err != nil {
		return RegionOutput{}, err
	}

	var repeatseq, calls, vcf strings.Builder
	for _, out := range outputs {
		repeatseq.WriteString(out.Repeatseq)
		calls.WriteString(out.Calls)
		vcf.WriteString(out.VCF)
	}
	return RegionOutput{Repeatseq: repeatseq.String(), Calls: calls.String(), VCF: vcf.String()}, nil
}

// ValidateRegions drops regions that fail spec.md §3's bounds invariant
// (stop ≤ chromosome length), logging a warning per dropped region rather
// than aborting the run, matching spec.md §7's region-parse-error policy.
func ValidateRegions(tasks []Task, seq reference.Sequence) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		chromLen, err := seq.Len(t.Region.Chrom)
		if err != nil {
			log.Printf("genotyper: skipping region %s: %v", t.Region, err)
			continue
		}
		if err := t.Region.CheckBounds(int(chromLen)); err != nil {
			log.Printf("genotyper: skipping region %s: %v", t.Region, err)
			continue
		}
		out = append(out, t)
	}
	return out
}

// Package genotyper sequences the CIGAR projector, flank validator, length
// extractor, evidence aggregator, genotype caller and VCF synthesizer over
// one region (spec.md §4.7's "per-region driver"), and fans that sequence
// out across worker goroutines over a region list (spec.md §4.8's "work
// distributor").
package genotyper

// Opts is the full recognized configuration surface of spec.md §6.
type Opts struct {
	// L is the flank window width used for projection and validation.
	L int
	// ConsLeftFlank and ConsRightFlank are the minimum consecutive matching
	// bases required at each flank for a read to pass validation.
	ConsLeftFlank, ConsRightFlank int
	// MapQualityMin drops reads below this mapping quality.
	MapQualityMin int
	// ReadLengthMin and ReadLengthMax filter by CIGAR-derived read length; 0
	// disables either bound.
	ReadLengthMin, ReadLengthMax int
	// ProperlyPaired requires the proper-pair flag when set.
	ProperlyPaired bool
	// Multi rejects reads whose XT aux tag is 'R' when set.
	Multi bool
	// Mode selects haploid (1) or diploid (2) genotyping.
	Mode int
	// EmitAll emits a VCF record even when every candidate matches the
	// reference.
	EmitAll bool
	// MakeRepeatseqFile and MakeCallsFile toggle the auxiliary .repeatseq and
	// .calls outputs; the .vcf output is always produced.
	MakeRepeatseqFile, MakeCallsFile bool
	// Parallelism is the worker count for the work distributor; 0 means
	// runtime.NumCPU().
	Parallelism int
}

// DefaultOpts mirrors the defaults spec.md §6 documents.
var DefaultOpts = Opts{
	L:                 20,
	ConsLeftFlank:      3,
	ConsRightFlank:     3,
	Mode:               2,
	MakeRepeatseqFile: true,
	MakeCallsFile:     true,
}

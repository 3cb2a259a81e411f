package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/pziarsolo/repeatseq/alignment"
	"github.com/pziarsolo/repeatseq/genotype"
	"github.com/pziarsolo/repeatseq/genotyper"
	"github.com/pziarsolo/repeatseq/reference"
	"github.com/pziarsolo/repeatseq/region"
	"github.com/pziarsolo/repeatseq/vcfwriter"
)

var (
	l                = flag.Int("L", genotyper.DefaultOpts.L, "Flank window width used for projection and flank validation")
	consLeftFlank    = flag.Int("cons_left_flank", genotyper.DefaultOpts.ConsLeftFlank, "Minimum consecutive matching bases required on the left flank")
	consRightFlank   = flag.Int("cons_right_flank", genotyper.DefaultOpts.ConsRightFlank, "Minimum consecutive matching bases required on the right flank")
	mapQualityMin    = flag.Int("map_quality_min", genotyper.DefaultOpts.MapQualityMin, "Reads below this mapping quality are dropped")
	readLengthMin    = flag.Int("read_length_min", genotyper.DefaultOpts.ReadLengthMin, "Minimum read length; 0 disables")
	readLengthMax    = flag.Int("read_length_max", genotyper.DefaultOpts.ReadLengthMax, "Maximum read length; 0 disables")
	properlyPaired   = flag.Bool("properly_paired", genotyper.DefaultOpts.ProperlyPaired, "Require the proper-pair flag")
	multi            = flag.Bool("multi", genotyper.DefaultOpts.Multi, "Reject reads whose XT aux tag is 'R'")
	mode             = flag.Int("mode", genotyper.DefaultOpts.Mode, "Genotyping mode: 1 (haploid) or 2 (diploid)")
	emitAll          = flag.Bool("emit_all", genotyper.DefaultOpts.EmitAll, "Emit a VCF record even when no candidate differs from the reference")
	makeRepeatseq    = flag.Bool("make_repeatseq_file", genotyper.DefaultOpts.MakeRepeatseqFile, "Write the human-readable .repeatseq output")
	makeCalls        = flag.Bool("make_calls_file", genotyper.DefaultOpts.MakeCallsFile, "Write the tab-separated .calls output")
	bamIndexPath     = flag.String("bam_index", "", "BAM index path; defaults to bampath + \".bai\"")
	faiPath          = flag.String("fai", "", "FASTA index path; defaults to fastapath + \".fai\", rebuilt if missing")
	parallelism      = flag.Int("parallelism", 0, "Number of worker goroutines; 0 = runtime.NumCPU()")
	unitErrorTable   = flag.String("unit_error_table", "", "Path to an error-profile table overlaying the built-in defaults")
	outPrefix        = flag.String("out", "", "Output basename prefix; defaults to the BAM basename plus a parameter fingerprint")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] bampath fastapath regionpath\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 3 {
		log.Fatalf("exactly three positional arguments required: bampath fastapath regionpath")
	}
	bamPath, fastaPath, regionPath := flag.Arg(0), flag.Arg(1), flag.Arg(2)

	opts := genotyper.Opts{
		L:                 *l,
		ConsLeftFlank:      *consLeftFlank,
		ConsRightFlank:     *consRightFlank,
		MapQualityMin:      *mapQualityMin,
		ReadLengthMin:      *readLengthMin,
		ReadLengthMax:      *readLengthMax,
		ProperlyPaired:     *properlyPaired,
		Multi:              *multi,
		Mode:               *mode,
		EmitAll:            *emitAll,
		MakeRepeatseqFile: *makeRepeatseq,
		MakeCallsFile:     *makeCalls,
		Parallelism:        *parallelism,
	}
	if opts.Mode != 1 && opts.Mode != 2 {
		log.Fatalf("mode must be 1 (haploid) or 2 (diploid), got %d", opts.Mode)
	}

	phi := genotype.DefaultTable()
	if *unitErrorTable != "" {
		f, err := os.Open(*unitErrorTable)
		if err != nil {
			log.Fatalf("opening unit error table: %v", err)
		}
		phi, err = genotype.LoadTable(f)
		f.Close()
		if err != nil {
			log.Fatalf("loading unit error table: %v", err)
		}
	}

	tasks, err := loadTasks(regionPath)
	if err != nil {
		log.Fatalf("loading region file: %v", err)
	}

	openSequence := func() (reference.Sequence, error) { return openFasta(fastaPath, *faiPath) }
	seq, err := openSequence()
	if err != nil {
		log.Fatalf("opening reference: %v", err)
	}
	tasks = genotyper.ValidateRegions(tasks, seq)

	openBAM := func() (*alignment.Provider, error) { return alignment.Open(bamPath, *bamIndexPath) }

	out, err := genotyper.Run(tasks, openBAM, openSequence, opts, phi)
	if err != nil {
		log.Fatalf("genotyping: %v", err)
	}

	prefix := *outPrefix
	if prefix == "" {
		prefix = outputPrefix(bamPath, opts)
	}
	if err := writeOutputs(prefix, opts, out); err != nil {
		log.Fatalf("writing outputs: %v", err)
	}
}

// loadTasks reads the region input file described in spec.md §6, skipping
// and warning on malformed lines rather than aborting the run.
func loadTasks(path string) ([]genotyper.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tasks []genotyper.Task
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		reg, secondCol, err := region.Parse(line)
		if err != nil {
			log.Printf("region file line %d: %v; skipping", lineNo, err)
			continue
		}
		tasks = append(tasks, genotyper.Task{Region: reg, SecondCol: secondCol})
	}
	return tasks, scanner.Err()
}

// openFasta opens the reference FASTA for random access, rebuilding the
// .fai index in memory when the index file (faiPath, or fastaPath+".fai"
// by default) cannot be opened (spec.md §6: "rebuilt if missing").
func openFasta(fastaPath, faiPath string) (reference.Sequence, error) {
	if faiPath == "" {
		faiPath = fastaPath + ".fai"
	}
	faiFile, err := os.Open(faiPath)
	if err != nil {
		fasta, err := os.Open(fastaPath)
		if err != nil {
			return nil, err
		}
		defer fasta.Close()
		var built strings.Builder
		if err := reference.BuildIndex(&built, fasta); err != nil {
			return nil, err
		}
		fastaFile, err := os.Open(fastaPath)
		if err != nil {
			return nil, err
		}
		return reference.NewIndexed(fastaFile, strings.NewReader(built.String()))
	}
	defer faiFile.Close()
	fastaFile, err := os.Open(fastaPath)
	if err != nil {
		return nil, err
	}
	return reference.NewIndexed(fastaFile, faiFile)
}

// outputPrefix derives an output basename from the BAM basename plus a
// parameter fingerprint, per spec.md §6.
func outputPrefix(bamPath string, opts genotyper.Opts) string {
	base := strings.TrimSuffix(filepath.Base(bamPath), filepath.Ext(bamPath))
	fingerprint := fmt.Sprintf("L%d.lf%d.rf%d.mq%d.mode%d", opts.L, opts.ConsLeftFlank, opts.ConsRightFlank, opts.MapQualityMin, opts.Mode)
	return base + "." + fingerprint
}

func writeOutputs(prefix string, opts genotyper.Opts, out genotyper.RegionOutput) error {
	if opts.MakeRepeatseqFile {
		if err := os.WriteFile(prefix+".repeatseq", []byte(out.Repeatseq), 0644); err != nil {
			return err
		}
	}
	if opts.MakeCallsFile {
		if err := os.WriteFile(prefix+".calls", []byte(out.Calls), 0644); err != nil {
			return err
		}
	}
	vcf := vcfwriter.Header + out.VCF
	return os.WriteFile(prefix+".vcf", []byte(vcf), 0644)
}

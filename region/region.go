// Package region holds the repeat-region data model and the line parser for
// the region input file described in spec.md's External Interfaces section.
package region

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Region describes one repeat locus to genotype. Start and Stop are 1-based
// and inclusive, matching the convention of the region input file.
type Region struct {
	Chrom        string
	Start        int
	Stop         int
	UnitLength   int
	UnitSequence string
	Purity       float64
}

// Length returns the number of reference bases spanned by the repeat,
// |center| in spec.md's ReferenceWindow definition.
func (r Region) Length() int {
	return r.Stop - r.Start + 1
}

// String renders the region the way it appears in the region input file's
// first column, e.g. "chr7:1000-1012".
func (r Region) String() string {
	return r.Chrom + ":" + strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.Stop)
}

// Parse parses one line of the region input file:
//
//	<chr>:<start>-<stop>\t<unit_len>_<other>_<other>_<unit_seq>_<purity>_...
//
// Fields of the second column after purity may exist and are ignored.
// Parse errors are non-fatal at the call site (spec.md §7): the driver logs
// a warning and skips the region rather than aborting the run.
func Parse(line string) (Region, string, error) {
	coords, rest, ok := strings.Cut(line, "\t")
	if !ok {
		return Region{}, "", errors.Errorf("region line missing tab-separated second column: %q", line)
	}
	if rest == "" {
		return Region{}, "", errors.Errorf("missing information after the tab in region line: %q", line)
	}

	chrom, span, ok := strings.Cut(coords, ":")
	if !ok {
		return Region{}, "", errors.Errorf("malformed region coordinates (want chr:start-stop): %q", coords)
	}
	startStr, stopStr, ok := strings.Cut(span, "-")
	if !ok {
		return Region{}, "", errors.Errorf("malformed region span (want start-stop): %q", span)
	}
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return Region{}, "", errors.Wrapf(err, "invalid start position %q", startStr)
	}
	stop, err := strconv.Atoi(stopStr)
	if err != nil {
		return Region{}, "", errors.Wrapf(err, "invalid stop position %q", stopStr)
	}
	if start > stop {
		return Region{}, "", errors.Errorf("invalid region %q: start > stop", coords)
	}

	fields := strings.Split(rest, "_")
	if len(fields) < 5 {
		return Region{}, "", errors.Errorf("improper second column found for %q: need at least 5 underscore-separated fields", rest)
	}
	unitLength, err := strconv.Atoi(fields[0])
	if err != nil {
		return Region{}, "", errors.Wrapf(err, "invalid unit length %q", fields[0])
	}
	purity, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return Region{}, "", errors.Wrapf(err, "invalid purity %q", fields[4])
	}

	r := Region{
		Chrom:        chrom,
		Start:        start,
		Stop:         stop,
		UnitLength:   unitLength,
		UnitSequence: fields[3],
		Purity:       purity,
	}
	return r, rest, nil
}

// CheckBounds verifies that the region fits within a chromosome of the given
// length, per spec.md §3's invariant "stop ≤ length(chromosome)".
func (r Region) CheckBounds(chromLength int) error {
	if r.Stop > chromLength {
		return errors.Errorf("region %s is outside of chromosome (length %d)", r, chromLength)
	}
	return nil
}

package genotype

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Entry is one cell of the opaque error-rate table described in spec.md
// §4.5: the expected count of correct and erroneous observations for a
// given (unit size, reference-length bucket, quantized base quality) combo.
type Entry struct {
	Error   int
	Correct int
}

// Table is Φ[5][5][5], indexed by (unit_size-1, ref_length/15,
// quantized_base_quality). Not safe to mutate concurrently; built once at
// startup and shared read-only across workers (spec.md §5).
type Table [5][5][5]Entry

// DefaultTable returns a built-in Φ table: higher quantized base-quality
// buckets carry proportionally fewer expected errors, and longer/larger
// repeats carry proportionally more, a monotonic stand-in for the
// empirically-fit table original_source/repeatseq.cpp links in as
// PHI_TABLE (defined outside the portion of the source retained for this
// rewrite). -unit_error_table (spec.md §6) overrides this with real
// empirical values from a file in the same layout LoadTable reads.
func DefaultTable() Table {
	var t Table
	for u := 0; u < 5; u++ {
		for rl := 0; rl < 5; rl++ {
			for bq := 0; bq < 5; bq++ {
				// error rate grows with unit size and repeat length,
				// shrinks with base-quality bucket.
				errorWeight := (u + 1) * (rl + 1)
				correctWeight := 50 * (bq + 1)
				t[u][rl][bq] = Entry{Error: errorWeight, Correct: correctWeight}
			}
		}
	}
	return t
}

// LoadTable reads a Φ table from r, one line per cell formatted as
// "unit_size ref_bucket bq_bucket error correct" (whitespace separated,
// comments starting with '#' ignored), overlaying DefaultTable. unit_size is
// 1-5; the two buckets are 0-4.
func LoadTable(r io.Reader) (Table, error) {
	t := DefaultTable()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 {
			return t, errors.Errorf("phi table line %d: expected 5 fields, got %d", lineNo, len(fields))
		}
		vals := make([]int, 5)
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return t, errors.Wrapf(err, "phi table line %d", lineNo)
			}
			vals[i] = v
		}
		u, rl, bq, errC, correctC := vals[0], vals[1], vals[2], vals[3], vals[4]
		if u < 1 || u > 5 || rl < 0 || rl > 4 || bq < 0 || bq > 4 {
			return t, errors.Errorf("phi table line %d: index out of range", lineNo)
		}
		t[u-1][rl][bq] = Entry{Error: errC, Correct: correctC}
	}
	if err := scanner.Err(); err != nil {
		return t, errors.Wrap(err, "reading phi table")
	}
	return t, nil
}

// Lookup fetches the table cell for unitSize (clamped to [1,5]) and
// refLength (capped at 70), and a quantized base-quality bucket (clamped to
// [0,4]), per spec.md §4.5's pre-processing.
func (t Table) Lookup(unitSize, refLength, quantBQ int) Entry {
	if unitSize < 1 {
		unitSize = 1
	} else if unitSize > 5 {
		unitSize = 5
	}
	if refLength > 70 {
		refLength = 70
	}
	if quantBQ < 0 {
		quantBQ = 0
	} else if quantBQ > 4 {
		quantBQ = 4
	}
	return t[unitSize-1][refLength/15][quantBQ]
}

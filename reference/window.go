package reference

import (
	"strings"

	"github.com/pkg/errors"
)

// Window holds the uppercase reference bases around a repeat region, per
// spec.md §3's ReferenceWindow: |Center| == stop-start+1, and each flank is
// at most flankChars long, clipped at chromosome ends.
type Window struct {
	LeftFlank  string
	Center     string
	RightFlank string
}

// FetchWindow builds the reference window for a region, grounded on
// repeatseq.cpp's print_output (original_source/repeatseq.cpp lines
// 359-399): flankChars bases to either side of the repeat, clipped at
// chromosome boundaries, uppercased for case-insensitive matching downstream.
//
// start and stop are 1-based inclusive, matching region.Region.
func FetchWindow(seq Sequence, chrom string, start, stop, flankChars int) (Window, error) {
	chromLen, err := seq.Len(chrom)
	if err != nil {
		return Window{}, errors.Wrapf(err, "fetching window for %s:%d-%d", chrom, start, stop)
	}

	centerStart := uint64(start - 1)
	centerEnd := uint64(stop)
	if centerEnd > chromLen {
		return Window{}, errors.Errorf("region %s:%d-%d is outside of chromosome (length %d)", chrom, start, stop, chromLen)
	}

	leftStart := uint64(0)
	if int(centerStart)-flankChars > 0 {
		leftStart = centerStart - uint64(flankChars)
	}
	rightEnd := chromLen
	if centerEnd+uint64(flankChars) < chromLen {
		rightEnd = centerEnd + uint64(flankChars)
	}

	var left, right string
	if leftStart < centerStart {
		if left, err = seq.Get(chrom, leftStart, centerStart); err != nil {
			return Window{}, err
		}
	}
	center, err := seq.Get(chrom, centerStart, centerEnd)
	if err != nil {
		return Window{}, err
	}
	if rightEnd > centerEnd {
		if right, err = seq.Get(chrom, centerEnd, rightEnd); err != nil {
			return Window{}, err
		}
	}

	return Window{
		LeftFlank:  strings.ToUpper(left),
		Center:     strings.ToUpper(center),
		RightFlank: strings.ToUpper(right),
	}, nil
}

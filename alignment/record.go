// Package alignment exposes exactly the read fields spec.md §6 says the core
// consumes from a BAM record (name, position, CIGAR, bases, qualities,
// flags, map quality, the XT aux tag), plus a region-restricted iterator
// over them, without exposing the full github.com/biogo/hts/sam.Record API
// to the rest of this module.
package alignment

import "github.com/biogo/hts/sam"

// Op is a CIGAR operation type, matching the BAM/SAM CIGAR alphabet
// {M, I, D, N, S, H, P, =, X} referenced throughout spec.md §4.1.
type Op byte

const (
	OpMatch     Op = 'M'
	OpInsertion Op = 'I'
	OpDeletion  Op = 'D'
	OpSkipped   Op = 'N'
	OpSoftClip  Op = 'S'
	OpHardClip  Op = 'H'
	OpPadding   Op = 'P'
	OpEqual     Op = '='
	OpMismatch  Op = 'X'
)

// CigarOp is one (length, operation) pair of a CIGAR string.
type CigarOp struct {
	Op  Op
	Len int
}

// Flags is the BAM alignment flag bitset (spec.md §6).
type Flags uint16

const (
	FlagPaired        Flags = 1 << 0
	FlagProperPair    Flags = 1 << 1
	FlagUnmapped      Flags = 1 << 2
	FlagMateUnmapped  Flags = 1 << 3
	FlagReverse       Flags = 1 << 4
	FlagMateReverse   Flags = 1 << 5
	FlagRead1         Flags = 1 << 6
	FlagRead2         Flags = 1 << 7
	FlagSecondary     Flags = 1 << 8
	FlagQCFail        Flags = 1 << 9
	FlagDuplicate     Flags = 1 << 10
	FlagSupplementary Flags = 1 << 11
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Record is the slice of BAM record state the genotyper core needs.
type Record struct {
	Name string
	// Pos is the 0-based leftmost mapped reference position.
	Pos int
	MapQ int
	Cigar []CigarOp
	// Bases is the read's query sequence, one byte per base.
	Bases string
	// Quals holds per-base Phred quality scores (not ASCII-offset).
	Quals []byte
	Flags Flags
	// XT holds the value of the read's "XT" aux tag, or 0 if absent. Used by
	// the -multi filter (spec.md §6) to reject XT:A:R reads.
	XT byte
}

func (r *Record) IsReverse() bool    { return r.Flags.Has(FlagReverse) }
func (r *Record) IsProperPair() bool { return r.Flags.Has(FlagProperPair) }
func (r *Record) IsPaired() bool     { return r.Flags.Has(FlagPaired) }
func (r *Record) IsUnmapped() bool   { return r.Flags.Has(FlagUnmapped) }
func (r *Record) IsDuplicate() bool  { return r.Flags.Has(FlagDuplicate) }
func (r *Record) IsSecondary() bool  { return r.Flags.Has(FlagSecondary) }
func (r *Record) IsQCFail() bool     { return r.Flags.Has(FlagQCFail) }

// ReadLength returns the number of read bases in the record's CIGAR (M, I,
// S, = and X ops; deletions and clips absent from the read are not
// counted), matching repeatseq.cpp's readSize tally
// (original_source/repeatseq.cpp lines 538-544), used for the
// -read-length-min/-read-length-max filters.
func (r *Record) ReadLength() int {
	n := 0
	for _, op := range r.Cigar {
		switch op.Op {
		case OpMatch, OpInsertion, OpSoftClip, OpEqual, OpMismatch:
			n += op.Len
		}
	}
	return n
}

// fromSAM converts a biogo sam.Record into our slimmer Record.
func fromSAM(rec *sam.Record) *Record {
	r := &Record{
		Name:  rec.Name,
		Pos:   rec.Pos,
		MapQ:  int(rec.MapQ),
		Flags: Flags(rec.Flags),
		Bases: string(rec.Seq.Expand()),
		Quals: append([]byte(nil), rec.Qual...),
	}
	r.Cigar = make([]CigarOp, len(rec.Cigar))
	for i, op := range rec.Cigar {
		r.Cigar[i] = CigarOp{Op: cigarOpFromSAM(op.Type()), Len: op.Len()}
	}
	if aux := rec.AuxFields.Get(sam.NewTag("XT")); aux != nil {
		if s, ok := aux.Value().(string); ok && len(s) > 0 {
			r.XT = s[0]
		} else if b, ok := aux.Value().(byte); ok {
			r.XT = b
		}
	}
	return r
}

func cigarOpFromSAM(t sam.CigarOpType) Op {
	switch t {
	case sam.CigarMatch:
		return OpMatch
	case sam.CigarInsertion:
		return OpInsertion
	case sam.CigarDeletion:
		return OpDeletion
	case sam.CigarSkipped:
		return OpSkipped
	case sam.CigarSoftClipped:
		return OpSoftClip
	case sam.CigarHardClipped:
		return OpHardClip
	case sam.CigarPadded:
		return OpPadding
	case sam.CigarEqual:
		return OpEqual
	case sam.CigarMismatch:
		return OpMismatch
	default:
		return OpMatch
	}
}

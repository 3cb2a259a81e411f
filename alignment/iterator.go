package alignment

import (
	"io"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/pkg/errors"
)

// Iterator yields Records restricted to one genomic region, the "region-
// restricted alignment iterator" spec.md §1 treats as an external
// collaborator. Not safe for concurrent use; spec.md §5 gives each worker
// its own exclusive Provider/Iterator.
type Iterator interface {
	// Scan advances to the next record, returning false at end of region or
	// on error (check Err()).
	Scan() bool
	Record() *Record
	Err() error
	Close() error
}

// Provider opens region-restricted iterators against one BAM file. It holds
// open file handles for the lifetime of the run, per spec.md §5's resource
// policy, and is not thread-safe: each worker owns its own Provider.
type Provider struct {
	bamPath string
	file    *os.File
	reader  *bam.Reader
	idx     *bam.Index
	refs    map[string]*sam.Reference
}

// Open opens bamPath and its accompanying index (bamPath+".bai" unless
// indexPath is given), per spec.md §6.
func Open(bamPath, indexPath string) (*Provider, error) {
	f, err := os.Open(bamPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening BAM file")
	}
	r, err := bam.NewReader(f, 0)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "reading BAM header")
	}
	if indexPath == "" {
		indexPath = bamPath + ".bai"
	}
	idxFile, err := os.Open(indexPath)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "opening BAM index file")
	}
	defer idxFile.Close()
	idx, err := bam.ReadIndex(idxFile)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "reading BAM index")
	}

	refs := make(map[string]*sam.Reference)
	for _, ref := range r.Header().Refs() {
		refs[ref.Name()] = ref
	}

	return &Provider{bamPath: bamPath, file: f, reader: r, idx: idx, refs: refs}, nil
}

// Close releases the underlying file handle.
func (p *Provider) Close() error {
	return p.file.Close()
}

// RefLen returns the BAM header's recorded length for chrom, used to sanity
// check regions against the BAM header in addition to the FASTA index.
func (p *Provider) RefLen(chrom string) (int, bool) {
	ref, ok := p.refs[chrom]
	if !ok {
		return 0, false
	}
	return ref.Len(), true
}

// NewIterator restricts iteration to records overlapping the 0-based
// half-open interval [start, end) on chrom, matching spec.md §4.7's
// "[start-1, stop-1) in 0-based half-open" region restriction (callers pass
// already-adjusted 0-based coordinates).
func (p *Provider) NewIterator(chrom string, start, end int) (Iterator, error) {
	ref, ok := p.refs[chrom]
	if !ok {
		return nil, errors.Errorf("chromosome not found in BAM header: %s", chrom)
	}
	chunks, err := p.idx.Chunks(ref, start, end)
	if err == io.EOF || len(chunks) == 0 {
		return &emptyIterator{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "locating BAM chunks for %s:%d-%d", chrom, start, end)
	}
	it, err := bam.NewIterator(p.reader, chunks)
	if err != nil {
		return nil, errors.Wrap(err, "creating BAM iterator")
	}
	return &boundedIterator{it: it, refID: ref.ID(), start: start, end: end}, nil
}

// boundedIterator filters an underlying bam.Iterator (which yields every
// record in the index chunks, possibly spilling past the requested region)
// down to records whose alignment overlaps [start, end).
type boundedIterator struct {
	it    *bam.Iterator
	refID int
	start int
	end   int
	rec   *Record
	err   error
}

func (b *boundedIterator) Scan() bool {
	for b.it.Next() {
		rec := b.it.Record()
		if rec.Ref == nil || rec.Ref.ID() != b.refID {
			continue
		}
		if rec.Pos >= b.end || rec.End() <= b.start {
			continue
		}
		b.rec = fromSAM(rec)
		return true
	}
	b.err = b.it.Error()
	return false
}

func (b *boundedIterator) Record() *Record { return b.rec }
func (b *boundedIterator) Err() error      { return b.err }
func (b *boundedIterator) Close() error    { return b.it.Close() }

// emptyIterator is returned when the index has no chunks for a region
// (e.g. a contig with no aligned reads).
type emptyIterator struct{}

func (*emptyIterator) Scan() bool    { return false }
func (*emptyIterator) Record() *Record { return nil }
func (*emptyIterator) Err() error    { return nil }
func (*emptyIterator) Close() error  { return nil }

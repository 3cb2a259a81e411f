// Package reference provides random-access fetchers over FASTA-formatted
// reference genomes, and the reference-window assembly that the per-region
// driver uses to build the flanking context around a repeat.
//
// FASTA parsing itself is specified only by interface in spec.md (§1): the
// core consumes a Sequence. This package supplies a concrete implementation
// adapted from grailbio-bio's encoding/fasta package so the module is
// runnable end to end.
package reference

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const inMemoryBufferInitSize = 1024 * 1024 * 64

// Sequence is a random-access fetcher over named reference sequences.
// Get treats coordinates as a 0-based half-open interval [start, end).
// Implementations must be safe for concurrent use by a single owner only;
// spec.md §5 gives each worker its own exclusive handle.
type Sequence interface {
	Get(seqName string, start, end uint64) (string, error)
	Len(seqName string) (uint64, error)
	SeqNames() []string
}

type inMemorySequence struct {
	seqs     map[string]string
	seqNames []string
}

// NewInMemory reads the entire FASTA stream into memory. Appropriate for
// small references (e.g. test fixtures, amplicon panels); whole-genome FASTA
// should use NewIndexed instead.
func NewInMemory(r io.Reader) (Sequence, error) {
	f := &inMemorySequence{seqs: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, inMemoryBufferInitSize)
	var seqName string
	var seq strings.Builder
	flush := func() error {
		if seq.Len() == 0 {
			return nil
		}
		if seqName == "" {
			return errors.Errorf("malformed FASTA file")
		}
		f.seqs[seqName] = seq.String()
		f.seqNames = append(f.seqNames, seqName)
		seq.Reset()
		return nil
	}
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			seqName = strings.Split(line[1:], " ")[0]
		} else {
			seq.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read FASTA data")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return f, nil
}

// Get implements Sequence.
func (f *inMemorySequence) Get(seqName string, start, end uint64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", seqName)
	}
	if end <= start {
		return "", errors.Errorf("start must be less than end")
	}
	if end > uint64(len(s)) {
		return "", errors.Errorf("invalid query range %d-%d for sequence %s of length %d", start, end, seqName, len(s))
	}
	return s[start:end], nil
}

// Len implements Sequence.
func (f *inMemorySequence) Len(seqName string) (uint64, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seqName)
	}
	return uint64(len(s)), nil
}

// SeqNames implements Sequence.
func (f *inMemorySequence) SeqNames() []string {
	return f.seqNames
}

// indexEntry is one parsed line of a .fai file.
type indexEntry struct {
	length    uint64
	offset    uint64
	lineBase  uint64
	lineWidth uint64
}

type indexedSequence struct {
	entries  map[string]indexEntry
	seqNames []string
	reader   io.ReadSeeker

	mu        sync.Mutex
	bufOff    int64
	buf       []byte
	resultBuf []byte
}

// NewIndexed returns a Sequence that performs efficient random lookups
// against a FASTA file using its accompanying .fai index, without loading
// the file into memory. index must follow the samtools faidx format:
// "<name>\t<length>\t<offset>\t<line bases>\t<line width>".
func NewIndexed(fasta io.ReadSeeker, index io.Reader) (Sequence, error) {
	f := &indexedSequence{entries: make(map[string]indexEntry), reader: fasta}
	scanner := bufio.NewScanner(index)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != 5 {
			return nil, errors.Errorf("invalid .fai line: %q", scanner.Text())
		}
		var ent indexEntry
		var err error
		if ent.length, err = strconv.ParseUint(fields[1], 10, 64); err != nil {
			return nil, errors.Wrapf(err, "invalid .fai length field %q", fields[1])
		}
		if ent.offset, err = strconv.ParseUint(fields[2], 10, 64); err != nil {
			return nil, errors.Wrapf(err, "invalid .fai offset field %q", fields[2])
		}
		if ent.lineBase, err = strconv.ParseUint(fields[3], 10, 64); err != nil {
			return nil, errors.Wrapf(err, "invalid .fai line-base field %q", fields[3])
		}
		if ent.lineWidth, err = strconv.ParseUint(fields[4], 10, 64); err != nil {
			return nil, errors.Wrapf(err, "invalid .fai line-width field %q", fields[4])
		}
		f.entries[fields[0]] = ent
		f.seqNames = append(f.seqNames, fields[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read .fai index")
	}
	sort.SliceStable(f.seqNames, func(i, j int) bool {
		return f.entries[f.seqNames[i]].offset < f.entries[f.seqNames[j]].offset
	})
	return f, nil
}

// FaiToReferenceLengths reads a .fai index and returns a map of sequence
// name to length, without touching the FASTA file itself.
func FaiToReferenceLengths(index io.Reader) (map[string]uint64, error) {
	seq, err := NewIndexed(nil, index)
	if err != nil {
		return nil, err
	}
	lengths := make(map[string]uint64, len(seq.SeqNames()))
	for _, name := range seq.SeqNames() {
		l, err := seq.Len(name)
		if err != nil {
			return nil, err
		}
		lengths[name] = l
	}
	return lengths, nil
}

// Len implements Sequence.
func (f *indexedSequence) Len(seqName string) (uint64, error) {
	ent, ok := f.entries[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found in index: %s", seqName)
	}
	return ent.length, nil
}

// SeqNames implements Sequence.
func (f *indexedSequence) SeqNames() []string {
	return f.seqNames
}

// readRange reads the byte range [off, off+n) from the underlying file,
// caching the most recently read block.
func (f *indexedSequence) readRange(off int64, n int) ([]byte, error) {
	limit := off + int64(n)
	if off < f.bufOff || limit > f.bufOff+int64(len(f.buf)) {
		if newOffset, err := f.reader.Seek(off, io.SeekStart); err != nil || newOffset != off {
			return nil, errors.Errorf("failed to seek to offset %d: %d, %v", off, newOffset, err)
		}
		bufSize := 8192
		if bufSize < n {
			bufSize = n
		}
		resize(&f.buf, bufSize)
		nRead, err := f.reader.Read(f.buf)
		if nRead < n {
			return nil, errors.Errorf("unexpected end of file while reading FASTA (bad index, or file doesn't end in newline)")
		}
		if err != nil && err != io.EOF {
			return nil, err
		}
		f.bufOff = off
		f.buf = f.buf[:nRead]
	}
	return f.buf[off-f.bufOff : limit-f.bufOff], nil
}

func resize(buf *[]byte, n int) {
	if cap(*buf) < n {
		*buf = make([]byte, n)
	} else {
		*buf = (*buf)[:n]
	}
}

// Get implements Sequence.
func (f *indexedSequence) Get(seqName string, start, end uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if end <= start {
		return "", errors.Errorf("start must be less than end")
	}
	ent, ok := f.entries[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found in index: %s", seqName)
	}
	if end > ent.length {
		return "", errors.Errorf("end %d is past end of sequence %s (length %d)", end, seqName, ent.length)
	}

	charsPerNewline := ent.lineWidth - ent.lineBase
	offset := ent.offset + start + charsPerNewline*(start/ent.lineBase)

	firstLineBases := ent.lineBase - (start % ent.lineBase)
	var newlinesToRead uint64
	if end-start > firstLineBases {
		newlinesToRead = 1 + (end-start-firstLineBases)/ent.lineBase
	}
	capacity := end - start + newlinesToRead*charsPerNewline

	buffer, err := f.readRange(int64(offset), int(capacity))
	if err != nil {
		return "", err
	}

	resize(&f.resultBuf, int(end-start))
	linePos := (offset - ent.offset) % ent.lineWidth
	resultPos := 0
	for _, b := range buffer {
		if linePos < ent.lineBase {
			f.resultBuf[resultPos] = b
			resultPos++
		}
		linePos++
		if linePos == ent.lineWidth {
			linePos = 0
		}
	}
	return string(f.resultBuf), nil
}

// Package dataset reads, writes and generates the sets of bounding boxes
// that are loaded into an index by the rtree command.
package dataset

import (
	"bufio"
	"io"
	"math/rand"

	"github.com/acadlib/rtree"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
)

// ErrTypeInvalidEntry is the type of the errors returned for malformed
// entries.
const ErrTypeInvalidEntry = "dataset_invalid_entry"

// Entry is a bounding box and the id of the object it bounds.
type Entry struct {
	ID  string    `json:"id"`
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// Rect converts the entry bounds to a rectangle.
func (e Entry) Rect() (rtree.Rect, error) {
	r, err := rtree.NewRect(e.Min, e.Max)
	if err != nil {
		return r, errors.New("invalid entry bounds").
			WithType(ErrTypeInvalidEntry).
			WithTag("id", e.ID).
			Wrap(err)
	}
	return r, nil
}

// NewEntry creates an entry from a rectangle.
func NewEntry(id string, r rtree.Rect) Entry {
	return Entry{
		ID:  id,
		Min: append([]float64(nil), r.Min[:]...),
		Max: append([]float64(nil), r.Max[:]...),
	}
}

// Read decodes entries written one JSON object per line. Blank lines are
// skipped.
func Read(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for line := 1; scanner.Scan(); line++ {
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}

		var e Entry
		if err := json.Unmarshal(b, &e); err != nil {
			return nil, errors.New("decoding entry failed").
				WithType(ErrTypeInvalidEntry).
				WithTag("line", line).
				Wrap(err)
		}
		if e.ID == "" {
			return nil, errors.New("entry has no id").
				WithType(ErrTypeInvalidEntry).
				WithTag("line", line)
		}
		if _, err := e.Rect(); err != nil {
			return nil, errors.New("invalid entry").
				WithType(ErrTypeInvalidEntry).
				WithTag("line", line).
				Wrap(err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New("reading entries failed").Wrap(err)
	}
	return entries, nil
}

// Write encodes entries one JSON object per line.
func Write(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return errors.New("encoding entry failed").
				WithTag("id", e.ID).
				Wrap(err)
		}
		bw.Write(b)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// GenerateOptions controls the boxes made by Generate.
type GenerateOptions struct {
	// Count is the number of entries to generate.
	Count int

	// Extent is the size of the cube the boxes are placed in, starting at
	// the origin.
	Extent float64

	// MaxSize is the largest size of a box along any axis.
	MaxSize float64
}

// Generate creates random entries identified by random UUIDs, using rnd as
// the source of both the boxes and the ids.
func Generate(rnd *rand.Rand, opts GenerateOptions) ([]Entry, error) {
	entries := make([]Entry, opts.Count)
	for i := range entries {
		id, err := uuid.NewRandomFromReader(rnd)
		if err != nil {
			return nil, errors.New("generating entry id failed").Wrap(err)
		}

		var r rtree.Rect
		for d := 0; d < rtree.Dimensions; d++ {
			r.Min[d] = rnd.Float64() * opts.Extent
			r.Max[d] = r.Min[d] + rnd.Float64()*opts.MaxSize
		}
		entries[i] = NewEntry(id.String(), r)
	}
	return entries, nil
}

package mcomp

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/fcompdata/fcompdata/internal/errors"
	"github.com/fcompdata/fcompdata/internal/observability/metrics"
)

// Dataset is an ordered collection of Series addressed by 1-based index.
//
// A freshly loaded corpus holds the indices 1..Len(). Subsets keep the indices
// of their parent, so they may have gaps. A Dataset is read-only; Series are
// shared between a Dataset and its subsets.
type Dataset struct {
	name    string
	series  map[int]*Series
	indices []int // ascending

	// corpus labels lookup metrics, it survives Subset renaming
	corpus  string
	metrics *metrics.CorpusMetrics
}

// NewDataset builds a Dataset named name from index → Series entries.
func NewDataset(name string, series map[int]*Series) *Dataset {
	if series == nil {
		series = make(map[int]*Series)
	}
	return &Dataset{
		name:    name,
		series:  series,
		indices: slices.Sorted(maps.Keys(series)),
		corpus:  name,
	}
}

// Name returns the dataset label, e.g. "M3" or "M3_yearly".
func (d *Dataset) Name() string {
	return d.name
}

// Get returns the series at the 1-based index.
func (d *Dataset) Get(index int) (*Series, error) {
	s, ok := d.series[index]
	d.metrics.RecordLookup(d.corpus, ok)
	if !ok {
		return nil, errors.Newf("%w: series %d in %s dataset", ErrNotFound, index, d.name).
			Category(errors.CategoryNotFound).
			Context("index", index).
			Context("dataset", d.name).
			Build()
	}
	return s, nil
}

// Len returns the number of series held.
func (d *Dataset) Len() int {
	return len(d.series)
}

// All yields the series in ascending index order.
func (d *Dataset) All() iter.Seq[*Series] {
	return func(yield func(*Series) bool) {
		for _, i := range d.indices {
			if !yield(d.series[i]) {
				return
			}
		}
	}
}

// Indices returns the held indices in ascending order.
func (d *Dataset) Indices() []int {
	return slices.Clone(d.indices)
}

// Pairs yields (index, series) in ascending index order.
func (d *Dataset) Pairs() iter.Seq2[int, *Series] {
	return func(yield func(int, *Series) bool) {
		for _, i := range d.indices {
			if !yield(i, d.series[i]) {
				return
			}
		}
	}
}

// Subset returns the series whose frequency class equals label exactly,
// under their original indices. The result is named "<name>_<label>".
// A label no series carries yields an empty Dataset.
func (d *Dataset) Subset(label string) *Dataset {
	filtered := make(map[int]*Series)
	for i, s := range d.series {
		if s.frequencyClass == label {
			filtered[i] = s
		}
	}
	sub := NewDataset(d.name+"_"+label, filtered)
	sub.corpus = d.corpus
	sub.metrics = d.metrics
	return sub
}

// Counts returns the number of series per frequency class.
func (d *Dataset) Counts() map[string]int {
	counts := make(map[string]int)
	for _, s := range d.series {
		counts[s.frequencyClass]++
	}
	return counts
}

// String returns e.g. "M3 Dataset: 3003 series".
func (d *Dataset) String() string {
	return fmt.Sprintf("%s Dataset: %d series", d.name, d.Len())
}

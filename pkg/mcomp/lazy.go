package mcomp

import (
	"fmt"
	"iter"
	"sync"

	"github.com/fcompdata/fcompdata/internal/errors"
)

// Loader materializes a Dataset.
type Loader func() (*Dataset, error)

// Lazy defers loading a Dataset until the first read and keeps it afterwards.
//
// The loader runs at most once per successful load, even under concurrent
// access. A failed load is not remembered: the next read calls the loader
// again.
type Lazy struct {
	name   string
	loader Loader

	mu   sync.Mutex
	data *Dataset
}

// NewLazy returns a handle that loads name with loader on first use.
func NewLazy(name string, loader Loader) *Lazy {
	return &Lazy{name: name, loader: loader}
}

// Name returns the display name of the handle.
func (l *Lazy) Name() string {
	return l.name
}

// Loaded reports whether the dataset has been materialized.
func (l *Lazy) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data != nil
}

// Dataset returns the materialized dataset, loading it if needed.
func (l *Lazy) Dataset() (*Dataset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.data != nil {
		return l.data, nil
	}
	if l.loader == nil {
		return nil, errors.Newf("%s dataset has no loader", l.name).
			Category(errors.CategoryState).
			Build()
	}

	d, err := l.loader()
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errors.Newf("%s dataset loader returned no dataset", l.name).
			Category(errors.CategoryState).
			Build()
	}
	l.data = d
	return d, nil
}

// Get returns the series at the 1-based index.
func (l *Lazy) Get(index int) (*Series, error) {
	d, err := l.Dataset()
	if err != nil {
		return nil, err
	}
	return d.Get(index)
}

// Len returns the number of series.
func (l *Lazy) Len() (int, error) {
	d, err := l.Dataset()
	if err != nil {
		return 0, err
	}
	return d.Len(), nil
}

// All yields the series in ascending index order.
func (l *Lazy) All() (iter.Seq[*Series], error) {
	d, err := l.Dataset()
	if err != nil {
		return nil, err
	}
	return d.All(), nil
}

// Indices returns the held indices in ascending order.
func (l *Lazy) Indices() ([]int, error) {
	d, err := l.Dataset()
	if err != nil {
		return nil, err
	}
	return d.Indices(), nil
}

// Pairs yields (index, series) in ascending index order.
func (l *Lazy) Pairs() (iter.Seq2[int, *Series], error) {
	d, err := l.Dataset()
	if err != nil {
		return nil, err
	}
	return d.Pairs(), nil
}

// Subset filters the materialized dataset by frequency class.
// The result is a plain Dataset.
func (l *Lazy) Subset(label string) (*Dataset, error) {
	d, err := l.Dataset()
	if err != nil {
		return nil, err
	}
	return d.Subset(label), nil
}

// String describes the dataset without loading it.
func (l *Lazy) String() string {
	l.mu.Lock()
	d := l.data
	l.mu.Unlock()

	if d == nil {
		return fmt.Sprintf("%s Dataset (not loaded yet - access any series to load)", l.name)
	}
	return d.String()
}

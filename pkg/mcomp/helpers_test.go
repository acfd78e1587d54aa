package mcomp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// readFixture returns the contents of testdata/name.
func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "failed to read fixture %s", name)
	return data
}

// sampleDataset normalizes testdata/sample.json as corpus "S".
func sampleDataset(t *testing.T) *Dataset {
	t.Helper()
	d, err := Normalize("S", readFixture(t, "sample.json"))
	require.NoError(t, err)
	return d
}

// datasetOf builds a Dataset from series placed at the given indices.
func datasetOf(name string, entries map[int]*Series) *Dataset {
	return NewDataset(name, entries)
}

func yearly(id string) *Series {
	return NewSeries(id, []float64{1, 2, 3}, []float64{4}, 1, 1, ClassYearly, "")
}

func monthly(id string) *Series {
	return NewSeries(id, []float64{1, 2, 3, 4}, []float64{5, 6}, 2, 12, ClassMonthly, "")
}

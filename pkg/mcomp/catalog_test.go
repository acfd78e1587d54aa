package mcomp

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcompdata/fcompdata/internal/conf"
	"github.com/fcompdata/fcompdata/internal/errors"
	"github.com/fcompdata/fcompdata/internal/observability/metrics"
)

// memCatalog returns a catalog over an in-memory filesystem holding the sample
// fixture as the M3 corpus file.
func memCatalog(t *testing.T, opts ...CatalogOption) *Catalog {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, CorpusM3.File, readFixture(t, "sample.json"), 0o644))
	return NewCatalog(mem, opts...)
}

func TestLookupCorpus(t *testing.T) {
	for _, name := range []string{"M1", "m3", "TOURISM", "tourism"} {
		c, err := LookupCorpus(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, c.File)
	}

	_, err := LookupCorpus("M5")
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "M5")
}

func TestCorpora(t *testing.T) {
	sizes := map[string]int{}
	for _, c := range Corpora() {
		sizes[c.Name] = c.Size
	}
	assert.Equal(t, map[string]int{"M1": 1001, "M3": 3003, "Tourism": 1311}, sizes)
}

func TestCatalogLoad(t *testing.T) {
	c := memCatalog(t)

	assert.True(t, c.Available(CorpusM3))
	assert.False(t, c.Available(CorpusM1))

	d, err := c.Load(CorpusM3)
	require.NoError(t, err)
	assert.Equal(t, "M3", d.Name())
	assert.Equal(t, 5, d.Len())

	again, err := c.Load(CorpusM3)
	require.NoError(t, err)
	assert.NotSame(t, d, again, "eager loads return fresh datasets")
	assert.Equal(t, d.Indices(), again.Indices())
}

func TestCatalogLoadMissingFile(t *testing.T) {
	c := memCatalog(t)

	d, err := c.Load(CorpusTourism)
	require.Error(t, err)
	assert.Nil(t, d)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
	assert.Contains(t, err.Error(), CorpusTourism.File)
	assert.Contains(t, err.Error(), "FCOMPDATA_DATA_DIR", "the error says where the file is looked up")
}

func TestCatalogLoadMalformedFile(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, CorpusM1.File, []byte(`{"a": `), 0o644))

	_, err := NewCatalog(mem).Load(CorpusM1)
	require.ErrorIs(t, err, ErrParse)
}

func TestCatalogMetrics(t *testing.T) {
	m, err := metrics.NewCorpusMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	c := memCatalog(t, WithMetrics(m))

	d, err := c.Load(CorpusM3)
	require.NoError(t, err)
	_, err = c.Load(CorpusM1)
	require.Error(t, err)

	_, _ = d.Get(1)
	_, _ = d.Subset(ClassYearly).Get(2)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Loads.WithLabelValues("M3", metrics.StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Loads.WithLabelValues("M1", metrics.StatusError)), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(m.SeriesLoaded.WithLabelValues("M3")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Lookups.WithLabelValues("M3", metrics.ResultHit)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Lookups.WithLabelValues("M3", metrics.ResultMiss)), 0)
}

func TestCatalogLazy(t *testing.T) {
	mem := afero.NewMemMapFs()
	c := NewCatalog(mem)
	l := c.Lazy(CorpusM3)

	_, err := l.Len()
	require.ErrorIs(t, err, fs.ErrNotExist)

	// a failed load is retried once the file appears
	require.NoError(t, afero.WriteFile(mem, CorpusM3.File, readFixture(t, "sample.json"), 0o644))
	n, err := l.Len()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestDirCatalog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CorpusTourism.File), readFixture(t, "sample.json"), 0o600))

	d, err := NewDirCatalog(dir).Load(CorpusTourism)
	require.NoError(t, err)
	assert.Equal(t, "Tourism Dataset: 5 series", d.String())
}

func TestFSCatalog(t *testing.T) {
	fsys := fstest.MapFS{
		CorpusM1.File: &fstest.MapFile{Data: readFixture(t, "sample.json")},
	}

	d, err := NewFSCatalog(fsys).Load(CorpusM1)
	require.NoError(t, err)
	assert.Equal(t, 5, d.Len())

	_, err = NewFSCatalog(fsys).Load(CorpusM3)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDefaultCatalogReplacement(t *testing.T) {
	original := DefaultCatalog()
	t.Cleanup(func() { SetDefaultCatalog(original) })

	SetDefaultCatalog(memCatalog(t))
	d, err := LoadM3()
	require.NoError(t, err)
	assert.Equal(t, 5, d.Len())

	// a handle bound to the default catalog resolves it at load time
	l := NewLazy("M3", LoadM3)
	sub, err := l.Subset(ClassQuarterly)
	require.NoError(t, err)
	assert.Equal(t, 1, sub.Len())
}

// bundledCatalog returns the catalog over the configured data directory,
// skipping the test when the corpus files are not installed.
func bundledCatalog(t *testing.T, corpus Corpus) *Catalog {
	t.Helper()
	c := NewDirCatalog(conf.Setting().Data.Dir)
	if !c.Available(corpus) {
		t.Skipf("%s not installed in %s", corpus.File, conf.Setting().Data.Dir)
	}
	return c
}

func TestBundledCorpora(t *testing.T) {
	for _, corpus := range Corpora() {
		t.Run(corpus.Name, func(t *testing.T) {
			c := bundledCatalog(t, corpus)

			d, err := c.Load(corpus)
			require.NoError(t, err)
			assert.Equal(t, corpus.Size, d.Len())

			indices := d.Indices()
			for i, index := range indices {
				require.Equal(t, i+1, index, "indices must be 1..n")
			}

			for i, s := range d.Pairs() {
				require.NotEmpty(t, s.ID(), "series %d", i)
				require.Equal(t, len(s.TrainingData()), s.TrainingLength(), "series %d", i)
			}

			for _, label := range []string{ClassYearly, ClassQuarterly, ClassMonthly, ClassOther} {
				for s := range d.Subset(label).All() {
					require.Equal(t, label, s.FrequencyClass())
				}
			}

			again, err := c.Load(corpus)
			require.NoError(t, err)
			assert.Equal(t, indices, again.Indices())
			for i := range indices {
				a, _ := d.Get(indices[i])
				b, _ := again.Get(indices[i])
				assert.Equal(t, a.ID(), b.ID())
				assert.Equal(t, a.Horizon(), b.Horizon())
				assert.Equal(t, a.TrainingLength(), b.TrainingLength())
			}
		})
	}
}

func TestBundledM3Scenario(t *testing.T) {
	c := bundledCatalog(t, CorpusM3)
	m3 := c.Lazy(CorpusM3)

	s, err := m3.Get(1)
	require.NoError(t, err)
	assert.Positive(t, s.Horizon())
	assert.NotEmpty(t, s.TrainingData())

	_, err = m3.Get(99999)
	require.ErrorIs(t, err, ErrNotFound)
}

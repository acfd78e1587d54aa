package m4

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcompdata/fcompdata/internal/errors"
	"github.com/fcompdata/fcompdata/internal/observability/metrics"
	"github.com/fcompdata/fcompdata/pkg/mcomp"
)

func TestParseFrequency(t *testing.T) {
	for _, f := range Frequencies() {
		got, err := ParseFrequency(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	assert.Len(t, Frequencies(), 6)

	for _, label := range []string{"invalid", "", "Yearly", "other", "annual"} {
		_, err := ParseFrequency(label)
		require.Error(t, err, label)
		assert.ErrorIs(t, err, mcomp.ErrInvalidArgument)
		assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		assert.Contains(t, err.Error(), "unknown frequency")
	}
}

func TestHorizonsAndNames(t *testing.T) {
	tests := []struct {
		label   string
		horizon int
		title   string
	}{
		{"yearly", 6, "Yearly"},
		{"quarterly", 8, "Quarterly"},
		{"monthly", 18, "Monthly"},
		{"weekly", 13, "Weekly"},
		{"daily", 14, "Daily"},
		{"hourly", 48, "Hourly"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			h, err := Horizon(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.horizon, h)
			assert.Equal(t, tt.title, Frequency(tt.label).Title())

			name, err := FileName(tt.label)
			require.NoError(t, err)
			assert.Equal(t, "m4_"+tt.label+".json", name)
		})
	}
}

func TestURLs(t *testing.T) {
	c := newTestClient(t, "https://example.org/m4/")

	train, test, err := c.URLs("hourly")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/m4/Train/Hourly-train.csv", train)
	assert.Equal(t, "https://example.org/m4/Test/Hourly-test.csv", test)
}

func TestUnknownFrequencyRegardlessOfCache(t *testing.T) {
	srv := newM4Server(t)
	c := newTestClient(t, srv.URL)

	check := func(t *testing.T) {
		t.Helper()
		_, err := c.Load("invalid")
		assert.ErrorIs(t, err, mcomp.ErrInvalidArgument)
		assert.Contains(t, err.Error(), "unknown frequency")

		_, err = c.Download(t.Context(), "invalid")
		assert.ErrorIs(t, err, mcomp.ErrInvalidArgument)

		_, _, err = c.Path("invalid")
		assert.ErrorIs(t, err, mcomp.ErrInvalidArgument)

		_, _, err = c.URLs("invalid")
		assert.ErrorIs(t, err, mcomp.ErrInvalidArgument)

		assert.ErrorIs(t, c.ClearCache("yearly", "invalid"), mcomp.ErrInvalidArgument)
	}

	check(t)
	_, err := c.Download(t.Context(), "yearly")
	require.NoError(t, err)
	check(t)
	assert.Equal(t, int32(2), srv.hits.Load(), "invalid labels never reach the network")
}

func TestLoadBeforeDownload(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")

	path, ok, err := c.Path("hourly")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, c.Dir(), filepath.Dir(path))

	d, err := c.Load("hourly")
	require.Error(t, err)
	assert.Nil(t, d)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
	assert.Contains(t, err.Error(), "download")
}

func TestDownloadAndLoad(t *testing.T) {
	srv := newM4Server(t)
	m, err := metrics.NewDownloadMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	c := newTestClient(t, srv.URL, WithMetrics(m))

	path, err := c.Download(t.Context(), "yearly")
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, int32(2), srv.hits.Load())

	cachedPath, ok, err := c.Path("yearly")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, path, cachedPath)

	d, err := c.Load("yearly")
	require.NoError(t, err)
	assert.Equal(t, "M4 Yearly Dataset: 3 series", d.String())

	y1, err := d.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Y1", y1.ID())
	assert.Equal(t, 6, y1.Horizon())
	assert.Equal(t, 1, y1.SeasonalPeriod())
	assert.Equal(t, mcomp.ClassYearly, y1.FrequencyClass())
	assert.Equal(t, []float64{5172.1, 5133.5, 5186.9, 5084.6, 5182, 5414.3}, y1.TrainingData())
	assert.Len(t, y1.TestData(), 6)

	y2, err := d.Get(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{2070, 2104, 2394}, y2.TrainingData(), "padding cells are dropped")

	y3, err := d.Get(3)
	require.NoError(t, err)
	assert.Empty(t, y3.TestData(), "series without a test row")
	assert.Equal(t, 6, y3.Horizon())

	// cached: no more requests, memoized dataset
	_, err = c.Download(t.Context(), "yearly")
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.hits.Load())

	again, err := c.Load("yearly")
	require.NoError(t, err)
	assert.Same(t, d, again)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Downloads.WithLabelValues("yearly", metrics.StatusSuccess)), 0)
	assert.Positive(t, testutil.ToFloat64(m.DownloadBytes.WithLabelValues("yearly", metrics.FileTrain)))
	assert.InDelta(t, 1, testutil.ToFloat64(m.MemoHits), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MemoMisses), 0)

	assertOnlyCorpusFiles(t, c.Dir(), "m4_yearly.json")
}

// assertOnlyCorpusFiles checks that no temporary files are left behind.
func assertOnlyCorpusFiles(t *testing.T, dir string, want ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		if e.Name() == lockFileName {
			continue
		}
		got = append(got, e.Name())
	}
	assert.ElementsMatch(t, want, got)
}

func TestTemporaryFilesInCacheDir(t *testing.T) {
	srv := newM4Server(t)
	c := newTestClient(t, srv.URL, WithRetries(0))

	train, _ := c.urls(Yearly)
	tmp, err := c.fetchTemp(t.Context(), Yearly, metrics.FileTrain, train)
	require.NoError(t, err)
	name := filepath.Base(tmp.Name())
	assert.FileExists(t, filepath.Join(c.Dir(), name))

	c.removeTemp(tmp)
	assert.NoFileExists(t, filepath.Join(c.Dir(), name))
	assertOnlyCorpusFiles(t, c.Dir())

	// a cache directory that does not exist yet is created by the download
	fresh := New(filepath.Join(t.TempDir(), "nested", "cache"), WithBaseURL(srv.URL), WithRetries(0))
	t.Cleanup(fresh.Close)
	path, err := fresh.Download(t.Context(), "yearly")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fresh.Dir(), "m4_yearly.json"), path)
	assertOnlyCorpusFiles(t, fresh.Dir(), "m4_yearly.json")
}

func TestDownloadRetriesTransientErrors(t *testing.T) {
	srv := newM4Server(t)
	srv.fail = func(n int32, r *http.Request) int {
		if n <= 2 {
			return http.StatusServiceUnavailable
		}
		return 0
	}
	m, err := metrics.NewDownloadMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	c := newTestClient(t, srv.URL, WithMetrics(m))

	_, err = c.Download(t.Context(), "yearly")
	require.NoError(t, err)
	assert.Equal(t, int32(4), srv.hits.Load())
	assert.InDelta(t, 2, testutil.ToFloat64(m.Retries.WithLabelValues("yearly")), 0)

	d, err := c.Load("yearly")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())
}

func TestDownloadRateLimitedIsRetried(t *testing.T) {
	srv := newM4Server(t)
	srv.fail = func(n int32, r *http.Request) int {
		if n == 1 {
			return http.StatusTooManyRequests
		}
		return 0
	}
	c := newTestClient(t, srv.URL)

	_, err := c.Download(t.Context(), "yearly")
	require.NoError(t, err)
	assert.Equal(t, int32(3), srv.hits.Load())
}

func TestDownloadGivesUpAfterRetries(t *testing.T) {
	srv := newM4Server(t)
	srv.fail = func(int32, *http.Request) int { return http.StatusInternalServerError }
	c := newTestClient(t, srv.URL, WithRetries(2))

	_, err := c.Download(t.Context(), "yearly")
	require.Error(t, err)
	assert.Equal(t, int32(3), srv.hits.Load(), "one attempt plus two retries")
	assert.True(t, errors.IsCategory(err, errors.CategoryHTTP))
	assert.Contains(t, err.Error(), "500")

	_, ok, err := c.Path("yearly")
	require.NoError(t, err)
	assert.False(t, ok)
	assertOnlyCorpusFiles(t, c.Dir())
}

func TestDownloadDoesNotRetryClientErrors(t *testing.T) {
	srv := newM4Server(t)
	c := newTestClient(t, srv.URL)

	// no weekly fixtures: the server answers 404
	_, err := c.Download(t.Context(), "weekly")
	require.Error(t, err)
	assert.Equal(t, int32(1), srv.hits.Load())
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "Weekly-train.csv")

	_, err = c.Load("weekly")
	require.ErrorIs(t, err, fs.ErrNotExist)
	assertOnlyCorpusFiles(t, c.Dir())
}

func TestDownloadCancelled(t *testing.T) {
	srv := newM4Server(t)
	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := c.Download(ctx, "yearly")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentDownloadsAreMerged(t *testing.T) {
	srv := newM4Server(t)
	c := newTestClient(t, srv.URL)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			_, err := c.Download(context.Background(), "yearly")
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	assert.Equal(t, int32(2), srv.hits.Load(), "train and test fetched once")
}

func TestClearCache(t *testing.T) {
	srv := newM4Server(t)
	c := newTestClient(t, srv.URL)

	require.NoError(t, c.ClearCache(), "clearing an empty cache is fine")

	_, err := c.Download(t.Context(), "yearly")
	require.NoError(t, err)
	_, err = c.Load("yearly")
	require.NoError(t, err)

	require.NoError(t, c.ClearCache("yearly"))

	_, ok, err := c.Path("yearly")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Load("yearly")
	require.ErrorIs(t, err, fs.ErrNotExist, "memoized dataset is dropped too")
}

func TestLazy(t *testing.T) {
	srv := newM4Server(t)
	c := newTestClient(t, srv.URL)

	l := c.Lazy("yearly")
	assert.Equal(t, "M4 Yearly Dataset (not loaded yet - access any series to load)", l.String())

	_, err := l.Len()
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = c.Download(t.Context(), "yearly")
	require.NoError(t, err)

	n, err := l.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = c.Lazy("invalid").Len()
	require.ErrorIs(t, err, mcomp.ErrInvalidArgument)
}

func TestDefaultClient(t *testing.T) {
	srv := newM4Server(t)
	c := newTestClient(t, srv.URL)

	original := Default()
	t.Cleanup(func() { SetDefault(original) })
	SetDefault(c)

	assert.Equal(t, c.Dir(), DataHome())

	train, _, err := URLs("yearly")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(train, srv.URL))

	_, err = Load("yearly")
	require.ErrorIs(t, err, fs.ErrNotExist)

	path, err := Download(t.Context(), "yearly")
	require.NoError(t, err)

	resolved, ok, err := Path("yearly")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, path, resolved)

	d, err := Load("yearly")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())

	require.NoError(t, ClearCache())
	_, ok, err = Path("yearly")
	require.NoError(t, err)
	assert.False(t, ok)
}

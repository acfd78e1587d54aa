package m4

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/patrickmn/go-cache"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"github.com/fcompdata/fcompdata/internal/buildinfo"
	"github.com/fcompdata/fcompdata/internal/conf"
	"github.com/fcompdata/fcompdata/internal/errors"
	"github.com/fcompdata/fcompdata/internal/httpclient"
	"github.com/fcompdata/fcompdata/internal/logger"
	"github.com/fcompdata/fcompdata/internal/observability/metrics"
	"github.com/fcompdata/fcompdata/pkg/mcomp"
)

const (
	lockFileName     = ".m4.lock"
	lockRetryDelay   = 250 * time.Millisecond
	defaultBackoff   = 500 * time.Millisecond
	maxBackoffPerTry = 30 * time.Second
)

// tempDir is where temporary files are created, relative to the cache root,
// next to the corpus files they are renamed to.
const tempDir = "."

// Client manages one M4 cache directory.
//
// Concurrent downloads of the same frequency are merged within a process and
// serialized across processes with a lock file in the cache directory. Loaded
// datasets are memoized in memory for the configured TTL.
type Client struct {
	dir     string
	fs      afero.Fs
	baseURL string
	retries int
	backoff time.Duration
	timeout time.Duration

	http      *httpclient.Client
	transport http.RoundTripper
	log       logger.Logger
	metrics   *metrics.DownloadMetrics

	group singleflight.Group
	memo  *cache.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the location holding the Train/ and Test/ CSV folders.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRetries sets how many times a transient transfer failure is retried.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = max(n, 0) }
}

// WithBackoff sets the initial delay between retries; it doubles per retry.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithTimeout sets the per-file transfer timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTransport replaces the HTTP transport used for transfers.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithMemoTTL sets how long loaded datasets stay in memory.
func WithMemoTTL(d time.Duration) Option {
	return func(c *Client) { c.memo = cache.New(d, 0) }
}

// WithLogger sets the logger for download events.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics records downloads and memo hits in m.
func WithMetrics(m *metrics.DownloadMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New returns a Client caching into dir.
func New(dir string, opts ...Option) *Client {
	c := &Client{
		dir:     dir,
		fs:      afero.NewBasePathFs(afero.NewOsFs(), dir),
		baseURL: conf.DefaultM4BaseURL,
		retries: conf.DefaultM4Retries,
		backoff: defaultBackoff,
		timeout: conf.DefaultM4Timeout,
		log:     logger.Global().Module("m4"),
		// no janitor goroutine: expired entries are dropped on access
		memo: cache.New(conf.DefaultM4MemoTTL, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	cfg := httpclient.DefaultConfig()
	cfg.DefaultTimeout = c.timeout
	cfg.UserAgent = conf.AppName + "/" + buildinfo.Current().Version()
	cfg.Transport = c.transport
	c.http = httpclient.New(&cfg)
	return c
}

// NewFromSettings returns a Client configured from settings. opts are applied
// after the settings.
func NewFromSettings(s *conf.Settings, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(s.M4.BaseURL),
		WithRetries(s.M4.Retries),
		WithTimeout(s.M4.Timeout),
		WithMemoTTL(s.M4.MemoTTL),
	}
	return New(s.Cache.Dir, append(base, opts...)...)
}

// Dir returns the cache directory.
func (c *Client) Dir() string {
	return c.dir
}

// Close releases idle HTTP connections.
func (c *Client) Close() {
	c.http.Close()
}

// URLs returns the remote train and test CSV locations of the frequency label.
func (c *Client) URLs(label string) (train, test string, err error) {
	f, err := ParseFrequency(label)
	if err != nil {
		return "", "", err
	}
	train, test = c.urls(f)
	return train, test, nil
}

func (c *Client) urls(f Frequency) (train, test string) {
	return c.baseURL + "/Train/" + f.Title() + "-train.csv",
		c.baseURL + "/Test/" + f.Title() + "-test.csv"
}

// Path returns the local corpus file of the frequency label and whether it
// has been downloaded. A missing file is not an error.
func (c *Client) Path(label string) (string, bool, error) {
	f, err := ParseFrequency(label)
	if err != nil {
		return "", false, err
	}
	path := filepath.Join(c.dir, f.FileName())
	return path, c.cached(f), nil
}

func (c *Client) cached(f Frequency) bool {
	ok, err := afero.Exists(c.fs, f.FileName())
	return err == nil && ok
}

// Download fetches and converts the frequency label unless it is already
// cached, and returns the local corpus file.
func (c *Client) Download(ctx context.Context, label string) (string, error) {
	f, err := ParseFrequency(label)
	if err != nil {
		return "", err
	}
	path := filepath.Join(c.dir, f.FileName())
	if c.cached(f) {
		return path, nil
	}

	_, err, shared := c.group.Do(string(f), func() (any, error) {
		return nil, c.download(ctx, f)
	})
	if shared {
		c.log.Debug("joined in-flight download", logger.String("frequency", string(f)))
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

func (c *Client) download(ctx context.Context, f Frequency) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.RecordDownload(string(f), time.Since(start), err)
	}()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.FileError(err, c.dir, 0)
	}

	lock := flock.New(filepath.Join(c.dir, lockFileName))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return errors.Newf("failed to lock M4 cache %s: %w", c.dir, lockError(ctx, err)).
			Category(errors.CategoryFileIO).
			Context("frequency", string(f)).
			Build()
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			c.log.Warn("failed to release M4 cache lock", logger.Error(unlockErr))
		}
	}()

	// another process may have finished the download while we waited
	if c.cached(f) {
		return nil
	}

	trainURL, testURL := c.urls(f)
	c.log.Info("downloading M4 data",
		logger.String("frequency", string(f)),
		logger.String("url", trainURL))

	train, err := c.fetchTemp(ctx, f, metrics.FileTrain, trainURL)
	if err != nil {
		return err
	}
	defer c.removeTemp(train)

	test, err := c.fetchTemp(ctx, f, metrics.FileTest, testURL)
	if err != nil {
		return err
	}
	defer c.removeTemp(test)

	count, err := c.writeCorpus(f, train, test)
	if err != nil {
		return err
	}

	c.log.Info("M4 data cached",
		logger.String("frequency", string(f)),
		logger.Int("series", count),
		logger.String("path", filepath.Join(c.dir, f.FileName())),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

// lockError explains a failed lock attempt.
func lockError(ctx context.Context, err error) error {
	if err != nil {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return errors.NewStd("lock is held by another process")
}

// fetchTemp downloads url into a temporary file in the cache directory,
// retrying transient failures with exponential backoff.
func (c *Client) fetchTemp(ctx context.Context, f Frequency, file, url string) (afero.File, error) {
	tmp, err := afero.TempFile(c.fs, tempDir, "m4-"+string(f)+"-"+file+"-*.csv")
	if err != nil {
		return nil, errors.FileError(err, c.dir, 0)
	}

	backoff := retry.WithMaxRetries(uint64(c.retries), // #nosec G115 -- retries is never negative
		retry.WithCappedDuration(maxBackoffPerTry, retry.NewExponential(c.backoff)))

	attempt := 0
	var n int64
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			c.metrics.IncrementRetries(string(f))
			c.log.Debug("retrying M4 transfer",
				logger.String("url", url),
				logger.Int("attempt", attempt))
		}
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if err := tmp.Truncate(0); err != nil {
			return err
		}

		var fetchErr error
		n, fetchErr = c.http.Fetch(ctx, url, tmp)
		if fetchErr != nil && retryable(ctx, fetchErr) {
			return retry.RetryableError(fetchErr)
		}
		return fetchErr
	})
	if err != nil {
		c.removeTemp(tmp)
		return nil, transferError(err, f, url, c.timeout, attempt)
	}
	c.metrics.AddBytes(string(f), file, n)

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		c.removeTemp(tmp)
		return nil, errors.FileError(err, tmp.Name(), n)
	}
	return tmp, nil
}

// retryable reports whether a failed transfer may succeed when repeated:
// server errors, rate limiting and transport failures are, client errors and
// cancellation are not.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}

func transferError(err error, f Frequency, url string, timeout time.Duration, attempts int) error {
	category := errors.CategoryNetwork
	var statusErr *httpclient.StatusError
	switch {
	case errors.As(err, &statusErr):
		category = errors.CategoryHTTP
	case errors.Is(err, context.Canceled):
		category = errors.CategoryCancellation
	case errors.Is(err, context.DeadlineExceeded):
		category = errors.CategoryTimeout
	}
	return errors.Newf("failed to download M4 %s data after %d attempt(s): %w", f, attempts, err).
		Category(category).
		NetworkContext(url, timeout).
		Context("frequency", string(f)).
		Context("attempts", attempts).
		Build()
}

// writeCorpus converts the fetched files and moves the result into place atomically.
func (c *Client) writeCorpus(f Frequency, train, test io.Reader) (int, error) {
	out, err := afero.TempFile(c.fs, tempDir, "m4-"+string(f)+"-*.json.tmp")
	if err != nil {
		return 0, errors.FileError(err, c.dir, 0)
	}
	tmpName := out.Name()
	defer func() {
		_ = c.fs.Remove(tmpName)
	}()

	count, err := convert(f, train, test, out)
	if err != nil {
		_ = out.Close()
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, errors.FileError(err, tmpName, 0)
	}
	if err := c.fs.Rename(tmpName, f.FileName()); err != nil {
		return 0, errors.FileError(err, filepath.Join(c.dir, f.FileName()), 0)
	}
	return count, nil
}

func (c *Client) removeTemp(file afero.File) {
	name := file.Name()
	_ = file.Close()
	if err := c.fs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.log.Debug("failed to remove temporary file", logger.String("file", name), logger.Error(err))
	}
}

// Load returns the dataset of the frequency label from the cache. It does
// not download: if the corpus is not cached the error matches fs.ErrNotExist.
func (c *Client) Load(label string) (*mcomp.Dataset, error) {
	f, err := ParseFrequency(label)
	if err != nil {
		return nil, err
	}

	if d, ok := c.memo.Get(string(f)); ok {
		c.metrics.RecordMemo(true)
		return d.(*mcomp.Dataset), nil
	}
	c.metrics.RecordMemo(false)
	c.memo.DeleteExpired()

	file, err := c.fs.Open(f.FileName())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Newf("M4 %s data not found in %s, download it first (fcompdata m4 download %s): %w", f, c.dir, f, err).
				Category(errors.CategoryFileIO).
				Context("frequency", string(f)).
				Build()
		}
		return nil, errors.FileError(err, filepath.Join(c.dir, f.FileName()), 0)
	}
	defer file.Close()

	d, err := mcomp.Decode(datasetName(f), file)
	if err != nil {
		return nil, err
	}
	c.memo.SetDefault(string(f), d)
	c.log.Debug("M4 data loaded",
		logger.String("frequency", string(f)),
		logger.Int("series", d.Len()))
	return d, nil
}

// Lazy returns a handle that loads the frequency label on first use.
func (c *Client) Lazy(label string) *mcomp.Lazy {
	name := "M4"
	if f, err := ParseFrequency(label); err == nil {
		name = datasetName(f)
	}
	return mcomp.NewLazy(name, func() (*mcomp.Dataset, error) {
		return c.Load(label)
	})
}

func datasetName(f Frequency) string {
	return "M4 " + f.Title()
}

// ClearCache removes the cached corpus files of the given frequency labels,
// or of all frequencies when none is given, and forgets memoized datasets.
func (c *Client) ClearCache(labels ...string) error {
	freqs := Frequencies()
	if len(labels) > 0 {
		freqs = make([]Frequency, 0, len(labels))
		for _, label := range labels {
			f, err := ParseFrequency(label)
			if err != nil {
				return err
			}
			freqs = append(freqs, f)
		}
	}

	var errs []error
	for _, f := range freqs {
		c.memo.Delete(string(f))
		if err := c.fs.Remove(f.FileName()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, errors.FileError(err, filepath.Join(c.dir, f.FileName()), 0))
			continue
		}
		c.log.Debug("M4 cache cleared", logger.String("frequency", string(f)))
	}
	return errors.Join(errs...)
}

var (
	defaultClient   *Client
	defaultClientMu sync.Mutex
)

// Default returns the client behind the package-level functions, configured
// from the settings on first use.
func Default() *Client {
	defaultClientMu.Lock()
	defer defaultClientMu.Unlock()
	if defaultClient == nil {
		defaultClient = NewFromSettings(conf.Setting())
	}
	return defaultClient
}

// SetDefault replaces the client behind the package-level functions.
func SetDefault(c *Client) {
	defaultClientMu.Lock()
	defer defaultClientMu.Unlock()
	defaultClient = c
}

// DataHome returns the cache directory of the default client.
func DataHome() string {
	return Default().Dir()
}

// Load loads a downloaded frequency with the default client.
func Load(label string) (*mcomp.Dataset, error) {
	return Default().Load(label)
}

// Download downloads a frequency with the default client.
func Download(ctx context.Context, label string) (string, error) {
	return Default().Download(ctx, label)
}

// Path resolves a frequency with the default client.
func Path(label string) (string, bool, error) {
	return Default().Path(label)
}

// URLs returns the remote files of a frequency for the default client.
func URLs(label string) (train, test string, err error) {
	return Default().URLs(label)
}

// ClearCache clears the default client's cache.
func ClearCache(labels ...string) error {
	return Default().ClearCache(labels...)
}

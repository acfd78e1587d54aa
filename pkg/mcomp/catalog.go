package mcomp

import (
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/fcompdata/fcompdata/internal/conf"
	"github.com/fcompdata/fcompdata/internal/errors"
	"github.com/fcompdata/fcompdata/internal/logger"
	"github.com/fcompdata/fcompdata/internal/observability/metrics"
)

// Corpus describes a bundled competition corpus.
type Corpus struct {
	Name string // display name and dataset label
	File string // file name inside the data directory
	Size int    // number of series in the published corpus
}

// Bundled corpora.
var (
	CorpusM1      = Corpus{Name: "M1", File: "m1_data.json", Size: 1001}
	CorpusM3      = Corpus{Name: "M3", File: "m3_data.json", Size: 3003}
	CorpusTourism = Corpus{Name: "Tourism", File: "tcomp_data.json", Size: 1311}
)

// Corpora returns the bundled corpora.
func Corpora() []Corpus {
	return []Corpus{CorpusM1, CorpusM3, CorpusTourism}
}

// LookupCorpus finds a bundled corpus by name, ignoring case.
func LookupCorpus(name string) (Corpus, error) {
	for _, c := range Corpora() {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return Corpus{}, errors.Newf("%w: unknown corpus %q (want M1, M3 or Tourism)", ErrInvalidArgument, name).
		Category(errors.CategoryValidation).
		Context("corpus", name).
		Build()
}

// Catalog resolves corpus files on a filesystem and normalizes them.
// A Catalog is safe for concurrent use.
type Catalog struct {
	fs      afero.Fs
	log     logger.Logger
	metrics *metrics.CorpusMetrics
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithLogger sets the logger used for load events.
func WithLogger(l logger.Logger) CatalogOption {
	return func(c *Catalog) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics records loads and lookups in m.
func WithMetrics(m *metrics.CorpusMetrics) CatalogOption {
	return func(c *Catalog) {
		c.metrics = m
	}
}

// NewCatalog returns a Catalog reading corpus files from the root of fsys.
func NewCatalog(fsys afero.Fs, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		fs:  fsys,
		log: logger.Global().Module("mcomp"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDirCatalog returns a Catalog reading corpus files from dir.
func NewDirCatalog(dir string, opts ...CatalogOption) *Catalog {
	return NewCatalog(afero.NewBasePathFs(afero.NewOsFs(), dir), opts...)
}

// NewFSCatalog returns a Catalog over an io/fs filesystem such as an embed.FS.
func NewFSCatalog(fsys fs.FS, opts ...CatalogOption) *Catalog {
	return NewCatalog(afero.FromIOFS{FS: fsys}, opts...)
}

// Available reports whether the file of corpus exists.
func (c *Catalog) Available(corpus Corpus) bool {
	ok, err := afero.Exists(c.fs, corpus.File)
	return err == nil && ok
}

// Load reads and normalizes corpus, returning a fresh Dataset on every call.
// A missing file yields an error matching fs.ErrNotExist.
func (c *Catalog) Load(corpus Corpus) (*Dataset, error) {
	start := time.Now()
	d, err := c.load(corpus)
	elapsed := time.Since(start)

	size := 0
	if d != nil {
		size = d.Len()
	}
	c.metrics.RecordLoad(corpus.Name, size, elapsed, err)

	if err != nil {
		c.log.Debug("corpus load failed",
			logger.String("corpus", corpus.Name),
			logger.String("file", corpus.File),
			logger.Error(err))
		return nil, err
	}

	c.log.Debug("corpus loaded",
		logger.String("corpus", corpus.Name),
		logger.Int("series", size),
		logger.Duration("elapsed", elapsed))
	if size != corpus.Size {
		c.log.Info("corpus size differs from published count",
			logger.String("corpus", corpus.Name),
			logger.Int("series", size),
			logger.Int("published", corpus.Size))
	}
	return d, nil
}

func (c *Catalog) load(corpus Corpus) (*Dataset, error) {
	f, err := c.fs.Open(corpus.File)
	if err != nil {
		return nil, errors.Newf("%s corpus file %s is not available (set data.dir or FCOMPDATA_DATA_DIR): %w", corpus.Name, corpus.File, err).
			Category(errors.CategoryFileIO).
			Context("corpus", corpus.Name).
			Context("file", corpus.File).
			Build()
	}
	defer f.Close()

	d, err := Decode(corpus.Name, f)
	if err != nil {
		return nil, err
	}
	d.metrics = c.metrics
	return d, nil
}

// Lazy returns a handle that loads corpus from this catalog on first use.
func (c *Catalog) Lazy(corpus Corpus) *Lazy {
	return NewLazy(corpus.Name, func() (*Dataset, error) {
		return c.Load(corpus)
	})
}

var (
	defaultCatalog   *Catalog
	defaultCatalogMu sync.Mutex
)

// DefaultCatalog returns the catalog behind LoadM1, LoadM3, LoadTourism and
// the M1, M3 and Tourism handles. Unless replaced with SetDefaultCatalog it
// reads the data directory from the settings.
func DefaultCatalog() *Catalog {
	defaultCatalogMu.Lock()
	defer defaultCatalogMu.Unlock()
	if defaultCatalog == nil {
		defaultCatalog = NewDirCatalog(conf.Setting().Data.Dir)
	}
	return defaultCatalog
}

// SetDefaultCatalog replaces the default catalog. Handles that already loaded
// their dataset keep it.
func SetDefaultCatalog(c *Catalog) {
	defaultCatalogMu.Lock()
	defer defaultCatalogMu.Unlock()
	defaultCatalog = c
}

// LoadM1 loads the M1 corpus (1001 series).
func LoadM1() (*Dataset, error) { return DefaultCatalog().Load(CorpusM1) }

// LoadM3 loads the M3 corpus (3003 series).
func LoadM3() (*Dataset, error) { return DefaultCatalog().Load(CorpusM3) }

// LoadTourism loads the Tourism corpus (1311 series).
func LoadTourism() (*Dataset, error) { return DefaultCatalog().Load(CorpusTourism) }

// Pre-bound handles over the default catalog.
var (
	M1      = NewLazy(CorpusM1.Name, LoadM1)
	M3      = NewLazy(CorpusM3.Name, LoadM3)
	Tourism = NewLazy(CorpusTourism.Name, LoadTourism)
)

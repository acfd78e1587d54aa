// Package mcomp provides typed access to forecasting competition corpora
// (M1, M3 and Tourism) with the 1-based indexing of R's Mcomp package.
//
// A corpus is a Dataset of Series. Datasets are produced by normalizing the
// JSON export of the R package, either eagerly:
//
//	m3, err := mcomp.LoadM3()
//	s, err := m3.Get(2568)
//	fmt.Println(s.TrainingData(), s.TestData(), s.Horizon())
//
// or lazily through the pre-bound handles, which read the corpus file on
// first use:
//
//	yearly, err := mcomp.M3.Subset("yearly")
//
// Corpus files are resolved through a Catalog. The default catalog reads the
// data directory configured by data.dir (FCOMPDATA_DATA_DIR).
//
// # Installing the corpora
//
// The corpus files are not part of this module. Export them once from R,
// where the Mcomp package provides M1 and M3 and the Tcomp package provides
// Tourism, and place them in the data directory under the names m1_data.json,
// m3_data.json and tcomp_data.json:
//
//	library(Mcomp); library(Tcomp); library(jsonlite)
//	write_json(M1, "m1_data.json", digits = NA)
//	write_json(M3, "m3_data.json", digits = NA)
//	write_json(tourism, "tcomp_data.json", digits = NA)
//
// Until then LoadM1, LoadM3, LoadTourism and the pre-bound handles return an
// error matching fs.ErrNotExist. With FCOMPDATA_DATA_DIR pointing at the
// exported files, go test also checks the published series counts of each
// corpus.
//
// Programs that ship the files themselves can embed them and read them
// through NewFSCatalog:
//
//	//go:embed data/*.json
//	var corpora embed.FS
//
//	sub, _ := fs.Sub(corpora, "data")
//	mcomp.SetDefaultCatalog(mcomp.NewFSCatalog(sub))
package mcomp

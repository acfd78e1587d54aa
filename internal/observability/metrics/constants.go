// Package metrics provides constants used across metric definitions.
package metrics

// Label value constants used for metric labels.
const (
	// StatusSuccess marks an operation that completed.
	StatusSuccess = "success"
	// StatusError marks an operation that failed.
	StatusError = "error"

	// ResultHit is the lookup label for a found series.
	ResultHit = "hit"
	// ResultMiss is the lookup label for an absent series.
	ResultMiss = "miss"

	// FileTrain labels the training half of a downloaded corpus.
	FileTrain = "train"
	// FileTest labels the test half of a downloaded corpus.
	FileTest = "test"
)

// Namespace prefixes every fcompdata metric name.
const Namespace = "fcompdata"

// Histogram bucket configurations.
var (
	// LoadDurationBuckets covers parsing a corpus file, from a few series to tens of thousands.
	LoadDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	// DownloadDurationBuckets covers fetching a remote corpus file.
	DownloadDurationBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}
)

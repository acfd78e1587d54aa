// Package m4 downloads, caches and loads the M4 competition corpus, which is
// too large to bundle. Each frequency is fetched once from the M4 dataset
// location, converted into the corpus JSON format read by package mcomp and
// kept in the per-user cache directory (~/.fcompdata by default).
package m4

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fcompdata/fcompdata/internal/errors"
	"github.com/fcompdata/fcompdata/pkg/mcomp"
)

// Frequency is one of the six M4 sub-corpora.
type Frequency string

const (
	Yearly    Frequency = mcomp.ClassYearly
	Quarterly Frequency = mcomp.ClassQuarterly
	Monthly   Frequency = mcomp.ClassMonthly
	Weekly    Frequency = mcomp.ClassWeekly
	Daily     Frequency = mcomp.ClassDaily
	Hourly    Frequency = mcomp.ClassHourly
)

// horizons are the forecast horizons set by the M4 competition
var horizons = map[Frequency]int{
	Yearly:    6,
	Quarterly: 8,
	Monthly:   18,
	Weekly:    13,
	Daily:     14,
	Hourly:    48,
}

// Frequencies returns the recognized frequencies.
func Frequencies() []Frequency {
	return []Frequency{Yearly, Quarterly, Monthly, Weekly, Daily, Hourly}
}

// ParseFrequency validates a frequency label. Labels are lowercase and
// matched exactly.
func ParseFrequency(label string) (Frequency, error) {
	f := Frequency(label)
	if slices.Contains(Frequencies(), f) {
		return f, nil
	}

	names := make([]string, 0, len(horizons))
	for _, f := range Frequencies() {
		names = append(names, string(f))
	}
	return "", errors.Newf("%w: unknown frequency %q, expected one of %s", mcomp.ErrInvalidArgument, label, strings.Join(names, ", ")).
		Category(errors.CategoryValidation).
		Context("frequency", label).
		Build()
}

// Horizon returns the M4 forecast horizon of f.
func (f Frequency) Horizon() int {
	return horizons[f]
}

// Title returns the capitalized label used in the remote file names, e.g. "Yearly".
func (f Frequency) Title() string {
	return cases.Title(language.English).String(string(f))
}

// period returns the period string written into the converted corpus
func (f Frequency) period() string {
	return cases.Upper(language.English).String(string(f))
}

// FileName returns the name of the cached corpus file of f.
func (f Frequency) FileName() string {
	return "m4_" + string(f) + ".json"
}

// Horizon returns the forecast horizon of the frequency label.
func Horizon(label string) (int, error) {
	f, err := ParseFrequency(label)
	if err != nil {
		return 0, err
	}
	return f.Horizon(), nil
}

// FileName returns the cached corpus file name of the frequency label.
func FileName(label string) (string, error) {
	f, err := ParseFrequency(label)
	if err != nil {
		return "", err
	}
	return f.FileName(), nil
}

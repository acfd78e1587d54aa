package mcomp

import (
	"fmt"
	"slices"

	"github.com/fcompdata/fcompdata/internal/errors"
)

// Field names one of the eight attributes of a Series.
type Field int

const (
	FieldID Field = iota
	FieldTrainingData
	FieldTestData
	FieldHorizon
	FieldSeasonalPeriod
	FieldFrequencyClass
	FieldTrainingLength
	FieldDescription
)

// fieldNames holds the canonical name and the source (Mcomp) name of each Field.
var fieldNames = [...]struct {
	name string
	key  string
}{
	FieldID:             {"id", "sn"},
	FieldTrainingData:   {"trainingData", "x"},
	FieldTestData:       {"testData", "xx"},
	FieldHorizon:        {"horizon", "h"},
	FieldSeasonalPeriod: {"seasonalPeriod", "period"},
	FieldFrequencyClass: {"frequencyClass", "type"},
	FieldTrainingLength: {"trainingLength", "n"},
	FieldDescription:    {"description", "description"},
}

func (f Field) valid() bool {
	return f >= FieldID && f <= FieldDescription
}

// String returns the canonical field name.
func (f Field) String() string {
	if !f.valid() {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f].name
}

// Key returns the field name used by the Mcomp package and the corpus files.
func (f Field) Key() string {
	if !f.valid() {
		return ""
	}
	return fieldNames[f].key
}

// Fields returns all fields in canonical order.
func Fields() []Field {
	return []Field{
		FieldID, FieldTrainingData, FieldTestData, FieldHorizon,
		FieldSeasonalPeriod, FieldFrequencyClass, FieldTrainingLength, FieldDescription,
	}
}

// Keys returns the Mcomp names of all fields: sn, x, xx, h, period, type, n, description.
func Keys() []string {
	keys := make([]string, 0, len(fieldNames))
	for _, f := range Fields() {
		keys = append(keys, f.Key())
	}
	return keys
}

// ParseField resolves a canonical or Mcomp field name.
func ParseField(name string) (Field, error) {
	for _, f := range Fields() {
		if name == fieldNames[f].name || name == fieldNames[f].key {
			return f, nil
		}
	}
	return 0, errors.Newf("%w %q (want one of %v): %w", ErrUnknownField, name, Keys(), ErrNotFound).
		Category(errors.CategoryNotFound).
		Context("field", name).
		Build()
}

// Series is one univariate competition series with its training/test split.
// A Series is never modified after construction; slice accessors return copies.
type Series struct {
	id             string
	trainingData   []float64
	testData       []float64
	horizon        int
	seasonalPeriod int
	frequencyClass string
	trainingLength int
	description    string
}

// NewSeries builds a Series and derives its training length from trainingData.
func NewSeries(id string, trainingData, testData []float64, horizon, seasonalPeriod int, frequencyClass, description string) *Series {
	return &Series{
		id:             id,
		trainingData:   slices.Clone(trainingData),
		testData:       slices.Clone(testData),
		horizon:        horizon,
		seasonalPeriod: seasonalPeriod,
		frequencyClass: frequencyClass,
		trainingLength: len(trainingData),
		description:    description,
	}
}

// ID returns the series identifier (sn).
func (s *Series) ID() string { return s.id }

// TrainingData returns a copy of the in-sample observations (x).
func (s *Series) TrainingData() []float64 { return slices.Clone(s.trainingData) }

// TestData returns a copy of the holdout observations (xx).
func (s *Series) TestData() []float64 { return slices.Clone(s.testData) }

// Horizon returns the forecast horizon (h).
func (s *Series) Horizon() int { return s.horizon }

// SeasonalPeriod returns the number of observations per seasonal cycle (period).
func (s *Series) SeasonalPeriod() int { return s.seasonalPeriod }

// FrequencyClass returns the lowercase frequency label, e.g. "monthly" (type).
func (s *Series) FrequencyClass() string { return s.frequencyClass }

// TrainingLength returns len(TrainingData()) (n).
func (s *Series) TrainingLength() int { return s.trainingLength }

// Description returns the free-text description, possibly empty.
func (s *Series) Description() string { return s.description }

// Get returns the value of f: string for id, frequencyClass and description,
// []float64 for the data fields, int otherwise.
func (s *Series) Get(f Field) (any, error) {
	switch f {
	case FieldID:
		return s.ID(), nil
	case FieldTrainingData:
		return s.TrainingData(), nil
	case FieldTestData:
		return s.TestData(), nil
	case FieldHorizon:
		return s.horizon, nil
	case FieldSeasonalPeriod:
		return s.seasonalPeriod, nil
	case FieldFrequencyClass:
		return s.frequencyClass, nil
	case FieldTrainingLength:
		return s.trainingLength, nil
	case FieldDescription:
		return s.description, nil
	}
	return nil, errors.Newf("%w %s of series %s: %w", ErrUnknownField, f, s.id, ErrNotFound).
		Category(errors.CategoryNotFound).
		Build()
}

// Lookup is Get by name, accepting canonical and Mcomp field names.
func (s *Series) Lookup(name string) (any, error) {
	f, err := ParseField(name)
	if err != nil {
		return nil, err
	}
	return s.Get(f)
}

// String renders the series the way Mcomp prints it.
func (s *Series) String() string {
	return fmt.Sprintf("Series(id='%s', n=%d, h=%d, type='%s')", s.id, s.trainingLength, s.horizon, s.frequencyClass)
}

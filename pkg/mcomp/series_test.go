package mcomp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeriesDerivesTrainingLength(t *testing.T) {
	s := NewSeries("N0001", []float64{1, 2, 3, 4, 5}, []float64{6, 7}, 2, 1, ClassYearly, "")

	assert.Equal(t, 5, s.TrainingLength())
	assert.Equal(t, len(s.TrainingData()), s.TrainingLength())
	assert.Empty(t, s.Description())
}

func TestSeriesIsImmutable(t *testing.T) {
	x := []float64{1, 2, 3}
	s := NewSeries("N0001", x, []float64{4}, 1, 1, ClassYearly, "")

	x[0] = 100
	assert.InDelta(t, 1.0, s.TrainingData()[0], 0, "construction must copy input")

	got := s.TrainingData()
	got[0] = 200
	assert.InDelta(t, 1.0, s.TrainingData()[0], 0, "accessor must return a copy")

	test := s.TestData()
	test[0] = 300
	assert.InDelta(t, 4.0, s.TestData()[0], 0)
}

func TestSeriesString(t *testing.T) {
	s := NewSeries("N0001", make([]float64, 14), make([]float64, 6), 6, 1, ClassYearly, "")
	assert.Equal(t, "Series(id='N0001', n=14, h=6, type='yearly')", s.String())
}

func TestFieldsAndKeys(t *testing.T) {
	assert.Len(t, Fields(), 8)
	assert.Equal(t, []string{"sn", "x", "xx", "h", "period", "type", "n", "description"}, Keys())

	names := make([]string, 0, 8)
	for _, f := range Fields() {
		names = append(names, f.String())
	}
	assert.Equal(t, []string{
		"id", "trainingData", "testData", "horizon",
		"seasonalPeriod", "frequencyClass", "trainingLength", "description",
	}, names)
}

func TestParseField(t *testing.T) {
	tests := []struct {
		name string
		want Field
	}{
		{"id", FieldID},
		{"sn", FieldID},
		{"trainingData", FieldTrainingData},
		{"x", FieldTrainingData},
		{"testData", FieldTestData},
		{"xx", FieldTestData},
		{"horizon", FieldHorizon},
		{"h", FieldHorizon},
		{"seasonalPeriod", FieldSeasonalPeriod},
		{"period", FieldSeasonalPeriod},
		{"frequencyClass", FieldFrequencyClass},
		{"type", FieldFrequencyClass},
		{"trainingLength", FieldTrainingLength},
		{"n", FieldTrainingLength},
		{"description", FieldDescription},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseField(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFieldUnknown(t *testing.T) {
	for _, name := range []string{"", "ID", "values", "x ", "period2"} {
		_, err := ParseField(name)
		require.Error(t, err, "name %q", name)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.True(t, errors.Is(err, ErrUnknownField))
		assert.Contains(t, err.Error(), name)
	}
}

func TestSeriesLookup(t *testing.T) {
	s := NewSeries("N0042", []float64{1, 2, 3}, []float64{4, 5}, 2, 4, ClassQuarterly, "tourism arrivals")

	tests := []struct {
		name string
		want any
	}{
		{"sn", "N0042"},
		{"x", []float64{1, 2, 3}},
		{"xx", []float64{4, 5}},
		{"h", 2},
		{"period", 4},
		{"type", ClassQuarterly},
		{"n", 3},
		{"description", "tourism arrivals"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := s.Lookup("mean")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSeriesGetOutOfRangeField(t *testing.T) {
	s := yearly("N0001")
	_, err := s.Get(Field(42))
	require.ErrorIs(t, err, ErrUnknownField)
	assert.Equal(t, "Field(42)", Field(42).String())
	assert.Empty(t, Field(-1).Key())
}

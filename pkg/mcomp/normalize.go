package mcomp

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fcompdata/fcompdata/internal/errors"
)

// Frequency classes found in the bundled corpora and in M4.
const (
	ClassYearly    = "yearly"
	ClassQuarterly = "quarterly"
	ClassMonthly   = "monthly"
	ClassWeekly    = "weekly"
	ClassDaily     = "daily"
	ClassHourly    = "hourly"
	ClassOther     = "other"
)

// seasonalPeriods maps upper-cased period strings; anything else is period 1.
var seasonalPeriods = map[string]int{
	"YEARLY":    1,
	"QUARTERLY": 4,
	"MONTHLY":   12,
	"OTHER":     1,
}

// Source field names of a corpus entry.
const (
	keySN          = "sn"
	keyX           = "x"
	keyXX          = "xx"
	keyH           = "h"
	keyPeriod      = "period"
	keyDescription = "description"
)

// normalizer turns one corpus document into a Dataset.
// Casers keep state, so each normalizer owns its own.
type normalizer struct {
	name  string
	upper cases.Caser
	lower cases.Caser
}

// Normalize parses a corpus document: a JSON object whose values are series
// entries as exported from R. Entries are indexed 1, 2, ... in document order;
// the object keys are ignored.
//
// Scalar fields (sn, h, period, type, description) may be bare values or
// single-element arrays. No partial Dataset is returned on error.
func Normalize(name string, data []byte) (*Dataset, error) {
	n := &normalizer{
		name:  name,
		upper: cases.Upper(language.Und),
		lower: cases.Lower(language.Und),
	}
	return n.normalize(data)
}

// Decode reads a whole corpus document from r and normalizes it.
func Decode(name string, r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Newf("failed to read %s corpus: %w", name, err).
			Category(errors.CategoryFileIO).
			Context("dataset", name).
			Build()
	}
	return Normalize(name, data)
}

func (n *normalizer) normalize(data []byte) (*Dataset, error) {
	if !gjson.ValidBytes(data) {
		return nil, n.parseError("invalid JSON document")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, n.parseError("top-level value must be an object of series entries")
	}

	keys, entries := members(root)
	series := make(map[int]*Series, len(keys))
	for i, key := range keys {
		s, err := n.entry(i+1, key, entries[key])
		if err != nil {
			return nil, err
		}
		series[i+1] = s
	}

	return NewDataset(n.name, series), nil
}

// members returns the keys of obj in document order with their values.
// A repeated key keeps the position of its first occurrence and the value of its last.
func members(obj gjson.Result) ([]string, map[string]gjson.Result) {
	var keys []string
	values := make(map[string]gjson.Result)
	obj.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if _, seen := values[k]; !seen {
			keys = append(keys, k)
		}
		values[k] = value
		return true
	})
	return keys, values
}

// field returns the last member of entry named name.
func field(entry gjson.Result, name string) gjson.Result {
	var v gjson.Result
	entry.ForEach(func(key, value gjson.Result) bool {
		if key.String() == name {
			v = value
		}
		return true
	})
	return v
}

func (n *normalizer) entry(position int, key string, entry gjson.Result) (*Series, error) {
	if !entry.IsObject() {
		return nil, n.parseError("entry %d (%q) is not an object", position, key)
	}

	sn, ok := unwrap(entry, keySN)
	if !ok {
		return nil, n.schemaError(position, key, keySN)
	}
	h, ok := unwrap(entry, keyH)
	if !ok {
		return nil, n.schemaError(position, key, keyH)
	}
	period, ok := unwrap(entry, keyPeriod)
	if !ok {
		return nil, n.schemaError(position, key, keyPeriod)
	}

	horizon, err := n.integer(position, keyH, h)
	if err != nil {
		return nil, err
	}
	x, err := n.values(position, key, entry, keyX)
	if err != nil {
		return nil, err
	}
	xx, err := n.values(position, key, entry, keyXX)
	if err != nil {
		return nil, err
	}

	// a source type field is not used: the frequency class always follows period
	periodStr := period.String()
	description := optional(entry, keyDescription, "")

	return &Series{
		id:             sn.String(),
		trainingData:   x,
		testData:       xx,
		horizon:        horizon,
		seasonalPeriod: n.seasonalPeriod(periodStr),
		frequencyClass: n.lower.String(periodStr),
		trainingLength: len(x),
		description:    description,
	}, nil
}

// seasonalPeriod looks period up case-insensitively; unrecognized strings map to 1.
func (n *normalizer) seasonalPeriod(period string) int {
	if p, ok := seasonalPeriods[n.upper.String(period)]; ok {
		return p
	}
	return 1
}

// unwrap returns a scalar field, taking the first element of an array value.
// Missing, null and empty-array values count as absent.
func unwrap(entry gjson.Result, name string) (gjson.Result, bool) {
	v := field(entry, name)
	if v.IsArray() {
		elems := v.Array()
		if len(elems) == 0 {
			return gjson.Result{}, false
		}
		v = elems[0]
	}
	if !v.Exists() || v.Type == gjson.Null {
		return gjson.Result{}, false
	}
	return v, true
}

func optional(entry gjson.Result, name, fallback string) string {
	if v, ok := unwrap(entry, name); ok {
		return v.String()
	}
	return fallback
}

func (n *normalizer) integer(position int, field string, v gjson.Result) (int, error) {
	switch v.Type {
	case gjson.Number:
		return int(v.Int()), nil
	case gjson.String:
		if i, err := strconv.Atoi(strings.TrimSpace(v.Str)); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil {
			return int(f), nil
		}
	}
	return 0, n.parseError("entry %d: field %q is not an integer: %s", position, field, v.Raw)
}

// values decodes x or xx. Arrays are never wrapped, but elements may be null
// or the R missing marker "NA", both decoded as NaN.
func (n *normalizer) values(position int, key string, entry gjson.Result, name string) ([]float64, error) {
	v := field(entry, name)
	if !v.Exists() || v.Type == gjson.Null {
		return nil, n.schemaError(position, key, name)
	}
	if !v.IsArray() {
		return nil, n.parseError("entry %d: field %q must be an array, got %s", position, name, v.Raw)
	}

	elems := v.Array()
	out := make([]float64, len(elems))
	for i, e := range elems {
		switch e.Type {
		case gjson.Number:
			out[i] = e.Num
		case gjson.Null:
			out[i] = math.NaN()
		case gjson.String:
			s := strings.TrimSpace(e.Str)
			if s == "NA" {
				out[i] = math.NaN()
				continue
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, n.parseError("entry %d: %s[%d] is not a number: %q", position, name, i+1, e.Str)
			}
			out[i] = f
		default:
			return nil, n.parseError("entry %d: %s[%d] is not a number: %s", position, name, i+1, e.Raw)
		}
	}
	return out, nil
}

func (n *normalizer) parseError(format string, args ...any) error {
	return errors.Newf("%w %s: "+format, append([]any{ErrParse, n.name}, args...)...).
		Category(errors.CategoryCorpusParse).
		Context("dataset", n.name).
		Build()
}

func (n *normalizer) schemaError(position int, key, field string) error {
	return errors.Newf("%w %q in entry %d (%q) of %s corpus", ErrSchema, field, position, key, n.name).
		Category(errors.CategoryCorpusSchema).
		Context("dataset", n.name).
		Context("entry", position).
		Context("field", field).
		Build()
}

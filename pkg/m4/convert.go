package m4

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fcompdata/fcompdata/internal/errors"
	"github.com/fcompdata/fcompdata/pkg/mcomp"
)

// entry is one series in the corpus JSON format read by mcomp.Normalize
type entry struct {
	SN     string    `json:"sn"`
	H      int       `json:"h"`
	Period string    `json:"period"`
	Type   string    `json:"type"`
	X      []float64 `json:"x"`
	XX     []float64 `json:"xx"`
}

// convert rewrites the M4 train and test CSV files of f as a corpus document.
//
// Both files hold one series per row: the series id followed by its values,
// padded with empty cells up to the longest series. A header row starting with
// "V1" is skipped. Series without a test row get an empty xx. It returns the
// number of series written.
func convert(f Frequency, train, test io.Reader, w io.Writer) (int, error) {
	holdout := make(map[string][]float64)
	err := readRows(test, func(id string, values []float64) error {
		holdout[id] = values
		return nil
	})
	if err != nil {
		return 0, errors.Newf("%w: M4 %s test file: %w", mcomp.ErrParse, f, err).
			Category(errors.CategoryFileParsing).
			Build()
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	period := f.period()
	count := 0

	if _, err := bw.WriteString("{"); err != nil {
		return 0, err
	}
	var writeErr error
	err = readRows(train, func(id string, values []float64) error {
		xx := holdout[id]
		if xx == nil {
			xx = []float64{}
		}
		writeErr = writeEntry(bw, enc, count, entry{SN: id, H: f.Horizon(), Period: period, Type: period, X: values, XX: xx})
		if writeErr != nil {
			return writeErr
		}
		count++
		return nil
	})
	if writeErr != nil {
		return 0, errors.Newf("failed to write M4 %s corpus: %w", f, writeErr).
			Category(errors.CategoryFileIO).
			Build()
	}
	if err != nil {
		return 0, errors.Newf("%w: M4 %s train file: %w", mcomp.ErrParse, f, err).
			Category(errors.CategoryFileParsing).
			Build()
	}
	if _, err := bw.WriteString("}\n"); err != nil {
		return 0, err
	}
	return count, bw.Flush()
}

// writeEntry writes one "id": {...} member of the corpus object.
func writeEntry(bw *bufio.Writer, enc *json.Encoder, position int, e entry) error {
	if position > 0 {
		if err := bw.WriteByte(','); err != nil {
			return err
		}
	}
	key, err := json.Marshal(e.SN)
	if err != nil {
		return err
	}
	if _, err := bw.Write(key); err != nil {
		return err
	}
	if err := bw.WriteByte(':'); err != nil {
		return err
	}
	// Encode appends a newline, which is valid JSON whitespace
	return enc.Encode(e)
}

// readRows calls fn for each data row of an M4 CSV file.
func readRows(r io.Reader, fn func(id string, values []float64) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line++
		if len(record) == 0 {
			continue
		}
		id := strings.TrimSpace(record[0])
		if line == 1 && id == "V1" {
			continue
		}
		if id == "" {
			return errors.Newf("line %d: empty series id", line).Build()
		}

		values := make([]float64, 0, len(record)-1)
		for col, cell := range record[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				break
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.Newf("line %d, column %d: invalid value %q", line, col+2, cell).Build()
			}
			values = append(values, v)
		}
		if err := fn(id, values); err != nil {
			return err
		}
	}
}

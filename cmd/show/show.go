package show

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fcompdata/fcompdata/internal/errors"
	"github.com/fcompdata/fcompdata/pkg/mcomp"
)

// field holds the --field flag value
var field string

// Command creates a new cobra.Command to print one series of a bundled corpus.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <corpus> <index>",
		Short: "Print one series of the M1, M3 or Tourism corpus",
		Long: "Prints the series at the 1-based index of the corpus, or only one of its fields.\n" +
			"Fields: " + strings.Join(mcomp.Keys(), ", "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			corpus, err := mcomp.LookupCorpus(args[0])
			if err != nil {
				return err
			}
			index, err := ParseIndex(args[1])
			if err != nil {
				return err
			}
			s, err := mcomp.DefaultCatalog().Lazy(corpus).Get(index)
			if err != nil {
				return err
			}
			return PrintSeries(cmd.OutOrStdout(), s, field)
		},
	}

	cmd.Flags().StringVarP(&field, "field", "f", "", "print only this field")

	return cmd
}

// ParseIndex parses a 1-based series index argument.
func ParseIndex(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.Newf("%w: series index %q is not an integer", mcomp.ErrInvalidArgument, arg).
			Category(errors.CategoryValidation).
			Build()
	}
	return index, nil
}

// PrintSeries writes every field of s, or only the named one, to w.
func PrintSeries(w io.Writer, s *mcomp.Series, name string) error {
	if name != "" {
		v, err := s.Lookup(name)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, FormatValue(v))
		return err
	}

	if _, err := fmt.Fprintln(w, s); err != nil {
		return err
	}
	for _, f := range mcomp.Fields() {
		v, err := s.Get(f)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "  %-16s %s\n", f.String()+":", FormatValue(v)); err != nil {
			return err
		}
	}
	return nil
}

// FormatValue renders a field value; missing observations print as NaN.
func FormatValue(v any) string {
	switch v := v.(type) {
	case []float64:
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

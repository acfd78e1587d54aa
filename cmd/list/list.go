package list

import (
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fcompdata/fcompdata/internal/conf"
	"github.com/fcompdata/fcompdata/pkg/m4"
	"github.com/fcompdata/fcompdata/pkg/mcomp"
)

// frequencyClass holds the --type flag value
var frequencyClass string

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Command creates a new cobra.Command to summarize the corpora.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [corpus]",
		Short: "Summarize the available corpora or the series of one corpus",
		Long: "Without arguments, lists the bundled corpora and the downloaded M4 frequencies.\n" +
			"With a corpus name, prints the number of series per frequency class.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listCorpora(cmd.OutOrStdout(), settings)
			}
			corpus, err := mcomp.LookupCorpus(args[0])
			if err != nil {
				return err
			}
			d, err := mcomp.DefaultCatalog().Load(corpus)
			if err != nil {
				return err
			}
			if frequencyClass != "" {
				d = d.Subset(frequencyClass)
			}
			return listClasses(cmd.OutOrStdout(), d)
		},
	}

	cmd.Flags().StringVarP(&frequencyClass, "type", "t", "", "restrict to one frequency class, e.g. yearly")

	return cmd
}

func listCorpora(w io.Writer, settings *conf.Settings) error {
	rows := make([][]string, 0, len(mcomp.Corpora())+len(m4.Frequencies()))
	for _, c := range mcomp.Corpora() {
		path := filepath.Join(settings.Data.Dir, c.File)
		rows = append(rows, []string{c.Name, strconv.Itoa(c.Size), fileSize(path), path})
	}
	for _, f := range m4.Frequencies() {
		path, _, err := m4.Path(string(f))
		if err != nil {
			return err
		}
		rows = append(rows, []string{"M4 " + f.Title(), "", fileSize(path), path})
	}

	_, err := fmt.Fprintln(w, render([]string{"Corpus", "Series", "Size", "File"}, rows))
	return err
}

// fileSize returns the human readable size of path, or "missing".
func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "missing"
	}
	return humanize.Bytes(uint64(info.Size())) // #nosec G115 -- file sizes are never negative
}

func listClasses(w io.Writer, d *mcomp.Dataset) error {
	counts := d.Counts()
	rows := make([][]string, 0, len(counts)+1)
	for _, class := range slices.Sorted(maps.Keys(counts)) {
		rows = append(rows, []string{class, humanize.Comma(int64(counts[class]))})
	}
	rows = append(rows, []string{"total", humanize.Comma(int64(d.Len()))})

	if _, err := fmt.Fprintln(w, d); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, render([]string{"Type", "Series"}, rows))
	return err
}

func render(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}

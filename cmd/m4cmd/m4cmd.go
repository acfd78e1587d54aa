// Package m4cmd implements the m4 command group: download, path, clear and show.
package m4cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fcompdata/fcompdata/cmd/show"
	"github.com/fcompdata/fcompdata/internal/errors"
	"github.com/fcompdata/fcompdata/pkg/m4"
)

// Command creates the m4 command group.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "m4",
		Short: "Download and inspect the M4 corpus",
		Long: "The M4 corpus is downloaded per frequency into the cache directory.\n" +
			"Frequencies: yearly, quarterly, monthly, weekly, daily, hourly",
	}

	cmd.AddCommand(downloadCommand(), pathCommand(), clearCommand(), showCommand())

	return cmd
}

func downloadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "download <frequency>...",
		Short: "Download and convert M4 frequencies unless already cached",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// reject typos before starting any transfer
			for _, label := range args {
				if _, err := m4.ParseFrequency(label); err != nil {
					return err
				}
			}

			var errs []error
			for _, label := range args {
				path, err := m4.Download(cmd.Context(), label)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", label, path)
			}
			return errors.Join(errs...)
		},
	}
}

func pathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path <frequency>",
		Short: "Print the local file of an M4 frequency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, ok, err := m4.Path(args[0])
			if err != nil {
				return err
			}
			status := "not downloaded"
			if ok {
				status = "cached"
				if info, err := os.Stat(path); err == nil {
					status += ", " + humanize.Bytes(uint64(info.Size())) // #nosec G115 -- file sizes are never negative
				}
			}
			train, test, err := m4.URLs(args[0])
			if err != nil {
				return err
			}
			horizon, err := m4.Horizon(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (%s)\n", path, status)
			fmt.Fprintf(w, "  horizon: %d\n", horizon)
			fmt.Fprintf(w, "  train:   %s\n", train)
			fmt.Fprintf(w, "  test:    %s\n", test)
			return nil
		},
	}
}

func clearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [frequency...]",
		Short: "Remove downloaded M4 data, all frequencies when none is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := m4.ClearCache(args...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", m4.DataHome())
			return nil
		},
	}
}

func showCommand() *cobra.Command {
	var field string
	cmd := &cobra.Command{
		Use:   "show <frequency> <index>",
		Short: "Print one series of a downloaded M4 frequency",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := show.ParseIndex(args[1])
			if err != nil {
				return err
			}
			d, err := m4.Load(args[0])
			if err != nil {
				return err
			}
			s, err := d.Get(index)
			if err != nil {
				return err
			}
			if field == "" {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			return show.PrintSeries(cmd.OutOrStdout(), s, field)
		},
	}

	cmd.Flags().StringVarP(&field, "field", "f", "", "print only this field")

	return cmd
}

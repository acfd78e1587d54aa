package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fcompdata/fcompdata/internal/buildinfo"
)

// Command creates a new cobra.Command to print build metadata.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the fcompdata version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildinfo.Current()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "fcompdata %s\n  commit:  %s\n  built:   %s\n  go:      %s\n",
				info.Version(), info.Commit(), info.BuildDate(), info.GoVersion())
			return err
		},
	}

	return cmd
}

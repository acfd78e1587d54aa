package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fcompdata/fcompdata/internal/conf"
	"github.com/fcompdata/fcompdata/internal/errors"
)

// Command creates the config command group.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the fcompdata configuration file",
	}

	cmd.AddCommand(initCommand(settings))

	return cmd
}

func initCommand(settings *conf.Settings) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the current settings as a YAML configuration file",
		Long: "Writes the effective settings (defaults, environment and flags) to path.\n" +
			"The default path is config.yaml in the cache directory, which is one of the config search paths.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(settings.Cache.Dir, conf.ConfigFileName)
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return errors.Newf("%s already exists, use --force to overwrite it", path).
					Category(errors.CategoryValidation).
					Context("path", path).
					Build()
			}
			if err := conf.SaveYAMLConfig(path, settings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

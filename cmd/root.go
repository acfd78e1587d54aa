package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fcompdata/fcompdata/cmd/config"
	"github.com/fcompdata/fcompdata/cmd/list"
	"github.com/fcompdata/fcompdata/cmd/m4cmd"
	"github.com/fcompdata/fcompdata/cmd/show"
	"github.com/fcompdata/fcompdata/cmd/version"
	"github.com/fcompdata/fcompdata/internal/conf"
	"github.com/fcompdata/fcompdata/internal/logger"
	"github.com/fcompdata/fcompdata/internal/observability"
	"github.com/fcompdata/fcompdata/pkg/m4"
	"github.com/fcompdata/fcompdata/pkg/mcomp"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	var dumpMetrics bool
	var collectors *observability.Metrics

	rootCmd := &cobra.Command{
		Use:          "fcompdata",
		Short:        "Access the M1, M3, Tourism and M4 forecasting competition corpora",
		SilenceUsage: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings, &dumpMetrics); err != nil {
		// only reachable when a bound flag is not defined
		panic(err)
	}

	configCmd := config.Command(settings)
	versionCmd := version.Command()

	rootCmd.AddCommand(
		show.Command(),
		list.Command(settings),
		m4cmd.Command(),
		configCmd,
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Skip setup for config and version commands
		if cmd == versionCmd || cmd.Parent() == configCmd {
			return nil
		}
		var err error
		collectors, err = initialize(cmd, settings)
		return err
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if collectors == nil {
			return nil
		}
		m4.Default().Close()
		if dumpMetrics {
			return collectors.WriteText(cmd.ErrOrStderr())
		}
		return nil
	}

	return rootCmd
}

// initialize validates the settings and installs the logger, metrics and the
// default corpus sources used by the subcommands.
func initialize(cmd *cobra.Command, settings *conf.Settings) (*observability.Metrics, error) {
	if err := conf.ValidateSettings(settings); err != nil {
		return nil, err
	}

	level := logger.LogLevel(settings.Log.Level)
	if settings.Debug {
		level = logger.LogLevelDebug
	}
	// run_id tells apart processes sharing one M4 cache
	base := logger.NewSlogLoggerWithFormat(cmd.ErrOrStderr(), logger.Format(settings.Log.Format), level, time.Local)
	logger.SetGlobal(base.With(logger.String("run_id", uuid.NewString())))

	collectors, err := observability.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	mcomp.SetDefaultCatalog(mcomp.NewDirCatalog(settings.Data.Dir,
		mcomp.WithLogger(logger.Global().Module("mcomp")),
		mcomp.WithMetrics(collectors.Corpus)))
	m4.SetDefault(m4.NewFromSettings(settings,
		m4.WithLogger(logger.Global().Module("m4")),
		m4.WithMetrics(collectors.Download)))

	logger.Global().Module("cli").Debug("settings loaded",
		logger.String("data_dir", settings.Data.Dir),
		logger.String("cache_dir", settings.Cache.Dir))
	return collectors, nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings, dumpMetrics *bool) error {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	flags.StringVar(&settings.Data.Dir, "data-dir", settings.Data.Dir, "Directory holding the M1, M3 and Tourism corpus files")
	flags.StringVar(&settings.Cache.Dir, "cache-dir", settings.Cache.Dir, "Directory for downloaded M4 data")
	flags.BoolVar(dumpMetrics, "metrics", false, "Print collected metrics in Prometheus text format on exit")

	for key, name := range map[string]string{
		"debug":     "debug",
		"data.dir":  "data-dir",
		"cache.dir": "cache-dir",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}

	return nil
}

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/foremast/foremast/pkg/config"
	"github.com/foremast/foremast/pkg/merge"
	"github.com/foremast/foremast/pkg/source"
	"github.com/foremast/foremast/pkg/telemetry"
)

// app holds what the subcommands share. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	debug           bool
	logFile         string
	metricsTextfile string
	configDir       string
	configFiles     []string

	log     *telemetry.Logger
	metrics *telemetry.Metrics
	facade  *config.Facade
}

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "foremast",
		Short: "Foremast, your ship's support",
		Long: `Foremast builds Spinnaker pipelines and cloud infrastructure from
application configuration.

Configuration is read from, in order of precedence:
  - foremast_config.{yaml,yml,toml,json} in $FOREMAST_CONFIG_DIRECTORY
    (default: the working directory), under the CONFIG key
  - /etc/foremast/foremast.cfg, ~/.foremast/foremast.cfg and
    ./.foremast/foremast.cfg, later files overriding earlier ones

Whatever is found is merged over the built-in defaults.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, args)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.metrics.WriteTextfile(a.metricsTextfile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "append logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&a.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after the command")
	rootCmd.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "directory holding foremast_config (overrides $"+source.EnvConfigDirectory+")")
	rootCmd.PersistentFlags().StringSliceVar(&a.configFiles, "config-file", nil, "ini file to read, lowest priority first (repeatable, replaces the default locations)")

	rootCmd.AddCommand(newInfraCommand())
	rootCmd.AddCommand(newConfigCommand(a))

	return rootCmd
}

// setup builds the logger, metrics and configuration facade.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	tcfg := telemetry.DefaultConfig()
	if a.debug {
		tcfg = telemetry.DebugConfig()
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else if level := os.Getenv("LOG_LEVEL"); level != "" {
		tcfg.Logging.Level = level
	}
	tcfg.Metrics.TextfilePath = a.metricsTextfile
	if a.logFile != "" {
		tcfg.Logging.Output = a.logFile
		tcfg.Logging.NoColor = true
	}
	if err := tcfg.Validate(); err != nil {
		return err
	}

	if tcfg.Logging.Output == "stderr" {
		a.log = telemetry.NewLoggerWithWriter(tcfg.Logging, cmd.ErrOrStderr())
	} else {
		logger, err := telemetry.NewLogger(tcfg.Logging)
		if err != nil {
			return fmt.Errorf("opening log output: %w", err)
		}
		a.log = logger
	}
	a.log.Zerolog().Debug().
		Str("command", cmd.CommandPath()).
		Strs("args", args).
		Msg("Arguments")

	metrics, err := telemetry.NewMetrics(tcfg.Metrics)
	if err != nil {
		return err
	}
	a.metrics = metrics

	opts, err := source.ResolveOptions(source.Options{
		Dir:   a.configDir,
		Files: a.configFiles,
	})
	if err != nil {
		return err
	}

	loader := source.NewDefaultLoader(opts, a.log.NewComponentLogger("source")).WithRecorder(metrics)
	a.facade = config.New(loader,
		config.WithMerger(merge.New(merge.WithObserver(metrics))),
		config.WithLogger(a.log),
	)

	return nil
}

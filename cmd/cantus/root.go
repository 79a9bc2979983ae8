package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ncarnahan/cantus/internal/config"
	"github.com/ncarnahan/cantus/internal/logging"
)

// app is the state shared by every subcommand once flags and environment
// have been resolved.
type app struct {
	cfg config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:          "cantus",
		Short:        "Compile and run transform scenes",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error); overrides CANTUS_LOG_LEVEL")
	root.PersistentFlags().Bool("pretty", false, "human readable log output; overrides CANTUS_LOG_PRETTY")

	root.AddCommand(
		newCompileCmd(a),
		newRunCmd(a),
	)
	return root
}

// setup loads the environment, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("pretty") {
		cfg.LogPretty, _ = flags.GetBool("pretty")
	}
	if flags.Changed("profile") {
		cfg.Profile, _ = flags.GetString("profile")
	}
	if flags.Changed("interval") {
		cfg.FrameInterval, _ = flags.GetString("interval")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.NewTo(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, logger
	return nil
}

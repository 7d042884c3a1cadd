package commands

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ironsheep/seed-estimator/internal/config"
	"github.com/ironsheep/seed-estimator/internal/observability"
)

// BuildInfo is stamped into the binary at build time.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// app is the state shared by the subcommands of one invocation.
type app struct {
	info    BuildInfo
	cfgFile string
	cfg     config.Config
	logger  zerolog.Logger
	closer  io.Closer
}

// Execute runs the CLI.
func Execute(info BuildInfo) error {
	a := &app{info: info}
	root := newRootCmd(a)
	err := root.Execute()
	if a.closer != nil {
		_ = a.closer.Close()
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "seed-estimator",
		Short:        "Estimate land area from an image and the seeds needed to plant it",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger, a.closer = observability.InitLogger("seed-estimator", observability.LogOptions{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				File:   cfg.LogFile,
				Out:    cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "path to a TOML config file")

	root.AddCommand(serveCmd(a), estimateCmd(a), userCmd(a), versionCmd(a))
	return root
}

package main

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/germanamz/toolmesh/pkg/engine"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string

	cfg engine.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "toolmesh",
		Short: "Tool services over MCP and an agent that uses them",
		Long: `toolmesh serves arithmetic and weather tools over the Model Context
Protocol and runs an agent that answers questions with a local model and
those tools.

Examples:
  toolmesh serve weather
  toolmesh ask "What's (3 + 5) x 12?"
  toolmesh ask --interactive --render`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to configuration file (default: built-in configuration)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "path to .env file (ignored if missing)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "notice", "log level: critical, error, warning, notice, info, debug, trace")

	cmd.AddCommand(newServeCmd(opts), newAskCmd(opts))

	return cmd
}

// init configures logging, loads the .env file and then the configuration,
// so ${VAR} references in the file see the .env values.
func (o *rootOptions) init() error {
	level, err := parseLogLevel(o.logLevel)
	if err != nil {
		return err
	}
	// Stdout carries the stdio transport and the answers.
	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
	xlog.SetGlobalLogLevel(level)

	if err := loadDotEnv(o.envFile); err != nil {
		return err
	}

	if o.configPath == "" {
		o.cfg = engine.Default()
		return nil
	}

	o.cfg, err = engine.LoadConfig(o.configPath)
	return err
}

func (o *rootOptions) engine() (*engine.Engine, error) {
	return engine.New(o.cfg, version)
}

// parseLogLevel accepts the xlog level names in any case.
func parseLogLevel(s string) (xlog.LogLevel, error) {
	level, err := xlog.ParseLevel(strings.ToUpper(strings.TrimSpace(s)))
	if err != nil {
		return 0, errors.Wrapf(err, "log level %q", s)
	}
	return level, nil
}

// Package main contains the cli implementation of the tool. It uses cobra
// package for cli tool implementation.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"dbkeeper/internal/config"
	"dbkeeper/internal/logging"
	"dbkeeper/internal/output"
)

// app carries what every command needs once the global flags are parsed.
type app struct {
	configPath string
	envFiles   []string
	logLevel   string
	format     string

	fs     afero.Fs
	cfg    *config.Config
	log    zerolog.Logger
	stderr io.Writer
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dbkeeper",
		Short:         "Create, dump, restore, copy and rename MySQL and MariaDB databases",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Config file (default ./"+config.DefaultPath+" when present)")
	flags.StringArrayVar(&a.envFiles, "env-file", nil, "Read DBKEEPER_* variables from a .env file (repeatable)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: trace, debug, info, warn or error")
	flags.StringVarP(&a.format, "format", "f", "", "Output format: text, json or summary")

	rootCmd.AddCommand(
		createCmd(a), deleteCmd(a), listCmd(a),
		backupCmd(a), restoreCmd(a), exportCmd(a),
		duplicateCmd(a), renameCmd(a), pingCmd(a), infoCmd(a),
		transformCmd(a), inspectCmd(a),
		initSchemaCmd(a), teardownCmd(a),
	)
	return rootCmd
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if a.stderr == nil {
		a.stderr = cmd.ErrOrStderr()
	}

	path := a.configPath
	if path == "" && config.Exists(a.fs, config.DefaultPath) {
		path = config.DefaultPath
	}
	cfg, err := config.Loader{Fs: a.fs}.Load(path, a.envFiles...)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	a.cfg = cfg
	if cfg.Log.Format == "json" {
		a.log = logging.NewJSON(a.stderr, level)
	} else {
		a.log = logging.New(a.stderr, level)
	}
	a.log.Debug().Str("config", path).Str("engine", cfg.Engine).Msg("configuration loaded")
	return nil
}

func (a *app) formatter() (output.Formatter, error) {
	return output.NewFormatter(a.format)
}

// isJSON routes status lines to stderr so stdout stays machine-readable.
func (a *app) isJSON() bool {
	return output.Format(a.format) == output.FormatJSON
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{fs: afero.NewOsFs()}
	rootCmd := newRootCmd(a)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		stop()
		os.Exit(1)
	}
}

func printResult(cmd *cobra.Command, text string) {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), text)
}

package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"dbkeeper/internal/dump"
	"dbkeeper/internal/replay"
)

// readDump loads file and strips its database lifecycle statements.
func (a *app) readDump(cmd *cobra.Command, file, name string, strictUse bool) (string, string, error) {
	data, err := afero.ReadFile(a.fs, file)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", file, err)
	}
	if !cmd.Flags().Changed("strict-use") {
		strictUse = a.cfg.Restore.StrictUse
	}
	resolved, body, err := dump.Transformer{StrictUse: strictUse}.Transform(name, string(data))
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", file, err)
	}
	return resolved, body, nil
}

func transformCmd(a *app) *cobra.Command {
	var name, out string
	var strictUse bool
	cmd := &cobra.Command{
		Use:   "transform <file>",
		Short: "Print a dump without its CREATE DATABASE and USE statements",
		Long: `Transform applies the restore rewrite without touching a server: the
database name is taken from the dump's USE statement (or --name), occurrences
of the original name are replaced and the CREATE DATABASE, DROP DATABASE and
USE lines are removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, body, err := a.readDump(cmd, args[0], name, strictUse)
			if err != nil {
				return err
			}
			if out == "" {
				printResult(cmd, body)
				return nil
			}
			if err := afero.WriteFile(a.fs, out, []byte(body), 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			a.success(cmd, "Dump for %s saved to %s", resolved, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Rewrite the dump for this database name")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write the result to a file instead of stdout")
	cmd.Flags().BoolVar(&strictUse, "strict-use", false, "Reject dumps containing more than one USE statement")
	return cmd
}

func inspectCmd(a *app) *cobra.Command {
	var strictUse bool
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Report what restoring a dump would execute",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.formatter()
			if err != nil {
				return err
			}
			resolved, body, err := a.readDump(cmd, args[0], "", strictUse)
			if err != nil {
				return err
			}

			report := replay.NewAnalyzer().Analyze(body)
			out, err := f.FormatReport(report)
			if err != nil {
				return err
			}
			a.success(cmd, "Dump restores database %s", resolved)
			printResult(cmd, out)
			if report.HasDanger() {
				a.warn(cmd, "The dump contains statements that act outside the target database")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strictUse, "strict-use", false, "Reject dumps containing more than one USE statement")
	return cmd
}

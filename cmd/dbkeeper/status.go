package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

func (a *app) statusWriter(cmd *cobra.Command) io.Writer {
	if a.isJSON() {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

func (a *app) success(cmd *cobra.Command, format string, args ...any) {
	_, _ = successColor.Fprintf(a.statusWriter(cmd), "✓ "+format+"\n", args...)
}

func (a *app) warn(cmd *cobra.Command, format string, args ...any) {
	_, _ = warnColor.Fprintf(a.statusWriter(cmd), "! "+format+"\n", args...)
}

func printError(w io.Writer, err error) {
	_, _ = errorColor.Fprint(w, "✗ Error: ")
	_, _ = fmt.Fprintln(w, err)
}

package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"dbkeeper/internal/admin"
)

// withAdmin opens the configured administrator, runs fn and closes it.
func (a *app) withAdmin(ctx context.Context, fn func(admin.Administrator) error) (err error) {
	mode, err := admin.ParseReplayMode(a.cfg.Restore.Replay)
	if err != nil {
		return err
	}
	adm, err := admin.New(ctx, a.cfg.AdminEngine(), admin.Options{
		Credentials: a.cfg.Connection,
		Fs:          a.fs,
		Logger:      &a.log,
		StrictUse:   a.cfg.Restore.StrictUse,
		Charset:     a.cfg.Restore.Charset,
		Collation:   a.cfg.Restore.Collation,
		Tools:       a.cfg.Tools,
		Replay:      mode,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := adm.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()
	return fn(adm)
}

func createCmd(a *app) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "create <database>",
		Short: "Create a database with the configured character set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAdmin(cmd.Context(), func(adm admin.Administrator) error {
				if err := adm.Create(cmd.Context(), args[0], overwrite); err != nil {
					return err
				}
				a.success(cmd, "Created database %s", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Drop and recreate the database when it already exists")
	return cmd
}

func deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <database>",
		Short: "Drop a database; a missing database is only reported",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAdmin(cmd.Context(), func(adm admin.Administrator) error {
				if err := adm.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				a.success(cmd, "Deleted database %s", args[0])
				return nil
			})
		},
	}
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the user databases of the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.formatter()
			if err != nil {
				return err
			}
			return a.withAdmin(cmd.Context(), func(adm admin.Administrator) error {
				names, err := adm.List(cmd.Context())
				if err != nil {
					return err
				}
				out, err := f.FormatDatabases(names)
				if err != nil {
					return err
				}
				printResult(cmd, out)
				return nil
			})
		},
	}
}

func backupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backup [file]",
		Short: "Dump every database into one file (default " + admin.DefaultBackupFile + ")",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			return a.withAdmin(cmd.Context(), func(adm admin.Administrator) error {
				path, err := adm.Backup(cmd.Context(), file)
				if err != nil {
					return err
				}
				a.success(cmd, "Backup saved to %s", path)
				return nil
			})
		},
	}
}

func restoreCmd(a *app) *cobra.Command {
	var name string
	var strictUse bool
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore a single-database dump, optionally under another name",
		Long: `Restore reads a dump produced by export, removes its CREATE DATABASE
and USE statements, creates the target database and replays the rest into it.

The target is the database named by the dump's USE statement unless --name
is given. The dump is checked before anything runs: statements that switch
databases or destroy data are reported as warnings.

Examples:
  dbkeeper restore shop.sql
  dbkeeper restore shop.sql --name shop_staging
  dbkeeper restore multi.sql --strict-use`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("strict-use") {
				a.cfg.Restore.StrictUse = strictUse
			}
			f, err := a.formatter()
			if err != nil {
				return err
			}
			return a.withAdmin(cmd.Context(), func(adm admin.Administrator) error {
				res, err := adm.Restore(cmd.Context(), args[0], name)
				if err != nil {
					return err
				}
				out, err := f.FormatRestore(res)
				if err != nil {
					return err
				}
				printResult(cmd, out)
				if len(res.Warnings) > 0 {
					a.warn(cmd, "Restored with %d warning(s)", len(res.Warnings))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Restore into this database instead of the one named in the dump")
	cmd.Flags().BoolVar(&strictUse, "strict-use", false, "Reject dumps containing more than one USE statement")
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <database> [file]",
		Short: "Dump one database into <file>.sql (default <database>.sql)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 2 {
				file = args[1]
			}
			return a.withAdmin(cmd.Context(), func(adm admin.Administrator) error {
				path, err := adm.Export(cmd.Context(), args[0], file)
				if err != nil {
					return err
				}
				a.success(cmd, "Exported %s to %s", args[0], path)
				return nil
			})
		},
	}
}

func duplicateCmd(a *app) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "duplicate <source> <target>",
		Short: "Copy a database under a new name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAdmin(cmd.Context(), func(adm admin.Administrator) error {
				if err := adm.Duplicate(cmd.Context(), args[0], args[1], overwrite); err != nil {
					return err
				}
				a.success(cmd, "Duplicated %s into %s", args[0], args[1])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Delete the target first when it already exists")
	return cmd
}

func renameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <source> <target>",
		Short: "Rename a database by copying it and deleting the source",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAdmin(cmd.Context(), func(adm admin.Administrator) error {
				if err := adm.Rename(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				a.success(cmd, "Renamed %s to %s", args[0], args[1])
				return nil
			})
		},
	}
}

func pingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the server answers through the admin tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAdmin(cmd.Context(), func(adm admin.Administrator) error {
				if err := adm.Ping(cmd.Context()); err != nil {
					return err
				}
				a.success(cmd, "Server %s is alive", a.cfg.Connection.Host)
				return nil
			})
		},
	}
}

func infoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the server flavor and version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.formatter()
			if err != nil {
				return err
			}
			return a.withAdmin(cmd.Context(), func(adm admin.Administrator) error {
				info, err := adm.Info(cmd.Context())
				if err != nil {
					return err
				}
				out, err := f.FormatServer(info)
				if err != nil {
					return err
				}
				printResult(cmd, out)
				return nil
			})
		},
	}
}

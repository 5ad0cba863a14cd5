package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"dbkeeper/internal/schema"
	"dbkeeper/internal/session"
)

func (a *app) openSession(ctx context.Context, withSchema bool) (session.Session, error) {
	cfg := a.cfg.Session
	delay, err := a.cfg.SessionDelay()
	if err != nil {
		return nil, err
	}

	var s *schema.Schema
	if withSchema {
		if cfg.Schema == "" {
			return nil, errors.New("session.schema is not configured")
		}
		if s, err = schema.Load(a.fs, cfg.Schema); err != nil {
			return nil, err
		}
	}

	return session.Open(ctx, a.cfg.SessionEngine(), session.Config{
		Credentials: a.cfg.SessionCredentials(),
		Path:        cfg.Path,
		Schema:      s,
		Delay:       delay,
		Fs:          a.fs,
		Logger:      &a.log,
	})
}

func initSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init-schema",
		Short: "Drop and recreate the tables of the configured schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := a.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := sess.Close(); closeErr != nil {
					err = errors.Join(err, closeErr)
				}
			}()

			if err := sess.Initialize(cmd.Context()); err != nil {
				a.warn(cmd, "Some tables were skipped")
				return err
			}
			tables, err := sess.Tables(cmd.Context())
			if err != nil {
				return err
			}
			a.success(cmd, "Initialized %s with %d table(s)", sess.Name(), len(tables))
			return nil
		},
	}
}

func teardownCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "teardown",
		Short: "Remove the configured session database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			name := sess.Name()
			if err := sess.Teardown(cmd.Context()); err != nil {
				return err
			}
			a.success(cmd, "Removed %s", name)
			return nil
		},
	}
}

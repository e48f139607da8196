// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package cli implements the go-doc-sync client command line.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-doc-sync/internal/client"
	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/models"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "text" | "json"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the client CLI.
func NewRootCommand(build models.AppBuildInfo) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "docsync",
		Short: "Offline-first document sync client",
		Long: `Keeps local copies of workflow documents durable across restarts and
network outages, and pushes them to the remote store under optimistic
concurrency control.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a JSON config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(NewPullCommand(opts))
	cmd.AddCommand(NewPushCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewEvictCommand(opts))
	cmd.AddCommand(NewVersionCommand(build))

	return cmd
}

type appFunc func(ctx context.Context, app *client.App, cfg *config.ClientConfig) error

// withApp loads the client config, starts a [client.App] for the duration of
// fn and closes it afterwards.
func withApp(ctx context.Context, opts *RootOptions, fn appFunc) error {
	return runApp(ctx, opts, true, fn)
}

// withLocalApp is withApp without background syncing: queued changes are
// not flushed, connectivity is probed once and stored conflicts are loaded.
func withLocalApp(ctx context.Context, opts *RootOptions, fn appFunc) error {
	return runApp(ctx, opts, false, fn)
}

func runApp(ctx context.Context, opts *RootOptions, start bool, fn appFunc) error {
	cfg, err := config.GetClientConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewClientLogger("go-doc-sync-client", logger.FileOptions{
		Path:      cfg.Log.File,
		MaxSizeMB: cfg.Log.MaxSizeMB,
	})

	app, err := client.NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			log.Error().Err(cerr).Str("func", "cli.withApp").Msg("error closing client")
		}
	}()

	if !start {
		if err = app.Load(ctx); err != nil {
			return err
		}
		return fn(ctx, app, cfg)
	}
	if err = app.Start(ctx); err != nil {
		return err
	}
	return fn(ctx, app, cfg)
}

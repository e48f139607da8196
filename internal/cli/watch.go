// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-doc-sync/internal/client"
	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/service"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <id> <edit-file>",
		Short: "Save a document every time its edit file changes",
		Long: `Watch a JSON edit file and treat every write as an edit of the document.
Edits are saved locally at once and pushed after the debounce delay. Runs
until interrupted; a last save is attempted on exit.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fw, err := newFileWatcher(args[1])
			if err != nil {
				return err
			}
			defer fw.Close()

			return withApp(ctx, rootOpts, func(ctx context.Context, app *client.App, _ *config.ClientConfig) error {
				return runWatch(ctx, cmd, app, fw, args[0])
			})
		},
	}
}

func runWatch(ctx context.Context, cmd *cobra.Command, app *client.App, fw *fileWatcher, id string) error {
	out := &lockedWriter{w: cmd.OutOrStdout()}

	ctrl, snap, err := app.Open(ctx, id)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	fmt.Fprintf(out, "watching %s for %s (version %d, %s)\n", fw.path, id, snap.Version, styleStatus(string(snap.SyncStatus)))

	unsubscribe := ctrl.Notices().Subscribe(func(n service.Notice) {
		line := fmt.Sprintf("%s %s", time.Now().Format(time.TimeOnly), styleStatus(string(n.State)))
		if n.Err != nil {
			line += ": " + n.Err.Error()
		}
		fmt.Fprintln(out, line)
	})
	defer unsubscribe()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-fw.Errors():
				fmt.Fprintf(out, "skipping edit: %v\n", err)
			}
		}
	}()

	err = ctrl.Watch(ctx, fw.Run(ctx))
	if err != nil && ctx.Err() == nil {
		return err
	}

	final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if !ctrl.Save(final, service.SaveOptions{Force: true, Silent: true}) {
		fmt.Fprintf(out, "%s left %s, it will be pushed on the next run\n", id, styleStatus(string(ctrl.State(final))))
	}
	return nil
}

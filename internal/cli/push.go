// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-doc-sync/internal/client"
	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/service"
)

// NewPushCommand creates the push command.
func NewPushCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "push <id> <edit-file>",
		Short: "Apply an edit file to a document and save it now",
		Long: `Apply the fields of a JSON edit file to the local copy of a document and
push it immediately. When the push cannot complete the edit stays queued
locally and is retried on the next run.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			edit, err := readEditFile(args[1])
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), rootOpts, func(ctx context.Context, app *client.App, _ *config.ClientConfig) error {
				ctrl, _, err := app.Open(ctx, args[0])
				if err != nil {
					return err
				}
				defer ctrl.Close()

				var (
					mu      sync.Mutex
					lastErr error
				)
				unsubscribe := ctrl.Notices().Subscribe(func(n service.Notice) {
					mu.Lock()
					if n.Err != nil {
						lastErr = n.Err
					}
					mu.Unlock()
				})
				defer unsubscribe()

				if err = ctrl.MarkDirty(ctx, edit); err != nil {
					return err
				}
				ok := ctrl.Save(ctx, service.SaveOptions{Force: true})

				snap, _, err := app.Manager().Snapshot(ctx, args[0])
				if err != nil {
					return err
				}
				if err = renderSnapshot(cmd.OutOrStdout(), rootOpts.Format, snap); err != nil {
					return err
				}
				if ok {
					return nil
				}

				mu.Lock()
				defer mu.Unlock()
				if lastErr != nil {
					return fmt.Errorf("save %s (%s): %w", args[0], ctrl.State(ctx), lastErr)
				}
				return fmt.Errorf("save %s: %s", args[0], ctrl.State(ctx))
			})
		},
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-doc-sync/internal/client"
	"github.com/MKhiriev/go-doc-sync/internal/config"
)

// NewPullCommand creates the pull command.
func NewPullCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <id>",
		Short: "Open a document and reconcile it with the remote store",
		Long: `Open a document the way an editor does: the local copy is reconciled
with the remote store and printed. Pending local edits are kept and pushed;
without a local copy the server document (or an empty draft) is stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), rootOpts, func(ctx context.Context, app *client.App, _ *config.ClientConfig) error {
				ctrl, snap, err := app.Open(ctx, args[0])
				if err != nil {
					return err
				}
				defer ctrl.Close()
				return renderSnapshot(cmd.OutOrStdout(), rootOpts.Format, snap)
			})
		},
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-doc-sync/internal/client"
	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/service"
	"github.com/MKhiriev/go-doc-sync/models"
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id> local|server",
		Short: "Resolve a version conflict",
		Long: `Resolve a document left in conflict by a rejected push.

  local   push the local copy over the server document
  server  discard local edits and adopt the server document

Resolving a document without a conflict changes nothing.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(models.ResolveLocal), string(models.ResolveServer)},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, policy := args[0], models.ResolutionPolicy(args[1])

			return withLocalApp(cmd.Context(), rootOpts, func(ctx context.Context, app *client.App, _ *config.ClientConfig) error {
				res, err := resolve(ctx, app.Manager(), id, policy)
				if err != nil {
					return err
				}
				if !res.OK() {
					if res.Err != nil {
						return fmt.Errorf("resolve %s with %s copy: %s: %w", id, policy, res.Outcome, res.Err)
					}
					return fmt.Errorf("resolve %s with %s copy: %s", id, policy, res.Outcome)
				}

				snap, _, err := app.Manager().Snapshot(ctx, id)
				if err != nil {
					return err
				}
				return renderSnapshot(cmd.OutOrStdout(), rootOpts.Format, snap)
			})
		},
	}
}

func resolve(ctx context.Context, m *service.SyncManager, id string, policy models.ResolutionPolicy) (service.PushResult, error) {
	switch policy {
	case models.ResolveLocal:
		return m.ResolveWithLocal(ctx, id)
	case models.ResolveServer:
		return m.ResolveWithServer(ctx, id)
	default:
		return service.PushResult{}, fmt.Errorf("unknown resolution policy %q: must be %q or %q", policy, models.ResolveLocal, models.ResolveServer)
	}
}

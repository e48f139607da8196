// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-doc-sync/internal/client"
	"github.com/MKhiriev/go-doc-sync/internal/config"
)

// NewEvictCommand creates the evict command.
func NewEvictCommand(rootOpts *RootOptions) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "evict",
		Short: "Remove synced local copies not modified for a while",
		Long: `Remove local copies of synced documents older than --older-than (default:
the configured eviction age). Documents with pending edits or conflicts are
never removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLocalApp(cmd.Context(), rootOpts, func(ctx context.Context, app *client.App, cfg *config.ClientConfig) error {
				age := olderThan
				if age <= 0 {
					age = cfg.Sync.EvictAfter
				}

				n, err := app.Manager().Evict(ctx, age, true)
				if err != nil {
					return err
				}
				if rootOpts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"evicted": n, "older_than": age.String()})
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "evicted %d synced document(s) older than %s\n", n, age)
				return err
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "minimum age of evicted copies")
	return cmd
}

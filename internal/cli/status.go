// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-doc-sync/internal/client"
	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/service"
	"github.com/MKhiriev/go-doc-sync/models"
)

// StatusReport is the JSON form of the status command.
type StatusReport struct {
	Status          service.GlobalStatus `json:"status"`
	Online          bool                 `json:"online"`
	StorageDegraded bool                 `json:"storage_degraded"`
	Documents       []DocumentStatus     `json:"documents"`
}

// DocumentStatus is one unsynced document.
type DocumentStatus struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	SyncStatus    models.SyncStatus `json:"sync_status"`
	Version       int64             `json:"version"`
	ServerVersion *int64            `json:"server_version,omitempty"`
	RetryCount    int               `json:"retry_count"`
	LastModified  time.Time         `json:"last_modified"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List documents with unsynced or conflicting local edits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLocalApp(cmd.Context(), rootOpts, func(ctx context.Context, app *client.App, _ *config.ClientConfig) error {
				report, err := buildStatusReport(ctx, app.Manager())
				if err != nil {
					return err
				}
				return renderStatus(cmd, rootOpts.Format, report)
			})
		},
	}
}

func buildStatusReport(ctx context.Context, m *service.SyncManager) (StatusReport, error) {
	report := StatusReport{
		Status:          m.Status(),
		Online:          m.Online(),
		StorageDegraded: m.Degraded(),
		Documents:       []DocumentStatus{},
	}

	for _, status := range []models.SyncStatus{models.SyncStatusConflict, models.SyncStatusPending} {
		snaps, err := m.Snapshots(ctx, status)
		if err != nil {
			return StatusReport{}, fmt.Errorf("list %s documents: %w", status, err)
		}
		for _, snap := range snaps {
			doc := DocumentStatus{
				ID:            snap.ID,
				Name:          snap.Name,
				SyncStatus:    snap.SyncStatus,
				Version:       snap.Version,
				ServerVersion: snap.ServerVersion,
				LastModified:  snap.LastModified,
			}
			changes, err := m.PendingChanges(ctx, snap.ID)
			if err != nil {
				return StatusReport{}, fmt.Errorf("list pending changes of %s: %w", snap.ID, err)
			}
			for _, c := range changes {
				doc.RetryCount = max(doc.RetryCount, c.RetryCount)
			}
			report.Documents = append(report.Documents, doc)
		}
	}
	return report, nil
}

func renderStatus(cmd *cobra.Command, format string, report StatusReport) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, report)
	}

	online := "online"
	if !report.Online {
		online = "offline"
	}
	header := fmt.Sprintf("%s  %s", titleStyle.Render("sync "+styleStatus(string(report.Status))), styleStatus(online))
	if report.StorageDegraded {
		header += "  " + styleStatus("error") + " local storage unavailable, edits are kept in memory only"
	}
	fmt.Fprintln(out, header)

	if len(report.Documents) == 0 {
		_, err := fmt.Fprintln(out, "all documents are synced")
		return err
	}

	rows := make([][]string, 0, len(report.Documents))
	for _, d := range report.Documents {
		server := "-"
		if d.ServerVersion != nil {
			server = strconv.FormatInt(*d.ServerVersion, 10)
		}
		rows = append(rows, []string{
			d.ID,
			d.Name,
			styleStatus(string(d.SyncStatus)),
			strconv.FormatInt(d.Version, 10),
			server,
			strconv.Itoa(d.RetryCount),
			d.LastModified.Format(time.DateTime),
		})
	}
	return renderTable(out, []string{"ID", "NAME", "STATUS", "VERSION", "SERVER", "RETRIES", "MODIFIED"}, rows)
}

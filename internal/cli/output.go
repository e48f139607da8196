// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/MKhiriev/go-doc-sync/models"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serverVersion(snap models.DocumentSnapshot) string {
	if snap.ServerVersion == nil {
		return "-"
	}
	return strconv.FormatInt(*snap.ServerVersion, 10)
}

func renderSnapshot(w io.Writer, format string, snap models.DocumentSnapshot) error {
	if format == "json" {
		return writeJSON(w, snap)
	}

	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(snap.ID),
		row("name", snap.Name),
		row("description", snap.Description),
		row("status", styleStatus(string(snap.SyncStatus))),
		row("version", strconv.FormatInt(snap.Version, 10)),
		row("server version", serverVersion(snap)),
		row("modified", snap.LastModified.Format(time.RFC3339)),
		row("content", strings.TrimSpace(string(snap.Content))),
	)
	_, err := fmt.Fprintln(w, boxStyle.Render(body))
	return err
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// lockedWriter serializes writes from event handlers running on other
// goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

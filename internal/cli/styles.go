// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package cli

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Faint(true).Width(16)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headStyle  = lipgloss.NewStyle().Bold(true).Underline(true).PaddingRight(2)
	cellStyle  = lipgloss.NewStyle().PaddingRight(2)

	statusStyles = map[string]lipgloss.Style{
		"synced":   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"saved":    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"idle":     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"pending":  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"unsaved":  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"saving":   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"syncing":  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"offline":  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		"conflict": lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		"error":    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

func styleStatus(s string) string {
	if st, ok := statusStyles[s]; ok {
		return st.Render(s)
	}
	return s
}

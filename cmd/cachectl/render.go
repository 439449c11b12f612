package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-study-sync/models"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func renderEntries(entries []models.CacheEntryInfo, now time.Time) string {
	if len(entries) == 0 {
		return faintStyle.Render("cache is empty") + "\n"
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Key,
			fmt.Sprintf("%d B", e.Size),
			age(now, e.Timestamp),
		})
	}
	return renderTable([]string{"KEY", "SIZE", "AGE"}, rows)
}

func renderAudit(entries []models.AuditEntry) string {
	if len(entries) == 0 {
		return faintStyle.Render("audit log is empty") + "\n"
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		details := ""
		if len(e.Details) > 0 {
			raw, err := json.Marshal(e.Details)
			if err == nil {
				details = string(raw)
			}
		}
		rows = append(rows, []string{
			time.UnixMilli(e.At).UTC().Format(time.RFC3339),
			e.Action,
			e.EntityType + "/" + e.EntityID,
			details,
		})
	}
	return renderTable([]string{"AT", "ACTION", "ENTITY", "DETAILS"}, rows)
}

func renderPruned(removed, days int) string {
	return fmt.Sprintf("%s %d entries older than %d days",
		titleStyle.Render("pruned"), removed, days)
}

func renderBuildInfo(info models.BuildInfo) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("cachectl"))
	b.WriteString("\nVersion: ")
	b.WriteString(info.Version())
	b.WriteString("\nDate:    ")
	b.WriteString(info.Date())
	b.WriteString("\nCommit:  ")
	b.WriteString(info.Commit())

	return boxStyle.Render(b.String()) + "\n"
}

// renderTable pads every column to its widest cell.
func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	for i, h := range header {
		b.WriteString(headerStyle.Render(pad(h, widths[i])))
		if i < len(header)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteByte('\n')

	for _, row := range rows {
		for i, cell := range row {
			b.WriteString(pad(cell, widths[i]))
			if i < len(row)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func pad(s string, width int) string {
	return s + strings.Repeat(" ", width-lipgloss.Width(s))
}

func age(now time.Time, tsMillis int64) string {
	d := now.Sub(time.UnixMilli(tsMillis)).Truncate(time.Second)
	if d < 0 {
		d = 0
	}
	if d >= 24*time.Hour {
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	}
	return d.String()
}

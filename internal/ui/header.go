package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/glance/internal/format"
	"github.com/five82/glance/internal/report"
	"github.com/five82/glance/internal/state"
)

// StatusOffline is shown when no live channel is configured.
const StatusOffline = "offline"

var statusLabels = map[string]string{
	"connecting":   "CONNECTING",
	"connected":    "LIVE",
	"disconnected": "RECONNECTING",
	"auth-failed":  "AUTH FAILED",
	"halted":       "DISCONNECTED",
	StatusOffline:  "OFFLINE",
}

// renderHeader renders the status bar: logo, link state, source and the
// time of the last snapshot.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.render("glance", styles.Logo)}

	link := m.link
	status := link.Status
	if status == "" {
		status = StatusOffline
	}
	label := statusLabels[status]
	if label == "" {
		label = strings.ToUpper(status)
	}
	badge := styles.StatusStyle(status).Render(label)
	if status == "connecting" || status == "disconnected" {
		badge = bg.render(m.spinner.View(), styles.WarningText) + bg.spaces(1) + badge
	}
	parts = append(parts, badge)

	if link.Retries > 0 && (status == "disconnected" || status == "connecting" || status == "halted") {
		parts = append(parts, bg.render("retry", styles.MutedText)+bg.spaces(1)+
			bg.render(fmt.Sprintf("%d", link.Retries), styles.WarningText))
	}
	if link.Detail != "" {
		limit := 60
		if compact {
			limit = 30
		}
		parts = append(parts, bg.render(truncate(link.Detail, limit), styles.DangerText))
	}

	if m.source != "" && !compact {
		parts = append(parts, bg.render(truncateMiddle(m.source, 40), styles.FaintText))
	}

	if ts := formatTimestamp(m.updated, m.now); ts != "" {
		parts = append(parts, bg.render(ts, styles.MutedText))
	}

	return styles.Header.Width(m.width).Render(bg.join(parts, 2))
}

// renderOverall renders the overall stats strip, or "" when the report has
// none.
func (m Model) renderOverall() string {
	if m.overall == nil || len(m.overall.Items) == 0 {
		return ""
	}
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := newBgStyle(m.theme.SurfaceAlt)
	return styles.Header.Width(m.width).Render(overallStrip(m.overall, m.overallValues, bg, styles))
}

func overallStrip(o *report.Overall, values map[string]report.Value, bg bgStyle, styles Styles) string {
	parts := make([]string, 0, len(o.Items)+1)
	if o.Head != "" {
		parts = append(parts, bg.render(o.Head, styles.AccentText.Bold(true)))
	}
	for _, item := range o.Items {
		v, ok := values[item.Key]
		if !ok {
			continue
		}
		label := item.Label
		if label == "" {
			label = item.Key
		}
		parts = append(parts, bg.render(label+":", styles.MutedText)+bg.spaces(1)+
			bg.render(format.Value(v, item.Type()), styles.Text))
	}
	return bg.join(parts, 2)
}

// formatTimestamp formats the last update time with a relative indicator.
func formatTimestamp(updated, now time.Time) string {
	if updated.IsZero() {
		return ""
	}
	timeStr := updated.Format("15:04:05")
	if now.Sub(updated) < time.Minute {
		return timeStr + " (now)"
	}
	return timeStr + " (" + humanize.RelTime(updated, now, "ago", "from now") + ")"
}

// truncateMiddle truncates a string in the middle, preserving start and end.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 5 {
		return string(r[:limit])
	}
	// Keep more of the end (file name) than the start
	endLen := (limit - 3) * 2 / 3
	startLen := limit - 3 - endLen
	return string(r[:startLen]) + "..." + string(r[len(r)-endLen:])
}

// renderCommandBar renders the flash message, the paused marker and the
// theme name, then as many key hints as still fit on the line.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBgStyle(m.theme.Surface)

	colon := bg.render(":", styles.FaintText)
	var segments []string
	if m.flash != "" {
		segments = append(segments, bg.render(m.flash, styles.WarningText.Bold(true)))
	}
	if !m.focused {
		segments = append(segments, bg.render("paused", styles.WarningText))
	}
	segments = append(segments,
		bg.render("T", styles.AccentText)+colon+bg.render(m.theme.Name, styles.FaintText))

	room := m.width - 2 // header padding
	used := lipgloss.Width(bg.join(segments, 2))
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hint := bg.render(h.Key, styles.AccentText) + colon + bg.render(h.Desc, styles.MutedText)
		if m.width > 0 && used+2+lipgloss.Width(hint) > room {
			break
		}
		segments = append(segments, hint)
		used += 2 + lipgloss.Width(hint)
	}

	return styles.Header.Width(m.width).MaxHeight(1).Render(bg.join(segments, 2))
}

// setLink stores the link state exposed by the registry.
func (m *Model) setLink(l state.Link) {
	m.link = l
}

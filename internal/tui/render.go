package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/claimassess/internal/model"
	"github.com/sprite-ai/claimassess/internal/overlay"
	"github.com/sprite-ai/claimassess/internal/upload"
	"github.com/sprite-ai/claimassess/internal/wizard"
)

// renderRail draws the step indicator on a single line.
func renderRail(marks []wizard.Mark) string {
	var b strings.Builder
	for _, mk := range marks {
		var style lipgloss.Style
		symbol := fmt.Sprintf("(%d)", mk.Number)
		switch mk.State {
		case wizard.MarkCompleted:
			style = markCompletedStyle
			symbol = "(✓)"
		case wizard.MarkCurrent:
			style = markCurrentStyle
		default:
			style = markUpcomingStyle
		}
		b.WriteString(style.Render(symbol + " " + mk.Name))

		if mk.Connector {
			if mk.ConnectorFilled {
				b.WriteString(markCompletedStyle.Render(" ━━━ "))
			} else {
				b.WriteString(markUpcomingStyle.Render(" ─── "))
			}
		}
	}
	return b.String()
}

// renderRailCaptions lines the step descriptions up under renderRail.
func renderRailCaptions(marks []wizard.Mark) string {
	var b strings.Builder
	for _, mk := range marks {
		width := lipgloss.Width(fmt.Sprintf("(%d) %s", mk.Number, mk.Name))
		if mk.Connector {
			width += 5
		}
		b.WriteString(hintStyle.Render(fmt.Sprintf("%-*s", width, truncate(mk.Description, width))))
	}
	return b.String()
}

func renderPhotoList(photos []model.Photo, dims func(string) (upload.Dimensions, bool), selected int, focused bool, width int) string {
	if len(photos) == 0 {
		return hintStyle.Render("No photos yet. Press a to add one.")
	}

	var b strings.Builder
	for i, p := range photos {
		size := "unmeasured"
		if d, ok := dims(p.ID); ok {
			size = fmt.Sprintf("%dx%d", d.Width, d.Height)
		}
		toggle := "overlay off"
		if p.ShowOverlay {
			toggle = "overlay on"
		}
		line := fmt.Sprintf("%-*s %12s  %s", max(width-28, 8), truncate(p.Name, max(width-28, 8)), size, toggle)

		style := itemStyle
		if i == selected && focused {
			style = itemSelectedStyle
		}
		b.WriteString(style.Render(line))
		if i < len(photos)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Mini-map canvas size, in cells.
const (
	mapCols = 48
	mapRows = 12
)

// renderMiniMap scales the overlay boxes of a photo onto a character grid.
// Each box is drawn in its severity color and labeled with its detail
// number.
func renderMiniMap(boxes []overlay.Box, d upload.Dimensions) string {
	if d.Width <= 0 || d.Height <= 0 {
		return ""
	}

	type cell struct {
		r   rune
		box int
	}
	grid := make([][]cell, mapRows)
	for y := range grid {
		grid[y] = make([]cell, mapCols)
		for x := range grid[y] {
			grid[y][x] = cell{r: '·', box: -1}
		}
	}

	sx := float64(mapCols) / float64(d.Width)
	sy := float64(mapRows) / float64(d.Height)
	for i, bx := range boxes {
		x0, y0 := int(bx.X*sx), int(bx.Y*sy)
		x1, y1 := int((bx.X+bx.Width)*sx), int((bx.Y+bx.Height)*sy)
		for y := max(y0, 0); y <= min(y1, mapRows-1); y++ {
			for x := max(x0, 0); x <= min(x1, mapCols-1); x++ {
				grid[y][x] = cell{r: '▒', box: i}
			}
		}
		if y0 >= 0 && y0 < mapRows && x0 >= 0 && x0 < mapCols {
			grid[y0][x0].r = rune('1' + bx.Index%9)
		}
	}

	var b strings.Builder
	for y, row := range grid {
		for _, c := range row {
			if c.box < 0 {
				b.WriteString(hintStyle.Render(string(c.r)))
				continue
			}
			color := lipgloss.Color(overlay.StrokeColor(boxes[c.box].Severity))
			b.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(c.r)))
		}
		if y < mapRows-1 {
			b.WriteByte('\n')
		}
	}

	var legend strings.Builder
	for _, bx := range boxes {
		legend.WriteString(fmt.Sprintf("%d %s  ", bx.Index+1, severityStyle(bx.Severity).Render(bx.Location)))
	}
	return canvasStyle.Render(b.String()) + "\n" + legend.String()
}

func renderAnalysisSummary(res *model.AnalysisResult) string {
	rows := []struct{ label, value string }{
		{"Overall severity", severityStyle(res.DamageSeverity).Render(res.DamageSeverity.String())},
		{"Repair estimate", model.FormatCost(res.RepairEstimate)},
		{"Repair time", fmt.Sprintf("%d days", res.EstimatedRepairTime)},
		{"Confidence", model.FormatPercent(res.OverallConfidence)},
		{"Recommended action", res.RecommendedAction},
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(labelStyle.Width(20).Render(r.label))
		b.WriteString(r.value)
		b.WriteByte('\n')
	}
	return b.String()
}

func renderDetailTable(details []model.DamageDetail, selected int, focused bool, width int) string {
	var b strings.Builder
	header := fmt.Sprintf("  %-18s %-18s %-9s %10s %7s", "Location", "Damage", "Severity", "Cost", "Conf.")
	b.WriteString(hintStyle.Render(header))
	b.WriteByte('\n')

	for i, d := range details {
		line := fmt.Sprintf("%d %-18s %-18s %-9s %10s %7s",
			i+1,
			truncate(d.Location, 18),
			truncate(d.DamageType, 18),
			d.Severity,
			model.FormatCost(d.EstimatedCost),
			model.FormatPercent(d.ConfidenceScore),
		)
		line = truncate(line, width)
		if i == selected && focused {
			b.WriteString(itemSelectedStyle.Render(line))
		} else {
			b.WriteString(itemStyle.Render(line))
		}
		b.WriteByte('\n')
		if i == selected && d.Notes != "" {
			b.WriteString(hintStyle.Render("  " + truncate(d.Notes, width-2)))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len([]rune(s)) > max {
		return string([]rune(s)[:max-1]) + "…"
	}
	return s
}

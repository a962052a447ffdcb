package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/olliecrow/claude_code_meter/internal/meter"
)

const (
	minWidgetWidth     = 20
	defaultWidgetWidth = 38
)

// PaintOptions control how a meter.View is drawn as terminal text.
type PaintOptions struct {
	// Width is the total widget width in columns, borders included.
	Width    int
	NoColor  bool
	ShowPace bool
	// BadgeHover highlights the mode badge.
	BadgeHover bool
	// Spinner is prefixed to the loading message when set.
	Spinner string
}

// Paint draws v as a bordered box.
func Paint(v meter.View, opts PaintOptions) string {
	return paint(v, defaultStyles(opts.NoColor), opts)
}

func widgetWidth(w int) int {
	if w <= 0 {
		return defaultWidgetWidth
	}
	if w < minWidgetWidth {
		return minWidgetWidth
	}
	return w
}

// boxWidth is the lipgloss width of the panel: padding included, border not.
func boxWidth(st styles, width int) int {
	return widgetWidth(width) - horizontalOverhead(st.panel)
}

func innerWidth(st styles, width int) int {
	return boxWidth(st, width) - st.panel.GetHorizontalPadding()
}

func paint(v meter.View, st styles, opts PaintOptions) string {
	box := boxWidth(st, opts.Width)
	inner := innerWidth(st, opts.Width)

	switch v.Kind {
	case meter.PanelError:
		return st.errorPanel.Width(box).Render(st.errorText.Render(v.Message))
	case meter.PanelLoading:
		msg := v.Message
		if opts.Spinner != "" {
			msg = opts.Spinner + " " + msg
		}
		return st.panel.Width(box).Render(st.loading.Render(msg))
	}

	lines := make([]string, 0, 2+len(v.Rows)*5)
	if v.Header != nil {
		lines = append(lines, paintHeader(*v.Header, st, inner, opts.BadgeHover), "")
	}
	for i, row := range v.Rows {
		if i > 0 {
			lines = append(lines, st.divider.Render(strings.Repeat("─", inner)))
		}
		lines = append(lines, paintRow(row, st, inner, opts.ShowPace)...)
	}
	for i := range lines {
		lines[i] = truncateRunes(lines[i], inner)
	}
	return st.panel.Width(box).Render(strings.Join(lines, "\n"))
}

func paintBadge(h meter.Header, st styles, hover bool) string {
	style := st.badge
	if hover {
		style = st.badgeHover
	}
	label := h.ModeLabel
	if st.noColor {
		label = "[" + label + "]"
	}
	return style.Render(label)
}

func paintHeader(h meter.Header, st styles, inner int, hover bool) string {
	badge := paintBadge(h, st, hover)
	title := st.title.Render(strings.ToUpper(h.Title))
	left := title
	if h.Live {
		// Drop the LIVE word before the title gets cut.
		left = st.live.Render("●") + " " + st.dim.Render("LIVE") + "  " + title
		if lipgloss.Width(left)+1+lipgloss.Width(badge) > inner {
			left = st.live.Render("●") + " " + title
		}
	}
	return joinWithPaddingKeepRight(left, badge, inner)
}

func paintRow(row meter.Row, st styles, inner int, showPace bool) []string {
	lit, unlit := st.categoryStyles(row.Color)

	value := lit.Render(fmt.Sprintf("%d%%", row.Percent)) + " " + st.dim.Render(row.Suffix)
	cells, filled := row.Segments, row.Filled
	if cells > inner {
		// Refill a shortened bar so it keeps the right proportion.
		cells = inner
		filled = meter.BarFill(row.DisplayValue, cells)
	}
	bar := lit.Render(strings.Repeat("█", filled)) + unlit.Render(strings.Repeat("░", cells-filled))

	countdown := st.dim
	if row.Countdown.Urgent {
		countdown = st.urgent
	}

	lines := []string{
		joinWithPaddingKeepRight(st.dim.Render(strings.ToUpper(row.Label)), value, inner),
		bar,
		joinWithPaddingKeepRight(st.dim.Render("resets "+row.ResetClock), countdown.Render(row.Countdown.Text), inner),
	}
	if showPace {
		lines = append(lines, joinWithPaddingKeepRight(
			st.severityStyle(row.Pace.Severity).Render(row.Pace.Label),
			st.dim.Render(row.Countdown.Label),
			inner,
		))
	}
	return lines
}

// hitZone is an inclusive cell rectangle on one screen row.
type hitZone struct {
	row    int
	x0, x1 int
}

func (z hitZone) contains(x, y int) bool {
	return y == z.row && x >= z.x0 && x <= z.x1
}

// badgeZone locates the mode badge when the widget is drawn at the top-left
// corner of the screen.
func badgeZone(v meter.View, st styles, opts PaintOptions) (hitZone, bool) {
	if v.Kind != meter.PanelUsage || v.Header == nil {
		return hitZone{}, false
	}
	inner := innerWidth(st, opts.Width)
	w := min(lipgloss.Width(paintBadge(*v.Header, st, opts.BadgeHover)), inner)
	left := st.panel.GetBorderLeftSize() + st.panel.GetPaddingLeft()
	x1 := left + inner - 1
	return hitZone{
		row: st.panel.GetBorderTopSize() + st.panel.GetPaddingTop(),
		x0:  x1 - w + 1,
		x1:  x1,
	}, true
}

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/olliecrow/claude_code_meter/internal/meter"
)

const (
	colorAmber    = lipgloss.Color("#e8a020")
	colorAmberDim = lipgloss.Color("#42300f")
	colorGreen    = lipgloss.Color("#40c040")
	colorGreenDim = lipgloss.Color("#18381a")
	colorRed      = lipgloss.Color("#e04040")
	colorRedDim   = lipgloss.Color("#8a2a2a")
	colorTextDim  = lipgloss.Color("#8f6418")
	colorBorder   = lipgloss.Color("#6b4c12")
	colorInk      = lipgloss.Color("#0a0a0c")
)

type styles struct {
	noColor bool

	panel      lipgloss.Style
	errorPanel lipgloss.Style

	title      lipgloss.Style
	live       lipgloss.Style
	dim        lipgloss.Style
	badge      lipgloss.Style
	badgeHover lipgloss.Style
	divider    lipgloss.Style
	errorText  lipgloss.Style
	loading    lipgloss.Style
	urgent     lipgloss.Style
	help       lipgloss.Style

	safe, warning, critical          lipgloss.Style
	safeDim, warningDim, criticalDim lipgloss.Style

	paceGood, paceWarning, paceCritical lipgloss.Style
}

func defaultStyles(noColor bool) styles {
	basePanel := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if noColor {
		plain := lipgloss.NewStyle()
		bold := lipgloss.NewStyle().Bold(true)
		return styles{
			noColor:      true,
			panel:        basePanel,
			errorPanel:   basePanel,
			title:        bold,
			live:         plain,
			dim:          plain,
			badge:        plain,
			badgeHover:   lipgloss.NewStyle().Underline(true),
			divider:      plain,
			errorText:    bold,
			loading:      plain,
			urgent:       bold,
			help:         plain,
			safe:         bold,
			warning:      bold,
			critical:     bold,
			safeDim:      plain,
			warningDim:   plain,
			criticalDim:  plain,
			paceGood:     plain,
			paceWarning:  plain,
			paceCritical: bold,
		}
	}
	return styles{
		panel:        basePanel.BorderForeground(colorBorder),
		errorPanel:   basePanel.BorderForeground(colorRedDim),
		title:        lipgloss.NewStyle().Bold(true).Foreground(colorAmber),
		live:         lipgloss.NewStyle().Foreground(colorGreen),
		dim:          lipgloss.NewStyle().Foreground(colorTextDim),
		badge:        lipgloss.NewStyle().Bold(true).Foreground(colorInk).Background(colorTextDim).Padding(0, 1),
		badgeHover:   lipgloss.NewStyle().Bold(true).Foreground(colorInk).Background(colorAmber).Padding(0, 1),
		divider:      lipgloss.NewStyle().Foreground(colorBorder),
		errorText:    lipgloss.NewStyle().Foreground(colorRed),
		loading:      lipgloss.NewStyle().Foreground(colorTextDim),
		urgent:       lipgloss.NewStyle().Bold(true).Foreground(colorRed),
		help:         lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		safe:         lipgloss.NewStyle().Bold(true).Foreground(colorGreen),
		warning:      lipgloss.NewStyle().Bold(true).Foreground(colorAmber),
		critical:     lipgloss.NewStyle().Bold(true).Foreground(colorRed),
		safeDim:      lipgloss.NewStyle().Foreground(colorGreenDim),
		warningDim:   lipgloss.NewStyle().Foreground(colorAmberDim),
		criticalDim:  lipgloss.NewStyle().Foreground(colorRedDim),
		paceGood:     lipgloss.NewStyle().Foreground(colorGreen),
		paceWarning:  lipgloss.NewStyle().Foreground(colorAmber),
		paceCritical: lipgloss.NewStyle().Bold(true).Foreground(colorRed),
	}
}

// categoryStyles returns the lit and unlit bar styles for a color class.
func (s styles) categoryStyles(c meter.Category) (lit, unlit lipgloss.Style) {
	switch c {
	case meter.CategoryCritical:
		return s.critical, s.criticalDim
	case meter.CategoryWarning:
		return s.warning, s.warningDim
	default:
		return s.safe, s.safeDim
	}
}

func (s styles) severityStyle(sev meter.Severity) lipgloss.Style {
	switch sev {
	case meter.SeverityGood:
		return s.paceGood
	case meter.SeverityWarning:
		return s.paceWarning
	case meter.SeverityCritical:
		return s.paceCritical
	default:
		return s.dim
	}
}

// Package tui hosts the meter in a terminal. The model owns the display
// state, feeds poll results and badge clicks through meter.Reduce and paints
// whatever meter.Render returns.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"

	"github.com/olliecrow/claude_code_meter/internal/logging"
	"github.com/olliecrow/claude_code_meter/internal/meter"
)

// FetchFunc performs one poll. A non-nil error marks the poll as failed.
type FetchFunc func(context.Context) ([]byte, error)

type Options struct {
	// Context carries the logger and bounds every poll.
	Context     context.Context
	Interval    time.Duration
	Timeout     time.Duration
	InitialMode meter.DisplayMode
	Meter       meter.Config
	Width       int
	ShowPace    bool
	NoColor     bool
	AltScreen   bool
	Fetch       FetchFunc
}

type Model struct {
	ctx      context.Context
	logger   *log.Logger
	interval time.Duration
	timeout  time.Duration
	fetch    FetchFunc

	cfg         meter.Config
	widgetWidth int
	showPace    bool

	width  int
	height int

	now time.Time

	state meter.State
	// hovered is UI-local and never passes through the reducer.
	hovered bool

	fetching          bool
	lastFetchDuration time.Duration
	nextFetchAt       time.Time

	styles  styles
	keys    keyMap
	help    help.Model
	spinner spinner.Model
}

type pollTickMsg struct {
	at time.Time
}

type clockTickMsg struct {
	at time.Time
}

type fetchResultMsg struct {
	at       time.Time
	duration time.Duration
	output   []byte
	err      error
}

const (
	defaultInterval = 30 * time.Second
	defaultTimeout  = 10 * time.Second
)

func NewModel(opts Options) Model {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	fetch := opts.Fetch
	if fetch == nil {
		fetch = func(context.Context) ([]byte, error) {
			return nil, errors.New("missing fetch function")
		}
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Meter
	if len(cfg.Windows) == 0 {
		cfg = meter.DefaultConfig()
	}
	now := time.Now()

	st := defaultStyles(opts.NoColor)
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = st.loading

	h := help.New()
	h.Styles.ShortKey = st.help
	h.Styles.ShortDesc = st.help
	h.Styles.ShortSeparator = st.help

	return Model{
		ctx:         ctx,
		logger:      logging.FromContext(ctx),
		interval:    interval,
		timeout:     timeout,
		fetch:       fetch,
		cfg:         cfg,
		widgetWidth: widgetWidth(opts.Width),
		showPace:    opts.ShowPace,
		now:         now,
		state:       meter.NewState(opts.InitialMode),
		fetching:    true,
		nextFetchAt: now.Add(interval),
		styles:      st,
		keys:        defaultKeyMap(),
		help:        h,
		spinner:     sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchCmd(m.ctx, m.fetch, m.timeout), pollCmd(m.interval), clockCmd(), m.spinner.Tick)
}

// State returns the current display state.
func (m Model) State() meter.State {
	return m.state
}

func (m Model) dispatch(e meter.Event) Model {
	m.state = meter.Reduce(m.state, e)
	if e.Type == meter.EventToggleMode {
		m.logger.Debug("display mode toggled", "mode", m.state.Mode)
	}
	return m
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(v, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(v, m.keys.Toggle):
			return m.dispatch(meter.ToggleMode()), nil
		case key.Matches(v, m.keys.Refresh):
			if m.fetching {
				return m, nil
			}
			m.fetching = true
			return m, fetchCmd(m.ctx, m.fetch, m.timeout)
		}
	case tea.MouseMsg:
		return m.handleMouse(v), nil
	case tea.WindowSizeMsg:
		m.width = v.Width
		m.height = v.Height
		m.help.Width = v.Width
	case pollTickMsg:
		m.nextFetchAt = v.at.Add(m.interval)
		cmds := []tea.Cmd{pollCmd(m.interval)}
		if !m.fetching {
			m.fetching = true
			cmds = append(cmds, fetchCmd(m.ctx, m.fetch, m.timeout))
		}
		return m, tea.Batch(cmds...)
	case clockTickMsg:
		m.now = v.at
		return m, clockCmd()
	case fetchResultMsg:
		m.fetching = false
		m.lastFetchDuration = v.duration
		if v.err != nil {
			m.logger.Debug("poll failed", "err", v.err)
		}
		return m.dispatch(meter.PollCompleted(string(v.output), v.err)), nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(v)
		return m, cmd
	}
	return m, nil
}

func (m Model) paintOptions() PaintOptions {
	width := m.widgetWidth
	if m.width > 0 && m.width < width {
		width = m.width
	}
	return PaintOptions{
		Width:      width,
		NoColor:    m.styles.noColor,
		ShowPace:   m.showPace,
		BadgeHover: m.hovered,
		Spinner:    m.spinner.View(),
	}
}

func (m Model) handleMouse(ev tea.MouseMsg) Model {
	view := meter.Render(m.state, m.now, m.cfg)
	zone, ok := badgeZone(view, m.styles, m.paintOptions())
	over := ok && zone.contains(ev.X, ev.Y)
	m.hovered = over

	if over && ev.Action == tea.MouseActionPress && ev.Button == tea.MouseButtonLeft {
		return m.dispatch(view.Header.OnToggle)
	}
	return m
}

func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "initializing..."
	}

	view := meter.Render(m.state, m.now, m.cfg)
	widget := paint(view, m.styles, m.paintOptions())
	footer := joinWithPaddingKeepRight(m.help.View(m.keys), m.styles.help.Render(m.refreshStatus()), m.width)

	combined := pinFooterToBottom(widget, footer, m.height)
	return clipToViewport(combined, m.width, m.height)
}

func (m Model) refreshStatus() string {
	if m.fetching {
		return "refreshing"
	}
	status := "next poll " + humanDuration(m.nextFetchAt.Sub(m.now))
	if m.state.Last.Status == meter.PollFailure && m.state.Last.Reason != "" {
		status = "last poll failed · " + status
	}
	return status
}

func pollCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return pollTickMsg{at: t}
	})
}

func clockCmd() tea.Cmd {
	return tea.Tick(1*time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg{at: t}
	})
}

func fetchCmd(parent context.Context, fetch FetchFunc, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		out, err := fetch(ctx)
		return fetchResultMsg{
			at:       time.Now(),
			duration: time.Since(start),
			output:   out,
			err:      err,
		}
	}
}

func Run(opts Options) error {
	model := NewModel(opts)
	progOpts := []tea.ProgramOption{tea.WithMouseAllMotion()}
	if opts.Context != nil {
		progOpts = append(progOpts, tea.WithContext(opts.Context))
	}
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	prog := tea.NewProgram(model, progOpts...)
	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run meter ui: %w", err)
	}
	return nil
}

func joinWithPaddingKeepRight(left, right string, width int) string {
	if width <= 0 {
		return ""
	}
	rightWidth := lipgloss.Width(right)
	if rightWidth >= width {
		return truncateRunes(right, width)
	}
	maxLeftWidth := width - rightWidth - 1
	if maxLeftWidth < 0 {
		maxLeftWidth = 0
	}
	left = truncateRunes(left, maxLeftWidth)
	leftWidth := lipgloss.Width(left)
	padding := width - leftWidth - rightWidth
	if padding < 1 {
		padding = 1
	}
	return left + strings.Repeat(" ", padding) + right
}

func truncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	return ansi.Truncate(s, maxRunes, "")
}

func clipToViewport(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i := range lines {
		lines[i] = truncateRunes(lines[i], width)
		pad := width - lipgloss.Width(lines[i])
		if pad > 0 {
			lines[i] += strings.Repeat(" ", pad)
		}
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func pinFooterToBottom(top, footer string, height int) string {
	if height <= 0 {
		return ""
	}
	footerLines := []string{}
	if footer != "" {
		footerLines = strings.Split(footer, "\n")
	}
	topLines := []string{}
	if top != "" {
		topLines = strings.Split(top, "\n")
	}

	maxTopLines := height - len(footerLines)
	if maxTopLines < 0 {
		maxTopLines = 0
	}
	if len(topLines) > maxTopLines {
		topLines = topLines[:maxTopLines]
	}
	for len(topLines) < maxTopLines {
		topLines = append(topLines, "")
	}

	all := append(topLines, footerLines...)
	if len(all) == 0 {
		return ""
	}
	return strings.Join(all, "\n")
}

func humanDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return d.String()
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dd%dh", int(d.Hours())/24, int(d.Hours())%24)
}

func horizontalOverhead(style lipgloss.Style) int {
	// Probe with a stable non-trivial width to avoid edge-case minimum sizing.
	const probeWidth = 40
	overhead := lipgloss.Width(style.Width(probeWidth).Render("")) - probeWidth
	if overhead < 0 {
		return 0
	}
	return overhead
}

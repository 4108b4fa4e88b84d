package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/attrstore/internal/attribute"
)

// Snapshot is one poll of a server's attributes.
type Snapshot struct {
	Descriptors []attribute.Descriptor
	Values      map[string]string
	Errors      map[string]error // Per-attribute read failures
}

// FetchFunc polls the server for a new snapshot.
type FetchFunc func(ctx context.Context) (Snapshot, error)

// Messages for async polling
type (
	snapshotMsg struct {
		snapshot Snapshot
		err      error
		at       time.Time
	}
	pollMsg struct{}
)

// watchKeyMap defines key bindings for the watch screen
type watchKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Refresh, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Refresh, k.Quit}}
}

var watchKeys = watchKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// WatchModel polls a server and shows its attributes as a live table.
type WatchModel struct {
	ctx      context.Context
	title    string
	fetch    FetchFunc
	interval time.Duration

	table   table.Model
	spinner spinner.Model
	help    help.Model
	keys    watchKeyMap

	snapshot   Snapshot
	err        error
	lastUpdate time.Time
	fetching   bool
	width      int
}

// NewWatchModel creates a watch screen titled title that calls fetch every
// interval.
func NewWatchModel(ctx context.Context, title string, fetch FetchFunc, interval time.Duration) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	t := table.New(
		table.WithColumns(watchColumns(GetTerminalWidth())),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(PrimaryColor).
		BorderBottom(true).
		Foreground(PrimaryColor).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(TextColor).
		Background(PrimaryColor)
	t.SetStyles(styles)

	return WatchModel{
		ctx:      ctx,
		title:    title,
		fetch:    fetch,
		interval: interval,
		table:    t,
		spinner:  s,
		help:     help.New(),
		keys:     watchKeys,
		fetching: true,
		width:    GetTerminalWidth(),
	}
}

// watchColumns sizes the table columns to the terminal width.
func watchColumns(width int) []table.Column {
	name := max(12, width/4)
	value := max(12, width-name-10-16-8-16)
	return []table.Column{
		{Title: "NAME", Width: name},
		{Title: "TYPE", Width: 10},
		{Title: "ACCESS", Width: 16},
		{Title: "VALUE", Width: value},
		{Title: "UNIT", Width: 8},
	}
}

// Init implements tea.Model
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCmd())
}

func (m WatchModel) fetchCmd() tea.Cmd {
	fetch, ctx := m.fetch, m.ctx
	return func() tea.Msg {
		snap, err := fetch(ctx)
		return snapshotMsg{snapshot: snap, err: err, at: time.Now()}
	}
}

func (m WatchModel) scheduleCmd() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

// Update implements tea.Model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if m.fetching {
				return m, nil
			}
			m.fetching = true
			return m, m.fetchCmd()
		}

	case tea.WindowSizeMsg:
		m.width = min(msg.Width, MaxContentWidth)
		m.help.Width = m.width
		m.table.SetColumns(watchColumns(m.width))
		m.table.SetHeight(max(3, msg.Height-8))
		return m, nil

	case snapshotMsg:
		m.fetching = false
		m.lastUpdate = msg.at
		m.err = msg.err
		if msg.err == nil {
			m.snapshot = msg.snapshot
			m.table.SetRows(SnapshotRows(msg.snapshot))
		}
		return m, m.scheduleCmd()

	case pollMsg:
		if m.fetching {
			return m, nil
		}
		m.fetching = true
		return m, m.fetchCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(HeaderTitleStyle.Render(strings.ToUpper(m.title)))
	b.WriteString("\n")

	status := fmt.Sprintf("%d attributes", len(m.snapshot.Descriptors))
	if !m.lastUpdate.IsZero() {
		status += " · updated " + m.lastUpdate.Format("15:04:05")
	}
	if m.fetching {
		status = m.spinner.View() + " " + status
	}
	b.WriteString(HeaderSubtitleStyle.Render(status))
	b.WriteString("\n\n")

	b.WriteString(m.table.View())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(ErrorMessageStyle.Render("  " + FailureMarker + " " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// SnapshotRows converts a snapshot to table rows in declaration order.
// Unreadable attributes show their access mode, failed reads show the error.
func SnapshotRows(s Snapshot) []table.Row {
	rows := make([]table.Row, 0, len(s.Descriptors))
	for _, d := range s.Descriptors {
		value, ok := s.Values[d.Name]
		switch {
		case !d.Access.CanRead():
			value = "(write only)"
		case s.Errors[d.Name] != nil:
			value = FailureMarker + " " + s.Errors[d.Name].Error()
		case !ok:
			value = ""
		}
		rows = append(rows, table.Row{d.Name, d.Type.String(), d.Access.String(), value, d.Unit})
	}
	return rows
}

// RunWatch runs the watch screen until the user quits or ctx is done.
func RunWatch(ctx context.Context, title string, fetch FetchFunc, interval time.Duration) error {
	p := tea.NewProgram(NewWatchModel(ctx, title, fetch, interval),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

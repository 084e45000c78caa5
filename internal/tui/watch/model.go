// Package watch implements the `rook watch` TUI: a live view over the
// dispatch journal.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rookhook/rook/internal/journal"
)

const (
	refreshInterval = 2 * time.Second
	maxRows         = 50
)

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1)

	statusFailed = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type refreshMsg []journal.Entry
type tickMsg time.Time
type errMsg error

// Model is the BubbleTea model for the watch TUI.
type Model struct {
	journal *journal.Journal

	table       table.Model
	width       int
	height      int
	lastRefresh time.Time
	lastError   string
}

// New creates a watch model over an open journal.
func New(jnl *journal.Journal) *Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Time", Width: 19},
			{Title: "Outcome", Width: 8},
			{Title: "Path", Width: 16},
			{Title: "Event", Width: 8},
			{Title: "Repo", Width: 20},
			{Title: "Command", Width: 32},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return &Model{journal: jnl, table: t}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		fetchEntries(m.journal),
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case refreshMsg:
		rows := make([]table.Row, 0, len(msg))
		for _, e := range msg {
			rows = append(rows, table.Row{
				e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				string(e.Outcome),
				e.URL,
				e.Event,
				e.Repo,
				e.Command,
			})
		}
		m.table.SetRows(rows)
		m.lastRefresh = time.Now()
		m.lastError = ""
		return m, tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })

	case tickMsg:
		return m, fetchEntries(m.journal)

	case errMsg:
		m.lastError = msg.Error()
		return m, tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	title := titleStyle.Render("rook dispatch journal")

	var errBar string
	if m.lastError != "" {
		errBar = statusFailed.Render(fmt.Sprintf(" ⚠ %s", m.lastError))
	}

	status := dimStyle.Render(fmt.Sprintf(" refreshed %s • [q] quit",
		m.lastRefresh.Format("15:04:05")))

	parts := []string{title, m.table.View(), status}
	if errBar != "" {
		parts = append(parts, errBar)
	}

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// fetchEntries loads the newest journal rows off the Update loop.
func fetchEntries(jnl *journal.Journal) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		entries, err := jnl.Recent(ctx, maxRows)
		if err != nil {
			return errMsg(err)
		}
		return refreshMsg(entries)
	}
}

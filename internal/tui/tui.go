// Package tui is the interactive search shell: a read-query-print
// loop that reuses the search engine and renders each hit as
// "NN. <title> (<url>)". The prompt keeps a bounded, duplicate-free
// query history cycled with the arrow keys, times each search, and
// says so when nothing matched.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"searxiv/internal/searchengine"
)

// maxHistory caps how many past queries the prompt remembers.
const maxHistory = 50

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("105")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("71")).
			Italic(true)
)

// model holds the TUI's entire state: a single query input and the
// last set of rendered results.
type model struct {
	engine  *searchengine.Engine
	query   string
	results []searchengine.Result
	status  string
	errMsg  string
	quit    bool

	history    []string
	historyPos int // len(history) means "editing a fresh query"
}

// pushHistory appends query to the history, dropping any earlier
// duplicate and capping at maxHistory entries.
func (m *model) pushHistory(query string) {
	for i, h := range m.history {
		if h == query {
			m.history = append(m.history[:i], m.history[i+1:]...)
			break
		}
	}
	m.history = append(m.history, query)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	m.historyPos = len(m.history)
}

type searchDoneMsg struct {
	results  []searchengine.Result
	duration time.Duration
}

type searchErrMsg struct {
	err error
}

// New builds the initial TUI model around a ready search engine.
func New(engine *searchengine.Engine) tea.Model {
	return model{engine: engine, status: fmt.Sprintf("search ready, %s", engine.State())}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case searchDoneMsg:
		m.results = msg.results
		m.errMsg = ""
		if len(msg.results) == 0 {
			m.status = fmt.Sprintf("✘ Nothing found (%s)", msg.duration)
		} else {
			m.status = fmt.Sprintf("%d result(s) — this search took: %s", len(msg.results), msg.duration)
		}
		return m, nil

	case searchErrMsg:
		m.errMsg = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quit = true
			return m, tea.Quit
		case "enter":
			if strings.TrimSpace(m.query) == "" {
				return m, nil
			}
			query := m.query
			m.pushHistory(query)
			m.status = "searching..."
			start := time.Now()
			return m, func() tea.Msg {
				results, err := m.engine.Search(context.Background(), query)
				if err != nil {
					return searchErrMsg{err: err}
				}
				return searchDoneMsg{results: results, duration: time.Since(start)}
			}
		case "up":
			if m.historyPos > 0 {
				m.historyPos--
				m.query = m.history[m.historyPos]
			}
		case "down":
			if m.historyPos < len(m.history)-1 {
				m.historyPos++
				m.query = m.history[m.historyPos]
			} else {
				m.historyPos = len(m.history)
				m.query = ""
			}
		case "backspace":
			if len(m.query) > 0 {
				m.query = m.query[:len(m.query)-1]
			}
		default:
			if len(msg.String()) == 1 {
				m.query += msg.String()
			}
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.quit {
		return "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("searxiv"))
	b.WriteString("\n\n")
	b.WriteString(promptStyle.Render("> "))
	b.WriteString(m.query)
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(errorStyle.Render("error: " + m.errMsg))
		b.WriteString("\n\n")
	}

	for i, r := range m.results {
		b.WriteString(resultStyle.Render(fmt.Sprintf("%2d. %s (%s)", i+1, r.Title, r.URL)))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.status))
	}

	b.WriteString("\n")
	b.WriteString(resultStyle.Render("[Enter] search  [↑/↓] history  [Esc]/[Ctrl+C] quit"))
	return b.String()
}

// Run starts the interactive loop until the user quits.
func Run(engine *searchengine.Engine) error {
	p := tea.NewProgram(New(engine))
	_, err := p.Run()
	return err
}

// Package ui provides the rendering components of the presage CLI: a spinner
// for long operations, tables, badges and lists.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alightgoesout/presage/cli/styles"
)

// SpinnerModel shows a spinner with a message until it receives a SpinnerDoneMsg.
type SpinnerModel struct {
	spinner  spinner.Model
	message  string
	quitting bool
	done     bool
	result   string
	err      error
}

// NewSpinner creates a spinner showing message.
func NewSpinner(message string) SpinnerModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return SpinnerModel{
		spinner: s,
		message: message,
	}
}

func (m SpinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m SpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case SpinnerDoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m SpinnerModel) View() string {
	switch {
	case m.done && m.err != nil:
		return styles.FormatError(m.result+": "+m.err.Error()) + "\n"
	case m.done:
		return styles.FormatSuccess(m.result) + "\n"
	case m.quitting:
		return styles.FormatWarning("Cancelled") + "\n"
	default:
		return m.spinner.View() + " " + styles.Normal.Render(m.message) + "\n"
	}
}

// Cancelled reports whether the user quit before completion.
func (m SpinnerModel) Cancelled() bool {
	return m.quitting
}

// SpinnerDoneMsg stops the spinner with a result.
type SpinnerDoneMsg struct {
	Result string
	Err    error
}

// Table renders rows with box-drawing borders. Cells may contain styled text.
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a table with headers.
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	return &Table{
		headers: headers,
		widths:  widths,
	}
}

// AddRow adds a row. Missing values are left blank and extra values dropped.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(values) {
			row[i] = values[i]
			if w := lipgloss.Width(values[i]); w > t.widths[i] {
				t.widths[i] = w
			}
		}
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render returns the table as a string.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Foreground(styles.Text).Padding(0, 1)
	border := lipgloss.NewStyle().Foreground(styles.Border)

	var sb strings.Builder
	line := func(left, middle, right string) {
		sb.WriteString(border.Render(left))
		for i, w := range t.widths {
			sb.WriteString(border.Render(strings.Repeat("─", w+2)))
			if i < len(t.widths)-1 {
				sb.WriteString(border.Render(middle))
			}
		}
		sb.WriteString(border.Render(right))
		sb.WriteString("\n")
	}
	row := func(style lipgloss.Style, cells []string) {
		sb.WriteString(border.Render("│"))
		for i, cell := range cells {
			sb.WriteString(style.Width(t.widths[i] + 2).Render(cell))
			sb.WriteString(border.Render("│"))
		}
		sb.WriteString("\n")
	}

	line("┌", "┬", "┐")
	row(headerStyle, t.headers)
	line("├", "┼", "┤")
	for _, r := range t.rows {
		row(cellStyle, r)
	}
	line("└", "┴", "┘")

	return strings.TrimSuffix(sb.String(), "\n")
}

// StatusBadge renders a status as a colored badge.
func StatusBadge(status string) string {
	badge := lipgloss.NewStyle().Padding(0, 1)
	switch strings.ToLower(status) {
	case "done", "ok", "enabled", "written":
		badge = badge.Background(styles.Success).Foreground(lipgloss.Color("#000000"))
	case "new", "pending", "unwritten":
		badge = badge.Background(styles.Warning).Foreground(lipgloss.Color("#000000"))
	case "failed", "error", "disabled":
		badge = badge.Background(styles.Error).Foreground(lipgloss.Color("#FFFFFF"))
	default:
		badge = badge.Background(styles.Surface).Foreground(styles.Text)
	}
	return badge.Render(status)
}

// SimpleBanner returns the one-line banner of the CLI.
func SimpleBanner() string {
	return lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).Render("presage") +
		" " + styles.Muted.Render("- command and event dispatch for Go")
}

// Divider returns a horizontal line.
func Divider(width int) string {
	return styles.Dim.Render(strings.Repeat("─", width))
}

// Checklist renders numbered items with a box that is checked for done items.
func Checklist(items []string, done []bool) string {
	var sb strings.Builder
	for i, item := range items {
		box := styles.Muted.Render(styles.IconTodo)
		if i < len(done) && done[i] {
			box = styles.SuccessStyle.Render(styles.IconDone)
		}
		fmt.Fprintf(&sb, "%2d. %s %s\n", i+1, box, styles.Normal.Render(item))
	}
	return sb.String()
}

// ListItems renders items with bullets.
func ListItems(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("  " + lipgloss.NewStyle().Foreground(styles.Primary).Render(styles.IconDot) + " ")
		sb.WriteString(styles.Normal.Render(item))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Package styles holds the colors and text styles of the presage CLI.
package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	Primary      = lipgloss.Color("#0EA5E9") // Sky
	PrimaryLight = lipgloss.Color("#7DD3FC")
	Secondary    = lipgloss.Color("#A855F7") // Violet

	Success = lipgloss.Color("#22C55E")
	Warning = lipgloss.Color("#EAB308")
	Error   = lipgloss.Color("#EF4444")
	Info    = lipgloss.Color("#38BDF8")

	Text      = lipgloss.Color("#F8FAFC")
	TextMuted = lipgloss.Color("#94A3B8")
	TextDim   = lipgloss.Color("#64748B")
	Surface   = lipgloss.Color("#1E293B")
	Border    = lipgloss.Color("#334155")
)

// Text styles. They are rebuilt by DisableColors.
var (
	Bold      lipgloss.Style
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Normal    lipgloss.Style
	Muted     lipgloss.Style
	Dim       lipgloss.Style
	Highlight lipgloss.Style
	Code      lipgloss.Style

	SuccessStyle lipgloss.Style
	WarningStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	InfoStyle    lipgloss.Style

	Box lipgloss.Style
)

func init() {
	build()
}

func build() {
	Bold = lipgloss.NewStyle().Bold(true)
	Title = lipgloss.NewStyle().Bold(true).Foreground(Primary).MarginBottom(1)
	Subtitle = lipgloss.NewStyle().Bold(true).Foreground(PrimaryLight)
	Normal = lipgloss.NewStyle().Foreground(Text)
	Muted = lipgloss.NewStyle().Foreground(TextMuted)
	Dim = lipgloss.NewStyle().Foreground(TextDim)
	Highlight = lipgloss.NewStyle().Bold(true).Foreground(Secondary)
	Code = lipgloss.NewStyle().Foreground(Warning).Background(Surface).Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	ErrorStyle = lipgloss.NewStyle().Foreground(Error)
	InfoStyle = lipgloss.NewStyle().Foreground(Info)

	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
}

// Icons
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "⚠"
	IconInfo    = "ℹ"
	IconArrow   = "→"
	IconDot     = "•"
	IconPending = "◌"
	IconTodo    = "☐"
	IconDone    = "☑"
	IconEvent   = "⚡"
	IconCommand = "▶"
)

// FormatSuccess formats a success message with its icon.
func FormatSuccess(msg string) string {
	return SuccessStyle.Render(IconSuccess) + " " + Normal.Render(msg)
}

// FormatError formats an error message with its icon.
func FormatError(msg string) string {
	return ErrorStyle.Render(IconError) + " " + Normal.Render(msg)
}

// FormatWarning formats a warning message with its icon.
func FormatWarning(msg string) string {
	return WarningStyle.Render(IconWarning) + " " + Normal.Render(msg)
}

// FormatInfo formats an info message with its icon.
func FormatInfo(msg string) string {
	return InfoStyle.Render(IconInfo) + " " + Normal.Render(msg)
}

// FormatStep formats one step of a sequence, such as "[2/5] rename-task".
func FormatStep(step, total int, msg string) string {
	return Muted.Render(fmt.Sprintf("[%d/%d]", step, total)) + " " + msg
}

// FormatKeyValue formats a key and its value on one line.
func FormatKeyValue(key, value string) string {
	keyStyle := lipgloss.NewStyle().Foreground(TextMuted).Width(20)
	return keyStyle.Render(key+":") + " " + Highlight.Render(value)
}

// DisableColors removes every color, for terminals that do not support them
// or output that is not a terminal.
func DisableColors() {
	none := lipgloss.Color("")
	Primary, PrimaryLight, Secondary = none, none, none
	Success, Warning, Error, Info = none, none, none, none
	Text, TextMuted, TextDim, Surface, Border = none, none, none, none, none
	build()
}

package utils

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// MessageType defines the type of message box to render.
type MessageType int

const (
	InfoMessage MessageType = iota
	SuccessMessage
	WarningMessage
	ErrorMessage
)

const (
	infoPrefix    = "ℹ"
	successPrefix = "✓"
	warningPrefix = "⚠"
	errorPrefix   = "✗"
)

const (
	topLeft     = "╭"
	topRight    = "╮"
	bottomLeft  = "╰"
	bottomRight = "╯"
	horizontal  = "─"
	vertical    = "│"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Box is a builder for product cards and run summaries.
type Box struct {
	messageType MessageType
	title       string
	content     []string
	fields      [][2]string
	width       int
}

// NewBox creates a new message box with a specific type.
func NewBox(messageType MessageType, title string) *Box {
	return &Box{
		messageType: messageType,
		title:       title,
		width:       terminalWidth() - 8,
	}
}

// WithWidth overrides the maximum box width.
func (b *Box) WithWidth(width int) *Box {
	if width > 10 {
		b.width = width
	}
	return b
}

// AddLine adds a line of text to the message box content.
func (b *Box) AddLine(text string) *Box {
	b.content = append(b.content, text)
	return b
}

// AddBullet adds a bulleted line to the message box content.
func (b *Box) AddBullet(text string) *Box {
	b.content = append(b.content, "• "+text)
	return b
}

// AddField adds an aligned "key: value" line. Fields render after lines.
func (b *Box) AddField(key string, value interface{}) *Box {
	b.fields = append(b.fields, [2]string{key, fmt.Sprint(value)})
	return b
}

// Render builds and returns the formatted message box as a string.
func (b *Box) Render() string {
	style, prefix := b.styleAndPrefix()

	lines := append([]string{}, b.content...)
	keyWidth := 0
	for _, f := range b.fields {
		if w := lipgloss.Width(f[0]); w > keyWidth {
			keyWidth = w
		}
	}
	for _, f := range b.fields {
		lines = append(lines, fmt.Sprintf("%-*s  %s", keyWidth+1, f[0]+":", f[1]))
	}

	return renderStyledBox(b.title, lines, style, prefix, b.width)
}

func (b *Box) styleAndPrefix() (lipgloss.Style, string) {
	switch b.messageType {
	case SuccessMessage:
		return successStyle, successPrefix
	case WarningMessage:
		return warningStyle, warningPrefix
	case ErrorMessage:
		return errorStyle, errorPrefix
	default:
		return infoStyle, infoPrefix
	}
}

func renderStyledBox(title string, body []string, style lipgloss.Style, prefix string, maxWidth int) string {
	contentWidth := maxWidth - 6

	var lines []string
	for _, line := range append([]string{title}, body...) {
		if lipgloss.Width(line) <= contentWidth {
			lines = append(lines, line)
		} else {
			lines = append(lines, wrapText(line, contentWidth)...)
		}
	}

	boxWidth := 6
	for _, line := range lines {
		if w := lipgloss.Width(line) + 6; w > boxWidth {
			boxWidth = w
		}
	}

	pad := func(line string, used int) string {
		n := boxWidth - lipgloss.Width(line) - used
		if n < 0 {
			n = 0
		}
		return strings.Repeat(" ", n)
	}

	var sb strings.Builder
	sb.WriteString(style.Render(topLeft+strings.Repeat(horizontal, boxWidth-2)+topRight) + "\n")
	sb.WriteString(fmt.Sprintf("%s %s %s%s %s\n",
		style.Render(vertical),
		style.Bold(true).Render(prefix),
		lines[0],
		pad(lines[0], 5+lipgloss.Width(prefix)),
		style.Render(vertical)))
	for _, line := range lines[1:] {
		sb.WriteString(fmt.Sprintf("%s   %s%s %s\n",
			style.Render(vertical),
			line,
			pad(line, 6),
			style.Render(vertical)))
	}
	sb.WriteString(style.Render(bottomLeft + strings.Repeat(horizontal, boxWidth-2) + bottomRight))
	return sb.String()
}

// Success renders a one-off success box.
func Success(title string, lines ...string) string {
	box := NewBox(SuccessMessage, title)
	for _, line := range lines {
		box.AddLine(line)
	}
	return box.Render()
}

// terminalWidth returns the stdout width or 80 when it cannot be detected.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// wrapText wraps text to fit within the specified maximum width.
func wrapText(text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if lipgloss.Width(current)+lipgloss.Width(word)+1 <= maxWidth {
			current += " " + word
		} else {
			lines = append(lines, current)
			current = word
		}
	}
	return append(lines, current)
}

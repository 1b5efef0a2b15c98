// Package render prints a comparison batch for the terminal, either as
// side-by-side bordered columns or as JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ahrav/go-triad/internal/domain"
)

// DefaultWidth is the total width used when the caller does not know the
// terminal size.
const DefaultWidth = 120

const minColumnWidth = 20

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5B8DEF")).
			Padding(0, 1)
	failedColumnStyle = columnStyle.BorderForeground(lipgloss.Color("#FF6B6B"))
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801"))
	durationStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	thoughtTitleStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#A0AEC0"))
	thoughtStyle      = lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("#999999"))
)

var thinkBlock = regexp.MustCompile(`(?s)<think>(.*?)</think>`)

// SplitThought separates the first <think>...</think> block from the answer.
// Content without a complete block is returned as the answer unchanged.
func SplitThought(content string) (thought, answer string) {
	m := thinkBlock.FindStringSubmatchIndex(content)
	if m == nil {
		return "", content
	}
	thought = strings.TrimSpace(content[m[2]:m[3]])
	answer = strings.TrimSpace(content[:m[0]] + content[m[1]:])
	return thought, answer
}

// Columns writes one column per result, in batch order, labelled with the
// matching persona's label. Results without a known persona fall back to
// their ID.
func Columns(w io.Writer, personas []domain.Persona, batch domain.ComparisonBatch, width int) error {
	if len(batch) == 0 {
		return nil
	}
	if width <= 0 {
		width = DefaultWidth
	}

	labels := make(map[domain.PersonaID]string, len(personas))
	for _, p := range personas {
		labels[p.ID] = p.Label
	}

	// Border and padding take four cells per column.
	colWidth := width/len(batch) - 4
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}

	cols := make([]string, len(batch))
	for i, res := range batch {
		label, ok := labels[res.PersonaID]
		if !ok {
			label = string(res.PersonaID)
		}
		title := titleStyle.Render(label) + " " + durationStyle.Render(fmt.Sprintf("%dms", res.DurationMillis))

		style := columnStyle
		body := res.Content
		if thought, answer := SplitThought(res.Content); thought != "" {
			body = thoughtTitleStyle.Render("Thinking Process") + "\n" +
				thoughtStyle.Render(thought) + "\n\n" + answer
		}
		if !res.Succeeded {
			style = failedColumnStyle
			body = errorStyle.Render("Error: " + res.Error)
		}
		cols[i] = style.Width(colWidth).Render(title + "\n\n" + body)
	}

	_, err := fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	return err
}

// JSON writes the batch as indented JSON.
func JSON(w io.Writer, batch domain.ComparisonBatch) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(batch)
}

package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"marquee/internal/domain"
)

// Color palette
var (
	accent    = lipgloss.Color("#E5A00D")
	dimGray   = lipgloss.Color("#6B7280")
	lightGray = lipgloss.Color("#9CA3AF")
	white     = lipgloss.Color("#F9FAFB")
	green     = lipgloss.Color("#10B981")
	red       = lipgloss.Color("#EF4444")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(white)

	folderStyle = lipgloss.NewStyle().
			Foreground(lightGray).
			Bold(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(dimGray)

	watchedStyle = lipgloss.NewStyle().
			Foreground(green)

	errorStyle = lipgloss.NewStyle().
			Foreground(red)
)

// consoleSink renders a terminated listing to a writer. It satisfies
// domain.Sink and remembers the outcome for the process exit code.
type consoleSink struct {
	w  io.Writer
	ok bool
}

func newConsoleSink(w io.Writer) *consoleSink {
	return &consoleSink{w: w}
}

func (s *consoleSink) Done(items []*domain.Item, contentKind string, ok bool) {
	s.ok = ok

	if !ok {
		fmt.Fprintln(s.w, errorStyle.Render("✗ listing failed"))
		return
	}

	fmt.Fprintln(s.w, headerStyle.Render(fmt.Sprintf("%s (%d)", contentKind, len(items))))
	for _, item := range items {
		fmt.Fprintln(s.w, renderItem(item))
	}
}

func renderItem(item *domain.Item) string {
	label := labelStyle.Render(item.Label)
	if item.Kind == domain.KindFolder {
		label = folderStyle.Render(item.Label + "/")
	}

	line := "  " + label
	if meta := itemMeta(item); meta != "" {
		line += " " + metaStyle.Render(meta)
	}
	if item.PlayCount > 0 {
		line += " " + watchedStyle.Render("✓")
	}
	return line
}

// itemMeta builds the dim annotation after the label: year, rating and
// resume progress where present
func itemMeta(item *domain.Item) string {
	meta := ""
	if item.Year > 0 {
		meta += fmt.Sprintf("(%d)", item.Year)
	}
	if item.Rating > 0 {
		if meta != "" {
			meta += " "
		}
		meta += fmt.Sprintf("%.1f", item.Rating)
	}
	if item.Resume != nil && item.Resume.Total > 0 {
		if meta != "" {
			meta += " "
		}
		meta += fmt.Sprintf("%d%%", item.Resume.Position*100/item.Resume.Total)
	}
	return meta
}

package main

import (
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

var questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")) // cyan

// loadDotEnv loads environment variables from the given file. Missing files
// are silently ignored. Existing variables are not overwritten.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, "load %s", path)
	}

	return nil
}

// renderMarkdown converts markdown to terminal output, falling back to the
// raw text when no renderer can be built.
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return text
	}

	out, err := r.Render(text)
	if err != nil {
		return text
	}

	return out
}

package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"pasfront/internal/driver"
	"pasfront/internal/symbols"
	"pasfront/internal/ui"
)

type analyzeOutcome struct {
	result *driver.AnalyzeResult
	err    error
}

// runAnalyzeWithUI runs Analyze in the background and renders its unit
// progress until the build finishes.
func runAnalyzeWithUI(ctx context.Context, title string, sources []string, opts driver.AnalyzeOptions) (*driver.AnalyzeResult, error) {
	events := make(chan symbols.Progress, 256)
	outcomeCh := make(chan analyzeOutcome, 1)

	go func() {
		local := opts
		local.Progress = func(p symbols.Progress) { events <- p }
		res, err := driver.Analyze(ctx, sources, local)
		close(events)
		outcomeCh <- analyzeOutcome{result: res, err: err}
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// the UI may quit early; the build must not block on a full channel
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}

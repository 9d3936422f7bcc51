package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"bindgen/internal/driver"
	"bindgen/internal/ui"
)

// runWithUI runs work in the background while a progress model renders the
// events it reports. The event channel is closed when work returns, which
// ends the program.
func runWithUI(ctx context.Context, title string, files []string, work func(context.Context, driver.ProgressSink) error) error {
	events := make(chan driver.Event, 256)
	done := make(chan error, 1)

	go func() {
		err := work(ctx, driver.ChannelSink{Ch: events})
		close(events)
		done <- err
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep draining so the worker never blocks on a full channel
		go func() {
			for range events {
			}
		}()
	}
	err := <-done
	if err != nil {
		return err
	}
	return uiErr
}

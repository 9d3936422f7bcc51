package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bindgen/internal/driver"
	"bindgen/internal/observ"
	"bindgen/internal/prof"
)

// setupProfiling starts the profilers requested by the persistent flags.
func setupProfiling(cmd *cobra.Command) (*prof.Session, error) {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if opts.Mem, err = flags.GetString("mem-profile"); err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if opts.Runtime, err = flags.GetString("runtime-trace"); err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if opts == (prof.Options{}) {
		return nil, nil
	}
	return prof.Start(opts)
}

// timingSink records finished stages into a timer and forwards every event.
type timingSink struct {
	timer *observ.Timer
	next  driver.ProgressSink
}

func (s timingSink) OnEvent(ev driver.Event) {
	if ev.Status == driver.StatusDone || ev.Status == driver.StatusCached {
		s.timer.Add(string(ev.Stage), ev.Elapsed)
	}
	if s.next != nil {
		s.next.OnEvent(ev)
	}
}

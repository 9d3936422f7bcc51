package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"bindgen/internal/diag"
	"bindgen/internal/trace"
)

// WriteOptions tunes WriteOutputs.
type WriteOptions struct {
	Jobs int
	Sink ProgressSink
}

// WriteOutputs writes every document under root, creating parent
// directories and syncing each file. Document names may contain slashes.
// It returns the written paths in name order.
func WriteOutputs(ctx context.Context, root string, outputs map[string]string, opts WriteOptions) ([]string, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "write", 0).WithExtra("dir", root)
	defer span.End("")

	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		p, err := outputPath(root, name)
		if err != nil {
			return nil, err
		}
		paths[i] = p
		emit(opts.Sink, Event{File: name, Stage: StageWrite, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(names))))
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			emit(opts.Sink, Event{File: name, Stage: StageWrite, Status: StatusWorking})
			if err := writeFile(paths[i], outputs[name]); err != nil {
				emit(opts.Sink, Event{File: name, Stage: StageWrite, Status: StatusError, Err: err})
				trace.Failf(tracer, "write", "%s: %v", paths[i], err)
				return diag.NewErr(diag.OutWriteFailed, fmt.Sprintf("%s: %v", paths[i], err))
			}
			emit(opts.Sink, Event{File: name, Stage: StageWrite, Status: StatusDone, Elapsed: time.Since(start)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// outputPath joins a document name onto root, refusing names that escape it.
func outputPath(root, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", diag.NewErr(diag.OutWriteFailed, fmt.Sprintf("document name %q escapes the output directory", name))
	}
	return filepath.Join(root, clean), nil
}

func writeFile(path, contents string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	// #nosec G304 -- path is derived from the output directory
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if _, err := f.WriteString(contents); err != nil {
		return err
	}
	return f.Sync()
}

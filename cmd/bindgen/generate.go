package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"bindgen/internal/diagfmt"
	"bindgen/internal/driver"
	"bindgen/internal/observ"
	"bindgen/internal/trace"
)

var generateCmd = &cobra.Command{
	Use:   "generate [bindgen.toml|file|directory]",
	Short: "Generate host bindings from FFI declarations",
	Long: `Generate loads the declaration files named by the project manifest (or the given
file or directory), translates every declaration and writes the host documents.
Nothing is written when any declaration fails.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

var checkCmd = &cobra.Command{
	Use:   "check [bindgen.toml|file|directory]",
	Short: "Validate FFI declarations without writing bindings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	for _, c := range []*cobra.Command{generateCmd, checkCmd} {
		c.Flags().String("format", "pretty", "diagnostics format (pretty|short|json)")
		c.Flags().Int("jobs", 0, "max parallel workers for loading (0=auto)")
		c.Flags().Bool("with-notes", true, "include diagnostic notes in output")
		c.Flags().Bool("fullpath", false, "emit absolute file paths in diagnostics")
		c.Flags().String("lang", "", "override the target language")
	}
	generateCmd.Flags().StringP("out", "o", "", "output directory (default from manifest or ./bindings)")
	generateCmd.Flags().Bool("no-cache", false, "disable the on-disk output cache")
	generateCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	generateCmd.Flags().Bool("watch", false, "regenerate whenever declarations or the manifest change")
	generateCmd.Flags().Bool("stdout", false, "print documents to stdout instead of writing files")
}

// runOptions collects the flag values shared by generate and check.
type runOptions struct {
	format         string
	jobs           int
	maxDiagnostics int
	withNotes      bool
	pathMode       diagfmt.PathMode
	color          bool
	quiet          bool
	timings        bool
	lang           string

	write    bool
	outDir   string
	noCache  bool
	ui       switchMode
	watch    bool
	toStdout bool
}

func readRunOptions(cmd *cobra.Command, write bool) (runOptions, error) {
	var opts runOptions
	var err error
	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	if opts.format, err = flags.GetString("format"); err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch opts.format = strings.ToLower(opts.format); opts.format {
	case "pretty", "short", "json":
	default:
		return opts, fmt.Errorf("unknown diagnostics format %q (expected pretty|short|json)", opts.format)
	}
	if opts.jobs, err = flags.GetInt("jobs"); err != nil {
		return opts, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if opts.withNotes, err = flags.GetBool("with-notes"); err != nil {
		return opts, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := flags.GetBool("fullpath")
	if err != nil {
		return opts, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	opts.pathMode = diagfmt.PathModeRelative
	if fullPath {
		opts.pathMode = diagfmt.PathModeAbsolute
	}
	if opts.lang, err = flags.GetString("lang"); err != nil {
		return opts, fmt.Errorf("failed to get lang flag: %w", err)
	}
	if opts.maxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if opts.quiet, err = root.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = root.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	colorFlag, err := root.GetString("color")
	if err != nil {
		return opts, fmt.Errorf("failed to get color flag: %w", err)
	}
	colorMode, err := readSwitchMode("color", colorFlag)
	if err != nil {
		return opts, err
	}
	opts.color = colorMode.resolve(os.Stderr)

	if !write {
		return opts, nil
	}
	opts.write = true
	if opts.outDir, err = flags.GetString("out"); err != nil {
		return opts, fmt.Errorf("failed to get out flag: %w", err)
	}
	if opts.noCache, err = flags.GetBool("no-cache"); err != nil {
		return opts, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	uiFlag, err := flags.GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = readSwitchMode("ui", uiFlag); err != nil {
		return opts, err
	}
	if opts.watch, err = flags.GetBool("watch"); err != nil {
		return opts, fmt.Errorf("failed to get watch flag: %w", err)
	}
	if opts.toStdout, err = flags.GetBool("stdout"); err != nil {
		return opts, fmt.Errorf("failed to get stdout flag: %w", err)
	}
	return opts, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	return runPipeline(cmd, args, true)
}

func runCheck(cmd *cobra.Command, args []string) error {
	return runPipeline(cmd, args, false)
}

func runPipeline(cmd *cobra.Command, args []string, write bool) error {
	opts, err := readRunOptions(cmd, write)
	if err != nil {
		return err
	}
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	ctx := cmd.Context()
	if opts.watch {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}

	var cache *driver.DiskCache
	if write && !opts.noCache {
		cache, err = driver.OpenDiskCache("bindgen")
		if err != nil {
			cache = nil
			if !opts.quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: output cache disabled: %v\n", err)
			}
		}
	}

	runErr := runOnce(ctx, cmd, path, opts, cache)
	if !opts.watch {
		return runErr
	}
	if runErr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), runErr)
	}

	plan, err := resolveInputs(path)
	if err != nil {
		return err
	}
	if !opts.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "watching %s (Ctrl+C to stop)\n", strings.Join(plan.watchDirs(), ", "))
	}
	err = driver.Watch(ctx, driver.WatchOptions{Dirs: plan.watchDirs()}, func(changed []string) {
		if !opts.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "changed: %s\n", strings.Join(changed, ", "))
		}
		if err := runOnce(ctx, cmd, path, opts, cache); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runOnce resolves inputs again on every call so a watched manifest edit
// takes effect on the next run.
func runOnce(ctx context.Context, cmd *cobra.Command, path string, opts runOptions, cache *driver.DiskCache) error {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "run", 0)
	defer span.End("")

	plan, err := resolveInputs(path)
	if err != nil {
		return err
	}
	if plan.Manifest != nil && len(plan.Manifest.Undecoded) > 0 && !opts.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: unknown keys ignored: %s\n",
			plan.Manifest.Path, strings.Join(plan.Manifest.Undecoded, ", "))
	}
	lang := plan.Lang
	if opts.lang != "" {
		lang = opts.lang
	}
	outDir := plan.OutDir
	if opts.outDir != "" {
		outDir, err = filepath.Abs(opts.outDir)
		if err != nil {
			return err
		}
	}

	req := driver.Request{
		Lang:           lang,
		Config:         plan.Config,
		Files:          plan.Files,
		BaseDir:        plan.Root,
		Jobs:           opts.jobs,
		MaxDiagnostics: opts.maxDiagnostics,
		Cache:          cache,
	}

	var timer *observ.Timer
	if opts.timings {
		timer = observ.NewTimer()
	}
	var res *driver.Result
	var written []string
	work := func(ctx context.Context, sink driver.ProgressSink) error {
		if timer != nil {
			sink = timingSink{timer: timer, next: sink}
		}
		req.Sink = sink
		var err error
		res, err = driver.Generate(ctx, req)
		if err != nil {
			return err
		}
		if !opts.write || opts.toStdout || res.Bag.HasErrors() {
			return nil
		}
		written, err = driver.WriteOutputs(ctx, outDir, res.Outputs, driver.WriteOptions{Jobs: opts.jobs, Sink: sink})
		return err
	}

	useUI := opts.write && !opts.watch && !opts.quiet && !opts.toStdout && opts.ui.resolve(os.Stdout)
	if useUI {
		err = runWithUI(ctx, "generating "+filepath.Base(plan.Root), plan.Files, work)
	} else {
		err = work(ctx, nil)
	}
	if res != nil {
		if perr := printDiagnostics(cmd.ErrOrStderr(), res, opts); perr != nil {
			return perr
		}
	}
	if err != nil {
		return err
	}
	if timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}

	if res.Bag.HasErrors() {
		return fmt.Errorf("generation failed: %s", diagfmt.Summary(res.Bag, false))
	}
	if opts.toStdout {
		return printDocuments(cmd.OutOrStdout(), res.Outputs)
	}
	if !opts.quiet {
		out := cmd.OutOrStdout()
		switch {
		case !opts.write:
			fmt.Fprintf(out, "%d declarations ok\n", res.Decls)
		case res.Cached:
			fmt.Fprintf(out, "wrote %d files to %s (cached)\n", len(written), relToCwd(outDir))
		default:
			fmt.Fprintf(out, "wrote %d files to %s\n", len(written), relToCwd(outDir))
		}
	}
	return nil
}

func printDiagnostics(w io.Writer, res *driver.Result, opts runOptions) error {
	if res.Bag.Len() == 0 {
		return nil
	}
	res.Bag.Sort()
	switch opts.format {
	case "json":
		return diagfmt.JSON(w, res.Bag, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         opts.pathMode,
			IncludeNotes:     opts.withNotes,
		})
	case "short":
		diagfmt.Short(w, res.Bag, res.FileSet, opts.pathMode)
	default:
		diagfmt.Pretty(w, res.Bag, res.FileSet, diagfmt.PrettyOpts{
			Color:     opts.color,
			Context:   1,
			PathMode:  opts.pathMode,
			ShowNotes: opts.withNotes,
		})
	}
	if !opts.quiet {
		fmt.Fprintln(w, diagfmt.Summary(res.Bag, opts.color))
	}
	return nil
}

// printDocuments writes every document under a "// <name>" banner, sorted by name.
func printDocuments(w io.Writer, outputs map[string]string) error {
	for i, name := range sortedNames(outputs) {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "// %s\n%s", name, outputs[name]); err != nil {
			return err
		}
	}
	return nil
}

func sortedNames(outputs map[string]string) []string {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func relToCwd(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(wd, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

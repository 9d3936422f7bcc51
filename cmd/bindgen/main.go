package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	_ "bindgen/internal/backend/csharp"
	"bindgen/internal/prof"
	"bindgen/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "bindgen",
	Short: "FFI declaration to C# binding generator",
	Long:  `bindgen reads Rust-style FFI declarations and generates P/Invoke bindings for a host language`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		session, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		profSession = session
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		return nil
	},
	SilenceUsage: true,
}

// traceCleanup flushes the tracer installed by the pre-run hook; it runs
// after Execute so failed commands still leave a complete trace.
var traceCleanup func()

var profSession *prof.Session

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to collect")
	rootCmd.PersistentFlags().String("trace", "", "write a trace to the given file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to the given file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to the given file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to the given file")
}

// main executes the root command; any command error exits with status 1.
func main() {
	err := rootCmd.Execute()
	if traceCleanup != nil {
		traceCleanup()
	}
	if perr := profSession.Stop(); perr != nil {
		fmt.Fprintf(os.Stderr, "profile: %v\n", perr)
	}
	if err != nil {
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bindgen/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Drop the output cache",
	Long: `Clean removes every cached generation result. With --outputs it also removes
the output directory of the project found at path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().Bool("outputs", false, "also remove the generated output directory")
}

func runClean(cmd *cobra.Command, args []string) error {
	removeOutputs, err := cmd.Flags().GetBool("outputs")
	if err != nil {
		return fmt.Errorf("failed to get outputs flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	out := cmd.OutOrStdout()

	cache, err := driver.OpenDiskCache("bindgen")
	if err != nil {
		return fmt.Errorf("failed to open output cache: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to drop output cache: %w", err)
	}
	if !quiet {
		fmt.Fprintf(out, "dropped %s\n", cache.Dir())
	}

	if !removeOutputs {
		return nil
	}
	path := "."
	if len(args) > 0 && args[0] != "" {
		path = args[0]
	}
	plan, err := resolveInputs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(plan.OutDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if !quiet {
				fmt.Fprintln(out, "output directory not found")
			}
			return nil
		}
		return fmt.Errorf("failed to stat %q: %w", plan.OutDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", plan.OutDir)
	}
	if err := os.RemoveAll(plan.OutDir); err != nil {
		return fmt.Errorf("failed to remove %q: %w", plan.OutDir, err)
	}
	if !quiet {
		fmt.Fprintf(out, "removed %s\n", relToCwd(plan.OutDir))
	}
	return nil
}

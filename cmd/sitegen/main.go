// Package main provides the sitegen binary entry point. Sitegen renders a
// directory of markdown documents with front matter into a static site:
// ordered index, per-document pages, sitemap, and feed.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "sitegen"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	contentDir string
	outputDir  string
	logLevel   string
	logFormat  string
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:     appName,
		Short:   "Static content collection renderer",
		Version: Version,
		Long: `Sitegen turns a directory of markdown documents with YAML front matter
into a published static site.

Documents are ordered by their front matter, unpublished drafts are held
back, and every run regenerates byte-identical output for unchanged input.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to YAML configuration")
	cmd.PersistentFlags().StringVar(&flags.contentDir, "content", "", "content directory (overrides configuration)")
	cmd.PersistentFlags().StringVar(&flags.outputDir, "output", "", "output directory (overrides configuration)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format: json, console, pretty")

	cmd.AddCommand(
		buildCmd(flags),
		diffCmd(flags),
		cleanCmd(flags),
		watchCmd(flags),
	)
	return cmd
}

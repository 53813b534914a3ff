package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	publishcmd "github.com/goliatone/go-sitegen/internal/commands/publish"
	"github.com/goliatone/go-sitegen/internal/logging"
	"github.com/goliatone/go-sitegen/internal/publisher"
	"github.com/goliatone/go-sitegen/internal/watch"
	"github.com/spf13/cobra"
)

func buildCmd(flags *rootFlags) *cobra.Command {
	var (
		identifiers []string
		force       bool
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the content collection into the output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags)
			if err != nil {
				return err
			}

			var result *publisher.BuildResult
			msg := publishcmd.BuildSiteCommand{
				Identifiers: identifiers,
				Force:       force,
				DryRun:      dryRun,
				ResultCallback: func(envelope publishcmd.ResultEnvelope) {
					result = envelope.Result
				},
			}
			if err := app.handlers.build.Execute(cmd.Context(), msg); err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&identifiers, "only", nil, "restrict the build to these document identifiers")
	cmd.Flags().BoolVar(&force, "force", false, "re-render documents even when unchanged")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render without writing artifacts")
	return cmd
}

func diffCmd(flags *rootFlags) *cobra.Command {
	var (
		identifiers []string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Dry-run build reporting what would change",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags)
			if err != nil {
				return err
			}

			var result *publisher.BuildResult
			msg := publishcmd.DiffSiteCommand{
				Identifiers: identifiers,
				Force:       force,
				ResultCallback: func(envelope publishcmd.ResultEnvelope) {
					result = envelope.Result
				},
			}
			if err := app.handlers.diff.Execute(cmd.Context(), msg); err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&identifiers, "only", nil, "restrict the diff to these document identifiers")
	cmd.Flags().BoolVar(&force, "force", false, "treat every document as changed")
	return cmd
}

func cleanCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove all generated artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags)
			if err != nil {
				return err
			}
			return app.handlers.clean.Execute(cmd.Context(), publishcmd.CleanSiteCommand{})
		},
	}
}

func watchCmd(flags *rootFlags) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild whenever content changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			runBuild := func() {
				var result *publisher.BuildResult
				msg := publishcmd.BuildSiteCommand{
					ResultCallback: func(envelope publishcmd.ResultEnvelope) {
						result = envelope.Result
					},
				}
				if err := app.handlers.build.Execute(ctx, msg); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "build failed: %v\n", err)
					return
				}
				printResult(cmd, result)
			}

			watchCfg := watch.DefaultConfig()
			if debounce > 0 {
				watchCfg.DebounceDelay = debounce
			}
			watcher, err := watch.New(watchCfg, app.cfg.Content.Dir, logging.WatchLogger(app.logs))
			if err != nil {
				return err
			}
			defer watcher.Stop()

			if err := watcher.Start(ctx); err != nil {
				return err
			}

			// Initial build before entering the change loop.
			runBuild()

			for {
				select {
				case <-ctx.Done():
					return nil
				case change, ok := <-watcher.Changes():
					if !ok {
						return nil
					}
					fmt.Fprintf(cmd.OutOrStdout(), "detected %d change(s), rebuilding\n", len(change.Paths))
					runBuild()
				}
			}
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 0, "delay before rebuilding after a change (default 500ms)")
	return cmd
}

func printResult(cmd *cobra.Command, result *publisher.BuildResult) {
	if result == nil {
		return
	}
	out := cmd.OutOrStdout()
	label := "built"
	if result.DryRun {
		label = "would build"
	}
	fmt.Fprintf(out, "%s %d document(s), skipped %d, drafts %d in %s\n",
		label,
		result.DocumentsBuilt,
		result.DocumentsSkipped,
		result.DraftsBuilt,
		result.Duration.Round(time.Millisecond),
	)
}

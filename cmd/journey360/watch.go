package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-journey360/internal/watch"
	"github.com/goliatone/go-journey360/pkg/input"
	"github.com/goliatone/go-journey360/pkg/orchestrator"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		project  string
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <requirements-file>",
		Short: "Regenerate a project whenever its requirements file changes",
		Long: `Watch generates a project from the file, then regenerates the same project
each time the file is saved with new content. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orch, err := a.orchestrator(ctx, false)
			if err != nil {
				return err
			}
			w, err := watch.New(args[0], func(ctx context.Context, req input.Requirement) error {
				result, err := orch.Generate(ctx, orchestrator.Request{
					Requirements: req.Text,
					Mode:         req.Mode,
					ProjectID:    project,
				})
				if err != nil {
					return err
				}
				project = result.ProjectID
				printSummary(a.out, result)
				return nil
			},
				watch.WithDebounce(debounce),
				watch.WithInitialRun(true),
				watch.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "project to regenerate; a new one is created when empty")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period after the last change")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-journey360/pkg/apiclient"
	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/render"
	"github.com/goliatone/go-journey360/pkg/renderers/tui"
	"github.com/goliatone/go-journey360/pkg/testgen"
)

func newFillCmd(a *app) *cobra.Command {
	var (
		output string
		submit bool
		step   int
	)
	cmd := &cobra.Command{
		Use:   "fill <project-id>",
		Short: "Fill in a project's form in the terminal",
		Long: `Fill walks the project's form field by field. Options backed by an API
are fetched from the project's mock API, which also receives the answers
when --submit is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			format, ok := tui.ParseOutputFormat(output)
			if !ok {
				return fmt.Errorf("unknown output format %q", output)
			}
			orch, err := a.orchestrator(ctx, false)
			if err != nil {
				return err
			}
			result, err := orch.Project(ctx, args[0])
			if err != nil {
				return err
			}

			mock, err := mockapi.NewServer(result.Schema, result.Endpoints,
				mockapi.WithGenerator(a.mockGenerator(a.cfg.Mock.ErrorRate)),
				mockapi.WithDelayScale(a.cfg.Mock.DelayScale),
				mockapi.WithServerLogger(a.logger),
			)
			if err != nil {
				return err
			}
			client := apiclient.New(apiclient.WithHandler(mock), apiclient.WithLogger(a.logger))

			var answers map[string]any
			renderer, err := tui.New(
				tui.WithPromptDriver(a.prompter()),
				tui.WithAPIClient(client),
				tui.WithSampleOptions(true),
				tui.WithOutputFormat(format),
				tui.WithSubmitTransformer(func(values map[string]any) (map[string]any, error) {
					answers = values
					return values, nil
				}),
				tui.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}
			out, err := renderer.Render(ctx, result.Schema, render.RenderOptions{Step: step})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, string(out))

			if !submit {
				return nil
			}
			target := result.Schema.SubmitURL
			if target == "" {
				target = testgen.SubmitPath(result.Schema)
			}
			response, err := client.Submit(ctx, target, answers, apiclient.SubmitOptions{})
			if err != nil {
				return fmt.Errorf("submit: %w", err)
			}
			fmt.Fprintln(a.errOut, styles.Success.Render("submitted"))
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(response)
		},
	}
	cmd.Flags().StringVar(&output, "output", "json", "answer format: json, form or pretty")
	cmd.Flags().BoolVar(&submit, "submit", false, "post the answers to the project's mock submit endpoint")
	cmd.Flags().IntVar(&step, "step", 0, "wizard step to start from")
	return cmd
}

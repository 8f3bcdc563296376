package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/orchestrator"
	"github.com/goliatone/go-journey360/pkg/render"
	"github.com/goliatone/go-journey360/pkg/schema"
	"github.com/goliatone/go-journey360/pkg/testgen"
)

func newProjectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "List, inspect, test and delete stored projects",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orch, err := a.orchestrator(cmd.Context(), false)
			if err != nil {
				return err
			}
			results, err := orch.Projects(cmd.Context())
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(a.out, styles.Muted.Render("no projects"))
				return nil
			}
			id := lipgloss.NewStyle().Width(38)
			title := lipgloss.NewStyle().Width(36)
			fmt.Fprintln(a.out, styles.Muted.Render(id.Render("ID")+title.Render("TITLE")+"UPDATED"))
			for _, result := range results {
				fmt.Fprintln(a.out, id.Render(result.ProjectID)+title.Render(result.Schema.Title)+result.GeneratedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	})

	var asJSON bool
	show := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project summary, or the full project with --json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := a.orchestrator(cmd.Context(), false)
			if err != nil {
				return err
			}
			result, err := orch.Project(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printSummary(a.out, result)
			for _, field := range result.Schema.Fields {
				marker := " "
				if field.Required() {
					marker = "*"
				}
				fmt.Fprintf(a.out, "  %s %-20s %s\n", marker, field.Name, styles.Muted.Render(string(field.Type)))
			}
			return nil
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "print the stored project as JSON")
	cmd.AddCommand(show)

	var schemaFile string
	edit := &cobra.Command{
		Use:   "edit <project-id>",
		Short: "Replace a project's schema with an edited JSON document",
		Long: `Edit validates the schema in --schema, stores it as the next version of the
project and re-derives the project's tests and mock endpoints.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := readSchemaFile(schemaFile)
			if err != nil {
				return err
			}
			orch, err := a.orchestrator(cmd.Context(), false)
			if err != nil {
				return err
			}
			result, err := orch.UpdateSchema(cmd.Context(), args[0], form)
			if err != nil {
				return err
			}
			printSummary(a.out, result)
			return nil
		},
	}
	edit.Flags().StringVar(&schemaFile, "schema", "", "schema JSON file")
	_ = edit.MarkFlagRequired("schema")
	cmd.AddCommand(edit)

	cmd.AddCommand(&cobra.Command{
		Use:   "test <project-id>",
		Short: "Run a project's test cases against its mock API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := a.orchestrator(cmd.Context(), false)
			if err != nil {
				return err
			}
			result, err := orch.Project(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report, err := runProjectTests(cmd.Context(), a, orch, result)
			if err != nil {
				return err
			}
			printReport(a.out, report)
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d cases failed", report.Failed, len(report.Results))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "delete <project-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := a.orchestrator(cmd.Context(), false)
			if err != nil {
				return err
			}
			if err := orch.DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "deleted "+args[0])
			return nil
		},
	})
	return cmd
}

// runProjectTests runs cases against a mock API with no injected failures
// and no latency.
func runProjectTests(ctx context.Context, a *app, orch *orchestrator.Orchestrator, result orchestrator.Result) (testgen.Report, error) {
	target, err := mockapi.NewServer(result.Schema, result.Endpoints,
		mockapi.WithGenerator(a.mockGenerator(0)),
		mockapi.WithDelayScale(0),
		mockapi.WithServerLogger(a.logger),
	)
	if err != nil {
		return testgen.Report{}, err
	}
	runner, err := testgen.NewRunner(target,
		testgen.WithRenderer(testgen.FormRendererFunc(func(ctx context.Context, form schema.FormSchema) ([]byte, error) {
			page, _, err := orch.Render(ctx, "", form, render.RenderOptions{})
			return page, err
		})),
		testgen.WithRunnerLogger(a.logger),
	)
	if err != nil {
		return testgen.Report{}, err
	}
	return runner.Run(ctx, result.Schema, result.Tests)
}

func readSchemaFile(path string) (schema.FormSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.FormSchema{}, fmt.Errorf("read schema: %w", err)
	}
	return schema.Unmarshal(data)
}

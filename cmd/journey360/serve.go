package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-journey360/internal/server"
	"github.com/goliatone/go-journey360/pkg/mockapi"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the project API, form previews and per-project mock APIs",
		Long: `Serve exposes projects over HTTP. Each project's mock API is mounted under
/mock/{id}/api/..., previews under /api/projects/{id}/preview, and exports
next to them. The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			orch, err := a.orchestrator(ctx, true)
			if err != nil {
				return err
			}
			selector, err := a.selector()
			if err != nil {
				return err
			}
			srv, err := server.New(orch,
				server.WithSelector(selector),
				server.WithMockOptions(
					mockapi.WithGenerator(a.mockGenerator(a.cfg.Mock.ErrorRate)),
					mockapi.WithDelayScale(a.cfg.Mock.DelayScale),
				),
				server.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}
			return srv.Run(ctx, a.cfg.Server.Addr, a.cfg.Server.ShutdownGrace)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from server.addr)")
	bindConfig(cmd, "addr", "server.addr")
	cmd.Flags().Float64("delay-scale", 1, "multiplier applied to mock response delays; 0 disables them")
	bindConfig(cmd, "delay-scale", "mock.delay_scale")
	cmd.Flags().Float64("error-rate", 0.05, "probability of a synthetic 500 from mock endpoints")
	bindConfig(cmd, "error-rate", "mock.error_rate")
	return cmd
}

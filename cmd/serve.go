package cmd

import (
	"context"
	"fmt"

	"mcpbridge/internal/app"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect the configured tool-providers and serve the HTTP API",
		Long: `Connects every configured streamable-http and stdio tool-provider once,
then serves the HTTP API until interrupted.

Endpoints:
  GET  /healthz                liveness
  GET  /                       agent identity
  GET  /tools                  provider snapshot
  GET  /tools/ping             ping connected providers
  POST /tools/rebootstrap      reconnect all providers
  POST /run                    run the agent on {"prompt": "..."}
  POST /linear/commentCreate   create and verify a Linear comment
  GET  /linear/comments        recent comments of an issue
  GET  /metrics                Prometheus metrics

When --config is set, changes to the transport lists in that file trigger a
rebootstrap without restarting the process.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(debug, false, configPath)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

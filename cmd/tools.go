package cmd

import (
	"context"
	"fmt"
	"os"

	"mcpbridge/internal/app"
	"mcpbridge/internal/formatting"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newToolsCmd() *cobra.Command {
	var (
		output string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Connect the configured tool-providers once and list their tools",
		Long: `Bootstraps every configured tool-provider exactly as serve does, prints the
resulting snapshot and tool list, then disconnects.

Useful to check a configuration before deploying it. With --strict, any
rejected transport entry fails the command before anything is connected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatting.ParseFormat(output)
			if err != nil {
				return err
			}
			return runTools(cmd, format, strict)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any transport entry is rejected")
	return cmd
}

func runTools(cmd *cobra.Command, format formatting.OutputFormat, strict bool) error {
	application, err := app.NewApplication(app.NewConfig(debug, !debug, configPath))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	if strict {
		if err := application.Services().CheckTransports(); err != nil {
			return fmt.Errorf("invalid transport configuration: %w", err)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	registry := application.Registry(ctx)

	formatter := formatting.New(formatting.Options{
		Format: format,
		Color:  isTerminal(cmd),
	})
	return formatter.FormatReport(cmd.OutOrStdout(), formatting.NewReport(registry))
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Exit codes returned by Execute.
const (
	// ExitCodeSuccess indicates successful execution
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error
	ExitCodeError = 1
)

var (
	debug      bool
	configPath string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mcpbridge",
	Short: "Aggregate MCP tool-providers behind a single agent endpoint",
	Long: `mcpbridge connects to hosted, streamable-http and stdio MCP tool-providers,
exposes their tools to a reasoning agent over HTTP and performs verified
comment creation on Linear.

Transports are configured through environment variables or a YAML file:
  MCP_HOSTED_LABELS_URLS   label=url pairs executed by the reasoning backend
  MCP_STREAMABLE_URLS      streamable-http endpoints the bridge connects to
  MCP_STDIO_COMMANDS       command lines the bridge spawns as child processes

A provider that cannot be reached is reported as failed; it never stops the
bridge from starting.`,
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the version of the root command.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with ExitCodeError on failure.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcpbridge version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newToolsCmd())
}

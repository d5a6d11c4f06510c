package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/color-transfer/internal/server"
	"github.com/ironsheep/color-transfer/internal/transfer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdin/stdout",
	Long: `Run the MCP server over stdin/stdout.

This server communicates via MCP protocol over stdin/stdout.
Configure it in your MCP client.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	eng, err := newEngine(ctx, cmd)
	if err != nil {
		return err
	}

	server.Version = Version
	transfer.Logger().Debug("color-transfer MCP server starting",
		"version", Version, "build_time", BuildTime, "commit", GitCommit,
		"preview_backend", eng.PreviewBackend())

	return server.New(eng).Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

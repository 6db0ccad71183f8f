package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/labelvision/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdin/stdout",
	Long: `Serve speaks the Model Context Protocol over stdin/stdout and exposes the
label_scan, label_validate_image, label_extract_text and label_extract_fields
tools. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stdout carries the protocol.
	a, err := newApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a.pipeline, a.engine, a.extractor,
		server.WithLogger(a.logger),
		server.WithVersion(buildVersion),
	)
	a.logger.Info().Str("version", buildVersion).Str("commit", gitCommit).Msg("mcp server starting")

	err = srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

package serve

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Shubham-murar/supervisor-multi-agent/cli/cmd"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/infra/server"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start", "server"},
		Short:   "Start the HTTP API",
		Long:    "Serve the ask, document upload and plan download endpoints until interrupted.",
		Args:    cobra.NoArgs,
		RunE:    executeServeCommand,
	}
}

func executeServeCommand(cobraCmd *cobra.Command, args []string) error {
	return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{RequireApp: true}, cmd.ModeHandlers{
		JSON: handleServe,
		Text: handleServe,
	}, args)
}

func handleServe(ctx context.Context, _ *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
	gin.SetMode(gin.ReleaseMode)
	srv, err := server.NewServer(ctx, e.App())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	logger.FromContext(ctx).Info("Starting supervisor server",
		"address", srv.Addr(),
		"provider", e.Config().LLM.Provider,
	)
	return srv.Run(ctx)
}

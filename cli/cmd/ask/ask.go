package ask

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Shubham-murar/supervisor-multi-agent/cli/cmd"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/attachment"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/router"
)

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "ask <query>",
		Short: "Route one question to the matching agent",
		Long: `Classify the question and answer it with the regulatory, news, travel,
document or fallback agent. --doc attaches a local file as the active document.`,
		Args: cobra.MinimumNArgs(1),
		RunE: executeAskCommand,
	}
	c.Flags().String("doc", "", "Path to a PDF, DOCX, TXT or MD file used as the active document")
	c.Flags().Bool("force-doc", false, "Answer from the active document without classifying")
	c.Flags().Bool("show-context", false, "Print the retrieved context under the answer")
	return c
}

func executeAskCommand(cobraCmd *cobra.Command, args []string) error {
	return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{RequireApp: true}, cmd.ModeHandlers{
		JSON: handleAskJSON,
		Text: handleAskText,
	}, args)
}

func handleAskJSON(ctx context.Context, cobraCmd *cobra.Command, e *cmd.CommandExecutor, args []string) error {
	env, err := ask(ctx, cobraCmd, e, args)
	if err != nil {
		return err
	}
	return cmd.PrintJSON(cobraCmd.OutOrStdout(), env)
}

func handleAskText(ctx context.Context, cobraCmd *cobra.Command, e *cmd.CommandExecutor, args []string) error {
	env, err := ask(ctx, cobraCmd, e, args)
	if err != nil {
		return err
	}
	showContext, err := cobraCmd.Flags().GetBool("show-context")
	if err != nil {
		return err
	}
	return cmd.RenderEnvelope(cobraCmd.OutOrStdout(), env, showContext)
}

func ask(ctx context.Context, cobraCmd *cobra.Command, e *cmd.CommandExecutor, args []string) (core.AnswerEnvelope, error) {
	q, err := buildQuery(cobraCmd, args)
	if err != nil {
		return core.AnswerEnvelope{}, err
	}
	return e.App().Ask(ctx, q), nil
}

func buildQuery(cobraCmd *cobra.Command, args []string) (router.Query, error) {
	force, err := cobraCmd.Flags().GetBool("force-doc")
	if err != nil {
		return router.Query{}, err
	}
	path, err := cobraCmd.Flags().GetString("doc")
	if err != nil {
		return router.Query{}, err
	}
	q := router.Query{Text: strings.Join(args, " "), ForceDocumentQA: force}
	if path == "" {
		return q, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return router.Query{}, fmt.Errorf("failed to read document: %w", err)
	}
	q.Document = &attachment.Document{Name: filepath.Base(path), Data: data}
	return q, nil
}

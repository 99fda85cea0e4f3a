package travel

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Shubham-murar/supervisor-multi-agent/cli/cmd"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/responder"
	etravel "github.com/Shubham-murar/supervisor-multi-agent/engine/travel"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

// Output is the machine-readable result of a travel run.
type Output struct {
	RunID        string         `json:"run_id"`
	Plan         string         `json:"plan"`
	Successful   bool           `json:"successful"`
	ArtifactPath string         `json:"artifact_path,omitempty"`
	State        *etravel.State `json:"state,omitempty"`
}

// NewTravelCommand creates the travel command.
func NewTravelCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "travel [query]",
		Short: "Plan a trip without classification",
		Long: `Run the travel workflow directly: parse, dates, budget, destination and
compile. --resume continues a checkpointed run instead of starting a new one.`,
		RunE: executeTravelCommand,
	}
	c.Flags().String("resume", "", "Run ID of a checkpointed run to continue")
	c.Flags().Bool("no-save", false, "Do not export the plan as PDF")
	return c
}

func executeTravelCommand(cobraCmd *cobra.Command, args []string) error {
	return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{RequireApp: true}, cmd.ModeHandlers{
		JSON: handleTravelJSON,
		Text: handleTravelText,
	}, args)
}

func handleTravelJSON(ctx context.Context, cobraCmd *cobra.Command, e *cmd.CommandExecutor, args []string) error {
	out, err := plan(ctx, cobraCmd, e, args)
	if err != nil {
		return err
	}
	return cmd.PrintJSON(cobraCmd.OutOrStdout(), out)
}

func handleTravelText(ctx context.Context, cobraCmd *cobra.Command, e *cmd.CommandExecutor, args []string) error {
	out, err := plan(ctx, cobraCmd, e, args)
	if err != nil {
		return err
	}
	env := core.NewEnvelope(out.Plan, responder.TravelSource)
	if out.ArtifactPath != "" {
		env = env.WithArtifact(out.ArtifactPath)
	}
	if err := cmd.RenderEnvelope(cobraCmd.OutOrStdout(), env, false); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cobraCmd.ErrOrStderr(), "run id: %s\n", out.RunID)
	return err
}

func plan(ctx context.Context, cobraCmd *cobra.Command, e *cmd.CommandExecutor, args []string) (*Output, error) {
	resume, err := cobraCmd.Flags().GetString("resume")
	if err != nil {
		return nil, err
	}
	noSave, err := cobraCmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	app := e.App()
	var res etravel.Result
	switch {
	case resume != "":
		res, err = app.Workflow.Resume(ctx, resume)
		if err != nil {
			return nil, fmt.Errorf("failed to resume run: %w", err)
		}
	case len(args) > 0:
		res = app.Workflow.Run(ctx, strings.Join(args, " "))
	default:
		return nil, fmt.Errorf("a query or --resume is required")
	}
	out := &Output{
		RunID:      res.RunID,
		Plan:       res.Plan,
		Successful: etravel.IsSuccessfulPlan(res.Plan),
		State:      res.State,
	}
	if out.Successful && !noSave && app.Exporter != nil {
		path, err := app.Exporter.Save(ctx, res.Plan)
		if err != nil {
			logger.FromContext(ctx).Warn("Plan export failed", "error", err)
		} else {
			out.ArtifactPath = path
		}
	}
	return out, nil
}

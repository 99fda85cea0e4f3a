package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/supervisor"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/config"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

// Mode selects how a command renders its result.
type Mode string

const (
	ModeJSON Mode = "json"
	ModeText Mode = "text"
)

// CommandExecutor handles common setup and execution patterns for CLI commands.
// It eliminates boilerplate code by providing a single place for:
// - App construction
// - Mode detection
// - Cleanup
type CommandExecutor struct {
	mode    Mode
	cfg     *config.Config
	app     *supervisor.App
	cleanup func()
}

// HandlerFunc defines the signature for command handlers.
type HandlerFunc func(ctx context.Context, cmd *cobra.Command, executor *CommandExecutor, args []string) error

// ModeHandlers contains handlers for different execution modes.
type ModeHandlers struct {
	JSON HandlerFunc
	Text HandlerFunc
}

// ExecutorOptions allows customization of the command executor
type ExecutorOptions struct {
	RequireApp bool
	// AppOptions are passed to supervisor.Build.
	AppOptions []supervisor.Option
}

// NewCommandExecutor creates a new command executor with all necessary setup.
func NewCommandExecutor(cmd *cobra.Command, opts ExecutorOptions) (*CommandExecutor, error) {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return nil, fmt.Errorf("configuration not found in context")
	}
	mode := DetectMode(cmd)
	log.Debug("Detected execution mode", "mode", mode)
	executor := &CommandExecutor{mode: mode, cfg: cfg, cleanup: func() {}}
	if opts.RequireApp {
		app, cleanup, err := supervisor.Build(ctx, cfg, opts.AppOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to build supervisor: %w", err)
		}
		executor.app = app
		executor.cleanup = cleanup
	}
	return executor, nil
}

// Execute runs the appropriate handler based on the detected mode.
func (e *CommandExecutor) Execute(ctx context.Context, cmd *cobra.Command, handlers ModeHandlers, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer e.cleanup()
	switch e.mode {
	case ModeJSON:
		if handlers.JSON == nil {
			return fmt.Errorf("JSON mode handler not implemented")
		}
		return handlers.JSON(ctx, cmd, e, args)
	case ModeText:
		if handlers.Text == nil {
			return fmt.Errorf("text mode handler not implemented")
		}
		return handlers.Text(ctx, cmd, e, args)
	default:
		return fmt.Errorf("unsupported mode: %s", e.mode)
	}
}

func (e *CommandExecutor) App() *supervisor.App {
	return e.app
}

func (e *CommandExecutor) Config() *config.Config {
	return e.cfg
}

func (e *CommandExecutor) Mode() Mode {
	return e.mode
}

// ExecuteCommand is a convenience function that combines executor creation and execution.
func ExecuteCommand(cmd *cobra.Command, opts ExecutorOptions, handlers ModeHandlers, args []string) error {
	executor, err := NewCommandExecutor(cmd, opts)
	if err != nil {
		return err
	}
	return executor.Execute(cmd.Context(), cmd, handlers, args)
}

// DetectMode picks JSON when asked for or when stdout is not a terminal.
func DetectMode(cmd *cobra.Command) Mode {
	if v, err := cmd.Flags().GetBool("json"); err == nil && v {
		return ModeJSON
	}
	if os.Getenv("CI") != "" {
		return ModeJSON
	}
	if f, ok := cmd.OutOrStdout().(*os.File); ok && !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return ModeJSON
	}
	return ModeText
}

// PrintJSON writes v as indented JSON, colorized on a terminal.
func PrintJSON(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	out := pretty.PrettyOptions(buf.Bytes(), &pretty.Options{Indent: "  ", Width: 80})
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		out = pretty.Color(out, nil)
	}
	_, err := w.Write(out)
	return err
}

var (
	sourceStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	contextStyle = lipgloss.NewStyle().Faint(true)
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
)

// RenderEnvelope prints an answer for humans.
func RenderEnvelope(w io.Writer, env core.AnswerEnvelope, showContext bool) error {
	if _, err := fmt.Fprintln(w, sourceStyle.Render("["+env.Source+"]")); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, env.Answer); err != nil {
		return err
	}
	if showContext && env.Context != nil && *env.Context != "" {
		if _, err := fmt.Fprintln(w, "\n"+contextStyle.Render(*env.Context)); err != nil {
			return err
		}
	}
	if env.ArtifactPath != nil {
		if _, err := fmt.Fprintln(w, "\n"+pathStyle.Render("Saved: "+*env.ArtifactPath)); err != nil {
			return err
		}
	}
	return nil
}

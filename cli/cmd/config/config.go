package config

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Shubham-murar/supervisor-multi-agent/cli/cmd"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/config"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

// NewConfigCommand creates the config command using the unified command pattern
func NewConfigCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Configuration inspection and validation",
	}
	c.AddCommand(
		NewConfigShowCommand(),
		NewConfigValidateCommand(),
	)
	return c
}

// NewConfigShowCommand creates the config show subcommand
func NewConfigShowCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Display the merged configuration (defaults, YAML, environment, flags).
Secrets are always redacted.`,
		RunE: executeConfigShowCommand,
	}
	c.Flags().StringP("format", "f", "table", "Output format (json, yaml, table)")
	return c
}

func executeConfigShowCommand(cobraCmd *cobra.Command, args []string) error {
	return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, cmd.ModeHandlers{
		JSON: handleConfigShow,
		Text: handleConfigShow,
	}, args)
}

func handleConfigShow(ctx context.Context, cobraCmd *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
	logger.FromContext(ctx).Debug("Executing config show command")
	format, err := cobraCmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	return formatConfigOutput(cobraCmd.OutOrStdout(), e.Config(), format)
}

// NewConfigValidateCommand creates the config validate subcommand
func NewConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		RunE:  executeConfigValidateCommand,
	}
}

func executeConfigValidateCommand(cobraCmd *cobra.Command, args []string) error {
	return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, cmd.ModeHandlers{
		JSON: handleConfigValidateJSON,
		Text: handleConfigValidateText,
	}, args)
}

func handleConfigValidateJSON(_ context.Context, cobraCmd *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
	out := map[string]any{"valid": true, "message": "Configuration is valid"}
	if err := config.NewService().Validate(e.Config()); err != nil {
		out = map[string]any{"valid": false, "message": err.Error()}
	}
	return cmd.PrintJSON(cobraCmd.OutOrStdout(), out)
}

func handleConfigValidateText(_ context.Context, cobraCmd *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
	if err := config.NewService().Validate(e.Config()); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	_, err := fmt.Fprintln(cobraCmd.OutOrStdout(), "Configuration is valid")
	return err
}

// formatConfigOutput formats and outputs configuration based on requested format
func formatConfigOutput(w io.Writer, cfg *config.Config, format string) error {
	keys := config.Keys(cfg)
	switch format {
	case "json":
		return cmd.PrintJSON(w, config.Tree(keys))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(config.Tree(keys)); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		return outputTable(w, keys)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func outputTable(w io.Writer, keys []config.Key) error {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Path < keys[j].Path })
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tENV")
	for _, k := range keys {
		env := k.EnvVar
		if env == "" {
			env = "-"
		}
		fmt.Fprintf(tw, "%s\t%v\t%s\n", k.Path, k.Value, env)
	}
	return tw.Flush()
}

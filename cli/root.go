package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Shubham-murar/supervisor-multi-agent/cli/cmd/ask"
	configcmd "github.com/Shubham-murar/supervisor-multi-agent/cli/cmd/config"
	"github.com/Shubham-murar/supervisor-multi-agent/cli/cmd/ingest"
	"github.com/Shubham-murar/supervisor-multi-agent/cli/cmd/serve"
	"github.com/Shubham-murar/supervisor-multi-agent/cli/cmd/travel"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/config"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/version"
)

const (
	defaultConfigFile = "supervisor.yaml"
	defaultEnvFile    = ".env"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "supervisor",
		Short:         "Route questions to regulatory, news, travel and document agents",
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd)
		},
	}
	addGlobalFlags(root.PersistentFlags())
	root.AddCommand(
		ask.NewAskCommand(),
		serve.NewServeCommand(),
		ingest.NewIngestCommand(),
		travel.NewTravelCommand(),
		configcmd.NewConfigCommand(),
	)
	return root
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.String("config", defaultConfigFile, "Path to the YAML config file")
	fs.String("env-file", defaultEnvFile, "Path to the .env file (empty to skip)")
	fs.Bool("json", false, "Print machine-readable JSON")
	fs.String("log-level", "info", "Log level (debug, info, warn, error, disabled)")
	fs.Bool("log-json", false, "Log as JSON")
	fs.Bool("log-source", false, "Include source location in logs")

	fs.String("provider", "", "LLM provider (google, openai, anthropic, ollama, mock)")
	fs.String("model", "", "LLM model name")
	fs.Float64("temperature", 0, "Default sampling temperature")
	fs.String("data-dir", "", "Vector store directory")
	fs.Int("top-k", 0, "Documents retrieved per regulatory query")
	fs.String("host", "", "HTTP listen host")
	fs.Int("port", 0, "HTTP listen port")
	fs.String("home-base", "", "Travel origin")
	fs.String("plans-dir", "", "Directory for exported plans")
	fs.Bool("no-pdf", false, "Disable PDF export of travel plans")
	fs.String("checkpoint", "", "Travel checkpoint driver (none, memory, redis)")
	fs.String("redis-url", "", "Redis URL for checkpoints and rate limiting")
	fs.Bool("metrics", false, "Expose Prometheus metrics")
	fs.Int("search-results", 0, "Max web search results")
}

// SetupGlobalConfig configures logging, loads configuration and attaches both
// to the command context.
func SetupGlobalConfig(cmd *cobra.Command) error {
	level, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return err
	}
	logger.SetupLogger(level, logJSON, logSource)
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
	}
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	flags, err := explicitConfigFlags(cmd.Flags())
	if err != nil {
		return err
	}
	sources := []config.Source{}
	if configFile != "" {
		sources = append(sources, config.NewYAMLProvider(configFile))
	}
	if len(flags) > 0 {
		sources = append(sources, config.NewCLIProvider(flags))
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.NewService().Load(ctx, sources...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.GetDefault()
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithConfig(ctx, cfg)
	cmd.SetContext(ctx)
	log.Debug("Configuration loaded", "config_file", configFile, "provider", cfg.LLM.Provider)
	return nil
}

// explicitConfigFlags returns the typed values of config flags the user set.
func explicitConfigFlags(fs *pflag.FlagSet) (map[string]any, error) {
	names := config.CLIFlagNames()
	out := make(map[string]any)
	var firstErr error
	fs.Visit(func(f *pflag.Flag) {
		if firstErr != nil || !slices.Contains(names, f.Name) {
			return
		}
		var (
			v   any
			err error
		)
		switch f.Value.Type() {
		case "bool":
			v, err = fs.GetBool(f.Name)
		case "int":
			v, err = fs.GetInt(f.Name)
		case "float64":
			v, err = fs.GetFloat64(f.Name)
		default:
			v = f.Value.String()
		}
		if err != nil {
			firstErr = fmt.Errorf("invalid --%s: %w", f.Name, err)
			return
		}
		out[f.Name] = v
	})
	return out, firstErr
}

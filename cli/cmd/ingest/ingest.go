package ingest

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Shubham-murar/supervisor-multi-agent/cli/cmd"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/embedder"
	kingest "github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/ingest"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

// NewIngestCommand creates the ingest command.
func NewIngestCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "ingest",
		Short: "Chunk, embed and store the configured news sources",
		Long: `Process raw JSON list files into JSONL and load them into one vector
collection per source. Sources come from knowledge.sources and --source.`,
		Args: cobra.NoArgs,
		RunE: executeIngestCommand,
	}
	c.Flags().StringArray("source", nil, "Extra source as name=path (repeatable, overrides config)")
	c.Flags().String("collection", "", "Only ingest the source with this name")
	c.Flags().Bool("process-only", false, "Write processed JSONL without embedding")
	c.Flags().Bool("load-only", false, "Embed existing processed JSONL without reprocessing")
	return c
}

func executeIngestCommand(cobraCmd *cobra.Command, args []string) error {
	return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{RequireApp: true}, cmd.ModeHandlers{
		JSON: handleIngestJSON,
		Text: handleIngestText,
	}, args)
}

func handleIngestJSON(ctx context.Context, cobraCmd *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
	results, err := run(ctx, cobraCmd, e)
	if err != nil {
		return err
	}
	return cmd.PrintJSON(cobraCmd.OutOrStdout(), results)
}

func handleIngestText(ctx context.Context, cobraCmd *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
	results, err := run(ctx, cobraCmd, e)
	if err != nil {
		return err
	}
	return writeTable(cobraCmd.OutOrStdout(), results)
}

func run(ctx context.Context, cobraCmd *cobra.Command, e *cmd.CommandExecutor) ([]*kingest.Result, error) {
	sources, err := selectSources(cobraCmd, e.Config().Knowledge.Sources)
	if err != nil {
		return nil, err
	}
	processOnly, err := cobraCmd.Flags().GetBool("process-only")
	if err != nil {
		return nil, err
	}
	loadOnly, err := cobraCmd.Flags().GetBool("load-only")
	if err != nil {
		return nil, err
	}
	if processOnly && loadOnly {
		return nil, fmt.Errorf("--process-only and --load-only are mutually exclusive")
	}
	pipeline, err := e.App().Ingestion()
	if err != nil && !processOnly {
		return nil, err
	}
	if err != nil {
		// processing needs no embeddings
		pipeline, err = kingest.NewPipeline(embedder.Unavailable(err), e.App().Store, ingestOptions(e))
		if err != nil {
			return nil, err
		}
	}
	log := logger.FromContext(ctx)
	results := make([]*kingest.Result, 0, len(sources))
	for _, src := range sources {
		res, err := runSource(ctx, pipeline, src, processOnly, loadOnly)
		if err != nil {
			return results, fmt.Errorf("source %s: %w", src.Name, err)
		}
		log.Info("Source ingested", "collection", res.Collection, "chunks", res.Chunks, "persisted", res.Persisted)
		results = append(results, res)
	}
	return results, nil
}

func runSource(
	ctx context.Context,
	p *kingest.Pipeline,
	src kingest.Source,
	processOnly, loadOnly bool,
) (*kingest.Result, error) {
	switch {
	case processOnly:
		return p.Process(ctx, src)
	case loadOnly:
		n, err := p.Load(ctx, src.Name)
		if err != nil {
			return nil, err
		}
		return &kingest.Result{Collection: src.Name, Persisted: n}, nil
	default:
		return p.Run(ctx, src)
	}
}

func ingestOptions(e *cmd.CommandExecutor) kingest.Options {
	k := e.Config().Knowledge
	return kingest.Options{
		RawDir:       k.RawDir,
		ProcessedDir: k.ProcessedDir,
		ChunkSize:    k.ChunkSize,
		ChunkOverlap: k.ChunkOverlap,
		BatchSize:    k.BatchSize,
	}
}

// selectSources merges configured and flag sources and applies --collection.
func selectSources(cobraCmd *cobra.Command, configured map[string]string) ([]kingest.Source, error) {
	merged := make(map[string]string, len(configured))
	for name, pattern := range configured {
		merged[name] = pattern
	}
	extra, err := cobraCmd.Flags().GetStringArray("source")
	if err != nil {
		return nil, err
	}
	for _, v := range extra {
		src, err := kingest.ParseSource(v)
		if err != nil {
			return nil, err
		}
		merged[src.Name] = src.Pattern
	}
	collection, err := cobraCmd.Flags().GetString("collection")
	if err != nil {
		return nil, err
	}
	if collection != "" {
		pattern, ok := merged[collection]
		if !ok {
			return nil, fmt.Errorf("unknown collection %q", collection)
		}
		merged = map[string]string{collection: pattern}
	}
	if len(merged) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}
	return kingest.SourcesFromMap(merged), nil
}

func writeTable(w io.Writer, results []*kingest.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLLECTION\tFILES\tDOCUMENTS\tCHUNKS\tPERSISTED")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", r.Collection, r.Files, r.Documents, r.Chunks, r.Persisted)
	}
	return tw.Flush()
}

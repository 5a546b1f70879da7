package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ashita-ai/bunsho"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	ingestJSON bool
	askJSON    bool
)

var rootCmd = &cobra.Command{
	Use:           "bunsho",
	Short:         "Document intelligence: versioned ingestion and agentic Q&A",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest documents into the index",
	Long: `Parses, chunks, embeds, and indexes each file. Re-ingesting an
unchanged file is a no-op; re-ingesting changed content creates a new
version and flags the old chunks as outdated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Ask a question over the indexed documents",
	Long: `Runs the reasoning loop against the index and streams each step
as it happens. The final step carries the answer, a clarifying
question, or a refusal.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output results as JSON")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output steps as JSON lines")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
}

func main() {
	level := slog.LevelInfo
	if os.Getenv("BUNSHO_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newApp() (*bunsho.App, error) {
	return bunsho.New(
		bunsho.WithLogger(slog.Default()),
		bunsho.WithVersion(version),
	)
}

func runIngest(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(context.Background()) }()

	ctx := cmd.Context()
	for _, path := range args {
		result, err := app.Ingest(ctx, path)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		if ingestJSON {
			data, err := json.Marshal(result)
			if err != nil {
				return fmt.Errorf("marshal result: %w", err)
			}
			cmd.Println(string(data))
			continue
		}
		cmd.Printf("%s: %s (v%d, %d chunks)\n",
			path, result.Status, result.Version, result.ChunkCount)
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(context.Background()) }()

	var final bunsho.Step
	for step := range app.Ask(cmd.Context(), args[0]) {
		final = step
		if askJSON {
			data, err := json.Marshal(step)
			if err != nil {
				return fmt.Errorf("marshal step: %w", err)
			}
			cmd.Println(string(data))
			continue
		}
		printStep(cmd, step)
	}

	if !askJSON {
		cmd.Println()
		printFinal(cmd, final)
	}
	return nil
}

func printStep(cmd *cobra.Command, step bunsho.Step) {
	line := fmt.Sprintf("[%s] %s", step.State, step.Thought)
	if step.Action != nil && step.Action.Type == "retrieve" {
		line += fmt.Sprintf(" (query: %q)", step.Action.Query)
	}
	cmd.Println(line)
}

func printFinal(cmd *cobra.Command, step bunsho.Step) {
	if step.Action == nil {
		cmd.Println("No answer produced.")
		return
	}
	switch step.Action.Type {
	case "answer":
		cmd.Println(step.Action.Answer)
		for _, c := range step.Action.Citations {
			cmd.Printf("  [%s]\n", c)
		}
	case "clarify":
		cmd.Printf("Clarification needed: %s\n", step.Action.Question)
	case "refuse":
		cmd.Printf("Refused: %s\n", step.Action.Reason)
	default:
		cmd.Printf("Stopped after %s action.\n", step.Action.Type)
	}
}

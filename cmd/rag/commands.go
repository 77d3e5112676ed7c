package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ragcore/internal/app"
	"ragcore/internal/loader"
	"ragcore/internal/service"
	"ragcore/internal/summarizer"
	"ragcore/internal/tokens"
	"ragcore/internal/tui"
	"ragcore/internal/vectorstore/persistent"
)

var indexCmd = &cobra.Command{
	Use:   "index <path|glob>...",
	Short: "Chunk, embed and store .txt and .md files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clearFirst, _ := cmd.Flags().GetBool("clear")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		summarySentences, _ := cmd.Flags().GetInt("summary")

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if clearFirst {
			if err := a.Indexer.Clear(cmd.Context()); err != nil {
				return err
			}
		}
		files, chunks, err := indexFiles(cmd, a, args, concurrency)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Indexed %d chunks from %d files; store holds %d documents\n", chunks, len(files), a.Store.Size())
		if summarySentences > 0 {
			fmt.Fprintf(out, "\n%s\n", summarize(a, files, summarySentences))
		}
		return nil
	},
}

func indexFiles(cmd *cobra.Command, a *app.App, patterns []string, concurrency int) ([]loader.File, int, error) {
	files, err := loader.Load(cmd.Context(), patterns, concurrency)
	if err != nil {
		return nil, 0, err
	}
	total := 0
	for _, f := range files {
		ids, err := a.IndexText(cmd.Context(), f.Content, map[string]any{"source": f.Path})
		if err != nil {
			return files, total, fmt.Errorf("index %s: %w", f.Path, err)
		}
		a.Logger.Info("indexed file", "path", f.Path, "chunks", len(ids))
		total += len(ids)
	}
	return files, total, nil
}

// summarize builds an extractive summary of the loaded files.
func summarize(a *app.App, files []loader.File, sentences int) string {
	var b strings.Builder
	for _, f := range files {
		b.WriteString(f.Content)
		b.WriteString("\n")
	}
	return summarizer.New(a.Tokens).Summarize(b.String(), sentences, summaryTokens)
}

const summaryTokens = 120

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Retrieve the context for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topK, _ := cmd.Flags().GetInt("top-k")
		minScore, _ := cmd.Flags().GetFloat64("min-score")
		maxContext, _ := cmd.Flags().GetInt("max-context")
		noMetadata, _ := cmd.Flags().GetBool("no-metadata")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		opts := []service.Option{service.WithMetadata(!noMetadata)}
		if topK > 0 {
			opts = append(opts, service.WithTopK(topK))
		}
		if minScore >= 0 {
			opts = append(opts, service.WithMinScore(minScore))
		}
		if maxContext > 0 {
			opts = append(opts, service.WithMaxContextLength(maxContext))
		}

		res, err := a.Retriever.Retrieve(cmd.Context(), strings.Join(args, " "), opts...)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		if len(res.Documents) == 0 {
			fmt.Fprintln(out, "No matching documents.")
			return nil
		}
		for i, d := range res.Documents {
			fmt.Fprintf(out, "%d. score=%.3f id=%s\n", i+1, d.Score, d.Document.ID)
		}
		fmt.Fprintf(out, "\n%s\n\n(~%d tokens)\n", res.Context, res.TokenEstimate)
		return nil
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui [path|glob]...",
	Short: "Browse retrieval results interactively, optionally indexing files first",
	RunE: func(cmd *cobra.Command, args []string) error {
		topK, _ := cmd.Flags().GetInt("top-k")

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		summary := ""
		if len(args) > 0 {
			files, _, err := indexFiles(cmd, a, args, 0)
			if err != nil {
				return err
			}
			summary = summarize(a, files, 2) + "\n"
		}
		summary += fmt.Sprintf("%d documents, embedder %s (%s)", a.Store.Size(), a.Embedder.Name(), a.Embedder.Model())
		m := tui.New(cmd.Context(), a.Retriever, summary, service.WithTopK(topK))
		_, err = tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
		return err
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the store snapshot as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		raw, err := persistent.Encode(a.Store.Export())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), raw)
		return err
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every document from the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		n := a.Store.Size()
		if err := a.Indexer.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d documents\n", n)
		return nil
	},
}

var tokensCmd = &cobra.Command{
	Use:   "tokens [file]",
	Short: "Estimate the token count of a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, _ := cmd.Flags().GetString("model")
		maxTokens, _ := cmd.Flags().GetInt("max-tokens")

		if model == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			model = cfg.Tokens.Model
		}

		var (
			data []byte
			err  error
		)
		if len(args) == 0 || args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}

		est := tokens.ForModel(model)
		text := string(data)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d tokens (multiplier %.2f)\n", est.Count(text), est.Multiplier())
		if maxTokens > 0 {
			for i, part := range est.Split(text, maxTokens) {
				fmt.Fprintf(out, "\n--- part %d (%d tokens) ---\n%s\n", i+1, est.Count(part), part)
			}
		}
		return nil
	},
}

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/deusflow/crednews/internal/config"
	"github.com/deusflow/crednews/internal/storage"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify configuration and database connectivity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			renderConfig(out, cfg)
			return checkDatabase(cmd.Context(), out, cfg)
		},
	}
}

func renderConfig(w io.Writer, cfg *config.Config) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Setting", "Value"})
	t.AppendRows([]table.Row{
		{"Environment", cfg.AppEnv},
		{"Database", cfg.DBDriver + " " + mask(cfg.DBDSN)},
		{"Providers", fmt.Sprint(cfg.Providers)},
		{"Filter", cfg.FilterStrategy},
		{"Summarizer", cfg.Summarizer},
		{"HF_API_KEY", mask(cfg.HFAPIKey)},
		{"GEMINI_API_KEY", mask(cfg.GeminiAPIKey)},
		{"OPENAI_API_KEY", mask(cfg.OpenAIKey)},
		{"NEWSAPI_KEY", mask(cfg.NewsAPIKey)},
		{"Telegram", fmt.Sprint(cfg.TelegramEnabled())},
		{"Schedule", cfg.Schedule},
	})
	t.Render()
}

func checkDatabase(ctx context.Context, w io.Writer, cfg *config.Config) error {
	store, err := storage.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()

	stats, err := store.GetStats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Database OK: %d articles from %d sources (%s .. %s)\n",
		stats.TotalArticles, stats.TotalSources, deref(stats.EarliestArticle), deref(stats.LatestArticle))
	return nil
}

// mask hides the middle of a secret, keeping enough to recognise it.
func mask(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 8:
		return "***"
	case len(s) > 50:
		return s[:30] + "***" + s[len(s)-10:]
	default:
		return s[:4] + "***"
	}
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

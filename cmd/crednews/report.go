package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/deusflow/crednews/internal/ingest"
)

// renderReport prints one row per (provider, query) pair plus totals.
func renderReport(w io.Writer, res ingest.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Provider", "Query", "Lang", "Attempts", "Raw", "Invalid", "Filtered", "Accepted", "Error"})

	var raw, accepted int
	for _, r := range res.Reports {
		t.AppendRow(table.Row{r.Provider, r.Query, r.Language, r.Attempts, r.Raw, r.Invalid, r.Filtered, r.Accepted, r.Err})
		raw += r.Raw
		accepted += r.Accepted
	}
	t.AppendFooter(table.Row{"Total", "", "", "", raw, "", "", accepted, ""})
	t.Render()

	fmt.Fprintf(w, "Unique articles: %d\n", len(res.Articles))
	if res.Analysis != nil {
		fmt.Fprintf(w, "Summary source: %s\n\n%s\n", res.Analysis.Source, res.Analysis.Summary)
	}
}

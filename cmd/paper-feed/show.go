// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-feed/internal/snapshot"
	"github.com/pdiddy/paper-feed/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a snapshot as a table or YAML",
	Long: `Show reads a snapshot written by fetch and prints its papers newest first,
with the snapshot timestamp and counts. Use --yaml for the full records.`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().String("snapshot", "", "snapshot to read (default: the fetch output path)")
	showCmd.Flags().Int("limit", 20, "rows to print in table mode, 0 for all")
	showCmd.Flags().Bool("yaml", false, "print the snapshot as YAML")

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("snapshot")
	if path == "" {
		path = viper.GetString("feed.output_path")
	}
	snap, err := snapshot.Read(path)
	if err != nil {
		return err
	}

	asYAML, _ := cmd.Flags().GetBool("yaml")
	if asYAML {
		return snapshot.ExportYAML(snap, os.Stdout)
	}
	limit, _ := cmd.Flags().GetInt("limit")
	formatTable(snap, limit, os.Stdout)
	return nil
}

// formatTable writes papers as a rounded table followed by a summary line.
func formatTable(snap types.Snapshot, limit int, w io.Writer) {
	if len(snap.Papers) == 0 {
		fmt.Fprintf(w, "No papers in snapshot (last updated %s).\n", snap.LastUpdated)
		return
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Published", "ID", "Title", "Authors", "Categories"})
	for i, p := range snap.Papers {
		if limit > 0 && i >= limit {
			break
		}
		tw.AppendRow(table.Row{
			i + 1,
			publishedDate(p.Published),
			p.ID,
			truncate(p.Title, 60),
			formatAuthors(p.Authors),
			truncate(strings.Join(p.Categories, " "), 24),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
	})
	fmt.Fprintln(w, tw.Render())

	fmt.Fprintf(w, "%d papers, last updated %s", snap.TotalPapers, snap.LastUpdated)
	if limit > 0 && len(snap.Papers) > limit {
		fmt.Fprintf(w, " (showing %d)", limit)
	}
	fmt.Fprintln(w)
}

// publishedDate keeps the date part of an RFC 3339 timestamp.
func publishedDate(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-feed/internal/config"
	"github.com/pdiddy/paper-feed/internal/embed"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Inline a snapshot into the static display page",
	Long: `Embed reads a snapshot and the display page, and writes a copy of the page
that carries the snapshot as a JSON literal instead of fetching it at runtime.

Pages with a <script id="paper-data"> element get the JSON as that element's
content. Pages that only define an async loadPapers() function get that
function replaced by one that reads the inlined data. The page is rewritten in
place unless --out is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadEmbed(viper.GetViper())
		if err != nil {
			return err
		}
		return embed.EmbedFile(cfg, logger)
	},
}

func init() {
	f := embedCmd.Flags()
	f.String("snapshot", "", "snapshot to embed (default data/papers.json)")
	f.String("page", "", "display page to rewrite (default arxiv-feed.html)")
	f.String("out", "", "write the result here instead of over the page")
	f.String("placeholder-id", "", "id of the <script> element receiving the data (default paper-data)")

	viper.BindPFlag("embed.snapshot_path", f.Lookup("snapshot"))
	viper.BindPFlag("embed.page_path", f.Lookup("page"))
	viper.BindPFlag("embed.output_path", f.Lookup("out"))
	viper.BindPFlag("embed.placeholder_id", f.Lookup("placeholder-id"))

	rootCmd.AddCommand(embedCmd)
}

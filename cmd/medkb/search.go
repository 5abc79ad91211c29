// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/medkb/internal/config"
	"github.com/pdiddy/medkb/internal/embed"
	"github.com/pdiddy/medkb/internal/retrieve"
	"github.com/pdiddy/medkb/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find the knowledge base entries closest to a query",
	Long: `Search embeds the query with Titan, runs a vector search against the
"vector_index" index, and prints the closest entries with their scores and
the context assembled from them (at most 4000 characters).

With --sqlite the search runs against a local SQLite file written by
"medkb load --sqlite".`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	query := strings.Join(args, " ")
	if q, _ := cmd.Flags().GetString("query"); q != "" {
		query = q
	}
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query required: pass it as an argument or with --query")
	}

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format %q: want table, json or yaml", format)
	}

	cfg, err := config.Load(loadedSecrets)
	if err != nil {
		logger.Error("configuration", "error", err)
		return err
	}

	st, err := openStore(ctx, cfg, viper.GetString("sqlite"))
	if err != nil {
		logger.Error("opening store", "error", err)
		return err
	}
	defer func() {
		if cerr := st.Close(ctx); cerr != nil {
			logger.Warn("closing store", "error", cerr)
		}
	}()

	limit, _ := cmd.Flags().GetInt("limit")
	result, err := retrieve.Run(ctx, embed.NewBedrock(cfg.AWS), st, types.DefaultVectorIndex(), query, limit)
	if err != nil {
		logger.Error("search", "error", err)
		return err
	}

	return formatSearchOutput(os.Stdout, result, format)
}

func formatSearchOutput(w io.Writer, result *retrieve.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(result)
	}

	if len(result.Matches) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-6s  %-30s  %s\n", "Rank", "Score", "Category", "Text")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, m := range result.Matches {
		label := m.Category
		if m.Subcategory != "" {
			label += " / " + m.Subcategory
		}
		if len(label) > 30 {
			label = label[:27] + "..."
		}
		text := m.Text
		if len(text) > 50 {
			text = text[:47] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-6.3f  %-30s  %s\n", i+1, m.Score, label, text)
	}

	fmt.Fprintf(w, "\n%d results\n\nContext:\n%s\n", len(result.Matches), result.Context)
	return nil
}

func init() {
	searchCmd.Flags().String("query", "", "query text (alternative to positional arguments)")
	searchCmd.Flags().Int("limit", retrieve.DefaultLimit, "number of entries to return")
	searchCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(searchCmd)
}

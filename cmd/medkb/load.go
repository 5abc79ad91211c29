// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/medkb/internal/config"
	"github.com/pdiddy/medkb/internal/embed"
	"github.com/pdiddy/medkb/internal/kb"
	"github.com/pdiddy/medkb/internal/loader"
	"github.com/pdiddy/medkb/internal/store"
	"github.com/pdiddy/medkb/internal/store/mongostore"
	"github.com/pdiddy/medkb/internal/store/sqlitestore"
	"github.com/pdiddy/medkb/pkg/types"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Embed the knowledge base and insert it into MongoDB Atlas",
	Long: `Load reads the knowledge base (med_data.json by default), requests a
Titan embedding for every entry one at a time, inserts all enriched documents
in a single batch, and creates the "vector_index" vector search index if the
collection does not have it yet.

The first error ends the run. Nothing is retried, and documents that were
already inserted stay in the collection.

With --sqlite the documents go to a local SQLite file instead of Atlas.`,
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(loadedSecrets)
	if err != nil {
		logger.Error("configuration", "error", err)
		return err
	}

	path := viper.GetString("file")
	base, err := kb.Load(path)
	if err != nil {
		logger.Error("loading knowledge base", "path", path, "error", err)
		return err
	}
	logger.Info("loaded knowledge base", "path", path,
		"categories", len(base.Protocols), "entries", kb.Count(base))

	st, err := openStore(ctx, cfg, viper.GetString("sqlite"))
	if err != nil {
		logger.Error("opening store", "error", err)
		return err
	}

	l := loader.New(embed.NewBedrock(cfg.AWS), st, logger)
	summary, err := l.Run(ctx, base, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\ncategories: %d, entries: %d, inserted: %d, index created: %t\n",
		summary.Categories, summary.Entries, summary.Inserted, summary.IndexCreated)
	return nil
}

// storeHandle is what load and search need from a store.
type storeHandle interface {
	store.Store
	store.Searcher
}

// openStore opens the SQLite file at sqlitePath, or the configured Atlas
// collection when sqlitePath is empty.
func openStore(ctx context.Context, cfg types.Config, sqlitePath string) (storeHandle, error) {
	if path := sqlitePath; path != "" {
		logger.Info("using local sqlite store", "path", path)
		return sqlitestore.Open(path)
	}
	st, err := mongostore.Open(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to mongodb", "namespace", st.Namespace())
	return st, nil
}

func init() {
	loadCmd.Flags().String("file", kb.DefaultPath, "knowledge base file (.json, .yaml, .yml)")

	_ = viper.BindPFlag("file", loadCmd.Flags().Lookup("file"))

	rootCmd.AddCommand(loadCmd)
}

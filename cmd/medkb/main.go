// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the medkb CLI, which loads the medical
// knowledge base into MongoDB Atlas with Bedrock embeddings and queries it.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/medkb/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// configName is the base name of the optional config file, looked up in the
// working directory and in ~/.config/medkb/.
const configName = "medkb"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// logger is configured from the persistent flags before any command runs.
var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// rootCmd is the base command for the medkb CLI.
var rootCmd = &cobra.Command{
	Use:   "medkb",
	Short: "Load the medical knowledge base into MongoDB Atlas",
	Long: `medkb embeds every entry of the medical knowledge base with Amazon Titan
on AWS Bedrock, inserts the enriched documents into a MongoDB Atlas collection,
and makes sure the collection has a vector search index.

Connection settings come from the environment (MONGODB_ATLAS_URI,
MONGODB_ATLAS_DB_NAME, MONGODB_ATLAS_COLLECTION_NAME, AWS_REGION,
AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY) or from files of the same name,
lower-cased and hyphenated, in .secrets/.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(viper.GetString("log-format"), viper.GetBool("verbose"))
		slog.SetDefault(logger)

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "",
		fmt.Sprintf("config file (default: ./%[1]s.yaml or ~/.config/medkb/%[1]s.yaml)", configName))
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("sqlite", "", "use this SQLite file instead of MongoDB Atlas")

	_ = viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("sqlite", rootCmd.PersistentFlags().Lookup("sqlite"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "medkb"))
		}
	}

	viper.SetEnvPrefix("MEDKB")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func newLogger(format string, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

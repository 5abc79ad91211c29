// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFileFoundUnderDocumentedName(t *testing.T) {
	usage := rootCmd.PersistentFlags().Lookup("config").Usage
	assert.Contains(t, usage, "./"+configName+".yaml")
	assert.Contains(t, usage, "~/.config/medkb/"+configName+".yaml")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configName+".yaml"), []byte("file: other.json\n"), 0o644))

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	require.NoError(t, v.ReadInConfig())
	assert.Equal(t, "other.json", v.GetString("file"))
}

func TestSQLitePathFromEnvironment(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Reset()
	_ = viper.BindPFlag("sqlite", rootCmd.PersistentFlags().Lookup("sqlite"))
	viper.SetEnvPrefix("MEDKB")
	viper.AutomaticEnv()

	path := filepath.Join(t.TempDir(), "kb.db")
	t.Setenv("MEDKB_SQLITE", path)

	assert.Equal(t, path, viper.GetString("sqlite"))
}

func TestSQLiteFlagSharedByLoadAndSearch(t *testing.T) {
	for _, name := range []string{"load", "search"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.NotNil(t, cmd.Flag("sqlite"), name)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Key names are the lower-case, hyphenated form of the environment variable they stand
// in for: mongodb-atlas-uri, aws-secret-access-key, and so on.
package secrets

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Secrets maps key names to values.
type Secrets map[string]string

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, errors.Wrapf(err, "reading secrets directory %s", dir)
	}

	secrets := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", "name", name, "error", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// KeyFor returns the secret key name for an environment variable:
// AWS_SECRET_ACCESS_KEY becomes aws-secret-access-key.
func KeyFor(envName string) string {
	return strings.ToLower(strings.ReplaceAll(envName, "_", "-"))
}

// Env returns the secret standing in for envName, or "" if none was loaded.
func (s Secrets) Env(envName string) string {
	return s[KeyFor(envName)]
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads the settings a load run requires from the environment.
// Every setting is required; there are no defaults.
package config

import (
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/pdiddy/medkb/internal/secrets"
	"github.com/pdiddy/medkb/pkg/types"
)

// Environment variable names, in the order they are reported when missing.
const (
	EnvMongoURI        = "MONGODB_ATLAS_URI"
	EnvMongoDatabase   = "MONGODB_ATLAS_DB_NAME"
	EnvMongoCollection = "MONGODB_ATLAS_COLLECTION_NAME"
	EnvAWSRegion       = "AWS_REGION"
	EnvAWSAccessKeyID  = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretKey    = "AWS_SECRET_ACCESS_KEY"
)

type setting struct {
	key string
	env string
	set func(cfg *types.Config, v string)
}

var settings = []setting{
	{"mongo.uri", EnvMongoURI, func(c *types.Config, v string) { c.Mongo.URI = v }},
	{"mongo.database", EnvMongoDatabase, func(c *types.Config, v string) { c.Mongo.Database = v }},
	{"mongo.collection", EnvMongoCollection, func(c *types.Config, v string) { c.Mongo.Collection = v }},
	{"aws.region", EnvAWSRegion, func(c *types.Config, v string) { c.AWS.Region = v }},
	{"aws.access_key_id", EnvAWSAccessKeyID, func(c *types.Config, v string) { c.AWS.AccessKeyID = v }},
	{"aws.secret_access_key", EnvAWSSecretKey, func(c *types.Config, v string) { c.AWS.SecretAccessKey = v }},
}

// Required returns the environment variable names Load reads, in report order.
func Required() []string {
	return lo.Map(settings, func(s setting, _ int) string { return s.env })
}

// MissingSettingsError names every required setting that had no value.
type MissingSettingsError struct {
	Names []string
}

func (e *MissingSettingsError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Names, ", ")
}

// Is makes a MissingSettingsError match types.ErrConfig.
func (e *MissingSettingsError) Is(target error) bool {
	return target == types.ErrConfig
}

// Load reads every required setting from the environment, falling back to
// fallback for values the environment leaves empty. Blank values count as
// missing. When any setting is missing Load returns a *MissingSettingsError
// naming all of them.
func Load(fallback secrets.Secrets) (types.Config, error) {
	v := viper.New()

	var cfg types.Config
	var missing []string
	for _, s := range settings {
		// BindEnv only fails when called without a key.
		_ = v.BindEnv(s.key, s.env)

		value := strings.TrimSpace(v.GetString(s.key))
		if value == "" {
			value = fallback.Env(s.env)
		}
		if value == "" {
			missing = append(missing, s.env)
			continue
		}
		s.set(&cfg, value)
	}

	if len(missing) > 0 {
		return types.Config{}, &MissingSettingsError{Names: missing}
	}
	return cfg, nil
}

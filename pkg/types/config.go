// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MongoConfig holds the MongoDB Atlas connection settings.
type MongoConfig struct {
	// URI is the Atlas connection string.
	URI string `json:"uri" yaml:"uri"`

	// Database is the target database name.
	Database string `json:"database" yaml:"database"`

	// Collection is the target collection name.
	Collection string `json:"collection" yaml:"collection"`
}

// AWSConfig holds the region and static credentials used to call Bedrock.
type AWSConfig struct {
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"-" yaml:"-"`
}

// Config groups every setting a load run requires.
type Config struct {
	Mongo MongoConfig `json:"mongo" yaml:"mongo"`
	AWS   AWSConfig   `json:"aws" yaml:"aws"`
}

package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dstepanenko/chainvault/internal/flagx"
	"github.com/dstepanenko/chainvault/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "10s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	DataDir        string         `json:"data_dir"`
	LedgerPath     string         `json:"ledger_path"`
	BlobDir        string         `json:"blob_dir"`
	VaultDir       string         `json:"vault_dir"`
	Storage        string         `json:"storage"`
	BlobBackend    string         `json:"blob_backend"`
	DatabaseDSN    string         `json:"database_dsn"`
	S3RootUser     string         `json:"s3_root_user"`
	S3RootPassword string         `json:"s3_root_password"`
	S3Bucket       string         `json:"s3_bucket"`
	S3Region       string         `json:"s3_region"`
	S3BaseEndpoint string         `json:"s3_base_endpoint"`
	MaxFileSize    int64          `json:"max_file_size"`
	StoreTimeout   timex.Duration `json:"store_timeout"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; when neither is set, no JSON file is loaded. An unreadable or
// malformed file panics, misconfiguration should stop startup.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.DataDir = c.DataDir
	config.LedgerPath = c.LedgerPath
	config.BlobDir = c.BlobDir
	config.VaultDir = c.VaultDir
	config.Storage = c.Storage
	config.BlobBackend = c.BlobBackend
	config.DatabaseDSN = c.DatabaseDSN
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.MaxFileSize = c.MaxFileSize
	config.StoreTimeout = time.Duration(c.StoreTimeout.Duration)
}

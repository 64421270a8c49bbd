package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/orgkeeper/internal/flagx"
	"github.com/dmitrijs2005/orgkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// "6h" style strings or integer nanoseconds.
type JsonConfig struct {
	DatabaseDSN         string          `json:"database_dsn"`
	LogLevel            string          `json:"log_level"`
	LogFormat           string          `json:"log_format"`
	MigrateOnStart      *bool           `json:"migrate_on_start"`
	BcryptCost          int             `json:"bcrypt_cost"`
	SecretKey           string          `json:"secret_key"`
	ResetPasswordWithin *timex.Duration `json:"reset_password_within"`
	S3RootUser          string          `json:"s3_root_user"`
	S3RootPassword      string          `json:"s3_root_password"`
	S3Bucket            string          `json:"s3_bucket"`
	S3Region            string          `json:"s3_region"`
	S3BaseEndpoint      string          `json:"s3_base_endpoint"`
}

// parseJson overlays the file named by -c/-config, if any. Keys missing from
// the file leave the current value alone.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.LogLevel, c.LogLevel)
	set(&config.LogFormat, c.LogFormat)
	set(&config.SecretKey, c.SecretKey)
	set(&config.S3RootUser, c.S3RootUser)
	set(&config.S3RootPassword, c.S3RootPassword)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.MigrateOnStart != nil {
		config.MigrateOnStart = *c.MigrateOnStart
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.ResetPasswordWithin != nil {
		config.ResetPasswordWithin = c.ResetPasswordWithin.Duration
	}
	return nil
}

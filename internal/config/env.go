package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/joho/godotenv"
)

// dotenvFile is read before the process environment is consulted. Variables
// already set in the environment win over the file.
var dotenvFile = ".env"

// loadEnv overlays ORGKEEPER_* variables onto config.
func loadEnv(config *Config) error {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", dotenvFile, err)
	}

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(common.EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("LOG_LEVEL", &config.LogLevel)
	str("LOG_FORMAT", &config.LogFormat)
	str("SECRET_KEY", &config.SecretKey)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)

	if v, ok := os.LookupEnv(common.EnvPrefix + "MIGRATE_ON_START"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sMIGRATE_ON_START: %w", common.EnvPrefix, err)
		}
		config.MigrateOnStart = b
	}
	if v, ok := os.LookupEnv(common.EnvPrefix + "BCRYPT_COST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sBCRYPT_COST: %w", common.EnvPrefix, err)
		}
		config.BcryptCost = n
	}
	if v, ok := os.LookupEnv(common.EnvPrefix + "RESET_PASSWORD_WITHIN"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sRESET_PASSWORD_WITHIN: %w", common.EnvPrefix, err)
		}
		config.ResetPasswordWithin = d
	}
	return nil
}

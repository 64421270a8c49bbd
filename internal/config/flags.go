package config

import (
	"flag"
	"io"
)

// parseFlags applies global flags and returns the arguments after them.
//
//	-c, -config string   JSON config file (read by parseJson)
//	-d string            PostgreSQL DSN
//	-l string            log level (debug, info, warn, error)
//	-f string            log format (text, json)
//	-m                   run migrations before the command
//	-k int               bcrypt cost
//	-s string            secret key for reset token digests
//	-w duration          reset password token lifetime
//	-u string            S3 root user
//	-p string            S3 root password
//	-b string            S3 bucket
//	-g string            S3 region
//	-e string            S3 base endpoint
func parseFlags(config *Config, args []string) ([]string, error) {
	fs := flag.NewFlagSet("orgkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configFile string
	fs.StringVar(&configFile, "config", "", "JSON config file")
	fs.StringVar(&configFile, "c", "", "JSON config file (short)")

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")
	fs.BoolVar(&config.MigrateOnStart, "m", config.MigrateOnStart, "run migrations first")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.ResetPasswordWithin, "w", config.ResetPasswordWithin, "reset password token lifetime")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}

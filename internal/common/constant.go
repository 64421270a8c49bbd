package common

import "time"

// EnvPrefix is prepended to every environment variable the config layer reads.
const EnvPrefix = "ORGKEEPER_"

// ResetPasswordWithin is how long an issued password reset token stays usable.
const ResetPasswordWithin = 6 * time.Hour

// Password length bounds, in bytes. bcrypt refuses input longer than 72.
const (
	PasswordMinLength = 6
	PasswordMaxLength = 72
)

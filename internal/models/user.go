// Package models defines the persisted entities of orgkeeper, their closed
// enumerations and their validation rules.
package models

import "time"

// User is an account holder. Credential columns belong to the
// authentication flow and are never serialized.
type User struct {
	ID                  int64      `db:"id" json:"id"`
	Email               string     `db:"email" json:"email" validate:"present,email_format"`
	EncryptedPassword   string     `db:"encrypted_password" json:"-"`
	ResetPasswordToken  *string    `db:"reset_password_token" json:"-"`
	ResetPasswordSentAt *time.Time `db:"reset_password_sent_at" json:"-"`
	RememberCreatedAt   *time.Time `db:"remember_created_at" json:"-"`
	FirstName           string     `db:"first_name" json:"first_name" validate:"present"`
	LastName            string     `db:"last_name" json:"last_name" validate:"present"`
	Role                UserRole   `db:"role" json:"role" validate:"required,enum"`
	DeletedAt           *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// ApplyDefaults fills the column defaults of a new row.
func (u *User) ApplyDefaults() {
	if u.Role == "" {
		u.Role = RoleViewer
	}
}

func (u *User) Validate() error {
	return validateStruct("user", u)
}

// Active is true until the user has been soft-deleted.
func (u *User) Active() bool {
	return u.DeletedAt == nil
}

// SoftDelete marks the user deleted at now. Calling it again simply moves
// the timestamp.
func (u *User) SoftDelete(now time.Time) {
	u.DeletedAt = &now
	u.UpdatedAt = now
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u *User) AuditRef() Auditable {
	return Auditable{Type: AuditableUser, ID: u.ID}
}

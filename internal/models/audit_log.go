package models

import (
	"math"
	"time"
)

// AuditLog is a write-once record of an action. UserID, CompanyID and
// Auditable are optional context; nothing checks that they agree with each
// other.
type AuditLog struct {
	ID           int64       `db:"id" json:"id"`
	UserID       *int64      `db:"user_id" json:"user_id,omitempty"`
	CompanyID    *int64      `db:"company_id" json:"company_id,omitempty"`
	Auditable    *Auditable  `db:"-" json:"auditable,omitempty"`
	Action       AuditAction `db:"action" json:"action" validate:"required,enum"`
	ResourceType string      `db:"resource_type" json:"resource_type" validate:"present"`
	ResourceID   *int64      `db:"resource_id" json:"resource_id,omitempty"`
	AuditChanges string      `db:"audit_changes" json:"audit_changes,omitempty"`
	IPAddress    string      `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent    string      `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// resource_id is a 4-byte integer column.
const (
	minResourceID = math.MinInt32
	maxResourceID = math.MaxInt32
)

// Validate checks action, resource_type and the range of an explicit
// resource_id. A missing Auditable is left for the NOT NULL columns in
// storage to reject.
func (a *AuditLog) Validate() error {
	err := validateStruct("audit_log", a)
	if a.ResourceID == nil || (*a.ResourceID >= minResourceID && *a.ResourceID <= maxResourceID) {
		return err
	}

	rangeErr := FieldError{Field: "resource_id", Violation: ViolationInvalid}
	if ve, ok := AsValidationError(err); ok {
		ve.Fields = append(ve.Fields, rangeErr)
		return ve
	}
	if err != nil {
		return err
	}
	return NewValidationError("audit_log", rangeErr)
}

// FillResourceID copies the auditable id into the redundant resource_id
// column when the writer left it empty. An id that does not fit the column
// leaves resource_id NULL. resource_type is never derived; the writer must
// supply it.
func (a *AuditLog) FillResourceID() {
	if a.Auditable == nil || a.ResourceID != nil {
		return
	}
	if a.Auditable.ID < minResourceID || a.Auditable.ID > maxResourceID {
		return
	}
	id := a.Auditable.ID
	a.ResourceID = &id
}

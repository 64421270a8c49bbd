package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
)

// AuditAction is what was done to the audited entity.
type AuditAction string

const (
	ActionCreate  AuditAction = "create"
	ActionUpdate  AuditAction = "update"
	ActionDestroy AuditAction = "destroy"
	ActionRead    AuditAction = "read"
)

var auditActions = newOrdinalCodec("audit action", map[AuditAction]int64{
	ActionCreate:  0,
	ActionUpdate:  1,
	ActionDestroy: 2,
	ActionRead:    3,
})

func ParseAuditAction(s string) (AuditAction, error)       { return auditActions.parse(s) }
func AuditActionFromOrdinal(n int64) (AuditAction, error) { return auditActions.fromOrdinal(n) }
func AuditActionNames() []string                          { return auditActions.names() }

func (a AuditAction) Valid() bool                   { return auditActions.valid(a) }
func (a AuditAction) Ordinal() (int64, error)       { return auditActions.ordinal(a) }
func (a AuditAction) String() string                { return string(a) }
func (a AuditAction) Value() (driver.Value, error)  { return auditActions.value(a) }
func (a AuditAction) MarshalText() ([]byte, error)  { return []byte(a), nil }
func (a *AuditAction) UnmarshalText(b []byte) error { return unmarshalInto(a, auditActions, b) }

func (a *AuditAction) Scan(src any) (err error) {
	*a, err = auditActions.scan(src)
	return err
}

// AuditableType tags which table an Auditable points into. The values are
// class names, as found in existing audit_logs rows.
type AuditableType string

const (
	AuditableUser        AuditableType = "User"
	AuditableCompany     AuditableType = "Company"
	AuditableCompanyUser AuditableType = "CompanyUser"
)

// Known reports whether t is one of the tags this package can resolve.
func (t AuditableType) Known() bool {
	switch t {
	case AuditableUser, AuditableCompany, AuditableCompanyUser:
		return true
	}
	return false
}

func (t AuditableType) String() string { return string(t) }

// Auditable is a polymorphic (type, id) reference to the entity an audit
// entry is about.
type Auditable struct {
	Type AuditableType `json:"type"`
	ID   int64         `json:"id"`
}

func (a Auditable) String() string {
	return string(a.Type) + "#" + strconv.FormatInt(a.ID, 10)
}

// ParseAuditable reads the "Type#id" form produced by String.
func ParseAuditable(s string) (Auditable, error) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != '#' {
			continue
		}
		id, err := strconv.ParseInt(s[i+1:], 10, 64)
		if err != nil || i == 0 {
			break
		}
		return Auditable{Type: AuditableType(s[:i]), ID: id}, nil
	}
	return Auditable{}, fmt.Errorf("invalid auditable reference %q", s)
}

package models

import "time"

// CompanyUser grants a user a role within a company. A user holds at most
// one membership per company.
type CompanyUser struct {
	ID        int64          `db:"id" json:"id"`
	UserID    int64          `db:"user_id" json:"user_id" validate:"required"`
	CompanyID int64          `db:"company_id" json:"company_id" validate:"required"`
	Role      MembershipRole `db:"role" json:"role" validate:"required,enum"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

func (m *CompanyUser) ApplyDefaults() {
	if m.Role == "" {
		m.Role = MembershipMember
	}
}

func (m *CompanyUser) Validate() error {
	return validateStruct("company_user", m)
}

func (m *CompanyUser) AuditRef() Auditable {
	return Auditable{Type: AuditableCompanyUser, ID: m.ID}
}

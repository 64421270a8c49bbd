package models

import "time"

// Company is a tenant.
type Company struct {
	ID            int64         `db:"id" json:"id"`
	Name          string        `db:"name" json:"name" validate:"present"`
	Industry      string        `db:"industry" json:"industry" validate:"present"`
	Size          CompanySize   `db:"size" json:"size" validate:"required,oneof=small medium large"`
	Description   string        `db:"description" json:"description,omitempty"`
	Status        CompanyStatus `db:"status" json:"status" validate:"required,enum"`
	FiscalYearEnd *time.Time    `db:"fiscal_year_end" json:"fiscal_year_end,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

func (c *Company) ApplyDefaults() {
	if c.Status == "" {
		c.Status = CompanyActive
	}
}

func (c *Company) Validate() error {
	return validateStruct("company", c)
}

func (c *Company) Active() bool {
	return c.Status == CompanyActive
}

func (c *Company) AuditRef() Auditable {
	return Auditable{Type: AuditableCompany, ID: c.ID}
}

package models

import (
	"database/sql/driver"
	"fmt"
)

// CompanyStatus is stored as an ordinal. Any status may be assigned from any other.
type CompanyStatus string

const (
	CompanyActive    CompanyStatus = "active"
	CompanyInactive  CompanyStatus = "inactive"
	CompanySuspended CompanyStatus = "suspended"
)

var companyStatuses = newOrdinalCodec("company status", map[CompanyStatus]int64{
	CompanyActive:    0,
	CompanyInactive:  1,
	CompanySuspended: 2,
})

func ParseCompanyStatus(s string) (CompanyStatus, error)       { return companyStatuses.parse(s) }
func CompanyStatusFromOrdinal(n int64) (CompanyStatus, error) { return companyStatuses.fromOrdinal(n) }
func CompanyStatusNames() []string                            { return companyStatuses.names() }

func (s CompanyStatus) Valid() bool                   { return companyStatuses.valid(s) }
func (s CompanyStatus) Ordinal() (int64, error)       { return companyStatuses.ordinal(s) }
func (s CompanyStatus) String() string                { return string(s) }
func (s CompanyStatus) Value() (driver.Value, error)  { return companyStatuses.value(s) }
func (s CompanyStatus) MarshalText() ([]byte, error)  { return []byte(s), nil }
func (s *CompanyStatus) UnmarshalText(b []byte) error { return unmarshalInto(s, companyStatuses, b) }

func (s *CompanyStatus) Scan(src any) (err error) {
	*s, err = companyStatuses.scan(src)
	return err
}

// CompanySize is persisted as its literal string, not as an ordinal.
type CompanySize string

const (
	SizeSmall  CompanySize = "small"
	SizeMedium CompanySize = "medium"
	SizeLarge  CompanySize = "large"
)

var companySizes = []CompanySize{SizeSmall, SizeMedium, SizeLarge}

func CompanySizeNames() []string {
	out := make([]string, len(companySizes))
	for i, s := range companySizes {
		out[i] = string(s)
	}
	return out
}

func (s CompanySize) Valid() bool {
	for _, v := range companySizes {
		if s == v {
			return true
		}
	}
	return false
}

func (s CompanySize) String() string { return string(s) }

// Value stores the literal even when it is outside the closed set; the
// validation layer is what keeps such values from reaching the database.
func (s CompanySize) Value() (driver.Value, error) { return string(s), nil }

func (s *CompanySize) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = ""
	case string:
		*s = CompanySize(v)
	case []byte:
		*s = CompanySize(v)
	default:
		return fmt.Errorf("cannot scan %T into company size", src)
	}
	return nil
}

package models

import "database/sql/driver"

// UserRole is the application-wide role of a user.
type UserRole string

const (
	RoleViewer           UserRole = "viewer"
	RoleDataContributor  UserRole = "data_contributor"
	RoleApproverReviewer UserRole = "approver_reviewer"
	RoleAdministrator    UserRole = "administrator"
)

var userRoles = newOrdinalCodec("user role", map[UserRole]int64{
	RoleViewer:           0,
	RoleDataContributor:  1,
	RoleApproverReviewer: 2,
	RoleAdministrator:    3,
})

func ParseUserRole(s string) (UserRole, error)       { return userRoles.parse(s) }
func UserRoleFromOrdinal(n int64) (UserRole, error) { return userRoles.fromOrdinal(n) }
func UserRoleNames() []string                       { return userRoles.names() }

func (r UserRole) Valid() bool                   { return userRoles.valid(r) }
func (r UserRole) Ordinal() (int64, error)       { return userRoles.ordinal(r) }
func (r UserRole) String() string                { return string(r) }
func (r UserRole) Value() (driver.Value, error)  { return userRoles.value(r) }
func (r UserRole) MarshalText() ([]byte, error)  { return []byte(r), nil }
func (r *UserRole) UnmarshalText(b []byte) error { return unmarshalInto(r, userRoles, b) }

func (r *UserRole) Scan(src any) (err error) {
	*r, err = userRoles.scan(src)
	return err
}

// MembershipRole is the role a user holds inside one company.
// The ordinal encodes member < admin < owner, but nothing here
// interprets that order.
type MembershipRole string

const (
	MembershipMember MembershipRole = "member"
	MembershipAdmin  MembershipRole = "admin"
	MembershipOwner  MembershipRole = "owner"
)

var membershipRoles = newOrdinalCodec("membership role", map[MembershipRole]int64{
	MembershipMember: 0,
	MembershipAdmin:  1,
	MembershipOwner:  2,
})

func ParseMembershipRole(s string) (MembershipRole, error)       { return membershipRoles.parse(s) }
func MembershipRoleFromOrdinal(n int64) (MembershipRole, error) { return membershipRoles.fromOrdinal(n) }
func MembershipRoleNames() []string                             { return membershipRoles.names() }

func (r MembershipRole) Valid() bool                   { return membershipRoles.valid(r) }
func (r MembershipRole) Ordinal() (int64, error)       { return membershipRoles.ordinal(r) }
func (r MembershipRole) String() string                { return string(r) }
func (r MembershipRole) Value() (driver.Value, error)  { return membershipRoles.value(r) }
func (r MembershipRole) MarshalText() ([]byte, error)  { return []byte(r), nil }
func (r *MembershipRole) UnmarshalText(b []byte) error { return unmarshalInto(r, membershipRoles, b) }

func (r *MembershipRole) Scan(src any) (err error) {
	*r, err = membershipRoles.scan(src)
	return err
}

func unmarshalInto[T ~string](dst *T, c ordinalCodec[T], b []byte) error {
	v, err := c.parse(string(b))
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// Package access defines hierarchy levels and the access-scope strings used
// as authorization role identifiers.
package access

import (
	"fmt"
	"strings"
)

// Level identifies one level of the tenant hierarchy.
type Level string

const (
	LevelCustomer         Level = "customer"
	LevelOrganization     Level = "organization"
	LevelInstitution      Level = "institution"
	LevelOrganizationUnit Level = "organization_unit"
)

// Owner group names granted to the initial user of a freshly created entity.
const (
	GroupCustomerOwner         = "customer-owner"
	GroupOrganizationOwner     = "organization-owner"
	GroupInstitutionOwner      = "institution-owner"
	GroupOrganizationUnitOwner = "organization-unit-owner"
)

func (l Level) String() string { return string(l) }

// Valid reports whether l is one of the four hierarchy levels.
func (l Level) Valid() bool {
	switch l {
	case LevelCustomer, LevelOrganization, LevelInstitution, LevelOrganizationUnit:
		return true
	}
	return false
}

// OwnerGroup returns the owner group name for the level.
func (l Level) OwnerGroup() string {
	switch l {
	case LevelCustomer:
		return GroupCustomerOwner
	case LevelOrganization:
		return GroupOrganizationOwner
	case LevelInstitution:
		return GroupInstitutionOwner
	case LevelOrganizationUnit:
		return GroupOrganizationUnitOwner
	}
	return ""
}

// Scope builds the access-scope string for (level, scoped entity id). The
// result is a pure function of its inputs; the same pair always yields the
// same string, which keeps role provisioning idempotent.
func Scope(level Level, scopedID string) string {
	return fmt.Sprintf("%s:%s", level, scopedID)
}

// LevelOf extracts the hierarchy level encoded in an access-scope string.
func LevelOf(scope string) (Level, bool) {
	idx := strings.IndexByte(scope, ':')
	if idx <= 0 {
		return "", false
	}
	level := Level(scope[:idx])
	return level, level.Valid()
}

// Role is an authorization role record keyed by its access-scope string.
type Role struct {
	Name string `json:"name"`
}

package domain

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/tenantforge/tenantforge/internal/access"
)

// Scoped ids embed the full ancestor chain of the entity they identify. The
// String form joins the chain with "/" and is what access-scope strings are
// derived from.

type CustomerID struct {
	ID snowflake.ID `json:"id"`
}

func (c CustomerID) String() string { return c.ID.String() }

type OrganizationID struct {
	CustomerID snowflake.ID `json:"customer_id"`
	ID         snowflake.ID `json:"id"`
}

func (o OrganizationID) String() string {
	return fmt.Sprintf("%s/%s", o.CustomerID, o.ID)
}

type InstitutionID struct {
	CustomerID     snowflake.ID `json:"customer_id"`
	OrganizationID snowflake.ID `json:"organization_id"`
	ID             snowflake.ID `json:"id"`
}

func (i InstitutionID) String() string {
	return fmt.Sprintf("%s/%s/%s", i.CustomerID, i.OrganizationID, i.ID)
}

type OrganizationUnitID struct {
	CustomerID     snowflake.ID `json:"customer_id"`
	OrganizationID snowflake.ID `json:"organization_id"`
	InstitutionID  snowflake.ID `json:"institution_id"`
	ID             snowflake.ID `json:"id"`
}

func (u OrganizationUnitID) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", u.CustomerID, u.OrganizationID, u.InstitutionID, u.ID)
}

// Owner is a tagged reference to exactly one hierarchy level. Exactly one of
// the id fields is set, matching Level.
type Owner struct {
	Level            access.Level        `json:"level"`
	Customer         *CustomerID         `json:"customer,omitempty"`
	Organization     *OrganizationID     `json:"organization,omitempty"`
	Institution      *InstitutionID      `json:"institution,omitempty"`
	OrganizationUnit *OrganizationUnitID `json:"organization_unit,omitempty"`
}

func OwnerOfCustomer(id CustomerID) Owner {
	return Owner{Level: access.LevelCustomer, Customer: &id}
}

func OwnerOfOrganization(id OrganizationID) Owner {
	return Owner{Level: access.LevelOrganization, Organization: &id}
}

func OwnerOfInstitution(id InstitutionID) Owner {
	return Owner{Level: access.LevelInstitution, Institution: &id}
}

func OwnerOfOrganizationUnit(id OrganizationUnitID) Owner {
	return Owner{Level: access.LevelOrganizationUnit, OrganizationUnit: &id}
}

// ScopedID returns the String form of the id the owner points at.
func (o Owner) ScopedID() string {
	switch o.Level {
	case access.LevelCustomer:
		return o.Customer.String()
	case access.LevelOrganization:
		return o.Organization.String()
	case access.LevelInstitution:
		return o.Institution.String()
	case access.LevelOrganizationUnit:
		return o.OrganizationUnit.String()
	}
	return ""
}

// AccessScope returns the access-scope string of the owned entity.
func (o Owner) AccessScope() string {
	return access.Scope(o.Level, o.ScopedID())
}

// Valid reports whether the tagged variant matches the level and is set.
func (o Owner) Valid() bool {
	switch o.Level {
	case access.LevelCustomer:
		return o.Customer != nil
	case access.LevelOrganization:
		return o.Organization != nil
	case access.LevelInstitution:
		return o.Institution != nil
	case access.LevelOrganizationUnit:
		return o.OrganizationUnit != nil
	}
	return false
}

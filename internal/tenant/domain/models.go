// Package domain contains the hierarchy entities and the collaborator
// contracts consumed by the provisioning service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tenantforge/tenantforge/internal/access"
)

// Collection names, also used as event payload collections.
const (
	CollectionCustomers         = "customers"
	CollectionOrganizations     = "organizations"
	CollectionInstitutions      = "institutions"
	CollectionOrganizationUnits = "organization_units"
)

// Modification records who touched an entity and when.
type Modification struct {
	UserID snowflake.ID `gorm:"column:by" json:"user_id"`
	At     time.Time    `gorm:"column:at" json:"at"`
}

// NewModification stamps the acting user with the current UTC time.
func NewModification(userID snowflake.ID) Modification {
	return Modification{UserID: userID, At: time.Now().UTC()}
}

// Customer is the root of the hierarchy. Names are unique platform-wide.
type Customer struct {
	ID       snowflake.ID  `gorm:"primaryKey" json:"id"`
	Name     string        `gorm:"type:text;not null;uniqueIndex:ux_customers_name" json:"name"`
	Created  Modification  `gorm:"embedded;embeddedPrefix:created_" json:"created"`
	Modified *Modification `gorm:"embedded;embeddedPrefix:modified_" json:"modified,omitempty"`
}

func (Customer) TableName() string { return "customers" }

func (c Customer) ScopedID() CustomerID { return CustomerID{ID: c.ID} }

func (c Customer) Owner() Owner { return OwnerOfCustomer(c.ScopedID()) }

func (c Customer) AccessScope() string {
	return access.Scope(access.LevelCustomer, c.ScopedID().String())
}

// Organization lives under one customer. Names are unique per customer.
type Organization struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_organizations_scope_name,priority:1" json:"customer_id"`
	Name       string        `gorm:"type:text;not null;uniqueIndex:ux_organizations_scope_name,priority:2" json:"name"`
	Created    Modification  `gorm:"embedded;embeddedPrefix:created_" json:"created"`
	Modified   *Modification `gorm:"embedded;embeddedPrefix:modified_" json:"modified,omitempty"`
}

func (Organization) TableName() string { return "organizations" }

func (o Organization) ScopedID() OrganizationID {
	return OrganizationID{CustomerID: o.CustomerID, ID: o.ID}
}

func (o Organization) Owner() Owner { return OwnerOfOrganization(o.ScopedID()) }

func (o Organization) AccessScope() string {
	return access.Scope(access.LevelOrganization, o.ScopedID().String())
}

// Institution lives under one organization. Names are unique per organization.
type Institution struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerID     snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_institutions_scope_name,priority:1" json:"customer_id"`
	OrganizationID snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_institutions_scope_name,priority:2" json:"organization_id"`
	Name           string        `gorm:"type:text;not null;uniqueIndex:ux_institutions_scope_name,priority:3" json:"name"`
	Created        Modification  `gorm:"embedded;embeddedPrefix:created_" json:"created"`
	Modified       *Modification `gorm:"embedded;embeddedPrefix:modified_" json:"modified,omitempty"`
}

func (Institution) TableName() string { return "institutions" }

func (i Institution) ScopedID() InstitutionID {
	return InstitutionID{CustomerID: i.CustomerID, OrganizationID: i.OrganizationID, ID: i.ID}
}

func (i Institution) Owner() Owner { return OwnerOfInstitution(i.ScopedID()) }

func (i Institution) AccessScope() string {
	return access.Scope(access.LevelInstitution, i.ScopedID().String())
}

// OrganizationUnit lives under one institution. Names are unique per
// institution.
type OrganizationUnit struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerID     snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_org_units_scope_name,priority:1" json:"customer_id"`
	OrganizationID snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_org_units_scope_name,priority:2" json:"organization_id"`
	InstitutionID  snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_org_units_scope_name,priority:3" json:"institution_id"`
	Name           string        `gorm:"type:text;not null;uniqueIndex:ux_org_units_scope_name,priority:4" json:"name"`
	Created        Modification  `gorm:"embedded;embeddedPrefix:created_" json:"created"`
	Modified       *Modification `gorm:"embedded;embeddedPrefix:modified_" json:"modified,omitempty"`
}

func (OrganizationUnit) TableName() string { return "organization_units" }

func (u OrganizationUnit) ScopedID() OrganizationUnitID {
	return OrganizationUnitID{
		CustomerID:     u.CustomerID,
		OrganizationID: u.OrganizationID,
		InstitutionID:  u.InstitutionID,
		ID:             u.ID,
	}
}

func (u OrganizationUnit) Owner() Owner { return OwnerOfOrganizationUnit(u.ScopedID()) }

func (u OrganizationUnit) AccessScope() string {
	return access.Scope(access.LevelOrganizationUnit, u.ScopedID().String())
}

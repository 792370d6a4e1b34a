// Package domain contains the user entity and its provisioning contracts.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/tenantforge/tenantforge/internal/access"
	"github.com/tenantforge/tenantforge/internal/identity"
	tenantdomain "github.com/tenantforge/tenantforge/internal/tenant/domain"
	"gorm.io/datatypes"
)

const CollectionUsers = "users"

// ErrAccessMismatch is returned when a user's access-scope string does not
// correspond to the level of its owner.
var ErrAccessMismatch = errors.New("user: access scope does not match owner level")

// User belongs to exactly one hierarchy entity via its owner. The owner is
// stored flattened; Owner() reconstructs the tagged form.
type User struct {
	ID             snowflake.ID                 `gorm:"primaryKey" json:"id"`
	OwnerLevel     access.Level                 `gorm:"type:text;not null;index" json:"owner_level"`
	CustomerID     snowflake.ID                 `gorm:"index" json:"customer_id,omitempty"`
	OrganizationID snowflake.ID                 `gorm:"index" json:"organization_id,omitempty"`
	InstitutionID  snowflake.ID                 `gorm:"index" json:"institution_id,omitempty"`
	UnitID         snowflake.ID                 `gorm:"column:unit_id" json:"unit_id,omitempty"`
	Groups         datatypes.JSONSlice[string]  `gorm:"type:jsonb" json:"groups"`
	Access         string                       `gorm:"type:text;not null" json:"access"`
	Details        identity.UserDetails         `gorm:"embedded" json:"details"`
	Created        tenantdomain.Modification    `gorm:"embedded;embeddedPrefix:created_" json:"created"`
	Modified       *tenantdomain.Modification   `gorm:"embedded;embeddedPrefix:modified_" json:"modified,omitempty"`
}

func (User) TableName() string { return "users" }

// Owner reconstructs the tagged owner reference from the flattened columns.
func (u User) Owner() tenantdomain.Owner {
	switch u.OwnerLevel {
	case access.LevelCustomer:
		return tenantdomain.OwnerOfCustomer(tenantdomain.CustomerID{ID: u.CustomerID})
	case access.LevelOrganization:
		return tenantdomain.OwnerOfOrganization(tenantdomain.OrganizationID{
			CustomerID: u.CustomerID, ID: u.OrganizationID,
		})
	case access.LevelInstitution:
		return tenantdomain.OwnerOfInstitution(tenantdomain.InstitutionID{
			CustomerID: u.CustomerID, OrganizationID: u.OrganizationID, ID: u.InstitutionID,
		})
	case access.LevelOrganizationUnit:
		return tenantdomain.OwnerOfOrganizationUnit(tenantdomain.OrganizationUnitID{
			CustomerID: u.CustomerID, OrganizationID: u.OrganizationID,
			InstitutionID: u.InstitutionID, ID: u.UnitID,
		})
	}
	return tenantdomain.Owner{}
}

// SetOwner flattens the tagged owner into the id columns. The variant must
// match the level.
func (u *User) SetOwner(owner tenantdomain.Owner) {
	u.OwnerLevel = owner.Level
	switch owner.Level {
	case access.LevelCustomer:
		u.CustomerID = owner.Customer.ID
	case access.LevelOrganization:
		u.CustomerID = owner.Organization.CustomerID
		u.OrganizationID = owner.Organization.ID
	case access.LevelInstitution:
		u.CustomerID = owner.Institution.CustomerID
		u.OrganizationID = owner.Institution.OrganizationID
		u.InstitutionID = owner.Institution.ID
	case access.LevelOrganizationUnit:
		u.CustomerID = owner.OrganizationUnit.CustomerID
		u.OrganizationID = owner.OrganizationUnit.OrganizationID
		u.InstitutionID = owner.OrganizationUnit.InstitutionID
		u.UnitID = owner.OrganizationUnit.ID
	}
}

type CreateUserRequest struct {
	User    identity.UserInput  `json:"user"`
	Group   string              `json:"group"`
	Access  string              `json:"access"`
	Context tenantdomain.Owner  `json:"context"`
}

// Service provisions and retires users attached to hierarchy entities.
type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (*User, error)
	Remove(ctx context.Context, ids []snowflake.ID) (int64, error)
	List(ctx context.Context) ([]User, error)
}

// Repository persists users. FindByUsername returns nil when no row matches.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	Save(ctx context.Context, user *User) error
	DeleteMany(ctx context.Context, ids []snowflake.ID) (int64, error)
	List(ctx context.Context) ([]User, error)
}

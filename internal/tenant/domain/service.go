package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/tenantforge/tenantforge/internal/identity"
)

type CreateCustomerRequest struct {
	Name        string              `json:"name"`
	InitialUser *identity.UserInput `json:"initial_user,omitempty"`
}

type CreateOrganizationRequest struct {
	CustomerID  snowflake.ID        `json:"customer_id"`
	Name        string              `json:"name"`
	InitialUser *identity.UserInput `json:"initial_user,omitempty"`
}

type CreateInstitutionRequest struct {
	Scope       OrganizationID      `json:"scope"`
	Name        string              `json:"name"`
	InitialUser *identity.UserInput `json:"initial_user,omitempty"`
}

type CreateOrganizationUnitRequest struct {
	Scope       InstitutionID       `json:"scope"`
	Name        string              `json:"name"`
	InitialUser *identity.UserInput `json:"initial_user,omitempty"`
}

// Service is the provisioning orchestrator. Create operations hold a
// distributed lock scoped by (parent, name) across the whole
// check-persist-provision-publish sequence; Remove operations are lock-free.
type Service interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error)
	CreateOrganization(ctx context.Context, req CreateOrganizationRequest) (*Organization, error)
	CreateInstitution(ctx context.Context, req CreateInstitutionRequest) (*Institution, error)
	CreateOrganizationUnit(ctx context.Context, req CreateOrganizationUnitRequest) (*OrganizationUnit, error)

	RemoveCustomers(ctx context.Context, ids []snowflake.ID) (int64, error)
	RemoveOrganizations(ctx context.Context, ids []snowflake.ID) (int64, error)
	RemoveInstitutions(ctx context.Context, ids []snowflake.ID) (int64, error)
	RemoveOrganizationUnits(ctx context.Context, ids []snowflake.ID) (int64, error)

	ListCustomers(ctx context.Context) ([]Customer, error)
	ListOrganizations(ctx context.Context) ([]Organization, error)
	ListInstitutions(ctx context.Context) ([]Institution, error)
	ListOrganizationUnits(ctx context.Context) ([]OrganizationUnit, error)
}

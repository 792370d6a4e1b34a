package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Repository persists hierarchy entities. Find methods return nil without an
// error when no row matches. Delete methods batch over the id set and return
// the matched count.
type Repository interface {
	FindCustomerByName(ctx context.Context, name string) (*Customer, error)
	SaveCustomer(ctx context.Context, customer *Customer) error
	DeleteCustomers(ctx context.Context, ids []snowflake.ID) (int64, error)
	ListCustomers(ctx context.Context) ([]Customer, error)

	FindOrganizationByName(ctx context.Context, customerID snowflake.ID, name string) (*Organization, error)
	SaveOrganization(ctx context.Context, organization *Organization) error
	DeleteOrganizations(ctx context.Context, ids []snowflake.ID) (int64, error)
	ListOrganizations(ctx context.Context) ([]Organization, error)

	FindInstitutionByName(ctx context.Context, scope OrganizationID, name string) (*Institution, error)
	SaveInstitution(ctx context.Context, institution *Institution) error
	DeleteInstitutions(ctx context.Context, ids []snowflake.ID) (int64, error)
	ListInstitutions(ctx context.Context) ([]Institution, error)

	FindOrganizationUnitByName(ctx context.Context, scope InstitutionID, name string) (*OrganizationUnit, error)
	SaveOrganizationUnit(ctx context.Context, unit *OrganizationUnit) error
	DeleteOrganizationUnits(ctx context.Context, ids []snowflake.ID) (int64, error)
	ListOrganizationUnits(ctx context.Context) ([]OrganizationUnit, error)
}

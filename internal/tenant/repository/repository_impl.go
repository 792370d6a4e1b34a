package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/tenantforge/tenantforge/internal/tenant/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func findByName[T any](ctx context.Context, db *gorm.DB, conds map[string]any) (*T, error) {
	var item T
	err := db.WithContext(ctx).Where(conds).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func deleteMany[T any](ctx context.Context, db *gorm.DB, ids []snowflake.ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var model T
	result := db.WithContext(ctx).Where("id IN ?", ids).Delete(&model)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func list[T any](ctx context.Context, db *gorm.DB) ([]T, error) {
	var items []T
	if err := db.WithContext(ctx).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindCustomerByName(ctx context.Context, name string) (*domain.Customer, error) {
	return findByName[domain.Customer](ctx, r.db, map[string]any{"name": name})
}

func (r *repo) SaveCustomer(ctx context.Context, customer *domain.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repo) DeleteCustomers(ctx context.Context, ids []snowflake.ID) (int64, error) {
	return deleteMany[domain.Customer](ctx, r.db, ids)
}

func (r *repo) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return list[domain.Customer](ctx, r.db)
}

func (r *repo) FindOrganizationByName(ctx context.Context, customerID snowflake.ID, name string) (*domain.Organization, error) {
	return findByName[domain.Organization](ctx, r.db, map[string]any{
		"customer_id": customerID,
		"name":        name,
	})
}

func (r *repo) SaveOrganization(ctx context.Context, organization *domain.Organization) error {
	return r.db.WithContext(ctx).Create(organization).Error
}

func (r *repo) DeleteOrganizations(ctx context.Context, ids []snowflake.ID) (int64, error) {
	return deleteMany[domain.Organization](ctx, r.db, ids)
}

func (r *repo) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	return list[domain.Organization](ctx, r.db)
}

func (r *repo) FindInstitutionByName(ctx context.Context, scope domain.OrganizationID, name string) (*domain.Institution, error) {
	return findByName[domain.Institution](ctx, r.db, map[string]any{
		"customer_id":     scope.CustomerID,
		"organization_id": scope.ID,
		"name":            name,
	})
}

func (r *repo) SaveInstitution(ctx context.Context, institution *domain.Institution) error {
	return r.db.WithContext(ctx).Create(institution).Error
}

func (r *repo) DeleteInstitutions(ctx context.Context, ids []snowflake.ID) (int64, error) {
	return deleteMany[domain.Institution](ctx, r.db, ids)
}

func (r *repo) ListInstitutions(ctx context.Context) ([]domain.Institution, error) {
	return list[domain.Institution](ctx, r.db)
}

func (r *repo) FindOrganizationUnitByName(ctx context.Context, scope domain.InstitutionID, name string) (*domain.OrganizationUnit, error) {
	return findByName[domain.OrganizationUnit](ctx, r.db, map[string]any{
		"customer_id":     scope.CustomerID,
		"organization_id": scope.OrganizationID,
		"institution_id":  scope.ID,
		"name":            name,
	})
}

func (r *repo) SaveOrganizationUnit(ctx context.Context, unit *domain.OrganizationUnit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *repo) DeleteOrganizationUnits(ctx context.Context, ids []snowflake.ID) (int64, error) {
	return deleteMany[domain.OrganizationUnit](ctx, r.db, ids)
}

func (r *repo) ListOrganizationUnits(ctx context.Context) ([]domain.OrganizationUnit, error) {
	return list[domain.OrganizationUnit](ctx, r.db)
}

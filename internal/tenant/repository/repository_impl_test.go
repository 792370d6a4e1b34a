package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/tenantforge/tenantforge/internal/tenant/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRepo(t *testing.T) (domain.Repository, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(
		&domain.Customer{},
		&domain.Organization{},
		&domain.Institution{},
		&domain.OrganizationUnit{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return Provide(db), node
}

func TestCustomerRoundTrip(t *testing.T) {
	repo, node := setupRepo(t)
	ctx := context.Background()

	missing, err := repo.FindCustomerByName(ctx, "acme")
	if err != nil {
		t.Fatalf("find absent: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for absent row, got %+v", missing)
	}

	customer := &domain.Customer{
		ID:      node.Generate(),
		Name:    "acme",
		Created: domain.NewModification(node.Generate()),
	}
	if err := repo.SaveCustomer(ctx, customer); err != nil {
		t.Fatalf("save: %v", err)
	}

	found, err := repo.FindCustomerByName(ctx, "acme")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil || found.ID != customer.ID {
		t.Fatalf("expected saved customer, got %+v", found)
	}
}

func TestOrganizationFindIsScopedToCustomer(t *testing.T) {
	repo, node := setupRepo(t)
	ctx := context.Background()

	customerA := node.Generate()
	customerB := node.Generate()
	org := &domain.Organization{
		ID:         node.Generate(),
		CustomerID: customerA,
		Name:       "research",
		Created:    domain.NewModification(node.Generate()),
	}
	if err := repo.SaveOrganization(ctx, org); err != nil {
		t.Fatalf("save: %v", err)
	}

	found, err := repo.FindOrganizationByName(ctx, customerA, "research")
	if err != nil {
		t.Fatalf("find under parent: %v", err)
	}
	if found == nil {
		t.Fatal("expected org under its customer")
	}

	other, err := repo.FindOrganizationByName(ctx, customerB, "research")
	if err != nil {
		t.Fatalf("find under sibling: %v", err)
	}
	if other != nil {
		t.Fatalf("expected nil under sibling customer, got %+v", other)
	}
}

func TestInstitutionFindRequiresFullScope(t *testing.T) {
	repo, node := setupRepo(t)
	ctx := context.Background()

	scope := domain.OrganizationID{CustomerID: node.Generate(), ID: node.Generate()}
	inst := &domain.Institution{
		ID:             node.Generate(),
		CustomerID:     scope.CustomerID,
		OrganizationID: scope.ID,
		Name:           "clinic",
		Created:        domain.NewModification(node.Generate()),
	}
	if err := repo.SaveInstitution(ctx, inst); err != nil {
		t.Fatalf("save: %v", err)
	}

	found, err := repo.FindInstitutionByName(ctx, scope, "clinic")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil || found.ID != inst.ID {
		t.Fatalf("expected institution, got %+v", found)
	}

	wrongScope := domain.OrganizationID{CustomerID: scope.CustomerID, ID: node.Generate()}
	other, err := repo.FindInstitutionByName(ctx, wrongScope, "clinic")
	if err != nil {
		t.Fatalf("find wrong scope: %v", err)
	}
	if other != nil {
		t.Fatalf("expected nil under wrong organization, got %+v", other)
	}
}

func TestDeleteCustomersReturnsMatchedCount(t *testing.T) {
	repo, node := setupRepo(t)
	ctx := context.Background()

	first := &domain.Customer{ID: node.Generate(), Name: "acme", Created: domain.NewModification(node.Generate())}
	second := &domain.Customer{ID: node.Generate(), Name: "globex", Created: domain.NewModification(node.Generate())}
	for _, c := range []*domain.Customer{first, second} {
		if err := repo.SaveCustomer(ctx, c); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	count, err := repo.DeleteCustomers(ctx, []snowflake.ID{first.ID, second.ID, node.Generate()})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 matched, got %d", count)
	}

	remaining, err := repo.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected empty table, got %d rows", len(remaining))
	}
}

func TestDeleteZeroMatched(t *testing.T) {
	repo, node := setupRepo(t)
	ctx := context.Background()

	count, err := repo.DeleteOrganizationUnits(ctx, []snowflake.ID{node.Generate()})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 matched, got %d", count)
	}
}

func TestListOrdersByID(t *testing.T) {
	repo, node := setupRepo(t)
	ctx := context.Background()

	var want []snowflake.ID
	for _, name := range []string{"c", "a", "b"} {
		customer := &domain.Customer{ID: node.Generate(), Name: name, Created: domain.NewModification(node.Generate())}
		if err := repo.SaveCustomer(ctx, customer); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
		want = append(want, customer.ID)
	}

	got, err := repo.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i := range got {
		if got[i].ID != want[i] {
			t.Fatalf("expected id order %v, got %v at %d", want, got[i].ID, i)
		}
	}
}

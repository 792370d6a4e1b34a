package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/tenantforge/tenantforge/internal/access"
	"github.com/tenantforge/tenantforge/internal/identity"
	tenantdomain "github.com/tenantforge/tenantforge/internal/tenant/domain"
	userdomain "github.com/tenantforge/tenantforge/internal/user/domain"
)

type tenantListStub struct {
	mu            sync.Mutex
	customers     []tenantdomain.Customer
	organizations []tenantdomain.Organization
}

func (s *tenantListStub) FindCustomerByName(ctx context.Context, name string) (*tenantdomain.Customer, error) {
	return nil, nil
}
func (s *tenantListStub) SaveCustomer(ctx context.Context, customer *tenantdomain.Customer) error {
	return nil
}
func (s *tenantListStub) DeleteCustomers(ctx context.Context, ids []snowflake.ID) (int64, error) {
	return 0, nil
}
func (s *tenantListStub) ListCustomers(ctx context.Context) ([]tenantdomain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tenantdomain.Customer(nil), s.customers...), nil
}
func (s *tenantListStub) FindOrganizationByName(ctx context.Context, customerID snowflake.ID, name string) (*tenantdomain.Organization, error) {
	return nil, nil
}
func (s *tenantListStub) SaveOrganization(ctx context.Context, organization *tenantdomain.Organization) error {
	return nil
}
func (s *tenantListStub) DeleteOrganizations(ctx context.Context, ids []snowflake.ID) (int64, error) {
	return 0, nil
}
func (s *tenantListStub) ListOrganizations(ctx context.Context) ([]tenantdomain.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tenantdomain.Organization(nil), s.organizations...), nil
}
func (s *tenantListStub) FindInstitutionByName(ctx context.Context, scope tenantdomain.OrganizationID, name string) (*tenantdomain.Institution, error) {
	return nil, nil
}
func (s *tenantListStub) SaveInstitution(ctx context.Context, institution *tenantdomain.Institution) error {
	return nil
}
func (s *tenantListStub) DeleteInstitutions(ctx context.Context, ids []snowflake.ID) (int64, error) {
	return 0, nil
}
func (s *tenantListStub) ListInstitutions(ctx context.Context) ([]tenantdomain.Institution, error) {
	return nil, nil
}
func (s *tenantListStub) FindOrganizationUnitByName(ctx context.Context, scope tenantdomain.InstitutionID, name string) (*tenantdomain.OrganizationUnit, error) {
	return nil, nil
}
func (s *tenantListStub) SaveOrganizationUnit(ctx context.Context, unit *tenantdomain.OrganizationUnit) error {
	return nil
}
func (s *tenantListStub) DeleteOrganizationUnits(ctx context.Context, ids []snowflake.ID) (int64, error) {
	return 0, nil
}
func (s *tenantListStub) ListOrganizationUnits(ctx context.Context) ([]tenantdomain.OrganizationUnit, error) {
	return nil, nil
}

type userListStub struct {
	mu    sync.Mutex
	users []userdomain.User
}

func (s *userListStub) FindByUsername(ctx context.Context, username string) (*userdomain.User, error) {
	return nil, nil
}
func (s *userListStub) Save(ctx context.Context, user *userdomain.User) error { return nil }
func (s *userListStub) DeleteMany(ctx context.Context, ids []snowflake.ID) (int64, error) {
	return 0, nil
}
func (s *userListStub) List(ctx context.Context) ([]userdomain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]userdomain.User(nil), s.users...), nil
}

func TestInsertAndLookup(t *testing.T) {
	h := NewHierarchy(&tenantListStub{}, &userListStub{})

	h.InsertCustomer(tenantdomain.Customer{ID: 1, Name: "acme"})
	if _, ok := h.CustomerByName("acme"); !ok {
		t.Fatal("expected customer by name")
	}
	if _, ok := h.CustomerByID(1); !ok {
		t.Fatal("expected customer by id")
	}
	if _, ok := h.CustomerByName("globex"); ok {
		t.Fatal("unexpected customer")
	}
}

func TestNameKeysAreScopedByParent(t *testing.T) {
	h := NewHierarchy(&tenantListStub{}, &userListStub{})

	// The same name under different parents must resolve independently.
	h.InsertOrganization(tenantdomain.Organization{ID: 10, CustomerID: 1, Name: "research"})
	h.InsertOrganization(tenantdomain.Organization{ID: 20, CustomerID: 2, Name: "research"})

	first, ok := h.OrganizationByName(1, "research")
	if !ok || first.ID != 10 {
		t.Fatalf("expected org 10 under customer 1, got %+v ok=%v", first, ok)
	}
	second, ok := h.OrganizationByName(2, "research")
	if !ok || second.ID != 20 {
		t.Fatalf("expected org 20 under customer 2, got %+v ok=%v", second, ok)
	}
	if _, ok := h.OrganizationByName(3, "research"); ok {
		t.Fatal("unexpected org under customer 3")
	}

	h.InsertInstitution(tenantdomain.Institution{ID: 30, CustomerID: 1, OrganizationID: 10, Name: "clinic"})
	if _, ok := h.InstitutionByName(tenantdomain.OrganizationID{CustomerID: 1, ID: 10}, "clinic"); !ok {
		t.Fatal("expected institution under its organization")
	}
	if _, ok := h.InstitutionByName(tenantdomain.OrganizationID{CustomerID: 1, ID: 20}, "clinic"); ok {
		t.Fatal("unexpected institution under sibling organization")
	}
}

func TestReloadSwapsWholeLevel(t *testing.T) {
	repo := &tenantListStub{}
	h := NewHierarchy(repo, &userListStub{})

	h.InsertCustomer(tenantdomain.Customer{ID: 1, Name: "acme"})
	h.InsertCustomer(tenantdomain.Customer{ID: 2, Name: "globex"})
	if h.Count(access.LevelCustomer) != 2 {
		t.Fatalf("expected 2 customers, got %d", h.Count(access.LevelCustomer))
	}

	repo.mu.Lock()
	repo.customers = []tenantdomain.Customer{{ID: 2, Name: "globex"}}
	repo.mu.Unlock()

	if err := h.Reload(context.Background(), access.LevelCustomer); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if h.Count(access.LevelCustomer) != 1 {
		t.Fatalf("expected 1 customer after reload, got %d", h.Count(access.LevelCustomer))
	}
	if _, ok := h.CustomerByName("acme"); ok {
		t.Fatal("expected acme gone after reload")
	}
	if _, ok := h.CustomerByName("globex"); !ok {
		t.Fatal("expected globex to survive reload")
	}
}

func TestReloadUnknownLevel(t *testing.T) {
	h := NewHierarchy(&tenantListStub{}, &userListStub{})
	if err := h.Reload(context.Background(), access.Level("billing")); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestReloadUsers(t *testing.T) {
	users := &userListStub{}
	h := NewHierarchy(&tenantListStub{}, users)

	h.InsertUser(userdomain.User{ID: 1, Details: identity.UserDetails{Username: "jdoe"}})
	users.mu.Lock()
	users.users = []userdomain.User{{ID: 2, Details: identity.UserDetails{Username: "asmith"}}}
	users.mu.Unlock()

	if err := h.ReloadUsers(context.Background()); err != nil {
		t.Fatalf("reload users: %v", err)
	}
	if _, ok := h.UserByUsername("jdoe"); ok {
		t.Fatal("expected jdoe gone after reload")
	}
	if _, ok := h.UserByUsername("asmith"); !ok {
		t.Fatal("expected asmith after reload")
	}
}

func TestConcurrentReadersDuringReload(t *testing.T) {
	repo := &tenantListStub{customers: []tenantdomain.Customer{{ID: 1, Name: "acme"}}}
	h := NewHierarchy(repo, &userListStub{})
	h.InsertCustomer(tenantdomain.Customer{ID: 1, Name: "acme"})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				// Readers must always observe a complete level: the entry is
				// present in every snapshot the reload produces.
				if _, ok := h.CustomerByName("acme"); !ok {
					t.Error("reader observed missing customer mid-reload")
					return
				}
			}
		}()
	}
	for i := 0; i < 100; i++ {
		if err := h.Reload(context.Background(), access.LevelCustomer); err != nil {
			t.Fatalf("reload: %v", err)
		}
	}
	close(stop)
	wg.Wait()
}

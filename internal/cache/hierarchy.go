// Package cache keeps a synchronous in-memory mirror of the hierarchy and of
// user/role assignments. Creates are patched in point-wise; bulk deletes
// invalidate too much state to patch, so those trigger a full per-level
// reload that swaps the level's whole map under the write lock — readers
// never observe a mix of pre- and post-reload data.
package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/tenantforge/tenantforge/internal/access"
	tenantdomain "github.com/tenantforge/tenantforge/internal/tenant/domain"
	userdomain "github.com/tenantforge/tenantforge/internal/user/domain"
)

// Hierarchy is the read-side mirror. All methods are safe for concurrent use.
type Hierarchy struct {
	mu sync.RWMutex

	tenants tenantdomain.Repository
	users   userdomain.Repository

	customers       map[snowflake.ID]tenantdomain.Customer
	customersByName map[string]snowflake.ID

	organizations map[snowflake.ID]tenantdomain.Organization
	orgsByName    map[string]snowflake.ID

	institutions map[snowflake.ID]tenantdomain.Institution
	instsByName  map[string]snowflake.ID

	units       map[snowflake.ID]tenantdomain.OrganizationUnit
	unitsByName map[string]snowflake.ID

	usersByID       map[snowflake.ID]userdomain.User
	usersByUsername map[string]snowflake.ID

	roles map[string]access.Role
}

func NewHierarchy(tenants tenantdomain.Repository, users userdomain.Repository) *Hierarchy {
	return &Hierarchy{
		tenants:         tenants,
		users:           users,
		customers:       make(map[snowflake.ID]tenantdomain.Customer),
		customersByName: make(map[string]snowflake.ID),
		organizations:   make(map[snowflake.ID]tenantdomain.Organization),
		orgsByName:      make(map[string]snowflake.ID),
		institutions:    make(map[snowflake.ID]tenantdomain.Institution),
		instsByName:     make(map[string]snowflake.ID),
		units:           make(map[snowflake.ID]tenantdomain.OrganizationUnit),
		unitsByName:     make(map[string]snowflake.ID),
		usersByID:       make(map[snowflake.ID]userdomain.User),
		usersByUsername: make(map[string]snowflake.ID),
		roles:           make(map[string]access.Role),
	}
}

func scopeName(name string, scope ...snowflake.ID) string {
	key := ""
	for _, id := range scope {
		key += id.String() + "/"
	}
	return fmt.Sprintf("%s%s", key, name)
}

func (h *Hierarchy) InsertCustomer(customer tenantdomain.Customer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.customers[customer.ID] = customer
	h.customersByName[scopeName(customer.Name)] = customer.ID
}

func (h *Hierarchy) InsertOrganization(org tenantdomain.Organization) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.organizations[org.ID] = org
	h.orgsByName[scopeName(org.Name, org.CustomerID)] = org.ID
}

func (h *Hierarchy) InsertInstitution(inst tenantdomain.Institution) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.institutions[inst.ID] = inst
	h.instsByName[scopeName(inst.Name, inst.CustomerID, inst.OrganizationID)] = inst.ID
}

func (h *Hierarchy) InsertOrganizationUnit(unit tenantdomain.OrganizationUnit) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.units[unit.ID] = unit
	h.unitsByName[scopeName(unit.Name, unit.CustomerID, unit.OrganizationID, unit.InstitutionID)] = unit.ID
}

func (h *Hierarchy) InsertUser(user userdomain.User) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.usersByID[user.ID] = user
	h.usersByUsername[user.Details.Username] = user.ID
}

func (h *Hierarchy) InsertRoles(roles []access.Role) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, role := range roles {
		h.roles[role.Name] = role
	}
}

// Reload discards and rebuilds one level's mirror from the repository. The
// swap happens under the write lock, so readers see either the old or the
// new set, never both.
func (h *Hierarchy) Reload(ctx context.Context, level access.Level) error {
	switch level {
	case access.LevelCustomer:
		items, err := h.tenants.ListCustomers(ctx)
		if err != nil {
			return err
		}
		byID := make(map[snowflake.ID]tenantdomain.Customer, len(items))
		byName := make(map[string]snowflake.ID, len(items))
		for _, item := range items {
			byID[item.ID] = item
			byName[scopeName(item.Name)] = item.ID
		}
		h.mu.Lock()
		h.customers, h.customersByName = byID, byName
		h.mu.Unlock()
	case access.LevelOrganization:
		items, err := h.tenants.ListOrganizations(ctx)
		if err != nil {
			return err
		}
		byID := make(map[snowflake.ID]tenantdomain.Organization, len(items))
		byName := make(map[string]snowflake.ID, len(items))
		for _, item := range items {
			byID[item.ID] = item
			byName[scopeName(item.Name, item.CustomerID)] = item.ID
		}
		h.mu.Lock()
		h.organizations, h.orgsByName = byID, byName
		h.mu.Unlock()
	case access.LevelInstitution:
		items, err := h.tenants.ListInstitutions(ctx)
		if err != nil {
			return err
		}
		byID := make(map[snowflake.ID]tenantdomain.Institution, len(items))
		byName := make(map[string]snowflake.ID, len(items))
		for _, item := range items {
			byID[item.ID] = item
			byName[scopeName(item.Name, item.CustomerID, item.OrganizationID)] = item.ID
		}
		h.mu.Lock()
		h.institutions, h.instsByName = byID, byName
		h.mu.Unlock()
	case access.LevelOrganizationUnit:
		items, err := h.tenants.ListOrganizationUnits(ctx)
		if err != nil {
			return err
		}
		byID := make(map[snowflake.ID]tenantdomain.OrganizationUnit, len(items))
		byName := make(map[string]snowflake.ID, len(items))
		for _, item := range items {
			byID[item.ID] = item
			byName[scopeName(item.Name, item.CustomerID, item.OrganizationID, item.InstitutionID)] = item.ID
		}
		h.mu.Lock()
		h.units, h.unitsByName = byID, byName
		h.mu.Unlock()
	default:
		return fmt.Errorf("cache: unknown level %q", level)
	}
	return nil
}

// ReloadUsers rebuilds the user mirror from the repository.
func (h *Hierarchy) ReloadUsers(ctx context.Context) error {
	items, err := h.users.List(ctx)
	if err != nil {
		return err
	}
	byID := make(map[snowflake.ID]userdomain.User, len(items))
	byUsername := make(map[string]snowflake.ID, len(items))
	for _, item := range items {
		byID[item.ID] = item
		byUsername[item.Details.Username] = item.ID
	}
	h.mu.Lock()
	h.usersByID, h.usersByUsername = byID, byUsername
	h.mu.Unlock()
	return nil
}

func (h *Hierarchy) CustomerByID(id snowflake.ID) (tenantdomain.Customer, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	item, ok := h.customers[id]
	return item, ok
}

func (h *Hierarchy) CustomerByName(name string) (tenantdomain.Customer, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	id, ok := h.customersByName[scopeName(name)]
	if !ok {
		return tenantdomain.Customer{}, false
	}
	item, ok := h.customers[id]
	return item, ok
}

func (h *Hierarchy) OrganizationByName(customerID snowflake.ID, name string) (tenantdomain.Organization, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	id, ok := h.orgsByName[scopeName(name, customerID)]
	if !ok {
		return tenantdomain.Organization{}, false
	}
	item, ok := h.organizations[id]
	return item, ok
}

func (h *Hierarchy) InstitutionByName(scope tenantdomain.OrganizationID, name string) (tenantdomain.Institution, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	id, ok := h.instsByName[scopeName(name, scope.CustomerID, scope.ID)]
	if !ok {
		return tenantdomain.Institution{}, false
	}
	item, ok := h.institutions[id]
	return item, ok
}

func (h *Hierarchy) OrganizationUnitByName(scope tenantdomain.InstitutionID, name string) (tenantdomain.OrganizationUnit, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	id, ok := h.unitsByName[scopeName(name, scope.CustomerID, scope.OrganizationID, scope.ID)]
	if !ok {
		return tenantdomain.OrganizationUnit{}, false
	}
	item, ok := h.units[id]
	return item, ok
}

func (h *Hierarchy) UserByUsername(username string) (userdomain.User, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	id, ok := h.usersByUsername[username]
	if !ok {
		return userdomain.User{}, false
	}
	item, ok := h.usersByID[id]
	return item, ok
}

func (h *Hierarchy) Role(name string) (access.Role, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	role, ok := h.roles[name]
	return role, ok
}

// Customers returns a stable-ordered snapshot of the customer mirror.
func (h *Hierarchy) Customers() []tenantdomain.Customer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]tenantdomain.Customer, 0, len(h.customers))
	for _, item := range h.customers {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count reports the number of mirrored entities at one level.
func (h *Hierarchy) Count(level access.Level) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	switch level {
	case access.LevelCustomer:
		return len(h.customers)
	case access.LevelOrganization:
		return len(h.organizations)
	case access.LevelInstitution:
		return len(h.institutions)
	case access.LevelOrganizationUnit:
		return len(h.units)
	}
	return 0
}

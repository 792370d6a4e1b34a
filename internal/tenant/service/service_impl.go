// Package service implements the provisioning orchestrator: create-or-conflict
// under a scoped distributed lock, role bootstrap, cache synchronization,
// event emission, and cleanup queuing for bulk deletes.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/tenantforge/tenantforge/internal/access"
	"github.com/tenantforge/tenantforge/internal/authctx"
	"github.com/tenantforge/tenantforge/internal/cache"
	"github.com/tenantforge/tenantforge/internal/cleanup"
	"github.com/tenantforge/tenantforge/internal/events"
	"github.com/tenantforge/tenantforge/internal/identity"
	"github.com/tenantforge/tenantforge/internal/lock"
	"github.com/tenantforge/tenantforge/internal/roles"
	"github.com/tenantforge/tenantforge/internal/tenant/domain"
	userdomain "github.com/tenantforge/tenantforge/internal/user/domain"
	"github.com/tenantforge/tenantforge/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   domain.Repository
	Locks  *lock.Manager
	Roles  roles.Provisioner
	Cache  *cache.Hierarchy
	Queue  cleanup.Queue
	Users  userdomain.Service
	Events events.Publisher `optional:"true"`
}

type Service struct {
	log    *zap.Logger
	genID  *snowflake.Node
	repo   domain.Repository
	locks  *lock.Manager
	roles  roles.Provisioner
	cache  *cache.Hierarchy
	queue  cleanup.Queue
	users  userdomain.Service
	events events.Publisher
}

func New(p Params) domain.Service {
	return &Service{
		log:    p.Log.Named("tenant.service"),
		genID:  p.GenID,
		repo:   p.Repo,
		locks:  p.Locks,
		roles:  p.Roles,
		cache:  p.Cache,
		queue:  p.Queue,
		users:  p.Users,
		events: p.Events,
	}
}

// provisionSpec parameterizes the create algorithm over one hierarchy level.
type provisionSpec[T any] struct {
	name      string
	lockKey   string
	namespace events.Namespace
	collect   string
	find      func(ctx context.Context) (*T, error)
	persist   func(ctx context.Context, entity *T) error
	access    func(entity *T) string
	insert    func(entity *T)
}

// provision runs the locked create-or-conflict sequence. The lock is held
// across check, persist, role bootstrap, cache insert, and event publish,
// and released on every exit path — including caller cancellation, which is
// why release runs on a context detached from the caller's.
func provision[T any](ctx context.Context, s *Service, spec provisionSpec[T]) (*T, error) {
	if _, ok := authctx.UserIDFromContext(ctx); !ok {
		return nil, domain.ErrForbidden
	}

	handle, err := s.locks.Acquire(ctx, spec.lockKey)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return nil, domain.NewLockTimeout(spec.lockKey, err)
		}
		return nil, err
	}
	defer func() {
		if releaseErr := handle.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			s.log.Warn("lock release failed",
				zap.String("key", spec.lockKey), zap.Error(releaseErr))
		}
	}()

	existing, err := spec.find(ctx)
	if err != nil {
		return nil, domain.NewPersistence(err)
	}
	if existing != nil {
		return nil, domain.NewNameConflict(spec.name)
	}

	entity := new(T)
	if err := spec.persist(ctx, entity); err != nil {
		// The unique index backs the lock up: a racing writer that slipped
		// past the check still surfaces as a conflict, not a storage fault.
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.NewNameConflict(spec.name)
		}
		return nil, domain.NewPersistence(err)
	}

	// Roles first, cache second: a reader resolving permissions through the
	// cache must never observe an entity without its role.
	scope := spec.access(entity)
	provisioned, err := s.roles.Ensure(ctx, []string{scope})
	if err != nil {
		return nil, domain.NewRoleProvision(scope, err)
	}
	spec.insert(entity)
	s.cache.InsertRoles(provisioned)

	if s.events != nil {
		if err := s.events.CreateEvent(ctx, spec.namespace, spec.collect, entity); err != nil {
			return nil, domain.NewEventPublish(spec.collect, err)
		}
	}
	return entity, nil
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CreateCustomerRequest) (*domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	result, err := provision(ctx, s, provisionSpec[domain.Customer]{
		name:      name,
		lockKey:   fmt.Sprintf("v1_customer_lock_%s", name),
		namespace: events.NamespaceCustomer,
		collect:   domain.CollectionCustomers,
		find: func(ctx context.Context) (*domain.Customer, error) {
			return s.repo.FindCustomerByName(ctx, name)
		},
		persist: func(ctx context.Context, customer *domain.Customer) error {
			userID, _ := authctx.UserIDFromContext(ctx)
			customer.ID = s.genID.Generate()
			customer.Name = name
			customer.Created = domain.NewModification(userID)
			return s.repo.SaveCustomer(ctx, customer)
		},
		access: func(customer *domain.Customer) string { return customer.AccessScope() },
		insert: func(customer *domain.Customer) { s.cache.InsertCustomer(*customer) },
	})
	if err != nil {
		return nil, err
	}
	if req.InitialUser != nil {
		if err := s.createInitialUser(ctx, result.Owner(), *req.InitialUser); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Service) CreateOrganization(ctx context.Context, req domain.CreateOrganizationRequest) (*domain.Organization, error) {
	name := strings.TrimSpace(req.Name)
	result, err := provision(ctx, s, provisionSpec[domain.Organization]{
		name:      name,
		lockKey:   fmt.Sprintf("v1_organization_lock_%s_%s", req.CustomerID, name),
		namespace: events.NamespaceOrganization,
		collect:   domain.CollectionOrganizations,
		find: func(ctx context.Context) (*domain.Organization, error) {
			return s.repo.FindOrganizationByName(ctx, req.CustomerID, name)
		},
		persist: func(ctx context.Context, org *domain.Organization) error {
			userID, _ := authctx.UserIDFromContext(ctx)
			org.ID = s.genID.Generate()
			org.CustomerID = req.CustomerID
			org.Name = name
			org.Created = domain.NewModification(userID)
			return s.repo.SaveOrganization(ctx, org)
		},
		access: func(org *domain.Organization) string { return org.AccessScope() },
		insert: func(org *domain.Organization) { s.cache.InsertOrganization(*org) },
	})
	if err != nil {
		return nil, err
	}
	if req.InitialUser != nil {
		if err := s.createInitialUser(ctx, result.Owner(), *req.InitialUser); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Service) CreateInstitution(ctx context.Context, req domain.CreateInstitutionRequest) (*domain.Institution, error) {
	name := strings.TrimSpace(req.Name)
	result, err := provision(ctx, s, provisionSpec[domain.Institution]{
		name:      name,
		lockKey:   fmt.Sprintf("v1_institution_lock_%s_%s_%s", req.Scope.CustomerID, req.Scope.ID, name),
		namespace: events.NamespaceInstitution,
		collect:   domain.CollectionInstitutions,
		find: func(ctx context.Context) (*domain.Institution, error) {
			return s.repo.FindInstitutionByName(ctx, req.Scope, name)
		},
		persist: func(ctx context.Context, inst *domain.Institution) error {
			userID, _ := authctx.UserIDFromContext(ctx)
			inst.ID = s.genID.Generate()
			inst.CustomerID = req.Scope.CustomerID
			inst.OrganizationID = req.Scope.ID
			inst.Name = name
			inst.Created = domain.NewModification(userID)
			return s.repo.SaveInstitution(ctx, inst)
		},
		access: func(inst *domain.Institution) string { return inst.AccessScope() },
		insert: func(inst *domain.Institution) { s.cache.InsertInstitution(*inst) },
	})
	if err != nil {
		return nil, err
	}
	if req.InitialUser != nil {
		if err := s.createInitialUser(ctx, result.Owner(), *req.InitialUser); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Service) CreateOrganizationUnit(ctx context.Context, req domain.CreateOrganizationUnitRequest) (*domain.OrganizationUnit, error) {
	name := strings.TrimSpace(req.Name)
	result, err := provision(ctx, s, provisionSpec[domain.OrganizationUnit]{
		name: name,
		lockKey: fmt.Sprintf("v1_organization_unit_lock_%s_%s_%s_%s",
			req.Scope.CustomerID, req.Scope.OrganizationID, req.Scope.ID, name),
		namespace: events.NamespaceOrganizationUnit,
		collect:   domain.CollectionOrganizationUnits,
		find: func(ctx context.Context) (*domain.OrganizationUnit, error) {
			return s.repo.FindOrganizationUnitByName(ctx, req.Scope, name)
		},
		persist: func(ctx context.Context, unit *domain.OrganizationUnit) error {
			userID, _ := authctx.UserIDFromContext(ctx)
			unit.ID = s.genID.Generate()
			unit.CustomerID = req.Scope.CustomerID
			unit.OrganizationID = req.Scope.OrganizationID
			unit.InstitutionID = req.Scope.ID
			unit.Name = name
			unit.Created = domain.NewModification(userID)
			return s.repo.SaveOrganizationUnit(ctx, unit)
		},
		access: func(unit *domain.OrganizationUnit) string { return unit.AccessScope() },
		insert: func(unit *domain.OrganizationUnit) { s.cache.InsertOrganizationUnit(*unit) },
	})
	if err != nil {
		return nil, err
	}
	if req.InitialUser != nil {
		if err := s.createInitialUser(ctx, result.Owner(), *req.InitialUser); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// createInitialUser attaches the level's owner user to a freshly created
// entity. Sequential by construction: the entity must exist before its owner
// reference can be formed.
func (s *Service) createInitialUser(ctx context.Context, owner domain.Owner, input identity.UserInput) error {
	_, err := s.users.Create(ctx, userdomain.CreateUserRequest{
		User:    input,
		Group:   owner.Level.OwnerGroup(),
		Access:  owner.AccessScope(),
		Context: owner,
	})
	return err
}

// remove batch-deletes one level's entities by id. Zero requested or zero
// matched ids short-circuit with count 0; a non-empty delete reloads the
// level's cache wholesale and queues exactly one cleanup task carrying the
// requested (unfiltered) id set.
func (s *Service) remove(
	ctx context.Context,
	level access.Level,
	taskType cleanup.TaskType,
	ids []snowflake.ID,
	del func(ctx context.Context, ids []snowflake.ID) (int64, error),
) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	count, err := del(ctx, ids)
	if err != nil {
		return 0, domain.NewPersistence(err)
	}
	if count == 0 {
		return 0, nil
	}
	if err := s.cache.Reload(ctx, level); err != nil {
		return 0, domain.NewCacheSync(level.String(), err)
	}
	task := cleanup.Task{
		ID:        uuid.NewString(),
		Type:      taskType,
		EntityIDs: idStrings(ids),
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return 0, err
	}
	s.log.Debug("emit cleanup task", zap.String("task_id", task.ID))
	return count, nil
}

func idStrings(ids []snowflake.ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func (s *Service) RemoveCustomers(ctx context.Context, ids []snowflake.ID) (int64, error) {
	return s.remove(ctx, access.LevelCustomer, cleanup.TaskCustomers, ids, s.repo.DeleteCustomers)
}

func (s *Service) RemoveOrganizations(ctx context.Context, ids []snowflake.ID) (int64, error) {
	return s.remove(ctx, access.LevelOrganization, cleanup.TaskOrganizations, ids, s.repo.DeleteOrganizations)
}

func (s *Service) RemoveInstitutions(ctx context.Context, ids []snowflake.ID) (int64, error) {
	return s.remove(ctx, access.LevelInstitution, cleanup.TaskInstitutions, ids, s.repo.DeleteInstitutions)
}

func (s *Service) RemoveOrganizationUnits(ctx context.Context, ids []snowflake.ID) (int64, error) {
	return s.remove(ctx, access.LevelOrganizationUnit, cleanup.TaskOrganizationUnits, ids, s.repo.DeleteOrganizationUnits)
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	return s.repo.ListOrganizations(ctx)
}

func (s *Service) ListInstitutions(ctx context.Context) ([]domain.Institution, error) {
	return s.repo.ListInstitutions(ctx)
}

func (s *Service) ListOrganizationUnits(ctx context.Context) ([]domain.OrganizationUnit, error) {
	return s.repo.ListOrganizationUnits(ctx)
}

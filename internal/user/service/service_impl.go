// Package service provisions users attached to hierarchy entities: identity
// registration, username uniqueness under a distributed lock, role and group
// bootstrap, cache synchronization, and event emission.
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
	tenantdomain "github.com/tenantforge/tenantforge/internal/tenant/domain"
	"github.com/tenantforge/tenantforge/internal/user/domain"
	"github.com/tenantforge/tenantforge/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Repo     domain.Repository
	Identity identity.Provider
	Locks    *lock.Manager
	Roles    roles.Provisioner
	Cache    *cache.Hierarchy
	Queue    cleanup.Queue
	Events   events.Publisher `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	repo     domain.Repository
	identity identity.Provider
	locks    *lock.Manager
	roles    roles.Provisioner
	cache    *cache.Hierarchy
	queue    cleanup.Queue
	events   events.Publisher
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("user.service"),
		repo:     p.Repo,
		identity: p.Identity,
		locks:    p.Locks,
		roles:    p.Roles,
		cache:    p.Cache,
		queue:    p.Queue,
		events:   p.Events,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	actingUser, ok := authctx.UserIDFromContext(ctx)
	if !ok {
		return nil, tenantdomain.ErrForbidden
	}
	if !req.Context.Valid() {
		return nil, errors.New("user: owner context is not set")
	}
	level, ok := access.LevelOf(req.Access)
	if !ok || level != req.Context.Level {
		return nil, domain.ErrAccessMismatch
	}

	username := strings.TrimSpace(req.User.Username)
	lockKey := fmt.Sprintf("v1_user_lock_%s", username)
	handle, err := s.locks.Acquire(ctx, lockKey)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return nil, tenantdomain.NewLockTimeout(lockKey, err)
		}
		return nil, err
	}
	defer func() {
		if releaseErr := handle.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			s.log.Warn("lock release failed", zap.String("key", lockKey), zap.Error(releaseErr))
		}
	}()

	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, tenantdomain.NewPersistence(err)
	}
	if existing != nil {
		return nil, tenantdomain.NewNameConflict(username)
	}

	details, err := s.identity.Register(ctx, req.User)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:      details.UserID,
		Groups:  datatypes.NewJSONSlice([]string{req.Group}),
		Access:  req.Access,
		Details: details,
		Created: tenantdomain.NewModification(actingUser),
	}
	user.SetOwner(req.Context)
	if err := s.repo.Save(ctx, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, tenantdomain.NewNameConflict(username)
		}
		return nil, tenantdomain.NewPersistence(err)
	}

	provisioned, err := s.roles.Ensure(ctx, []string{req.Access})
	if err != nil {
		return nil, tenantdomain.NewRoleProvision(req.Access, err)
	}
	if err := s.roles.Grant(ctx, details.UserID.String(), []string{req.Access, req.Group}); err != nil {
		return nil, tenantdomain.NewRoleProvision(req.Access, err)
	}
	s.cache.InsertUser(*user)
	s.cache.InsertRoles(provisioned)

	if s.events != nil {
		if err := s.events.CreateEvent(ctx, events.NamespaceUser, domain.CollectionUsers, user); err != nil {
			return nil, tenantdomain.NewEventPublish(domain.CollectionUsers, err)
		}
	}
	return user, nil
}

func (s *Service) Remove(ctx context.Context, ids []snowflake.ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	count, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, tenantdomain.NewPersistence(err)
	}
	if count == 0 {
		return 0, nil
	}
	if err := s.cache.ReloadUsers(ctx); err != nil {
		return 0, tenantdomain.NewCacheSync("users", err)
	}
	task := cleanup.Task{
		ID:        uuid.NewString(),
		Type:      cleanup.TaskUsers,
		EntityIDs: idStrings(ids),
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return 0, err
	}
	s.log.Debug("emit cleanup task", zap.String("task_id", task.ID))
	return count, nil
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

func idStrings(ids []snowflake.ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

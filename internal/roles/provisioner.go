// Package roles ensures authorization roles exist for access-scope strings.
package roles

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/tenantforge/tenantforge/internal/access"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

// Object and action granted to every provisioned access role. Finer-grained
// policies are layered on by the authorization system, not by this core.
const (
	objectTenant = "tenant"
	actionManage = "manage"
)

// Provisioner upserts authorization roles. Ensure is idempotent: ensuring an
// access-scope string that already has a role is a no-op returning the same
// role record.
type Provisioner interface {
	Ensure(ctx context.Context, scopes []string) ([]access.Role, error)
	Grant(ctx context.Context, subject string, roleNames []string) error
}

// NewEnforcer builds a synced casbin enforcer persisted through gorm.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

type casbinProvisioner struct {
	enforcer *casbin.SyncedEnforcer
	log      *zap.Logger
}

func NewProvisioner(enforcer *casbin.SyncedEnforcer, log *zap.Logger) Provisioner {
	return &casbinProvisioner{enforcer: enforcer, log: log.Named("roles")}
}

func (p *casbinProvisioner) Ensure(ctx context.Context, scopes []string) ([]access.Role, error) {
	_ = ctx
	out := make([]access.Role, 0, len(scopes))
	for _, scope := range scopes {
		scope = strings.TrimSpace(scope)
		if scope == "" {
			continue
		}
		added, err := p.enforcer.AddPolicy(scope, objectTenant, actionManage)
		if err != nil {
			return nil, err
		}
		if added {
			p.log.Debug("provisioned role", zap.String("role", scope))
		}
		out = append(out, access.Role{Name: scope})
	}
	return out, nil
}

func (p *casbinProvisioner) Grant(ctx context.Context, subject string, roleNames []string) error {
	_ = ctx
	for _, role := range roleNames {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		if _, err := p.enforcer.AddGroupingPolicy(subject, role); err != nil {
			return err
		}
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tenantforge/tenantforge/internal/access"
	"github.com/tenantforge/tenantforge/internal/authctx"
	"github.com/tenantforge/tenantforge/internal/cache"
	"github.com/tenantforge/tenantforge/internal/cleanup"
	"github.com/tenantforge/tenantforge/internal/identity"
	"github.com/tenantforge/tenantforge/internal/lock"
	tenantdomain "github.com/tenantforge/tenantforge/internal/tenant/domain"
	"github.com/tenantforge/tenantforge/internal/user/domain"
	"go.uber.org/zap"
)

type userRepoStub struct {
	mu    sync.Mutex
	users map[snowflake.ID]domain.User

	saveErr error
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[snowflake.ID]domain.User)}
}

func (r *userRepoStub) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Details.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}

func (r *userRepoStub) Save(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.users[user.ID] = *user
	return nil
}

func (r *userRepoStub) DeleteMany(ctx context.Context, ids []snowflake.ID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, id := range ids {
		if _, ok := r.users[id]; ok {
			delete(r.users, id)
			count++
		}
	}
	return count, nil
}

func (r *userRepoStub) List(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

type identityStub struct {
	mu    sync.Mutex
	node  *snowflake.Node
	calls int
	err   error
}

func (p *identityStub) Register(ctx context.Context, input identity.UserInput) (identity.UserDetails, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return identity.UserDetails{}, p.err
	}
	return identity.UserDetails{
		UserID:    p.node.Generate(),
		Username:  input.Username,
		Firstname: input.Firstname,
		Lastname:  input.Lastname,
		Email:     input.Email,
		Enabled:   true,
	}, nil
}

type rolesRecorder struct {
	mu      sync.Mutex
	ensured []string
	grants  map[string][]string
	err     error
}

func newRolesRecorder() *rolesRecorder {
	return &rolesRecorder{grants: make(map[string][]string)}
}

func (r *rolesRecorder) Ensure(ctx context.Context, scopes []string) ([]access.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]access.Role, 0, len(scopes))
	for _, scope := range scopes {
		r.ensured = append(r.ensured, scope)
		out = append(out, access.Role{Name: scope})
	}
	return out, nil
}

func (r *rolesRecorder) Grant(ctx context.Context, subject string, roleNames []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.grants[subject] = append(r.grants[subject], roleNames...)
	return nil
}

type taskRecorder struct {
	mu    sync.Mutex
	tasks []cleanup.Task
}

func (q *taskRecorder) Enqueue(ctx context.Context, task cleanup.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return nil
}

type userFixture struct {
	service  *Service
	repo     *userRepoStub
	identity *identityStub
	roles    *rolesRecorder
	queue    *taskRecorder
	cache    *cache.Hierarchy
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	repo := newUserRepoStub()
	provider := &identityStub{node: node}
	roleStub := newRolesRecorder()
	queue := &taskRecorder{}
	hierarchy := cache.NewHierarchy(nil, repo)
	locks := lock.NewManager(lock.NewMemoryBackend(), lock.Options{
		TTL:      time.Second,
		Retries:  50,
		Interval: time.Millisecond,
	}, zap.NewNop())

	svc := New(Params{
		Log:      zap.NewNop(),
		Repo:     repo,
		Identity: provider,
		Locks:    locks,
		Roles:    roleStub,
		Cache:    hierarchy,
		Queue:    queue,
	}).(*Service)

	return &userFixture{
		service:  svc,
		repo:     repo,
		identity: provider,
		roles:    roleStub,
		queue:    queue,
		cache:    hierarchy,
	}
}

func ownerContext() tenantdomain.Owner {
	return tenantdomain.OwnerOfOrganization(tenantdomain.OrganizationID{CustomerID: 1, ID: 2})
}

func createRequest() domain.CreateUserRequest {
	owner := ownerContext()
	return domain.CreateUserRequest{
		User: identity.UserInput{
			Username:  "jdoe",
			Firstname: "Jane",
			Lastname:  "Doe",
			Email:     "jdoe@example.com",
			Password:  "initial-secret",
		},
		Group:   owner.Level.OwnerGroup(),
		Access:  owner.AccessScope(),
		Context: owner,
	}
}

func actingUserCtx(t *testing.T) context.Context {
	t.Helper()
	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return authctx.WithUserID(context.Background(), node.Generate())
}

func TestCreateUserRequiresActingUser(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.service.Create(context.Background(), createRequest())
	if !errors.Is(err, tenantdomain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if f.identity.calls != 0 {
		t.Fatalf("expected no identity registration, got %d", f.identity.calls)
	}
}

func TestCreateUserAccessMismatch(t *testing.T) {
	f := newUserFixture(t)
	ctx := actingUserCtx(t)

	req := createRequest()
	req.Access = "customer:1"
	_, err := f.service.Create(ctx, req)
	if !errors.Is(err, domain.ErrAccessMismatch) {
		t.Fatalf("expected access mismatch, got %v", err)
	}
	if f.identity.calls != 0 {
		t.Fatalf("expected no identity registration, got %d", f.identity.calls)
	}
}

func TestCreateUserInvalidOwnerContext(t *testing.T) {
	f := newUserFixture(t)
	ctx := actingUserCtx(t)

	req := createRequest()
	req.Context = tenantdomain.Owner{Level: access.LevelOrganization}
	if _, err := f.service.Create(ctx, req); err == nil {
		t.Fatal("expected error for unset owner context")
	}
}

func TestCreateUser(t *testing.T) {
	f := newUserFixture(t)
	ctx := actingUserCtx(t)
	req := createRequest()

	user, err := f.service.Create(ctx, req)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected provider-assigned id")
	}
	if user.OwnerLevel != access.LevelOrganization {
		t.Fatalf("unexpected owner level %q", user.OwnerLevel)
	}
	if user.Access != "organization:1/2" {
		t.Fatalf("unexpected access %q", user.Access)
	}
	if len(user.Groups) != 1 || user.Groups[0] != access.GroupOrganizationOwner {
		t.Fatalf("unexpected groups %v", user.Groups)
	}

	f.roles.mu.Lock()
	granted := f.roles.grants[user.ID.String()]
	f.roles.mu.Unlock()
	if len(granted) != 2 || granted[0] != req.Access || granted[1] != req.Group {
		t.Fatalf("expected grants [%s %s], got %v", req.Access, req.Group, granted)
	}

	if _, ok := f.cache.UserByUsername("jdoe"); !ok {
		t.Fatal("expected user in cache")
	}
}

func TestCreateUserUsernameConflict(t *testing.T) {
	f := newUserFixture(t)
	ctx := actingUserCtx(t)

	if _, err := f.service.Create(ctx, createRequest()); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := f.service.Create(ctx, createRequest())
	if !tenantdomain.IsKind(err, tenantdomain.KindNameConflict) {
		t.Fatalf("expected name conflict, got %v", err)
	}
	// Registration happens after the conflict check, so the losing call must
	// not have reached the identity provider a second time.
	if f.identity.calls != 1 {
		t.Fatalf("expected 1 registration, got %d", f.identity.calls)
	}
}

func TestCreateUserConcurrentSameUsername(t *testing.T) {
	f := newUserFixture(t)
	ctx := actingUserCtx(t)

	const racers = 6
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		go func() {
			_, err := f.service.Create(ctx, createRequest())
			results <- err
		}()
	}

	var wins int
	for i := 0; i < racers; i++ {
		err := <-results
		switch {
		case err == nil:
			wins++
		case tenantdomain.IsKind(err, tenantdomain.KindNameConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected one winner, got %d", wins)
	}
	if f.identity.calls != 1 {
		t.Fatalf("expected 1 registration, got %d", f.identity.calls)
	}
}

func TestRemoveUsers(t *testing.T) {
	f := newUserFixture(t)
	ctx := actingUserCtx(t)

	user, err := f.service.Create(ctx, createRequest())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	count, err := f.service.Remove(ctx, nil)
	if err != nil || count != 0 {
		t.Fatalf("expected 0 for empty input, got %d %v", count, err)
	}

	node, _ := snowflake.NewNode(4)
	missing := node.Generate()
	requested := []snowflake.ID{user.ID, missing}
	count, err = f.service.Remove(ctx, requested)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 matched, got %d", count)
	}

	f.queue.mu.Lock()
	defer f.queue.mu.Unlock()
	if len(f.queue.tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(f.queue.tasks))
	}
	task := f.queue.tasks[0]
	if task.Type != cleanup.TaskUsers {
		t.Fatalf("expected users task, got %s", task.Type)
	}
	if len(task.EntityIDs) != 2 || task.EntityIDs[1] != missing.String() {
		t.Fatalf("expected requested id set, got %v", task.EntityIDs)
	}
	if _, ok := f.cache.UserByUsername("jdoe"); ok {
		t.Fatal("expected user mirror reloaded without jdoe")
	}
}

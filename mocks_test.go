package machines_test

import (
	"context"
	"database/sql"
	"encoding/json"

	machines "github.com/goliatone/go-machines"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// routerCtx aliases the router interface so embedding it does not collide
// with the Context accessor the fake overrides.
type routerCtx = router.Context

// fakeContext implements the router surface the handlers touch. The embedded
// interface covers the rest, so any unstubbed call panics loudly instead of
// passing silently.
type fakeContext struct {
	routerCtx

	headers map[string]string
	locals  map[any]any
	params  map[string]string
	queries map[string]string

	payload any
	bindErr error

	stdCtx     context.Context
	nextCalled bool

	statusCode int
	response   any
}

func newFakeContext() *fakeContext {
	return &fakeContext{
		headers: map[string]string{},
		locals:  map[any]any{},
		params:  map[string]string{},
		queries: map[string]string{},
		stdCtx:  context.Background(),
	}
}

func (f *fakeContext) Next() error {
	f.nextCalled = true
	return nil
}

func (f *fakeContext) Context() context.Context {
	return f.stdCtx
}

func (f *fakeContext) SetContext(ctx context.Context) {
	f.stdCtx = ctx
}

func (f *fakeContext) GetString(key string, defaultValue string) string {
	if v, ok := f.headers[key]; ok && v != "" {
		return v
	}
	return defaultValue
}

func (f *fakeContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		f.locals[key] = value[0]
		return value[0]
	}
	return f.locals[key]
}

func (f *fakeContext) Param(key string, defaultValue ...string) string {
	if v, ok := f.params[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (f *fakeContext) Query(key string, defaultValue string) string {
	if v, ok := f.queries[key]; ok {
		return v
	}
	return defaultValue
}

func (f *fakeContext) Bind(i any) error {
	if f.bindErr != nil {
		return f.bindErr
	}
	if f.payload == nil {
		return nil
	}
	raw, err := json.Marshal(f.payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, i)
}

func (f *fakeContext) JSON(code int, val any) error {
	f.statusCode = code
	f.response = val
	return nil
}

func (f *fakeContext) Status(code int) router.Context {
	f.statusCode = code
	return f
}

func (f *fakeContext) Method() string {
	return "GET"
}

func (f *fakeContext) OriginalURL() string {
	return "/"
}

// body returns the JSON envelope the handler wrote.
func (f *fakeContext) body() map[string]any {
	m, ok := f.response.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

// stubMachines satisfies MachineRecords. Only the methods the handlers call
// are stubbed; the embedded interface panics on anything else.
type stubMachines struct {
	machines.MachineRecords

	byID       map[string]*machines.Machine
	listing    []*machines.Machine
	registered *machines.Machine
	updated    *machines.Machine

	searchedType string
	deletedID    uuid.UUID

	err       error
	deleteErr error
}

func (s *stubMachines) Register(ctx context.Context, record *machines.Machine) (*machines.Machine, error) {
	if s.err != nil {
		return nil, s.err
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.registered = record
	return record, nil
}

func (s *stubMachines) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*machines.Machine, error) {
	if s.err != nil {
		return nil, s.err
	}
	record, ok := s.byID[id]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	return record, nil
}

func (s *stubMachines) Update(ctx context.Context, record *machines.Machine, criteria ...repository.UpdateCriteria) (*machines.Machine, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.updated = record
	return record, nil
}

func (s *stubMachines) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*machines.Machine, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := []*machines.Machine{}
	for _, m := range s.listing {
		if m.OwnedBy(ownerID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubMachines) ListAll(ctx context.Context) ([]*machines.Machine, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.listing, nil
}

func (s *stubMachines) SearchByType(ctx context.Context, ownerID uuid.UUID, machineType string) ([]*machines.Machine, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.searchedType = machineType
	out := []*machines.Machine{}
	for _, m := range s.listing {
		if m.OwnedBy(ownerID) && m.Type == machineType {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubMachines) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedID = id
	return nil
}

// stubUsers satisfies the Users repository for auth flows.
type stubUsers struct {
	machines.Users

	byID         map[string]*machines.User
	byIdentifier map[string]*machines.User

	tracked    *machines.User
	registered *machines.User

	err error
}

func (s *stubUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*machines.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.byID[id]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	return user, nil
}

func (s *stubUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*machines.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.byIdentifier[identifier]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	return user, nil
}

func (s *stubUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *machines.User) (*machines.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.registered = user
	s.byID[user.ID.String()] = user
	s.byIdentifier[user.Email] = user
	return user, nil
}

func (s *stubUsers) TrackSuccessfulLogin(ctx context.Context, user *machines.User) error {
	s.tracked = user
	return nil
}

// stubRepoManager wires the stub repositories behind the manager interface.
type stubRepoManager struct {
	users    *stubUsers
	machines *stubMachines
}

func newStubRepoManager() *stubRepoManager {
	return &stubRepoManager{
		users: &stubUsers{
			byID:         map[string]*machines.User{},
			byIdentifier: map[string]*machines.User{},
		},
		machines: &stubMachines{
			byID: map[string]*machines.Machine{},
		},
	}
}

func (m *stubRepoManager) Users() machines.Users {
	return m.users
}

func (m *stubRepoManager) Machines() machines.MachineRecords {
	return m.machines
}

func (m *stubRepoManager) Validate() error {
	return nil
}

func (m *stubRepoManager) MustValidate() {}

func (m *stubRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

var _ machines.RepositoryManager = (*stubRepoManager)(nil)

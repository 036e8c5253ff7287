package mutation

import (
	"context"
	"sync"
	"time"

	"github.com/phillip-england/cineadmin/internal/apiclient"
	"github.com/phillip-england/cineadmin/internal/records"
)

type fakeUsers struct {
	mu      sync.Mutex
	users   map[records.ID]records.User
	created []records.User
	updates map[records.ID]records.UserUpdate
	deleted []records.ID
	fail    error
}

func newFakeUsers(users ...records.User) *fakeUsers {
	f := &fakeUsers{users: make(map[records.ID]records.User), updates: make(map[records.ID]records.UserUpdate)}
	for _, u := range users {
		f.users[u.UserID] = u
	}
	return f
}

func (f *fakeUsers) CreateUser(ctx context.Context, user records.User) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return "", f.fail
	}
	f.created = append(f.created, user)
	f.users[user.UserID] = user
	return "User created", nil
}

func (f *fakeUsers) UpdateUser(ctx context.Context, id records.ID, update records.UserUpdate) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return "", f.fail
	}
	f.updates[id] = update
	return "User updated", nil
}

func (f *fakeUsers) DeleteUser(ctx context.Context, id records.ID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return "", f.fail
	}
	f.deleted = append(f.deleted, id)
	delete(f.users, id)
	return "User deleted", nil
}

func (f *fakeUsers) list() []records.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]records.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out
}

// manualTimer captures scheduled dismissals so tests fire them explicitly.
type manualTimer struct {
	mu      sync.Mutex
	pending []func()
	delays  []time.Duration
}

func (m *manualTimer) after(d time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := len(m.pending)
	m.pending = append(m.pending, f)
	m.delays = append(m.delays, d)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.pending[idx] == nil {
			return false
		}
		m.pending[idx] = nil
		return true
	}
}

func (m *manualTimer) fireAll() {
	m.mu.Lock()
	fns := m.pending
	m.pending = make([]func(), len(fns))
	m.mu.Unlock()
	for _, f := range fns {
		if f != nil {
			f()
		}
	}
}

var (
	errConflict = &apiclient.Error{Status: 409, Message: "UserID already exists"}
	errNotFound = &apiclient.Error{Status: 404, Message: "User not found"}
)

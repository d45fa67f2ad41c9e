// Package mockapi provides a testify-based mock of the remote user API client.
// It is used by store and router tests to simulate upstream behavior
// without a network round-trip.
package mockapi

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/userfront/internal/user"
)

// ClientMock is a testify mock that implements the API client interface
// consumed by the store.
type ClientMock struct {
	mock.Mock

	// OnListUsers is an optional function field that can be assigned
	// to define custom behavior for ListUsers in tests, for example to
	// block until the test releases the call.
	//
	// If set, ListUsers will delegate to this function instead of
	// using testify's generic mock handler.
	OnListUsers func(ctx context.Context) ([]user.User, error)

	// OnUpdateUser and OnDeleteUser work like OnListUsers for their methods.
	OnUpdateUser func(ctx context.Context, id int, patch user.Patch) (user.User, error)
	OnDeleteUser func(ctx context.Context, id int) error
}

// ListUsers mocks fetching the user list.
func (m *ClientMock) ListUsers(ctx context.Context) ([]user.User, error) {
	if m.OnListUsers != nil {
		return m.OnListUsers(ctx)
	}
	args := m.Called(ctx)
	users, _ := args.Get(0).([]user.User)
	return users, args.Error(1)
}

// CreateUser mocks user creation.
func (m *ClientMock) CreateUser(ctx context.Context, payload user.Payload) (user.User, error) {
	args := m.Called(ctx, payload)
	return args.Get(0).(user.User), args.Error(1)
}

// UpdateUser mocks patching a user.
func (m *ClientMock) UpdateUser(ctx context.Context, id int, patch user.Patch) (user.User, error) {
	if m.OnUpdateUser != nil {
		return m.OnUpdateUser(ctx, id, patch)
	}
	args := m.Called(ctx, id, patch)
	return args.Get(0).(user.User), args.Error(1)
}

// DeleteUser mocks deleting a user.
func (m *ClientMock) DeleteUser(ctx context.Context, id int) error {
	if m.OnDeleteUser != nil {
		return m.OnDeleteUser(ctx, id)
	}
	args := m.Called(ctx, id)
	return args.Error(0)
}

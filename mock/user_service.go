package mock

import (
	"context"

	"github.com/influxdata/userd"
	"github.com/influxdata/userd/kit/platform"
)

var _ userd.UserService = (*UserService)(nil)

// UserService is a mock implementation of userd.UserService.
type UserService struct {
	FindUserByIDFn func(context.Context, platform.ID) (*userd.User, error)
	FindUsersFn    func(context.Context) ([]*userd.User, error)
	CreateUserFn   func(context.Context, userd.UserInput) (*userd.User, error)
	UpdateUserFn   func(context.Context, platform.ID, userd.UserInput) (*userd.User, error)
	DeleteUserFn   func(context.Context, platform.ID) (*userd.User, error)
}

// NewUserService returns a mock of UserService where its methods will return zero values.
func NewUserService() *UserService {
	return &UserService{
		FindUserByIDFn: func(context.Context, platform.ID) (*userd.User, error) { return nil, nil },
		FindUsersFn:    func(context.Context) ([]*userd.User, error) { return nil, nil },
		CreateUserFn:   func(context.Context, userd.UserInput) (*userd.User, error) { return nil, nil },
		UpdateUserFn:   func(context.Context, platform.ID, userd.UserInput) (*userd.User, error) { return nil, nil },
		DeleteUserFn:   func(context.Context, platform.ID) (*userd.User, error) { return nil, nil },
	}
}

// FindUserByID returns a single User by ID.
func (s *UserService) FindUserByID(ctx context.Context, id platform.ID) (*userd.User, error) {
	return s.FindUserByIDFn(ctx, id)
}

// FindUsers returns every User.
func (s *UserService) FindUsers(ctx context.Context) ([]*userd.User, error) {
	return s.FindUsersFn(ctx)
}

// CreateUser creates a new User.
func (s *UserService) CreateUser(ctx context.Context, in userd.UserInput) (*userd.User, error) {
	return s.CreateUserFn(ctx, in)
}

// UpdateUser updates a User.
func (s *UserService) UpdateUser(ctx context.Context, id platform.ID, in userd.UserInput) (*userd.User, error) {
	return s.UpdateUserFn(ctx, id, in)
}

// DeleteUser removes a User by ID.
func (s *UserService) DeleteUser(ctx context.Context, id platform.ID) (*userd.User, error) {
	return s.DeleteUserFn(ctx, id)
}

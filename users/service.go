package users

import (
	"context"

	"github.com/influxdata/userd"
	"github.com/influxdata/userd/kit/platform"
	"github.com/influxdata/userd/kit/tracing"
	"github.com/influxdata/userd/kv"
)

var _ userd.UserService = (*Service)(nil)

// Service implements userd.UserService on a Store. Each call runs in
// exactly one store transaction.
type Service struct {
	store *Store
}

// NewService returns a user service backed by st.
func NewService(st *Store) *Service {
	return &Service{
		store: st,
	}
}

// FindUserByID returns a single user by ID.
func (s *Service) FindUserByID(ctx context.Context, id platform.ID) (*userd.User, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	var user *userd.User
	err := s.store.View(ctx, func(tx kv.Tx) error {
		u, err := s.store.GetUser(ctx, tx, id)
		if err != nil {
			return err
		}
		user = u
		return nil
	})

	if err != nil {
		return nil, tracing.LogError(span, err)
	}

	return user, nil
}

// FindUsers returns every user in creation order.
func (s *Service) FindUsers(ctx context.Context) ([]*userd.User, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	var us []*userd.User
	err := s.store.View(ctx, func(tx kv.Tx) error {
		users, err := s.store.ListUsers(ctx, tx)
		if err != nil {
			return err
		}
		us = users
		return nil
	})

	if err != nil {
		return nil, tracing.LogError(span, err)
	}

	return us, nil
}

// CreateUser validates in and stores it as a new user.
func (s *Service) CreateUser(ctx context.Context, in userd.UserInput) (*userd.User, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	if err := in.Valid(); err != nil {
		return nil, err
	}

	u := &userd.User{
		Name:  in.Name,
		Email: in.Email,
	}
	err := s.store.Update(ctx, func(tx kv.Tx) error {
		return s.store.CreateUser(ctx, tx, u)
	})

	if err != nil {
		return nil, tracing.LogError(span, err)
	}

	return u, nil
}

// UpdateUser validates in and overwrites the user's name and email.
func (s *Service) UpdateUser(ctx context.Context, id platform.ID, in userd.UserInput) (*userd.User, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	if err := in.Valid(); err != nil {
		return nil, err
	}

	var user *userd.User
	err := s.store.Update(ctx, func(tx kv.Tx) error {
		u, err := s.store.UpdateUser(ctx, tx, id, in)
		if err != nil {
			return err
		}
		user = u
		return nil
	})

	if err != nil {
		return nil, tracing.LogError(span, err)
	}

	return user, nil
}

// DeleteUser removes a user by ID and returns the removed record.
func (s *Service) DeleteUser(ctx context.Context, id platform.ID) (*userd.User, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	var user *userd.User
	err := s.store.Update(ctx, func(tx kv.Tx) error {
		u, err := s.store.DeleteUser(ctx, tx, id)
		if err != nil {
			return err
		}
		user = u
		return nil
	})

	if err != nil {
		return nil, tracing.LogError(span, err)
	}

	return user, nil
}

package userd

import (
	"context"

	"github.com/influxdata/userd/kit/platform"
	"github.com/influxdata/userd/kit/platform/errors"
)

// UserService ops.
const (
	OpFindUserByID    = "FindUserByID"
	OpFindUserByEmail = "FindUserByEmail"
	OpFindUsers       = "FindUsers"
	OpCreateUser      = "CreateUser"
	OpUpdateUser      = "UpdateUser"
	OpDeleteUser      = "DeleteUser"
)

var (
	// ErrNameIsEmpty is returned when a user is written without a name.
	ErrNameIsEmpty = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "name is empty",
	}

	// ErrEmailIsEmpty is returned when a user is written without an email.
	ErrEmailIsEmpty = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "email is empty",
	}
)

// User is a user. 🎉
type User struct {
	ID    platform.ID `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
}

// UserInput holds the writable fields of a user, as sent on create and update.
type UserInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Valid ensures both fields are set. Values are taken as given; whitespace
// is not trimmed.
func (in UserInput) Valid() error {
	if in.Name == "" {
		return ErrNameIsEmpty
	}
	if in.Email == "" {
		return ErrEmailIsEmpty
	}
	return nil
}

// UserService represents a service for managing user data.
type UserService interface {
	// FindUserByID returns a single user by ID.
	FindUserByID(ctx context.Context, id platform.ID) (*User, error)

	// FindUsers returns every user in creation order.
	FindUsers(ctx context.Context) ([]*User, error)

	// CreateUser creates a new user and returns it with its assigned ID.
	CreateUser(ctx context.Context, in UserInput) (*User, error)

	// UpdateUser replaces the name and email of a single user.
	UpdateUser(ctx context.Context, id platform.ID, in UserInput) (*User, error)

	// DeleteUser removes a user by ID and returns the removed record.
	DeleteUser(ctx context.Context, id platform.ID) (*User, error)
}

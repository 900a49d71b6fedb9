package users

import (
	"fmt"

	"github.com/influxdata/userd/kit/platform/errors"
)

var (
	// ErrUserNotFound is used when the user is not found.
	ErrUserNotFound = &errors.Error{
		Msg:  "user not found",
		Code: errors.ENotFound,
	}
)

// UserEmailAlreadyExistsError is used when attempting to create or update a
// user with an email another user already has.
func UserEmailAlreadyExistsError(email string) *errors.Error {
	return &errors.Error{
		Code: errors.EConflict,
		Msg:  fmt.Sprintf("user with email %s already exists", email),
	}
}

// InvalidUserIDError is used when a service was provided an invalid ID.
func InvalidUserIDError(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInvalid,
		Msg:  "user id provided is invalid",
		Err:  err,
	}
}

// ErrCorruptUser is used when the user cannot be unmarshalled from the bytes
// stored in the kv.
func ErrCorruptUser(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "user could not be unmarshalled",
		Err:  err,
		Op:   "kv/UnmarshalUser",
	}
}

// ErrUnprocessableUser is used when a user is not able to be processed.
func ErrUnprocessableUser(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "user could not be marshalled",
		Err:  err,
		Op:   "kv/MarshalUser",
	}
}

// ErrStoreUnavailable is used when the document store cannot run a
// transaction, e.g. it is closed or the disk failed.
func ErrStoreUnavailable(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EUnavailable,
		Msg:  "user store is unavailable",
		Err:  err,
	}
}

package users

import (
	"context"
	"encoding/json"

	"github.com/influxdata/userd"
	"github.com/influxdata/userd/kit/platform"
	"github.com/influxdata/userd/kit/platform/errors"
	"github.com/influxdata/userd/kv"
	"go.uber.org/multierr"
)

func unmarshalUser(v []byte) (*userd.User, error) {
	u := &userd.User{}
	if err := json.Unmarshal(v, u); err != nil {
		return nil, ErrCorruptUser(err)
	}

	return u, nil
}

func marshalUser(u *userd.User) ([]byte, error) {
	v, err := json.Marshal(u)
	if err != nil {
		return nil, ErrUnprocessableUser(err)
	}

	return v, nil
}

func (s *Store) uniqueUserEmail(ctx context.Context, tx kv.Tx, email string) error {
	_, err := s.GetUserByEmail(ctx, tx, email)
	// if not found then this is  _unique_.
	if errors.ErrorCode(err) == errors.ENotFound {
		return nil
	}

	// no error means this is not unique
	if err == nil {
		return UserEmailAlreadyExistsError(email)
	}

	return err
}

func (s *Store) GetUser(ctx context.Context, tx kv.Tx, id platform.ID) (user *userd.User, retErr error) {
	defer func() {
		retErr = errors.ErrUnavailableServiceError(retErr, errors.WithErrorOp(userd.OpFindUserByID))
	}()
	encodedID, err := id.Encode()
	if err != nil {
		return nil, InvalidUserIDError(err)
	}

	b, err := tx.Bucket(userBucket)
	if err != nil {
		return nil, err
	}

	v, err := b.Get(encodedID)
	if kv.IsNotFound(err) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, err
	}

	return unmarshalUser(v)
}

func (s *Store) GetUserByEmail(ctx context.Context, tx kv.Tx, email string) (user *userd.User, retErr error) {
	defer func() {
		retErr = errors.ErrUnavailableServiceError(retErr, errors.WithErrorOp(userd.OpFindUserByEmail))
	}()
	b, err := tx.Bucket(userIndex)
	if err != nil {
		return nil, err
	}

	uid, err := b.Get([]byte(email))
	if kv.IsNotFound(err) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, err
	}

	var id platform.ID
	if err := id.Decode(uid); err != nil {
		return nil, platform.ErrCorruptID(err)
	}
	return s.GetUser(ctx, tx, id)
}

// ListUsers returns every user in ascending ID order, which is creation order.
func (s *Store) ListUsers(ctx context.Context, tx kv.Tx) (users []*userd.User, retErr error) {
	defer func() {
		retErr = errors.ErrUnavailableServiceError(retErr, errors.WithErrorOp(userd.OpFindUsers))
	}()

	b, err := tx.Bucket(userBucket)
	if err != nil {
		return nil, err
	}

	cursor, err := b.ForwardCursor(nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, cursor.Close())
	}()

	us := []*userd.User{}
	for k, v := cursor.Next(); k != nil; k, v = cursor.Next() {
		u, err := unmarshalUser(v)
		if err != nil {
			return nil, err
		}

		us = append(us, u)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return us, nil
}

// CreateUser assigns u a new ID and stores it. The email must not be in use.
func (s *Store) CreateUser(ctx context.Context, tx kv.Tx, u *userd.User) (retErr error) {
	defer func() {
		retErr = errors.ErrUnavailableServiceError(retErr, errors.WithErrorOp(userd.OpCreateUser))
	}()
	in := userd.UserInput{Name: u.Name, Email: u.Email}
	if err := in.Valid(); err != nil {
		return err
	}

	u.ID = s.IDGen.ID()

	encodedID, err := u.ID.Encode()
	if err != nil {
		return InvalidUserIDError(err)
	}

	if err := s.uniqueUserEmail(ctx, tx, u.Email); err != nil {
		return err
	}

	idx, err := tx.Bucket(userIndex)
	if err != nil {
		return err
	}

	b, err := tx.Bucket(userBucket)
	if err != nil {
		return err
	}

	v, err := marshalUser(u)
	if err != nil {
		return err
	}

	if err := idx.Put([]byte(u.Email), encodedID); err != nil {
		return err
	}

	if err := b.Put(encodedID, v); err != nil {
		return err
	}

	return nil
}

// UpdateUser overwrites the name and email of the user with the given ID.
func (s *Store) UpdateUser(ctx context.Context, tx kv.Tx, id platform.ID, upd userd.UserInput) (user *userd.User, retErr error) {
	defer func() {
		retErr = errors.ErrUnavailableServiceError(retErr, errors.WithErrorOp(userd.OpUpdateUser))
	}()
	if err := upd.Valid(); err != nil {
		return nil, err
	}

	encodedID, err := id.Encode()
	if err != nil {
		return nil, InvalidUserIDError(err)
	}

	u, err := s.GetUser(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if upd.Email != u.Email {
		if err := s.uniqueUserEmail(ctx, tx, upd.Email); err != nil {
			return nil, err
		}

		idx, err := tx.Bucket(userIndex)
		if err != nil {
			return nil, err
		}

		if err := idx.Delete([]byte(u.Email)); err != nil {
			return nil, err
		}

		if err := idx.Put([]byte(upd.Email), encodedID); err != nil {
			return nil, err
		}
	}

	u.Name = upd.Name
	u.Email = upd.Email

	v, err := marshalUser(u)
	if err != nil {
		return nil, err
	}

	b, err := tx.Bucket(userBucket)
	if err != nil {
		return nil, err
	}
	if err := b.Put(encodedID, v); err != nil {
		return nil, err
	}

	return u, nil
}

// DeleteUser removes the user and its index entry, returning the removed user.
func (s *Store) DeleteUser(ctx context.Context, tx kv.Tx, id platform.ID) (user *userd.User, retErr error) {
	defer func() {
		retErr = errors.ErrUnavailableServiceError(retErr, errors.WithErrorOp(userd.OpDeleteUser))
	}()
	u, err := s.GetUser(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	encodedID, err := id.Encode()
	if err != nil {
		return nil, InvalidUserIDError(err)
	}

	idx, err := tx.Bucket(userIndex)
	if err != nil {
		return nil, err
	}

	if err := idx.Delete([]byte(u.Email)); err != nil {
		return nil, err
	}

	b, err := tx.Bucket(userBucket)
	if err != nil {
		return nil, err
	}

	if err := b.Delete(encodedID); err != nil {
		return nil, err
	}

	return u, nil
}

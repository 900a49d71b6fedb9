package testing

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/influxdata/userd"
	"github.com/influxdata/userd/kit/platform"
	"github.com/influxdata/userd/kit/platform/errors"
	"github.com/influxdata/userd/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const (
	userOneID   = "020f755c3c082000"
	userTwoID   = "020f755c3c082001"
	userThreeID = "020f755c3c082002"
)

// UserFields will include the IDGenerator, and users
type UserFields struct {
	IDGenerator platform.IDGenerator
	Users       []*userd.User
}

func errUserNotFound() error {
	return &errors.Error{
		Code: errors.ENotFound,
		Msg:  "user not found",
	}
}

func errEmailTaken(email string) error {
	return &errors.Error{
		Code: errors.EConflict,
		Msg:  fmt.Sprintf("user with email %s already exists", email),
	}
}

// UserService tests all the service functions.
func UserService(
	init func(UserFields, *testing.T) (userd.UserService, func()),
	t *testing.T,
) {
	tests := []struct {
		name string
		fn   func(init func(UserFields, *testing.T) (userd.UserService, func()),
			t *testing.T)
	}{
		{
			name: "CreateUser",
			fn:   CreateUser,
		},
		{
			name: "FindUserByID",
			fn:   FindUserByID,
		},
		{
			name: "FindUsers",
			fn:   FindUsers,
		},
		{
			name: "UpdateUser",
			fn:   UpdateUser,
		},
		{
			name: "DeleteUser",
			fn:   DeleteUser,
		},
		{
			name: "CreateUserConcurrentEmail",
			fn:   CreateUserConcurrentEmail,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(init, t)
		})
	}
}

// CreateUser testing
func CreateUser(
	init func(UserFields, *testing.T) (userd.UserService, func()),
	t *testing.T,
) {
	type args struct {
		in userd.UserInput
	}
	type wants struct {
		err   error
		user  *userd.User
		users []*userd.User
	}

	tests := []struct {
		name   string
		fields UserFields
		args   args
		wants  wants
	}{
		{
			name: "create users with empty set",
			fields: UserFields{
				IDGenerator: mock.NewIDGenerator(userOneID, t),
				Users:       []*userd.User{},
			},
			args: args{
				in: userd.UserInput{Name: "Alice", Email: "a@x.io"},
			},
			wants: wants{
				user: &userd.User{
					ID:    MustIDBase16(userOneID),
					Name:  "Alice",
					Email: "a@x.io",
				},
				users: []*userd.User{
					{
						ID:    MustIDBase16(userOneID),
						Name:  "Alice",
						Email: "a@x.io",
					},
				},
			},
		},
		{
			name: "basic create user",
			fields: UserFields{
				IDGenerator: mock.NewIDGenerator(userTwoID, t),
				Users: []*userd.User{
					{
						ID:    MustIDBase16(userOneID),
						Name:  "Alice",
						Email: "a@x.io",
					},
				},
			},
			args: args{
				in: userd.UserInput{Name: "Bob", Email: "b@x.io"},
			},
			wants: wants{
				user: &userd.User{
					ID:    MustIDBase16(userTwoID),
					Name:  "Bob",
					Email: "b@x.io",
				},
				users: []*userd.User{
					{
						ID:    MustIDBase16(userOneID),
						Name:  "Alice",
						Email: "a@x.io",
					},
					{
						ID:    MustIDBase16(userTwoID),
						Name:  "Bob",
						Email: "b@x.io",
					},
				},
			},
		},
		{
			name: "names need not be unique",
			fields: UserFields{
				IDGenerator: mock.NewIDGenerator(userTwoID, t),
				Users: []*userd.User{
					{
						ID:    MustIDBase16(userOneID),
						Name:  "Alice",
						Email: "a@x.io",
					},
				},
			},
			args: args{
				in: userd.UserInput{Name: "Alice", Email: "alice@y.io"},
			},
			wants: wants{
				user: &userd.User{
					ID:    MustIDBase16(userTwoID),
					Name:  "Alice",
					Email: "alice@y.io",
				},
				users: []*userd.User{
					{
						ID:    MustIDBase16(userOneID),
						Name:  "Alice",
						Email: "a@x.io",
					},
					{
						ID:    MustIDBase16(userTwoID),
						Name:  "Alice",
						Email: "alice@y.io",
					},
				},
			},
		},
		{
			name: "emails should be unique",
			fields: UserFields{
				IDGenerator: mock.NewIDGenerator(userTwoID, t),
				Users: []*userd.User{
					{
						ID:    MustIDBase16(userOneID),
						Name:  "Alice",
						Email: "a@x.io",
					},
				},
			},
			args: args{
				in: userd.UserInput{Name: "Al", Email: "a@x.io"},
			},
			wants: wants{
				err: errEmailTaken("a@x.io"),
				users: []*userd.User{
					{
						ID:    MustIDBase16(userOneID),
						Name:  "Alice",
						Email: "a@x.io",
					},
				},
			},
		},
		{
			name: "emails are compared as given",
			fields: UserFields{
				IDGenerator: mock.NewIDGenerator(userTwoID, t),
				Users: []*userd.User{
					{
						ID:    MustIDBase16(userOneID),
						Name:  "Alice",
						Email: "a@x.io",
					},
				},
			},
			args: args{
				in: userd.UserInput{Name: "Alice", Email: "A@x.io"},
			},
			wants: wants{
				user: &userd.User{
					ID:    MustIDBase16(userTwoID),
					Name:  "Alice",
					Email: "A@x.io",
				},
				users: []*userd.User{
					{
						ID:    MustIDBase16(userOneID),
						Name:  "Alice",
						Email: "a@x.io",
					},
					{
						ID:    MustIDBase16(userTwoID),
						Name:  "Alice",
						Email: "A@x.io",
					},
				},
			},
		},
		{
			name: "name is required",
			fields: UserFields{
				IDGenerator: mock.NewIDGenerator(userOneID, t),
			},
			args: args{
				in: userd.UserInput{Email: "a@x.io"},
			},
			wants: wants{
				err:   userd.ErrNameIsEmpty,
				users: []*userd.User{},
			},
		},
		{
			name: "email is required",
			fields: UserFields{
				IDGenerator: mock.NewIDGenerator(userOneID, t),
			},
			args: args{
				in: userd.UserInput{Name: "Alice"},
			},
			wants: wants{
				err:   userd.ErrEmailIsEmpty,
				users: []*userd.User{},
			},
		},
		{
			name: "name is checked before email",
			fields: UserFields{
				IDGenerator: mock.NewIDGenerator(userOneID, t),
			},
			wants: wants{
				err:   userd.ErrNameIsEmpty,
				users: []*userd.User{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, done := init(tt.fields, t)
			defer done()
			ctx := context.Background()

			user, err := s.CreateUser(ctx, tt.args.in)
			diffPlatformErrors(tt.name, err, tt.wants.err, t)

			if diff := cmp.Diff(user, tt.wants.user); diff != "" {
				t.Errorf("created user is different -got/+want\ndiff %s", diff)
			}

			users, err := s.FindUsers(ctx)
			if err != nil {
				t.Fatalf("failed to retrieve users: %v", err)
			}
			if diff := cmp.Diff(users, tt.wants.users); diff != "" {
				t.Errorf("users are different -got/+want\ndiff %s", diff)
			}
		})
	}
}

// FindUserByID testing
func FindUserByID(
	init func(UserFields, *testing.T) (userd.UserService, func()),
	t *testing.T,
) {
	type args struct {
		id platform.ID
	}
	type wants struct {
		err  error
		user *userd.User
	}

	seed := UserFields{
		Users: []*userd.User{
			{
				ID:    MustIDBase16(userOneID),
				Name:  "Alice",
				Email: "a@x.io",
			},
			{
				ID:    MustIDBase16(userTwoID),
				Name:  "Bob",
				Email: "b@x.io",
			},
		},
	}

	tests := []struct {
		name   string
		fields UserFields
		args   args
		wants  wants
	}{
		{
			name:   "basic find user by id",
			fields: seed,
			args: args{
				id: MustIDBase16(userTwoID),
			},
			wants: wants{
				user: &userd.User{
					ID:    MustIDBase16(userTwoID),
					Name:  "Bob",
					Email: "b@x.io",
				},
			},
		},
		{
			name:   "find user by id not exists",
			fields: seed,
			args: args{
				id: MustIDBase16(userThreeID),
			},
			wants: wants{
				err: errUserNotFound(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, done := init(tt.fields, t)
			defer done()
			ctx := context.Background()

			user, err := s.FindUserByID(ctx, tt.args.id)
			diffPlatformErrors(tt.name, err, tt.wants.err, t)

			if diff := cmp.Diff(user, tt.wants.user); diff != "" {
				t.Errorf("user is different -got/+want\ndiff %s", diff)
			}
		})
	}
}

// FindUsers testing
func FindUsers(
	init func(UserFields, *testing.T) (userd.UserService, func()),
	t *testing.T,
) {
	tests := []struct {
		name   string
		fields UserFields
		want   []*userd.User
	}{
		{
			name:   "no users is an empty list",
			fields: UserFields{},
			want:   []*userd.User{},
		},
		{
			name: "users are listed in creation order",
			fields: UserFields{
				Users: []*userd.User{
					{
						ID:    MustIDBase16(userThreeID),
						Name:  "Carol",
						Email: "c@x.io",
					},
					{
						ID:    MustIDBase16(userOneID),
						Name:  "Alice",
						Email: "a@x.io",
					},
					{
						ID:    MustIDBase16(userTwoID),
						Name:  "Bob",
						Email: "b@x.io",
					},
				},
			},
			want: []*userd.User{
				{
					ID:    MustIDBase16(userOneID),
					Name:  "Alice",
					Email: "a@x.io",
				},
				{
					ID:    MustIDBase16(userTwoID),
					Name:  "Bob",
					Email: "b@x.io",
				},
				{
					ID:    MustIDBase16(userThreeID),
					Name:  "Carol",
					Email: "c@x.io",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, done := init(tt.fields, t)
			defer done()

			users, err := s.FindUsers(context.Background())
			require.NoError(t, err)
			require.NotNil(t, users)

			if diff := cmp.Diff(users, tt.want); diff != "" {
				t.Errorf("users are different -got/+want\ndiff %s", diff)
			}
		})
	}
}

// UpdateUser testing
func UpdateUser(
	init func(UserFields, *testing.T) (userd.UserService, func()),
	t *testing.T,
) {
	type args struct {
		id platform.ID
		in userd.UserInput
	}
	type wants struct {
		err   error
		user  *userd.User
		users []*userd.User
	}

	alice := func() *userd.User {
		return &userd.User{ID: MustIDBase16(userOneID), Name: "Alice", Email: "a@x.io"}
	}
	bob := func() *userd.User {
		return &userd.User{ID: MustIDBase16(userTwoID), Name: "Bob", Email: "b@x.io"}
	}

	tests := []struct {
		name   string
		fields UserFields
		args   args
		wants  wants
	}{
		{
			name: "update name and email",
			fields: UserFields{
				Users: []*userd.User{alice(), bob()},
			},
			args: args{
				id: MustIDBase16(userOneID),
				in: userd.UserInput{Name: "Alicia", Email: "alicia@x.io"},
			},
			wants: wants{
				user: &userd.User{ID: MustIDBase16(userOneID), Name: "Alicia", Email: "alicia@x.io"},
				users: []*userd.User{
					{ID: MustIDBase16(userOneID), Name: "Alicia", Email: "alicia@x.io"},
					bob(),
				},
			},
		},
		{
			name: "keeping the same email is not a conflict",
			fields: UserFields{
				Users: []*userd.User{alice(), bob()},
			},
			args: args{
				id: MustIDBase16(userOneID),
				in: userd.UserInput{Name: "Alicia", Email: "a@x.io"},
			},
			wants: wants{
				user: &userd.User{ID: MustIDBase16(userOneID), Name: "Alicia", Email: "a@x.io"},
				users: []*userd.User{
					{ID: MustIDBase16(userOneID), Name: "Alicia", Email: "a@x.io"},
					bob(),
				},
			},
		},
		{
			name: "email of another user is a conflict",
			fields: UserFields{
				Users: []*userd.User{alice(), bob()},
			},
			args: args{
				id: MustIDBase16(userOneID),
				in: userd.UserInput{Name: "Alice", Email: "b@x.io"},
			},
			wants: wants{
				err:   errEmailTaken("b@x.io"),
				users: []*userd.User{alice(), bob()},
			},
		},
		{
			name: "update missing user",
			fields: UserFields{
				Users: []*userd.User{alice()},
			},
			args: args{
				id: MustIDBase16(userThreeID),
				in: userd.UserInput{Name: "Zed", Email: "z@x.io"},
			},
			wants: wants{
				err:   errUserNotFound(),
				users: []*userd.User{alice()},
			},
		},
		{
			name: "both fields are required",
			fields: UserFields{
				Users: []*userd.User{alice()},
			},
			args: args{
				id: MustIDBase16(userOneID),
				in: userd.UserInput{Email: "new@x.io"},
			},
			wants: wants{
				err:   userd.ErrNameIsEmpty,
				users: []*userd.User{alice()},
			},
		},
		{
			name: "invalid input wins over a missing user",
			fields: UserFields{
				Users: []*userd.User{alice()},
			},
			args: args{
				id: MustIDBase16(userThreeID),
				in: userd.UserInput{Name: "Zed"},
			},
			wants: wants{
				err:   userd.ErrEmailIsEmpty,
				users: []*userd.User{alice()},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, done := init(tt.fields, t)
			defer done()
			ctx := context.Background()

			user, err := s.UpdateUser(ctx, tt.args.id, tt.args.in)
			diffPlatformErrors(tt.name, err, tt.wants.err, t)

			if diff := cmp.Diff(user, tt.wants.user); diff != "" {
				t.Errorf("updated user is different -got/+want\ndiff %s", diff)
			}

			users, err := s.FindUsers(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(users, tt.wants.users); diff != "" {
				t.Errorf("users are different -got/+want\ndiff %s", diff)
			}
		})
	}

	t.Run("old email is released", func(t *testing.T) {
		s, done := init(UserFields{
			IDGenerator: mock.NewIDGenerator(userThreeID, t),
			Users:       []*userd.User{alice()},
		}, t)
		defer done()
		ctx := context.Background()

		_, err := s.UpdateUser(ctx, MustIDBase16(userOneID), userd.UserInput{Name: "Alice", Email: "alice@x.io"})
		require.NoError(t, err)

		u, err := s.CreateUser(ctx, userd.UserInput{Name: "Al", Email: "a@x.io"})
		require.NoError(t, err)
		require.Equal(t, MustIDBase16(userThreeID), u.ID)

		_, err = s.CreateUser(ctx, userd.UserInput{Name: "Al", Email: "alice@x.io"})
		diffPlatformErrors("new email is taken", err, errEmailTaken("alice@x.io"), t)
	})
}

// DeleteUser testing
func DeleteUser(
	init func(UserFields, *testing.T) (userd.UserService, func()),
	t *testing.T,
) {
	type args struct {
		id platform.ID
	}
	type wants struct {
		err   error
		user  *userd.User
		users []*userd.User
	}

	alice := func() *userd.User {
		return &userd.User{ID: MustIDBase16(userOneID), Name: "Alice", Email: "a@x.io"}
	}
	bob := func() *userd.User {
		return &userd.User{ID: MustIDBase16(userTwoID), Name: "Bob", Email: "b@x.io"}
	}

	tests := []struct {
		name   string
		fields UserFields
		args   args
		wants  wants
	}{
		{
			name: "delete users using exist id",
			fields: UserFields{
				Users: []*userd.User{alice(), bob()},
			},
			args: args{
				id: MustIDBase16(userOneID),
			},
			wants: wants{
				user:  alice(),
				users: []*userd.User{bob()},
			},
		},
		{
			name: "delete users using id that does not exist",
			fields: UserFields{
				Users: []*userd.User{alice(), bob()},
			},
			args: args{
				id: MustIDBase16(userThreeID),
			},
			wants: wants{
				err:   errUserNotFound(),
				users: []*userd.User{alice(), bob()},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, done := init(tt.fields, t)
			defer done()
			ctx := context.Background()

			user, err := s.DeleteUser(ctx, tt.args.id)
			diffPlatformErrors(tt.name, err, tt.wants.err, t)

			if diff := cmp.Diff(user, tt.wants.user); diff != "" {
				t.Errorf("deleted user is different -got/+want\ndiff %s", diff)
			}

			users, err := s.FindUsers(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(users, tt.wants.users); diff != "" {
				t.Errorf("users are different -got/+want\ndiff %s", diff)
			}
		})
	}

	t.Run("deleted user is gone and its email is free", func(t *testing.T) {
		s, done := init(UserFields{
			IDGenerator: mock.NewIDGenerator(userThreeID, t),
			Users:       []*userd.User{alice()},
		}, t)
		defer done()
		ctx := context.Background()

		_, err := s.DeleteUser(ctx, MustIDBase16(userOneID))
		require.NoError(t, err)

		_, err = s.FindUserByID(ctx, MustIDBase16(userOneID))
		diffPlatformErrors("find deleted", err, errUserNotFound(), t)

		_, err = s.DeleteUser(ctx, MustIDBase16(userOneID))
		diffPlatformErrors("delete twice", err, errUserNotFound(), t)

		u, err := s.CreateUser(ctx, userd.UserInput{Name: "Alice", Email: "a@x.io"})
		require.NoError(t, err)
		require.Equal(t, MustIDBase16(userThreeID), u.ID)
	})
}

// CreateUserConcurrentEmail races creates of one email; exactly one wins.
func CreateUserConcurrentEmail(
	init func(UserFields, *testing.T) (userd.UserService, func()),
	t *testing.T,
) {
	next := uint64(MustIDBase16(userOneID))
	s, done := init(UserFields{
		IDGenerator: mock.IDGenerator{
			IDFn: func() platform.ID {
				return platform.ID(atomic.AddUint64(&next, 1))
			},
		},
	}, t)
	defer done()
	ctx := context.Background()

	const n = 16
	var created, conflicts int64

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			_, err := s.CreateUser(ctx, userd.UserInput{
				Name:  fmt.Sprintf("user%d", i),
				Email: "same@x.io",
			})
			switch {
			case err == nil:
				atomic.AddInt64(&created, 1)
			case errors.ErrorCode(err) == errors.EConflict:
				atomic.AddInt64(&conflicts, 1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Equal(t, int64(1), created)
	require.Equal(t, int64(n-1), conflicts)

	users, err := s.FindUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "same@x.io", users[0].Email)
}

package errors_test

import (
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/influxdata/userd/kit/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMsg(t *testing.T) {
	cases := []struct {
		name string
		err  error
		msg  string
	}{
		{
			name: "simple error",
			err:  &errors.Error{Code: errors.ENotFound},
			msg:  "<not found>",
		},
		{
			name: "with message",
			err: &errors.Error{
				Code: errors.ENotFound,
				Msg:  "user not found",
			},
			msg: "user not found",
		},
		{
			name: "with message and a third party error",
			err: &errors.Error{
				Code: errors.EUnavailable,
				Msg:  "unable to reach the user store",
				Err:  stderrors.New("database not open"),
			},
			msg: "unable to reach the user store: database not open",
		},
		{
			name: "with only an inner error",
			err: &errors.Error{
				Code: errors.EInternal,
				Err:  &errors.Error{Code: errors.EInvalid, Msg: "name is empty"},
			},
			msg: "name is empty",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.msg, c.err.Error())
		})
	}
}

func TestErrorCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{name: "nil", err: nil, code: ""},
		{name: "plain error", err: stderrors.New("boom"), code: errors.EInternal},
		{name: "coded", err: &errors.Error{Code: errors.EConflict}, code: errors.EConflict},
		{
			name: "inherited from inner error",
			err:  &errors.Error{Err: &errors.Error{Code: errors.ENotFound}},
			code: errors.ENotFound,
		},
		{name: "no code anywhere", err: &errors.Error{Msg: "?"}, code: errors.EInternal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.code, errors.ErrorCode(c.err))
		})
	}
}

func TestErrorOpAndMessage(t *testing.T) {
	err := &errors.Error{
		Op:  "users/CreateUser",
		Err: &errors.Error{Code: errors.EConflict, Msg: "duplicate"},
	}
	assert.Equal(t, "users/CreateUser", errors.ErrorOp(err))
	assert.Equal(t, "duplicate", errors.ErrorMessage(err))
	assert.Equal(t, "An internal error has occurred.", errors.ErrorMessage(stderrors.New("x")))
}

func TestErrUnavailableServiceError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, errors.ErrUnavailableServiceError(nil))
	})

	t.Run("plain errors become unavailable", func(t *testing.T) {
		cause := stderrors.New("disk on fire")
		err := errors.ErrUnavailableServiceError(cause, errors.WithErrorOp("users/ListUsers"))
		assert.Equal(t, errors.EUnavailable, errors.ErrorCode(err))
		assert.Equal(t, "users/ListUsers", errors.ErrorOp(err))
		assert.True(t, stderrors.Is(err, cause))
	})

	t.Run("coded errors keep their code and sentinels are not mutated", func(t *testing.T) {
		sentinel := &errors.Error{Code: errors.ENotFound, Msg: "user not found"}
		err := errors.ErrUnavailableServiceError(sentinel, errors.WithErrorOp("users/DeleteUser"))
		assert.Equal(t, errors.ENotFound, errors.ErrorCode(err))
		assert.Equal(t, "users/DeleteUser", errors.ErrorOp(err))
		assert.Empty(t, sentinel.Op)
	})

}

func TestErrorMarshalJSON(t *testing.T) {
	in := &errors.Error{
		Code: errors.EUnavailable,
		Msg:  "unable to reach the user store",
		Op:   "users/ListUsers",
		Err:  &errors.Error{Code: errors.EInternal, Msg: "closed"},
	}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"code": "unavailable",
		"message": "unable to reach the user store",
		"op": "users/ListUsers",
		"error": {"code": "internal", "message": "closed"}
	}`, string(b))

	b, err = json.Marshal(&errors.Error{Code: errors.EInternal, Err: stderrors.New("disk on fire")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"internal","error":"disk on fire"}`, string(b))
}

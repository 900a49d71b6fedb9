package users

import (
	"context"
	"fmt"
	"time"

	"github.com/influxdata/userd"
	"github.com/influxdata/userd/kit/platform"
	"go.uber.org/zap"
)

type UserLogger struct {
	logger      *zap.Logger
	userService userd.UserService
}

// NewUserLogger returns a logging service middleware for the User Service.
func NewUserLogger(log *zap.Logger, s userd.UserService) *UserLogger {
	return &UserLogger{
		logger:      log,
		userService: s,
	}
}

var _ userd.UserService = (*UserLogger)(nil)

func (l *UserLogger) CreateUser(ctx context.Context, in userd.UserInput) (u *userd.User, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to create user", zap.Error(err), dur)
			return
		}
		l.logger.Debug("user create", zap.Stringer("id", u.ID), dur)
	}(time.Now())
	return l.userService.CreateUser(ctx, in)
}

func (l *UserLogger) FindUserByID(ctx context.Context, id platform.ID) (u *userd.User, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to find user with ID %v", id)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("user find by ID", dur)
	}(time.Now())
	return l.userService.FindUserByID(ctx, id)
}

func (l *UserLogger) FindUsers(ctx context.Context) (us []*userd.User, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to find users", zap.Error(err), dur)
			return
		}
		l.logger.Debug("users find", zap.Int("count", len(us)), dur)
	}(time.Now())
	return l.userService.FindUsers(ctx)
}

func (l *UserLogger) UpdateUser(ctx context.Context, id platform.ID, in userd.UserInput) (u *userd.User, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to update user with ID %v", id)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("user update", dur)
	}(time.Now())
	return l.userService.UpdateUser(ctx, id, in)
}

func (l *UserLogger) DeleteUser(ctx context.Context, id platform.ID) (u *userd.User, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to delete user with ID %v", id)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("user delete", dur)
	}(time.Now())
	return l.userService.DeleteUser(ctx, id)
}

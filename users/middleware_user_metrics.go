package users

import (
	"context"

	"github.com/influxdata/userd"
	"github.com/influxdata/userd/kit/metric"
	"github.com/influxdata/userd/kit/platform"
	"github.com/prometheus/client_golang/prometheus"
)

var _ userd.UserService = (*UserMetrics)(nil)

type UserMetrics struct {
	// RED metrics
	rec *metric.REDClient

	userService userd.UserService
}

// NewUserMetrics returns a metrics service middleware for the User Service.
func NewUserMetrics(reg prometheus.Registerer, s userd.UserService, opts ...metric.ClientOptFn) *UserMetrics {
	o := metric.ApplyMetricOpts(opts...)
	return &UserMetrics{
		rec:         metric.New(reg, o.ApplySuffix("user")),
		userService: s,
	}
}

func (m *UserMetrics) FindUserByID(ctx context.Context, id platform.ID) (*userd.User, error) {
	rec := m.rec.Record("find_user_by_id")
	user, err := m.userService.FindUserByID(ctx, id)
	return user, rec(err)
}

func (m *UserMetrics) FindUsers(ctx context.Context) ([]*userd.User, error) {
	rec := m.rec.Record("find_users")
	users, err := m.userService.FindUsers(ctx)
	return users, rec(err)
}

func (m *UserMetrics) CreateUser(ctx context.Context, in userd.UserInput) (*userd.User, error) {
	rec := m.rec.Record("create_user")
	user, err := m.userService.CreateUser(ctx, in)
	return user, rec(err)
}

func (m *UserMetrics) UpdateUser(ctx context.Context, id platform.ID, in userd.UserInput) (*userd.User, error) {
	rec := m.rec.Record("update_user")
	updatedUser, err := m.userService.UpdateUser(ctx, id, in)
	return updatedUser, rec(err)
}

func (m *UserMetrics) DeleteUser(ctx context.Context, id platform.ID) (*userd.User, error) {
	rec := m.rec.Record("delete_user")
	user, err := m.userService.DeleteUser(ctx, id)
	return user, rec(err)
}

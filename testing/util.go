package testing

import (
	"testing"

	"github.com/influxdata/userd/kit/platform"
	"github.com/influxdata/userd/kit/platform/errors"
)

// diffPlatformErrors fails t unless actual carries the code and message of
// expected. Ops are not compared; they depend on which layer failed.
func diffPlatformErrors(name string, actual, expected error, t *testing.T) {
	t.Helper()

	if expected == nil && actual == nil {
		return
	}

	if expected == nil && actual != nil {
		t.Fatalf("%s failed, unexpected error %s", name, actual.Error())
	}

	if expected != nil && actual == nil {
		t.Fatalf("%s failed, expected error %s but received nil", name, expected.Error())
	}

	if errors.ErrorCode(expected) != errors.ErrorCode(actual) {
		t.Fatalf("%s failed, expected error code %q but received %q", name, errors.ErrorCode(expected), errors.ErrorCode(actual))
	}

	if errors.ErrorMessage(expected) != errors.ErrorMessage(actual) {
		t.Fatalf("%s failed, expected error message %q but received %q", name, errors.ErrorMessage(expected), errors.ErrorMessage(actual))
	}
}

// MustIDBase16 is an helper to ensure a correct ID is built during testing.
func MustIDBase16(s string) platform.ID {
	id, err := platform.IDFromString(s)
	if err != nil {
		panic(err)
	}
	return *id
}

package mock

import (
	"testing"

	"github.com/influxdata/userd/kit/platform"
)

var _ platform.IDGenerator = IDGenerator{}

// IDGenerator is mock implementation of platform.IDGenerator.
type IDGenerator struct {
	IDFn func() platform.ID
}

// ID generates a new platform.ID from a mock function.
func (g IDGenerator) ID() platform.ID {
	return g.IDFn()
}

// NewIDGenerator is a simple way to create immutable id generator
func NewIDGenerator(s string, t *testing.T) IDGenerator {
	t.Helper()

	id, err := platform.IDFromString(s)
	if err != nil {
		t.Fatal(err)
	}

	return IDGenerator{
		IDFn: func() platform.ID {
			return *id
		},
	}
}

// NewIncrementingIDGenerator returns a generator handing out start,
// start+1, ... It is not safe for concurrent use.
func NewIncrementingIDGenerator(start platform.ID) IDGenerator {
	next := start
	return IDGenerator{
		IDFn: func() platform.ID {
			id := next
			next++
			return id
		},
	}
}

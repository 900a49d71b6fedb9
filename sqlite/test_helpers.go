package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// NewTestStore returns a file-backed SqlStore in a temporary directory
// that is closed when the test ends.
func NewTestStore(t *testing.T) *SqlStore {
	tempDir := t.TempDir()

	s, err := NewSqlStore(tempDir+"/"+DefaultFilename, zaptest.NewLogger(t))
	require.NoError(t, err, "unable to open testing database")

	t.Cleanup(func() {
		require.NoError(t, s.Close(), "failed to close testing database")
	})

	return s
}

package fs

import (
	"os"
	"os/user"
	"path/filepath"
)

const (
	// DefaultBoltFilename is the bolt file name inside the userd directory.
	DefaultBoltFilename = "userd.bolt"
	// DefaultSqliteFilename is the sqlite file name inside the userd directory.
	DefaultSqliteFilename = "userd.sqlite"
)

// UserdDir retrieves the userd directory.
func UserdDir() (string, error) {
	var dir string
	// By default, store data files in current users home directory
	u, err := user.Current()
	if err == nil {
		dir = u.HomeDir
	} else if home := os.Getenv("HOME"); home != "" {
		dir = home
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	dir = filepath.Join(dir, ".userd")

	return dir, nil
}

// DefaultPath returns filename inside the userd directory, or filename
// alone if the directory cannot be determined.
func DefaultPath(filename string) string {
	dir, err := UserdDir()
	if err != nil {
		return filename
	}
	return filepath.Join(dir, filename)
}

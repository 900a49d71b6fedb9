package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const (
	DefaultFilename = "userd.sqlite"
	InmemPath       = ":memory:"
	DriverName      = "sqlite3"
)

// SqlStore is a wrapper around the db and provides basic functionality for maintaining the db
// including flushing the data from the db during end-to-end testing.
type SqlStore struct {
	Mu   sync.RWMutex
	DB   *sqlx.DB
	log  *zap.Logger
	path string
}

func NewSqlStore(path string, log *zap.Logger) (*SqlStore, error) {
	s := &SqlStore{
		log:  log,
		path: path,
	}

	if err := s.openDB(); err != nil {
		return nil, err
	}

	return s, nil
}

// Path returns the location of the database, or ":memory:".
func (s *SqlStore) Path() string {
	return s.path
}

// open the file at the specified path
func (s *SqlStore) openDB() error {
	if s.path != InmemPath {
		if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
			return fmt.Errorf("unable to create directory for %s: %w", s.path, err)
		}
	}

	db, err := sqlx.Open(DriverName, s.path)
	if err != nil {
		return err
	}

	// The single connection keeps an in-memory database alive for the life
	// of the store, and serializes writers for file-backed ones.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Enable foreign keys and WAL for file-backed databases.
	pragmas := `PRAGMA foreign_keys = ON;`
	if s.path != InmemPath {
		pragmas += ` PRAGMA journal_mode = WAL;`
	}
	if _, err := db.Exec(pragmas); err != nil {
		db.Close()
		return fmt.Errorf("unable to configure sqlite database at %s: %w", s.path, err)
	}

	s.DB = db

	s.log.Debug("Resources opened", zap.String("path", s.path))
	return nil
}

// Close the connection to the sqlite database
func (s *SqlStore) Close() error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.DB == nil {
		return nil
	}

	err := s.DB.Close()
	s.DB = nil
	return err
}

// Flush deletes all records for all tables in the database.
func (s *SqlStore) Flush(ctx context.Context) {
	tables, err := s.tableNames()
	if err != nil {
		s.log.Fatal("unable to flush sqlite", zap.Error(err))
	}

	for _, t := range tables {
		// bucket definitions are schema, not data
		if t == bucketsTableName {
			continue
		}

		stmt := fmt.Sprintf("DELETE FROM %s", t)
		if err := s.execTrans(ctx, stmt); err != nil {
			s.log.Fatal("unable to flush sqlite", zap.Error(err))
		}
	}
	s.log.Debug("sqlite data flushed successfully")
}

func (s *SqlStore) execTrans(ctx context.Context, stmt string) error {
	// use a lock to prevent two potential simultaneous write operations to the database,
	// which would throw an error
	s.Mu.Lock()
	defer s.Mu.Unlock()

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, stmt)
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (s *SqlStore) userVersion() (int, error) {
	var v int
	if err := s.DB.Get(&v, "PRAGMA user_version"); err != nil {
		return 0, err
	}
	return v, nil
}

func (s *SqlStore) queryToStrings(stmt string) ([]string, error) {
	var output []string

	err := s.DB.Select(&output, stmt)
	if err != nil {
		return nil, err
	}

	return output, nil
}

func (s *SqlStore) tableNames() ([]string, error) {
	var names []string
	err := s.DB.Select(&names, "SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		return nil, err
	}

	out := names[:0]
	for _, n := range names {
		if strings.HasPrefix(n, "sqlite_") {
			continue
		}
		out = append(out, n)
	}

	return out, nil
}

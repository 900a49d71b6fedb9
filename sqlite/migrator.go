package sqlite

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Migrator applies numbered sql scripts to a SqlStore. The number of the
// last applied script is kept in the database's user_version.
type Migrator struct {
	store *SqlStore
	log   *zap.Logger
}

func NewMigrator(store *SqlStore, log *zap.Logger) *Migrator {
	return &Migrator{
		store: store,
		log:   log,
	}
}

// Up runs every script in source whose number is above the current
// user_version, in order. Each script commits together with its version.
func (m *Migrator) Up(ctx context.Context, source fs.FS) error {
	list, err := fs.ReadDir(source, ".")
	if err != nil {
		return err
	}
	// sort the list according to the version number to ensure the migrations are applied in the correct order
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	if len(list) == 0 {
		return nil
	}

	current, err := m.store.userVersion()
	if err != nil {
		return err
	}

	final, err := scriptVersion(list[len(list)-1].Name())
	if err != nil {
		return err
	}

	if final > current {
		m.log.Info("Bringing up metadata migrations", zap.Int("migration_count", final-current))
	}

	for _, f := range list {
		n := f.Name()
		v, err := scriptVersion(n)
		if err != nil {
			return err
		}

		if v <= current {
			continue
		}

		m.log.Debug("Executing metadata migration", zap.String("migration_name", n))
		script, err := fs.ReadFile(source, n)
		if err != nil {
			return err
		}

		stmt := fmt.Sprintf("%s;\nPRAGMA user_version = %d;", strings.TrimRight(string(script), "; \n\t"), v)
		if err := m.store.execTrans(ctx, stmt); err != nil {
			return fmt.Errorf("migration %s: %w", n, err)
		}
		current = v
	}

	return nil
}

// extract the version number as an integer from a file named like "0002_migration_name.sql"
func scriptVersion(filename string) (int, error) {
	vString := strings.Split(filename, "_")[0]
	vInt, err := strconv.Atoi(vString)
	if err != nil {
		return 0, fmt.Errorf("migration %q has no version prefix: %w", filename, err)
	}

	return vInt, nil
}

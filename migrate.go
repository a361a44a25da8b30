package machines

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const migrationsDir = "data/sql/migrations"

type migration struct {
	version string
	name    string
	upSQL   string
}

// Migrate applies the embedded schema migrations that have not run yet. Each
// migration runs in its own transaction, so a failure leaves earlier
// migrations committed and re-running continues from the failed one.
func Migrate(ctx context.Context, db *bun.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create schema_migrations table")
	}

	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	applied := map[string]bool{}
	versions := []string{}
	if err := db.NewRaw("SELECT version FROM schema_migrations").Scan(ctx, &versions); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to read applied migrations")
	}
	for _, v := range versions {
		applied[v] = true
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}

		err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, m.upSQL); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version)
			return err
		})
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to apply migration "+m.name)
		}
	}

	return nil
}

func loadMigrations() ([]migration, error) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to read embedded migrations")
	}

	migrations := make([]migration, 0, len(entries))
	for _, entry := range entries {
		filename := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(filename, ".up.sql") {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, path.Join(migrationsDir, filename))
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to read migration "+filename)
		}

		name := strings.TrimSuffix(filename, ".up.sql")
		version := name
		if parts := strings.SplitN(name, "_", 3); len(parts) >= 2 {
			version = parts[0] + "_" + parts[1]
		}

		migrations = append(migrations, migration{
			version: version,
			name:    name,
			upSQL:   string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})

	return migrations, nil
}

package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"techtimecapsule-backend-go/internal/db"

	"github.com/jmoiron/sqlx"
)

//go:embed sql
var files embed.FS

type migration struct {
	Version string
	Name    string
	Path    string
}

// Apply runs every embedded migration for the connection's dialect that has not been
// recorded in schema_migrations yet. Each migration runs in its own transaction.
func Apply(ctx context.Context, database *sqlx.DB) error {
	if err := ensureTable(ctx, database); err != nil {
		return err
	}
	migs, err := listMigrations(dialectDir(database.DriverName()))
	if err != nil {
		return err
	}
	applied, err := appliedVersions(ctx, database)
	if err != nil {
		return err
	}
	for _, mig := range migs {
		if applied[mig.Version] {
			continue
		}
		if err := applyMigration(ctx, database, mig); err != nil {
			return err
		}
	}
	return nil
}

func dialectDir(driver string) string {
	if driver == db.DriverPostgres {
		return "sql/postgres"
	}
	return "sql/sqlite"
}

func ensureTable(ctx context.Context, database *sqlx.DB) error {
	_, err := database.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version VARCHAR(64) PRIMARY KEY,
  name VARCHAR(255) NOT NULL,
  applied_at TIMESTAMP NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

func listMigrations(dir string) ([]migration, error) {
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, err
	}
	migs := make([]migration, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		version := parseVersion(name)
		if version == "" {
			version = name
		}
		migs = append(migs, migration{Version: version, Name: name, Path: path.Join(dir, name)})
	}
	sort.Slice(migs, func(i, j int) bool {
		iVersion, iOk := parseVersionNumber(migs[i].Name)
		jVersion, jOk := parseVersionNumber(migs[j].Name)
		switch {
		case iOk && jOk && iVersion != jVersion:
			return iVersion < jVersion
		case iOk != jOk:
			return iOk
		default:
			return migs[i].Name < migs[j].Name
		}
	})
	return migs, nil
}

func appliedVersions(ctx context.Context, database *sqlx.DB) (map[string]bool, error) {
	rows := []string{}
	if err := database.SelectContext(ctx, &rows, `SELECT version FROM schema_migrations`); err != nil {
		return nil, err
	}
	versions := make(map[string]bool, len(rows))
	for _, version := range rows {
		versions[version] = true
	}
	return versions, nil
}

func applyMigration(ctx context.Context, database *sqlx.DB, mig migration) error {
	content, err := fs.ReadFile(files, mig.Path)
	if err != nil {
		return err
	}
	return db.WithTx(ctx, database, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply %s: %w", mig.Name, err)
		}
		_, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`),
			mig.Version, mig.Name, time.Now().UTC())
		return err
	})
}

func parseVersion(name string) string {
	if !strings.HasPrefix(name, "V") {
		return ""
	}
	parts := strings.SplitN(name[1:], "__", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[0])
}

func parseVersionNumber(name string) (int, bool) {
	raw := parseVersion(name)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

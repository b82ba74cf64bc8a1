package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// LoadMigrations returns the contents of every .surql file in fsys, sorted by name.
// seed.surql is skipped so fixtures never run against production.
func LoadMigrations(fsys fs.FS) ([]string, []string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("reading migrations: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasSuffix(name, ".surql") && name != "seed.surql" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	contents := make([]string, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", name, err)
		}
		contents = append(contents, string(data))
	}
	return names, contents, nil
}

// Migrate applies every migration in fsys. Statements use IF NOT EXISTS so
// re-running is safe.
func Migrate(ctx context.Context, db Database, fsys fs.FS) ([]string, error) {
	names, contents, err := LoadMigrations(fsys)
	if err != nil {
		return nil, err
	}
	for i, content := range contents {
		if err := db.Execute(ctx, content, nil); err != nil {
			return names[:i], fmt.Errorf("migration %s failed: %w", names[i], err)
		}
	}
	return names, nil
}

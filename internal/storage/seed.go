package storage

import (
	"fmt"
	"regexp"
	"strings"
)

const seedMigration = "migrations/000002_seed_categories.up.sql"

var quotedName = regexp.MustCompile(`'((?:[^']|'')+)'`)

// SeedCategories returns the category names inserted by the seed migration,
// in insertion order. Stores that do not run migrations use it to share the
// same vocabulary.
func SeedCategories() ([]string, error) {
	data, err := migrationsFS.ReadFile(seedMigration)
	if err != nil {
		return nil, fmt.Errorf("read seed migration: %w", err)
	}
	var names []string
	for _, m := range quotedName.FindAllStringSubmatch(string(data), -1) {
		names = append(names, strings.ReplaceAll(m[1], "''", "'"))
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("seed migration %s has no categories", seedMigration)
	}
	return names, nil
}

package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// versionLayout is the timestamp prefix of migration file names; it sorts
// lexicographically in creation order
const versionLayout = "20060102150405"

// MigrationFile is a created up/down file pair
type MigrationFile struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

// CreateMigration writes an empty up/down SQL pair into migrationsDir,
// with headers matching the committed migrations in this repository
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	if err := os.MkdirAll(migrationsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	sanitized := sanitizeName(name)
	if sanitized == "" {
		return nil, fmt.Errorf("migration name %q contains no usable characters", name)
	}

	version := time.Now().Format(versionLayout)
	base := version + "_" + sanitized

	mf := &MigrationFile{
		Version:  version,
		Name:     sanitized,
		UpPath:   filepath.Join(migrationsDir, base+".up.sql"),
		DownPath: filepath.Join(migrationsDir, base+".down.sql"),
	}

	if err := os.WriteFile(mf.UpPath, []byte(upStub(sanitized, description)), 0644); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := os.WriteFile(mf.DownPath, []byte(downStub(sanitized)), 0644); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}

	return mf, nil
}

func upStub(name, description string) string {
	var b strings.Builder
	b.WriteString("-- Migration: " + name + "\n")
	if description != "" {
		b.WriteString("-- Description: " + description + "\n")
	}
	b.WriteString("\n-- Write the forward migration SQL here\n")
	return b.String()
}

func downStub(name string) string {
	return "-- Migration: " + name + " (Rollback)\n\n-- Write the rollback SQL here\n"
}

// sanitizeName lowercases a migration name and collapses separators into
// single underscores, dropping everything else
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			if s := b.String(); s != "" && !strings.HasSuffix(s, "_") {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// ListMigrations returns the base names of every migration pair in the
// directory, in version order. A missing directory is treated as empty.
func ListMigrations(migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	migrations := make([]string, 0, len(entries)/2)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			migrations = append(migrations, base)
		}
	}

	return migrations, nil
}

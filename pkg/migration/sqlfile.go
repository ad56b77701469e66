package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// sqlMigration runs the contents of a file as one Exec. MySQL connections
// are opened with multiStatements so a file may hold several statements.
type sqlMigration struct {
	up   string
	down string
}

func (m sqlMigration) Up(db *gorm.DB) error {
	return execFile(db, m.up)
}

func (m sqlMigration) Down(db *gorm.DB) error {
	if m.down == "" {
		return fmt.Errorf("%w: no %s next to %s", ErrIrreversible, downSuffix, filepath.Base(m.up))
	}
	return execFile(db, m.down)
}

func execFile(db *gorm.DB, path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("migration: read %s: %w", path, err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil
	}
	return db.Exec(string(body)).Error
}

// scanDir finds the SQL migrations in dir. It returns nil, nil when dir
// does not exist.
func scanDir(dir string) ([]source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("migration: scan %s: %w", dir, err)
	}

	files := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			files[e.Name()] = true
		}
	}

	out := []source{}
	for file := range files {
		name, ok := strings.CutSuffix(file, upSuffix)
		if !ok {
			continue
		}
		m := sqlMigration{up: filepath.Join(dir, file)}
		if files[name+downSuffix] {
			m.down = filepath.Join(dir, name+downSuffix)
		}
		out = append(out, source{name: name, source: dir, m: m})
	}
	return out, nil
}

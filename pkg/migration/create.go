package migration

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
)

//go:embed stubs/migration.go.stub
var stubs embed.FS

var (
	validName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	stubTmpl = template.Must(template.ParseFS(stubs, "stubs/migration.go.stub"))
)

// ErrInvalidName is returned by Create for a name that is not snake_case.
var ErrInvalidName = errors.New("migration: name must be snake_case")

type stubData struct {
	Package   string
	Namespace string
	Name      string
	Struct    string
}

// Create writes a Go migration stub into dir, registered under the new
// migration namespace, and returns the file path. The package clause is
// the directory's base name.
func (s *Service) Create(dir, name string) (string, error) {
	ns := s.Settings().NewMigrationNamespace
	if ns == "" {
		return "", ErrNoNamespace
	}
	if !validName.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	full := fmt.Sprintf("M%s_%s", s.now().UTC().Format("060102150405"), name)
	data := stubData{
		Package:   packageName(dir),
		Namespace: ns,
		Name:      full,
		Struct:    camel(name),
	}

	var buf bytes.Buffer
	if err := stubTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("migration: render stub: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("migration: format stub: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("migration: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, strings.ToLower(full)+".go")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("migration: %s already exists", path)
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return "", fmt.Errorf("migration: write %s: %w", path, err)
	}

	s.log.Info("migration: created", "path", path, "namespace", ns)
	return path, nil
}

// camel turns "create_posts" into "CreatePosts".
func camel(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

func packageName(dir string) string {
	base := strings.ToLower(filepath.Base(filepath.Clean(dir)))
	base = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return -1
	}, base)
	if base == "" || base[0] >= '0' && base[0] <= '9' {
		return "migrations"
	}
	return base
}

// Package migration runs and tracks database migrations.
//
// Migrations come from two kinds of sources, both selected by Settings.
// Go migrations are registered under a namespace, usually from an init()
// in the file that defines them:
//
//	func init() {
//	    migration.Register(`App\Migration`, "M260101000000_create_users", &CreateUsers{})
//	}
//
// SQL migrations are files in a source path named <name>.up.sql, with an
// optional <name>.down.sql.
//
// Every selected migration runs in name order; timestamp-prefixed names
// sort chronologically.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/demoapp/pkg/database"
	"github.com/shashiranjanraj/demoapp/pkg/logger"
)

// ServiceKey is the container key the Service is bound under.
const ServiceKey = "migration.service"

var (
	// ErrDuplicateMigration is returned when two sources provide the same name.
	ErrDuplicateMigration = errors.New("migration: duplicate name")
	// ErrUnknownMigration is returned when rolling back a migration no source provides.
	ErrUnknownMigration = errors.New("migration: not registered")
	// ErrIrreversible is returned by Down for a SQL migration with no down file.
	ErrIrreversible = errors.New("migration: irreversible")
	// ErrNoNamespace is returned by Create when no new-migration namespace is set.
	ErrNoNamespace = errors.New("migration: new migration namespace not set")
)

// Migration is the interface every migration must implement.
type Migration interface {
	// Up applies the migration.
	Up(db *gorm.DB) error
	// Down reverses the migration.
	Down(db *gorm.DB) error
}

// Settings selects where migrations come from and where new ones go.
type Settings struct {
	NewMigrationNamespace string
	SourceNamespaces      []string
	SourcePaths           []string
}

func (s Settings) clone() Settings {
	return Settings{
		NewMigrationNamespace: s.NewMigrationNamespace,
		SourceNamespaces:      append([]string(nil), s.SourceNamespaces...),
		SourcePaths:           append([]string(nil), s.SourcePaths...),
	}
}

// record is the GORM model stored in the tracking table.
type record struct {
	ID     uint      `gorm:"primaryKey;autoIncrement"`
	Name   string    `gorm:"uniqueIndex;size:255;not null"`
	Source string    `gorm:"size:1024"`
	Batch  int       `gorm:"not null"`
	RunAt  time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "migration" }

// Status describes one known migration.
type Status struct {
	Name   string
	Source string
	Ran    bool
	Batch  int
}

// Service executes and tracks migrations.
type Service struct {
	conn     database.Connection
	registry *Registry
	log      *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	settings Settings
}

// NewService creates a Service over conn. A nil registry means the
// package-level one that Register fills.
func NewService(conn database.Connection, registry *Registry, log *slog.Logger) *Service {
	if registry == nil {
		registry = defaultRegistry
	}
	return &Service{
		conn:     conn,
		registry: registry,
		log:      logger.Or(log),
		now:      time.Now,
	}
}

// Configure replaces the settings wholesale.
func (s *Service) Configure(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings.clone()
}

// Registry returns the registry Go migrations are taken from.
func (s *Service) Registry() *Registry { return s.registry }

// Settings returns a copy of the current settings.
func (s *Service) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.clone()
}

// Run applies every pending migration as one batch and returns the names
// it applied.
func (s *Service) Run(ctx context.Context) ([]string, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := s.pending(db)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		s.log.Info("migration: nothing to migrate")
		return nil, nil
	}

	batch, err := nextBatch(db)
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(pending))
	for _, src := range pending {
		s.log.Info("migration: running", "name", src.name, "source", src.source)

		if err := src.m.Up(db); err != nil {
			return applied, fmt.Errorf("migration: %s up: %w", src.name, err)
		}

		rec := record{Name: src.name, Source: src.source, Batch: batch}
		if err := db.Create(&rec).Error; err != nil {
			return applied, fmt.Errorf("migration: record %s: %w", src.name, err)
		}
		applied = append(applied, src.name)
	}

	s.log.Info("migration: done", "ran", len(applied), "batch", batch)
	return applied, nil
}

// Rollback reverses every migration from the most recent batch, newest
// first, and returns the names it reverted.
func (s *Service) Rollback(ctx context.Context) ([]string, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}

	last, err := nextBatch(db)
	if err != nil {
		return nil, err
	}
	last--
	if last == 0 {
		s.log.Info("migration: nothing to roll back")
		return nil, nil
	}

	var records []record
	if err := db.Where("batch = ?", last).Order("id desc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("migration: fetch batch %d: %w", last, err)
	}

	known, err := s.sources()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]Migration, len(known))
	for _, src := range known {
		byName[src.name] = src.m
	}

	reverted := make([]string, 0, len(records))
	for _, rec := range records {
		m, ok := byName[rec.Name]
		if !ok {
			return reverted, fmt.Errorf("%w: cannot roll back %s", ErrUnknownMigration, rec.Name)
		}

		s.log.Info("migration: rolling back", "name", rec.Name)

		if err := m.Down(db); err != nil {
			return reverted, fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		if err := db.Delete(&rec).Error; err != nil {
			return reverted, fmt.Errorf("migration: forget %s: %w", rec.Name, err)
		}
		reverted = append(reverted, rec.Name)
	}

	return reverted, nil
}

// Status lists every known migration and whether it has run.
func (s *Service) Status(ctx context.Context) ([]Status, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}

	ran, err := applied(db)
	if err != nil {
		return nil, err
	}

	known, err := s.sources()
	if err != nil {
		return nil, err
	}

	out := make([]Status, 0, len(known))
	for _, src := range known {
		st := Status{Name: src.name, Source: src.source}
		if rec, ok := ran[src.name]; ok {
			st.Ran = true
			st.Batch = rec.Batch
		}
		out = append(out, st)
	}
	return out, nil
}

// Pending returns the names of known migrations that have not run yet,
// in the order Run would apply them.
func (s *Service) Pending(ctx context.Context) ([]string, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := s.pending(db)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(pending))
	for _, src := range pending {
		names = append(names, src.name)
	}
	return names, nil
}

func (s *Service) pending(db *gorm.DB) ([]source, error) {
	ran, err := applied(db)
	if err != nil {
		return nil, err
	}

	known, err := s.sources()
	if err != nil {
		return nil, err
	}

	var out []source
	for _, src := range known {
		if _, ok := ran[src.name]; !ok {
			out = append(out, src)
		}
	}
	return out, nil
}

// db opens the connection and makes sure the tracking table exists.
func (s *Service) db(ctx context.Context) (*gorm.DB, error) {
	db, err := s.conn.DB()
	if err != nil {
		return nil, err
	}
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}
	return db, nil
}

// source is one migration with the place it came from.
type source struct {
	name   string
	source string
	m      Migration
}

// sources collects every migration the settings select, in name order.
func (s *Service) sources() ([]source, error) {
	settings := s.Settings()

	var out []source
	for _, ns := range settings.SourceNamespaces {
		out = append(out, s.registry.namespace(ns)...)
	}
	for _, dir := range settings.SourcePaths {
		found, err := scanDir(dir)
		if err != nil {
			return nil, err
		}
		if found == nil {
			s.log.Warn("migration: source path not found, skipping", "path", dir)
		}
		out = append(out, found...)
	}

	seen := make(map[string]string, len(out))
	for _, src := range out {
		if prev, ok := seen[src.name]; ok {
			return nil, fmt.Errorf("%w: %s in %s and %s", ErrDuplicateMigration, src.name, prev, src.source)
		}
		seen[src.name] = src.source
	}

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

func applied(db *gorm.DB) (map[string]record, error) {
	var ran []record
	if err := db.Find(&ran).Error; err != nil {
		return nil, fmt.Errorf("migration: fetch applied: %w", err)
	}
	out := make(map[string]record, len(ran))
	for _, rec := range ran {
		out[rec.Name] = rec
	}
	return out, nil
}

func nextBatch(db *gorm.DB) (int, error) {
	var maxBatch struct{ Max int }
	if err := db.Model(&record{}).Select("COALESCE(MAX(batch), 0) as max").Scan(&maxBatch).Error; err != nil {
		return 0, fmt.Errorf("migration: read batch: %w", err)
	}
	return maxBatch.Max + 1, nil
}

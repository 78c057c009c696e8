// Package migration runs and tracks schema migrations.
//
// Migrations register themselves from database/migrations:
//
//	func init() {
//	    migration.Register("20240601000002_create_products_table", &CreateProductsTable{})
//	}
//
// and are applied with `bazaar migrate` / reverted with `bazaar migrate:rollback`.
package migration

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

// record is a row of the tracking table.
type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "bazaar_migrations" }

// ------------------- Registry -------------------

type entry struct {
	name string
	m    Migration
}

var registry []entry

// Register adds a migration. Names are timestamp-prefixed and run in
// lexical order regardless of registration order.
func Register(name string, m Migration) {
	registry = append(registry, entry{name: name, m: m})
}

// ------------------- Runner -------------------

// Status is one line of `bazaar migrate:status`.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

type Runner struct {
	db      *gorm.DB
	entries []entry
	out     io.Writer
}

// New returns a Runner over every registered migration, printing progress
// to stdout.
func New(db *gorm.DB) *Runner {
	return newRunner(db, registry, os.Stdout)
}

func newRunner(db *gorm.DB, entries []entry, out io.Writer) *Runner {
	sorted := append([]entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].name < sorted[j].name })
	return &Runner{db: db, entries: sorted, out: out}
}

// EnsureTable creates the tracking table if it does not exist.
func (r *Runner) EnsureTable() error {
	return r.db.AutoMigrate(&record{})
}

func (r *Runner) ran() (map[string]record, error) {
	var rows []record
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]record, len(rows))
	for _, rec := range rows {
		out[rec.Name] = rec
	}
	return out, nil
}

// Pending lists migrations not yet applied.
func (r *Runner) Pending() ([]string, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}
	done, err := r.ran()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range r.entries {
		if _, ok := done[e.name]; !ok {
			names = append(names, e.name)
		}
	}
	return names, nil
}

// Run applies every pending migration as one batch. Each migration and its
// tracking row are committed together.
func (r *Runner) Run() error {
	if err := r.EnsureTable(); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	done, err := r.ran()
	if err != nil {
		return fmt.Errorf("migration: fetch ran: %w", err)
	}

	batch := r.lastBatch() + 1
	applied := 0
	for _, e := range r.entries {
		if _, ok := done[e.name]; ok {
			continue
		}
		fmt.Fprintf(r.out, "  ▶ Migrating: %s\n", e.name)
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := e.m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&record{Name: e.name, Batch: batch}).Error
		})
		if err != nil {
			return fmt.Errorf("migration: %s up: %w", e.name, err)
		}
		applied++
		fmt.Fprintf(r.out, "  ✅ Migrated:  %s\n", e.name)
	}

	if applied == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return nil
	}
	logger.Info("migration: done", "ran", applied, "batch", batch)
	return nil
}

// Rollback reverts the most recent batch in reverse order.
func (r *Runner) Rollback() error {
	if err := r.EnsureTable(); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	last := r.lastBatch()
	if last == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return nil
	}

	var rows []record
	if err := r.db.Where("batch = ?", last).Order("id desc").Find(&rows).Error; err != nil {
		return err
	}

	byName := make(map[string]Migration, len(r.entries))
	for _, e := range r.entries {
		byName[e.name] = e.m
	}

	for _, rec := range rows {
		m, ok := byName[rec.Name]
		if !ok {
			return fmt.Errorf("migration: cannot roll back %s: not registered", rec.Name)
		}
		fmt.Fprintf(r.out, "  ◀ Rolling back: %s\n", rec.Name)
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&record{}, rec.ID).Error
		})
		if err != nil {
			return fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		fmt.Fprintf(r.out, "  ✅ Rolled back:  %s\n", rec.Name)
	}
	logger.Info("migration: rolled back", "batch", last, "count", len(rows))
	return nil
}

// Status reports every registered migration and whether it has run.
func (r *Runner) Status() ([]Status, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, err
	}
	done, err := r.ran()
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(r.entries))
	for _, e := range r.entries {
		rec, ok := done[e.name]
		out = append(out, Status{Name: e.name, Ran: ok, Batch: rec.Batch})
	}
	return out, nil
}

func (r *Runner) lastBatch() int {
	var max struct{ Max int }
	r.db.Model(&record{}).Select("COALESCE(MAX(batch), 0) as max").Scan(&max)
	return max.Max
}

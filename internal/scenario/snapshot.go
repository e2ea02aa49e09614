// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package scenario

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const valueBatchSize = 500

// Snapshot is the solved state of one run.
type Snapshot struct {
	ID        uuid.UUID
	Name      string
	Scenario  string
	Status    string
	Objective float64
	CreatedAt time.Time
	Values    map[string]float64
}

// storedRun is the persisted header of a snapshot.
type storedRun struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	Scenario  string
	Status    string
	Objective float64
	CreatedAt time.Time
}

// storedValue is one solved variable of a run.
type storedValue struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"index"`
	Variable string
	Value    float64
}

// Store keeps snapshots in a SQLite database.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&storedRun{}, &storedValue{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save writes a snapshot. A zero ID is replaced with a new one, which is
// returned.
func (s *Store) Save(ctx context.Context, snap *Snapshot) (uuid.UUID, error) {
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	run := storedRun{
		ID:        snap.ID.String(),
		Name:      snap.Name,
		Scenario:  snap.Scenario,
		Status:    snap.Status,
		Objective: snap.Objective,
		CreatedAt: snap.CreatedAt,
	}

	names := make([]string, 0, len(snap.Values))
	for name := range snap.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	values := make([]storedValue, 0, len(names))
	for _, name := range names {
		values = append(values, storedValue{RunID: run.ID, Variable: name, Value: snap.Values[name]})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		if len(values) == 0 {
			return nil
		}
		return tx.CreateInBatches(values, valueBatchSize).Error
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("save snapshot %s: %w", run.ID, err)
	}
	return snap.ID, nil
}

// Load reads a snapshot back with its values as a flat map.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	db := s.db.WithContext(ctx)

	var run storedRun
	err := db.Where("id = ?", id.String()).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}

	var values []storedValue
	if err := db.Where("run_id = ?", run.ID).Find(&values).Error; err != nil {
		return nil, fmt.Errorf("load snapshot %s values: %w", id, err)
	}
	snap := toSnapshot(run)
	snap.Values = make(map[string]float64, len(values))
	for _, v := range values {
		snap.Values[v.Variable] = v.Value
	}
	return snap, nil
}

// Runs lists stored snapshots without their values, newest first.
func (s *Store) Runs(ctx context.Context) ([]*Snapshot, error) {
	var runs []storedRun
	if err := s.db.WithContext(ctx).Order("created_at desc, id").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]*Snapshot, len(runs))
	for i, r := range runs {
		out[i] = toSnapshot(r)
	}
	return out, nil
}

func toSnapshot(r storedRun) *Snapshot {
	id, _ := uuid.Parse(r.ID)
	return &Snapshot{
		ID:        id,
		Name:      r.Name,
		Scenario:  r.Scenario,
		Status:    r.Status,
		Objective: r.Objective,
		CreatedAt: r.CreatedAt,
	}
}

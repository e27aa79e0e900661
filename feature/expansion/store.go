package expansion

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"collection-engine/core/database"
	"collection-engine/core/snapshot"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repository loads and saves the toggles of a collection.
type Repository interface {
	Load(ctx context.Context, collectionID string) (map[string]snapshot.ExpansionState, error)
	Save(ctx context.Context, collectionID string, toggles map[string]snapshot.ExpansionState) error
	Delete(ctx context.Context, collectionID string) error
}

// Store is the SQL Repository.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore creates a Store over db.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Migrate creates or updates the toggle table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", TableName, err)
	}
	return nil
}

// CheckSchema reports an error when the toggle table lacks a column the store
// depends on.
func (s *Store) CheckSchema() error {
	missing, err := database.MissingColumns(s.db, TableName, Columns...)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s is missing columns: %s", TableName, strings.Join(missing, ", "))
	}
	return nil
}

// Load returns the stored toggles of a collection. Rows with a state that is
// not expandable are skipped.
func (s *Store) Load(ctx context.Context, collectionID string) (map[string]snapshot.ExpansionState, error) {
	var records []Record
	err := s.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load expansions of %s: %w", collectionID, err)
	}

	toggles := make(map[string]snapshot.ExpansionState, len(records))
	for _, r := range records {
		state, err := snapshot.ParseExpansion(r.State)
		if err != nil || !state.Expandable() {
			s.logger.Warn("Skipping stored expansion",
				zap.String("collection", collectionID),
				zap.String("section", r.SectionKey),
				zap.String("state", r.State),
			)
			continue
		}
		toggles[r.SectionKey] = state
	}
	return toggles, nil
}

// Save replaces the stored toggles of a collection.
func (s *Store) Save(ctx context.Context, collectionID string, toggles map[string]snapshot.ExpansionState) error {
	keys := make([]string, 0, len(toggles))
	for k, state := range toggles {
		if state.Expandable() {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	records := make([]Record, len(keys))
	for i, k := range keys {
		records[i] = Record{CollectionID: collectionID, SectionKey: k, State: toggles[k].String()}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", collectionID).Delete(&Record{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save expansions of %s: %w", collectionID, err)
	}
	s.logger.Debug("Saved expansions", zap.String("collection", collectionID), zap.Int("sections", len(records)))
	return nil
}

// Delete removes every stored toggle of a collection.
func (s *Store) Delete(ctx context.Context, collectionID string) error {
	err := s.db.WithContext(ctx).Where("collection_id = ?", collectionID).Delete(&Record{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete expansions of %s: %w", collectionID, err)
	}
	return nil
}

// Seed loads the toggles of a collection as a snapshot suitable for the
// previous argument of snapshot.Build.
func Seed(ctx context.Context, repo Repository, collectionID string) (*snapshot.Snapshot[string, any], error) {
	toggles, err := repo.Load(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	return snapshot.Seed[string, any](toggles), nil
}

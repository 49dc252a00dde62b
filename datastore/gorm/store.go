package gorm

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Value is a single namespaced settings entry.
type Value struct {
	Namespace string         `gorm:"column:namespace;primaryKey"`
	Key       string         `gorm:"column:key;primaryKey"`
	Value     datatypes.JSON `gorm:"column:value"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (Value) TableName() string {
	return "settings_values"
}

// Store buffers writes in memory and writes them to the database on
// Synchronize.
type Store struct {
	db        *gorm.DB
	namespace string

	mu      sync.Mutex
	pending map[string][]byte
}

func NewStore(db *gorm.DB, namespace string) *Store {
	return &Store{
		db:        db,
		namespace: namespace,
		pending:   make(map[string][]byte),
	}
}

func (s *Store) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.pending[key]; ok {
		return append([]byte(nil), v...), true, nil
	}

	item := Value{}
	err := s.db.Where(&Value{Namespace: s.namespace, Key: key}).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	return []byte(item.Value), true, nil
}

func (s *Store) Set(key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("value for key %q is not valid JSON", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[key] = append([]byte(nil), value...)
	return nil
}

// Synchronize upserts all buffered values. Buffered values are kept when the
// write fails.
func (s *Store) Synchronize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}

	keys := make([]string, 0, len(s.pending))
	for k := range s.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]Value, len(keys))
	for i, k := range keys {
		items[i] = Value{Namespace: s.namespace, Key: k, Value: datatypes.JSON(s.pending[k])}
	}

	err := transaction(s.db, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&items).Error
	})
	if err != nil {
		return err
	}

	s.pending = make(map[string][]byte)
	return nil
}

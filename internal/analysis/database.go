package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/zombor/fin-scanner/internal/metrics"
)

const bucketName = "analyses"

// ErrNotFound is returned when an analysis or its file does not exist
var ErrNotFound = errors.New("not found")

// DB defines the interface for analysis history operations
type DB interface {
	// SaveAnalysis stores an analysis, replacing one with the same ID
	SaveAnalysis(analysis *Analysis) error

	// GetAnalysis retrieves an analysis by ID
	GetAnalysis(id string) (*Analysis, error)

	// ListAnalyses returns all analyses, oldest first
	ListAnalyses() ([]*Analysis, error)

	// DeleteAnalysis removes an analysis
	DeleteAnalysis(id string) error

	// Close closes the database
	Close() error
}

// sortHistory orders analyses by creation time, then ID
func sortHistory(analyses []*Analysis) {
	sort.SliceStable(analyses, func(i, j int) bool {
		if !analyses[i].CreatedAt.Equal(analyses[j].CreatedAt) {
			return analyses[i].CreatedAt.Before(analyses[j].CreatedAt)
		}
		return analyses[i].ID < analyses[j].ID
	})
}

// MemoryDB keeps the history for the lifetime of the process only
type MemoryDB struct {
	mu       sync.RWMutex
	analyses map[string]*Analysis
}

// cloneAnalysis copies an analysis so the stored metrics share nothing with the caller
func cloneAnalysis(a *Analysis) *Analysis {
	out := *a
	out.Metrics = metrics.NewMetricSet(a.Metrics.Metrics()...)
	return &out
}

// NewMemoryDB creates an empty in-memory history
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{analyses: make(map[string]*Analysis)}
}

// SaveAnalysis stores a copy of the analysis
func (m *MemoryDB) SaveAnalysis(analysis *Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses[analysis.ID] = cloneAnalysis(analysis)
	return nil
}

// GetAnalysis retrieves a copy of an analysis by ID
func (m *MemoryDB) GetAnalysis(id string) (*Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.analyses[id]
	if !ok {
		return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	return cloneAnalysis(a), nil
}

// ListAnalyses returns copies of all analyses, oldest first
func (m *MemoryDB) ListAnalyses() ([]*Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	analyses := make([]*Analysis, 0, len(m.analyses))
	for _, a := range m.analyses {
		analyses = append(analyses, cloneAnalysis(a))
	}
	sortHistory(analyses)
	return analyses, nil
}

// DeleteAnalysis removes an analysis
func (m *MemoryDB) DeleteAnalysis(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.analyses[id]; !ok {
		return fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	delete(m.analyses, id)
	return nil
}

// Close is a no-op
func (m *MemoryDB) Close() error {
	return nil
}

// BoltDB implements the DB interface using BoltDB, persisting the history
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveAnalysis saves an analysis to the database
func (b *BoltDB) SaveAnalysis(analysis *Analysis) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(analysis)
		if err != nil {
			return fmt.Errorf("marshaling analysis: %w", err)
		}
		return tx.Bucket([]byte(bucketName)).Put([]byte(analysis.ID), data)
	})
}

// GetAnalysis retrieves an analysis by ID
func (b *BoltDB) GetAnalysis(id string) (*Analysis, error) {
	var analysis *Analysis
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("analysis %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &analysis)
	})
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

// ListAnalyses returns all analyses, oldest first
func (b *BoltDB) ListAnalyses() ([]*Analysis, error) {
	analyses := make([]*Analysis, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			var analysis Analysis
			if err := json.Unmarshal(v, &analysis); err != nil {
				return fmt.Errorf("unmarshaling analysis: %w", err)
			}
			analyses = append(analyses, &analysis)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortHistory(analyses)
	return analyses, nil
}

// DeleteAnalysis removes an analysis from the database
func (b *BoltDB) DeleteAnalysis(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("analysis %s: %w", id, ErrNotFound)
		}
		return bucket.Delete([]byte(id))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/models"
)

const boltSchemaVersion = 1

var (
	bucketDocuments        = []byte("documents")
	bucketDocumentsStatus  = []byte("documents_by_status")
	bucketPendingChanges   = []byte("pending_changes")
	bucketChangesDocument  = []byte("pending_changes_by_document")
	bucketMeta             = []byte("meta")
	keySchemaVersion       = []byte("schema_version")
	indexSeparator         = []byte{0}
	errBoltSchemaTooRecent = errors.New("bolt schema version is newer than supported")
)

// boltStore is the bbolt-backed [DurableStore]. Secondary lookups by sync
// status and by document id are kept in index buckets updated in the same
// transaction as the primary record.
type boltStore struct {
	mu     sync.RWMutex
	db     *bolt.DB
	path   string
	closed bool
	logger *logger.Logger
}

// NewBoltStore opens the bbolt file at path, creating buckets on first use.
func NewBoltStore(path string, log *logger.Logger) (DurableStore, error) {
	db, err := openBolt(path)
	if err != nil {
		log.Err(err).Str("func", "NewBoltStore").Str("path", path).Msg("error opening bolt database")
		return nil, err
	}
	log.Debug().Str("func", "NewBoltStore").Str("path", path).Msg("opened bolt database")

	return &boltStore{db: db, path: path, logger: log}, nil
}

func openBolt(path string) (*bolt.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketDocuments, bucketDocumentsStatus, bucketPendingChanges, bucketChangesDocument, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		meta := tx.Bucket(bucketMeta)
		if v := meta.Get(keySchemaVersion); len(v) == 1 && int(v[0]) > boltSchemaVersion {
			return errBoltSchemaTooRecent
		}
		return meta.Put(keySchemaVersion, []byte{boltSchemaVersion})
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error initialising bolt buckets: %w", err)
	}

	return db, nil
}

func indexKey(prefix, id string) []byte {
	key := make([]byte, 0, len(prefix)+1+len(id))
	key = append(key, prefix...)
	key = append(key, indexSeparator...)
	return append(key, id...)
}

func indexPrefix(prefix string) []byte {
	return append([]byte(prefix), indexSeparator...)
}

// indexedKeys returns copies of the primary keys stored in an index bucket
// under prefix.
func indexedKeys(c *bolt.Cursor, prefix []byte) [][]byte {
	var keys [][]byte
	k, _ := c.Seek(prefix)
	for ; bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		keys = append(keys, bytes.Clone(k[len(prefix):]))
	}
	return keys
}

func (s *boltStore) handle() (*bolt.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("%w: store is closed", ErrStoreUnavailable)
	}
	return s.db, nil
}

func (s *boltStore) reopen(stale *bolt.DB) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}
	if s.db != stale {
		return nil
	}

	_ = s.db.Close()
	db, err := openBolt(s.path)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

// do runs op and, when the database was closed underneath it, reopens the
// file and runs op exactly once more.
func (s *boltStore) do(fn string, op func(db *bolt.DB) error) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	err = op(db)
	if !errors.Is(err, berrors.ErrDatabaseNotOpen) {
		return err
	}

	s.logger.Warn().Err(err).Str("func", fn).Msg("bolt database closed, reopening")
	if reopenErr := s.reopen(db); reopenErr != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, errors.Join(err, reopenErr))
	}

	if db, err = s.handle(); err != nil {
		return err
	}
	if err = op(db); errors.Is(err, berrors.ErrDatabaseNotOpen) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}

func getBoltDocument(tx *bolt.Tx, id string) (models.DocumentSnapshot, bool, error) {
	raw := tx.Bucket(bucketDocuments).Get([]byte(id))
	if raw == nil {
		return models.DocumentSnapshot{}, false, nil
	}

	var d models.DocumentSnapshot
	if err := json.Unmarshal(raw, &d); err != nil {
		return models.DocumentSnapshot{}, false, fmt.Errorf("%w: document %s: %w", ErrCorruptRecord, id, err)
	}
	return d, true, nil
}

func deleteBoltDocument(tx *bolt.Tx, d models.DocumentSnapshot) error {
	if err := tx.Bucket(bucketDocumentsStatus).Delete(indexKey(string(d.SyncStatus), d.ID)); err != nil {
		return err
	}
	return tx.Bucket(bucketDocuments).Delete([]byte(d.ID))
}

func clearBoltChanges(tx *bolt.Tx, documentID string) error {
	byDoc := tx.Bucket(bucketChangesDocument)
	changes := tx.Bucket(bucketPendingChanges)

	for _, changeID := range indexedKeys(byDoc.Cursor(), indexPrefix(documentID)) {
		if err := changes.Delete(changeID); err != nil {
			return err
		}
		if err := byDoc.Delete(indexKey(documentID, string(changeID))); err != nil {
			return err
		}
	}
	return nil
}

func (s *boltStore) Put(_ context.Context, snapshot models.DocumentSnapshot) error {
	if snapshot.ID == "" || !snapshot.SyncStatus.Valid() {
		return ErrInvalidSnapshot
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	err = s.do("boltStore.Put", func(db *bolt.DB) error {
		return db.Update(func(tx *bolt.Tx) error {
			old, found, err := getBoltDocument(tx, snapshot.ID)
			if err == nil && found && old.SyncStatus != snapshot.SyncStatus {
				if err = tx.Bucket(bucketDocumentsStatus).Delete(indexKey(string(old.SyncStatus), old.ID)); err != nil {
					return err
				}
			}
			if err = tx.Bucket(bucketDocuments).Put([]byte(snapshot.ID), raw); err != nil {
				return err
			}
			return tx.Bucket(bucketDocumentsStatus).Put(indexKey(string(snapshot.SyncStatus), snapshot.ID), nil)
		})
	})
	if err != nil {
		s.logger.Err(err).Str("func", "boltStore.Put").Str("document_id", snapshot.ID).Msg("failed to put document snapshot")
	}
	return err
}

func (s *boltStore) Get(_ context.Context, id string) (models.DocumentSnapshot, bool, error) {
	var (
		snapshot models.DocumentSnapshot
		found    bool
	)

	err := s.do("boltStore.Get", func(db *bolt.DB) error {
		return db.View(func(tx *bolt.Tx) error {
			var err error
			snapshot, found, err = getBoltDocument(tx, id)
			return err
		})
	})
	if err != nil {
		s.logger.Err(err).Str("func", "boltStore.Get").Str("document_id", id).Msg("failed to get document snapshot")
		return models.DocumentSnapshot{}, false, err
	}
	return snapshot, found, nil
}

func (s *boltStore) Delete(_ context.Context, id string) error {
	return s.do("boltStore.Delete", func(db *bolt.DB) error {
		return db.Update(func(tx *bolt.Tx) error {
			d, found, err := getBoltDocument(tx, id)
			if err != nil || !found {
				return err
			}
			return deleteBoltDocument(tx, d)
		})
	})
}

func (s *boltStore) ListByStatus(_ context.Context, status models.SyncStatus) ([]models.DocumentSnapshot, error) {
	result := make([]models.DocumentSnapshot, 0, 8)

	err := s.do("boltStore.ListByStatus", func(db *bolt.DB) error {
		result = result[:0]
		return db.View(func(tx *bolt.Tx) error {
			c := tx.Bucket(bucketDocumentsStatus).Cursor()
			for _, id := range indexedKeys(c, indexPrefix(string(status))) {
				d, found, err := getBoltDocument(tx, string(id))
				if err != nil {
					return err
				}
				if found {
					result = append(result, d)
				}
			}
			return nil
		})
	})
	if err != nil {
		s.logger.Err(err).Str("func", "boltStore.ListByStatus").Str("status", string(status)).Msg("failed to list snapshots")
		return nil, err
	}

	sortSnapshots(result)
	return result, nil
}

func (s *boltStore) AddPendingChange(_ context.Context, change models.PendingChange) error {
	if change.ID == "" || change.DocumentID == "" {
		return ErrInvalidChange
	}

	raw, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChange, err)
	}

	return s.do("boltStore.AddPendingChange", func(db *bolt.DB) error {
		return db.Update(func(tx *bolt.Tx) error {
			changes := tx.Bucket(bucketPendingChanges)
			if prev := changes.Get([]byte(change.ID)); prev != nil {
				var old models.PendingChange
				if err := json.Unmarshal(prev, &old); err == nil && old.DocumentID != change.DocumentID {
					if err = tx.Bucket(bucketChangesDocument).Delete(indexKey(old.DocumentID, old.ID)); err != nil {
						return err
					}
				}
			}
			if err := changes.Put([]byte(change.ID), raw); err != nil {
				return err
			}
			return tx.Bucket(bucketChangesDocument).Put(indexKey(change.DocumentID, change.ID), nil)
		})
	})
}

func (s *boltStore) ListPendingChanges(_ context.Context, documentID string) ([]models.PendingChange, error) {
	result := make([]models.PendingChange, 0, 4)

	err := s.do("boltStore.ListPendingChanges", func(db *bolt.DB) error {
		result = result[:0]
		return db.View(func(tx *bolt.Tx) error {
			changes := tx.Bucket(bucketPendingChanges)
			c := tx.Bucket(bucketChangesDocument).Cursor()
			for _, changeID := range indexedKeys(c, indexPrefix(documentID)) {
				raw := changes.Get(changeID)
				if raw == nil {
					continue
				}
				var change models.PendingChange
				if err := json.Unmarshal(raw, &change); err != nil {
					return fmt.Errorf("%w: pending change %s: %w", ErrCorruptRecord, changeID, err)
				}
				result = append(result, change)
			}
			return nil
		})
	})
	if err != nil {
		s.logger.Err(err).Str("func", "boltStore.ListPendingChanges").Str("document_id", documentID).Msg("failed to list pending changes")
		return nil, err
	}

	sortChanges(result)
	return result, nil
}

func (s *boltStore) RemovePendingChange(_ context.Context, id string) error {
	return s.do("boltStore.RemovePendingChange", func(db *bolt.DB) error {
		return db.Update(func(tx *bolt.Tx) error {
			changes := tx.Bucket(bucketPendingChanges)
			raw := changes.Get([]byte(id))
			if raw == nil {
				return nil
			}
			var change models.PendingChange
			if err := json.Unmarshal(raw, &change); err == nil {
				if err = tx.Bucket(bucketChangesDocument).Delete(indexKey(change.DocumentID, id)); err != nil {
					return err
				}
			}
			return changes.Delete([]byte(id))
		})
	})
}

func (s *boltStore) ClearPendingChanges(_ context.Context, documentID string) error {
	return s.do("boltStore.ClearPendingChanges", func(db *bolt.DB) error {
		return db.Update(func(tx *bolt.Tx) error {
			return clearBoltChanges(tx, documentID)
		})
	})
}

func (s *boltStore) EvictOlderThan(_ context.Context, age time.Duration, onlyIfSynced bool) (int, error) {
	cutoff := time.Now().Add(-age)
	evicted := 0

	err := s.do("boltStore.EvictOlderThan", func(db *bolt.DB) error {
		evicted = 0
		return db.Update(func(tx *bolt.Tx) error {
			var stale []models.DocumentSnapshot
			c := tx.Bucket(bucketDocumentsStatus).Cursor()
			for _, id := range indexedKeys(c, indexPrefix(string(models.SyncStatusSynced))) {
				d, found, err := getBoltDocument(tx, string(id))
				if err != nil {
					return err
				}
				if found && d.SyncStatus == models.SyncStatusSynced && d.LastModified.Before(cutoff) {
					stale = append(stale, d)
				}
			}

			for _, d := range stale {
				if err := clearBoltChanges(tx, d.ID); err != nil {
					return err
				}
				if err := deleteBoltDocument(tx, d); err != nil {
					return err
				}
				evicted++
			}

			if onlyIfSynced {
				return nil
			}
			return purgeBoltOrphans(tx, cutoff)
		})
	})
	if err != nil {
		s.logger.Err(err).Str("func", "boltStore.EvictOlderThan").Dur("age", age).Msg("eviction failed")
		return 0, err
	}

	return evicted, nil
}

func purgeBoltOrphans(tx *bolt.Tx, cutoff time.Time) error {
	documents := tx.Bucket(bucketDocuments)
	changes := tx.Bucket(bucketPendingChanges)

	var orphans []models.PendingChange
	err := changes.ForEach(func(_, raw []byte) error {
		var change models.PendingChange
		if err := json.Unmarshal(raw, &change); err != nil {
			return fmt.Errorf("%w: %w", ErrCorruptRecord, err)
		}
		if documents.Get([]byte(change.DocumentID)) == nil && change.Timestamp.Before(cutoff) {
			orphans = append(orphans, change)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, change := range orphans {
		if err = changes.Delete([]byte(change.ID)); err != nil {
			return err
		}
		if err = tx.Bucket(bucketChangesDocument).Delete(indexKey(change.DocumentID, change.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (s *boltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

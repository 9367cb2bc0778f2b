package harvest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileStore is the durable key -> ProgressRecord mapping behind a harvest
// run. The whole mapping is kept in memory and flushed to a single indented
// JSON file so the output stays greppable; saves go through a temp file and
// rename so an interrupted save never truncates a previously valid store.
type FileStore struct {
	path           string
	checkpointPath string
	logger         *zap.Logger

	mu      sync.Mutex
	records map[string]ProgressRecord
}

// OpenStore loads the store at path, treating a missing or empty file as an
// empty store (first run). checkpointPath may be empty to disable the
// advisory side-file.
func OpenStore(path, checkpointPath string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FileStore{
		path:           path,
		checkpointPath: checkpointPath,
		logger:         logger,
		records:        make(map[string]ProgressRecord),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress store %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("parse progress store %s: %w", path, err)
	}
	logger.Info("Loaded existing progress store",
		zap.String("path", path),
		zap.Int("records", len(s.records)),
	)
	return s, nil
}

// Get returns the record for key, if any.
func (s *FileStore) Get(key string) (ProgressRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	return rec, ok
}

// Len returns the number of records held.
func (s *FileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Record upserts one entry in memory. A record that already holds a
// successful result is never overwritten; resumed runs skip those items, so
// hitting this path means two sources disagree and the first result stands.
// Persistence is the caller's job via Save.
func (s *FileStore) Record(key string, rec ProgressRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[key]; ok && existing.Status == OutcomeSuccess {
		return
	}
	s.records[key] = rec
}

// Counts tallies records by status.
func (s *FileStore) Counts() map[OutcomeKind]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[OutcomeKind]int, 3)
	for _, rec := range s.records {
		counts[rec.Status]++
	}
	return counts
}

// Save writes the full mapping atomically: marshal, write a temp file in the
// same directory, then rename over the target.
func (s *FileStore) Save() error {
	s.mu.Lock()
	payload, err := json.MarshalIndent(s.records, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal progress store: %w", err)
	}
	return atomicWrite(s.path, payload)
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// SaveCheckpoint writes the advisory counters side-file. Failures are logged
// and swallowed; the checkpoint is never authoritative.
func (s *FileStore) SaveCheckpoint(cp Checkpoint) {
	if s.checkpointPath == "" {
		return
	}
	payload, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		s.logger.Warn("Could not marshal checkpoint", zap.Error(err))
		return
	}
	if err := atomicWrite(s.checkpointPath, payload); err != nil {
		s.logger.Warn("Could not save checkpoint", zap.Error(err))
	}
}

// RemoveCheckpoint deletes the side-file once the store itself is complete.
func (s *FileStore) RemoveCheckpoint() {
	if s.checkpointPath == "" {
		return
	}
	if err := os.Remove(s.checkpointPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("Could not remove checkpoint file",
			zap.String("path", s.checkpointPath),
			zap.Error(err),
		)
	}
}

func atomicWrite(path string, payload []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s to %s: %w", tmpName, path, err)
	}
	return nil
}

// Package storage provides the client's persistent key-value state, the
// equivalent of browser localStorage: the bearer credential, the local
// activity-log fallback and the theme preference all live here.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"taskclient/internal/logger"

	"go.uber.org/zap"
)

type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// FileStore keeps values in a single JSON document on disk. I/O failures are
// swallowed: a store that cannot read or write behaves as permanently empty,
// mirroring a browsing context with storage disabled.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
	broken bool
}

func NewFileStore(path string) *FileStore {
	s := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("storage: read failed, running empty", zap.String("path", path), zap.Error(err))
			s.broken = true
		}
		return s
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		logger.Warn("storage: corrupt state file, running empty", zap.String("path", path), zap.Error(err))
		s.values = make(map[string]string)
	}
	return s
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

func (s *FileStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken {
		return
	}
	s.values[key] = value
	s.flush()
}

func (s *FileStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken {
		return
	}
	delete(s.values, key)
	s.flush()
}

// flush persists the whole document. Called with the lock held.
func (s *FileStore) flush() {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		logger.Warn("storage: mkdir failed", zap.Error(err))
		s.broken = true
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		logger.Warn("storage: write failed", zap.Error(err))
		s.broken = true
	}
}

// MemStore is an in-memory KV for tests and ephemeral sessions.
type MemStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]string)}
}

func (s *MemStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *MemStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

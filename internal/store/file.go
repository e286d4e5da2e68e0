package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileKV keeps every key in a single JSON document on disk. Writes go to a
// temp file first and are renamed into place, so a crash never leaves a half
// written document behind.
type FileKV struct {
	mu   sync.Mutex
	path string
}

type fileEntry struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// NewFileKV creates a file-backed KV at path. The file is created on first write.
func NewFileKV(path string) (*FileKV, error) {
	if path == "" {
		return nil, fmt.Errorf("file store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileKV{path: path}, nil
}

// Path returns the backing file.
func (s *FileKV) Path() string { return s.path }

func (s *FileKV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	e, ok := doc[key]
	if !ok {
		return nil, ErrNotFound
	}
	if e.ExpiresAt != nil && time.Now().After(*e.ExpiresAt) {
		return nil, ErrNotFound
	}
	return unwrapValue(e.Value), nil
}

func (s *FileKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		// An unreadable document is replaced rather than blocking every write.
		doc = make(map[string]fileEntry)
	}
	e := fileEntry{Value: wrapValue(value)}
	if ttl > 0 {
		exp := time.Now().Add(ttl)
		e.ExpiresAt = &exp
	}
	doc[key] = e
	return s.write(doc)
}

func (s *FileKV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		doc = make(map[string]fileEntry)
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return s.write(doc)
}

func (s *FileKV) read() (map[string]fileEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]fileEntry), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	doc := make(map[string]fileEntry)
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode store file: %w", err)
	}
	return doc, nil
}

func (s *FileKV) write(doc map[string]fileEntry) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".kv-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// Values are stored as JSON strings so arbitrary bytes (including malformed
// JSON written by older builds) survive the round trip unchanged.
func wrapValue(v []byte) json.RawMessage {
	data, _ := json.Marshal(string(v))
	return data
}

func unwrapValue(raw json.RawMessage) []byte {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return []byte(raw)
	}
	return []byte(s)
}

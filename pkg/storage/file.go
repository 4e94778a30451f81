package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"solarb/pkg/arb"
)

// FileStore serializes selections as JSON strategy files under one
// directory, schema {"value": [...]}.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// WriteVec writes the selection to <dir>/<name>.json and returns the path.
func (s *FileStore) WriteVec(name string, vec arb.VecSwapPathSelected) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create strategy dir: %w", err)
	}

	path := filepath.Join(s.dir, name+".json")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create strategy file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := json.NewEncoder(writer).Encode(vec); err != nil {
		return "", fmt.Errorf("encode strategy file: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("flush strategy file: %w", err)
	}

	return path, nil
}

// ReadVec loads a selection back from a strategy file.
func (s *FileStore) ReadVec(path string) (arb.VecSwapPathSelected, error) {
	file, err := os.Open(path)
	if err != nil {
		return arb.VecSwapPathSelected{}, fmt.Errorf("open strategy file: %w", err)
	}
	defer file.Close()

	var vec arb.VecSwapPathSelected
	if err := json.NewDecoder(file).Decode(&vec); err != nil {
		return arb.VecSwapPathSelected{}, fmt.Errorf("decode strategy file %s: %w", path, err)
	}
	return vec, nil
}

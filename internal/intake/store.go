// Package intake provides the file-backed batch store used for the
// intake and processed locations. A batch is one CSV file with a stable
// header row; the store contract is list, read, write, remove.
package intake

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/domain"
)

const (
	batchExtension = ".csv"
	dirPermissions = 0o755
)

// FileStore is a listable, durable batch location backed by a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if mkdirErr := os.MkdirAll(dir, dirPermissions); mkdirErr != nil {
		return nil, fmt.Errorf("create batch dir %s: %w", dir, mkdirErr)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory backing this store.
func (s *FileStore) Dir() string {
	return s.dir
}

// List returns the names of all batches currently in the store, sorted.
// The result is a snapshot: batches arriving after the call are not
// included.
func (s *FileStore) List() ([]string, error) {
	entries, readErr := os.ReadDir(s.dir)
	if readErr != nil {
		return nil, fmt.Errorf("list batches in %s: %w", s.dir, readErr)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), batchExtension) {
			continue
		}
		names = append(names, entry.Name())
	}

	sort.Strings(names)
	return names, nil
}

// ReadBatch reads one named batch. The first CSV record is the header.
func (s *FileStore) ReadBatch(name string) (*domain.Batch, error) {
	path := filepath.Join(s.dir, name)

	f, openErr := os.Open(path)
	if openErr != nil {
		return nil, fmt.Errorf("open batch %s: %w", name, openErr)
	}
	defer f.Close()

	records, readErr := csv.NewReader(f).ReadAll()
	if readErr != nil {
		return nil, fmt.Errorf("read batch %s: %w", name, readErr)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("batch %s has no header row", name)
	}

	info, statErr := f.Stat()
	if statErr != nil {
		return nil, fmt.Errorf("stat batch %s: %w", name, statErr)
	}

	return &domain.Batch{
		Name:      name,
		Header:    records[0],
		Rows:      records[1:],
		ArrivedAt: info.ModTime().UTC(),
	}, nil
}

// WriteBatch durably writes a batch under the given name. The write goes
// through a temp file and a rename so readers never observe a partial
// batch.
func (s *FileStore) WriteBatch(name string, header []string, rows [][]string) error {
	tmp, tmpErr := os.CreateTemp(s.dir, name+".tmp-*")
	if tmpErr != nil {
		return fmt.Errorf("create temp for batch %s: %w", name, tmpErr)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	writeErr := w.Write(header)
	if writeErr == nil {
		writeErr = w.WriteAll(rows)
	}
	if writeErr == nil {
		w.Flush()
		writeErr = w.Error()
	}
	if writeErr == nil {
		writeErr = tmp.Sync()
	}

	closeErr := tmp.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write batch %s: %w", name, writeErr)
	}

	if renameErr := os.Rename(tmpPath, filepath.Join(s.dir, name)); renameErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalize batch %s: %w", name, renameErr)
	}

	return nil
}

// Remove deletes a named batch from the store.
func (s *FileStore) Remove(name string) error {
	if removeErr := os.Remove(filepath.Join(s.dir, name)); removeErr != nil {
		return fmt.Errorf("remove batch %s: %w", name, removeErr)
	}
	return nil
}

package progress

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"hxcodewarrior/ctripcrawler/pkg/errors"
)

// Checkpoint is the last durably recorded crawl position. Only the most
// recent checkpoint is kept; it is used to resume, never to deduplicate
// rows that were already written.
type Checkpoint struct {
	Target   string
	Category string
	Page     int
	Index    int
}

// Store persists the single last-known checkpoint
type Store interface {
	Save(cp Checkpoint) error
	Load() (*Checkpoint, error)
}

// FileStore keeps the checkpoint as one delimited line, overwritten on every
// save. The underlying file write is serialized; concurrent workers only ever
// touch their own target's checkpoint but share the handle.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save overwrites the stored checkpoint
func (s *FileStore) Save(cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.NewSink(cp.Target, "failed to create progress directory", err)
	}

	file, err := os.Create(s.path)
	if err != nil {
		return errors.NewSink(cp.Target, "failed to write progress file", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	record := []string{cp.Target, cp.Category, strconv.Itoa(cp.Page), strconv.Itoa(cp.Index)}
	if err := writer.Write(record); err != nil {
		return errors.NewSink(cp.Target, "failed to write checkpoint", err)
	}
	writer.Flush()
	return writer.Error()
}

// Load returns the stored checkpoint, or nil when none exists or the file
// does not parse (a corrupt progress file restarts from scratch rather than
// failing the run)
func (s *FileStore) Load() (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewSink("", "failed to open progress file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	record, err := reader.Read()
	if err != nil || len(record) != 4 {
		return nil, nil
	}

	page, err := strconv.Atoi(record[2])
	if err != nil {
		return nil, nil
	}
	index, err := strconv.Atoi(record[3])
	if err != nil {
		return nil, nil
	}

	return &Checkpoint{
		Target:   record[0],
		Category: record[1],
		Page:     page,
		Index:    index,
	}, nil
}

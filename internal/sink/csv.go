package sink

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sync"

	"hxcodewarrior/ctripcrawler/logger"
	"hxcodewarrior/ctripcrawler/pkg/errors"
)

// CSVSink persists records as delimited files under a base directory.
// Writes to the same destination are serialized with a per-destination lock;
// the header-mismatch path rewrites the whole file, which is not atomic.
type CSVSink struct {
	baseDir string
	log     *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCSVSink creates a sink rooted at baseDir
func NewCSVSink(baseDir string) *CSVSink {
	return &CSVSink{
		baseDir: baseDir,
		log:     logger.ForSink(),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Append writes rows to destination. A new destination gets the header
// first. When the destination already exists under a different header, the
// whole file is rewritten: old data rows are remapped positionally to the
// new header (truncated or padded with empty cells) and the new rows follow.
// This mirrors the long-standing output-file compatibility policy; callers
// that change column semantics rather than column count will silently get
// mislabeled old rows.
func (s *CSVSink) Append(destination string, header []string, rows [][]string) error {
	lock := s.destLock(destination)
	lock.Lock()
	defer lock.Unlock()

	path := filepath.Join(s.baseDir, destination)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewSink(destination, "failed to create output directory", err)
	}

	stored, exists, err := s.readHeader(path)
	if err != nil {
		return err
	}

	if exists && !equalHeader(stored, header) {
		s.log.Warn().
			Str("destination", destination).
			Strs("stored", stored).
			Strs("requested", header).
			Msg("Header changed, rewriting destination")
		return s.rewrite(path, destination, header, rows)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.NewSink(destination, "failed to open destination", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if !exists {
		if err := writer.Write(header); err != nil {
			return errors.NewSink(destination, "failed to write header", err)
		}
	}
	if err := writer.WriteAll(rows); err != nil {
		return errors.NewSink(destination, "failed to write rows", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.NewSink(destination, "failed to flush rows", err)
	}
	return nil
}

// readHeader returns the stored header of path, reporting whether the file
// exists at all
func (s *CSVSink) readHeader(path string) ([]string, bool, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewSink(path, "failed to open destination", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		// zero-length file, treat as new
		return nil, false, nil
	}
	if err != nil {
		return nil, true, errors.NewSink(path, "failed to read stored header", err)
	}
	return header, true, nil
}

// rewrite replaces the destination with the new header, the old data rows
// remapped positionally, and the new rows
func (s *CSVSink) rewrite(path, destination string, header []string, rows [][]string) error {
	existing, err := s.readDataRows(path, destination)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewSink(destination, "failed to rewrite destination", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return errors.NewSink(destination, "failed to write header", err)
	}
	for _, old := range existing {
		if err := writer.Write(remapRow(old, len(header))); err != nil {
			return errors.NewSink(destination, "failed to remap row", err)
		}
	}
	if err := writer.WriteAll(rows); err != nil {
		return errors.NewSink(destination, "failed to write rows", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.NewSink(destination, "failed to flush rewrite", err)
	}
	return nil
}

func (s *CSVSink) readDataRows(path, destination string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewSink(destination, "failed to read destination", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	all, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewSink(destination, "failed to read stored rows", err)
	}
	if len(all) <= 1 {
		return nil, nil
	}
	return all[1:], nil
}

// remapRow fits an old data row to the new column count: positional copy,
// truncated or padded with empty cells
func remapRow(old []string, width int) []string {
	row := make([]string, width)
	for i := 0; i < width && i < len(old); i++ {
		row[i] = old[i]
	}
	return row
}

func equalHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *CSVSink) destLock(destination string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[destination]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[destination] = lock
	}
	return lock
}

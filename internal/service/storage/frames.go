package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"printwatch/internal/apperr"
	"printwatch/internal/config"
	"printwatch/internal/logger"
)

// FrameStore owns the frames directory. Frame names embed their capture
// time, so lexicographic order is chronological order.
type FrameStore struct {
	framesDir string
	logger    *logger.Logger
}

// NewFrameStore creates a FrameStore for config.FramesDir.
func NewFrameStore(config *config.Config, logger *logger.Logger) *FrameStore {
	return &FrameStore{
		framesDir: config.FramesDir,
		logger:    logger,
	}
}

// Dir returns the frames directory.
func (s *FrameStore) Dir() string {
	return s.framesDir
}

// List returns the .jpg file names of the frames directory in ascending order.
// A missing directory has no frames.
func (s *FrameStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.framesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, apperr.Wrap(apperr.KindStorage, "storage.List", "cannot read frames directory", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jpg" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Latest returns the path of the lexicographically greatest frame file.
func (s *FrameStore) Latest() (string, error) {
	names, err := s.List()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", apperr.New(apperr.KindNotFound, "storage.Latest", "no JPG frame available")
	}
	return filepath.Join(s.framesDir, names[len(names)-1]), nil
}

// Prune removes the oldest frames so that at most max remain and returns
// the removed paths. max <= 0 disables pruning.
func (s *FrameStore) Prune(max int) ([]string, error) {
	if max <= 0 {
		return nil, nil
	}

	names, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(names) <= max {
		return nil, nil
	}

	var removed []string
	for _, name := range names[:len(names)-max] {
		path := filepath.Join(s.framesDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Error("Error deleting frame %s: %v", name, err)
			continue
		}
		removed = append(removed, path)
	}

	if len(removed) > 0 {
		s.logger.Info("Pruned %d old frame(s) from %s", len(removed), s.framesDir)
	}
	return removed, nil
}

// DirectorySize returns the total size in bytes of the frame files.
func (s *FrameStore) DirectorySize() (int64, error) {
	names, err := s.List()
	if err != nil {
		return 0, err
	}

	var total int64
	for _, name := range names {
		info, err := os.Stat(filepath.Join(s.framesDir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, fmt.Errorf("failed to stat %s: %w", name, err)
		}
		total += info.Size()
	}
	return total, nil
}

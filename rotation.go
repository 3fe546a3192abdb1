package eventsink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// archiveTimeFormat is fixed width, so archive names sort chronologically.
const archiveTimeFormat = "20060102T150405.000000000"

// rotateLogFiles closes the active file, renames it to a timestamped archive,
// opens a fresh file at the original path and prunes old archives.
//
// If the rename fails the original path is reopened so writing can continue
// against the oversized file.
//
// Thread safety:
//
//	Caller must hold fileMu
func (s *FileSink) rotateLogFiles() error {
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			s.diag.report("file", fmt.Errorf("failed to close log file: %w", err))
		}
		s.file = nil
	}

	archive := s.archiveName()
	renameErr := s.rename(s.path, archive)

	if err := s.reopenLocked(); err != nil {
		if renameErr != nil {
			return fmt.Errorf("failed to rename log file (%v) and couldn't reopen original (%w)", renameErr, err)
		}
		return fmt.Errorf("failed to create new log file: %w", err)
	}
	if renameErr != nil {
		return fmt.Errorf("failed to rename log file: %w", renameErr)
	}

	s.metrics.rotations.Inc()
	return s.cleanupOldBackups()
}

// maxArchiveCollisions bounds the counter appended to archives that share a
// timestamp.
const maxArchiveCollisions = 999

// archiveName returns "<base>_<timestamp><ext>", adding a zero-padded counter when
// an archive with the same timestamp already exists. Any Lstat error ends the
// search; the rename then reports what is wrong with the directory.
func (s *FileSink) archiveName() string {
	ext := filepath.Ext(s.path)
	base := strings.TrimSuffix(s.path, ext)
	stamp := s.now().UTC().Format(archiveTimeFormat)

	name := fmt.Sprintf("%s_%s%s", base, stamp, ext)
	for i := 1; i <= maxArchiveCollisions; i++ {
		if _, err := os.Lstat(name); err != nil {
			return name
		}
		name = fmt.Sprintf("%s_%s_%03d%s", base, stamp, i, ext)
	}
	return name
}

// Archives returns the archived files of this sink, oldest first.
func (s *FileSink) Archives() ([]string, error) {
	dir := filepath.Dir(s.path)
	ext := filepath.Ext(s.path)
	prefix := strings.TrimSuffix(filepath.Base(s.path), ext) + "_"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var archives []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		rest := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext)
		if len(rest) < len(archiveTimeFormat) {
			continue
		}
		if _, err := time.Parse(archiveTimeFormat, rest[:len(archiveTimeFormat)]); err != nil {
			continue
		}
		archives = append(archives, filepath.Join(dir, name))
	}

	sort.Strings(archives)
	return archives, nil
}

// cleanupOldBackups removes the oldest archives beyond backupCount.
func (s *FileSink) cleanupOldBackups() error {
	archives, err := s.Archives()
	if err != nil {
		return fmt.Errorf("failed to list archives: %w", err)
	}
	if len(archives) <= s.backupCount {
		return nil
	}

	var errs []error
	for _, f := range archives[:len(archives)-s.backupCount] {
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

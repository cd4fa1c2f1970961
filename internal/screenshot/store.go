// Package screenshot provides the filesystem-backed screenshot queues.
//
// Two queues exist: the main queue feeds the initial extract+solve run, the
// extra queue holds debug evidence captured after a solution was shown. The
// pipeline treats both as read-only; the only mutation it ever requests is
// clearing the extra queue once a new solution makes it stale.
package screenshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store is the boundary contract the pipeline consumes.
type Store interface {
	// Queue returns the ordered main-queue screenshot paths.
	Queue() []string

	// ExtraQueue returns the ordered extra-queue (debug evidence) paths.
	ExtraQueue() []string

	// Read returns the raw bytes of a screenshot file.
	Read(path string) ([]byte, error)

	// Exists reports whether the file is still present on disk.
	Exists(path string) bool

	// ClearExtra removes all extra-queue screenshots.
	ClearExtra() error
}

// DirStore lists PNG files from two directories, ordered by capture time.
type DirStore struct {
	queueDir string
	extraDir string
}

// NewDirStore creates a DirStore over the given queue directories.
func NewDirStore(queueDir, extraDir string) *DirStore {
	return &DirStore{queueDir: queueDir, extraDir: extraDir}
}

// Queue returns the main-queue paths in capture order.
func (s *DirStore) Queue() []string {
	return listPNGs(s.queueDir)
}

// ExtraQueue returns the extra-queue paths in capture order.
func (s *DirStore) ExtraQueue() []string {
	return listPNGs(s.extraDir)
}

// Read returns the raw bytes of a screenshot file.
func (s *DirStore) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read screenshot %s: %w", path, err)
	}
	return data, nil
}

// Exists reports whether the file is still present on disk.
func (s *DirStore) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ClearExtra removes all extra-queue screenshots.
func (s *DirStore) ClearExtra() error {
	for _, path := range s.ExtraQueue() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to clear extra screenshot %s: %w", path, err)
		}
	}
	return nil
}

// listPNGs returns the .png files in dir sorted by modification time, oldest
// first, so queue order matches capture order.
func listPNGs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	type stamped struct {
		path    string
		modTime int64
	}
	var files []stamped
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".png") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, stamped{filepath.Join(dir, e.Name()), info.ModTime().UnixNano()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime < files[j].modTime })

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths
}

// Ensure DirStore implements Store
var _ Store = (*DirStore)(nil)

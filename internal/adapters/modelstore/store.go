// Package modelstore keeps versioned model artifacts on disk. Every Save
// creates a new version file; existing files are never rewritten.
package modelstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/salaryd/internal/domain/estimator"
)

const schemaVersion = 1

// Entry is one persisted model version.
type Entry struct {
	ID        string              `json:"id"`
	Version   string              `json:"version"`
	SchemaVer int                 `json:"schema_version"`
	CreatedAt time.Time           `json:"created_at"`
	Metrics   estimator.Scorecard `json:"metrics"`
	Artifact  estimator.Artifact  `json:"artifact"`
}

// Model rebuilds the estimator stored in e.
func (e Entry) Model() (estimator.Model, error) {
	return estimator.FromArtifact(e.Artifact)
}

// FileStore stores one JSON file per version under dir.
type FileStore struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model directory: %w", err)
	}
	return &FileStore{dir: dir, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string { return s.dir }

// Save writes a into the next version slot.
func (s *FileStore) Save(ctx context.Context, a estimator.Artifact, m estimator.Scorecard) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	versions, err := s.versions()
	if err != nil {
		return Entry{}, err
	}
	next := 1
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}
	e := Entry{
		ID:        uuid.NewString(),
		Version:   formatVersion(next),
		SchemaVer: schemaVersion,
		CreatedAt: s.now(),
		Metrics:   m,
		Artifact:  a,
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("marshal model: %w", err)
	}

	path := s.path(e.Version)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return Entry{}, fmt.Errorf("write model: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return Entry{}, fmt.Errorf("rename model: %w", err)
	}
	return e, nil
}

// Load reads a specific version.
func (s *FileStore) Load(ctx context.Context, version string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	if _, err := parseVersion(version); err != nil {
		return Entry{}, err
	}
	data, err := os.ReadFile(s.path(version))
	if errors.Is(err, os.ErrNotExist) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, version)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("read model: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("%w: %s: %v", ErrCorrupted, version, err)
	}
	if e.SchemaVer != schemaVersion {
		return Entry{}, fmt.Errorf("%w: got %d, want %d", ErrIncompatibleVersion, e.SchemaVer, schemaVersion)
	}
	return e, nil
}

// Latest returns the highest version, or ErrNotFound when the store is empty.
func (s *FileStore) Latest(ctx context.Context) (Entry, error) {
	versions, err := s.Versions(ctx)
	if err != nil {
		return Entry{}, err
	}
	if len(versions) == 0 {
		return Entry{}, ErrNotFound
	}
	return s.Load(ctx, versions[len(versions)-1])
}

// Versions lists stored versions in ascending order.
func (s *FileStore) Versions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nums, err := s.versions()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(nums))
	for i, n := range nums {
		out[i] = formatVersion(n)
	}
	return out, nil
}

func (s *FileStore) versions() ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	var nums []int
	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		n, err := parseVersion(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums, nil
}

func (s *FileStore) path(version string) string {
	return filepath.Join(s.dir, version+".json")
}

func formatVersion(n int) string {
	return "v" + strconv.Itoa(n)
}

func parseVersion(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(v, "v"))
	if !strings.HasPrefix(v, "v") || err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return n, nil
}

// Incumbent returns the latest model and its version, or estimator.ErrNoModel
// when nothing has been saved.
func (s *FileStore) Incumbent(ctx context.Context) (estimator.Model, string, error) {
	e, err := s.Latest(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, "", fmt.Errorf("%w: %w", estimator.ErrNoModel, err)
	}
	if err != nil {
		return nil, "", err
	}
	m, err := e.Model()
	if err != nil {
		return nil, "", err
	}
	return m, e.Version, nil
}

// Promote saves m as the next version.
func (s *FileStore) Promote(ctx context.Context, m estimator.Model, sc estimator.Scorecard) (string, error) {
	e, err := s.Save(ctx, m.Artifact(), sc)
	if err != nil {
		return "", err
	}
	return e.Version, nil
}

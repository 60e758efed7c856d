package vectorstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"ragserver/internal/domain"
)

// Store is one generation of the embedded-chunk collection. It is built
// in full during an embedding run, persisted as a single snapshot, and
// treated as immutable once loaded; a new run supersedes it wholesale.
// Record order is insertion order, kept for reproducible snapshot diffs.
type Store struct {
	Dimension   int                    `json:"embeddingDimension"`
	Model       string                 `json:"modelIdentifier"`
	GeneratedAt time.Time              `json:"generatedAt"`
	Records     []domain.EmbeddedChunk `json:"records"`
}

// New creates an empty store for the given embedding model and dimension.
func New(dimension int, model string) *Store {
	return &Store{
		Dimension:   dimension,
		Model:       model,
		GeneratedAt: time.Now().UTC(),
	}
}

// Append adds a record, assigning the next ID. The vector length is
// checked here, at ingestion time, not deferred to query time.
func (s *Store) Append(chunk domain.Chunk, vector []float64) error {
	if len(vector) != s.Dimension {
		return errors.Wrapf(domain.ErrDimensionMismatch,
			"record %d: vector length %d, store dimension %d", len(s.Records), len(vector), s.Dimension)
	}
	s.Records = append(s.Records, domain.EmbeddedChunk{
		Chunk:  chunk,
		ID:     len(s.Records),
		Vector: vector,
	})
	return nil
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.Records) }

// Load reads a snapshot from disk. A missing file yields ErrStoreNotFound;
// anything unparsable or missing required fields yields ErrStoreCorrupt.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(domain.ErrStoreNotFound, path)
		}
		return nil, errors.Wrapf(domain.ErrStoreCorrupt, "read %s: %v", path, err)
	}

	var s Store
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(domain.ErrStoreCorrupt, "parse %s: %v", path, err)
	}
	if s.Dimension <= 0 {
		return nil, errors.Wrap(domain.ErrStoreCorrupt, "missing or invalid embeddingDimension")
	}
	if s.Model == "" {
		return nil, errors.Wrap(domain.ErrStoreCorrupt, "missing modelIdentifier")
	}
	for i, rec := range s.Records {
		if len(rec.Vector) != s.Dimension {
			return nil, errors.Wrapf(domain.ErrStoreCorrupt,
				"record %d: vector length %d, store dimension %d", i, len(rec.Vector), s.Dimension)
		}
	}
	return &s, nil
}

// Save writes the snapshot atomically: the full store is serialized to a
// temporary file in the target directory and renamed into place, so a
// partial write is never visible as a valid snapshot.
func (s *Store) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create snapshot dir")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".store-*.json")
	if err != nil {
		return errors.Wrap(err, "create temp snapshot")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close snapshot")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "replace snapshot")
}

// Loader loads a snapshot at most once per process and hands the cached
// instance to every caller afterwards. There is no invalidation: a newly
// regenerated snapshot is picked up only by restarting the process, a
// documented staleness window. Construct one Loader at process start and
// inject it wherever the store is needed.
type Loader struct {
	path  string
	once  sync.Once
	store *Store
	err   error
}

// NewLoader creates a loader for the snapshot at path. Nothing is read
// until the first Store call.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Store returns the process-lifetime store instance, loading it on first
// use. The load error, if any, is sticky for the same lifetime.
func (l *Loader) Store() (*Store, error) {
	l.once.Do(func() {
		l.store, l.err = Load(l.path)
	})
	return l.store, l.err
}

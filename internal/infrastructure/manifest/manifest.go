// Package manifest persists per-document image-analysis results with a
// write-through policy: the whole mapping is flushed to disk after every
// successful addition. That bounds re-work after a crash to at most the one
// in-flight image, which is the cost-control guarantee that keeps reruns
// from re-sending completed work to the vision model.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/retrodocs/digitizer/internal/core/domain"
	"github.com/retrodocs/digitizer/internal/core/ports"
	"github.com/retrodocs/digitizer/internal/infrastructure/artifact/localfs"
)

const manifestFilename = "_manifest.json"

type Store struct {
	assetsDir string
}

func NewStore(assetsDir string) *Store {
	return &Store{assetsDir: assetsDir}
}

// Load reads the document's manifest from its asset directory. A missing
// manifest file yields an empty manifest, not an error.
func (s *Store) Load(docID string) (ports.ImageManifest, error) {
	path := filepath.Join(s.assetsDir, docID, manifestFilename)

	entries := make(map[string]domain.ImageAnalysis)
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read manifest: %w", err)
	default:
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("parse manifest %s: %w", path, err)
		}
	}

	return &Manifest{path: path, entries: entries}, nil
}

// Manifest is an append-only mapping within a run: entries are only ever
// added, never deleted. Access is serialized so concurrent analyses of one
// document cannot lose updates through interleaved flushes.
type Manifest struct {
	path string

	mu      sync.Mutex
	entries map[string]domain.ImageAnalysis
}

func (m *Manifest) Has(filename string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[filename]
	return ok
}

// Put records one analysis and synchronously rewrites the manifest file. The
// entry is only kept in memory if the flush succeeded.
func (m *Manifest) Put(filename string, analysis domain.ImageAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[filename] = analysis
	if err := m.flushLocked(); err != nil {
		delete(m.entries, filename)
		return err
	}
	return nil
}

func (m *Manifest) Snapshot() map[string]domain.ImageAnalysis {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]domain.ImageAnalysis, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Manifest) flushLocked() error {
	payload, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := localfs.WriteFileAtomic(m.path, payload); err != nil {
		return fmt.Errorf("flush manifest: %w", err)
	}
	return nil
}

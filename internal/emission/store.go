package emission

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// Store persists rendered artifacts by name. Saving a name twice overwrites.
type Store interface {
	Save(name string, content []byte) error
}

type DirStore struct {
	Dir string
}

func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "could not create output directory %s", dir)
	}
	return &DirStore{Dir: dir}, nil
}

// Save writes through a temporary file in the same directory and renames it
// into place, so readers never see a partial artifact.
func (store *DirStore) Save(name string, content []byte) error {
	temp, err := os.CreateTemp(store.Dir, "."+name+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "could not create temporary file for %s", name)
	}
	tempName := temp.Name()

	if _, err := temp.Write(content); err != nil {
		temp.Close()
		os.Remove(tempName)
		return errors.Wrapf(err, "could not write %s", name)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempName)
		return errors.Wrapf(err, "could not write %s", name)
	}
	if err := os.Rename(tempName, filepath.Join(store.Dir, name)); err != nil {
		os.Remove(tempName)
		return errors.Wrapf(err, "could not move %s into place", name)
	}
	return nil
}

// MemoryStore keeps artifacts in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string][]byte)}
}

func (store *MemoryStore) Save(name string, content []byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.files[name] = append([]byte(nil), content...)
	return nil
}

func (store *MemoryStore) Get(name string) ([]byte, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	content, found := store.files[name]
	return content, found
}

func (store *MemoryStore) Names() []string {
	store.mu.Lock()
	defer store.mu.Unlock()
	names := make([]string, 0, len(store.files))
	for name := range store.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package auth

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/goliatone/go-errors"
)

// FileCredentialStore keeps serialized credentials in a single file. It is
// the durable store that lets sessions survive a process restart.
type FileCredentialStore struct {
	path string
	mu   sync.Mutex
}

// NewFileCredentialStore creates a credential store backed by path.
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

func (f *FileCredentialStore) Load() ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, errors.CategoryInternal, "failed to read credential file")
	}
	return data, true, nil
}

func (f *FileCredentialStore) Save(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to create credential directory")
		}
	}

	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to write credential file")
	}
	return nil
}

func (f *FileCredentialStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.CategoryInternal, "failed to clear credential file")
	}
	return nil
}

// MemoryCredentialStore is an in-process CredentialStore, used in tests and
// in deployments that do not want session persistence.
type MemoryCredentialStore struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (m *MemoryCredentialStore) Load() ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, false, nil
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, true, nil
}

func (m *MemoryCredentialStore) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make([]byte, len(data))
	copy(m.data, data)
	m.set = true
	return nil
}

func (m *MemoryCredentialStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.set = false
	return nil
}

var (
	_ CredentialStore = &FileCredentialStore{}
	_ CredentialStore = &MemoryCredentialStore{}
)

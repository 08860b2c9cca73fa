package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Dir resolves keys from individual files in a directory, one file per
// provider (Kubernetes-style secret mounts). File permissions are validated
// at read time: anything wider than 0600/0400 is refused so a
// world-readable key file fails loudly instead of working silently.
type Dir struct {
	base string

	mu    sync.RWMutex
	cache map[string]Secret
}

// NewDir creates a directory source rooted at base.
func NewDir(base string) (*Dir, error) {
	info, err := os.Stat(base)
	if err != nil {
		return nil, fmt.Errorf("stat secrets directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("secrets path is not a directory: %s", base)
	}

	return &Dir{
		base:  base,
		cache: make(map[string]Secret),
	}, nil
}

// Lookup reads <base>/<provider>, caching successful reads.
func (d *Dir) Lookup(provider string) (Secret, bool) {
	d.mu.RLock()
	if key, ok := d.cache[provider]; ok {
		d.mu.RUnlock()
		return key, true
	}
	d.mu.RUnlock()

	key, err := d.read(provider)
	if err != nil {
		return "", false
	}

	d.mu.Lock()
	d.cache[provider] = key
	d.mu.Unlock()
	return key, true
}

// Name identifies the source.
func (d *Dir) Name() string {
	return "dir"
}

// Refresh drops the cache so the next Lookup re-reads from disk.
func (d *Dir) Refresh() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache = make(map[string]Secret)
}

func (d *Dir) read(provider string) (Secret, error) {
	path := filepath.Join(d.base, provider)

	// Keep lookups inside the base directory.
	absBase, err := filepath.Abs(d.base)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("secret path escapes base directory")
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if perm := info.Mode().Perm(); perm != 0o600 && perm != 0o400 {
		return "", fmt.Errorf("secret file %s has permissions %04o, want 0600 or 0400", provider, perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("secret file %s is empty", provider)
	}
	return Secret(value), nil
}

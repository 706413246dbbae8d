// Package file provides file-based persistence for workflows, runs, and
// credentials. Suited for development and tests; one JSON document per
// record.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Persistence implements persistence.Persistence on top of the file system.
type Persistence struct {
	root string

	// Serializes run transitions: the conditional status check and the
	// follow-up write must be atomic with respect to other transitions.
	runMu sync.Mutex
}

// NewPersistence creates a file persistence rooted at the given directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

// Close performs any necessary cleanup. For file-based persistence there is
// nothing to clean up.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) dir(kind string) string {
	return filepath.Join(p.root, kind)
}

func (p *Persistence) path(kind, id string) string {
	return filepath.Join(p.root, kind, id+".json")
}

func (p *Persistence) read(kind, id string, out any) (bool, error) {
	data, err := os.ReadFile(p.path(kind, id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read %s %s: %w", kind, id, err)
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return false, fmt.Errorf("failed to decode %s %s: %w", kind, id, err)
	}

	return true, nil
}

func (p *Persistence) write(kind, id string, record any) error {
	err := os.MkdirAll(p.dir(kind), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", kind, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", kind, id, err)
	}

	err = os.WriteFile(p.path(kind, id), data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write %s %s: %w", kind, id, err)
	}

	return nil
}

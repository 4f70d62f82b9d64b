// Package snapshot compares response bodies against values recorded in
// __snapshots__ files next to the scenario that produced them.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/hitchain/packages/assertions"
	"github.com/abdul-hamid-achik/hitchain/packages/http"
)

const (
	// SnapshotDir is the directory name for storing snapshots
	SnapshotDir = "__snapshots__"
	// SnapshotExt is the file extension for snapshot files
	SnapshotExt = ".snap.json"
)

// Manager loads and writes snapshot files. One file holds every snapshot of
// one scenario, keyed by step name.
type Manager struct {
	updateMode bool

	mu    sync.Mutex
	cache map[string]map[string]any // file -> {key -> value}
}

// NewManager returns a manager. In update mode missing or mismatching
// snapshots are written instead of failing.
func NewManager(updateMode bool) *Manager {
	return &Manager{
		updateMode: updateMode,
		cache:      make(map[string]map[string]any),
	}
}

// Assert checks the response body against the snapshot stored under key for
// scenarioFile. JSON bodies are compared structurally; other bodies as text.
func (m *Manager) Assert(scenarioFile, key string) assertions.Func {
	return func(ctx context.Context, resp *http.Response, body any) error {
		actual := body
		if actual == nil {
			actual = resp.BodyString()
		}

		expected, exists, err := m.compare(scenarioFile, key, actual)
		if err != nil {
			return &assertions.Failure{
				Subject:  "snapshot " + key,
				Operator: "snapshot",
				Message:  err.Error(),
			}
		}
		if !exists {
			return nil
		}

		if err := assertions.BodyEquals(expected)(ctx, resp, actual); err != nil {
			var failure *assertions.Failure
			if errors.As(err, &failure) {
				failure.Subject = "snapshot " + key
				failure.Operator = "snapshot"
			}
			return err
		}
		return nil
	}
}

// compare returns the stored value for key. When the manager is in update
// mode, or the key has never been recorded, actual is stored and exists is
// false.
func (m *Manager) compare(scenarioFile, key string, actual any) (any, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := FilePath(scenarioFile)
	snapshots, err := m.load(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load snapshots: %w", err)
	}

	expected, exists := snapshots[key]
	if exists && !m.updateMode {
		return expected, true, nil
	}

	snapshots[key] = actual
	if err := m.save(path, snapshots); err != nil {
		return nil, false, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil, false, nil
}

// FilePath returns the snapshot file for a scenario file.
func FilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	for _, ext := range []string{".chain.yaml", ".chain.yml", filepath.Ext(base)} {
		if strings.HasSuffix(base, ext) {
			base = strings.TrimSuffix(base, ext)
			break
		}
	}
	return filepath.Join(dir, SnapshotDir, base+SnapshotExt)
}

func (m *Manager) load(path string) (map[string]any, error) {
	if cached, ok := m.cache[path]; ok {
		return cached, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]any), nil
		}
		return nil, err
	}

	snapshots := make(map[string]any)
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, err
	}

	m.cache[path] = snapshots
	return snapshots, nil
}

func (m *Manager) save(path string, snapshots map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return err
	}

	m.cache[path] = snapshots
	return os.WriteFile(path, data, 0644)
}

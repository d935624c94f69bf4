package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Snapshot is one recorded copy of the generated collection types.
type Snapshot struct {
	Name        string   `yaml:"name" json:"name"`
	Version     string   `yaml:"version" json:"version"`
	File        string   `yaml:"file" json:"file"`
	Hash        string   `yaml:"hash" json:"hash"`
	Collections []string `yaml:"collections,omitempty" json:"collections,omitempty"`
}

// Manifest tracks the snapshots taken of the generated artifact.
type Manifest struct {
	CurrentVersion  string     `yaml:"current_version" json:"current_version"`
	PreviousVersion string     `yaml:"previous_version" json:"previous_version"`
	Snapshots       []Snapshot `yaml:"snapshots" json:"snapshots"`
}

// Load reads a manifest from path. A missing file yields an empty manifest.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	return &m, nil
}

// Save writes the manifest to path, creating parent directories as needed.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// AddSnapshot records s as the current version. Re-recording an existing
// version replaces its entry and leaves the previous pointer alone.
func (m *Manifest) AddSnapshot(s Snapshot) {
	for i := range m.Snapshots {
		if m.Snapshots[i].Version == s.Version {
			m.Snapshots[i] = s
			if m.CurrentVersion != s.Version {
				m.PreviousVersion, m.CurrentVersion = m.CurrentVersion, s.Version
			}
			return
		}
	}

	if m.CurrentVersion != "" {
		m.PreviousVersion = m.CurrentVersion
	}
	m.CurrentVersion = s.Version
	m.Snapshots = append(m.Snapshots, s)
}

// Find returns the snapshot recorded for version.
func (m *Manifest) Find(version string) (Snapshot, bool) {
	for _, s := range m.Snapshots {
		if s.Version == version {
			return s, true
		}
	}
	return Snapshot{}, false
}

// SnapshotFile returns the path recorded for version, or "".
func (m *Manifest) SnapshotFile(version string) string {
	s, _ := m.Find(version)
	return s.File
}

// Hash is the content hash stored with each snapshot.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Package snapshot keeps versioned copies of the generated artifact next to
// a manifest so schema changes can be reviewed as diffs.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cmmoran/pbmodelgen/pkg/action/generate"
	"github.com/cmmoran/pbmodelgen/pkg/manifest"
	"github.com/cmmoran/pbmodelgen/pkg/parser"
	"github.com/cmmoran/pbmodelgen/pkg/source"
)

// Generate regenerates the artifact, copies it under
// <manifest dir>/snapshots/<version>/ and records it in the manifest.
func Generate(ctx context.Context, src source.Source, opts *parser.Options, manifestPath, snapshotName, snapshotVersion string) (string, error) {
	if snapshotVersion == "" {
		return "", fmt.Errorf("snapshot version is required")
	}
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return "", err
	}

	res, err := generate.Generate(ctx, src, opts)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(filepath.Dir(manifestPath), "snapshots", snapshotVersion)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}
	file := filepath.Join(dir, filepath.Base(res.Path))
	if err = os.WriteFile(file, res.Source, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	m.AddSnapshot(manifest.Snapshot{
		Name:        snapshotName,
		Version:     snapshotVersion,
		File:        file,
		Hash:        manifest.Hash(res.Source),
		Collections: res.Names,
	})
	if err = m.Save(manifestPath); err != nil {
		return "", err
	}
	slog.Info("recorded snapshot", "version", snapshotVersion, "file", file)

	return file, nil
}

// List returns all snapshots recorded in the manifest.
func List(manifestPath string) (*manifest.Manifest, error) {
	return manifest.Load(manifestPath)
}

// DiffCurrentWithPrevious returns the diff from the previous snapshot to the
// current one. Identical hashes short-circuit to an empty diff.
func DiffCurrentWithPrevious(manifestPath string) (string, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return "", err
	}

	if m.CurrentVersion == "" || m.PreviousVersion == "" {
		return "", fmt.Errorf("no current/previous snapshots recorded")
	}

	current, okCur := m.Find(m.CurrentVersion)
	previous, okPrev := m.Find(m.PreviousVersion)
	if !okCur || !okPrev {
		return "", fmt.Errorf("snapshot files not found in manifest")
	}
	if current.Hash != "" && current.Hash == previous.Hash {
		return "", nil
	}

	currentData, err := os.ReadFile(current.File)
	if err != nil {
		return "", fmt.Errorf("read current snapshot: %w", err)
	}
	previousData, err := os.ReadFile(previous.File)
	if err != nil {
		return "", fmt.Errorf("read previous snapshot: %w", err)
	}

	return generate.Diff(previousData, currentData), nil
}

// Package generate runs a full generation: read descriptors, build the
// types, render and write the artifact.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/mod/modfile"
	"golang.org/x/tools/imports"

	iparser "github.com/cmmoran/pbmodelgen/internal/parser"
	"github.com/cmmoran/pbmodelgen/pkg/parser"
	"github.com/cmmoran/pbmodelgen/pkg/source"
)

// Result describes a written artifact.
type Result struct {
	Path string
	// ImportPath is the Go import path of the output package, empty when
	// OutDir is not inside a module.
	ImportPath  string
	Collections int
	// Names lists the rendered collections in generation order.
	Names  []string
	Source []byte
}

// Render builds the artifact in memory without touching the filesystem. It
// also returns the names of the collections it rendered, in order.
func Render(ctx context.Context, src source.Source, opts *parser.Options) ([]byte, []string, error) {
	par, err := iparser.NewWithOpts(opts)
	if err != nil {
		return nil, nil, err
	}
	if err = par.Parse(ctx, src); err != nil {
		return nil, nil, err
	}
	out, err := par.Bytes()
	if err != nil {
		return nil, nil, err
	}
	if par.Opts.Goimports {
		if out, err = imports.Process(par.Opts.OutFile, out, nil); err != nil {
			return nil, nil, fmt.Errorf("goimports: %w", err)
		}
	}
	names := make([]string, 0, len(par.Triples))
	for _, t := range par.Triples {
		names = append(names, t.Collection.Name)
	}
	return out, names, nil
}

// Generate renders the artifact and replaces OutDir/OutFile atomically. On
// any error the previous file, if one exists, is left untouched.
func Generate(ctx context.Context, src source.Source, opts *parser.Options) (*Result, error) {
	out, names, err := Render(ctx, src, opts)
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	target := OutputPath(opts)
	if err = writeAtomic(target, out); err != nil {
		return nil, err
	}

	res := &Result{Path: target, Collections: len(names), Names: names, Source: out}
	if res.ImportPath, err = importPath(opts.OutDir); err != nil {
		slog.Debug("output is not inside a module", "dir", opts.OutDir, "error", err)
	}
	slog.Info("generated collection types",
		"file", res.Path,
		"package", opts.Package,
		"import", res.ImportPath,
		"collections", res.Collections,
	)
	return res, nil
}

// OutputPath is the artifact path for opts.
func OutputPath(opts *parser.Options) string {
	return filepath.Clean(filepath.Join(opts.OutDir, opts.OutFile))
}

// Check renders the artifact and compares it with the file on disk. The
// returned diff is empty when the file is current; a missing file diffs
// against empty content.
func Check(ctx context.Context, src source.Source, opts *parser.Options) (string, error) {
	out, _, err := Render(ctx, src, opts)
	if err != nil {
		return "", err
	}
	existing, err := os.ReadFile(OutputPath(opts))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read generated file: %w", err)
	}
	return Diff(existing, out), nil
}

// Diff compares two artifacts line by line. It is empty when they are equal.
func Diff(before, after []byte) string {
	return cmp.Diff(strings.SplitAfter(string(before), "\n"), strings.SplitAfter(string(after), "\n"))
}

func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// findGoModDir walks up from dir until it finds go.mod.
func findGoModDir(dir string) (string, error) {
	from, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err = os.Stat(filepath.Join(from, "go.mod")); err == nil {
			return from, nil
		}
		parent := filepath.Dir(from)
		if parent == from {
			return "", fmt.Errorf("no go.mod found above %s", dir)
		}
		from = parent
	}
}

// importPath resolves the import path of dir from the enclosing go.mod.
func importPath(dir string) (string, error) {
	modDir, err := findGoModDir(dir)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(modDir, "go.mod"))
	if err != nil {
		return "", err
	}
	mf, err := modfile.Parse("go.mod", data, nil)
	if err != nil {
		return "", err
	}
	if mf.Module == nil {
		return "", fmt.Errorf("%s/go.mod has no module directive", modDir)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(modDir, abs)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return mf.Module.Mod.Path, nil
	}
	return mf.Module.Mod.Path + "/" + filepath.ToSlash(rel), nil
}

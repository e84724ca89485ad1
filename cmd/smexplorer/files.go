package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/HugoDaniel/smexplorer/internal/diagnostic"
	"github.com/HugoDaniel/smexplorer/internal/registry"
	"github.com/HugoDaniel/smexplorer/internal/upload"
)

var skipDirs = map[string]struct{}{
	"node_modules": {},
}

// collectFiles expands paths into the files to load. Directories are walked
// recursively in lexical order. Hidden entries and anything matched by the
// directory's .gitignore are skipped.
func collectFiles(fs afero.Fs, paths []string, logger logrus.FieldLogger) ([]string, error) {
	var files []string
	seen := make(map[string]string)
	add := func(p string) {
		base := filepath.Base(p)
		if prev, ok := seen[base]; ok {
			logger.WithFields(logrus.Fields{"file": p, "previous": prev}).Warn("Duplicate file name, the later file wins")
		}
		seen[base] = p
		files = append(files, p)
	}

	for _, root := range paths {
		info, err := fs.Stat(root)
		if err != nil || !info.IsDir() {
			// Read failures are reported by the uploader.
			add(root)
			continue
		}

		gi := loadGitignore(fs, root)
		err = afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if path == root {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}

			name := info.Name()
			if info.IsDir() {
				if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				if gi != nil && gi.MatchesPath(rel+"/") {
					return filepath.SkipDir
				}
				return nil
			}

			if strings.HasPrefix(name, ".") {
				return nil
			}
			if gi != nil && gi.MatchesPath(rel) {
				logger.WithField("file", path).Debug("Skipping ignored file")
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	return files, nil
}

func loadGitignore(fs afero.Fs, dir string) *ignore.GitIgnore {
	data, err := afero.ReadFile(fs, filepath.Join(dir, ".gitignore"))
	if err != nil {
		return nil
	}
	return ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
}

// workspace is the parsed state of a set of loaded files.
type workspace struct {
	result      *registry.Result
	diagnostics *diagnostic.DiagnosticList
}

// loadWorkspace reads every file under paths and reconciles them. Read
// failures are reported as diagnostics, not errors.
func loadWorkspace(ctx context.Context, gs *globalState, st *settings, paths []string) (*workspace, error) {
	files, err := collectFiles(gs.fs, paths, st.logger)
	if err != nil {
		return nil, err
	}

	up := upload.New(gs.fs, st.logger)
	defer func() { _ = up.Close() }()

	if err := up.Drop(files...); err != nil {
		return nil, err
	}
	if err := up.Wait(ctx); err != nil {
		return nil, err
	}

	rec, err := registry.New(st.opts, st.logger)
	if err != nil {
		return nil, err
	}
	res := rec.Reconcile(up.Uploads(), nil)

	dl := res.Diagnostics()
	states := up.Files()
	for _, name := range up.Names() {
		if state := states[name]; state.State == upload.Failed {
			dl.AddError(name, state.Err)
		}
	}
	dl.Sort()

	st.logger.WithFields(logrus.Fields{
		"files":   len(res.Files),
		"sources": len(res.Sources),
	}).Debug("Loaded workspace")

	return &workspace{result: res, diagnostics: dl.Filter(st.filter)}, nil
}

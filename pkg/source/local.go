package source

import (
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/codeprimer/codeprimer/pkg/errors"
)

// ingestLocal walks a local directory and returns the filtered file list.
// filepath.WalkDir visits entries in lexical order, which keeps the output
// deterministic without an extra sort (Ingest sorts again regardless, as
// the remote strategy provides no ordering guarantee).
func ingestLocal(dir string, opts Options) ([]File, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "cannot access %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeSourceUnavailable, "%s is not a directory", dir)
	}

	var files []File
	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal: the corpus check
			// in Ingest catches the everything-unreadable case.
			opts.Logger.Debug("skipping unreadable entry", "path", p, "err", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && !matches(nil, opts.ExcludePatterns, rel+"/", d.Name()) {
				return fs.SkipDir
			}
			return nil
		}

		if !matches(opts.IncludePatterns, opts.ExcludePatterns, rel, d.Name()) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			opts.Logger.Debug("skipping unstatable file", "path", rel, "err", err)
			return nil
		}
		if fi.Size() > opts.MaxFileBytes {
			opts.Logger.Debug("skipping oversized file", "path", rel, "size", fi.Size(), "limit", opts.MaxFileBytes)
			return nil
		}

		content, err := os.ReadFile(p)
		if err != nil {
			opts.Logger.Debug("skipping unreadable file", "path", rel, "err", err)
			return nil
		}
		if !utf8.Valid(content) {
			opts.Logger.Debug("skipping binary file", "path", rel)
			return nil
		}

		files = append(files, File{Path: rel, Content: string(content), Size: len(content)})
		return nil
	})
	if walkErr != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, walkErr, "walking %s", dir)
	}
	return files, nil
}

package indexer

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// skippedDirs are directory names skipped during the tree walk.
var skippedDirs = map[string]bool{
	".git":   true,
	".idea":  true,
	".cache": true,
}

// walkFiles lists every regular file under root, sorted for deterministic
// load order. Hidden bookkeeping directories are skipped; extension
// filtering is left to the converter so unsupported files surface as
// per-file errors.
func walkFiles(root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (skippedDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

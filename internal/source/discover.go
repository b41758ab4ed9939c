package source

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sha1n/winref/internal/domain"
)

// Unit is one folder holding a system-description file and the file list
// captured on the same machine.
type Unit struct {
	Location       string
	SystemInfoPath string
	FileListPath   string
}

// Options controls which file names are recognized during discovery.
// Patterns are doublestar globs matched case-insensitively against base names.
type Options struct {
	SystemInfoGlob string
	FileListGlob   string
}

// DefaultOptions returns the naming conventions of the reference corpus.
func DefaultOptions() Options {
	return Options{
		SystemInfoGlob: "SystemInfo_*",
		FileListGlob:   "*.csv",
	}
}

// Discover walks root and yields one Unit per folder that holds a
// system-description file. Folders that do not hold exactly one description
// file and exactly one file list are yielded as discovery errors and the walk
// continues. The sequence re-walks root every time it is ranged over.
func Discover(root string, opts Options) iter.Seq2[Unit, error] {
	sysGlob := strings.ToLower(opts.SystemInfoGlob)
	csvGlob := strings.ToLower(opts.FileListGlob)

	return func(yield func(Unit, error) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if !yield(Unit{}, domain.NewUnitError(domain.KindDiscovery, path, err)) {
					return filepath.SkipAll
				}
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !d.IsDir() {
				return nil
			}
			// Skip version control trees entirely
			if d.Name() == ".git" && path != root {
				return filepath.SkipDir
			}

			unit, found, uerr := inspect(path, sysGlob, csvGlob)
			if !found {
				return nil
			}
			if !yield(unit, uerr) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// inspect checks the direct children of dir. found is false when dir holds no
// system-description file at all.
func inspect(dir, sysGlob, csvGlob string) (unit Unit, found bool, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Unit{}, true, domain.NewUnitError(domain.KindDiscovery, dir, err)
	}

	var sysFiles, csvFiles []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if ok, _ := doublestar.Match(sysGlob, name); ok {
			sysFiles = append(sysFiles, filepath.Join(dir, e.Name()))
			continue
		}
		if ok, _ := doublestar.Match(csvGlob, name); ok {
			csvFiles = append(csvFiles, filepath.Join(dir, e.Name()))
		}
	}

	if len(sysFiles) == 0 {
		return Unit{}, false, nil
	}
	if len(sysFiles) != 1 {
		return Unit{}, true, domain.NewUnitError(domain.KindDiscovery, dir,
			fmt.Errorf("%d SystemInfo files found, expected 1", len(sysFiles)))
	}
	if len(csvFiles) != 1 {
		return Unit{}, true, domain.NewUnitError(domain.KindDiscovery, dir,
			fmt.Errorf("%d csv files found, expected 1", len(csvFiles)))
	}

	return Unit{
		Location:       dir,
		SystemInfoPath: sysFiles[0],
		FileListPath:   csvFiles[0],
	}, true, nil
}

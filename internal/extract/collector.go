package extract

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// excluder applies the spec's excluded-path rules to paths relative to the
// base path. Plain entries exclude by prefix (the entry itself and anything
// under it); entries with wildcard characters are glob-matched.
type excluder struct {
	prefixes []string
	globs    []compiledPattern
}

type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

func newExcluder(rules []string) (*excluder, error) {
	ex := &excluder{}
	for _, rule := range rules {
		rule = filepath.ToSlash(strings.TrimSuffix(rule, "/"))
		if rule == "" {
			continue
		}
		if !strings.ContainsAny(rule, "*?[{") {
			ex.prefixes = append(ex.prefixes, rule)
			continue
		}
		g, err := glob.Compile(rule, '/')
		if err != nil {
			return nil, wrapPath(err, rule)
		}
		ex.globs = append(ex.globs, compiledPattern{pattern: rule, glob: g})
	}
	return ex, nil
}

// matches reports whether a slash-normalized relative path is excluded.
func (ex *excluder) matches(relPath string) bool {
	for _, p := range ex.prefixes {
		if relPath == p || strings.HasPrefix(relPath, p+"/") {
			return true
		}
	}
	for _, cp := range ex.globs {
		if cp.glob.Match(relPath) {
			return true
		}
		// A directory pattern should also exclude everything under it,
		// so "build/*" style rules behave like prefixes.
		if cp.glob.Match(relPath + "/**") {
			return true
		}
	}
	// Bare filename patterns ("*.min.js") are expected to match at any
	// depth, so also try the basename.
	if strings.Contains(relPath, "/") {
		base := relPath[strings.LastIndexByte(relPath, '/')+1:]
		for _, cp := range ex.globs {
			if !strings.Contains(cp.pattern, "/") && cp.glob.Match(base) {
				return true
			}
		}
	}
	return false
}

// CollectAllFiles walks the spec's search paths and returns the sorted,
// deduplicated union of candidate files with excludes applied. It fails
// with ErrNoSourcesFound when nothing remains and ErrPermissionDenied when
// a search path cannot be read. Identical specs over an unchanged tree
// yield identical output.
func CollectAllFiles(spec *SourceSpec) ([]string, error) {
	ex, err := newExcluder(spec.ExcludedPaths)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, sp := range spec.SearchPaths {
		root := spec.ResolveSearchPath(sp)
		info, err := os.Stat(root)
		if err != nil {
			if os.IsPermission(err) {
				return nil, wrapPath(ErrPermissionDenied, root)
			}
			// A missing search path contributes nothing; the run fails
			// below only if no path yields files.
			continue
		}

		if !info.IsDir() {
			if rel, ok := relativeTo(spec.BasePath, root); !ok || !ex.matches(rel) {
				seen[root] = true
			}
			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsPermission(err) {
					return wrapPath(ErrPermissionDenied, path)
				}
				return err
			}
			rel, ok := relativeTo(spec.BasePath, path)
			if ok && ex.matches(rel) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				seen[path] = true
			}
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}

	if len(seen) == 0 {
		return nil, wrapPath(ErrNoSourcesFound, spec.BasePath)
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

// relativeTo returns path relative to base in slash form, or ok=false when
// path lies outside base.
func relativeTo(base, path string) (string, bool) {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

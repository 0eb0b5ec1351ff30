package entities

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileSet scopes a command to a base directory and an optional explicit file selection.
// Files are relative to BaseDir. An empty selection means "the whole directory".
type FileSet struct {
	BaseDir string
	Files   []string
}

// NewFileSet builds a file set from explicit relative paths.
func NewFileSet(baseDir string, files ...string) FileSet {
	return FileSet{BaseDir: baseDir, Files: files}
}

// NewFileSetFromPatterns walks baseDir and keeps files matching any include pattern and no
// exclude pattern. Patterns use filepath.Match syntax and are matched against slash-separated
// relative paths and base names. Provider metadata directories are never selected.
func NewFileSetFromPatterns(baseDir, includes, excludes string) (FileSet, error) {
	set := FileSet{BaseDir: baseDir}
	includeList := splitPatterns(includes)
	excludeList := splitPatterns(excludes)
	if len(includeList) == 0 && len(excludeList) == 0 {
		return set, nil
	}
	if len(includeList) == 0 {
		includeList = []string{"*"}
	}

	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != baseDir && isMetadataDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(baseDir, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if matchesAny(rel, includeList) && !matchesAny(rel, excludeList) {
			set.Files = append(set.Files, rel)
		}
		return nil
	})
	if err != nil {
		return set, fmt.Errorf("failed to scan %q: %w", baseDir, err)
	}
	sort.Strings(set.Files)
	return set, nil
}

// IsEmpty reports whether the set selects the whole base directory.
func (s FileSet) IsEmpty() bool {
	return len(s.Files) == 0
}

// RelativePaths returns the selection as OS-specific relative paths.
func (s FileSet) RelativePaths() []string {
	paths := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		paths = append(paths, filepath.FromSlash(f))
	}
	return paths
}

// AbsolutePaths returns the selection resolved against BaseDir.
func (s FileSet) AbsolutePaths() []string {
	paths := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		paths = append(paths, filepath.Join(s.BaseDir, filepath.FromSlash(f)))
	}
	return paths
}

// EnsureBaseDir creates the base directory if it does not exist yet.
func (s FileSet) EnsureBaseDir() error {
	if err := os.MkdirAll(s.BaseDir, 0o755); err != nil {
		return NewScmError("prepare working directory", err)
	}
	return nil
}

func (s FileSet) String() string {
	if s.IsEmpty() {
		return s.BaseDir
	}
	return fmt.Sprintf("%s [%s]", s.BaseDir, strings.Join(s.Files, ", "))
}

func splitPatterns(raw string) []string {
	var patterns []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

func matchesAny(rel string, patterns []string) bool {
	base := filepath.Base(rel)
	for _, p := range patterns {
		if strings.HasSuffix(p, "/**") && strings.HasPrefix(rel, strings.TrimSuffix(p, "**")) {
			return true
		}
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

func isMetadataDir(name string) bool {
	switch name {
	case ".git", ".svn", ".hg", ".bzr", "CVS", ".accurev":
		return true
	default:
		return false
	}
}

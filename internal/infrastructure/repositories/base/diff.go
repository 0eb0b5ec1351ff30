package base

import (
	"strconv"
	"strings"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

// ParseGitDiff splits a patch in the extended git format ("diff --git a/x b/x" headers,
// also produced by hg diff --git) into per-file differences.
func ParseGitDiff(patch string) ([]entities.ScmFile, map[string]string) {
	var files []entities.ScmFile
	differences := map[string]string{}
	var path string
	var status entities.ScmFileStatus
	var sb strings.Builder

	flush := func() {
		if path != "" {
			files = append(files, entities.NewScmFile(path, status))
			differences[path] = sb.String()
		}
		sb.Reset()
	}
	for _, line := range strings.SplitAfter(patch, "\n") {
		trimmed := strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(trimmed, "diff --git ") {
			flush()
			path = diffPath(trimmed)
			status = entities.StatusModified
		}
		switch {
		case strings.HasPrefix(trimmed, "new file mode"):
			status = entities.StatusAdded
		case strings.HasPrefix(trimmed, "deleted file mode"):
			status = entities.StatusDeleted
		}
		if path != "" {
			sb.WriteString(line)
		}
	}
	flush()
	return files, differences
}

func diffPath(header string) string {
	rest := strings.TrimPrefix(header, "diff --git ")
	if idx := strings.LastIndex(rest, " b/"); idx >= 0 {
		return UnquotePath(rest[idx+3:])
	}
	return rest
}

// UnquotePath undoes the C-style quoting tools apply to unusual file names.
func UnquotePath(path string) string {
	if len(path) >= 2 && path[0] == '"' {
		if unquoted, err := strconv.Unquote(path); err == nil {
			return unquoted
		}
	}
	return path
}

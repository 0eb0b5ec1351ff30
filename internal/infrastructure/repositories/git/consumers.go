package git

import (
	"strconv"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
)

const (
	changeSetMarker = "@@@"
	logFormat       = changeSetMarker + "%H%x09%an%x09%ad%x09%s"
	logDateFormat   = "format-local:%Y/%m/%d %H:%M:%S"
)

// parsePorcelainStatus reads "git status --porcelain" output.
func parsePorcelainStatus(output string) []entities.ScmFile {
	var files []entities.ScmFile
	for _, line := range strings.Split(output, "\n") {
		if len(line) < 4 {
			continue
		}
		x, y, path := line[0], line[1], strings.TrimSpace(line[3:])
		if _, renamed, found := strings.Cut(path, " -> "); found {
			path = renamed
		}
		path = unquote(path)
		files = append(files, entities.NewScmFile(path, porcelainStatus(x, y)))
	}
	return files
}

func porcelainStatus(x, y byte) entities.ScmFileStatus {
	switch {
	case x == '?' && y == '?':
		return entities.StatusUnknown
	case x == 'U' || y == 'U' || (x == 'A' && y == 'A') || (x == 'D' && y == 'D'):
		return entities.StatusConflict
	case x == 'A' || x == 'R' || x == 'C':
		return entities.StatusAdded
	case x == 'D' || y == 'D':
		return entities.StatusDeleted
	case x == 'M' || y == 'M' || x == 'T' || y == 'T':
		return entities.StatusModified
	default:
		return entities.StatusUnknown
	}
}

// parseNameStatus reads "--name-status" output ("M\tpath", "R100\told\tnew").
func parseNameStatus(output string, override *entities.ScmFileStatus) []entities.ScmFile {
	var files []entities.ScmFile
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Split(strings.TrimSpace(line), "\t")
		if len(fields) < 2 || fields[0] == "" {
			continue
		}
		status := nameStatus(fields[0][0])
		if override != nil {
			status = *override
		}
		files = append(files, entities.NewScmFile(unquote(fields[len(fields)-1]), status))
	}
	return files
}

func nameStatus(code byte) entities.ScmFileStatus {
	switch code {
	case 'A', 'C', 'R':
		return entities.StatusAdded
	case 'D':
		return entities.StatusDeleted
	case 'M', 'T':
		return entities.StatusModified
	case 'U':
		return entities.StatusConflict
	default:
		return entities.StatusUnknown
	}
}

// parseRemoved reads the "rm 'path'" lines printed by git rm.
func parseRemoved(output string) []entities.ScmFile {
	var files []entities.ScmFile
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "rm '") || !strings.HasSuffix(line, "'") {
			continue
		}
		files = append(files, entities.NewScmFile(line[4:len(line)-1], entities.StatusDeleted))
	}
	return files
}

// parseLog reads "git log --name-status" output produced with logFormat.
func parseLog(output string) []entities.ChangeSet {
	var sets []entities.ChangeSet
	var current *entities.ChangeSet
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, changeSetMarker) {
			fields := strings.SplitN(strings.TrimPrefix(line, changeSetMarker), "\t", 4)
			if len(fields) < 4 {
				logger.Warnf("[%s] Skipping malformed log line %q", providerName, line)
				current = nil
				continue
			}
			sets = append(sets, entities.ChangeSet{Revision: fields[0], Author: fields[1], Comment: fields[3]})
			current = &sets[len(sets)-1]
			if err := current.SetDate(fields[2], ""); err != nil {
				logger.Warnf("[%s] %v", providerName, err)
			}
			continue
		}
		fields := strings.Split(strings.TrimSpace(line), "\t")
		if current == nil || len(fields) < 2 || fields[0] == "" {
			continue
		}
		file := entities.NewChangeFile(unquote(fields[len(fields)-1]), current.Revision)
		file.Action = nameStatus(fields[0][0])
		if len(fields) == 3 {
			file.OriginalName = unquote(fields[1])
		}
		current.AddFile(file)
	}
	return sets
}

// parseBlame reads "git blame --line-porcelain" output.
func parseBlame(output string) []entities.BlameLine {
	var lines []entities.BlameLine
	var current entities.BlameLine
	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.HasPrefix(line, "\t"):
			lines = append(lines, current)
		case strings.HasPrefix(line, "author "):
			current.Author = strings.TrimPrefix(line, "author ")
		case strings.HasPrefix(line, "author-time "):
			if secs, err := strconv.ParseInt(strings.TrimPrefix(line, "author-time "), 10, 64); err == nil {
				current.Date = time.Unix(secs, 0).UTC()
			}
		default:
			fields := strings.Fields(line)
			if len(fields) >= 3 && len(fields[0]) == 40 {
				current = entities.BlameLine{Revision: fields[0], Author: current.Author, Date: current.Date}
			}
		}
	}
	return lines
}

// parseLsRemote reads "git ls-remote" output into branch and tag maps.
func parseLsRemote(output string) (map[string]string, map[string]string) {
	branches, tags := map[string]string{}, map[string]string{}
	for _, line := range strings.Split(output, "\n") {
		sha, ref, found := strings.Cut(strings.TrimSpace(line), "\t")
		if !found {
			continue
		}
		switch {
		case strings.HasPrefix(ref, "refs/heads/"):
			branches[strings.TrimPrefix(ref, "refs/heads/")] = sha
		case strings.HasPrefix(ref, "refs/tags/"):
			name := strings.TrimPrefix(ref, "refs/tags/")
			if peeled, ok := strings.CutSuffix(name, "^{}"); ok {
				tags[peeled] = sha
			} else if _, exists := tags[name]; !exists {
				tags[name] = sha
			}
		}
	}
	return branches, tags
}

func splitLines(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, unquote(line))
		}
	}
	return lines
}

func unquote(path string) string { return base.UnquotePath(path) }

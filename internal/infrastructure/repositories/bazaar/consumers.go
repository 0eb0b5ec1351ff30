package bazaar

import (
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

const (
	logSeparator    = "------------------------------------------------------------"
	timestampLayout = "Mon 2006-01-02 15:04:05 -0700"
	blameDateLayout = "20060102"
)

//nolint:gochecknoglobals // compiled once
var revisionLine = regexp.MustCompile(`(?:Committed|Updated to|Tree is up to date at) revision (\d+)`)

func parseRevision(output string) string {
	if match := revisionLine.FindStringSubmatch(output); match != nil {
		return match[1]
	}
	return ""
}

// parseShortStatus reads the three column "bzr status --short" form also printed by update.
// Column one is the versioning change, column two the content change.
func parseShortStatus(output string, modified entities.ScmFileStatus) []entities.ScmFile {
	var files []entities.ScmFile
	for _, line := range strings.Split(output, "\n") {
		if len(line) < 5 || line[3] != ' ' {
			continue
		}
		var status entities.ScmFileStatus
		switch {
		case line[0] == '?':
			status = entities.StatusUnknown
		case line[0] == 'C':
			status = entities.StatusConflict
		case line[1] == 'N' || line[0] == '+':
			status = entities.StatusAdded
		case line[1] == 'D' || line[0] == '-':
			status = entities.StatusDeleted
		case line[1] == 'M' || line[1] == 'K' || line[0] == 'R':
			status = modified
		default:
			continue
		}
		path := strings.TrimSpace(line[4:])
		if _, renamed, found := strings.Cut(path, " => "); found {
			path = renamed
		}
		files = append(files, entities.NewScmFile(path, status))
	}
	return files
}

// parseVerbLines reads "<verb> <path>" lines such as "adding a.txt" or "deleted b.txt".
func parseVerbLines(output string, verbs map[string]entities.ScmFileStatus) []entities.ScmFile {
	var files []entities.ScmFile
	for _, line := range strings.Split(output, "\n") {
		verb, path, found := strings.Cut(strings.TrimSpace(line), " ")
		status, ok := verbs[verb]
		if !found || !ok {
			continue
		}
		files = append(files, entities.NewScmFile(strings.TrimSpace(path), status))
	}
	return files
}

//nolint:gochecknoglobals // closed lookup table
var logSections = map[string]entities.ScmFileStatus{
	"added:":    entities.StatusAdded,
	"removed:":  entities.StatusDeleted,
	"modified:": entities.StatusModified,
	"renamed:":  entities.StatusModified,
}

// parseLog reads the long "bzr log -v" form.
func parseLog(output string) []entities.ChangeSet {
	var sets []entities.ChangeSet
	var current *entities.ChangeSet
	section := ""
	var message []string

	flush := func() {
		if current != nil {
			current.Comment = strings.Join(message, "\n")
		}
		message = nil
	}
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == logSeparator {
			flush()
			sets = append(sets, entities.ChangeSet{})
			current = &sets[len(sets)-1]
			section = ""
			continue
		}
		if current == nil {
			continue
		}
		if !strings.HasPrefix(line, " ") {
			if key, value, found := strings.Cut(trimmed, ": "); found && section == "" {
				switch key {
				case "revno":
					current.Revision, _, _ = strings.Cut(value, " ")
				case "committer", "author":
					current.Author = strings.TrimSpace(value)
				case "timestamp":
					date, err := time.Parse(timestampLayout, value)
					if err != nil {
						logger.Warnf("[%s] Ignoring malformed timestamp %q", providerName, value)
					}
					current.Date = date.UTC()
				}
				continue
			}
			section = trimmed
			continue
		}
		switch status, isFiles := logSections[section]; {
		case section == "message:":
			message = append(message, trimmed)
		case isFiles && trimmed != "":
			name := trimmed
			if _, renamed, found := strings.Cut(name, " => "); found {
				name = renamed
			}
			file := entities.NewChangeFile(name, current.Revision)
			file.Action = status
			current.AddFile(file)
		}
	}
	flush()
	return sets
}

// parseDiff splits "bzr diff" output on its "=== <action> file 'path'" headers.
func parseDiff(patch string) ([]entities.ScmFile, map[string]string) {
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
		if rest, found := strings.CutPrefix(trimmed, "=== "); found {
			action, quoted, _ := strings.Cut(rest, " file ")
			flush()
			path = strings.Trim(quoted, "'")
			if _, renamed, isRename := strings.Cut(path, "' => '"); isRename {
				path = renamed
			}
			switch action {
			case "added":
				status = entities.StatusAdded
			case "removed":
				status = entities.StatusDeleted
			default:
				status = entities.StatusModified
			}
		}
		if path != "" {
			sb.WriteString(line)
		}
	}
	flush()
	return files, differences
}

// parseAnnotate reads "bzr annotate --all --long": "<revno> <author> <yyyymmdd> | <line>".
func parseAnnotate(output string) []entities.BlameLine {
	var lines []entities.BlameLine
	for _, line := range strings.Split(output, "\n") {
		head, _, found := strings.Cut(line, " |")
		fields := strings.Fields(head)
		if !found || len(fields) < 3 {
			continue
		}
		date, err := time.ParseInLocation(blameDateLayout, fields[2], time.UTC)
		if err != nil {
			logger.Warnf("[%s] Ignoring malformed annotate date %q", providerName, fields[2])
		}
		lines = append(lines, entities.BlameLine{Revision: fields[0], Author: fields[1], Date: date})
	}
	return lines
}

func splitLines(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

package svn

import (
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/xmlstream"
)

//nolint:gochecknoglobals // compiled once
var revisionLine = regexp.MustCompile(`(?:Committed|Checked out|Updated to|At|Exported) revision (\d+)\.`)

// parseRevision finds the revision svn reports at the end of a command.
func parseRevision(output string) string {
	if match := revisionLine.FindStringSubmatch(output); match != nil {
		return match[1]
	}
	return ""
}

// parseUpdateLines reads the "X    path" lines printed by add, delete, checkout, update and
// export. Only codes present in codes are kept.
func parseUpdateLines(output, dir string, codes map[byte]entities.ScmFileStatus) []entities.ScmFile {
	var files []entities.ScmFile
	for _, line := range strings.Split(output, "\n") {
		if len(line) < 2 || line[1] != ' ' && line[1] != 'U' && line[1] != 'C' && line[1] != 'G' {
			continue
		}
		status, ok := codes[line[0]]
		if !ok {
			continue
		}
		path := strings.TrimSpace(line[1:])
		path = strings.TrimSpace(strings.TrimPrefix(path, "(bin)"))
		if path == "" || strings.HasPrefix(path, "revision") {
			continue
		}
		files = append(files, entities.NewScmFile(relativeTo(path, dir), status))
	}
	return files
}

func relativeTo(path, dir string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	if dir != "" {
		prefix := strings.TrimSuffix(strings.ReplaceAll(dir, "\\", "/"), "/") + "/"
		path = strings.TrimPrefix(path, prefix)
	}
	return strings.TrimPrefix(path, "./")
}

// parseCommitLines reads "Sending/Adding/Deleting/Replacing  path" lines of svn commit.
func parseCommitLines(output string) []entities.ScmFile {
	var files []entities.ScmFile
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "Sending", "Adding", "Deleting", "Replacing":
			path := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
			path = strings.TrimSpace(strings.TrimPrefix(path, "(bin)"))
			files = append(files, entities.NewScmFile(relativeTo(path, ""), entities.StatusCheckedIn))
		}
	}
	return files
}

// parseDiff splits "svn diff" output on its Index headers.
func parseDiff(patch string) ([]entities.ScmFile, map[string]string) {
	var files []entities.ScmFile
	differences := map[string]string{}
	var path string
	status := entities.StatusModified
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
		if rest, found := strings.CutPrefix(trimmed, "Index: "); found {
			flush()
			path, status = relativeTo(strings.TrimSpace(rest), ""), entities.StatusModified
		}
		switch {
		case strings.HasPrefix(trimmed, "--- ") && (strings.Contains(trimmed, "(nonexistent)") || strings.Contains(trimmed, "(revision 0)")):
			status = entities.StatusAdded
		case strings.HasPrefix(trimmed, "+++ ") && strings.Contains(trimmed, "(nonexistent)"):
			status = entities.StatusDeleted
		}
		if path != "" {
			sb.WriteString(line)
		}
	}
	flush()
	return files, differences
}

func parseDate(value string) time.Time {
	parsed, err := entities.ParseChangeSetDate(value, time.RFC3339Nano)
	if err != nil {
		logger.Warnf("[%s] %v", providerName, err)
	}
	return parsed
}

// statusItems maps wc-status item values.
//
//nolint:gochecknoglobals // closed lookup table
var statusItems = map[string]entities.ScmFileStatus{
	"added":       entities.StatusAdded,
	"deleted":     entities.StatusDeleted,
	"missing":     entities.StatusDeleted,
	"modified":    entities.StatusModified,
	"replaced":    entities.StatusModified,
	"conflicted":  entities.StatusConflict,
	"obstructed":  entities.StatusConflict,
	"unversioned": entities.StatusUnknown,
}

// statusConsumer collects "svn status --xml" entries.
func statusConsumer(files *[]entities.ScmFile) *xmlstream.Consumer {
	var path string
	return xmlstream.NewConsumer(providerName+" status").
		OnStart("status/target/entry", func(e xmlstream.Element) { path = relativeTo(e.Attr("path"), "") }).
		OnStart("status/target/entry/wc-status", func(e xmlstream.Element) {
			item := e.Attr("item")
			if status, ok := statusItems[item]; ok {
				*files = append(*files, entities.NewScmFile(path, status))
			} else if e.Attr("props") == "modified" {
				*files = append(*files, entities.NewScmFile(path, entities.StatusModified))
			}
		})
}

//nolint:gochecknoglobals // closed lookup table
var pathActions = map[string]entities.ScmFileStatus{
	"A": entities.StatusAdded,
	"D": entities.StatusDeleted,
	"M": entities.StatusModified,
	"R": entities.StatusModified,
}

// logConsumer collects "svn log --xml -v" entries.
func logConsumer(sets *[]entities.ChangeSet) *xmlstream.Consumer {
	var current entities.ChangeSet
	return xmlstream.NewConsumer(providerName+" log").
		OnStart("log/logentry", func(e xmlstream.Element) {
			current = entities.ChangeSet{Revision: e.Attr("revision")}
		}).
		OnEnd("log/logentry/author", func(e xmlstream.Element) { current.Author = e.Text }).
		OnEnd("log/logentry/date", func(e xmlstream.Element) { current.Date = parseDate(e.Text) }).
		OnEnd("log/logentry/msg", func(e xmlstream.Element) { current.Comment = e.Text }).
		OnEnd("log/logentry/paths/path", func(e xmlstream.Element) {
			file := entities.NewChangeFile(e.Text, current.Revision)
			if action, ok := pathActions[e.Attr("action")]; ok {
				file.Action = action
			}
			file.OriginalName = e.Attr("copyfrom-path")
			file.OriginalRevision = e.Attr("copyfrom-rev")
			current.AddFile(file)
		}).
		OnEnd("log/logentry", func(xmlstream.Element) { *sets = append(*sets, current) })
}

// infoConsumer collects "svn info --xml" entries.
func infoConsumer(items *[]entities.InfoItem) *xmlstream.Consumer {
	var current entities.InfoItem
	return xmlstream.NewConsumer(providerName+" info").
		OnStart("info/entry", func(e xmlstream.Element) {
			current = entities.InfoItem{Path: e.Attr("path"), Kind: e.Attr("kind"), Revision: e.Attr("revision")}
		}).
		OnEnd("info/entry/url", func(e xmlstream.Element) { current.URL = e.Text }).
		OnEnd("info/entry/repository/root", func(e xmlstream.Element) { current.RepositoryRoot = e.Text }).
		OnStart("info/entry/commit", func(e xmlstream.Element) { current.LastChangedRevision = e.Attr("revision") }).
		OnEnd("info/entry/commit/author", func(e xmlstream.Element) { current.LastChangedAuthor = e.Text }).
		OnEnd("info/entry/commit/date", func(e xmlstream.Element) { current.LastChangedDate = parseDate(e.Text) }).
		OnEnd("info/entry", func(xmlstream.Element) { *items = append(*items, current) })
}

// listConsumer collects "svn list --xml" entry names; directories end with a slash.
func listConsumer(files *[]entities.ScmFile, status entities.ScmFileStatus) *xmlstream.Consumer {
	var kind string
	return xmlstream.NewConsumer(providerName+" list").
		OnStart("lists/list/entry", func(e xmlstream.Element) { kind = e.Attr("kind") }).
		OnEnd("lists/list/entry/name", func(e xmlstream.Element) {
			name := e.Text
			if kind == "dir" {
				name += "/"
			}
			*files = append(*files, entities.NewScmFile(name, status))
		})
}

// blameConsumer collects "svn blame --xml" lines.
func blameConsumer(lines *[]entities.BlameLine) *xmlstream.Consumer {
	var current entities.BlameLine
	return xmlstream.NewConsumer(providerName+" blame").
		OnStart("blame/target/entry", func(xmlstream.Element) { current = entities.BlameLine{} }).
		OnStart("blame/target/entry/commit", func(e xmlstream.Element) { current.Revision = e.Attr("revision") }).
		OnEnd("blame/target/entry/commit/author", func(e xmlstream.Element) { current.Author = e.Text }).
		OnEnd("blame/target/entry/commit/date", func(e xmlstream.Element) { current.Date = parseDate(e.Text) }).
		OnEnd("blame/target/entry", func(xmlstream.Element) { *lines = append(*lines, current) })
}

package hg

import (
	"strconv"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

const (
	changeSetMarker = "@@@"
	// logTemplate prints one header line per change set followed by "<code>\t<file>" lines.
	logTemplate = changeSetMarker + `{node}\t{author|person}\t{date|hgdate}\t{desc|firstline}\n` +
		`{file_adds % 'A\t{file}\n'}{file_mods % 'M\t{file}\n'}{file_dels % 'D\t{file}\n'}`
	blameTemplate = `{lines % '{node}\t{user|person}\t{date|hgdate}\t{line}'}`
)

//nolint:gochecknoglobals // closed lookup table
var statusCodes = map[byte]entities.ScmFileStatus{
	'M': entities.StatusModified,
	'A': entities.StatusAdded,
	'R': entities.StatusDeleted,
	'!': entities.StatusDeleted,
	'?': entities.StatusUnknown,
}

// logCodes are the action codes written by logTemplate.
//
//nolint:gochecknoglobals // closed lookup table
var logCodes = map[byte]entities.ScmFileStatus{
	'A': entities.StatusAdded,
	'M': entities.StatusModified,
	'D': entities.StatusDeleted,
}

// parseStatus reads "hg status" lines ("M path"). An override replaces every status.
func parseStatus(output string, override *entities.ScmFileStatus) []entities.ScmFile {
	var files []entities.ScmFile
	for _, line := range strings.Split(output, "\n") {
		if len(line) < 3 || line[1] != ' ' {
			continue
		}
		status, ok := statusCodes[line[0]]
		if !ok {
			continue
		}
		if override != nil {
			status = *override
		}
		files = append(files, entities.NewScmFile(strings.TrimSpace(line[2:]), status))
	}
	return files
}

// parseHgDate reads the "{date|hgdate}" form: unix seconds and a timezone offset.
func parseHgDate(value string) time.Time {
	seconds, _, _ := strings.Cut(strings.TrimSpace(value), " ")
	parsed, err := strconv.ParseInt(seconds, 10, 64)
	if err != nil {
		logger.Warnf("[%s] Ignoring malformed date %q", providerName, value)
		return time.Time{}
	}
	return time.Unix(parsed, 0).UTC()
}

// parseLog reads "hg log" output produced with logTemplate.
func parseLog(output string) []entities.ChangeSet {
	var sets []entities.ChangeSet
	var current *entities.ChangeSet
	for _, line := range strings.Split(output, "\n") {
		if rest, found := strings.CutPrefix(line, changeSetMarker); found {
			fields := strings.SplitN(rest, "\t", 4)
			if len(fields) < 4 {
				logger.Warnf("[%s] Skipping malformed log line %q", providerName, line)
				current = nil
				continue
			}
			sets = append(sets, entities.ChangeSet{
				Revision: fields[0],
				Author:   fields[1],
				Date:     parseHgDate(fields[2]),
				Comment:  fields[3],
			})
			current = &sets[len(sets)-1]
			continue
		}
		code, path, found := strings.Cut(line, "\t")
		if current == nil || !found || len(code) != 1 {
			continue
		}
		file := entities.NewChangeFile(path, current.Revision)
		if status, ok := logCodes[code[0]]; ok {
			file.Action = status
		}
		current.AddFile(file)
	}
	return sets
}

// parseCommitted reads "hg commit -v": the file list between "committing files:" and
// "committing manifest", and the node of "committed changeset N:node".
func parseCommitted(output string) ([]entities.ScmFile, string) {
	var files []entities.ScmFile
	var revision string
	inFiles := false
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "committing files:":
			inFiles = true
		case strings.HasPrefix(line, "committing "):
			inFiles = false
		case strings.HasPrefix(line, "committed changeset "):
			_, node, _ := strings.Cut(strings.TrimPrefix(line, "committed changeset "), ":")
			revision = node
		case inFiles && line != "":
			files = append(files, entities.NewScmFile(line, entities.StatusCheckedIn))
		}
	}
	return files, revision
}

// parseBlame reads "hg annotate" output produced with blameTemplate.
func parseBlame(output string) []entities.BlameLine {
	var lines []entities.BlameLine
	for _, line := range strings.Split(strings.TrimSuffix(output, "\n"), "\n") {
		fields := strings.SplitN(line, "\t", 4)
		if len(fields) < 3 {
			continue
		}
		lines = append(lines, entities.BlameLine{Revision: fields[0], Author: fields[1], Date: parseHgDate(fields[2])})
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

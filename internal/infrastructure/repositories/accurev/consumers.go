package accurev

import (
	"strconv"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/xmlstream"
)

const root = "AcResponse"

// workspacePath turns an accurev depot-relative location ("/./dir/a.txt") into a path.
func workspacePath(location string) string {
	return strings.TrimPrefix(strings.TrimPrefix(location, "/./"), "\\.\\")
}

// parseElementLines reads "<verb> [element] /./path" lines; only listed verbs are kept.
func parseElementLines(output string, verbs map[string]entities.ScmFileStatus) []entities.ScmFile {
	var files []entities.ScmFile
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		status, ok := verbs[fields[0]]
		if !ok {
			continue
		}
		location := fields[len(fields)-1]
		if !strings.HasPrefix(location, "/./") {
			continue
		}
		files = append(files, entities.NewScmFile(workspacePath(location), status))
	}
	return files
}

// elementStatus maps the parenthesised status keywords of "stat -fx". Backed elements
// without any change keyword are reported as unchanged (ok false).
func elementStatus(raw string) (entities.ScmFileStatus, bool) {
	switch {
	case strings.Contains(raw, "(overlap)"), strings.Contains(raw, "(underlap)"):
		return entities.StatusConflict, true
	case strings.Contains(raw, "(defunct)"), strings.Contains(raw, "(missing)"), strings.Contains(raw, "(stranded)"):
		return entities.StatusDeleted, true
	case strings.Contains(raw, "(external)"):
		return entities.StatusUnknown, true
	case strings.Contains(raw, "(modified)"), strings.Contains(raw, "(kept)"):
		return entities.StatusModified, true
	default:
		return 0, false
	}
}

// statConsumer collects stat elements. With all set every element is kept as status.
func statConsumer(files *[]entities.ScmFile, all bool, status entities.ScmFileStatus) *xmlstream.Consumer {
	return xmlstream.NewConsumer(providerName+" stat").
		OnStart(root+"/element", func(e xmlstream.Element) {
			path := workspacePath(e.Attr("location"))
			if path == "" || path == "/." {
				return
			}
			if e.Attr("dir") == "yes" {
				path += "/"
			}
			if all {
				*files = append(*files, entities.NewScmFile(path, status))
				return
			}
			if elemStatus, ok := elementStatus(e.Attr("status")); ok {
				*files = append(*files, entities.NewScmFile(path, elemStatus))
			}
		})
}

//nolint:gochecknoglobals // closed lookup table
var transactionActions = map[string]entities.ScmFileStatus{
	"add":      entities.StatusAdded,
	"keep":     entities.StatusModified,
	"promote":  entities.StatusModified,
	"defunct":  entities.StatusDeleted,
	"purge":    entities.StatusDeleted,
	"move":     entities.StatusModified,
	"undefunc": entities.StatusAdded,
}

func epoch(value string) time.Time {
	seconds, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		logger.Warnf("[%s] Ignoring malformed transaction time %q", providerName, value)
		return time.Time{}
	}
	return time.Unix(seconds, 0).UTC()
}

// histConsumer collects "hist -fx" transactions.
func histConsumer(sets *[]entities.ChangeSet) *xmlstream.Consumer {
	var current entities.ChangeSet
	var action entities.ScmFileStatus
	return xmlstream.NewConsumer(providerName+" hist").
		OnStart(root+"/transaction", func(e xmlstream.Element) {
			current = entities.ChangeSet{Revision: e.Attr("id"), Author: e.Attr("user"), Date: epoch(e.Attr("time"))}
			action = entities.StatusModified
			if mapped, ok := transactionActions[e.Attr("type")]; ok {
				action = mapped
			}
		}).
		OnEnd(root+"/transaction/comment", func(e xmlstream.Element) { current.Comment = e.Text }).
		OnStart(root+"/transaction/version", func(e xmlstream.Element) {
			file := entities.NewChangeFile(workspacePath(e.Attr("path")), e.Attr("real"))
			file.Action = action
			current.AddFile(file)
		}).
		OnEnd(root+"/transaction", func(xmlstream.Element) { *sets = append(*sets, current) })
}

type workspaceInfo struct {
	Principal string
	Host      string
	Port      int
	Depot     string
	Basis     string
	Workspace string
	Top       string
}

// infoConsumer reads "info -fx", which reports the session and workspace as attributes.
func infoConsumer(info *workspaceInfo) *xmlstream.Consumer {
	return xmlstream.NewConsumer(providerName+" info").
		OnStart(root+"/element", func(e xmlstream.Element) {
			info.Principal = e.Attr("Principal")
			info.Host = e.Attr("Host")
			info.Port, _ = strconv.Atoi(e.Attr("Port"))
			info.Depot = e.Attr("Depot")
			info.Basis = e.Attr("Basis")
			info.Workspace = e.Attr("Workspace")
			info.Top = e.Attr("Top")
		})
}

package controllers

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

const (
	outputTable = "table"
	outputYAML  = "yaml"
	maxComment  = 60
)

//nolint:gochecknoglobals // shared output styles
var (
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	failureStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	addedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	deletedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true)
	modifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Bold(true)
	conflictStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF00FF")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func statusStyle(status entities.ScmFileStatus) lipgloss.Style {
	switch status {
	case entities.StatusAdded:
		return addedStyle
	case entities.StatusDeleted:
		return deletedStyle
	case entities.StatusModified, entities.StatusUpdated, entities.StatusPatched:
		return modifiedStyle
	case entities.StatusConflict:
		return conflictStyle
	case entities.StatusUnknown:
		return mutedStyle
	default:
		return lipgloss.NewStyle()
	}
}

// fileView is the serialized form of a file entry.
type fileView struct {
	Path   string `yaml:"path"`
	Status string `yaml:"status"`
}

// resultView is the serialized form of a result for --output yaml.
type resultView struct {
	Command     string               `yaml:"command"`
	Success     bool                 `yaml:"success"`
	CommandLine string               `yaml:"commandLine,omitempty"`
	Message     string               `yaml:"message,omitempty"`
	Output      string               `yaml:"output,omitempty"`
	Revision    string               `yaml:"revision,omitempty"`
	Files       []fileView           `yaml:"files,omitempty"`
	ChangeSets  []entities.ChangeSet `yaml:"changeSets,omitempty"`
	Blame       []entities.BlameLine `yaml:"blame,omitempty"`
	Info        []entities.InfoItem  `yaml:"info,omitempty"`
	Branches    map[string]string    `yaml:"branches,omitempty"`
	Tags        map[string]string    `yaml:"tags,omitempty"`
	Patch       string               `yaml:"patch,omitempty"`
}

// resultFiles extracts the file list carried by the concrete result types.
func resultFiles(result entities.Result) []entities.ScmFile {
	switch r := result.(type) {
	case *entities.AddResult:
		return r.AddedFiles()
	case *entities.RemoveResult:
		return r.RemovedFiles()
	case *entities.CheckInResult:
		return r.CheckedInFiles()
	case *entities.CheckOutResult:
		return r.CheckedOutFiles()
	case *entities.DiffResult:
		return r.ChangedFiles()
	case *entities.TagResult:
		return r.TaggedFiles()
	case *entities.BranchResult:
		return r.BranchedFiles()
	case *entities.StatusResult:
		return r.ChangedFiles()
	case *entities.UpdateResult:
		return r.UpdatedFiles()
	case *entities.ListResult:
		return r.Files()
	case *entities.EditResult:
		return r.EditFiles()
	case *entities.UneditResult:
		return r.UneditFiles()
	case *entities.ExportResult:
		return r.ExportedFiles()
	default:
		return nil
	}
}

func newResultView(cmd entities.CommandName, result entities.Result) resultView {
	view := resultView{
		Command:     string(cmd),
		Success:     result.IsSuccess(),
		CommandLine: result.CommandLine(),
		Message:     result.ProviderMessage(),
	}
	if !result.IsSuccess() {
		view.Output = result.CommandOutput()
	}
	for _, f := range resultFiles(result) {
		view.Files = append(view.Files, fileView{Path: f.Path, Status: f.Status.String()})
	}
	switch r := result.(type) {
	case *entities.CheckInResult:
		view.Revision = r.Revision()
	case *entities.CheckOutResult:
		view.Revision = r.Revision()
	case *entities.UpdateResult:
		view.ChangeSets = r.Changes()
	case *entities.ChangeLogResult:
		view.ChangeSets = r.ChangeLog().ChangeSets
	case *entities.BlameResult:
		view.Blame = r.Lines()
	case *entities.InfoResult:
		view.Info = r.Items()
	case *entities.RemoteInfoResult:
		view.Branches, view.Tags = r.Branches(), r.Tags()
	case *entities.DiffResult:
		view.Patch = r.Patch()
	}
	return view
}

// render writes result to w in the requested format.
func render(w io.Writer, format string, cmd entities.CommandName, result entities.Result) error {
	switch format {
	case outputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(newResultView(cmd, result)); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return encoder.Close()
	case outputTable, "":
		return renderTable(w, cmd, result)
	default:
		return fmt.Errorf("unknown output format %q (expected %s or %s)", format, outputTable, outputYAML)
	}
}

func renderTable(w io.Writer, cmd entities.CommandName, result entities.Result) error {
	if !result.IsSuccess() {
		fmt.Fprintln(w, failureStyle.Render(fmt.Sprintf("%s failed: %s", cmd, result.ProviderMessage())))
		if output := strings.TrimSpace(result.CommandOutput()); output != "" {
			fmt.Fprintln(w, output)
		}
		return nil
	}
	logger.Debugf("Rendering %s result of %s", cmd, result.CommandLine())

	var err error
	switch r := result.(type) {
	case *entities.ChangeLogResult:
		err = renderChangeSets(w, r.ChangeLog().ChangeSets)
	case *entities.BlameResult:
		err = renderBlame(w, r.Lines())
	case *entities.InfoResult:
		err = renderInfo(w, r.Items())
	case *entities.RemoteInfoResult:
		err = renderRemoteInfo(w, r.Branches(), r.Tags())
	case *entities.DiffResult:
		fmt.Fprint(w, r.Patch())
	case *entities.LoginResult:
		fmt.Fprintln(w, successStyle.Render("Logged in."))
	default:
		if files := resultFiles(result); len(files) > 0 {
			err = renderFiles(w, files)
		}
	}
	if err != nil {
		return err
	}

	if update, ok := result.(*entities.UpdateResult); ok && len(update.Changes()) > 0 {
		if err = renderChangeSets(w, update.Changes()); err != nil {
			return err
		}
	}
	summary := fmt.Sprintf("%s succeeded", cmd)
	if files := resultFiles(result); len(files) > 0 {
		summary += fmt.Sprintf(" (%d files)", len(files))
	}
	fmt.Fprintln(w, successStyle.Render(summary))
	return nil
}

func renderFiles(w io.Writer, files []entities.ScmFile) error {
	table := tablewriter.NewWriter(w)
	table.Header("Status", "Path")
	for _, f := range files {
		if err := table.Append(statusStyle(f.Status).Render(f.Status.String()), f.Path); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderChangeSets(w io.Writer, sets []entities.ChangeSet) error {
	table := tablewriter.NewWriter(w)
	table.Header("Revision", "Author", "Date", "Files", "Comment")
	for _, cs := range sets {
		comment := strings.ReplaceAll(strings.TrimSpace(cs.Comment), "\n", " ")
		if len(comment) > maxComment {
			comment = comment[:maxComment-3] + "..."
		}
		if err := table.Append(cs.Revision, cs.Author, entities.FormatTimestamp(cs.Date),
			strconv.Itoa(len(cs.Files)), comment); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderBlame(w io.Writer, lines []entities.BlameLine) error {
	table := tablewriter.NewWriter(w)
	table.Header("Line", "Revision", "Author", "Date")
	for i, line := range lines {
		if err := table.Append(strconv.Itoa(i+1), line.Revision, line.Author,
			entities.FormatTimestamp(line.Date)); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderInfo(w io.Writer, items []entities.InfoItem) error {
	table := tablewriter.NewWriter(w)
	table.Header("Path", "URL", "Revision", "Last Author", "Last Changed")
	for _, item := range items {
		if err := table.Append(item.Path, item.URL, item.Revision, item.LastChangedAuthor,
			entities.FormatTimestamp(item.LastChangedDate)); err != nil {
			return err
		}
	}
	return table.Render()
}

// renderRemoteInfo lists branches alphabetically and tags in version order.
func renderRemoteInfo(w io.Writer, branches, tags map[string]string) error {
	table := tablewriter.NewWriter(w)
	table.Header("Kind", "Name", "Revision")

	branchNames := make([]string, 0, len(branches))
	for name := range branches {
		branchNames = append(branchNames, name)
	}
	sort.Strings(branchNames)
	for _, name := range branchNames {
		if err := table.Append("branch", name, branches[name]); err != nil {
			return err
		}
	}

	tagNames := make([]string, 0, len(tags))
	for name := range tags {
		tagNames = append(tagNames, name)
	}
	latest := entities.LatestVersionName(tagNames)
	for _, name := range entities.SortVersionNames(tagNames) {
		label := name
		if name == latest {
			label = successStyle.Render(name + " (latest)")
		}
		if err := table.Append("tag", label, tags[name]); err != nil {
			return err
		}
	}
	return table.Render()
}

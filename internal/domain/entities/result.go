package entities

import (
	"maps"
	"slices"
	"time"
)

// Result is the envelope every command returns, whatever the provider.
type Result interface {
	IsSuccess() bool
	ProviderMessage() string
	CommandOutput() string
	CommandLine() string
}

// ScmResult is the immutable base of every command result.
type ScmResult struct {
	success         bool
	providerMessage string
	commandOutput   string
	commandLine     string
}

// NewScmResult builds a result. success must reflect the tool's exit status under the
// command's exit-code policy.
func NewScmResult(commandLine, providerMessage, commandOutput string, success bool) ScmResult {
	return ScmResult{
		success:         success,
		providerMessage: providerMessage,
		commandOutput:   commandOutput,
		commandLine:     commandLine,
	}
}

// NewScmResultFrom copies the base fields out of any result.
func NewScmResultFrom(other Result) ScmResult {
	return NewScmResult(other.CommandLine(), other.ProviderMessage(), other.CommandOutput(), other.IsSuccess())
}

// NewFailedResult is a shortcut for results of runs the tool rejected.
func NewFailedResult(commandLine, providerMessage, commandOutput string) ScmResult {
	return NewScmResult(commandLine, providerMessage, commandOutput, false)
}

func (r ScmResult) IsSuccess() bool         { return r.success }
func (r ScmResult) ProviderMessage() string { return r.providerMessage }
func (r ScmResult) CommandOutput() string   { return r.commandOutput }
func (r ScmResult) CommandLine() string     { return r.commandLine }

// AddResult lists the files scheduled for addition.
type AddResult struct {
	ScmResult
	addedFiles []ScmFile
}

func NewAddResult(base ScmResult, addedFiles []ScmFile) *AddResult {
	return &AddResult{ScmResult: base, addedFiles: slices.Clone(addedFiles)}
}

func (r *AddResult) AddedFiles() []ScmFile { return slices.Clone(r.addedFiles) }

// RemoveResult lists the files scheduled for removal.
type RemoveResult struct {
	ScmResult
	removedFiles []ScmFile
}

func NewRemoveResult(base ScmResult, removedFiles []ScmFile) *RemoveResult {
	return &RemoveResult{ScmResult: base, removedFiles: slices.Clone(removedFiles)}
}

func (r *RemoveResult) RemovedFiles() []ScmFile { return slices.Clone(r.removedFiles) }

// CheckInResult lists the committed files and the new revision, when known.
type CheckInResult struct {
	ScmResult
	checkedInFiles []ScmFile
	revision       string
}

func NewCheckInResult(base ScmResult, files []ScmFile, revision string) *CheckInResult {
	return &CheckInResult{ScmResult: base, checkedInFiles: slices.Clone(files), revision: revision}
}

func (r *CheckInResult) CheckedInFiles() []ScmFile { return slices.Clone(r.checkedInFiles) }
func (r *CheckInResult) Revision() string          { return r.revision }

// CheckOutResult lists the files fetched into the working directory.
type CheckOutResult struct {
	ScmResult
	checkedOutFiles     []ScmFile
	relativePathProject string
	revision            string
}

func NewCheckOutResult(base ScmResult, files []ScmFile, relativePathProject, revision string) *CheckOutResult {
	return &CheckOutResult{
		ScmResult:           base,
		checkedOutFiles:     slices.Clone(files),
		relativePathProject: relativePathProject,
		revision:            revision,
	}
}

func (r *CheckOutResult) CheckedOutFiles() []ScmFile { return slices.Clone(r.checkedOutFiles) }

// RelativePathProjectDirectory is the project directory relative to the checkout root.
func (r *CheckOutResult) RelativePathProjectDirectory() string { return r.relativePathProject }
func (r *CheckOutResult) Revision() string                     { return r.revision }

// DiffResult carries the changed files, per-file differences and the whole patch.
type DiffResult struct {
	ScmResult
	changedFiles []ScmFile
	differences  map[string]string
	patch        string
}

func NewDiffResult(base ScmResult, files []ScmFile, differences map[string]string, patch string) *DiffResult {
	return &DiffResult{
		ScmResult:    base,
		changedFiles: slices.Clone(files),
		differences:  maps.Clone(differences),
		patch:        patch,
	}
}

func (r *DiffResult) ChangedFiles() []ScmFile        { return slices.Clone(r.changedFiles) }
func (r *DiffResult) Differences() map[string]string { return maps.Clone(r.differences) }
func (r *DiffResult) Patch() string                  { return r.patch }

// TagResult lists the files recorded in a new tag.
type TagResult struct {
	ScmResult
	taggedFiles []ScmFile
}

func NewTagResult(base ScmResult, files []ScmFile) *TagResult {
	return &TagResult{ScmResult: base, taggedFiles: slices.Clone(files)}
}

func (r *TagResult) TaggedFiles() []ScmFile { return slices.Clone(r.taggedFiles) }

// UntagResult reports the removal of a tag.
type UntagResult struct {
	ScmResult
}

func NewUntagResult(base ScmResult) *UntagResult { return &UntagResult{ScmResult: base} }

// BranchResult lists the files recorded in a new branch.
type BranchResult struct {
	ScmResult
	branchedFiles []ScmFile
}

func NewBranchResult(base ScmResult, files []ScmFile) *BranchResult {
	return &BranchResult{ScmResult: base, branchedFiles: slices.Clone(files)}
}

func (r *BranchResult) BranchedFiles() []ScmFile { return slices.Clone(r.branchedFiles) }

// StatusResult lists working tree changes.
type StatusResult struct {
	ScmResult
	changedFiles []ScmFile
}

func NewStatusResult(base ScmResult, files []ScmFile) *StatusResult {
	return &StatusResult{ScmResult: base, changedFiles: slices.Clone(files)}
}

func (r *StatusResult) ChangedFiles() []ScmFile { return slices.Clone(r.changedFiles) }

// UpdateResult lists updated files and, optionally, the change sets pulled in.
type UpdateResult struct {
	ScmResult
	updatedFiles []ScmFile
	changes      []ChangeSet
}

func NewUpdateResult(base ScmResult, files []ScmFile, changes []ChangeSet) *UpdateResult {
	return &UpdateResult{ScmResult: base, updatedFiles: slices.Clone(files), changes: slices.Clone(changes)}
}

func (r *UpdateResult) UpdatedFiles() []ScmFile { return slices.Clone(r.updatedFiles) }
func (r *UpdateResult) Changes() []ChangeSet    { return slices.Clone(r.changes) }

// ChangeLogResult carries the history of the repository.
type ChangeLogResult struct {
	ScmResult
	changeLog *ChangeLogSet
}

func NewChangeLogResult(base ScmResult, changeLog *ChangeLogSet) *ChangeLogResult {
	if changeLog == nil {
		changeLog = &ChangeLogSet{}
	}
	return &ChangeLogResult{ScmResult: base, changeLog: changeLog}
}

// ChangeLog returns a copy of the history.
func (r *ChangeLogResult) ChangeLog() ChangeLogSet {
	copied := *r.changeLog
	copied.ChangeSets = slices.Clone(r.changeLog.ChangeSets)
	return copied
}

// LoginResult carries the session token established by an authenticated provider.
type LoginResult struct {
	ScmResult
	token string
}

func NewLoginResult(base ScmResult, token string) *LoginResult {
	return &LoginResult{ScmResult: base, token: token}
}

func (r *LoginResult) Token() string { return r.token }

// ListResult lists files present in the repository.
type ListResult struct {
	ScmResult
	files []ScmFile
}

func NewListResult(base ScmResult, files []ScmFile) *ListResult {
	return &ListResult{ScmResult: base, files: slices.Clone(files)}
}

func (r *ListResult) Files() []ScmFile { return slices.Clone(r.files) }

// EditResult lists files opened or locked for editing.
type EditResult struct {
	ScmResult
	editFiles []ScmFile
}

func NewEditResult(base ScmResult, files []ScmFile) *EditResult {
	return &EditResult{ScmResult: base, editFiles: slices.Clone(files)}
}

func (r *EditResult) EditFiles() []ScmFile { return slices.Clone(r.editFiles) }

// UneditResult lists files whose edit or lock was released.
type UneditResult struct {
	ScmResult
	uneditFiles []ScmFile
}

func NewUneditResult(base ScmResult, files []ScmFile) *UneditResult {
	return &UneditResult{ScmResult: base, uneditFiles: slices.Clone(files)}
}

func (r *UneditResult) UneditFiles() []ScmFile { return slices.Clone(r.uneditFiles) }

// ExportResult lists files written without provider metadata.
type ExportResult struct {
	ScmResult
	exportedFiles []ScmFile
}

func NewExportResult(base ScmResult, files []ScmFile) *ExportResult {
	return &ExportResult{ScmResult: base, exportedFiles: slices.Clone(files)}
}

func (r *ExportResult) ExportedFiles() []ScmFile { return slices.Clone(r.exportedFiles) }

// BlameLine attributes one line of a file to the change that last touched it.
type BlameLine struct {
	Revision string    `yaml:"revision"`
	Author   string    `yaml:"author"`
	Date     time.Time `yaml:"date"`
}

// BlameResult carries one entry per line of the blamed file.
type BlameResult struct {
	ScmResult
	lines []BlameLine
}

func NewBlameResult(base ScmResult, lines []BlameLine) *BlameResult {
	return &BlameResult{ScmResult: base, lines: slices.Clone(lines)}
}

func (r *BlameResult) Lines() []BlameLine { return slices.Clone(r.lines) }

// InfoItem describes one path of the working copy.
type InfoItem struct {
	Path                string    `yaml:"path"`
	URL                 string    `yaml:"url,omitempty"`
	RepositoryRoot      string    `yaml:"repositoryRoot,omitempty"`
	Revision            string    `yaml:"revision"`
	Kind                string    `yaml:"kind,omitempty"`
	LastChangedAuthor   string    `yaml:"lastChangedAuthor,omitempty"`
	LastChangedRevision string    `yaml:"lastChangedRevision,omitempty"`
	LastChangedDate     time.Time `yaml:"lastChangedDate,omitempty"`
}

// InfoResult carries information about working copy paths.
type InfoResult struct {
	ScmResult
	items []InfoItem
}

func NewInfoResult(base ScmResult, items []InfoItem) *InfoResult {
	return &InfoResult{ScmResult: base, items: slices.Clone(items)}
}

func (r *InfoResult) Items() []InfoItem { return slices.Clone(r.items) }

// RemoteInfoResult maps the remote branch and tag names to their revisions.
type RemoteInfoResult struct {
	ScmResult
	branches map[string]string
	tags     map[string]string
}

func NewRemoteInfoResult(base ScmResult, branches, tags map[string]string) *RemoteInfoResult {
	return &RemoteInfoResult{ScmResult: base, branches: maps.Clone(branches), tags: maps.Clone(tags)}
}

func (r *RemoteInfoResult) Branches() map[string]string { return maps.Clone(r.branches) }
func (r *RemoteInfoResult) Tags() map[string]string     { return maps.Clone(r.tags) }

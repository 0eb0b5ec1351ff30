package hg

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
	"github.com/rios0rios0/scmforge/internal/process"
)

// diffPolicy accepts exit code 1, which hg diff and hg outgoing use for "nothing to show".
//
//nolint:gochecknoglobals // immutable policy
var diffPolicy = process.AcceptCodes(0, 1)

func descriptor(repoD entities.RepositoryDescriptor) (*Repository, error) {
	return entities.DescriptorAs[*Repository](repoD)
}

func (p *ProviderRepository) runWith(
	ctx context.Context,
	repo *Repository,
	dir string,
	policy process.ExitCodePolicy,
	sub string,
	args ...string,
) (*base.Execution, error) {
	cl := p.tool.Command(dir, sub, "--noninteractive").Arg(args...)
	cl.Mask(repo.Password)
	cl.SetEnv("HGPLAIN", "1")
	logger.Debugf("[%s] Running %s", providerName, cl)
	return p.tool.Run(ctx, cl, nil, policy)
}

func (p *ProviderRepository) run(
	ctx context.Context,
	repo *Repository,
	dir, sub string,
	args ...string,
) (*base.Execution, error) {
	return p.runWith(ctx, repo, dir, process.DefaultPolicy, sub, args...)
}

func (p *ProviderRepository) add(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	if err = base.RequireFiles(entities.CommandAdd, fileSet); err != nil {
		return nil, err
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "add", fileSet.RelativePaths()...)
	if err != nil || !exec.Success() {
		return failedAdd(exec, err)
	}
	added, err := p.run(ctx, repo, fileSet.BaseDir, "status", append([]string{"--added"}, fileSet.RelativePaths()...)...)
	if err != nil || !added.Success() {
		return failedAdd(added, err)
	}
	return entities.NewAddResult(exec.Result, parseStatus(added.Stdout, nil)), nil
}

func failedAdd(exec *base.Execution, err error) (entities.Result, error) {
	if err != nil {
		return nil, err
	}
	return entities.NewAddResult(exec.Result, nil), nil
}

func (p *ProviderRepository) remove(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	if err = base.RequireFiles(entities.CommandRemove, fileSet); err != nil {
		return nil, err
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "remove", fileSet.RelativePaths()...)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewRemoveResult(exec.Result, nil), nil
	}
	return entities.NewRemoveResult(exec.Result,
		base.FilesWithStatus(fileSet.RelativePaths(), entities.StatusDeleted)), nil
}

func (p *ProviderRepository) status(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "status", fileSet.RelativePaths()...)
	if err != nil {
		return nil, err
	}
	return entities.NewStatusResult(exec.Result, parseStatus(exec.Stdout, nil)), nil
}

func (p *ProviderRepository) checkIn(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	message, err := base.RequireMessage(params)
	if err != nil {
		return nil, err
	}
	messageFile, err := base.WriteMessageFile(message)
	if err != nil {
		return nil, err
	}
	defer os.Remove(messageFile)

	args := []string{"--verbose", "--logfile", messageFile}
	if repo.User != "" {
		args = append(args, "--user", repo.User)
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "commit", append(args, fileSet.RelativePaths()...)...)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewCheckInResult(exec.Result, nil, ""), nil
	}
	files, revision := parseCommitted(exec.Stdout)

	if repo.PushChanges {
		push, pushErr := p.push(ctx, repo, fileSet.BaseDir)
		if pushErr != nil {
			return nil, pushErr
		}
		if push != nil && !push.Success() {
			return entities.NewCheckInResult(push.Result, nil, revision), nil
		}
	}
	return entities.NewCheckInResult(exec.Result, files, revision), nil
}

// push sends local change sets when hg outgoing reports any; exit code 1 means none.
// A nil execution means there was nothing to push.
func (p *ProviderRepository) push(ctx context.Context, repo *Repository, dir string) (*base.Execution, error) {
	outgoing, err := p.runWith(ctx, repo, dir, diffPolicy, "outgoing", AuthenticatedURL(repo))
	if err != nil {
		return nil, err
	}
	if !outgoing.Success() {
		return outgoing, nil
	}
	if outgoing.ExitCode == 1 {
		logger.Debugf("[%s] Nothing to push to %s", providerName, repo)
		return nil, nil
	}
	return p.runWith(ctx, repo, dir, diffPolicy, "push", AuthenticatedURL(repo))
}

func (p *ProviderRepository) checkOut(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	version, err := params.GetVersionOr(entities.ParamScmVersion, nil)
	if err != nil {
		return nil, err
	}
	if err = fileSet.EnsureBaseDir(); err != nil {
		return nil, err
	}

	args := []string{AuthenticatedURL(repo), "."}
	if !entities.IsEmptyVersion(version) {
		args = append([]string{"--updaterev", version.Name()}, args...)
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "clone", args...)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewCheckOutResult(exec.Result, nil, "", ""), nil
	}
	manifest, err := p.run(ctx, repo, fileSet.BaseDir, "manifest")
	if err != nil {
		return nil, err
	}
	revision, err := p.identify(ctx, repo, fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	return entities.NewCheckOutResult(
		exec.Result,
		base.FilesWithStatus(splitLines(manifest.Stdout), entities.StatusCheckedOut),
		"",
		revision,
	), nil
}

// identify returns the node of the working directory parent.
func (p *ProviderRepository) identify(ctx context.Context, repo *Repository, dir string) (string, error) {
	exec, err := p.run(ctx, repo, dir, "identify", "--id", "--debug")
	if err != nil {
		return "", err
	}
	if !exec.Success() {
		return "", nil
	}
	return strings.TrimSuffix(strings.TrimSpace(exec.Stdout), "+"), nil
}

func (p *ProviderRepository) diff(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	start, err := params.GetVersionOr(entities.ParamStartScmVersion, nil)
	if err != nil {
		return nil, err
	}
	end, err := params.GetVersionOr(entities.ParamEndScmVersion, nil)
	if err != nil {
		return nil, err
	}
	ignoreWhitespace, err := params.GetBoolOr(entities.ParamIgnoreWhitespace, false)
	if err != nil {
		return nil, err
	}

	args := []string{"--git"}
	if ignoreWhitespace {
		args = append(args, "--ignore-all-space")
	}
	for _, v := range []entities.ScmVersion{start, end} {
		if !entities.IsEmptyVersion(v) {
			args = append(args, "--rev", v.Name())
		}
	}
	exec, err := p.runWith(ctx, repo, fileSet.BaseDir, diffPolicy, "diff", append(args, fileSet.RelativePaths()...)...)
	if err != nil {
		return nil, err
	}
	files, differences := base.ParseGitDiff(exec.Stdout)
	return entities.NewDiffResult(exec.Result, files, differences, exec.Stdout), nil
}

func (p *ProviderRepository) tag(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	name, err := params.GetString(entities.ParamTagName)
	if err != nil {
		return nil, err
	}
	tagParams, err := params.GetTagParameters(entities.ParamScmTagParameters)
	if err != nil {
		return nil, err
	}
	message := tagParams.Message
	if message == "" {
		message = "[scmforge] tag " + name
	}

	args := []string{"--message", message}
	if repo.User != "" {
		args = append(args, "--user", repo.User)
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "tag", append(args, name)...)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewTagResult(exec.Result, nil), nil
	}
	if repo.PushChanges {
		push, pushErr := p.push(ctx, repo, fileSet.BaseDir)
		if pushErr != nil {
			return nil, pushErr
		}
		if push != nil && !push.Success() {
			return entities.NewTagResult(push.Result, nil), nil
		}
	}
	manifest, err := p.run(ctx, repo, fileSet.BaseDir, "manifest", "--rev", name)
	if err != nil {
		return nil, err
	}
	return entities.NewTagResult(exec.Result,
		base.FilesWithStatus(splitLines(manifest.Stdout), entities.StatusTagged)), nil
}

func (p *ProviderRepository) branch(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	name, err := params.GetString(entities.ParamBranchName)
	if err != nil {
		return nil, err
	}
	branchParams, err := params.GetBranchParameters(entities.ParamScmBranchParameters)
	if err != nil {
		return nil, err
	}
	message := branchParams.Message
	if message == "" {
		message = "[scmforge] branch " + name
	}

	exec, err := p.run(ctx, repo, fileSet.BaseDir, "branch", name)
	if err != nil || !exec.Success() {
		return failedBranch(exec, err)
	}
	commit := []string{"--message", message}
	if repo.User != "" {
		commit = append(commit, "--user", repo.User)
	}
	exec, err = p.run(ctx, repo, fileSet.BaseDir, "commit", commit...)
	if err != nil || !exec.Success() {
		return failedBranch(exec, err)
	}
	if repo.PushChanges {
		push, pushErr := p.runWith(ctx, repo, fileSet.BaseDir, diffPolicy, "push", "--new-branch", AuthenticatedURL(repo))
		if pushErr != nil || !push.Success() {
			return failedBranch(push, pushErr)
		}
	}
	manifest, err := p.run(ctx, repo, fileSet.BaseDir, "manifest")
	if err != nil {
		return nil, err
	}
	return entities.NewBranchResult(exec.Result,
		base.FilesWithStatus(splitLines(manifest.Stdout), entities.StatusTagged)), nil
}

func failedBranch(exec *base.Execution, err error) (entities.Result, error) {
	if err != nil {
		return nil, err
	}
	return entities.NewBranchResult(exec.Result, nil), nil
}

func (p *ProviderRepository) update(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	version, err := params.GetVersionOr(entities.ParamScmVersion, nil)
	if err != nil {
		return nil, err
	}
	withChangeLog, err := params.GetBoolOr(entities.ParamRunChangeLogWithUpdate, false)
	if err != nil {
		return nil, err
	}

	before, err := p.identify(ctx, repo, fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "pull", AuthenticatedURL(repo))
	if err != nil || !exec.Success() {
		return failedUpdate(exec, err)
	}
	args := []string{}
	if !entities.IsEmptyVersion(version) {
		args = append(args, "--rev", version.Name())
	}
	exec, err = p.run(ctx, repo, fileSet.BaseDir, "update", args...)
	if err != nil || !exec.Success() {
		return failedUpdate(exec, err)
	}
	after, err := p.identify(ctx, repo, fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	if before == "" || before == after {
		return entities.NewUpdateResult(exec.Result, nil, nil), nil
	}

	changed, err := p.run(ctx, repo, fileSet.BaseDir, "status", "--rev", before, "--rev", after)
	if err != nil {
		return nil, err
	}
	files := parseStatus(changed.Stdout, nil)
	for i := range files {
		if files[i].Status == entities.StatusModified {
			files[i].Status = entities.StatusUpdated
		}
	}

	var changes []entities.ChangeSet
	if withChangeLog {
		log, logErr := p.run(ctx, repo, fileSet.BaseDir,
			"log", "--template", logTemplate, "--rev", before+"::"+after+" - "+before)
		if logErr != nil {
			return nil, logErr
		}
		changes = parseLog(log.Stdout)
	}
	return entities.NewUpdateResult(exec.Result, files, changes), nil
}

func failedUpdate(exec *base.Execution, err error) (entities.Result, error) {
	if err != nil {
		return nil, err
	}
	return entities.NewUpdateResult(exec.Result, nil, nil), nil
}

func (p *ProviderRepository) changeLog(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	start, err := params.GetDateOr(entities.ParamStartDate, time.Time{})
	if err != nil {
		return nil, err
	}
	end, err := params.GetDateOr(entities.ParamEndDate, time.Time{})
	if err != nil {
		return nil, err
	}
	limit, err := params.GetIntOr(entities.ParamNumChangeSets, 0)
	if err != nil {
		return nil, err
	}
	startVersion, err := params.GetVersionOr(entities.ParamStartScmVersion, nil)
	if err != nil {
		return nil, err
	}
	endVersion, err := params.GetVersionOr(entities.ParamEndScmVersion, nil)
	if err != nil {
		return nil, err
	}

	args := []string{"--template", logTemplate}
	if dates := dateRange(start, end); dates != "" {
		args = append(args, "--date", dates)
	}
	if limit > 0 {
		args = append(args, "--limit", strconv.Itoa(limit))
	}
	if !entities.IsEmptyVersion(startVersion) || !entities.IsEmptyVersion(endVersion) {
		from, to := "0", "tip"
		if !entities.IsEmptyVersion(startVersion) {
			from = startVersion.Name()
		}
		if !entities.IsEmptyVersion(endVersion) {
			to = endVersion.Name()
		}
		args = append(args, "--rev", to+":"+from)
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "log", append(args, fileSet.RelativePaths()...)...)
	if err != nil {
		return nil, err
	}
	changeLog := &entities.ChangeLogSet{
		ChangeSets: parseLog(exec.Stdout), StartDate: start, EndDate: end,
		StartVersion: startVersion, EndVersion: endVersion,
	}
	return entities.NewChangeLogResult(exec.Result, changeLog), nil
}

// dateRange renders an hg --date specification. Open bounds use the ">" and "<" forms.
func dateRange(start, end time.Time) string {
	const layout = "2006-01-02 15:04:05 -0000"
	switch {
	case !start.IsZero() && !end.IsZero():
		return start.UTC().Format(layout) + " to " + end.UTC().Format(layout)
	case !start.IsZero():
		return ">" + start.UTC().Format(layout)
	case !end.IsZero():
		return "<" + end.UTC().Format(layout)
	default:
		return ""
	}
}

func (p *ProviderRepository) list(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	version, err := params.GetVersionOr(entities.ParamScmVersion, nil)
	if err != nil {
		return nil, err
	}
	args := []string{}
	if !entities.IsEmptyVersion(version) {
		args = append(args, "--rev", version.Name())
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "manifest", args...)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, path := range splitLines(exec.Stdout) {
		if selected(path, fileSet) {
			paths = append(paths, path)
		}
	}
	return entities.NewListResult(exec.Result, base.FilesWithStatus(paths, entities.StatusCheckedIn)), nil
}

func selected(path string, fileSet entities.FileSet) bool {
	if fileSet.IsEmpty() {
		return true
	}
	for _, f := range fileSet.RelativePaths() {
		if path == f || strings.HasPrefix(path, strings.TrimSuffix(f, "/")+"/") {
			return true
		}
	}
	return false
}

func (p *ProviderRepository) blame(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	file, err := params.GetString(entities.ParamFile)
	if err != nil {
		return nil, err
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "annotate", "--template", blameTemplate, file)
	if err != nil {
		return nil, err
	}
	return entities.NewBlameResult(exec.Result, parseBlame(exec.Stdout)), nil
}

func (p *ProviderRepository) info(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	paths := fileSet.RelativePaths()
	if fileSet.IsEmpty() {
		paths = []string{"."}
	}

	var items []entities.InfoItem
	var last *base.Execution
	for _, path := range paths {
		exec, runErr := p.run(ctx, repo, fileSet.BaseDir, "log", "--limit", "1", "--template", logTemplate, path)
		if runErr != nil {
			return nil, runErr
		}
		last = exec
		if !exec.Success() {
			return entities.NewInfoResult(exec.Result, nil), nil
		}
		item := entities.InfoItem{Path: path, URL: repo.URL}
		if sets := parseLog(exec.Stdout); len(sets) > 0 {
			item.Revision = sets[0].Revision
			item.LastChangedRevision = sets[0].Revision
			item.LastChangedAuthor = sets[0].Author
			item.LastChangedDate = sets[0].Date
		}
		items = append(items, item)
	}
	return entities.NewInfoResult(last.Result, items), nil
}

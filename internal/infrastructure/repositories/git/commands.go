package git

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
	"github.com/rios0rios0/scmforge/internal/process"
)

// run executes git in dir with the default exit-code policy.
func (p *ProviderRepository) run(
	ctx context.Context,
	repo *Repository,
	dir string,
	args ...string,
) (*base.Execution, error) {
	cl := p.tool.Command(dir, args...)
	cl.Mask(repo.Password)
	if repo.PrivateKey != "" {
		cl.SetEnv("GIT_SSH_COMMAND", "ssh -i "+repo.PrivateKey+" -o IdentitiesOnly=yes")
	}
	cl.SetEnv("TZ", "UTC")
	logger.Debugf("[%s] Running %s", providerName, cl)
	return p.tool.Run(ctx, cl, nil, process.DefaultPolicy)
}

// runAll executes each command in order and stops at the first failed run.
func (p *ProviderRepository) runAll(
	ctx context.Context,
	repo *Repository,
	dir string,
	commands ...[]string,
) (*base.Execution, error) {
	var exec *base.Execution
	var err error
	for _, args := range commands {
		if exec, err = p.run(ctx, repo, dir, args...); err != nil || !exec.Success() {
			return exec, err
		}
	}
	return exec, nil
}

func descriptor(repoD entities.RepositoryDescriptor) (*Repository, error) {
	return entities.DescriptorAs[*Repository](repoD)
}

func pathArgs(fileSet entities.FileSet) []string {
	if fileSet.IsEmpty() {
		return nil
	}
	return append([]string{"--"}, fileSet.RelativePaths()...)
}

func (p *ProviderRepository) add(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	if err = base.RequireFiles(entities.CommandAdd, fileSet); err != nil {
		return nil, err
	}
	force, err := params.GetBoolOr(entities.ParamForceAdd, false)
	if err != nil {
		return nil, err
	}

	args := []string{"add"}
	if force {
		args = append(args, "--force")
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, append(args, pathArgs(fileSet)...)...)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewAddResult(exec.Result, nil), nil
	}

	status, err := p.run(ctx, repo, fileSet.BaseDir, append([]string{"status", "--porcelain"}, pathArgs(fileSet)...)...)
	if err != nil {
		return nil, err
	}
	var added []entities.ScmFile
	for _, f := range parsePorcelainStatus(status.Stdout) {
		if f.Status == entities.StatusAdded {
			added = append(added, f)
		}
	}
	return entities.NewAddResult(exec.Result, added), nil
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
	exec, err := p.run(ctx, repo, fileSet.BaseDir, append([]string{"rm", "-r"}, pathArgs(fileSet)...)...)
	if err != nil {
		return nil, err
	}
	return entities.NewRemoveResult(exec.Result, parseRemoved(exec.Stdout)), nil
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
	exec, err := p.run(ctx, repo, fileSet.BaseDir, append([]string{"status", "--porcelain"}, pathArgs(fileSet)...)...)
	if err != nil {
		return nil, err
	}
	return entities.NewStatusResult(exec.Result, parsePorcelainStatus(exec.Stdout)), nil
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

	stage := []string{"add", "--all"}
	if !fileSet.IsEmpty() {
		stage = append([]string{"add"}, pathArgs(fileSet)...)
	}
	exec, err := p.runAll(ctx, repo, fileSet.BaseDir, stage)
	if err != nil || !exec.Success() {
		return failedCheckIn(exec, err)
	}
	staged, err := p.run(ctx, repo, fileSet.BaseDir, "diff", "--cached", "--name-status")
	if err != nil || !staged.Success() {
		return failedCheckIn(staged, err)
	}
	checkedIn := entities.StatusCheckedIn
	files := parseNameStatus(staged.Stdout, &checkedIn)

	commit := []string{"commit", "--verbose", "-F", messageFile}
	exec, err = p.run(ctx, repo, fileSet.BaseDir, commit...)
	if err != nil || !exec.Success() {
		return failedCheckIn(exec, err)
	}
	revision, err := p.revision(ctx, repo, fileSet.BaseDir)
	if err != nil {
		return nil, err
	}

	if repo.PushChanges {
		branch, branchErr := p.currentBranch(ctx, repo, fileSet.BaseDir)
		if branchErr != nil {
			return nil, branchErr
		}
		ref := "refs/heads/" + branch
		push, pushErr := p.run(ctx, repo, fileSet.BaseDir, "push", AuthenticatedURL(repo, repo.PushURL), ref+":"+ref)
		if pushErr != nil {
			return nil, pushErr
		}
		if !push.Success() {
			return entities.NewCheckInResult(push.Result, nil, revision), nil
		}
	}
	return entities.NewCheckInResult(exec.Result, files, revision), nil
}

func failedCheckIn(exec *base.Execution, err error) (entities.Result, error) {
	if err != nil {
		return nil, err
	}
	return entities.NewCheckInResult(exec.Result, nil, ""), nil
}

func (p *ProviderRepository) revision(ctx context.Context, repo *Repository, dir string) (string, error) {
	exec, err := p.run(ctx, repo, dir, "rev-parse", "--verify", "HEAD")
	if err != nil {
		return "", err
	}
	if !exec.Success() {
		return "", nil
	}
	return strings.TrimSpace(exec.Stdout), nil
}

func (p *ProviderRepository) currentBranch(ctx context.Context, repo *Repository, dir string) (string, error) {
	exec, err := p.run(ctx, repo, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(exec.Stdout), nil
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
	shallow, err := params.GetBoolOr(entities.ParamShallow, false)
	if err != nil {
		return nil, err
	}

	var exec *base.Execution
	if _, statErr := os.Stat(filepath.Join(fileSet.BaseDir, metadataDir)); statErr != nil {
		if err = fileSet.EnsureBaseDir(); err != nil {
			return nil, err
		}
		clone := []string{"clone"}
		if shallow {
			clone = append(clone, "--depth", "1")
		}
		if !entities.IsEmptyVersion(version) && version.Type() != entities.VersionTypeRevision {
			clone = append(clone, "--branch", version.Name())
		}
		clone = append(clone, AuthenticatedURL(repo, repo.FetchURL), ".")
		exec, err = p.run(ctx, repo, fileSet.BaseDir, clone...)
	} else {
		exec, err = p.run(ctx, repo, fileSet.BaseDir, "fetch", AuthenticatedURL(repo, repo.FetchURL))
	}
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewCheckOutResult(exec.Result, nil, "", ""), nil
	}
	if !entities.IsEmptyVersion(version) && version.Type() == entities.VersionTypeRevision {
		if exec, err = p.run(ctx, repo, fileSet.BaseDir, "checkout", version.Name()); err != nil {
			return nil, err
		}
		if !exec.Success() {
			return entities.NewCheckOutResult(exec.Result, nil, "", ""), nil
		}
	}

	listing, err := p.run(ctx, repo, fileSet.BaseDir, "ls-files")
	if err != nil {
		return nil, err
	}
	revision, err := p.revision(ctx, repo, fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	return entities.NewCheckOutResult(
		exec.Result,
		base.FilesWithStatus(splitLines(listing.Stdout), entities.StatusCheckedOut),
		"",
		revision,
	), nil
}

// export makes a shallow clone of the requested version and strips its metadata.
func (p *ProviderRepository) export(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	target, err := params.GetStringOr(entities.ParamOutputDirectory, fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	version, err := params.GetVersionOr(entities.ParamScmVersion, nil)
	if err != nil {
		return nil, err
	}
	if mkErr := os.MkdirAll(target, 0o755); mkErr != nil {
		return nil, entities.NewScmError("prepare export directory", mkErr)
	}

	clone := []string{"clone", "--depth", "1"}
	if !entities.IsEmptyVersion(version) && version.Type() != entities.VersionTypeRevision {
		clone = append(clone, "--branch", version.Name())
	}
	exec, err := p.run(ctx, repo, target, append(clone, AuthenticatedURL(repo, repo.FetchURL), ".")...)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewExportResult(exec.Result, nil), nil
	}
	listing, err := p.run(ctx, repo, target, "ls-files")
	if err != nil {
		return nil, err
	}
	if rmErr := os.RemoveAll(filepath.Join(target, metadataDir)); rmErr != nil {
		return nil, entities.NewScmError("export", rmErr)
	}
	return entities.NewExportResult(
		exec.Result,
		base.FilesWithStatus(splitLines(listing.Stdout), entities.StatusCheckedOut),
	), nil
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

	args := []string{"diff", "--no-color"}
	if ignoreWhitespace {
		args = append(args, "--ignore-all-space")
	}
	if !entities.IsEmptyVersion(start) {
		args = append(args, start.Name())
		if !entities.IsEmptyVersion(end) {
			args = append(args, end.Name())
		}
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, append(args, pathArgs(fileSet)...)...)
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
		message, _ = params.GetStringOr(entities.ParamMessage, "scmforge tag "+name)
	}
	messageFile, err := base.WriteMessageFile(message)
	if err != nil {
		return nil, err
	}
	defer os.Remove(messageFile)

	commands := [][]string{{"tag", "-F", messageFile, name}}
	if repo.PushChanges {
		commands = append(commands, []string{"push", AuthenticatedURL(repo, repo.PushURL), "refs/tags/" + name})
	}
	exec, err := p.runAll(ctx, repo, fileSet.BaseDir, commands...)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewTagResult(exec.Result, nil), nil
	}
	listing, err := p.run(ctx, repo, fileSet.BaseDir, "ls-files")
	if err != nil {
		return nil, err
	}
	return entities.NewTagResult(exec.Result, base.FilesWithStatus(splitLines(listing.Stdout), entities.StatusTagged)), nil
}

func (p *ProviderRepository) untag(
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
	commands := [][]string{{"tag", "-d", name}}
	if repo.PushChanges {
		commands = append(commands, []string{"push", AuthenticatedURL(repo, repo.PushURL), ":refs/tags/" + name})
	}
	exec, err := p.runAll(ctx, repo, fileSet.BaseDir, commands...)
	if err != nil {
		return nil, err
	}
	return entities.NewUntagResult(exec.Result), nil
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
	commands := [][]string{{"branch", name}}
	if repo.PushChanges {
		ref := "refs/heads/" + name
		commands = append(commands, []string{"push", AuthenticatedURL(repo, repo.PushURL), ref + ":" + ref})
	}
	exec, err := p.runAll(ctx, repo, fileSet.BaseDir, commands...)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewBranchResult(exec.Result, nil), nil
	}
	listing, err := p.run(ctx, repo, fileSet.BaseDir, "ls-files")
	if err != nil {
		return nil, err
	}
	return entities.NewBranchResult(exec.Result, base.FilesWithStatus(splitLines(listing.Stdout), entities.StatusTagged)), nil
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

	before, err := p.revision(ctx, repo, fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	pull := []string{"pull", AuthenticatedURL(repo, repo.FetchURL)}
	if !entities.IsEmptyVersion(version) {
		pull = append(pull, version.Name())
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, pull...)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewUpdateResult(exec.Result, nil, nil), nil
	}
	after, err := p.revision(ctx, repo, fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	if before == "" || before == after {
		return entities.NewUpdateResult(exec.Result, nil, nil), nil
	}

	changed, err := p.run(ctx, repo, fileSet.BaseDir, "diff", "--name-status", before, after)
	if err != nil {
		return nil, err
	}
	updated := entities.StatusUpdated
	files := parseNameStatus(changed.Stdout, &updated)

	var changes []entities.ChangeSet
	if withChangeLog {
		log, logErr := p.run(ctx, repo, fileSet.BaseDir,
			"log", "--pretty=format:"+logFormat, "--date="+logDateFormat, "--name-status", before+".."+after)
		if logErr != nil {
			return nil, logErr
		}
		changes = parseLog(log.Stdout)
	}
	return entities.NewUpdateResult(exec.Result, files, changes), nil
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
	args, changeLog, err := changeLogArgs(params)
	if err != nil {
		return nil, err
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, append(args, pathArgs(fileSet)...)...)
	if err != nil {
		return nil, err
	}
	if exec.Success() {
		changeLog.ChangeSets = parseLog(exec.Stdout)
	}
	return entities.NewChangeLogResult(exec.Result, changeLog), nil
}

func changeLogArgs(params *entities.CommandParameters) ([]string, *entities.ChangeLogSet, error) {
	start, err := params.GetDateOr(entities.ParamStartDate, time.Time{})
	if err != nil {
		return nil, nil, err
	}
	end, err := params.GetDateOr(entities.ParamEndDate, time.Time{})
	if err != nil {
		return nil, nil, err
	}
	limit, err := params.GetIntOr(entities.ParamNumChangeSets, 0)
	if err != nil {
		return nil, nil, err
	}
	startVersion, err := params.GetVersionOr(entities.ParamStartScmVersion, nil)
	if err != nil {
		return nil, nil, err
	}
	endVersion, err := params.GetVersionOr(entities.ParamEndScmVersion, nil)
	if err != nil {
		return nil, nil, err
	}

	args := []string{"log", "--pretty=format:" + logFormat, "--date=" + logDateFormat, "--name-status"}
	if !start.IsZero() {
		args = append(args, "--since="+entities.FormatTimestamp(start))
	}
	if !end.IsZero() {
		args = append(args, "--until="+entities.FormatTimestamp(end))
	}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}
	switch {
	case !entities.IsEmptyVersion(startVersion) && !entities.IsEmptyVersion(endVersion):
		args = append(args, startVersion.Name()+".."+endVersion.Name())
	case !entities.IsEmptyVersion(startVersion):
		args = append(args, startVersion.Name()+"..")
	case !entities.IsEmptyVersion(endVersion):
		args = append(args, endVersion.Name())
	}
	return args, &entities.ChangeLogSet{
		StartDate: start, EndDate: end, StartVersion: startVersion, EndVersion: endVersion,
	}, nil
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
	recursive, err := params.GetBoolOr(entities.ParamRecursive, true)
	if err != nil {
		return nil, err
	}
	treeish := "HEAD"
	if !entities.IsEmptyVersion(version) {
		treeish = version.Name()
	}
	args := []string{"ls-tree", "--name-only"}
	if recursive {
		args = append(args, "-r")
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, append(append(args, treeish), pathArgs(fileSet)...)...)
	if err != nil {
		return nil, err
	}
	return entities.NewListResult(exec.Result, base.FilesWithStatus(splitLines(exec.Stdout), entities.StatusCheckedIn)), nil
}

func (p *ProviderRepository) remoteInfo(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "ls-remote", AuthenticatedURL(repo, repo.FetchURL))
	if err != nil {
		return nil, err
	}
	branches, tags := parseLsRemote(exec.Stdout)
	return entities.NewRemoteInfoResult(exec.Result, branches, tags), nil
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
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "blame", "--line-porcelain", "--", file)
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
	paths := fileSet.Files
	if fileSet.IsEmpty() {
		paths = []string{"."}
	}

	var items []entities.InfoItem
	var last *base.Execution
	for _, path := range paths {
		exec, runErr := p.run(ctx, repo, fileSet.BaseDir,
			"log", "-1", "--pretty=format:"+logFormat, "--date="+logDateFormat, "--", path)
		if runErr != nil {
			return nil, runErr
		}
		last = exec
		if !exec.Success() {
			return entities.NewInfoResult(exec.Result, nil), nil
		}
		item := entities.InfoItem{Path: path, URL: repo.FetchURL}
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

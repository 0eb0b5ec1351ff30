package svn

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
)

//nolint:gochecknoglobals // closed lookup tables
var (
	addCodes      = map[byte]entities.ScmFileStatus{'A': entities.StatusAdded}
	deleteCodes   = map[byte]entities.ScmFileStatus{'D': entities.StatusDeleted}
	checkOutCodes = map[byte]entities.ScmFileStatus{'A': entities.StatusCheckedOut, 'U': entities.StatusCheckedOut}
	updateCodes   = map[byte]entities.ScmFileStatus{
		'A': entities.StatusAdded,
		'D': entities.StatusDeleted,
		'U': entities.StatusUpdated,
		'G': entities.StatusPatched,
		'C': entities.StatusConflict,
	}
)

func descriptor(repoD entities.RepositoryDescriptor) (*Repository, error) {
	return entities.DescriptorAs[*Repository](repoD)
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
	cl := p.command(repo, fileSet.BaseDir, "add", "--parents")
	if force {
		cl.Arg("--force")
	}
	exec, err := p.run(ctx, cl.Arg(fileSet.RelativePaths()...))
	if err != nil {
		return nil, err
	}
	return entities.NewAddResult(exec.Result, parseUpdateLines(exec.Stdout, "", addCodes)), nil
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
	exec, err := p.run(ctx, p.command(repo, fileSet.BaseDir, "delete", fileSet.RelativePaths()...))
	if err != nil {
		return nil, err
	}
	return entities.NewRemoveResult(exec.Result, parseUpdateLines(exec.Stdout, "", deleteCodes)), nil
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

	cl := p.command(repo, fileSet.BaseDir, "commit", "--file", messageFile)
	exec, err := p.run(ctx, cl.Arg(fileSet.RelativePaths()...))
	if err != nil {
		return nil, err
	}
	return entities.NewCheckInResult(exec.Result, parseCommitLines(exec.Stdout), parseRevision(exec.Stdout)), nil
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
	recursive, err := params.GetBoolOr(entities.ParamRecursive, true)
	if err != nil {
		return nil, err
	}
	if err = fileSet.EnsureBaseDir(); err != nil {
		return nil, err
	}

	cl := p.command(repo, fileSet.BaseDir, "checkout")
	if !recursive {
		cl.Arg("--depth", "files")
	}
	exec, err := p.run(ctx, cl.Arg(repo.VersionURL(version), "."))
	if err != nil {
		return nil, err
	}
	return entities.NewCheckOutResult(
		exec.Result,
		parseUpdateLines(exec.Stdout, fileSet.BaseDir, checkOutCodes),
		"",
		parseRevision(exec.Stdout),
	), nil
}

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
	version, err := params.GetVersionOr(entities.ParamScmVersion, nil)
	if err != nil {
		return nil, err
	}
	target, err := params.GetStringOr(entities.ParamOutputDirectory, fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	exec, err := p.run(ctx, p.command(repo, fileSet.BaseDir, "export", "--force", repo.VersionURL(version), target))
	if err != nil {
		return nil, err
	}
	return entities.NewExportResult(exec.Result, parseUpdateLines(exec.Stdout, target, checkOutCodes)), nil
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

	cl := p.command(repo, fileSet.BaseDir, "diff")
	if ignoreWhitespace {
		cl.Arg("-x", "-w")
	}
	if !entities.IsEmptyVersion(start) {
		revisions := start.Name()
		if !entities.IsEmptyVersion(end) {
			revisions += ":" + end.Name()
		}
		cl.Arg("-r", revisions)
	}
	exec, err := p.run(ctx, cl.Arg(fileSet.RelativePaths()...))
	if err != nil {
		return nil, err
	}
	files, differences := parseDiff(exec.Stdout)
	return entities.NewDiffResult(exec.Result, files, differences, exec.Stdout), nil
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
	var files []entities.ScmFile
	exec, err := p.runXML(ctx, p.command(repo, fileSet.BaseDir, "status", fileSet.RelativePaths()...), statusConsumer(&files))
	if err != nil {
		return nil, err
	}
	return entities.NewStatusResult(exec.Result, files), nil
}

// copyTo creates a tag or branch by copying the working copy to target.
func (p *ProviderRepository) copyTo(
	ctx context.Context,
	repo *Repository,
	fileSet entities.FileSet,
	target, message string,
	status entities.ScmFileStatus,
) (*base.Execution, []entities.ScmFile, error) {
	messageFile, err := base.WriteMessageFile(message)
	if err != nil {
		return nil, nil, err
	}
	defer os.Remove(messageFile)

	exec, err := p.run(ctx, p.command(repo, fileSet.BaseDir, "copy", "--parents", "--file", messageFile, ".", target))
	if err != nil || !exec.Success() {
		return exec, nil, err
	}
	var files []entities.ScmFile
	listing, err := p.runXML(ctx, p.command(repo, fileSet.BaseDir, "list", "--recursive", target), listConsumer(&files, status))
	if err != nil {
		return nil, nil, err
	}
	if !listing.Success() {
		return exec, nil, nil
	}
	return exec, files, nil
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
		message = "[scmforge] copy for tag " + name
	}
	exec, files, err := p.copyTo(ctx, repo, fileSet, repo.TagURL(name), message, entities.StatusTagged)
	if err != nil {
		return nil, err
	}
	return entities.NewTagResult(exec.Result, files), nil
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
		message = "[scmforge] copy for branch " + name
	}
	exec, files, err := p.copyTo(ctx, repo, fileSet, repo.BranchURL(name), message, entities.StatusTagged)
	if err != nil {
		return nil, err
	}
	return entities.NewBranchResult(exec.Result, files), nil
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

	var before string
	if withChangeLog {
		items, infoExec, infoErr := p.infoItems(ctx, repo, fileSet.BaseDir, []string{"."})
		if infoErr != nil {
			return nil, infoErr
		}
		if infoExec.Success() && len(items) > 0 {
			before = items[0].Revision
		}
	}

	cl := p.command(repo, fileSet.BaseDir, "update")
	if !entities.IsEmptyVersion(version) && version.Type() == entities.VersionTypeRevision {
		cl.Arg("-r", version.Name())
	}
	exec, err := p.run(ctx, cl.Arg(fileSet.RelativePaths()...))
	if err != nil {
		return nil, err
	}
	files := parseUpdateLines(exec.Stdout, fileSet.BaseDir, updateCodes)
	if !exec.Success() || before == "" {
		return entities.NewUpdateResult(exec.Result, files, nil), nil
	}

	after := parseRevision(exec.Stdout)
	from, fromErr := strconv.Atoi(before)
	to, toErr := strconv.Atoi(after)
	if fromErr != nil || toErr != nil || to <= from {
		return entities.NewUpdateResult(exec.Result, files, nil), nil
	}
	var changes []entities.ChangeSet
	if _, err = p.runXML(ctx, p.command(repo, fileSet.BaseDir, "log", "-v", "-r",
		strconv.Itoa(from+1)+":"+after, repo.URL), logConsumer(&changes)); err != nil {
		return nil, err
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

	cl := p.command(repo, fileSet.BaseDir, "log", "-v")
	if revisions := revisionRange(start, end, startVersion, endVersion); revisions != "" {
		cl.Arg("-r", revisions)
	}
	if limit > 0 {
		cl.Arg("--limit", strconv.Itoa(limit))
	}
	var sets []entities.ChangeSet
	exec, err := p.runXML(ctx, cl.Arg(repo.URL), logConsumer(&sets))
	if err != nil {
		return nil, err
	}
	changeLog := &entities.ChangeLogSet{
		ChangeSets: sets, StartDate: start, EndDate: end, StartVersion: startVersion, EndVersion: endVersion,
	}
	return entities.NewChangeLogResult(exec.Result, changeLog), nil
}

// revisionRange renders an svn -r argument. Versions win over dates; the default newest
// first order of svn log is kept when no bound is given.
func revisionRange(start, end time.Time, startVersion, endVersion entities.ScmVersion) string {
	from, to := "", ""
	switch {
	case !entities.IsEmptyVersion(startVersion):
		from = startVersion.Name()
	case !start.IsZero():
		from = "{" + start.UTC().Format(time.RFC3339) + "}"
	}
	switch {
	case !entities.IsEmptyVersion(endVersion):
		to = endVersion.Name()
	case !end.IsZero():
		to = "{" + end.UTC().Format(time.RFC3339) + "}"
	}
	switch {
	case from == "" && to == "":
		return ""
	case from == "":
		return to + ":1"
	case to == "":
		return "HEAD:" + from
	default:
		return to + ":" + from
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
	recursive, err := params.GetBoolOr(entities.ParamRecursive, true)
	if err != nil {
		return nil, err
	}

	cl := p.command(repo, fileSet.BaseDir, "list")
	if recursive {
		cl.Arg("--recursive")
	}
	target := repo.VersionURL(version)
	targets := []string{target}
	if !fileSet.IsEmpty() {
		targets = targets[:0]
		for _, f := range fileSet.Files {
			targets = append(targets, target+"/"+f)
		}
	}
	var files []entities.ScmFile
	exec, err := p.runXML(ctx, cl.Arg(targets...), listConsumer(&files, entities.StatusCheckedIn))
	if err != nil {
		return nil, err
	}
	return entities.NewListResult(exec.Result, files), nil
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
	var lines []entities.BlameLine
	exec, err := p.runXML(ctx, p.command(repo, fileSet.BaseDir, "blame", file), blameConsumer(&lines))
	if err != nil {
		return nil, err
	}
	return entities.NewBlameResult(exec.Result, lines), nil
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
	items, exec, err := p.infoItems(ctx, repo, fileSet.BaseDir, fileSet.RelativePaths())
	if err != nil {
		return nil, err
	}
	return entities.NewInfoResult(exec.Result, items), nil
}

func (p *ProviderRepository) infoItems(
	ctx context.Context,
	repo *Repository,
	dir string,
	paths []string,
) ([]entities.InfoItem, *base.Execution, error) {
	var items []entities.InfoItem
	exec, err := p.runXML(ctx, p.command(repo, dir, "info", paths...), infoConsumer(&items))
	if err != nil {
		return nil, nil, err
	}
	return items, exec, nil
}

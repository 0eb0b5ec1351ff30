package bazaar

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

// diffPolicy accepts exit code 1, which bzr diff uses when the trees differ.
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
	cl := p.tool.Command(dir, sub).Arg(args...)
	cl.Mask(repo.Password)
	cl.SetEnv("BZR_PROGRESS_BAR", "none")
	logger.Debugf("[%s] Running %s", providerName, cl)
	return p.tool.Run(ctx, cl, nil, policy)
}

func (p *ProviderRepository) run(ctx context.Context, repo *Repository, dir, sub string, args ...string) (*base.Execution, error) {
	return p.runWith(ctx, repo, dir, process.DefaultPolicy, sub, args...)
}

// output joins both streams; bzr reports most progress on stderr.
func output(exec *base.Execution) string {
	return exec.Stdout + "\n" + exec.Stderr
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
	if err != nil {
		return nil, err
	}
	return entities.NewAddResult(exec.Result,
		parseVerbLines(output(exec), map[string]entities.ScmFileStatus{"adding": entities.StatusAdded})), nil
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
	return entities.NewRemoveResult(exec.Result,
		parseVerbLines(output(exec), map[string]entities.ScmFileStatus{"deleted": entities.StatusDeleted})), nil
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
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "status", append([]string{"--short"}, fileSet.RelativePaths()...)...)
	if err != nil {
		return nil, err
	}
	return entities.NewStatusResult(exec.Result, parseShortStatus(exec.Stdout, entities.StatusModified)), nil
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

	args := []string{"--file", messageFile}
	if repo.User != "" {
		args = append(args, "--author", repo.User)
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "commit", append(args, fileSet.RelativePaths()...)...)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewCheckInResult(exec.Result, nil, ""), nil
	}
	files := parseVerbLines(output(exec), map[string]entities.ScmFileStatus{
		"added":    entities.StatusCheckedIn,
		"modified": entities.StatusCheckedIn,
		"deleted":  entities.StatusCheckedIn,
		"renamed":  entities.StatusCheckedIn,
	})
	return entities.NewCheckInResult(exec.Result, files, parseRevision(output(exec))), nil
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

	args := []string{}
	if !entities.IsEmptyVersion(version) {
		args = append(args, "--revision", revisionSpec(version))
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "checkout", append(args, repo.URL, ".")...)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewCheckOutResult(exec.Result, nil, "", ""), nil
	}
	files, err := p.versionedFiles(ctx, repo, fileSet.BaseDir, entities.StatusCheckedOut)
	if err != nil {
		return nil, err
	}
	revno, err := p.run(ctx, repo, fileSet.BaseDir, "revno")
	if err != nil {
		return nil, err
	}
	return entities.NewCheckOutResult(exec.Result, files, "", strings.TrimSpace(revno.Stdout)), nil
}

// revisionSpec renders a version in bzr revision-spec syntax.
func revisionSpec(version entities.ScmVersion) string {
	switch version.Type() {
	case entities.VersionTypeTag:
		return "tag:" + version.Name()
	case entities.VersionTypeBranch:
		return "branch:" + version.Name()
	default:
		return version.Name()
	}
}

func (p *ProviderRepository) versionedFiles(
	ctx context.Context,
	repo *Repository,
	dir string,
	status entities.ScmFileStatus,
) ([]entities.ScmFile, error) {
	exec, err := p.run(ctx, repo, dir, "ls", "--recursive", "--versioned", "--kind=file")
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return nil, nil
	}
	return base.FilesWithStatus(splitLines(exec.Stdout), status), nil
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

	args := []string{}
	if !entities.IsEmptyVersion(start) {
		spec := revisionSpec(start) + ".."
		if !entities.IsEmptyVersion(end) {
			spec += revisionSpec(end)
		}
		args = append(args, "--revision", spec)
	}
	exec, err := p.runWith(ctx, repo, fileSet.BaseDir, diffPolicy, "diff", append(args, fileSet.RelativePaths()...)...)
	if err != nil {
		return nil, err
	}
	files, differences := parseDiff(exec.Stdout)
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
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "tag", name)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewTagResult(exec.Result, nil), nil
	}
	files, err := p.versionedFiles(ctx, repo, fileSet.BaseDir, entities.StatusTagged)
	if err != nil {
		return nil, err
	}
	return entities.NewTagResult(exec.Result, files), nil
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
	withChangeLog, err := params.GetBoolOr(entities.ParamRunChangeLogWithUpdate, false)
	if err != nil {
		return nil, err
	}

	before, err := p.run(ctx, repo, fileSet.BaseDir, "revno")
	if err != nil {
		return nil, err
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "update")
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewUpdateResult(exec.Result, nil, nil), nil
	}
	files := parseShortStatus(output(exec), entities.StatusUpdated)

	var changes []entities.ChangeSet
	from, fromErr := strconv.Atoi(strings.TrimSpace(before.Stdout))
	to, toErr := strconv.Atoi(parseRevision(output(exec)))
	if withChangeLog && fromErr == nil && toErr == nil && to > from {
		log, logErr := p.run(ctx, repo, fileSet.BaseDir, "log", "--verbose", "--timezone", "utc",
			"--revision", strconv.Itoa(from+1)+".."+strconv.Itoa(to))
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

	args := []string{"--verbose", "--timezone", "utc"}
	if spec := rangeSpec(start, end, startVersion, endVersion); spec != "" {
		args = append(args, "--revision", spec)
	}
	if limit > 0 {
		args = append(args, "--limit", strconv.Itoa(limit))
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

// rangeSpec renders "<from>..<to>"; versions win over dates and either side may be open.
func rangeSpec(start, end time.Time, startVersion, endVersion entities.ScmVersion) string {
	const layout = "2006-01-02,15:04:05"
	from, to := "", ""
	switch {
	case !entities.IsEmptyVersion(startVersion):
		from = revisionSpec(startVersion)
	case !start.IsZero():
		from = "date:" + start.UTC().Format(layout)
	}
	switch {
	case !entities.IsEmptyVersion(endVersion):
		to = revisionSpec(endVersion)
	case !end.IsZero():
		to = "date:" + end.UTC().Format(layout)
	}
	if from == "" && to == "" {
		return ""
	}
	return from + ".." + to
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
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "annotate", "--all", "--long", file)
	if err != nil {
		return nil, err
	}
	return entities.NewBlameResult(exec.Result, parseAnnotate(exec.Stdout)), nil
}

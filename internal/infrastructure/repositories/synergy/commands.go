package synergy

import (
	"context"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
	"github.com/rios0rios0/scmforge/internal/process"
)

// queryFormat separates the object name from its status in ccm query output.
const queryFormat = "%name|%status"

//nolint:gochecknoglobals // compiled once
var replacesLine = regexp.MustCompile(`'?([^'\s]+?)-[^-'\s]+'? replaces '?[^'\s]+'?`)

func descriptor(repoD entities.RepositoryDescriptor) (*Repository, error) {
	return entities.DescriptorAs[*Repository](repoD)
}

// requireSession fails commands that need an engine before login ran.
func requireSession(repo *Repository) error {
	if repo.CcmAddr == "" {
		return entities.NewScmError("synergy session", entities.ErrNotLoggedIn)
	}
	return nil
}

func (p *ProviderRepository) login(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	_ entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	if repo.User, err = params.GetStringOr(entities.ParamUser, repo.User); err != nil {
		return nil, err
	}
	if repo.Password, err = params.GetStringOr(entities.ParamPassword, repo.Password); err != nil {
		return nil, err
	}

	cl := p.tool.Command("", "start", "-m", "-q", "-nogui", "-d", repo.Database, "-r", repo.Role, "-n", repo.User)
	if repo.Host != "" {
		cl.Arg("-h", repo.Host)
	}
	if repo.Password != "" {
		cl.SecretArg("-pw", repo.Password)
	}
	exec, err := p.tool.Run(ctx, cl, nil, process.DefaultPolicy)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewLoginResult(exec.Result, ""), nil
	}
	repo.CcmAddr = strings.TrimSpace(exec.Stdout)
	return entities.NewLoginResult(exec.Result, repo.CcmAddr), nil
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
	if err = requireSession(repo); err != nil {
		return nil, err
	}
	version, err := params.GetVersionOr(entities.ParamScmVersion, nil)
	if err != nil {
		return nil, err
	}
	if err = fileSet.EnsureBaseDir(); err != nil {
		return nil, err
	}
	project := repo.ProjectSpec
	if !entities.IsEmptyVersion(version) {
		name, _, _ := strings.Cut(project, "~")
		project = name + "~" + version.Name()
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "copy_to_file_system", "-path", fileSet.BaseDir, "-recurse", project)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewCheckOutResult(exec.Result, nil, "", ""), nil
	}
	files, err := workAreaFiles(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	return entities.NewCheckOutResult(exec.Result, base.FilesWithStatus(files, entities.StatusCheckedOut), "", ""), nil
}

// workAreaFiles lists the files copied into a work area.
func workAreaFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || d.Name() == metadataFile {
			return walkErr
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, entities.NewScmError("list work area", err)
	}
	return files, nil
}

// objectCommand runs a ccm command over the selected objects and reports them with status.
func (p *ProviderRepository) objectCommand(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	cmd entities.CommandName,
	status entities.ScmFileStatus,
	sub string,
	args ...string,
) (entities.ScmResult, []entities.ScmFile, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return entities.ScmResult{}, nil, err
	}
	if err = requireSession(repo); err != nil {
		return entities.ScmResult{}, nil, err
	}
	if err = base.RequireFiles(cmd, fileSet); err != nil {
		return entities.ScmResult{}, nil, err
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, sub, append(args, fileSet.RelativePaths()...)...)
	if err != nil {
		return entities.ScmResult{}, nil, err
	}
	if !exec.Success() {
		return exec.Result, nil, nil
	}
	return exec.Result, base.FilesWithStatus(fileSet.RelativePaths(), status), nil
}

func (p *ProviderRepository) add(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	result, files, err := p.objectCommand(ctx, repoD, fileSet, entities.CommandAdd, entities.StatusAdded, "create")
	if err != nil {
		return nil, err
	}
	return entities.NewAddResult(result, files), nil
}

func (p *ProviderRepository) remove(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	result, files, err := p.objectCommand(ctx, repoD, fileSet, entities.CommandRemove, entities.StatusDeleted, "unuse")
	if err != nil {
		return nil, err
	}
	return entities.NewRemoveResult(result, files), nil
}

// edit creates modifiable versions of the objects.
func (p *ProviderRepository) edit(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	result, files, err := p.objectCommand(ctx, repoD, fileSet, entities.CommandEdit, entities.StatusCheckedOut, "checkout")
	if err != nil {
		return nil, err
	}
	return entities.NewEditResult(result, files), nil
}

// unedit discards the working versions and restores their predecessors.
func (p *ProviderRepository) unedit(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	result, files, err := p.objectCommand(ctx, repoD, fileSet, entities.CommandUnedit, entities.StatusCheckedIn, "delete", "-replace")
	if err != nil {
		return nil, err
	}
	return entities.NewUneditResult(result, files), nil
}

// working queries the objects of the project that are checked out.
func (p *ProviderRepository) working(ctx context.Context, repo *Repository, dir string) (*base.Execution, []entities.ScmFile, error) {
	exec, err := p.run(ctx, repo, dir, "query", "-u", "-f", queryFormat,
		"is_member_of('"+repo.ProjectSpec+"') and status='working'")
	if err != nil || !exec.Success() {
		return exec, nil, err
	}
	var files []entities.ScmFile
	for _, line := range strings.Split(exec.Stdout, "\n") {
		name, status, found := strings.Cut(strings.TrimSpace(line), "|")
		if !found || name == "" {
			continue
		}
		if strings.TrimSpace(status) == "working" {
			files = append(files, entities.NewScmFile(name, entities.StatusModified))
		}
	}
	return exec, files, nil
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
	if err = requireSession(repo); err != nil {
		return nil, err
	}
	exec, files, err := p.working(ctx, repo, fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	return entities.NewStatusResult(exec.Result, files), nil
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
	if err = requireSession(repo); err != nil {
		return nil, err
	}
	message, err := base.RequireMessage(params)
	if err != nil {
		return nil, err
	}
	files := fileSet.RelativePaths()
	if fileSet.IsEmpty() {
		exec, working, workErr := p.working(ctx, repo, fileSet.BaseDir)
		if workErr != nil {
			return nil, workErr
		}
		if !exec.Success() {
			return entities.NewCheckInResult(exec.Result, nil, ""), nil
		}
		for _, f := range working {
			files = append(files, f.Path)
		}
	}
	if len(files) == 0 {
		return entities.NewCheckInResult(
			entities.NewScmResult("", "Nothing to check in.", "", true), nil, ""), nil
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "checkin", append([]string{"-c", message}, files...)...)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewCheckInResult(exec.Result, nil, ""), nil
	}
	return entities.NewCheckInResult(exec.Result, base.FilesWithStatus(files, entities.StatusCheckedIn), ""), nil
}

// tag creates a baseline of the project.
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
	if err = requireSession(repo); err != nil {
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
	args := []string{"-create", name, "-p", repo.ProjectSpec}
	if tagParams.Message != "" {
		args = append(args, "-c", tagParams.Message)
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "baseline", args...)
	if err != nil {
		return nil, err
	}
	return entities.NewTagResult(exec.Result, nil), nil
}

// update reconfigures the project; each "new replaces old" line is one updated object.
func (p *ProviderRepository) update(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	if err = requireSession(repo); err != nil {
		return nil, err
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "update", "-r", "-p", repo.ProjectSpec)
	if err != nil {
		return nil, err
	}
	var files []entities.ScmFile
	for _, match := range replacesLine.FindAllStringSubmatch(exec.Stdout, -1) {
		files = append(files, entities.NewScmFile(match[1], entities.StatusUpdated))
	}
	return entities.NewUpdateResult(exec.Result, files, nil), nil
}

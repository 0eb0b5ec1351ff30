package integrity

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
)

func descriptor(repoD entities.RepositoryDescriptor) (*Repository, error) {
	return entities.DescriptorAs[*Repository](repoD)
}

func sandbox(fileSet entities.FileSet) string {
	return "--sandbox=" + filepath.Join(fileSet.BaseDir, sandboxFile)
}

// parseNames reads one member name per line, taking the first column of --fields output.
func parseNames(output string) []string {
	var names []string
	for _, line := range strings.Split(output, "\n") {
		name, _, _ := strings.Cut(strings.TrimSpace(line), fieldsDelim)
		if name != "" {
			names = append(names, filepath.ToSlash(name))
		}
	}
	return names
}

// parseDeltas reads "name<TAB>wfdelta" lines of viewsandbox.
func parseDeltas(output string) []entities.ScmFile {
	var files []entities.ScmFile
	for _, line := range strings.Split(output, "\n") {
		name, delta, found := strings.Cut(strings.TrimSpace(line), fieldsDelim)
		if !found || name == "" {
			continue
		}
		delta = strings.ToLower(delta)
		var status entities.ScmFileStatus
		switch {
		case strings.Contains(delta, "missing"), strings.Contains(delta, "drop"):
			status = entities.StatusDeleted
		case strings.Contains(delta, "add"):
			status = entities.StatusAdded
		case strings.Contains(delta, "modified"), strings.Contains(delta, "working"):
			status = entities.StatusModified
		case strings.Contains(delta, "lock"):
			status = entities.StatusLocked
		default:
			continue
		}
		files = append(files, entities.NewScmFile(filepath.ToSlash(name), status))
	}
	return files
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
	exec, err := p.run(ctx, repo, "", "connect", "--batch")
	if err != nil {
		return nil, err
	}
	repo.Connected = exec.Success()
	return entities.NewLoginResult(exec.Result, ""), nil
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

	args := []string{"--project=" + repo.ConfigPath, "--yes"}
	if !entities.IsEmptyVersion(version) {
		if version.Type() == entities.VersionTypeBranch {
			args = append(args, "--devpath="+version.Name())
		} else {
			args = append(args, "--projectRevision="+version.Name())
		}
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "createsandbox", append(args, fileSet.BaseDir)...)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewCheckOutResult(exec.Result, nil, "", ""), nil
	}
	members, err := p.run(ctx, repo, fileSet.BaseDir, "viewsandbox", sandbox(fileSet), "--recurse", "--fields=name")
	if err != nil {
		return nil, err
	}
	return entities.NewCheckOutResult(exec.Result,
		base.FilesWithStatus(parseNames(members.Stdout), entities.StatusCheckedOut), "", ""), nil
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
	exec, err := p.changedMembers(ctx, repo, fileSet)
	if err != nil {
		return nil, err
	}
	return entities.NewStatusResult(exec.Result, parseDeltas(exec.Stdout)), nil
}

func (p *ProviderRepository) changedMembers(ctx context.Context, repo *Repository, fileSet entities.FileSet) (*base.Execution, error) {
	return p.run(ctx, repo, fileSet.BaseDir, "viewsandbox", sandbox(fileSet), "--recurse",
		"--filter=changed", "--fields=name,wfdelta", "--fieldsDelim="+fieldsDelim)
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
	files := fileSet.RelativePaths()
	if fileSet.IsEmpty() {
		changed, changedErr := p.changedMembers(ctx, repo, fileSet)
		if changedErr != nil {
			return nil, changedErr
		}
		if !changed.Success() {
			return entities.NewCheckInResult(changed.Result, nil, ""), nil
		}
		for _, f := range parseDeltas(changed.Stdout) {
			files = append(files, f.Path)
		}
	}
	if len(files) == 0 {
		return entities.NewCheckInResult(
			entities.NewScmResult("", "Nothing to check in.", "", true), nil, ""), nil
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "ci",
		append([]string{sandbox(fileSet), "--description=" + message, "--yes"}, files...)...)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewCheckInResult(exec.Result, nil, ""), nil
	}
	return entities.NewCheckInResult(exec.Result, base.FilesWithStatus(files, entities.StatusCheckedIn), ""), nil
}

// memberCommand runs an si command over the selected members and reports them with status.
func (p *ProviderRepository) memberCommand(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	cmd entities.CommandName,
	sub string,
	status entities.ScmFileStatus,
	extra ...string,
) (entities.ScmResult, []entities.ScmFile, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return entities.ScmResult{}, nil, err
	}
	if err = base.RequireFiles(cmd, fileSet); err != nil {
		return entities.ScmResult{}, nil, err
	}
	args := append(append([]string{sandbox(fileSet), "--yes"}, extra...), fileSet.RelativePaths()...)
	exec, err := p.run(ctx, repo, fileSet.BaseDir, sub, args...)
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
	params *entities.CommandParameters,
) (entities.Result, error) {
	message, err := params.GetStringOr(entities.ParamMessage, "")
	if err != nil {
		return nil, err
	}
	var extra []string
	if message != "" {
		extra = append(extra, "--description="+message)
	}
	result, files, err := p.memberCommand(ctx, repoD, fileSet, entities.CommandAdd, "add", entities.StatusAdded, extra...)
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
	result, files, err := p.memberCommand(ctx, repoD, fileSet, entities.CommandRemove, "drop", entities.StatusDeleted)
	if err != nil {
		return nil, err
	}
	return entities.NewRemoveResult(result, files), nil
}

// edit locks the members.
func (p *ProviderRepository) edit(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	result, files, err := p.memberCommand(ctx, repoD, fileSet, entities.CommandEdit, "lock", entities.StatusLocked)
	if err != nil {
		return nil, err
	}
	return entities.NewEditResult(result, files), nil
}

// unedit releases the locks on the members.
func (p *ProviderRepository) unedit(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	result, files, err := p.memberCommand(ctx, repoD, fileSet, entities.CommandUnedit, "unlock", entities.StatusCheckedIn)
	if err != nil {
		return nil, err
	}
	return entities.NewUneditResult(result, files), nil
}

// tag checkpoints the project with a label.
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
	args := []string{"--project=" + repo.ConfigPath, "--label=" + name, "--yes"}
	if tagParams.Message != "" {
		args = append(args, "--description="+tagParams.Message)
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "checkpoint", args...)
	if err != nil {
		return nil, err
	}
	return entities.NewTagResult(exec.Result, nil), nil
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
	args := []string{"--project=" + repo.ConfigPath, "--recurse", "--fields=name"}
	if !entities.IsEmptyVersion(version) {
		args = append(args, "--projectRevision="+version.Name())
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "viewproject", args...)
	if err != nil {
		return nil, err
	}
	return entities.NewListResult(exec.Result,
		base.FilesWithStatus(parseNames(exec.Stdout), entities.StatusCheckedIn)), nil
}

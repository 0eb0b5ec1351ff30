package accurev

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

const transactionTimeLayout = "2006/01/02 15:04:05"

func descriptor(repoD entities.RepositoryDescriptor) (*Repository, error) {
	return entities.DescriptorAs[*Repository](repoD)
}

// depotPaths renders the selected files as depot-relative locations.
func depotPaths(fileSet entities.FileSet) []string {
	paths := fileSet.RelativePaths()
	for i, p := range paths {
		paths[i] = "/./" + strings.TrimPrefix(filepath.ToSlash(p), "./")
	}
	return paths
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
	user, err := params.GetStringOr(entities.ParamUser, repo.User)
	if err != nil {
		return nil, err
	}
	password, err := params.GetStringOr(entities.ParamPassword, repo.Password)
	if err != nil {
		return nil, err
	}
	if user == "" {
		return nil, &entities.ParameterError{
			Parameter: entities.ParamUser, Reason: entities.ErrMissingParameter, Detail: "login needs a user",
		}
	}

	home := repo.Home
	if home == "" {
		if home, err = os.MkdirTemp("", "scmforge-accurev-*"); err != nil {
			return nil, entities.NewScmError("create accurev session", err)
		}
	}
	session := *repo
	session.Token, session.Home = "", home
	cl := p.command(&session, "", "login", "-A", user).SecretArg("", password)
	exec, err := p.tool.Run(ctx, cl, nil, process.DefaultPolicy)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		if repo.Home == "" {
			_ = os.RemoveAll(home)
		}
		return entities.NewLoginResult(exec.Result, ""), nil
	}

	token := strings.TrimSpace(exec.Stdout)
	repo.User, repo.Password, repo.Token, repo.Home = user, password, token, home
	logger.Debugf("[%s] Logged in as %s", providerName, user)
	return entities.NewLoginResult(exec.Result, token), nil
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
	stream := repo.StreamName
	if !entities.IsEmptyVersion(version) && version.Type() != entities.VersionTypeRevision {
		stream = version.Name()
	}

	if repo.CheckoutMethod == CheckoutMkws && repo.WorkspaceName != "" {
		exec, mkErr := p.run(ctx, repo, fileSet.BaseDir, "mkws", "-w", repo.WorkspaceName, "-b", stream, "-l", fileSet.BaseDir)
		if mkErr != nil {
			return nil, mkErr
		}
		if !exec.Success() {
			return entities.NewCheckOutResult(exec.Result, nil, "", ""), nil
		}
		exec, mkErr = p.run(ctx, repo, fileSet.BaseDir, "update")
		if mkErr != nil {
			return nil, mkErr
		}
		if !exec.Success() {
			return entities.NewCheckOutResult(exec.Result, nil, "", ""), nil
		}
	}
	exec, err := p.populate(ctx, repo, stream, version, fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	return entities.NewCheckOutResult(exec.Result, populated(exec, entities.StatusCheckedOut), "", ""), nil
}

func (p *ProviderRepository) populate(
	ctx context.Context,
	repo *Repository,
	stream string,
	version entities.ScmVersion,
	target string,
) (*base.Execution, error) {
	args := []string{"-R", "-O", "-v", stream, "-L", target}
	if !entities.IsEmptyVersion(version) && version.Type() == entities.VersionTypeRevision {
		args = append(args, "-t", version.Name())
	}
	return p.run(ctx, repo, target, "pop", append(args, ".")...)
}

func populated(exec *base.Execution, status entities.ScmFileStatus) []entities.ScmFile {
	return parseElementLines(exec.Stdout, map[string]entities.ScmFileStatus{"Populating": status})
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
	if err = os.MkdirAll(target, 0o750); err != nil {
		return nil, entities.NewScmError("create export directory", err)
	}
	stream := repo.StreamName
	if !entities.IsEmptyVersion(version) && version.Type() != entities.VersionTypeRevision {
		stream = version.Name()
	}
	exec, err := p.populate(ctx, repo, stream, version, target)
	if err != nil {
		return nil, err
	}
	return entities.NewExportResult(exec.Result, populated(exec, entities.StatusCheckedOut)), nil
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
	message, err := params.GetStringOr(entities.ParamMessage, "")
	if err != nil {
		return nil, err
	}
	args := []string{}
	if message != "" {
		args = append(args, "-c", message)
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "add", append(args, depotPaths(fileSet)...)...)
	if err != nil {
		return nil, err
	}
	return entities.NewAddResult(exec.Result,
		parseElementLines(exec.Stdout, map[string]entities.ScmFileStatus{"Added": entities.StatusAdded})), nil
}

func (p *ProviderRepository) remove(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	if err = base.RequireFiles(entities.CommandRemove, fileSet); err != nil {
		return nil, err
	}
	message, err := params.GetStringOr(entities.ParamMessage, "")
	if err != nil {
		return nil, err
	}
	args := []string{}
	if message != "" {
		args = append(args, "-c", message)
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "defunct", append(args, depotPaths(fileSet)...)...)
	if err != nil {
		return nil, err
	}
	return entities.NewRemoveResult(exec.Result, parseElementLines(exec.Stdout, map[string]entities.ScmFileStatus{
		"Removing":   entities.StatusDeleted,
		"Defuncting": entities.StatusDeleted,
	})), nil
}

// checkIn keeps the changes and promotes them to the backing stream.
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

	keep := append([]string{"-c", message}, depotPaths(fileSet)...)
	promote := append([]string{"-c", message}, depotPaths(fileSet)...)
	if fileSet.IsEmpty() {
		keep = []string{"-c", message, "-m"}
		promote = []string{"-c", message, "-k"}
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "keep", keep...)
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewCheckInResult(exec.Result, nil, ""), nil
	}
	exec, err = p.run(ctx, repo, fileSet.BaseDir, "promote", promote...)
	if err != nil {
		return nil, err
	}
	files := parseElementLines(exec.Stdout, map[string]entities.ScmFileStatus{
		"Promoting": entities.StatusCheckedIn,
		"Promoted":  entities.StatusCheckedIn,
	})
	return entities.NewCheckInResult(exec.Result, files, transactionOf(exec.Stdout)), nil
}

// transactionOf finds "transaction <n>" in promote output.
func transactionOf(output string) string {
	fields := strings.Fields(output)
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] == "transaction" {
			number := strings.TrimRight(fields[i+1], ".:")
			if _, err := strconv.Atoi(number); err == nil {
				return number
			}
		}
	}
	return ""
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
	args := []string{"-R"}
	if fileSet.IsEmpty() {
		args = append(args, ".")
	} else {
		args = append(args, depotPaths(fileSet)...)
	}
	var files []entities.ScmFile
	exec, err := p.runXML(ctx, repo, fileSet.BaseDir, statConsumer(&files, false, 0), "stat", args...)
	if err != nil {
		return nil, err
	}
	return entities.NewStatusResult(exec.Result, files), nil
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
	stream := repo.StreamName
	if !entities.IsEmptyVersion(version) && version.Type() != entities.VersionTypeRevision {
		stream = version.Name()
	}
	var files []entities.ScmFile
	exec, err := p.runXML(ctx, repo, fileSet.BaseDir, statConsumer(&files, true, entities.StatusCheckedIn),
		"stat", "-a", "-s", stream, "-R", "/./")
	if err != nil {
		return nil, err
	}
	return entities.NewListResult(exec.Result, files), nil
}

// tag creates a snapshot of the stream.
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
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "mksnap", "-s", name, "-b", repo.StreamName, "-t", "now")
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewTagResult(exec.Result, nil), nil
	}
	var files []entities.ScmFile
	if _, err = p.runXML(ctx, repo, fileSet.BaseDir, statConsumer(&files, true, entities.StatusTagged),
		"stat", "-a", "-s", name, "-R", "/./"); err != nil {
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

	var before []entities.ChangeSet
	if withChangeLog {
		if _, err = p.runXML(ctx, repo, fileSet.BaseDir, histConsumer(&before),
			"hist", "-p", repo.Depot, "-s", repo.StreamName, "-t", "now.1"); err != nil {
			return nil, err
		}
	}
	exec, err := p.run(ctx, repo, fileSet.BaseDir, "update")
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewUpdateResult(exec.Result, nil, nil), nil
	}
	files := parseElementLines(exec.Stdout, map[string]entities.ScmFileStatus{
		"Updating": entities.StatusUpdated,
		"Creating": entities.StatusAdded,
		"Removing": entities.StatusDeleted,
	})

	var changes []entities.ChangeSet
	if withChangeLog && len(before) > 0 {
		var sets []entities.ChangeSet
		if _, err = p.runXML(ctx, repo, fileSet.BaseDir, histConsumer(&sets),
			"hist", "-p", repo.Depot, "-s", repo.StreamName, "-t", "now-"+before[0].Revision); err != nil {
			return nil, err
		}
		for _, cs := range sets {
			if cs.Revision != before[0].Revision {
				changes = append(changes, cs)
			}
		}
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

	args := []string{"-p", repo.Depot, "-s", repo.StreamName, "-t", timeSpec(start, end, startVersion, endVersion, limit)}
	var sets []entities.ChangeSet
	exec, err := p.runXML(ctx, repo, fileSet.BaseDir, histConsumer(&sets), "hist", args...)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(sets) > limit {
		sets = sets[:limit]
	}
	changeLog := &entities.ChangeLogSet{
		ChangeSets: sets, StartDate: start, EndDate: end, StartVersion: startVersion, EndVersion: endVersion,
	}
	return entities.NewChangeLogResult(exec.Result, changeLog), nil
}

// timeSpec renders a hist -t range, newest bound first. Transactions win over dates.
func timeSpec(start, end time.Time, startVersion, endVersion entities.ScmVersion, limit int) string {
	from, to := "", "now"
	switch {
	case !entities.IsEmptyVersion(startVersion):
		from = startVersion.Name()
	case !start.IsZero():
		from = start.UTC().Format(transactionTimeLayout)
	}
	switch {
	case !entities.IsEmptyVersion(endVersion):
		to = endVersion.Name()
	case !end.IsZero():
		to = end.UTC().Format(transactionTimeLayout)
	}
	if from == "" {
		if limit > 0 {
			return to + "." + strconv.Itoa(limit)
		}
		return to + "-1"
	}
	return to + "-" + from
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
	var workspace workspaceInfo
	exec, err := p.runXML(ctx, repo, fileSet.BaseDir, infoConsumer(&workspace), "info")
	if err != nil {
		return nil, err
	}
	if !exec.Success() {
		return entities.NewInfoResult(exec.Result, nil), nil
	}
	item := entities.InfoItem{
		Path:              workspace.Top,
		URL:               repo.String(),
		RepositoryRoot:    workspace.Depot,
		Revision:          workspace.Basis,
		Kind:              "workspace",
		LastChangedAuthor: workspace.Principal,
	}
	return entities.NewInfoResult(exec.Result, []entities.InfoItem{item}), nil
}

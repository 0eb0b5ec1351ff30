package commands

import (
	"context"
	"fmt"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

// executeAs runs cmd and narrows the result to the type the command is documented to return.
func executeAs[T entities.Result](
	ctx context.Context,
	m Manager,
	cmd entities.CommandName,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (T, error) {
	var zero T
	result, err := m.Execute(ctx, cmd, repo, fileSet, params)
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, entities.NewScmError(string(cmd),
			fmt.Errorf("%w: provider %q returned %T", entities.ErrResultType, repo.Provider(), result))
	}
	return typed, nil
}

func (it *ScmManager) Add(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.AddResult, error) {
	return executeAs[*entities.AddResult](ctx, it, entities.CommandAdd, repo, fileSet, params)
}

func (it *ScmManager) Remove(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.RemoveResult, error) {
	return executeAs[*entities.RemoveResult](ctx, it, entities.CommandRemove, repo, fileSet, params)
}

func (it *ScmManager) CheckIn(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.CheckInResult, error) {
	return executeAs[*entities.CheckInResult](ctx, it, entities.CommandCheckIn, repo, fileSet, params)
}

func (it *ScmManager) CheckOut(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.CheckOutResult, error) {
	return executeAs[*entities.CheckOutResult](ctx, it, entities.CommandCheckOut, repo, fileSet, params)
}

func (it *ScmManager) Diff(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.DiffResult, error) {
	return executeAs[*entities.DiffResult](ctx, it, entities.CommandDiff, repo, fileSet, params)
}

func (it *ScmManager) Tag(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.TagResult, error) {
	return executeAs[*entities.TagResult](ctx, it, entities.CommandTag, repo, fileSet, params)
}

func (it *ScmManager) Untag(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.UntagResult, error) {
	return executeAs[*entities.UntagResult](ctx, it, entities.CommandUntag, repo, fileSet, params)
}

func (it *ScmManager) Branch(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.BranchResult, error) {
	return executeAs[*entities.BranchResult](ctx, it, entities.CommandBranch, repo, fileSet, params)
}

func (it *ScmManager) Status(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.StatusResult, error) {
	return executeAs[*entities.StatusResult](ctx, it, entities.CommandStatus, repo, fileSet, params)
}

func (it *ScmManager) Update(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.UpdateResult, error) {
	return executeAs[*entities.UpdateResult](ctx, it, entities.CommandUpdate, repo, fileSet, params)
}

func (it *ScmManager) ChangeLog(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.ChangeLogResult, error) {
	return executeAs[*entities.ChangeLogResult](ctx, it, entities.CommandChangeLog, repo, fileSet, params)
}

func (it *ScmManager) Login(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.LoginResult, error) {
	return executeAs[*entities.LoginResult](ctx, it, entities.CommandLogin, repo, fileSet, params)
}

func (it *ScmManager) List(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.ListResult, error) {
	return executeAs[*entities.ListResult](ctx, it, entities.CommandList, repo, fileSet, params)
}

func (it *ScmManager) Edit(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.EditResult, error) {
	return executeAs[*entities.EditResult](ctx, it, entities.CommandEdit, repo, fileSet, params)
}

func (it *ScmManager) Unedit(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.UneditResult, error) {
	return executeAs[*entities.UneditResult](ctx, it, entities.CommandUnedit, repo, fileSet, params)
}

func (it *ScmManager) Export(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.ExportResult, error) {
	return executeAs[*entities.ExportResult](ctx, it, entities.CommandExport, repo, fileSet, params)
}

func (it *ScmManager) Blame(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.BlameResult, error) {
	return executeAs[*entities.BlameResult](ctx, it, entities.CommandBlame, repo, fileSet, params)
}

func (it *ScmManager) Info(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.InfoResult, error) {
	return executeAs[*entities.InfoResult](ctx, it, entities.CommandInfo, repo, fileSet, params)
}

func (it *ScmManager) RemoteInfo(
	ctx context.Context,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (*entities.RemoteInfoResult, error) {
	return executeAs[*entities.RemoteInfoResult](ctx, it, entities.CommandRemoteInfo, repo, fileSet, params)
}

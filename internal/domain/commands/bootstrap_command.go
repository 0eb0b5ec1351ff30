package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/kballard/go-shellquote"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/process"
)

// ErrBootstrapFailed is returned when the checkout or the follow-up command fails.
var ErrBootstrapFailed = errors.New("bootstrap failed")

// Bootstrap checks a project out and runs a command inside the fresh working copy.
type Bootstrap interface {
	Execute(ctx context.Context, manager Manager, opts BootstrapOptions) (*entities.CheckOutResult, error)
}

// BootstrapOptions holds the inputs of a bootstrap run.
type BootstrapOptions struct {
	URL              string
	WorkingDirectory string
	Version          entities.ScmVersion
	// Goals is a shell-style command line run after checkout, e.g. "make test".
	Goals string
	// GoalsDirectory is relative to the checked out project.
	GoalsDirectory string
}

// BootstrapCommand implements Bootstrap with a process runner for the goals.
type BootstrapCommand struct {
	runner process.Runner
}

// NewBootstrapCommand creates a BootstrapCommand running goals through runner.
func NewBootstrapCommand(runner process.Runner) *BootstrapCommand {
	return &BootstrapCommand{runner: runner}
}

func (it *BootstrapCommand) Execute(
	ctx context.Context,
	manager Manager,
	opts BootstrapOptions,
) (*entities.CheckOutResult, error) {
	args, err := shellquote.Split(opts.Goals)
	if err != nil {
		return nil, fmt.Errorf("invalid goals %q: %w", opts.Goals, err)
	}
	repo, err := manager.MakeScmRepository(opts.URL)
	if err != nil {
		return nil, err
	}

	params := entities.NewCommandParameters()
	if !entities.IsEmptyVersion(opts.Version) {
		if setErr := params.Set(entities.ParamScmVersion, opts.Version); setErr != nil {
			return nil, setErr
		}
	}
	result, err := executeAs[*entities.CheckOutResult](ctx, manager, entities.CommandCheckOut, repo,
		entities.NewFileSet(opts.WorkingDirectory), params)
	if err != nil {
		return nil, err
	}
	if !result.IsSuccess() {
		return result, fmt.Errorf("%w: checkout of %s: %s", ErrBootstrapFailed, repo, result.ProviderMessage())
	}
	logger.Infof("Checked out %d files into %s", len(result.CheckedOutFiles()), opts.WorkingDirectory)

	if len(args) == 0 {
		return result, nil
	}
	dir := filepath.Join(opts.WorkingDirectory, result.RelativePathProjectDirectory(), opts.GoalsDirectory)
	cl := process.NewCommandline(dir, args[0], args[1:]...)
	logger.Infof("Running goals in %s: %s", dir, cl)

	forward := process.LineConsumerFunc(func(line string) { logger.Info(line) })
	code, err := it.runner.Run(ctx, cl, forward, forward)
	if err != nil {
		return result, entities.NewScmError("bootstrap goals", err)
	}
	if code != 0 {
		return result, fmt.Errorf("%w: goals exited with code %d", ErrBootstrapFailed, code)
	}
	return result, nil
}

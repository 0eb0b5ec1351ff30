package controllers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/scmforge/internal/domain/commands"
	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

// ErrCommandFailed is returned when the wrapped tool reported a failure.
var ErrCommandFailed = errors.New("scm command failed")

// ErrNoRepository is returned when neither --url nor a working copy identifies the repository.
var ErrNoRepository = errors.New("no scm repository")

// goal describes one CLI goal bound to an SCM command.
type goal struct {
	use     string
	short   string
	long    string
	args    cobra.PositionalArgs
	command entities.CommandName
	// filesFromArgs selects positional arguments as the file set.
	filesFromArgs bool
	flags         func(cmd *cobra.Command)
	params        func(cmd *cobra.Command, args []string) (*entities.CommandParameters, error)
}

// GoalController runs one SCM command from the command line.
type GoalController struct {
	goal       goal
	newManager commands.ManagerFactory
}

func newGoalController(g goal, newManager commands.ManagerFactory) *GoalController {
	return &GoalController{goal: g, newManager: newManager}
}

// GetBind returns the Cobra command metadata for the goal.
func (it *GoalController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{Use: it.goal.use, Short: it.goal.short, Long: it.goal.long, Args: it.goal.args}
}

// AddFlags adds the repository flags and the goal-specific ones.
func (it *GoalController) AddFlags(cmd *cobra.Command) {
	addRepositoryFlags(cmd)
	if it.goal.flags != nil {
		it.goal.flags(cmd)
	}
}

// Execute resolves the repository, runs the command and renders its result.
func (it *GoalController) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	manager, err := it.newManager(stringFlag(cmd, "config"))
	if err != nil {
		return err
	}
	repo, err := resolveRepository(cmd, manager)
	if err != nil {
		return err
	}
	fileSet, err := resolveFileSet(cmd, args, it.goal.filesFromArgs)
	if err != nil {
		return err
	}
	params := entities.NewCommandParameters()
	if it.goal.params != nil {
		if params, err = it.goal.params(cmd, args); err != nil {
			return err
		}
	}

	if it.goal.command != entities.CommandLogin {
		loggedIn, loginErr := loginIfNeeded(ctx, cmd, manager, repo, fileSet)
		if loginErr != nil {
			return loginErr
		}
		if loggedIn {
			defer func() {
				if _, logoutErr := manager.Logout(ctx, repo); logoutErr != nil {
					logger.Warnf("[%s] Logout failed: %v", repo.Provider(), logoutErr)
				}
			}()
		}
	}

	result, err := manager.Execute(ctx, it.goal.command, repo, fileSet, params)
	if err != nil {
		return err
	}
	if renderErr := render(cmd.OutOrStdout(), stringFlag(cmd, "output"), it.goal.command, result); renderErr != nil {
		return renderErr
	}
	return checkResult(it.goal.command, result)
}

func addRepositoryFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", "", "SCM connection string (scm:<provider>:<provider-specific>)")
	cmd.Flags().String("provider", "", "Provider of the working copy in --dir when --url is not given")
	cmd.Flags().StringP("dir", "d", ".", "Working directory")
	cmd.Flags().String("includes", "", "Comma separated include patterns")
	cmd.Flags().String("excludes", "", "Comma separated exclude patterns")
	cmd.Flags().StringP("username", "u", "", "User name (overrides the connection string)")
	cmd.Flags().StringP("password", "p", "", "Password (overrides the connection string)")
}

// resolveRepository parses --url, or detects the provider of the working copy in --dir.
func resolveRepository(cmd *cobra.Command, manager commands.Manager) (*entities.ScmRepository, error) {
	url := stringFlag(cmd, "url")
	dir := stringFlag(cmd, "dir")
	var repo *entities.ScmRepository
	var err error
	switch {
	case url != "":
		repo, err = manager.MakeScmRepository(url)
	case stringFlag(cmd, "provider") != "":
		repo, err = manager.MakeProviderScmRepository(stringFlag(cmd, "provider"), dir)
	default:
		tag, found := detectProvider(manager, dir)
		if !found {
			return nil, fmt.Errorf("%w: pass --url or run inside a working copy", ErrNoRepository)
		}
		logger.Debugf("[%s] Detected working copy in %s", tag, dir)
		repo, err = manager.MakeProviderScmRepository(tag, dir)
	}
	if err != nil {
		return nil, err
	}

	base := repo.Descriptor().Base()
	if user := stringFlag(cmd, "username"); user != "" {
		base.User = user
	}
	if password := stringFlag(cmd, "password"); password != "" {
		base.Password = password
	}
	return repo, nil
}

// detectProvider finds the provider whose metadata file exists in dir.
func detectProvider(manager commands.Manager, dir string) (string, bool) {
	for _, info := range manager.Providers() {
		if info.MetadataFile == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, info.MetadataFile)); err == nil {
			return info.Tag, true
		}
	}
	return "", false
}

func resolveFileSet(cmd *cobra.Command, args []string, filesFromArgs bool) (entities.FileSet, error) {
	dir, err := filepath.Abs(stringFlag(cmd, "dir"))
	if err != nil {
		return entities.FileSet{}, fmt.Errorf("invalid directory: %w", err)
	}
	if filesFromArgs && len(args) > 0 {
		return entities.NewFileSet(dir, args...), nil
	}
	return entities.NewFileSetFromPatterns(dir, stringFlag(cmd, "includes"), stringFlag(cmd, "excludes"))
}

// loginIfNeeded starts a session for providers that need one before any other command.
func loginIfNeeded(
	ctx context.Context,
	cmd *cobra.Command,
	manager commands.Manager,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
) (bool, error) {
	if !supports(manager, repo.Provider(), entities.CommandLogin) {
		return false, nil
	}
	result, err := manager.Execute(ctx, entities.CommandLogin, repo, fileSet, nil)
	if err != nil {
		return false, err
	}
	if !result.IsSuccess() {
		_ = render(cmd.ErrOrStderr(), outputTable, entities.CommandLogin, result)
		return false, checkResult(entities.CommandLogin, result)
	}
	return true, nil
}

func supports(manager commands.Manager, tag string, cmd entities.CommandName) bool {
	for _, info := range manager.Providers() {
		if info.Tag != tag {
			continue
		}
		for _, c := range info.Commands {
			if c == cmd {
				return true
			}
		}
	}
	return false
}

func checkResult(cmd entities.CommandName, result entities.Result) error {
	if result.IsSuccess() {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrCommandFailed, cmd, result.ProviderMessage())
}

func stringFlag(cmd *cobra.Command, name string) string {
	value, _ := cmd.Flags().GetString(name)
	return value
}

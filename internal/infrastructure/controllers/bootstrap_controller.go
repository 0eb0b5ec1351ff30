package controllers

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/scmforge/internal/domain/commands"
	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

// BootstrapController handles the "bootstrap" subcommand.
type BootstrapController struct {
	command    commands.Bootstrap
	newManager commands.ManagerFactory
}

// NewBootstrapController creates a new BootstrapController.
func NewBootstrapController(command commands.Bootstrap, newManager commands.ManagerFactory) *BootstrapController {
	return &BootstrapController{command: command, newManager: newManager}
}

// GetBind returns the Cobra command metadata for the bootstrap controller.
func (it *BootstrapController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "bootstrap",
		Short: "Check a project out and run a command inside it",
		Long: `Check the project identified by --url out into --dir, then run --goals
(a shell-style command line such as "make test") in the fresh working copy.`,
		Args: cobra.NoArgs,
	}
}

// AddFlags adds the bootstrap-specific flags to the given Cobra command.
func (it *BootstrapController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", "", "SCM connection string of the project")
	cmd.Flags().StringP("dir", "d", "target/checkout", "Directory receiving the checkout")
	cmd.Flags().String("goals", "", "Command line run after checkout")
	cmd.Flags().String("goals-directory", "", "Directory, relative to the project, the goals run in")
	versionFlags(cmd, "scm-version", "scm-version-type", "Version to check out")
	_ = cmd.MarkFlagRequired("url")
}

// Execute runs the checkout and the goals.
func (it *BootstrapController) Execute(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	manager, err := it.newManager(stringFlag(cmd, "config"))
	if err != nil {
		return err
	}
	dir, err := filepath.Abs(stringFlag(cmd, "dir"))
	if err != nil {
		return err
	}
	opts := commands.BootstrapOptions{
		URL:              stringFlag(cmd, "url"),
		WorkingDirectory: dir,
		Goals:            stringFlag(cmd, "goals"),
		GoalsDirectory:   stringFlag(cmd, "goals-directory"),
	}
	if name := stringFlag(cmd, "scm-version"); name != "" {
		if opts.Version, err = entities.NewScmVersion(stringFlag(cmd, "scm-version-type"), name); err != nil {
			return err
		}
	}

	result, err := it.command.Execute(ctx, manager, opts)
	if result != nil {
		if renderErr := render(cmd.OutOrStdout(), stringFlag(cmd, "output"), entities.CommandCheckOut, result); renderErr != nil {
			return renderErr
		}
	}
	return err
}

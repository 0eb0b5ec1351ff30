package controllers

import (
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/scmforge/internal/domain/commands"
	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

// ErrInvalidConnection is returned when at least one connection string is invalid.
var ErrInvalidConnection = errors.New("invalid scm connection")

// ValidateController handles the "validate" subcommand.
type ValidateController struct {
	newManager commands.ManagerFactory
}

// NewValidateController creates a new ValidateController.
func NewValidateController(newManager commands.ManagerFactory) *ValidateController {
	return &ValidateController{newManager: newManager}
}

// GetBind returns the Cobra command metadata for the validate controller.
func (it *ValidateController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "validate <url...>",
		Short: "Validate SCM connection strings",
		Long: `Check one or more SCM connection strings without contacting any server.
Every problem found is reported, not only the first one.`,
		Args: cobra.MinimumNArgs(1),
	}
}

// AddFlags adds no flags: validate works on its arguments only.
func (it *ValidateController) AddFlags(_ *cobra.Command) {}

// Execute validates every argument and fails when any of them is invalid.
func (it *ValidateController) Execute(cmd *cobra.Command, args []string) error {
	manager, err := it.newManager(stringFlag(cmd, "config"))
	if err != nil {
		return err
	}
	invalid := 0
	for _, url := range args {
		messages := manager.ValidateScmRepository(url)
		if len(messages) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("valid")+"   "+url)
			continue
		}
		invalid++
		fmt.Fprintln(cmd.OutOrStdout(), failureStyle.Render("invalid")+" "+url)
		for _, message := range messages {
			fmt.Fprintln(cmd.OutOrStdout(), "  - "+message)
		}
	}
	if invalid > 0 {
		logger.Errorf("%d of %d connection strings are invalid", invalid, len(args))
		return fmt.Errorf("%w: %d of %d", ErrInvalidConnection, invalid, len(args))
	}
	return nil
}

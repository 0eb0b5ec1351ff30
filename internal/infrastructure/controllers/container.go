package controllers

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

// RegisterProviders registers all controller providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register controller constructors
	if err := container.Provide(NewGoalControllers); err != nil {
		return err
	}
	if err := container.Provide(NewValidateController); err != nil {
		return err
	}
	if err := container.Provide(NewBootstrapController); err != nil {
		return err
	}
	if err := container.Provide(NewProvidersController); err != nil {
		return err
	}
	if err := container.Provide(NewControllers); err != nil {
		return err
	}

	return nil
}

// NewControllers aggregates all controllers into a slice for the AppInternal.
func NewControllers(
	goalControllers []*GoalController,
	validateController *ValidateController,
	bootstrapController *BootstrapController,
	providersController *ProvidersController,
) *[]entities.Controller {
	controllers := make([]entities.Controller, 0, len(goalControllers)+3)
	for _, c := range goalControllers {
		controllers = append(controllers, c)
	}
	controllers = append(controllers, validateController, bootstrapController, providersController)
	return &controllers
}


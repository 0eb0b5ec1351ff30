package commands

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/scmforge/internal/process"
)

// RegisterProviders registers all command providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register command constructors
	if err := container.Provide(NewManagerFactory); err != nil {
		return err
	}
	if err := container.Provide(func() process.Runner {
		return process.NewExecRunner()
	}); err != nil {
		return err
	}
	if err := container.Provide(NewBootstrapCommand); err != nil {
		return err
	}

	// Bind interfaces to implementations
	if err := container.Provide(func(impl *BootstrapCommand) Bootstrap {
		return impl
	}); err != nil {
		return err
	}

	return nil
}

package repositories

import (
	"errors"
	"sort"

	"go.uber.org/dig"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/accurev"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/bazaar"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/git"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/gogit"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/hg"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/integrity"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/local"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/svn"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/synergy"
)

// RegistryFactory builds the provider registry for one set of settings.
type RegistryFactory func(settings *entities.Settings) (*ProviderRegistry, error)

// builtinProviders is the fixed tag to constructor mapping.
//
//nolint:gochecknoglobals // fixed startup table
var builtinProviders = []struct {
	tag     string
	factory ProviderFactory
}{
	{"accurev", accurev.NewProviderRepository},
	{"bazaar", bazaar.NewProviderRepository},
	{"git", git.NewProviderRepository},
	{"gogit", gogit.NewProviderRepository},
	{"hg", hg.NewProviderRepository},
	{"integrity", integrity.NewProviderRepository},
	{"local", local.NewProviderRepository},
	{"svn", svn.NewProviderRepository},
	{"synergy", synergy.NewProviderRepository},
}

// NewDefaultProviderRegistry registers every built-in provider and applies the
// implementation overrides found in settings.
func NewDefaultProviderRegistry(settings *entities.Settings) (*ProviderRegistry, error) {
	reg := NewProviderRegistry(settings)
	for _, p := range builtinProviders {
		if err := reg.Register(p.tag, p.factory); err != nil {
			return nil, err
		}
	}
	if settings == nil {
		return reg, nil
	}

	tags := make([]string, 0, len(settings.Implementations))
	for tag := range settings.Implementations {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	var errs []error
	for _, tag := range tags {
		if err := reg.SetImplementation(tag, settings.Implementations[tag]); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return reg, nil
}

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	return container.Provide(func() RegistryFactory {
		return NewDefaultProviderRegistry
	})
}

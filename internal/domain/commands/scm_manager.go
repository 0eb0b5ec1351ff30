package commands

import (
	"context"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	domainRepos "github.com/rios0rios0/scmforge/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/scmforge/internal/infrastructure/repositories"
)

const scmPrefix = "scm:"

// Manager is the entry point of the SCM layer: it turns connection strings into
// repositories and dispatches commands to the provider that owns them.
type Manager interface {
	MakeScmRepository(url string) (*entities.ScmRepository, error)
	MakeProviderScmRepository(provider, path string) (*entities.ScmRepository, error)
	ValidateScmRepository(url string) []string
	Execute(
		ctx context.Context,
		cmd entities.CommandName,
		repo *entities.ScmRepository,
		fileSet entities.FileSet,
		params *entities.CommandParameters,
	) (entities.Result, error)
	Logout(ctx context.Context, repo *entities.ScmRepository) (entities.Result, error)
	Providers() []ProviderInfo
}

// ProviderInfo describes one registered provider.
type ProviderInfo struct {
	Tag            string                 `yaml:"tag"`
	Implementation string                 `yaml:"implementation"`
	MetadataFile   string                 `yaml:"metadata_file"`
	Commands       []entities.CommandName `yaml:"commands"`
}

// ManagerFactory builds a manager from the configuration file at path ("" searches the
// default locations).
type ManagerFactory func(configPath string) (Manager, error)

// ScmManager is the default Manager backed by a provider registry.
type ScmManager struct {
	registry *infraRepos.ProviderRegistry
	settings *entities.Settings
}

// NewScmManager creates a manager over registry. Credentials in settings are applied to
// repositories whose descriptors carry no user.
func NewScmManager(registry *infraRepos.ProviderRegistry, settings *entities.Settings) *ScmManager {
	if settings == nil {
		settings = entities.NewDefaultSettings()
	}
	return &ScmManager{registry: registry, settings: settings}
}

// NewManagerFactory loads settings and builds the registry for every manager it creates.
func NewManagerFactory(newRegistry infraRepos.RegistryFactory) ManagerFactory {
	return func(configPath string) (Manager, error) {
		settings, err := entities.LoadSettings(configPath)
		if err != nil {
			return nil, err
		}
		registry, err := newRegistry(settings)
		if err != nil {
			return nil, fmt.Errorf("failed to build provider registry: %w", err)
		}
		return NewScmManager(registry, settings), nil
	}
}

// splitScmURL separates "scm:<provider><d><rest>" into its parts. The delimiter is the
// first ':' or '|' after the provider tag.
func splitScmURL(url string) (string, rune, string, []string) {
	rest, found := strings.CutPrefix(url, scmPrefix)
	if !found {
		return "", 0, "", []string{fmt.Sprintf("the scm url must start with %q", scmPrefix)}
	}
	idx := strings.IndexAny(rest, ":|")
	if idx < 0 {
		return "", 0, "", []string{"the scm url has no provider delimiter (':' or '|') after the provider"}
	}
	provider := rest[:idx]
	if provider == "" {
		return "", 0, "", []string{"the scm url does not define a provider"}
	}
	return provider, rune(rest[idx]), rest[idx+1:], nil
}

// MakeScmRepository parses url and binds the resulting descriptor to its provider.
func (it *ScmManager) MakeScmRepository(url string) (*entities.ScmRepository, error) {
	tag, delimiter, rest, messages := splitScmURL(strings.TrimSpace(url))
	if len(messages) > 0 {
		return nil, entities.NewValidationError(url, messages)
	}
	provider, err := it.registry.Get(tag)
	if err != nil {
		return nil, err
	}
	descriptor, err := provider.MakeRepository(rest, delimiter)
	if err != nil {
		return nil, err
	}
	it.applyDefaults(descriptor)
	return entities.NewScmRepository(tag, descriptor), nil
}

// MakeProviderScmRepository builds a repository from an existing working copy at path.
func (it *ScmManager) MakeProviderScmRepository(tag, path string) (*entities.ScmRepository, error) {
	provider, err := it.registry.Get(tag)
	if err != nil {
		return nil, err
	}
	descriptor, err := provider.MakeRepositoryFromPath(path)
	if err != nil {
		return nil, err
	}
	it.applyDefaults(descriptor)
	return entities.NewScmRepository(tag, descriptor), nil
}

// ValidateScmRepository returns every problem found in url; an empty slice means it is valid.
func (it *ScmManager) ValidateScmRepository(url string) []string {
	tag, delimiter, rest, messages := splitScmURL(strings.TrimSpace(url))
	if len(messages) > 0 {
		return messages
	}
	provider, err := it.registry.Get(tag)
	if err != nil {
		return []string{err.Error()}
	}
	return provider.ValidateURL(rest, delimiter)
}

// Execute dispatches cmd to the provider of repo. Failed tool runs come back as an
// unsuccessful result; the error is reserved for structural failures.
func (it *ScmManager) Execute(
	ctx context.Context,
	cmd entities.CommandName,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	if _, err := entities.ParseCommandName(string(cmd)); err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, entities.NewScmError(string(cmd), fmt.Errorf("%w: nil repository", entities.ErrRepositoryType))
	}
	provider, err := it.registry.Get(repo.Provider())
	if err != nil {
		return nil, err
	}
	if !provider.Supports(cmd) {
		return nil, &entities.UnsupportedCommandError{Provider: provider.Name(), Command: cmd}
	}
	if params == nil {
		params = entities.NewCommandParameters()
	}

	logger.Debugf("[%s] Executing %s in %s", repo.Provider(), cmd, fileSet)
	return provider.Execute(ctx, cmd, repo.Descriptor(), fileSet, params)
}

// Logout closes the session of providers that keep one; others succeed without work.
func (it *ScmManager) Logout(ctx context.Context, repo *entities.ScmRepository) (entities.Result, error) {
	if repo == nil {
		return nil, entities.NewScmError("logout", fmt.Errorf("%w: nil repository", entities.ErrRepositoryType))
	}
	provider, err := it.registry.Get(repo.Provider())
	if err != nil {
		return nil, err
	}
	session, ok := provider.(domainRepos.SessionProvider)
	if !ok {
		return entities.NewScmResult("", "The provider keeps no session.", "", true), nil
	}
	return session.Logout(ctx, repo.Descriptor())
}

// Providers lists every registered provider with the commands it supports.
func (it *ScmManager) Providers() []ProviderInfo {
	var infos []ProviderInfo
	for _, tag := range it.registry.Names() {
		provider, err := it.registry.Get(tag)
		if err != nil {
			logger.Warnf("[%s] Provider unavailable: %v", tag, err)
			continue
		}
		info := ProviderInfo{
			Tag:            tag,
			Implementation: it.registry.Implementation(tag),
			MetadataFile:   provider.ScmSpecificFilename(),
		}
		for _, cmd := range entities.AllCommandNames() {
			if provider.Supports(cmd) {
				info.Commands = append(info.Commands, cmd)
			}
		}
		infos = append(infos, info)
	}
	return infos
}

// applyDefaults fills credentials configured for the descriptor's host and the default
// push behaviour.
func (it *ScmManager) applyDefaults(descriptor entities.RepositoryDescriptor) {
	base := descriptor.Base()
	if it.settings.Defaults != nil && it.settings.Defaults.PushChanges != nil {
		base.PushChanges = *it.settings.Defaults.PushChanges
	}
	if base.User != "" || base.Host == "" {
		return
	}
	creds, ok := it.settings.CredentialsFor(base.Host)
	if !ok {
		return
	}
	logger.Debugf("Using configured credentials of %s for %s", creds.User, base.Host)
	base.User = creds.User
	base.Password = creds.Password
	base.PrivateKey = creds.PrivateKey
	base.Passphrase = creds.Passphrase
}

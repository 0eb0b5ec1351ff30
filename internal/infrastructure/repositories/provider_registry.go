package repositories

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	domainRepos "github.com/rios0rios0/scmforge/internal/domain/repositories"
)

// ErrRegistrySealed is returned when the registry is changed after it started serving lookups.
var ErrRegistrySealed = errors.New("provider registry is sealed")

// ProviderFactory is a constructor function that creates a ProviderRepository from the settings.
type ProviderFactory func(settings *entities.Settings) domainRepos.ProviderRepository

// ProviderRegistry manages all registered SCM provider implementations.
// It is populated at startup; the first Get seals it against further changes.
type ProviderRegistry struct {
	mu              sync.RWMutex
	settings        *entities.Settings
	providers       map[string]ProviderFactory
	implementations map[string]string
	instances       map[string]domainRepos.ProviderRepository
	sealed          bool
}

// NewProviderRegistry creates an empty provider registry.
func NewProviderRegistry(settings *entities.Settings) *ProviderRegistry {
	if settings == nil {
		settings = entities.NewDefaultSettings()
	}
	return &ProviderRegistry{
		settings:        settings,
		providers:       make(map[string]ProviderFactory),
		implementations: make(map[string]string),
		instances:       make(map[string]domainRepos.ProviderRepository),
	}
}

// Register adds a provider factory under the given tag (e.g. "svn").
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("%w: cannot register %q", ErrRegistrySealed, name)
	}
	r.providers[name] = factory
	return nil
}

// SetImplementation routes tag to the provider registered as impl (e.g. "git" -> "gogit").
func (r *ProviderRegistry) SetImplementation(tag, impl string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("%w: cannot override %q", ErrRegistrySealed, tag)
	}
	if _, ok := r.providers[impl]; !ok {
		return &entities.NoSuchProviderError{Tag: impl}
	}
	r.implementations[tag] = impl
	return nil
}

// Get returns the provider responsible for tag.
func (r *ProviderRegistry) Get(tag string) (domainRepos.ProviderRepository, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true

	impl := r.resolve(tag)
	if instance, ok := r.instances[impl]; ok {
		return instance, nil
	}
	factory, ok := r.providers[impl]
	if !ok {
		return nil, &entities.NoSuchProviderError{Tag: tag}
	}
	instance := factory(r.settings)
	r.instances[impl] = instance
	return instance, nil
}

// Implementation returns the provider tag that serves tag after overrides.
func (r *ProviderRegistry) Implementation(tag string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(tag)
}

// Names returns the registered provider tags, sorted.
func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *ProviderRegistry) resolve(tag string) string {
	if impl, ok := r.implementations[tag]; ok {
		return impl
	}
	return tag
}

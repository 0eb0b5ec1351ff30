//go:build unit

package repositories_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	domainRepos "github.com/rios0rios0/scmforge/internal/domain/repositories"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories"
	doubles "github.com/rios0rios0/scmforge/test/infrastructure/repositorydoubles"
)

func spyFactory(name string, created *int) repositories.ProviderFactory {
	return func(*entities.Settings) domainRepos.ProviderRepository {
		*created++
		return &doubles.SpyProviderRepository{ProviderName: name}
	}
}

func TestProviderRegistry(t *testing.T) {
	t.Parallel()

	t.Run("should fail with ErrNoSuchProvider for an unknown tag", func(t *testing.T) {
		t.Parallel()

		// given
		registry := repositories.NewProviderRegistry(nil)

		// when
		_, err := registry.Get("nonexistent")

		// then
		require.ErrorIs(t, err, entities.ErrNoSuchProvider)
		var noSuch *entities.NoSuchProviderError
		require.ErrorAs(t, err, &noSuch)
		assert.Equal(t, "nonexistent", noSuch.Tag)
	})

	t.Run("should build each provider once and reuse it", func(t *testing.T) {
		t.Parallel()

		// given
		created := 0
		registry := repositories.NewProviderRegistry(nil)
		require.NoError(t, registry.Register("spy", spyFactory("spy", &created)))

		// when
		first, firstErr := registry.Get("spy")
		second, secondErr := registry.Get("spy")

		// then
		require.NoError(t, firstErr)
		require.NoError(t, secondErr)
		assert.Same(t, first, second)
		assert.Equal(t, 1, created)
	})

	t.Run("should route an overridden tag to its implementation", func(t *testing.T) {
		t.Parallel()

		// given
		created := 0
		registry := repositories.NewProviderRegistry(nil)
		require.NoError(t, registry.Register("git", spyFactory("git", &created)))
		require.NoError(t, registry.Register("gogit", spyFactory("gogit", &created)))
		require.NoError(t, registry.SetImplementation("git", "gogit"))

		// when
		provider, err := registry.Get("git")

		// then
		require.NoError(t, err)
		assert.Equal(t, "gogit", provider.(*doubles.SpyProviderRepository).ProviderName)
		assert.Equal(t, "gogit", registry.Implementation("git"))
		assert.Equal(t, "svn", registry.Implementation("svn"))
	})

	t.Run("should refuse an override to an unregistered implementation", func(t *testing.T) {
		t.Parallel()

		// given
		registry := repositories.NewProviderRegistry(nil)

		// when
		err := registry.SetImplementation("git", "jgit")

		// then
		require.ErrorIs(t, err, entities.ErrNoSuchProvider)
	})

	t.Run("should be sealed after the first lookup", func(t *testing.T) {
		t.Parallel()

		// given
		created := 0
		registry := repositories.NewProviderRegistry(nil)
		require.NoError(t, registry.Register("spy", spyFactory("spy", &created)))
		_, _ = registry.Get("spy")

		// when
		registerErr := registry.Register("late", spyFactory("late", &created))
		overrideErr := registry.SetImplementation("spy", "spy")

		// then
		require.ErrorIs(t, registerErr, repositories.ErrRegistrySealed)
		require.ErrorIs(t, overrideErr, repositories.ErrRegistrySealed)
		assert.Equal(t, []string{"spy"}, registry.Names())
	})
}

func TestNewDefaultProviderRegistry(t *testing.T) {
	t.Parallel()

	t.Run("should register every built-in provider", func(t *testing.T) {
		t.Parallel()

		// when
		registry, err := repositories.NewDefaultProviderRegistry(nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{
			"accurev", "bazaar", "git", "gogit", "hg", "integrity", "local", "svn", "synergy",
		}, registry.Names())
	})

	t.Run("should apply the implementation overrides of the settings", func(t *testing.T) {
		t.Parallel()

		// given
		settings := entities.NewDefaultSettings()
		settings.Implementations["git"] = "gogit"

		// when
		registry, err := repositories.NewDefaultProviderRegistry(settings)

		// then
		require.NoError(t, err)
		assert.Equal(t, "gogit", registry.Implementation("git"))
	})

	t.Run("should join the errors of every bad override", func(t *testing.T) {
		t.Parallel()

		// given
		settings := entities.NewDefaultSettings()
		settings.Implementations["git"] = "jgit"
		settings.Implementations["svn"] = "svnkit"

		// when
		_, err := repositories.NewDefaultProviderRegistry(settings)

		// then
		require.ErrorIs(t, err, entities.ErrNoSuchProvider)
		assert.Contains(t, err.Error(), "jgit")
		assert.Contains(t, err.Error(), "svnkit")
	})
}

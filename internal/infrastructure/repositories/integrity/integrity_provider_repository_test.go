//go:build unit

package integrity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/integrity"
	"github.com/rios0rios0/scmforge/test/infrastructure/repositorydoubles"
)

func newProvider(t *testing.T, responses map[string]repositorydoubles.FakeResponse) (
	*repositorydoubles.FakeTool, func(entities.CommandName, entities.FileSet, *entities.CommandParameters) (entities.Result, error),
) {
	t.Helper()
	fake := repositorydoubles.NewFakeTool(t, "si", responses)
	settings := entities.NewDefaultSettings()
	settings.Executables["integrity"] = fake.Path
	provider := integrity.NewProviderRepository(settings)

	repo, err := provider.MakeRepository("frank/s3cret@mks.example.com:7001|#/Projects/app", '|')
	require.NoError(t, err)

	execute := func(cmd entities.CommandName, fileSet entities.FileSet, params *entities.CommandParameters) (entities.Result, error) {
		return provider.Execute(context.Background(), cmd, repo, fileSet, params)
	}
	return fake, execute
}

func TestParseRepository(t *testing.T) {
	t.Parallel()

	t.Run("should parse the server prefix and the configuration path", func(t *testing.T) {
		t.Parallel()

		// given
		url := "frank/s3cret@mks.example.com:7001|#/Projects/app"

		// when
		repo, messages := integrity.ParseRepository(url)

		// then
		require.Empty(t, messages)
		assert.Equal(t, "frank", repo.User)
		assert.Equal(t, "s3cret", repo.Password)
		assert.Equal(t, "mks.example.com", repo.Host)
		assert.Equal(t, 7001, repo.Port)
		assert.Equal(t, "#/Projects/app", repo.ConfigPath)
		assert.Equal(t, "frank@mks.example.com:7001|#/Projects/app", repo.String())
	})

	t.Run("should accept a bare configuration path", func(t *testing.T) {
		t.Parallel()

		// when
		repo, messages := integrity.ParseRepository("/srv/mks/app/project.pj")

		// then
		require.Empty(t, messages)
		assert.Empty(t, repo.Host)
	})

	t.Run("should reject an empty configuration path", func(t *testing.T) {
		t.Parallel()

		// when
		repo, messages := integrity.ParseRepository("mks.example.com:bad|")

		// then
		assert.Nil(t, repo)
		assert.Len(t, messages, 2)
	})
}

func TestProviderRepository_Edit(t *testing.T) {
	t.Parallel()

	t.Run("should lock the selected members", func(t *testing.T) {
		t.Parallel()

		// given
		fake, execute := newProvider(t, nil)
		dir := t.TempDir()

		// when
		result, err := execute(entities.CommandEdit, entities.NewFileSet(dir, "src/a.c"), nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, []entities.ScmFile{entities.NewScmFile("src/a.c", entities.StatusLocked)},
			result.(*entities.EditResult).EditFiles())
		assert.True(t, fake.Invoked("lock --hostname=mks.example.com --port=7001 --user=frank --password=s3cret --sandbox="+dir+"/project.pj --yes src/a.c"))
		assert.NotContains(t, result.CommandLine(), "s3cret")
	})

	t.Run("should require an explicit selection", func(t *testing.T) {
		t.Parallel()

		// given
		_, execute := newProvider(t, nil)

		// when
		_, err := execute(entities.CommandUnedit, entities.NewFileSet(t.TempDir()), nil)

		// then
		assert.True(t, errors.Is(err, entities.ErrMissingParameter))
	})
}

func TestProviderRepository_CheckIn(t *testing.T) {
	t.Parallel()

	t.Run("should check in the changed members when nothing is selected", func(t *testing.T) {
		t.Parallel()

		// given
		fake, execute := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"viewsandbox": {Stdout: "src/a.c\tWorking file modified\nsrc/b.c\tWorking file missing\nsrc/c.c\t"},
		})
		params := entities.NewCommandParameters().MustSet(entities.ParamMessage, "fix build")

		// when
		result, err := execute(entities.CommandCheckIn, entities.NewFileSet(t.TempDir()), params)

		// then
		require.NoError(t, err)
		assert.Equal(t, []entities.ScmFile{
			entities.NewScmFile("src/a.c", entities.StatusCheckedIn),
			entities.NewScmFile("src/b.c", entities.StatusCheckedIn),
		}, result.(*entities.CheckInResult).CheckedInFiles())
		assert.True(t, fake.Invoked("ci "))
	})

	t.Run("should succeed without running ci when nothing changed", func(t *testing.T) {
		t.Parallel()

		// given
		fake, execute := newProvider(t, nil)
		params := entities.NewCommandParameters().MustSet(entities.ParamMessage, "noop")

		// when
		result, err := execute(entities.CommandCheckIn, entities.NewFileSet(t.TempDir()), params)

		// then
		require.NoError(t, err)
		assert.True(t, result.IsSuccess())
		assert.False(t, fake.Invoked("ci "))
	})
}

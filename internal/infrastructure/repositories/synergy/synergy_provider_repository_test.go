//go:build unit

package synergy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	domainRepos "github.com/rios0rios0/scmforge/internal/domain/repositories"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/synergy"
	"github.com/rios0rios0/scmforge/test/infrastructure/repositorydoubles"
)

type fixture struct {
	fake     *repositorydoubles.FakeTool
	provider domainRepos.ProviderRepository
	repo     *synergy.Repository
}

func newFixture(t *testing.T, responses map[string]repositorydoubles.FakeResponse) *fixture {
	t.Helper()
	fake := repositorydoubles.NewFakeTool(t, "ccm", responses)
	settings := entities.NewDefaultSettings()
	settings.Executables["synergy"] = fake.Path
	provider := synergy.NewProviderRepository(settings)

	repo, err := provider.MakeRepository("app~1.0:proddb:bob:build_mgr", ':')
	require.NoError(t, err)
	return &fixture{fake: fake, provider: provider, repo: repo.(*synergy.Repository)}
}

func (f *fixture) execute(cmd entities.CommandName, fileSet entities.FileSet, params *entities.CommandParameters) (entities.Result, error) {
	return f.provider.Execute(context.Background(), cmd, f.repo, fileSet, params)
}

func TestParseRepository(t *testing.T) {
	t.Parallel()

	t.Run("should parse every field", func(t *testing.T) {
		t.Parallel()

		// when
		repo, messages := synergy.ParseRepository("app~1.0:proddb:bob:build_mgr", ':')

		// then
		require.Empty(t, messages)
		assert.Equal(t, "app~1.0", repo.ProjectSpec)
		assert.Equal(t, "proddb", repo.Database)
		assert.Equal(t, "bob", repo.User)
		assert.Equal(t, "build_mgr", repo.Role)
	})

	t.Run("should default the role to developer", func(t *testing.T) {
		t.Parallel()

		// when
		repo, messages := synergy.ParseRepository("app~1.0|proddb|bob", '|')

		// then
		require.Empty(t, messages)
		assert.Equal(t, "developer", repo.Role)
		assert.Equal(t, "app~1.0|proddb|bob|developer", repo.String())
	})

	t.Run("should report a project without version and a missing database", func(t *testing.T) {
		t.Parallel()

		// when
		repo, messages := synergy.ParseRepository("app|", '|')

		// then
		assert.Nil(t, repo)
		assert.Len(t, messages, 2)
	})

	t.Run("should reject a single field", func(t *testing.T) {
		t.Parallel()

		// when
		_, messages := synergy.ParseRepository("app~1.0", ':')

		// then
		assert.Len(t, messages, 1)
	})
}

func TestProviderRepository_Login(t *testing.T) {
	t.Parallel()

	t.Run("should keep the session address returned by ccm start", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t, map[string]repositorydoubles.FakeResponse{
			"start": {Stdout: "ccmhost:40123:10.0.0.7\n"},
		})
		params := entities.NewCommandParameters().MustSet(entities.ParamPassword, "hunter2")

		// when
		result, err := f.execute(entities.CommandLogin, entities.NewFileSet(t.TempDir()), params)

		// then
		require.NoError(t, err)
		assert.True(t, result.IsSuccess())
		assert.Equal(t, "ccmhost:40123:10.0.0.7", result.(*entities.LoginResult).Token())
		assert.Equal(t, "ccmhost:40123:10.0.0.7", f.repo.CcmAddr)
		assert.True(t, f.fake.Invoked("start -m -q -nogui -d proddb -r build_mgr -n bob -pw hunter2"))
		assert.NotContains(t, result.CommandLine(), "hunter2")
	})

	t.Run("should refuse commands before a session was started", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t, nil)

		// when
		_, err := f.execute(entities.CommandEdit, entities.NewFileSet(t.TempDir(), "src/a.c"), nil)

		// then
		assert.True(t, errors.Is(err, entities.ErrNotLoggedIn))
		assert.Empty(t, f.fake.Invocations())
	})

	t.Run("should stop the session on logout", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t, nil)
		f.repo.CcmAddr = "ccmhost:40123:10.0.0.7"
		session, ok := f.provider.(domainRepos.SessionProvider)
		require.True(t, ok)

		// when
		result, err := session.Logout(context.Background(), f.repo)

		// then
		require.NoError(t, err)
		assert.True(t, result.IsSuccess())
		assert.Empty(t, f.repo.CcmAddr)
		assert.True(t, f.fake.Invoked("stop"))
	})
}

func TestProviderRepository_Edit(t *testing.T) {
	t.Parallel()

	t.Run("should check out the selected objects", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t, nil)
		f.repo.CcmAddr = "ccmhost:40123:10.0.0.7"

		// when
		result, err := f.execute(entities.CommandEdit, entities.NewFileSet(t.TempDir(), "src/a.c"), nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, []entities.ScmFile{entities.NewScmFile("src/a.c", entities.StatusCheckedOut)},
			result.(*entities.EditResult).EditFiles())
		assert.True(t, f.fake.Invoked("checkout src/a.c"))
	})
}

func TestProviderRepository_CheckIn(t *testing.T) {
	t.Parallel()

	t.Run("should check in the working objects when nothing is selected", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t, map[string]repositorydoubles.FakeResponse{
			"query": {Stdout: "src/a.c|working\nsrc/b.c|integrate\n"},
		})
		f.repo.CcmAddr = "ccmhost:40123:10.0.0.7"
		params := entities.NewCommandParameters().MustSet(entities.ParamMessage, "fix build")

		// when
		result, err := f.execute(entities.CommandCheckIn, entities.NewFileSet(t.TempDir()), params)

		// then
		require.NoError(t, err)
		assert.Equal(t, []entities.ScmFile{entities.NewScmFile("src/a.c", entities.StatusCheckedIn)},
			result.(*entities.CheckInResult).CheckedInFiles())
		assert.True(t, f.fake.Invoked("checkin -c fix build src/a.c"))
	})
}

func TestProviderRepository_Update(t *testing.T) {
	t.Parallel()

	t.Run("should report every replaced object", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t, map[string]repositorydoubles.FakeResponse{
			"update": {Stdout: "Refreshing baseline and tasks for project grouping\n" +
				"main.c-3:csrc:1 replaces main.c-2:csrc:1 in app-1.0\n" +
				"util.h-5:incl:1 replaces util.h-4:incl:1 in app-1.0\n"},
		})
		f.repo.CcmAddr = "ccmhost:40123:10.0.0.7"

		// when
		result, err := f.execute(entities.CommandUpdate, entities.NewFileSet(t.TempDir()), nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, []entities.ScmFile{
			entities.NewScmFile("main.c", entities.StatusUpdated),
			entities.NewScmFile("util.h", entities.StatusUpdated),
		}, result.(*entities.UpdateResult).UpdatedFiles())
		assert.True(t, f.fake.Invoked("update -r -p app~1.0"))
	})
}

//go:build unit

package hg_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/hg"
	"github.com/rios0rios0/scmforge/test/infrastructure/repositorydoubles"
)

func newProvider(t *testing.T, pushChanges bool, responses map[string]repositorydoubles.FakeResponse) (
	*repositorydoubles.FakeTool, func(entities.CommandName, entities.FileSet, *entities.CommandParameters) (entities.Result, error),
) {
	t.Helper()
	fake := repositorydoubles.NewFakeTool(t, "hg", responses)
	settings := entities.NewDefaultSettings()
	settings.Executables["hg"] = fake.Path
	provider := hg.NewProviderRepository(settings)

	repo, err := provider.MakeRepository("https://carol:pw@hg.example.com/project", ':')
	require.NoError(t, err)
	repo.Base().PushChanges = pushChanges

	execute := func(cmd entities.CommandName, fileSet entities.FileSet, params *entities.CommandParameters) (entities.Result, error) {
		return provider.Execute(context.Background(), cmd, repo, fileSet, params)
	}
	return fake, execute
}

func TestParseRepository(t *testing.T) {
	t.Parallel()

	t.Run("should move credentials out of the url and put them back for the wire", func(t *testing.T) {
		t.Parallel()

		// given
		url := "https://carol:pw@hg.example.com/project"

		// when
		repo, messages := hg.ParseRepository(url)

		// then
		require.Empty(t, messages)
		assert.Equal(t, "https://hg.example.com/project", repo.URL)
		assert.Equal(t, "carol", repo.User)
		assert.Equal(t, url, hg.AuthenticatedURL(repo))
	})

	t.Run("should accept an absolute local path", func(t *testing.T) {
		t.Parallel()

		// given
		path := "/srv/hg/project"

		// when
		repo, messages := hg.ParseRepository(path)

		// then
		require.Empty(t, messages)
		assert.Equal(t, path, repo.URL)
	})

	t.Run("should reject relative paths and unknown schemes", func(t *testing.T) {
		t.Parallel()

		// given
		urls := []string{"relative/project", "ftp://hg.example.com/project", ""}

		for _, url := range urls {
			// when
			repo, messages := hg.ParseRepository(url)

			// then
			assert.Nil(t, repo)
			assert.Len(t, messages, 1, url)
		}
	})
}

func TestProviderRepository_Diff(t *testing.T) {
	t.Parallel()

	t.Run("should treat exit code one as a successful diff", func(t *testing.T) {
		t.Parallel()

		// given
		_, execute := newProvider(t, false, map[string]repositorydoubles.FakeResponse{
			"diff": {Stdout: "diff --git a/a.txt b/a.txt\n--- a/a.txt\n+++ b/a.txt\n@@ -1 +1 @@\n-old\n+new", ExitCode: 1},
		})

		// when
		result, err := execute(entities.CommandDiff, entities.NewFileSet(t.TempDir()), nil)

		// then
		require.NoError(t, err)
		require.True(t, result.IsSuccess())
		assert.Equal(t, []entities.ScmFile{entities.NewScmFile("a.txt", entities.StatusModified)},
			result.(*entities.DiffResult).ChangedFiles())
	})

	t.Run("should fail on any other exit code", func(t *testing.T) {
		t.Parallel()

		// given
		_, execute := newProvider(t, false, map[string]repositorydoubles.FakeResponse{
			"diff": {Stderr: "abort: unknown revision 'nope'", ExitCode: 255},
		})

		// when
		result, err := execute(entities.CommandDiff, entities.NewFileSet(t.TempDir()), nil)

		// then
		require.NoError(t, err)
		assert.False(t, result.IsSuccess())
		assert.Equal(t, "abort: unknown revision 'nope'", result.CommandOutput())
	})
}

func TestProviderRepository_Status(t *testing.T) {
	t.Parallel()

	t.Run("should map hg status codes", func(t *testing.T) {
		t.Parallel()

		// given
		_, execute := newProvider(t, false, map[string]repositorydoubles.FakeResponse{
			"status": {Stdout: "M a.txt\nA b.txt\nR c.txt\n! d.txt\n? e.txt"},
		})

		// when
		result, err := execute(entities.CommandStatus, entities.NewFileSet(t.TempDir()), nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, []entities.ScmFile{
			entities.NewScmFile("a.txt", entities.StatusModified),
			entities.NewScmFile("b.txt", entities.StatusAdded),
			entities.NewScmFile("c.txt", entities.StatusDeleted),
			entities.NewScmFile("d.txt", entities.StatusDeleted),
			entities.NewScmFile("e.txt", entities.StatusUnknown),
		}, result.(*entities.StatusResult).ChangedFiles())
	})
}

func TestProviderRepository_CheckIn(t *testing.T) {
	t.Parallel()

	t.Run("should skip the push when nothing is outgoing", func(t *testing.T) {
		t.Parallel()

		// given
		fake, execute := newProvider(t, true, map[string]repositorydoubles.FakeResponse{
			"commit":   {Stdout: "committing files:\na.txt\nb.txt\ncommitting manifest\ncommitting changelog\ncommitted changeset 4:9f1c2d3e4b5a"},
			"outgoing": {Stdout: "no changes found", ExitCode: 1},
		})
		params := entities.NewCommandParameters().MustSet(entities.ParamMessage, "fix")

		// when
		result, err := execute(entities.CommandCheckIn, entities.NewFileSet(t.TempDir()), params)

		// then
		require.NoError(t, err)
		checkIn := result.(*entities.CheckInResult)
		require.True(t, checkIn.IsSuccess())
		assert.Equal(t, "9f1c2d3e4b5a", checkIn.Revision())
		assert.Len(t, checkIn.CheckedInFiles(), 2)
		assert.True(t, fake.Invoked("commit --noninteractive --verbose --logfile"))
		assert.False(t, fake.Invoked("push"))
	})

	t.Run("should push when outgoing reports change sets", func(t *testing.T) {
		t.Parallel()

		// given
		fake, execute := newProvider(t, true, map[string]repositorydoubles.FakeResponse{
			"commit":   {Stdout: "committing files:\na.txt\ncommitted changeset 5:abcdef"},
			"outgoing": {Stdout: "changeset: 5:abcdef"},
		})
		params := entities.NewCommandParameters().MustSet(entities.ParamMessage, "fix")

		// when
		result, err := execute(entities.CommandCheckIn, entities.NewFileSet(t.TempDir()), params)

		// then
		require.NoError(t, err)
		assert.True(t, result.IsSuccess())
		assert.True(t, fake.Invoked("push --noninteractive https://carol:pw@hg.example.com/project"))
	})
}

func TestProviderRepository_ChangeLog(t *testing.T) {
	t.Parallel()

	t.Run("should parse templated log output", func(t *testing.T) {
		t.Parallel()

		// given
		_, execute := newProvider(t, false, map[string]repositorydoubles.FakeResponse{
			"log": {Stdout: "@@@abc123\tcarol\t1709288130 0\tfirst line\nA\tnew.txt\nM\ta.txt\n@@@def456\tdan\t1709200000 -3600\tolder\nD\told.txt"},
		})

		// when
		result, err := execute(entities.CommandChangeLog, entities.NewFileSet(t.TempDir()), nil)

		// then
		require.NoError(t, err)
		sets := result.(*entities.ChangeLogResult).ChangeLog().ChangeSets
		require.Len(t, sets, 2)
		assert.Equal(t, "abc123", sets[0].Revision)
		assert.Equal(t, "2024/03/01 10:15:30", entities.FormatTimestamp(sets[0].Date))
		assert.Equal(t, entities.StatusAdded, sets[0].Files[0].Action)
		assert.Equal(t, entities.StatusModified, sets[0].Files[1].Action)
		require.Len(t, sets[1].Files, 1)
		assert.Equal(t, "old.txt", sets[1].Files[0].Name)
		assert.Equal(t, entities.StatusDeleted, sets[1].Files[0].Action)
	})
}

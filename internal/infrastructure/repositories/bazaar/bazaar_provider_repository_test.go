//go:build unit

package bazaar_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/bazaar"
	"github.com/rios0rios0/scmforge/test/infrastructure/repositorydoubles"
)

func newProvider(t *testing.T, responses map[string]repositorydoubles.FakeResponse) (
	*repositorydoubles.FakeTool, func(entities.CommandName, entities.FileSet, *entities.CommandParameters) (entities.Result, error),
) {
	t.Helper()
	fake := repositorydoubles.NewFakeTool(t, "bzr", responses)
	settings := entities.NewDefaultSettings()
	settings.Executables["bazaar"] = fake.Path
	provider := bazaar.NewProviderRepository(settings)

	repo, err := provider.MakeRepository("bzr+ssh://bzr.example.com/project/trunk", ':')
	require.NoError(t, err)

	execute := func(cmd entities.CommandName, fileSet entities.FileSet, params *entities.CommandParameters) (entities.Result, error) {
		return provider.Execute(context.Background(), cmd, repo, fileSet, params)
	}
	return fake, execute
}

func TestProviderRepository_Diff(t *testing.T) {
	t.Parallel()

	t.Run("should accept exit code one and split the patch per file", func(t *testing.T) {
		t.Parallel()

		// given
		_, execute := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"diff": {ExitCode: 1, Stdout: "=== added file 'b.txt'\n--- b.txt\t1970-01-01 00:00:00 +0000\n+++ b.txt\t2024-03-01 10:00:00 +0000\n@@ -0,0 +1 @@\n+b\n" +
				"=== modified file 'a.txt'\n--- a.txt\t2024-02-01 00:00:00 +0000\n+++ a.txt\t2024-03-01 10:00:00 +0000\n@@ -1 +1 @@\n-old\n+new"},
		})

		// when
		result, err := execute(entities.CommandDiff, entities.NewFileSet(t.TempDir()), nil)

		// then
		require.NoError(t, err)
		require.True(t, result.IsSuccess())
		diff := result.(*entities.DiffResult)
		assert.Equal(t, []entities.ScmFile{
			entities.NewScmFile("b.txt", entities.StatusAdded),
			entities.NewScmFile("a.txt", entities.StatusModified),
		}, diff.ChangedFiles())
		assert.Contains(t, diff.Differences()["a.txt"], "+new")
	})

	t.Run("should fail on exit code three", func(t *testing.T) {
		t.Parallel()

		// given
		_, execute := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"diff": {ExitCode: 3, Stderr: "bzr: ERROR: Not a branch"},
		})

		// when
		result, err := execute(entities.CommandDiff, entities.NewFileSet(t.TempDir()), nil)

		// then
		require.NoError(t, err)
		assert.False(t, result.IsSuccess())
	})
}

func TestProviderRepository_Status(t *testing.T) {
	t.Parallel()

	t.Run("should read the short status columns", func(t *testing.T) {
		t.Parallel()

		// given
		_, execute := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"status": {Stdout: "+N  new.txt\n M  a.txt\n-D  gone.txt\n?   scratch.txt\nC   clash.txt\nR   old.txt => renamed.txt"},
		})

		// when
		result, err := execute(entities.CommandStatus, entities.NewFileSet(t.TempDir()), nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, []entities.ScmFile{
			entities.NewScmFile("new.txt", entities.StatusAdded),
			entities.NewScmFile("a.txt", entities.StatusModified),
			entities.NewScmFile("gone.txt", entities.StatusDeleted),
			entities.NewScmFile("scratch.txt", entities.StatusUnknown),
			entities.NewScmFile("clash.txt", entities.StatusConflict),
			entities.NewScmFile("renamed.txt", entities.StatusModified),
		}, result.(*entities.StatusResult).ChangedFiles())
	})
}

func TestProviderRepository_CheckIn(t *testing.T) {
	t.Parallel()

	t.Run("should read the committed files from stderr", func(t *testing.T) {
		t.Parallel()

		// given
		_, execute := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"commit": {Stderr: "Committing to: bzr+ssh://bzr.example.com/project/trunk/\nmodified a.txt\nadded b.txt\nCommitted revision 8."},
		})
		params := entities.NewCommandParameters().MustSet(entities.ParamMessage, "release")

		// when
		result, err := execute(entities.CommandCheckIn, entities.NewFileSet(t.TempDir()), params)

		// then
		require.NoError(t, err)
		checkIn := result.(*entities.CheckInResult)
		assert.Equal(t, "8", checkIn.Revision())
		assert.Equal(t, []entities.ScmFile{
			entities.NewScmFile("a.txt", entities.StatusCheckedIn),
			entities.NewScmFile("b.txt", entities.StatusCheckedIn),
		}, checkIn.CheckedInFiles())
	})
}

func TestProviderRepository_ChangeLog(t *testing.T) {
	t.Parallel()

	t.Run("should parse the long log format", func(t *testing.T) {
		t.Parallel()

		// given
		fake, execute := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"log": {Stdout: `------------------------------------------------------------
revno: 2
committer: Erin <erin@example.com>
branch nick: trunk
timestamp: Fri 2024-03-01 10:15:30 +0000
message:
  add b
  and tweak a
added:
  b.txt
modified:
  a.txt
------------------------------------------------------------
revno: 1
committer: Erin <erin@example.com>
branch nick: trunk
timestamp: Thu 2024-02-29 09:00:00 +0000
message:
  initial`},
		})
		params := entities.NewCommandParameters().MustSet(entities.ParamStartScmVersion, entities.NewScmTag("1.0"))

		// when
		result, err := execute(entities.CommandChangeLog, entities.NewFileSet(t.TempDir()), params)

		// then
		require.NoError(t, err)
		sets := result.(*entities.ChangeLogResult).ChangeLog().ChangeSets
		require.Len(t, sets, 2)
		assert.Equal(t, "2", sets[0].Revision)
		assert.Equal(t, "Erin <erin@example.com>", sets[0].Author)
		assert.Equal(t, "add b\nand tweak a", sets[0].Comment)
		assert.Equal(t, "2024/03/01 10:15:30", entities.FormatTimestamp(sets[0].Date))
		require.Len(t, sets[0].Files, 2)
		assert.Equal(t, entities.StatusAdded, sets[0].Files[0].Action)
		assert.Equal(t, "initial", sets[1].Comment)
		assert.True(t, fake.Invoked("log --verbose --timezone utc --revision tag:1.0.."))
	})
}

//go:build unit

package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	domainRepos "github.com/rios0rios0/scmforge/internal/domain/repositories"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/local"
)

// newModule creates <root>/project holding the given files.
func newModule(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, "project", filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}

func checkout(
	t *testing.T,
	provider domainRepos.ProviderRepository,
	repo entities.RepositoryDescriptor,
) entities.FileSet {
	t.Helper()
	fileSet := entities.NewFileSet(filepath.Join(t.TempDir(), "work"))
	result, err := provider.Execute(context.Background(), entities.CommandCheckOut, repo, fileSet, nil)
	require.NoError(t, err)
	require.True(t, result.IsSuccess(), result.ProviderMessage())
	return fileSet
}

func TestProviderRepository_MakeRepository(t *testing.T) {
	t.Parallel()

	t.Run("should parse root and module", func(t *testing.T) {
		t.Parallel()

		// given
		root := newModule(t, map[string]string{"a.txt": "a"})
		provider := local.NewProviderRepository(nil)

		// when
		repo, err := provider.MakeRepository(root+":project", ':')

		// then
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "project"), repo.(*local.Repository).ModuleDir())
	})

	t.Run("should report every problem of an invalid url", func(t *testing.T) {
		t.Parallel()

		// given
		provider := local.NewProviderRepository(nil)

		// when
		messages := provider.ValidateURL(":../up", ':')

		// then
		assert.Len(t, messages, 2)
	})

	t.Run("should reject a url with the wrong number of tokens", func(t *testing.T) {
		t.Parallel()

		// given
		provider := local.NewProviderRepository(nil)

		// when
		_, err := provider.MakeRepository("only-root", ':')

		// then
		require.ErrorIs(t, err, entities.ErrInvalidURL)
	})
}

func TestProviderRepository_Lifecycle(t *testing.T) {
	t.Parallel()

	t.Run("should check out, report status, check in and log the change", func(t *testing.T) {
		t.Parallel()

		// given
		root := newModule(t, map[string]string{"a.txt": "one\n", "sub/b.txt": "two\n"})
		provider := local.NewProviderRepository(nil)
		repo, err := provider.MakeRepository(root+":project", ':')
		require.NoError(t, err)
		repo.Base().User = "alice"
		fileSet := checkout(t, provider, repo)
		require.NoError(t, os.WriteFile(filepath.Join(fileSet.BaseDir, "a.txt"), []byte("changed\n"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(fileSet.BaseDir, "new.txt"), []byte("new\n"), 0o600))
		ctx := context.Background()

		// when
		status, statusErr := provider.Execute(ctx, entities.CommandStatus, repo, fileSet, nil)
		params := entities.NewCommandParameters().MustSet(entities.ParamMessage, "edit a")
		checkIn, checkInErr := provider.Execute(ctx, entities.CommandCheckIn, repo, fileSet, params)
		log, logErr := provider.Execute(ctx, entities.CommandChangeLog, repo, fileSet, nil)

		// then
		require.NoError(t, statusErr)
		assert.Equal(t, []entities.ScmFile{
			entities.NewScmFile("a.txt", entities.StatusModified),
			entities.NewScmFile("new.txt", entities.StatusUnknown),
		}, status.(*entities.StatusResult).ChangedFiles())

		require.NoError(t, checkInErr)
		assert.Equal(t, "1", checkIn.(*entities.CheckInResult).Revision())
		assert.Equal(t, []entities.ScmFile{entities.NewScmFile("a.txt", entities.StatusCheckedIn)},
			checkIn.(*entities.CheckInResult).CheckedInFiles())
		content, readErr := os.ReadFile(filepath.Join(root, "project", "a.txt"))
		require.NoError(t, readErr)
		assert.Equal(t, "changed\n", string(content))

		require.NoError(t, logErr)
		sets := log.(*entities.ChangeLogResult).ChangeLog().ChangeSets
		require.Len(t, sets, 1)
		assert.Equal(t, "alice", sets[0].Author)
		assert.Equal(t, "edit a", sets[0].Comment)
		assert.True(t, sets[0].ContainsFilename("a.txt"))
	})

	t.Run("should add and remove files before check in", func(t *testing.T) {
		t.Parallel()

		// given
		root := newModule(t, map[string]string{"a.txt": "a\n", "b.txt": "b\n"})
		provider := local.NewProviderRepository(nil)
		repo, err := provider.MakeRepository(root+":project", ':')
		require.NoError(t, err)
		work := checkout(t, provider, repo)
		require.NoError(t, os.WriteFile(filepath.Join(work.BaseDir, "c.txt"), []byte("c\n"), 0o600))
		ctx := context.Background()

		// when
		added, addErr := provider.Execute(ctx, entities.CommandAdd, repo,
			entities.NewFileSet(work.BaseDir, "c.txt"), nil)
		removed, removeErr := provider.Execute(ctx, entities.CommandRemove, repo,
			entities.NewFileSet(work.BaseDir, "b.txt"), nil)
		_, checkInErr := provider.Execute(ctx, entities.CommandCheckIn, repo, work,
			entities.NewCommandParameters().MustSet(entities.ParamMessage, "swap"))

		// then
		require.NoError(t, addErr)
		assert.Len(t, added.(*entities.AddResult).AddedFiles(), 1)
		require.NoError(t, removeErr)
		assert.Len(t, removed.(*entities.RemoveResult).RemovedFiles(), 1)
		require.NoError(t, checkInErr)
		assert.FileExists(t, filepath.Join(root, "project", "c.txt"))
		assert.NoFileExists(t, filepath.Join(root, "project", "b.txt"))
	})

	t.Run("should bring a second working copy up to date", func(t *testing.T) {
		t.Parallel()

		// given
		root := newModule(t, map[string]string{"a.txt": "a\n"})
		provider := local.NewProviderRepository(nil)
		repo, err := provider.MakeRepository(root+":project", ':')
		require.NoError(t, err)
		first := checkout(t, provider, repo)
		second := checkout(t, provider, repo)
		require.NoError(t, os.WriteFile(filepath.Join(first.BaseDir, "a.txt"), []byte("b\n"), 0o600))
		ctx := context.Background()
		_, err = provider.Execute(ctx, entities.CommandCheckIn, repo, first,
			entities.NewCommandParameters().MustSet(entities.ParamMessage, "bump"))
		require.NoError(t, err)

		// when
		result, updateErr := provider.Execute(ctx, entities.CommandUpdate, repo, second,
			entities.NewCommandParameters().MustSet(entities.ParamRunChangeLogWithUpdate, true))

		// then
		require.NoError(t, updateErr)
		update := result.(*entities.UpdateResult)
		assert.Equal(t, []entities.ScmFile{entities.NewScmFile("a.txt", entities.StatusUpdated)}, update.UpdatedFiles())
		require.Len(t, update.Changes(), 1)
		assert.Equal(t, "bump", update.Changes()[0].Comment)
	})

	t.Run("should refuse a check in of an out of date file", func(t *testing.T) {
		t.Parallel()

		// given
		root := newModule(t, map[string]string{"a.txt": "a\n"})
		provider := local.NewProviderRepository(nil)
		repo, err := provider.MakeRepository(root+":project", ':')
		require.NoError(t, err)
		first := checkout(t, provider, repo)
		second := checkout(t, provider, repo)
		ctx := context.Background()
		require.NoError(t, os.WriteFile(filepath.Join(first.BaseDir, "a.txt"), []byte("first\n"), 0o600))
		_, err = provider.Execute(ctx, entities.CommandCheckIn, repo, first,
			entities.NewCommandParameters().MustSet(entities.ParamMessage, "first"))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(second.BaseDir, "a.txt"), []byte("second\n"), 0o600))

		// when
		result, checkInErr := provider.Execute(ctx, entities.CommandCheckIn, repo, second,
			entities.NewCommandParameters().MustSet(entities.ParamMessage, "second"))

		// then
		require.NoError(t, checkInErr)
		assert.False(t, result.IsSuccess())
		assert.Contains(t, result.ProviderMessage(), "out of date")
	})

	t.Run("should tag the module once and check the tag out", func(t *testing.T) {
		t.Parallel()

		// given
		root := newModule(t, map[string]string{"a.txt": "a\n"})
		provider := local.NewProviderRepository(nil)
		repo, err := provider.MakeRepository(root+":project", ':')
		require.NoError(t, err)
		ctx := context.Background()
		params := func() *entities.CommandParameters {
			return entities.NewCommandParameters().MustSet(entities.ParamTagName, "v1")
		}

		// when
		first, firstErr := provider.Execute(ctx, entities.CommandTag, repo, entities.FileSet{}, params())
		again, againErr := provider.Execute(ctx, entities.CommandTag, repo, entities.FileSet{}, params())
		work := entities.NewFileSet(filepath.Join(t.TempDir(), "tagged"))
		checkedOut, checkOutErr := provider.Execute(ctx, entities.CommandCheckOut, repo, work,
			entities.NewCommandParameters().MustSet(entities.ParamScmVersion, entities.NewScmTag("v1")))

		// then
		require.NoError(t, firstErr)
		assert.True(t, first.IsSuccess())
		require.NoError(t, againErr)
		assert.False(t, again.IsSuccess())
		require.NoError(t, checkOutErr)
		assert.Len(t, checkedOut.(*entities.CheckOutResult).CheckedOutFiles(), 1)
	})

	t.Run("should show the unified diff of a modified file", func(t *testing.T) {
		t.Parallel()

		// given
		root := newModule(t, map[string]string{"a.txt": "one\n"})
		provider := local.NewProviderRepository(nil)
		repo, err := provider.MakeRepository(root+":project", ':')
		require.NoError(t, err)
		work := checkout(t, provider, repo)
		require.NoError(t, os.WriteFile(filepath.Join(work.BaseDir, "a.txt"), []byte("two\n"), 0o600))

		// when
		result, diffErr := provider.Execute(context.Background(), entities.CommandDiff, repo, work, nil)

		// then
		require.NoError(t, diffErr)
		diff := result.(*entities.DiffResult)
		assert.Contains(t, diff.Patch(), "-one")
		assert.Contains(t, diff.Patch(), "+two")
		assert.Contains(t, diff.Differences(), "a.txt")
	})

	t.Run("should rebuild the repository from the working copy metadata", func(t *testing.T) {
		t.Parallel()

		// given
		root := newModule(t, map[string]string{"a.txt": "a\n"})
		provider := local.NewProviderRepository(nil)
		repo, err := provider.MakeRepository(root+":project", ':')
		require.NoError(t, err)
		work := checkout(t, provider, repo)

		// when
		fromPath, pathErr := provider.MakeRepositoryFromPath(work.BaseDir)

		// then
		require.NoError(t, pathErr)
		assert.Equal(t, repo.String(), fromPath.String())
		assert.FileExists(t, filepath.Join(work.BaseDir, provider.ScmSpecificFilename()))
	})

	t.Run("should reject a change log range that is not a revision number", func(t *testing.T) {
		t.Parallel()

		// given
		root := newModule(t, map[string]string{"a.txt": "one\n"})
		provider := local.NewProviderRepository(nil)
		repo, err := provider.MakeRepository(root+":project", ':')
		require.NoError(t, err)
		fileSet := checkout(t, provider, repo)
		params := entities.NewCommandParameters().
			MustSet(entities.ParamStartScmVersion, entities.NewScmRevision("first"))

		// when
		result, logErr := provider.Execute(context.Background(), entities.CommandChangeLog, repo, fileSet, params)

		// then
		assert.Nil(t, result)
		var paramErr *entities.ParameterError
		require.ErrorAs(t, logErr, &paramErr)
		assert.Equal(t, entities.ParamStartScmVersion, paramErr.Parameter)
		assert.ErrorIs(t, logErr, entities.ErrParameterType)
	})
}

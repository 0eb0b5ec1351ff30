//go:build unit

package base_test

import (
	"context"
	"strings"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
	"github.com/rios0rios0/scmforge/internal/process"
	"github.com/rios0rios0/scmforge/test/infrastructure/processdoubles"
	doubles "github.com/rios0rios0/scmforge/test/infrastructure/repositorydoubles"
)

func TestParseGitDiff(t *testing.T) {
	t.Parallel()

	t.Run("should split a patch into files with their status", func(t *testing.T) {
		t.Parallel()

		// given
		patch := "diff --git a/a.txt b/a.txt\n" +
			"--- a/a.txt\n+++ b/a.txt\n@@ -1 +1 @@\n-one\n+two\n" +
			"diff --git a/new.txt b/new.txt\n" +
			"new file mode 100644\n--- /dev/null\n+++ b/new.txt\n@@ -0,0 +1 @@\n+x\n" +
			"diff --git a/\"sp ace.txt\" b/\"sp ace.txt\"\n" +
			"deleted file mode 100644\n"

		// when
		files, differences := base.ParseGitDiff(patch)

		// then
		assert.Equal(t, []entities.ScmFile{
			entities.NewScmFile("a.txt", entities.StatusModified),
			entities.NewScmFile("new.txt", entities.StatusAdded),
			entities.NewScmFile("sp ace.txt", entities.StatusDeleted),
		}, files)
		assert.Contains(t, differences["a.txt"], "+two")
		assert.NotContains(t, differences["a.txt"], "new.txt")
	})
}

func TestProvider_Execute(t *testing.T) {
	t.Parallel()

	t.Run("should reject a command without a handler", func(t *testing.T) {
		t.Parallel()

		// given
		provider := base.NewProvider("spy")

		// when
		_, err := provider.Execute(context.Background(), entities.CommandBlame, &doubles.SpyRepository{},
			entities.FileSet{}, nil)

		// then
		var unsupported *entities.UnsupportedCommandError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, "spy", unsupported.Provider)
	})

	t.Run("should pass empty parameters to the handler when none are given", func(t *testing.T) {
		t.Parallel()

		// given
		var received *entities.CommandParameters
		provider := base.NewProvider("spy")
		provider.Handle(entities.CommandStatus, func(
			_ context.Context, _ entities.RepositoryDescriptor, _ entities.FileSet, params *entities.CommandParameters,
		) (entities.Result, error) {
			received = params
			return entities.NewStatusResult(entities.NewScmResult("", "", "", true), nil), nil
		})

		// when
		result, err := provider.Execute(context.Background(), entities.CommandStatus, &doubles.SpyRepository{},
			entities.FileSet{}, nil)

		// then
		require.NoError(t, err)
		assert.True(t, result.IsSuccess())
		assert.NotNil(t, received)
		assert.Equal(t, []entities.CommandName{entities.CommandStatus}, provider.Commands())
	})

	t.Run("should warn once about a failed result", func(t *testing.T) {
		t.Parallel()

		// given
		hook := logtest.NewGlobal()
		provider := base.NewProvider("spy")
		provider.Handle(entities.CommandStatus, func(
			context.Context, entities.RepositoryDescriptor, entities.FileSet, *entities.CommandParameters,
		) (entities.Result, error) {
			return entities.NewStatusResult(entities.NewFailedResult("spy status", "spy status broke", ""), nil), nil
		})

		// when
		result, err := provider.Execute(context.Background(), entities.CommandStatus, &doubles.SpyRepository{},
			entities.FileSet{}, nil)

		// then
		require.NoError(t, err)
		assert.False(t, result.IsSuccess())
		warnings := 0
		for _, entry := range hook.AllEntries() {
			if strings.Contains(entry.Message, "spy status broke") {
				warnings++
			}
		}
		assert.Equal(t, 1, warnings)
	})

	t.Run("should fail structurally without a repository", func(t *testing.T) {
		t.Parallel()

		// given
		provider := base.NewProvider("spy")
		provider.Handle(entities.CommandStatus, nil)

		// when
		_, err := provider.Execute(context.Background(), entities.CommandStatus, nil, entities.FileSet{}, nil)

		// then
		require.Error(t, err)
		assert.True(t, entities.IsStructural(err))
	})
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	t.Run("should require a non-blank message", func(t *testing.T) {
		t.Parallel()

		// given
		params := entities.NewCommandParameters().MustSet(entities.ParamMessage, "  ")

		// when
		_, err := base.RequireMessage(params)

		// then
		require.ErrorIs(t, err, entities.ErrMissingParameter)
	})

	t.Run("should select the whole directory for an empty file set", func(t *testing.T) {
		t.Parallel()

		// when
		all := base.FilesOrAll(entities.NewFileSet("/work"))
		some := base.FilesOrAll(entities.NewFileSet("/work", "a.txt"))

		// then
		assert.Equal(t, []string{"."}, all)
		assert.Equal(t, []string{"a.txt"}, some)
	})

	t.Run("should trim url tokens", func(t *testing.T) {
		t.Parallel()

		// when
		tokens := base.SplitURL(" host | depot |stream", '|')

		// then
		assert.Equal(t, []string{"host", "depot", "stream"}, tokens)
	})
}

func TestTool_Run(t *testing.T) {
	t.Parallel()

	t.Run("should map a rejected exit code to a failed result with diagnostics", func(t *testing.T) {
		t.Parallel()

		// given
		runner := &processdoubles.StubRunner{Stdout: []string{"svn: E170013: unable to connect"}, ExitCode: 1}
		tool := &base.Tool{Name: "svn", Executable: "svn", Runner: runner}

		// when
		exec, err := tool.Run(context.Background(), tool.Command("", "info"), nil, process.DefaultPolicy)

		// then
		require.NoError(t, err)
		assert.False(t, exec.Success())
		assert.Equal(t, "The svn command failed (exit code 1).", exec.Result.ProviderMessage())
		assert.Equal(t, "svn: E170013: unable to connect", exec.Result.CommandOutput())
	})

	t.Run("should accept exit codes allowed by the policy", func(t *testing.T) {
		t.Parallel()

		// given
		runner := &processdoubles.StubRunner{Stdout: []string{"M a.txt"}, ExitCode: 1}
		tool := &base.Tool{Name: "diff", Executable: "diff", Runner: runner}

		// when
		exec, err := tool.Run(context.Background(), tool.Command("", "-u"), nil, process.AcceptCodes(0, 1))

		// then
		require.NoError(t, err)
		assert.True(t, exec.Success())
		assert.Equal(t, "M a.txt\n", exec.Stdout)
	})
}

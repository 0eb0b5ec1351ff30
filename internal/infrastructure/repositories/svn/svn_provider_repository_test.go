//go:build unit

package svn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/svn"
	"github.com/rios0rios0/scmforge/test/infrastructure/repositorydoubles"
)

const repositoryURL = "https://svn.example.com/repos/project/trunk"

func newProvider(t *testing.T, responses map[string]repositorydoubles.FakeResponse) (
	*repositorydoubles.FakeTool, func(entities.CommandName, entities.FileSet, *entities.CommandParameters) (entities.Result, error),
) {
	t.Helper()
	fake := repositorydoubles.NewFakeTool(t, "svn", responses)
	settings := entities.NewDefaultSettings()
	settings.Executables["svn"] = fake.Path
	provider := svn.NewProviderRepository(settings)

	repo, err := provider.MakeRepository(repositoryURL, ':')
	require.NoError(t, err)
	repo.Base().User = "alice"
	repo.Base().Password = "secret"

	execute := func(cmd entities.CommandName, fileSet entities.FileSet, params *entities.CommandParameters) (entities.Result, error) {
		return provider.Execute(context.Background(), cmd, repo, fileSet, params)
	}
	return fake, execute
}

func TestParseRepository(t *testing.T) {
	t.Parallel()

	t.Run("should derive tag and branch bases from trunk", func(t *testing.T) {
		t.Parallel()

		// given
		url := "https://bob:pw@svn.example.com:8443/repos/project/trunk"

		// when
		repo, messages := svn.ParseRepository(url)

		// then
		require.Empty(t, messages)
		assert.Equal(t, "https://svn.example.com:8443/repos/project/trunk", repo.URL)
		assert.Equal(t, "https://svn.example.com:8443/repos/project/tags", repo.TagBase)
		assert.Equal(t, "https://svn.example.com:8443/repos/project/branches", repo.BranchBase)
		assert.Equal(t, "bob", repo.User)
		assert.Equal(t, "pw", repo.Password)
		assert.Equal(t, "svn.example.com", repo.Host)
		assert.Equal(t, 8443, repo.Port)
	})

	t.Run("should honor explicit tag and branch bases", func(t *testing.T) {
		t.Parallel()

		// given
		url := "svn://svn.example.com/project?tagBase=svn://svn.example.com/releases&branchBase=svn://svn.example.com/dev"

		// when
		repo, messages := svn.ParseRepository(url)

		// then
		require.Empty(t, messages)
		assert.Equal(t, "svn://svn.example.com/releases/1.0", repo.TagURL("1.0"))
		assert.Equal(t, "svn://svn.example.com/dev/feature", repo.BranchURL("feature"))
		assert.Equal(t, "svn://svn.example.com/project@42", repo.VersionURL(entities.NewScmRevision("42")))
	})

	t.Run("should reject unsupported schemes and unknown parameters", func(t *testing.T) {
		t.Parallel()

		// given
		url := "ftp://svn.example.com/project?color=blue"

		// when
		repo, messages := svn.ParseRepository(url)

		// then
		assert.Nil(t, repo)
		assert.Len(t, messages, 2)
	})
}

func TestProviderRepository_Status(t *testing.T) {
	t.Parallel()

	t.Run("should read the xml status of the working copy", func(t *testing.T) {
		t.Parallel()

		// given
		fake, execute := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"status": {Stdout: `<?xml version="1.0" encoding="UTF-8"?>
<status>
<target path=".">
<entry path="a.txt">
<wc-status item="modified" props="none" revision="3"/>
</entry>
<entry path="docs/readme.md">
<wc-status item="added" props="none" revision="-1"/>
</entry>
<entry path="notes.txt">
<wc-status item="unversioned" props="none"/>
</entry>
</target>
</status>`},
		})

		// when
		result, err := execute(entities.CommandStatus, entities.NewFileSet(t.TempDir()), nil)

		// then
		require.NoError(t, err)
		require.True(t, result.IsSuccess())
		assert.Equal(t, []entities.ScmFile{
			entities.NewScmFile("a.txt", entities.StatusModified),
			entities.NewScmFile("docs/readme.md", entities.StatusAdded),
			entities.NewScmFile("notes.txt", entities.StatusUnknown),
		}, result.(*entities.StatusResult).ChangedFiles())
		assert.True(t, fake.Invoked("status --non-interactive --username alice --password secret --no-auth-cache"))
		assert.NotContains(t, result.CommandLine(), "secret")
	})

	t.Run("should turn a non-zero exit code into a failed result", func(t *testing.T) {
		t.Parallel()

		// given
		_, execute := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"status": {Stderr: "svn: E155007: '/tmp/x' is not a working copy", ExitCode: 1},
		})

		// when
		result, err := execute(entities.CommandStatus, entities.NewFileSet(t.TempDir()), nil)

		// then
		require.NoError(t, err)
		assert.False(t, result.IsSuccess())
		assert.Equal(t, "The svn command failed (exit code 1).", result.ProviderMessage())
		assert.Contains(t, result.CommandOutput(), "E155007")
	})
}

func TestProviderRepository_ChangeLog(t *testing.T) {
	t.Parallel()

	t.Run("should parse log entries with their paths", func(t *testing.T) {
		t.Parallel()

		// given
		fake, execute := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"log": {Stdout: `<?xml version="1.0" encoding="UTF-8"?>
<log>
<logentry revision="7">
<author>alice</author>
<date>2024-03-01T10:15:30.123456Z</date>
<paths>
<path action="M" kind="file">/trunk/a.txt</path>
<path action="A" kind="file" copyfrom-path="/trunk/a.txt" copyfrom-rev="6">/trunk/b.txt</path>
</paths>
<msg>copy a to b</msg>
</logentry>
</log>`},
		})
		params := entities.NewCommandParameters().
			MustSet(entities.ParamNumChangeSets, 5).
			MustSet(entities.ParamStartScmVersion, entities.NewScmRevision("3"))

		// when
		result, err := execute(entities.CommandChangeLog, entities.NewFileSet(t.TempDir()), params)

		// then
		require.NoError(t, err)
		require.True(t, result.IsSuccess())
		sets := result.(*entities.ChangeLogResult).ChangeLog().ChangeSets
		require.Len(t, sets, 1)
		assert.Equal(t, "7", sets[0].Revision)
		assert.Equal(t, "alice", sets[0].Author)
		assert.Equal(t, "copy a to b", sets[0].Comment)
		assert.Equal(t, "2024/03/01 10:15:30", entities.FormatTimestamp(sets[0].Date))
		require.Len(t, sets[0].Files, 2)
		assert.Equal(t, entities.StatusModified, sets[0].Files[0].Action)
		assert.Equal(t, "/trunk/a.txt", sets[0].Files[1].OriginalName)
		assert.Equal(t, "6", sets[0].Files[1].OriginalRevision)
		assert.True(t, fake.Invoked("log --non-interactive --username alice --password secret --no-auth-cache -v -r HEAD:3 --limit 5 "+repositoryURL+" --xml"))
	})

	t.Run("should keep entries parsed before malformed output", func(t *testing.T) {
		t.Parallel()

		// given
		_, execute := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"log": {Stdout: `<?xml version="1.0" encoding="UTF-8"?>
<log>
<logentry revision="2">
<author>bob</author>
<date>2024-01-02T08:00:00.000000Z</date>
<msg>first</msg>
</logentry>
<logentry revision="3">
<author>bob</wrong>`},
		})

		// when
		result, err := execute(entities.CommandChangeLog, entities.NewFileSet(t.TempDir()), nil)

		// then
		require.NoError(t, err)
		require.True(t, result.IsSuccess())
		sets := result.(*entities.ChangeLogResult).ChangeLog().ChangeSets
		require.Len(t, sets, 1)
		assert.Equal(t, "first", sets[0].Comment)
	})
}

func TestProviderRepository_CheckIn(t *testing.T) {
	t.Parallel()

	t.Run("should report committed files and the new revision", func(t *testing.T) {
		t.Parallel()

		// given
		_, execute := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"commit": {Stdout: "Sending        a.txt\nAdding         docs/readme.md\nTransmitting file data ..done\nCommitting transaction...\nCommitted revision 12."},
		})
		params := entities.NewCommandParameters().MustSet(entities.ParamMessage, "release notes")

		// when
		result, err := execute(entities.CommandCheckIn, entities.NewFileSet(t.TempDir()), params)

		// then
		require.NoError(t, err)
		checkIn := result.(*entities.CheckInResult)
		assert.Equal(t, "12", checkIn.Revision())
		assert.Equal(t, []entities.ScmFile{
			entities.NewScmFile("a.txt", entities.StatusCheckedIn),
			entities.NewScmFile("docs/readme.md", entities.StatusCheckedIn),
		}, checkIn.CheckedInFiles())
	})

	t.Run("should require a message", func(t *testing.T) {
		t.Parallel()

		// given
		_, execute := newProvider(t, nil)

		// when
		_, err := execute(entities.CommandCheckIn, entities.NewFileSet(t.TempDir()), nil)

		// then
		assert.True(t, errors.Is(err, entities.ErrMissingParameter))
	})
}

func TestProviderRepository_Update(t *testing.T) {
	t.Parallel()

	t.Run("should map update codes and collect the changes in between", func(t *testing.T) {
		t.Parallel()

		// given
		fake, execute := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"info": {Stdout: `<?xml version="1.0" encoding="UTF-8"?>
<info>
<entry kind="dir" path="." revision="4">
<url>` + repositoryURL + `</url>
</entry>
</info>`},
			"update": {Stdout: "Updating '.':\nU    a.txt\nA    b.txt\nD    old.txt\nC    c.txt\nG    d.txt\nUpdated to revision 6."},
			"log": {Stdout: `<?xml version="1.0" encoding="UTF-8"?>
<log>
<logentry revision="6"><author>a</author><date>2024-01-02T08:00:00.000000Z</date><msg>six</msg></logentry>
<logentry revision="5"><author>a</author><date>2024-01-01T08:00:00.000000Z</date><msg>five</msg></logentry>
</log>`},
		})
		params := entities.NewCommandParameters().MustSet(entities.ParamRunChangeLogWithUpdate, true)

		// when
		result, err := execute(entities.CommandUpdate, entities.NewFileSet(t.TempDir()), params)

		// then
		require.NoError(t, err)
		update := result.(*entities.UpdateResult)
		assert.Equal(t, []entities.ScmFile{
			entities.NewScmFile("a.txt", entities.StatusUpdated),
			entities.NewScmFile("b.txt", entities.StatusAdded),
			entities.NewScmFile("old.txt", entities.StatusDeleted),
			entities.NewScmFile("c.txt", entities.StatusConflict),
			entities.NewScmFile("d.txt", entities.StatusPatched),
		}, update.UpdatedFiles())
		assert.Len(t, update.Changes(), 2)
		assert.True(t, fake.Invoked("log --non-interactive --username alice --password secret --no-auth-cache -v -r 5:6"))
	})
}

func TestProviderRepository_Tag(t *testing.T) {
	t.Parallel()

	t.Run("should copy to the tag base and list the tagged files", func(t *testing.T) {
		t.Parallel()

		// given
		fake, execute := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"copy": {Stdout: "Committed revision 9."},
			"list": {Stdout: `<?xml version="1.0" encoding="UTF-8"?>
<lists>
<list path="https://svn.example.com/repos/project/tags/1.0">
<entry kind="dir"><name>docs</name></entry>
<entry kind="file"><name>docs/readme.md</name></entry>
</list>
</lists>`},
		})
		params := entities.NewCommandParameters().MustSet(entities.ParamTagName, "1.0")

		// when
		result, err := execute(entities.CommandTag, entities.NewFileSet(t.TempDir()), params)

		// then
		require.NoError(t, err)
		assert.Equal(t, []entities.ScmFile{
			entities.NewScmFile("docs/", entities.StatusTagged),
			entities.NewScmFile("docs/readme.md", entities.StatusTagged),
		}, result.(*entities.TagResult).TaggedFiles())
		assert.True(t, fake.Invoked("list --non-interactive --username alice --password secret --no-auth-cache --recursive https://svn.example.com/repos/project/tags/1.0"))
	})
}

func TestProviderRepository_Diff(t *testing.T) {
	t.Parallel()

	t.Run("should split the patch per file", func(t *testing.T) {
		t.Parallel()

		// given
		_, execute := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"diff": {Stdout: `Index: a.txt
===================================================================
--- a.txt	(revision 3)
+++ a.txt	(working copy)
@@ -1 +1 @@
-old
+new
Index: b.txt
===================================================================
--- b.txt	(nonexistent)
+++ b.txt	(working copy)
@@ -0,0 +1 @@
+fresh`},
		})

		// when
		result, err := execute(entities.CommandDiff, entities.NewFileSet(t.TempDir()), nil)

		// then
		require.NoError(t, err)
		diff := result.(*entities.DiffResult)
		assert.Equal(t, []entities.ScmFile{
			entities.NewScmFile("a.txt", entities.StatusModified),
			entities.NewScmFile("b.txt", entities.StatusAdded),
		}, diff.ChangedFiles())
		assert.Contains(t, diff.Differences()["a.txt"], "+new")
	})
}

func TestProviderRepository_Unsupported(t *testing.T) {
	t.Parallel()

	t.Run("should reject commands svn does not implement", func(t *testing.T) {
		t.Parallel()

		// given
		_, execute := newProvider(t, nil)

		// when
		_, err := execute(entities.CommandRemoteInfo, entities.NewFileSet(t.TempDir()), nil)

		// then
		assert.True(t, errors.Is(err, entities.ErrUnsupportedCommand))
	})
}

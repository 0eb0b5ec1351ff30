//go:build unit

package accurev_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	domainRepos "github.com/rios0rios0/scmforge/internal/domain/repositories"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/accurev"
	"github.com/rios0rios0/scmforge/test/infrastructure/repositorydoubles"
)

func newProvider(t *testing.T, responses map[string]repositorydoubles.FakeResponse) (
	*repositorydoubles.FakeTool, domainRepos.ProviderRepository, *accurev.Repository,
) {
	t.Helper()
	fake := repositorydoubles.NewFakeTool(t, "accurev", responses)
	settings := entities.NewDefaultSettings()
	settings.Executables["accurev"] = fake.Path
	provider := accurev.NewProviderRepository(settings)

	repo, err := provider.MakeRepository("user/pass@host:5050,depot,stream,workspace", ',')
	require.NoError(t, err)
	return fake, provider, repo.(*accurev.Repository)
}

func TestParseRepository(t *testing.T) {
	t.Parallel()

	t.Run("should parse the server, depot, stream and workspace", func(t *testing.T) {
		t.Parallel()

		// given
		url := "user/pass@host:5050,depot,stream,workspace"

		// when
		repo, messages := accurev.ParseRepository(url, ',')

		// then
		require.Empty(t, messages)
		assert.Equal(t, "user", repo.User)
		assert.Equal(t, "pass", repo.Password)
		assert.Equal(t, "host", repo.Host)
		assert.Equal(t, 5050, repo.Port)
		assert.Equal(t, "depot", repo.Depot)
		assert.Equal(t, "stream", repo.StreamName)
		assert.Equal(t, "workspace", repo.WorkspaceName)
		assert.Equal(t, accurev.CheckoutMkws, repo.CheckoutMethod)
		assert.Equal(t, "user@host:5050,depot,stream,workspace", repo.String())
	})

	t.Run("should join a numeric field with the preceding host when colon delimited", func(t *testing.T) {
		t.Parallel()

		// given
		url := "user/pass@host:5050:depot:stream:ws"

		// when
		repo, messages := accurev.ParseRepository(url, ':')

		// then
		require.Empty(t, messages)
		assert.Equal(t, "host:5050", repo.Server())
		assert.Equal(t, "depot", repo.Depot)
		assert.Equal(t, "stream", repo.StreamName)
		assert.Equal(t, "ws", repo.WorkspaceName)
		assert.Equal(t, "user@host:5050:depot:stream:ws", repo.String())
	})

	t.Run("should keep a numeric workspace as a token when no server is given", func(t *testing.T) {
		t.Parallel()

		// given
		url := "depot:stream:42"

		// when
		repo, messages := accurev.ParseRepository(url, ':')

		// then
		require.Empty(t, messages)
		assert.Empty(t, repo.Host)
		assert.Zero(t, repo.Port)
		assert.Equal(t, "depot", repo.Depot)
		assert.Equal(t, "stream", repo.StreamName)
		assert.Equal(t, "42", repo.WorkspaceName)
	})

	t.Run("should report unknown parameters in a stable order", func(t *testing.T) {
		t.Parallel()

		// given
		url := "depot|stream?zeta=1&alpha=2&mid=3"

		// when
		_, messages := accurev.ParseRepository(url, '|')

		// then
		assert.Equal(t, []string{
			`unknown accurev url parameter "alpha"`,
			`unknown accurev url parameter "mid"`,
			`unknown accurev url parameter "zeta"`,
		}, messages)
	})

	t.Run("should treat three plain fields as depot, stream and workspace", func(t *testing.T) {
		t.Parallel()

		// given
		url := "depot:stream:ws?checkoutMethod=pop"

		// when
		repo, messages := accurev.ParseRepository(url, '|')

		// then
		require.Len(t, messages, 1)
		assert.Nil(t, repo)

		// when
		repo, messages = accurev.ParseRepository("depot|stream|ws?checkoutMethod=pop", '|')

		// then
		require.Empty(t, messages)
		assert.Empty(t, repo.Host)
		assert.Equal(t, "ws", repo.WorkspaceName)
		assert.Equal(t, accurev.CheckoutPop, repo.CheckoutMethod)
	})

	t.Run("should collect every problem", func(t *testing.T) {
		t.Parallel()

		// given
		url := "@host:notaport,,stream,ws?checkoutMethod=copy&color=red"

		// when
		repo, messages := accurev.ParseRepository(url, ',')

		// then
		assert.Nil(t, repo)
		assert.Len(t, messages, 5)
	})
}

func TestProviderRepository_Login(t *testing.T) {
	t.Parallel()

	t.Run("should keep the session token and attach it to later commands", func(t *testing.T) {
		t.Parallel()

		// given
		fake, provider, repo := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"login": {Stdout: "tok-123"},
			"stat": {Stdout: `<?xml version="1.0" encoding="utf-8"?>
<AcResponse Command="stat" TaskId="7">
  <element location="/./a.txt" dir="no" status="(modified)(member)"/>
  <element location="/./lib" dir="yes" status="(backed)"/>
  <element location="/./new.txt" dir="no" status="(external)"/>
  <element location="/./gone.txt" dir="no" status="(defunct)(kept)"/>
</AcResponse>`},
		})
		ctx := context.Background()
		fileSet := entities.NewFileSet(t.TempDir())

		// when
		login, err := provider.Execute(ctx, entities.CommandLogin, repo, fileSet, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = os.RemoveAll(repo.Home) })
		status, err := provider.Execute(ctx, entities.CommandStatus, repo, fileSet, nil)
		require.NoError(t, err)

		// then
		assert.Equal(t, "tok-123", login.(*entities.LoginResult).Token())
		assert.Equal(t, "tok-123", repo.Token)
		assert.NotContains(t, login.CommandLine(), "pass")
		assert.True(t, fake.Invoked("stat -H host:5050 -A tok-123 -fx -R ."))
		assert.Equal(t, []entities.ScmFile{
			entities.NewScmFile("a.txt", entities.StatusModified),
			entities.NewScmFile("new.txt", entities.StatusUnknown),
			entities.NewScmFile("gone.txt", entities.StatusDeleted),
		}, status.(*entities.StatusResult).ChangedFiles())
	})

	t.Run("should close the session explicitly", func(t *testing.T) {
		t.Parallel()

		// given
		fake, provider, repo := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"login": {Stdout: "tok-456"},
		})
		ctx := context.Background()
		_, err := provider.Execute(ctx, entities.CommandLogin, repo, entities.NewFileSet(t.TempDir()), nil)
		require.NoError(t, err)
		home := repo.Home

		// when
		result, err := provider.(domainRepos.SessionProvider).Logout(ctx, repo)

		// then
		require.NoError(t, err)
		assert.True(t, result.IsSuccess())
		assert.True(t, fake.Invoked("logout -H host:5050 -A tok-456"))
		assert.Empty(t, repo.Token)
		_, statErr := os.Stat(home)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("should report a rejected login as a failed result", func(t *testing.T) {
		t.Parallel()

		// given
		_, provider, repo := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"login": {Stderr: "Bad password", ExitCode: 1},
		})

		// when
		result, err := provider.Execute(context.Background(), entities.CommandLogin, repo, entities.NewFileSet(t.TempDir()), nil)

		// then
		require.NoError(t, err)
		assert.False(t, result.IsSuccess())
		assert.Empty(t, repo.Token)
	})
}

func TestProviderRepository_ChangeLog(t *testing.T) {
	t.Parallel()

	t.Run("should read hist transactions", func(t *testing.T) {
		t.Parallel()

		// given
		fake, provider, repo := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"hist": {Stdout: `<?xml version="1.0" encoding="utf-8"?>
<AcResponse Command="hist" TaskId="9">
  <transaction id="42" type="promote" time="1709288130" user="alice">
    <comment>promote the fix</comment>
    <version path="/./src/a.go" eid="3" virtual="2/5" real="4/7"/>
  </transaction>
  <transaction id="41" type="add" time="1709200000" user="bob">
    <comment>add b</comment>
    <version path="/./b.txt" eid="4" virtual="2/4" real="4/6"/>
  </transaction>
</AcResponse>`},
		})
		params := entities.NewCommandParameters().MustSet(entities.ParamNumChangeSets, 1)

		// when
		result, err := provider.Execute(context.Background(), entities.CommandChangeLog, repo, entities.NewFileSet(t.TempDir()), params)

		// then
		require.NoError(t, err)
		sets := result.(*entities.ChangeLogResult).ChangeLog().ChangeSets
		require.Len(t, sets, 1)
		assert.Equal(t, "42", sets[0].Revision)
		assert.Equal(t, "alice", sets[0].Author)
		assert.Equal(t, "promote the fix", sets[0].Comment)
		assert.Equal(t, "2024/03/01 10:15:30", entities.FormatTimestamp(sets[0].Date))
		assert.Equal(t, "src/a.go", sets[0].Files[0].Name)
		assert.True(t, fake.Invoked("hist -H host:5050 -fx -p depot -s stream -t now.1"))
	})
}

func TestProviderRepository_CheckIn(t *testing.T) {
	t.Parallel()

	t.Run("should keep and promote the modified files", func(t *testing.T) {
		t.Parallel()

		// given
		fake, provider, repo := newProvider(t, map[string]repositorydoubles.FakeResponse{
			"promote": {Stdout: "Validating elements.\nPromoting elements.\nPromoted element /./a.txt\nPromoted element /./b.txt\nCreated transaction 57."},
		})
		params := entities.NewCommandParameters().MustSet(entities.ParamMessage, "ship it")

		// when
		result, err := provider.Execute(context.Background(), entities.CommandCheckIn, repo, entities.NewFileSet(t.TempDir()), params)

		// then
		require.NoError(t, err)
		checkIn := result.(*entities.CheckInResult)
		assert.Equal(t, "57", checkIn.Revision())
		assert.Len(t, checkIn.CheckedInFiles(), 2)
		assert.True(t, fake.Invoked("keep -H host:5050 -c ship it -m"))
		assert.True(t, fake.Invoked("promote -H host:5050 -c ship it -k"))
	})
}

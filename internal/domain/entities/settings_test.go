//go:build unit

package entities_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewSettings(t *testing.T) {
	t.Run("should parse a YAML file and expand secrets from the environment", func(t *testing.T) {
		// given
		t.Setenv("SCMFORGE_TEST_PASSWORD", "from-env")
		path := writeConfig(t, "scmforge.yaml", `
implementations:
  git: gogit
executables:
  svn: /opt/svn/bin/svn
credentials:
  - host: svn.example.com
    user: alice
    password: ${SCMFORGE_TEST_PASSWORD}
defaults:
  push_changes: false
`)

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "gogit", settings.Implementations["git"])
		assert.Equal(t, "/opt/svn/bin/svn", settings.Executable("svn", "svn"))
		assert.Equal(t, "hg", settings.Executable("hg", "hg"))
		creds, found := settings.CredentialsFor("SVN.example.com")
		require.True(t, found)
		assert.Equal(t, "from-env", creds.Password)
		require.NotNil(t, settings.Defaults.PushChanges)
		assert.False(t, *settings.Defaults.PushChanges)
	})

	t.Run("should parse an HCL file with credential blocks", func(t *testing.T) {
		// given
		t.Setenv("SCMFORGE_TEST_USER", "bob")
		path := writeConfig(t, "scmforge.hcl", `
implementations = { git = "gogit" }

credential "hg.example.com" {
  user     = env.SCMFORGE_TEST_USER
  password = "plain"
}
`)

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "gogit", settings.Implementations["git"])
		creds, found := settings.CredentialsFor("hg.example.com")
		require.True(t, found)
		assert.Equal(t, "bob", creds.User)
		assert.NotNil(t, settings.Defaults)
	})

	t.Run("should read a secret from the file it points to", func(t *testing.T) {
		// given
		secret := writeConfig(t, "secret.txt", "s3cret\n")
		path := writeConfig(t, "scmforge.yaml", "credentials:\n  - host: h\n    user: u\n    password: "+secret+"\n")

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "s3cret", settings.Credentials[0].Password)
	})

	t.Run("should report every invalid value at once", func(t *testing.T) {
		// given
		path := writeConfig(t, "scmforge.yaml", "executables:\n  svn: \"\"\ncredentials:\n  - password: x\n")

		// when
		_, err := entities.NewSettings(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "executables.svn")
		assert.Contains(t, err.Error(), "credentials[0].host")
		assert.Contains(t, err.Error(), "credentials[0].user")
	})
}

func TestLoadSettings(t *testing.T) {
	t.Parallel()

	t.Run("should fail for an explicit path that does not exist", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "missing.yaml")

		// when
		_, err := entities.LoadSettings(path)

		// then
		require.Error(t, err)
	})
}

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

func TestParseUserInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		token    string
		want     entities.UserInfo
		messages int
	}{
		{
			name:  "should parse user, password, host and port",
			token: "alice/secret@scm.example.com:5050",
			want:  entities.UserInfo{User: "alice", Password: "secret", Host: "scm.example.com", Port: 5050},
		},
		{
			name:  "should parse a bare host",
			token: "scm.example.com",
			want:  entities.UserInfo{Host: "scm.example.com"},
		},
		{
			name:     "should report both an empty user and a bad port",
			token:    "@host:abc",
			want:     entities.UserInfo{Host: "host"},
			messages: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// when
			info, messages := entities.ParseUserInfo(tt.token)

			// then
			assert.Equal(t, tt.want, info)
			assert.Len(t, messages, tt.messages)
		})
	}
}

func TestSplitQuery(t *testing.T) {
	t.Parallel()

	t.Run("should separate the query from the connection string", func(t *testing.T) {
		t.Parallel()

		// given
		raw := "https://example.com/repo?branch=dev"

		// when
		rest, values, err := entities.SplitQuery(raw)

		// then
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/repo", rest)
		assert.Equal(t, "dev", values.Get("branch"))
	})
}

func TestNewFileSetFromPatterns(t *testing.T) {
	t.Parallel()

	t.Run("should keep included files and skip excluded files and metadata", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		for _, name := range []string{"a.go", "b.txt", "sub/c.go", "sub/c_test.go", ".svn/entries.go"} {
			path := filepath.Join(dir, filepath.FromSlash(name))
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
			require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
		}

		// when
		set, err := entities.NewFileSetFromPatterns(dir, "*.go", "*_test.go")

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"a.go", "sub/c.go"}, set.Files)
	})

	t.Run("should select the whole directory without patterns", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()

		// when
		set, err := entities.NewFileSetFromPatterns(dir, "", " , ")

		// then
		require.NoError(t, err)
		assert.True(t, set.IsEmpty())
		assert.Equal(t, dir, set.String())
	})
}

func TestDescriptorAs(t *testing.T) {
	t.Parallel()

	t.Run("should fail with ErrRepositoryType for a foreign descriptor", func(t *testing.T) {
		t.Parallel()

		// given
		var descriptor entities.RepositoryDescriptor = &otherDescriptor{}

		// when
		_, err := entities.DescriptorAs[*namedDescriptor](descriptor)

		// then
		require.ErrorIs(t, err, entities.ErrRepositoryType)
		assert.True(t, entities.IsStructural(err))
	})
}

type namedDescriptor struct{ entities.BaseRepository }

func (d *namedDescriptor) String() string { return "named" }

type otherDescriptor struct{ entities.BaseRepository }

func (d *otherDescriptor) String() string { return "other" }

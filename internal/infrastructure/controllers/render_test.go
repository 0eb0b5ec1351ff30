//go:build unit

package controllers //nolint:testpackage // tests unexported rendering

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/test/domain/entitybuilders"
)

func TestRender(t *testing.T) {
	t.Parallel()

	t.Run("should encode the result as YAML", func(t *testing.T) {
		t.Parallel()

		// given
		result := entities.NewCheckInResult(entities.NewScmResult("svn commit", "", "", true),
			[]entities.ScmFile{entities.NewScmFile("a.txt", entities.StatusCheckedIn)}, "42")
		out := &bytes.Buffer{}

		// when
		err := render(out, outputYAML, entities.CommandCheckIn, result)

		// then
		require.NoError(t, err)
		var view map[string]any
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &view))
		assert.Equal(t, "checkin", view["command"])
		assert.Equal(t, true, view["success"])
		assert.Equal(t, "42", view["revision"])
		assert.Len(t, view["files"], 1)
	})

	t.Run("should print change sets as a table with a summary", func(t *testing.T) {
		t.Parallel()

		// given
		cs := entitybuilders.NewChangeSetBuilder().
			WithAuthor("alice").
			WithRevision("r7").
			WithComment(strings.Repeat("x", 80)).
			WithDate(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)).
			BuildChangeSet()
		result := entities.NewChangeLogResult(entities.NewScmResult("hg log", "", "", true),
			&entities.ChangeLogSet{ChangeSets: []entities.ChangeSet{cs}})
		out := &bytes.Buffer{}

		// when
		err := render(out, outputTable, entities.CommandChangeLog, result)

		// then
		require.NoError(t, err)
		assert.Contains(t, out.String(), "alice")
		assert.Contains(t, out.String(), "r7")
		assert.Contains(t, out.String(), "...")
		assert.Contains(t, out.String(), "changelog succeeded")
	})

	t.Run("should mark the latest tag of the remote", func(t *testing.T) {
		t.Parallel()

		// given
		result := entities.NewRemoteInfoResult(entities.NewScmResult("git ls-remote", "", "", true),
			map[string]string{"main": "abc"},
			map[string]string{"v1.2.0": "111", "v1.10.0": "222", "nightly": "333"})
		out := &bytes.Buffer{}

		// when
		err := render(out, outputTable, entities.CommandRemoteInfo, result)

		// then
		require.NoError(t, err)
		assert.Contains(t, out.String(), "v1.10.0 (latest)")
		assert.NotContains(t, out.String(), "v1.2.0 (latest)")
		assert.Contains(t, out.String(), "main")
	})

	t.Run("should reject an unknown format", func(t *testing.T) {
		t.Parallel()

		// given
		result := entities.NewStatusResult(entities.NewScmResult("", "", "", true), nil)

		// when
		err := render(&bytes.Buffer{}, "json", entities.CommandStatus, result)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "json")
	})
}

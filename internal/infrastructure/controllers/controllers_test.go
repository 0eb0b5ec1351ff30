//go:build unit

package controllers //nolint:testpackage // shares helpers with the goal tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/scmforge/internal/domain/commands"
	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/test/domain/commanddoubles"
	"github.com/rios0rios0/scmforge/test/infrastructure/processdoubles"
)

func TestValidateController_Execute(t *testing.T) {
	t.Parallel()

	t.Run("should print valid for a connection string without messages", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubManager{}
		ctrl := NewValidateController(stub.Factory())
		cmd, out := newGoalCommand(t, ctrl)

		// when
		err := ctrl.Execute(cmd, []string{"scm:svn:https://svn.example.com/repo"})

		// then
		require.NoError(t, err)
		assert.Contains(t, out.String(), "valid")
		assert.Contains(t, out.String(), "scm:svn:https://svn.example.com/repo")
	})

	t.Run("should list every message and fail for an invalid connection string", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubManager{Validation: []string{"Missing depot.", "Missing stream."}}
		ctrl := NewValidateController(stub.Factory())
		cmd, out := newGoalCommand(t, ctrl)

		// when
		err := ctrl.Execute(cmd, []string{"scm:accurev|host"})

		// then
		require.ErrorIs(t, err, ErrInvalidConnection)
		assert.Contains(t, out.String(), "invalid")
		assert.Contains(t, out.String(), "  - Missing depot.")
		assert.Contains(t, out.String(), "  - Missing stream.")
	})
}

func TestProvidersController_Execute(t *testing.T) {
	t.Parallel()

	infos := []commands.ProviderInfo{
		{Tag: "svn", Implementation: "svn", MetadataFile: ".svn",
			Commands: []entities.CommandName{entities.CommandCheckOut, entities.CommandUpdate}},
	}

	t.Run("should print the providers as a table", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubManager{ProviderInfos: infos}
		ctrl := NewProvidersController(stub.Factory())
		cmd, out := newGoalCommand(t, ctrl)

		// when
		err := ctrl.Execute(cmd, nil)

		// then
		require.NoError(t, err)
		assert.Contains(t, out.String(), ".svn")
		assert.Contains(t, out.String(), "checkout update")
	})

	t.Run("should print the providers as YAML", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubManager{ProviderInfos: infos}
		ctrl := NewProvidersController(stub.Factory())
		cmd, out := newGoalCommand(t, ctrl, "--output", outputYAML)

		// when
		err := ctrl.Execute(cmd, nil)

		// then
		require.NoError(t, err)
		var decoded []map[string]any
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
		require.Len(t, decoded, 1)
		assert.Equal(t, "svn", decoded[0]["tag"])
	})
}

func TestBootstrapController_Execute(t *testing.T) {
	t.Parallel()

	t.Run("should check out and run the goals in the project directory", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubManager{
			Repository: stubRepository(),
			Result: entities.NewCheckOutResult(entities.NewScmResult("spy checkout", "", "", true),
				[]entities.ScmFile{entities.NewScmFile("Makefile", entities.StatusCheckedOut)}, "project", "7"),
		}
		runner := &processdoubles.StubRunner{Stdout: []string{"ok"}}
		ctrl := NewBootstrapController(commands.NewBootstrapCommand(runner), stub.Factory())
		dir := t.TempDir()
		cmd, out := newGoalCommand(t, ctrl, "--url", "scm:spy:x", "--dir", dir, "--goals", "make test")

		// when
		err := ctrl.Execute(cmd, nil)

		// then
		require.NoError(t, err)
		require.Len(t, runner.Commands, 1)
		assert.Equal(t, "make test", runner.Commands[0].String())
		assert.Contains(t, out.String(), "Makefile")
	})

	t.Run("should reject an unknown version type", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubManager{Repository: stubRepository()}
		ctrl := NewBootstrapController(commands.NewBootstrapCommand(&processdoubles.StubRunner{}), stub.Factory())
		cmd, _ := newGoalCommand(t, ctrl, "--url", "scm:spy:x", "--scm-version", "v1",
			"--scm-version-type", "label")

		// when
		err := ctrl.Execute(cmd, nil)

		// then
		require.Error(t, err)
		assert.Empty(t, stub.ExecuteCalls)
	})
}

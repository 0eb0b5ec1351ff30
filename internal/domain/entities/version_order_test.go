//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

func TestSortVersionNames(t *testing.T) {
	t.Parallel()

	t.Run("should order semantic versions before other names", func(t *testing.T) {
		t.Parallel()

		// given
		names := []string{"release-candidate", "v1.10.0", "1.2.0", "v1.9.3", "alpha", "v2.0.0-rc.1", "v2.0.0"}

		// when
		sorted := entities.SortVersionNames(names)

		// then
		assert.Equal(t, []string{"1.2.0", "v1.9.3", "v1.10.0", "v2.0.0-rc.1", "v2.0.0", "alpha", "release-candidate"}, sorted)
		assert.Equal(t, "release-candidate", names[0])
	})
}

func TestLatestVersionName(t *testing.T) {
	t.Parallel()

	t.Run("should pick the newest semantic version", func(t *testing.T) {
		t.Parallel()

		// when
		latest := entities.LatestVersionName([]string{"v1.9.3", "1.10.0", "nightly"})

		// then
		assert.Equal(t, "1.10.0", latest)
	})

	t.Run("should return empty when no name is a version", func(t *testing.T) {
		t.Parallel()

		// when
		latest := entities.LatestVersionName([]string{"trunk", "nightly"})

		// then
		assert.Empty(t, latest)
	})
}

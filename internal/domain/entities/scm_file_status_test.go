//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

func TestScmFileStatus_Predicates(t *testing.T) {
	t.Parallel()

	t.Run("should keep the predicates consistent for every member", func(t *testing.T) {
		t.Parallel()

		for _, status := range entities.AllScmFileStatuses() {
			// when
			isStatus := status.IsStatus()
			isUpdate := status.IsUpdate()
			isTransaction := status.IsTransaction()

			// then
			assert.Equal(t, status.IsDiff() || status == entities.StatusUnknown, isStatus, status.String())
			assert.Equal(t, status == entities.StatusConflict || status == entities.StatusUpdated ||
				status == entities.StatusPatched, isUpdate, status.String())
			assert.Equal(t, status == entities.StatusCheckedIn || status == entities.StatusCheckedOut ||
				status == entities.StatusLocked || status == entities.StatusTagged || isUpdate,
				isTransaction, status.String())
		}
	})

	t.Run("should parse every status back from its name", func(t *testing.T) {
		t.Parallel()

		for _, status := range entities.AllScmFileStatuses() {
			// when
			parsed, ok := entities.ParseScmFileStatus(status.String())

			// then
			assert.True(t, ok)
			assert.Equal(t, status, parsed)
		}
		_, ok := entities.ParseScmFileStatus("renamed")
		assert.False(t, ok)
	})
}

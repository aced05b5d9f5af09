package scheduling

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-engine/internal/models"
	appErrors "github.com/noah-isme/lesson-engine/pkg/errors"
)

func TestNextSubstitutionStatus(t *testing.T) {
	allowed := []struct {
		from   models.SubstitutionStatus
		action models.SubstitutionAction
		to     models.SubstitutionStatus
	}{
		{models.SubstitutionStatusPending, models.SubstitutionActionApprove, models.SubstitutionStatusApproved},
		{models.SubstitutionStatusPending, models.SubstitutionActionCancel, models.SubstitutionStatusCancelled},
		{models.SubstitutionStatusApproved, models.SubstitutionActionComplete, models.SubstitutionStatusCompleted},
		{models.SubstitutionStatusApproved, models.SubstitutionActionCancel, models.SubstitutionStatusCancelled},
	}
	for _, tc := range allowed {
		next, err := NextSubstitutionStatus(tc.from, tc.action)
		require.NoError(t, err)
		assert.Equal(t, tc.to, next)
	}
}

func TestNextSubstitutionStatusRejectsInvalidMoves(t *testing.T) {
	rejected := []struct {
		from   models.SubstitutionStatus
		action models.SubstitutionAction
	}{
		{models.SubstitutionStatusPending, models.SubstitutionActionComplete},
		{models.SubstitutionStatusApproved, models.SubstitutionActionApprove},
		{models.SubstitutionStatusCompleted, models.SubstitutionActionCancel},
		{models.SubstitutionStatusCompleted, models.SubstitutionActionApprove},
		{models.SubstitutionStatusCancelled, models.SubstitutionActionApprove},
		{models.SubstitutionStatusCancelled, models.SubstitutionActionComplete},
	}
	for _, tc := range rejected {
		next, err := NextSubstitutionStatus(tc.from, tc.action)
		require.Error(t, err)
		assert.True(t, errors.Is(err, appErrors.ErrInvalidTransition))
		assert.Equal(t, tc.from, next)
	}
}

func TestOverlappingSubstitutions(t *testing.T) {
	slot, err := NewInterval(day, "14:00", "15:00")
	require.NoError(t, err)
	others := []models.SubstitutionRequest{
		{ID: "R1", SubstitutionDate: day, StartTime: "14:30", EndTime: "15:30"},
		{ID: "R2", SubstitutionDate: day, StartTime: "15:00", EndTime: "16:00"},
		{ID: "R3", SubstitutionDate: day, StartTime: "13:00", EndTime: "14:30"},
	}
	ids, err := OverlappingSubstitutions(slot, others, "R3")
	require.NoError(t, err)
	assert.Equal(t, []string{"R1"}, ids)
}

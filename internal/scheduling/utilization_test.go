package scheduling

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-engine/internal/models"
	appErrors "github.com/noah-isme/lesson-engine/pkg/errors"
)

func TestComputeUtilizationSingleSession(t *testing.T) {
	report, err := ComputeUtilization("101", day, "09:00", "18:00", []models.LessonSession{
		session("S1", "10:00", "11:30", withClassroom("101")),
		session("S2", "10:00", "11:30", withClassroom("202")),
	})
	require.NoError(t, err)
	assert.Equal(t, 540, report.WindowMinutes)
	assert.Equal(t, 90, report.OccupiedMinutes)
	assert.InDelta(t, 16.6667, report.UtilizationPercent, 0.001)
	assert.Equal(t, 16.67, report.DisplayPercent)
	assert.False(t, report.Overbooked)
	assert.Equal(t, []string{"S1"}, report.ContributingSessionIDs)
}

func TestComputeUtilizationPercentMatchesMinutes(t *testing.T) {
	report, err := ComputeUtilization("101", day, "09:00:00", "18:00:00", []models.LessonSession{
		session("S1", "10:00:00", "10:45:00", withClassroom("101")),
	})
	require.NoError(t, err)
	assert.Equal(t, 45, report.OccupiedMinutes)
	assert.Equal(t, 540, report.WindowMinutes)
	assert.Equal(t, float64(report.OccupiedMinutes)/float64(report.WindowMinutes)*100, report.UtilizationPercent)
	assert.Equal(t, "09:00", report.WindowStart)

	_, err = ComputeUtilization("101", day, "09:00", "18:00", []models.LessonSession{
		session("S2", "10:00", "10:00:30", withClassroom("101")),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidInterval))
}

func TestComputeUtilizationExcludesCancelledAndOtherDates(t *testing.T) {
	report, err := ComputeUtilization("101", day, "09:00", "18:00", []models.LessonSession{
		session("S1", "10:00", "11:00", withClassroom("101"), withStatus(models.SessionStatusCancelled)),
		session("S2", "12:00", "13:00", withClassroom("101"), onDate(day.AddDate(0, 0, 1))),
	})
	require.NoError(t, err)
	assert.Zero(t, report.OccupiedMinutes)
	assert.Zero(t, report.UtilizationPercent)
	assert.Empty(t, report.ContributingSessionIDs)
}

func TestComputeUtilizationMonotonic(t *testing.T) {
	base := []models.LessonSession{
		session("S1", "09:00", "10:00", withClassroom("101")),
	}
	before, err := ComputeUtilization("101", day, "09:00", "18:00", base)
	require.NoError(t, err)

	after, err := ComputeUtilization("101", day, "09:00", "18:00", append(base, session("S2", "13:00", "14:45", withClassroom("101"))))
	require.NoError(t, err)
	assert.Equal(t, before.OccupiedMinutes+105, after.OccupiedMinutes)
	assert.Greater(t, after.UtilizationPercent, before.UtilizationPercent)
}

func TestComputeUtilizationKeepsRawValueWhenOverbooked(t *testing.T) {
	report, err := ComputeUtilization("101", day, "09:00", "10:00", []models.LessonSession{
		session("S1", "09:00", "10:00", withClassroom("101")),
		session("S2", "09:00", "10:00", withClassroom("101")),
	})
	require.NoError(t, err)
	assert.Equal(t, 200.0, report.UtilizationPercent)
	assert.Equal(t, 100.0, report.DisplayPercent)
	assert.True(t, report.Overbooked)
}

func TestComputeUtilizationRejectsBadWindow(t *testing.T) {
	_, err := ComputeUtilization("101", day, "18:00", "09:00", nil)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidInterval))

	_, err = ComputeUtilization("", day, "09:00", "18:00", nil)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestComputeUtilizationRejectsInvalidSession(t *testing.T) {
	_, err := ComputeUtilization("101", day, "09:00", "18:00", []models.LessonSession{
		session("S1", "11:00", "11:00", withClassroom("101")),
	})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidInterval))
}

func TestComputeBranchUtilization(t *testing.T) {
	reports, err := ComputeBranchUtilization(day, "09:00", "18:00", []models.LessonSession{
		session("S1", "10:00", "11:00", withClassroom("B")),
		session("S2", "10:00", "12:00", withClassroom("A")),
		session("S3", "10:00", "12:00"),
		session("S4", "10:00", "12:00", withClassroom("C"), withStatus(models.SessionStatusCancelled)),
	})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "A", reports[0].ClassroomID)
	assert.Equal(t, 120, reports[0].OccupiedMinutes)
	assert.Equal(t, "B", reports[1].ClassroomID)
	assert.Equal(t, 60, reports[1].OccupiedMinutes)
}

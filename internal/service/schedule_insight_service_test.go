package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-engine/internal/dto"
	"github.com/noah-isme/lesson-engine/internal/models"
	appErrors "github.com/noah-isme/lesson-engine/pkg/errors"
	"github.com/noah-isme/lesson-engine/pkg/export"
)

func newInsightFixture(sessions ...models.LessonSession) (*ScheduleInsightService, *sessionStoreStub) {
	store := &sessionStoreStub{sessions: sessions}
	roster := &teacherRosterStub{teachers: []models.Teacher{
		{ID: "t1", BranchID: "b1", Subjects: []string{"english"}, Active: true},
		{ID: "t2", BranchID: "b1", Subjects: []string{"english", "math"}, Active: true},
		{ID: "t3", BranchID: "b1", Subjects: []string{"math"}, Active: true},
		{ID: "t4", BranchID: "b1", Subjects: []string{"english"}, Active: false},
	}}
	metrics := NewMetricsService()
	cache := NewCacheService(newMemoryCacheRepo(), metrics, 0, nil, true)
	svc := NewScheduleInsightService(store, roster, cache, metrics, WorkdayWindow{Start: "09:00", End: "18:00"}, nil, nil)
	return svc, store
}

func TestScheduleInsightDetectSnapshot(t *testing.T) {
	svc, _ := newInsightFixture()
	report, err := svc.DetectSnapshot(context.Background(), dto.DetectConflictsRequest{
		Sessions: []dto.SessionPayload{
			payload("a", "t1", "r1", "09:00", "10:00"),
			payload("b", "t2", "r1", "09:30", "10:30"),
		},
		Dimensions: []models.ResourceDimension{models.DimensionClassroom},
	})
	require.NoError(t, err)
	require.Len(t, report[models.DimensionClassroom], 1)
	assert.Equal(t, []string{"a", "b"}, report[models.DimensionClassroom][0].SessionIDs)
	_, hasTeacher := report[models.DimensionTeacher]
	assert.False(t, hasTeacher)

	_, err = svc.DetectSnapshot(context.Background(), dto.DetectConflictsRequest{Dimensions: []models.ResourceDimension{"room"}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	bad := payload("c", "t1", "r1", "09:00", "10:00")
	bad.Date = "01-09-2025"
	_, err = svc.DetectSnapshot(context.Background(), dto.DetectConflictsRequest{Sessions: []dto.SessionPayload{bad}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func payload(id, teacherID, classroomID, start, end string) dto.SessionPayload {
	return dto.SessionPayload{
		ID:          id,
		Date:        "2025-09-01",
		StartTime:   start,
		EndTime:     end,
		TeacherID:   strPtr(teacherID),
		ClassroomID: strPtr(classroomID),
		BranchID:    "b1",
		Kind:        models.SessionKindGroup,
		Status:      models.SessionStatusScheduled,
	}
}

func TestScheduleInsightBranchConflictsCachesReport(t *testing.T) {
	svc, store := newInsightFixture(
		lesson("a", "t1", "r1", "09:00", "10:00"),
		lesson("b", "t1", "r2", "09:30", "10:30"),
	)
	query := dto.BranchConflictsQuery{From: "2025-09-01", To: "2025-09-07"}

	report, hit, err := svc.BranchConflicts(context.Background(), "b1", query)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, report[models.DimensionTeacher], 1)

	again, hit, err := svc.BranchConflicts(context.Background(), "b1", query)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, report, again)
	assert.Equal(t, 1, store.calls())
}

func TestScheduleInsightBranchConflictsValidatesRange(t *testing.T) {
	svc, _ := newInsightFixture()
	_, _, err := svc.BranchConflicts(context.Background(), "b1", dto.BranchConflictsQuery{From: "2025-09-07", To: "2025-09-01"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = svc.BranchConflicts(context.Background(), "b1", dto.BranchConflictsQuery{From: "2025-01-01", To: "2025-12-31"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = svc.BranchConflicts(context.Background(), "b1", dto.BranchConflictsQuery{From: "01/09/2025"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestScheduleInsightClassroomUtilizationUsesDefaultWindow(t *testing.T) {
	svc, _ := newInsightFixture(
		lesson("a", "t1", "r1", "09:00", "10:30"),
		lesson("b", "t2", "r2", "09:00", "18:00"),
	)
	report, err := svc.ClassroomUtilization(context.Background(), "r1", dto.UtilizationQuery{Date: "2025-09-01"})
	require.NoError(t, err)
	assert.Equal(t, 90, report.OccupiedMinutes)
	assert.Equal(t, 540, report.WindowMinutes)
	assert.InDelta(t, 16.67, report.DisplayPercent, 0.001)
	assert.Equal(t, []string{"a"}, report.ContributingSessionIDs)
}

func TestScheduleInsightExportBranchUtilizationCSV(t *testing.T) {
	svc, _ := newInsightFixture(
		lesson("a", "t1", "r1", "09:00", "10:30"),
		lesson("b", "t2", "r2", "09:00", "18:00"),
	)
	name, payload, err := svc.ExportBranchUtilization(context.Background(), "b1", dto.UtilizationQuery{Date: "2025-09-01"}, export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "utilization-b1-2025-09-01.csv", name)
	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "r1,2025-09-01,09:00-18:00,90,540,16.67,false,a", lines[1])
	assert.Equal(t, "r2,2025-09-01,09:00-18:00,540,540,100.00,false,b", lines[2])
}

func TestScheduleInsightTeacherAvailabilityResolvesQualifiedTeachers(t *testing.T) {
	svc, _ := newInsightFixture(lesson("busy", "t1", "r1", "09:30", "10:30"))
	result, err := svc.TeacherAvailability(context.Background(), dto.TeacherAvailabilityRequest{
		Date:      "2025-09-01",
		StartTime: "10:00",
		EndTime:   "11:00",
		Subject:   "english",
		BranchID:  "b1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, result.Available)
	assert.Equal(t, []string{"t1"}, result.Conflicted)
	assert.Equal(t, []string{"busy"}, result.Conflicts["t1"])
	assert.Empty(t, result.Unknown)
}

func TestScheduleInsightTeacherAvailabilityFlagsUnknownCandidates(t *testing.T) {
	svc, _ := newInsightFixture()
	result, err := svc.TeacherAvailability(context.Background(), dto.TeacherAvailabilityRequest{
		Candidates: []string{"t3", "ghost", "t4"},
		Date:       "2025-09-01",
		StartTime:  "10:00",
		EndTime:    "11:00",
		BranchID:   "b1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"t3"}, result.Available)
	assert.Equal(t, []string{"ghost", "t4"}, result.Unknown)
	require.Len(t, result.Exceptions, 2)
	assert.Equal(t, appErrors.ErrUnknownResource.Code, result.Exceptions[0].Code)
}

func TestScheduleInsightTeacherAvailabilityRejectsBadSlot(t *testing.T) {
	svc, store := newInsightFixture()
	_, err := svc.TeacherAvailability(context.Background(), dto.TeacherAvailabilityRequest{
		Date:      "2025-09-01",
		StartTime: "11:00",
		EndTime:   "11:00",
		BranchID:  "b1",
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidInterval)
	assert.Zero(t, store.calls())
}

func TestScheduleInsightStudentAvailability(t *testing.T) {
	svc, _ := newInsightFixture(lesson("g1", "t1", "r1", "13:00", "14:00", "st1", "st2"))
	checks, err := svc.StudentAvailability(context.Background(), dto.StudentAvailabilityRequest{
		StudentIDs: []string{"st1", "st3"},
		Date:       "2025-09-01",
		StartTime:  "13:30",
		EndTime:    "14:30",
	})
	require.NoError(t, err)
	require.Len(t, checks, 2)
	assert.False(t, checks[0].Available)
	assert.Equal(t, []string{"g1"}, checks[0].SessionIDs)
	assert.True(t, checks[1].Available)
}

func TestScheduleInsightStudentAvailabilitySpansBranches(t *testing.T) {
	elsewhere := lesson("g9", "t7", "r9", "13:00", "14:00", "st1")
	elsewhere.BranchID = "b2"
	svc, store := newInsightFixture(elsewhere)

	checks, err := svc.StudentAvailability(context.Background(), dto.StudentAvailabilityRequest{
		StudentIDs: []string{"st1"},
		BranchID:   "b1",
		Date:       "2025-09-01",
		StartTime:  "13:30",
		EndTime:    "14:30",
	})
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.False(t, checks[0].Available)
	assert.Equal(t, []string{"g9"}, checks[0].SessionIDs)
	require.Equal(t, 1, store.calls())
	assert.Empty(t, store.filters[0].BranchID)
}

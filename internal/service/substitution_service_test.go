package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-engine/internal/dto"
	"github.com/noah-isme/lesson-engine/internal/models"
	appErrors "github.com/noah-isme/lesson-engine/pkg/errors"
)

func newSubstitutionFixture() (*SubstitutionService, *substitutionRepoStub, *sessionStoreStub, *MetricsService) {
	repo := newSubstitutionRepoStub()
	sessions := &sessionStoreStub{}
	metrics := NewMetricsService()
	fixed := time.Date(2025, 8, 30, 8, 0, 0, 0, time.UTC)
	svc := NewSubstitutionService(repo, sessions, nil, nil,
		WithSubstitutionClock(func() time.Time { return fixed }),
		WithSubstitutionMetrics(metrics),
	)
	return svc, repo, sessions, metrics
}

func substitutionPayload(start, end string) dto.CreateSubstitutionRequest {
	return dto.CreateSubstitutionRequest{
		SessionID:           strPtr("s-orig"),
		BranchID:            "b1",
		OriginalTeacherID:   "t1",
		SubstituteTeacherID: "t2",
		Date:                "2025-09-01",
		StartTime:           start,
		EndTime:             end,
		Reason:              strPtr("sick leave"),
	}
}

func TestSubstitutionServiceCreate(t *testing.T) {
	svc, repo, sessions, _ := newSubstitutionFixture()
	sessions.add(lesson("s-orig", "t1", "r1", "09:00", "10:00"))
	sessions.add(lesson("s-other", "t2", "r2", "10:00", "11:00"))

	req, err := svc.Create(context.Background(), substitutionPayload("09:00", "10:00"), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.SubstitutionStatusPending, req.Status)
	assert.Equal(t, "admin-1", req.RequestedBy)
	assert.Equal(t, models.SubstitutionStatusPending, repo.status(req.ID))
}

func TestSubstitutionServiceCreateRejectsBusySubstitute(t *testing.T) {
	svc, repo, sessions, _ := newSubstitutionFixture()
	sessions.add(lesson("s-busy", "t2", "r2", "09:30", "10:30"))

	_, err := svc.Create(context.Background(), substitutionPayload("09:00", "10:00"), "admin-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	var busy *models.StaleApprovalError
	require.True(t, errors.As(err, &busy))
	assert.Equal(t, []string{"s-busy"}, busy.ConflictingSessions)
	assert.Empty(t, repo.requests)
}

func TestSubstitutionServiceCreateValidation(t *testing.T) {
	svc, _, _, _ := newSubstitutionFixture()

	same := substitutionPayload("09:00", "10:00")
	same.SubstituteTeacherID = "t1"
	_, err := svc.Create(context.Background(), same, "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), substitutionPayload("10:00", "09:00"), "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrInvalidInterval)

	_, err = svc.Create(context.Background(), substitutionPayload("09:00", "10:00"), "")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestSubstitutionServiceApprove(t *testing.T) {
	svc, repo, _, metrics := newSubstitutionFixture()
	created, err := svc.Create(context.Background(), substitutionPayload("09:00", "10:00"), "admin-1")
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), created.ID, "admin-2")
	require.NoError(t, err)
	assert.Equal(t, models.SubstitutionStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "admin-2", *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, models.SubstitutionStatusApproved, repo.status(created.ID))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.transitions.WithLabelValues("approved")))
}

func TestSubstitutionServiceApproveStaleLeavesRequestPending(t *testing.T) {
	svc, repo, sessions, metrics := newSubstitutionFixture()
	created, err := svc.Create(context.Background(), substitutionPayload("09:00", "10:00"), "admin-1")
	require.NoError(t, err)

	// The substitute picks up another lesson before the request is reviewed.
	sessions.add(lesson("s-late", "t2", "r3", "09:45", "10:45"))

	req, err := svc.Approve(context.Background(), created.ID, "admin-2")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrStaleApproval)
	require.NotNil(t, req)
	assert.Equal(t, models.SubstitutionStatusPending, req.Status)
	assert.Equal(t, models.SubstitutionStatusPending, repo.status(created.ID))

	var stale *models.StaleApprovalError
	require.True(t, errors.As(err, &stale))
	assert.Equal(t, created.ID, stale.RequestID)
	assert.Equal(t, []string{"s-late"}, stale.ConflictingSessions)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.staleApprovals))
}

func TestSubstitutionServiceApproveStaleOnApprovedSubstitution(t *testing.T) {
	svc, _, _, _ := newSubstitutionFixture()
	first, err := svc.Create(context.Background(), substitutionPayload("09:00", "10:00"), "admin-1")
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), substitutionPayload("09:30", "10:30"), "admin-1")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), first.ID, "admin-2")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), second.ID, "admin-2")
	assert.ErrorIs(t, err, appErrors.ErrStaleApproval)
	var stale *models.StaleApprovalError
	require.True(t, errors.As(err, &stale))
	assert.Equal(t, []string{first.ID}, stale.ConflictingRequests)
}

func TestSubstitutionServiceTransitions(t *testing.T) {
	svc, _, _, _ := newSubstitutionFixture()
	created, err := svc.Create(context.Background(), substitutionPayload("09:00", "10:00"), "admin-1")
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), created.ID)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	_, err = svc.Approve(context.Background(), created.ID, "admin-2")
	require.NoError(t, err)
	completed, err := svc.Complete(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubstitutionStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	_, err = svc.Cancel(context.Background(), created.ID)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	_, err = svc.Approve(context.Background(), created.ID, "admin-2")
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestSubstitutionServiceCancelPending(t *testing.T) {
	svc, repo, _, _ := newSubstitutionFixture()
	created, err := svc.Create(context.Background(), substitutionPayload("09:00", "10:00"), "admin-1")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubstitutionStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, models.SubstitutionStatusCancelled, repo.status(created.ID))
}

func TestSubstitutionServiceLostRace(t *testing.T) {
	svc, repo, _, _ := newSubstitutionFixture()
	created, err := svc.Create(context.Background(), substitutionPayload("09:00", "10:00"), "admin-1")
	require.NoError(t, err)

	repo.loseRace = true
	_, err = svc.Approve(context.Background(), created.ID, "admin-2")
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Equal(t, models.SubstitutionStatusPending, repo.status(created.ID))
}

func TestSubstitutionServiceNotFound(t *testing.T) {
	svc, _, _, _ := newSubstitutionFixture()
	_, err := svc.Approve(context.Background(), "missing", "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSubstitutionServiceGetScopesTeachers(t *testing.T) {
	svc, _, _, _ := newSubstitutionFixture()
	created, err := svc.Create(context.Background(), substitutionPayload("09:00", "10:00"), "admin-1")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), created.ID, &models.JWTClaims{UserID: "t9", Role: models.RoleTeacher})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	got, err := svc.Get(context.Background(), created.ID, &models.JWTClaims{UserID: "t2", Role: models.RoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Get(context.Background(), created.ID, nil)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestSubstitutionServiceList(t *testing.T) {
	svc, repo, _, _ := newSubstitutionFixture()
	_, err := svc.Create(context.Background(), substitutionPayload("09:00", "10:00"), "admin-1")
	require.NoError(t, err)

	items, page, err := svc.List(context.Background(), dto.SubstitutionQuery{Status: []string{"pending,approved"}, From: "2025-09-01"}, &models.JWTClaims{UserID: "t2", Role: models.RoleTeacher})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, "t2", repo.filter.SubstituteTeacherID)
	assert.Equal(t, []models.SubstitutionStatus{models.SubstitutionStatusPending, models.SubstitutionStatusApproved}, repo.filter.Status)
	require.NotNil(t, repo.filter.DateFrom)

	_, _, err = svc.List(context.Background(), dto.SubstitutionQuery{Status: []string{"archived"}}, &models.JWTClaims{UserID: "a", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

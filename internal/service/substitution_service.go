package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lesson-engine/internal/dto"
	"github.com/noah-isme/lesson-engine/internal/models"
	"github.com/noah-isme/lesson-engine/internal/scheduling"
	appErrors "github.com/noah-isme/lesson-engine/pkg/errors"
)

type substitutionStore interface {
	Create(ctx context.Context, req *models.SubstitutionRequest) error
	GetByID(ctx context.Context, id string) (*models.SubstitutionRequest, error)
	List(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRequest, int, error)
	ListApprovedBySubstituteAndDate(ctx context.Context, teacherID string, date time.Time) ([]models.SubstitutionRequest, error)
	UpdateStatus(ctx context.Context, id string, expected, next models.SubstitutionStatus, actor *string, at time.Time) (bool, error)
}

type teacherSessionReader interface {
	ListByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) ([]models.LessonSession, error)
}

// SubstitutionService runs the substitute teacher workflow:
// pending -> approved -> completed, with cancel allowed before completion.
type SubstitutionService struct {
	repo      substitutionStore
	sessions  teacherSessionReader
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// SubstitutionServiceOption configures the service.
type SubstitutionServiceOption func(*SubstitutionService)

// WithSubstitutionClock overrides the time source.
func WithSubstitutionClock(now func() time.Time) SubstitutionServiceOption {
	return func(s *SubstitutionService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSubstitutionMetrics records transitions and stale approvals.
func WithSubstitutionMetrics(metrics *MetricsService) SubstitutionServiceOption {
	return func(s *SubstitutionService) {
		s.metrics = metrics
	}
}

// NewSubstitutionService constructs the service.
func NewSubstitutionService(repo substitutionStore, sessions teacherSessionReader, validate *validator.Validate, logger *zap.Logger, opts ...SubstitutionServiceOption) *SubstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &SubstitutionService{
		repo:      repo,
		sessions:  sessions,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create records a pending request after checking the substitute is free for the slot.
func (s *SubstitutionService) Create(ctx context.Context, req dto.CreateSubstitutionRequest, requestedBy string) (*models.SubstitutionRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitution payload")
	}
	if strings.TrimSpace(requestedBy) == "" {
		return nil, appErrors.ErrUnauthorized
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}

	request := &models.SubstitutionRequest{
		SessionID:           req.SessionID,
		BranchID:            req.BranchID,
		OriginalTeacherID:   req.OriginalTeacherID,
		SubstituteTeacherID: req.SubstituteTeacherID,
		SubstitutionDate:    date,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		Reason:              req.Reason,
		Status:              models.SubstitutionStatusPending,
		RequestedBy:         requestedBy,
		CreatedAt:           s.now(),
	}

	busy, err := s.substituteConflicts(ctx, request)
	if err != nil {
		return nil, err
	}
	if busy != nil {
		return nil, appErrors.Wrap(busy, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
			fmt.Sprintf("substitute %s is not available for %s %s-%s", request.SubstituteTeacherID, req.Date, req.StartTime, req.EndTime))
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create substitution request")
	}
	s.metrics.RecordSubstitutionTransition(request.Status)
	s.logger.Info("substitution requested",
		zap.String("id", request.ID),
		zap.String("original_teacher_id", request.OriginalTeacherID),
		zap.String("substitute_teacher_id", request.SubstituteTeacherID),
		zap.String("date", req.Date),
	)
	return request, nil
}

// Approve re-validates the substitute against the current schedule and moves
// the request to approved. When the substitute became busy, the unchanged
// pending request is returned with a STALE_APPROVAL error wrapping a
// *models.StaleApprovalError.
func (s *SubstitutionService) Approve(ctx context.Context, id, approverID string) (*models.SubstitutionRequest, error) {
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := scheduling.NextSubstitutionStatus(request.Status, models.SubstitutionActionApprove); err != nil {
		return request, err
	}

	busy, err := s.substituteConflicts(ctx, request)
	if err != nil {
		return nil, err
	}
	if busy != nil {
		s.metrics.RecordStaleApproval()
		s.logger.Warn("substitution approval is stale",
			zap.String("id", request.ID),
			zap.Strings("conflicting_sessions", busy.ConflictingSessions),
			zap.Strings("conflicting_requests", busy.ConflictingRequests),
		)
		return request, appErrors.Wrap(busy, appErrors.ErrStaleApproval.Code, appErrors.ErrStaleApproval.Status, busy.Error())
	}

	return s.transition(ctx, request, models.SubstitutionActionApprove, &approverID)
}

// Complete marks an approved substitution as delivered.
func (s *SubstitutionService) Complete(ctx context.Context, id string) (*models.SubstitutionRequest, error) {
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, request, models.SubstitutionActionComplete, nil)
}

// Cancel withdraws a pending or approved substitution.
func (s *SubstitutionService) Cancel(ctx context.Context, id string) (*models.SubstitutionRequest, error) {
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, request, models.SubstitutionActionCancel, nil)
}

// Get returns a request by id. Teachers only see requests they take part in.
func (s *SubstitutionService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.SubstitutionRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleTeacher && request.OriginalTeacherID != actor.UserID && request.SubstituteTeacherID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

// List returns requests matching the query. Teachers are scoped to requests
// where they substitute.
func (s *SubstitutionService) List(ctx context.Context, query dto.SubstitutionQuery, actor *models.JWTClaims) ([]models.SubstitutionRequest, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size < 1 || size > 200 {
		size = 50
	}
	filter := models.SubstitutionFilter{
		BranchID:            query.BranchID,
		TeacherID:           query.TeacherID,
		SubstituteTeacherID: query.SubstituteTeacherID,
		Limit:               size,
		Offset:              (page - 1) * size,
	}
	for _, raw := range query.Status {
		for _, part := range strings.Split(raw, ",") {
			status := models.SubstitutionStatus(strings.ToLower(strings.TrimSpace(part)))
			switch status {
			case "":
				continue
			case models.SubstitutionStatusPending, models.SubstitutionStatusApproved, models.SubstitutionStatusCompleted, models.SubstitutionStatusCancelled:
				filter.Status = append(filter.Status, status)
			default:
				return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", part))
			}
		}
	}
	if query.From != "" {
		from, err := parseDate("from", query.From)
		if err != nil {
			return nil, nil, err
		}
		filter.DateFrom = &from
	}
	if query.To != "" {
		to, err := parseDate("to", query.To)
		if err != nil {
			return nil, nil, err
		}
		filter.DateTo = &to
	}

	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff:
	case models.RoleTeacher:
		filter.SubstituteTeacherID = actor.UserID
	default:
		return nil, nil, appErrors.ErrForbidden
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list substitution requests")
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *SubstitutionService) load(ctx context.Context, id string) (*models.SubstitutionRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "substitution request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitution request")
	}
	return request, nil
}

// transition applies action with a compare-and-set update so concurrent
// reviewers cannot both move the same request.
func (s *SubstitutionService) transition(ctx context.Context, request *models.SubstitutionRequest, action models.SubstitutionAction, actor *string) (*models.SubstitutionRequest, error) {
	next, err := scheduling.NextSubstitutionStatus(request.Status, action)
	if err != nil {
		return request, err
	}
	at := s.now()
	ok, err := s.repo.UpdateStatus(ctx, request.ID, request.Status, next, actor, at)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update substitution request")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("substitution %s is no longer %s", request.ID, request.Status))
	}

	updated := *request
	updated.Status = next
	updated.UpdatedAt = at
	switch next {
	case models.SubstitutionStatusApproved:
		updated.ApprovedAt = &at
		updated.ApprovedBy = actor
	case models.SubstitutionStatusCompleted:
		updated.CompletedAt = &at
	case models.SubstitutionStatusCancelled:
		updated.CancelledAt = &at
	}

	s.metrics.RecordSubstitutionTransition(next)
	s.logger.Info("substitution transitioned",
		zap.String("id", updated.ID),
		zap.String("from", string(request.Status)),
		zap.String("to", string(next)),
	)
	return &updated, nil
}

// substituteConflicts checks the substitute's sessions and approved
// substitutions on the request date. It returns nil when the slot is free.
func (s *SubstitutionService) substituteConflicts(ctx context.Context, request *models.SubstitutionRequest) (*models.StaleApprovalError, error) {
	slot, err := scheduling.SubstitutionSlot(*request)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListByTeacherAndDate(ctx, request.SubstituteTeacherID, request.SubstitutionDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitute sessions")
	}
	var exclude []string
	if request.SessionID != nil {
		exclude = []string{*request.SessionID}
	}
	availability, err := scheduling.FindAvailable(scheduling.AvailabilityQuery{
		Candidates:        []string{request.SubstituteTeacherID},
		Date:              request.SubstitutionDate,
		StartTime:         request.StartTime,
		EndTime:           request.EndTime,
		BranchID:          request.BranchID,
		ExcludeSessionIDs: exclude,
	}, sessions)
	if err != nil {
		return nil, err
	}

	approved, err := s.repo.ListApprovedBySubstituteAndDate(ctx, request.SubstituteTeacherID, request.SubstitutionDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approved substitutions")
	}
	overlapping, err := scheduling.OverlappingSubstitutions(slot, approved, request.ID)
	if err != nil {
		return nil, err
	}

	blockingSessions := availability.Conflicts[request.SubstituteTeacherID]
	if len(blockingSessions) == 0 && len(overlapping) == 0 {
		return nil, nil
	}
	return &models.StaleApprovalError{
		RequestID:           request.ID,
		SubstituteTeacherID: request.SubstituteTeacherID,
		ConflictingSessions: blockingSessions,
		ConflictingRequests: overlapping,
	}, nil
}

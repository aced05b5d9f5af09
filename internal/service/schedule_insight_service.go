package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lesson-engine/internal/dto"
	"github.com/noah-isme/lesson-engine/internal/models"
	"github.com/noah-isme/lesson-engine/internal/scheduling"
	appErrors "github.com/noah-isme/lesson-engine/pkg/errors"
	"github.com/noah-isme/lesson-engine/pkg/export"
)

// maxConflictRangeDays bounds branch conflict scans.
const maxConflictRangeDays = 62

type sessionReader interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.LessonSession, error)
}

type teacherRoster interface {
	ListQualified(ctx context.Context, branchID, subject string) ([]models.Teacher, error)
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
}

// WorkdayWindow is the default reference window for utilization.
type WorkdayWindow struct {
	Start string
	End   string
}

// ScheduleInsightService loads session snapshots and runs the scheduling
// engine over them for conflict, utilization and availability queries.
type ScheduleInsightService struct {
	sessions  sessionReader
	teachers  teacherRoster
	cache     *CacheService
	metrics   *MetricsService
	window    WorkdayWindow
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleInsightService wires the service. cache and metrics may be nil.
func NewScheduleInsightService(sessions sessionReader, teachers teacherRoster, cache *CacheService, metrics *MetricsService, window WorkdayWindow, validate *validator.Validate, logger *zap.Logger) *ScheduleInsightService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if window.Start == "" {
		window.Start = "09:00"
	}
	if window.End == "" {
		window.End = "18:00"
	}
	return &ScheduleInsightService{
		sessions:  sessions,
		teachers:  teachers,
		cache:     cache,
		metrics:   metrics,
		window:    window,
		validator: validate,
		logger:    logger,
	}
}

// DetectSnapshot runs conflict detection over a caller supplied snapshot.
func (s *ScheduleInsightService) DetectSnapshot(ctx context.Context, req dto.DetectConflictsRequest) (models.ConflictReport, error) {
	dims, err := parseDimensions(req.Dimensions)
	if err != nil {
		return nil, err
	}
	sessions, err := dto.ToSessions(req.Sessions)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	report, err := scheduling.DetectConflictsFor(sessions, dims...)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveConflictReport("request", report, time.Since(start))
	return report, nil
}

// BranchConflicts detects conflicts among stored sessions of a branch between
// from and to inclusive. The boolean reports a cache hit.
func (s *ScheduleInsightService) BranchConflicts(ctx context.Context, branchID string, query dto.BranchConflictsQuery) (models.ConflictReport, bool, error) {
	if strings.TrimSpace(branchID) == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "branch id is required")
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict query")
	}
	from, to, err := parseRange(query.From, query.To)
	if err != nil {
		return nil, false, err
	}

	key := CacheKey("conflicts", "branch", branchID, from.Format(models.DateLayout), to.Format(models.DateLayout))
	return remember(ctx, s.cache, key, func() (models.ConflictReport, error) {
		return s.detectStored(ctx, "branch", models.SessionFilter{BranchID: branchID, DateFrom: from, DateTo: to})
	})
}

// detectStored loads sessions for filter and detects conflicts across all dimensions.
func (s *ScheduleInsightService) detectStored(ctx context.Context, source string, filter models.SessionFilter) (models.ConflictReport, error) {
	sessions, err := s.loadSessions(ctx, "conflicts", filter)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	report, err := scheduling.DetectConflicts(sessions)
	if err != nil {
		s.logger.Error("stored sessions failed validation", zap.String("branch_id", filter.BranchID), zap.Error(err))
		return nil, err
	}
	s.metrics.ObserveConflictReport(source, report, time.Since(start))
	return report, nil
}

// ClassroomUtilization reports how much of the window one classroom is occupied on a date.
func (s *ScheduleInsightService) ClassroomUtilization(ctx context.Context, classroomID string, query dto.UtilizationQuery) (models.UtilizationReport, error) {
	if strings.TrimSpace(classroomID) == "" {
		return models.UtilizationReport{}, appErrors.Clone(appErrors.ErrValidation, "classroom id is required")
	}
	date, windowStart, windowEnd, err := s.utilizationParams(query)
	if err != nil {
		return models.UtilizationReport{}, err
	}
	sessions, err := s.loadSessions(ctx, "utilization", models.SessionFilter{ClassroomID: classroomID, DateFrom: date, DateTo: date})
	if err != nil {
		return models.UtilizationReport{}, err
	}
	return scheduling.ComputeUtilization(classroomID, date, windowStart, windowEnd, sessions)
}

// BranchUtilization reports utilization for every classroom used in a branch on a date.
func (s *ScheduleInsightService) BranchUtilization(ctx context.Context, branchID string, query dto.UtilizationQuery) ([]models.UtilizationReport, error) {
	if strings.TrimSpace(branchID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "branch id is required")
	}
	date, windowStart, windowEnd, err := s.utilizationParams(query)
	if err != nil {
		return nil, err
	}

	key := CacheKey("utilization", "branch", branchID, date.Format(models.DateLayout), windowStart, windowEnd)
	reports, _, err := remember(ctx, s.cache, key, func() ([]models.UtilizationReport, error) {
		sessions, err := s.loadSessions(ctx, "utilization", models.SessionFilter{BranchID: branchID, DateFrom: date, DateTo: date})
		if err != nil {
			return nil, err
		}
		return scheduling.ComputeBranchUtilization(date, windowStart, windowEnd, sessions)
	})
	return reports, err
}

// ExportBranchUtilization renders branch utilization as CSV or PDF and returns
// the file name with the encoded payload.
func (s *ScheduleInsightService) ExportBranchUtilization(ctx context.Context, branchID string, query dto.UtilizationQuery, format export.Format) (string, []byte, error) {
	reports, err := s.BranchUtilization(ctx, branchID, query)
	if err != nil {
		return "", nil, err
	}
	dataset := export.Dataset{
		Title:   fmt.Sprintf("Classroom utilization %s (%s)", query.Date, branchID),
		Headers: []string{"classroom_id", "date", "window", "occupied_minutes", "window_minutes", "utilization_percent", "overbooked", "sessions"},
	}
	for _, r := range reports {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"classroom_id":        r.ClassroomID,
			"date":                r.Date,
			"window":              r.WindowStart + "-" + r.WindowEnd,
			"occupied_minutes":    strconv.Itoa(r.OccupiedMinutes),
			"window_minutes":      strconv.Itoa(r.WindowMinutes),
			"utilization_percent": strconv.FormatFloat(r.DisplayPercent, 'f', 2, 64),
			"overbooked":          strconv.FormatBool(r.Overbooked),
			"sessions":            strings.Join(r.ContributingSessionIDs, " "),
		})
	}
	payload, err := export.Render(format, dataset)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render utilization export")
	}
	filename := fmt.Sprintf("utilization-%s-%s.%s", branchID, query.Date, format)
	return filename, payload, nil
}

// TeacherAvailability partitions candidate teachers for a slot. With no
// candidates, the active teachers of the branch qualified for the subject are used.
func (s *ScheduleInsightService) TeacherAvailability(ctx context.Context, req dto.TeacherAvailabilityRequest) (models.AvailabilityResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.AvailabilityResult{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability request")
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return models.AvailabilityResult{}, err
	}
	// Validate the slot before touching storage.
	if _, err := scheduling.NewInterval(date, req.StartTime, req.EndTime); err != nil {
		return models.AvailabilityResult{}, err
	}

	candidates := req.Candidates
	var known []string
	if len(candidates) == 0 {
		qualified, err := s.teachers.ListQualified(ctx, req.BranchID, req.Subject)
		if err != nil {
			return models.AvailabilityResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load qualified teachers")
		}
		for _, t := range qualified {
			candidates = append(candidates, t.ID)
		}
		known = candidates
	} else {
		known, err = s.teachers.ExistingIDs(ctx, candidates)
		if err != nil {
			return models.AvailabilityResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve candidates")
		}
	}
	if known == nil {
		known = []string{}
	}

	var sessions []models.LessonSession
	if len(known) > 0 {
		// Teachers can hold sessions in other branches, so the branch is not a filter here.
		sessions, err = s.loadSessions(ctx, "availability", models.SessionFilter{TeacherIDs: known, DateFrom: date, DateTo: date})
		if err != nil {
			return models.AvailabilityResult{}, err
		}
	}

	return scheduling.FindAvailable(scheduling.AvailabilityQuery{
		Candidates:        candidates,
		KnownTeachers:     known,
		Date:              date,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		Subject:           req.Subject,
		BranchID:          req.BranchID,
		ExcludeSessionIDs: req.ExcludeSessionIDs,
	}, sessions)
}

// StudentAvailability checks each student against a slot.
func (s *ScheduleInsightService) StudentAvailability(ctx context.Context, req dto.StudentAvailabilityRequest) ([]models.StudentSlotCheck, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability request")
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	if _, err := scheduling.NewInterval(date, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	// Students can be enrolled at several branches, so the branch is not a filter here.
	sessions, err := s.loadSessions(ctx, "availability", models.SessionFilter{
		StudentIDs: req.StudentIDs,
		DateFrom:   date,
		DateTo:     date,
	})
	if err != nil {
		return nil, err
	}
	return scheduling.CheckStudents(req.StudentIDs, date, req.StartTime, req.EndTime, sessions, req.ExcludeSessionIDs)
}

func (s *ScheduleInsightService) loadSessions(ctx context.Context, label string, filter models.SessionFilter) ([]models.LessonSession, error) {
	start := time.Now()
	sessions, err := s.sessions.List(ctx, filter)
	s.metrics.ObserveDBQuery("sessions_"+label, time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	return sessions, nil
}

func (s *ScheduleInsightService) utilizationParams(query dto.UtilizationQuery) (time.Time, string, string, error) {
	if err := s.validator.Struct(query); err != nil {
		return time.Time{}, "", "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid utilization query")
	}
	date, err := parseDate("date", query.Date)
	if err != nil {
		return time.Time{}, "", "", err
	}
	windowStart, windowEnd := query.WindowStart, query.WindowEnd
	if windowStart == "" {
		windowStart = s.window.Start
	}
	if windowEnd == "" {
		windowEnd = s.window.End
	}
	return date, windowStart, windowEnd, nil
}

func parseDate(field, raw string) (time.Time, error) {
	date, err := time.Parse(models.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a YYYY-MM-DD date", field))
	}
	return date, nil
}

func parseRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	from, err := parseDate("from", fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to := from
	if toRaw != "" {
		if to, err = parseDate("to", toRaw); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	if to.Sub(from) > maxConflictRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range must not exceed %d days", maxConflictRangeDays))
	}
	return from, to, nil
}

func parseDimensions(raw []models.ResourceDimension) ([]models.ResourceDimension, error) {
	if len(raw) == 0 {
		return models.AllDimensions, nil
	}
	dims := make([]models.ResourceDimension, 0, len(raw))
	for _, d := range raw {
		switch d {
		case models.DimensionTeacher, models.DimensionClassroom, models.DimensionStudent:
			dims = append(dims, d)
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown dimension %q", d))
		}
	}
	return dims, nil
}

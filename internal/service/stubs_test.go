package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/lesson-engine/internal/models"
	appErrors "github.com/noah-isme/lesson-engine/pkg/errors"
)

var testDay = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

func strPtr(v string) *string { return &v }

func lesson(id, teacherID, classroomID, start, end string, students ...string) models.LessonSession {
	s := models.LessonSession{
		ID:          id,
		SessionDate: testDay,
		StartTime:   start,
		EndTime:     end,
		BranchID:    "b1",
		StudentIDs:  students,
		Kind:        models.SessionKindGroup,
		Status:      models.SessionStatusScheduled,
	}
	if teacherID != "" {
		s.TeacherID = strPtr(teacherID)
	}
	if classroomID != "" {
		s.ClassroomID = strPtr(classroomID)
	}
	return s
}

type sessionStoreStub struct {
	mu       sync.Mutex
	sessions []models.LessonSession
	filters  []models.SessionFilter
	err      error
}

func (s *sessionStoreStub) List(ctx context.Context, filter models.SessionFilter) ([]models.LessonSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append(s.filters, filter)
	if s.err != nil {
		return nil, s.err
	}
	var out []models.LessonSession
	for _, session := range s.sessions {
		if filter.BranchID != "" && session.BranchID != filter.BranchID {
			continue
		}
		if filter.ClassroomID != "" && (session.ClassroomID == nil || *session.ClassroomID != filter.ClassroomID) {
			continue
		}
		if len(filter.TeacherIDs) > 0 && (session.TeacherID == nil || !contains(filter.TeacherIDs, *session.TeacherID)) {
			continue
		}
		if len(filter.StudentIDs) > 0 && !containsAny(session.StudentIDs, filter.StudentIDs) {
			continue
		}
		if !filter.DateFrom.IsZero() && session.SessionDate.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && session.SessionDate.After(filter.DateTo) {
			continue
		}
		if !filter.IncludeCancelled && session.Status == models.SessionStatusCancelled {
			continue
		}
		out = append(out, session)
	}
	return out, nil
}

func (s *sessionStoreStub) ListByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) ([]models.LessonSession, error) {
	return s.List(ctx, models.SessionFilter{TeacherIDs: []string{teacherID}, DateFrom: date, DateTo: date})
}

func (s *sessionStoreStub) add(sessions ...models.LessonSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, sessions...)
}

func (s *sessionStoreStub) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filters)
}

type teacherRosterStub struct {
	teachers []models.Teacher
}

func (t *teacherRosterStub) ListQualified(ctx context.Context, branchID, subject string) ([]models.Teacher, error) {
	var out []models.Teacher
	for _, teacher := range t.teachers {
		if teacher.BranchID != branchID || !teacher.Active {
			continue
		}
		if subject != "" && !contains(teacher.Subjects, subject) {
			continue
		}
		out = append(out, teacher)
	}
	return out, nil
}

func (t *teacherRosterStub) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	var out []string
	for _, teacher := range t.teachers {
		if teacher.Active && contains(ids, teacher.ID) {
			out = append(out, teacher.ID)
		}
	}
	return out, nil
}

type substitutionRepoStub struct {
	mu       sync.Mutex
	requests map[string]*models.SubstitutionRequest
	seq      int
	loseRace bool
	filter   models.SubstitutionFilter
}

func newSubstitutionRepoStub() *substitutionRepoStub {
	return &substitutionRepoStub{requests: make(map[string]*models.SubstitutionRequest)}
}

func (r *substitutionRepoStub) Create(ctx context.Context, req *models.SubstitutionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == "" {
		r.seq++
		req.ID = fmt.Sprintf("sub-%d", r.seq)
	}
	stored := *req
	r.requests[req.ID] = &stored
	return nil
}

func (r *substitutionRepoStub) GetByID(ctx context.Context, id string) (*models.SubstitutionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *req
	return &copy, nil
}

func (r *substitutionRepoStub) List(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRequest, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filter = filter
	var out []models.SubstitutionRequest
	for _, req := range r.requests {
		if filter.SubstituteTeacherID != "" && req.SubstituteTeacherID != filter.SubstituteTeacherID {
			continue
		}
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *substitutionRepoStub) ListApprovedBySubstituteAndDate(ctx context.Context, teacherID string, date time.Time) ([]models.SubstitutionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SubstitutionRequest
	for _, req := range r.requests {
		if req.Status == models.SubstitutionStatusApproved && req.SubstituteTeacherID == teacherID && req.SubstitutionDate.Equal(date) {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *substitutionRepoStub) UpdateStatus(ctx context.Context, id string, expected, next models.SubstitutionStatus, actor *string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != expected || r.loseRace {
		return false, nil
	}
	req.Status = next
	req.UpdatedAt = at
	if actor != nil {
		req.ApprovedBy = actor
	}
	return true, nil
}

func (r *substitutionRepoStub) status(id string) models.SubstitutionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[id].Status
}

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string]interface{}
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string]interface{})}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *models.ConflictReport:
		*d = value.(models.ConflictReport)
	case *[]models.UtilizationReport:
		*d = value.([]models.UtilizationReport)
	case *string:
		*d = value.(string)
	}
	return nil
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		delete(m.entries, key)
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func containsAny(values, targets []string) bool {
	for _, t := range targets {
		if contains(values, t) {
			return true
		}
	}
	return false
}

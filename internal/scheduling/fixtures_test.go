package scheduling

import (
	"time"

	"github.com/noah-isme/lesson-engine/internal/models"
)

var day = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

func strPtr(v string) *string { return &v }

type sessionOpt func(*models.LessonSession)

func withTeacher(id string) sessionOpt {
	return func(s *models.LessonSession) { s.TeacherID = strPtr(id) }
}

func withClassroom(id string) sessionOpt {
	return func(s *models.LessonSession) { s.ClassroomID = strPtr(id) }
}

func withStudents(ids ...string) sessionOpt {
	return func(s *models.LessonSession) { s.StudentIDs = ids }
}

func withStatus(status models.SessionStatus) sessionOpt {
	return func(s *models.LessonSession) { s.Status = status }
}

func onDate(date time.Time) sessionOpt {
	return func(s *models.LessonSession) { s.SessionDate = date }
}

func session(id, start, end string, opts ...sessionOpt) models.LessonSession {
	s := models.LessonSession{
		ID:          id,
		SessionDate: day,
		StartTime:   start,
		EndTime:     end,
		BranchID:    "branch-1",
		Kind:        models.SessionKindIndividual,
		Status:      models.SessionStatusScheduled,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

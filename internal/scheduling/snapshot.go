package scheduling

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/lesson-engine/internal/models"
	appErrors "github.com/noah-isme/lesson-engine/pkg/errors"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

type entry struct {
	session  models.LessonSession
	interval Interval
}

// snapshot is a validated, read-only view over a session slice.
type snapshot struct {
	entries []entry
}

// newSnapshot validates every session before any engine logic looks at it.
func newSnapshot(sessions []models.LessonSession) (*snapshot, error) {
	seen := make(map[string]struct{}, len(sessions))
	entries := make([]entry, 0, len(sessions))
	for _, session := range sessions {
		if err := validate.Struct(session); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid session %q", session.ID))
		}
		if _, dup := seen[session.ID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate session id %q", session.ID))
		}
		seen[session.ID] = struct{}{}

		interval, err := IntervalOf(session)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{session: session, interval: interval})
	}
	return &snapshot{entries: entries}, nil
}

// active yields non-cancelled entries.
func (s *snapshot) active() []entry {
	out := make([]entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.session.Active() {
			out = append(out, e)
		}
	}
	return out
}

// resourcesOf returns the resource ids a session binds in one dimension.
func resourcesOf(session models.LessonSession, dim models.ResourceDimension) []string {
	switch dim {
	case models.DimensionTeacher:
		if session.TeacherID != nil && *session.TeacherID != "" {
			return []string{*session.TeacherID}
		}
	case models.DimensionClassroom:
		if session.ClassroomID != nil && *session.ClassroomID != "" {
			return []string{*session.ClassroomID}
		}
	case models.DimensionStudent:
		return uniqueNonEmpty(session.StudentIDs)
	}
	return nil
}

func uniqueNonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// sortByStart orders entries by date, start, end and id so sweeps are deterministic.
func sortByStart(entries []entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.interval.Date != b.interval.Date {
			return a.interval.Date < b.interval.Date
		}
		if a.interval.Start != b.interval.Start {
			return a.interval.Start < b.interval.Start
		}
		if a.interval.End != b.interval.End {
			return a.interval.End < b.interval.End
		}
		return a.session.ID < b.session.ID
	})
}

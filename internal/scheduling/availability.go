package scheduling

import (
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/lesson-engine/internal/models"
	appErrors "github.com/noah-isme/lesson-engine/pkg/errors"
)

// AvailabilityQuery describes a candidate slot and the teachers to test against it.
// Subject and BranchID are informational: qualification filtering happens before
// the query is built. KnownTeachers, when non-nil, is the roster candidates are
// checked against; candidates outside it are flagged instead of partitioned.
type AvailabilityQuery struct {
	Candidates        []string
	KnownTeachers     []string
	Date              time.Time
	StartTime         string
	EndTime           string
	Subject           string
	BranchID          string
	ExcludeSessionIDs []string
}

// FindAvailable partitions the candidates into teachers that are free for the
// slot and teachers holding an overlapping active session on that date.
func FindAvailable(q AvailabilityQuery, sessions []models.LessonSession) (models.AvailabilityResult, error) {
	slot, err := NewInterval(q.Date, q.StartTime, q.EndTime)
	if err != nil {
		return models.AvailabilityResult{}, err
	}
	snap, err := newSnapshot(sessions)
	if err != nil {
		return models.AvailabilityResult{}, err
	}
	index := indexByResource(snap.active(), models.DimensionTeacher, slot.Date, q.ExcludeSessionIDs)

	var known map[string]struct{}
	if q.KnownTeachers != nil {
		known = make(map[string]struct{}, len(q.KnownTeachers))
		for _, id := range q.KnownTeachers {
			known[id] = struct{}{}
		}
	}

	result := models.AvailabilityResult{
		Available:  make([]string, 0, len(q.Candidates)),
		Conflicted: make([]string, 0),
		Conflicts:  make(map[string][]string),
	}
	seen := make(map[string]struct{}, len(q.Candidates))
	for _, candidate := range q.Candidates {
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}

		if candidate == "" || !isKnown(known, candidate) {
			result.Unknown = append(result.Unknown, candidate)
			result.Exceptions = append(result.Exceptions, models.ResourceException{
				ResourceID: candidate,
				Code:       appErrors.ErrUnknownResource.Code,
				Message:    fmt.Sprintf("teacher %q is not a known candidate", candidate),
			})
			continue
		}

		if blocking := blockingSessions(index[candidate], slot); len(blocking) > 0 {
			result.Conflicted = append(result.Conflicted, candidate)
			result.Conflicts[candidate] = blocking
			continue
		}
		result.Available = append(result.Available, candidate)
	}
	return result, nil
}

// CheckStudents tests each student against the slot independently over one
// snapshot. Results keep the order of studentIDs.
func CheckStudents(studentIDs []string, date time.Time, startTime, endTime string, sessions []models.LessonSession, excludeSessionIDs []string) ([]models.StudentSlotCheck, error) {
	slot, err := NewInterval(date, startTime, endTime)
	if err != nil {
		return nil, err
	}
	snap, err := newSnapshot(sessions)
	if err != nil {
		return nil, err
	}
	index := indexByResource(snap.active(), models.DimensionStudent, slot.Date, excludeSessionIDs)

	results := make([]models.StudentSlotCheck, len(studentIDs))
	var wg sync.WaitGroup
	for i, studentID := range studentIDs {
		wg.Add(1)
		go func(i int, studentID string) {
			defer wg.Done()
			blocking := blockingSessions(index[studentID], slot)
			results[i] = models.StudentSlotCheck{
				StudentID:  studentID,
				Available:  len(blocking) == 0,
				SessionIDs: blocking,
			}
		}(i, studentID)
	}
	wg.Wait()
	return results, nil
}

func isKnown(known map[string]struct{}, id string) bool {
	if known == nil {
		return true
	}
	_, ok := known[id]
	return ok
}

// indexByResource groups active entries on date by their resource id in dim.
func indexByResource(active []entry, dim models.ResourceDimension, date string, exclude []string) map[string][]entry {
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	index := make(map[string][]entry)
	for _, e := range active {
		if e.interval.Date != date {
			continue
		}
		if _, ok := skip[e.session.ID]; ok {
			continue
		}
		for _, resource := range resourcesOf(e.session, dim) {
			index[resource] = append(index[resource], e)
		}
	}
	for _, entries := range index {
		sortByStart(entries)
	}
	return index
}

func blockingSessions(entries []entry, slot Interval) []string {
	var ids []string
	for _, e := range entries {
		if Overlaps(e.interval, slot) {
			ids = append(ids, e.session.ID)
		}
	}
	return ids
}

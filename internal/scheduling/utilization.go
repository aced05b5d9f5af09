package scheduling

import (
	"math"
	"sort"
	"time"

	"github.com/noah-isme/lesson-engine/internal/models"
	appErrors "github.com/noah-isme/lesson-engine/pkg/errors"
)

// ComputeUtilization sums the occupied time of active sessions bound to
// classroomID on date and expresses it against the [windowStart, windowEnd)
// reference window. Overlapping sessions are each counted in full, so the raw
// percentage exceeds 100 when the room is overbooked.
func ComputeUtilization(classroomID string, date time.Time, windowStart, windowEnd string, sessions []models.LessonSession) (models.UtilizationReport, error) {
	if classroomID == "" {
		return models.UtilizationReport{}, appErrors.Clone(appErrors.ErrValidation, "classroom id is required")
	}
	window, err := NewInterval(date, windowStart, windowEnd)
	if err != nil {
		return models.UtilizationReport{}, err
	}
	snap, err := newSnapshot(sessions)
	if err != nil {
		return models.UtilizationReport{}, err
	}
	return utilizationFor(classroomID, window, snap.active()), nil
}

// ComputeBranchUtilization returns one report per classroom that has at least
// one active session on date, ordered by classroom id.
func ComputeBranchUtilization(date time.Time, windowStart, windowEnd string, sessions []models.LessonSession) ([]models.UtilizationReport, error) {
	window, err := NewInterval(date, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	snap, err := newSnapshot(sessions)
	if err != nil {
		return nil, err
	}
	active := snap.active()

	seen := make(map[string]struct{})
	var classrooms []string
	for _, e := range active {
		if e.interval.Date != window.Date {
			continue
		}
		for _, id := range resourcesOf(e.session, models.DimensionClassroom) {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				classrooms = append(classrooms, id)
			}
		}
	}
	sort.Strings(classrooms)

	reports := make([]models.UtilizationReport, 0, len(classrooms))
	for _, id := range classrooms {
		reports = append(reports, utilizationFor(id, window, active))
	}
	return reports, nil
}

func utilizationFor(classroomID string, window Interval, active []entry) models.UtilizationReport {
	var contributing []entry
	for _, e := range active {
		if e.interval.Date != window.Date || e.session.ClassroomID == nil || *e.session.ClassroomID != classroomID {
			continue
		}
		contributing = append(contributing, e)
	}
	sortByStart(contributing)

	occupied := 0
	ids := make([]string, 0, len(contributing))
	for _, e := range contributing {
		occupied += e.interval.Minutes()
		ids = append(ids, e.session.ID)
	}

	raw := float64(occupied) / float64(window.Minutes()) * 100
	return models.UtilizationReport{
		ClassroomID:            classroomID,
		Date:                   window.Date,
		WindowStart:            window.Start.String(),
		WindowEnd:              window.End.String(),
		OccupiedMinutes:        occupied,
		WindowMinutes:          window.Minutes(),
		UtilizationPercent:     raw,
		DisplayPercent:         displayPercent(raw),
		Overbooked:             raw > 100,
		ContributingSessionIDs: ids,
	}
}

// displayPercent rounds to two decimals and clamps to [0, 100].
func displayPercent(raw float64) float64 {
	rounded := math.Round(raw*100) / 100
	return math.Max(0, math.Min(100, rounded))
}

package scheduling

import (
	"sort"

	"github.com/noah-isme/lesson-engine/internal/models"
)

type bucketKey struct {
	resource string
	date     string
}

// DetectConflicts reports, per resource dimension, the groups of active sessions
// that overlap in time while sharing one resource instance.
func DetectConflicts(sessions []models.LessonSession) (models.ConflictReport, error) {
	return DetectConflictsFor(sessions, models.AllDimensions...)
}

// DetectConflictsFor is DetectConflicts restricted to the given dimensions.
// The whole input is validated first; an invalid session aborts the call.
func DetectConflictsFor(sessions []models.LessonSession, dims ...models.ResourceDimension) (models.ConflictReport, error) {
	snap, err := newSnapshot(sessions)
	if err != nil {
		return nil, err
	}
	active := snap.active()

	report := make(models.ConflictReport, len(dims))
	for _, dim := range dims {
		report[dim] = detectDimension(active, dim)
	}
	return report, nil
}

func detectDimension(active []entry, dim models.ResourceDimension) []models.ConflictGroup {
	buckets := make(map[bucketKey][]entry)
	for _, e := range active {
		for _, resource := range resourcesOf(e.session, dim) {
			key := bucketKey{resource: resource, date: e.interval.Date}
			buckets[key] = append(buckets[key], e)
		}
	}

	keys := make([]bucketKey, 0, len(buckets))
	for key, members := range buckets {
		if len(members) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].resource != keys[j].resource {
			return keys[i].resource < keys[j].resource
		}
		return keys[i].date < keys[j].date
	})

	groups := make([]models.ConflictGroup, 0)
	for _, key := range keys {
		members := buckets[key]
		sortByStart(members)
		for _, cluster := range sweep(members) {
			groups = append(groups, toConflictGroup(dim, key, cluster))
		}
	}
	return groups
}

// sweep walks entries sorted by start and splits them into runs where each
// entry starts before the latest end seen so far in the run. A run is exactly
// a connected component of the overlap graph, so A-B and B-C overlaps land in
// one group even when A and C are disjoint. Runs of one are dropped.
func sweep(sorted []entry) [][]entry {
	if len(sorted) < 2 {
		return nil
	}
	var clusters [][]entry
	current := []entry{sorted[0]}
	maxEnd := sorted[0].interval.End
	for _, e := range sorted[1:] {
		if e.interval.Start < maxEnd {
			current = append(current, e)
			if e.interval.End > maxEnd {
				maxEnd = e.interval.End
			}
			continue
		}
		if len(current) > 1 {
			clusters = append(clusters, current)
		}
		current = []entry{e}
		maxEnd = e.interval.End
	}
	if len(current) > 1 {
		clusters = append(clusters, current)
	}
	return clusters
}

func toConflictGroup(dim models.ResourceDimension, key bucketKey, cluster []entry) models.ConflictGroup {
	ids := make([]string, 0, len(cluster))
	end := cluster[0].interval.End
	for _, e := range cluster {
		ids = append(ids, e.session.ID)
		if e.interval.End > end {
			end = e.interval.End
		}
	}
	return models.ConflictGroup{
		Dimension:  dim,
		ResourceID: key.resource,
		Date:       key.date,
		StartTime:  cluster[0].interval.Start.String(),
		EndTime:    end.String(),
		SessionIDs: ids,
	}
}

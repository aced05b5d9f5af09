package models

// ResourceDimension is an exclusivity axis on which two sessions cannot overlap.
type ResourceDimension string

const (
	DimensionTeacher   ResourceDimension = "teacher"
	DimensionClassroom ResourceDimension = "classroom"
	DimensionStudent   ResourceDimension = "student"
)

// AllDimensions lists the dimensions in report order.
var AllDimensions = []ResourceDimension{DimensionTeacher, DimensionClassroom, DimensionStudent}

// ConflictGroup is a maximal set of sessions that transitively overlap on one resource.
type ConflictGroup struct {
	Dimension  ResourceDimension `json:"dimension" yaml:"dimension"`
	ResourceID string            `json:"resource_id" yaml:"resource_id"`
	Date       string            `json:"date" yaml:"date"`
	StartTime  string            `json:"start_time" yaml:"start_time"`
	EndTime    string            `json:"end_time" yaml:"end_time"`
	SessionIDs []string          `json:"session_ids" yaml:"session_ids"`
}

// ConflictReport maps each dimension to its conflict groups.
type ConflictReport map[ResourceDimension][]ConflictGroup

// Groups returns the conflict groups for one dimension.
func (r ConflictReport) Groups(dim ResourceDimension) []ConflictGroup {
	return r[dim]
}

// Total counts conflict groups across all dimensions.
func (r ConflictReport) Total() int {
	total := 0
	for _, groups := range r {
		total += len(groups)
	}
	return total
}

// Empty reports whether no dimension holds a conflict group.
func (r ConflictReport) Empty() bool {
	return r.Total() == 0
}

// SessionIDs returns the distinct session ids involved in any conflict, in report order.
func (r ConflictReport) SessionIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, dim := range AllDimensions {
		for _, group := range r[dim] {
			for _, id := range group.SessionIDs {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// UtilizationReport describes how much of a reference window a classroom is occupied.
type UtilizationReport struct {
	ClassroomID            string   `json:"classroom_id"`
	Date                   string   `json:"date"`
	WindowStart            string   `json:"window_start"`
	WindowEnd              string   `json:"window_end"`
	OccupiedMinutes        int      `json:"occupied_minutes"`
	WindowMinutes          int      `json:"window_minutes"`
	UtilizationPercent     float64  `json:"utilization_percent"`
	DisplayPercent         float64  `json:"display_percent"`
	Overbooked             bool     `json:"overbooked"`
	ContributingSessionIDs []string `json:"contributing_session_ids"`
}

// ResourceException flags a per-item problem that did not abort the whole call.
type ResourceException struct {
	ResourceID string `json:"resource_id"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// AvailabilityResult partitions candidate teachers for a slot.
type AvailabilityResult struct {
	Available  []string            `json:"available"`
	Conflicted []string            `json:"conflicted"`
	Unknown    []string            `json:"unknown,omitempty"`
	Conflicts  map[string][]string `json:"conflicts,omitempty"`
	Exceptions []ResourceException `json:"exceptions,omitempty"`
}

// StudentSlotCheck is the outcome of checking one student against a slot.
type StudentSlotCheck struct {
	StudentID  string   `json:"student_id"`
	Available  bool     `json:"available"`
	SessionIDs []string `json:"session_ids,omitempty"`
}

package scheduling

import (
	"fmt"

	"github.com/noah-isme/lesson-engine/internal/models"
	appErrors "github.com/noah-isme/lesson-engine/pkg/errors"
)

var substitutionTransitions = map[models.SubstitutionStatus]map[models.SubstitutionAction]models.SubstitutionStatus{
	models.SubstitutionStatusPending: {
		models.SubstitutionActionApprove: models.SubstitutionStatusApproved,
		models.SubstitutionActionCancel:  models.SubstitutionStatusCancelled,
	},
	models.SubstitutionStatusApproved: {
		models.SubstitutionActionComplete: models.SubstitutionStatusCompleted,
		models.SubstitutionActionCancel:   models.SubstitutionStatusCancelled,
	},
}

// NextSubstitutionStatus returns the state reached by applying action to current.
// Completed and cancelled are terminal.
func NextSubstitutionStatus(current models.SubstitutionStatus, action models.SubstitutionAction) (models.SubstitutionStatus, error) {
	if next, ok := substitutionTransitions[current][action]; ok {
		return next, nil
	}
	return current, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot %s a %s substitution", action, current))
}

// SubstitutionSlot returns the interval covered by a substitution request.
func SubstitutionSlot(req models.SubstitutionRequest) (Interval, error) {
	return NewInterval(req.SubstitutionDate, req.StartTime, req.EndTime)
}

// OverlappingSubstitutions returns the ids of requests in others whose slot
// overlaps slot. Requests with unparsable slots are reported as an error.
func OverlappingSubstitutions(slot Interval, others []models.SubstitutionRequest, excludeID string) ([]string, error) {
	var ids []string
	for _, other := range others {
		if other.ID == excludeID {
			continue
		}
		otherSlot, err := SubstitutionSlot(other)
		if err != nil {
			return nil, err
		}
		if Overlaps(slot, otherSlot) {
			ids = append(ids, other.ID)
		}
	}
	return ids, nil
}

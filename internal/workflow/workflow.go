// Package workflow implements the task status lifecycle
// PENDING -> IN_PROGRESS -> DONE -> COMPLETE.
//
// Transitions mutate the task in memory only. Persisting the change, and
// guarding against a concurrent transition of the same row, is up to the
// caller.
package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/daily-task-api/internal/constants"
	"github.com/yukikurage/daily-task-api/internal/models"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
)

// Action names a lifecycle transition.
type Action string

const (
	ActionStart    Action = "start"
	ActionMarkDone Action = "mark_done"
	ActionComplete Action = "mark_complete"
)

// allowedFrom lists the statuses each action may leave from.
var allowedFrom = map[Action][]models.TaskStatus{
	ActionStart:    {models.TaskStatusPending},
	ActionMarkDone: {models.TaskStatusPending, models.TaskStatusInProgress},
	ActionComplete: {models.TaskStatusDone},
}

// CanApply reports whether action is legal from status.
func CanApply(action Action, status models.TaskStatus) bool {
	for _, s := range allowedFrom[action] {
		if s == status {
			return true
		}
	}
	return false
}

func guard(task *models.Task, action Action) error {
	if !CanApply(action, task.Status) {
		return fmt.Errorf("%w: cannot %s a task in status %s", ErrInvalidTransition, action, task.Status)
	}
	return nil
}

// Start moves a pending task to IN_PROGRESS.
func Start(task *models.Task, now time.Time) error {
	if err := guard(task, ActionStart); err != nil {
		return err
	}

	task.Status = models.TaskStatusInProgress
	task.StartedAt = &now
	return nil
}

// MarkDone moves a pending or in-progress task to DONE. Notes replace the
// assignee's notes only when non-empty.
func MarkDone(task *models.Task, notes string, now time.Time) error {
	if err := guard(task, ActionMarkDone); err != nil {
		return err
	}

	task.Status = models.TaskStatusDone
	task.CompletedAt = &now
	if notes != "" {
		task.UserNotes = notes
	}
	return nil
}

// Rating carries a reviewer's verdict for MarkComplete.
type Rating struct {
	Score    int
	Feedback string
	RaterID  uint64
}

// MarkComplete rates a DONE task and moves it to COMPLETE.
func MarkComplete(task *models.Task, rating Rating, now time.Time) error {
	if rating.Score < constants.MinRating || rating.Score > constants.MaxRating {
		return ErrInvalidRating
	}
	if err := guard(task, ActionComplete); err != nil {
		return err
	}

	score := rating.Score
	rater := rating.RaterID
	task.Status = models.TaskStatusComplete
	task.Rating = &score
	task.RatingFeedback = rating.Feedback
	task.RatedByID = &rater
	task.ReviewedAt = &now
	return nil
}

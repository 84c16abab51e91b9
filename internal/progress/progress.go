// Package progress derives a user's UserProgress rollup from the full set of
// that user's tasks. Every figure is recomputed from scratch in a single pass;
// nothing is carried over from the previous record except the longest streak,
// which never decreases.
package progress

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/daily-task-api/internal/models"
)

// Recalculate builds a fresh progress record for userID from tasks, which
// must be all of the user's tasks. previous may be nil.
func Recalculate(userID uint64, tasks []models.Task, previous *models.UserProgress, now time.Time, loc *time.Location) *models.UserProgress {
	if loc == nil {
		loc = time.UTC
	}

	p := &models.UserProgress{
		UserID:           userID,
		TotalTasks:       len(tasks),
		LastCalculatedAt: now,
	}
	if previous != nil {
		p.CreatedAt = previous.CreatedAt
	}

	var (
		ratingSum     int
		timedCount    int
		onTimeCount   int
		totalDuration time.Duration
		days          = make(map[int64]struct{})
	)

	for i := range tasks {
		t := &tasks[i]

		switch {
		case t.Status == models.TaskStatusComplete:
			p.CompletedTasks++
		case t.Status.IsOpen():
			p.PendingTasks++
			if t.DueDate.Before(now) {
				p.OverdueTasks++
			}
		}

		if t.Rating != nil {
			p.TotalRatedTasks++
			ratingSum += *t.Rating
			switch *t.Rating {
			case 5:
				p.FiveStarCount++
			case 4:
				p.FourStarCount++
			case 3:
				p.ThreeStarCount++
			case 2:
				p.TwoStarCount++
			case 1:
				p.OneStarCount++
			}
		}

		if t.Status != models.TaskStatusComplete || t.StartedAt == nil || t.CompletedAt == nil {
			continue
		}
		timedCount++
		totalDuration += t.CompletedAt.Sub(*t.StartedAt)
		if !t.CompletedAt.After(t.DueDate) {
			onTimeCount++
		}
		days[dayNumber(*t.CompletedAt, loc)] = struct{}{}
	}

	if p.TotalTasks > 0 {
		p.CompletionRate = percent(p.CompletedTasks, p.TotalTasks)
	}

	if p.TotalRatedTasks > 0 {
		avg := round2(float64(ratingSum) / float64(p.TotalRatedTasks))
		p.AverageRating = &avg
	}

	if timedCount > 0 {
		avg := totalDuration / time.Duration(timedCount)
		p.AverageCompletionTime = &avg
		p.OnTimeCompletionRate = percent(onTimeCount, timedCount)
	}

	sorted := sortedDaysDesc(days)
	current, longest := Streaks(sorted, dayNumber(now, loc))
	p.CurrentStreak = current
	p.LongestStreak = longest
	if previous != nil && previous.LongestStreak > p.LongestStreak {
		p.LongestStreak = previous.LongestStreak
	}
	if len(sorted) > 0 {
		last := dayToDate(sorted[0])
		p.LastTaskDate = &last
	}

	return p
}

// Streaks walks distinct day numbers sorted most recent first. The current
// streak only counts when the latest day is today or yesterday.
func Streaks(daysDesc []int64, today int64) (current, longest int) {
	if len(daysDesc) == 0 {
		return 0, 0
	}

	if daysDesc[0] == today || daysDesc[0] == today-1 {
		current = 1
		for i := 0; i+1 < len(daysDesc); i++ {
			if daysDesc[i]-daysDesc[i+1] != 1 {
				break
			}
			current++
		}
	}

	longest, run := 1, 1
	for i := 0; i+1 < len(daysDesc); i++ {
		if daysDesc[i]-daysDesc[i+1] == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	return current, longest
}

// dayNumber maps t to the index of its calendar day in loc.
func dayNumber(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

func dayToDate(day int64) time.Time {
	return time.Unix(day*86400, 0).UTC()
}

func sortedDaysDesc(days map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(days))
	for d := range days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out
}

func percent(part, whole int) float64 {
	return round2(float64(part) / float64(whole) * 100)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

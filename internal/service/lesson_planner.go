package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
)

// lessonPlacement is one write produced by the planner. ExistingID is set when the
// placement reuses a stored lesson progress instead of creating a new one.
type lessonPlacement struct {
	LessonID        string
	ExistingID      string
	ScheduledDate   time.Time
	DurationMinutes int
}

type lessonPlan struct {
	Placements []lessonPlacement
	Warnings   []string
}

// sortLessons orders lessons by explicit order, unordered last, ties by id.
func sortLessons(lessons []models.Lesson) []models.Lesson {
	sorted := make([]models.Lesson, len(lessons))
	copy(sorted, lessons)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Order, sorted[j].Order
		switch {
		case a != nil && b != nil && *a != *b:
			return *a < *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func totalLessonMinutes(lessons []models.Lesson) int {
	total := 0
	for _, l := range lessons {
		total += l.DurationMinutes()
	}
	return total
}

func lessonName(l models.Lesson) string {
	if l.Label != "" {
		return l.Label
	}
	return l.ID
}

// indexExistingProgress keeps one stored entry per lesson: the first one dated after now
// if any, otherwise the first one in store order.
func indexExistingProgress(stored []models.LessonProgress, now time.Time) map[string]models.LessonProgress {
	index := make(map[string]models.LessonProgress, len(stored))
	for _, lp := range stored {
		kept, seen := index[lp.LessonID]
		if !seen || (!isFutureEntry(kept, now) && isFutureEntry(lp, now)) {
			index[lp.LessonID] = lp
		}
	}
	return index
}

func isFutureEntry(lp models.LessonProgress, now time.Time) bool {
	return lp.ScheduledDate != nil && lp.ScheduledDate.After(now)
}

// planLessonPlacements packs lessons greedily into slot occurrences in a single forward pass.
// existing maps lesson ids to stored progress; an entry scheduled after now protects its lesson
// from being placed again.
func planLessonPlacements(lessons []models.Lesson, occurrences []SlotOccurrence, existing map[string]models.LessonProgress, mode string, now time.Time) lessonPlan {
	var plan lessonPlan
	if existing == nil {
		existing = map[string]models.LessonProgress{}
	}

	isProtected := func(l models.Lesson) bool {
		lp, ok := existing[l.ID]
		return ok && isFutureEntry(lp, now)
	}

	idx := 0
	remaining := 0
	fresh := true

	for _, occ := range occurrences {
		slotRemaining := occ.CapacityMinutes()
		consumed := 0
		for slotRemaining > 0 && idx < len(lessons) {
			lesson := lessons[idx]
			if fresh {
				if isProtected(lesson) {
					idx++
					continue
				}
				remaining = lesson.DurationMinutes()
				fresh = false
			}

			placement := lessonPlacement{
				LessonID:      lesson.ID,
				ScheduledDate: occ.Start().Add(time.Duration(consumed) * time.Minute),
			}
			if lp, ok := existing[lesson.ID]; ok {
				placement.ExistingID = lp.ID
				delete(existing, lesson.ID)
			}

			switch {
			case remaining <= slotRemaining:
				placement.DurationMinutes = remaining
				slotRemaining -= remaining
				consumed += remaining
				remaining = 0
			case mode == dto.HandleLongLessonsReduceDuration:
				placement.DurationMinutes = slotRemaining
				plan.Warnings = append(plan.Warnings, fmt.Sprintf("Lesson %q reduced from %d to %d minutes to fit the available slot", lessonName(lesson), lesson.DurationMinutes(), slotRemaining))
				consumed += slotRemaining
				slotRemaining = 0
				remaining = 0
			default:
				placement.DurationMinutes = slotRemaining
				remaining -= slotRemaining
				consumed += slotRemaining
				slotRemaining = 0
				if remaining > 0 {
					plan.Warnings = append(plan.Warnings, fmt.Sprintf("Lesson %q will be split across multiple slots (%d minutes remaining)", lessonName(lesson), remaining))
				}
			}

			plan.Placements = append(plan.Placements, placement)
			if remaining == 0 {
				idx++
				fresh = true
			}
		}
		if idx >= len(lessons) {
			break
		}
	}

	for ; idx < len(lessons); idx++ {
		lesson := lessons[idx]
		if fresh && isProtected(lesson) {
			continue
		}
		fresh = true
		plan.Warnings = append(plan.Warnings, fmt.Sprintf("Insufficient available slots for lesson %q", lessonName(lesson)))
	}
	return plan
}

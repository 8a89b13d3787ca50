package service

import (
	"fmt"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
)

var isoDayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func dayName(day int) string {
	if day < 1 || day >= len(isoDayNames) {
		return fmt.Sprintf("day %d", day)
	}
	return isoDayNames[day]
}

func overlapWindow(a, b models.RecurringScheduleSlot) (int, int) {
	start, end := a.StartHour, a.EndHour
	if b.StartHour > start {
		start = b.StartHour
	}
	if b.EndHour < end {
		end = b.EndHour
	}
	return start, end
}

// InvalidSlotConflicts flags slots whose end hour does not exceed their start hour.
func InvalidSlotConflicts(slots []models.RecurringScheduleSlot) []dto.ScheduleConflict {
	var conflicts []dto.ScheduleConflict
	for i, slot := range slots {
		if slot.Valid() {
			continue
		}
		conflicts = append(conflicts, dto.ScheduleConflict{
			Conflict:  true,
			Type:      dto.ConflictTypeInvalidSlot,
			Message:   fmt.Sprintf("Invalid slot on %s: end hour %02d:00 must be after start hour %02d:00", dayName(slot.DayOfWeek), slot.EndHour, slot.StartHour),
			Slot:      slot,
			SlotIndex: i,
		})
	}
	return conflicts
}

// SelfConflicts compares every pair of candidate slots and reports the lower-indexed slot of each overlapping pair.
func SelfConflicts(slots []models.RecurringScheduleSlot) []dto.ScheduleConflict {
	var conflicts []dto.ScheduleConflict
	for i := 0; i < len(slots); i++ {
		if !slots[i].Valid() {
			continue
		}
		for j := i + 1; j < len(slots); j++ {
			a, b := slots[i], slots[j]
			if !b.Valid() || a.DayOfWeek != b.DayOfWeek {
				continue
			}
			if !TimesOverlap(a.StartHour, a.EndHour, b.StartHour, b.EndHour) {
				continue
			}
			start, end := overlapWindow(a, b)
			conflicts = append(conflicts, dto.ScheduleConflict{
				Conflict:  true,
				Type:      dto.ConflictTypeSelf,
				Message:   fmt.Sprintf("Slots overlap on %s between %02d:00 and %02d:00", dayName(a.DayOfWeek), start, end),
				Slot:      a,
				SlotIndex: i,
			})
		}
	}
	return conflicts
}

// CrossCourseConflicts compares candidate slots against the stored schedule of another course.
func CrossCourseConflicts(slots []models.RecurringScheduleSlot, other models.CourseProgress, subjectName string) []dto.ScheduleConflict {
	var conflicts []dto.ScheduleConflict
	if subjectName == "" {
		subjectName = "another course"
	}
	for _, existing := range other.RecurringSchedule {
		if !existing.Valid() {
			continue
		}
		for i, candidate := range slots {
			if !candidate.Valid() || candidate.DayOfWeek != existing.DayOfWeek {
				continue
			}
			if !TimesOverlap(candidate.StartHour, candidate.EndHour, existing.StartHour, existing.EndHour) {
				continue
			}
			start, end := overlapWindow(candidate, existing)
			otherID := other.ID
			conflicts = append(conflicts, dto.ScheduleConflict{
				Conflict:                    true,
				Type:                        dto.ConflictTypeCrossCourse,
				Message:                     fmt.Sprintf("Conflicts with %s on %s between %02d:00 and %02d:00", subjectName, dayName(candidate.DayOfWeek), start, end),
				Slot:                        candidate,
				SlotIndex:                   i,
				ConflictingCourseProgressID: &otherID,
			})
		}
	}
	return conflicts
}

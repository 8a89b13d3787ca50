package service

import (
	"sort"
	"time"

	"github.com/noah-isme/course-planner-api/internal/models"
)

// DefaultProjectionWeeks bounds slot projection when no limit is configured.
const DefaultProjectionWeeks = 104

// SlotOccurrence is one dated instance of a recurring slot.
type SlotOccurrence struct {
	Date      time.Time
	StartHour int
	EndHour   int
	SlotIndex int
}

// Start returns the wall-clock start of the occurrence.
func (o SlotOccurrence) Start() time.Time {
	y, m, d := o.Date.Date()
	return time.Date(y, m, d, o.StartHour, 0, 0, 0, o.Date.Location())
}

// CapacityMinutes returns the usable minutes of the occurrence.
func (o SlotOccurrence) CapacityMinutes() int {
	return slotCapacityMinutes(o.StartHour, o.EndHour)
}

// SlotDuration returns end minus start in hours. Non-positive values mean the slot is invalid.
func SlotDuration(startHour, endHour int) int {
	return endHour - startHour
}

// TimesOverlap reports whether the half-open ranges [startA, endA) and [startB, endB) intersect.
func TimesOverlap(startA, endA, startB, endB int) bool {
	return startA < endB && startB < endA
}

func slotCapacityMinutes(startHour, endHour int) int {
	d := SlotDuration(startHour, endHour)
	if d <= 0 {
		return 0
	}
	return d * 60
}

// isoWeekday maps time.Weekday onto 1=Monday..7=Sunday.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// slotStartDate resolves when a slot takes effect; a missing or malformed date means today.
func slotStartDate(slot models.RecurringScheduleSlot, today time.Time) time.Time {
	if slot.StartDate == "" {
		return today
	}
	parsed, err := time.ParseInLocation(models.SlotDateLayout, slot.StartDate, today.Location())
	if err != nil {
		return today
	}
	return parsed
}

// GenerateScheduleDates projects recurring slots onto the calendar in chronological order until the
// emitted capacity covers totalMinutes plus a 10% margin, or maxWeeks have been walked.
// Invalid slots are never emitted.
func GenerateScheduleDates(slots []models.RecurringScheduleSlot, totalMinutes int, today time.Time, maxWeeks int) []SlotOccurrence {
	if totalMinutes <= 0 {
		return nil
	}
	if maxWeeks <= 0 {
		maxWeeks = DefaultProjectionWeeks
	}
	today = dayStart(today)

	type activeSlot struct {
		index int
		slot  models.RecurringScheduleSlot
		from  time.Time
	}
	var active []activeSlot
	var earliest time.Time
	for i, slot := range slots {
		if !slot.Valid() {
			continue
		}
		from := slotStartDate(slot, today)
		active = append(active, activeSlot{index: i, slot: slot, from: from})
		if earliest.IsZero() || from.Before(earliest) {
			earliest = from
		}
	}
	if len(active) == 0 {
		return nil
	}
	// Same-day occurrences come out in start-hour order, then list order.
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].slot.StartHour < active[j].slot.StartHour
	})

	target := (totalMinutes*11 + 9) / 10
	emitted := 0
	var occurrences []SlotOccurrence
	for day := 0; day < maxWeeks*7; day++ {
		date := earliest.AddDate(0, 0, day)
		weekday := isoWeekday(date)
		for _, a := range active {
			if a.slot.DayOfWeek != weekday || date.Before(a.from) {
				continue
			}
			occ := SlotOccurrence{Date: date, StartHour: a.slot.StartHour, EndHour: a.slot.EndHour, SlotIndex: a.index}
			occurrences = append(occurrences, occ)
			emitted += occ.CapacityMinutes()
			if emitted >= target {
				return occurrences
			}
		}
	}
	return occurrences
}

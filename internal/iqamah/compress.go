package iqamah

import (
	"sort"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/model"
)

// run is an open range still accepting days.
type run struct {
	start string
	end   string
	time  string
}

func (r *run) rangeFor(p model.PrayerName, slot int) model.TimeRange {
	return model.TimeRange{Prayer: p, StartDate: r.start, EndDate: r.end, Time: r.time, SlotIndex: slot}
}

// extends reports whether a day with time t on date continues the run.
func (r *run) extends(date, t string) bool {
	next := nextDay(r.end)
	return next != "" && next == date && r.time == t
}

// Compress collapses daily records into maximal ranges of consecutive days
// sharing one time for prayer p. Placeholder days end a run; a one day gap
// ends a run even when the time is unchanged. Repeated dates count once.
// days is not modified.
//
// Jumuah is tracked per slot index: each slot is an independent run, and a
// slot missing from a day closes that slot's run.
func Compress(days []model.DailyRecord, p model.PrayerName) []model.TimeRange {
	records := sortedDays(days)
	if p == model.Jumuah {
		return compressSlots(records)
	}

	ranges := []model.TimeRange{}
	var current *run
	for _, day := range records {
		date := NormalizeDate(day.Date)
		t := NormalizeTime(day.Time(p))
		if IsPlaceholder(t) {
			if current != nil {
				ranges = append(ranges, current.rangeFor(p, 0))
				current = nil
			}
			continue
		}
		if current != nil && current.extends(date, t) {
			current.end = date
			continue
		}
		if current != nil {
			ranges = append(ranges, current.rangeFor(p, 0))
		}
		current = &run{start: date, end: date, time: t}
	}
	if current != nil {
		ranges = append(ranges, current.rangeFor(p, 0))
	}

	sortByStart(ranges)
	return ranges
}

func compressSlots(records []model.DailyRecord) []model.TimeRange {
	ranges := []model.TimeRange{}
	runs := map[int]*run{}

	closeSlot := func(idx int) {
		if r, ok := runs[idx]; ok {
			ranges = append(ranges, r.rangeFor(model.Jumuah, idx))
			delete(runs, idx)
		}
	}

	for _, day := range records {
		date := NormalizeDate(day.Date)
		slots := day.Jumuah

		for _, idx := range openSlots(runs) {
			if idx >= len(slots) {
				closeSlot(idx)
			}
		}

		for idx, raw := range slots {
			t := NormalizeTime(raw)
			if IsPlaceholder(t) {
				closeSlot(idx)
				continue
			}
			if r, ok := runs[idx]; ok && r.extends(date, t) {
				r.end = date
				continue
			}
			closeSlot(idx)
			runs[idx] = &run{start: date, end: date, time: t}
		}
	}
	for _, idx := range openSlots(runs) {
		closeSlot(idx)
	}

	sortByStart(ranges)
	return ranges
}

// openSlots lists the open slot indexes in ascending order so output does
// not depend on map iteration.
func openSlots(runs map[int]*run) []int {
	idx := make([]int, 0, len(runs))
	for i := range runs {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// sortedDays returns a date-ordered copy of days holding one record per
// calendar date; the first record given for a date wins.
func sortedDays(days []model.DailyRecord) []model.DailyRecord {
	records := make([]model.DailyRecord, len(days))
	copy(records, days)
	sort.SliceStable(records, func(i, j int) bool {
		return NormalizeDate(records[i].Date) < NormalizeDate(records[j].Date)
	})

	out := records[:0]
	for i, day := range records {
		date := NormalizeDate(day.Date)
		if i > 0 && date != "" && date == NormalizeDate(out[len(out)-1].Date) {
			continue
		}
		out = append(out, day)
	}
	return out
}

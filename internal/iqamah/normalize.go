package iqamah

import (
	"encoding/json"
	"sort"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/model"
)

// NormalizeJSON decodes raw and normalizes it. Undecodable input yields the
// empty schedule.
func NormalizeJSON(raw []byte) model.Schedule {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return model.NewSchedule()
	}
	return Normalize(payload)
}

// Normalize turns any of the month payload shapes the backend is known to
// return into a canonical schedule. It never fails: shapes it cannot
// interpret degrade to an empty list for the affected prayer.
//
// Accepted shapes:
//   - a list of daily records, compressed per prayer
//   - an object holding such a list under one of dayListKeys
//   - an object keyed by prayer (optionally wrapped under one of
//     rangeContainerKeys) whose values are range lists or {ranges: [...]}
func Normalize(payload any) model.Schedule {
	out := model.NewSchedule()

	switch v := payload.(type) {
	case []any:
		return compressAll(decodeDays(v))
	case map[string]any:
		if list, ok := firstArray(v, dayListKeys); ok {
			return compressAll(decodeDays(list))
		}

		var container any = v
		if wrapped, ok := firstTruthy(v, rangeContainerKeys); ok {
			container = wrapped
		}
		obj, ok := container.(map[string]any)
		if !ok {
			return out
		}
		for _, p := range model.Prayers {
			out[p] = decodeRanges(obj, p)
		}
		return out
	default:
		return out
	}
}

func compressAll(days []model.DailyRecord) model.Schedule {
	out := model.NewSchedule()
	for _, p := range model.Prayers {
		out[p] = Compress(days, p)
	}
	return out
}

// decodeDays reads daily records out of decoded JSON, skipping entries that
// are not objects.
func decodeDays(list []any) []model.DailyRecord {
	days := make([]model.DailyRecord, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		day := model.DailyRecord{Date: scalarString(obj["date"])}
		for _, p := range model.Prayers {
			raw, _ := lookupPrayer(obj, p)
			if p == model.Jumuah {
				day.Jumuah = decodeSlots(raw)
				continue
			}
			setTime(&day, p, scalarString(raw))
		}
		days = append(days, day)
	}
	return days
}

// decodeSlots accepts either a single jumuah value or a list of them.
func decodeSlots(raw any) []string {
	switch v := raw.(type) {
	case []any:
		slots := make([]string, len(v))
		for i, s := range v {
			slots[i] = scalarString(s)
		}
		return slots
	default:
		if !truthy(v) {
			return nil
		}
		return []string{scalarString(v)}
	}
}

func setTime(day *model.DailyRecord, p model.PrayerName, t string) {
	switch p {
	case model.Fajr:
		day.Fajr = t
	case model.Dhuhr:
		day.Dhuhr = t
	case model.Asr:
		day.Asr = t
	case model.Isha:
		day.Isha = t
	}
}

// decodeRanges reads the pre-aggregated ranges for p from obj.
func decodeRanges(obj map[string]any, p model.PrayerName) []model.TimeRange {
	raw, _ := lookupPrayer(obj, p)

	var list []any
	switch v := raw.(type) {
	case []any:
		list = v
	case map[string]any:
		list, _ = v["ranges"].([]any)
	}

	ranges := make([]model.TimeRange, 0, len(list))
	for _, item := range list {
		r, ok := item.(map[string]any)
		if !ok {
			continue
		}
		tr := model.TimeRange{
			Prayer:    p,
			StartDate: NormalizeDate(scalarString(r["startDate"])),
			EndDate:   NormalizeDate(scalarString(r["endDate"])),
			Time:      NormalizeTime(scalarString(r["time"])),
		}
		for _, k := range slotIndexKeys {
			if n, ok := intValue(r[k]); ok {
				tr.SlotIndex = n
				break
			}
		}
		ranges = append(ranges, tr)
	}
	sortByStart(ranges)
	return ranges
}

func sortByStart(ranges []model.TimeRange) {
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].StartDate < ranges[j].StartDate
	})
}

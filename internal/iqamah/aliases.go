package iqamah

import (
	"strconv"
	"strings"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/model"
)

// Keys probed, in order, for a nested list of daily records.
var dayListKeys = []string{"days", "items", "rows", "entries"}

// Keys probed, in order, for the object holding per-prayer ranges.
// When none match the payload itself is used.
var rangeContainerKeys = []string{
	"iqamaahTimes",
	"iqamaah_times",
	"iqamaah",
	"timings",
	"prayers",
	"times",
	"ranges",
	"payload",
}

// Spellings accepted for each prayer. Each alias is also tried in lower and
// upper case.
var prayerAliases = map[model.PrayerName][]string{
	model.Fajr:   {"fajr", "fajar"},
	model.Dhuhr:  {"dhuhr", "zuhr", "zohar", "zohr"},
	model.Asr:    {"asr", "asar"},
	model.Isha:   {"isha", "ishaa"},
	model.Jumuah: {"jumuah", "jummah", "jumuahTimes"},
}

var slotIndexKeys = []string{"slotIndex", "slot_index", "slot"}

// lookupPrayer returns the first value found under any alias of p.
func lookupPrayer(obj map[string]any, p model.PrayerName) (any, bool) {
	keys, ok := prayerAliases[p]
	if !ok {
		keys = []string{string(p)}
	}
	for _, k := range keys {
		for _, candidate := range []string{k, strings.ToLower(k), strings.ToUpper(k)} {
			if v, ok := obj[candidate]; ok && v != nil {
				return v, true
			}
		}
	}
	return nil, false
}

// firstTruthy returns the first key in keys holding a non-empty value.
func firstTruthy(obj map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && truthy(v) {
			return v, true
		}
	}
	return nil, false
}

// firstArray returns the first value under keys that is a JSON array.
func firstArray(obj map[string]any, keys []string) ([]any, bool) {
	for _, k := range keys {
		if list, ok := obj[k].([]any); ok {
			return list, true
		}
	}
	return nil, false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	default:
		return true
	}
}

// scalarString renders a decoded JSON scalar as text. Objects and arrays
// have no textual form here and become "".
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func intValue(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	default:
		return 0, false
	}
}

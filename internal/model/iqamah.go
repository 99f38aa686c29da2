package model

// PrayerName identifies one of the congregational prayers a display shows
// iqamaah times for.
type PrayerName string

const (
	Fajr   PrayerName = "fajr"
	Dhuhr  PrayerName = "dhuhr"
	Asr    PrayerName = "asr"
	Isha   PrayerName = "isha"
	Jumuah PrayerName = "jumuah"
)

// Prayers is the fixed rendering order used by the admin console.
var Prayers = []PrayerName{Fajr, Dhuhr, Asr, Isha, Jumuah}

// Valid reports whether p is one of the known prayers.
func (p PrayerName) Valid() bool {
	for _, known := range Prayers {
		if p == known {
			return true
		}
	}
	return false
}

// DailyRecord is one calendar day as received from the backend.
// Jumuah holds one or more Friday slots; ordinary prayers hold one value.
type DailyRecord struct {
	Date   string   `json:"date"`
	Fajr   string   `json:"fajr"`
	Dhuhr  string   `json:"dhuhr"`
	Asr    string   `json:"asr"`
	Isha   string   `json:"isha"`
	Jumuah []string `json:"jumuah"`
}

// Time returns the single recorded value for an ordinary prayer.
func (d DailyRecord) Time(p PrayerName) string {
	switch p {
	case Fajr:
		return d.Fajr
	case Dhuhr:
		return d.Dhuhr
	case Asr:
		return d.Asr
	case Isha:
		return d.Isha
	case Jumuah:
		if len(d.Jumuah) > 0 {
			return d.Jumuah[0]
		}
	}
	return ""
}

// TimeRange is a maximal run of consecutive dates sharing one time.
type TimeRange struct {
	Prayer    PrayerName `json:"prayer"`
	StartDate string     `json:"startDate"`
	EndDate   string     `json:"endDate"`
	Time      string     `json:"time"`
	SlotIndex int        `json:"slotIndex"`
}

// Schedule maps every prayer to its ranges, sorted by start date.
type Schedule map[PrayerName][]TimeRange

// NewSchedule returns a schedule with an empty (non-nil) list per prayer.
func NewSchedule() Schedule {
	s := make(Schedule, len(Prayers))
	for _, p := range Prayers {
		s[p] = []TimeRange{}
	}
	return s
}

// MonthSchedule is a normalized month as served to the admin UI.
type MonthSchedule struct {
	Year    int      `json:"year"`
	Month   int      `json:"month"`
	Label   string   `json:"label"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
	Days    int      `json:"days"`
	HasData bool     `json:"hasData"`
	Ranges  Schedule `json:"ranges"`
}

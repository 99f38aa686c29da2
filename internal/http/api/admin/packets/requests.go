package packets

import "github.com/Nixie-Tech-LLC/masjid-console/internal/model"

type MonthQuery struct {
	Year  int `form:"year"  binding:"required,min=1900,max=9999"`
	Month int `form:"month" binding:"required,min=1,max=12"`
}

type NotifyQuery struct {
	Notify bool `form:"notify"`
}

type CreateRangeRequest struct {
	Prayer    model.PrayerName `json:"prayer"    binding:"required,prayer"`
	StartDate string           `json:"startDate" binding:"required,isodate"`
	EndDate   string           `json:"endDate"   binding:"required,isodate"`
	Time      string           `json:"time"      binding:"required,hhmm"`
	SlotIndex int              `json:"slotIndex" binding:"min=0"`
}

// UpdateRangeRequest carries the range as it was loaded (old*) and its
// edited values. Omitted old* fields mean "same as edited". OldTime is only
// a lookup key and is passed through as stored, even when it is not HH:MM.
type UpdateRangeRequest struct {
	Prayer       model.PrayerName `json:"prayer"       binding:"required,prayer"`
	OldStartDate string           `json:"oldStartDate" binding:"omitempty,isodate"`
	OldEndDate   string           `json:"oldEndDate"   binding:"omitempty,isodate"`
	OldTime      string           `json:"oldTime"`
	StartDate    string           `json:"startDate"    binding:"required,isodate"`
	EndDate      string           `json:"endDate"      binding:"required,isodate"`
	Time         string           `json:"time"         binding:"required,hhmm"`
}

type DeleteRangeRequest struct {
	Prayer    model.PrayerName `json:"prayer"    binding:"required,prayer"`
	StartDate string           `json:"startDate" binding:"required,isodate"`
	EndDate   string           `json:"endDate"   binding:"required,isodate"`
	Time      string           `json:"time"      binding:"omitempty,hhmm"` // jumuah only
}

type ReloadRequest struct {
	Reason    string `json:"reason"     binding:"max=200"`
	TimeoutMS int    `json:"timeout_ms" binding:"omitempty,min=100,max=120000"`
}

type AnnounceRequest struct {
	Text      string `json:"text"       binding:"required,max=500"`
	TimeoutMS int    `json:"timeout_ms" binding:"omitempty,min=100,max=120000"`
}

type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

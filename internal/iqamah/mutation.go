package iqamah

import (
	"github.com/Nixie-Tech-LLC/masjid-console/internal/model"
)

// CreateRequest is the body of a create-range call.
type CreateRequest struct {
	Prayer    model.PrayerName `json:"prayer"`
	StartDate string           `json:"startDate"`
	EndDate   string           `json:"endDate"`
	Time      string           `json:"time"`
}

// UpdateRequest replaces the range keyed by the Old* fields. The backend
// replaces by key, so the full new range is always sent.
type UpdateRequest struct {
	Prayer       model.PrayerName `json:"prayer"`
	OldStartDate string           `json:"oldStartDate"`
	OldEndDate   string           `json:"oldEndDate"`
	OldTime      string           `json:"oldTime"`
	StartDate    string           `json:"startDate"`
	EndDate      string           `json:"endDate"`
	Time         string           `json:"time"`
}

// DeleteRequest removes a range. Time is only set for jumuah, where several
// slots can share one date span.
type DeleteRequest struct {
	Prayer    model.PrayerName `json:"prayer"`
	StartDate string           `json:"startDate"`
	EndDate   string           `json:"endDate"`
	Time      string           `json:"time,omitempty"`
}

// ValidateRange checks prayer, both dates, their order and the time format.
func ValidateRange(r model.TimeRange) error {
	if !r.Prayer.Valid() {
		return invalid("prayer", "unknown prayer "+quote(string(r.Prayer)))
	}
	if r.StartDate == "" || r.EndDate == "" {
		return invalid("", "start and end dates are required")
	}
	start, ok := ParseDate(r.StartDate)
	if !ok {
		return invalid("startDate", "not a valid YYYY-MM-DD date")
	}
	end, ok := ParseDate(r.EndDate)
	if !ok {
		return invalid("endDate", "not a valid YYYY-MM-DD date")
	}
	if start.After(end) {
		return invalid("", "start date after end date")
	}
	if !ValidTime(r.Time) {
		return invalid("time", "time not in HH:MM (24h) format")
	}
	return nil
}

// PlanCreate validates r and builds its create request.
func PlanCreate(r model.TimeRange) (CreateRequest, error) {
	if err := ValidateRange(r); err != nil {
		return CreateRequest{}, err
	}
	return CreateRequest{
		Prayer:    r.Prayer,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Time:      r.Time,
	}, nil
}

// PlanUpdate builds a replace-by-key request from the range as loaded and
// the edited range. A zero original falls back to the edited range, which
// makes the update a plain resubmit.
func PlanUpdate(original, edited model.TimeRange) (UpdateRequest, error) {
	if err := ValidateRange(edited); err != nil {
		return UpdateRequest{}, err
	}
	if original.StartDate == "" && original.EndDate == "" {
		original = edited
	}
	if original.Prayer != "" && original.Prayer != edited.Prayer {
		return UpdateRequest{}, invalid("prayer", "cannot move a range to another prayer")
	}
	return UpdateRequest{
		Prayer:       edited.Prayer,
		OldStartDate: original.StartDate,
		OldEndDate:   original.EndDate,
		OldTime:      original.Time,
		StartDate:    edited.StartDate,
		EndDate:      edited.EndDate,
		Time:         edited.Time,
	}, nil
}

// PlanDelete builds the delete request for r.
func PlanDelete(r model.TimeRange) (DeleteRequest, error) {
	if !r.Prayer.Valid() {
		return DeleteRequest{}, invalid("prayer", "unknown prayer "+quote(string(r.Prayer)))
	}
	if r.StartDate == "" || r.EndDate == "" {
		return DeleteRequest{}, invalid("", "start and end dates are required")
	}
	req := DeleteRequest{Prayer: r.Prayer, StartDate: r.StartDate, EndDate: r.EndDate}
	if r.Prayer == model.Jumuah && r.Time != "" {
		req.Time = r.Time
	}
	return req, nil
}

func quote(s string) string { return `"` + s + `"` }

package iqamah

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/model"
)

// RangeStore is the backend store of record for iqamaah ranges.
type RangeStore interface {
	// FetchMonth returns the decoded month payload; found is false when the
	// backend has no data for the month.
	FetchMonth(ctx context.Context, year, month int) (payload any, found bool, err error)
	CreateRange(ctx context.Context, req CreateRequest) (any, error)
	UpdateRange(ctx context.Context, req UpdateRequest) (any, error)
	DeleteRange(ctx context.Context, req DeleteRequest) (any, error)
}

// MonthCache holds normalized months between reads.
type MonthCache interface {
	GetMonth(ctx context.Context, year, month int) (model.MonthSchedule, bool, error)
	SetMonth(ctx context.Context, m model.MonthSchedule) error
	InvalidateMonth(ctx context.Context, year, month int) error
}

// Service loads months through the range engine and sends validated range
// mutations to the store. Cache failures are logged and otherwise ignored.
type Service struct {
	store RangeStore
	cache MonthCache
}

func NewService(store RangeStore, cache MonthCache) *Service {
	return &Service{store: store, cache: cache}
}

// LoadMonth returns the normalized schedule for month (1-12) of year.
func (s *Service) LoadMonth(ctx context.Context, year, month int) (model.MonthSchedule, error) {
	bounds, err := MonthBounds(year, month)
	if err != nil {
		return model.MonthSchedule{}, invalid("month", err.Error())
	}

	if s.cache != nil {
		cached, ok, err := s.cache.GetMonth(ctx, year, month)
		if err != nil {
			log.Warn().Err(err).Int("year", year).Int("month", month).Msg("month cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	payload, found, err := s.store.FetchMonth(ctx, year, month)
	if err != nil {
		return model.MonthSchedule{}, err
	}

	out := model.MonthSchedule{
		Year:    year,
		Month:   month,
		Label:   bounds.Label,
		Start:   bounds.Start,
		End:     bounds.End,
		Days:    bounds.Days,
		HasData: found,
		Ranges:  Normalize(payload),
	}

	if s.cache != nil {
		if err := s.cache.SetMonth(ctx, out); err != nil {
			log.Warn().Err(err).Int("year", year).Int("month", month).Msg("month cache write failed")
		}
	}
	return out, nil
}

// AddRange validates r and creates it.
func (s *Service) AddRange(ctx context.Context, r model.TimeRange) (any, error) {
	req, err := PlanCreate(r)
	if err != nil {
		return nil, err
	}
	res, err := s.store.CreateRange(ctx, req)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, r.StartDate, r.EndDate)
	return res, nil
}

// UpdateRange replaces original with edited.
func (s *Service) UpdateRange(ctx context.Context, original, edited model.TimeRange) (any, error) {
	req, err := PlanUpdate(original, edited)
	if err != nil {
		return nil, err
	}
	res, err := s.store.UpdateRange(ctx, req)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, req.OldStartDate, req.OldEndDate)
	s.invalidate(ctx, req.StartDate, req.EndDate)
	return res, nil
}

// RemoveRange deletes r.
func (s *Service) RemoveRange(ctx context.Context, r model.TimeRange) (any, error) {
	req, err := PlanDelete(r)
	if err != nil {
		return nil, err
	}
	res, err := s.store.DeleteRange(ctx, req)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, r.StartDate, r.EndDate)
	return res, nil
}

// maxInvalidatedMonths bounds the cache sweep for very long ranges.
const maxInvalidatedMonths = 36

func (s *Service) invalidate(ctx context.Context, startDate, endDate string) {
	if s.cache == nil {
		return
	}
	for _, ym := range monthsBetween(startDate, endDate) {
		if err := s.cache.InvalidateMonth(ctx, ym[0], ym[1]); err != nil {
			log.Warn().Err(err).Int("year", ym[0]).Int("month", ym[1]).Msg("month cache invalidation failed")
		}
	}
}

// monthsBetween lists the (year, month) pairs touched by [start, end].
func monthsBetween(startDate, endDate string) [][2]int {
	start, ok := ParseDate(NormalizeDate(startDate))
	if !ok {
		return nil
	}
	end, ok := ParseDate(NormalizeDate(endDate))
	if !ok || end.Before(start) {
		end = start
	}

	var out [][2]int
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(end) && len(out) < maxInvalidatedMonths {
		out = append(out, [2]int{cur.Year(), int(cur.Month())})
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

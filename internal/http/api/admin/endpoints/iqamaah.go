package endpoints

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/ack"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/http/api"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/http/api/admin/packets"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/model"
)

// notifyReason is sent with the reload that follows a range change.
const notifyReason = "iqamaah times updated"

type RangeService interface {
	LoadMonth(ctx context.Context, year, month int) (model.MonthSchedule, error)
	AddRange(ctx context.Context, r model.TimeRange) (any, error)
	UpdateRange(ctx context.Context, original, edited model.TimeRange) (any, error)
	RemoveRange(ctx context.Context, r model.TimeRange) (any, error)
}

type Notifier interface {
	Reload(ctx context.Context, reason string, timeout time.Duration) (ack.Result, error)
	Announce(ctx context.Context, text string, timeout time.Duration) (ack.Result, error)
}

type IqamaahController struct {
	ranges   RangeService
	notifier Notifier
}

// IqamaahModule mounts the /iqamaah endpoints. notifier may be nil, in
// which case ?notify=true is ignored.
func IqamaahModule(ranges RangeService, notifier Notifier) api.Module {
	ctl := &IqamaahController{ranges: ranges, notifier: notifier}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/iqamaah/month", ctl.getMonth)
		c.POST("/iqamaah/range", ctl.createRange)
		c.PATCH("/iqamaah/range", ctl.updateRange)
		c.DELETE("/iqamaah/range", ctl.deleteRange)
	})
}

// GET /api/admin/iqamaah/month?year=&month=
func (t *IqamaahController) getMonth(ctx *gin.Context) (any, *api.Error) {
	var query packets.MonthQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, api.BadRequest(err)
	}

	month, err := t.ranges.LoadMonth(ctx.Request.Context(), query.Year, query.Month)
	if err != nil {
		return nil, api.FromError(err)
	}
	return month, nil
}

// POST /api/admin/iqamaah/range
func (t *IqamaahController) createRange(ctx *gin.Context) (any, *api.Error) {
	var request packets.CreateRangeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}

	res, err := t.ranges.AddRange(ctx.Request.Context(), model.TimeRange{
		Prayer:    request.Prayer,
		StartDate: request.StartDate,
		EndDate:   request.EndDate,
		Time:      request.Time,
		SlotIndex: request.SlotIndex,
	})
	if err != nil {
		return nil, api.FromError(err)
	}
	log.Info().Str("prayer", string(request.Prayer)).
		Str("start", request.StartDate).Str("end", request.EndDate).
		Msg("iqamaah range created")

	return t.respond(ctx, res), nil
}

// PATCH /api/admin/iqamaah/range
func (t *IqamaahController) updateRange(ctx *gin.Context) (any, *api.Error) {
	var request packets.UpdateRangeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}

	original := model.TimeRange{
		Prayer:    request.Prayer,
		StartDate: request.OldStartDate,
		EndDate:   request.OldEndDate,
		Time:      request.OldTime,
	}
	edited := model.TimeRange{
		Prayer:    request.Prayer,
		StartDate: request.StartDate,
		EndDate:   request.EndDate,
		Time:      request.Time,
	}
	res, err := t.ranges.UpdateRange(ctx.Request.Context(), original, edited)
	if err != nil {
		return nil, api.FromError(err)
	}
	log.Info().Str("prayer", string(request.Prayer)).
		Str("start", request.StartDate).Str("end", request.EndDate).
		Msg("iqamaah range updated")

	return t.respond(ctx, res), nil
}

// DELETE /api/admin/iqamaah/range
func (t *IqamaahController) deleteRange(ctx *gin.Context) (any, *api.Error) {
	var request packets.DeleteRangeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}

	res, err := t.ranges.RemoveRange(ctx.Request.Context(), model.TimeRange{
		Prayer:    request.Prayer,
		StartDate: request.StartDate,
		EndDate:   request.EndDate,
		Time:      request.Time,
	})
	if err != nil {
		return nil, api.FromError(err)
	}
	log.Info().Str("prayer", string(request.Prayer)).
		Str("start", request.StartDate).Str("end", request.EndDate).
		Msg("iqamaah range deleted")

	return t.respond(ctx, res), nil
}

func (t *IqamaahController) respond(ctx *gin.Context, res any) packets.MutationResponse {
	out := packets.MutationResponse{Result: res}

	var query packets.NotifyQuery
	if err := ctx.ShouldBindQuery(&query); err != nil || !query.Notify || t.notifier == nil {
		return out
	}

	result, err := t.notifier.Reload(ctx.Request.Context(), notifyReason, 0)
	if err != nil {
		log.Warn().Err(err).Msg("range saved but display reload failed")
		out.NotifyError = err.Error()
		return out
	}
	out.Notification = packets.NewBroadcastResponse(result)
	return out
}

package endpoints

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/http/api"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/http/api/admin/packets"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/model"
)

type CommandHistory interface {
	ListCommands(ctx context.Context, limit int) ([]model.CommandLogEntry, error)
}

// DisplayLister reports the displays currently attached to the console.
type DisplayLister interface {
	Clients() []string
}

type DisplaysController struct {
	notifier Notifier
	history  CommandHistory
	lister   DisplayLister
}

// DisplaysModule mounts the /displays endpoints. history and lister are
// optional.
func DisplaysModule(notifier Notifier, history CommandHistory, lister DisplayLister) api.Module {
	ctl := &DisplaysController{notifier: notifier, history: history, lister: lister}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/displays", ctl.listDisplays)
		c.POST("/displays/reload", ctl.reload)
		c.POST("/displays/announce", ctl.announce)
		c.GET("/displays/history", ctl.listHistory)
	})
}

// GET /api/admin/displays
func (d *DisplaysController) listDisplays(ctx *gin.Context) (any, *api.Error) {
	out := packets.DisplaysResponse{Clients: []string{}}
	if d.lister != nil {
		out.Clients = append(out.Clients, d.lister.Clients()...)
	}
	return out, nil
}

// POST /api/admin/displays/reload
func (d *DisplaysController) reload(ctx *gin.Context) (any, *api.Error) {
	var request packets.ReloadRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}

	result, err := d.notifier.Reload(ctx.Request.Context(), request.Reason, millis(request.TimeoutMS))
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewBroadcastResponse(result), nil
}

// POST /api/admin/displays/announce
func (d *DisplaysController) announce(ctx *gin.Context) (any, *api.Error) {
	var request packets.AnnounceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}

	result, err := d.notifier.Announce(ctx.Request.Context(), request.Text, millis(request.TimeoutMS))
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewBroadcastResponse(result), nil
}

// GET /api/admin/displays/history?limit=
func (d *DisplaysController) listHistory(ctx *gin.Context) (any, *api.Error) {
	var query packets.HistoryQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, api.BadRequest(err)
	}

	out := packets.HistoryResponse{Commands: []model.CommandLogEntry{}}
	if d.history == nil {
		return out, nil
	}
	entries, err := d.history.ListCommands(ctx.Request.Context(), query.Limit)
	if err != nil {
		return nil, api.FromError(err)
	}
	out.Commands = append(out.Commands, entries...)
	return out, nil
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

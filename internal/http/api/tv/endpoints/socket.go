package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/http/api"
)

// SocketModule mounts GET /ws, where displays attach with
// ?device_id=<id> and exchange {event, data} frames.
func SocketModule(hub http.Handler) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.Handle(http.MethodGet, "/ws", gin.WrapH(hub))
	})
}

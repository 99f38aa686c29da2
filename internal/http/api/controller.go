package api

import "github.com/gin-gonic/gin"

// Controller registers endpoints on a gin group, resolving each one.
type Controller struct {
	Group *gin.RouterGroup
}

func (c *Controller) GET(path string, h HandlerFunc) {
	c.Group.GET(path, ResolveEndpoint(h))
}

func (c *Controller) POST(path string, h HandlerFunc) {
	c.Group.POST(path, ResolveEndpoint(h))
}

func (c *Controller) PATCH(path string, h HandlerFunc) {
	c.Group.PATCH(path, ResolveEndpoint(h))
}

func (c *Controller) DELETE(path string, h HandlerFunc) {
	c.Group.DELETE(path, ResolveEndpoint(h))
}

// Handle mounts a raw gin handler, for endpoints that do not answer JSON.
func (c *Controller) Handle(method, path string, h gin.HandlerFunc) {
	c.Group.Handle(method, path, h)
}

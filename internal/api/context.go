package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// actorFrom returns the caller identified by the auth middleware.
func actorFrom(c *gin.Context) service.Actor {
	var actor service.Actor
	if v, ok := c.Get(middleware.UserIDKey); ok {
		actor.UserID, _ = v.(uint)
	}
	if v, ok := c.Get(middleware.IsAdminKey); ok {
		actor.Admin, _ = v.(bool)
	}
	return actor
}

// pathID parses a positive numeric path parameter. Anything else does not
// name a resource, so the caller answers 404.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, service.ErrNotFound)
		return 0, false
	}
	return uint(id), true
}

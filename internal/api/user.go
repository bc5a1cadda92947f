package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type UserHandler struct {
	users      service.IUserService
	pagination Pagination
}

func NewUserHandler(users service.IUserService, pagination Pagination) *UserHandler {
	return &UserHandler{users: users, pagination: pagination}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.Register)
		users.GET("/me", h.Me)
		users.POST("/set_password", h.SetPassword)
		users.GET("/subscriptions", h.Subscriptions)
		users.GET("/:id", h.GetUser)
		users.POST("/:id/subscribe", h.Subscribe)
		users.DELETE("/:id/subscribe", h.Unsubscribe)
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, ok := h.pagination.pageRequest(c)
	if !ok {
		return
	}
	result, err := h.users.List(c.Request.Context(), actorFrom(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, result)
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.users.Register(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.users.Me(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	actor := actorFrom(c)
	if actor.Anonymous() {
		respondError(c, service.ErrUnauthenticated)
		return
	}
	var req types.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.users.SetPassword(c.Request.Context(), actor, &req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	limit, ok := recipesLimit(c)
	if !ok {
		return
	}
	page, ok := h.pagination.pageRequest(c)
	if !ok {
		return
	}
	result, err := h.users.Subscriptions(c.Request.Context(), actorFrom(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, result)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, ok := recipesLimit(c)
	if !ok {
		return
	}
	sub, err := h.users.Subscribe(c.Request.Context(), actorFrom(c), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Unsubscribe(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// recipesLimit reads ?recipes_limit=. Zero or absent means no limit.
func recipesLimit(c *gin.Context) (int, bool) {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"recipes_limit": []string{"a non-negative integer is required"}})
		return 0, false
	}
	return n, true
}

package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/shoppinglist"
	"github.com/pageza/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	recipes    service.IRecipeService
	toggles    service.IToggleService
	shopping   service.IShoppingService
	pagination Pagination
	createMW   []gin.HandlerFunc
}

// NewRecipeHandler builds the recipe endpoints. createMW runs before recipe
// creation only, for rate limiting.
func NewRecipeHandler(recipes service.IRecipeService, toggles service.IToggleService, shopping service.IShoppingService, pagination Pagination, createMW ...gin.HandlerFunc) *RecipeHandler {
	return &RecipeHandler{
		recipes:    recipes,
		toggles:    toggles,
		shopping:   shopping,
		pagination: pagination,
		createMW:   createMW,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.POST("", append(h.createMW, h.CreateRecipe)...)
		recipes.GET("/download_shopping_cart", h.DownloadShoppingCart)
		recipes.GET("/:id", h.GetRecipe)
		recipes.PATCH("/:id", h.UpdateRecipe)
		recipes.DELETE("/:id", h.DeleteRecipe)
		recipes.POST("/:id/favorite", h.toggle(service.Favorites, true))
		recipes.DELETE("/:id/favorite", h.toggle(service.Favorites, false))
		recipes.POST("/:id/shopping_cart", h.toggle(service.ShoppingCart, true))
		recipes.DELETE("/:id/shopping_cart", h.toggle(service.ShoppingCart, false))
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter, ok := recipeFilter(c)
	if !ok {
		return
	}
	page, ok := h.pagination.pageRequest(c)
	if !ok {
		return
	}

	result, err := h.recipes.List(c.Request.Context(), actorFrom(c), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, result)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	recipe, err := h.recipes.Create(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	recipe, err := h.recipes.Update(c.Request.Context(), actorFrom(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) toggle(kind service.ToggleKind, add bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if !add {
			if err := h.toggles.Remove(c.Request.Context(), actorFrom(c), kind, id); err != nil {
				respondError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
			return
		}
		short, err := h.toggles.Add(c.Request.Context(), actorFrom(c), kind, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, short)
	}
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	formatter, err := shoppinglist.ForFormat(c.Query("format"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"format": []string{err.Error()}})
		return
	}

	list, err := h.shopping.Aggregate(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := formatter.Write(&buf, list); err != nil {
		respondError(c, fmt.Errorf("failed to render shopping list: %w", err))
		return
	}

	metrics.RecordShoppingListDownload(formatter.Extension())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", shoppinglist.Filename(formatter)))
	c.Data(http.StatusOK, formatter.ContentType(), buf.Bytes())
}

// recipeFilter parses the list query. Membership flags accept 1/0/true/false.
func recipeFilter(c *gin.Context) (types.RecipeFilter, bool) {
	filter := types.RecipeFilter{Tags: c.QueryArray("tags")}
	fields := map[string][]string{}

	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			fields["author"] = append(fields["author"], "select a valid user id")
		} else {
			author := uint(id)
			filter.AuthorID = &author
		}
	}

	for name, target := range map[string]**bool{
		"is_favorited":        &filter.IsFavorited,
		"is_in_shopping_cart": &filter.IsInShoppingCart,
	} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, ok := parseFlag(raw)
		if !ok {
			fields[name] = append(fields[name], "expected 1, 0, true or false")
			continue
		}
		*target = &v
	}

	if len(fields) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, fields)
		return filter, false
	}
	return filter, true
}

func parseFlag(raw string) (bool, bool) {
	switch raw {
	case "1", "true", "True":
		return true, true
	case "0", "false", "False":
		return false, true
	}
	return false, false
}

package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

func withDetails(q *gorm.DB) *gorm.DB {
	return q.Preload("Author").Preload("Tags.Tag").Preload("Ingredients.Ingredient")
}

// render builds recipe views with flags computed for actor. Each flag costs
// one query for the whole batch.
func (s *RecipeService) render(ctx context.Context, actor Actor, recipes []models.Recipe) ([]types.RecipeResponse, error) {
	ids := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	favorited, err := memberships(ctx, s.db, actor, &models.Favorite{}, ids)
	if err != nil {
		return nil, err
	}
	inCart, err := memberships(ctx, s.db, actor, &models.ShoppingCart{}, ids)
	if err != nil {
		return nil, err
	}
	subscribed, err := subscribedTo(ctx, s.db, actor, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]types.RecipeResponse, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		out[i] = types.RecipeResponse{
			ID:               r.ID,
			Tags:             recipeTags(r),
			Author:           *userResponse(&r.Author, subscribed[r.AuthorID]),
			Ingredients:      recipeIngredients(r),
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
	}
	return out, nil
}

// memberships reports which recipes actor has a row for in the favorites or
// shopping cart table of model.
func memberships(ctx context.Context, db *gorm.DB, actor Actor, model interface{}, recipeIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if actor.Anonymous() || len(recipeIDs) == 0 {
		return out, nil
	}
	var ids []uint
	if err := db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id IN ?", actor.UserID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func recipeTags(r *models.Recipe) []types.TagResponse {
	links := append([]models.RecipeTag{}, r.Tags...)
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })
	out := make([]types.TagResponse, len(links))
	for i := range links {
		out[i] = tagResponse(&links[i].Tag)
	}
	return out
}

func recipeIngredients(r *models.Recipe) []types.RecipeIngredientResponse {
	links := append([]models.RecipeIngredient{}, r.Ingredients...)
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })
	out := make([]types.RecipeIngredientResponse, len(links))
	for i, l := range links {
		out[i] = types.RecipeIngredientResponse{
			ID:              l.Ingredient.ID,
			Name:            l.Ingredient.Name,
			MeasurementUnit: l.Ingredient.MeasurementUnit,
			Amount:          l.Amount,
		}
	}
	return out
}

func shortRecipe(r *models.Recipe) *types.RecipeShortResponse {
	return &types.RecipeShortResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	}
}

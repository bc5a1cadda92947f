package service

import (
	"context"
	"fmt"

	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/shoppinglist"
	"gorm.io/gorm"
)

type ShoppingService struct {
	db    *gorm.DB
	authz *authz.Enforcer
}

func NewShoppingService(db *gorm.DB, enforcer *authz.Enforcer) *ShoppingService {
	return &ShoppingService{db: db, authz: enforcer}
}

// Aggregate sums ingredient amounts over every recipe in the actor's cart,
// grouped by ingredient name and unit and ordered by name.
func (s *ShoppingService) Aggregate(ctx context.Context, actor Actor) (*shoppinglist.List, error) {
	if err := authorize(s.authz, actor, authz.Recipe, authz.DownloadShoppingCart, 0); err != nil {
		return nil, err
	}

	var items []shoppinglist.Item
	err := s.db.WithContext(ctx).
		Table("shopping_carts").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = shopping_carts.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_carts.user_id = ?", actor.UserID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name ASC, ingredients.measurement_unit ASC").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shopping list: %w", err)
	}

	return &shoppinglist.List{Items: items}, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ToggleKind names a per-user recipe list.
type ToggleKind int

const (
	Favorites ToggleKind = iota
	ShoppingCart
)

func (k ToggleKind) String() string {
	if k == ShoppingCart {
		return "shopping cart"
	}
	return "favorites"
}

func (k ToggleKind) operation() authz.Operation {
	if k == ShoppingCart {
		return authz.ShoppingCart
	}
	return authz.Favorite
}

func (k ToggleKind) row(userID, recipeID uint) interface{} {
	if k == ShoppingCart {
		return &models.ShoppingCart{UserID: userID, RecipeID: recipeID}
	}
	return &models.Favorite{UserID: userID, RecipeID: recipeID}
}

func (k ToggleKind) model() interface{} {
	if k == ShoppingCart {
		return &models.ShoppingCart{}
	}
	return &models.Favorite{}
}

// ToggleService adds recipes to and removes them from favorites and the
// shopping cart. The unique (user, recipe) index decides duplicates.
type ToggleService struct {
	db    *gorm.DB
	authz *authz.Enforcer
}

func NewToggleService(db *gorm.DB, enforcer *authz.Enforcer) *ToggleService {
	return &ToggleService{db: db, authz: enforcer}
}

func (s *ToggleService) Add(ctx context.Context, actor Actor, kind ToggleKind, recipeID uint) (*types.RecipeShortResponse, error) {
	if err := authorize(s.authz, actor, authz.Recipe, kind.operation(), 0); err != nil {
		return nil, err
	}

	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recipe %d: %w", recipeID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(kind.row(actor.UserID, recipeID)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("recipe %d is already in %s: %w", recipeID, kind, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to add recipe to %s: %w", kind, err)
	}

	return shortRecipe(&recipe), nil
}

func (s *ToggleService) Remove(ctx context.Context, actor Actor, kind ToggleKind, recipeID uint) error {
	if err := authorize(s.authz, actor, authz.Recipe, kind.operation(), 0); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", actor.UserID, recipeID).
		Delete(kind.model())
	if res.Error != nil {
		return fmt.Errorf("failed to remove recipe from %s: %w", kind, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("recipe %d is not in %s: %w", recipeID, kind, ErrNotFound)
	}
	return nil
}

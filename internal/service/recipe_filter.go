package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// filtered builds the recipe query for f as seen by actor. Tags match any of
// the given slugs. Membership filters are ignored for anonymous callers;
// false excludes members.
func (s *RecipeService) filtered(ctx context.Context, actor Actor, f types.RecipeFilter) *gorm.DB {
	db := s.db.WithContext(ctx)
	q := db.Model(&models.Recipe{})

	if len(f.Tags) > 0 {
		tagged := db.Model(&models.RecipeTag{}).
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.Tags)
		q = q.Where("recipes.id IN (?)", tagged)
	}

	if f.AuthorID != nil {
		q = q.Where("recipes.author_id = ?", *f.AuthorID)
	}

	if actor.Anonymous() {
		return q
	}

	member := func(model interface{}) *gorm.DB {
		return db.Model(model).Select("recipe_id").Where("user_id = ?", actor.UserID)
	}
	if f.IsFavorited != nil {
		q = membershipFilter(q, member(&models.Favorite{}), *f.IsFavorited)
	}
	if f.IsInShoppingCart != nil {
		q = membershipFilter(q, member(&models.ShoppingCart{}), *f.IsInShoppingCart)
	}
	return q
}

func membershipFilter(q, sub *gorm.DB, in bool) *gorm.DB {
	if in {
		return q.Where("recipes.id IN (?)", sub)
	}
	return q.Where("recipes.id NOT IN (?)", sub)
}

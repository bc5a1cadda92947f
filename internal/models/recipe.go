package models

import (
	"time"
)

type Recipe struct {
	ID          uint               `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time          `gorm:"index;<-:create" json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	AuthorID    uint               `gorm:"not null;index" json:"author_id"`
	Author      User               `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Name        string             `gorm:"size:256;not null" json:"name"`
	Text        string             `gorm:"type:text;not null" json:"text"`
	Image       string             `gorm:"size:512;not null" json:"image"`
	CookingTime int                `gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1" json:"cooking_time"`
	Tags        []RecipeTag        `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"tags"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients"`
}

type RecipeTag struct {
	ID       uint `gorm:"primarykey" json:"id"`
	RecipeID uint `gorm:"not null;uniqueIndex:idx_recipe_tag" json:"recipe_id"`
	TagID    uint `gorm:"not null;uniqueIndex:idx_recipe_tag;index" json:"tag_id"`
	Tag      Tag  `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"tag"`
}

type RecipeIngredient struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"recipe_id"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient;index" json:"ingredient_id"`
	Ingredient   Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE" json:"ingredient"`
	Amount       int        `gorm:"not null;check:chk_recipe_ingredients_amount,amount >= 1" json:"amount"`
}

// Favorite and ShoppingCart share a shape: one row per (user, recipe).

type Favorite struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index" json:"recipe_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Recipe    Recipe    `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Favorite) TableName() string {
	return "favorites"
}

type ShoppingCart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe;index" json:"recipe_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Recipe    Recipe    `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ShoppingCart) TableName() string {
	return "shopping_carts"
}

// All lists every model in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Group{},
		&User{},
		&Follow{},
		&Ingredient{},
		&Tag{},
		&Recipe{},
		&RecipeTag{},
		&RecipeIngredient{},
		&Favorite{},
		&ShoppingCart{},
	}
}

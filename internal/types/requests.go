package types

// IngredientAmount is one ingredient line of a recipe payload.
type IngredientAmount struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeWriteRequest is the body of recipe create and update. Nil fields are
// absent from the payload; on update they keep their current value.
type RecipeWriteRequest struct {
	Ingredients *[]IngredientAmount `json:"ingredients"`
	Tags        *[]uint             `json:"tags"`
	Image       *string             `json:"image"`
	Name        *string             `json:"name" binding:"omitempty,max=256"`
	Text        *string             `json:"text"`
	CookingTime *int                `json:"cooking_time"`
}

// RegisterRequest is the body of POST /users/.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150,username"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=8,max=150"`
}

type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" binding:"required,min=8,max=150"`
	CurrentPassword string `json:"current_password" binding:"required"`
}

// RecipeFilter narrows the recipe list. Nil pointers do not filter.
type RecipeFilter struct {
	Tags             []string
	AuthorID         *uint
	IsFavorited      *bool
	IsInShoppingCart *bool
}

// PageRequest selects a page of a list, 1-based.
type PageRequest struct {
	Page  int
	Limit int
}

func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

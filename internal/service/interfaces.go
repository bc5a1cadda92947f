package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/shoppinglist"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	GenerateToken(user *models.User) (string, *types.TokenClaims, error)
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
}

// IUserService defines the interface for user and subscription operations
type IUserService interface {
	Register(ctx context.Context, actor Actor, req *types.RegisterRequest) (*types.UserResponse, error)
	List(ctx context.Context, actor Actor, page types.PageRequest) (*types.Page[types.UserResponse], error)
	Get(ctx context.Context, actor Actor, id uint) (*types.UserResponse, error)
	Me(ctx context.Context, actor Actor) (*types.UserResponse, error)
	SetPassword(ctx context.Context, actor Actor, req *types.SetPasswordRequest) error
	Subscriptions(ctx context.Context, actor Actor, page types.PageRequest, recipesLimit int) (*types.Page[types.SubscriptionResponse], error)
	Subscribe(ctx context.Context, actor Actor, authorID uint, recipesLimit int) (*types.SubscriptionResponse, error)
	Unsubscribe(ctx context.Context, actor Actor, authorID uint) error
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	Create(ctx context.Context, actor Actor, req *types.RecipeWriteRequest) (*types.RecipeResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req *types.RecipeWriteRequest) (*types.RecipeResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	Get(ctx context.Context, actor Actor, id uint) (*types.RecipeResponse, error)
	List(ctx context.Context, actor Actor, filter types.RecipeFilter, page types.PageRequest) (*types.Page[types.RecipeResponse], error)
}

// IToggleService defines favorite and shopping cart membership operations
type IToggleService interface {
	Add(ctx context.Context, actor Actor, kind ToggleKind, recipeID uint) (*types.RecipeShortResponse, error)
	Remove(ctx context.Context, actor Actor, kind ToggleKind, recipeID uint) error
}

// IShoppingService aggregates the shopping cart
type IShoppingService interface {
	Aggregate(ctx context.Context, actor Actor) (*shoppinglist.List, error)
}

// ICatalogService defines tag and ingredient lookups
type ICatalogService interface {
	ListTags(ctx context.Context, actor Actor) ([]types.TagResponse, error)
	GetTag(ctx context.Context, actor Actor, id uint) (*types.TagResponse, error)
	ListIngredients(ctx context.Context, actor Actor, prefix string) ([]types.IngredientResponse, error)
	GetIngredient(ctx context.Context, actor Actor, id uint) (*types.IngredientResponse, error)
}

var (
	_ IAuthService     = (*AuthService)(nil)
	_ IUserService     = (*UserService)(nil)
	_ IRecipeService   = (*RecipeService)(nil)
	_ IToggleService   = (*ToggleService)(nil)
	_ IShoppingService = (*ShoppingService)(nil)
	_ ICatalogService  = (*CatalogService)(nil)
)

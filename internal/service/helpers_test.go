package service_test

import (
	"encoding/base64"
	"testing"

	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var pngURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not really a png"))

type testEnv struct {
	db       *gorm.DB
	enforcer *authz.Enforcer
	images   *storage.LocalStore
	recipes  *service.RecipeService
	toggles  *service.ToggleService
	shopping *service.ShoppingService
	users    *service.UserService
	catalog  *service.CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	enforcer := authz.MustNewEnforcer()
	images, err := storage.NewLocalStore(t.TempDir(), "/media/")
	require.NoError(t, err)

	return &testEnv{
		db:       db,
		enforcer: enforcer,
		images:   images,
		recipes:  service.NewRecipeService(db, enforcer, images),
		toggles:  service.NewToggleService(db, enforcer),
		shopping: service.NewShoppingService(db, enforcer),
		users:    service.NewUserService(db, enforcer),
		catalog:  service.NewCatalogService(db, enforcer),
	}
}

func actorOf(u *models.User) service.Actor {
	return service.Actor{UserID: u.ID}
}

func ptr[T any](v T) *T {
	return &v
}

// recipeRequest is a complete, valid create payload.
func recipeRequest(tags []uint, ingredients ...types.IngredientAmount) *types.RecipeWriteRequest {
	return &types.RecipeWriteRequest{
		Ingredients: &ingredients,
		Tags:        &tags,
		Image:       ptr(pngURI),
		Name:        ptr("Omelette"),
		Text:        ptr("Beat the eggs and fry."),
		CookingTime: ptr(10),
	}
}

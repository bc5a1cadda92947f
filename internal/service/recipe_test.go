package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, env.db, "chef")
	breakfast := testhelpers.CreateTag(t, env.db, "breakfast")
	quick := testhelpers.CreateTag(t, env.db, "quick")
	egg := testhelpers.CreateIngredient(t, env.db, "egg", "pcs")
	milk := testhelpers.CreateIngredient(t, env.db, "milk", "ml")

	req := recipeRequest([]uint{quick.ID, breakfast.ID},
		types.IngredientAmount{ID: milk.ID, Amount: 50},
		types.IngredientAmount{ID: egg.ID, Amount: 3},
	)
	got, err := env.recipes.Create(ctx, actorOf(author), req)
	require.NoError(t, err)

	assert.NotZero(t, got.ID)
	assert.Equal(t, "Omelette", got.Name)
	assert.Equal(t, 10, got.CookingTime)
	assert.Equal(t, author.ID, got.Author.ID)
	assert.False(t, got.Author.IsSubscribed)
	assert.False(t, got.IsFavorited)
	assert.False(t, got.IsInShoppingCart)

	require.Len(t, got.Tags, 2)
	assert.Equal(t, "quick", got.Tags[0].Slug, "tags keep request order")
	assert.Equal(t, "breakfast", got.Tags[1].Slug)

	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, types.RecipeIngredientResponse{ID: milk.ID, Name: "milk", MeasurementUnit: "ml", Amount: 50}, got.Ingredients[0])
	assert.Equal(t, egg.ID, got.Ingredients[1].ID)

	require.True(t, strings.HasPrefix(got.Image, "/media/recipes/"))
	assert.True(t, strings.HasSuffix(got.Image, ".png"))
	data, err := os.ReadFile(filepath.Join(env.images.Dir(), strings.TrimPrefix(got.Image, "/media/")))
	require.NoError(t, err)
	assert.Equal(t, "not really a png", string(data))
}

func TestRecipeCreateRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)
	tag := testhelpers.CreateTag(t, env.db, "lunch")
	ing := testhelpers.CreateIngredient(t, env.db, "rice", "g")

	_, err := env.recipes.Create(context.Background(), service.Actor{},
		recipeRequest([]uint{tag.ID}, types.IngredientAmount{ID: ing.ID, Amount: 1}))
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestRecipeCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := testhelpers.CreateUser(t, env.db, "chef")
	tag := testhelpers.CreateTag(t, env.db, "dinner")
	ing := testhelpers.CreateIngredient(t, env.db, "beef", "g")
	valid := types.IngredientAmount{ID: ing.ID, Amount: 200}

	tests := []struct {
		name   string
		mutate func(r *types.RecipeWriteRequest)
		field  string
		msg    string
	}{
		{
			name:   "missing name",
			mutate: func(r *types.RecipeWriteRequest) { r.Name = nil },
			field:  "name",
			msg:    "this field is required",
		},
		{
			name:   "blank text",
			mutate: func(r *types.RecipeWriteRequest) { r.Text = ptr("   ") },
			field:  "text",
			msg:    "this field may not be blank",
		},
		{
			name:   "zero cooking time",
			mutate: func(r *types.RecipeWriteRequest) { r.CookingTime = ptr(0) },
			field:  "cooking_time",
			msg:    "cooking time must be at least 1 minute",
		},
		{
			name:   "cooking time above limit",
			mutate: func(r *types.RecipeWriteRequest) { r.CookingTime = ptr(32768) },
			field:  "cooking_time",
			msg:    "cooking time must be at most 32767 minutes",
		},
		{
			name:   "no tags",
			mutate: func(r *types.RecipeWriteRequest) { r.Tags = &[]uint{} },
			field:  "tags",
			msg:    "at least one tag is required",
		},
		{
			name:   "duplicate tag",
			mutate: func(r *types.RecipeWriteRequest) { r.Tags = &[]uint{tag.ID, tag.ID} },
			field:  "tags",
			msg:    "is listed more than once",
		},
		{
			name:   "unknown tag",
			mutate: func(r *types.RecipeWriteRequest) { r.Tags = &[]uint{999} },
			field:  "tags",
			msg:    "tag with id 999 does not exist",
		},
		{
			name:   "no ingredients",
			mutate: func(r *types.RecipeWriteRequest) { r.Ingredients = &[]types.IngredientAmount{} },
			field:  "ingredients",
			msg:    "at least one ingredient is required",
		},
		{
			name:   "duplicate ingredient",
			mutate: func(r *types.RecipeWriteRequest) { r.Ingredients = &[]types.IngredientAmount{valid, valid} },
			field:  "ingredients",
			msg:    "is listed more than once",
		},
		{
			name:   "unknown ingredient",
			mutate: func(r *types.RecipeWriteRequest) { r.Ingredients = &[]types.IngredientAmount{{ID: 777, Amount: 1}} },
			field:  "ingredients",
			msg:    "ingredient with id 777 does not exist",
		},
		{
			name:   "zero amount",
			mutate: func(r *types.RecipeWriteRequest) { r.Ingredients = &[]types.IngredientAmount{{ID: ing.ID, Amount: 0}} },
			field:  "amount",
			msg:    "amount must be at least 1",
		},
		{
			name:   "amount above limit",
			mutate: func(r *types.RecipeWriteRequest) { r.Ingredients = &[]types.IngredientAmount{{ID: ing.ID, Amount: 3000000000}} },
			field:  "amount",
			msg:    "amount must be at most 32767",
		},
		{
			name:   "bad image",
			mutate: func(r *types.RecipeWriteRequest) { r.Image = ptr("http://example.com/cat.png") },
			field:  "image",
			msg:    "invalid image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := recipeRequest([]uint{tag.ID}, valid)
			tt.mutate(req)

			_, err := env.recipes.Create(ctx, actorOf(author), req)
			require.Error(t, err)

			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			require.True(t, verr.Has(tt.field), "expected error on %s, got %v", tt.field, verr.Fields)
			assert.Contains(t, strings.Join(verr.Fields[tt.field], "\n"), tt.msg)
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count, "invalid payloads must not create recipes")
}

func TestRecipeCreateAcceptsQuantityBounds(t *testing.T) {
	env := newTestEnv(t)
	author := testhelpers.CreateUser(t, env.db, "chef")
	tag := testhelpers.CreateTag(t, env.db, "feast")
	ing := testhelpers.CreateIngredient(t, env.db, "rice", "g")

	req := recipeRequest([]uint{tag.ID}, types.IngredientAmount{ID: ing.ID, Amount: 32767})
	req.CookingTime = ptr(32767)
	got, err := env.recipes.Create(context.Background(), actorOf(author), req)
	require.NoError(t, err)
	assert.Equal(t, 32767, got.CookingTime)
	assert.Equal(t, 32767, got.Ingredients[0].Amount)

	req = recipeRequest([]uint{tag.ID}, types.IngredientAmount{ID: ing.ID, Amount: 1})
	req.CookingTime = ptr(1)
	_, err = env.recipes.Create(context.Background(), actorOf(author), req)
	assert.NoError(t, err)
}

func TestRecipeCreateReportsEveryField(t *testing.T) {
	env := newTestEnv(t)
	author := testhelpers.CreateUser(t, env.db, "chef")

	_, err := env.recipes.Create(context.Background(), actorOf(author), &types.RecipeWriteRequest{})
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"ingredients", "tags", "image", "name", "text", "cooking_time"} {
		assert.True(t, verr.Has(field), field)
	}
}

func TestRecipeUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, env.db, "chef")
	other := testhelpers.CreateUser(t, env.db, "other")
	admin := testhelpers.CreateAdmin(t, env.db, "admin")
	soup := testhelpers.CreateTag(t, env.db, "soup")
	vegan := testhelpers.CreateTag(t, env.db, "vegan")
	carrot := testhelpers.CreateIngredient(t, env.db, "carrot", "pcs")
	onion := testhelpers.CreateIngredient(t, env.db, "onion", "pcs")

	created, err := env.recipes.Create(ctx, actorOf(author),
		recipeRequest([]uint{soup.ID}, types.IngredientAmount{ID: carrot.ID, Amount: 2}))
	require.NoError(t, err)

	t.Run("partial update keeps absent fields", func(t *testing.T) {
		got, err := env.recipes.Update(ctx, actorOf(author), created.ID, &types.RecipeWriteRequest{
			Name: ptr("Carrot soup"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Carrot soup", got.Name)
		assert.Equal(t, created.Text, got.Text)
		assert.Equal(t, created.Image, got.Image)
		assert.Equal(t, created.Tags, got.Tags)
		assert.Equal(t, created.Ingredients, got.Ingredients)
	})

	t.Run("provided sets replace the current ones", func(t *testing.T) {
		got, err := env.recipes.Update(ctx, actorOf(author), created.ID, &types.RecipeWriteRequest{
			Tags:        &[]uint{vegan.ID},
			Ingredients: &[]types.IngredientAmount{{ID: onion.ID, Amount: 1}, {ID: carrot.ID, Amount: 4}},
		})
		require.NoError(t, err)
		require.Len(t, got.Tags, 1)
		assert.Equal(t, "vegan", got.Tags[0].Slug)
		require.Len(t, got.Ingredients, 2)
		assert.Equal(t, onion.ID, got.Ingredients[0].ID)
		assert.Equal(t, 4, got.Ingredients[1].Amount)
	})

	t.Run("new image replaces the old file", func(t *testing.T) {
		before, err := env.recipes.Get(ctx, actorOf(author), created.ID)
		require.NoError(t, err)

		got, err := env.recipes.Update(ctx, actorOf(author), created.ID, &types.RecipeWriteRequest{Image: ptr(pngURI)})
		require.NoError(t, err)
		assert.NotEqual(t, before.Image, got.Image)

		_, err = os.Stat(filepath.Join(env.images.Dir(), strings.TrimPrefix(before.Image, "/media/")))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("empty tag list is rejected", func(t *testing.T) {
		_, err := env.recipes.Update(ctx, actorOf(author), created.ID, &types.RecipeWriteRequest{Tags: &[]uint{}})
		var verr *service.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, verr.Has("tags"))
	})

	t.Run("other users are forbidden", func(t *testing.T) {
		_, err := env.recipes.Update(ctx, actorOf(other), created.ID, &types.RecipeWriteRequest{Name: ptr("Mine now")})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("anonymous is unauthenticated", func(t *testing.T) {
		_, err := env.recipes.Update(ctx, service.Actor{}, created.ID, &types.RecipeWriteRequest{Name: ptr("x")})
		assert.ErrorIs(t, err, service.ErrUnauthenticated)
	})

	t.Run("admins may edit any recipe", func(t *testing.T) {
		got, err := env.recipes.Update(ctx, service.Actor{UserID: admin.ID, Admin: true}, created.ID,
			&types.RecipeWriteRequest{CookingTime: ptr(45)})
		require.NoError(t, err)
		assert.Equal(t, 45, got.CookingTime)
		assert.Equal(t, author.ID, got.Author.ID)
	})

	t.Run("missing recipe", func(t *testing.T) {
		_, err := env.recipes.Update(ctx, actorOf(author), 9999, &types.RecipeWriteRequest{Name: ptr("x")})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestRecipeDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, env.db, "chef")
	fan := testhelpers.CreateUser(t, env.db, "fan")
	tag := testhelpers.CreateTag(t, env.db, "cake")
	flour := testhelpers.CreateIngredient(t, env.db, "flour", "g")

	created, err := env.recipes.Create(ctx, actorOf(author),
		recipeRequest([]uint{tag.ID}, types.IngredientAmount{ID: flour.ID, Amount: 500}))
	require.NoError(t, err)
	_, err = env.toggles.Add(ctx, actorOf(fan), service.Favorites, created.ID)
	require.NoError(t, err)
	_, err = env.toggles.Add(ctx, actorOf(fan), service.ShoppingCart, created.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.recipes.Delete(ctx, actorOf(fan), created.ID), service.ErrForbidden)

	require.NoError(t, env.recipes.Delete(ctx, actorOf(author), created.ID))

	_, err = env.recipes.Get(ctx, service.Actor{}, created.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	for _, model := range []interface{}{&models.RecipeTag{}, &models.RecipeIngredient{}, &models.Favorite{}, &models.ShoppingCart{}} {
		var n int64
		require.NoError(t, env.db.Model(model).Where("recipe_id = ?", created.ID).Count(&n).Error)
		assert.Zero(t, n, "%T rows left behind", model)
	}

	var ingredients int64
	require.NoError(t, env.db.Model(&models.Ingredient{}).Count(&ingredients).Error)
	assert.Equal(t, int64(1), ingredients, "catalog entries survive recipe deletion")

	assert.ErrorIs(t, env.recipes.Delete(ctx, actorOf(author), created.ID), service.ErrNotFound)
}

func TestRecipeGetFlags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, env.db, "chef")
	reader := testhelpers.CreateUser(t, env.db, "reader")
	recipe := testhelpers.CreateRecipe(t, env.db, author, testhelpers.RecipeFixture{})
	testhelpers.AddFavorite(t, env.db, reader, recipe)
	testhelpers.Follow(t, env.db, reader, author)

	got, err := env.recipes.Get(ctx, actorOf(reader), recipe.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFavorited)
	assert.False(t, got.IsInShoppingCart)
	assert.True(t, got.Author.IsSubscribed)

	anon, err := env.recipes.Get(ctx, service.Actor{}, recipe.ID)
	require.NoError(t, err)
	assert.False(t, anon.IsFavorited)
	assert.False(t, anon.Author.IsSubscribed)

	own, err := env.recipes.Get(ctx, actorOf(author), recipe.ID)
	require.NoError(t, err)
	assert.False(t, own.IsFavorited, "flags belong to the requesting user")
}

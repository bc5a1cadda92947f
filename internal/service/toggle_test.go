package service_test

import (
	"context"
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggle(t *testing.T) {
	for _, kind := range []service.ToggleKind{service.Favorites, service.ShoppingCart} {
		t.Run(kind.String(), func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			author := testhelpers.CreateUser(t, env.db, "chef")
			user := testhelpers.CreateUser(t, env.db, "eater")
			recipe := testhelpers.CreateRecipe(t, env.db, author, testhelpers.RecipeFixture{Name: "pie"})

			short, err := env.toggles.Add(ctx, actorOf(user), kind, recipe.ID)
			require.NoError(t, err)
			assert.Equal(t, recipe.ID, short.ID)
			assert.Equal(t, "pie", short.Name)
			assert.Equal(t, recipe.Image, short.Image)
			assert.Equal(t, recipe.CookingTime, short.CookingTime)

			_, err = env.toggles.Add(ctx, actorOf(user), kind, recipe.ID)
			assert.ErrorIs(t, err, service.ErrAlreadyExists)

			_, err = env.toggles.Add(ctx, actorOf(user), kind, 4242)
			assert.ErrorIs(t, err, service.ErrNotFound)

			_, err = env.toggles.Add(ctx, service.Actor{}, kind, recipe.ID)
			assert.ErrorIs(t, err, service.ErrUnauthenticated)

			require.NoError(t, env.toggles.Remove(ctx, actorOf(user), kind, recipe.ID))
			assert.ErrorIs(t, env.toggles.Remove(ctx, actorOf(user), kind, recipe.ID), service.ErrNotFound)
		})
	}
}

func TestToggleListsAreIndependent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := testhelpers.CreateUser(t, env.db, "chef")
	user := testhelpers.CreateUser(t, env.db, "eater")
	recipe := testhelpers.CreateRecipe(t, env.db, author, testhelpers.RecipeFixture{})

	_, err := env.toggles.Add(ctx, actorOf(user), service.Favorites, recipe.ID)
	require.NoError(t, err)
	_, err = env.toggles.Add(ctx, actorOf(user), service.ShoppingCart, recipe.ID)
	require.NoError(t, err, "a favorite does not block the cart")

	require.NoError(t, env.toggles.Remove(ctx, actorOf(user), service.Favorites, recipe.ID))

	var carts int64
	require.NoError(t, env.db.Model(&models.ShoppingCart{}).Count(&carts).Error)
	assert.Equal(t, int64(1), carts)
}

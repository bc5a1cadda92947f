package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestRegisterUser(t *testing.T) {
	a := newTestAPI(t)
	body := gin.H{
		"email":      "vasya@example.com",
		"username":   "vasya.pupkin",
		"first_name": "Vasya",
		"last_name":  "Pupkin",
		"password":   "Qwerty123!",
	}

	w := a.do(http.MethodPost, "/api/users/", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	got := decode[map[string]interface{}](t, w)
	assert.Equal(t, "vasya.pupkin", got["username"])
	assert.NotContains(t, got, "password")

	w = a.do(http.MethodPost, "/api/users/", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bad := gin.H{"email": "not-an-email", "username": "bad name!", "password": "short"}
	w = a.do(http.MethodPost, "/api/users/", "", bad)
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode[map[string][]string](t, w)
	for _, f := range []string{"email", "username", "first_name", "last_name", "password"} {
		assert.Contains(t, fields, f)
	}
}

func TestUserEndpoints(t *testing.T) {
	a := newTestAPI(t)
	alice := testhelpers.CreateUser(t, a.db, "alice")
	bob := testhelpers.CreateUser(t, a.db, "bob")

	w := a.do(http.MethodGet, "/api/users/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[page[types.UserResponse]](t, w)
	assert.Equal(t, int64(2), p.Count)

	w = a.do(http.MethodGet, "/api/users/me/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/users/me/", a.token(alice), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, alice.ID, decode[types.UserResponse](t, w).ID)

	w = a.do(http.MethodGet, fmt.Sprintf("/api/users/%d/", bob.ID), a.token(alice), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob", decode[types.UserResponse](t, w).Username)

	w = a.do(http.MethodPost, "/api/users/set_password/", "", gin.H{"new_password": "another-pass", "current_password": testhelpers.TestPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/users/set_password/", a.token(alice), gin.H{"new_password": "another-pass", "current_password": "nope"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string][]string](t, w), "current_password")

	w = a.do(http.MethodPost, "/api/users/set_password/", a.token(alice), gin.H{"new_password": "another-pass", "current_password": testhelpers.TestPassword})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSubscriptionEndpoints(t *testing.T) {
	a := newTestAPI(t)
	reader := testhelpers.CreateUser(t, a.db, "reader")
	author := testhelpers.CreateUser(t, a.db, "author")
	for i := 0; i < 3; i++ {
		testhelpers.CreateRecipe(t, a.db, author, testhelpers.RecipeFixture{Name: fmt.Sprintf("r%d", i)})
	}
	path := fmt.Sprintf("/api/users/%d/subscribe/", author.ID)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, path, "", nil).Code)

	w := a.do(http.MethodPost, path+"?recipes_limit=1", a.token(reader), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sub := decode[types.SubscriptionResponse](t, w)
	assert.True(t, sub.IsSubscribed)
	assert.Equal(t, int64(3), sub.RecipesCount)
	assert.Len(t, sub.Recipes, 1)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, path, a.token(reader), nil).Code)

	self := fmt.Sprintf("/api/users/%d/subscribe/", reader.ID)
	w = a.do(http.MethodPost, self, a.token(reader), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/api/users/subscriptions/?recipes_limit=2", a.token(reader), nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[page[types.SubscriptionResponse]](t, w)
	require.Equal(t, int64(1), p.Count)
	assert.Equal(t, "author", p.Results[0].Username)
	assert.Len(t, p.Results[0].Recipes, 2)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/users/subscriptions/?recipes_limit=x", a.token(reader), nil).Code)

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, path, a.token(reader), nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, path, a.token(reader), nil).Code)
}

package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationFor(t *testing.T) {
	assert.Equal(t, Anyone, RelationFor(0, false, 5))
	assert.Equal(t, Anyone, RelationFor(0, true, 5))
	assert.Equal(t, Authenticated, RelationFor(3, false, 5))
	assert.Equal(t, Authenticated, RelationFor(3, false, 0))
	assert.Equal(t, Owner, RelationFor(5, false, 5))
	assert.Equal(t, Admin, RelationFor(3, true, 5))
}

func TestEmbeddedPolicy(t *testing.T) {
	e, err := NewEnforcer("")
	require.NoError(t, err)

	tests := []struct {
		rel  Relation
		res  Resource
		op   Operation
		want bool
	}{
		{Anyone, Recipe, List, true},
		{Anyone, Recipe, Retrieve, true},
		{Anyone, Recipe, Create, false},
		{Anyone, Recipe, Favorite, false},
		{Authenticated, Recipe, Create, true},
		{Authenticated, Recipe, Favorite, true},
		{Authenticated, Recipe, ShoppingCart, true},
		{Authenticated, Recipe, DownloadShoppingCart, true},
		{Authenticated, Recipe, Update, false},
		{Authenticated, Recipe, Delete, false},
		{Owner, Recipe, Update, true},
		{Owner, Recipe, Delete, true},
		{Owner, Recipe, List, true},
		{Admin, Recipe, Update, true},
		{Admin, Recipe, Delete, true},
		{Anyone, Tag, List, true},
		{Anyone, Ingredient, Retrieve, true},
		{Anyone, User, Create, true},
		{Anyone, User, Retrieve, false},
		{Anyone, User, Me, false},
		{Authenticated, User, Subscribe, true},
		{Anyone, Token, Login, true},
		{Anyone, Token, Logout, false},
		{Admin, Token, Logout, true},
		{Admin, Recipe, "publish", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.rel)+"/"+string(tt.res)+"/"+string(tt.op), func(t *testing.T) {
			got, err := e.Allowed(tt.rel, tt.res, tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequired(t *testing.T) {
	e := MustNewEnforcer()

	rel, ok := e.Required(Recipe, Update)
	assert.True(t, ok)
	assert.Equal(t, Owner, rel)

	rel, ok = e.Required(Recipe, List)
	assert.True(t, ok)
	assert.Equal(t, Anyone, rel)

	_, ok = e.Required(Recipe, "publish")
	assert.False(t, ok)
}

func TestCustomPolicy(t *testing.T) {
	e, err := NewEnforcer("p, admin, recipe, delete\n")
	require.NoError(t, err)

	ok, err := e.Allowed(Owner, Recipe, Delete)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.Allowed(Admin, Recipe, Delete)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMalformedPolicy(t *testing.T) {
	_, err := NewEnforcer("p, admin\n")
	assert.Error(t, err)
}

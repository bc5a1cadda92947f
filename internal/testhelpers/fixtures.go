package testhelpers

import (
	"fmt"
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TestPassword is the password of every user created by CreateUser.
const TestPassword = "s3cret-pass"

var passwordHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "First " + username,
		LastName:     "Last " + username,
		PasswordHash: passwordHash,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return u
}

// CreateAdmin creates a member of the recipes_admins group.
func CreateAdmin(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := CreateUser(t, db, username)
	g := models.Group{Name: models.RecipeAdminsGroup}
	if err := db.Where(models.Group{Name: g.Name}).FirstOrCreate(&g).Error; err != nil {
		t.Fatalf("failed to create group: %v", err)
	}
	if err := db.Model(u).Association("Groups").Append(&g); err != nil {
		t.Fatalf("failed to add admin: %v", err)
	}
	return u
}

func CreateTag(t *testing.T, db *gorm.DB, slug string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: "Tag " + slug, Color: "#E26C2D", Slug: slug}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag %s: %v", slug, err)
	}
	return tag
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	return ing
}

// RecipeFixture describes a recipe to insert directly, bypassing services.
type RecipeFixture struct {
	Name        string
	Tags        []*models.Tag
	Ingredients map[*models.Ingredient]int
}

func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, f RecipeFixture) *models.Recipe {
	t.Helper()
	if f.Name == "" {
		f.Name = fmt.Sprintf("recipe by %s", author.Username)
	}
	r := &models.Recipe{
		AuthorID:    author.ID,
		Name:        f.Name,
		Text:        "Mix and cook.",
		Image:       "/media/recipes/fixture.png",
		CookingTime: 10,
	}
	if err := db.Omit(clause.Associations).Create(r).Error; err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}
	for _, tag := range f.Tags {
		if err := db.Omit(clause.Associations).Create(&models.RecipeTag{RecipeID: r.ID, TagID: tag.ID}).Error; err != nil {
			t.Fatalf("failed to tag recipe: %v", err)
		}
	}
	for ing, amount := range f.Ingredients {
		link := &models.RecipeIngredient{RecipeID: r.ID, IngredientID: ing.ID, Amount: amount}
		if err := db.Omit(clause.Associations).Create(link).Error; err != nil {
			t.Fatalf("failed to add ingredient: %v", err)
		}
	}
	return r
}

func AddFavorite(t *testing.T, db *gorm.DB, user *models.User, recipe *models.Recipe) {
	t.Helper()
	if err := db.Omit(clause.Associations).Create(&models.Favorite{UserID: user.ID, RecipeID: recipe.ID}).Error; err != nil {
		t.Fatalf("failed to add favorite: %v", err)
	}
}

func AddToCart(t *testing.T, db *gorm.DB, user *models.User, recipe *models.Recipe) {
	t.Helper()
	if err := db.Omit(clause.Associations).Create(&models.ShoppingCart{UserID: user.ID, RecipeID: recipe.ID}).Error; err != nil {
		t.Fatalf("failed to add to cart: %v", err)
	}
}

func Follow(t *testing.T, db *gorm.DB, follower, followed *models.User) {
	t.Helper()
	if err := db.Omit(clause.Associations).Create(&models.Follow{FollowerID: follower.ID, FollowedID: followed.ID}).Error; err != nil {
		t.Fatalf("failed to follow: %v", err)
	}
}

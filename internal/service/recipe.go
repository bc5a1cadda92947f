package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxRecipeName = 256
	// maxQuantity bounds cooking_time and amount, matching a postgres
	// SMALLINT so oversized values fail validation instead of the insert.
	maxQuantity = 32767
)

type RecipeService struct {
	db     *gorm.DB
	authz  *authz.Enforcer
	images storage.Store
}

func NewRecipeService(db *gorm.DB, enforcer *authz.Enforcer, images storage.Store) *RecipeService {
	return &RecipeService{db: db, authz: enforcer, images: images}
}

// recipeChanges is a validated write request. Nil fields stay unchanged.
type recipeChanges struct {
	name        *string
	text        *string
	cookingTime *int
	image       *storage.Image
	tagIDs      []uint
	ingredients []types.IngredientAmount
}

// Create validates req and stores the recipe with its tags and ingredients
// in one transaction.
func (s *RecipeService) Create(ctx context.Context, actor Actor, req *types.RecipeWriteRequest) (*types.RecipeResponse, error) {
	if err := authorize(s.authz, actor, authz.Recipe, authz.Create, 0); err != nil {
		return nil, err
	}

	changes, err := s.validate(ctx, req, true)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.images.Save(ctx, changes.image)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    actor.UserID,
		Name:        *changes.name,
		Text:        *changes.text,
		Image:       imageURL,
		CookingTime: *changes.cookingTime,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, recipe.ID, changes.tagIDs); err != nil {
			return err
		}
		return replaceIngredients(tx, recipe.ID, changes.ingredients)
	})
	if err != nil {
		s.discardImage(ctx, imageURL)
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	logging.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Uint("author_id", actor.UserID).Msg("recipe created")
	return s.Get(ctx, actor, recipe.ID)
}

// Update applies the fields present in req. Provided tag and ingredient
// lists replace the current sets; absent ones are kept.
func (s *RecipeService) Update(ctx context.Context, actor Actor, id uint, req *types.RecipeWriteRequest) (*types.RecipeResponse, error) {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(s.authz, actor, authz.Recipe, authz.Update, recipe.AuthorID); err != nil {
		return nil, err
	}

	changes, err := s.validate(ctx, req, false)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if changes.name != nil {
		updates["name"] = *changes.name
	}
	if changes.text != nil {
		updates["text"] = *changes.text
	}
	if changes.cookingTime != nil {
		updates["cooking_time"] = *changes.cookingTime
	}

	var newImage string
	if changes.image != nil {
		if newImage, err = s.images.Save(ctx, changes.image); err != nil {
			return nil, err
		}
		updates["image"] = newImage
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Recipe{ID: id}).Updates(updates).Error; err != nil {
				return err
			}
		}
		if changes.tagIDs != nil {
			if err := replaceTags(tx, id, changes.tagIDs); err != nil {
				return err
			}
		}
		if changes.ingredients != nil {
			if err := replaceIngredients(tx, id, changes.ingredients); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if newImage != "" {
			s.discardImage(ctx, newImage)
		}
		return nil, fmt.Errorf("failed to update recipe %d: %w", id, err)
	}

	if newImage != "" {
		s.discardImage(ctx, recipe.Image)
	}
	return s.Get(ctx, actor, id)
}

// Delete removes the recipe and every row that references it.
func (s *RecipeService) Delete(ctx context.Context, actor Actor, id uint) error {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(s.authz, actor, authz.Recipe, authz.Delete, recipe.AuthorID); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.RecipeTag{}, &models.RecipeIngredient{}, &models.Favorite{}, &models.ShoppingCart{}} {
			if err := tx.Where("recipe_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Recipe{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete recipe %d: %w", id, err)
	}

	s.discardImage(ctx, recipe.Image)
	return nil
}

// Get returns one recipe rendered for actor.
func (s *RecipeService) Get(ctx context.Context, actor Actor, id uint) (*types.RecipeResponse, error) {
	if err := authorize(s.authz, actor, authz.Recipe, authz.Retrieve, 0); err != nil {
		return nil, err
	}

	var recipe models.Recipe
	if err := withDetails(s.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}

	views, err := s.render(ctx, actor, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns a page of recipes matching filter, newest first.
func (s *RecipeService) List(ctx context.Context, actor Actor, filter types.RecipeFilter, page types.PageRequest) (*types.Page[types.RecipeResponse], error) {
	if err := authorize(s.authz, actor, authz.Recipe, authz.List, 0); err != nil {
		return nil, err
	}

	var total int64
	if err := s.filtered(ctx, actor, filter).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	q := withDetails(s.filtered(ctx, actor, filter)).Order("recipes.created_at DESC, recipes.id DESC")
	if err := paginate(q, page).Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	views, err := s.render(ctx, actor, recipes)
	if err != nil {
		return nil, err
	}
	return &types.Page[types.RecipeResponse]{Items: views, Total: total}, nil
}

func (s *RecipeService) load(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	return &recipe, nil
}

func (s *RecipeService) discardImage(ctx context.Context, url string) {
	if err := s.images.Delete(ctx, url); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("image", url).Msg("failed to remove image")
	}
}

// validate checks req. On create every field is required.
func (s *RecipeService) validate(ctx context.Context, req *types.RecipeWriteRequest, create bool) (*recipeChanges, error) {
	verr := &ValidationError{}
	changes := &recipeChanges{}
	missing := func(field string, present bool) bool {
		if !present && create {
			verr.Add(field, "this field is required")
		}
		return present
	}

	if missing("cooking_time", req.CookingTime != nil) {
		switch {
		case *req.CookingTime < 1:
			verr.Add("cooking_time", "cooking time must be at least 1 minute")
		case *req.CookingTime > maxQuantity:
			verr.Add("cooking_time", "cooking time must be at most %d minutes", maxQuantity)
		}
		changes.cookingTime = req.CookingTime
	}

	if missing("tags", req.Tags != nil) {
		if err := s.checkTags(ctx, *req.Tags, verr); err != nil {
			return nil, err
		}
		changes.tagIDs = append([]uint{}, *req.Tags...)
	}

	if missing("ingredients", req.Ingredients != nil) {
		if err := s.checkIngredients(ctx, *req.Ingredients, verr); err != nil {
			return nil, err
		}
		changes.ingredients = append([]types.IngredientAmount{}, *req.Ingredients...)
	}

	if missing("name", req.Name != nil) {
		name := strings.TrimSpace(*req.Name)
		switch {
		case name == "":
			verr.Add("name", "this field may not be blank")
		case utf8.RuneCountInString(name) > maxRecipeName:
			verr.Add("name", "ensure this field has no more than %d characters", maxRecipeName)
		}
		changes.name = &name
	}

	if missing("text", req.Text != nil) {
		if strings.TrimSpace(*req.Text) == "" {
			verr.Add("text", "this field may not be blank")
		}
		changes.text = req.Text
	}

	if missing("image", req.Image != nil) {
		img, err := storage.DecodeDataURI(*req.Image)
		if err != nil {
			verr.Add("image", "%s", err.Error())
		}
		changes.image = img
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}

func (s *RecipeService) checkTags(ctx context.Context, ids []uint, verr *ValidationError) error {
	if len(ids) == 0 {
		verr.Add("tags", "at least one tag is required")
		return nil
	}

	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			verr.Add("tags", "tag %d is listed more than once", id)
		}
		seen[id] = true
	}

	var found []uint
	if err := s.db.WithContext(ctx).Model(&models.Tag{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("failed to resolve tags: %w", err)
	}
	for _, id := range missingIDs(ids, found) {
		verr.Add("tags", "tag with id %d does not exist", id)
	}
	return nil
}

func (s *RecipeService) checkIngredients(ctx context.Context, items []types.IngredientAmount, verr *ValidationError) error {
	if len(items) == 0 {
		verr.Add("ingredients", "at least one ingredient is required")
		return nil
	}

	ids := make([]uint, len(items))
	seen := make(map[uint]bool, len(items))
	for i, item := range items {
		ids[i] = item.ID
		if seen[item.ID] {
			verr.Add("ingredients", "ingredient %d is listed more than once", item.ID)
		}
		seen[item.ID] = true
		switch {
		case item.Amount < 1:
			verr.Add("amount", "ingredient %d: amount must be at least 1", item.ID)
		case item.Amount > maxQuantity:
			verr.Add("amount", "ingredient %d: amount must be at most %d", item.ID, maxQuantity)
		}
	}

	var found []uint
	if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("failed to resolve ingredients: %w", err)
	}
	for _, id := range missingIDs(ids, found) {
		verr.Add("ingredients", "ingredient with id %d does not exist", id)
	}
	return nil
}

// missingIDs returns the distinct ids in want that are absent from found,
// in request order.
func missingIDs(want, found []uint) []uint {
	have := make(map[uint]bool, len(found))
	for _, id := range found {
		have[id] = true
	}
	var out []uint
	for _, id := range want {
		if !have[id] {
			out = append(out, id)
			have[id] = true
		}
	}
	return out
}

// replaceTags makes tagIDs the full tag set of the recipe.
func replaceTags(tx *gorm.DB, recipeID uint, tagIDs []uint) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	links := make([]models.RecipeTag, len(tagIDs))
	for i, id := range tagIDs {
		links[i] = models.RecipeTag{RecipeID: recipeID, TagID: id}
	}
	if err := tx.Omit(clause.Associations).Create(&links).Error; err != nil {
		return fmt.Errorf("failed to link tags: %w", err)
	}
	return nil
}

// replaceIngredients makes items the full ingredient set of the recipe.
func replaceIngredients(tx *gorm.DB, recipeID uint, items []types.IngredientAmount) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return fmt.Errorf("failed to clear ingredients: %w", err)
	}
	links := make([]models.RecipeIngredient, len(items))
	for i, item := range items {
		links[i] = models.RecipeIngredient{RecipeID: recipeID, IngredientID: item.ID, Amount: item.Amount}
	}
	if err := tx.Omit(clause.Associations).Create(&links).Error; err != nil {
		return fmt.Errorf("failed to link ingredients: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogService serves the read-only tag and ingredient dictionaries.
type CatalogService struct {
	db    *gorm.DB
	authz *authz.Enforcer
}

func NewCatalogService(db *gorm.DB, enforcer *authz.Enforcer) *CatalogService {
	return &CatalogService{db: db, authz: enforcer}
}

func (s *CatalogService) ListTags(ctx context.Context, actor Actor) ([]types.TagResponse, error) {
	if err := authorize(s.authz, actor, authz.Tag, authz.List, 0); err != nil {
		return nil, err
	}
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	out := make([]types.TagResponse, len(tags))
	for i := range tags {
		out[i] = tagResponse(&tags[i])
	}
	return out, nil
}

func (s *CatalogService) GetTag(ctx context.Context, actor Actor, id uint) (*types.TagResponse, error) {
	if err := authorize(s.authz, actor, authz.Tag, authz.Retrieve, 0); err != nil {
		return nil, err
	}
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tag %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load tag: %w", err)
	}
	resp := tagResponse(&tag)
	return &resp, nil
}

// ListIngredients returns ingredients whose name starts with prefix, case
// insensitively. An empty prefix returns all of them.
func (s *CatalogService) ListIngredients(ctx context.Context, actor Actor, prefix string) ([]types.IngredientResponse, error) {
	if err := authorize(s.authz, actor, authz.Ingredient, authz.List, 0); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Order("name ASC")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, escapeLike(strings.ToLower(prefix))+"%")
	}

	var ingredients []models.Ingredient
	if err := q.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	out := make([]types.IngredientResponse, len(ingredients))
	for i := range ingredients {
		out[i] = ingredientResponse(&ingredients[i])
	}
	return out, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, actor Actor, id uint) (*types.IngredientResponse, error) {
	if err := authorize(s.authz, actor, authz.Ingredient, authz.Retrieve, 0); err != nil {
		return nil, err
	}
	var ing models.Ingredient
	if err := s.db.WithContext(ctx).First(&ing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("ingredient %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load ingredient: %w", err)
	}
	resp := ingredientResponse(&ing)
	return &resp, nil
}

// ImportIngredients inserts ingredients, skipping names that already exist.
// It returns the number of rows inserted.
func (s *CatalogService) ImportIngredients(ctx context.Context, items []models.Ingredient) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		CreateInBatches(&items, 500)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to import ingredients: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ImportTags inserts tags, skipping slugs that already exist.
func (s *CatalogService) ImportTags(ctx context.Context, tags []models.Tag) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
		Create(&tags)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to import tags: %w", res.Error)
	}
	return res.RowsAffected, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func tagResponse(t *models.Tag) types.TagResponse {
	return types.TagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func ingredientResponse(i *models.Ingredient) types.IngredientResponse {
	return types.IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
)

type ingredientRecord struct {
	Name            string `json:"name" binding:"required,max=150"`
	MeasurementUnit string `json:"measurement_unit" binding:"required,max=10"`
}

type tagRecord struct {
	Name  string `json:"name" binding:"required,max=256"`
	Color string `json:"color" binding:"required,hexcolor,len=7"`
	Slug  string `json:"slug" binding:"required,max=200,slug"`
}

var (
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

// newValidator reads the same binding tags the HTTP layer uses.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// readRecords decodes a JSON array and validates every element.
func readRecords[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	v := newValidator()
	for i := range records {
		if err := v.Struct(&records[i]); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return records, nil
}

func newLoadIngredientsCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "load-ingredients <file.json>",
		Short: "Import ingredients from a JSON array of {name, measurement_unit}",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRecords[ingredientRecord](args[0])
			if err != nil {
				return err
			}
			db, err := e.db()
			if err != nil {
				return err
			}

			items := make([]models.Ingredient, len(records))
			for i, r := range records {
				items[i] = models.Ingredient{Name: r.Name, MeasurementUnit: r.MeasurementUnit}
			}
			n, err := service.NewCatalogService(db, authz.MustNewEnforcer()).ImportIngredients(cmd.Context(), items)
			if err != nil {
				return err
			}
			cmd.Printf("imported %d of %d ingredients\n", n, len(items))
			return nil
		},
	}
}

func newLoadTagsCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "load-tags <file.json>",
		Short: "Import tags from a JSON array of {name, color, slug}",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRecords[tagRecord](args[0])
			if err != nil {
				return err
			}
			db, err := e.db()
			if err != nil {
				return err
			}

			tags := make([]models.Tag, len(records))
			for i, r := range records {
				tags[i] = models.Tag{Name: r.Name, Color: r.Color, Slug: r.Slug}
			}
			n, err := service.NewCatalogService(db, authz.MustNewEnforcer()).ImportTags(cmd.Context(), tags)
			if err != nil {
				return err
			}
			cmd.Printf("imported %d of %d tags\n", n, len(tags))
			return nil
		},
	}
}

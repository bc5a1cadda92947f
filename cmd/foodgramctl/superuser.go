package main

import (
	"github.com/spf13/cobra"

	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

func newCreateSuperuserCommand(e *env) *cobra.Command {
	var (
		req          types.RegisterRequest
		recipesAdmin bool
	)

	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create a user with full administrative rights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.FirstName == "" {
				req.FirstName = req.Username
			}
			if req.LastName == "" {
				req.LastName = req.Username
			}
			if err := newValidator().Struct(&req); err != nil {
				return err
			}

			db, err := e.db()
			if err != nil {
				return err
			}
			users := service.NewUserService(db, authz.MustNewEnforcer())
			user, err := users.CreateSuperuser(cmd.Context(), &req)
			if err != nil {
				return err
			}
			if recipesAdmin {
				if err := users.AddToGroup(cmd.Context(), user.ID, models.RecipeAdminsGroup); err != nil {
					return err
				}
			}
			cmd.Printf("created superuser %s (id %d)\n", user.Username, user.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Email, "email", "", "Email address used to log in")
	f.StringVar(&req.Username, "username", "", "Username")
	f.StringVar(&req.Password, "password", "", "Password")
	f.StringVar(&req.FirstName, "first-name", "", "First name (defaults to the username)")
	f.StringVar(&req.LastName, "last-name", "", "Last name (defaults to the username)")
	f.BoolVar(&recipesAdmin, "recipes-admin", false, "Also add the user to the recipes_admins group")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

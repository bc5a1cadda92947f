package main

import (
	"github.com/spf13/cobra"

	"github.com/pageza/foodgram/backend/internal/database"
)

func newMigrateCommand(e *env) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back SQL migrations",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "migrations", "Directory holding the migration files")

	migrator := func() (*database.Migrator, func(), error) {
		cfg, err := e.config()
		if err != nil {
			return nil, nil, err
		}
		db, err := e.openSQL(cfg)
		if err != nil {
			return nil, nil, err
		}
		return database.NewMigrator(db, dir), func() { _ = db.Close() }, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, done, err := migrator()
			if err != nil {
				return err
			}
			defer done()

			applied, err := m.Up(cmd.Context())
			for _, name := range applied {
				cmd.Printf("applied %s\n", name)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				cmd.Println("schema is up to date")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, done, err := migrator()
			if err != nil {
				return err
			}
			defer done()

			name, err := m.Down(cmd.Context())
			if err != nil {
				return err
			}
			if name == "" {
				cmd.Println("nothing to roll back")
				return nil
			}
			cmd.Printf("rolled back %s\n", name)
			return nil
		},
	})

	return cmd
}

package main

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
)

// env holds the connections a command needs, replaceable in tests.
type env struct {
	loadConfig func() (*config.Config, error)
	openDB     func(*config.Config) (*gorm.DB, error)
	openSQL    func(*config.Config) (*sql.DB, error)
}

func defaultEnv() *env {
	return &env{
		loadConfig: config.LoadConfig,
		openDB:     database.New,
		openSQL: func(cfg *config.Config) (*sql.DB, error) {
			db, err := sql.Open("postgres", cfg.DatabaseURL())
			if err != nil {
				return nil, fmt.Errorf("failed to connect to database: %w", err)
			}
			return db, nil
		},
	}
}

func (e *env) config() (*config.Config, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console"})
	return cfg, nil
}

func (e *env) db() (*gorm.DB, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	return e.openDB(cfg)
}

func newRootCommand(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "foodgramctl",
		Short:         "Foodgram administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCommand(e),
		newLoadIngredientsCommand(e),
		newLoadTagsCommand(e),
		newCreateSuperuserCommand(e),
	)
	return root
}

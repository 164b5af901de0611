package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"techhive/internal/infrastructure/config"
	"techhive/internal/infrastructure/database"
	"techhive/internal/infrastructure/migration"
	"techhive/internal/infrastructure/persistence/seeds"
	"techhive/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  `Run database migrations using versioned SQL scripts.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(newUpCommand())
	cmd.AddCommand(newDownCommand())
	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newCreateCommand())
	cmd.AddCommand(newSeedCommand())

	return cmd
}

func initEnv() (*config.Config, error) {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return cfg, nil
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := initEnv(); err != nil {
				return err
			}
			defer database.Close()

			manager := migration.NewManager(env)
			if err := manager.Migrate(database.Get()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			logger.Info("migrations applied successfully")
			return nil
		},
	}
}

func newDownCommand() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := initEnv(); err != nil {
				return err
			}
			defer database.Close()

			strategy, err := scriptStrategy()
			if err != nil {
				return err
			}

			if err := strategy.MigrateDown(database.Get(), steps); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}

			logger.Info("rollback completed", "steps", steps)
			return nil
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "s", 1, "Number of migrations to roll back")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := initEnv(); err != nil {
				return err
			}
			defer database.Close()

			strategy, err := scriptStrategy()
			if err != nil {
				return err
			}

			version, dirty, err := strategy.GetVersion(database.Get())
			if err != nil {
				return fmt.Errorf("failed to get migration version: %w", err)
			}

			fmt.Printf("version: %s\ndirty: %s\n", strconv.FormatUint(uint64(version), 10), strconv.FormatBool(dirty))
			return nil
		},
	}
}

func newCreateCommand() *cobra.Command {
	var billing bool

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new migration script pair",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scriptsPath, err := filepath.Abs("./internal/infrastructure/migration/scripts")
			if err != nil {
				return fmt.Errorf("failed to resolve scripts path: %w", err)
			}

			generator := migration.NewGenerator(scriptsPath)

			if billing {
				if err := generator.CreateBillingTablesMigration(); err != nil {
					return fmt.Errorf("failed to create billing migration: %w", err)
				}
				fmt.Println("billing tables migration created")
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("migration name is required")
			}

			if err := generator.CreateMigration(args[0]); err != nil {
				return fmt.Errorf("failed to create migration: %w", err)
			}

			fmt.Printf("migration %q created\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&billing, "billing", false, "Generate the initial billing tables migration")
	return cmd
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed default subscription plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := initEnv(); err != nil {
				return err
			}
			defer database.Close()

			if err := seeds.SeedPlans(database.Get()); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}

			logger.Info("plans seeded successfully")
			return nil
		},
	}
}

func scriptStrategy() (*migration.GolangMigrateStrategy, error) {
	scriptsPath, err := filepath.Abs("./internal/infrastructure/migration/scripts")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scripts path: %w", err)
	}
	return migration.NewGolangMigrateStrategy(scriptsPath), nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	gormlogger "gorm.io/gorm/logger"

	"doubtit/support-api/internal/config"
	"doubtit/support-api/internal/infrastructure/database"
	repo "doubtit/support-api/internal/infrastructure/repository/conversation"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Conversation store management",
}

var storeInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the schema for the configured STORE_BACKEND",
	Long: `For dynamo, creates the table with its status and thread indexes when missing.
For postgres, creates the database if needed and migrates the tables.`,
	RunE: runStoreInit,
}

func init() {
	storeCmd.AddCommand(storeInitCmd)
}

func runStoreInit(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	switch cfg.StoreBackend {
	case config.StoreBackendDynamo:
		client, err := repo.NewDynamoClient(ctx, cfg)
		if err != nil {
			return err
		}
		created, err := repo.EnsureDynamoTable(ctx, client, repo.DynamoTables{
			Table:       cfg.DynamoTable,
			StatusIndex: cfg.DynamoStatusIndex,
			ThreadIndex: cfg.DynamoThreadIndex,
		})
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "created table %s\n", cfg.DynamoTable)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "table %s already exists\n", cfg.DynamoTable)
		}
		return nil
	case config.StoreBackendPostgres:
		db, err := database.Connect(ctx, database.Config{
			DSN:             cfg.DatabaseURL,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			ConnMaxLifetime: cfg.DBConnLifetime,
			LogLevel:        gormlogger.Warn,
		})
		if err != nil {
			return err
		}
		return database.AutoMigrate(ctx, db, log)
	default:
		return fmt.Errorf("store backend %q has no schema to initialize", cfg.StoreBackend)
	}
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"chitchat/config"
	"chitchat/pkg/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	cfg    *config.Config
	gormDB *gorm.DB
	sqlDB  *sql.DB
)

var rootCmd = &cobra.Command{
	Use:   "migrate <command>",
	Short: "ChitChat database CLI",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadConfig()
		var err error
		gormDB, err = database.Connect(cfg)
		if err != nil {
			return err
		}
		sqlDB, err = gormDB.DB()
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	},
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.MigrateUp(sqlDB); err != nil {
			return err
		}
		fmt.Println("migrations applied")
		return nil
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		if err := database.MigrateDown(sqlDB, steps); err != nil {
			return err
		}
		fmt.Printf("rolled back %d migration(s)\n", steps)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied migration version",
	RunE: func(cmd *cobra.Command, args []string) error {
		version, dirty, err := database.MigrationVersion(sqlDB)
		if err != nil {
			return err
		}
		fmt.Printf("database %s at version %d (dirty: %v)\n", cfg.DBName, version, dirty)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with development data",
	RunE: func(cmd *cobra.Command, args []string) error {
		seedCfg := database.DefaultSeedConfig()
		seedCfg.UserCount, _ = cmd.Flags().GetInt("users")
		seedCfg.PostsPerUser, _ = cmd.Flags().GetInt("posts")

		res, err := database.Seed(context.Background(), gormDB, seedCfg)
		if err != nil {
			return err
		}
		for _, u := range res.Users {
			fmt.Printf("user %s  %s\n", u.ID, u.Email)
		}
		fmt.Printf("chat %s\n", res.Chat.ID)
		return nil
	},
}

func init() {
	downCmd.Flags().Int("steps", 1, "number of migrations to roll back")
	seedCmd.Flags().Int("users", 5, "number of users to create")
	seedCmd.Flags().Int("posts", 2, "posts per user")

	rootCmd.AddCommand(upCmd, downCmd, statusCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

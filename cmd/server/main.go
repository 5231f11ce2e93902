package main

import (
	"fmt"
	"os"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/config"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/logger"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "macro-tracker",
		Short: "Calorie and macronutrient tracking backend",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}
			cfg = loaded
			logger.Init(cfg.Log)
			return nil
		},
		// 不带子命令时启动服务器
		RunE: runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE:  runMigrate,
	}

	createUserCmd = &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account with email and password",
		RunE:  runCreateUser,
	}

	reconcileCmd = &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute daily totals from stored meals",
		RunE:  runReconcile,
	}

	userEmail     string
	userPassword  string
	userName      string
	reconcileDays int
)

func init() {
	createUserCmd.Flags().StringVar(&userEmail, "email", "", "email address (required)")
	createUserCmd.Flags().StringVar(&userPassword, "password", "", "password, at least 8 characters (required)")
	createUserCmd.Flags().StringVar(&userName, "name", "", "display name")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")

	reconcileCmd.Flags().IntVar(&reconcileDays, "days", 0, "number of recent days to reconcile (default: reconcile.windowDays)")

	rootCmd.AddCommand(serveCmd, migrateCmd, createUserCmd, reconcileCmd)
	rootCmd.SilenceUsage = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

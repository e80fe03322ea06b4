package main

import (
	"fmt"
	"strings"
	"workTracker/internal/app"
	"workTracker/internal/config"
	"workTracker/internal/logger"
	"workTracker/internal/repository/postgres"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "worktracker",
		Short:        "Задачи с подзадачами и учёт рабочего времени",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # HTTP API
  worktracker serve --config config.yml

  # Схема PostgreSQL
  worktracker migrate up
  worktracker migrate down

  # Итоговый конфиг с учётом WORKTRACKER_* переменных
  worktracker config
`),
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "путь к config.yml")

	load := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	cmd.AddCommand(newServeCmd(load), newMigrateCmd(load), newConfigCmd(load))
	return cmd
}

type configLoader func() (*config.Config, error)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			a, err := app.New(cfg).Init(cmd.Context())
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}

func newMigrateCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Управление схемой PostgreSQL",
	}

	run := func(down bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.Logging.Development); err != nil {
				return fmt.Errorf("инициализация логгера: %w", err)
			}
			defer logger.Sync()

			storage, err := postgres.New(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			defer storage.Close()

			if down {
				return storage.Down(cmd.Context())
			}
			return storage.Migrate(cmd.Context())
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Применить миграции", Args: cobra.NoArgs, RunE: run(false)},
		&cobra.Command{Use: "down", Short: "Откатить все миграции", Args: cobra.NoArgs, RunE: run(true)},
	)
	return cmd
}

func newConfigCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Показать итоговую конфигурацию в YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return cfg.Dump(cmd.OutOrStdout())
		},
	}
}

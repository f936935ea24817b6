package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/weatherbot/core/bootstrap"
	"github.com/m3rciful/weatherbot/core/buildinfo"
	corecmd "github.com/m3rciful/weatherbot/core/cmd"
	coredatabase "github.com/m3rciful/weatherbot/core/database"
	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/internal/bot"
	"github.com/m3rciful/weatherbot/internal/config"
	"github.com/m3rciful/weatherbot/migrations"
)

const configEnvVar = "CONFIG_PATH"

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "weatherbot",
		Short: "Telegram bot reporting current weather and remembering favorite cities",
		Long: `weatherbot answers city names with the current weather from OpenWeatherMap
and lets every user bookmark cities for quick lookups.

Configuration comes from an optional YAML file, a .env file and the
environment; BOT_TOKEN and WEATHER_API_KEY are required.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return corecmd.Run(corecmd.Options{
				ConfigPath:   cfgFile,
				ConfigEnvVar: configEnvVar,
				LoadConfig:   loadConfig,
				Bootstrap:    bootstrapApp,
				Context:      cmd.Context(),
			})
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $"+configEnvVar+")")

	root.AddCommand(newMigrateCmd(&cfgFile), newVersionCmd())
	return root
}

func loadConfig(path string) (corecmd.ConfigCarrier, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func bootstrapApp(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("unexpected config type %T", carrier)
	}
	files, err := migrations.For(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: files,
	})
	if err != nil {
		return nil, err
	}
	app, err := bot.New(cfg, res.DB)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	return app, nil
}

func newMigrateCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Apply database migrations and exit",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(corecmd.ResolveConfigPath(*cfgFile, configEnvVar))
			if err != nil {
				return err
			}
			if err := logger.InitLogger(cfg.CoreConfig()); err != nil {
				return err
			}
			defer func() { _ = logger.Shutdown() }()

			files, err := migrations.For(cfg.Database.Driver)
			if err != nil {
				return err
			}
			return coredatabase.RunMigrations(cfg.Database, files)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "weatherbot", buildinfo.String())
		},
	}
}

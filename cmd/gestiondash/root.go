package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gestiondash/internal/config"
	"gestiondash/internal/database"
)

var (
	cfg        *config.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "gestiondash",
	Short: "API del tablero de gestión",
	Long:  "Calcula KPIs de contactabilidad y penetración sobre las gestiones del call center, resuelve consultas fijas y guarda snapshots de resultados.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return eris.Wrap(err, "error cargando configuración")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "error iniciando logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.SilenceUsage = true

	defaultPath := os.Getenv("GESTIONDASH_CONFIG")
	if defaultPath == "" {
		defaultPath = config.DefaultPath
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "archivo de configuración YAML")
}

// connect valida la configuración de base y abre el pool.
func connect() (*database.Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conn, err := database.NewConnection(cfg.Database)
	if err != nil {
		return nil, err
	}
	zap.L().Info("base de datos conectada",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database))
	return conn, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

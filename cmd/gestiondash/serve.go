package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gestiondash/internal/api"
	"gestiondash/internal/provisioning"
	"gestiondash/internal/websocket"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Inicia la API HTTP",
	Long:  "Conecta a la base, aplica migraciones si database.auto_migrate está activo y sirve la API hasta recibir SIGINT o SIGTERM.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "puerto HTTP (sobrescribe api.port)")
	serveCmd.Flags().Bool("migrate", false, "aplicar migraciones antes de servir")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.API.Port = port
	}

	conn, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate || cfg.Database.AutoMigrate {
		if err := provisioning.RunMigrations(conn.DB); err != nil {
			return err
		}
	}

	var hub *websocket.Hub
	if cfg.API.EnableWebsocket {
		hub = websocket.NewHub(cfg.API.AllowedOrigins)
		go hub.Run(ctx)
	}

	srv, err := api.NewServer(cfg, conn.DB, hub)
	if err != nil {
		return err
	}

	if err := srv.Start(ctx); err != nil {
		return err
	}
	zap.L().Info("servidor detenido")
	return nil
}

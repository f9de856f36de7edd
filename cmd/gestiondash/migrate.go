package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gestiondash/internal/provisioning"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Administra el esquema de snapshots",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Aplica las migraciones pendientes",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := connect()
		if err != nil {
			return err
		}
		defer func() { _ = conn.Close() }()

		return provisioning.RunMigrations(conn.DB)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revierte todas las migraciones (borra los snapshots)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return eris.New("migrate down borra dashboard_snapshots; repetir con --yes")
		}

		conn, err := connect()
		if err != nil {
			return err
		}
		defer func() { _ = conn.Close() }()

		if err := provisioning.Down(conn.DB); err != nil {
			return err
		}
		zap.L().Warn("migraciones revertidas")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Muestra la versión del esquema",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := connect()
		if err != nil {
			return err
		}
		defer func() { _ = conn.Close() }()

		version, dirty, err := provisioning.Version(conn.DB)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "versión: %d dirty: %v\n", version, dirty)
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().Bool("yes", false, "confirmar")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

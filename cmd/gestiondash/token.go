package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"gestiondash/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token [subject]",
	Short: "Emite un token Bearer para la API",
	Long:  "Firma un JWT con auth.jwt_secret. Sólo tiene sentido si el guard está activo.",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().Duration("ttl", 0, "vigencia (por defecto auth.token_ttl_hours)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	guard, err := auth.NewGuard(cfg.Auth.JWTSecret)
	if err != nil {
		return eris.Wrap(err, "no se puede firmar")
	}

	ttl, _ := cmd.Flags().GetDuration("ttl")
	if ttl <= 0 {
		ttl = time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
	}

	tok, err := guard.GenerateToken(args[0], ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	apiHost  string
	apiToken string
)

var rootCmd = &cobra.Command{
	Use:   "gestiondash-cli",
	Short: "CLI para consultar el tablero de gestión",
	Long:  `Una herramienta de línea de comandos para consultar KPIs, snapshots y consultas del tablero de gestión de forma remota.`,
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().StringVar(&apiHost, "host", envOr("GESTIONDASH_API", "http://localhost:8000"), "URL base de la API")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", os.Getenv("GESTIONDASH_TOKEN"), "token Bearer, si la API lo exige")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func api() *client {
	return newClient(apiHost, apiToken)
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("start", "", "desde (YYYYMMDD o YYYYMMDDhhmmss)")
	cmd.Flags().String("end", "", "hasta (YYYYMMDD o YYYYMMDDhhmmss)")
	cmd.Flags().String("campaign", "", "campaña: id o texto")
	cmd.Flags().String("agent", "", "agente: id o texto")
}

func getString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

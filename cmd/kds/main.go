package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "kds",
		Short:   "Kitchen display client for qr-kitchen",
		Version: Version,
	}

	rootCmd.PersistentFlags().String("server", envOr("KDS_SERVER", "http://localhost:8080"), "API base URL")
	rootCmd.PersistentFlags().String("token", os.Getenv("KDS_TOKEN"), "Bearer token (or KDS_TOKEN)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level")

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(advanceCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

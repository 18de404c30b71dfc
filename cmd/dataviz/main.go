package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"dataviz/internal/config"
	"dataviz/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dataviz",
		Short: "Turn CSV and Excel files into charts",
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newRenderCmd(),
		newInspectCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	var port string
	var ginMode string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web visualizer",
		Long: `Run the upload-and-chart web server.

Settings come from the environment (and .env when present); flags override them.

Example: dataviz serve --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				log.Println("No .env file found, using system environment variables")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			if ginMode != "" {
				cfg.Server.GinMode = ginMode
			}

			appContainer, err := container.New(cfg)
			if err != nil {
				return err
			}
			defer appContainer.Shutdown(context.Background())

			appContainer.StartBackground(cmd.Context())
			return appContainer.Server.Start(":" + cfg.Server.Port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")
	cmd.Flags().StringVar(&ginMode, "gin-mode", "", "Gin mode: debug, release or test (overrides GIN_MODE)")

	return cmd
}

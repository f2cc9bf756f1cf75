package commands

import (
	"github.com/rafaavmsilva/Menu/src/config"
	"github.com/rafaavmsilva/Menu/src/logger"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
// Running it without a subcommand starts the HTTP server.
func NewRootCommand() *cobra.Command {
	serveCmd := newServeCommand()

	rootCmd := &cobra.Command{
		Use:   "menu",
		Short: "Bank statement import and CNPJ enrichment service",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadConfig()
			logger.InitLogger(config.Cfg.LogLevel)
		},
		RunE: serveCmd.RunE,
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newImportCommand())

	return rootCmd
}

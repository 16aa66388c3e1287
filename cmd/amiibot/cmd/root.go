// Package cmd implements the amiibot CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "amiibot",
	Short: "Track amiibo stock across online retailers",
	Long: "amiibot polls retailer listing pages on a schedule, keeps a ledger of what\n" +
		"each shop currently offers and notifies Discord and Telegram when listings\n" +
		"appear, change price or disappear.",
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "API server URL for remote commands")
	rootCmd.PersistentFlags().String("output", "table", "output format (table, json)")

	cobra.CheckErr(viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")))
	cobra.CheckErr(viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server")))
	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(stockCmd())
	rootCmd.AddCommand(triggerCmd())
	rootCmd.AddCommand(versionCmd())
}

// initConfig lets AMIIBOT_CONFIG, AMIIBOT_SERVER and AMIIBOT_OUTPUT
// override the flag defaults.
func initConfig() {
	viper.SetEnvPrefix("AMIIBOT")
	viper.AutomaticEnv()
}

// Root returns the root cobra command.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func configPath() string {
	return viper.GetString("config")
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}

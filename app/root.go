// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var configPath string // Path to the configuration file

var rootCmd = &cobra.Command{
	Use:   "entra-rp",
	Short: "entra-rp signs users in with Microsoft Entra ID",
	Long: `entra-rp is a minimal OAuth2 authorization code relying party for Microsoft Entra ID.
It redirects to the provider, exchanges the returned code for tokens and shows
the claims of the identity token.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the TOML configuration file (default ./etc/main.toml if present)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

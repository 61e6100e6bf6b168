package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/radiusgo/goradius/internal/config"
)

var (
	// cfgPath is the path to the YAML configuration file naming the
	// servers this invocation may address.
	cfgPath string

	// cfg is loaded from cfgPath in PersistentPreRunE, or a bare default
	// config.Config when cfgPath is empty and the command supplies its
	// own --server-addr/--secret flags.
	cfg *config.Config
)

// rootCmd is the top-level cobra command for radiusclient.
var rootCmd = &cobra.Command{
	Use:   "radiusclient",
	Short: "Send one RADIUS transaction and print the result",
	Long:  "radiusclient builds, sends, and validates a single Access-Request or Accounting-Request against a configured RADIUS server.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if cfgPath == "" {
			cfg = config.DefaultConfig()
			return nil
		}
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config %s: %w", cfgPath, err)
		}
		cfg = loaded
		return nil
	},
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to configuration file naming servers (YAML)")

	rootCmd.AddCommand(sendCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

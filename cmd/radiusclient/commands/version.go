package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	appversion "github.com/radiusgo/goradius/internal/version"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print radiusclient build information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Print(appversion.Full("radiusclient"))
			fmt.Println()
		},
	}
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the tradereplay CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tradereplay version %s\n", version)
		fmt.Println("A daily-bar strategy replay engine")
		fmt.Println("https://github.com/rustyeddy/tradereplay")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

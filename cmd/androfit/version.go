package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	agent "github.com/androfit/agent"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of androfit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("androfit version %s\n", strings.TrimSpace(agent.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

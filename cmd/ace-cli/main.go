package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ace-cli",
	Short: "ACE playbook engine command line",
	Long: `A command-line interface for the ACE (Agentic Context Engineering)
framework: solve queries with playbook guidance, run offline adaptation
over training sets, and inspect or export the persisted playbook.`,
	Version: "0.1.0",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

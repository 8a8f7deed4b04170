package main

import (
	"fmt"
	"os"

	"github.com/benvon/smart-auth/cmd/authctl/commands"
	"github.com/benvon/smart-auth/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "authctl",
		Short: "Administration tool for smart-auth",
		Long:  "CLI tool for inspecting users, revoking sessions, applying the schema and checking OAuth configuration",
	}

	commands.AddCommands(rootCmd, commands.DefaultOpener, config.Load)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

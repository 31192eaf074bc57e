package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Development helpers (require a server started with --dev)",
}

var devSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the server with demo todos",
	RunE:  runDevSeed,
}

var devResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all todos and profiles",
	RunE:  runDevReset,
}

func init() {
	rootCmd.AddCommand(devCmd)
	devCmd.AddCommand(devSeedCmd, devResetCmd)

	devCmd.PersistentFlags().StringVar(&todoServer, "server", "", "Server base URL")
	devCmd.PersistentFlags().StringVar(&todoToken, "token", "", "Session token")
}

func runDevSeed(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	if err := c.Seed(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("Seeded demo todos.")
	return nil
}

func runDevReset(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	if err := c.Reset(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("Reset all data.")
	return nil
}

package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shipfast/livesync/internal/session"
	"github.com/shipfast/livesync/todo"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage session tokens",
}

var tokenNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Issue a session token for a user",
	RunE:  runTokenNew,
}

var (
	tokenNewEmail  string
	tokenNewUserID string
)

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenNewCmd)

	tokenNewCmd.Flags().StringVar(&tokenNewEmail, "email", "", "User email (required)")
	tokenNewCmd.Flags().StringVar(&tokenNewUserID, "user-id", "", "User id (generated when omitted)")
	_ = tokenNewCmd.MarkFlagRequired("email")
}

func runTokenNew(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.Secret == "" {
		return fmt.Errorf("auth secret is required; set [auth] secret in livesync.toml")
	}
	ttl, err := cfg.TokenTTL()
	if err != nil {
		return err
	}

	sessions, err := session.NewManager(cfg.Auth.Secret, ttl)
	if err != nil {
		return err
	}

	userID := tokenNewUserID
	if userID == "" {
		userID = uuid.NewString()
	}

	token, err := sessions.Issue(todo.Principal{ID: userID, Email: tokenNewEmail})
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}

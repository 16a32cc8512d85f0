package main

import (
	"bingohall/internal/model"
	"bingohall/internal/service"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagUserID   string
	flagUsername string
	flagPicture  string
	flagTTL      time.Duration
)

// tokenCmd issues development tokens signed with JWT_SECRET
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed JWT for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is required")
		}
		auth := service.NewAuthService(cfg.JWTSecret, cfg.JWTIssuer)
		token, err := auth.IssueToken(model.Identity{
			ID:       flagUserID,
			Username: flagUsername,
			Picture:  flagPicture,
		}, flagTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&flagUserID, "user", "", "user id (random when empty)")
	f.StringVar(&flagUsername, "name", "player", "display name")
	f.StringVar(&flagPicture, "picture", "", "avatar url")
	f.DurationVar(&flagTTL, "ttl", 24*time.Hour, "token lifetime")
}

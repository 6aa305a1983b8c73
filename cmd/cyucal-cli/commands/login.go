package commands

import (
	"log/slog"

	"cyucal-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(limitsCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Checks the configured credentials against the portal and prints the resolved identity.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg)
		ctx := cmd.Context()

		session, err := client.Login(ctx, cfg.Username, cfg.Password)
		if err != nil {
			serviceutil.Fatal("failed to login", err)
		}
		identity, err := client.GetIdentity(ctx, session)
		if err != nil {
			serviceutil.Fatal("failed to resolve identity", err)
		}

		slog.Info(
			"logged in",
			"federation_id", identity.FederationID,
			"display_name", identity.DisplayName,
		)
	},
}

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Prints the enrollment window of the configured account.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg)
		ctx := cmd.Context()

		session, err := client.Login(ctx, cfg.Username, cfg.Password)
		if err != nil {
			serviceutil.Fatal("failed to login", err)
		}
		identity, err := client.GetIdentity(ctx, session)
		if err != nil {
			serviceutil.Fatal("failed to resolve identity", err)
		}
		limits, err := client.GetLimits(ctx, session, identity.FederationID)
		if err != nil {
			serviceutil.Fatal("failed to resolve enrollment window", err)
		}

		slog.Info(
			"enrollment window",
			"start", limits.Start.Format("2006-01-02"),
			"end", limits.End.Format("2006-01-02"),
		)
	},
}

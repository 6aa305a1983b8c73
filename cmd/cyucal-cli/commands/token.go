package commands

import (
	"fmt"
	"log/slog"

	"cyucal-backend/lib/credcodec"
	"cyucal-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	tokenCmd.AddCommand(tokenIssueCmd)
	tokenCmd.AddCommand(tokenRedeemCmd)
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issues and redeems portable credential tokens.",
}

func loadCodec(cfg Config) *credcodec.Codec {
	codec, err := credcodec.NewFromBase64(cfg.Key)
	if err != nil {
		serviceutil.Fatal("failed to load sealing key", err)
	}
	return codec
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Prints a portable token for the configured credentials.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		codec := loadCodec(cfg)

		token, err := codec.Encode(cfg.Username, cfg.Password)
		if err != nil {
			serviceutil.Fatal("failed to seal credentials", err)
		}
		fmt.Println(token)
	},
}

var tokenRedeemCmd = &cobra.Command{
	Use:   "redeem <token>",
	Short: "Decodes a portable token and performs a fresh login with the recovered credentials.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		codec := loadCodec(cfg)
		ctx := cmd.Context()

		username, password, err := codec.Decode(args[0])
		if err != nil {
			serviceutil.Fatal("failed to decode token", err)
		}

		client := newClient(cfg)
		session, err := client.Login(ctx, username, password)
		if err != nil {
			serviceutil.Fatal("failed to login with recovered credentials", err)
		}
		identity, err := client.GetIdentity(ctx, session)
		if err != nil {
			serviceutil.Fatal("failed to resolve identity", err)
		}

		slog.Info(
			"token redeemed",
			"username", username,
			"federation_id", identity.FederationID,
			"display_name", identity.DisplayName,
		)
	},
}

package commands

import (
	"context"
	"fmt"
	"os"

	"cyucal-backend/lib/celcat"
	"cyucal-backend/lib/configutil"
	"cyucal-backend/lib/restyutil"
	"cyucal-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cyucal-cli",
	Short: "cyucal-cli drives the CYU calendar portal adapter from the terminal.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type Config struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// Key seals portable credential tokens, base64 of 32 bytes.
	Key string `json:"key"`
	// BaseUrl overrides the production portal, mostly for testing
	// against a local mock.
	BaseUrl string `json:"base_url"`
}

func loadConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

func newClient(cfg Config) *celcat.Client {
	celcat.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/cyucal-cli"))
	return celcat.NewClient(celcat.ClientOptions{BaseUrl: cfg.BaseUrl})
}

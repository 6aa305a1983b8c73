package commands

import (
	"fmt"
	"log/slog"
	"os"

	"cyucal-backend/lib/celcat"
	"cyucal-backend/lib/icalfeed"
	"cyucal-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var feedOut *string
var feedColorBy *string

func init() {
	feedOut = feedCmd.Flags().String("out", "calendar.ics", "The file to write the iCalendar document to, \"-\" for stdout.")
	feedColorBy = feedCmd.Flags().String("color-by", "category", "The portal coloring scheme, \"category\" or \"subject\".")
	rootCmd.AddCommand(feedCmd)
}

var feedCmd = &cobra.Command{
	Use:   "feed [--out <path/to/calendar.ics>] [--color-by category|subject]",
	Short: "Fetches the whole enrollment-window calendar and writes it as an iCalendar document.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg)
		ctx := cmd.Context()

		colorBy := celcat.ColorByEventCategory
		switch *feedColorBy {
		case "category":
		case "subject":
			colorBy = celcat.ColorBySubject
		default:
			serviceutil.Fatal("unknown coloring scheme", fmt.Errorf("%q", *feedColorBy))
		}

		session, err := client.Login(ctx, cfg.Username, cfg.Password)
		if err != nil {
			serviceutil.Fatal("failed to login", err)
		}
		identity, err := client.GetIdentity(ctx, session)
		if err != nil {
			serviceutil.Fatal("failed to resolve identity", err)
		}
		events, err := client.GetAllCalendar(ctx, session, identity.FederationID, colorBy)
		if err != nil {
			serviceutil.Fatal("failed to fetch calendar", err)
		}

		document, err := icalfeed.Generate(events)
		if err != nil {
			serviceutil.Fatal("failed to serialize calendar", err)
		}

		if *feedOut == "-" {
			fmt.Print(document)
			return
		}
		err = os.WriteFile(*feedOut, []byte(document), 0644)
		if err != nil {
			serviceutil.Fatal("failed to write output", err)
		}
		slog.Info("wrote calendar", "out", *feedOut, "events", len(events))
	},
}

// ABOUTME: CLI command to list reminders that have not been delivered yet
package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jekbot/jek/internal/config"
	"github.com/jekbot/jek/internal/storage/sqlite"
)

func newRemindersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "List pending reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			db, err := sqlite.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			pending, err := sqlite.NewReminderStore(db).ListPending()
			if err != nil {
				return fmt.Errorf("listing reminders: %w", err)
			}

			if len(pending) == 0 {
				fmt.Println("No pending reminders")
				return nil
			}

			loc := cfg.ArchiveLocation()
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSER\tDUE\tDESCRIPTION")
			for _, rem := range pending {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					rem.ID, rem.UserID, rem.DueAt.In(loc).Format("2006-01-02 15:04"), rem.Description)
			}
			return w.Flush()
		},
	}
}

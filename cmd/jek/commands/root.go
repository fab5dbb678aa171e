// ABOUTME: Root Cobra command wiring for the jek CLI
// ABOUTME: Subcommands cover the server plus operational inspection tools
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersion records build metadata for the version command.
func SetVersion(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jek",
		Short: "Personal WhatsApp assistant with long-term memory",
		Long: `jek is a conversational personal assistant.

It remembers facts about each user, grounds its replies in that
memory, logs daily activities, delivers reminders, and fine-tunes
a personalized model from the user's own conversations.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newServeCmd(),
		newFactsCmd(),
		newRemindersCmd(),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("jek %s (commit %s, built %s)\n", buildVersion, buildCommit, buildDate)
		},
	}
}

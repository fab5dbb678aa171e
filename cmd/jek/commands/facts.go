// ABOUTME: CLI commands to inspect and edit a user's stored facts
// ABOUTME: Operational tooling for support, not part of the chat surface
package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jekbot/jek/internal/config"
	"github.com/jekbot/jek/internal/llm"
	"github.com/jekbot/jek/internal/logger"
	"github.com/jekbot/jek/internal/memory"
	"github.com/jekbot/jek/internal/storage/sqlite"
)

func newFactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Inspect and edit stored facts",
	}
	cmd.AddCommand(newFactsListCmd(), newFactsAddCmd(), newFactsForgetCmd())
	return cmd
}

func newFactsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <user-id>",
		Short: "List how many fact chunks a user has stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			count, err := sqlite.NewEmbeddingStore(db, cfg.VectorDimension).CountByUser(args[0])
			if err != nil {
				return fmt.Errorf("counting facts: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "USER\tFACT CHUNKS\n%s\t%d\n", args[0], count)
			return w.Flush()
		},
	}
}

func newFactsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <user-id> <fact>",
		Short: "Store a fact for a user, subject to deduplication",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			// The embeddings table references users; make sure the row exists.
			if _, err := sqlite.NewUserStore(db).GetOrCreate(args[0]); err != nil {
				return fmt.Errorf("loading user: %w", err)
			}
			embeddings := sqlite.NewEmbeddingStore(db, cfg.VectorDimension)

			client, err := llm.NewClient(llm.Config{
				APIKey:         cfg.OpenAIKey,
				ChatModel:      cfg.ChatModel,
				EmbeddingModel: cfg.EmbeddingModel,
				Timeout:        cfg.Timeout,
				MaxRetries:     cfg.MaxRetries,
				RetryDelay:     cfg.RetryDelay,
			})
			if err != nil {
				return fmt.Errorf("creating llm client: %w", err)
			}

			facts := memory.NewFactStore(client, embeddings, cfg.DedupThreshold, logger.Nop())
			stored, err := facts.Ingest(context.Background(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("storing fact: %w", err)
			}
			if !stored {
				fmt.Println("Discarded: duplicate of an existing fact")
				return nil
			}
			fmt.Println("Stored")
			return nil
		},
	}
}

func newFactsForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <user-id> <keyword>",
		Short: "Delete stored facts matching a keyword",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			deleted, err := sqlite.NewEmbeddingStore(db, cfg.VectorDimension).DeleteByUserMatching(args[0], args[1])
			if err != nil {
				return fmt.Errorf("deleting facts: %w", err)
			}
			fmt.Printf("Deleted %d fact chunk(s)\n", deleted)
			return nil
		},
	}
}

// openDB loads config and opens the database. The returned func closes it.
func openDB() (*config.Config, *sqlite.DB, func(), error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return cfg, db, func() { db.Close() }, nil
}

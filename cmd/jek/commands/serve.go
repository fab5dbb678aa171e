// ABOUTME: Serve command runs the assistant: websocket gateway, message
// ABOUTME: router, reminder poller, training sweeps, and metrics endpoint
package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jekbot/jek/internal/classify"
	"github.com/jekbot/jek/internal/config"
	"github.com/jekbot/jek/internal/gateway"
	"github.com/jekbot/jek/internal/llm"
	"github.com/jekbot/jek/internal/locks"
	"github.com/jekbot/jek/internal/logger"
	"github.com/jekbot/jek/internal/memory"
	"github.com/jekbot/jek/internal/metrics"
	"github.com/jekbot/jek/internal/router"
	"github.com/jekbot/jek/internal/scheduler"
	"github.com/jekbot/jek/internal/storage/sqlite"
	"github.com/jekbot/jek/internal/training"
)

const imageCacheBytes = 64 << 20

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the assistant server",
		Long: `Run the assistant server.

Accepts websocket connections from the messaging bridge, routes
inbound messages through the conversation state machine, and runs
the reminder and training background loops.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	users := sqlite.NewUserStore(db)
	embeddings := sqlite.NewEmbeddingStore(db, cfg.VectorDimension)
	reminders := sqlite.NewReminderStore(db)
	activity := sqlite.NewActivityLogStore(db)
	prefs := sqlite.NewPreferenceStore(db)

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

	analyst := classify.New(client, logger.Component(log, "classify"))
	facts := memory.NewFactStore(client, embeddings, cfg.DedupThreshold, logger.Component(log, "memory"))
	retriever := memory.NewRetriever(client, embeddings, cfg.RelevanceThreshold, cfg.RetrievalLimit)
	trainer := training.NewTrainer(client, users, prefs, logger.Component(log, "training"))

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	images, err := router.NewImageCache(imageCacheBytes)
	if err != nil {
		return fmt.Errorf("creating image cache: %w", err)
	}
	defer images.Close()

	// One lock set for everything that mutates user records: message
	// turns and the training sweeps.
	userLocks := locks.NewKeyed()

	// Gateway and router reference each other; the gateway takes the
	// handler up front and the router takes the gateway as its sender.
	var rt *router.Router
	ws := gateway.NewWebsocketGateway(gateway.HandlerFunc(func(ctx context.Context, msg gateway.Inbound) {
		rt.HandleMessage(ctx, msg)
	}), logger.Component(log, "gateway"))

	rt = router.New(router.Deps{
		Users:           users,
		Activity:        activity,
		Prefs:           prefs,
		Reminders:       reminders,
		Facts:           facts,
		Retriever:       retriever,
		Forgetter:       embeddings,
		Completer:       client,
		Analyst:         analyst,
		Trainer:         trainer,
		Sender:          ws,
		Images:          images,
		Metrics:         m,
		ArchiveLocation: cfg.ArchiveLocation(),
		Logger:          logger.Component(log, "router"),
		Locks:           userLocks,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller := scheduler.NewReminderPoller(reminders, ws, m, logger.Component(log, "reminders"), cfg.ReminderInterval, nil)
	go poller.Run(ctx)

	sweeper := scheduler.NewTrainingSweeper(users, trainer, trainer, analyst, ws, userLocks, m,
		logger.Component(log, "training-sweep"), cfg.StatusSweepInterval, cfg.TrainingSweepInterval, nil)
	go sweeper.Run(ctx)

	metricsSrv := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/ws", ws)
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("metrics", cfg.MetricsAddr).Msg("jek listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("gateway shutdown incomplete")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("metrics shutdown incomplete")
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"chatwire/bridge"
	"chatwire/handlers"
	"chatwire/internal"
	"chatwire/moderation"
	"chatwire/observability"
	"chatwire/repositories"
	"chatwire/runtime"
	"chatwire/runtime/workers"
	"chatwire/search"
	"chatwire/services"
	"chatwire/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer executes before the process
// exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := observability.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB) & Search (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	indexWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = indexWriter.Close()
	}()

	// 3. Shared runtime pieces
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(log, registry, metrics, config.SinkTimeout)

	var redisClient *redis.Client
	if config.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		defer func() { _ = redisClient.Close() }()
	}
	var redisBridge *bridge.RedisBridge
	if redisClient != nil {
		redisBridge = bridge.NewRedisBridge(log, redisClient, broadcaster)
		broadcaster.WithBridge(redisBridge)
	}

	// 4. Repositories, moderation, search
	messageRepository := repositories.NewMessageRepository(db, log)
	chatRepository := repositories.NewChatRepository(db, log)
	userRepository := repositories.NewUserRepository(db)

	censored, err := moderation.LoadCensoredWords()
	if err != nil {
		return fmt.Errorf("loading censored words failed: %w", err)
	}
	moderator, err := moderation.NewModerator(censored.Words, config.ModerationCharReplacement, log)
	if err != nil {
		return fmt.Errorf("moderator init failed: %w", err)
	}
	index := search.NewMessageIndex(indexWriter, log)

	// 5. Workers under supervision
	hintFanout := workers.NewHintFanout(log, broadcaster, config.HintBufferSize)
	typingTracker := workers.NewTypingTracker(config.TypingTTL)
	typingSweeper := workers.NewTypingSweeper(log, typingTracker, broadcaster, config.TypingSweepInterval)
	gc := workers.NewBadgerGC(log, db, config.BadgerGCInterval)

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(hintFanout, typingSweeper, gc)
	if redisBridge != nil {
		sup.Add(redisBridge)
	}

	// 6. Services
	messageService := services.NewMessageService(log, messageRepository, chatRepository,
		&moderator, index, broadcaster, hintFanout, typingTracker, metrics)
	receiptService := services.NewReceiptService(log, messageRepository, chatRepository,
		broadcaster, hintFanout, metrics)
	pinService := services.NewPinService(log, messageRepository, chatRepository,
		index, broadcaster, config.DeleteWindow)
	historyService := services.NewHistoryService(log, messageRepository, chatRepository)
	chatService := services.NewChatService(log, chatRepository, messageRepository, index)
	chatListService := services.NewChatListService(log, chatRepository, userRepository, messageRepository)
	presenceService := services.NewPresenceService(log, userRepository, broadcaster)
	typingService := services.NewTypingService(broadcaster, typingTracker)

	// 7. HTTP surface
	gateway := ws.NewGateway(log, registry, presenceService, messageService,
		receiptService, pinService, typingService, chatService, metrics, config.ConnectionBufferSize)

	statsCollector, err := observability.NewStatsCollector()
	if err != nil {
		return fmt.Errorf("stats collector init failed: %w", err)
	}

	chatHandler := handlers.NewChatHandler(log, chatService, historyService, chatListService, pinService)

	router := mux.NewRouter()
	router.Use(handlers.RequestLogger(log))
	router.HandleFunc("/ws", gateway.ServeWS)
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/debug/stats", handlers.DebugStats(statsCollector))
	router.HandleFunc("/debug/store", internal.StoreHandler(db, internal.DomainMapper, func() map[string]any {
		stats, err := statsCollector.Collect()
		if err != nil {
			return map[string]any{"error": err.Error()}
		}
		return map[string]any{
			"goroutines": stats.Goroutines,
			"rss_mb":     stats.RSSBytes / 1024 / 1024,
			"uptime_s":   stats.UptimeSeconds,
		}
	}))

	api := router.PathPrefix("/api").Subrouter()
	api.Use(handlers.Authenticate)
	chatHandler.Register(api)

	// 8. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supDone := make(chan struct{})
	go func() {
		defer close(supDone)
		sup.Run(ctx)
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", server.Addr, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 10. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	stop()
	<-supDone
	log.Info("Program stopped cleanly")

	return nil
}

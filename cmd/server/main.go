package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"supportchat/internal/blob"
	"supportchat/internal/bot"
	"supportchat/internal/config"
	"supportchat/internal/domain"
	"supportchat/internal/httpserver"
	"supportchat/internal/security"
	"supportchat/internal/store/memory"
	"supportchat/internal/store/sqlite"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Message repository
	var repo domain.MessageRepository
	switch cfg.StoreDriver {
	case config.StoreMemory:
		repo = memory.NewMessageRepo()
	default:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()
		if err := sqlite.Migrate(db); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		repo = sqlite.NewMessageRepo(db)
	}

	// Attachment blobs
	blobs, err := blob.NewStore(cfg.UploadDir, cfg.MaxAttachmentBytes)
	if err != nil {
		log.Fatalf("failed to initialize blob store: %v", err)
	}

	// Optional at-rest encryption of message bodies
	var encryptor *security.Encryptor
	if cfg.EncryptKey != "" {
		encryptor, err = security.NewEncryptor([]byte(cfg.EncryptKey))
		if err != nil {
			log.Fatalf("failed to initialize encryptor: %v", err)
		}
	}

	// Bot reply provider
	provider, err := buildProvider(cfg)
	if err != nil {
		log.Fatalf("failed to build reply provider: %v", err)
	}

	// Build HTTP router
	router := httpserver.NewRouter(cfg, repo, blobs, encryptor, provider)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Starting support chat server on %s (store=%s, bot=%s)\n", cfg.HTTPAddr(), cfg.StoreDriver, cfg.BotProvider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func buildProvider(cfg *config.Config) (bot.ReplyProvider, error) {
	switch cfg.BotProvider {
	case config.BotRules:
		rules, err := bot.ParseRules(cfg.BotRules)
		if err != nil {
			return nil, err
		}
		return bot.NewRules(rules, cfg.BotReplyText)
	case config.BotHTTP:
		return bot.NewHTTP(cfg.BotHTTPURL, time.Duration(cfg.BotHTTPTimeoutSeconds)*time.Second), nil
	default:
		return bot.NewStatic(cfg.BotReplyText), nil
	}
}

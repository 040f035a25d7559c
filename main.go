package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/wortschatz/internal/ai"
	"github.com/example/wortschatz/internal/api"
	"github.com/example/wortschatz/internal/auth"
	"github.com/example/wortschatz/internal/cards"
	"github.com/example/wortschatz/internal/database"
	"github.com/example/wortschatz/internal/logger"
	"github.com/example/wortschatz/internal/resolver"
	"github.com/example/wortschatz/internal/scheduler"
	"github.com/example/wortschatz/internal/vocab"
	"github.com/example/wortschatz/internal/wordinfo"
)

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	logg, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logg.Sync()

	if err := database.Connect(); err != nil {
		logg.Fatal("failed to connect to database", "error", err)
	}
	defer database.Close()

	accessSecret := os.Getenv("SECRET_KEY")
	refreshSecret := os.Getenv("REFRESH_SECRET_KEY")
	if accessSecret == "" || refreshSecret == "" {
		logg.Fatal("SECRET_KEY and REFRESH_SECRET_KEY environment variables are not set")
	}

	userRepo := database.NewUserRepository()
	wordRepo := database.NewWordRepository()
	topicRepo := database.NewTopicRepository()
	userWordRepo := database.NewUserWordRepository()

	lookup := wordinfo.New(os.Getenv("DICTIONARY_BASE_URL"), logg)
	wordResolver := resolver.New(lookup, wordRepo, logg)
	vocabManager := vocab.NewManager(wordResolver, wordRepo, userWordRepo, topicRepo, logg)
	cardTracker := cards.NewTracker(userWordRepo, topicRepo, vocabManager, logg)
	authService := auth.NewService(userRepo, logg, accessSecret, refreshSecret)
	aiClient := ai.New(os.Getenv("AI_BASE_URL"), os.Getenv("AI_MODEL"))

	server := api.NewServer(authService, userRepo, topicRepo, wordRepo,
		vocabManager, cardTracker, aiClient, lookup, logg)

	// The orphan sweep is opt-in; the request path keeps the catalog
	// word-switch GC either way.
	var sweep *scheduler.Scheduler
	if os.Getenv("ORPHAN_SWEEP") == "1" {
		sweep = scheduler.New(wordRepo, logg)
		sweep.Start()
		defer sweep.Stop()
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		sig := <-sigChan
		logg.Info("received signal", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logg.Error("error during shutdown", "error", err)
		}
		close(done)
	}()

	logg.Info("server started", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Fatal("server error", "error", err)
	}

	<-done
	logg.Info("server stopped successfully")
}

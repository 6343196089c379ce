package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/advisorly/finassist/internal/config"
	"github.com/advisorly/finassist/internal/handler"
	"github.com/advisorly/finassist/internal/handler/recommend"
	"github.com/advisorly/finassist/internal/handler/updates"
	"github.com/advisorly/finassist/internal/identity"
	"github.com/advisorly/finassist/internal/service/ai"
	"github.com/advisorly/finassist/internal/service/news"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var feed ai.NewsSource
	if cfg.News.Enabled() {
		feed = news.NewFetcher(cfg.News.APIKey, cfg.News.Limit)
		log.Println("market-news feed enabled")
	} else {
		log.Println("FINNHUB_API_KEY not set, generating without market context")
	}

	var generator recommend.Generator
	if cfg.AI.Enabled() {
		aiSvc, err := ai.NewService(ctx, cfg.AI, feed)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without recommendation generation")
		} else {
			generator = aiSvc
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("Ark credentials not configured, skipping AI initialization")
	}

	var resolver recommend.TokenResolver
	if raw := strings.TrimSpace(os.Getenv("AUTH_DEV_TOKENS")); raw != "" {
		users, err := identity.ParseTokenPairs(raw)
		if err != nil {
			log.Fatalf("invalid AUTH_DEV_TOKENS: %v", err)
		}
		resolver = identity.NewStaticResolver(users)
		log.Printf("dev token resolver enabled for %d users", len(users))
	}

	hub := updates.NewHub()
	router := handler.NewRouter(generator, resolver, hub)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("financial assistant backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

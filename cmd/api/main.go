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
	"github.com/prometheus/client_golang/prometheus"

	"github.com/seunghwan-dev/chingu/backend/internal/config"
	"github.com/seunghwan-dev/chingu/backend/internal/handler"
	"github.com/seunghwan-dev/chingu/backend/internal/handler/pages"
	"github.com/seunghwan-dev/chingu/backend/internal/observability"
	"github.com/seunghwan-dev/chingu/backend/internal/prompt"
	"github.com/seunghwan-dev/chingu/backend/internal/service/ai"
	"github.com/seunghwan-dev/chingu/backend/internal/service/chat"
	"github.com/seunghwan-dev/chingu/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// A missing credential or persona template is a startup failure; the
	// process must not serve chat traffic without them.
	tmpl, err := prompt.Load(cfg.Chat.PromptPath)
	if err != nil {
		log.Fatalf("failed to load persona template: %v", err)
	}

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		log.Fatalf("failed to initialize chat model: %v", err)
	}

	store := session.NewMemoryStore(cfg.Chat.SessionMaxTurns)
	gateway := ai.NewService(chatModel, cfg.AI.UpstreamTimeout)
	chatSvc := chat.NewService(tmpl, store, gateway)
	metrics := observability.NewMetrics("chingu", prometheus.DefaultRegisterer)

	var pagesHandler *pages.Handler
	if _, statErr := os.Stat(cfg.Web.Dir); statErr == nil {
		pagesHandler, err = pages.New(cfg.Web.Dir)
		if err != nil {
			log.Fatalf("failed to load page templates: %v", err)
		}
	} else {
		log.Printf("web directory %s not found, serving API only", cfg.Web.Dir)
	}

	router := handler.NewRouter(chatSvc, metrics, pagesHandler)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("chingu backend listening on %s", addr)
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

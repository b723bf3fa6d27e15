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

	"github.com/cloudwego/eino/components/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/mindcheck/backend/internal/config"
	"github.com/zhouzirui/mindcheck/backend/internal/handler/predictor"
	middlewarePkg "github.com/zhouzirui/mindcheck/backend/internal/middleware"
	"github.com/zhouzirui/mindcheck/backend/internal/service/scoring"
	sentimentService "github.com/zhouzirui/mindcheck/backend/internal/service/sentiment"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	posts := scoring.NewFixturePosts(nil)
	if cfg.Reference.PostsFile != "" {
		posts, err = scoring.LoadFixturePosts(cfg.Reference.PostsFile)
		if err != nil {
			log.Fatalf("failed to load posts: %v", err)
		}
		log.Printf("loaded post fixtures from %s", cfg.Reference.PostsFile)
	} else {
		log.Println("PREDICTOR_POSTS_FILE 未配置，所有账号都没有帖子")
	}

	var chatModel model.BaseChatModel
	if cfg.AI.Enabled() && cfg.AI.SentimentLLMEnabled {
		cm, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
		} else {
			chatModel = cm
		}
	} else {
		log.Println("Ark 凭证未配置，情感分析使用词典规则")
	}

	classifier, err := sentimentService.NewService(ctx, chatModel, sentimentService.Config{
		Enabled:  cfg.AI.SentimentLLMEnabled,
		MaxPosts: cfg.Reference.MaxPosts,
	})
	if err != nil {
		log.Printf("warning: failed to initialize sentiment classifier: %v", err)
		classifier, _ = sentimentService.NewService(ctx, nil, sentimentService.Config{MaxPosts: cfg.Reference.MaxPosts})
	} else if classifier.Enabled() {
		log.Println("Sentiment classifier service enabled")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(cfg.CORS.AllowedOrigins))
	predictor.New(scoring.NewService(posts, classifier)).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              cfg.Reference.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("reference predictor listening on %s", srv.Addr)
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

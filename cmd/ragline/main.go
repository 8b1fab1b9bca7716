package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/ragline/ragline/internal/ai"
	"github.com/ragline/ragline/internal/config"
	"github.com/ragline/ragline/internal/db"
	"github.com/ragline/ragline/internal/embedcache"
	"github.com/ragline/ragline/internal/filestore"
	"github.com/ragline/ragline/internal/handler"
	"github.com/ragline/ragline/internal/job"
	"github.com/ragline/ragline/internal/middleware"
	"github.com/ragline/ragline/internal/rag"
	"github.com/ragline/ragline/internal/repo"
	"github.com/ragline/ragline/internal/schedule"
	"github.com/ragline/ragline/internal/service"
	"github.com/ragline/ragline/internal/stream"
	"github.com/ragline/ragline/internal/vectorstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "ragline",
		Short: "ragline context-assembly and streaming backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run ragline server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.DB)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	indexCmd := &cobra.Command{
		Use:   "index [dir]",
		Short: "print the structure overview for a local project directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := rag.GenerateProjectIndex(args[0])
			if index == "" {
				return fmt.Errorf("nothing indexable under %s", args[0])
			}
			fmt.Println(index)
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, indexCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("default_provider", cfg.AI.DefaultProvider),
	)

	projectRepo := repo.NewProjectRepo(conn)
	documentRepo := repo.NewDocumentRepo(conn)
	conversationRepo := repo.NewConversationRepo(conn)
	embedCacheRepo := repo.NewEmbeddingCacheRepo(conn)
	vectors := vectorstore.New(conn)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	providers := make(map[string]ai.IProvider, len(cfg.AI.Providers))
	for name, args := range cfg.AI.Providers {
		provider, err := ai.NewProvider(name, args)
		if err != nil {
			return fmt.Errorf("init provider %s: %w", name, err)
		}
		providers[name] = provider
	}
	embedProvider, err := ai.NewEmbedProvider(cfg.Embed.Provider, cfg.Embed.Args)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}
	embedder := ai.NewEmbedder(embedProvider, cfg.Embed.Model)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, embedCacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.Embed.CacheSize,
		time.Duration(cfg.Embed.CacheTTLSec)*time.Second)

	streams := stream.NewManager(cfg.Stream.BufferSize, cfg.Stream.MaxReconnectAttempts)

	projectService := service.NewProjectService(projectRepo, documentRepo, conversationRepo, vectors)
	ingestService := service.NewIngestService(projectRepo, documentRepo, store, embedder, vectors)
	chatService := service.NewChatService(projectRepo, conversationRepo, documentRepo, vectors,
		embedder, providers, cfg.AI.DefaultProvider, cfg.AI.DefaultModel, cfg.AI.Temperature, streams)
	providerService := service.NewProviderService(providers, cfg.AI.DefaultProvider)

	deps := handler.RouterDeps{
		Projects:      handler.NewProjectHandler(projectService),
		Documents:     handler.NewDocumentHandler(ingestService),
		Conversations: handler.NewConversationHandler(chatService),
		Chat: handler.NewChatHandler(chatService, streams,
			time.Duration(cfg.Stream.HeartbeatSec)*time.Second),
		Providers: handler.NewProviderHandler(providerService),
		Files:     handler.NewFileHandler(store),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
			// SSE responses must not pass through the gzip writer.
			gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`.*/chat$`, `.*/stream/.*`})),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler := schedule.NewCronScheduler()
	jobs := []struct {
		job  schedule.Job
		spec string
	}{
		{job.NewIngestScanJob(ingestService, uint(cfg.Jobs.IngestBatchSize)), cfg.Jobs.IngestScanSpec},
		{job.NewStreamSweepJob(streams, time.Duration(cfg.Stream.SessionTTLSec) * time.Second), cfg.Jobs.StreamSweepSpec},
		{job.NewEmbeddingCacheCleanupJob(embedCacheRepo, cfg.Jobs.CacheKeepDays), cfg.Jobs.CacheCleanupSpec},
	}
	for _, item := range jobs {
		if err := scheduler.AddJob(item.job, item.spec); err != nil {
			return fmt.Errorf("schedule %s: %w", item.job.Name(), err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

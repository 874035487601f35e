package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/chorehub/client/api/handler"
	"github.com/chorehub/client/internal/config"
	"github.com/chorehub/client/internal/infrastructure/boltdb"
	"github.com/chorehub/client/internal/infrastructure/monitor"
	"github.com/chorehub/client/internal/infrastructure/queue"
	"github.com/chorehub/client/internal/middleware"
	"github.com/chorehub/client/internal/remote"
	"github.com/chorehub/client/internal/router"
	"github.com/chorehub/client/internal/services/lifecycle"
	"github.com/chorehub/client/internal/services/notify"
	"github.com/chorehub/client/internal/services/reconciler"
	"github.com/chorehub/client/pkg/httpcontext"
	"github.com/chorehub/client/pkg/logger"
	boltRepo "github.com/chorehub/client/repository/bolt"
	groupUC "github.com/chorehub/client/usecase/group"
	taskUC "github.com/chorehub/client/usecase/task"
	userUC "github.com/chorehub/client/usecase/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	db, err := boltdb.Open(cfg.Cache.Path, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to open local cache", zap.Error(err))
	}
	manager.Register("cache", func(ctx context.Context) error {
		return db.Close()
	})

	store, err := queue.Wrap(db, boltdb.BucketQueue)
	if err != nil {
		zapLogger.Fatal("failed to open sync queue", zap.Error(err))
	}

	taskCache := boltRepo.NewTaskRepository(db)
	groupCache := boltRepo.NewGroupRepository(db)
	userCache := boltRepo.NewUserRepository(db)

	remoteClient := remote.New(remote.Config{
		BaseURL:        cfg.Remote.BaseURL,
		RequestTimeout: cfg.Remote.RequestTimeout,
	}, zapLogger)
	taskClient := remote.NewTaskClient(remoteClient, zapLogger)
	groupClient := remote.NewGroupClient(remoteClient, zapLogger)
	userClient := remote.NewUserClient(remoteClient, zapLogger)

	mon := monitor.New(remoteClient, store, cfg.Remote.PingInterval, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	hub := notify.NewHub(zapLogger)
	manager.Register("notify_hub", func(ctx context.Context) error {
		return hub.Close()
	})

	engine := reconciler.New(
		store,
		mon,
		[]reconciler.Target{
			reconciler.TaskTarget(taskCache, taskClient, zapLogger),
			reconciler.GroupTarget(groupCache, groupClient, zapLogger),
			reconciler.UserTarget(userCache, userClient, zapLogger),
		},
		reconciler.NewStatusBoard(),
		hub,
		zapLogger,
		reconciler.Config{
			Interval:     cfg.Sync.Interval,
			DrainTimeout: cfg.Sync.DrainTimeout,
			PurgeAfter:   cfg.Sync.PurgeAfter,
		},
	)
	engine.Start()
	manager.Register("reconciler", func(ctx context.Context) error {
		engine.Stop(ctx)
		return nil
	})

	taskUseCase := taskUC.New(taskCache, store, engine, zapLogger)
	groupUseCase := groupUC.New(groupCache, store, engine, zapLogger)
	userUseCase := userUC.New(userCache, store, engine, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Task:   apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Group:  apiHandler.NewGroupHandler(groupUseCase, ctxAdapter, zapLogger),
		User:   apiHandler.NewUserHandler(userUseCase, remoteClient, ctxAdapter, zapLogger),
		Sync:   apiHandler.NewSyncHandler(engine, store, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
		Feed:   hub,
	}

	r := router.New(handlers, middleware.RequestLog(zapLogger))

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("local API started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
